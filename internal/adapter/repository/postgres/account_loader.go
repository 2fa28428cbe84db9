package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gotransfer/internal/domain"
	"github.com/iho/gotransfer/internal/usecase"
)

const selectAccounts = `SELECT id, balance::text FROM accounts ORDER BY id`

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// AccountLoader seeds an AccountStore from the accounts table.
// It only reads; balances are never written back.
type AccountLoader struct {
	db      querier
	retrier *Retrier
	logger  zerolog.Logger
}

// NewAccountLoader creates a new AccountLoader.
func NewAccountLoader(pool *pgxpool.Pool, logger zerolog.Logger) *AccountLoader {
	return newAccountLoader(pool, logger)
}

func newAccountLoader(db querier, logger zerolog.Logger) *AccountLoader {
	return &AccountLoader{
		db:      db,
		retrier: NewRetrier(logger),
		logger:  logger,
	}
}

type accountRow struct {
	id      string
	balance decimal.Decimal
}

// Load reads every account row and creates it in store. It returns the number
// of accounts created. Rows are validated like any other new account.
func (l *AccountLoader) Load(ctx context.Context, store usecase.AccountStore) (int, error) {
	var rows []accountRow

	err := l.retrier.Retry(ctx, func() error {
		var err error
		rows, err = l.fetch(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to load accounts: %w", err)
	}

	for _, row := range rows {
		if err := domain.ValidateAccountID(row.id); err != nil {
			return 0, fmt.Errorf("account %q: %w", row.id, err)
		}
		if err := domain.ValidateOpeningBalance(row.balance); err != nil {
			return 0, fmt.Errorf("account %s: %w", row.id, err)
		}

		if err := store.CreateAccount(ctx, domain.NewAccount(row.id, row.balance)); err != nil {
			return 0, err
		}
	}

	l.logger.Info().Int("accounts", len(rows)).Msg("accounts loaded from database")

	return len(rows), nil
}

func (l *AccountLoader) fetch(ctx context.Context) ([]accountRow, error) {
	rows, err := l.db.Query(ctx, selectAccounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []accountRow
	for rows.Next() {
		var (
			id      string
			balance string
		)
		if err := rows.Scan(&id, &balance); err != nil {
			return nil, err
		}

		d, err := decimal.NewFromString(balance)
		if err != nil {
			return nil, fmt.Errorf("account %s: invalid balance %q: %w", id, balance, err)
		}

		result = append(result, accountRow{id: id, balance: d})
	}

	return result, rows.Err()
}
