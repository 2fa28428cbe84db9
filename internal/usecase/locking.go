package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iho/gotransfer/internal/domain"
)

// lockAccount takes a single account lock within timeout (0 waits forever).
func lockAccount(ctx context.Context, timeout time.Duration, account *domain.Account) error {
	lockCtx, cancel := withLockTimeout(ctx, timeout)
	defer cancel()

	return acquire(ctx, lockCtx, account)
}

// lockPair acquires the locks of both accounts in domain.LockOrder and returns
// the function that releases them. Both acquisitions share one timeout. A
// self-transfer takes its single lock once. On failure nothing is left locked.
func lockPair(ctx context.Context, timeout time.Duration, from, to *domain.Account) (func(), error) {
	lockCtx, cancel := withLockTimeout(ctx, timeout)
	defer cancel()

	if from.ID() == to.ID() {
		if err := acquire(ctx, lockCtx, from); err != nil {
			return nil, err
		}
		return from.Unlock, nil
	}

	first, second := from, to
	if firstID, _ := domain.LockOrder(from.ID(), to.ID()); firstID != from.ID() {
		first, second = to, from
	}

	if err := acquire(ctx, lockCtx, first); err != nil {
		return nil, err
	}

	if err := acquire(ctx, lockCtx, second); err != nil {
		first.Unlock()
		return nil, err
	}

	return func() {
		second.Unlock()
		first.Unlock()
	}, nil
}

func withLockTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// acquire reports an expired lock timeout as domain.ErrLockTimeout and
// cancellation of the caller's ctx as ctx.Err().
func acquire(ctx, lockCtx context.Context, account *domain.Account) error {
	err := account.Lock(lockCtx)
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: account %s", domain.ErrLockTimeout, account.ID())
	}

	return err
}
