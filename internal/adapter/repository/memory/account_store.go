package memory

import (
	"context"
	"sync"

	"github.com/iho/gotransfer/internal/domain"
)

// AccountStore implements usecase.AccountStore in memory.
// It only guards the id index; balances are guarded by each account's lock.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
}

// NewAccountStore creates an empty AccountStore.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts: make(map[string]*domain.Account),
	}
}

// CreateAccount stores account unless its id already exists.
func (s *AccountStore) CreateAccount(ctx context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.ID()]; exists {
		return &domain.DuplicateAccountIDError{AccountID: account.ID()}
	}

	s.accounts[account.ID()] = account
	return nil
}

// GetAccount retrieves an account by ID.
func (s *AccountStore) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	return account, nil
}

// Len returns the number of stored accounts.
func (s *AccountStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.accounts)
}
