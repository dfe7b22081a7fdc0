package account

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

// NewMemoryStore builds an in-memory account store for development and tests.
func NewMemoryStore() Store {
	return &memoryStore{accounts: make(map[string]Account)}
}

func (s *memoryStore) Create(_ context.Context, acct Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[acct.Phone]; exists {
		return ErrPhoneExists
	}
	if acct.PendingOTP != nil {
		otp := *acct.PendingOTP
		acct.PendingOTP = &otp
	}
	s.accounts[acct.Phone] = acct
	return nil
}

func (s *memoryStore) FindByPhone(_ context.Context, phone string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.accounts[phone]
	if !ok {
		return Account{}, ErrNotFound
	}
	if acct.PendingOTP != nil {
		otp := *acct.PendingOTP
		acct.PendingOTP = &otp
	}
	return acct, nil
}

func (s *memoryStore) MarkVerified(_ context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[phone]
	if !ok || acct.State != StatePending {
		return ErrNotFound
	}
	acct.State = StateVerified
	acct.PendingOTP = nil
	s.accounts[phone] = acct
	return nil
}

func (s *memoryStore) ReplaceOTP(_ context.Context, phone, code string, issuedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[phone]
	if !ok || acct.State != StatePending {
		return ErrNotFound
	}
	acct.PendingOTP = &OTP{Code: code, IssuedAt: issuedAt}
	s.accounts[phone] = acct
	return nil
}
