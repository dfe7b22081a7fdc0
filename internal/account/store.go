package account

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrPhoneExists signals a registration against an already-taken phone
	// number. The Postgres store derives it from the unique constraint, so
	// it is authoritative even when two registrations race.
	ErrPhoneExists = errors.New("phone number already registered")

	// ErrNotFound signals a lookup or conditional update that matched no
	// account.
	ErrNotFound = errors.New("account not found")
)

// Store persists accounts. Phone number is the unique natural key.
type Store interface {
	// Create inserts a new account. Returns ErrPhoneExists if the phone
	// number is taken; the underlying uniqueness guarantee must be atomic
	// with the insert.
	Create(ctx context.Context, acct Account) error

	// FindByPhone fetches an account by phone number.
	FindByPhone(ctx context.Context, phone string) (Account, error)

	// MarkVerified flips a pending account to verified and clears its OTP.
	// The transition is conditional on the account still being pending, so
	// concurrent verifications apply it at most once; callers that lose the
	// race get ErrNotFound.
	MarkVerified(ctx context.Context, phone string) error

	// ReplaceOTP attaches a fresh passcode to a still-pending account.
	ReplaceOTP(ctx context.Context, phone, code string, issuedAt time.Time) error
}
