package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/haatmakaam/backend/internal/account"
	"github.com/haatmakaam/backend/internal/notification"
)

// RegisterInput carries the registration request fields.
type RegisterInput struct {
	FullName string
	Phone    string
	Password string
	Role     string
}

// RegisterResult reports the created account plus whether the OTP delivery
// attempt succeeded. Delivery failure does not undo registration.
type RegisterResult struct {
	Account   account.Account
	Delivered bool
}

// Service implements the registration, verification and login flows.
type Service struct {
	store    account.Store
	hasher   *PasswordHasher
	otps     *OtpGenerator
	tokens   *TokenService
	notifier notification.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wires the auth flows together.
func NewService(store account.Store, hasher *PasswordHasher, otps *OtpGenerator, tokens *TokenService, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		hasher:   hasher,
		otps:     otps,
		tokens:   tokens,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Register creates a pending account, attaches a fresh OTP and requests
// out-of-band delivery. The store's uniqueness constraint is the
// authoritative duplicate guard; the pre-check only shortcuts the common
// case.
func (s *Service) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	role, err := account.ParseRole(in.Role)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if in.Phone == "" {
		return RegisterResult{}, fmt.Errorf("%w: phone number is required", ErrValidation)
	}
	if in.Password == "" {
		return RegisterResult{}, fmt.Errorf("%w: password is required", ErrValidation)
	}

	if _, err := s.store.FindByPhone(ctx, in.Phone); err == nil {
		return RegisterResult{}, account.ErrPhoneExists
	} else if !errors.Is(err, account.ErrNotFound) {
		return RegisterResult{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return RegisterResult{}, err
	}
	code, err := s.otps.Generate()
	if err != nil {
		return RegisterResult{}, err
	}

	now := s.now().UTC()
	acct := account.Account{
		ID:           uuid.New().String(),
		FullName:     in.FullName,
		Phone:        in.Phone,
		PasswordHash: hash,
		Role:         role,
		State:        account.StatePending,
		PendingOTP:   &account.OTP{Code: code, IssuedAt: now},
		CreatedAt:    now,
	}
	if err := s.store.Create(ctx, acct); err != nil {
		return RegisterResult{}, err
	}

	delivered := s.deliver(ctx, acct.Phone, code)
	return RegisterResult{Account: acct, Delivered: delivered}, nil
}

// VerifyOTP consumes a submitted passcode and flips the account to verified.
// Re-verifying an already-verified account is a no-op success. Wrong and
// expired codes are indistinguishable to the caller.
func (s *Service) VerifyOTP(ctx context.Context, phone, code string) error {
	acct, err := s.store.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return ErrAccountNotFound
		}
		return err
	}
	if acct.Verified() {
		return nil
	}
	if acct.PendingOTP == nil || acct.PendingOTP.Code != code {
		s.logger.Info("otp rejected", "phone", phone, "reason", "mismatch")
		return ErrInvalidOTP
	}
	if s.now().After(acct.PendingOTP.IssuedAt.Add(otpTTL)) {
		s.logger.Info("otp rejected", "phone", phone, "reason", "expired")
		return ErrInvalidOTP
	}

	if err := s.store.MarkVerified(ctx, phone); err != nil {
		// A concurrent verify won the conditional update; the account is
		// verified either way.
		if errors.Is(err, account.ErrNotFound) {
			return nil
		}
		return err
	}
	return nil
}

// ResendOTP issues a fresh passcode for a still-pending account.
func (s *Service) ResendOTP(ctx context.Context, phone string) error {
	acct, err := s.store.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return ErrAccountNotFound
		}
		return err
	}
	if acct.Verified() {
		return ErrAlreadyVerified
	}

	code, err := s.otps.Generate()
	if err != nil {
		return err
	}
	if err := s.store.ReplaceOTP(ctx, phone, code, s.now().UTC()); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return ErrAlreadyVerified
		}
		return err
	}
	s.deliver(ctx, phone, code)
	return nil
}

// Login authenticates phone+password and returns a signed bearer token.
// Unknown phones and wrong passwords collapse into one error.
func (s *Service) Login(ctx context.Context, phone, password string) (string, error) {
	acct, err := s.store.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if !s.hasher.Verify(password, acct.PasswordHash) {
		return "", ErrInvalidCredentials
	}
	if !acct.Verified() {
		return "", ErrAccountNotVerified
	}
	return s.tokens.Issue(acct.Phone, acct.Role)
}

func (s *Service) deliver(ctx context.Context, phone, code string) bool {
	msg := notification.SMS{
		To:   phone,
		Body: "Your HaatMaKaam OTP code is: " + code,
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.Warn("otp delivery failed", "phone", phone, "error", err)
		return false
	}
	return true
}
