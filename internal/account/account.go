package account

import (
	"fmt"
	"strings"
	"time"
)

// Role classifies what an account is allowed to do on the marketplace.
type Role string

const (
	// RoleUser is an ordinary marketplace member.
	RoleUser Role = "USER"
	// RoleAdmin manages users and the platform itself.
	RoleAdmin Role = "ADMIN"
)

// ParseRole maps a request-supplied role string onto the closed role set.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// VerificationState tracks whether phone ownership has been proven.
type VerificationState string

const (
	StatePending  VerificationState = "PENDING"
	StateVerified VerificationState = "VERIFIED"
)

// OTP is the one-time passcode attached to a pending account.
type OTP struct {
	Code     string
	IssuedAt time.Time
}

// Account is the durable identity record, keyed by phone number.
//
// The state and OTP fields move together: a pending account always carries
// an OTP, a verified account never does. The stores uphold this on every
// write.
type Account struct {
	ID           string
	FullName     string
	Phone        string
	PasswordHash []byte
	Role         Role
	State        VerificationState
	PendingOTP   *OTP
	CreatedAt    time.Time
}

// Verified reports whether the account has completed phone verification.
func (a Account) Verified() bool {
	return a.State == StateVerified
}
