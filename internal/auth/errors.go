package auth

import "errors"

var (
	// ErrValidation marks malformed request input (bad role, short password,
	// missing phone). Wrap it so handlers can map the whole family to one
	// status code.
	ErrValidation = errors.New("invalid input")

	// ErrAccountNotFound signals a verify or resend against an unknown phone
	// number. Login never surfaces it; a missing account folds into
	// ErrInvalidCredentials there so callers cannot probe for registered
	// phones.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidOTP covers both a wrong code and an expired one. The
	// sub-cases only reach the server logs.
	ErrInvalidOTP = errors.New("invalid or expired otp")

	// ErrInvalidCredentials signals a failed password login.
	ErrInvalidCredentials = errors.New("invalid phone number or password")

	// ErrAccountNotVerified signals a login before OTP verification.
	ErrAccountNotVerified = errors.New("account not verified")

	// ErrAlreadyVerified signals an OTP resend for a verified account.
	ErrAlreadyVerified = errors.New("account already verified")
)
