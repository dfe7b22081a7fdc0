package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// otpTTL is how long a passcode stays valid after issuance.
const otpTTL = 10 * time.Minute

var otpSpan = big.NewInt(1000000)

// OtpGenerator produces fixed-width numeric passcodes from crypto/rand.
type OtpGenerator struct{}

// NewOtpGenerator builds a passcode generator.
func NewOtpGenerator() *OtpGenerator {
	return &OtpGenerator{}
}

// Generate returns a 6-digit zero-padded code drawn uniformly from
// 000000..999999.
func (g *OtpGenerator) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpan)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
