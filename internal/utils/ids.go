package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// GenerateOTP returns a cryptographically random 6-digit code (100000-999999).
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate random number: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}

// NewRecordID returns a fresh UUID for a parking record.
func NewRecordID() string {
	return uuid.NewString()
}

// NewSeasonToken returns a short token suitable for a QR check-in URL.
// The first UUID segment (8 hex chars) is unique enough for one lot.
func NewSeasonToken() string {
	return strings.SplitN(uuid.NewString(), "-", 2)[0]
}
