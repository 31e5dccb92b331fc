package checkout

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// NewOrderNo builds a customer-facing order number: "OD" plus ten uppercase
// hex characters plus four decimal digits.
func NewOrderNo() (string, error) {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating order number: %w", err)
	}
	suffix, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("generating order number suffix: %w", err)
	}
	return fmt.Sprintf("OD%s%04d", strings.ToUpper(hex.EncodeToString(buf)), suffix.Int64()), nil
}

// NewQueryToken builds the 32-hex-character guest lookup capability.
func NewQueryToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating query token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
