package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"time"
)

const orderNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var orderNumberPattern = regexp.MustCompile(`^PRSC-\d{6}-[A-Z0-9]{4}$`)

// GenerateOrderNumber builds a PRSC-######-XXXX order number from the last six
// digits of now's epoch milliseconds and four random uppercase alphanumerics.
// Uniqueness is enforced by the database; callers retry on conflict.
func GenerateOrderNumber(now time.Time) (string, error) {
	suffix := make([]byte, 4)
	max := big.NewInt(int64(len(orderNumberAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate order number: %w", err)
		}
		suffix[i] = orderNumberAlphabet[n.Int64()]
	}
	return fmt.Sprintf("PRSC-%06d-%s", now.UnixMilli()%1_000_000, suffix), nil
}

// IsOrderNumber reports whether s has the PRSC-######-XXXX shape
func IsOrderNumber(s string) bool {
	return orderNumberPattern.MatchString(s)
}
