package orders

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

var randomSuffixMax = big.NewInt(100000)

// NewOrderNumber builds the externally visible order handle:
// GG-<14-digit-UTC-timestamp>-<5-digit-random>. Uniqueness comes from the
// timestamp plus suffix; the store's unique index catches the rare collision.
func NewOrderNumber(now time.Time) string {
	return fmt.Sprintf("GG-%s-%s", now.UTC().Format("20060102150405"), randomDigits())
}

func randomDigits() string {
	n, err := rand.Int(rand.Reader, randomSuffixMax)
	if err != nil {
		// crypto/rand only fails when the OS entropy source is broken;
		// a clock-derived suffix keeps checkout alive.
		return fmt.Sprintf("%05d", time.Now().UnixNano()%100000)
	}
	return fmt.Sprintf("%05d", n.Int64())
}
