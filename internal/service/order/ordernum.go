package order

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const orderNumberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewOrderNumber builds a human-readable order code like VEL-2025-4F7K2Q.
// Uniqueness is enforced by the unique index on orders.order_number; the
// caller retries with a fresh suffix on collision.
func NewOrderNumber() string {
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = orderNumberAlphabet[rand.IntN(len(orderNumberAlphabet))]
	}
	return fmt.Sprintf("VEL-%d-%s", time.Now().Year(), suffix)
}
