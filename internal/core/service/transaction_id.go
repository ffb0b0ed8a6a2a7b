package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewTransactionID returns an identifier of the form TXN-<unix millis>-<token>.
// The token is a random UUIDv4 in upper-case hex, so ids minted in the same
// millisecond do not collide.
func NewTransactionID(now time.Time) string {
	token := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("TXN-%d-%s", now.UnixMilli(), token)
}
