package service

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var txnIDPattern = regexp.MustCompile(`^TXN-\d+-[0-9A-F]{32}$`)

func TestNewTransactionID(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	a := NewTransactionID(now)
	b := NewTransactionID(now)

	assert.Regexp(t, txnIDPattern, a)
	assert.Contains(t, a, "TXN-1700000000123-")
	assert.NotEqual(t, a, b, "same millisecond must still yield distinct ids")
}
