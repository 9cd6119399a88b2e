package storage

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when the requested record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrStore wraps every backend failure
	ErrStore = errors.New("storage failure")
)

// TokenAttempts bounds retries on verification token collisions
const TokenAttempts = 3

// Failed wraps a backend error with ErrStore
func Failed(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}

// IsLinked reports whether a chat ID points at a Telegram chat
func IsLinked(chatID string) bool {
	return strings.TrimSpace(chatID) != ""
}
