package storage

import (
	"testing"

	"gorm.io/gorm"
)

// Truncate empties every table of the store
func Truncate(s *Storage) error {
	for _, model := range []any{&User{}, &Friend{}, &VerifyToken{}} {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return err
		}
	}

	return nil
}

// SetTokenSource replaces the verification token generator until the test ends
func SetTokenSource(t testing.TB, next func() string) {
	previous := newVerifyToken
	newVerifyToken = next
	t.Cleanup(func() { newVerifyToken = previous })
}
