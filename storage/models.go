package storage

import (
	"time"
)

// User is a registered user, keyed by the Dota account ID
type User struct {
	AccountID           int64  `gorm:"primaryKey;autoIncrement:false" json:"account_id"`
	Name                string `gorm:"not null" json:"name"`
	TelegramChatID      string `gorm:"index" json:"telegram_chat_id"`
	TelegramVerifyToken string `json:"-"`
	// Following enables notifications about the user's own matches
	Following   bool      `gorm:"not null" json:"following"`
	LastMatchID int64     `gorm:"not null" json:"last_match_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Linked reports whether the user has a Telegram chat to notify
func (u *User) Linked() bool {
	return IsLinked(u.TelegramChatID)
}

// Friend is a followed player of a user.
// Unfollowing only clears Following so the watermark survives a re-follow.
type Friend struct {
	OwnerID     int64     `gorm:"primaryKey;autoIncrement:false" json:"owner_id"`
	AccountID   int64     `gorm:"primaryKey;autoIncrement:false" json:"account_id"`
	Name        string    `json:"name"`
	LastMatchID int64     `gorm:"not null" json:"last_match_id"`
	Following   bool      `gorm:"not null;index" json:"following"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// VerifyToken is a one-time code linking a Telegram chat to an account
type VerifyToken struct {
	Token     string `gorm:"primaryKey"`
	AccountID int64  `gorm:"not null;index"`
	CreatedAt time.Time
}
