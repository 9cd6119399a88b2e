package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"git.skobk.in/skobkin/dota2-notify-bot/db"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var newVerifyToken = uuid.NewString

// Storage is the GORM-backed user store
type Storage struct {
	db *gorm.DB
}

func New(driver, dsn string) (*Storage, error) {
	gdb, err := db.Open(driver, dsn)
	if err != nil {
		slog.Error("storage: Failed to connect to database", "error", err, "driver", driver)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Storage{db: gdb}
	if err := s.migrate(); err != nil {
		_ = db.Close(gdb)
		return nil, err
	}

	return s, nil
}

func (s *Storage) migrate() error {
	err := s.db.AutoMigrate(&User{}, &Friend{}, &VerifyToken{})
	if err != nil {
		slog.Error("storage: Failed to migrate database", "error", err)
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}

func (s *Storage) Close() error {
	return db.Close(s.db)
}

func (s *Storage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

// AllUsers returns every registered user ordered by account ID
func (s *Storage) AllUsers(ctx context.Context) ([]User, error) {
	var users []User
	result := s.db.WithContext(ctx).Order("account_id").Find(&users)
	if result.Error != nil {
		slog.Error("storage: Failed to get all users", "error", result.Error)
		return nil, Failed("get all users", result.Error)
	}

	return users, nil
}

func (s *Storage) GetUser(ctx context.Context, accountID int64) (*User, error) {
	var user User
	result := s.db.WithContext(ctx).Where("account_id = ?", accountID).First(&user)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		slog.Error("storage: Failed to get user", "error", result.Error, "account_id", accountID)
		return nil, Failed("get user", result.Error)
	}

	return &user, nil
}

func (s *Storage) GetUserByChatID(ctx context.Context, chatID string) (*User, error) {
	if !IsLinked(chatID) {
		return nil, ErrNotFound
	}

	var user User
	result := s.db.WithContext(ctx).Where("telegram_chat_id = ?", chatID).First(&user)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		slog.Error("storage: Failed to get user by chat", "error", result.Error, "chat_id", chatID)
		return nil, Failed("get user by chat", result.Error)
	}

	return &user, nil
}

// CreateUser registers a user. New users follow their own matches.
func (s *Storage) CreateUser(ctx context.Context, accountID int64, name, verifyToken string) (*User, error) {
	user := &User{
		AccountID:           accountID,
		Name:                name,
		TelegramVerifyToken: verifyToken,
		Following:           true,
	}

	result := s.db.WithContext(ctx).Create(user)
	if result.Error != nil {
		slog.Error("storage: Failed to create user", "error", result.Error, "account_id", accountID)
		return nil, Failed("create user", result.Error)
	}

	return user, nil
}

// UpdateUser writes the profile columns of an existing user.
// The watermark is owned by AdvanceWatermark and is never written here.
func (s *Storage) UpdateUser(ctx context.Context, user *User) error {
	result := s.db.WithContext(ctx).
		Model(&User{}).
		Where("account_id = ?", user.AccountID).
		Select("name", "telegram_chat_id", "telegram_verify_token", "following", "updated_at").
		Updates(user)
	if result.Error != nil {
		slog.Error("storage: Failed to update user", "error", result.Error, "account_id", user.AccountID)
		return Failed("update user", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Friends returns the friend relations of an owner, optionally only the followed ones
func (s *Storage) Friends(ctx context.Context, ownerID int64, followingOnly bool) ([]Friend, error) {
	query := s.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if followingOnly {
		query = query.Where("following = ?", true)
	}

	var friends []Friend
	result := query.Order("account_id").Find(&friends)
	if result.Error != nil {
		slog.Error("storage: Failed to get friends", "error", result.Error, "owner_id", ownerID)
		return nil, Failed("get friends", result.Error)
	}

	return friends, nil
}

func (s *Storage) GetFriend(ctx context.Context, ownerID, accountID int64) (*Friend, error) {
	var friend Friend
	result := s.db.WithContext(ctx).Where("owner_id = ? AND account_id = ?", ownerID, accountID).First(&friend)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		slog.Error("storage: Failed to get friend", "error", result.Error, "owner_id", ownerID, "account_id", accountID)
		return nil, Failed("get friend", result.Error)
	}

	return &friend, nil
}

func (s *Storage) UpsertFriend(ctx context.Context, friend *Friend) error {
	result := s.db.WithContext(ctx).Save(friend)
	if result.Error != nil {
		slog.Error("storage: Failed to save friend", "error", result.Error,
			"owner_id", friend.OwnerID, "account_id", friend.AccountID)
		return Failed("save friend", result.Error)
	}

	return nil
}

// SetFollowing toggles the following flag of an existing relation
func (s *Storage) SetFollowing(ctx context.Context, ownerID, accountID int64, following bool) error {
	result := s.db.WithContext(ctx).
		Model(&Friend{}).
		Where("owner_id = ? AND account_id = ?", ownerID, accountID).
		Update("following", following)
	if result.Error != nil {
		slog.Error("storage: Failed to set following", "error", result.Error,
			"owner_id", ownerID, "account_id", accountID, "following", following)
		return Failed("set following", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// AdvanceWatermark stores the last notified match of a target.
// When ownerID equals accountID the user's own watermark is updated.
func (s *Storage) AdvanceWatermark(ctx context.Context, ownerID, accountID, matchID int64) error {
	var result *gorm.DB
	if ownerID == accountID {
		result = s.db.WithContext(ctx).
			Model(&User{}).
			Where("account_id = ?", ownerID).
			Update("last_match_id", matchID)
	} else {
		result = s.db.WithContext(ctx).
			Model(&Friend{}).
			Where("owner_id = ? AND account_id = ?", ownerID, accountID).
			Update("last_match_id", matchID)
	}

	if result.Error != nil {
		slog.Error("storage: Failed to advance watermark", "error", result.Error,
			"owner_id", ownerID, "account_id", accountID, "match_id", matchID)
		return Failed("advance watermark", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// CreateVerifyToken replaces any pending tokens of the account with a fresh one
func (s *Storage) CreateVerifyToken(ctx context.Context, accountID int64) (string, error) {
	var token string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_id = ?", accountID).Delete(&VerifyToken{}).Error; err != nil {
			return err
		}

		for attempt := 1; attempt <= TokenAttempts; attempt++ {
			candidate := newVerifyToken()
			// each attempt gets a savepoint, postgres aborts the whole transaction on a unique violation
			err := tx.Transaction(func(attemptTx *gorm.DB) error {
				return attemptTx.Create(&VerifyToken{Token: candidate, AccountID: accountID}).Error
			})
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				slog.Warn("storage: Verification token collision, retrying", "attempt", attempt)
				continue
			}
			if err != nil {
				return err
			}

			token = candidate
			return nil
		}

		return errors.New("could not generate a unique token")
	})
	if err != nil {
		slog.Error("storage: Failed to create verification token", "error", err, "account_id", accountID)
		return "", Failed("create verification token", err)
	}

	return token, nil
}

func (s *Storage) AccountIDByVerifyToken(ctx context.Context, token string) (int64, error) {
	var vt VerifyToken
	result := s.db.WithContext(ctx).Where("token = ?", token).First(&vt)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return 0, ErrNotFound
	}
	if result.Error != nil {
		slog.Error("storage: Failed to look up verification token", "error", result.Error)
		return 0, Failed("look up verification token", result.Error)
	}

	return vt.AccountID, nil
}

func (s *Storage) DeleteVerifyToken(ctx context.Context, token string) error {
	result := s.db.WithContext(ctx).Where("token = ?", token).Delete(&VerifyToken{})
	if result.Error != nil {
		slog.Error("storage: Failed to delete verification token", "error", result.Error)
		return Failed("delete verification token", result.Error)
	}

	return nil
}
