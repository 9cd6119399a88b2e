package mongo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"git.skobk.in/skobkin/dota2-notify-bot/storage"

	"github.com/google/uuid"
)

const connectTimeout = 10 * time.Second

type userDocument struct {
	AccountID           int64     `bson:"_id"`
	Name                string    `bson:"name"`
	TelegramChatID      string    `bson:"telegram_chat_id"`
	TelegramVerifyToken string    `bson:"telegram_verify_token,omitempty"`
	Following           bool      `bson:"following"`
	LastMatchID         int64     `bson:"last_match_id"`
	CreatedAt           time.Time `bson:"created_at"`
	UpdatedAt           time.Time `bson:"updated_at"`
}

func (d *userDocument) toDomain() *storage.User {
	return &storage.User{
		AccountID:           d.AccountID,
		Name:                d.Name,
		TelegramChatID:      d.TelegramChatID,
		TelegramVerifyToken: d.TelegramVerifyToken,
		Following:           d.Following,
		LastMatchID:         d.LastMatchID,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
}

type friendDocument struct {
	OwnerID     int64     `bson:"owner_id"`
	AccountID   int64     `bson:"account_id"`
	Name        string    `bson:"name"`
	LastMatchID int64     `bson:"last_match_id"`
	Following   bool      `bson:"following"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func (d *friendDocument) toDomain() storage.Friend {
	return storage.Friend{
		OwnerID:     d.OwnerID,
		AccountID:   d.AccountID,
		Name:        d.Name,
		LastMatchID: d.LastMatchID,
		Following:   d.Following,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type verifyTokenDocument struct {
	Token     string    `bson:"_id"`
	AccountID int64     `bson:"account_id"`
	CreatedAt time.Time `bson:"created_at"`
}

// Storage keeps users, friends and verification tokens in MongoDB
type Storage struct {
	client  *mongo.Client
	users   *mongo.Collection
	friends *mongo.Collection
	tokens  *mongo.Collection
}

// New connects to MongoDB and ensures the indexes exist
func New(ctx context.Context, uri, dbName string) (*Storage, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		slog.Error("mongo: Failed to connect", "error", err)
		return nil, storage.Failed("connect", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		slog.Error("mongo: Failed to ping", "error", err)
		return nil, storage.Failed("ping", err)
	}

	database := client.Database(dbName)
	s := &Storage{
		client:  client,
		users:   database.Collection("users"),
		friends: database.Collection("friends"),
		tokens:  database.Collection("verify_tokens"),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return s, nil
}

func (s *Storage) ensureIndexes(ctx context.Context) error {
	_, err := s.friends.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "account_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "following", Value: 1}},
		},
	})
	if err != nil {
		slog.Error("mongo: Failed to create friend indexes", "error", err)
		return storage.Failed("create friend indexes", err)
	}

	_, err = s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "telegram_chat_id", Value: 1}},
	})
	if err != nil {
		slog.Error("mongo: Failed to create user indexes", "error", err)
		return storage.Failed("create user indexes", err)
	}

	_, err = s.tokens.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "account_id", Value: 1}},
	})
	if err != nil {
		slog.Error("mongo: Failed to create token indexes", "error", err)
		return storage.Failed("create token indexes", err)
	}

	return nil
}

func (s *Storage) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	return s.client.Disconnect(ctx)
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Storage) AllUsers(ctx context.Context) ([]storage.User, error) {
	cursor, err := s.users.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		slog.Error("mongo: Failed to get all users", "error", err)
		return nil, storage.Failed("get all users", err)
	}
	defer cursor.Close(ctx)

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		slog.Error("mongo: Failed to decode users", "error", err)
		return nil, storage.Failed("decode users", err)
	}

	users := make([]storage.User, 0, len(docs))
	for i := range docs {
		users = append(users, *docs[i].toDomain())
	}

	return users, nil
}

func (s *Storage) GetUser(ctx context.Context, accountID int64) (*storage.User, error) {
	return s.findUser(ctx, bson.M{"_id": accountID})
}

func (s *Storage) GetUserByChatID(ctx context.Context, chatID string) (*storage.User, error) {
	if !storage.IsLinked(chatID) {
		return nil, storage.ErrNotFound
	}

	return s.findUser(ctx, bson.M{"telegram_chat_id": chatID})
}

func (s *Storage) findUser(ctx context.Context, filter bson.M) (*storage.User, error) {
	var doc userDocument
	err := s.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		slog.Error("mongo: Failed to get user", "error", err, "filter", filter)
		return nil, storage.Failed("get user", err)
	}

	return doc.toDomain(), nil
}

// CreateUser registers a user. New users follow their own matches.
func (s *Storage) CreateUser(ctx context.Context, accountID int64, name, verifyToken string) (*storage.User, error) {
	now := time.Now()
	doc := &userDocument{
		AccountID:           accountID,
		Name:                name,
		TelegramVerifyToken: verifyToken,
		Following:           true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		slog.Error("mongo: Failed to create user", "error", err, "account_id", accountID)
		return nil, storage.Failed("create user", err)
	}

	return doc.toDomain(), nil
}

// UpdateUser writes the profile fields, last_match_id is left to AdvanceWatermark
func (s *Storage) UpdateUser(ctx context.Context, user *storage.User) error {
	user.UpdatedAt = time.Now()

	result, err := s.users.UpdateOne(ctx, bson.M{"_id": user.AccountID}, bson.M{
		"$set": bson.M{
			"name":                  user.Name,
			"telegram_chat_id":      user.TelegramChatID,
			"telegram_verify_token": user.TelegramVerifyToken,
			"following":             user.Following,
			"updated_at":            user.UpdatedAt,
		},
	})
	if err != nil {
		slog.Error("mongo: Failed to update user", "error", err, "account_id", user.AccountID)
		return storage.Failed("update user", err)
	}
	if result.MatchedCount == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s *Storage) Friends(ctx context.Context, ownerID int64, followingOnly bool) ([]storage.Friend, error) {
	filter := bson.M{"owner_id": ownerID}
	if followingOnly {
		filter["following"] = true
	}

	cursor, err := s.friends.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "account_id", Value: 1}}))
	if err != nil {
		slog.Error("mongo: Failed to get friends", "error", err, "owner_id", ownerID)
		return nil, storage.Failed("get friends", err)
	}
	defer cursor.Close(ctx)

	var docs []friendDocument
	if err := cursor.All(ctx, &docs); err != nil {
		slog.Error("mongo: Failed to decode friends", "error", err, "owner_id", ownerID)
		return nil, storage.Failed("decode friends", err)
	}

	friends := make([]storage.Friend, 0, len(docs))
	for i := range docs {
		friends = append(friends, docs[i].toDomain())
	}

	return friends, nil
}

func (s *Storage) GetFriend(ctx context.Context, ownerID, accountID int64) (*storage.Friend, error) {
	var doc friendDocument
	err := s.friends.FindOne(ctx, bson.M{"owner_id": ownerID, "account_id": accountID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		slog.Error("mongo: Failed to get friend", "error", err, "owner_id", ownerID, "account_id", accountID)
		return nil, storage.Failed("get friend", err)
	}

	friend := doc.toDomain()
	return &friend, nil
}

func (s *Storage) UpsertFriend(ctx context.Context, friend *storage.Friend) error {
	now := time.Now()

	_, err := s.friends.UpdateOne(ctx,
		bson.M{"owner_id": friend.OwnerID, "account_id": friend.AccountID},
		bson.M{
			"$set": bson.M{
				"name":          friend.Name,
				"last_match_id": friend.LastMatchID,
				"following":     friend.Following,
				"updated_at":    now,
			},
			"$setOnInsert": bson.M{"created_at": now},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		slog.Error("mongo: Failed to save friend", "error", err,
			"owner_id", friend.OwnerID, "account_id", friend.AccountID)
		return storage.Failed("save friend", err)
	}

	friend.UpdatedAt = now
	return nil
}

func (s *Storage) SetFollowing(ctx context.Context, ownerID, accountID int64, following bool) error {
	result, err := s.friends.UpdateOne(ctx,
		bson.M{"owner_id": ownerID, "account_id": accountID},
		bson.M{"$set": bson.M{"following": following, "updated_at": time.Now()}},
	)
	if err != nil {
		slog.Error("mongo: Failed to set following", "error", err,
			"owner_id", ownerID, "account_id", accountID, "following", following)
		return storage.Failed("set following", err)
	}
	if result.MatchedCount == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// AdvanceWatermark stores the last notified match of a target.
// When ownerID equals accountID the user's own watermark is updated.
func (s *Storage) AdvanceWatermark(ctx context.Context, ownerID, accountID, matchID int64) error {
	update := bson.M{"$set": bson.M{"last_match_id": matchID, "updated_at": time.Now()}}

	var (
		result *mongo.UpdateResult
		err    error
	)
	if ownerID == accountID {
		result, err = s.users.UpdateOne(ctx, bson.M{"_id": ownerID}, update)
	} else {
		result, err = s.friends.UpdateOne(ctx, bson.M{"owner_id": ownerID, "account_id": accountID}, update)
	}

	if err != nil {
		slog.Error("mongo: Failed to advance watermark", "error", err,
			"owner_id", ownerID, "account_id", accountID, "match_id", matchID)
		return storage.Failed("advance watermark", err)
	}
	if result.MatchedCount == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// CreateVerifyToken replaces any pending tokens of the account with a fresh one
func (s *Storage) CreateVerifyToken(ctx context.Context, accountID int64) (string, error) {
	if _, err := s.tokens.DeleteMany(ctx, bson.M{"account_id": accountID}); err != nil {
		slog.Error("mongo: Failed to drop old verification tokens", "error", err, "account_id", accountID)
		return "", storage.Failed("drop verification tokens", err)
	}

	for attempt := 1; attempt <= storage.TokenAttempts; attempt++ {
		doc := verifyTokenDocument{
			Token:     uuid.NewString(),
			AccountID: accountID,
			CreatedAt: time.Now(),
		}

		_, err := s.tokens.InsertOne(ctx, doc)
		if mongo.IsDuplicateKeyError(err) {
			slog.Warn("mongo: Verification token collision, retrying", "attempt", attempt)
			continue
		}
		if err != nil {
			slog.Error("mongo: Failed to create verification token", "error", err, "account_id", accountID)
			return "", storage.Failed("create verification token", err)
		}

		return doc.Token, nil
	}

	return "", storage.Failed("create verification token", errors.New("could not generate a unique token"))
}

func (s *Storage) AccountIDByVerifyToken(ctx context.Context, token string) (int64, error) {
	var doc verifyTokenDocument
	err := s.tokens.FindOne(ctx, bson.M{"_id": token}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, storage.ErrNotFound
	}
	if err != nil {
		slog.Error("mongo: Failed to look up verification token", "error", err)
		return 0, storage.Failed("look up verification token", err)
	}

	return doc.AccountID, nil
}

func (s *Storage) DeleteVerifyToken(ctx context.Context, token string) error {
	if _, err := s.tokens.DeleteOne(ctx, bson.M{"_id": token}); err != nil {
		slog.Error("mongo: Failed to delete verification token", "error", err)
		return storage.Failed("delete verification token", err)
	}

	return nil
}

var _ storage.Store = (*Storage)(nil)
