package bot

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"git.skobk.in/skobkin/dota2-notify-bot/storage"

	"github.com/mymmrac/telego"
	ta "github.com/mymmrac/telego/telegoapi"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendMessage(params *telego.SendMessageParams) (*telego.Message, error) {
	args := m.Called(params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*telego.Message), args.Error(1)
}

func newTestStore(t *testing.T) *storage.Storage {
	t.Helper()

	s, err := storage.New("sqlite", filepath.Join(t.TempDir(), "bot.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func newTestBot(t *testing.T) (*Bot, *MockSender, *storage.Storage) {
	t.Helper()

	sender := &MockSender{}
	store := newTestStore(t)
	b := newBot(sender, store, "https://dota.example")
	b.retryUnit = time.Millisecond

	return b, sender, store
}

func textMessage(chatID int64, text string) telego.Update {
	return telego.Update{Message: &telego.Message{Chat: telego.Chat{ID: chatID}, Text: text}}
}

func sentTo(chatID int64, contains string) interface{} {
	return mock.MatchedBy(func(params *telego.SendMessageParams) bool {
		return params.ChatID == tu.ID(chatID) && strings.Contains(params.Text, contains)
	})
}

func TestBot_Send(t *testing.T) {
	b, sender, _ := newTestBot(t)

	sender.On("SendMessage", sentTo(555, "ProPlayer ✅ Won")).Return(&telego.Message{}, nil).Once()

	require.NoError(t, b.Send(context.Background(), "555", "ProPlayer ✅ Won a match"))
	sender.AssertExpectations(t)
}

func TestBot_Send_RetriesAfterRateLimit(t *testing.T) {
	b, sender, _ := newTestBot(t)

	rateLimited := fmt.Errorf("telego: sendMessage(): api: %w", &ta.Error{
		ErrorCode:   429,
		Description: "Too Many Requests: retry after 3",
		Parameters:  &ta.ResponseParameters{RetryAfter: 3},
	})
	sender.On("SendMessage", sentTo(555, "hello")).Return(nil, rateLimited).Once()
	sender.On("SendMessage", sentTo(555, "hello")).Return(&telego.Message{}, nil).Once()

	require.NoError(t, b.Send(context.Background(), "555", "hello"))
	sender.AssertNumberOfCalls(t, "SendMessage", 2)
}

func TestBot_Send_RetryFails(t *testing.T) {
	b, sender, _ := newTestBot(t)

	rateLimited := errors.New(`telego: sendMessage(): api: 429 "Too Many Requests: retry after 1", migrate to chat ID: 0, retry after: 1`)
	sender.On("SendMessage", mock.Anything).Return(nil, rateLimited).Twice()

	assert.Error(t, b.Send(context.Background(), "555", "hello"))
	sender.AssertNumberOfCalls(t, "SendMessage", 2)
}

func TestBot_Send_OtherErrorNotRetried(t *testing.T) {
	b, sender, _ := newTestBot(t)

	sender.On("SendMessage", mock.Anything).Return(nil, &ta.Error{ErrorCode: 403, Description: "Forbidden: bot was blocked by the user"}).Once()

	assert.Error(t, b.Send(context.Background(), "555", "hello"))
	sender.AssertNumberOfCalls(t, "SendMessage", 1)
}

func TestBot_Send_CancelledWhileWaiting(t *testing.T) {
	b, sender, _ := newTestBot(t)
	b.retryUnit = time.Hour

	sender.On("SendMessage", mock.Anything).Return(nil, &ta.Error{
		ErrorCode:  429,
		Parameters: &ta.ResponseParameters{RetryAfter: 1},
	}).Once()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := b.Send(ctx, "555", "hello")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	sender.AssertNumberOfCalls(t, "SendMessage", 1)
}

func TestBot_Send_GivesUpOnStalledRequest(t *testing.T) {
	b, sender, _ := newTestBot(t)

	release := make(chan struct{})
	defer close(release)

	sender.On("SendMessage", mock.Anything).Run(func(mock.Arguments) {
		<-release
	}).Return(&telego.Message{}, nil).Once()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	started := time.Now()
	err := b.Send(ctx, "555", "hello")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(started), time.Second)
}

func TestNewAPI(t *testing.T) {
	api, err := NewAPI("123456789:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw0", 5*time.Second)
	require.NoError(t, err)
	assert.NotNil(t, api)

	_, err = NewAPI("not-a-token", 5*time.Second)
	assert.Error(t, err)

	assert.Equal(t, 13*time.Second, clientTimeout(5*time.Second))
	assert.Equal(t, 18*time.Second, clientTimeout(0))
}

func TestChatIDFromString(t *testing.T) {
	assert.Equal(t, tu.ID(123456), chatIDFromString("123456"))
	assert.Equal(t, tu.ID(-100123), chatIDFromString(" -100123 "))
	assert.Equal(t, tu.Username("@channel"), chatIDFromString("@channel"))
}

func TestBot_StartHandler(t *testing.T) {
	ctx := context.Background()
	b, sender, store := newTestBot(t)

	_, err := store.CreateUser(ctx, 42, "ProPlayer", "")
	require.NoError(t, err)
	token, err := store.CreateVerifyToken(ctx, 42)
	require.NoError(t, err)

	t.Run("without token", func(t *testing.T) {
		sender.On("SendMessage", sentTo(555, "https://dota.example")).Return(&telego.Message{}, nil).Once()

		b.startHandler(nil, textMessage(555, "/start"))
		sender.AssertExpectations(t)
	})

	t.Run("invalid token", func(t *testing.T) {
		sender.On("SendMessage", sentTo(555, "invalid")).Return(&telego.Message{}, nil).Once()

		b.startHandler(nil, textMessage(555, "/start nope"))
		sender.AssertExpectations(t)
	})

	t.Run("valid token", func(t *testing.T) {
		sender.On("SendMessage", sentTo(555, "Linked to ProPlayer")).Return(&telego.Message{}, nil).Once()

		b.startHandler(nil, textMessage(555, "/start "+token))
		sender.AssertExpectations(t)

		user, err := store.GetUser(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, "555", user.TelegramChatID)
	})

	t.Run("token is consumed", func(t *testing.T) {
		sender.On("SendMessage", sentTo(777, "invalid")).Return(&telego.Message{}, nil).Once()

		b.startHandler(nil, textMessage(777, "/start "+token))
		sender.AssertExpectations(t)
	})
}

func TestBot_StopHandler(t *testing.T) {
	ctx := context.Background()
	b, sender, store := newTestBot(t)

	user, err := store.CreateUser(ctx, 42, "ProPlayer", "")
	require.NoError(t, err)
	user.TelegramChatID = "555"
	require.NoError(t, store.UpdateUser(ctx, user))

	sender.On("SendMessage", sentTo(555, "Notifications for ProPlayer are disabled")).Return(&telego.Message{}, nil).Once()
	b.stopHandler(nil, textMessage(555, "/stop"))

	user, err = store.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.False(t, user.Linked())

	sender.On("SendMessage", sentTo(555, "not linked")).Return(&telego.Message{}, nil).Once()
	b.stopHandler(nil, textMessage(555, "/stop"))

	sender.AssertExpectations(t)
}

func TestBot_HelpHandlerWithMiddleware(t *testing.T) {
	ctx := context.Background()
	b, sender, store := newTestBot(t)

	user, err := store.CreateUser(ctx, 42, "ProPlayer", "")
	require.NoError(t, err)
	user.TelegramChatID = "555"
	require.NoError(t, store.UpdateUser(ctx, user))

	sender.On("SendMessage", sentTo(555, "notifications for ProPlayer")).Return(&telego.Message{}, nil).Once()
	sender.On("SendMessage", sentTo(777, "Instructions")).Return(&telego.Message{}, nil).Once()

	b.userFillMiddleware(nil, textMessage(555, "hi"), b.helpHandler)
	b.userFillMiddleware(nil, textMessage(777, "hi"), b.helpHandler)

	sender.AssertExpectations(t)
}
