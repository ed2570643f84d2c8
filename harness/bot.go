// Package harness drives a go-telegram/bot instance with synthetic updates
// and checks the Bot API calls its handlers make, without network access.
//
//	h, err := harness.New()
//	h.RegisterHandler(bot.HandlerTypeMessageText, "start", bot.MatchTypeCommand, onStart)
//	h.Receive().Command(ctx, "start")
//	err = h.Assert().ReplyExact("Welcome!")
//
// Dispatches against one Bot must be issued sequentially. Distinct Bots are
// isolated and may be used from parallel tests.
package harness

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"github.com/neoclaw-ai/tgharness/capture"
	"github.com/neoclaw-ai/tgharness/internal/logging"
	"github.com/neoclaw-ai/tgharness/update"
)

// Default identity of the bot under test.
const (
	DefaultBotID        int64 = 1
	DefaultBotFirstName       = "Test Bot"
	DefaultBotUsername        = "test_bot"
)

const pollTimeout = time.Minute

// DefaultBotUser returns the identity the harness answers getMe with.
func DefaultBotUser() models.User {
	return models.User{
		ID:        DefaultBotID,
		IsBot:     true,
		FirstName: DefaultBotFirstName,
		Username:  DefaultBotUsername,
	}
}

// Bot is a bot runtime wired for tests: its transport is a capture
// interceptor and it exposes dispatch and assertion helpers.
type Bot struct {
	runtime     *bot.Bot
	token       string
	user        update.Identity
	botUser     models.User
	registry    *capture.Registry
	interceptor *capture.Interceptor
	ids         *update.Sequence
	now         func() time.Time
	logger      *slog.Logger
}

// New creates a harness bot with a fresh test-<uuid> token.
func New(opts ...Option) (*Bot, error) {
	s := settings{
		token:   "test-" + uuid.NewString(),
		user:    update.DefaultIdentity(),
		botUser: DefaultBotUser(),
		logger:  logging.Logger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.registry == nil {
		s.registry = capture.NewRegistry()
	}
	if s.ids == nil {
		s.ids = update.NewSequence(1)
	}
	if s.now == nil {
		s.now = time.Now
	}

	interceptor := capture.NewInterceptor(s.registry, s.token,
		capture.WithBotUser(s.botUser),
		capture.WithLogger(s.logger),
	)

	logger := s.logger
	options := []bot.Option{
		bot.WithHTTPClient(pollTimeout, interceptor),
		bot.WithMiddlewares(interceptor.Middleware),
		bot.WithDefaultHandler(ignoreUpdate),
		bot.WithErrorsHandler(func(err error) {
			logger.Warn("bot runtime error", "err", err)
		}),
		bot.WithDebugHandler(func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...))
		}),
	}
	options = append(options, s.botOptions...)
	// ProcessUpdate returns only after the handler chain has finished.
	options = append(options, bot.WithNotAsyncHandlers())

	runtime, err := bot.New(s.token, options...)
	if err != nil {
		return nil, fmt.Errorf("create bot runtime: %w", err)
	}

	return &Bot{
		runtime:     runtime,
		token:       s.token,
		user:        s.user,
		botUser:     s.botUser,
		registry:    s.registry,
		interceptor: interceptor,
		ids:         s.ids,
		now:         s.now,
		logger:      s.logger,
	}, nil
}

func ignoreUpdate(context.Context, *bot.Bot, *models.Update) {}

// Runtime returns the underlying bot so handlers can be registered on it.
func (b *Bot) Runtime() *bot.Bot {
	return b.runtime
}

// RegisterHandler registers a handler on the underlying runtime.
func (b *Bot) RegisterHandler(handlerType bot.HandlerType, pattern string, matchType bot.MatchType, f bot.HandlerFunc, m ...bot.Middleware) string {
	return b.runtime.RegisterHandler(handlerType, pattern, matchType, f, m...)
}

// RegisterHandlerMatchFunc registers a predicate handler on the underlying runtime.
func (b *Bot) RegisterHandlerMatchFunc(match bot.MatchFunc, f bot.HandlerFunc, m ...bot.Middleware) string {
	return b.runtime.RegisterHandlerMatchFunc(match, f, m...)
}

// Token returns the bot token, which is also the capture log key.
func (b *Bot) Token() string {
	return b.token
}

// User returns the default simulated user for new receivers.
func (b *Bot) User() update.Identity {
	return b.user
}

// SetUser changes the default simulated user for receivers created afterwards.
func (b *Bot) SetUser(user update.Identity) {
	b.user = user
}

// BotUser returns the identity of the bot under test.
func (b *Bot) BotUser() models.User {
	return b.botUser
}

// Registry returns the registry holding this bot's capture log.
func (b *Bot) Registry() *capture.Registry {
	return b.registry
}

// Calls returns the calls captured since the last dispatch, oldest first.
func (b *Bot) Calls() []capture.Call {
	return b.registry.Get(b.token).Calls()
}

// ClearCalls empties the capture log.
func (b *Bot) ClearCalls() {
	b.registry.Reset(b.token)
}

// Close removes this bot's capture log from the registry.
func (b *Bot) Close() {
	b.registry.Delete(b.token)
}

// Receive returns a receiver that sends as the bot's current user.
func (b *Bot) Receive() *Receiver {
	return &Receiver{
		bot: b,
		gen: update.NewGenerator(b.user,
			update.WithSequence(b.ids),
			update.WithBotUser(b.botUser),
			update.WithClock(b.now),
		),
	}
}

// Assert returns read-only checks over the current capture log.
func (b *Bot) Assert() *Assertions {
	return &Assertions{bot: b}
}
