package harness

import (
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/neoclaw-ai/tgharness/capture"
	"github.com/neoclaw-ai/tgharness/update"
)

// Option configures a harness Bot.
type Option func(*settings)

type settings struct {
	token      string
	user       update.Identity
	botUser    models.User
	registry   *capture.Registry
	logger     *slog.Logger
	botOptions []bot.Option
	ids        *update.Sequence
	now        func() time.Time
}

// WithToken sets the bot token. It is also the capture log key, so bots
// sharing a registry need distinct tokens.
func WithToken(token string) Option {
	return func(s *settings) {
		if token != "" {
			s.token = token
		}
	}
}

// WithUser replaces the default simulated user.
func WithUser(user update.Identity) Option {
	return func(s *settings) {
		s.user = user
	}
}

// WithBotUser replaces the identity reported by getMe.
func WithBotUser(user models.User) Option {
	return func(s *settings) {
		s.botUser = user
	}
}

// WithRegistry records calls into a shared registry instead of a private one.
func WithRegistry(registry *capture.Registry) Option {
	return func(s *settings) {
		s.registry = registry
	}
}

// WithLogger sets the logger for harness and runtime diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBotOptions passes options to bot.New after the harness defaults, so
// handlers and middlewares registered here run inside the interceptor.
// Handlers always run synchronously regardless of the options given.
func WithBotOptions(opts ...bot.Option) Option {
	return func(s *settings) {
		s.botOptions = append(s.botOptions, opts...)
	}
}

// WithSequence makes synthetic ids come from seq.
func WithSequence(seq *update.Sequence) Option {
	return func(s *settings) {
		s.ids = seq
	}
}

// WithClock overrides the time source for synthetic message dates.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		s.now = now
	}
}
