// Package config loads tgharness playground configuration from a TOML file and environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/go-viper/mapstructure/v2"
	"github.com/neoclaw-ai/tgharness/harness"
	"github.com/neoclaw-ai/tgharness/update"
	"github.com/spf13/viper"
)

const envPrefix = "TGHARNESS"

// Config is the playground configuration loaded from defaults, config.toml, and env vars.
type Config struct {
	// HomeDir is runtime-resolved from TGHARNESS_HOME and not read from config.
	HomeDir string     `mapstructure:"-"`
	User    UserConfig `mapstructure:"user"`
	Bot     BotConfig  `mapstructure:"bot"`
	REPL    REPLConfig `mapstructure:"repl"`
	Log     LogConfig  `mapstructure:"log"`
}

// UserConfig is the simulated Telegram user sending updates.
type UserConfig struct {
	ID        int64  `mapstructure:"id"`
	FirstName string `mapstructure:"first_name"`
	LastName  string `mapstructure:"last_name"`
	Username  string `mapstructure:"username"`
}

// BotConfig is the identity of the bot under test. An empty token lets the
// harness generate one.
type BotConfig struct {
	ID        int64  `mapstructure:"id"`
	FirstName string `mapstructure:"first_name"`
	Username  string `mapstructure:"username"`
	Token     string `mapstructure:"token"`
}

// REPLConfig controls the interactive playground.
type REPLConfig struct {
	Prompt string `mapstructure:"prompt"`
	// HistoryFile is relative to HomeDir unless absolute.
	HistoryFile     string        `mapstructure:"history_file"`
	HistoryLimit    int           `mapstructure:"history_limit"`
	DispatchTimeout time.Duration `mapstructure:"dispatch_timeout"`
}

// LogConfig sets the default log level.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

var defaultConfig = Config{
	User: UserConfig{
		ID:        update.DefaultUserID,
		FirstName: update.DefaultUserFirstName,
		LastName:  update.DefaultUserLastName,
		Username:  update.DefaultUserUsername,
	},
	Bot: BotConfig{
		ID:        harness.DefaultBotID,
		FirstName: harness.DefaultBotFirstName,
		Username:  harness.DefaultBotUsername,
	},
	REPL: REPLConfig{
		Prompt:          "you> ",
		HistoryFile:     HistoryFilePath,
		HistoryLimit:    500,
		DispatchTimeout: 10 * time.Second,
	},
	Log: LogConfig{
		Level: "warn",
	},
}

// homeDir returns the tgharness home directory.
// Uses TGHARNESS_HOME env var if set, otherwise defaults to ~/.tgharness.
func homeDir() (string, error) {
	if dir := os.Getenv(envPrefix + "_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return defaultHomePath(home), nil
}

// newViper reads $TGHARNESS_HOME/config.toml over the hardcoded defaults. A
// missing file is not an error.
func newViper(home string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(homeConfigPath(home))
	v.SetConfigType("toml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return v, nil
}

// Load merges hardcoded defaults, the config file and TGHARNESS_* env vars in that order.
func Load() (*Config, error) {
	home, err := homeDir()
	if err != nil {
		return nil, err
	}
	v, err := newViper(home)
	if err != nil {
		return nil, err
	}

	var cfg Config
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		expandEnvStringHook(),
		mapstructure.StringToTimeDurationHookFunc(),
	)
	if err := v.Unmarshal(&cfg, func(c *mapstructure.DecoderConfig) {
		c.DecodeHook = decodeHook
	}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.HomeDir = home

	return &cfg, nil
}

// Write writes the merged configuration (defaults overlaid by user
// config and env) to w in TOML format.
func Write(w io.Writer) error {
	if w == nil {
		return errors.New("writer is required")
	}
	home, err := homeDir()
	if err != nil {
		return err
	}
	v, err := newViper(home)
	if err != nil {
		return err
	}

	// Env overrides are only visible through Get, so copy every key.
	out := viper.New()
	out.SetConfigType("toml")
	for _, key := range v.AllKeys() {
		out.Set(key, v.Get(key))
	}
	out.Set("repl.dispatch_timeout", v.GetDuration("repl.dispatch_timeout").String())

	if err := out.WriteConfigTo(w); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("user.id", defaultConfig.User.ID)
	v.SetDefault("user.first_name", defaultConfig.User.FirstName)
	v.SetDefault("user.last_name", defaultConfig.User.LastName)
	v.SetDefault("user.username", defaultConfig.User.Username)

	v.SetDefault("bot.id", defaultConfig.Bot.ID)
	v.SetDefault("bot.first_name", defaultConfig.Bot.FirstName)
	v.SetDefault("bot.username", defaultConfig.Bot.Username)
	v.SetDefault("bot.token", defaultConfig.Bot.Token)

	v.SetDefault("repl.prompt", defaultConfig.REPL.Prompt)
	v.SetDefault("repl.history_file", defaultConfig.REPL.HistoryFile)
	v.SetDefault("repl.history_limit", defaultConfig.REPL.HistoryLimit)
	v.SetDefault("repl.dispatch_timeout", defaultConfig.REPL.DispatchTimeout)

	v.SetDefault("log.level", defaultConfig.Log.Level)
}

// Identity returns the simulated user as a harness identity.
func (c UserConfig) Identity() update.Identity {
	return update.Identity{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Username:  c.Username,
	}
}

// User returns the bot identity as a Telegram user.
func (c BotConfig) User() models.User {
	return models.User{
		ID:        c.ID,
		IsBot:     true,
		FirstName: c.FirstName,
		Username:  c.Username,
	}
}

// HarnessOptions converts the configured identities into harness options.
func (c *Config) HarnessOptions() []harness.Option {
	opts := []harness.Option{
		harness.WithUser(c.User.Identity()),
		harness.WithBotUser(c.Bot.User()),
	}
	if c.Bot.Token != "" {
		opts = append(opts, harness.WithToken(c.Bot.Token))
	}
	return opts
}

func expandEnvStringHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to.Kind() != reflect.String {
			return data, nil
		}
		value, ok := data.(string)
		if !ok {
			return data, nil
		}
		return os.ExpandEnv(value), nil
	}
}
