package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Validatable is implemented by config sections that can self-validate.
type Validatable interface {
	Validate() error
}

func (c UserConfig) Validate() error {
	if c.ID <= 0 {
		return errors.New("id must be > 0")
	}
	if c.FirstName == "" {
		return errors.New("first_name is required")
	}
	return nil
}

func (c BotConfig) Validate() error {
	if c.ID <= 0 {
		return errors.New("id must be > 0")
	}
	if c.Username == "" {
		return errors.New("username is required")
	}
	if strings.ContainsAny(c.Token, " \t\n/") {
		return errors.New("token must not contain whitespace or slashes")
	}
	return nil
}

func (c REPLConfig) Validate() error {
	if c.HistoryLimit < 0 {
		return errors.New("history_limit must be >= 0")
	}
	if c.DispatchTimeout <= 0 {
		return errors.New("dispatch_timeout must be > 0")
	}
	return nil
}

func (c LogConfig) Validate() error {
	_, err := c.SlogLevel()
	return err
}

// SlogLevel parses Level as a slog level name such as "debug" or "warn".
func (c LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, fmt.Errorf("invalid level %q (allowed: debug, info, warn, error)", c.Level)
	}
	return level, nil
}

// Validate checks every section and joins all failures.
func (c *Config) Validate() error {
	sections := []struct {
		name string
		v    Validatable
	}{
		{"user", c.User},
		{"bot", c.Bot},
		{"repl", c.REPL},
		{"log", c.Log},
	}

	var errs []error
	for _, s := range sections {
		if err := s.v.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}
