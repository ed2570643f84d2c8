package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/neoclaw-ai/tgharness/harness"
	"github.com/neoclaw-ai/tgharness/update"
)

func createTestHome(t *testing.T) string {
	t.Helper()
	home := filepath.Join(t.TempDir(), ".tgharness")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("TGHARNESS_HOME", home)
	return home
}

func writeConfig(t *testing.T, home, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(home, ConfigFilePath), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	home := createTestHome(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HomeDir != home {
		t.Fatalf("expected home %q, got %q", home, cfg.HomeDir)
	}
	if cfg.User.ID != update.DefaultUserID || cfg.User.Username != update.DefaultUserUsername {
		t.Fatalf("expected default user, got %+v", cfg.User)
	}
	if cfg.Bot.ID != harness.DefaultBotID || cfg.Bot.Username != harness.DefaultBotUsername {
		t.Fatalf("expected default bot, got %+v", cfg.Bot)
	}
	if cfg.REPL.DispatchTimeout != 10*time.Second {
		t.Fatalf("expected dispatch timeout 10s, got %s", cfg.REPL.DispatchTimeout)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("expected log level %q, got %q", "warn", cfg.Log.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate: %v", err)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	home := createTestHome(t)
	writeConfig(t, home, `
[user]
id = 42
first_name = "Alice"
username = "alice"

[bot]
username = "demo_bot"

[repl]
prompt = "> "
dispatch_timeout = "3s"
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.User.ID != 42 || cfg.User.FirstName != "Alice" || cfg.User.Username != "alice" {
		t.Fatalf("unexpected user %+v", cfg.User)
	}
	if cfg.User.LastName != update.DefaultUserLastName {
		t.Fatalf("expected default last name, got %q", cfg.User.LastName)
	}
	if cfg.Bot.Username != "demo_bot" || cfg.Bot.ID != harness.DefaultBotID {
		t.Fatalf("unexpected bot %+v", cfg.Bot)
	}
	if cfg.REPL.Prompt != "> " {
		t.Fatalf("expected prompt %q, got %q", "> ", cfg.REPL.Prompt)
	}
	if cfg.REPL.DispatchTimeout != 3*time.Second {
		t.Fatalf("expected dispatch timeout 3s, got %s", cfg.REPL.DispatchTimeout)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	home := createTestHome(t)
	writeConfig(t, home, `
[user]
username = "from_file"
`)
	t.Setenv("TGHARNESS_USER_USERNAME", "from_env")
	t.Setenv("TGHARNESS_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.User.Username != "from_env" {
		t.Fatalf("expected username %q, got %q", "from_env", cfg.User.Username)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected log level %q, got %q", "debug", cfg.Log.Level)
	}
}

func TestLoad_ExpandsEnvVarsInStringValues(t *testing.T) {
	home := createTestHome(t)
	t.Setenv("DEMO_BOT_TOKEN", "expanded-token")
	writeConfig(t, home, `
[bot]
token = "$DEMO_BOT_TOKEN"
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Bot.Token != "expanded-token" {
		t.Fatalf("expected token %q, got %q", "expanded-token", cfg.Bot.Token)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	home := createTestHome(t)
	writeConfig(t, home, "[user\nid = ")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed config")
	}
}

func TestWrite_RendersMergedConfig(t *testing.T) {
	home := createTestHome(t)
	writeConfig(t, home, `
[user]
username = "alice"
`)

	var out bytes.Buffer
	if err := Write(&out); err != nil {
		t.Fatalf("write config: %v", err)
	}
	got := out.String()
	for _, want := range []string{"[user]", "alice", "[repl]", "dispatch_timeout = '10s'", "[log]"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in output:\n%s", want, got)
		}
	}
}

func TestWrite_RequiresWriter(t *testing.T) {
	createTestHome(t)
	if err := Write(nil); err == nil {
		t.Fatal("expected error for nil writer")
	}
}

func TestHistoryPath(t *testing.T) {
	tests := []struct {
		name string
		file string
		want string
	}{
		{name: "relative", file: "history", want: filepath.Join("/home/u/.tgharness", "history")},
		{name: "absolute", file: "/tmp/h", want: "/tmp/h"},
		{name: "disabled", file: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{HomeDir: "/home/u/.tgharness", REPL: REPLConfig{HistoryFile: tt.file}}
			if got := cfg.HistoryPath(); got != tt.want {
				t.Fatalf("got %q, expected %q", got, tt.want)
			}
		})
	}
}

func TestHarnessOptions(t *testing.T) {
	cfg := &Config{
		User: UserConfig{ID: 7, FirstName: "Bob", Username: "bob"},
		Bot:  BotConfig{ID: 9, FirstName: "Demo", Username: "demo_bot", Token: "fixed"},
	}

	b, err := harness.New(cfg.HarnessOptions()...)
	if err != nil {
		t.Fatalf("new harness: %v", err)
	}
	defer b.Close()

	if b.Token() != "fixed" {
		t.Fatalf("expected token %q, got %q", "fixed", b.Token())
	}
	if b.User().ID != 7 || b.User().Username != "bob" {
		t.Fatalf("unexpected user %+v", b.User())
	}
	if bu := b.BotUser(); bu.ID != 9 || !bu.IsBot || bu.Username != "demo_bot" {
		t.Fatalf("unexpected bot user %+v", bu)
	}
}
