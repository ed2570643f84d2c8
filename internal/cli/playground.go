package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/neoclaw-ai/tgharness/capture"
	"github.com/neoclaw-ai/tgharness/harness"
	"github.com/neoclaw-ai/tgharness/internal/config"
	"github.com/neoclaw-ai/tgharness/internal/demo"
)

const metaHelpText = `Lines starting with / are commands, anything else is a text message.
Meta commands:
  :press <label>  press a rendered inline button
  :log            print the captured calls as JSON
  :clear          clear the capture log
  :help           show this help
  :quit           leave the playground`

// playground runs REPL input against the demo bot inside a harness.
type playground struct {
	bot     *harness.Bot
	timeout time.Duration
}

func newPlayground(cfg *config.Config, logger *slog.Logger) (*playground, error) {
	opts := append(cfg.HarnessOptions(), harness.WithLogger(logger))
	h, err := harness.New(opts...)
	if err != nil {
		return nil, err
	}
	demo.New(logger).Register(h)
	return &playground{bot: h, timeout: cfg.REPL.DispatchTimeout}, nil
}

func (p *playground) Close() {
	p.bot.Close()
}

// Handle runs one input line and returns the text to show. quit reports a
// request to leave the loop.
func (p *playground) Handle(ctx context.Context, input string) (output string, quit bool, err error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", false, nil
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	if meta, ok := strings.CutPrefix(input, ":"); ok {
		return p.handleMeta(ctx, meta)
	}
	if strings.HasPrefix(input, "/") {
		if _, err := p.bot.Receive().CommandLine(ctx, input); err != nil {
			return "", false, err
		}
	} else {
		p.bot.Receive().Message(ctx, input)
	}
	return renderCalls(p.bot.Calls()), false, nil
}

func (p *playground) handleMeta(ctx context.Context, meta string) (string, bool, error) {
	tokens, err := shlex.Split(meta)
	if err != nil {
		return "", false, fmt.Errorf("parse meta command: %w", err)
	}
	if len(tokens) == 0 {
		return "", false, fmt.Errorf("empty meta command (try :help)")
	}
	name, arg := tokens[0], strings.Join(tokens[1:], " ")
	switch strings.ToLower(name) {
	case "quit", "exit", "q":
		return "", true, nil
	case "help", "h":
		return metaHelpText, false, nil
	case "clear":
		p.bot.ClearCalls()
		return "capture log cleared", false, nil
	case "log":
		return renderLog(p.bot.Calls())
	case "press", "p":
		if arg == "" {
			return "", false, fmt.Errorf("usage: :press <label>")
		}
		if _, err := p.bot.Receive().Button(ctx, arg); err != nil {
			return "", false, err
		}
		return renderCalls(p.bot.Calls()), false, nil
	default:
		return "", false, fmt.Errorf("unknown meta command :%s (try :help)", name)
	}
}

// renderCalls shows replies as "bot> text" with keyboards underneath and
// other calls by method name.
func renderCalls(calls []capture.Call) string {
	if len(calls) == 0 {
		return "(no calls)"
	}
	var b strings.Builder
	for i, call := range calls {
		if i > 0 {
			b.WriteByte('\n')
		}
		if call.HasText() {
			fmt.Fprintf(&b, "bot> %s", call.Text())
		} else {
			fmt.Fprintf(&b, "bot> [%s]", call.Method)
		}
		for _, row := range call.Keyboard() {
			b.WriteString("\n    ")
			for j, button := range row {
				if j > 0 {
					b.WriteByte(' ')
				}
				fmt.Fprintf(&b, "[%s]", button.Label)
			}
		}
	}
	return b.String()
}

type loggedCall struct {
	UpdateID  int64          `json:"update_id"`
	Method    string         `json:"method"`
	MessageID int            `json:"message_id,omitempty"`
	Payload   map[string]any `json:"payload"`
}

func renderLog(calls []capture.Call) (string, bool, error) {
	entries := make([]loggedCall, 0, len(calls))
	for _, call := range calls {
		entries = append(entries, loggedCall{
			UpdateID:  call.UpdateID,
			Method:    call.Method,
			MessageID: call.MessageID,
			Payload:   call.Payload,
		})
	}
	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", false, fmt.Errorf("encode capture log: %w", err)
	}
	return string(raw), false, nil
}
