package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot/models"
	"github.com/google/shlex"
	"github.com/neoclaw-ai/tgharness/capture"
	"github.com/neoclaw-ai/tgharness/update"
)

// Receiver simulates inbound updates from one user. Every dispatch clears
// the capture log, builds the update and runs it through the bot's handlers
// before returning, so the log afterwards holds only that dispatch's calls.
//
// Handler panics propagate to the caller.
type Receiver struct {
	bot *Bot
	gen *update.Generator
}

// From overrides the non-zero fields of the sending user for this receiver's
// subsequent dispatches.
func (r *Receiver) From(patch update.Identity) *Receiver {
	r.gen.Merge(patch)
	return r
}

// User returns the identity this receiver sends as.
func (r *Receiver) User() update.Identity {
	return r.gen.User()
}

// Message dispatches a text message.
func (r *Receiver) Message(ctx context.Context, text string) *models.Update {
	return r.dispatch(ctx, func() *models.Update {
		return r.gen.Message(text)
	})
}

// Command dispatches a bot command such as Command(ctx, "start", "ref").
func (r *Receiver) Command(ctx context.Context, name string, args ...string) *models.Update {
	return r.dispatch(ctx, func() *models.Update {
		return r.gen.Command(name, args...)
	})
}

// CommandLine splits line with shell quoting rules and dispatches it as a
// command, e.g. `/note create "My title"`.
func (r *Receiver) CommandLine(ctx context.Context, line string) (*models.Update, error) {
	tokens, err := shlex.Split(strings.TrimSpace(line))
	if err != nil {
		return nil, fmt.Errorf("split command line %q: %w", line, err)
	}
	if len(tokens) == 0 {
		return nil, ErrEmptyCommand
	}
	return r.Command(ctx, tokens[0], tokens[1:]...), nil
}

// CallbackQuery dispatches an inline button press carrying data.
func (r *Receiver) CallbackQuery(ctx context.Context, data string) *models.Update {
	return r.dispatch(ctx, func() *models.Update {
		return r.gen.CallbackQuery(data, 0)
	})
}

// Button presses the first captured inline button, oldest first, whose label
// contains label case-insensitively. The press carries the button's callback
// data and refers to the message that rendered it. Buttons without callback
// data cannot be pressed. It returns a *NotFoundError when nothing matches.
func (r *Receiver) Button(ctx context.Context, label string) (*models.Update, error) {
	calls := r.bot.Calls()
	needle := strings.ToLower(label)
	for _, call := range calls {
		for _, button := range call.Buttons() {
			if button.CallbackData == "" {
				continue
			}
			if !strings.Contains(strings.ToLower(button.Label), needle) {
				continue
			}
			data, origin := button.CallbackData, call.MessageID
			return r.dispatch(ctx, func() *models.Update {
				return r.gen.CallbackQuery(data, origin)
			}), nil
		}
	}
	return nil, &NotFoundError{Label: label, Buttons: buttonLabels(calls)}
}

func (r *Receiver) dispatch(ctx context.Context, build func() *models.Update) *models.Update {
	if ctx == nil {
		ctx = context.Background()
	}
	r.bot.ClearCalls()
	upd := build()
	r.bot.logger.Debug("dispatching update", "update_id", upd.ID, "kind", updateKind(upd))
	r.bot.runtime.ProcessUpdate(ctx, upd)
	return upd
}

func updateKind(upd *models.Update) string {
	switch {
	case upd.CallbackQuery != nil:
		return "callback_query"
	case upd.Message != nil && len(upd.Message.Entities) > 0:
		return "command"
	default:
		return "message"
	}
}

func buttonLabels(calls []capture.Call) []string {
	var labels []string
	for _, call := range calls {
		for _, button := range call.Buttons() {
			labels = append(labels, button.Label)
		}
	}
	return labels
}
