package harness

import (
	"strings"

	"github.com/neoclaw-ai/tgharness/capture"
)

// Assertions are read-only checks over the capture log at the time each
// check runs. All matching is case-sensitive. A failed check returns an
// *AssertionError listing the captured replies oldest first.
type Assertions struct {
	bot *Bot
}

// ReplyExact passes if some captured reply text equals text.
func (a *Assertions) ReplyExact(text string) error {
	return a.reply("reply exact", text, func(got string) bool {
		return got == text
	})
}

// ReplyContains passes if some captured reply text contains text.
func (a *Assertions) ReplyContains(text string) error {
	return a.reply("reply contains", text, func(got string) bool {
		return strings.Contains(got, text)
	})
}

// ButtonExact passes if some captured inline button label equals label.
func (a *Assertions) ButtonExact(label string) error {
	return a.button("button exact", label, func(got string) bool {
		return got == label
	})
}

// ButtonContains passes if some captured inline button label contains label.
func (a *Assertions) ButtonContains(label string) error {
	return a.button("button contains", label, func(got string) bool {
		return strings.Contains(got, label)
	})
}

// Replies returns the captured reply texts, oldest first.
func (a *Assertions) Replies() []string {
	return replyTexts(a.bot.Calls())
}

func (a *Assertions) reply(check, expected string, match func(string) bool) error {
	calls := a.bot.Calls()
	for _, call := range calls {
		if call.HasText() && match(call.Text()) {
			return nil
		}
	}
	return &AssertionError{Check: check, Expected: expected, Replies: replyTexts(calls)}
}

func (a *Assertions) button(check, expected string, match func(string) bool) error {
	calls := a.bot.Calls()
	for _, call := range calls {
		for _, button := range call.Buttons() {
			if match(button.Label) {
				return nil
			}
		}
	}
	return &AssertionError{
		Check:    check,
		Expected: expected,
		Replies:  replyTexts(calls),
		Buttons:  buttonLabels(calls),
	}
}

func replyTexts(calls []capture.Call) []string {
	var texts []string
	for _, call := range calls {
		if call.HasText() {
			texts = append(texts, call.Text())
		}
	}
	return texts
}
