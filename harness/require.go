package harness

import (
	"context"
	"testing"

	"github.com/go-telegram/bot/models"
)

// Require runs the assertion surface against t, failing the test on the
// first mismatch.
type Require struct {
	t   testing.TB
	bot *Bot
}

// Require binds the bot's checks to t.
func (b *Bot) Require(t testing.TB) *Require {
	return &Require{t: t, bot: b}
}

// ReplyExact fails t unless some captured reply equals text.
func (r *Require) ReplyExact(text string) {
	r.t.Helper()
	if err := r.bot.Assert().ReplyExact(text); err != nil {
		r.t.Fatal(err)
	}
}

// ReplyContains fails t unless some captured reply contains text.
func (r *Require) ReplyContains(text string) {
	r.t.Helper()
	if err := r.bot.Assert().ReplyContains(text); err != nil {
		r.t.Fatal(err)
	}
}

// ButtonExact fails t unless some captured button label equals label.
func (r *Require) ButtonExact(label string) {
	r.t.Helper()
	if err := r.bot.Assert().ButtonExact(label); err != nil {
		r.t.Fatal(err)
	}
}

// ButtonContains fails t unless some captured button label contains label.
func (r *Require) ButtonContains(label string) {
	r.t.Helper()
	if err := r.bot.Assert().ButtonContains(label); err != nil {
		r.t.Fatal(err)
	}
}

// CallCount fails t unless exactly n calls were captured.
func (r *Require) CallCount(n int) {
	r.t.Helper()
	if got := len(r.bot.Calls()); got != n {
		r.t.Fatalf("expected %d captured calls, got %d", n, got)
	}
}

// Press presses the button matching label as the bot's default user and
// fails t if none was rendered.
func (r *Require) Press(ctx context.Context, label string) *models.Update {
	r.t.Helper()
	return r.PressAs(ctx, r.bot.Receive(), label)
}

// PressAs is Press sent through rcv, keeping any sender set with From.
func (r *Require) PressAs(ctx context.Context, rcv *Receiver, label string) *models.Update {
	r.t.Helper()
	upd, err := rcv.Button(ctx, label)
	if err != nil {
		r.t.Fatal(err)
	}
	return upd
}
