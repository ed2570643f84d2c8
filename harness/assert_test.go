package harness

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func newGreeterBot(t *testing.T) *Bot {
	t.Helper()
	b := newTestBot(t)
	b.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, func(ctx context.Context, rt *bot.Bot, upd *models.Update) {
		rt.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: upd.Message.Chat.ID,
			Text:   "Hi there!",
			ReplyMarkup: &models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{
				{{Text: "Say hello", CallbackData: "hello"}},
			}},
		})
	})
	b.Receive().Message(context.Background(), "hello")
	return b
}

func TestAssertionsReplies(t *testing.T) {
	b := newGreeterBot(t)

	tests := []struct {
		name    string
		check   func(string) error
		text    string
		wantErr bool
	}{
		{name: "exact match", check: b.Assert().ReplyExact, text: "Hi there!"},
		{name: "exact prefix", check: b.Assert().ReplyExact, text: "Hi", wantErr: true},
		{name: "exact case", check: b.Assert().ReplyExact, text: "hi there!", wantErr: true},
		{name: "contains prefix", check: b.Assert().ReplyContains, text: "Hi"},
		{name: "contains middle", check: b.Assert().ReplyContains, text: "there"},
		{name: "contains missing", check: b.Assert().ReplyContains, text: "Bye", wantErr: true},
		{name: "contains case", check: b.Assert().ReplyContains, text: "THERE", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.check(tt.text)
			if tt.wantErr {
				if !errors.Is(err, ErrAssertion) {
					t.Fatalf("expected ErrAssertion for %q, got %v", tt.text, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected %q to match: %v", tt.text, err)
			}
		})
	}
}

func TestAssertionsButtons(t *testing.T) {
	b := newGreeterBot(t)

	if err := b.Assert().ButtonExact("Say hello"); err != nil {
		t.Fatal(err)
	}
	if err := b.Assert().ButtonContains("hello"); err != nil {
		t.Fatal(err)
	}
	if err := b.Assert().ButtonExact("Say"); !errors.Is(err, ErrAssertion) {
		t.Fatalf("expected ErrAssertion, got %v", err)
	}
	if err := b.Assert().ButtonContains("HELLO"); !errors.Is(err, ErrAssertion) {
		t.Fatalf("expected ErrAssertion, got %v", err)
	}
}

func TestAssertionErrorDescribesLog(t *testing.T) {
	b := newGreeterBot(t)

	err := b.Assert().ButtonExact("Goodbye")
	var failure *AssertionError
	if !errors.As(err, &failure) {
		t.Fatalf("expected *AssertionError, got %v", err)
	}
	if failure.Check != "button exact" || failure.Expected != "Goodbye" {
		t.Fatalf("unexpected failure %+v", failure)
	}
	if len(failure.Replies) != 1 || failure.Replies[0] != "Hi there!" {
		t.Fatalf("got replies %v, expected [Hi there!]", failure.Replies)
	}
	if len(failure.Buttons) != 1 || failure.Buttons[0] != "Say hello" {
		t.Fatalf("got buttons %v, expected [Say hello]", failure.Buttons)
	}
	msg := err.Error()
	for _, want := range []string{`"Goodbye"`, `"Hi there!"`, `"Say hello"`} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in message %q", want, msg)
		}
	}
}

func TestAssertionErrorOnEmptyLog(t *testing.T) {
	b := newTestBot(t)

	err := b.Assert().ReplyExact("anything")
	if !errors.Is(err, ErrAssertion) {
		t.Fatalf("expected ErrAssertion, got %v", err)
	}
	if !strings.Contains(err.Error(), "captured replies: none") {
		t.Fatalf("expected empty log note, got %q", err.Error())
	}
}

func TestAssertionsDoNotMutateLog(t *testing.T) {
	b := newGreeterBot(t)

	_ = b.Assert().ReplyExact("missing")
	_ = b.Assert().ButtonContains("missing")
	_ = b.Assert().Replies()

	b.Require(t).CallCount(1)
}

func TestAssertionsSkipCallsWithoutText(t *testing.T) {
	b := newTestBot(t)
	b.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, func(ctx context.Context, rt *bot.Bot, upd *models.Update) {
		rt.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: upd.Message.Chat.ID, Action: models.ChatActionTyping})
		rt.SendMessage(ctx, &bot.SendMessageParams{ChatID: upd.Message.Chat.ID, Text: "done"})
	})

	b.Receive().Message(context.Background(), "work")

	got := b.Assert().Replies()
	if len(got) != 1 || got[0] != "done" {
		t.Fatalf("got replies %v, expected [done]", got)
	}
	b.Require(t).CallCount(2)
}
