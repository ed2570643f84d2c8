package capture

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/go-cmp/cmp"
	"github.com/neoclaw-ai/tgharness/internal/logging"
	"github.com/neoclaw-ai/tgharness/update"
)

var testBotUser = models.User{ID: 1, IsBot: true, FirstName: "Test Bot", Username: "test_bot"}

func newCaptureBot(t *testing.T, registry *Registry, key string, handler bot.HandlerFunc) *bot.Bot {
	t.Helper()
	interceptor := NewInterceptor(registry, key, WithBotUser(testBotUser), WithLogger(logging.Discard()))
	b, err := bot.New(key,
		bot.WithHTTPClient(time.Second, interceptor),
		bot.WithMiddlewares(interceptor.Middleware),
		bot.WithDefaultHandler(handler),
		bot.WithNotAsyncHandlers(),
	)
	if err != nil {
		t.Fatalf("create bot: %v", err)
	}
	return b
}

func TestInterceptorCapturesReply(t *testing.T) {
	registry := NewRegistry()
	var sendErr error
	b := newCaptureBot(t, registry, "token-a", func(ctx context.Context, b *bot.Bot, upd *models.Update) {
		_, sendErr = b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: upd.Message.Chat.ID,
			Text:   "Hello, user!",
		})
	})

	gen := update.NewGenerator(update.DefaultIdentity())
	upd := gen.Message("hello")
	b.ProcessUpdate(context.Background(), upd)

	if sendErr != nil {
		t.Fatalf("expected handler to observe success, got %v", sendErr)
	}
	calls := registry.Get("token-a").Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	call := calls[0]
	if call.Method != "sendMessage" {
		t.Fatalf("expected sendMessage, got %q", call.Method)
	}
	if call.UpdateID != upd.ID {
		t.Fatalf("expected update id %d, got %d", upd.ID, call.UpdateID)
	}
	if call.Text() != "Hello, user!" {
		t.Fatalf("unexpected text %q", call.Text())
	}
	chatID, ok := call.ChatID()
	if !ok || chatID != update.DefaultUserID {
		t.Fatalf("expected chat id %d, got %d (ok=%v)", update.DefaultUserID, chatID, ok)
	}
}

func TestInterceptorGetMeIsNotCaptured(t *testing.T) {
	registry := NewRegistry()
	b := newCaptureBot(t, registry, "token-me", func(context.Context, *bot.Bot, *models.Update) {})

	me, err := b.GetMe(context.Background())
	if err != nil {
		t.Fatalf("get me: %v", err)
	}
	if me.Username != "test_bot" || !me.IsBot {
		t.Fatalf("unexpected bot user %+v", me)
	}
	if n := registry.Get("token-me").Len(); n != 0 {
		t.Fatalf("expected getMe to stay out of the log, got %d calls", n)
	}
}

func TestInterceptorSuppressesDuplicateCalls(t *testing.T) {
	registry := NewRegistry()
	b := newCaptureBot(t, registry, "token-dup", func(ctx context.Context, b *bot.Bot, upd *models.Update) {
		for _, text := range []string{"Duplicate", "Duplicate", "Unique"} {
			if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: upd.Message.Chat.ID, Text: text}); err != nil {
				t.Errorf("send %q: %v", text, err)
			}
		}
	})

	b.ProcessUpdate(context.Background(), update.NewGenerator(update.DefaultIdentity()).Message("hello"))

	calls := registry.Get("token-dup").Calls()
	var texts []string
	for _, call := range calls {
		texts = append(texts, call.Text())
	}
	if diff := cmp.Diff([]string{"Duplicate", "Unique"}, texts); diff != "" {
		t.Fatalf("unexpected captured texts (-want +got):\n%s", diff)
	}
}

func TestInterceptorKeepsSameCallFromDistinctUpdates(t *testing.T) {
	registry := NewRegistry()
	b := newCaptureBot(t, registry, "token-two", func(ctx context.Context, b *bot.Bot, upd *models.Update) {
		b.SendMessage(ctx, &bot.SendMessageParams{ChatID: upd.Message.Chat.ID, Text: "same"})
	})

	gen := update.NewGenerator(update.DefaultIdentity())
	b.ProcessUpdate(context.Background(), gen.Message("one"))
	b.ProcessUpdate(context.Background(), gen.Message("two"))

	if n := registry.Get("token-two").Len(); n != 2 {
		t.Fatalf("expected one entry per update, got %d", n)
	}
}

func TestInterceptorIsolatesInstances(t *testing.T) {
	registry := NewRegistry()
	reply := func(text string) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, upd *models.Update) {
			b.SendMessage(ctx, &bot.SendMessageParams{ChatID: upd.Message.Chat.ID, Text: text})
		}
	}
	a := newCaptureBot(t, registry, "token-x", reply("from x"))
	b := newCaptureBot(t, registry, "token-y", reply("from y"))

	gen := update.NewGenerator(update.DefaultIdentity())
	a.ProcessUpdate(context.Background(), gen.Message("hi"))
	b.ProcessUpdate(context.Background(), gen.Message("hi"))

	x := registry.Get("token-x").Calls()
	y := registry.Get("token-y").Calls()
	if len(x) != 1 || x[0].Text() != "from x" {
		t.Fatalf("unexpected calls for token-x: %+v", x)
	}
	if len(y) != 1 || y[0].Text() != "from y" {
		t.Fatalf("unexpected calls for token-y: %+v", y)
	}
}

func TestInterceptorDecodesInlineKeyboard(t *testing.T) {
	registry := NewRegistry()
	b := newCaptureBot(t, registry, "token-kb", func(ctx context.Context, b *bot.Bot, upd *models.Update) {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: upd.Message.Chat.ID,
			Text:   "Pick an option",
			ReplyMarkup: &models.InlineKeyboardMarkup{
				InlineKeyboard: [][]models.InlineKeyboardButton{
					{{Text: "Option 1", CallbackData: "opt:1"}},
					{{Text: "Option 2", CallbackData: "opt:2"}, {Text: "Option 3", CallbackData: "opt:3"}},
				},
			},
		})
	})

	b.ProcessUpdate(context.Background(), update.NewGenerator(update.DefaultIdentity()).Command("start"))

	calls := registry.Get("token-kb").Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	want := [][]Button{
		{{Label: "Option 1", CallbackData: "opt:1"}},
		{{Label: "Option 2", CallbackData: "opt:2"}, {Label: "Option 3", CallbackData: "opt:3"}},
	}
	if diff := cmp.Diff(want, calls[0].Keyboard()); diff != "" {
		t.Fatalf("unexpected keyboard (-want +got):\n%s", diff)
	}
	if got := len(calls[0].Buttons()); got != 3 {
		t.Fatalf("expected 3 flattened buttons, got %d", got)
	}
}

func TestInterceptorAcknowledgesCallbackHandlers(t *testing.T) {
	registry := NewRegistry()
	var (
		answered  bool
		answerErr error
		edited    *models.Message
		editErr   error
	)
	b := newCaptureBot(t, registry, "token-cb", func(ctx context.Context, b *bot.Bot, upd *models.Update) {
		cq := upd.CallbackQuery
		answered, answerErr = b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: cq.ID})
		edited, editErr = b.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:    cq.Message.Message.Chat.ID,
			MessageID: cq.Message.Message.ID,
			Text:      "done",
		})
	})

	upd := update.NewGenerator(update.DefaultIdentity()).CallbackQuery("pressed", 77)
	b.ProcessUpdate(context.Background(), upd)

	if answerErr != nil || !answered {
		t.Fatalf("expected answerCallbackQuery to succeed, got %v (answered=%v)", answerErr, answered)
	}
	if editErr != nil {
		t.Fatalf("expected editMessageText to succeed, got %v", editErr)
	}
	if edited == nil || edited.ID != 77 {
		t.Fatalf("expected acknowledgment to echo origin message 77, got %+v", edited)
	}

	calls := registry.Get("token-cb").Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[0].Method != "answerCallbackQuery" || calls[1].Method != "editMessageText" {
		t.Fatalf("unexpected methods %q, %q", calls[0].Method, calls[1].Method)
	}
	if calls[1].MessageID != 77 {
		t.Fatalf("expected recorded message id 77, got %d", calls[1].MessageID)
	}
}

func TestInterceptorCallsOutsideHandlerContextUseActiveUpdate(t *testing.T) {
	registry := NewRegistry()
	b := newCaptureBot(t, registry, "token-bg", func(_ context.Context, b *bot.Bot, upd *models.Update) {
		b.SendMessage(context.Background(), &bot.SendMessageParams{ChatID: upd.Message.Chat.ID, Text: "detached"})
	})

	upd := update.NewGenerator(update.DefaultIdentity()).Message("hi")
	b.ProcessUpdate(context.Background(), upd)

	calls := registry.Get("token-bg").Calls()
	if len(calls) != 1 || calls[0].UpdateID != upd.ID {
		t.Fatalf("expected detached call attributed to update %d, got %+v", upd.ID, calls)
	}
}

func TestInterceptorUndecodableRequestDegradesToNoCapture(t *testing.T) {
	registry := NewRegistry()
	interceptor := NewInterceptor(registry, "token-bad", WithLogger(logging.Discard()))

	req, err := http.NewRequest(http.MethodPost, "https://api.telegram.org/bottoken-bad/sendMessage", strings.NewReader("garbage"))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "multipart/form-data")

	resp, err := interceptor.Do(req)
	if err != nil {
		t.Fatalf("expected no transport error, got %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || !body.OK {
		t.Fatalf("expected ok response, got %v (ok=%v)", err, body.OK)
	}
	if n := registry.Get("token-bad").Len(); n != 0 {
		t.Fatalf("expected nothing captured, got %d", n)
	}
}

func TestInterceptorAcceptsJSONBodies(t *testing.T) {
	registry := NewRegistry()
	interceptor := NewInterceptor(registry, "token-json", WithLogger(logging.Discard()))

	req, err := http.NewRequest(http.MethodPost, "https://api.telegram.org/bottoken-json/sendMessage", strings.NewReader(`{"chat_id":5,"text":"hi"}`))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := interceptor.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	calls := registry.Get("token-json").Calls()
	if len(calls) != 1 || calls[0].Text() != "hi" {
		t.Fatalf("unexpected calls %+v", calls)
	}
	if chatID, ok := calls[0].ChatID(); !ok || chatID != 5 {
		t.Fatalf("expected chat id 5, got %d", chatID)
	}
}
