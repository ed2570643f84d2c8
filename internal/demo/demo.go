// Package demo is a small sample bot exercised by the playground REPL and by
// end-to-end harness tests.
package demo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"github.com/neoclaw-ai/tgharness/internal/logging"
)

const helpText = "Commands: /help, /start, /echo <text>, /approve <action>, /format <markdown>"

const (
	menuPrefix            = "menu:"
	approvalApprovePrefix = "approval:ok:"
	approvalDenyPrefix    = "approval:no:"
)

// Registrar is the handler registration surface shared by *bot.Bot and
// *harness.Bot.
type Registrar interface {
	RegisterHandler(handlerType bot.HandlerType, pattern string, matchType bot.MatchType, f bot.HandlerFunc, m ...bot.Middleware) string
	RegisterHandlerMatchFunc(match bot.MatchFunc, f bot.HandlerFunc, m ...bot.Middleware) string
}

type pendingApproval struct {
	userID int64
	chatID int64
	action string
}

// Bot holds the demo handlers and their approval state.
type Bot struct {
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]pendingApproval
}

// New creates the demo bot. A nil logger uses the process logger.
func New(logger *slog.Logger) *Bot {
	if logger == nil {
		logger = logging.Logger()
	}
	return &Bot{logger: logger, pending: make(map[string]pendingApproval)}
}

// Register installs the demo handlers on r.
func (d *Bot) Register(r Registrar) {
	r.RegisterHandlerMatchFunc(isTextMessage, d.onMessage)
	r.RegisterHandler(bot.HandlerTypeCallbackQueryData, menuPrefix, bot.MatchTypePrefix, d.onMenu)
	r.RegisterHandler(bot.HandlerTypeCallbackQueryData, approvalApprovePrefix, bot.MatchTypePrefix, d.onApprove)
	r.RegisterHandler(bot.HandlerTypeCallbackQueryData, approvalDenyPrefix, bot.MatchTypePrefix, d.onDeny)
}

// Pending reports how many approval prompts are awaiting an answer.
func (d *Bot) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

func isTextMessage(upd *models.Update) bool {
	return upd.Message != nil && upd.Message.Text != ""
}

func (d *Bot) onMessage(ctx context.Context, b *bot.Bot, upd *models.Update) {
	msg := upd.Message
	name, args, isCommand := splitCommand(msg.Text)
	if !isCommand {
		d.send(ctx, b, &bot.SendMessageParams{ChatID: msg.Chat.ID, Text: msg.Text})
		return
	}

	switch name {
	case "help", "commands":
		d.send(ctx, b, &bot.SendMessageParams{ChatID: msg.Chat.ID, Text: helpText})
	case "start":
		d.sendMenu(ctx, b, msg)
	case "echo":
		if args == "" {
			d.send(ctx, b, &bot.SendMessageParams{ChatID: msg.Chat.ID, Text: "Usage: /echo <text>"})
			return
		}
		d.send(ctx, b, &bot.SendMessageParams{ChatID: msg.Chat.ID, Text: args})
	case "approve":
		d.requestApproval(ctx, b, msg, args)
	case "format":
		if args == "" {
			d.send(ctx, b, &bot.SendMessageParams{ChatID: msg.Chat.ID, Text: "Usage: /format <markdown>"})
			return
		}
		d.send(ctx, b, &bot.SendMessageParams{
			ChatID:    msg.Chat.ID,
			Text:      RenderTelegramHTML(args),
			ParseMode: models.ParseModeHTML,
		})
	default:
		d.send(ctx, b, &bot.SendMessageParams{
			ChatID: msg.Chat.ID,
			Text:   fmt.Sprintf("Unknown command /%s. Try /help.", name),
		})
	}
}

func (d *Bot) sendMenu(ctx context.Context, b *bot.Bot, msg *models.Message) {
	greeting := "Welcome!"
	if msg.From != nil && msg.From.FirstName != "" {
		greeting = fmt.Sprintf("Welcome, %s!", msg.From.FirstName)
	}
	d.send(ctx, b, &bot.SendMessageParams{
		ChatID: msg.Chat.ID,
		Text:   greeting + " Pick an option:",
		ReplyMarkup: &models.InlineKeyboardMarkup{
			InlineKeyboard: [][]models.InlineKeyboardButton{
				{
					{Text: "Option 1", CallbackData: menuPrefix + "1"},
					{Text: "Option 2", CallbackData: menuPrefix + "2"},
				},
				{
					{Text: "Bot API docs", URL: "https://core.telegram.org/bots/api"},
				},
			},
		},
	})
}

func (d *Bot) onMenu(ctx context.Context, b *bot.Bot, upd *models.Update) {
	callback := upd.CallbackQuery
	if callback == nil {
		return
	}
	d.answer(ctx, b, callback.ID)

	chatID, messageID, ok := callbackMessageLocation(callback)
	if !ok {
		return
	}
	choice := strings.TrimPrefix(callback.Data, menuPrefix)
	if _, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      "You chose option " + choice,
	}); err != nil {
		d.logger.Warn("failed to edit menu message", "chat_id", chatID, "message_id", messageID, "err", err)
	}
}

func (d *Bot) requestApproval(ctx context.Context, b *bot.Bot, msg *models.Message, action string) {
	if action == "" {
		d.send(ctx, b, &bot.SendMessageParams{ChatID: msg.Chat.ID, Text: "Usage: /approve <action>"})
		return
	}
	if msg.From == nil {
		return
	}

	token := uuid.NewString()
	d.mu.Lock()
	d.pending[token] = pendingApproval{userID: msg.From.ID, chatID: msg.Chat.ID, action: action}
	d.mu.Unlock()

	d.send(ctx, b, &bot.SendMessageParams{
		ChatID: msg.Chat.ID,
		Text:   fmt.Sprintf("Approve %s?", action),
		ReplyMarkup: &models.InlineKeyboardMarkup{
			InlineKeyboard: [][]models.InlineKeyboardButton{
				{
					{Text: "✅ Approve", CallbackData: approvalApprovePrefix + token},
					{Text: "❌ Deny", CallbackData: approvalDenyPrefix + token},
				},
			},
		},
	})
}

func (d *Bot) onApprove(ctx context.Context, b *bot.Bot, upd *models.Update) {
	d.handleApproval(ctx, b, upd.CallbackQuery, approvalApprovePrefix, "Approved")
}

func (d *Bot) onDeny(ctx context.Context, b *bot.Bot, upd *models.Update) {
	d.handleApproval(ctx, b, upd.CallbackQuery, approvalDenyPrefix, "Denied")
}

// handleApproval resolves a pending prompt. Presses from another user or chat
// and presses for unknown tokens are acknowledged and otherwise ignored.
func (d *Bot) handleApproval(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, prefix, verdict string) {
	if callback == nil {
		return
	}
	d.answer(ctx, b, callback.ID)

	token := strings.TrimSpace(strings.TrimPrefix(callback.Data, prefix))
	chatID, messageID, ok := callbackMessageLocation(callback)
	if !ok {
		return
	}

	d.mu.Lock()
	pending, found := d.pending[token]
	if found && (pending.userID != callback.From.ID || pending.chatID != chatID) {
		found = false
	}
	if found {
		delete(d.pending, token)
	}
	d.mu.Unlock()
	if !found {
		d.logger.Debug("ignoring approval callback", "user_id", callback.From.ID, "chat_id", chatID)
		return
	}

	if _, err := b.EditMessageReplyMarkup(ctx, &bot.EditMessageReplyMarkupParams{
		ChatID:    chatID,
		MessageID: messageID,
	}); err != nil {
		d.logger.Warn("failed to clear approval keyboard", "chat_id", chatID, "message_id", messageID, "err", err)
	}
	d.send(ctx, b, &bot.SendMessageParams{ChatID: chatID, Text: fmt.Sprintf("%s: %s", verdict, pending.action)})
}

func (d *Bot) send(ctx context.Context, b *bot.Bot, params *bot.SendMessageParams) {
	if _, err := b.SendMessage(ctx, params); err != nil {
		d.logger.Warn("failed to send message", "chat_id", params.ChatID, "err", err)
	}
}

func (d *Bot) answer(ctx context.Context, b *bot.Bot, callbackID string) {
	if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: callbackID}); err != nil {
		d.logger.Warn("failed to answer callback", "err", err)
	}
}

// splitCommand returns the lowercased command name without its slash or
// @botname suffix, and the remaining text.
func splitCommand(text string) (name, args string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	head, rest, _ := strings.Cut(text, " ")
	head = strings.TrimPrefix(head, "/")
	head, _, _ = strings.Cut(head, "@")
	return strings.ToLower(head), strings.TrimSpace(rest), true
}

func callbackMessageLocation(callback *models.CallbackQuery) (int64, int, bool) {
	if callback.Message.Message != nil {
		return callback.Message.Message.Chat.ID, callback.Message.Message.ID, true
	}
	if callback.Message.InaccessibleMessage != nil {
		return callback.Message.InaccessibleMessage.Chat.ID, callback.Message.InaccessibleMessage.MessageID, true
	}
	return 0, 0, false
}
