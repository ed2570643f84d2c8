package capture

import (
	"strings"

	"github.com/go-telegram/bot/models"
)

// acknowledge builds the result returned to the caller of method. Methods
// that return a message echo the inbound update's own message so handlers
// that inspect the result see a plausible value. The second return value is
// the id of that message, if any.
func acknowledge(method string, upd *models.Update, payload map[string]any, botUser models.User) (any, int) {
	switch {
	case method == "getMe":
		return botUser, 0
	case method == "getChat":
		return echoMessage(upd, payload).Chat, 0
	case method == "getUpdates", method == "getMyCommands":
		return []any{}, 0
	case method == "sendMediaGroup":
		msg := echoMessage(upd, payload)
		return []*models.Message{msg}, msg.ID
	case returnsMessage(method):
		msg := echoMessage(upd, payload)
		return msg, msg.ID
	case strings.HasPrefix(method, "get"):
		return map[string]any{}, 0
	default:
		return true, 0
	}
}

func returnsMessage(method string) bool {
	switch method {
	case "sendChatAction":
		return false
	case "forwardMessage", "copyMessage", "stopMessageLiveLocation":
		return true
	}
	return strings.HasPrefix(method, "send") || strings.HasPrefix(method, "editMessage")
}

func echoMessage(upd *models.Update, payload map[string]any) *models.Message {
	if upd != nil {
		if upd.Message != nil {
			return upd.Message
		}
		if upd.CallbackQuery != nil && upd.CallbackQuery.Message.Message != nil {
			return upd.CallbackQuery.Message.Message
		}
	}

	chatID, _ := int64Field(payload, "chat_id")
	messageID, _ := int64Field(payload, "message_id")
	return &models.Message{
		ID: int(messageID),
		Chat: models.Chat{
			ID:   chatID,
			Type: models.ChatTypePrivate,
		},
	}
}
