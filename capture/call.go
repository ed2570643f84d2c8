// Package capture records the Bot API calls a bot makes instead of sending them to Telegram.
package capture

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Button is one inline keyboard button found in a captured call.
type Button struct {
	Label        string
	CallbackData string
}

// Call is one outbound Bot API call made while processing an inbound update.
type Call struct {
	// UpdateID is the id of the update being processed when the call was made.
	UpdateID int64
	Method   string
	// Payload holds the decoded request fields keyed by their Bot API names.
	// It is shared with the log and must be treated as read-only.
	Payload map[string]any
	// MessageID is the id of the message returned to the caller in the
	// synthetic acknowledgment, zero when the method does not return one.
	MessageID int
}

// Text returns the text of a reply, falling back to a media caption.
func (c Call) Text() string {
	if text, ok := c.Payload["text"].(string); ok {
		return text
	}
	if caption, ok := c.Payload["caption"].(string); ok {
		return caption
	}
	return ""
}

// HasText reports whether the call carries a text or caption field.
func (c Call) HasText() bool {
	if _, ok := c.Payload["text"].(string); ok {
		return true
	}
	_, ok := c.Payload["caption"].(string)
	return ok
}

// ChatID returns the numeric chat_id of the call.
func (c Call) ChatID() (int64, bool) {
	return int64Field(c.Payload, "chat_id")
}

// Keyboard returns the inline keyboard attached to the call as rows of buttons.
func (c Call) Keyboard() [][]Button {
	markup, ok := c.Payload["reply_markup"]
	if !ok || markup == nil {
		return nil
	}

	raw, err := json.Marshal(markup)
	if err != nil {
		return nil
	}
	var decoded struct {
		InlineKeyboard [][]struct {
			Text         string `json:"text"`
			CallbackData string `json:"callback_data"`
		} `json:"inline_keyboard"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil
	}

	rows := make([][]Button, 0, len(decoded.InlineKeyboard))
	for _, row := range decoded.InlineKeyboard {
		buttons := make([]Button, 0, len(row))
		for _, button := range row {
			buttons = append(buttons, Button{Label: button.Text, CallbackData: button.CallbackData})
		}
		rows = append(rows, buttons)
	}
	return rows
}

// Buttons returns the inline keyboard buttons of the call in row order.
func (c Call) Buttons() []Button {
	var buttons []Button
	for _, row := range c.Keyboard() {
		buttons = append(buttons, row...)
	}
	return buttons
}

// Decode unmarshals the payload into dst, typically a bot.*Params struct.
func (c Call) Decode(dst any) error {
	raw, err := json.Marshal(c.Payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", c.Method, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s payload: %w", c.Method, err)
	}
	return nil
}

// key is the canonical identity of the call used for duplicate suppression.
// encoding/json writes map keys in sorted order, so equal payloads always
// serialize to the same bytes.
func (c Call) key() (string, error) {
	raw, err := json.Marshal(struct {
		UpdateID int64          `json:"update_id"`
		Method   string         `json:"method"`
		Payload  map[string]any `json:"payload"`
	}{c.UpdateID, c.Method, c.Payload})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func int64Field(payload map[string]any, name string) (int64, bool) {
	switch v := payload[name].(type) {
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
