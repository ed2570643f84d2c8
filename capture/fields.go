package capture

import (
	"reflect"
	"strings"

	"github.com/go-telegram/bot"
)

// fieldKind says how go-telegram/bot writes a request field into its form.
type fieldKind int

const (
	// fieldUnknown is a field of no known params struct.
	fieldUnknown fieldKind = iota
	// fieldRaw is a plain string field, written as is.
	fieldRaw
	// fieldJSON is any other concrete type, written JSON encoded.
	fieldJSON
	// fieldDynamic is an interface field such as chat_id or reply_markup,
	// written raw when it holds a string and JSON encoded otherwise.
	fieldDynamic
)

var fieldKinds = buildFieldKinds(
	bot.SendMessageParams{},
	bot.ForwardMessageParams{},
	bot.CopyMessageParams{},
	bot.SendPhotoParams{},
	bot.SendDocumentParams{},
	bot.SendMediaGroupParams{},
	bot.SendLocationParams{},
	bot.SendPollParams{},
	bot.SendChatActionParams{},
	bot.EditMessageTextParams{},
	bot.EditMessageCaptionParams{},
	bot.EditMessageReplyMarkupParams{},
	bot.DeleteMessageParams{},
	bot.AnswerCallbackQueryParams{},
	bot.GetChatParams{},
	bot.PinChatMessageParams{},
	bot.SetMyCommandsParams{},
)

// buildFieldKinds indexes the json field names of params by encoding. The
// Bot API uses one type per field name, so the first struct naming a field
// decides its kind.
func buildFieldKinds(params ...any) map[string]fieldKind {
	stringType := reflect.TypeOf("")
	kinds := make(map[string]fieldKind)
	for _, p := range params {
		t := reflect.TypeOf(p)
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				continue
			}
			if _, seen := kinds[name]; seen {
				continue
			}
			switch {
			case field.Type == stringType:
				kinds[name] = fieldRaw
			case field.Type.Kind() == reflect.Interface:
				kinds[name] = fieldDynamic
			default:
				kinds[name] = fieldJSON
			}
		}
	}
	return kinds
}
