package update

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot/models"
)

// CommandMarker prefixes bot commands in message text.
const CommandMarker = "/"

// Generator builds inbound updates on behalf of one simulated user.
//
// Update ids, message ids and callback query ids all come from the same
// sequence, so every id a Generator emits is unique.
type Generator struct {
	user    Identity
	botUser models.User
	ids     *Sequence
	now     func() time.Time
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithSequence makes the generator draw ids from seq. Generators sharing a
// sequence never emit the same id.
func WithSequence(seq *Sequence) GeneratorOption {
	return func(g *Generator) {
		if seq != nil {
			g.ids = seq
		}
	}
}

// WithBotUser sets the author of origin messages attached to callback queries.
func WithBotUser(user models.User) GeneratorOption {
	return func(g *Generator) {
		g.botUser = user
	}
}

// WithClock overrides the time source used for message dates.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGenerator creates a generator that sends as user.
func NewGenerator(user Identity, opts ...GeneratorOption) *Generator {
	g := &Generator{
		user: user,
		ids:  NewSequence(1),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// User returns the identity used for subsequent updates.
func (g *Generator) User() Identity {
	return g.user
}

// SetUser replaces the identity used for subsequent updates.
func (g *Generator) SetUser(user Identity) {
	g.user = user
}

// Merge applies the non-zero fields of patch to the current identity.
func (g *Generator) Merge(patch Identity) {
	g.user = g.user.Merge(patch)
}

// Message builds a plain text message update.
func (g *Generator) Message(text string) *models.Update {
	updateID := g.ids.Next()
	return &models.Update{
		ID:      updateID,
		Message: g.message(text),
	}
}

// Command builds a bot command update. The text is the marker-prefixed name
// followed by the space-joined args, and a bot_command entity spans the
// marker and the name.
func (g *Generator) Command(name string, args ...string) *models.Update {
	name = strings.TrimPrefix(name, CommandMarker)
	command := CommandMarker + name

	text := command
	if len(args) > 0 {
		text = command + " " + strings.Join(args, " ")
	}

	updateID := g.ids.Next()
	msg := g.message(text)
	msg.Entities = []models.MessageEntity{
		{
			Type:   models.MessageEntityTypeBotCommand,
			Offset: 0,
			Length: len(command),
		},
	}
	return &models.Update{
		ID:      updateID,
		Message: msg,
	}
}

// CallbackQuery builds an inline button press carrying data. The pressed
// button belongs to the message originMessageID; zero assigns a fresh id.
func (g *Generator) CallbackQuery(data string, originMessageID int) *models.Update {
	updateID := g.ids.Next()
	if originMessageID == 0 {
		originMessageID = int(g.ids.Next())
	}
	queryID := g.ids.Next()

	origin := &models.Message{
		ID:   originMessageID,
		Date: g.date(),
		Chat: g.user.Chat(),
	}
	if g.botUser.ID != 0 {
		from := g.botUser
		origin.From = &from
	}

	return &models.Update{
		ID: updateID,
		CallbackQuery: &models.CallbackQuery{
			ID:           strconv.FormatInt(queryID, 10),
			From:         g.user.User(),
			ChatInstance: strconv.FormatInt(g.user.ID, 10),
			Data:         data,
			Message: models.MaybeInaccessibleMessage{
				Type:    models.MaybeInaccessibleMessageTypeMessage,
				Message: origin,
			},
		},
	}
}

func (g *Generator) message(text string) *models.Message {
	from := g.user.User()
	return &models.Message{
		ID:   int(g.ids.Next()),
		Date: g.date(),
		Chat: g.user.Chat(),
		From: &from,
		Text: text,
	}
}

func (g *Generator) date() int {
	return int(g.now().Unix())
}
