// Package update builds synthetic Telegram updates that look like they came from the Bot API.
package update

import "github.com/go-telegram/bot/models"

// Default identity of the simulated end user.
const (
	DefaultUserID        int64 = 123456789
	DefaultUserFirstName       = "Test"
	DefaultUserLastName        = "User"
	DefaultUserUsername        = "test_user"
)

// Identity describes the simulated end user that sends updates.
type Identity struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
}

// DefaultIdentity returns the fixed user shared by all tests unless overridden.
func DefaultIdentity() Identity {
	return Identity{
		ID:        DefaultUserID,
		FirstName: DefaultUserFirstName,
		LastName:  DefaultUserLastName,
		Username:  DefaultUserUsername,
	}
}

// Merge returns a copy of i with every non-zero field of patch applied.
func (i Identity) Merge(patch Identity) Identity {
	if patch.ID != 0 {
		i.ID = patch.ID
	}
	if patch.FirstName != "" {
		i.FirstName = patch.FirstName
	}
	if patch.LastName != "" {
		i.LastName = patch.LastName
	}
	if patch.Username != "" {
		i.Username = patch.Username
	}
	return i
}

// User renders the identity as a Bot API sender.
func (i Identity) User() models.User {
	return models.User{
		ID:        i.ID,
		IsBot:     false,
		FirstName: i.FirstName,
		LastName:  i.LastName,
		Username:  i.Username,
	}
}

// Chat renders the identity as the private chat it talks to the bot in.
func (i Identity) Chat() models.Chat {
	return models.Chat{
		ID:        i.ID,
		Type:      models.ChatTypePrivate,
		FirstName: i.FirstName,
		LastName:  i.LastName,
		Username:  i.Username,
	}
}
