package platform

import (
	"context"
	"fmt"
	"strconv"

	"tg-unibans/internal/models"
)

// Backend is the chat platform that enforces bans in guilds.
// All calls may fail; reconciliation swallows those failures.
type Backend interface {
	// Guilds returns every guild currently known to the bot
	Guilds(ctx context.Context) ([]string, error)
	Ban(ctx context.Context, guildID, userID string) error
	Unban(ctx context.Context, guildID, userID string) error
	// FetchEnforcedBans returns the users currently banned in a guild
	FetchEnforcedBans(ctx context.Context, guildID string) (map[string]struct{}, error)
	FetchUser(ctx context.Context, userID string) (models.User, error)
	ResolveChannel(ctx context.Context, ref string) (models.Channel, error)
	Self() models.User
}

// Rights describes what a member may do in a guild
type Rights struct {
	Admin         bool
	CanRestrict   bool
	CanChangeInfo bool
}

// Button is one inline button attached to a message
type Button struct {
	Text string
	Data string
}

// Message is an outbound chat message
type Message struct {
	Text      string
	HTML      bool
	ReplyTo   int
	Buttons   []Button
	NoPreview bool
}

// Messenger sends messages and inspects members
type Messenger interface {
	Send(ctx context.Context, chatID string, msg Message) error
	MemberRights(ctx context.Context, guildID, userID string) (Rights, error)
}

// ParseID converts a decimal domain id into a Telegram id
func ParseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", id, err)
	}
	return n, nil
}

// FormatID converts a Telegram id into a decimal domain id
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
