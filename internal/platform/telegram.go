package platform

import (
	"context"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"

	"tg-unibans/internal/logger"
	"tg-unibans/internal/models"
	"tg-unibans/internal/storage"
)

// IssuedByBot marks ledger entries created by the bot itself
const IssuedByBot = "bot"

const (
	// seen users are kept for a day
	userCacheMinutes = 24 * 60

	chatTypePrivate = "private"
	parseModeHTML   = "HTML"
)

// Telegram implements Backend and Messenger over the Bot API. Telegram
// cannot list banned members or joined chats, so both come from the
// local ledger and chat registry.
type Telegram struct {
	bot   *telego.Bot
	bans  *storage.BanRepository
	chats *storage.ChatRepository
	users *models.UserCache
	self  models.User
}

// NewTelegram wraps an initialized bot
func NewTelegram(ctx context.Context, bot *telego.Bot, bans *storage.BanRepository, chats *storage.ChatRepository) (*Telegram, error) {
	me, err := bot.GetMe(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get bot info: %w", err)
	}
	return &Telegram{
		bot:   bot,
		bans:  bans,
		chats: chats,
		users: models.NewUserCache(userCacheMinutes),
		self:  UserFromTelego(*me),
	}, nil
}

func (t *Telegram) Self() models.User {
	return t.self
}

func (t *Telegram) Guilds(ctx context.Context) ([]string, error) {
	chats, err := t.chats.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list known chats: %w", err)
	}
	guilds := make([]string, 0, len(chats))
	for _, chat := range chats {
		guilds = append(guilds, FormatID(chat.GroupID))
	}
	return guilds, nil
}

func (t *Telegram) Ban(ctx context.Context, guildID, userID string) error {
	groupID, uid, err := parsePair(guildID, userID)
	if err != nil {
		return err
	}
	err = t.bot.BanChatMember(ctx, &telego.BanChatMemberParams{
		ChatID: telego.ChatID{ID: groupID},
		UserID: uid,
	})
	if err != nil {
		return fmt.Errorf("failed to ban %s in %s: %w", userID, guildID, err)
	}
	if err := t.bans.RecordBan(ctx, groupID, uid, IssuedByBot); err != nil {
		return fmt.Errorf("failed to record ban of %s in %s: %w", userID, guildID, err)
	}
	logger.Debugf("Banned user %d in chat %d", uid, groupID)
	return nil
}

func (t *Telegram) Unban(ctx context.Context, guildID, userID string) error {
	groupID, uid, err := parsePair(guildID, userID)
	if err != nil {
		return err
	}
	err = t.bot.UnbanChatMember(ctx, &telego.UnbanChatMemberParams{
		ChatID:       telego.ChatID{ID: groupID},
		UserID:       uid,
		OnlyIfBanned: true,
	})
	if err != nil {
		return fmt.Errorf("failed to unban %s in %s: %w", userID, guildID, err)
	}
	if err := t.bans.MarkUnbanned(ctx, groupID, uid, IssuedByBot); err != nil {
		return fmt.Errorf("failed to record unban of %s in %s: %w", userID, guildID, err)
	}
	logger.Debugf("Unbanned user %d in chat %d", uid, groupID)
	return nil
}

func (t *Telegram) FetchEnforcedBans(ctx context.Context, guildID string) (map[string]struct{}, error) {
	groupID, err := ParseID(guildID)
	if err != nil {
		return nil, err
	}
	users, err := t.bans.ActiveUsers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to read ban ledger of %s: %w", guildID, err)
	}
	banned := make(map[string]struct{}, len(users))
	for _, uid := range users {
		banned[FormatID(uid)] = struct{}{}
	}
	return banned, nil
}

// FetchUser returns a user the bot has seen or that Telegram will
// describe. Bots can only look up users that interacted with them.
func (t *Telegram) FetchUser(ctx context.Context, userID string) (models.User, error) {
	if user, ok := t.users.Get(userID); ok {
		return user, nil
	}
	uid, err := ParseID(userID)
	if err != nil {
		return models.User{}, err
	}
	if uid == t.bot.ID() {
		return t.self, nil
	}

	chat, err := t.bot.GetChat(ctx, &telego.GetChatParams{ChatID: telego.ChatID{ID: uid}})
	if err != nil {
		return models.User{}, fmt.Errorf("failed to fetch user %s: %w", userID, err)
	}
	if chat.Type != chatTypePrivate {
		return models.User{}, fmt.Errorf("chat %s is not a user", userID)
	}
	user := models.User{
		ID:        userID,
		Username:  chat.Username,
		FirstName: chat.FirstName,
		LastName:  chat.LastName,
	}
	t.users.Add(user)
	return user, nil
}

func (t *Telegram) ResolveChannel(ctx context.Context, ref string) (models.Channel, error) {
	chatID := telego.ChatID{Username: ref}
	if !strings.HasPrefix(ref, "@") {
		id, err := ParseID(ref)
		if err != nil {
			return models.Channel{}, err
		}
		chatID = telego.ChatID{ID: id}
	}

	chat, err := t.bot.GetChat(ctx, &telego.GetChatParams{ChatID: chatID})
	if err != nil {
		return models.Channel{}, fmt.Errorf("failed to resolve channel %s: %w", ref, err)
	}
	return models.Channel{
		ID:       FormatID(chat.ID),
		Title:    chat.Title,
		Username: chat.Username,
	}, nil
}

// Remember caches a user seen in an update so later arguments can
// resolve it without an API call
func (t *Telegram) Remember(user telego.User) {
	t.users.Add(UserFromTelego(user))
}

// PurgeUsers drops expired cached users
func (t *Telegram) PurgeUsers() {
	t.users.Purge()
}

// RegisterChat records that the bot is a member of a group
func (t *Telegram) RegisterChat(ctx context.Context, groupID int64, title string, isAdmin bool) error {
	return t.chats.Upsert(ctx, groupID, title, isAdmin)
}

// ForgetChat drops a group the bot has left
func (t *Telegram) ForgetChat(ctx context.Context, groupID int64) error {
	return t.chats.Remove(ctx, groupID)
}

// ObserveBan records a ban issued by someone other than the bot
func (t *Telegram) ObserveBan(ctx context.Context, groupID, userID int64, by string) error {
	return t.bans.RecordBan(ctx, groupID, userID, by)
}

// ObserveUnban records an unban issued by someone other than the bot
func (t *Telegram) ObserveUnban(ctx context.Context, groupID, userID int64, by string) error {
	return t.bans.MarkUnbanned(ctx, groupID, userID, by)
}

func (t *Telegram) Send(ctx context.Context, chatID string, msg Message) error {
	id, err := ParseID(chatID)
	if err != nil {
		return err
	}

	params := &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: id},
		Text:   msg.Text,
	}
	if msg.HTML {
		params.ParseMode = parseModeHTML
	}
	if msg.ReplyTo != 0 {
		params.ReplyParameters = &telego.ReplyParameters{
			MessageID:                msg.ReplyTo,
			AllowSendingWithoutReply: true,
		}
	}
	if msg.NoPreview {
		params.LinkPreviewOptions = &telego.LinkPreviewOptions{IsDisabled: true}
	}
	if len(msg.Buttons) > 0 {
		row := make([]telego.InlineKeyboardButton, 0, len(msg.Buttons))
		for _, b := range msg.Buttons {
			row = append(row, telego.InlineKeyboardButton{Text: b.Text, CallbackData: b.Data})
		}
		params.ReplyMarkup = &telego.InlineKeyboardMarkup{
			InlineKeyboard: [][]telego.InlineKeyboardButton{row},
		}
	}

	if _, err := t.bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("failed to send message to %s: %w", chatID, err)
	}
	return nil
}

func (t *Telegram) MemberRights(ctx context.Context, guildID, userID string) (Rights, error) {
	groupID, uid, err := parsePair(guildID, userID)
	if err != nil {
		return Rights{}, err
	}
	member, err := t.bot.GetChatMember(ctx, &telego.GetChatMemberParams{
		ChatID: telego.ChatID{ID: groupID},
		UserID: uid,
	})
	if err != nil {
		return Rights{}, fmt.Errorf("error getting chat member: %w", err)
	}
	return rightsOf(member), nil
}

func rightsOf(member telego.ChatMember) Rights {
	switch m := member.(type) {
	case *telego.ChatMemberOwner:
		return Rights{Admin: true, CanRestrict: true, CanChangeInfo: true}
	case *telego.ChatMemberAdministrator:
		return Rights{Admin: true, CanRestrict: m.CanRestrictMembers, CanChangeInfo: m.CanChangeInfo}
	default:
		return Rights{}
	}
}

func parsePair(guildID, userID string) (int64, int64, error) {
	groupID, err := ParseID(guildID)
	if err != nil {
		return 0, 0, err
	}
	uid, err := ParseID(userID)
	if err != nil {
		return 0, 0, err
	}
	return groupID, uid, nil
}

// UserFromTelego converts a telego user into the platform-neutral model
func UserFromTelego(u telego.User) models.User {
	return models.User{
		ID:        FormatID(u.ID),
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsBot:     u.IsBot,
	}
}
