package handler

import (
	"context"

	"github.com/mymmrac/telego"

	"tg-unibans/internal/commands"
	"tg-unibans/internal/logger"
	"tg-unibans/internal/metrics"
	"tg-unibans/internal/models"
	"tg-unibans/internal/platform"
)

// Tracker is the part of the platform adapter that learns from updates
type Tracker interface {
	Remember(user telego.User)
	RegisterChat(ctx context.Context, groupID int64, title string, isAdmin bool) error
	ForgetChat(ctx context.Context, groupID int64) error
	ObserveBan(ctx context.Context, groupID, userID int64, by string) error
	ObserveUnban(ctx context.Context, groupID, userID int64, by string) error
}

// Dispatcher runs commands and review buttons
type Dispatcher interface {
	Dispatch(ctx context.Context, inv commands.Invocation) bool
	Review(ctx context.Context, presser models.User, data string) string
}

// Reconciler re-converges a guild after its membership changed
type Reconciler interface {
	ReverseAsync(guild string)
}

// Handler turns Telegram updates into commands, ledger entries and
// reconciliation passes
type Handler struct {
	botID      int64
	tracker    Tracker
	dispatcher Dispatcher
	sync       Reconciler
	stats      *Stats
}

func New(botID int64, tracker Tracker, dispatcher Dispatcher, sync Reconciler, stats *Stats) *Handler {
	if stats == nil {
		stats = NewStats()
	}
	return &Handler{
		botID:      botID,
		tracker:    tracker,
		dispatcher: dispatcher,
		sync:       sync,
		stats:      stats,
	}
}

func (h *Handler) Stats() *Stats {
	return h.stats
}

// OnMessage remembers the sender and runs the message as a command
func (h *Handler) OnMessage(ctx context.Context, message telego.Message) error {
	h.stats.messages.Add(1)
	metrics.UpdatesTotal.WithLabelValues("message").Inc()
	if message.From == nil || message.From.IsBot || message.Text == "" {
		return nil
	}
	h.tracker.Remember(*message.From)

	inv := commands.Invocation{
		ChatID:    platform.FormatID(message.Chat.ID),
		MessageID: message.MessageID,
		Author:    platform.UserFromTelego(*message.From),
		Text:      message.Text,
	}
	if isGroup(message.Chat) {
		inv.GuildID = inv.ChatID
	}
	if h.dispatcher.Dispatch(ctx, inv) {
		h.stats.commands.Add(1)
	}
	return nil
}

// OnChatMember keeps the ledger in step with bans and unbans issued by
// group admins. A manual unban is drift, so the guild is reconciled again.
func (h *Handler) OnChatMember(ctx context.Context, update telego.ChatMemberUpdated) error {
	h.stats.memberUpdates.Add(1)
	metrics.UpdatesTotal.WithLabelValues("chat_member").Inc()
	if update.From.ID == h.botID || update.NewChatMember == nil {
		return nil
	}

	user := update.NewChatMember.MemberUser()
	h.tracker.Remember(user)
	guild := platform.FormatID(update.Chat.ID)
	by := platform.FormatID(update.From.ID)

	switch memberTransition(update) {
	case transitionBanned:
		logger.Infof("User %d banned in %s by %s", user.ID, guild, by)
		return h.stats.countError(h.tracker.ObserveBan(ctx, update.Chat.ID, user.ID, by))
	case transitionUnbanned:
		logger.Infof("User %d unbanned in %s by %s", user.ID, guild, by)
		if err := h.tracker.ObserveUnban(ctx, update.Chat.ID, user.ID, by); err != nil {
			return h.stats.countError(err)
		}
		h.sync.ReverseAsync(guild)
	}
	return nil
}

// OnMyChatMember registers groups the bot joins and forgets the ones it
// leaves
func (h *Handler) OnMyChatMember(ctx context.Context, update telego.ChatMemberUpdated) error {
	h.stats.memberUpdates.Add(1)
	metrics.UpdatesTotal.WithLabelValues("my_chat_member").Inc()
	if !isGroup(update.Chat) || update.NewChatMember == nil {
		return nil
	}

	guild := platform.FormatID(update.Chat.ID)
	switch status := update.NewChatMember.MemberStatus(); status {
	case telego.MemberStatusLeft, telego.MemberStatusBanned:
		logger.Infof("Bot removed from %s (%s)", guild, status)
		return h.stats.countError(h.tracker.ForgetChat(ctx, update.Chat.ID))
	default:
		isAdmin := status == telego.MemberStatusAdministrator || status == telego.MemberStatusCreator
		logger.Infof("Bot is %s in %s (%s)", status, guild, update.Chat.Title)
		if err := h.tracker.RegisterChat(ctx, update.Chat.ID, update.Chat.Title, isAdmin); err != nil {
			return h.stats.countError(err)
		}
		if isAdmin {
			h.sync.ReverseAsync(guild)
		}
	}
	return nil
}

// OnCallback handles a pressed button and returns the text to answer
// the query with
func (h *Handler) OnCallback(ctx context.Context, query telego.CallbackQuery) string {
	h.stats.callbacks.Add(1)
	metrics.UpdatesTotal.WithLabelValues("callback_query").Inc()
	if query.Data == "" {
		return ""
	}
	h.tracker.Remember(query.From)
	return h.dispatcher.Review(ctx, platform.UserFromTelego(query.From), query.Data)
}

type transition int

const (
	transitionNone transition = iota
	transitionBanned
	transitionUnbanned
)

func memberTransition(update telego.ChatMemberUpdated) transition {
	wasBanned := update.OldChatMember != nil && update.OldChatMember.MemberStatus() == telego.MemberStatusBanned
	isBanned := update.NewChatMember != nil && update.NewChatMember.MemberStatus() == telego.MemberStatusBanned
	switch {
	case isBanned && !wasBanned:
		return transitionBanned
	case wasBanned && !isBanned:
		return transitionUnbanned
	}
	return transitionNone
}

func isGroup(chat telego.Chat) bool {
	return chat.Type == "group" || chat.Type == "supergroup"
}
