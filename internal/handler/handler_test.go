package handler

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tg-unibans/internal/commands"
	"tg-unibans/internal/models"
)

const botID = 1000

type fakeTracker struct {
	remembered []int64
	registered map[int64]bool
	forgotten  []int64
	bans       []string
	unbans     []string
	err        error
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{registered: map[int64]bool{}}
}

func (f *fakeTracker) Remember(user telego.User) {
	f.remembered = append(f.remembered, user.ID)
}

func (f *fakeTracker) RegisterChat(_ context.Context, groupID int64, _ string, isAdmin bool) error {
	f.registered[groupID] = isAdmin
	return f.err
}

func (f *fakeTracker) ForgetChat(_ context.Context, groupID int64) error {
	f.forgotten = append(f.forgotten, groupID)
	return f.err
}

func (f *fakeTracker) ObserveBan(_ context.Context, groupID, userID int64, by string) error {
	f.bans = append(f.bans, fmt.Sprintf("%d:%d:%s", groupID, userID, by))
	return f.err
}

func (f *fakeTracker) ObserveUnban(_ context.Context, groupID, userID int64, by string) error {
	f.unbans = append(f.unbans, fmt.Sprintf("%d:%d:%s", groupID, userID, by))
	return f.err
}

type fakeDispatcher struct {
	invocations []commands.Invocation
	reviews     []string
	isCommand   bool
}

func (f *fakeDispatcher) Dispatch(_ context.Context, inv commands.Invocation) bool {
	f.invocations = append(f.invocations, inv)
	return f.isCommand
}

func (f *fakeDispatcher) Review(_ context.Context, presser models.User, data string) string {
	f.reviews = append(f.reviews, presser.ID+" "+data)
	return "done"
}

type fakeSync struct {
	reversed []string
}

func (f *fakeSync) ReverseAsync(guild string) {
	f.reversed = append(f.reversed, guild)
}

type harness struct {
	tracker    *fakeTracker
	dispatcher *fakeDispatcher
	sync       *fakeSync
	handler    *Handler
}

func newHarness() *harness {
	h := &harness{
		tracker:    newFakeTracker(),
		dispatcher: &fakeDispatcher{isCommand: true},
		sync:       &fakeSync{},
	}
	h.handler = New(botID, h.tracker, h.dispatcher, h.sync, nil)
	return h
}

func group(id int64) telego.Chat {
	return telego.Chat{ID: id, Type: "supergroup", Title: "Test group"}
}

func banned(id int64) telego.ChatMember {
	return &telego.ChatMemberBanned{Status: telego.MemberStatusBanned, User: telego.User{ID: id}}
}

func member(id int64) telego.ChatMember {
	return &telego.ChatMemberMember{Status: telego.MemberStatusMember, User: telego.User{ID: id}}
}

func left(id int64) telego.ChatMember {
	return &telego.ChatMemberLeft{Status: telego.MemberStatusLeft, User: telego.User{ID: id}}
}

func admin(id int64) telego.ChatMember {
	return &telego.ChatMemberAdministrator{Status: telego.MemberStatusAdministrator, User: telego.User{ID: id}}
}

func TestOnMessage_GroupCommand(t *testing.T) {
	h := newHarness()
	err := h.handler.OnMessage(context.Background(), telego.Message{
		MessageID: 7,
		Chat:      group(-100),
		From:      &telego.User{ID: 5, FirstName: "Ada"},
		Text:      "/status",
	})
	require.NoError(t, err)

	require.Len(t, h.dispatcher.invocations, 1)
	inv := h.dispatcher.invocations[0]
	assert.Equal(t, "-100", inv.ChatID)
	assert.Equal(t, "-100", inv.GuildID)
	assert.Equal(t, 7, inv.MessageID)
	assert.Equal(t, "5", inv.Author.ID)
	assert.Equal(t, "/status", inv.Text)
	assert.Equal(t, []int64{5}, h.tracker.remembered)

	stats := h.handler.Stats().Snapshot()
	assert.Equal(t, int64(1), stats["total_messages"])
	assert.Equal(t, int64(1), stats["total_commands"])
}

func TestOnMessage_PrivateChatHasNoGuild(t *testing.T) {
	h := newHarness()
	err := h.handler.OnMessage(context.Background(), telego.Message{
		Chat: telego.Chat{ID: 5, Type: "private"},
		From: &telego.User{ID: 5},
		Text: "/help",
	})
	require.NoError(t, err)

	require.Len(t, h.dispatcher.invocations, 1)
	assert.Equal(t, "5", h.dispatcher.invocations[0].ChatID)
	assert.False(t, h.dispatcher.invocations[0].InGuild())
}

func TestOnMessage_IgnoresBotsAndEmptyText(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	require.NoError(t, h.handler.OnMessage(ctx, telego.Message{Chat: group(-100), From: &telego.User{ID: 9, IsBot: true}, Text: "/status"}))
	require.NoError(t, h.handler.OnMessage(ctx, telego.Message{Chat: group(-100), From: &telego.User{ID: 5}}))
	require.NoError(t, h.handler.OnMessage(ctx, telego.Message{Chat: group(-100), Text: "/status"}))

	assert.Empty(t, h.dispatcher.invocations)
	assert.Equal(t, int64(3), h.handler.Stats().Snapshot()["total_messages"])
}

func TestOnChatMember_ManualBanIsRecorded(t *testing.T) {
	h := newHarness()
	err := h.handler.OnChatMember(context.Background(), telego.ChatMemberUpdated{
		Chat:          group(-100),
		From:          telego.User{ID: 10},
		OldChatMember: member(5),
		NewChatMember: banned(5),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"-100:5:10"}, h.tracker.bans)
	assert.Empty(t, h.sync.reversed)
}

func TestOnChatMember_ManualUnbanReconciles(t *testing.T) {
	h := newHarness()
	err := h.handler.OnChatMember(context.Background(), telego.ChatMemberUpdated{
		Chat:          group(-100),
		From:          telego.User{ID: 10},
		OldChatMember: banned(5),
		NewChatMember: left(5),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"-100:5:10"}, h.tracker.unbans)
	assert.Equal(t, []string{"-100"}, h.sync.reversed)
}

func TestOnChatMember_IgnoresOwnActionsAndOtherChanges(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	require.NoError(t, h.handler.OnChatMember(ctx, telego.ChatMemberUpdated{
		Chat:          group(-100),
		From:          telego.User{ID: botID},
		OldChatMember: member(5),
		NewChatMember: banned(5),
	}))
	require.NoError(t, h.handler.OnChatMember(ctx, telego.ChatMemberUpdated{
		Chat:          group(-100),
		From:          telego.User{ID: 5},
		OldChatMember: left(5),
		NewChatMember: member(5),
	}))

	assert.Empty(t, h.tracker.bans)
	assert.Empty(t, h.tracker.unbans)
	assert.Empty(t, h.sync.reversed)
	assert.Equal(t, int64(2), h.handler.Stats().Snapshot()["total_member_updates"])
}

func TestOnChatMember_LedgerErrorIsCounted(t *testing.T) {
	h := newHarness()
	h.tracker.err = errors.New("db down")

	err := h.handler.OnChatMember(context.Background(), telego.ChatMemberUpdated{
		Chat:          group(-100),
		From:          telego.User{ID: 10},
		OldChatMember: banned(5),
		NewChatMember: left(5),
	})
	require.Error(t, err)

	assert.Empty(t, h.sync.reversed)
	assert.Equal(t, int64(1), h.handler.Stats().Snapshot()["total_errors"])
}

func TestOnMyChatMember_PromotionRegistersAndReconciles(t *testing.T) {
	h := newHarness()
	err := h.handler.OnMyChatMember(context.Background(), telego.ChatMemberUpdated{
		Chat:          group(-100),
		From:          telego.User{ID: 10},
		OldChatMember: member(botID),
		NewChatMember: admin(botID),
	})
	require.NoError(t, err)

	assert.Equal(t, map[int64]bool{-100: true}, h.tracker.registered)
	assert.Equal(t, []string{"-100"}, h.sync.reversed)
}

func TestOnMyChatMember_PlainMemberRegistersWithoutReconcile(t *testing.T) {
	h := newHarness()
	err := h.handler.OnMyChatMember(context.Background(), telego.ChatMemberUpdated{
		Chat:          group(-100),
		From:          telego.User{ID: 10},
		OldChatMember: left(botID),
		NewChatMember: member(botID),
	})
	require.NoError(t, err)

	assert.Equal(t, map[int64]bool{-100: false}, h.tracker.registered)
	assert.Empty(t, h.sync.reversed)
}

func TestOnMyChatMember_RemovalForgetsChat(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	require.NoError(t, h.handler.OnMyChatMember(ctx, telego.ChatMemberUpdated{
		Chat:          group(-100),
		From:          telego.User{ID: 10},
		OldChatMember: admin(botID),
		NewChatMember: banned(botID),
	}))
	require.NoError(t, h.handler.OnMyChatMember(ctx, telego.ChatMemberUpdated{
		Chat:          group(-200),
		From:          telego.User{ID: 10},
		OldChatMember: member(botID),
		NewChatMember: left(botID),
	}))

	assert.Equal(t, []int64{-100, -200}, h.tracker.forgotten)
}

func TestOnMyChatMember_IgnoresPrivateChats(t *testing.T) {
	h := newHarness()
	err := h.handler.OnMyChatMember(context.Background(), telego.ChatMemberUpdated{
		Chat:          telego.Chat{ID: 5, Type: "private"},
		From:          telego.User{ID: 5},
		OldChatMember: member(botID),
		NewChatMember: banned(botID),
	})
	require.NoError(t, err)

	assert.Empty(t, h.tracker.forgotten)
	assert.Empty(t, h.tracker.registered)
}

func TestOnCallback(t *testing.T) {
	h := newHarness()

	text := h.handler.OnCallback(context.Background(), telego.CallbackQuery{
		ID:   "q1",
		From: telego.User{ID: 10},
		Data: "review:verify:5:-100",
	})
	assert.Equal(t, "done", text)
	assert.Equal(t, []string{"10 review:verify:5:-100"}, h.dispatcher.reviews)

	assert.Empty(t, h.handler.OnCallback(context.Background(), telego.CallbackQuery{ID: "q2"}))
	assert.Equal(t, int64(2), h.handler.Stats().Snapshot()["total_callbacks"])
}

func TestStatsString(t *testing.T) {
	stats := NewStats()
	stats.messages.Add(3)
	assert.NoError(t, stats.countError(nil))
	assert.Error(t, stats.countError(errors.New("x")))

	out := stats.String()
	assert.Contains(t, out, "Messages processed: 3")
	assert.Contains(t, out, "Errors: 1")
}
