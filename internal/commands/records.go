package commands

import (
	"context"
	"fmt"
	"html"
	"strings"

	"tg-unibans/internal/logger"
	"tg-unibans/internal/models"
	"tg-unibans/internal/platform"
	"tg-unibans/internal/store"
)

const msgNotLocallyBannedInGuild = "User is not locally banned in guild!"

func runSetVerified(verified bool) Executor {
	return func(ctx context.Context, env *Env) (Reply, error) {
		return env.requireLevel(ctx, models.PermAdmin, func() (Reply, error) {
			msg, err := setVerified(ctx, env.Deps, env.Inv.Author.ID, env.Args.User(0).ID, env.Args.String(1), verified)
			return plain(msg), err
		})
	}
}

func runDrop(ctx context.Context, env *Env) (Reply, error) {
	return env.requireLevel(ctx, models.PermAdmin, func() (Reply, error) {
		msg, err := dropBan(ctx, env.Deps, env.Inv.Author.ID, env.Args.User(0).ID, env.Args.String(1))
		return plain(msg), err
	})
}

// setVerified flips the verified flag of the record a guild holds
// against a user and re-applies that user's bans everywhere
func setVerified(ctx context.Context, deps *Deps, actor, user, guild string, verified bool) (string, error) {
	row, found, err := store.First(ctx, deps.Records.Bans, map[string]string{"user": user, "source": guild})
	if err != nil {
		return "", err
	}
	if !found {
		return msgNotLocallyBannedInGuild, nil
	}
	if row.Verified == verified {
		if verified {
			return "Ban is already verified!", nil
		}
		return "Ban is not verified!", nil
	}

	if _, err := deps.Records.Bans.Update(ctx, row.ID, map[string]interface{}{"verified": verified}); err != nil {
		return "", err
	}
	deps.Sync.ForwardAsync(row.User)

	if verified {
		logger.Infof("%s verified %s:%s", actor, guild, user)
		return "Ban verified. \U0001F528", nil
	}
	logger.Infof("%s unverified %s:%s", actor, guild, user)
	return "Ban unverified.", nil
}

// dropBan removes the record a guild holds against a user
func dropBan(ctx context.Context, deps *Deps, actor, user, guild string) (string, error) {
	row, found, err := store.First(ctx, deps.Records.Bans, map[string]string{"user": user, "source": guild})
	if err != nil {
		return "", err
	}
	if !found {
		return msgNotLocallyBannedInGuild, nil
	}
	if err := deps.Records.Bans.Remove(ctx, row.ID); err != nil {
		return "", err
	}
	deps.Sync.ForwardAsync(row.User)

	logger.Infof("%s dropped ban %s:%s", actor, guild, user)
	return "Ban dropped.", nil
}

const (
	reviewPrefix = "review"
	reviewVerify = "verify"
	reviewDrop   = "drop"
)

// reviewData encodes a review button; Telegram limits it to 64 bytes
func reviewData(action, user, guild string) string {
	return strings.Join([]string{reviewPrefix, action, user, guild}, ":")
}

// ParseReviewData splits the callback data of a review button
func ParseReviewData(data string) (action, user, guild string, ok bool) {
	parts := strings.Split(data, ":")
	if len(parts) != 4 || parts[0] != reviewPrefix {
		return "", "", "", false
	}
	switch parts[1] {
	case reviewVerify, reviewDrop:
		return parts[1], parts[2], parts[3], true
	}
	return "", "", "", false
}

// notifyReview posts an unverified ban to the review chat
func notifyReview(ctx context.Context, env *Env, record models.BanRecord) {
	if env.ReviewChatID == "" {
		return
	}
	msg := platform.Message{
		Text: fmt.Sprintf("%s\nIssued by %s",
			models.FormatBan(record), html.EscapeString(env.Inv.Author.DisplayName())),
		HTML: true,
		Buttons: []platform.Button{
			{Text: "Verify", Data: reviewData(reviewVerify, record.User, record.Source)},
			{Text: "Drop", Data: reviewData(reviewDrop, record.User, record.Source)},
		},
	}
	if err := env.Messenger.Send(ctx, env.ReviewChatID, msg); err != nil {
		logger.Warningf("Failed to post ban of %s for review: %v", record.User, err)
	}
}

// Review handles a pressed review button and returns the text to show
// the presser
func (d *Dispatcher) Review(ctx context.Context, presser models.User, data string) string {
	action, user, guild, ok := ParseReviewData(data)
	if !ok {
		return ""
	}

	var msg string
	err := func() error {
		allowed, err := store.HasPermissionLevel(ctx, d.deps.Records.Users, presser.ID, models.PermAdmin)
		if err != nil {
			return err
		}
		if !allowed {
			msg = msgNoPerms
			return nil
		}
		if action == reviewVerify {
			msg, err = setVerified(ctx, d.deps, presser.ID, user, guild, true)
		} else {
			msg, err = dropBan(ctx, d.deps, presser.ID, user, guild)
		}
		return err
	}()
	if err != nil {
		logger.Warningf("Review %s by %s raised error: %v", data, presser.ID, err)
		return fmt.Sprintf(models.MsgCommandError, err.Error())
	}
	return msg
}
