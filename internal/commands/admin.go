package commands

import (
	"context"
	"fmt"
	"html"

	"tg-unibans/internal/logger"
	"tg-unibans/internal/models"
	"tg-unibans/internal/platform"
	"tg-unibans/internal/store"
)

func runInvite(_ context.Context, env *Env) (Reply, error) {
	return plain(fmt.Sprintf("https://t.me/%s?startgroup=true", env.Backend.Self().Username)), nil
}

func runStatus(ctx context.Context, env *Env) (Reply, error) {
	return env.requireLevel(ctx, models.PermOwner, func() (Reply, error) {
		if env.Status == nil {
			return plain("No status available."), nil
		}
		return rich("<pre>" + html.EscapeString(env.Status()) + "</pre>"), nil
	})
}

func runHalt(ctx context.Context, env *Env) (Reply, error) {
	return env.requireLevel(ctx, models.PermOwner, func() (Reply, error) {
		logger.Warningf("Halt requested by %s", env.Inv.Author.ID)
		err := env.Messenger.Send(ctx, env.Inv.ChatID, platform.Message{Text: "Halting!", ReplyTo: env.Inv.MessageID})
		if err != nil {
			logger.Warningf("Failed to confirm halt: %v", err)
		}
		if env.Halt != nil {
			env.Halt()
		}
		return Reply{}, nil
	})
}

func runBlacklist(blacklisted bool) Executor {
	return func(ctx context.Context, env *Env) (Reply, error) {
		return env.requireLevel(ctx, models.PermAdmin, func() (Reply, error) {
			guild := env.Args.String(0)
			row, found, err := store.First(ctx, env.Records.Guilds, map[string]string{"guild": guild})
			if err != nil {
				return Reply{}, err
			}

			if !found {
				if !blacklisted {
					return plain("Guild is not blacklisted!"), nil
				}
				row, err = env.Records.Guilds.Put(ctx, models.GuildRecord{
					Guild:       guild,
					Blacklisted: true,
					BanRules:    models.DefaultBanRules,
				})
				if err != nil {
					return Reply{}, err
				}
				env.Guilds.PutRecord(row)
				logger.Infof("%s blacklisted guild %s", env.Inv.Author.ID, guild)
				return plain("Registered on blacklist."), nil
			}

			if row.Blacklisted == blacklisted {
				if blacklisted {
					return plain("Guild is already blacklisted!"), nil
				}
				return plain("Guild is not blacklisted!"), nil
			}

			row, err = env.Records.Guilds.Update(ctx, row.ID, map[string]interface{}{"blacklisted": blacklisted})
			if err != nil {
				return Reply{}, err
			}
			if !env.Guilds.SetBlacklisted(guild, blacklisted) {
				env.Guilds.PutRecord(row)
			}

			if blacklisted {
				logger.Infof("%s blacklisted guild %s", env.Inv.Author.ID, guild)
				return plain("Registered on blacklist."), nil
			}
			logger.Infof("%s removed guild %s from the blacklist", env.Inv.Author.ID, guild)
			env.Sync.ReverseAsync(guild)
			return plain("Removed from blacklist."), nil
		})
	}
}

func runSetRank(ctx context.Context, env *Env) (Reply, error) {
	return env.requireLevel(ctx, models.PermOwner, func() (Reply, error) {
		user := env.Args.User(0)
		level := env.Args.Int(1)
		if !models.ValidPermLevel(level) {
			return plain("Invalid permission level!"), nil
		}

		row, found, err := store.First(ctx, env.Records.Users, map[string]string{"user": user.ID})
		if err != nil {
			return Reply{}, err
		}

		if level == models.PermNone {
			if !found {
				return plain("User already has no permissions!"), nil
			}
			if err := env.Records.Users.Remove(ctx, row.ID); err != nil {
				return Reply{}, err
			}
			return plain("Cleared user permissions."), nil
		}

		if found {
			if row.Perms == level {
				return plain("User is already at that permission level!"), nil
			}
			_, err = env.Records.Users.Update(ctx, row.ID, map[string]interface{}{"perms": level})
		} else {
			_, err = env.Records.Users.Put(ctx, models.UserRecord{User: user.ID, Perms: level})
		}
		if err != nil {
			return Reply{}, err
		}
		logger.Infof("%s set permission level of %s to %d", env.Inv.Author.ID, user.ID, level)
		return plain("Updated user permissions."), nil
	})
}

func runRecache(ctx context.Context, env *Env) (Reply, error) {
	return env.requireLevel(ctx, models.PermOwner, func() (Reply, error) {
		if _, err := env.Loader.Recache(ctx); err != nil {
			return Reply{}, err
		}
		return plain("Cache flushed."), nil
	})
}
