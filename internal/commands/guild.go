package commands

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"tg-unibans/internal/banrules"
	"tg-unibans/internal/logger"
	"tg-unibans/internal/models"
	"tg-unibans/internal/reconcile"
	"tg-unibans/internal/store"
)

func runBan(ctx context.Context, env *Env) (Reply, error) {
	return env.requireRight(ctx, canRestrict, func() (Reply, error) {
		subject := env.Args.User(0)
		reason := env.Args.String(1)
		guild := env.Inv.GuildID

		bannable, err := canBanUser(ctx, env, subject)
		if err != nil {
			return Reply{}, err
		}
		if !bannable {
			return plain(models.MsgUnbannable), nil
		}

		existing, found, err := store.First(ctx, env.Records.Bans, map[string]string{"user": subject.ID, "source": guild})
		if err != nil {
			return Reply{}, err
		}
		if found {
			return plain(fmt.Sprintf("User was already banned at %s for %s!", existing.IssuedAtISO(), existing.Reason)), nil
		}
		if !models.IsValidReason(reason) {
			return plain(fmt.Sprintf("Invalid ban reason! Try `%sreasons`.", env.Prefix)), nil
		}

		evidence := models.DefaultEvidence
		if words := env.Args.Strings(2); len(words) > 0 {
			evidence = strings.Join(words, " ")
		}
		verified, err := env.hasLevel(ctx, models.PermAdmin)
		if err != nil {
			return Reply{}, err
		}

		record, err := env.Records.Bans.Put(ctx, models.BanRecord{
			User:      subject.ID,
			Reason:    reason,
			Source:    guild,
			Timestamp: time.Now().UnixMilli(),
			Verified:  verified,
			Evidence:  evidence,
		})
		if err != nil {
			return Reply{}, err
		}
		env.Sync.ForwardAsync(subject.ID)
		if !record.Verified {
			notifyReview(ctx, env, record)
		}

		logger.Infof("%s banned %s in %s for %s", env.Inv.Author.ID, subject.ID, guild, reason)
		return plain("User was banned. \U0001F44B"), nil
	})
}

// canBanUser refuses the bot itself and anyone holding a permission level
func canBanUser(ctx context.Context, env *Env, user models.User) (bool, error) {
	if user.ID == env.Backend.Self().ID {
		return false, nil
	}
	privileged, err := store.HasPermissionLevel(ctx, env.Records.Users, user.ID, models.PermTrusted)
	if err != nil {
		return false, err
	}
	return !privileged, nil
}

func runUnban(ctx context.Context, env *Env) (Reply, error) {
	return env.requireRight(ctx, canRestrict, func() (Reply, error) {
		subject := env.Args.User(0)
		row, found, err := store.First(ctx, env.Records.Bans, map[string]string{"user": subject.ID, "source": env.Inv.GuildID})
		if err != nil {
			return Reply{}, err
		}
		if !found {
			return plain("User is not locally banned!"), nil
		}
		if err := env.Records.Bans.Remove(ctx, row.ID); err != nil {
			return Reply{}, err
		}
		env.Sync.ForwardAsync(subject.ID)

		logger.Infof("%s unbanned %s in %s", env.Inv.Author.ID, subject.ID, env.Inv.GuildID)
		return plain("User was unbanned."), nil
	})
}

func runBanRules(ctx context.Context, env *Env) (Reply, error) {
	return env.requireRight(ctx, canChangeInfo, func() (Reply, error) {
		rules := models.DefaultBanRules
		row, found, err := store.First(ctx, env.Records.Guilds, map[string]string{"guild": env.Inv.GuildID})
		if err != nil {
			return Reply{}, err
		}
		if found {
			rules = row.EffectiveBanRules()
		}
		return rich("Ban rules: <code>" + html.EscapeString(rules) + "</code>"), nil
	})
}

func runSetBanRules(ctx context.Context, env *Env) (Reply, error) {
	return env.requireRight(ctx, canChangeInfo, func() (Reply, error) {
		clauses := splitClauses(env.Args.Strings(0))
		res := banrules.Compile(clauses)
		if !res.Ok() {
			return plain(res.Message()), nil
		}
		joined := strings.Join(clauses, ", ")
		guild := env.Inv.GuildID

		row, found, err := store.First(ctx, env.Records.Guilds, map[string]string{"guild": guild})
		if err != nil {
			return Reply{}, err
		}
		if found {
			row, err = env.Records.Guilds.Update(ctx, row.ID, map[string]interface{}{"banrules": joined})
		} else {
			row, err = env.Records.Guilds.Put(ctx, models.GuildRecord{Guild: guild, BanRules: joined})
		}
		if err != nil {
			return Reply{}, err
		}
		if joined == "" {
			err = env.Guilds.Put(row)
		} else {
			env.Guilds.PutCompiled(row, res.Predicate())
		}
		if err != nil {
			return Reply{}, err
		}
		env.Sync.ReverseAsync(guild)

		logger.Infof("%s set ban rules of %s to %q", env.Inv.Author.ID, guild, joined)
		if joined == "" {
			return plain("Cleared ban rules."), nil
		}
		return plain("Updated ban rules."), nil
	})
}

// splitClauses accepts clauses separated by spaces, commas or both
func splitClauses(tokens []string) []string {
	clauses := make([]string, 0, len(tokens))
	for _, token := range tokens {
		for _, clause := range strings.Split(token, ",") {
			if clause = strings.TrimSpace(clause); clause != "" {
				clauses = append(clauses, clause)
			}
		}
	}
	return clauses
}

func runSync(ctx context.Context, env *Env) (Reply, error) {
	return env.requireRight(ctx, canChangeInfo, func() (Reply, error) {
		report := env.Sync.Reverse(ctx, env.Inv.GuildID)
		if report.Err != nil {
			return Reply{}, report.Err
		}
		return plain(fmt.Sprintf("Synchronized: %d banned, %d unbanned, %d failed.",
			report.Count(reconcile.KindBan), report.Count(reconcile.KindUnban), report.Failed())), nil
	})
}
