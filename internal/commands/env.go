package commands

import (
	"context"

	"tg-unibans/internal/platform"
	"tg-unibans/internal/store"
)

// hasLevel checks the invoker's stored permission level
func (e *Env) hasLevel(ctx context.Context, level int) (bool, error) {
	return store.HasPermissionLevel(ctx, e.Records.Users, e.Inv.Author.ID, level)
}

// rights returns what the invoker may do in the current group
func (e *Env) rights(ctx context.Context) (platform.Rights, error) {
	return e.Messenger.MemberRights(ctx, e.Inv.GuildID, e.Inv.Author.ID)
}

// requireLevel runs fn only for invokers at or above level
func (e *Env) requireLevel(ctx context.Context, level int, fn func() (Reply, error)) (Reply, error) {
	ok, err := e.hasLevel(ctx, level)
	if err != nil {
		return Reply{}, err
	}
	if !ok {
		return plain(msgNoPerms), nil
	}
	return fn()
}

// requireRight runs fn only in groups and only for members holding the
// right picked by has
func (e *Env) requireRight(ctx context.Context, has func(platform.Rights) bool, fn func() (Reply, error)) (Reply, error) {
	if !e.Inv.InGuild() {
		return plain(msgNotInGuild), nil
	}
	rights, err := e.rights(ctx)
	if err != nil {
		return Reply{}, err
	}
	if !has(rights) {
		return plain(msgNoPerms), nil
	}
	return fn()
}

func canRestrict(r platform.Rights) bool   { return r.CanRestrict }
func canChangeInfo(r platform.Rights) bool { return r.CanChangeInfo }
