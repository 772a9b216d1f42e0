package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tg-unibans/internal/args"
	"tg-unibans/internal/cache"
	"tg-unibans/internal/crash"
	"tg-unibans/internal/logger"
	"tg-unibans/internal/metrics"
	"tg-unibans/internal/models"
	"tg-unibans/internal/platform"
	"tg-unibans/internal/reconcile"
	"tg-unibans/internal/store"
)

// Reconciler triggers reconciliation passes after records change
type Reconciler interface {
	ForwardAsync(user string)
	ReverseAsync(guild string)
	Reverse(ctx context.Context, guild string) *reconcile.Report
}

// Deps are the collaborators commands work against
type Deps struct {
	Records   *store.Records
	Guilds    *cache.GuildCache
	Loader    *cache.Loader
	Sync      Reconciler
	Backend   platform.Backend
	Messenger platform.Messenger

	// Status renders runtime statistics for the status command
	Status func() string
	// Halt stops the process after the reply was sent
	Halt func()

	Prefix       string
	ReviewChatID string
}

// Env is what an executor sees of one invocation
type Env struct {
	*Deps
	Inv      Invocation
	Args     args.Values
	registry *Registry
}

// Dispatcher recognizes command lines and runs them
type Dispatcher struct {
	deps     *Deps
	registry *Registry
}

// NewDispatcher creates a dispatcher with every built-in command registered
func NewDispatcher(deps *Deps) *Dispatcher {
	registry := NewRegistry()
	registry.Register(builtins()...)
	return &Dispatcher{deps: deps, registry: registry}
}

func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch runs the command in inv.Text, if there is one, and reports
// whether the text was a command for this bot
func (d *Dispatcher) Dispatch(ctx context.Context, inv Invocation) bool {
	name, tokens, ok := d.split(inv.Text)
	if !ok {
		return false
	}
	cmd, ok := d.registry.Lookup(name)
	if !ok {
		return false
	}

	if inv.InGuild() && d.deps.Guilds.IsBlacklisted(inv.GuildID) {
		d.reply(ctx, inv, plain(models.MsgBlacklisted))
		return true
	}

	logger.Infof("%s: %s", inv.Author.ID, inv.Text)
	metrics.CommandsTotal.WithLabelValues(cmd.Name).Inc()

	values, err := args.Parse(ctx, tokens, cmd.slots, d.deps.Backend)
	if err != nil {
		logger.Infof("%s evoked invalid syntax error", inv.Author.ID)
		d.reply(ctx, inv, plain(syntaxMessage(err)))
		return true
	}

	env := &Env{Deps: d.deps, Inv: inv, Args: values, registry: d.registry}
	var reply Reply
	err = crash.Capture("command-"+cmd.Name, func() error {
		var runErr error
		reply, runErr = cmd.Run(ctx, env)
		return runErr
	})
	if err != nil {
		logger.Warningf("Command %s raised error: %v", cmd.Name, err)
		reply = plain(fmt.Sprintf(models.MsgCommandError, err.Error()))
	}

	if reply.Text != "" {
		d.reply(ctx, inv, reply)
	}
	return true
}

// split recognizes the prefix and an optional @botname suffix
func (d *Dispatcher) split(line string) (string, []string, bool) {
	if !strings.HasPrefix(line, d.deps.Prefix) {
		return "", nil, false
	}
	rest := line[len(d.deps.Prefix):]
	fields := strings.Fields(rest)
	if len(fields) == 0 || !strings.HasPrefix(rest, fields[0]) {
		return "", nil, false
	}

	name := strings.ToLower(fields[0])
	if at := strings.IndexByte(name, '@'); at >= 0 {
		if !strings.EqualFold(name[at+1:], d.deps.Backend.Self().Username) {
			return "", nil, false
		}
		name = name[:at]
	}
	return name, fields[1:], true
}

func (d *Dispatcher) reply(ctx context.Context, inv Invocation, r Reply) {
	err := d.deps.Messenger.Send(ctx, inv.ChatID, platform.Message{
		Text:      r.Text,
		HTML:      r.HTML,
		ReplyTo:   inv.MessageID,
		NoPreview: true,
	})
	if err != nil {
		logger.Warningf("Failed to reply in %s: %v", inv.ChatID, err)
	}
}

func syntaxMessage(err error) string {
	var syntaxErr *args.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Sprintf(models.MsgSyntaxExpected, syntaxErr.Expected, syntaxErr.Position)
	}
	return models.MsgTooManyArguments
}
