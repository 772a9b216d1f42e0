package commands

import (
	"context"
	"sort"
	"strings"

	"tg-unibans/internal/args"
	"tg-unibans/internal/models"
)

// Reply is what an executor wants sent back. An empty Text sends nothing.
type Reply struct {
	Text string
	HTML bool
}

func plain(s string) Reply { return Reply{Text: s} }
func rich(s string) Reply  { return Reply{Text: s, HTML: true} }

// Invocation describes where and by whom a command was issued
type Invocation struct {
	ChatID string
	// GuildID is empty outside of groups
	GuildID   string
	MessageID int
	Author    models.User
	Text      string
}

// InGuild reports whether the command was issued in a group
func (inv *Invocation) InGuild() bool {
	return inv.GuildID != ""
}

// Executor runs a command with its parsed arguments
type Executor func(ctx context.Context, env *Env) (Reply, error)

// Command is one named operation of the bot
type Command struct {
	Name        string
	Args        string
	Usage       string
	Description string
	Run         Executor

	slots []args.Slot
}

// Registry holds the commands known to a dispatcher
type Registry struct {
	commands map[string]*Command
}

func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]*Command)}
}

// Register adds commands, panicking on a malformed argument list
func (r *Registry) Register(cmds ...*Command) {
	for _, cmd := range cmds {
		cmd.slots = args.MustParseSpec(cmd.Args)
		r.commands[strings.ToLower(cmd.Name)] = cmd
	}
}

func (r *Registry) Lookup(name string) (*Command, bool) {
	cmd, ok := r.commands[strings.ToLower(name)]
	return cmd, ok
}

// All returns every command sorted by name
func (r *Registry) All() []*Command {
	all := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		all = append(all, cmd)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all
}
