package commands

import (
	"context"
	"fmt"
	"html"
	"strings"

	"tg-unibans/internal/models"
	"tg-unibans/internal/platform"
)

const maxLookupResults = 3

func runLookup(ctx context.Context, env *Env) (Reply, error) {
	query, ok := buildQuery(env.Args.Strings(0))
	if !ok {
		return plain(models.MsgNoQuery), nil
	}
	results, err := env.Records.Bans.List(ctx, query)
	if err != nil {
		return Reply{}, err
	}
	if len(results) == 0 {
		return plain("No results."), nil
	}
	if len(results) > maxLookupResults {
		return plain(fmt.Sprintf("Too many results; try `limit=%d`.", maxLookupResults)), nil
	}

	blocks := make([]string, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, models.FormatBan(r))
	}
	return rich(strings.Join(blocks, "\n")), nil
}

// buildQuery turns key=value tokens into a store filter
func buildQuery(tokens []string) (map[string]string, bool) {
	if len(tokens) == 0 {
		return nil, false
	}
	query := make(map[string]string, len(tokens))
	for _, token := range tokens {
		key, value, found := strings.Cut(token, "=")
		if !found || key == "" {
			return nil, false
		}
		query[key] = value
	}
	return query, true
}

func runUser(ctx context.Context, env *Env) (Reply, error) {
	user := env.Inv.Author
	if env.Args.IsSet(0) {
		fetched, err := env.Backend.FetchUser(ctx, env.Args.String(0))
		if err != nil {
			return plain("Could not find user by that ID!"), nil
		}
		user = fetched
	}
	return rich(fmt.Sprintf("<b>%s</b> (<code>%s</code>)", html.EscapeString(user.DisplayName()), user.ID)), nil
}

func runReasons(_ context.Context, _ *Env) (Reply, error) {
	return rich("<b>Valid ban reasons:</b> " + strings.Join(models.BanReasons, ", ")), nil
}

func runHelp(ctx context.Context, env *Env) (Reply, error) {
	lines := make([]string, 0)
	for _, cmd := range env.registry.All() {
		usage := env.Prefix + cmd.Name
		if cmd.Usage != "" {
			usage += " " + cmd.Usage
		}
		lines = append(lines, fmt.Sprintf("%s | %s", usage, cmd.Description))
	}

	err := env.Messenger.Send(ctx, env.Inv.Author.ID, platform.Message{
		Text: "<b>Available Commands</b>\n<pre>" + html.EscapeString(strings.Join(lines, "\n")) + "</pre>",
		HTML: true,
	})
	if err != nil {
		return Reply{}, err
	}
	if env.Inv.InGuild() {
		return plain("Sent documentation in DMs."), nil
	}
	return Reply{}, nil
}
