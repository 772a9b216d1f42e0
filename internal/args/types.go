package args

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"tg-unibans/internal/models"
)

// Resolver looks up platform entities referenced by arguments
type Resolver interface {
	FetchUser(ctx context.Context, userID string) (models.User, error)
	ResolveChannel(ctx context.Context, ref string) (models.Channel, error)
}

// Type converts tokens into one kind of value. Convert must leave the
// cursor where it found it when it reports failure.
type Type struct {
	Name    string
	Convert func(ctx context.Context, c *Cursor, r Resolver) (interface{}, bool)
}

var (
	flakePattern       = regexp.MustCompile(`-?\d+`)
	digitsPattern      = regexp.MustCompile(`^\d+$`)
	userMentionPattern = regexp.MustCompile(`^<@!?(\d+)>$`)
	userLinkPattern    = regexp.MustCompile(`^tg://user\?id=(\d+)$`)
	channelPattern     = regexp.MustCompile(`^<#(-?\d+)>$`)
	channelRefPattern  = regexp.MustCompile(`^(@[A-Za-z0-9_]{4,}|-?\d+)$`)
)

var (
	Str = &Type{Name: "string", Convert: func(_ context.Context, c *Cursor, _ Resolver) (interface{}, bool) {
		tok, ok := c.Next()
		if !ok {
			return nil, false
		}
		return tok, true
	}}

	Int = &Type{Name: "integer", Convert: func(_ context.Context, c *Cursor, _ Resolver) (interface{}, bool) {
		return convertToken(c, func(tok string) (interface{}, bool) {
			n, err := strconv.Atoi(tok)
			return n, err == nil
		})
	}}

	Float = &Type{Name: "float", Convert: func(_ context.Context, c *Cursor, _ Resolver) (interface{}, bool) {
		return convertToken(c, func(tok string) (interface{}, bool) {
			f, err := strconv.ParseFloat(tok, 64)
			return f, err == nil
		})
	}}

	Bool = &Type{Name: "boolean", Convert: func(_ context.Context, c *Cursor, _ Resolver) (interface{}, bool) {
		return convertToken(c, parseBool)
	}}

	Snowflake = &Type{Name: "snowflake", Convert: func(_ context.Context, c *Cursor, _ Resolver) (interface{}, bool) {
		return convertToken(c, func(tok string) (interface{}, bool) {
			match := flakePattern.FindString(tok)
			return match, match != ""
		})
	}}

	UserType = &Type{Name: "user", Convert: func(ctx context.Context, c *Cursor, r Resolver) (interface{}, bool) {
		return convertToken(c, func(tok string) (interface{}, bool) {
			id := userID(tok)
			if id == "" || r == nil {
				return nil, false
			}
			user, err := r.FetchUser(ctx, id)
			if err != nil {
				return nil, false
			}
			return user, true
		})
	}}

	ChannelType = &Type{Name: "channel", Convert: func(ctx context.Context, c *Cursor, r Resolver) (interface{}, bool) {
		return convertToken(c, func(tok string) (interface{}, bool) {
			ref := channelRef(tok)
			if ref == "" || r == nil {
				return nil, false
			}
			channel, err := r.ResolveChannel(ctx, ref)
			if err != nil {
				return nil, false
			}
			return channel, true
		})
	}}
)

// byName maps the names used in compact slot specs to types
var byName = map[string]*Type{
	"str":     Str,
	"int":     Int,
	"float":   Float,
	"bool":    Bool,
	"id":      Snowflake,
	"user":    UserType,
	"channel": ChannelType,
}

// convertToken reads one token and rewinds if fn rejects it
func convertToken(c *Cursor, fn func(tok string) (interface{}, bool)) (interface{}, bool) {
	tok, ok := c.Next()
	if !ok {
		return nil, false
	}
	v, ok := fn(tok)
	if !ok {
		c.Back()
		return nil, false
	}
	return v, true
}

func parseBool(tok string) (interface{}, bool) {
	switch strings.ToLower(tok) {
	case "true", "yes", "on", "enable", "enabled":
		return true, true
	case "false", "no", "off", "disable", "disabled":
		return false, true
	}
	return nil, false
}

func userID(tok string) string {
	if m := userMentionPattern.FindStringSubmatch(tok); m != nil {
		return m[1]
	}
	if m := userLinkPattern.FindStringSubmatch(tok); m != nil {
		return m[1]
	}
	if digitsPattern.MatchString(tok) {
		return tok
	}
	return ""
}

func channelRef(tok string) string {
	if m := channelPattern.FindStringSubmatch(tok); m != nil {
		return m[1]
	}
	if channelRefPattern.MatchString(tok) {
		return tok
	}
	return ""
}
