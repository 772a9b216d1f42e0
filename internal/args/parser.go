package args

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tg-unibans/internal/models"
)

// ErrTooManyArguments is returned when tokens remain after every slot
var ErrTooManyArguments = errors.New("too many arguments")

// SyntaxError reports a required slot that could not be filled
type SyntaxError struct {
	Expected string
	Position int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("expected %s at position %d", e.Expected, e.Position)
}

// Mode selects how many tokens a slot may take
type Mode int

const (
	Required Mode = iota
	Optional
	Variadic
)

// Slot is one positional parameter of a command
type Slot struct {
	Mode Mode
	Type *Type
}

func Req(t *Type) Slot { return Slot{Mode: Required, Type: t} }
func Opt(t *Type) Slot { return Slot{Mode: Optional, Type: t} }
func Var(t *Type) Slot { return Slot{Mode: Variadic, Type: t} }

// ParseSpec builds slots from the compact form "user, str, str*", where a
// trailing '?' marks an optional slot and '*' a variadic one
func ParseSpec(spec string) ([]Slot, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, nil
	}

	var slots []Slot
	for _, part := range strings.Split(spec, ",") {
		name := strings.TrimSpace(part)
		mode := Required
		switch {
		case strings.HasSuffix(name, "?"):
			mode = Optional
			name = strings.TrimSuffix(name, "?")
		case strings.HasSuffix(name, "*"):
			mode = Variadic
			name = strings.TrimSuffix(name, "*")
		}
		t, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown token type %q", part)
		}
		slots = append(slots, Slot{Mode: mode, Type: t})
	}
	return slots, nil
}

// MustParseSpec is ParseSpec for static command tables
func MustParseSpec(spec string) []Slot {
	slots, err := ParseSpec(spec)
	if err != nil {
		panic(err)
	}
	return slots
}

// Parse fills slots from tokens left to right. A failed conversion never
// consumes its token, so optional and variadic slots hand it on to the
// next slot untouched.
func Parse(ctx context.Context, tokens []string, slots []Slot, r Resolver) (Values, error) {
	c := NewCursor(tokens)
	values := make(Values, 0, len(slots))

	for _, slot := range slots {
		switch slot.Mode {
		case Variadic:
			items := []interface{}{}
			for c.HasNext() {
				v, ok := slot.Type.Convert(ctx, c, r)
				if !ok {
					break
				}
				items = append(items, v)
			}
			values = append(values, items)
		case Optional:
			v, ok := slot.Type.Convert(ctx, c, r)
			if !ok {
				v = nil
			}
			values = append(values, v)
		default:
			v, ok := slot.Type.Convert(ctx, c, r)
			if !ok {
				return nil, &SyntaxError{Expected: slot.Type.Name, Position: len(values) + 1}
			}
			values = append(values, v)
		}
	}

	if c.HasNext() {
		return nil, ErrTooManyArguments
	}
	return values, nil
}

// Values holds parsed arguments by slot index. Optional slots that were
// not filled hold nil; variadic slots hold a []interface{}.
type Values []interface{}

func (v Values) IsSet(i int) bool {
	return i < len(v) && v[i] != nil
}

func (v Values) String(i int) string {
	s, _ := v.at(i).(string)
	return s
}

func (v Values) Int(i int) int {
	n, _ := v.at(i).(int)
	return n
}

func (v Values) Float(i int) float64 {
	f, _ := v.at(i).(float64)
	return f
}

func (v Values) Bool(i int) bool {
	b, _ := v.at(i).(bool)
	return b
}

func (v Values) User(i int) models.User {
	u, _ := v.at(i).(models.User)
	return u
}

func (v Values) Channel(i int) models.Channel {
	ch, _ := v.at(i).(models.Channel)
	return ch
}

// List returns the items of a variadic slot
func (v Values) List(i int) []interface{} {
	items, _ := v.at(i).([]interface{})
	return items
}

// Strings returns a variadic slot of str or id values
func (v Values) Strings(i int) []string {
	items := v.List(i)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (v Values) at(i int) interface{} {
	if i < 0 || i >= len(v) {
		return nil
	}
	return v[i]
}
