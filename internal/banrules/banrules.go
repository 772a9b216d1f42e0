package banrules

import (
	"slices"
	"strings"

	"tg-unibans/internal/models"
)

// Compile errors, shown to users verbatim
const (
	ErrNotKeyValue   = "Ban rules must be `key=value` pairs!"
	ErrAllValue      = "`all` must be `true` or `false`!"
	ErrVerifiedValue = "`verified` must be `true` or `false`!"
	ErrReasonValue   = "`reason` must be a `|`-separated list of valid ban reasons! Try `/reasons`."
	ErrUnknownKey    = "Invalid ban rule! Valid rules are: `all`, `verified`, `reason`, `source`"
)

// Clause is one compiled key=value rule
type Clause struct {
	Key    string
	Values []string
	match  func(b *models.BanRecord) bool
}

func (c Clause) String() string {
	return c.Key + "=" + strings.Join(c.Values, "|")
}

// Predicate is an immutable conjunction of clauses. With no clauses it
// matches nothing.
type Predicate struct {
	clauses []Clause
}

// Clauses returns a copy of the compiled clauses
func (p *Predicate) Clauses() []Clause {
	if p == nil {
		return nil
	}
	return slices.Clone(p.clauses)
}

// Len is the number of clauses
func (p *Predicate) Len() int {
	if p == nil {
		return 0
	}
	return len(p.clauses)
}

// Test reports whether the record satisfies every clause
func (p *Predicate) Test(b *models.BanRecord) bool {
	if p.Len() == 0 {
		return false
	}
	for _, c := range p.clauses {
		if !c.match(b) {
			return false
		}
	}
	return true
}

// AnyMatch reports whether the guild should enforce a ban given every
// record held against one user. A guild always enforces bans it issued
// itself, whatever its rules say.
func (p *Predicate) AnyMatch(records []models.BanRecord, guildID string) bool {
	if p.Len() == 0 {
		return false
	}
	for i := range records {
		if records[i].Source == guildID || p.Test(&records[i]) {
			return true
		}
	}
	return false
}

// String renders the canonical comma-joined rule text
func (p *Predicate) String() string {
	parts := make([]string, 0, p.Len())
	for _, c := range p.Clauses() {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, ", ")
}

// Result is either a compiled predicate or a message explaining why
// compilation failed
type Result struct {
	predicate *Predicate
	message   string
}

func (r Result) Ok() bool {
	return r.predicate != nil
}

// Predicate returns the compiled predicate, or nil on failure
func (r Result) Predicate() *Predicate {
	return r.predicate
}

// Message returns the failure message, or "" on success
func (r Result) Message() string {
	return r.message
}

func failure(msg string) Result {
	return Result{message: msg}
}

// Compile parses clauses of the form key=value, left to right. The first
// invalid clause fails the whole rule set.
func Compile(rules []string) Result {
	p := &Predicate{}
	for _, rule := range rules {
		rule = strings.TrimSpace(rule)
		if rule == "" {
			continue
		}

		key, value, found := strings.Cut(rule, "=")
		if !found || key == "" {
			return failure(ErrNotKeyValue)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "all":
			switch value {
			case "true":
				p.clauses = append(p.clauses, Clause{Key: key, Values: []string{"true"}, match: func(*models.BanRecord) bool { return true }})
			case "false":
				// accepted, contributes nothing
			default:
				return failure(ErrAllValue)
			}
		case "verified":
			var want bool
			switch value {
			case "true":
				want = true
			case "false":
				want = false
			default:
				return failure(ErrVerifiedValue)
			}
			p.clauses = append(p.clauses, Clause{Key: key, Values: []string{value}, match: func(b *models.BanRecord) bool {
				return b.Verified == want
			}})
		case "reason":
			reasons := splitList(value)
			for _, r := range reasons {
				if !models.IsValidReason(r) {
					return failure(ErrReasonValue)
				}
			}
			p.clauses = append(p.clauses, Clause{Key: key, Values: reasons, match: func(b *models.BanRecord) bool {
				return slices.Contains(reasons, b.Reason)
			}})
		case "source":
			sources := splitList(value)
			p.clauses = append(p.clauses, Clause{Key: key, Values: sources, match: func(b *models.BanRecord) bool {
				return slices.Contains(sources, b.Source)
			}})
		default:
			return failure(ErrUnknownKey)
		}
	}
	return Result{predicate: p}
}

// CompileString splits comma-separated rule text and compiles it
func CompileString(text string) Result {
	return Compile(strings.Split(text, ","))
}

// Default compiles the rule set used by guilds without rules of their own
func Default() *Predicate {
	return CompileString(models.DefaultBanRules).Predicate()
}

func splitList(value string) []string {
	parts := strings.Split(value, "|")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.TrimSpace(part))
	}
	return out
}
