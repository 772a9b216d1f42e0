package models

const (
	PermNone = iota
	PermTrusted
	PermModerator
	PermAdmin
	PermOwner
)

// UserRecord is one row of the central "users" collection.
// Level 0 is never stored: a missing row means no permissions.
type UserRecord struct {
	ID    RowID  `json:"id,omitempty"`
	User  string `json:"user"`
	Perms int    `json:"perms"`
}

// ValidPermLevel reports whether level is in the accepted 0..4 range
func ValidPermLevel(level int) bool {
	return level >= PermNone && level <= PermOwner
}
