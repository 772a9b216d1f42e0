package models

import (
	"fmt"
	"html"
	"time"
)

// DefaultEvidence is stored when a ban is issued without evidence text
const DefaultEvidence = "None provided"

// BanRecord is one row of the central "bans" collection.
// It is created by a ban command, flipped by verify/unverify and
// removed by drop/unban; nothing else mutates it.
type BanRecord struct {
	ID        RowID  `json:"id,omitempty"`
	User      string `json:"user"`
	Reason    string `json:"reason"`
	Source    string `json:"source"`
	Timestamp int64  `json:"timestamp"`
	Verified  bool   `json:"verified"`
	Evidence  string `json:"evidence"`
}

// IssuedAt returns the record timestamp as a UTC time
func (b *BanRecord) IssuedAt() time.Time {
	return time.UnixMilli(b.Timestamp).UTC()
}

// IssuedAtISO formats the timestamp the way replies show it
func (b *BanRecord) IssuedAtISO() string {
	return b.IssuedAt().Format("2006-01-02T15:04:05.000Z")
}

// FormatBan renders a record as an HTML <pre> block for chat replies
func FormatBan(b BanRecord) string {
	verified := "No"
	if b.Verified {
		verified = "Yes"
	}
	return fmt.Sprintf("<pre>User      | %s\nReason    | %s\nTimestamp | %s\nSource    | %s\nVerified  | %s\nEvidence  | %s</pre>",
		html.EscapeString(b.User),
		html.EscapeString(b.Reason),
		b.IssuedAtISO(),
		html.EscapeString(b.Source),
		verified,
		html.EscapeString(b.Evidence),
	)
}
