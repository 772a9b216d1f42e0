package models

import "strings"

// DefaultBanRules is applied to guilds that have no rule text of their own
const DefaultBanRules = "verified=true"

// GuildRecord is one row of the central "guilds" collection
type GuildRecord struct {
	ID          RowID  `json:"id,omitempty"`
	Guild       string `json:"guild"`
	Blacklisted bool   `json:"blacklisted"`
	BanRules    string `json:"banrules"`
}

// EffectiveBanRules returns the rule text that applies to the guild
func (g *GuildRecord) EffectiveBanRules() string {
	if strings.TrimSpace(g.BanRules) == "" {
		return DefaultBanRules
	}
	return g.BanRules
}
