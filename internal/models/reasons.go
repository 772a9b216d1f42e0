package models

import "slices"

// BanReasons is the fixed vocabulary of ban reason codes
var BanReasons = []string{
	"spam", "powerabuse", "threats", "harassment", "hate", "malware", "phishing",
	"vulgarity", "banevasion", "impersonation", "advertising",
}

// IsValidReason reports whether reason belongs to BanReasons
func IsValidReason(reason string) bool {
	return slices.Contains(BanReasons, reason)
}
