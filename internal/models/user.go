package models

import "fmt"

// User is a platform account as seen by commands
type User struct {
	ID        string
	Username  string
	FirstName string
	LastName  string
	IsBot     bool
}

// DisplayName returns "First Last (@username)" with the empty parts dropped
func (u *User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	if u.Username != "" {
		if name == "" {
			return "@" + u.Username
		}
		name = fmt.Sprintf("%s (@%s)", name, u.Username)
	}
	if name == "" {
		return u.ID
	}
	return name
}

// Channel is a chat resolved from a channel argument
type Channel struct {
	ID       string
	Title    string
	Username string
}
