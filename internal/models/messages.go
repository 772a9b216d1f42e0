package models

// Reply texts shared by commands and handlers
const (
	MsgNoPerms     = "You can't do that!"
	MsgNoQuery     = "Query parameters must be provided in `key=value` pairs!"
	MsgNotInGuild  = "This command is only usable in a group!"
	MsgUnbannable  = "You cannot ban this user!"
	MsgBlacklisted = "a server has been blacklisted. Contact an administrator for more information."

	MsgTooManyArguments = "Invalid syntax: too many arguments"
	MsgSyntaxExpected   = "Invalid syntax: expected %s at position %d"
	MsgCommandError     = "Command raised error: `%s`"
)
