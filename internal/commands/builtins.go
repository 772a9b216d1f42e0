package commands

import "tg-unibans/internal/models"

const (
	msgNoPerms    = models.MsgNoPerms
	msgNotInGuild = models.MsgNotInGuild
)

func builtins() []*Command {
	return []*Command{
		// bot administration
		{Name: "invite", Description: "Generates a bot invite link.", Run: runInvite},
		{Name: "status", Description: "Shows runtime statistics.", Run: runStatus},
		{Name: "halt", Description: "Kills the bot.", Run: runHalt},
		{Name: "blacklist", Args: "id", Usage: "<guildId>", Description: "Blacklists a guild.", Run: runBlacklist(true)},
		{Name: "unblacklist", Args: "id", Usage: "<guildId>", Description: "Removes a guild from the blacklist.", Run: runBlacklist(false)},
		{Name: "setrank", Args: "user, int", Usage: "<user> <permLevel>", Description: "Sets a user's administrative permission level.", Run: runSetRank},

		// record administration
		{Name: "verify", Args: "user, id", Usage: "<user> <guildId>", Description: "Verifies a ban.", Run: runSetVerified(true)},
		{Name: "unverify", Args: "user, id", Usage: "<user> <guildId>", Description: "Unverifies a ban.", Run: runSetVerified(false)},
		{Name: "drop", Args: "user, id", Usage: "<user> <guildId>", Description: "Drops a local ban.", Run: runDrop},
		{Name: "recache", Description: "Flushes the cached group data and rebuilds it.", Run: runRecache},

		// group administration
		{Name: "ban", Args: "user, str, str*", Usage: "<user> <reason> [evidence]", Description: "Locally bans a user.", Run: runBan},
		{Name: "unban", Args: "user", Usage: "<user>", Description: "Reverts a local ban.", Run: runUnban},
		{Name: "banrules", Description: "Lists the current ban rules active in a group.", Run: runBanRules},
		{Name: "setbanrules", Args: "str*", Usage: "<rule> [rule]...", Description: "Modifies a group's active ban rules.", Run: runSetBanRules},
		{Name: "sync", Description: "Re-applies the group's ban rules now.", Run: runSync},

		// record access
		{Name: "lookup", Args: "str*", Usage: "<key=value> [key=value]...", Description: "Queries the ban database.", Run: runLookup},

		// utility
		{Name: "user", Args: "id?", Usage: "[user]", Description: "Looks up a user by their ID.", Run: runUser},
		{Name: "reasons", Description: "Lists valid ban reasons.", Run: runReasons},
		{Name: "help", Description: "Lists available commands.", Run: runHelp},
	}
}
