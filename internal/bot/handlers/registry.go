package handlers

import (
	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/chmasta/internal/telegram"
)

func command(name string) telegram.Predicate {
	return telegram.And(telegram.IsPrivate, telegram.IsCommand(name))
}

// RegisterAllCommands initializes and returns a map of all available bot
// handlers keyed by name. Commands are only accepted in private chats.
func RegisterAllCommands(deps HandlerDeps) map[string]telegram.RegisteredHandler {
	recoverMW := Recover(deps)
	public := []tgbot.Middleware{recoverMW}
	owner := []tgbot.Middleware{recoverMW, OwnerOnly(deps)}
	mainOwner := []tgbot.Middleware{recoverMW, MainOwnerOnly(deps)}

	handlers := map[string]telegram.RegisteredHandler{
		"start": {Match: command("start"), Handler: NewStartHandler(deps), Middleware: public,
			Command: "start", Description: "Welcome"},
		"help": {Match: command("help"), Handler: NewHelpHandler(deps), Middleware: public,
			Command: "help", Description: "List commands"},

		"channel": {Match: command("channel"), Handler: NewChannelHandler(deps), Middleware: owner,
			Command: "channel", Description: "Verify a channel"},
		"channels": {Match: command("channels"), Handler: NewChannelsHandler(deps), Middleware: owner,
			Command: "channels", Description: "List verified channels"},
		"settime": {Match: command("settime"), Handler: NewSetTimeHandler(deps), Middleware: owner,
			Command: "settime", Description: "Set a channel delete timer"},
		"whitelist": {Match: command("whitelist"), Handler: NewWhitelistHandler(deps), Middleware: owner,
			Command: "whitelist", Description: "Whitelist a channel admin"},
		"unwhitelist": {Match: command("unwhitelist"), Handler: NewUnwhitelistHandler(deps), Middleware: owner,
			Command: "unwhitelist", Description: "Remove a channel admin"},
		"admins": {Match: command("admins"), Handler: NewAdminsHandler(deps), Middleware: owner,
			Command: "admins", Description: "List channel admins"},
		"owners": {Match: command("owners"), Handler: NewOwnersHandler(deps), Middleware: owner,
			Command: "owners", Description: "List owners"},
		"logs": {Match: command("logs"), Handler: NewLogsHandler(deps), Middleware: owner,
			Command: "logs", Description: "Recent audit log"},

		"addowner": {Match: command("addowner"), Handler: NewAddOwnerHandler(deps), Middleware: mainOwner,
			Command: "addowner", Description: "Add an owner"},
		"removeowner": {Match: command("removeowner"), Handler: NewRemoveOwnerHandler(deps), Middleware: mainOwner,
			Command: "removeowner", Description: "Remove an owner"},

		"channel_post": {Match: telegram.IsChannelPost, Handler: NewChannelPostHandler(deps), Middleware: public},
	}

	return handlers
}
