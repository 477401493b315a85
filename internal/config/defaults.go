package config

import (
	"time"

	"github.com/spf13/viper"
)

// Default values for configuration
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false

	DefaultDBPath = "chmasta.db"

	DefaultRequestTimeout = 30 * time.Second
	DefaultPollTimeout    = 10 * time.Second

	DefaultDeleteDelay   = 60 // seconds
	DefaultDeleteTimeout = 15 * time.Second
	DefaultDrainTimeout  = 10 * time.Second

	DefaultAlertRate        = 1.0
	DefaultAlertBurst       = 5
	DefaultAlertSendTimeout = 10 * time.Second

	DefaultAuditRecentLimit = 10
	DefaultAuditRetention   = 90 * 24 * time.Hour
)

// DefaultTasks are the maintenance jobs enabled out of the box.
var DefaultTasks = map[string]TaskConfig{
	"sql_maintenance": {Enabled: true, Schedule: "0 0 4 * * *"},
	"audit_retention": {Enabled: true, Schedule: "0 30 4 * * *"},
}

// DefaultMessages are the user-visible texts used when config.yaml omits them.
var DefaultMessages = MessagesConfig{
	Welcome: "✨ Welcome to Chmasta ✨\n\n" +
		"I automatically delete messages sent by selected admins after a custom delay, per channel ⏱\n\n" +
		"➕ Add me as admin to your channel\n" +
		"⚙ Configure with /help",
	Help: "📘 Chmasta Commands\n\n" +
		"/channel <channel_id> 📡\n" +
		"/channels 📋\n" +
		"/settime <channel_id> <seconds> ⏱\n" +
		"/whitelist <channel_id> <user_id> ✅\n" +
		"/unwhitelist <channel_id> <user_id> ❌\n" +
		"/admins <channel_id> 👥\n" +
		"/owners 👑\n" +
		"/addowner <user_id> ➕ (main owner)\n" +
		"/removeowner <user_id> ➖ (main owner)\n" +
		"/logs 📊\n\n" +
		"⚠ Bot must have delete permission",
	NotAuthorized: "🚫 Owners only.",
	NotMainOwner:  "🚫 Only MAIN OWNER",
	GeneralError:  "❌ An error occurred. Please try again later.",
	InvalidID:     "❌ IDs must be integers.",
	InvalidTimer:  "❌ Seconds must be a non-negative integer.",

	UsageChannel:     "Usage: /channel <channel_id>",
	UsageSetTime:     "Usage: /settime <channel_id> <seconds>",
	UsageWhitelist:   "Usage: /whitelist <channel_id> <user_id>",
	UsageUnwhitelist: "Usage: /unwhitelist <channel_id> <user_id>",
	UsageAdmins:      "Usage: /admins <channel_id>",
	UsageAddOwner:    "Usage: /addowner <user_id>",
	UsageRemoveOwner: "Usage: /removeowner <user_id>",

	ChannelVerifiedFmt:   "📡 Channel %d verified (%s)",
	ChannelNotFoundFmt:   "❌ Cannot access channel %d. Add me as admin first.",
	ChannelsHeader:       "📋 Channels\n\n",
	NoChannels:           "No verified channels.",
	TimerSetFmt:          "⏱ Timer for %d set to %d seconds",
	AdminAdded:           "✅ Admin whitelisted",
	AdminRemoved:         "❌ Admin removed",
	AdminsHeaderFmt:      "👥 Admins of %d\n\n",
	NoAdmins:             "No whitelisted admins.",
	OwnersHeader:         "👑 Owners\n\n",
	OwnerAdded:           "➕ Owner added",
	OwnerRemoved:         "➖ Owner removed",
	OwnerNotFound:        "ℹ️ Not an owner",
	CannotRemoveMain:     "❌ Cannot remove MAIN OWNER",
	LogsHeader:           "📊 Recent Logs\n\n",
	NoLogs:               "No log entries.",
	DeleteFailedAlertFmt: "⚠️ Chmasta Alert\nDelete failed in %d",
}

// setDefaults registers default values with viper. Every key is registered
// so that environment overrides are picked up by Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.main_owner_id", 0)
	v.SetDefault("telegram.start_image", "")
	v.SetDefault("telegram.request_timeout", DefaultRequestTimeout)
	v.SetDefault("telegram.poll_timeout", DefaultPollTimeout)

	v.SetDefault("deletion.default_delay", DefaultDeleteDelay)
	v.SetDefault("deletion.delete_timeout", DefaultDeleteTimeout)
	v.SetDefault("deletion.drain_timeout", DefaultDrainTimeout)

	v.SetDefault("alerts.rate_per_second", DefaultAlertRate)
	v.SetDefault("alerts.burst", DefaultAlertBurst)
	v.SetDefault("alerts.send_timeout", DefaultAlertSendTimeout)

	v.SetDefault("database.path", DefaultDBPath)

	v.SetDefault("audit.recent_limit", DefaultAuditRecentLimit)
	v.SetDefault("audit.retention", DefaultAuditRetention)

	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", DefaultLogJSON)

	for name, task := range DefaultTasks {
		v.SetDefault("scheduler.tasks."+name+".enabled", task.Enabled)
		v.SetDefault("scheduler.tasks."+name+".schedule", task.Schedule)
	}

	m := DefaultMessages
	v.SetDefault("messages.welcome", m.Welcome)
	v.SetDefault("messages.help", m.Help)
	v.SetDefault("messages.not_authorized", m.NotAuthorized)
	v.SetDefault("messages.not_main_owner", m.NotMainOwner)
	v.SetDefault("messages.general_error", m.GeneralError)
	v.SetDefault("messages.invalid_id", m.InvalidID)
	v.SetDefault("messages.invalid_timer", m.InvalidTimer)
	v.SetDefault("messages.usage_channel", m.UsageChannel)
	v.SetDefault("messages.usage_settime", m.UsageSetTime)
	v.SetDefault("messages.usage_whitelist", m.UsageWhitelist)
	v.SetDefault("messages.usage_unwhitelist", m.UsageUnwhitelist)
	v.SetDefault("messages.usage_admins", m.UsageAdmins)
	v.SetDefault("messages.usage_addowner", m.UsageAddOwner)
	v.SetDefault("messages.usage_removeowner", m.UsageRemoveOwner)
	v.SetDefault("messages.channel_verified_fmt", m.ChannelVerifiedFmt)
	v.SetDefault("messages.channel_not_found_fmt", m.ChannelNotFoundFmt)
	v.SetDefault("messages.channels_header", m.ChannelsHeader)
	v.SetDefault("messages.no_channels", m.NoChannels)
	v.SetDefault("messages.timer_set_fmt", m.TimerSetFmt)
	v.SetDefault("messages.admin_added", m.AdminAdded)
	v.SetDefault("messages.admin_removed", m.AdminRemoved)
	v.SetDefault("messages.admins_header_fmt", m.AdminsHeaderFmt)
	v.SetDefault("messages.no_admins", m.NoAdmins)
	v.SetDefault("messages.owners_header", m.OwnersHeader)
	v.SetDefault("messages.owner_added", m.OwnerAdded)
	v.SetDefault("messages.owner_removed", m.OwnerRemoved)
	v.SetDefault("messages.owner_not_found", m.OwnerNotFound)
	v.SetDefault("messages.cannot_remove_main", m.CannotRemoveMain)
	v.SetDefault("messages.logs_header", m.LogsHeader)
	v.SetDefault("messages.no_logs", m.NoLogs)
	v.SetDefault("messages.delete_failed_alert_fmt", m.DeleteFailedAlertFmt)
}
