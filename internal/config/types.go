// Package config manages application configuration from config files,
// environment variables and default values.
package config

import (
	"time"

	"github.com/go-telegram/bot/models"
)

// Config is the root configuration for Chmasta.
type Config struct {
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Deletion  DeletionConfig  `mapstructure:"deletion"`
	Alerts    AlertsConfig    `mapstructure:"alerts"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// TelegramConfig holds the bot credentials and the main owner.
type TelegramConfig struct {
	Token          string        `mapstructure:"token"           validate:"required"`
	MainOwnerID    int64         `mapstructure:"main_owner_id"   validate:"required,gt=0"`
	StartImage     string        `mapstructure:"start_image"     validate:"omitempty,url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"min=1s,max=5m,gtfield=PollTimeout"`
	PollTimeout    time.Duration `mapstructure:"poll_timeout"    validate:"min=1s,max=5m"`

	// BotInfo is filled at runtime from getMe.
	BotInfo *models.User `mapstructure:"-"`
}

// DeletionConfig controls the delayed deletion engine.
type DeletionConfig struct {
	// DefaultDelay is in seconds and applies to channels without a timer.
	DefaultDelay  int           `mapstructure:"default_delay"  validate:"gte=0,lte=172800"`
	DeleteTimeout time.Duration `mapstructure:"delete_timeout" validate:"min=1s,max=5m"`
	DrainTimeout  time.Duration `mapstructure:"drain_timeout"  validate:"min=0s,max=5m"`
}

// AlertsConfig paces the failure alerts sent to owners.
type AlertsConfig struct {
	RatePerSecond float64 `mapstructure:"rate_per_second" validate:"gt=0,lte=30"`
	Burst         int     `mapstructure:"burst"           validate:"min=1,max=30"`
	// SendTimeout bounds the alert sent to a single owner.
	SendTimeout time.Duration `mapstructure:"send_timeout" validate:"min=1s,max=2m"`
}

// DatabaseConfig holds the SQLite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// AuditConfig controls audit log retrieval and retention.
type AuditConfig struct {
	RecentLimit int           `mapstructure:"recent_limit" validate:"min=1,max=100"`
	Retention   time.Duration `mapstructure:"retention"    validate:"min=0s"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// SchedulerConfig lists the periodic maintenance tasks.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig configures one periodic task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// MessagesConfig holds every user-visible text. Fields ending in Fmt are
// fmt format strings.
type MessagesConfig struct {
	Welcome       string `mapstructure:"welcome"        validate:"required"`
	Help          string `mapstructure:"help"           validate:"required"`
	NotAuthorized string `mapstructure:"not_authorized" validate:"required"`
	NotMainOwner  string `mapstructure:"not_main_owner" validate:"required"`
	GeneralError  string `mapstructure:"general_error"  validate:"required"`
	InvalidID     string `mapstructure:"invalid_id"     validate:"required"`
	InvalidTimer  string `mapstructure:"invalid_timer"  validate:"required"`

	UsageChannel     string `mapstructure:"usage_channel"     validate:"required"`
	UsageSetTime     string `mapstructure:"usage_settime"     validate:"required"`
	UsageWhitelist   string `mapstructure:"usage_whitelist"   validate:"required"`
	UsageUnwhitelist string `mapstructure:"usage_unwhitelist" validate:"required"`
	UsageAdmins      string `mapstructure:"usage_admins"      validate:"required"`
	UsageAddOwner    string `mapstructure:"usage_addowner"    validate:"required"`
	UsageRemoveOwner string `mapstructure:"usage_removeowner" validate:"required"`

	ChannelVerifiedFmt   string `mapstructure:"channel_verified_fmt"    validate:"required"`
	ChannelNotFoundFmt   string `mapstructure:"channel_not_found_fmt"   validate:"required"`
	ChannelsHeader       string `mapstructure:"channels_header"         validate:"required"`
	NoChannels           string `mapstructure:"no_channels"             validate:"required"`
	TimerSetFmt          string `mapstructure:"timer_set_fmt"           validate:"required"`
	AdminAdded           string `mapstructure:"admin_added"             validate:"required"`
	AdminRemoved         string `mapstructure:"admin_removed"           validate:"required"`
	AdminsHeaderFmt      string `mapstructure:"admins_header_fmt"       validate:"required"`
	NoAdmins             string `mapstructure:"no_admins"               validate:"required"`
	OwnersHeader         string `mapstructure:"owners_header"           validate:"required"`
	OwnerAdded           string `mapstructure:"owner_added"             validate:"required"`
	OwnerRemoved         string `mapstructure:"owner_removed"           validate:"required"`
	OwnerNotFound        string `mapstructure:"owner_not_found"         validate:"required"`
	CannotRemoveMain     string `mapstructure:"cannot_remove_main"      validate:"required"`
	LogsHeader           string `mapstructure:"logs_header"             validate:"required"`
	NoLogs               string `mapstructure:"no_logs"                 validate:"required"`
	DeleteFailedAlertFmt string `mapstructure:"delete_failed_alert_fmt" validate:"required"`
}
