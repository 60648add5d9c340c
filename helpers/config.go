package helpers

import (
	"strings"
	"sync"

	"github.com/kelseyhightower/envconfig"
)

// BotConfig holds every runtime setting. All values come from WARDEN_*
// environment variables.
type BotConfig struct {
	DiscordToken string `envconfig:"DISCORD_TOKEN" required:"true"`
	Prefix       string `envconfig:"PREFIX" default:"?"`

	MongoURL      string `envconfig:"MONGO_URL" default:"mongodb://localhost:27017"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"warden"`

	RedisAddress  string `envconfig:"REDIS_ADDRESS" default:"127.0.0.1:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	SentryDSN         string `envconfig:"SENTRY_DSN"`
	DiscordLogWebhook string `envconfig:"DISCORD_LOG_WEBHOOK"`

	Debug bool `envconfig:"DEBUG"`

	BotAdminIDs []string `envconfig:"BOT_ADMIN_IDS"`

	AdminRoleNames    []string `envconfig:"ADMIN_ROLE_NAMES" default:"Admin,Administrator"`
	ModRoleNames      []string `envconfig:"MOD_ROLE_NAMES" default:"Moderator,Mod"`
	TrialModRoleNames []string `envconfig:"TRIAL_MOD_ROLE_NAMES" default:"Trial Moderator"`

	MutedRoleName        string `envconfig:"MUTED_ROLE_NAME" default:"Muted"`
	TradingMutedRoleName string `envconfig:"TRADING_MUTED_ROLE_NAME" default:"Trading Muted"`

	ModLogChannelID     string `envconfig:"MOD_LOG_CHANNEL_ID"`
	ReportChannelID     string `envconfig:"REPORT_CHANNEL_ID"`
	RefundLogChannelID  string `envconfig:"REFUND_LOG_CHANNEL_ID"`
	SubmissionChannelID string `envconfig:"SUBMISSION_CHANNEL_ID"`

	GiveawayApprovalChannelID string   `envconfig:"GIVEAWAY_APPROVAL_CHANNEL_ID"`
	GiveawayChannelIDs        []string `envconfig:"GIVEAWAY_CHANNEL_IDS"`

	// role sync source -> target, formatted SOURCE=TARGET role id pairs
	RoleSyncPairs         []string `envconfig:"ROLE_SYNC_PAIRS"`
	RoleSyncSourceGuildID string   `envconfig:"ROLE_SYNC_SOURCE_GUILD_ID"`
	RoleSyncTargetGuildID string   `envconfig:"ROLE_SYNC_TARGET_GUILD_ID"`

	OutlineBaseURL      string  `envconfig:"OUTLINE_BASE_URL"`
	OutlineAPIToken     string  `envconfig:"OUTLINE_API_TOKEN"`
	OutlineRankingFloor float64 `envconfig:"OUTLINE_RANKING_FLOOR" default:"0.3"`
	// collection name -> collection id, formatted NAME=UUID pairs
	OutlineCollections []string `envconfig:"OUTLINE_COLLECTIONS"`
	// names of collections only staff may search
	OutlineStaffCollections []string `envconfig:"OUTLINE_STAFF_COLLECTIONS"`

	// base URL of the log admin panel reading the mirrored collections
	LogsBaseURL string `envconfig:"LOGS_BASE_URL"`

	// help desk tickets live as private threads under this channel
	TicketsChannelID string `envconfig:"TICKETS_CHANNEL_ID"`
	// status messages move between these channels as tickets progress
	TicketStatusNewChannelID    string `envconfig:"TICKET_STATUS_NEW_CHANNEL_ID"`
	TicketStatusOpenChannelID   string `envconfig:"TICKET_STATUS_OPEN_CHANNEL_ID"`
	TicketStatusClosedChannelID string `envconfig:"TICKET_STATUS_CLOSED_CHANNEL_ID"`
	// channel category holding every ticket status channel
	TicketStatusCategoryID string `envconfig:"TICKET_STATUS_CATEGORY_ID"`

	MetricsAddress string `envconfig:"METRICS_ADDRESS" default:"127.0.0.1:1337"`
}

var (
	botConfig      BotConfig
	botConfigMutex sync.RWMutex

	// DEBUG_MODE mirrors BotConfig.Debug for hot paths
	DEBUG_MODE bool
)

// LoadConfig reads the configuration from the environment, panics if a
// required value is missing
func LoadConfig() {
	botConfigMutex.Lock()
	defer botConfigMutex.Unlock()

	err := envconfig.Process("warden", &botConfig)
	if err != nil {
		panic(err)
	}

	DEBUG_MODE = botConfig.Debug
}

// GetConfig returns a copy of the current configuration
func GetConfig() BotConfig {
	botConfigMutex.RLock()
	defer botConfigMutex.RUnlock()

	return botConfig
}

// SetConfig replaces the configuration, used by tests
func SetConfig(config BotConfig) {
	botConfigMutex.Lock()
	defer botConfigMutex.Unlock()

	botConfig = config
	DEBUG_MODE = config.Debug
}

// GetPrefix returns the command prefix
func GetPrefix() string {
	prefix := GetConfig().Prefix
	if prefix == "" {
		prefix = "?"
	}
	return prefix
}

// RoleSyncPairs parses the SOURCE=TARGET role sync pairs from the config
func RoleSyncPairs() (pairs map[string]string) {
	pairs = make(map[string]string)
	for _, pair := range GetConfig().RoleSyncPairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		pairs[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return pairs
}
