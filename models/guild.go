package models

const (
	GuildTable MongoDbCollection = "guild"
)

// GuildRole is a denormalized snapshot of one guild role
type GuildRole struct {
	ID       string `bson:"id"`
	Name     string `bson:"name"`
	Color    int    `bson:"color"`
	Position int    `bson:"position"`
}

// GuildEntry mirrors the live guild object plus per-guild settings
type GuildEntry struct {
	ID    string      `bson:"_id"`
	Name  string      `bson:"name"`
	Icon  string      `bson:"icon"`
	Roles []GuildRole `bson:"roles"`

	BannedWords []string `bson:"banned_words,omitempty"`

	// level number (as text) -> role id granted at that level
	LevelRoles map[string]string `bson:"level_roles,omitempty"`

	HelpDeskMessageID         string   `bson:"help_desk_message_id,omitempty"`
	LevelLogsChannelID        string   `bson:"level_logs_channel_id,omitempty"`
	GiveawayApprovalChannelID string   `bson:"giveaway_approval_channel_id,omitempty"`
	GiveawayChannelIDs        []string `bson:"giveaway_channel_ids,omitempty"`
}
