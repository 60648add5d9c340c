package models

const (
	RolemenuTable MongoDbCollection = "rolemenu"
)

// RolemenuEntry maps reactions on one message to roles. The document id is
// the message id; Options maps an emoji key (unicode emoji or custom emoji
// id) to a role id.
type RolemenuEntry struct {
	ID        string            `bson:"_id"`
	ChannelID string            `bson:"channel_id"`
	GuildID   string            `bson:"guild_id"`
	Name      string            `bson:"name"`
	Options   map[string]string `bson:"options"`
}
