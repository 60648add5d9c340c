package models

const (
	ChannelTable MongoDbCollection = "channel"
)

// ChannelEntry mirrors the live channel object
type ChannelEntry struct {
	ID            string `bson:"_id"`
	GuildID       string `bson:"guild_id"`
	Type          string `bson:"type"`
	Name          string `bson:"name"`
	Position      int    `bson:"position"`
	CategoryID    string `bson:"category_id,omitempty"`
	LastMessageID string `bson:"last_message_id,omitempty"`
	Restricted    bool   `bson:"restricted,omitempty"`
}
