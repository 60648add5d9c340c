package models

import "time"

const (
	MessageTable MongoDbCollection = "message"
)

type MessageAttachment struct {
	ID       string `bson:"id"`
	Filename string `bson:"filename"`
}

// MessageEntry records one message and its edit history, keyed by the
// unix timestamp of each revision.
type MessageEntry struct {
	ID          string              `bson:"_id"`
	UserID      string              `bson:"user_id"`
	ChannelID   string              `bson:"channel_id"`
	GuildID     string              `bson:"guild_id"`
	History     map[string]string   `bson:"history"`
	Attachments []MessageAttachment `bson:"attachments"`
	DeletedAt   *time.Time          `bson:"deleted_at"`
}
