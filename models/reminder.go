package models

import "time"

const (
	ReminderTable MongoDbCollection = "reminder"
)

// ReminderEntry fires once at ExpiresAt in the channel it was created in
type ReminderEntry struct {
	ID        int64     `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Event     string    `bson:"event"`
	GuildID   string    `bson:"guild_id"`
	ChannelID string    `bson:"channel_id"`
	MessageID string    `bson:"message_id"`
	CreatedAt time.Time `bson:"created_at"`
	ExpiresAt time.Time `bson:"expires_at"`
	Resolved  bool      `bson:"resolved"`
}
