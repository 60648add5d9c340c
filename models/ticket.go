package models

import "time"

const (
	TicketTable MongoDbCollection = "ticket"
)

// TicketEntry is one help desk ticket backed by a private thread. The id is
// human readable, category prefix plus a short sequential number.
type TicketEntry struct {
	ID              string     `bson:"_id"`
	UserID          string     `bson:"user_id"`
	Category        string     `bson:"category"`
	GuildID         string     `bson:"guild_id"`
	ChannelID       string     `bson:"channel_id"`
	ThreadID        string     `bson:"thread_id"`
	CreatedAt       time.Time  `bson:"created_at"`
	ClosedAt        *time.Time `bson:"closed_at,omitempty"`
	AgentID         string     `bson:"agent_id,omitempty"`
	StatusChannelID string     `bson:"status_channel_id,omitempty"`
	StatusMessageID string     `bson:"status_message_id,omitempty"`
}

// Closed reports whether the ticket has been closed
func (t TicketEntry) Closed() bool {
	return t.ClosedAt != nil
}
