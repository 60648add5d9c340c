package models

import (
	"time"

	"github.com/globalsign/mgo/bson"
)

const (
	GiveawayTable      MongoDbCollection = "giveaway"
	GiveawayEntryTable MongoDbCollection = "giveaway_entry"
)

// GiveawayEntry is one giveaway. ApprovalStatus is nil while the request is
// pending review; EndsAt is set when the giveaway is started into a channel;
// WinnerID is set (possibly to the empty string, meaning nobody entered)
// when it ends.
type GiveawayEntry struct {
	ID             bson.ObjectId `bson:"_id,omitempty"`
	GuildID        string        `bson:"guild_id"`
	UserID         string        `bson:"user_id"`
	Prize          string        `bson:"prize"`
	ItemRefs       []string      `bson:"item_refs,omitempty"`
	Description    string        `bson:"description,omitempty"`
	ApprovalStatus *bool         `bson:"approval_status,omitempty"`
	ChannelID      string        `bson:"channel_id,omitempty"`
	MessageID      string        `bson:"message_id,omitempty"`
	EndsAt         *time.Time    `bson:"ends_at,omitempty"`
	WinnerID       *string       `bson:"winner_id,omitempty"`
}

// GiveawayEntrantEntry is one user's entry into a giveaway, unique per
// (giveaway, user).
type GiveawayEntrantEntry struct {
	ID         bson.ObjectId `bson:"_id,omitempty"`
	GiveawayID bson.ObjectId `bson:"giveaway_id"`
	UserID     string        `bson:"user_id"`
}
