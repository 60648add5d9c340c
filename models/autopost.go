package models

import (
	"time"

	"github.com/globalsign/mgo/bson"
)

const (
	AutopostTable MongoDbCollection = "autopost"
)

// AutopostEntry posts a rotating message into a channel on an interval, but
// only when the channel saw traffic since the previous post.
type AutopostEntry struct {
	ID            bson.ObjectId `bson:"_id,omitempty"`
	GuildID       string        `bson:"guild_id"`
	ChannelID     string        `bson:"channel_id"`
	IntervalSecs  int64         `bson:"interval_secs"`
	Messages      []string      `bson:"messages"`
	NextIndex     int           `bson:"next_index"`
	LastMessageID string        `bson:"last_message_id,omitempty"`
	LastPostedAt  time.Time     `bson:"last_posted_at,omitempty"`
}

func (a AutopostEntry) Interval() time.Duration {
	return time.Duration(a.IntervalSecs) * time.Second
}
