package models

import (
	"time"

	"github.com/globalsign/mgo/bson"
)

const (
	RefundTable MongoDbCollection = "refund"
)

// RefundEntry is one staff-issued refund of in-game currency to a member
type RefundEntry struct {
	ID        bson.ObjectId `bson:"_id,omitempty"`
	UserID    string        `bson:"user_id"`
	TargetID  string        `bson:"target_id"`
	Coins     int64         `bson:"coins,omitempty"`
	Shards    int64         `bson:"shards,omitempty"`
	Redeems   int64         `bson:"redeems,omitempty"`
	Notes     string        `bson:"notes,omitempty"`
	JumpURL   string        `bson:"jump_url,omitempty"`
	CreatedAt time.Time     `bson:"created_at"`
}
