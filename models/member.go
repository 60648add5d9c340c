package models

const (
	MemberTable MongoDbCollection = "member"
)

// MemberID is the compound document key of a member snapshot
type MemberID struct {
	UserID  string `bson:"id"`
	GuildID string `bson:"guild_id"`
}

// MemberEntry mirrors the live member object plus per-member feature state
// (XP, reputation, sticky punishment flags).
type MemberEntry struct {
	ID            MemberID `bson:"_id"`
	Name          string   `bson:"name"`
	Discriminator string   `bson:"discriminator"`
	Nick          string   `bson:"nick,omitempty"`
	Avatar        string   `bson:"avatar,omitempty"`
	Roles         []string `bson:"roles"`

	XP       int64 `bson:"xp,omitempty"`
	Level    int   `bson:"level,omitempty"`
	Messages int64 `bson:"messages,omitempty"`

	Reputation int `bson:"reputation,omitempty"`

	Muted        bool `bson:"muted,omitempty"`
	TradingMuted bool `bson:"trading_muted,omitempty"`
}
