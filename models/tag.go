package models

import "github.com/globalsign/mgo/bson"

const (
	TagTable MongoDbCollection = "tag"
)

// TagEntry is a named text snippet. An alias tag carries no content, only a
// pointer to the original tag's name.
type TagEntry struct {
	ID       bson.ObjectId `bson:"_id,omitempty"`
	Name     string        `bson:"name"`
	OwnerID  string        `bson:"owner_id"`
	Alias    bool          `bson:"alias"`
	Uses     int           `bson:"uses"`
	Content  string        `bson:"content,omitempty"`
	Original string        `bson:"original,omitempty"`
}
