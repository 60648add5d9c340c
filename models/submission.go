package models

import (
	"time"

	"github.com/globalsign/mgo/bson"
)

const (
	SubmissionTable MongoDbCollection = "submission"
)

type SubmissionStatus int

const (
	SubmissionUnderReview SubmissionStatus = iota
	SubmissionRejected
	SubmissionAccepted
	SubmissionMarked
)

func (s SubmissionStatus) Text() string {
	switch s {
	case SubmissionRejected:
		return "Rejected"
	case SubmissionAccepted:
		return "Accepted"
	case SubmissionMarked:
		return "Marked for Review"
	}
	return "New Form Submission"
}

func (s SubmissionStatus) Color() int {
	switch s {
	case SubmissionRejected:
		return 0xE74C3C
	case SubmissionAccepted:
		return 0x2ECC71
	case SubmissionMarked:
		return 0x7289DA
	}
	return 0
}

// SubmissionField is one answered form question
type SubmissionField struct {
	Name  string `bson:"name"`
	Value string `bson:"value"`
}

// SubmissionEntry is a form submission written by the external forms site.
// The bot mirrors each submission as an embed and keeps it in sync; the
// EmbeddedID is the id of the mirror message once posted, EmbeddedStatus
// the status that message currently shows.
type SubmissionEntry struct {
	ID             bson.ObjectId     `bson:"_id,omitempty"`
	FormID         string            `bson:"form_id"`
	FormName       string            `bson:"form_name,omitempty"`
	UserID         string            `bson:"user_id"`
	UserTag        string            `bson:"user_tag"`
	Fields         []SubmissionField `bson:"fields,omitempty"`
	Status         SubmissionStatus  `bson:"status,omitempty"`
	ReviewerID     string            `bson:"reviewer_id,omitempty"`
	EmbeddedID     string            `bson:"embedded_id,omitempty"`
	EmbeddedStatus *SubmissionStatus `bson:"embedded_status,omitempty"`
	UpdatedAt      time.Time         `bson:"updated_at"`
}
