package models

import "time"

const (
	ActionTable MongoDbCollection = "action"
)

type ActionType string

const (
	ActionKick          ActionType = "kick"
	ActionBan           ActionType = "ban"
	ActionUnban         ActionType = "unban"
	ActionWarn          ActionType = "warn"
	ActionMute          ActionType = "mute"
	ActionUnmute        ActionType = "unmute"
	ActionTradingMute   ActionType = "trading_mute"
	ActionTradingUnmute ActionType = "trading_unmute"
)

// ActionEntry is one moderation punishment (or its reversal) against a member
type ActionEntry struct {
	ID            int64      `bson:"_id"`
	TargetID      string     `bson:"target_id"`
	UserID        string     `bson:"user_id"`
	Type          ActionType `bson:"type"`
	Reason        string     `bson:"reason"`
	ChannelID     string     `bson:"channel_id,omitempty"`
	MessageID     string     `bson:"message_id,omitempty"`
	CreatedAt     time.Time  `bson:"created_at"`
	ExpiresAt     *time.Time `bson:"expires_at,omitempty"`
	Resolved      bool       `bson:"resolved"`
	AutomodBucket string     `bson:"automod_bucket,omitempty"`
}

// Duration returns the length of a temporary action, zero otherwise
func (a ActionEntry) Duration() time.Duration {
	if a.ExpiresAt == nil {
		return 0
	}
	return a.ExpiresAt.Sub(a.CreatedAt)
}

// PastTense returns the action verb used in notifications and log embeds
func (t ActionType) PastTense() string {
	switch t {
	case ActionKick:
		return "kicked"
	case ActionBan:
		return "banned"
	case ActionUnban:
		return "unbanned"
	case ActionWarn:
		return "warned"
	case ActionMute:
		return "muted"
	case ActionUnmute:
		return "unmuted"
	case ActionTradingMute:
		return "muted in trading"
	case ActionTradingUnmute:
		return "unmuted in trading"
	}
	return string(t)
}

func (t ActionType) Emoji() string {
	switch t {
	case ActionKick:
		return "👢"
	case ActionBan:
		return "🔨"
	case ActionUnban:
		return "🔓"
	case ActionWarn:
		return "⚠"
	case ActionMute, ActionTradingMute:
		return "🔇"
	case ActionUnmute, ActionTradingUnmute:
		return "🔊"
	}
	return "❔"
}

func (t ActionType) Color() int {
	switch t {
	case ActionBan:
		return 0xE74C3C
	case ActionKick, ActionWarn:
		return 0xE67E22
	case ActionMute, ActionTradingMute:
		return 0x3498DB
	case ActionUnban, ActionUnmute, ActionTradingUnmute:
		return 0x2ECC71
	}
	return 0x95A5A6
}

// Reverse returns the action type undoing this one, or an empty string if
// the action is not reversible.
func (t ActionType) Reverse() ActionType {
	switch t {
	case ActionBan:
		return ActionUnban
	case ActionMute:
		return ActionUnmute
	case ActionTradingMute:
		return ActionTradingUnmute
	}
	return ""
}
