package models

import (
	"testing"
	"time"
)

func TestActionTypeReverse(t *testing.T) {
	cases := []struct {
		action  ActionType
		reverse ActionType
	}{
		{ActionBan, ActionUnban},
		{ActionMute, ActionUnmute},
		{ActionTradingMute, ActionTradingUnmute},
		{ActionKick, ""},
		{ActionWarn, ""},
		{ActionUnban, ""},
		{ActionUnmute, ""},
		{ActionTradingUnmute, ""},
	}

	for _, c := range cases {
		if got := c.action.Reverse(); got != c.reverse {
			t.Fatalf("%s.Reverse() = %q, expected %q", c.action, got, c.reverse)
		}
	}
}

func TestActionTypePastTense(t *testing.T) {
	if ActionBan.PastTense() != "banned" {
		t.Fatalf("ActionBan.PastTense() = %q", ActionBan.PastTense())
	}
	if ActionTradingMute.PastTense() != "muted in trading" {
		t.Fatalf("ActionTradingMute.PastTense() = %q", ActionTradingMute.PastTense())
	}
	if ActionType("weird").PastTense() != "weird" {
		t.Fatalf("unknown action types should fall back to their raw name")
	}
}

func TestActionEntryDuration(t *testing.T) {
	created := time.Now()

	permanent := ActionEntry{CreatedAt: created}
	if permanent.Duration() != 0 {
		t.Fatalf("a permanent action reported a duration")
	}

	expires := created.Add(2 * time.Hour)
	temporary := ActionEntry{CreatedAt: created, ExpiresAt: &expires}
	if temporary.Duration() != 2*time.Hour {
		t.Fatalf("temporary action duration = %v", temporary.Duration())
	}
}
