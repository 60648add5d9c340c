package plugins

import (
	"strings"
	"testing"
	"time"

	"github.com/globalsign/mgo/bson"
	"github.com/wardenbot/warden/models"
)

func TestInviteRegex(t *testing.T) {
	matching := []string{
		"join us on discord.gg/abc123",
		"https://discord.gg/warden",
		"DISCORD.GG/SHOUTING",
		"discordapp.com/invite/abc",
		"discord.com/invite/abc",
	}
	for _, text := range matching {
		if !inviteRegex.MatchString(strings.ToLower(text)) {
			t.Fatalf("inviteRegex missed %q", text)
		}
	}

	clean := []string{
		"we talked about discord yesterday",
		"https://example.com/invite/abc",
		"discord.gg is where the invite links live",
	}
	for _, text := range clean {
		if inviteRegex.MatchString(strings.ToLower(text)) {
			t.Fatalf("inviteRegex matched %q", text)
		}
	}
}

func TestLadderPunishment(t *testing.T) {
	cases := []struct {
		offences int
		action   models.ActionType
		duration time.Duration
	}{
		{0, models.ActionWarn, 0},
		{1, models.ActionWarn, 0},
		{2, models.ActionMute, 2 * time.Hour},
		{3, models.ActionMute, 3 * 24 * time.Hour},
		{4, models.ActionMute, 3 * 24 * time.Hour},
		{5, models.ActionBan, 0},
		{12, models.ActionBan, 0},
	}

	for _, c := range cases {
		action, duration := ladderPunishment(c.offences)
		if action != c.action || duration != c.duration {
			t.Fatalf("ladderPunishment(%d) = %s/%s, expected %s/%s",
				c.offences, action, duration, c.action, c.duration)
		}
	}
}

func TestLadderPunishmentSecondOffence(t *testing.T) {
	// one prior offence in the bucket plus the one being punished now
	priorOffences := 1

	action, duration := ladderPunishment(priorOffences + 1)
	if action != models.ActionMute {
		t.Fatalf("second offence produced %s, expected a mute", action)
	}
	if duration != 2*time.Hour {
		t.Fatalf("second offence mute lasts %s, expected 2h", duration)
	}
}

func TestOffenceQuery(t *testing.T) {
	since := time.Now().Add(-7 * 24 * time.Hour)
	query := offenceQuery("user", "invites", since)

	if query["target_id"] != "user" {
		t.Fatalf("unexpected target selector %v", query["target_id"])
	}

	// offences in other buckets must not escalate this one
	if query["automod_bucket"] != "invites" {
		t.Fatalf("expected the query to select only the triggering bucket, got %v", query["automod_bucket"])
	}

	window, ok := query["created_at"].(bson.M)
	if !ok || window["$gt"] != since {
		t.Fatalf("unexpected created_at window %v", query["created_at"])
	}
}

func TestRecordSpamWindow(t *testing.T) {
	a := &Automod{}
	a.Init(nil)

	// one message short of the limit stays quiet
	for i := 0; i < spamWindowMessages-1; i++ {
		if a.recordSpamWindow("guild", "user") {
			t.Fatalf("recordSpamWindow() tripped after %d messages", i+1)
		}
	}

	if !a.recordSpamWindow("guild", "user") {
		t.Fatalf("recordSpamWindow() did not trip at %d messages", spamWindowMessages)
	}

	// the window resets after tripping
	if a.recordSpamWindow("guild", "user") {
		t.Fatalf("recordSpamWindow() tripped again right after resetting")
	}

	// other members have their own window
	if a.recordSpamWindow("guild", "other") {
		t.Fatalf("recordSpamWindow() mixed up windows of different members")
	}
}
