package helpers

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	duration, err := ParseDuration("2h")
	if err != nil || duration != 2*time.Hour {
		t.Fatalf("ParseDuration(2h) returned %v, %v", duration, err)
	}

	duration, err = ParseDuration("1d12h")
	if err != nil || duration != 36*time.Hour {
		t.Fatalf("ParseDuration(1d12h) returned %v, %v", duration, err)
	}

	if _, err = ParseDuration("wat"); err == nil {
		t.Fatalf("ParseDuration() accepted junk")
	}

	if _, err = ParseDuration("-1h"); err == nil {
		t.Fatalf("ParseDuration() accepted a negative duration")
	}
}

func TestParseNaturalTime(t *testing.T) {
	now := time.Now()

	result, remainder, err := ParseNaturalTime("in 2 hours buy milk")
	if err != nil {
		t.Fatalf("ParseNaturalTime() failed on natural language: %v", err)
	}
	if result.Before(now.Add(time.Hour)) || result.After(now.Add(3*time.Hour)) {
		t.Fatalf("ParseNaturalTime() returned %v for a two hour offset", result)
	}
	if remainder != "buy milk" {
		t.Fatalf("ParseNaturalTime() returned remainder %q", remainder)
	}

	result, remainder, err = ParseNaturalTime("45m check the oven")
	if err != nil {
		t.Fatalf("ParseNaturalTime() failed on short duration text: %v", err)
	}
	if result.Before(now.Add(44*time.Minute)) || result.After(now.Add(46*time.Minute)) {
		t.Fatalf("ParseNaturalTime() returned %v for a 45 minute offset", result)
	}
	if remainder != "check the oven" {
		t.Fatalf("ParseNaturalTime() returned remainder %q", remainder)
	}

	if _, _, err = ParseNaturalTime("gibberish with no time"); err == nil {
		t.Fatalf("ParseNaturalTime() accepted text without a time")
	}
}

func TestHumanizeDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{45 * time.Second, "45s"},
		{3 * time.Minute, "3m"},
		{2*time.Hour + 30*time.Minute, "2h30m"},
		{26 * time.Hour, "1d2h"},
		{73*time.Hour + 5*time.Minute + 9*time.Second, "3d1h5m9s"},
	}

	for _, c := range cases {
		if got := HumanizeDuration(c.in); got != c.want {
			t.Fatalf("HumanizeDuration(%v) = %q, expected %q", c.in, got, c.want)
		}
	}
}

func TestDiscordTimestamps(t *testing.T) {
	moment := time.Unix(1700000000, 0)

	if DiscordRelativeTime(moment) != "<t:1700000000:R>" {
		t.Fatalf("DiscordRelativeTime() returned %q", DiscordRelativeTime(moment))
	}
	if DiscordLongTime(moment) != "<t:1700000000:F>" {
		t.Fatalf("DiscordLongTime() returned %q", DiscordLongTime(moment))
	}
}
