package helpers

import (
	"strconv"
	"strings"
	"time"

	"github.com/karrick/tparse/v2"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/pkg/errors"
)

var whenParser *when.Parser

func init() {
	whenParser = when.New(nil)
	whenParser.Add(en.All...)
	whenParser.Add(common.All...)
}

// ParseDuration parses short duration text like 7d12h or 30m
func ParseDuration(text string) (duration time.Duration, err error) {
	now := time.Now()

	then, err := tparse.AddDuration(now, strings.TrimSpace(text))
	if err != nil {
		return 0, errors.Wrap(err, "parsing duration")
	}

	duration = then.Sub(now)
	if duration <= 0 {
		return 0, errors.New("duration has to be positive")
	}

	return duration, nil
}

// ParseNaturalTime parses natural language like "tomorrow at noon" or
// "in 4 hours", falls back to short duration text like 7d12h. remainder is
// the input with the time expression removed.
func ParseNaturalTime(text string) (result time.Time, remainder string, err error) {
	now := time.Now()

	parsed, err := whenParser.Parse(text, now)
	if err == nil && parsed != nil && parsed.Time.After(now) {
		remainder = strings.TrimSpace(strings.Replace(text, parsed.Text, "", 1))
		return parsed.Time, remainder, nil
	}

	// fall back to a leading short duration
	fields := strings.Fields(text)
	if len(fields) > 0 {
		duration, err := ParseDuration(fields[0])
		if err == nil {
			return now.Add(duration), strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), fields[0])), nil
		}
	}

	return time.Time{}, "", errors.New("unable to understand that time")
}

// HumanizeDuration formats a duration as short text like 3d4h5m
func HumanizeDuration(d time.Duration) (result string) {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) - (hours * 60)
	seconds := int(d.Seconds()) - (minutes * 60) - (hours * 60 * 60)

	if hours > 0 {
		days := hours / 24
		hoursLeft := hours % 24
		if days > 0 {
			result += strconv.Itoa(days) + "d"
		}
		if hoursLeft > 0 {
			result += strconv.Itoa(hoursLeft) + "h"
		}
	}
	if minutes > 0 {
		result += strconv.Itoa(minutes) + "m"
	}
	if seconds > 0 {
		result += strconv.Itoa(seconds) + "s"
	}
	if result == "" {
		result = "0s"
	}
	return result
}

// DiscordRelativeTime formats a time as a discord relative timestamp
func DiscordRelativeTime(t time.Time) string {
	return "<t:" + strconv.FormatInt(t.Unix(), 10) + ":R>"
}

// DiscordLongTime formats a time as a discord full date timestamp
func DiscordLongTime(t time.Time) string {
	return "<t:" + strconv.FormatInt(t.Unix(), 10) + ":F>"
}
