package helpers

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/bwmarrin/discordgo"
)

var (
	userMentionRegex    = regexp.MustCompile(`^<@!?(\d+)>$`)
	channelMentionRegex = regexp.MustCompile(`^<#(\d+)>$`)
	roleMentionRegex    = regexp.MustCompile(`^<@&(\d+)>$`)
	snowflakeRegex      = regexp.MustCompile(`^\d+$`)
	customEmojiRegex    = regexp.MustCompile(`^<(a?):([^:]+):(\d+)>$`)
)

// GetUserIDFromMention extracts a user id from a mention or a raw id
func GetUserIDFromMention(mention string) (userID string, ok bool) {
	if matches := userMentionRegex.FindStringSubmatch(mention); matches != nil {
		return matches[1], true
	}
	if snowflakeRegex.MatchString(mention) {
		return mention, true
	}
	return "", false
}

// GetChannelIDFromMention extracts a channel id from a mention or a raw id
func GetChannelIDFromMention(mention string) (channelID string, ok bool) {
	if matches := channelMentionRegex.FindStringSubmatch(mention); matches != nil {
		return matches[1], true
	}
	if snowflakeRegex.MatchString(mention) {
		return mention, true
	}
	return "", false
}

// GetRoleIDFromMention extracts a role id from a mention or a raw id
func GetRoleIDFromMention(mention string) (roleID string, ok bool) {
	if matches := roleMentionRegex.FindStringSubmatch(mention); matches != nil {
		return matches[1], true
	}
	if snowflakeRegex.MatchString(mention) {
		return mention, true
	}
	return "", false
}

// EmojiKey normalizes an emoji argument to the key used for reaction
// matching: name:id for custom emoji, the emoji itself for unicode
func EmojiKey(text string) string {
	if matches := customEmojiRegex.FindStringSubmatch(text); matches != nil {
		return matches[2] + ":" + matches[3]
	}
	return text
}

// ReactionEmojiKey returns the key for a received reaction, matching
// EmojiKey output
func ReactionEmojiKey(emoji *discordgo.Emoji) string {
	if emoji.ID != "" {
		return emoji.Name + ":" + emoji.ID
	}
	return emoji.Name
}

// ParseKeyValueString splits text into key=value pairs, quoted sections keep
// their spaces
// source: https://stackoverflow.com/a/44282136
func ParseKeyValueString(text string) (data map[string]string) {
	lastQuote := rune(0)
	f := func(c rune) bool {
		switch {
		case c == lastQuote:
			lastQuote = rune(0)
			return false
		case lastQuote != rune(0):
			return false
		case unicode.In(c, unicode.Quotation_Mark):
			lastQuote = c
			return false
		default:
			return unicode.IsSpace(c)
		}
	}

	// splitting string by space but considering quoted section
	items := strings.FieldsFunc(text, f)

	// create and fill the map
	data = make(map[string]string)
	for _, item := range items {
		x := strings.SplitN(item, "=", 2)
		if len(x) != 2 {
			continue
		}
		data[strings.Trim(x[0], `"`)] = strings.Trim(x[1], `"`)
	}
	return data
}

// CleanCodeBlock strips a surrounding code block or inline code from text
func CleanCodeBlock(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") && strings.HasSuffix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
		// drop a language hint on the first line
		if index := strings.Index(text, "\n"); index >= 0 {
			firstLine := text[:index]
			if !strings.Contains(firstLine, " ") && len(firstLine) < 20 {
				text = text[index+1:]
			}
		}
		return strings.TrimSpace(text)
	}
	return strings.Trim(text, "`")
}
