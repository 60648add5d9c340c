package helpers

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestGetUserIDFromMention(t *testing.T) {
	id, ok := GetUserIDFromMention("<@123456789>")
	if !ok || id != "123456789" {
		t.Fatalf("GetUserIDFromMention() failed on a plain mention")
	}

	id, ok = GetUserIDFromMention("<@!123456789>")
	if !ok || id != "123456789" {
		t.Fatalf("GetUserIDFromMention() failed on a nickname mention")
	}

	id, ok = GetUserIDFromMention("123456789")
	if !ok || id != "123456789" {
		t.Fatalf("GetUserIDFromMention() failed on a raw id")
	}

	if _, ok = GetUserIDFromMention("someone"); ok {
		t.Fatalf("GetUserIDFromMention() accepted a plain word")
	}
	if _, ok = GetUserIDFromMention("<#123456789>"); ok {
		t.Fatalf("GetUserIDFromMention() accepted a channel mention")
	}
}

func TestGetChannelIDFromMention(t *testing.T) {
	id, ok := GetChannelIDFromMention("<#987654321>")
	if !ok || id != "987654321" {
		t.Fatalf("GetChannelIDFromMention() failed on a channel mention")
	}

	if _, ok = GetChannelIDFromMention("<@987654321>"); ok {
		t.Fatalf("GetChannelIDFromMention() accepted a user mention")
	}
}

func TestGetRoleIDFromMention(t *testing.T) {
	id, ok := GetRoleIDFromMention("<@&555>")
	if !ok || id != "555" {
		t.Fatalf("GetRoleIDFromMention() failed on a role mention")
	}

	if _, ok = GetRoleIDFromMention("<@555>"); ok {
		t.Fatalf("GetRoleIDFromMention() accepted a user mention")
	}
}

func TestEmojiKey(t *testing.T) {
	if EmojiKey("🎉") != "🎉" {
		t.Fatalf("EmojiKey() changed a unicode emoji")
	}
	if EmojiKey("<:blobwave:123456>") != "blobwave:123456" {
		t.Fatalf("EmojiKey() failed on a custom emoji")
	}
	if EmojiKey("<a:party:654321>") != "party:654321" {
		t.Fatalf("EmojiKey() failed on an animated custom emoji")
	}
}

func TestReactionEmojiKey(t *testing.T) {
	if ReactionEmojiKey(&discordgo.Emoji{Name: "🎉"}) != "🎉" {
		t.Fatalf("ReactionEmojiKey() failed on a unicode emoji")
	}
	if ReactionEmojiKey(&discordgo.Emoji{Name: "blobwave", ID: "123456"}) != "blobwave:123456" {
		t.Fatalf("ReactionEmojiKey() failed on a custom emoji")
	}
	if ReactionEmojiKey(&discordgo.Emoji{Name: "blobwave", ID: "123456"}) != EmojiKey("<:blobwave:123456>") {
		t.Fatalf("ReactionEmojiKey() and EmojiKey() disagree on the same emoji")
	}
}

func TestParseKeyValueString(t *testing.T) {
	data := ParseKeyValueString(`coins=100 shards=5 notes="lost in trade" extra`)

	if data["coins"] != "100" {
		t.Fatalf("ParseKeyValueString() returned coins=%q", data["coins"])
	}
	if data["shards"] != "5" {
		t.Fatalf("ParseKeyValueString() returned shards=%q", data["shards"])
	}
	if data["notes"] != "lost in trade" {
		t.Fatalf("ParseKeyValueString() returned notes=%q", data["notes"])
	}
	if _, ok := data["extra"]; ok {
		t.Fatalf("ParseKeyValueString() kept a token without a value")
	}
}

func TestCleanCodeBlock(t *testing.T) {
	if CleanCodeBlock("`inline`") != "inline" {
		t.Fatalf("CleanCodeBlock() failed on inline code")
	}
	if CleanCodeBlock("```\nblock\n```") != "block" {
		t.Fatalf("CleanCodeBlock() failed on a code block")
	}
	if CleanCodeBlock("```go\nblock\n```") != "block" {
		t.Fatalf("CleanCodeBlock() kept the language hint")
	}
	if CleanCodeBlock("plain") != "plain" {
		t.Fatalf("CleanCodeBlock() changed plain text")
	}
}
