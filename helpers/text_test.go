package helpers

import (
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestPagify(t *testing.T) {
	pages := Pagify("short text", "\n")
	if len(pages) != 1 || pages[0] != "short text" {
		t.Fatalf("Pagify() split a text that fits into one message")
	}

	line := strings.Repeat("a", 900)
	pages = Pagify(line+"\n"+line+"\n"+line, "\n")
	if len(pages) != 2 {
		t.Fatalf("Pagify() returned %d pages, expected 2", len(pages))
	}
	for _, page := range pages {
		if len(page) > discordMessageLimit {
			t.Fatalf("Pagify() produced a page of %d characters", len(page))
		}
	}
	if strings.Count(strings.Join(pages, "\n"), "a") != 2700 {
		t.Fatalf("Pagify() lost characters while splitting")
	}

	oversized := strings.Repeat("b", discordMessageLimit*2+10)
	pages = Pagify(oversized, "\n")
	if len(pages) != 3 {
		t.Fatalf("Pagify() returned %d pages for an oversized part, expected 3", len(pages))
	}
	for _, page := range pages {
		if len(page) > discordMessageLimit {
			t.Fatalf("Pagify() produced a page of %d characters", len(page))
		}
	}
}

func TestTruncateText(t *testing.T) {
	if TruncateText("hello", 10) != "hello" {
		t.Fatalf("TruncateText() changed a text that fits")
	}

	result := TruncateText("hello world", 5)
	if result != "hell…" {
		t.Fatalf("TruncateText() returned %q", result)
	}

	if len([]rune(TruncateText(strings.Repeat("ä", 300), 256))) != 256 {
		t.Fatalf("TruncateText() got the rune count wrong on multi-byte text")
	}
}

func TestTruncateEmbed(t *testing.T) {
	if TruncateEmbed(nil) != nil {
		t.Fatalf("TruncateEmbed(nil) did not return nil")
	}

	embed := &discordgo.MessageEmbed{
		Title:       strings.Repeat("t", 300),
		Description: strings.Repeat("d", 1000),
		Footer:      &discordgo.MessageEmbedFooter{Text: strings.Repeat("f", 3000)},
	}
	for i := 0; i < 30; i++ {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  strings.Repeat("n", 300),
			Value: "",
		})
	}

	embed = TruncateEmbed(embed)

	if len([]rune(embed.Title)) != 256 {
		t.Fatalf("TruncateEmbed() left a title of %d runes", len([]rune(embed.Title)))
	}
	if len([]rune(embed.Description)) != 1000 {
		t.Fatalf("TruncateEmbed() changed a description that fits")
	}
	if len([]rune(embed.Footer.Text)) != 2048 {
		t.Fatalf("TruncateEmbed() left a footer of %d runes", len([]rune(embed.Footer.Text)))
	}
	if len(embed.Fields) > 25 {
		t.Fatalf("TruncateEmbed() left %d fields", len(embed.Fields))
	}
	for _, field := range embed.Fields {
		if field.Value == "" {
			t.Fatalf("TruncateEmbed() left an empty field value")
		}
	}
	if embedSize(embed) > 6000 {
		t.Fatalf("TruncateEmbed() left a total size of %d", embedSize(embed))
	}
}
