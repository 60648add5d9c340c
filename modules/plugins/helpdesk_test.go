package plugins

import (
	"strings"
	"testing"
)

func TestTicketID(t *testing.T) {
	if got := ticketID("bug", 4); got != "BUG 004" {
		t.Fatalf("ticketID(bug, 4) = %q", got)
	}
	if got := ticketID("refund", 123); got != "REFUND 123" {
		t.Fatalf("ticketID(refund, 123) = %q", got)
	}
	// numbers keep growing past the padding
	if got := ticketID("misc", 1001); got != "MISC 1001" {
		t.Fatalf("ticketID(misc, 1001) = %q", got)
	}
}

func TestHelpDeskCategories(t *testing.T) {
	seenIDs := make(map[string]bool)
	seenEmojis := make(map[string]bool)

	for _, category := range helpDeskCategories {
		if seenIDs[category.ID] {
			t.Fatalf("duplicate category id %q", category.ID)
		}
		seenIDs[category.ID] = true

		if seenEmojis[category.Emoji] {
			t.Fatalf("duplicate category emoji %q", category.Emoji)
		}
		seenEmojis[category.Emoji] = true

		if category.Guidance == "" {
			t.Fatalf("category %q has no guidance text", category.ID)
		}
	}
}

func TestCategoryByEmoji(t *testing.T) {
	category, ok := categoryByEmoji("🐛")
	if !ok || category.ID != "bug" {
		t.Fatalf("expected the bug category, got %v %v", category.ID, ok)
	}
	if !category.OpensTicket {
		t.Fatal("expected bug reports to open a ticket")
	}

	if _, ok := categoryByEmoji("🍕"); ok {
		t.Fatal("expected an unknown emoji to match nothing")
	}
}

func TestCategoryLabel(t *testing.T) {
	if got := categoryLabel("pun"); got != "Bans & Mutes" {
		t.Fatalf("categoryLabel(pun) = %q", got)
	}
	// unknown categories fall back to the raw id
	if got := categoryLabel("legacy"); got != "legacy" {
		t.Fatalf("categoryLabel(legacy) = %q", got)
	}
}

func TestDeskText(t *testing.T) {
	text := deskText()
	for _, category := range helpDeskCategories {
		if !strings.Contains(text, category.Label) {
			t.Fatalf("desk text misses category %q", category.Label)
		}
		if !strings.Contains(text, category.Emoji) {
			t.Fatalf("desk text misses emoji of category %q", category.ID)
		}
	}
}
