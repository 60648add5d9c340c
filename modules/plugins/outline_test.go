package plugins

import (
	"strings"
	"testing"

	"github.com/wardenbot/warden/helpers"
)

func TestTranslateOutlineMarkdown(t *testing.T) {
	input := strings.Join([]string{
		"# Welcome",
		"",
		"Read ==this part== carefully.",
		"",
		"## Details",
		"",
		"See [the rules](/doc/rules-abc123) for more.",
		"\\",
		"Done.",
	}, "\n")

	got := translateOutlineMarkdown(input, "https://kb.example.com")

	if !strings.Contains(got, "**Welcome**") {
		t.Fatalf("translateOutlineMarkdown() did not convert the heading: %q", got)
	}
	if !strings.Contains(got, "**Details**") {
		t.Fatalf("translateOutlineMarkdown() did not convert the subheading: %q", got)
	}
	if !strings.Contains(got, "**this part**") {
		t.Fatalf("translateOutlineMarkdown() did not convert the highlight: %q", got)
	}
	if !strings.Contains(got, "](https://kb.example.com/doc/rules-abc123)") {
		t.Fatalf("translateOutlineMarkdown() did not absolutize the link: %q", got)
	}
	if strings.Contains(got, "\\\n") {
		t.Fatalf("translateOutlineMarkdown() kept a comment line: %q", got)
	}
	if strings.Contains(got, "#") {
		t.Fatalf("translateOutlineMarkdown() left a raw heading marker: %q", got)
	}
}

func TestMatchCollection(t *testing.T) {
	helpers.SetConfig(helpers.BotConfig{
		OutlineCollections: []string{
			"Guides=11111111-1111-1111-1111-111111111111",
			"Staff Handbook=22222222-2222-2222-2222-222222222222",
		},
		OutlineStaffCollections: []string{"Staff Handbook"},
	})
	defer helpers.SetConfig(helpers.BotConfig{})

	name, gated := matchCollection("guides")
	if name != "Guides" || gated {
		t.Fatalf("matchCollection(guides) = %q, %v", name, gated)
	}

	name, gated = matchCollection("staff handbok")
	if name != "Staff Handbook" || !gated {
		t.Fatalf("matchCollection() fuzzy match returned %q, %v", name, gated)
	}

	if name, _ = matchCollection("zzzzzz"); name != "" {
		t.Fatalf("matchCollection() matched %q for junk input", name)
	}
}

func TestCollectionIDFor(t *testing.T) {
	helpers.SetConfig(helpers.BotConfig{
		OutlineCollections: []string{"Guides=11111111-1111-1111-1111-111111111111"},
	})
	defer helpers.SetConfig(helpers.BotConfig{})

	if collectionIDFor("guides") != "11111111-1111-1111-1111-111111111111" {
		t.Fatalf("collectionIDFor() = %q", collectionIDFor("guides"))
	}
	if collectionIDFor("nope") != "" {
		t.Fatalf("collectionIDFor() returned an id for an unknown collection")
	}
}
