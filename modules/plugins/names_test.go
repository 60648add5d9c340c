package plugins

import (
	"strings"
	"testing"
)

func TestNormalizeName(t *testing.T) {
	if normalizeName("Alice") != "Alice" {
		t.Fatalf("normalizeName() changed a plain name")
	}

	// fancy unicode folds to its plain form
	if normalizeName("𝓗𝓮𝓵𝓵𝓸") != "Hello" {
		t.Fatalf("normalizeName() returned %q for a fancy unicode name", normalizeName("𝓗𝓮𝓵𝓵𝓸"))
	}
	if normalizeName("ﬁne") != "fine" {
		t.Fatalf("normalizeName() did not fold the fi ligature")
	}

	// hoisting symbols in front get stripped
	if normalizeName("!!! Bob") != "Bob" {
		t.Fatalf("normalizeName() returned %q for a hoisted name", normalizeName("!!! Bob"))
	}
	if normalizeName("★彡 Carol") != "彡 Carol" {
		t.Fatalf("normalizeName() returned %q", normalizeName("★彡 Carol"))
	}

	// URLs get stripped
	if normalizeName("Dave https://example.com/spam") != "Dave" {
		t.Fatalf("normalizeName() returned %q for a name with a URL", normalizeName("Dave https://example.com/spam"))
	}
	if normalizeName("discord.gg/abcdef Eve") != "Eve" {
		t.Fatalf("normalizeName() returned %q for a name with an invite", normalizeName("discord.gg/abcdef Eve"))
	}

	// names that normalize to nothing become the fallback
	if normalizeName("!!!***") != nameFallback {
		t.Fatalf("normalizeName() returned %q for pure symbols", normalizeName("!!!***"))
	}
	if normalizeName("") != nameFallback {
		t.Fatalf("normalizeName() returned %q for an empty name", normalizeName(""))
	}

	// long names get capped
	long := normalizeName(strings.Repeat("x", 50))
	if len([]rune(long)) != nameMaxLength {
		t.Fatalf("normalizeName() left a name of %d runes", len([]rune(long)))
	}
}
