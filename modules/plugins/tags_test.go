package plugins

import "testing"

func TestNormalizeTagName(t *testing.T) {
	if normalizeTagName("  Hello World  ") != "hello world" {
		t.Fatalf("normalizeTagName() returned %q", normalizeTagName("  Hello World  "))
	}
	if normalizeTagName("MiXeD") != "mixed" {
		t.Fatalf("normalizeTagName() kept upper case letters")
	}
}

func TestIsReservedTagName(t *testing.T) {
	for _, name := range []string{"create", "alias", "delete", "search", "list"} {
		if !isReservedTagName(name) {
			t.Fatalf("isReservedTagName(%q) = false, subcommand names must be reserved", name)
		}
	}

	if isReservedTagName("welcome") {
		t.Fatalf("isReservedTagName() rejected a normal tag name")
	}
}

func TestEscapeMarkdown(t *testing.T) {
	escaped := escapeMarkdown("*bold* _italic_ `code` ~strike~ |spoiler| >quote")
	expected := "\\*bold\\* \\_italic\\_ \\`code\\` \\~strike\\~ \\|spoiler\\| \\>quote"
	if escaped != expected {
		t.Fatalf("escapeMarkdown() returned %q", escaped)
	}

	if escapeMarkdown("plain text") != "plain text" {
		t.Fatalf("escapeMarkdown() changed plain text")
	}
}
