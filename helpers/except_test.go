package helpers

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

func TestIsDiscordCode(t *testing.T) {
	missingPermissions := &discordgo.RESTError{
		Message: &discordgo.APIErrorMessage{Code: discordgo.ErrCodeMissingPermissions},
	}

	if !IsDiscordCode(missingPermissions, discordgo.ErrCodeMissingPermissions) {
		t.Fatal("expected a matching REST error code to be recognised")
	}
	if IsDiscordCode(missingPermissions, discordgo.ErrCodeUnknownChannel) {
		t.Fatal("expected a different REST error code to be rejected")
	}
	if IsDiscordCode(errors.New("some other error"), discordgo.ErrCodeMissingPermissions) {
		t.Fatal("expected a plain error to be rejected")
	}
	if IsDiscordCode(nil, discordgo.ErrCodeMissingPermissions) {
		t.Fatal("expected nil to be rejected")
	}
}

func TestSoftRelax(t *testing.T) {
	called := false

	SoftRelax(nil, func() { called = true })
	if called {
		t.Fatal("expected no callback without an error")
	}

	SoftRelax(errors.New("it broke"), func() { called = true })
	if !called {
		t.Fatal("expected the callback to run on an error")
	}
}
