package plugins

import (
	"io/ioutil"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wardenbot/warden/cache"
	"github.com/wardenbot/warden/models"
)

func TestExpireActionReportsFailedReversal(t *testing.T) {
	logger := logrus.New()
	logger.Out = ioutil.Discard
	cache.SetLogger(logger)

	expires := time.Now().Add(-time.Minute)
	action := models.ActionEntry{
		ID:        1,
		TargetID:  "user",
		Type:      models.ActionMute,
		ChannelID: "channel",
		ExpiresAt: &expires,
	}

	// no session is wired up, the reversal panics and must be reported as
	// unresolved so the expiry loop backs off instead of retrying immediately
	m := &Moderation{}
	if m.expireAction(nil, action) {
		t.Fatal("expected a failing reversal to leave the action unresolved")
	}
}
