package cache

import (
	"sync"

	"github.com/wardenbot/warden/services/outline"
)

var (
	outlineClient *outline.Client
	outlineMutex  sync.RWMutex
)

func SetOutlineClient(c *outline.Client) {
	outlineMutex.Lock()
	outlineClient = c
	outlineMutex.Unlock()
}

// GetOutlineClient returns the knowledge base client, or nil if the feature
// is not configured.
func GetOutlineClient() *outline.Client {
	outlineMutex.RLock()
	defer outlineMutex.RUnlock()

	return outlineClient
}
