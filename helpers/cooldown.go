package helpers

import (
	"time"

	"github.com/wardenbot/warden/cache"
)

// CooldownStart marks a cooldown key as used if it is free. Returns true if
// the action may run. Cooldowns live in redis so they survive restarts.
func CooldownStart(key string, cooldown time.Duration) (allowed bool) {
	set, err := cache.GetRedisClient().SetNX(key, time.Now().Unix(), cooldown).Result()
	if err != nil {
		cache.GetLogger().WithField("module", "cooldown").Error("redis error: ", err.Error())
		return true
	}

	return set
}

// CooldownRemaining returns how long a cooldown key still has to wait
func CooldownRemaining(key string) (remaining time.Duration) {
	remaining, err := cache.GetRedisClient().TTL(key).Result()
	if err != nil || remaining < 0 {
		return 0
	}
	return remaining
}

// CooldownReset clears a cooldown key
func CooldownReset(key string) {
	cache.GetRedisClient().Del(key)
}
