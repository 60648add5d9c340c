package plugins

import (
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	rediscache "github.com/go-redis/cache"
	"github.com/globalsign/mgo/bson"
	"github.com/wardenbot/warden/cache"
	"github.com/wardenbot/warden/helpers"
	"github.com/wardenbot/warden/models"
)

// Automod screens every message for banned words, foreign invites, mass
// mentions and spam. Violations run through the weekly punishment ladder:
// first offence warns, repeat offences mute for increasing durations, the
// fifth bans.
type Automod struct {
	spamWindows     map[string][]time.Time
	spamWindowsLock sync.Mutex
}

const (
	automodWordsCacheTTL = 1 * time.Hour

	spamWindowMessages = 15
	spamWindowDuration = 17 * time.Second

	massMentionThreshold = 10
)

const (
	automodBucketWords    = "banned-words"
	automodBucketInvites  = "invites"
	automodBucketMentions = "mass-mentions"
	automodBucketSpam     = "spam"
)

var inviteRegex = regexp.MustCompile(`(?i)(discord\.gg|discord(?:app)?\.com/invite)/[a-z0-9-]+`)

func (a *Automod) Commands() []string {
	return []string{
		"automod",
	}
}

func (a *Automod) Init(session *discordgo.Session) {
	a.spamWindows = make(map[string][]time.Time)
}

func (a *Automod) Uninit(session *discordgo.Session) {
}

func (a *Automod) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	helpers.RequireAdmin(msg, func() {
		args := strings.Fields(content)
		if len(args) < 1 || args[0] != "words" {
			helpers.SendMessage(msg.ChannelID, ":x: Usage: `automod words [add/remove <word>]`")
			return
		}

		channel, err := helpers.GetChannel(msg.ChannelID)
		helpers.Relax(err)

		guild := getGuildEntry(channel.GuildID)

		if len(args) < 2 {
			if len(guild.BannedWords) == 0 {
				helpers.SendMessage(msg.ChannelID, "No banned words configured.")
				return
			}
			helpers.SendMessage(msg.ChannelID,
				"Banned words: ||"+strings.Join(guild.BannedWords, ", ")+"||")
			return
		}

		if len(args) < 3 {
			helpers.SendMessage(msg.ChannelID, ":x: Which word?")
			return
		}
		word := strings.ToLower(strings.Join(args[2:], " "))

		switch args[1] {
		case "add":
			for _, existing := range guild.BannedWords {
				if existing == word {
					helpers.SendMessage(msg.ChannelID, ":x: That word is already banned.")
					return
				}
			}
			guild.BannedWords = append(guild.BannedWords, word)
			saveGuildEntry(guild)
			a.invalidateWordCache(channel.GuildID)
			helpers.SendMessage(msg.ChannelID, ":white_check_mark: Word added.")

		case "remove":
			kept := make([]string, 0, len(guild.BannedWords))
			for _, existing := range guild.BannedWords {
				if existing != word {
					kept = append(kept, existing)
				}
			}
			if len(kept) == len(guild.BannedWords) {
				helpers.SendMessage(msg.ChannelID, ":x: That word is not banned.")
				return
			}
			guild.BannedWords = kept
			saveGuildEntry(guild)
			a.invalidateWordCache(channel.GuildID)
			helpers.SendMessage(msg.ChannelID, ":white_check_mark: Word removed.")
		}
	})
}

func (a *Automod) OnMessage(content string, msg *discordgo.Message, session *discordgo.Session) {
	if msg.Author == nil || msg.Author.Bot {
		return
	}

	channel, err := helpers.GetChannel(msg.ChannelID)
	if err != nil || channel.GuildID == "" {
		return
	}

	// members who can moderate the channel are exempt
	permissions, err := session.UserChannelPermissions(msg.Author.ID, msg.ChannelID)
	if err == nil && permissions&discordgo.PermissionManageMessages == discordgo.PermissionManageMessages {
		return
	}

	lowered := strings.ToLower(content)

	if word := a.matchBannedWord(channel.GuildID, lowered); word != "" {
		session.ChannelMessageDelete(msg.ChannelID, msg.ID)
		a.punish(session, channel.GuildID, msg, automodBucketWords, "Banned word: "+word)
		return
	}

	if inviteRegex.MatchString(lowered) {
		session.ChannelMessageDelete(msg.ChannelID, msg.ID)
		a.punish(session, channel.GuildID, msg, automodBucketInvites, "Posting server invites")
		return
	}

	if len(msg.Mentions) >= massMentionThreshold {
		session.ChannelMessageDelete(msg.ChannelID, msg.ID)
		a.punish(session, channel.GuildID, msg, automodBucketMentions, "Mass mentions")
		return
	}

	if a.recordSpamWindow(channel.GuildID, msg.Author.ID) {
		a.purgeRecent(session, msg)
		a.punish(session, channel.GuildID, msg, automodBucketSpam, "Spamming")
		return
	}
}

// matchBannedWord returns the banned word contained in the message, the word
// list is cached in redis for an hour
func (a *Automod) matchBannedWord(guildID string, lowered string) string {
	var words []string

	codec := cache.GetRedisCacheCodec()
	key := "automod:words:" + guildID
	if err := codec.Get(key, &words); err != nil {
		words = getGuildEntry(guildID).BannedWords
		codec.Set(&rediscache.Item{
			Key:        key,
			Object:     words,
			Expiration: automodWordsCacheTTL,
		})
	}

	for _, word := range words {
		if word != "" && strings.Contains(lowered, word) {
			return word
		}
	}
	return ""
}

func (a *Automod) invalidateWordCache(guildID string) {
	cache.GetRedisCacheCodec().Delete("automod:words:" + guildID)
}

// recordSpamWindow returns true when the author crossed the sliding window
// limit with this message
func (a *Automod) recordSpamWindow(guildID string, userID string) bool {
	a.spamWindowsLock.Lock()
	defer a.spamWindowsLock.Unlock()

	key := guildID + ":" + userID
	now := time.Now()
	cutoff := now.Add(-spamWindowDuration)

	window := a.spamWindows[key]
	kept := window[:0]
	for _, stamp := range window {
		if stamp.After(cutoff) {
			kept = append(kept, stamp)
		}
	}
	kept = append(kept, now)
	a.spamWindows[key] = kept

	if len(kept) >= spamWindowMessages {
		// start a fresh window so the next message doesn't punish again
		a.spamWindows[key] = nil
		return true
	}
	return false
}

func (a *Automod) purgeRecent(session *discordgo.Session, msg *discordgo.Message) {
	messages, err := session.ChannelMessages(msg.ChannelID, 50, "", "", "")
	if err != nil {
		return
	}

	deleteIDs := make([]string, 0, spamWindowMessages)
	for _, candidate := range messages {
		if candidate.Author != nil && candidate.Author.ID == msg.Author.ID {
			deleteIDs = append(deleteIDs, candidate.ID)
		}
		if len(deleteIDs) >= spamWindowMessages {
			break
		}
	}
	if len(deleteIDs) > 0 {
		session.ChannelMessagesBulkDelete(msg.ChannelID, deleteIDs)
	}
}

// punish escalates along the weekly ladder based on how often the member
// tripped automod in the last seven days
func (a *Automod) punish(session *discordgo.Session, guildID string, msg *discordgo.Message, bucket string, reason string) {
	defer helpers.Recover()

	if moderationPlugin == nil {
		return
	}

	weekAgo := time.Now().Add(-7 * 24 * time.Hour)
	priorOffences, err := helpers.MdbCount(models.ActionTable, offenceQuery(msg.Author.ID, bucket, weekAgo))
	if err != nil {
		priorOffences = 0
	}

	request := actionRequest{
		GuildID:   guildID,
		TargetID:  msg.Author.ID,
		IssuerID:  session.State.User.ID,
		Reason:    reason,
		ChannelID: msg.ChannelID,
		MessageID: msg.ID,
		Bucket:    bucket,
	}

	// the offence being punished right now counts towards the ladder too
	request.Type, request.Duration = ladderPunishment(priorOffences + 1)

	moderationPlugin.performAction(session, request)
}

// offenceQuery selects prior punishments of the member in the same bucket,
// escalation never crosses buckets
func offenceQuery(userID string, bucket string, since time.Time) bson.M {
	return bson.M{
		"target_id":      userID,
		"automod_bucket": bucket,
		"created_at":     bson.M{"$gt": since},
	}
}

// ladderPunishment escalates by the number of same-bucket offences in the
// past week, including the one being punished
func ladderPunishment(offences int) (models.ActionType, time.Duration) {
	switch {
	case offences >= 5:
		return models.ActionBan, 0
	case offences >= 3:
		return models.ActionMute, 3 * 24 * time.Hour
	case offences >= 2:
		return models.ActionMute, 2 * time.Hour
	default:
		return models.ActionWarn, 0
	}
}

func (a *Automod) OnMessageUpdate(message *discordgo.MessageUpdate, session *discordgo.Session) {
	// edited messages get screened again
	if message.Message != nil && message.Author != nil {
		a.OnMessage(message.Content, message.Message, session)
	}
}

func (a *Automod) OnMessageDelete(message *discordgo.MessageDelete, session *discordgo.Session) {
}

func (a *Automod) OnGuildMemberAdd(member *discordgo.Member, session *discordgo.Session) {
}

func (a *Automod) OnGuildMemberRemove(member *discordgo.Member, session *discordgo.Session) {
}

func (a *Automod) OnGuildMemberUpdate(member *discordgo.GuildMemberUpdate, session *discordgo.Session) {
}

func (a *Automod) OnReactionAdd(reaction *discordgo.MessageReactionAdd, session *discordgo.Session) {
}

func (a *Automod) OnReactionRemove(reaction *discordgo.MessageReactionRemove, session *discordgo.Session) {
}

func (a *Automod) OnGuildBanAdd(user *discordgo.GuildBanAdd, session *discordgo.Session) {
}

func (a *Automod) OnGuildBanRemove(user *discordgo.GuildBanRemove, session *discordgo.Session) {
}
