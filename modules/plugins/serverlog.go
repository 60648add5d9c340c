package plugins

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/globalsign/mgo/bson"
	"github.com/wardenbot/warden/cache"
	"github.com/wardenbot/warden/helpers"
	"github.com/wardenbot/warden/models"
)

// Serverlog mirrors guild, channel and member state into mongo and records
// every message with its edit history, feeding the external log panel.
// Restricted channels are skipped.
type Serverlog struct {
	restricted     map[string]bool
	restrictedLock sync.RWMutex
}

const serverlogSyncInterval = 20 * time.Minute

func (s *Serverlog) Commands() []string {
	return []string{
		"fullsync",
		"logs",
	}
}

func (s *Serverlog) Init(session *discordgo.Session) {
	s.restricted = make(map[string]bool)
	s.loadRestrictedChannels()

	// channel and guild updates are not part of the extended plugin event
	// set, they get their own handlers
	session.AddHandler(func(_ *discordgo.Session, channel *discordgo.ChannelCreate) {
		defer helpers.Recover()
		s.syncChannel(channel.Channel)
	})
	session.AddHandler(func(_ *discordgo.Session, channel *discordgo.ChannelUpdate) {
		defer helpers.Recover()
		s.syncChannel(channel.Channel)
	})
	session.AddHandler(func(_ *discordgo.Session, channel *discordgo.ChannelDelete) {
		defer helpers.Recover()
		helpers.MdbDeleteQuery(models.ChannelTable, bson.M{"_id": channel.ID})
	})
	session.AddHandler(func(_ *discordgo.Session, guild *discordgo.GuildUpdate) {
		defer helpers.Recover()
		s.syncGuild(guild.Guild)
	})

	go func() {
		defer helpers.Recover()

		for {
			time.Sleep(serverlogSyncInterval)
			s.syncAll(session)
		}
	}()

	cache.GetLogger().WithField("module", "serverlog").Info("Started server state sync loop")
}

func (s *Serverlog) Uninit(session *discordgo.Session) {
}

func (s *Serverlog) loadRestrictedChannels() {
	var restrictedChannels []models.ChannelEntry
	err := helpers.MDbIter(helpers.MdbCollection(models.ChannelTable).
		Find(bson.M{"restricted": true})).All(&restrictedChannels)
	if err != nil {
		cache.GetLogger().WithField("module", "serverlog").Error("restricted channel load failed: ", err.Error())
		return
	}

	s.restrictedLock.Lock()
	defer s.restrictedLock.Unlock()
	for _, channel := range restrictedChannels {
		s.restricted[channel.ID] = true
	}
}

func (s *Serverlog) isRestricted(channelID string) bool {
	s.restrictedLock.RLock()
	defer s.restrictedLock.RUnlock()
	return s.restricted[channelID]
}

func (s *Serverlog) setRestricted(channelID string, restricted bool) {
	s.restrictedLock.Lock()
	s.restricted[channelID] = restricted
	s.restrictedLock.Unlock()

	helpers.MDbUpsert(models.ChannelTable,
		bson.M{"_id": channelID},
		bson.M{"$set": bson.M{"restricted": restricted}},
	)
}

func (s *Serverlog) syncAll(session *discordgo.Session) {
	for _, guild := range session.State.Guilds {
		s.syncGuild(guild)
		for _, channel := range guild.Channels {
			s.syncChannel(channel)
		}
		for _, member := range guild.Members {
			s.syncMember(member)
		}
	}

	cache.GetLogger().WithField("module", "serverlog").Info(
		"Full state sync finished for ", len(session.State.Guilds), " guilds")
}

func (s *Serverlog) syncGuild(guild *discordgo.Guild) {
	roles := make([]models.GuildRole, 0, len(guild.Roles))
	for _, role := range guild.Roles {
		roles = append(roles, models.GuildRole{
			ID:       role.ID,
			Name:     role.Name,
			Color:    role.Color,
			Position: role.Position,
		})
	}

	// $set keeps the per-guild settings stored in the same document
	helpers.MDbUpsert(models.GuildTable,
		bson.M{"_id": guild.ID},
		bson.M{"$set": bson.M{
			"name":  guild.Name,
			"icon":  guild.Icon,
			"roles": roles,
		}},
	)
}

func (s *Serverlog) syncChannel(channel *discordgo.Channel) {
	helpers.MDbUpsert(models.ChannelTable,
		bson.M{"_id": channel.ID},
		bson.M{"$set": bson.M{
			"guild_id":        channel.GuildID,
			"type":            channelTypeText(channel.Type),
			"name":            channel.Name,
			"position":        channel.Position,
			"category_id":     channel.ParentID,
			"last_message_id": channel.LastMessageID,
		}},
	)
}

func (s *Serverlog) syncMember(member *discordgo.Member) {
	if member.User == nil {
		return
	}

	helpers.MDbUpsert(models.MemberTable,
		bson.M{"_id": models.MemberID{UserID: member.User.ID, GuildID: member.GuildID}},
		bson.M{"$set": bson.M{
			"name":          member.User.Username,
			"discriminator": member.User.Discriminator,
			"nick":          member.Nick,
			"avatar":        member.User.Avatar,
			"roles":         member.Roles,
		}},
	)
}

func channelTypeText(channelType discordgo.ChannelType) string {
	switch channelType {
	case discordgo.ChannelTypeGuildText:
		return "text"
	case discordgo.ChannelTypeGuildVoice:
		return "voice"
	case discordgo.ChannelTypeGuildCategory:
		return "category"
	case discordgo.ChannelTypeGuildNews:
		return "news"
	case discordgo.ChannelTypeGuildPublicThread, discordgo.ChannelTypeGuildPrivateThread, discordgo.ChannelTypeGuildNewsThread:
		return "thread"
	}
	return "other"
}

func (s *Serverlog) OnMessage(content string, msg *discordgo.Message, session *discordgo.Session) {
	if msg.Author == nil || msg.GuildID == "" || s.isRestricted(msg.ChannelID) {
		return
	}

	attachments := make([]models.MessageAttachment, 0, len(msg.Attachments))
	for _, attachment := range msg.Attachments {
		attachments = append(attachments, models.MessageAttachment{
			ID:       attachment.ID,
			Filename: attachment.Filename,
		})
	}

	entry := models.MessageEntry{
		ID:        msg.ID,
		UserID:    msg.Author.ID,
		ChannelID: msg.ChannelID,
		GuildID:   msg.GuildID,
		History: map[string]string{
			strconv.FormatInt(msg.Timestamp.Unix(), 10): msg.Content,
		},
		Attachments: attachments,
	}

	err := helpers.MDbUpsert(models.MessageTable, bson.M{"_id": msg.ID}, entry)
	if err != nil {
		cache.GetLogger().WithField("module", "serverlog").Error("message record failed: ", err.Error())
	}
}

func (s *Serverlog) OnMessageUpdate(message *discordgo.MessageUpdate, session *discordgo.Session) {
	if message.GuildID == "" || message.Content == "" || s.isRestricted(message.ChannelID) {
		return
	}

	// keyed by edit time so the panel can show the revision history
	helpers.MDbUpdateQuery(models.MessageTable,
		bson.M{"_id": message.ID},
		bson.M{"$set": bson.M{
			"history." + strconv.FormatInt(time.Now().Unix(), 10): message.Content,
		}},
	)
}

func (s *Serverlog) OnMessageDelete(message *discordgo.MessageDelete, session *discordgo.Session) {
	if s.isRestricted(message.ChannelID) {
		return
	}

	helpers.MDbUpdateQuery(models.MessageTable,
		bson.M{"_id": message.ID},
		bson.M{"$set": bson.M{"deleted_at": time.Now()}},
	)
}

func (s *Serverlog) OnGuildMemberAdd(member *discordgo.Member, session *discordgo.Session) {
	s.syncMember(member)
}

func (s *Serverlog) OnGuildMemberUpdate(member *discordgo.GuildMemberUpdate, session *discordgo.Session) {
	s.syncMember(member.Member)
}

func (s *Serverlog) OnGuildMemberRemove(member *discordgo.Member, session *discordgo.Session) {
	// the last snapshot stays around for the log panel
}

func (s *Serverlog) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	channel, err := helpers.GetChannel(msg.ChannelID)
	helpers.Relax(err)

	switch command {
	case "fullsync":
		helpers.RequireAdmin(msg, func() {
			helpers.SendMessage(msg.ChannelID, "Syncing the server state, this can take a moment…")
			s.syncAll(session)
			helpers.SendMessage(msg.ChannelID, ":white_check_mark: Full sync finished.")
		})

	case "logs":
		helpers.RequireMod(msg, func() {
			s.logsCommand(msg, content, channel.GuildID)
		})
	}
}

func (s *Serverlog) logsCommand(msg *discordgo.Message, content string, guildID string) {
	args := strings.Fields(content)

	if len(args) >= 2 && (args[0] == "restrict" || args[0] == "unrestrict") {
		channelID, ok := helpers.GetChannelIDFromMention(args[1])
		if !ok {
			helpers.SendMessage(msg.ChannelID, ":x: Which channel?")
			return
		}

		restrict := args[0] == "restrict"
		s.setRestricted(channelID, restrict)

		if restrict {
			helpers.SendMessage(msg.ChannelID, ":white_check_mark: Messages in <#"+channelID+"> are no longer recorded.")
		} else {
			helpers.SendMessage(msg.ChannelID, ":white_check_mark: Messages in <#"+channelID+"> are recorded again.")
		}
		return
	}

	logsBaseURL := helpers.GetConfig().LogsBaseURL
	if logsBaseURL == "" {
		helpers.SendMessage(msg.ChannelID, ":x: There is no log panel set up.")
		return
	}

	helpers.SendMessage(msg.ChannelID,
		"The logs are at <"+strings.TrimRight(logsBaseURL, "/")+"/"+guildID+">")
}

func (s *Serverlog) OnReactionAdd(reaction *discordgo.MessageReactionAdd, session *discordgo.Session) {
}

func (s *Serverlog) OnReactionRemove(reaction *discordgo.MessageReactionRemove, session *discordgo.Session) {
}

func (s *Serverlog) OnGuildBanAdd(user *discordgo.GuildBanAdd, session *discordgo.Session) {
}

func (s *Serverlog) OnGuildBanRemove(user *discordgo.GuildBanRemove, session *discordgo.Session) {
}
