package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/raven-go"
	"github.com/wardenbot/warden/cache"
	"github.com/wardenbot/warden/helpers"
	"github.com/wardenbot/warden/metrics"
	"github.com/wardenbot/warden/modules"
)

// BotOnReady gets called after the gateway connected
func BotOnReady(session *discordgo.Session, event *discordgo.Ready) {
	log := cache.GetLogger()

	log.WithField("module", "bot").Info("Connected to discord!")
	log.WithField("module", "bot").Info("Invite link: " + fmt.Sprintf(
		"https://discord.com/oauth2/authorize?client_id=%s&scope=bot&permissions=8",
		session.State.User.ID,
	))

	// Cache the session
	cache.SetSession(session)

	// Load and init all modules
	modules.Init(session)

	// Run async game-changer
	go changeGameInterval(session)

	// request guild members from the gateway
	go func() {
		defer helpers.Recover()

		time.Sleep(30 * time.Second)

		for _, guild := range session.State.Guilds {
			err := session.RequestGuildMembers(guild.ID, "", 0, "", false)
			if err != nil {
				log.WithField("module", "bot").Error(fmt.Sprintf("Failed to request members for guild %s #%s: %s",
					guild.Name, guild.ID, err.Error()))
			}
		}
	}()
}

func BotOnMemberListChunk(session *discordgo.Session, members *discordgo.GuildMembersChunk) {
	cache.GetLogger().WithField("module", "bot").Debug(
		fmt.Sprintf("received guild member chunk for guild: %s (%d members)",
			members.GuildID, len(members.Members)))
	var err error
	for _, member := range members.Members {
		err = session.State.MemberAdd(member)
		if err != nil {
			raven.CaptureError(fmt.Errorf("%#v", err), map[string]string{})
		}
	}
}

func BotOnGuildMemberAdd(session *discordgo.Session, member *discordgo.GuildMemberAdd) {
	modules.CallExtendedPluginOnGuildMemberAdd(
		member.Member,
	)
}

func BotOnGuildMemberRemove(session *discordgo.Session, member *discordgo.GuildMemberRemove) {
	modules.CallExtendedPluginOnGuildMemberRemove(
		member.Member,
	)
}

func BotOnGuildMemberUpdate(session *discordgo.Session, member *discordgo.GuildMemberUpdate) {
	modules.CallExtendedPluginOnGuildMemberUpdate(
		member,
	)
}

func BotOnGuildBanAdd(session *discordgo.Session, user *discordgo.GuildBanAdd) {
	modules.CallExtendedPluginOnGuildBanAdd(
		user,
	)
}

func BotOnGuildBanRemove(session *discordgo.Session, user *discordgo.GuildBanRemove) {
	modules.CallExtendedPluginOnGuildBanRemove(
		user,
	)
}

func BotOnMessageUpdate(session *discordgo.Session, message *discordgo.MessageUpdate) {
	if message.Author != nil && message.Author.Bot {
		return
	}

	modules.CallExtendedPluginOnMessageUpdate(message)
}

func BotOnMessageDelete(session *discordgo.Session, message *discordgo.MessageDelete) {
	modules.CallExtendedPluginOnMessageDelete(message)
}

// BotOnMessageCreate gets called after a new message was sent
// This will be called after *every* message on *every* server so it should die as soon as possible
// or spawn costly work inside of coroutines.
func BotOnMessageCreate(session *discordgo.Session, message *discordgo.MessageCreate) {
	// Ignore other bots and @everyone/@here
	if message.Author == nil || message.Author.Bot || message.MentionEveryone {
		return
	}

	// Get the channel
	// Ignore the event if we cannot resolve the channel
	channel, err := helpers.GetChannel(message.ChannelID)
	if err != nil {
		go raven.CaptureError(err, map[string]string{})
		return
	}

	// DMs carry no commands
	if channel.Type == discordgo.ChannelTypeDM {
		return
	}

	modules.CallExtendedPlugin(
		message.Content,
		message.Message,
	)

	prefix := helpers.GetPrefix()

	// Asking the bot directly answers with the prefix
	if strings.HasPrefix(message.Content, "<@") && len(message.Mentions) > 0 && message.Mentions[0].ID == session.State.User.ID {
		session.ChannelMessageSend(message.ChannelID,
			"My prefix here is `"+prefix+"`, try `"+prefix+"help`.")
		return
	}

	// Check if the message is prefixed for us
	// If not exit
	if !strings.HasPrefix(message.Content, prefix) {
		return
	}

	// Split the message into parts
	parts := strings.Fields(message.Content)

	// Save a sanitized version of the command (no prefix)
	cmd := strings.ToLower(strings.Replace(parts[0], prefix, "", 1))
	if cmd == "" {
		return
	}

	// Check if the user calls for help
	if cmd == "h" || cmd == "help" {
		metrics.CommandsExecuted.Add(1)
		sendHelp(message)
		return
	}

	// Separate arguments from the command
	content := strings.TrimSpace(strings.Replace(message.Content, prefix+parts[0][len(prefix):], "", 1))

	// Log commands
	cache.GetLogger().WithField("module", "bot").Debug(fmt.Sprintf("%s (#%s): %s",
		message.Author.Username, message.Author.ID, message.Content))

	// Check if a module matches said command
	modules.CallBotPlugin(cmd, content, message.Message)
}

// BotOnReactionAdd gets called after a reaction is added
// This will be called after *every* reaction added on *every* server so it
// should die as soon as possible or spawn costly work inside of coroutines.
func BotOnReactionAdd(session *discordgo.Session, reaction *discordgo.MessageReactionAdd) {
	if pagedMessage := helpers.GetPagedMessage(reaction.MessageID); pagedMessage != nil {
		if reaction.UserID != session.State.User.ID {
			pagedMessage.UpdateMessagePage(reaction)
		}
		return
	}

	modules.CallExtendedPluginOnReactionAdd(reaction)
}

func BotOnReactionRemove(session *discordgo.Session, reaction *discordgo.MessageReactionRemove) {
	modules.CallExtendedPluginOnReactionRemove(reaction)
}

func sendHelp(message *discordgo.MessageCreate) {
	commands := make([]string, 0)
	for _, plugin := range modules.PluginList {
		commands = append(commands, plugin.Commands()...)
	}
	for _, plugin := range modules.PluginExtendedList {
		commands = append(commands, plugin.Commands()...)
	}
	sort.Strings(commands)

	prefix := helpers.GetPrefix()
	helpers.SendMessage(message.ChannelID,
		"I react to the following commands with the prefix `"+prefix+"`:\n```"+strings.Join(commands, ", ")+"```")
}

// Changes the game status every hour after called
func changeGameInterval(session *discordgo.Session) {
	defer helpers.Recover()

	for {
		users := make(map[string]string)
		guilds := session.State.Guilds

		for _, guild := range guilds {
			for _, u := range guild.Members {
				users[u.User.ID] = u.User.Username
			}
		}

		err := session.UpdateGameStatus(0, fmt.Sprintf("over %d users on %d servers", len(users), len(guilds)))
		if err != nil {
			raven.CaptureError(err, map[string]string{})
		}

		time.Sleep(1 * time.Hour)
	}
}
