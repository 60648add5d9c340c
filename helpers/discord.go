package helpers

import (
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/wardenbot/warden/cache"
)

// IsBotAdmin checks if $id is a bot admin
func IsBotAdmin(id string) bool {
	for _, s := range GetConfig().BotAdminIDs {
		if s == id {
			return true
		}
	}

	return false
}

// IsAdmin returns true for the guild owner, bot admins, members with an admin
// role and members with MANAGE_SERVER
func IsAdmin(msg *discordgo.Message) bool {
	channel, e := GetChannel(msg.ChannelID)
	if e != nil {
		return false
	}

	guild, e := GetGuild(channel.GuildID)
	if e != nil {
		return false
	}

	if msg.Author.ID == guild.OwnerID || IsBotAdmin(msg.Author.ID) {
		return true
	}

	guildMember, e := GetGuildMember(guild.ID, msg.Author.ID)
	if e != nil {
		return false
	}

	if memberHasRoleNamed(guild, guildMember, GetConfig().AdminRoleNames) {
		return true
	}

	// MANAGE_SERVER counts as admin
	for _, role := range guild.Roles {
		for _, userRole := range guildMember.Roles {
			if userRole == role.ID && role.Permissions&discordgo.PermissionManageGuild == discordgo.PermissionManageGuild {
				return true
			}
		}
	}

	return false
}

// IsMod returns true for admins and members with a mod role
func IsMod(msg *discordgo.Message) bool {
	if IsAdmin(msg) {
		return true
	}

	return messageAuthorHasRoleNamed(msg, GetConfig().ModRoleNames)
}

// IsTrialMod returns true for mods and members with a trial mod role
func IsTrialMod(msg *discordgo.Message) bool {
	if IsMod(msg) {
		return true
	}

	return messageAuthorHasRoleNamed(msg, GetConfig().TrialModRoleNames)
}

func messageAuthorHasRoleNamed(msg *discordgo.Message, roleNames []string) bool {
	channel, e := GetChannel(msg.ChannelID)
	if e != nil {
		return false
	}

	guild, e := GetGuild(channel.GuildID)
	if e != nil {
		return false
	}

	guildMember, e := GetGuildMember(guild.ID, msg.Author.ID)
	if e != nil {
		return false
	}

	return memberHasRoleNamed(guild, guildMember, roleNames)
}

func memberHasRoleNamed(guild *discordgo.Guild, member *discordgo.Member, roleNames []string) bool {
	for _, role := range guild.Roles {
		nameMatches := false
		for _, roleName := range roleNames {
			if strings.EqualFold(role.Name, roleName) {
				nameMatches = true
				break
			}
		}
		if !nameMatches {
			continue
		}

		for _, userRole := range member.Roles {
			if userRole == role.ID {
				return true
			}
		}
	}

	return false
}

// RequireAdmin only calls $cb if the author is an admin
func RequireAdmin(msg *discordgo.Message, cb Callback) {
	if !IsAdmin(msg) {
		SendMessage(msg.ChannelID, "You are not allowed to use this command. :police_officer:")
		return
	}

	cb()
}

// RequireMod only calls $cb if the author is a mod or an admin
func RequireMod(msg *discordgo.Message, cb Callback) {
	if !IsMod(msg) {
		SendMessage(msg.ChannelID, "You are not allowed to use this command. :police_officer:")
		return
	}

	cb()
}

// RequireTrialMod only calls $cb if the author is at least a trial mod
func RequireTrialMod(msg *discordgo.Message, cb Callback) {
	if !IsTrialMod(msg) {
		SendMessage(msg.ChannelID, "You are not allowed to use this command. :police_officer:")
		return
	}

	cb()
}

// RequireBotAdmin only calls $cb if the author is a bot admin
func RequireBotAdmin(msg *discordgo.Message, cb Callback) {
	if !IsBotAdmin(msg.Author.ID) {
		SendMessage(msg.ChannelID, "You are not allowed to use this command. :police_officer:")
		return
	}

	cb()
}

// GetChannel reads a channel from the state, falls back to the API
func GetChannel(channelID string) (*discordgo.Channel, error) {
	channel, err := cache.GetSession().State.Channel(channelID)
	if err == nil {
		return channel, nil
	}

	return cache.GetSession().Channel(channelID)
}

// GetGuild reads a guild from the state, falls back to the API
func GetGuild(guildID string) (*discordgo.Guild, error) {
	guild, err := cache.GetSession().State.Guild(guildID)
	if err == nil {
		return guild, nil
	}

	return cache.GetSession().Guild(guildID)
}

// GetGuildMember reads a member from the state, falls back to the API
func GetGuildMember(guildID string, userID string) (*discordgo.Member, error) {
	member, err := cache.GetSession().State.Member(guildID, userID)
	if err == nil {
		return member, nil
	}

	return cache.GetSession().GuildMember(guildID, userID)
}

// GetRoleByName finds a role in a guild by name, case insensitive
func GetRoleByName(guild *discordgo.Guild, roleName string) *discordgo.Role {
	for _, role := range guild.Roles {
		if strings.EqualFold(role.Name, roleName) {
			return role
		}
	}
	return nil
}

// SendMessage sends a message to a channel, splits it if it is too long
func SendMessage(channelID string, content string) (messages []*discordgo.Message, err error) {
	pages := Pagify(content, "\n")
	for _, page := range pages {
		message, err := cache.GetSession().ChannelMessageSend(channelID, page)
		if err != nil {
			return messages, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

// SendEmbed sends an embed to a channel
func SendEmbed(channelID string, embed *discordgo.MessageEmbed) (message *discordgo.Message, err error) {
	return cache.GetSession().ChannelMessageSendEmbed(channelID, TruncateEmbed(embed))
}

// SendComplex sends a complex message to a channel
func SendComplex(channelID string, data *discordgo.MessageSend) (message *discordgo.Message, err error) {
	if data.Embed != nil {
		data.Embed = TruncateEmbed(data.Embed)
	}
	return cache.GetSession().ChannelMessageSendComplex(channelID, data)
}

// EditEmbed edits an embed message
func EditEmbed(channelID string, messageID string, embed *discordgo.MessageEmbed) (message *discordgo.Message, err error) {
	return cache.GetSession().ChannelMessageEditEmbed(channelID, messageID, TruncateEmbed(embed))
}

// SendDirectMessage sends a direct message to a user, returns an error if the
// DM channel could not be created
func SendDirectMessage(userID string, content string) (messages []*discordgo.Message, err error) {
	dmChannel, err := cache.GetSession().UserChannelCreate(userID)
	if err != nil {
		return nil, err
	}

	return SendMessage(dmChannel.ID, content)
}

// SendDirectEmbed sends an embed as a direct message to a user
func SendDirectEmbed(userID string, embed *discordgo.MessageEmbed) (message *discordgo.Message, err error) {
	dmChannel, err := cache.GetSession().UserChannelCreate(userID)
	if err != nil {
		return nil, err
	}

	return SendEmbed(dmChannel.ID, embed)
}

const confirmEmoji = "✅"
const abortEmoji = "❌"

// ConfirmEmbed asks the user to confirm an action via reactions, gives up
// after two minutes
func ConfirmEmbed(channelID string, author *discordgo.User, confirmMessageText string) bool {
	// send embed asking the user to confirm
	confirmMessage, err := SendEmbed(channelID, &discordgo.MessageEmbed{
		Title:       author.Username + ", please confirm:",
		Description: confirmMessageText,
	})
	if err != nil {
		return false
	}

	// delete embed after everything is done
	defer cache.GetSession().ChannelMessageDelete(confirmMessage.ChannelID, confirmMessage.ID)

	// add default reactions to embed
	cache.GetSession().MessageReactionAdd(confirmMessage.ChannelID, confirmMessage.ID, confirmEmoji)
	cache.GetSession().MessageReactionAdd(confirmMessage.ChannelID, confirmMessage.ID, abortEmoji)

	deadline := time.Now().Add(2 * time.Minute)

	// check every second if a reaction has been clicked
	for time.Now().Before(deadline) {
		confirms, _ := cache.GetSession().MessageReactions(confirmMessage.ChannelID, confirmMessage.ID, confirmEmoji, 100, "", "")
		for _, confirm := range confirms {
			if confirm.ID == author.ID {
				// user has confirmed the call
				return true
			}
		}
		aborts, _ := cache.GetSession().MessageReactions(confirmMessage.ChannelID, confirmMessage.ID, abortEmoji, 100, "", "")
		for _, abort := range aborts {
			if abort.ID == author.ID {
				// user has aborted the call
				return false
			}
		}

		time.Sleep(1 * time.Second)
	}

	return false
}
