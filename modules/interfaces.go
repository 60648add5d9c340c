package modules

import "github.com/bwmarrin/discordgo"

type BaseModule interface{}

// Plugin is a module that only reacts to commands
type Plugin interface {
	BaseModule

	Commands() []string

	Init(session *discordgo.Session)

	Action(
		command string,
		content string,
		msg *discordgo.Message,
		session *discordgo.Session,
	)
}

// ExtendedPlugin additionally receives gateway events. Plugins that need
// events outside this set register their own handlers in Init
type ExtendedPlugin interface {
	BaseModule

	Commands() []string

	Init(session *discordgo.Session)

	Uninit(session *discordgo.Session)

	Action(
		command string,
		content string,
		msg *discordgo.Message,
		session *discordgo.Session,
	)

	OnMessage(
		content string,
		msg *discordgo.Message,
		session *discordgo.Session,
	)

	OnMessageUpdate(
		message *discordgo.MessageUpdate,
		session *discordgo.Session,
	)

	OnMessageDelete(
		message *discordgo.MessageDelete,
		session *discordgo.Session,
	)

	OnGuildMemberAdd(
		member *discordgo.Member,
		session *discordgo.Session,
	)

	OnGuildMemberRemove(
		member *discordgo.Member,
		session *discordgo.Session,
	)

	OnGuildMemberUpdate(
		member *discordgo.GuildMemberUpdate,
		session *discordgo.Session,
	)

	OnReactionAdd(
		reaction *discordgo.MessageReactionAdd,
		session *discordgo.Session,
	)

	OnReactionRemove(
		reaction *discordgo.MessageReactionRemove,
		session *discordgo.Session,
	)

	OnGuildBanAdd(
		user *discordgo.GuildBanAdd,
		session *discordgo.Session,
	)

	OnGuildBanRemove(
		user *discordgo.GuildBanRemove,
		session *discordgo.Session,
	)
}
