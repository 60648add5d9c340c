package plugins

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/globalsign/mgo/bson"
	"github.com/wardenbot/warden/helpers"
	"github.com/wardenbot/warden/models"
)

// Rolemenu lets members self-assign roles by reacting to a menu message.
// Each menu is one message; its document maps emoji keys to role ids.
type Rolemenu struct{}

func (r *Rolemenu) Commands() []string {
	return []string{
		"rolemenu",
	}
}

func (r *Rolemenu) Init(session *discordgo.Session) {
}

func (r *Rolemenu) Uninit(session *discordgo.Session) {
}

func (r *Rolemenu) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	helpers.RequireAdmin(msg, func() {
		channel, err := helpers.GetChannel(msg.ChannelID)
		helpers.Relax(err)

		args := strings.Fields(content)
		if len(args) < 1 {
			helpers.SendMessage(msg.ChannelID,
				":x: Usage: `rolemenu create <name>`, `add <menu> <emoji> <role>`, `remove <menu> <emoji>`, `view <menu>`, `delete <menu>`, `list`")
			return
		}

		switch args[0] {
		case "create", "make":
			if len(args) < 2 {
				helpers.SendMessage(msg.ChannelID, ":x: Usage: `rolemenu create <name>`")
				return
			}
			r.createMenu(msg, session, channel.GuildID, strings.Join(args[1:], " "))

		case "add":
			if len(args) < 4 {
				helpers.SendMessage(msg.ChannelID, ":x: Usage: `rolemenu add <menu message id> <emoji> <role>`")
				return
			}
			r.addOption(msg, session, channel.GuildID, args[1], args[2], args[3])

		case "remove":
			if len(args) < 3 {
				helpers.SendMessage(msg.ChannelID, ":x: Usage: `rolemenu remove <menu message id> <emoji>`")
				return
			}
			r.removeOption(msg, session, channel.GuildID, args[1], args[2])

		case "view":
			if len(args) < 2 {
				helpers.SendMessage(msg.ChannelID, ":x: Usage: `rolemenu view <menu message id>`")
				return
			}
			menu, ok := r.findMenu(msg, channel.GuildID, args[1])
			if !ok {
				return
			}
			helpers.SendEmbed(msg.ChannelID, r.menuEmbed(menu))

		case "delete":
			if len(args) < 2 {
				helpers.SendMessage(msg.ChannelID, ":x: Usage: `rolemenu delete <menu message id>`")
				return
			}
			r.deleteMenu(msg, session, channel.GuildID, args[1])

		case "list":
			r.listMenus(msg, channel.GuildID)

		default:
			helpers.SendMessage(msg.ChannelID, ":x: I do not know that rolemenu action.")
		}
	})
}

func (r *Rolemenu) createMenu(msg *discordgo.Message, session *discordgo.Session, guildID string, name string) {
	menu := models.RolemenuEntry{
		ChannelID: msg.ChannelID,
		GuildID:   guildID,
		Name:      name,
		Options:   make(map[string]string),
	}

	message, err := helpers.SendEmbed(msg.ChannelID, r.menuEmbed(menu))
	helpers.Relax(err)

	menu.ID = message.ID
	err = helpers.MDbUpsert(models.RolemenuTable, bson.M{"_id": menu.ID}, menu)
	helpers.Relax(err)

	// the command message would sit above the fresh menu otherwise
	session.ChannelMessageDelete(msg.ChannelID, msg.ID)

	helpers.SendDirectMessage(msg.Author.ID,
		":white_check_mark: Created role menu **"+name+"**. Add options with `rolemenu add "+message.ID+" <emoji> <role>`.")
}

func (r *Rolemenu) addOption(msg *discordgo.Message, session *discordgo.Session, guildID string, menuID string, emojiArg string, roleArg string) {
	menu, ok := r.findMenu(msg, guildID, menuID)
	if !ok {
		return
	}

	roleID, ok := helpers.GetRoleIDFromMention(roleArg)
	if !ok {
		helpers.SendMessage(msg.ChannelID, ":x: Which role?")
		return
	}

	emojiKey := helpers.EmojiKey(emojiArg)
	menu.Options[emojiKey] = roleID

	err := helpers.MDbUpdateQuery(models.RolemenuTable,
		bson.M{"_id": menu.ID},
		bson.M{"$set": bson.M{"options." + emojiKey: roleID}},
	)
	helpers.Relax(err)

	helpers.EditEmbed(menu.ChannelID, menu.ID, r.menuEmbed(menu))
	err = session.MessageReactionAdd(menu.ChannelID, menu.ID, emojiKey)
	helpers.RelaxMessage(err, msg.ChannelID, msg.ID)

	helpers.SendMessage(msg.ChannelID, ":white_check_mark: Option added to **"+menu.Name+"**.")
}

func (r *Rolemenu) removeOption(msg *discordgo.Message, session *discordgo.Session, guildID string, menuID string, emojiArg string) {
	menu, ok := r.findMenu(msg, guildID, menuID)
	if !ok {
		return
	}

	emojiKey := helpers.EmojiKey(emojiArg)
	if _, ok := menu.Options[emojiKey]; !ok {
		helpers.SendMessage(msg.ChannelID, ":x: That menu has no option for that emoji.")
		return
	}
	delete(menu.Options, emojiKey)

	err := helpers.MDbUpdateQuery(models.RolemenuTable,
		bson.M{"_id": menu.ID},
		bson.M{"$unset": bson.M{"options." + emojiKey: ""}},
	)
	helpers.Relax(err)

	helpers.EditEmbed(menu.ChannelID, menu.ID, r.menuEmbed(menu))
	session.MessageReactionsRemoveEmoji(menu.ChannelID, menu.ID, emojiKey)

	helpers.SendMessage(msg.ChannelID, ":white_check_mark: Option removed from **"+menu.Name+"**.")
}

func (r *Rolemenu) deleteMenu(msg *discordgo.Message, session *discordgo.Session, guildID string, menuID string) {
	menu, ok := r.findMenu(msg, guildID, menuID)
	if !ok {
		return
	}

	err := helpers.MdbDeleteQuery(models.RolemenuTable, bson.M{"_id": menu.ID})
	helpers.Relax(err)

	session.ChannelMessageDelete(menu.ChannelID, menu.ID)

	helpers.SendMessage(msg.ChannelID, ":white_check_mark: Deleted role menu **"+menu.Name+"**.")
}

func (r *Rolemenu) listMenus(msg *discordgo.Message, guildID string) {
	var menus []models.RolemenuEntry
	err := helpers.MDbIter(helpers.MdbCollection(models.RolemenuTable).
		Find(bson.M{"guild_id": guildID}).Sort("name")).All(&menus)
	helpers.Relax(err)

	if len(menus) == 0 {
		helpers.SendMessage(msg.ChannelID, "There are no role menus on this server.")
		return
	}

	var embedFields []*discordgo.MessageEmbedField
	for _, menu := range menus {
		embedFields = append(embedFields, &discordgo.MessageEmbedField{
			Name:  menu.Name,
			Value: "in <#" + menu.ChannelID + ">, message `" + menu.ID + "`, " + strings.Join(r.optionLines(menu), "\n"),
		})
	}

	helpers.SendPagedMessage(msg, &discordgo.MessageEmbed{
		Title:  "Role menus",
		Fields: embedFields,
		Color:  0x0FADED,
	}, 10)
}

func (r *Rolemenu) findMenu(msg *discordgo.Message, guildID string, menuID string) (menu models.RolemenuEntry, ok bool) {
	err := helpers.MdbOne(
		helpers.MdbCollection(models.RolemenuTable).Find(bson.M{"_id": menuID, "guild_id": guildID}),
		&menu,
	)
	if helpers.IsMdbNotFound(err) {
		helpers.SendMessage(msg.ChannelID, ":x: I can not find that role menu.")
		return menu, false
	}
	helpers.Relax(err)
	if menu.Options == nil {
		menu.Options = make(map[string]string)
	}
	return menu, true
}

func (r *Rolemenu) menuEmbed(menu models.RolemenuEntry) *discordgo.MessageEmbed {
	description := "React to give yourself a role, remove your reaction to take it away."
	lines := r.optionLines(menu)
	if len(lines) > 0 {
		description += "\n\n" + strings.Join(lines, "\n")
	}

	return &discordgo.MessageEmbed{
		Title:       menu.Name,
		Description: description,
		Color:       0x0FADED,
	}
}

// optionLines renders one "emoji: role mention" line per option
func (r *Rolemenu) optionLines(menu models.RolemenuEntry) (lines []string) {
	for emojiKey, roleID := range menu.Options {
		emoji := emojiKey
		if strings.Contains(emojiKey, ":") {
			emoji = "<:" + emojiKey + ">"
		}
		lines = append(lines, emoji+" <@&"+roleID+">")
	}
	return lines
}

func (r *Rolemenu) OnReactionAdd(reaction *discordgo.MessageReactionAdd, session *discordgo.Session) {
	if reaction.UserID == session.State.User.ID {
		return
	}

	menu, roleID, ok := r.menuOption(reaction.MessageID, reaction.Emoji)
	if !ok {
		return
	}

	err := session.GuildMemberRoleAdd(menu.GuildID, reaction.UserID, roleID)
	if err != nil {
		return
	}

	helpers.SendDirectMessage(reaction.UserID,
		":white_check_mark: You now have the <@&"+roleID+"> role from the **"+menu.Name+"** menu.")
}

func (r *Rolemenu) OnReactionRemove(reaction *discordgo.MessageReactionRemove, session *discordgo.Session) {
	menu, roleID, ok := r.menuOption(reaction.MessageID, reaction.Emoji)
	if !ok {
		return
	}

	err := session.GuildMemberRoleRemove(menu.GuildID, reaction.UserID, roleID)
	if err != nil {
		return
	}

	helpers.SendDirectMessage(reaction.UserID,
		":white_check_mark: I removed your <@&"+roleID+"> role from the **"+menu.Name+"** menu.")
}

func (r *Rolemenu) menuOption(messageID string, emoji discordgo.Emoji) (menu models.RolemenuEntry, roleID string, ok bool) {
	err := helpers.MdbOne(
		helpers.MdbCollection(models.RolemenuTable).Find(bson.M{"_id": messageID}),
		&menu,
	)
	if err != nil {
		return menu, "", false
	}

	roleID, ok = menu.Options[helpers.ReactionEmojiKey(&emoji)]
	return menu, roleID, ok
}

func (r *Rolemenu) OnMessage(content string, msg *discordgo.Message, session *discordgo.Session) {
}

func (r *Rolemenu) OnMessageUpdate(message *discordgo.MessageUpdate, session *discordgo.Session) {
}

func (r *Rolemenu) OnMessageDelete(message *discordgo.MessageDelete, session *discordgo.Session) {
	// menus die with their message
	helpers.MdbDeleteQuery(models.RolemenuTable, bson.M{"_id": message.ID})
}

func (r *Rolemenu) OnGuildMemberAdd(member *discordgo.Member, session *discordgo.Session) {
}

func (r *Rolemenu) OnGuildMemberRemove(member *discordgo.Member, session *discordgo.Session) {
}

func (r *Rolemenu) OnGuildMemberUpdate(member *discordgo.GuildMemberUpdate, session *discordgo.Session) {
}

func (r *Rolemenu) OnGuildBanAdd(user *discordgo.GuildBanAdd, session *discordgo.Session) {
}

func (r *Rolemenu) OnGuildBanRemove(user *discordgo.GuildBanRemove, session *discordgo.Session) {
}
