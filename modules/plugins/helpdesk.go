package plugins

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/globalsign/mgo/bson"
	"github.com/wardenbot/warden/helpers"
	"github.com/wardenbot/warden/models"
)

const (
	ticketCooldown        = 20 * time.Minute
	ticketArchiveDuration = 10080 // minutes, one week

	ticketClaimEmoji = "🏳️"
	ticketCloseEmoji = "🔒"

	helpDeskColor     = 0x5865F2
	ticketClaimColor  = 0x2ECC71
	ticketClosedColor = 0xE74C3C
)

type helpDeskCategory struct {
	ID          string
	Label       string
	Description string
	Emoji       string
	Guidance    string
	OpensTicket bool
}

// helpDeskCategories drive the desk message, one reaction per category.
// Categories without tickets only answer with their guidance text.
var helpDeskCategories = []helpDeskCategory{
	{
		ID:          "setup",
		Label:       "Setup Help",
		Description: "Help with configuring the bot, channels, roles and permissions.",
		Emoji:       "⚙️",
		Guidance: "Most setup questions are answered in the knowledge base, try `docs setup` first. " +
			"If you are still stuck, ask in the questions channel of the community server.",
	},
	{
		ID:          "gen",
		Label:       "General Questions",
		Description: "Questions about commands, trading, or how the bot works in general.",
		Emoji:       "ℹ️",
		Guidance: "General questions are handled in the questions channel of the community server. " +
			"The knowledge base (`docs`) covers the most common ones.",
	},
	{
		ID:          "bug",
		Label:       "Bug Reports",
		Description: "Report issues that look like bugs or unintended behavior.",
		Emoji:       "🐛",
		Guidance: "Before reporting a bug, check the outage and news channels to make sure the behavior " +
			"is not intended or already known. A ticket has been opened for your report, please describe " +
			"the bug there in detail.",
		OpensTicket: true,
	},
	{
		ID:          "rpt",
		Label:       "User Reports",
		Description: "Report members violating the community rules.",
		Emoji:       "🚫",
		Guidance: "Reports need evidence, please have screenshots or message links ready. " +
			"A ticket has been opened, share the details there, only staff can read it.",
		OpensTicket: true,
	},
	{
		ID:          "refund",
		Label:       "Refund Requests",
		Description: "Lost items or currency to an outage? Request a refund here.",
		Emoji:       "🕯️",
		Guidance: "The bot occasionally restarts, short interruptions usually resolve themselves within " +
			"a few minutes. If you still lost something, a ticket has been opened, describe what is missing there.",
		OpensTicket: true,
	},
	{
		ID:          "pun",
		Label:       "Bans & Mutes",
		Description: "Punishment lengths, reasons, and how to appeal.",
		Emoji:       "🔨",
		Guidance: "Appeals are handled in tickets only. Share your case number (`history` shows it) " +
			"in the ticket that has been opened for you.",
		OpensTicket: true,
	},
	{
		ID:          "misc",
		Label:       "Other Inquiries",
		Description: "For anything that does not fit the other categories.",
		Emoji:       "❓",
		Guidance: "A ticket has been opened for your inquiry. Please explain what you need help with, " +
			"an agent will get back to you.",
		OpensTicket: true,
	},
}

// Helpdesk is a ticket system. A pinned desk message offers one reaction per
// category, reacting opens a private thread under the tickets channel plus a
// status message staff can claim or close from a status channel.
type Helpdesk struct{}

func (h *Helpdesk) Commands() []string {
	return []string{
		"helpdesk",
		"ticket",
	}
}

func (h *Helpdesk) Init(session *discordgo.Session) {
}

func (h *Helpdesk) Uninit(session *discordgo.Session) {
}

func (h *Helpdesk) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	channel, err := helpers.GetChannel(msg.ChannelID)
	helpers.Relax(err)

	if command == "helpdesk" {
		helpers.RequireAdmin(msg, func() {
			h.postDesk(msg, session, channel.GuildID)
		})
		return
	}

	args := strings.Fields(content)
	if len(args) < 1 {
		helpers.SendMessage(msg.ChannelID,
			":x: Usage: `ticket close [id]`, `claim [id]`, `move <#channel>`, `status [id]`")
		return
	}

	switch args[0] {
	case "close":
		h.closeCommand(msg, session, args[1:])

	case "claim":
		helpers.RequireMod(msg, func() {
			h.claimCommand(msg, session, args[1:])
		})

	case "move":
		helpers.RequireMod(msg, func() {
			h.moveCommand(msg, session, args[1:])
		})

	case "status":
		helpers.RequireMod(msg, func() {
			ticket, ok := h.resolveTicket(msg, args[1:])
			if !ok {
				return
			}
			helpers.SendEmbed(msg.ChannelID, h.statusEmbed(ticket))
		})

	default:
		helpers.SendMessage(msg.ChannelID, ":x: I do not know that ticket action.")
	}
}

// postDesk sends the desk message and remembers its id on the guild document
func (h *Helpdesk) postDesk(msg *discordgo.Message, session *discordgo.Session, guildID string) {
	message, err := helpers.SendMessage(msg.ChannelID, deskText())
	helpers.Relax(err)
	if len(message) < 1 {
		return
	}

	for _, category := range helpDeskCategories {
		session.MessageReactionAdd(msg.ChannelID, message[0].ID, category.Emoji)
	}

	guild := getGuildEntry(guildID)
	guild.HelpDeskMessageID = message[0].ID
	saveGuildEntry(guild)

	// the command message would sit above the fresh desk otherwise
	session.ChannelMessageDelete(msg.ChannelID, msg.ID)
}

// deskText renders the desk message listing every category
func deskText() string {
	lines := []string{
		"**Welcome to the Help Desk!**",
		"React with the option matching the type of support you are looking for.",
	}
	for _, category := range helpDeskCategories {
		lines = append(lines, category.Emoji+"  **"+category.Label+"**\n"+category.Description)
	}
	return strings.Join(lines, "\n\n")
}

func (h *Helpdesk) closeCommand(msg *discordgo.Message, session *discordgo.Session, args []string) {
	ticket, ok := h.resolveTicket(msg, args)
	if !ok {
		return
	}

	if msg.Author.ID != ticket.UserID && !helpers.IsMod(msg) {
		helpers.SendMessage(msg.ChannelID, ":x: Only the ticket owner or staff can close a ticket.")
		return
	}

	if !h.closeTicket(session, ticket) {
		helpers.SendMessage(msg.ChannelID, ":x: The ticket **"+ticket.ID+"** is already closed.")
		return
	}
	if msg.ChannelID != ticket.ThreadID {
		helpers.SendMessage(msg.ChannelID, ":white_check_mark: Closed ticket **"+ticket.ID+"**.")
	}
}

func (h *Helpdesk) claimCommand(msg *discordgo.Message, session *discordgo.Session, args []string) {
	ticket, ok := h.resolveTicket(msg, args)
	if !ok {
		return
	}

	if !h.claimTicket(session, ticket, msg.Author.ID) {
		helpers.SendMessage(msg.ChannelID, ":x: The ticket **"+ticket.ID+"** is already closed.")
		return
	}
	if msg.ChannelID != ticket.ThreadID {
		helpers.SendMessage(msg.ChannelID, ":white_check_mark: You claimed ticket **"+ticket.ID+"**.")
	}
}

func (h *Helpdesk) moveCommand(msg *discordgo.Message, session *discordgo.Session, args []string) {
	if len(args) < 1 {
		helpers.SendMessage(msg.ChannelID, ":x: Usage: `ticket move <#channel>`")
		return
	}

	ticket, ok := h.resolveTicket(msg, nil)
	if !ok {
		return
	}

	targetID, ok := helpers.GetChannelIDFromMention(args[0])
	if !ok {
		helpers.SendMessage(msg.ChannelID, ":x: Which channel?")
		return
	}

	config := helpers.GetConfig()
	target, err := helpers.GetChannel(targetID)
	if err != nil || target.ParentID != config.TicketStatusCategoryID ||
		targetID == config.TicketStatusNewChannelID || targetID == config.TicketStatusClosedChannelID {
		helpers.SendMessage(msg.ChannelID, ":x: Tickets can not be moved to that channel.")
		return
	}

	if ticket.Closed() {
		helpers.SendMessage(msg.ChannelID, ":x: The ticket **"+ticket.ID+"** is already closed.")
		return
	}

	previousChannelID := ticket.StatusChannelID
	ticket.StatusChannelID = targetID
	h.syncStatusMessage(session, &ticket, previousChannelID)
	h.saveTicket(ticket)

	helpers.SendMessage(msg.ChannelID, ":white_check_mark: Moved ticket **"+ticket.ID+"** to <#"+targetID+">.")
}

// resolveTicket finds the ticket by the given id, falling back to the thread
// the command was used in
func (h *Helpdesk) resolveTicket(msg *discordgo.Message, args []string) (ticket models.TicketEntry, ok bool) {
	var err error
	if len(args) > 0 {
		err = helpers.MdbOne(
			helpers.MdbCollection(models.TicketTable).
				Find(bson.M{"_id": strings.ToUpper(strings.Join(args, " "))}),
			&ticket,
		)
	} else {
		err = helpers.MdbOne(
			helpers.MdbCollection(models.TicketTable).Find(bson.M{"thread_id": msg.ChannelID}),
			&ticket,
		)
	}
	if helpers.IsMdbNotFound(err) {
		helpers.SendMessage(msg.ChannelID, ":x: I can not find that ticket.")
		return ticket, false
	}
	helpers.Relax(err)

	return ticket, true
}

// openTicket creates the private thread, the ticket document and the status
// message. Opening is rate limited per member.
func (h *Helpdesk) openTicket(session *discordgo.Session, guildID string, userID string, category helpDeskCategory) {
	config := helpers.GetConfig()
	if config.TicketsChannelID == "" {
		return
	}

	if remaining := helpers.CooldownRemaining("ticket:" + userID); remaining > 0 {
		helpers.SendDirectMessage(userID,
			"You can open another ticket in **"+helpers.HumanizeDuration(remaining)+"**.")
		return
	}
	helpers.CooldownStart("ticket:"+userID, ticketCooldown)

	number, err := helpers.MDbReserveID(models.MongoDbCollection("ticket_" + category.ID))
	helpers.Relax(err)
	id := ticketID(category.ID, number)

	thread, err := session.ThreadStartComplex(config.TicketsChannelID, &discordgo.ThreadStart{
		Name:                id,
		Type:                discordgo.ChannelTypeGuildPrivateThread,
		AutoArchiveDuration: ticketArchiveDuration,
		Invitable:           false,
	})
	helpers.Relax(err)

	ticket := models.TicketEntry{
		ID:              id,
		UserID:          userID,
		Category:        category.ID,
		GuildID:         guildID,
		ChannelID:       config.TicketsChannelID,
		ThreadID:        thread.ID,
		CreatedAt:       time.Now(),
		StatusChannelID: config.TicketStatusNewChannelID,
	}

	session.ThreadMemberAdd(thread.ID, userID)
	helpers.SendEmbed(thread.ID, &discordgo.MessageEmbed{
		Title: "Ticket Created",
		Color: helpDeskColor,
		Description: "Please explain your inquiry in detail so the team can assist you promptly. " +
			"An agent will get back to you, usually within 24 hours.\n\n" +
			"If you opened this ticket by accident or no longer need assistance, close it with `ticket close`.",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Category", Value: category.Label},
		},
	})

	h.syncStatusMessage(session, &ticket, ticket.StatusChannelID)
	h.saveTicket(ticket)
}

// claimTicket marks the agent and moves a fresh ticket to the open channel
func (h *Helpdesk) claimTicket(session *discordgo.Session, ticket models.TicketEntry, agentID string) bool {
	if ticket.Closed() {
		return false
	}

	config := helpers.GetConfig()
	previousChannelID := ticket.StatusChannelID
	ticket.AgentID = agentID
	if ticket.StatusChannelID == config.TicketStatusNewChannelID {
		ticket.StatusChannelID = config.TicketStatusOpenChannelID
	}

	h.syncStatusMessage(session, &ticket, previousChannelID)
	h.saveTicket(ticket)

	session.ThreadMemberAdd(ticket.ThreadID, agentID)
	helpers.SendEmbed(ticket.ThreadID, &discordgo.MessageEmbed{
		Title:       "Ticket Claimed",
		Color:       ticketClaimColor,
		Description: "The ticket has been claimed by <@" + agentID + ">. You will be assisted shortly.",
	})
	return true
}

// closeTicket resolves the ticket and archives its thread
func (h *Helpdesk) closeTicket(session *discordgo.Session, ticket models.TicketEntry) bool {
	if ticket.Closed() {
		return false
	}

	config := helpers.GetConfig()
	now := time.Now()
	previousChannelID := ticket.StatusChannelID
	ticket.ClosedAt = &now
	ticket.StatusChannelID = config.TicketStatusClosedChannelID

	h.syncStatusMessage(session, &ticket, previousChannelID)
	h.saveTicket(ticket)

	helpers.SendEmbed(ticket.ThreadID, &discordgo.MessageEmbed{
		Title: "Ticket Closed",
		Color: ticketClosedColor,
		Description: "The ticket has been closed and the thread archived. " +
			"Please open another ticket if you need further assistance.",
	})

	archived, locked := true, true
	session.ChannelEditComplex(ticket.ThreadID, &discordgo.ChannelEdit{
		Archived: &archived,
		Locked:   &locked,
	})
	return true
}

// syncStatusMessage keeps one status message per ticket, moving it when the
// status channel changed and editing it in place otherwise
func (h *Helpdesk) syncStatusMessage(session *discordgo.Session, ticket *models.TicketEntry, previousChannelID string) {
	if ticket.StatusMessageID != "" && previousChannelID != ticket.StatusChannelID {
		session.ChannelMessageDelete(previousChannelID, ticket.StatusMessageID)
		ticket.StatusMessageID = ""
	}
	if ticket.StatusChannelID == "" {
		return
	}

	if ticket.StatusMessageID == "" {
		message, err := helpers.SendEmbed(ticket.StatusChannelID, h.statusEmbed(*ticket))
		if err != nil {
			return
		}
		ticket.StatusMessageID = message.ID
		if !ticket.Closed() {
			session.MessageReactionAdd(ticket.StatusChannelID, message.ID, ticketClaimEmoji)
			session.MessageReactionAdd(ticket.StatusChannelID, message.ID, ticketCloseEmoji)
		}
		return
	}

	helpers.EditEmbed(ticket.StatusChannelID, ticket.StatusMessageID, h.statusEmbed(*ticket))
}

func (h *Helpdesk) statusEmbed(ticket models.TicketEntry) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       ticket.ID,
		Color:       helpDeskColor,
		Description: "Opened by <@" + ticket.UserID + "> " + helpers.DiscordRelativeTime(ticket.CreatedAt),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Category", Value: categoryLabel(ticket.Category), Inline: true},
		},
	}
	if ticket.StatusChannelID != "" {
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Status", Value: "<#" + ticket.StatusChannelID + ">", Inline: true})
	}
	if ticket.AgentID != "" {
		embed.Color = ticketClaimColor
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Agent", Value: "<@" + ticket.AgentID + ">", Inline: true})
	}
	if ticket.Closed() {
		embed.Color = ticketClosedColor
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "Ticket Closed"}
		embed.Timestamp = ticket.ClosedAt.Format(time.RFC3339)
	}
	return embed
}

func (h *Helpdesk) saveTicket(ticket models.TicketEntry) {
	err := helpers.MDbUpsert(models.TicketTable, bson.M{"_id": ticket.ID}, ticket)
	helpers.Relax(err)
}

// ticketID renders the human readable ticket id, e.g. "BUG 004"
func ticketID(categoryID string, number int64) string {
	return strings.ToUpper(categoryID) + fmt.Sprintf(" %03d", number)
}

func categoryByEmoji(emojiName string) (helpDeskCategory, bool) {
	for _, category := range helpDeskCategories {
		if category.Emoji == emojiName {
			return category, true
		}
	}
	return helpDeskCategory{}, false
}

func categoryLabel(categoryID string) string {
	for _, category := range helpDeskCategories {
		if category.ID == categoryID {
			return category.Label
		}
	}
	return categoryID
}

func (h *Helpdesk) OnMessage(content string, msg *discordgo.Message, session *discordgo.Session) {
}

func (h *Helpdesk) OnMessageUpdate(message *discordgo.MessageUpdate, session *discordgo.Session) {
}

func (h *Helpdesk) OnMessageDelete(message *discordgo.MessageDelete, session *discordgo.Session) {
}

func (h *Helpdesk) OnGuildMemberAdd(member *discordgo.Member, session *discordgo.Session) {
}

func (h *Helpdesk) OnGuildMemberRemove(member *discordgo.Member, session *discordgo.Session) {
}

func (h *Helpdesk) OnGuildMemberUpdate(member *discordgo.GuildMemberUpdate, session *discordgo.Session) {
}

func (h *Helpdesk) OnReactionAdd(reaction *discordgo.MessageReactionAdd, session *discordgo.Session) {
	defer helpers.Recover()

	if reaction.UserID == session.State.User.ID {
		return
	}

	if reaction.GuildID != "" {
		guild := getGuildEntry(reaction.GuildID)
		if guild.HelpDeskMessageID == reaction.MessageID {
			h.handleDeskReaction(reaction, session)
			return
		}
	}

	h.handleStatusReaction(reaction, session)
}

func (h *Helpdesk) OnReactionRemove(reaction *discordgo.MessageReactionRemove, session *discordgo.Session) {
}

func (h *Helpdesk) OnGuildBanAdd(user *discordgo.GuildBanAdd, session *discordgo.Session) {
}

func (h *Helpdesk) OnGuildBanRemove(user *discordgo.GuildBanRemove, session *discordgo.Session) {
}

// handleDeskReaction answers a desk reaction with the category guidance and
// opens a ticket for categories carrying one
func (h *Helpdesk) handleDeskReaction(reaction *discordgo.MessageReactionAdd, session *discordgo.Session) {
	category, ok := categoryByEmoji(reaction.Emoji.Name)
	if !ok {
		return
	}

	// keep the desk reusable
	session.MessageReactionRemove(reaction.ChannelID, reaction.MessageID, reaction.Emoji.Name, reaction.UserID)

	helpers.SendDirectEmbed(reaction.UserID, &discordgo.MessageEmbed{
		Title:       category.Emoji + "  " + category.Label,
		Color:       helpDeskColor,
		Description: category.Guidance,
	})

	if category.OpensTicket {
		h.openTicket(session, reaction.GuildID, reaction.UserID, category)
	}
}

// handleStatusReaction lets staff claim or close a ticket straight from its
// status message
func (h *Helpdesk) handleStatusReaction(reaction *discordgo.MessageReactionAdd, session *discordgo.Session) {
	if reaction.Emoji.Name != ticketClaimEmoji && reaction.Emoji.Name != ticketCloseEmoji {
		return
	}

	var ticket models.TicketEntry
	err := helpers.MdbOne(
		helpers.MdbCollection(models.TicketTable).Find(bson.M{"status_message_id": reaction.MessageID}),
		&ticket,
	)
	if err != nil {
		return
	}

	if !isStaffMember(ticket.GuildID, reaction.UserID) {
		return
	}

	switch reaction.Emoji.Name {
	case ticketClaimEmoji:
		h.claimTicket(session, ticket, reaction.UserID)
	case ticketCloseEmoji:
		h.closeTicket(session, ticket)
	}
}
