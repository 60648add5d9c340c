package plugins

import (
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/globalsign/mgo"
	"github.com/globalsign/mgo/bson"
	"github.com/wardenbot/warden/cache"
	"github.com/wardenbot/warden/helpers"
	"github.com/wardenbot/warden/metrics"
	"github.com/wardenbot/warden/models"
)

// Giveaways runs community giveaways: members submit a prize, staff approve
// it with a reaction, approved giveaways start in the next free giveaway
// channel and end after a fixed duration with a randomly drawn winner.
type Giveaways struct {
	wake chan struct{}
}

const (
	giveawayDuration  = 12 * time.Hour
	giveawayStartPoll = 30 * time.Second

	giveawayEntryEmoji   = "🎉"
	giveawayApproveEmoji = "✅"
	giveawayRejectEmoji  = "❌"
)

func (g *Giveaways) Commands() []string {
	return []string{
		"giveaway",
		"giveaways",
	}
}

func (g *Giveaways) Init(session *discordgo.Session) {
	g.wake = make(chan struct{}, 1)

	go func() {
		defer helpers.Recover()

		g.startLoop(session)
	}()
	go func() {
		defer helpers.Recover()

		g.endLoop(session)
	}()

	cache.GetLogger().WithField("module", "giveaways").Info("Started giveaway loops")
}

func (g *Giveaways) Uninit(session *discordgo.Session) {
}

func (g *Giveaways) wakeUp() {
	select {
	case g.wake <- struct{}{}:
	default:
	}
}

// startLoop moves approved giveaways into free giveaway channels
func (g *Giveaways) startLoop(session *discordgo.Session) {
	for {
		time.Sleep(giveawayStartPoll)

		var queued []models.GiveawayEntry
		err := helpers.MDbIter(helpers.MdbCollection(models.GiveawayTable).
			Find(bson.M{"approval_status": true, "channel_id": bson.M{"$in": []interface{}{nil, ""}}}).
			Sort("_id")).All(&queued)
		if err != nil {
			cache.GetLogger().WithField("module", "giveaways").Error("queue lookup failed: ", err.Error())
			continue
		}

		for _, giveaway := range queued {
			channelID := g.freeGiveawayChannel(giveaway.GuildID)
			if channelID == "" {
				break
			}
			g.startGiveaway(session, giveaway, channelID)
		}
	}
}

// giveawaySettings resolves the approval channel and the giveaway channels
// of a guild, the guild document overrides the global config
func giveawaySettings(guildID string) (approvalChannelID string, channelIDs []string) {
	guild := getGuildEntry(guildID)
	config := helpers.GetConfig()

	approvalChannelID = guild.GiveawayApprovalChannelID
	if approvalChannelID == "" {
		approvalChannelID = config.GiveawayApprovalChannelID
	}
	channelIDs = guild.GiveawayChannelIDs
	if len(channelIDs) == 0 {
		channelIDs = config.GiveawayChannelIDs
	}
	return approvalChannelID, channelIDs
}

// freeGiveawayChannel returns a configured giveaway channel with no running
// giveaway, or the empty string when all are busy
func (g *Giveaways) freeGiveawayChannel(guildID string) string {
	_, channelIDs := giveawaySettings(guildID)
	for _, channelID := range channelIDs {
		running, err := helpers.MdbCount(models.GiveawayTable, bson.M{
			"channel_id": channelID,
			"ends_at":    bson.M{"$exists": true},
			"winner_id":  bson.M{"$exists": false},
		})
		if err == nil && running == 0 {
			return channelID
		}
	}
	return ""
}

func (g *Giveaways) startGiveaway(session *discordgo.Session, giveaway models.GiveawayEntry, channelID string) {
	defer helpers.Recover()

	endsAt := time.Now().Add(giveawayDuration)
	giveaway.EndsAt = &endsAt
	giveaway.ChannelID = channelID

	message, err := helpers.SendEmbed(channelID, g.giveawayEmbed(giveaway, 0))
	if err != nil {
		cache.GetLogger().WithField("module", "giveaways").Error("start failed: ", err.Error())
		return
	}
	session.MessageReactionAdd(channelID, message.ID, giveawayEntryEmoji)

	err = helpers.MDbUpdateQuery(models.GiveawayTable,
		bson.M{"_id": giveaway.ID},
		bson.M{"$set": bson.M{
			"channel_id": channelID,
			"message_id": message.ID,
			"ends_at":    endsAt,
		}},
	)
	helpers.Relax(err)

	helpers.SendDirectMessage(giveaway.UserID,
		giveawayEntryEmoji+" Your giveaway for **"+giveaway.Prize+"** just started in <#"+channelID+">!")

	g.wakeUp()
}

// endLoop tracks the soonest-ending running giveaway, sleeps until it ends
// and draws the winner; starting a giveaway wakes it up to refetch
func (g *Giveaways) endLoop(session *discordgo.Session) {
	for {
		var next models.GiveawayEntry
		err := helpers.MdbOne(
			helpers.MdbCollection(models.GiveawayTable).
				Find(bson.M{"ends_at": bson.M{"$exists": true}, "winner_id": bson.M{"$exists": false}}).
				Sort("ends_at"),
			&next,
		)
		if helpers.IsMdbNotFound(err) {
			select {
			case <-g.wake:
			case <-time.After(1 * time.Minute):
			}
			continue
		}
		if err != nil {
			cache.GetLogger().WithField("module", "giveaways").Error("lookup failed: ", err.Error())
			time.Sleep(10 * time.Second)
			continue
		}

		if wait := time.Until(*next.EndsAt); wait > 0 {
			select {
			case <-g.wake:
				continue
			case <-time.After(wait):
			}
		}

		g.endGiveaway(session, next)
	}
}

func (g *Giveaways) endGiveaway(session *discordgo.Session, giveaway models.GiveawayEntry) {
	defer helpers.Recover()

	var entrant models.GiveawayEntrantEntry
	err := helpers.MdbPipeOne(models.GiveawayEntryTable, []bson.M{
		{"$match": bson.M{"giveaway_id": giveaway.ID}},
		{"$sample": bson.M{"size": 1}},
	}, &entrant)

	winnerID := ""
	if err == nil {
		winnerID = entrant.UserID
	} else if !helpers.IsMdbNotFound(err) {
		cache.GetLogger().WithField("module", "giveaways").Error("winner draw failed: ", err.Error())
		time.Sleep(10 * time.Second)
		return
	}

	err = helpers.MDbUpdateQuery(models.GiveawayTable,
		bson.M{"_id": giveaway.ID, "winner_id": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"winner_id": winnerID}},
	)
	if err != nil {
		// already ended elsewhere
		return
	}
	giveaway.WinnerID = &winnerID

	entries, _ := helpers.MdbCount(models.GiveawayEntryTable, bson.M{"giveaway_id": giveaway.ID})
	helpers.EditEmbed(giveaway.ChannelID, giveaway.MessageID, g.giveawayEmbed(giveaway, entries))

	if winnerID == "" {
		helpers.SendMessage(giveaway.ChannelID,
			"Nobody entered the giveaway for **"+giveaway.Prize+"**, the prize goes back to <@"+giveaway.UserID+">.")
		helpers.SendDirectMessage(giveaway.UserID,
			"Nobody entered your giveaway for **"+giveaway.Prize+"**, you get to keep it.")
	} else {
		helpers.SendMessage(giveaway.ChannelID,
			giveawayEntryEmoji+" Congratulations <@"+winnerID+">, you won **"+giveaway.Prize+"**!")
		helpers.SendDirectMessage(winnerID,
			giveawayEntryEmoji+" You won **"+giveaway.Prize+"**! <@"+giveaway.UserID+"> will hand the prize over to you.")
		helpers.SendDirectMessage(giveaway.UserID,
			"Your giveaway for **"+giveaway.Prize+"** ended, the winner is <@"+winnerID+">. Please hand the prize over.")
	}

	metrics.GiveawaysEnded.Add(1)
}

func (g *Giveaways) giveawayEmbed(giveaway models.GiveawayEntry, entries int) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       giveawayEntryEmoji + " Giveaway: " + giveaway.Prize,
		Description: giveaway.Description,
		Color:       0xF1C40F,
		Footer:      &discordgo.MessageEmbedFooter{Text: "React with " + giveawayEntryEmoji + " to enter"},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Hosted by", Value: "<@" + giveaway.UserID + ">", Inline: true},
			{Name: "Entries", Value: strconv.Itoa(entries), Inline: true},
		},
	}
	if giveaway.WinnerID != nil {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "Giveaway ended"}
		winner := "nobody"
		if *giveaway.WinnerID != "" {
			winner = "<@" + *giveaway.WinnerID + ">"
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Winner", Value: winner, Inline: true,
		})
	} else if giveaway.EndsAt != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Ends", Value: helpers.DiscordRelativeTime(*giveaway.EndsAt), Inline: true,
		})
	}
	return embed
}

func (g *Giveaways) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	channel, err := helpers.GetChannel(msg.ChannelID)
	helpers.Relax(err)

	args := strings.Fields(content)

	if command == "giveaways" || (len(args) >= 1 && args[0] == "list") {
		helpers.RequireMod(msg, func() {
			g.listGiveaways(msg, channel.GuildID)
		})
		return
	}

	if len(args) >= 2 && args[0] == "cancel" {
		g.cancelGiveaway(msg, channel.GuildID, args[1])
		return
	}

	if len(args) >= 1 && args[0] == "config" {
		helpers.RequireAdmin(msg, func() {
			g.configure(msg, args[1:], channel.GuildID)
		})
		return
	}

	g.submitGiveaway(msg, content, channel.GuildID)
}

func (g *Giveaways) configure(msg *discordgo.Message, args []string, guildID string) {
	if len(args) < 2 {
		helpers.SendMessage(msg.ChannelID,
			":x: Usage: `giveaway config approval <channel>`, `addchannel <channel>`, `removechannel <channel>`")
		return
	}

	channelID, ok := helpers.GetChannelIDFromMention(args[1])
	if !ok {
		helpers.SendMessage(msg.ChannelID, ":x: Which channel?")
		return
	}

	guild := getGuildEntry(guildID)

	switch args[0] {
	case "approval":
		guild.GiveawayApprovalChannelID = channelID
		saveGuildEntry(guild)
		helpers.SendMessage(msg.ChannelID, ":white_check_mark: Giveaway approvals go to <#"+channelID+"> now.")

	case "addchannel":
		for _, existing := range guild.GiveawayChannelIDs {
			if existing == channelID {
				helpers.SendMessage(msg.ChannelID, ":x: That is already a giveaway channel.")
				return
			}
		}
		guild.GiveawayChannelIDs = append(guild.GiveawayChannelIDs, channelID)
		saveGuildEntry(guild)
		helpers.SendMessage(msg.ChannelID, ":white_check_mark: <#"+channelID+"> is a giveaway channel now.")

	case "removechannel":
		kept := guild.GiveawayChannelIDs[:0]
		for _, existing := range guild.GiveawayChannelIDs {
			if existing != channelID {
				kept = append(kept, existing)
			}
		}
		if len(kept) == len(guild.GiveawayChannelIDs) {
			helpers.SendMessage(msg.ChannelID, ":x: That is not a giveaway channel.")
			return
		}
		guild.GiveawayChannelIDs = kept
		saveGuildEntry(guild)
		helpers.SendMessage(msg.ChannelID, ":white_check_mark: <#"+channelID+"> is no longer a giveaway channel.")

	default:
		helpers.SendMessage(msg.ChannelID, ":x: I do not know that giveaway setting.")
	}
}

// submitGiveaway escrows a prize and posts the approval embed for staff.
// Format: prize | description | item references (comma separated)
func (g *Giveaways) submitGiveaway(msg *discordgo.Message, content string, guildID string) {
	approvalChannelID, _ := giveawaySettings(guildID)
	if approvalChannelID == "" {
		helpers.SendMessage(msg.ChannelID, ":x: Giveaways are not set up on this server.")
		return
	}

	parts := strings.SplitN(content, "|", 3)
	prize := strings.TrimSpace(parts[0])
	if prize == "" {
		helpers.SendMessage(msg.ChannelID,
			":x: Usage: `giveaway <prize> [| <description> [| <item references>]]`")
		return
	}

	giveaway := models.GiveawayEntry{
		GuildID: guildID,
		UserID:  msg.Author.ID,
		Prize:   prize,
	}
	if len(parts) >= 2 {
		giveaway.Description = strings.TrimSpace(parts[1])
	}
	if len(parts) >= 3 {
		for _, ref := range strings.Split(parts[2], ",") {
			if ref = strings.TrimSpace(ref); ref != "" {
				giveaway.ItemRefs = append(giveaway.ItemRefs, ref)
			}
		}
	}

	id, err := helpers.MDbInsert(models.GiveawayTable, giveaway)
	helpers.Relax(err)

	approvalEmbed := &discordgo.MessageEmbed{
		Title:       "Giveaway request: " + prize,
		Description: giveaway.Description,
		Color:       0xF1C40F,
		Footer:      &discordgo.MessageEmbedFooter{Text: "#" + helpers.MdbIdToHuman(id) + " | " + giveawayApproveEmoji + " approve, " + giveawayRejectEmoji + " reject"},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Submitted by", Value: "<@" + msg.Author.ID + ">", Inline: true},
		},
	}
	if len(giveaway.ItemRefs) > 0 {
		approvalEmbed.Fields = append(approvalEmbed.Fields, &discordgo.MessageEmbedField{
			Name: "Items", Value: strings.Join(giveaway.ItemRefs, ", "), Inline: true,
		})
	}

	approvalMessage, err := helpers.SendEmbed(approvalChannelID, approvalEmbed)
	helpers.Relax(err)

	session := cache.GetSession()
	session.MessageReactionAdd(approvalChannelID, approvalMessage.ID, giveawayApproveEmoji)
	session.MessageReactionAdd(approvalChannelID, approvalMessage.ID, giveawayRejectEmoji)

	err = helpers.MDbUpdate(models.GiveawayTable, id, bson.M{
		"$set": bson.M{"message_id": approvalMessage.ID},
	})
	helpers.Relax(err)

	helpers.SendMessage(msg.ChannelID,
		":white_check_mark: Your giveaway for **"+prize+"** was submitted for approval. (#"+helpers.MdbIdToHuman(id)+")")
}

func (g *Giveaways) cancelGiveaway(msg *discordgo.Message, guildID string, humanID string) {
	id := helpers.HumanToMdbId(humanID)
	if id == "" {
		helpers.SendMessage(msg.ChannelID, ":x: That is not a giveaway ID.")
		return
	}

	var giveaway models.GiveawayEntry
	err := helpers.MdbOne(
		helpers.MdbCollection(models.GiveawayTable).Find(bson.M{"_id": id, "guild_id": guildID}),
		&giveaway,
	)
	if helpers.IsMdbNotFound(err) {
		helpers.SendMessage(msg.ChannelID, ":x: I can not find that giveaway.")
		return
	}
	helpers.Relax(err)

	if giveaway.UserID != msg.Author.ID && !helpers.IsMod(msg) {
		helpers.SendMessage(msg.ChannelID, ":x: You can only cancel your own giveaways.")
		return
	}
	if giveaway.EndsAt != nil {
		helpers.SendMessage(msg.ChannelID, ":x: That giveaway already started.")
		return
	}

	if !helpers.ConfirmEmbed(msg.ChannelID, msg.Author,
		"Do you really want to cancel the giveaway for **"+giveaway.Prize+"**?") {
		return
	}

	err = helpers.MdbDeleteQuery(models.GiveawayTable, bson.M{"_id": id})
	helpers.Relax(err)

	helpers.SendMessage(msg.ChannelID,
		":white_check_mark: The giveaway for **"+giveaway.Prize+"** was cancelled, the items go back to <@"+giveaway.UserID+">.")
}

func (g *Giveaways) listGiveaways(msg *discordgo.Message, guildID string) {
	var open []models.GiveawayEntry
	err := helpers.MDbIter(helpers.MdbCollection(models.GiveawayTable).
		Find(bson.M{"guild_id": guildID, "winner_id": bson.M{"$exists": false}}).
		Sort("_id")).All(&open)
	helpers.Relax(err)

	if len(open) == 0 {
		helpers.SendMessage(msg.ChannelID, "There are no open giveaways.")
		return
	}

	var embedFields []*discordgo.MessageEmbedField
	for _, giveaway := range open {
		status := "pending approval"
		switch {
		case giveaway.EndsAt != nil:
			status = "running in <#" + giveaway.ChannelID + ">, ends " + helpers.DiscordRelativeTime(*giveaway.EndsAt)
		case giveaway.ApprovalStatus != nil && *giveaway.ApprovalStatus:
			status = "approved, waiting for a free channel"
		case giveaway.ApprovalStatus != nil:
			status = "rejected"
		}
		embedFields = append(embedFields, &discordgo.MessageEmbedField{
			Name:  "#" + helpers.MdbIdToHuman(giveaway.ID) + " " + giveaway.Prize,
			Value: "by <@" + giveaway.UserID + ">, " + status,
		})
	}

	helpers.SendPagedMessage(msg, &discordgo.MessageEmbed{
		Title:  "Open giveaways",
		Fields: embedFields,
		Color:  0xF1C40F,
	}, 10)
}

func (g *Giveaways) OnReactionAdd(reaction *discordgo.MessageReactionAdd, session *discordgo.Session) {
	if reaction.UserID == session.State.User.ID {
		return
	}

	switch reaction.Emoji.Name {
	case giveawayApproveEmoji, giveawayRejectEmoji:
		g.handleApprovalReaction(session, reaction)
	case giveawayEntryEmoji:
		g.handleEntryReaction(session, reaction)
	}
}

func (g *Giveaways) handleApprovalReaction(session *discordgo.Session, reaction *discordgo.MessageReactionAdd) {
	var giveaway models.GiveawayEntry
	err := helpers.MdbOne(
		helpers.MdbCollection(models.GiveawayTable).Find(bson.M{
			"message_id":      reaction.MessageID,
			"approval_status": nil,
		}),
		&giveaway,
	)
	if err != nil {
		return
	}

	approvalChannelID, _ := giveawaySettings(giveaway.GuildID)
	if reaction.ChannelID != approvalChannelID {
		return
	}

	if !isStaffMember(reaction.GuildID, reaction.UserID) {
		return
	}

	approved := reaction.Emoji.Name == giveawayApproveEmoji
	err = helpers.MDbUpdate(models.GiveawayTable, giveaway.ID, bson.M{
		"$set": bson.M{"approval_status": approved},
	})
	if err != nil {
		return
	}

	if approved {
		helpers.EditEmbed(reaction.ChannelID, reaction.MessageID, &discordgo.MessageEmbed{
			Title: giveawayApproveEmoji + " Approved: " + giveaway.Prize,
			Color: 0x2ECC71,
			Footer: &discordgo.MessageEmbedFooter{
				Text: "#" + helpers.MdbIdToHuman(giveaway.ID) + " | approved by " + reaction.UserID,
			},
		})
		helpers.SendDirectMessage(giveaway.UserID,
			":white_check_mark: Your giveaway for **"+giveaway.Prize+"** was approved and will start as soon as a giveaway channel frees up.")
	} else {
		helpers.EditEmbed(reaction.ChannelID, reaction.MessageID, &discordgo.MessageEmbed{
			Title: giveawayRejectEmoji + " Rejected: " + giveaway.Prize,
			Color: 0xE74C3C,
			Footer: &discordgo.MessageEmbedFooter{
				Text: "#" + helpers.MdbIdToHuman(giveaway.ID) + " | rejected by " + reaction.UserID,
			},
		})
		helpers.SendDirectMessage(giveaway.UserID,
			":x: Your giveaway for **"+giveaway.Prize+"** was not approved, the items go back to you.")
	}
}

func (g *Giveaways) handleEntryReaction(session *discordgo.Session, reaction *discordgo.MessageReactionAdd) {
	var giveaway models.GiveawayEntry
	err := helpers.MdbOne(
		helpers.MdbCollection(models.GiveawayTable).Find(bson.M{
			"message_id": reaction.MessageID,
			"ends_at":    bson.M{"$exists": true},
		}),
		&giveaway,
	)
	if err != nil {
		return
	}

	if giveaway.WinnerID != nil || time.Now().After(*giveaway.EndsAt) {
		session.MessageReactionRemove(reaction.ChannelID, reaction.MessageID, giveawayEntryEmoji, reaction.UserID)
		helpers.SendDirectMessage(reaction.UserID, "Sorry, that giveaway already ended.")
		return
	}

	_, err = helpers.MDbInsert(models.GiveawayEntryTable, models.GiveawayEntrantEntry{
		GiveawayID: giveaway.ID,
		UserID:     reaction.UserID,
	})
	if err != nil {
		if mgo.IsDup(err) {
			return
		}
		helpers.Relax(err)
	}

	entries, err := helpers.MdbCount(models.GiveawayEntryTable, bson.M{"giveaway_id": giveaway.ID})
	if err == nil {
		helpers.EditEmbed(giveaway.ChannelID, giveaway.MessageID, g.giveawayEmbed(giveaway, entries))
	}
}

func (g *Giveaways) OnReactionRemove(reaction *discordgo.MessageReactionRemove, session *discordgo.Session) {
	if reaction.Emoji.Name != giveawayEntryEmoji {
		return
	}

	var giveaway models.GiveawayEntry
	err := helpers.MdbOne(
		helpers.MdbCollection(models.GiveawayTable).Find(bson.M{
			"message_id": reaction.MessageID,
			"ends_at":    bson.M{"$exists": true},
			"winner_id":  bson.M{"$exists": false},
		}),
		&giveaway,
	)
	if err != nil {
		return
	}

	helpers.MdbDeleteQuery(models.GiveawayEntryTable, bson.M{
		"giveaway_id": giveaway.ID,
		"user_id":     reaction.UserID,
	})
}

func (g *Giveaways) OnMessage(content string, msg *discordgo.Message, session *discordgo.Session) {
}

func (g *Giveaways) OnMessageUpdate(message *discordgo.MessageUpdate, session *discordgo.Session) {
}

func (g *Giveaways) OnMessageDelete(message *discordgo.MessageDelete, session *discordgo.Session) {
}

func (g *Giveaways) OnGuildMemberAdd(member *discordgo.Member, session *discordgo.Session) {
}

func (g *Giveaways) OnGuildMemberRemove(member *discordgo.Member, session *discordgo.Session) {
}

func (g *Giveaways) OnGuildMemberUpdate(member *discordgo.GuildMemberUpdate, session *discordgo.Session) {
}

func (g *Giveaways) OnGuildBanAdd(user *discordgo.GuildBanAdd, session *discordgo.Session) {
}

func (g *Giveaways) OnGuildBanRemove(user *discordgo.GuildBanRemove, session *discordgo.Session) {
}
