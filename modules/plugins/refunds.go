package plugins

import (
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	"github.com/globalsign/mgo/bson"
	"github.com/wardenbot/warden/helpers"
	"github.com/wardenbot/warden/models"
)

// Refunds keeps an auditable ledger of in-game currency refunds issued by
// staff.
type Refunds struct{}

func (r *Refunds) Commands() []string {
	return []string{
		"refund",
		"refunds",
	}
}

func (r *Refunds) Init(session *discordgo.Session) {
}

func (r *Refunds) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	switch command {
	case "refund":
		helpers.RequireMod(msg, func() {
			r.recordRefund(msg, content)
		})
	case "refunds":
		helpers.RequireMod(msg, func() {
			r.listRefunds(msg, content)
		})
	}
}

func (r *Refunds) recordRefund(msg *discordgo.Message, content string) {
	args := strings.Fields(content)
	if len(args) < 2 {
		helpers.SendMessage(msg.ChannelID,
			":x: Usage: `refund <member> coins=<n> shards=<n> redeems=<n> [notes=\"...\"]`")
		return
	}

	targetID, ok := helpers.GetUserIDFromMention(args[0])
	if !ok {
		helpers.SendMessage(msg.ChannelID, ":x: Who is that?")
		return
	}

	values := helpers.ParseKeyValueString(strings.TrimSpace(strings.TrimPrefix(content, args[0])))

	coins, _ := strconv.ParseInt(values["coins"], 10, 64)
	shards, _ := strconv.ParseInt(values["shards"], 10, 64)
	redeems, _ := strconv.ParseInt(values["redeems"], 10, 64)
	notes := values["notes"]

	if coins == 0 && shards == 0 && redeems == 0 {
		helpers.SendMessage(msg.ChannelID, ":x: Nothing to refund.")
		return
	}

	channel, err := helpers.GetChannel(msg.ChannelID)
	helpers.Relax(err)

	entry := models.RefundEntry{
		UserID:    msg.Author.ID,
		TargetID:  targetID,
		Coins:     coins,
		Shards:    shards,
		Redeems:   redeems,
		Notes:     notes,
		JumpURL:   messageJumpURL(channel.GuildID, msg.ChannelID, msg.ID),
		CreatedAt: time.Now(),
	}

	_, err = helpers.MDbInsert(models.RefundTable, entry)
	helpers.Relax(err)

	embed := refundEmbed(entry)
	if logChannelID := helpers.GetConfig().RefundLogChannelID; logChannelID != "" {
		helpers.SendEmbed(logChannelID, embed)
	}
	helpers.SendEmbed(msg.ChannelID, embed)
}

func (r *Refunds) listRefunds(msg *discordgo.Message, content string) {
	args := strings.Fields(content)
	if len(args) < 1 {
		helpers.SendMessage(msg.ChannelID, ":x: Usage: `refunds <member>`")
		return
	}

	targetID, ok := helpers.GetUserIDFromMention(args[0])
	if !ok {
		helpers.SendMessage(msg.ChannelID, ":x: Who is that?")
		return
	}

	var refunds []models.RefundEntry
	err := helpers.MDbIter(helpers.MdbCollection(models.RefundTable).
		Find(bson.M{"target_id": targetID}).Sort("-created_at")).All(&refunds)
	helpers.Relax(err)

	if len(refunds) == 0 {
		helpers.SendMessage(msg.ChannelID, "No refunds recorded for <@"+targetID+">.")
		return
	}

	var embedFields []*discordgo.MessageEmbedField
	for _, refund := range refunds {
		embedFields = append(embedFields, &discordgo.MessageEmbedField{
			Name:  humanize.Time(refund.CreatedAt) + " by " + refund.UserID,
			Value: refundSummary(refund),
		})
	}

	helpers.SendPagedMessage(msg, &discordgo.MessageEmbed{
		Title:  "Refunds for " + targetID,
		Fields: embedFields,
		Color:  0x0FADED,
	}, 10)
}

func refundEmbed(entry models.RefundEntry) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "Refund recorded",
		Description: "<@" + entry.UserID + "> refunded <@" + entry.TargetID + ">",
		Color:       0x2ECC71,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Amount", Value: refundSummary(entry), Inline: true},
		},
		Timestamp: entry.CreatedAt.Format(time.RFC3339),
	}
	if entry.Notes != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Notes", Value: entry.Notes, Inline: true,
		})
	}
	if entry.JumpURL != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Context", Value: entry.JumpURL, Inline: true,
		})
	}
	return embed
}

func refundSummary(entry models.RefundEntry) string {
	parts := make([]string, 0, 3)
	if entry.Coins != 0 {
		parts = append(parts, humanize.Comma(entry.Coins)+" coins")
	}
	if entry.Shards != 0 {
		parts = append(parts, humanize.Comma(entry.Shards)+" shards")
	}
	if entry.Redeems != 0 {
		parts = append(parts, humanize.Comma(entry.Redeems)+" redeems")
	}
	return strings.Join(parts, ", ")
}

func messageJumpURL(guildID string, channelID string, messageID string) string {
	return "https://discord.com/channels/" + guildID + "/" + channelID + "/" + messageID
}
