package plugins

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	"github.com/globalsign/mgo/bson"
	"github.com/wardenbot/warden/helpers"
	"github.com/wardenbot/warden/models"
)

type Reputation struct{}

const (
	repGlobalCooldown    = 120 * time.Second
	repPerTargetCooldown = 1 * time.Hour
)

var thanksRegex = regexp.MustCompile(`(?i)\b(thanks|thank you|thx|ty)\b`)

func (r *Reputation) Commands() []string {
	return []string{
		"rep",
		"giverep",
		"setrep",
		"toprep",
	}
}

func (r *Reputation) Init(session *discordgo.Session) {
}

func (r *Reputation) Uninit(session *discordgo.Session) {
}

func (r *Reputation) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	channel, err := helpers.GetChannel(msg.ChannelID)
	helpers.Relax(err)

	switch command {
	case "rep":
		targetID := msg.Author.ID
		if args := strings.Fields(content); len(args) >= 1 {
			if parsedID, ok := helpers.GetUserIDFromMention(args[0]); ok {
				targetID = parsedID
			}
		}

		member := getMemberEntry(channel.GuildID, targetID)
		helpers.SendMessage(msg.ChannelID,
			"<@"+targetID+"> has **"+humanize.Comma(int64(member.Reputation))+"** reputation point(s).")

	case "giverep":
		args := strings.Fields(content)
		if len(args) < 1 {
			helpers.SendMessage(msg.ChannelID, ":x: Who do you want to thank?")
			return
		}
		targetID, ok := helpers.GetUserIDFromMention(args[0])
		if !ok {
			helpers.SendMessage(msg.ChannelID, ":x: Who is that?")
			return
		}

		r.giveRep(msg, channel.GuildID, targetID, true)

	case "setrep":
		helpers.RequireAdmin(msg, func() {
			args := strings.Fields(content)
			if len(args) < 2 {
				helpers.SendMessage(msg.ChannelID, ":x: Usage: `setrep <member> <amount>`")
				return
			}
			targetID, ok := helpers.GetUserIDFromMention(args[0])
			if !ok {
				helpers.SendMessage(msg.ChannelID, ":x: Who is that?")
				return
			}
			amount, err := strconv.Atoi(args[1])
			if err != nil || amount < 0 {
				helpers.SendMessage(msg.ChannelID, ":x: That is not a valid amount.")
				return
			}

			err = helpers.MDbUpsert(models.MemberTable,
				bson.M{"_id": models.MemberID{UserID: targetID, GuildID: channel.GuildID}},
				bson.M{"$set": bson.M{"reputation": amount}},
			)
			helpers.Relax(err)

			helpers.SendMessage(msg.ChannelID,
				":white_check_mark: Set reputation of <@"+targetID+"> to **"+strconv.Itoa(amount)+"**.")
		})

	case "toprep":
		var topMembers []models.MemberEntry
		err := helpers.MDbIter(helpers.MdbCollection(models.MemberTable).
			Find(bson.M{"_id.guild_id": channel.GuildID, "reputation": bson.M{"$gt": 0}}).
			Sort("-reputation").Limit(50)).All(&topMembers)
		helpers.Relax(err)

		if len(topMembers) == 0 {
			helpers.SendMessage(msg.ChannelID, "Nobody has reputation yet.")
			return
		}

		var embedFields []*discordgo.MessageEmbedField
		for i, member := range topMembers {
			embedFields = append(embedFields, &discordgo.MessageEmbedField{
				Name:  "#" + strconv.Itoa(i+1) + " " + member.Name,
				Value: humanize.Comma(int64(member.Reputation)) + " point(s)",
			})
		}

		helpers.SendPagedMessage(msg, &discordgo.MessageEmbed{
			Title:  "Reputation leaderboard",
			Fields: embedFields,
			Color:  0x0FADED,
		}, 10)
	}
}

// OnMessage grants reputation when somebody thanks a mentioned member
func (r *Reputation) OnMessage(content string, msg *discordgo.Message, session *discordgo.Session) {
	if msg.Author.Bot {
		return
	}
	if len(msg.Mentions) != 1 {
		return
	}
	if !thanksRegex.MatchString(content) {
		return
	}

	channel, err := helpers.GetChannel(msg.ChannelID)
	if err != nil {
		return
	}

	r.giveRep(msg, channel.GuildID, msg.Mentions[0].ID, false)
}

func (r *Reputation) giveRep(msg *discordgo.Message, guildID string, targetID string, verbose bool) {
	if targetID == msg.Author.ID {
		if verbose {
			helpers.SendMessage(msg.ChannelID, ":x: You can not thank yourself.")
		}
		return
	}
	target, err := helpers.GetGuildMember(guildID, targetID)
	if err != nil || target.User.Bot {
		if verbose {
			helpers.SendMessage(msg.ChannelID, ":x: Who is that?")
		}
		return
	}

	if !helpers.CooldownStart("rep:cd:"+guildID+":"+msg.Author.ID, repGlobalCooldown) {
		if verbose {
			remaining := helpers.CooldownRemaining("rep:cd:" + guildID + ":" + msg.Author.ID)
			helpers.SendMessage(msg.ChannelID,
				":hourglass: You are thanking too fast, try again in "+helpers.HumanizeDuration(remaining)+".")
		}
		return
	}
	if !helpers.CooldownStart("rep:cd:"+guildID+":"+msg.Author.ID+":"+targetID, repPerTargetCooldown) {
		if verbose {
			helpers.SendMessage(msg.ChannelID, ":hourglass: You thanked them recently already.")
		}
		return
	}

	err = helpers.MDbUpsert(models.MemberTable,
		bson.M{"_id": models.MemberID{UserID: targetID, GuildID: guildID}},
		bson.M{"$inc": bson.M{"reputation": 1}},
	)
	helpers.Relax(err)

	helpers.SendMessage(msg.ChannelID, ":sparkles: <@"+targetID+"> earned a reputation point!")
}

func (r *Reputation) OnMessageUpdate(message *discordgo.MessageUpdate, session *discordgo.Session) {
}

func (r *Reputation) OnMessageDelete(message *discordgo.MessageDelete, session *discordgo.Session) {
}

func (r *Reputation) OnGuildMemberAdd(member *discordgo.Member, session *discordgo.Session) {
}

func (r *Reputation) OnGuildMemberRemove(member *discordgo.Member, session *discordgo.Session) {
}

func (r *Reputation) OnGuildMemberUpdate(member *discordgo.GuildMemberUpdate, session *discordgo.Session) {
}

func (r *Reputation) OnReactionAdd(reaction *discordgo.MessageReactionAdd, session *discordgo.Session) {
}

func (r *Reputation) OnReactionRemove(reaction *discordgo.MessageReactionRemove, session *discordgo.Session) {
}

func (r *Reputation) OnGuildBanAdd(user *discordgo.GuildBanAdd, session *discordgo.Session) {
}

func (r *Reputation) OnGuildBanRemove(user *discordgo.GuildBanRemove, session *discordgo.Session) {
}
