package plugins

import (
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/globalsign/mgo/bson"
	"github.com/wardenbot/warden/cache"
	"github.com/wardenbot/warden/helpers"
	"github.com/wardenbot/warden/models"
)

// Autopost drops rotating reminder posts into channels, skipping channels
// that were quiet since the previous post.
type Autopost struct{}

func (a *Autopost) Commands() []string {
	return []string{
		"autopost",
	}
}

func (a *Autopost) Init(session *discordgo.Session) {
	go func() {
		defer helpers.Recover()

		for {
			a.postDue(session)
			time.Sleep(1 * time.Minute)
		}
	}()

	cache.GetLogger().WithField("module", "autopost").Info("Started autopost loop (1m)")
}

func (a *Autopost) postDue(session *discordgo.Session) {
	var entries []models.AutopostEntry
	err := helpers.MDbIter(helpers.MdbCollection(models.AutopostTable).Find(nil)).All(&entries)
	if err != nil {
		cache.GetLogger().WithField("module", "autopost").Error("lookup failed: ", err.Error())
		return
	}

	for _, entry := range entries {
		if len(entry.Messages) == 0 {
			continue
		}
		if time.Since(entry.LastPostedAt) < entry.Interval() {
			continue
		}

		channel, err := helpers.GetChannel(entry.ChannelID)
		if err != nil {
			continue
		}

		// skip quiet channels, the previous post is still the latest message
		if entry.LastMessageID != "" && channel.LastMessageID == entry.LastMessageID {
			continue
		}

		index := entry.NextIndex % len(entry.Messages)
		posted, err := helpers.SendMessage(entry.ChannelID, entry.Messages[index])
		if err != nil || len(posted) == 0 {
			continue
		}

		entry.NextIndex = (index + 1) % len(entry.Messages)
		entry.LastMessageID = posted[len(posted)-1].ID
		entry.LastPostedAt = time.Now()
		err = helpers.MDbUpdate(models.AutopostTable, entry.ID, entry)
		if err != nil {
			cache.GetLogger().WithField("module", "autopost").Error("update failed: ", err.Error())
		}
	}
}

func (a *Autopost) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	helpers.RequireAdmin(msg, func() {
		args := strings.Fields(content)
		if len(args) < 1 {
			helpers.SendMessage(msg.ChannelID, ":x: Usage: `autopost add/list/delete/addmessage`")
			return
		}

		channel, err := helpers.GetChannel(msg.ChannelID)
		helpers.Relax(err)

		switch args[0] {
		case "add":
			if len(args) < 4 {
				helpers.SendMessage(msg.ChannelID, ":x: Usage: `autopost add <channel> <interval> <message>`")
				return
			}
			targetChannelID, ok := helpers.GetChannelIDFromMention(args[1])
			if !ok {
				helpers.SendMessage(msg.ChannelID, ":x: Which channel?")
				return
			}
			interval, err := helpers.ParseDuration(args[2])
			if err != nil || interval < time.Minute {
				helpers.SendMessage(msg.ChannelID, ":x: The interval has to be at least `1m`.")
				return
			}
			message := strings.TrimSpace(strings.Join(args[3:], " "))

			_, err = helpers.MDbInsert(models.AutopostTable, models.AutopostEntry{
				GuildID:      channel.GuildID,
				ChannelID:    targetChannelID,
				IntervalSecs: int64(interval.Seconds()),
				Messages:     []string{message},
			})
			helpers.Relax(err)

			helpers.SendMessage(msg.ChannelID,
				":white_check_mark: Autopost for <#"+targetChannelID+"> every "+helpers.HumanizeDuration(interval)+" created.")

		case "addmessage":
			if len(args) < 3 {
				helpers.SendMessage(msg.ChannelID, ":x: Usage: `autopost addmessage <channel> <message>`")
				return
			}
			targetChannelID, ok := helpers.GetChannelIDFromMention(args[1])
			if !ok {
				helpers.SendMessage(msg.ChannelID, ":x: Which channel?")
				return
			}
			message := strings.TrimSpace(strings.Join(args[2:], " "))

			err = helpers.MDbUpdateQuery(models.AutopostTable,
				bson.M{"guild_id": channel.GuildID, "channel_id": targetChannelID},
				bson.M{"$push": bson.M{"messages": message}},
			)
			if helpers.IsMdbNotFound(err) {
				helpers.SendMessage(msg.ChannelID, ":x: No autopost set up for that channel.")
				return
			}
			helpers.Relax(err)

			helpers.SendMessage(msg.ChannelID, ":white_check_mark: Message added to the rotation.")

		case "list":
			var entries []models.AutopostEntry
			err = helpers.MDbIter(helpers.MdbCollection(models.AutopostTable).
				Find(bson.M{"guild_id": channel.GuildID})).All(&entries)
			helpers.Relax(err)

			if len(entries) == 0 {
				helpers.SendMessage(msg.ChannelID, "No autoposts set up.")
				return
			}

			var embedFields []*discordgo.MessageEmbedField
			for _, entry := range entries {
				embedFields = append(embedFields, &discordgo.MessageEmbedField{
					Name: "<#" + entry.ChannelID + "> every " + helpers.HumanizeDuration(entry.Interval()),
					Value: "`" + helpers.MdbIdToHuman(entry.ID) + "`, " +
						helpers.TruncateText(strings.Join(entry.Messages, " | "), 900),
				})
			}

			helpers.SendPagedMessage(msg, &discordgo.MessageEmbed{
				Title:  "Autoposts",
				Fields: embedFields,
				Color:  0x0FADED,
			}, 5)

		case "delete", "remove":
			if len(args) < 2 {
				helpers.SendMessage(msg.ChannelID, ":x: Which autopost? Get the id from `autopost list`.")
				return
			}

			id := helpers.HumanToMdbId(args[1])
			if !id.Valid() {
				helpers.SendMessage(msg.ChannelID, ":x: That is not a valid id.")
				return
			}

			err = helpers.MDbDelete(models.AutopostTable, id)
			if helpers.IsMdbNotFound(err) {
				helpers.SendMessage(msg.ChannelID, ":x: Autopost not found.")
				return
			}
			helpers.Relax(err)

			helpers.SendMessage(msg.ChannelID, ":white_check_mark: Autopost deleted.")
		}
	})
}
