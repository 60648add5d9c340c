package plugins

import (
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/globalsign/mgo/bson"
	"github.com/wardenbot/warden/cache"
	"github.com/wardenbot/warden/helpers"
	"github.com/wardenbot/warden/models"
)

// Forms mirrors submission documents written by the external forms site as
// embeds into the review channel. The site has no way to call the bot, so a
// poll picks up new submissions and status changes.
type Forms struct{}

const formsPollInterval = 30 * time.Second

func (f *Forms) Commands() []string {
	return []string{
		"forms",
	}
}

func (f *Forms) Init(session *discordgo.Session) {
	if helpers.GetConfig().SubmissionChannelID == "" {
		return
	}

	go func() {
		defer helpers.Recover()

		for {
			f.pollSubmissions()
			time.Sleep(formsPollInterval)
		}
	}()

	cache.GetLogger().WithField("module", "forms").Info("Started submission poll loop")
}

// pollSubmissions posts unposted submissions and refreshes embeds whose
// status changed since they were rendered
func (f *Forms) pollSubmissions() {
	defer helpers.Recover()

	channelID := helpers.GetConfig().SubmissionChannelID

	var pending []models.SubmissionEntry
	err := helpers.MDbIter(helpers.MdbCollection(models.SubmissionTable).
		Find(bson.M{"embedded_id": bson.M{"$in": []interface{}{nil, ""}}}).
		Sort("_id")).All(&pending)
	if err != nil {
		cache.GetLogger().WithField("module", "forms").Error("submission lookup failed: ", err.Error())
		return
	}

	for _, submission := range pending {
		message, err := helpers.SendEmbed(channelID, f.submissionEmbed(submission))
		if err != nil {
			cache.GetLogger().WithField("module", "forms").Error("submission post failed: ", err.Error())
			continue
		}

		helpers.MDbUpdate(models.SubmissionTable, submission.ID, bson.M{
			"$set": bson.M{
				"embedded_id":     message.ID,
				"embedded_status": submission.Status,
			},
		})
	}

	var stale []models.SubmissionEntry
	err = helpers.MDbIter(helpers.MdbCollection(models.SubmissionTable).
		Find(bson.M{
			"embedded_id": bson.M{"$nin": []interface{}{nil, ""}},
			"$expr":       bson.M{"$ne": []string{"$status", "$embedded_status"}},
		})).All(&stale)
	if err != nil {
		cache.GetLogger().WithField("module", "forms").Error("stale submission lookup failed: ", err.Error())
		return
	}

	for _, submission := range stale {
		_, err := helpers.EditEmbed(channelID, submission.EmbeddedID, f.submissionEmbed(submission))
		if err != nil {
			cache.GetLogger().WithField("module", "forms").Error("submission refresh failed: ", err.Error())
			continue
		}

		helpers.MDbUpdate(models.SubmissionTable, submission.ID, bson.M{
			"$set": bson.M{"embedded_status": submission.Status},
		})
	}
}

func (f *Forms) submissionEmbed(submission models.SubmissionEntry) *discordgo.MessageEmbed {
	title := submission.Status.Text()
	if submission.FormName != "" {
		title += ": " + submission.FormName
	}

	embed := &discordgo.MessageEmbed{
		Title:     title,
		Color:     submission.Status.Color(),
		Timestamp: submission.UpdatedAt.Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Submission " + helpers.MdbIdToHuman(submission.ID) + " | Form " + submission.FormID,
		},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Submitted by", Value: submission.UserTag + " (<@" + submission.UserID + ">)", Inline: true},
		},
	}

	if submission.ReviewerID != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Reviewed by", Value: "<@" + submission.ReviewerID + ">", Inline: true,
		})
	}

	for _, field := range submission.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  field.Name,
			Value: field.Value,
		})
	}

	return embed
}

func (f *Forms) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	helpers.RequireMod(msg, func() {
		var open []models.SubmissionEntry
		err := helpers.MDbIter(helpers.MdbCollection(models.SubmissionTable).
			Find(bson.M{"status": models.SubmissionUnderReview}).
			Sort("_id")).All(&open)
		helpers.Relax(err)

		if len(open) == 0 {
			helpers.SendMessage(msg.ChannelID, "There are no submissions waiting for review.")
			return
		}

		var embedFields []*discordgo.MessageEmbedField
		for _, submission := range open {
			name := submission.FormName
			if name == "" {
				name = "Form " + submission.FormID
			}
			embedFields = append(embedFields, &discordgo.MessageEmbedField{
				Name:  name,
				Value: "by " + submission.UserTag + ", submitted " + helpers.DiscordRelativeTime(submission.ID.Time()),
			})
		}

		helpers.SendPagedMessage(msg, &discordgo.MessageEmbed{
			Title:  "Open submissions (" + strconv.Itoa(len(open)) + ")",
			Fields: embedFields,
			Color:  0x0FADED,
		}, 10)
	})
}
