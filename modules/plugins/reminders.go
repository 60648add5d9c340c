package plugins

import (
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/globalsign/mgo/bson"
	"github.com/wardenbot/warden/cache"
	"github.com/wardenbot/warden/helpers"
	"github.com/wardenbot/warden/metrics"
	"github.com/wardenbot/warden/models"
)

// Reminders delivers one-shot reminders. A single goroutine tracks the
// soonest pending reminder, sleeps until it is due and refetches the next
// one; scheduling a sooner reminder wakes it up early.
type Reminders struct {
	wake chan struct{}
}

func (r *Reminders) Commands() []string {
	return []string{
		"remind",
		"remindme",
		"rm",
		"reminders",
		"rms",
	}
}

func (r *Reminders) Init(session *discordgo.Session) {
	r.wake = make(chan struct{}, 1)

	go func() {
		defer helpers.Recover()

		r.deliveryLoop(session)
	}()

	cache.GetLogger().WithField("module", "reminders").Info("Started reminder delivery loop")
}

func (r *Reminders) deliveryLoop(session *discordgo.Session) {
	for {
		var next models.ReminderEntry
		err := helpers.MdbOne(
			helpers.MdbCollection(models.ReminderTable).Find(bson.M{"resolved": false}).Sort("expires_at"),
			&next,
		)
		if helpers.IsMdbNotFound(err) {
			// nothing pending, wait for a new reminder or the periodic re-poll
			select {
			case <-r.wake:
			case <-time.After(1 * time.Minute):
			}
			continue
		}
		if err != nil {
			cache.GetLogger().WithField("module", "reminders").Error("lookup failed: ", err.Error())
			time.Sleep(10 * time.Second)
			continue
		}

		if wait := time.Until(next.ExpiresAt); wait > 0 {
			select {
			case <-r.wake:
				// a sooner reminder may have been scheduled, refetch
				continue
			case <-time.After(wait):
			}
		}

		r.deliver(session, next)
	}
}

func (r *Reminders) deliver(session *discordgo.Session, reminder models.ReminderEntry) {
	defer helpers.Recover()

	content := ":alarm_clock: <@" + reminder.UserID + "> You asked to be reminded about this " +
		helpers.DiscordRelativeTime(reminder.CreatedAt) + ":"
	if reminder.Event != "" {
		content += "\n>>> " + reminder.Event
	}

	_, err := helpers.SendComplex(reminder.ChannelID, &discordgo.MessageSend{
		Content: content,
		Reference: &discordgo.MessageReference{
			MessageID: reminder.MessageID,
			ChannelID: reminder.ChannelID,
			GuildID:   reminder.GuildID,
		},
	})
	// channel may be gone, fall back to a DM
	helpers.SoftRelax(err, func() {
		helpers.SendDirectMessage(reminder.UserID, content)
	})

	err = helpers.MDbUpdateQuery(models.ReminderTable,
		bson.M{"_id": reminder.ID},
		bson.M{"$set": bson.M{"resolved": true}},
	)
	helpers.Relax(err)

	metrics.RemindersDelivered.Add(1)
}

func (r *Reminders) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	switch command {
	case "rm", "remind", "remindme":
		r.createReminder(msg, content, session)

	case "rms", "reminders":
		args := strings.Fields(content)
		if len(args) >= 2 && (args[0] == "delete" || args[0] == "remove") {
			r.deleteReminder(msg, args[1])
			return
		}
		r.listReminders(msg)
	}
}

func (r *Reminders) createReminder(msg *discordgo.Message, content string, session *discordgo.Session) {
	session.ChannelTyping(msg.ChannelID)

	if strings.TrimSpace(content) == "" {
		helpers.SendMessage(msg.ChannelID, ":x: Remind you when?")
		return
	}

	channel, err := helpers.GetChannel(msg.ChannelID)
	helpers.Relax(err)

	firesAt, event, err := helpers.ParseNaturalTime(content)
	if err != nil {
		helpers.SendMessage(msg.ChannelID, ":x: I did not understand that time. Try `remind in 2 hours do the thing`.")
		return
	}

	id, err := helpers.MDbReserveID(models.ReminderTable)
	helpers.Relax(err)

	_, err = helpers.MDbInsert(models.ReminderTable, models.ReminderEntry{
		ID:        id,
		UserID:    msg.Author.ID,
		Event:     event,
		GuildID:   channel.GuildID,
		ChannelID: channel.ID,
		MessageID: msg.ID,
		CreatedAt: time.Now(),
		ExpiresAt: firesAt,
	})
	helpers.Relax(err)

	r.wakeUp()

	helpers.SendMessage(msg.ChannelID,
		"Ok, I will remind you "+helpers.DiscordRelativeTime(firesAt)+" (#"+strconv.FormatInt(id, 10)+") :ok_hand:")
}

func (r *Reminders) listReminders(msg *discordgo.Message) {
	var reminders []models.ReminderEntry
	err := helpers.MDbIter(helpers.MdbCollection(models.ReminderTable).
		Find(bson.M{"user_id": msg.Author.ID, "resolved": false}).Sort("expires_at")).All(&reminders)
	helpers.Relax(err)

	if len(reminders) == 0 {
		helpers.SendMessage(msg.ChannelID, "You have no pending reminders.")
		return
	}

	var embedFields []*discordgo.MessageEmbedField
	for _, reminder := range reminders {
		event := reminder.Event
		if event == "" {
			event = "(no message)"
		}
		embedFields = append(embedFields, &discordgo.MessageEmbedField{
			Name:  "#" + strconv.FormatInt(reminder.ID, 10) + ": " + event,
			Value: helpers.DiscordLongTime(reminder.ExpiresAt) + " in <#" + reminder.ChannelID + ">",
		})
	}

	helpers.SendPagedMessage(msg, &discordgo.MessageEmbed{
		Title:  "Pending reminders",
		Fields: embedFields,
		Color:  0x0FADED,
	}, 10)
}

func (r *Reminders) deleteReminder(msg *discordgo.Message, idText string) {
	id, err := strconv.ParseInt(idText, 10, 64)
	if err != nil {
		helpers.SendMessage(msg.ChannelID, ":x: That is not a reminder number.")
		return
	}

	err = helpers.MdbDeleteQuery(models.ReminderTable,
		bson.M{"_id": id, "user_id": msg.Author.ID, "resolved": false})
	if helpers.IsMdbNotFound(err) {
		helpers.SendMessage(msg.ChannelID, ":x: No pending reminder #"+idText+" of yours.")
		return
	}
	helpers.Relax(err)

	r.wakeUp()

	helpers.SendMessage(msg.ChannelID, ":white_check_mark: Reminder #"+idText+" deleted.")
}

func (r *Reminders) wakeUp() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}
