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

// Moderation performs punishments, keeps the action ledger and undoes
// temporary punishments when they run out. A single goroutine tracks the
// soonest-expiring unresolved action; a 30s re-poll backstops missed wakeups.
type Moderation struct {
	wake chan struct{}
}

// moderationPlugin lets automod route its punishments through the same
// action pipeline
var moderationPlugin *Moderation

const (
	reportCooldown      = 20 * time.Second
	expiryRepollBackoff = 30 * time.Second
	punishmentExpired   = "Punishment duration expired"
)

func (m *Moderation) Commands() []string {
	return []string{
		"warn",
		"kick",
		"ban",
		"unban",
		"mute",
		"unmute",
		"tradingmute",
		"tradingunmute",
		"history",
		"purge",
		"cleanup",
		"report",
	}
}

func (m *Moderation) Init(session *discordgo.Session) {
	m.wake = make(chan struct{}, 1)
	moderationPlugin = m

	go func() {
		defer helpers.Recover()

		m.expiryLoop(session)
	}()

	cache.GetLogger().WithField("module", "moderation").Info("Started punishment expiry loop")
}

func (m *Moderation) Uninit(session *discordgo.Session) {
}

func (m *Moderation) expiryLoop(session *discordgo.Session) {
	for {
		var next models.ActionEntry
		err := helpers.MdbOne(
			helpers.MdbCollection(models.ActionTable).
				Find(bson.M{"resolved": false, "expires_at": bson.M{"$ne": nil}}).
				Sort("expires_at"),
			&next,
		)
		if helpers.IsMdbNotFound(err) {
			select {
			case <-m.wake:
			case <-time.After(expiryRepollBackoff):
			}
			continue
		}
		if err != nil {
			cache.GetLogger().WithField("module", "moderation").Error("expiry lookup failed: ", err.Error())
			time.Sleep(10 * time.Second)
			continue
		}

		if wait := time.Until(*next.ExpiresAt); wait > 0 {
			if wait > expiryRepollBackoff {
				wait = expiryRepollBackoff
			}
			select {
			case <-m.wake:
				continue
			case <-time.After(wait):
				continue
			}
		}

		if !m.expireAction(session, next) {
			// the action is still unresolved and would be selected again
			// right away, retry failed reversals on the poll cadence instead
			select {
			case <-m.wake:
			case <-time.After(expiryRepollBackoff):
			}
		}
	}
}

// expireAction reverses a timed punishment and resolves it, reports false
// when the reversal failed and the action is still pending
func (m *Moderation) expireAction(session *discordgo.Session, action models.ActionEntry) (resolved bool) {
	defer helpers.Recover()

	reverse := action.Type.Reverse()
	if reverse != "" {
		guildID := m.guildIDForAction(action)
		if guildID != "" {
			m.performAction(session, actionRequest{
				GuildID:  guildID,
				TargetID: action.TargetID,
				IssuerID: session.State.User.ID,
				Type:     reverse,
				Reason:   punishmentExpired,
			})
		}
	}

	err := helpers.MDbUpdateQuery(models.ActionTable,
		bson.M{"_id": action.ID},
		bson.M{"$set": bson.M{"resolved": true}},
	)
	helpers.Relax(err)

	metrics.ActionsExpired.Add(1)
	return true
}

func (m *Moderation) guildIDForAction(action models.ActionEntry) string {
	if action.ChannelID != "" {
		if channel, err := helpers.GetChannel(action.ChannelID); err == nil {
			return channel.GuildID
		}
	}
	// fall back to the only guild carrying the member
	for _, guild := range cache.GetSession().State.Guilds {
		if _, err := helpers.GetGuildMember(guild.ID, action.TargetID); err == nil {
			return guild.ID
		}
	}
	return ""
}

type actionRequest struct {
	GuildID   string
	TargetID  string
	IssuerID  string
	Type      models.ActionType
	Reason    string
	Duration  time.Duration
	ChannelID string
	MessageID string
	Bucket    string
}

func (m *Moderation) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	switch command {
	case "report":
		m.report(msg, content)
		return
	case "purge", "cleanup":
		helpers.RequireMod(msg, func() {
			m.purge(msg, content, session)
		})
		return
	case "history":
		helpers.RequireTrialMod(msg, func() {
			m.history(msg, content)
		})
		return
	case "warn", "kick", "mute", "unmute", "tradingmute", "tradingunmute":
		helpers.RequireTrialMod(msg, func() {
			m.punishCommand(command, content, msg, session)
		})
		return
	case "ban", "unban":
		helpers.RequireMod(msg, func() {
			m.punishCommand(command, content, msg, session)
		})
		return
	}
}

var commandActionTypes = map[string]models.ActionType{
	"warn":          models.ActionWarn,
	"kick":          models.ActionKick,
	"ban":           models.ActionBan,
	"unban":         models.ActionUnban,
	"mute":          models.ActionMute,
	"unmute":        models.ActionUnmute,
	"tradingmute":   models.ActionTradingMute,
	"tradingunmute": models.ActionTradingUnmute,
}

func (m *Moderation) punishCommand(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	args := strings.Fields(content)
	if len(args) < 1 {
		helpers.SendMessage(msg.ChannelID, ":x: Usage: `"+command+" <member> [duration] [reason]`")
		return
	}

	targetID, ok := helpers.GetUserIDFromMention(args[0])
	if !ok {
		helpers.SendMessage(msg.ChannelID, ":x: Who is that?")
		return
	}

	channel, err := helpers.GetChannel(msg.ChannelID)
	helpers.Relax(err)

	actionType := commandActionTypes[command]

	if targetID == msg.Author.ID {
		helpers.SendMessage(msg.ChannelID, ":x: You can not punish yourself.")
		return
	}
	if m.isStaff(channel.GuildID, targetID) && actionType != models.ActionUnban &&
		actionType != models.ActionUnmute && actionType != models.ActionTradingUnmute {
		helpers.SendMessage(msg.ChannelID, ":x: You can not punish staff members.")
		return
	}

	// an optional leading duration argument makes the punishment temporary
	var duration time.Duration
	reasonArgs := args[1:]
	if len(reasonArgs) > 0 {
		if parsed, err := helpers.ParseDuration(reasonArgs[0]); err == nil {
			duration = parsed
			reasonArgs = reasonArgs[1:]
		}
	}
	reason := strings.TrimSpace(strings.Join(reasonArgs, " "))

	if duration != 0 && actionType.Reverse() == "" {
		helpers.SendMessage(msg.ChannelID, ":x: `"+command+"` can not be temporary.")
		return
	}

	action := m.performAction(session, actionRequest{
		GuildID:   channel.GuildID,
		TargetID:  targetID,
		IssuerID:  msg.Author.ID,
		Type:      actionType,
		Reason:    reason,
		Duration:  duration,
		ChannelID: msg.ChannelID,
		MessageID: msg.ID,
	})

	confirmation := actionType.Emoji() + " <@" + targetID + "> has been " + actionType.PastTense() +
		" (case #" + strconv.FormatInt(action.ID, 10) + ")"
	if action.ExpiresAt != nil {
		confirmation += " for " + helpers.HumanizeDuration(duration)
	}
	helpers.SendMessage(msg.ChannelID, confirmation+".")
}

// performAction records one action document, applies the discord side effect
// and posts the mod log embed. Prior unresolved actions of the same type for
// the target get resolved first.
func (m *Moderation) performAction(session *discordgo.Session, request actionRequest) models.ActionEntry {
	// a new action supersedes pending ones of the same type
	_, err := helpers.MdbCollection(models.ActionTable).UpdateAll(
		bson.M{"target_id": request.TargetID, "type": request.Type, "resolved": false},
		bson.M{"$set": bson.M{"resolved": true}},
	)
	helpers.Relax(err)
	// reversals also resolve the action they undo
	if reversed := reverseOf(request.Type); reversed != "" {
		_, err = helpers.MdbCollection(models.ActionTable).UpdateAll(
			bson.M{"target_id": request.TargetID, "type": reversed, "resolved": false},
			bson.M{"$set": bson.M{"resolved": true}},
		)
		helpers.Relax(err)
	}

	id, err := helpers.MDbReserveID(models.ActionTable)
	helpers.Relax(err)

	entry := models.ActionEntry{
		ID:            id,
		TargetID:      request.TargetID,
		UserID:        request.IssuerID,
		Type:          request.Type,
		Reason:        request.Reason,
		ChannelID:     request.ChannelID,
		MessageID:     request.MessageID,
		CreatedAt:     time.Now(),
		AutomodBucket: request.Bucket,
	}
	if request.Duration > 0 {
		expiresAt := entry.CreatedAt.Add(request.Duration)
		entry.ExpiresAt = &expiresAt
	} else {
		// nothing to undo later
		entry.Resolved = request.Type.Reverse() == ""
	}

	// DM before kicking or banning, afterwards the bot can not reach them
	m.notifyTarget(request, entry)

	m.applyEffect(session, request)

	_, err = helpers.MDbInsert(models.ActionTable, entry)
	helpers.Relax(err)

	m.logAction(request, entry)
	m.wakeUp()

	return entry
}

func reverseOf(t models.ActionType) models.ActionType {
	switch t {
	case models.ActionUnban:
		return models.ActionBan
	case models.ActionUnmute:
		return models.ActionMute
	case models.ActionTradingUnmute:
		return models.ActionTradingMute
	}
	return ""
}

func (m *Moderation) notifyTarget(request actionRequest, entry models.ActionEntry) {
	guild, err := helpers.GetGuild(request.GuildID)
	if err != nil {
		return
	}

	description := "You have been **" + request.Type.PastTense() + "** in **" + guild.Name + "**."
	if entry.ExpiresAt != nil {
		description += "\nDuration: **" + helpers.HumanizeDuration(request.Duration) + "**"
	}
	if request.Reason != "" {
		description += "\nReason: **" + request.Reason + "**"
	}

	helpers.SendDirectEmbed(request.TargetID, &discordgo.MessageEmbed{
		Description: description,
		Color:       request.Type.Color(),
	})
}

func (m *Moderation) applyEffect(session *discordgo.Session, request actionRequest) {
	switch request.Type {
	case models.ActionWarn, models.ActionUnban:
		if request.Type == models.ActionUnban {
			err := session.GuildBanDelete(request.GuildID, request.TargetID)
			helpers.Relax(err)
		}
	case models.ActionKick:
		err := session.GuildMemberDelete(request.GuildID, request.TargetID)
		helpers.Relax(err)
	case models.ActionBan:
		err := session.GuildBanCreateWithReason(request.GuildID, request.TargetID, request.Reason, 0)
		helpers.Relax(err)
	case models.ActionMute:
		m.setMuteRole(session, request.GuildID, request.TargetID, helpers.GetConfig().MutedRoleName, "muted", true)
	case models.ActionUnmute:
		m.setMuteRole(session, request.GuildID, request.TargetID, helpers.GetConfig().MutedRoleName, "muted", false)
	case models.ActionTradingMute:
		m.setMuteRole(session, request.GuildID, request.TargetID, helpers.GetConfig().TradingMutedRoleName, "trading_muted", true)
	case models.ActionTradingUnmute:
		m.setMuteRole(session, request.GuildID, request.TargetID, helpers.GetConfig().TradingMutedRoleName, "trading_muted", false)
	}
}

// setMuteRole toggles a mute role and the sticky member flag behind it
func (m *Moderation) setMuteRole(session *discordgo.Session, guildID string, targetID string, roleName string, flag string, muted bool) {
	guild, err := helpers.GetGuild(guildID)
	helpers.Relax(err)

	role := helpers.GetRoleByName(guild, roleName)
	if role == nil {
		helpers.Relax(errorMissingRole(roleName))
	}

	if muted {
		err = session.GuildMemberRoleAdd(guildID, targetID, role.ID)
	} else {
		err = session.GuildMemberRoleRemove(guildID, targetID, role.ID)
	}
	helpers.Relax(err)

	err = helpers.MDbUpsert(models.MemberTable,
		bson.M{"_id": models.MemberID{UserID: targetID, GuildID: guildID}},
		bson.M{"$set": bson.M{flag: muted}},
	)
	helpers.Relax(err)
}

func (m *Moderation) logAction(request actionRequest, entry models.ActionEntry) {
	logChannelID := helpers.GetConfig().ModLogChannelID
	if logChannelID == "" {
		return
	}

	title := entry.Type.Emoji() + " Case #" + strconv.FormatInt(entry.ID, 10) + " | " + strings.Title(string(entry.Type))
	description := "**Target:** <@" + entry.TargetID + ">\n**Moderator:** <@" + entry.UserID + ">"
	if entry.ExpiresAt != nil {
		description += "\n**Until:** " + helpers.DiscordLongTime(*entry.ExpiresAt)
	}
	if entry.Reason != "" {
		description += "\n**Reason:** " + entry.Reason
	}
	if entry.AutomodBucket != "" {
		description += "\n**Automod:** " + entry.AutomodBucket
	}

	helpers.SendEmbed(logChannelID, &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       entry.Type.Color(),
		Timestamp:   entry.CreatedAt.Format(time.RFC3339),
	})
}

func (m *Moderation) history(msg *discordgo.Message, content string) {
	args := strings.Fields(content)
	if len(args) < 1 {
		helpers.SendMessage(msg.ChannelID, ":x: Usage: `history <member>` or `history delete <case>`")
		return
	}

	if args[0] == "delete" || args[0] == "remove" {
		if len(args) < 2 {
			helpers.SendMessage(msg.ChannelID, ":x: Which case?")
			return
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			helpers.SendMessage(msg.ChannelID, ":x: That is not a case number.")
			return
		}

		err = helpers.MdbDeleteQuery(models.ActionTable, bson.M{"_id": id})
		if helpers.IsMdbNotFound(err) {
			helpers.SendMessage(msg.ChannelID, ":x: Case #"+args[1]+" not found.")
			return
		}
		helpers.Relax(err)

		helpers.SendMessage(msg.ChannelID, ":white_check_mark: Case #"+args[1]+" deleted.")
		return
	}

	targetID, ok := helpers.GetUserIDFromMention(args[0])
	if !ok {
		helpers.SendMessage(msg.ChannelID, ":x: Who is that?")
		return
	}

	var actions []models.ActionEntry
	err := helpers.MDbIter(helpers.MdbCollection(models.ActionTable).
		Find(bson.M{"target_id": targetID}).Sort("-_id")).All(&actions)
	helpers.Relax(err)

	if len(actions) == 0 {
		helpers.SendMessage(msg.ChannelID, "No history for <@"+targetID+">.")
		return
	}

	var embedFields []*discordgo.MessageEmbedField
	for _, action := range actions {
		value := "by <@" + action.UserID + "> " + helpers.DiscordRelativeTime(action.CreatedAt)
		if action.Reason != "" {
			value += "\n" + helpers.TruncateText(action.Reason, 500)
		}
		embedFields = append(embedFields, &discordgo.MessageEmbedField{
			Name:  action.Type.Emoji() + " Case #" + strconv.FormatInt(action.ID, 10) + " | " + string(action.Type),
			Value: value,
		})
	}

	helpers.SendPagedMessage(msg, &discordgo.MessageEmbed{
		Title:  "Moderation history",
		Fields: embedFields,
		Color:  0x0FADED,
	}, 6)
}

func (m *Moderation) purge(msg *discordgo.Message, content string, session *discordgo.Session) {
	args := strings.Fields(content)
	if len(args) < 1 {
		helpers.SendMessage(msg.ChannelID, ":x: Usage: `purge <count>`, `purge user <member> <count>` or `purge contains <text> <count>`")
		return
	}

	var filter func(*discordgo.Message) bool
	countArg := args[0]

	switch args[0] {
	case "user":
		if len(args) < 3 {
			helpers.SendMessage(msg.ChannelID, ":x: Usage: `purge user <member> <count>`")
			return
		}
		targetID, ok := helpers.GetUserIDFromMention(args[1])
		if !ok {
			helpers.SendMessage(msg.ChannelID, ":x: Who is that?")
			return
		}
		filter = func(candidate *discordgo.Message) bool {
			return candidate.Author != nil && candidate.Author.ID == targetID
		}
		countArg = args[2]
	case "contains":
		if len(args) < 3 {
			helpers.SendMessage(msg.ChannelID, ":x: Usage: `purge contains <text> <count>`")
			return
		}
		needle := strings.ToLower(args[1])
		filter = func(candidate *discordgo.Message) bool {
			return strings.Contains(strings.ToLower(candidate.Content), needle)
		}
		countArg = args[2]
	}

	count, err := strconv.Atoi(countArg)
	if err != nil || count < 1 || count > 100 {
		helpers.SendMessage(msg.ChannelID, ":x: The count has to be between 1 and 100.")
		return
	}

	messages, err := session.ChannelMessages(msg.ChannelID, 100, msg.ID, "", "")
	helpers.Relax(err)

	cutoff := time.Now().Add(-14 * 24 * time.Hour)
	deleteIDs := make([]string, 0, count)
	for _, candidate := range messages {
		if len(deleteIDs) >= count {
			break
		}
		// bulk delete rejects messages older than two weeks
		if candidate.Timestamp.Before(cutoff) {
			continue
		}
		if filter != nil && !filter(candidate) {
			continue
		}
		deleteIDs = append(deleteIDs, candidate.ID)
	}

	if len(deleteIDs) == 0 {
		helpers.SendMessage(msg.ChannelID, ":x: Nothing to delete.")
		return
	}

	err = session.ChannelMessagesBulkDelete(msg.ChannelID, deleteIDs)
	helpers.Relax(err)

	session.ChannelMessageDelete(msg.ChannelID, msg.ID)

	confirmation, _ := helpers.SendMessage(msg.ChannelID, ":wastebasket: Deleted "+strconv.Itoa(len(deleteIDs))+" message(s).")
	if len(confirmation) > 0 {
		go func() {
			defer helpers.Recover()
			time.Sleep(5 * time.Second)
			session.ChannelMessageDelete(msg.ChannelID, confirmation[0].ID)
		}()
	}
}

func (m *Moderation) report(msg *discordgo.Message, content string) {
	reportChannelID := helpers.GetConfig().ReportChannelID
	if reportChannelID == "" {
		helpers.SendMessage(msg.ChannelID, ":x: Reports are not set up.")
		return
	}
	if strings.TrimSpace(content) == "" {
		helpers.SendMessage(msg.ChannelID, ":x: Report what?")
		return
	}

	if !helpers.CooldownStart("report:cd:"+msg.Author.ID, reportCooldown) {
		helpers.SendMessage(msg.ChannelID, ":hourglass: Please wait a moment before reporting again.")
		return
	}

	channel, err := helpers.GetChannel(msg.ChannelID)
	helpers.Relax(err)

	helpers.SendEmbed(reportChannelID, &discordgo.MessageEmbed{
		Title:       "📣 New report",
		Description: helpers.TruncateText(content, 2000),
		Color:       0xE67E22,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Reporter", Value: "<@" + msg.Author.ID + ">", Inline: true},
			{Name: "Where", Value: messageJumpURL(channel.GuildID, msg.ChannelID, msg.ID), Inline: true},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	})

	helpers.SendMessage(msg.ChannelID, ":white_check_mark: Thank you, the staff has been notified.")
}

// isStaff reports whether the member holds an admin, mod or trial mod role
func (m *Moderation) isStaff(guildID string, userID string) bool {
	guild, err := helpers.GetGuild(guildID)
	if err != nil {
		return false
	}
	member, err := helpers.GetGuildMember(guildID, userID)
	if err != nil {
		return false
	}

	config := helpers.GetConfig()
	roleNames := append(append(append([]string{}, config.AdminRoleNames...), config.ModRoleNames...), config.TrialModRoleNames...)
	for _, role := range guild.Roles {
		for _, roleName := range roleNames {
			if !strings.EqualFold(role.Name, roleName) {
				continue
			}
			for _, memberRole := range member.Roles {
				if memberRole == role.ID {
					return true
				}
			}
		}
	}
	return helpers.IsBotAdmin(userID)
}

// OnGuildMemberAdd re-applies sticky mute roles after a rejoin
func (m *Moderation) OnGuildMemberAdd(member *discordgo.Member, session *discordgo.Session) {
	entry := getMemberEntry(member.GuildID, member.User.ID)
	if !entry.Muted && !entry.TradingMuted {
		return
	}

	guild, err := helpers.GetGuild(member.GuildID)
	if err != nil {
		return
	}

	if entry.Muted {
		if role := helpers.GetRoleByName(guild, helpers.GetConfig().MutedRoleName); role != nil {
			session.GuildMemberRoleAdd(member.GuildID, member.User.ID, role.ID)
		}
	}
	if entry.TradingMuted {
		if role := helpers.GetRoleByName(guild, helpers.GetConfig().TradingMutedRoleName); role != nil {
			session.GuildMemberRoleAdd(member.GuildID, member.User.ID, role.ID)
		}
	}
}

// OnGuildBanAdd records bans performed outside the bot
func (m *Moderation) OnGuildBanAdd(user *discordgo.GuildBanAdd, session *discordgo.Session) {
	m.recordExternalAction(user.GuildID, user.User.ID, models.ActionBan)
}

// OnGuildBanRemove records unbans performed outside the bot
func (m *Moderation) OnGuildBanRemove(user *discordgo.GuildBanRemove, session *discordgo.Session) {
	m.recordExternalAction(user.GuildID, user.User.ID, models.ActionUnban)
}

func (m *Moderation) recordExternalAction(guildID string, targetID string, actionType models.ActionType) {
	// the bot's own actions were recorded already
	count, err := helpers.MdbCount(models.ActionTable, bson.M{
		"target_id":  targetID,
		"type":       actionType,
		"created_at": bson.M{"$gt": time.Now().Add(-30 * time.Second)},
	})
	if err != nil || count > 0 {
		return
	}

	if reversed := reverseOf(actionType); reversed != "" {
		helpers.MdbCollection(models.ActionTable).UpdateAll(
			bson.M{"target_id": targetID, "type": reversed, "resolved": false},
			bson.M{"$set": bson.M{"resolved": true}},
		)
	}

	id, err := helpers.MDbReserveID(models.ActionTable)
	helpers.Relax(err)

	entry := models.ActionEntry{
		ID:        id,
		TargetID:  targetID,
		UserID:    cache.GetSession().State.User.ID,
		Type:      actionType,
		Reason:    "Performed outside the bot",
		CreatedAt: time.Now(),
		Resolved:  actionType != models.ActionBan,
	}

	_, err = helpers.MDbInsert(models.ActionTable, entry)
	helpers.Relax(err)

	m.logAction(actionRequest{GuildID: guildID}, entry)
}

func (m *Moderation) wakeUp() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *Moderation) OnMessage(content string, msg *discordgo.Message, session *discordgo.Session) {
}

func (m *Moderation) OnMessageUpdate(message *discordgo.MessageUpdate, session *discordgo.Session) {
}

func (m *Moderation) OnMessageDelete(message *discordgo.MessageDelete, session *discordgo.Session) {
}

func (m *Moderation) OnGuildMemberRemove(member *discordgo.Member, session *discordgo.Session) {
}

func (m *Moderation) OnGuildMemberUpdate(member *discordgo.GuildMemberUpdate, session *discordgo.Session) {
}

func (m *Moderation) OnReactionAdd(reaction *discordgo.MessageReactionAdd, session *discordgo.Session) {
}

func (m *Moderation) OnReactionRemove(reaction *discordgo.MessageReactionRemove, session *discordgo.Session) {
}
