package plugins

import (
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	"github.com/globalsign/mgo/bson"
	"github.com/wardenbot/warden/helpers"
	"github.com/wardenbot/warden/metrics"
	"github.com/wardenbot/warden/models"
)

// Levels awards 15-25 XP per message with a 60 second cooldown and grants
// configured roles when members level up.
type Levels struct{}

const xpCooldown = 60 * time.Second

// isCommandMessage reports whether the message invokes a bot command
func isCommandMessage(content string, prefix string) bool {
	return prefix != "" && len(content) > len(prefix) && strings.HasPrefix(content, prefix)
}

func (l *Levels) Commands() []string {
	return []string{
		"xp",
		"rank",
		"setlevel",
		"levelrole",
		"leaderboard",
		"top",
	}
}

func (l *Levels) Init(session *discordgo.Session) {
}

func (l *Levels) Uninit(session *discordgo.Session) {
}

// minXPAtLevel is the total XP needed to reach a level
func minXPAtLevel(level int64) int64 {
	return (2*level*level + 27*level + 91) * level * 5 / 6
}

// levelForXP is the highest level whose threshold the XP amount clears
func levelForXP(xp int64) int64 {
	var level int64
	for minXPAtLevel(level+1) <= xp {
		level++
	}
	return level
}

func (l *Levels) OnMessage(content string, msg *discordgo.Message, session *discordgo.Session) {
	if msg.Author == nil || msg.Author.Bot {
		return
	}
	// command invocations do not earn xp
	if isCommandMessage(content, helpers.GetPrefix()) {
		return
	}

	channel, err := helpers.GetChannel(msg.ChannelID)
	if err != nil || channel.GuildID == "" {
		return
	}

	if !helpers.CooldownStart("xp:"+channel.GuildID+":"+msg.Author.ID, xpCooldown) {
		// still count the message
		helpers.MDbUpsert(models.MemberTable,
			bson.M{"_id": models.MemberID{UserID: msg.Author.ID, GuildID: channel.GuildID}},
			bson.M{"$inc": bson.M{"messages": 1}},
		)
		return
	}

	gained := int64(15 + rand.Intn(11))

	member := getMemberEntry(channel.GuildID, msg.Author.ID)
	oldLevel := int64(member.Level)
	newXP := member.XP + gained
	newLevel := levelForXP(newXP)

	err = helpers.MDbUpsert(models.MemberTable,
		bson.M{"_id": models.MemberID{UserID: msg.Author.ID, GuildID: channel.GuildID}},
		bson.M{
			"$inc": bson.M{"xp": gained, "messages": 1},
			"$set": bson.M{"name": msg.Author.Username, "discriminator": msg.Author.Discriminator},
		},
	)
	if err != nil {
		return
	}

	metrics.XpAwarded.Add(gained)

	if newLevel <= oldLevel {
		return
	}

	// conditional update guards against a concurrent level-up of the same
	// member
	err = helpers.MDbUpdateQuery(models.MemberTable,
		bson.M{
			"_id":   models.MemberID{UserID: msg.Author.ID, GuildID: channel.GuildID},
			"level": bson.M{"$ne": newLevel},
		},
		bson.M{"$set": bson.M{"level": newLevel}},
	)
	if err != nil {
		// somebody else announced this level already
		return
	}

	l.announceLevelUp(session, channel.GuildID, msg, newLevel)
	l.grantLevelRoles(session, channel.GuildID, msg.Author.ID, newLevel)
}

func (l *Levels) announceLevelUp(session *discordgo.Session, guildID string, msg *discordgo.Message, level int64) {
	guild := getGuildEntry(guildID)

	announceChannelID := guild.LevelLogsChannelID
	if announceChannelID == "" {
		announceChannelID = msg.ChannelID
	}

	helpers.SendMessage(announceChannelID,
		":tada: <@"+msg.Author.ID+"> reached **level "+strconv.FormatInt(level, 10)+"**!")
}

func (l *Levels) grantLevelRoles(session *discordgo.Session, guildID string, userID string, level int64) {
	guild := getGuildEntry(guildID)
	if len(guild.LevelRoles) == 0 {
		return
	}

	for levelText, roleID := range guild.LevelRoles {
		threshold, err := strconv.ParseInt(levelText, 10, 64)
		if err != nil || threshold > level {
			continue
		}
		session.GuildMemberRoleAdd(guildID, userID, roleID)
	}
}

func (l *Levels) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	channel, err := helpers.GetChannel(msg.ChannelID)
	helpers.Relax(err)

	switch command {
	case "xp", "rank":
		l.showRank(msg, content, channel.GuildID)

	case "setlevel":
		helpers.RequireAdmin(msg, func() {
			args := strings.Fields(content)
			if len(args) < 2 {
				helpers.SendMessage(msg.ChannelID, ":x: Usage: `setlevel <member> <level>`")
				return
			}
			targetID, ok := helpers.GetUserIDFromMention(args[0])
			if !ok {
				helpers.SendMessage(msg.ChannelID, ":x: Who is that?")
				return
			}
			level, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || level < 0 || level > 500 {
				helpers.SendMessage(msg.ChannelID, ":x: That is not a valid level.")
				return
			}

			err = helpers.MDbUpsert(models.MemberTable,
				bson.M{"_id": models.MemberID{UserID: targetID, GuildID: channel.GuildID}},
				bson.M{"$set": bson.M{"level": level, "xp": minXPAtLevel(level)}},
			)
			helpers.Relax(err)

			l.grantLevelRoles(session, channel.GuildID, targetID, level)

			helpers.SendMessage(msg.ChannelID,
				":white_check_mark: Set <@"+targetID+"> to level "+strconv.FormatInt(level, 10)+".")
		})

	case "levelrole":
		helpers.RequireAdmin(msg, func() {
			l.configureLevelRole(msg, content, channel.GuildID)
		})

	case "leaderboard", "top":
		l.leaderboard(msg, channel.GuildID)
	}
}

func (l *Levels) showRank(msg *discordgo.Message, content string, guildID string) {
	targetID := msg.Author.ID
	if args := strings.Fields(content); len(args) >= 1 {
		if parsedID, ok := helpers.GetUserIDFromMention(args[0]); ok {
			targetID = parsedID
		}
	}

	member := getMemberEntry(guildID, targetID)

	rank, err := helpers.MdbCount(models.MemberTable,
		bson.M{"_id.guild_id": guildID, "xp": bson.M{"$gt": member.XP}})
	helpers.Relax(err)

	level := levelForXP(member.XP)
	currentFloor := minXPAtLevel(level)
	nextCeiling := minXPAtLevel(level + 1)

	helpers.SendEmbed(msg.ChannelID, &discordgo.MessageEmbed{
		Title: "Rank",
		Color: 0x0FADED,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Member", Value: "<@" + targetID + ">", Inline: true},
			{Name: "Rank", Value: "#" + strconv.Itoa(rank+1), Inline: true},
			{Name: "Level", Value: strconv.FormatInt(level, 10), Inline: true},
			{Name: "XP", Value: humanize.Comma(member.XP-currentFloor) + " / " + humanize.Comma(nextCeiling-currentFloor), Inline: true},
			{Name: "Messages", Value: humanize.Comma(member.Messages), Inline: true},
		},
	})
}

func (l *Levels) configureLevelRole(msg *discordgo.Message, content string, guildID string) {
	args := strings.Fields(content)
	if len(args) < 2 {
		helpers.SendMessage(msg.ChannelID, ":x: Usage: `levelrole set <level> <role>`, `levelrole remove <level>` or `levelrole channel <channel>`")
		return
	}

	guild := getGuildEntry(guildID)
	if guild.LevelRoles == nil {
		guild.LevelRoles = make(map[string]string)
	}

	switch args[0] {
	case "channel":
		channelID, ok := helpers.GetChannelIDFromMention(args[1])
		if !ok {
			helpers.SendMessage(msg.ChannelID, ":x: Which channel?")
			return
		}
		guild.LevelLogsChannelID = channelID
		saveGuildEntry(guild)
		helpers.SendMessage(msg.ChannelID, ":white_check_mark: Level ups are announced in <#"+channelID+"> now.")

	case "set":
		if len(args) < 3 {
			helpers.SendMessage(msg.ChannelID, ":x: Usage: `levelrole set <level> <role>`")
			return
		}
		if _, err := strconv.Atoi(args[1]); err != nil {
			helpers.SendMessage(msg.ChannelID, ":x: That is not a level.")
			return
		}
		roleID, ok := helpers.GetRoleIDFromMention(args[2])
		if !ok {
			helpers.SendMessage(msg.ChannelID, ":x: Which role?")
			return
		}
		guild.LevelRoles[args[1]] = roleID
		saveGuildEntry(guild)
		helpers.SendMessage(msg.ChannelID, ":white_check_mark: Role configured for level "+args[1]+".")

	case "remove":
		if _, ok := guild.LevelRoles[args[1]]; !ok {
			helpers.SendMessage(msg.ChannelID, ":x: No role configured for that level.")
			return
		}
		delete(guild.LevelRoles, args[1])
		saveGuildEntry(guild)
		helpers.SendMessage(msg.ChannelID, ":white_check_mark: Role removed for level "+args[1]+".")
	}
}

func (l *Levels) leaderboard(msg *discordgo.Message, guildID string) {
	var topMembers []models.MemberEntry
	err := helpers.MDbIter(helpers.MdbCollection(models.MemberTable).
		Find(bson.M{"_id.guild_id": guildID, "xp": bson.M{"$gt": 0}}).
		Sort("-xp").Limit(50)).All(&topMembers)
	helpers.Relax(err)

	if len(topMembers) == 0 {
		helpers.SendMessage(msg.ChannelID, "Nobody has XP yet.")
		return
	}

	var embedFields []*discordgo.MessageEmbedField
	for i, member := range topMembers {
		name := member.Name
		if name == "" {
			name = member.ID.UserID
		}
		embedFields = append(embedFields, &discordgo.MessageEmbedField{
			Name: "#" + strconv.Itoa(i+1) + " " + name,
			Value: "Level " + strconv.FormatInt(levelForXP(member.XP), 10) +
				", " + humanize.Comma(member.XP) + " XP",
		})
	}

	helpers.SendPagedMessage(msg, &discordgo.MessageEmbed{
		Title:  "Leaderboard",
		Fields: embedFields,
		Color:  0x0FADED,
	}, 10)
}

func (l *Levels) OnMessageUpdate(message *discordgo.MessageUpdate, session *discordgo.Session) {
}

func (l *Levels) OnMessageDelete(message *discordgo.MessageDelete, session *discordgo.Session) {
}

func (l *Levels) OnGuildMemberAdd(member *discordgo.Member, session *discordgo.Session) {
}

func (l *Levels) OnGuildMemberRemove(member *discordgo.Member, session *discordgo.Session) {
}

func (l *Levels) OnGuildMemberUpdate(member *discordgo.GuildMemberUpdate, session *discordgo.Session) {
}

func (l *Levels) OnReactionAdd(reaction *discordgo.MessageReactionAdd, session *discordgo.Session) {
}

func (l *Levels) OnReactionRemove(reaction *discordgo.MessageReactionRemove, session *discordgo.Session) {
}

func (l *Levels) OnGuildBanAdd(user *discordgo.GuildBanAdd, session *discordgo.Session) {
}

func (l *Levels) OnGuildBanRemove(user *discordgo.GuildBanRemove, session *discordgo.Session) {
}
