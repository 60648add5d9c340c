package plugins

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/bwmarrin/discordgo"
	"github.com/wardenbot/warden/helpers"
	"golang.org/x/text/unicode/norm"
)

// Names keeps display names sortable and mentionable: fancy unicode gets
// folded to its plain form, URLs and hoisting symbols get stripped. Members
// whose name normalizes to nothing become "User".
type Names struct{}

const (
	nameFallback  = "User"
	nameMaxLength = 32
)

var nameURLRegex = regexp.MustCompile(`(?i)\b(?:https?://|www\.|discord\.gg/)\S*`)

func (n *Names) Commands() []string {
	return []string{
		"normalizename",
	}
}

func (n *Names) Init(session *discordgo.Session) {
}

func (n *Names) Uninit(session *discordgo.Session) {
}

// normalizeName folds the name to NFKC, strips URLs and leading symbols and
// caps the length. Returns the fallback when nothing displayable remains
func normalizeName(name string) string {
	name = norm.NFKC.String(name)
	name = nameURLRegex.ReplaceAllString(name, "")

	// drop leading characters that hoist the name above letters in the
	// member list
	name = strings.TrimLeftFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	name = strings.TrimSpace(name)

	if runes := []rune(name); len(runes) > nameMaxLength {
		name = string(runes[:nameMaxLength])
	}

	if name == "" {
		return nameFallback
	}
	return name
}

// displayName is the name the member list shows
func displayName(member *discordgo.Member) string {
	if member.Nick != "" {
		return member.Nick
	}
	if member.User != nil {
		return member.User.Username
	}
	return ""
}

func (n *Names) enforce(session *discordgo.Session, member *discordgo.Member) {
	if member.User == nil || member.User.Bot {
		return
	}

	current := displayName(member)
	normalized := normalizeName(current)
	if normalized == current {
		return
	}

	// fails when the member outranks the bot, nothing to do then
	session.GuildMemberNickname(member.GuildID, member.User.ID, normalized)
}

func (n *Names) OnGuildMemberAdd(member *discordgo.Member, session *discordgo.Session) {
	n.enforce(session, member)
}

func (n *Names) OnGuildMemberUpdate(member *discordgo.GuildMemberUpdate, session *discordgo.Session) {
	n.enforce(session, member.Member)
}

func (n *Names) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	helpers.RequireMod(msg, func() {
		channel, err := helpers.GetChannel(msg.ChannelID)
		helpers.Relax(err)

		args := strings.Fields(content)
		if len(args) < 1 {
			helpers.SendMessage(msg.ChannelID, ":x: Usage: `normalizename <member>`")
			return
		}
		targetID, ok := helpers.GetUserIDFromMention(args[0])
		if !ok {
			helpers.SendMessage(msg.ChannelID, ":x: Who is that?")
			return
		}

		member, err := helpers.GetGuildMember(channel.GuildID, targetID)
		if err != nil {
			helpers.SendMessage(msg.ChannelID, ":x: That member is not on this server.")
			return
		}
		member.GuildID = channel.GuildID

		normalized := normalizeName(displayName(member))
		err = session.GuildMemberNickname(channel.GuildID, targetID, normalized)
		helpers.RelaxMessage(err, msg.ChannelID, msg.ID)

		helpers.SendMessage(msg.ChannelID, ":white_check_mark: <@"+targetID+"> is now called **"+normalized+"**.")
	})
}

func (n *Names) OnMessage(content string, msg *discordgo.Message, session *discordgo.Session) {
}

func (n *Names) OnMessageUpdate(message *discordgo.MessageUpdate, session *discordgo.Session) {
}

func (n *Names) OnMessageDelete(message *discordgo.MessageDelete, session *discordgo.Session) {
}

func (n *Names) OnGuildMemberRemove(member *discordgo.Member, session *discordgo.Session) {
}

func (n *Names) OnReactionAdd(reaction *discordgo.MessageReactionAdd, session *discordgo.Session) {
}

func (n *Names) OnReactionRemove(reaction *discordgo.MessageReactionRemove, session *discordgo.Session) {
}

func (n *Names) OnGuildBanAdd(user *discordgo.GuildBanAdd, session *discordgo.Session) {
}

func (n *Names) OnGuildBanRemove(user *discordgo.GuildBanRemove, session *discordgo.Session) {
}
