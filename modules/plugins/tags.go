package plugins

import (
	"sort"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	"github.com/globalsign/mgo"
	"github.com/globalsign/mgo/bson"
	"github.com/renstrom/fuzzysearch/fuzzy"
	"github.com/wardenbot/warden/helpers"
	"github.com/wardenbot/warden/models"
)

type Tags struct{}

var reservedTagNames = []string{
	"create", "make", "add", "alias", "edit", "forceedit", "delete", "remove",
	"forcedelete", "transfer", "forcetransfer", "claim", "info", "raw", "all",
	"search", "list",
}

func (t *Tags) Commands() []string {
	return []string{
		"tag",
		"tags",
	}
}

func (t *Tags) Init(session *discordgo.Session) {
	err := helpers.MdbCollection(models.TagTable).EnsureIndex(mgo.Index{
		Key:    []string{"name"},
		Unique: true,
	})
	helpers.Relax(err)
}

func (t *Tags) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	args := strings.Fields(content)

	if command == "tags" {
		t.listUserTags(msg, args)
		return
	}

	if len(args) < 1 {
		helpers.SendMessage(msg.ChannelID, ":x: Which tag?")
		return
	}

	switch args[0] {
	case "create", "make", "add":
		t.createTag(msg, args, content, false)
	case "alias":
		t.createTag(msg, args, content, true)
	case "edit":
		t.editTag(msg, args, content, false)
	case "forceedit":
		helpers.RequireMod(msg, func() {
			t.editTag(msg, args, content, true)
		})
	case "delete", "remove":
		t.deleteTag(msg, args, false)
	case "forcedelete":
		helpers.RequireMod(msg, func() {
			t.deleteTag(msg, args, true)
		})
	case "transfer":
		t.transferTag(msg, args, false)
	case "forcetransfer":
		helpers.RequireMod(msg, func() {
			t.transferTag(msg, args, true)
		})
	case "claim":
		t.claimTag(msg, args)
	case "info":
		t.tagInfo(msg, args)
	case "raw":
		t.showTag(msg, args[1:], true)
	case "all":
		t.listAllTags(msg)
	case "search":
		t.searchTags(msg, args)
	case "list":
		t.listUserTags(msg, args[1:])
	default:
		t.showTag(msg, args, false)
	}
}

func (t *Tags) showTag(msg *discordgo.Message, args []string, raw bool) {
	if len(args) < 1 {
		helpers.SendMessage(msg.ChannelID, ":x: Which tag?")
		return
	}
	name := normalizeTagName(strings.Join(args, " "))

	tag, err := resolveTag(name)
	if helpers.IsMdbNotFound(err) {
		helpers.SendMessage(msg.ChannelID, ":x: Tag `"+name+"` not found.")
		return
	}
	helpers.Relax(err)

	// count the use on the resolved tag
	helpers.MDbUpdateQuery(models.TagTable,
		bson.M{"_id": tag.ID},
		bson.M{"$inc": bson.M{"uses": 1}},
	)

	content := tag.Content
	if raw {
		content = escapeMarkdown(content)
	}

	helpers.SendMessage(msg.ChannelID, content)
}

func (t *Tags) createTag(msg *discordgo.Message, args []string, content string, asAlias bool) {
	if len(args) < 3 {
		helpers.SendMessage(msg.ChannelID, ":x: Usage: `tag "+args[0]+" <name> <content>`")
		return
	}

	name := normalizeTagName(args[1])
	body := strings.TrimSpace(strings.Join(strings.Fields(content)[2:], " "))

	if isReservedTagName(name) {
		helpers.SendMessage(msg.ChannelID, ":x: `"+name+"` is a reserved name.")
		return
	}

	entry := models.TagEntry{
		Name:    name,
		OwnerID: msg.Author.ID,
	}
	if asAlias {
		original := normalizeTagName(body)
		_, err := resolveTag(original)
		if helpers.IsMdbNotFound(err) {
			helpers.SendMessage(msg.ChannelID, ":x: Tag `"+original+"` not found.")
			return
		}
		helpers.Relax(err)
		entry.Alias = true
		entry.Original = original
	} else {
		entry.Content = body
	}

	_, err := helpers.MDbInsert(models.TagTable, entry)
	if err != nil && mgo.IsDup(err) {
		helpers.SendMessage(msg.ChannelID, ":x: Tag `"+name+"` already exists.")
		return
	}
	helpers.Relax(err)

	what := "Tag"
	if asAlias {
		what = "Alias"
	}
	helpers.SendMessage(msg.ChannelID, ":white_check_mark: "+what+" `"+name+"` created.")
}

func (t *Tags) editTag(msg *discordgo.Message, args []string, content string, force bool) {
	if len(args) < 3 {
		helpers.SendMessage(msg.ChannelID, ":x: Usage: `tag edit <name> <new content>`")
		return
	}

	name := normalizeTagName(args[1])
	body := strings.TrimSpace(strings.Join(strings.Fields(content)[2:], " "))

	tag, err := findTag(name)
	if helpers.IsMdbNotFound(err) {
		helpers.SendMessage(msg.ChannelID, ":x: Tag `"+name+"` not found.")
		return
	}
	helpers.Relax(err)

	if tag.Alias {
		helpers.SendMessage(msg.ChannelID, ":x: `"+name+"` is an alias, edit `"+tag.Original+"` instead.")
		return
	}
	if !force && tag.OwnerID != msg.Author.ID {
		helpers.SendMessage(msg.ChannelID, ":x: You don't own this tag.")
		return
	}

	tag.Content = body
	err = helpers.MDbUpdate(models.TagTable, tag.ID, tag)
	helpers.Relax(err)

	helpers.SendMessage(msg.ChannelID, ":white_check_mark: Tag `"+name+"` updated.")
}

func (t *Tags) deleteTag(msg *discordgo.Message, args []string, force bool) {
	if len(args) < 2 {
		helpers.SendMessage(msg.ChannelID, ":x: Which tag?")
		return
	}

	name := normalizeTagName(strings.Join(args[1:], " "))

	tag, err := findTag(name)
	if helpers.IsMdbNotFound(err) {
		helpers.SendMessage(msg.ChannelID, ":x: Tag `"+name+"` not found.")
		return
	}
	helpers.Relax(err)

	if !force && tag.OwnerID != msg.Author.ID {
		helpers.SendMessage(msg.ChannelID, ":x: You don't own this tag.")
		return
	}

	if !helpers.ConfirmEmbed(msg.ChannelID, msg.Author,
		"Do you really want to delete the tag `"+name+"`? This can not be undone.") {
		return
	}

	err = helpers.MDbDelete(models.TagTable, tag.ID)
	helpers.Relax(err)

	// deleting a tag takes its aliases with it
	removedAliases := 0
	if !tag.Alias {
		removedAliases, err = helpers.MdbDeleteQueryAll(models.TagTable, bson.M{"alias": true, "original": tag.Name})
		helpers.Relax(err)
	}

	result := ":white_check_mark: Tag `" + name + "` deleted."
	if removedAliases > 0 {
		result += " Removed " + strconv.Itoa(removedAliases) + " alias(es)."
	}
	helpers.SendMessage(msg.ChannelID, result)
}

func (t *Tags) transferTag(msg *discordgo.Message, args []string, force bool) {
	if len(args) < 3 {
		helpers.SendMessage(msg.ChannelID, ":x: Usage: `tag transfer <name> <member>`")
		return
	}

	name := normalizeTagName(args[1])
	targetID, ok := helpers.GetUserIDFromMention(args[2])
	if !ok {
		helpers.SendMessage(msg.ChannelID, ":x: Who is that?")
		return
	}

	tag, err := findTag(name)
	if helpers.IsMdbNotFound(err) {
		helpers.SendMessage(msg.ChannelID, ":x: Tag `"+name+"` not found.")
		return
	}
	helpers.Relax(err)

	if !force && tag.OwnerID != msg.Author.ID {
		helpers.SendMessage(msg.ChannelID, ":x: You don't own this tag.")
		return
	}

	tag.OwnerID = targetID
	err = helpers.MDbUpdate(models.TagTable, tag.ID, tag)
	helpers.Relax(err)

	helpers.SendMessage(msg.ChannelID, ":white_check_mark: Tag `"+name+"` transferred to <@"+targetID+">.")
}

// claimTag hands over a tag whose owner left the guild
func (t *Tags) claimTag(msg *discordgo.Message, args []string) {
	if len(args) < 2 {
		helpers.SendMessage(msg.ChannelID, ":x: Which tag?")
		return
	}

	name := normalizeTagName(strings.Join(args[1:], " "))

	tag, err := findTag(name)
	if helpers.IsMdbNotFound(err) {
		helpers.SendMessage(msg.ChannelID, ":x: Tag `"+name+"` not found.")
		return
	}
	helpers.Relax(err)

	channel, err := helpers.GetChannel(msg.ChannelID)
	helpers.Relax(err)

	_, err = helpers.GetGuildMember(channel.GuildID, tag.OwnerID)
	if err == nil {
		helpers.SendMessage(msg.ChannelID, ":x: The owner is still in this server.")
		return
	}

	tag.OwnerID = msg.Author.ID
	err = helpers.MDbUpdate(models.TagTable, tag.ID, tag)
	helpers.Relax(err)

	helpers.SendMessage(msg.ChannelID, ":white_check_mark: Tag `"+name+"` is now yours.")
}

func (t *Tags) tagInfo(msg *discordgo.Message, args []string) {
	if len(args) < 2 {
		helpers.SendMessage(msg.ChannelID, ":x: Which tag?")
		return
	}

	name := normalizeTagName(strings.Join(args[1:], " "))

	tag, err := findTag(name)
	if helpers.IsMdbNotFound(err) {
		helpers.SendMessage(msg.ChannelID, ":x: Tag `"+name+"` not found.")
		return
	}
	helpers.Relax(err)

	fields := []*discordgo.MessageEmbedField{
		{Name: "Owner", Value: "<@" + tag.OwnerID + ">", Inline: true},
		{Name: "Uses", Value: humanize.Comma(int64(tag.Uses)), Inline: true},
	}
	if tag.Alias {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Alias of", Value: tag.Original, Inline: true,
		})
	}

	helpers.SendEmbed(msg.ChannelID, &discordgo.MessageEmbed{
		Title:  tag.Name,
		Fields: fields,
		Color:  0x0FADED,
	})
}

func (t *Tags) listAllTags(msg *discordgo.Message) {
	var tags []models.TagEntry
	err := helpers.MDbIter(helpers.MdbCollection(models.TagTable).Find(bson.M{"alias": bson.M{"$ne": true}}).Sort("-uses")).All(&tags)
	helpers.Relax(err)

	if len(tags) == 0 {
		helpers.SendMessage(msg.ChannelID, "No tags yet.")
		return
	}

	var embedFields []*discordgo.MessageEmbedField
	for _, tag := range tags {
		embedFields = append(embedFields, &discordgo.MessageEmbedField{
			Name:  tag.Name,
			Value: humanize.Comma(int64(tag.Uses)) + " use(s), owned by <@" + tag.OwnerID + ">",
		})
	}

	helpers.SendPagedMessage(msg, &discordgo.MessageEmbed{
		Title:  "All tags",
		Fields: embedFields,
		Color:  0x0FADED,
	}, 10)
}

func (t *Tags) listUserTags(msg *discordgo.Message, args []string) {
	targetID := msg.Author.ID
	if len(args) >= 1 {
		if parsedID, ok := helpers.GetUserIDFromMention(args[0]); ok {
			targetID = parsedID
		}
	}

	var tags []models.TagEntry
	err := helpers.MDbIter(helpers.MdbCollection(models.TagTable).Find(bson.M{"owner_id": targetID}).Sort("name")).All(&tags)
	helpers.Relax(err)

	if len(tags) == 0 {
		helpers.SendMessage(msg.ChannelID, "No tags found for <@"+targetID+">.")
		return
	}

	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, "`"+tag.Name+"`")
	}

	helpers.SendMessage(msg.ChannelID, "Tags of <@"+targetID+">: "+strings.Join(names, ", "))
}

func (t *Tags) searchTags(msg *discordgo.Message, args []string) {
	if len(args) < 2 {
		helpers.SendMessage(msg.ChannelID, ":x: Search for what?")
		return
	}
	query := normalizeTagName(strings.Join(args[1:], " "))

	var tags []models.TagEntry
	err := helpers.MDbIter(helpers.MdbCollection(models.TagTable).Find(nil)).All(&tags)
	helpers.Relax(err)

	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}

	ranked := fuzzy.RankFindFold(query, names)
	sort.Sort(ranked)

	if len(ranked) == 0 {
		helpers.SendMessage(msg.ChannelID, "No matching tags found.")
		return
	}
	if len(ranked) > 20 {
		ranked = ranked[:20]
	}

	matches := make([]string, 0, len(ranked))
	for _, match := range ranked {
		matches = append(matches, "`"+match.Target+"`")
	}

	helpers.SendMessage(msg.ChannelID, "Matching tags: "+strings.Join(matches, ", "))
}

// findTag fetches one tag by name without following aliases
func findTag(name string) (tag models.TagEntry, err error) {
	err = helpers.MdbOne(
		helpers.MdbCollection(models.TagTable).Find(bson.M{"name": name}),
		&tag,
	)
	return tag, err
}

// resolveTag fetches a tag by name and follows an alias to its original
func resolveTag(name string) (tag models.TagEntry, err error) {
	tag, err = findTag(name)
	if err != nil {
		return tag, err
	}

	if tag.Alias {
		return findTag(tag.Original)
	}

	return tag, nil
}

func normalizeTagName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func isReservedTagName(name string) bool {
	for _, reserved := range reservedTagNames {
		if name == reserved {
			return true
		}
	}
	return false
}

func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"*", "\\*",
		"_", "\\_",
		"`", "\\`",
		"~", "\\~",
		"|", "\\|",
		">", "\\>",
	)
	return replacer.Replace(text)
}
