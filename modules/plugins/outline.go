package plugins

import (
	"regexp"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/renstrom/fuzzysearch/fuzzy"
	"github.com/wardenbot/warden/cache"
	"github.com/wardenbot/warden/helpers"
	"github.com/wardenbot/warden/services/outline"
)

// Outline searches the community knowledge base, read-only.
type Outline struct{}

func (o *Outline) Commands() []string {
	return []string{
		"doc",
		"docs",
	}
}

func (o *Outline) Init(session *discordgo.Session) {
}

func (o *Outline) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	client := cache.GetOutlineClient()
	if client == nil {
		helpers.SendMessage(msg.ChannelID, ":x: The knowledge base is not configured.")
		return
	}

	args := strings.Fields(content)

	switch command {
	case "docs":
		o.listDocuments(msg, args, client)
		return
	}

	if len(args) < 1 {
		helpers.SendMessage(msg.ChannelID, ":x: Search for what?")
		return
	}

	// a document id skips the search
	if outline.IsValidUUID(args[0]) {
		o.viewDocument(msg, args[0], client)
		return
	}

	o.searchDocuments(msg, args, client)
}

func (o *Outline) viewDocument(msg *discordgo.Message, documentID string, client *outline.Client) {
	document, err := client.FetchDocument(documentID)
	if err == outline.ErrNotFound {
		helpers.SendMessage(msg.ChannelID, ":x: Document not found.")
		return
	}
	helpers.Relax(err)

	helpers.SendEmbed(msg.ChannelID, documentEmbed(document, client.BaseURL()))
}

func (o *Outline) searchDocuments(msg *discordgo.Message, args []string, client *outline.Client) {
	// a trailing "in <collection>" scopes the search
	query := strings.Join(args, " ")
	collectionID := ""
	collectionName := ""
	if index := strings.LastIndex(strings.ToLower(query), " in "); index > 0 {
		name, gated := matchCollection(query[index+4:])
		if name != "" {
			if gated && !helpers.IsMod(msg) {
				helpers.SendMessage(msg.ChannelID, ":x: That collection is staff only.")
				return
			}
			collectionName = name
			collectionID = collectionIDFor(name)
			query = strings.TrimSpace(query[:index])
		}
	}

	results, err := client.SearchDocuments(query, collectionID, 5, helpers.GetConfig().OutlineRankingFloor)
	helpers.Relax(err)

	if len(results) == 0 {
		helpers.SendMessage(msg.ChannelID, "No documents found for `"+query+"`.")
		return
	}

	// single confident hit gets rendered in full
	if len(results) == 1 {
		helpers.SendEmbed(msg.ChannelID, documentEmbed(results[0].Document, client.BaseURL()))
		return
	}

	var embedFields []*discordgo.MessageEmbedField
	for _, result := range results {
		embedFields = append(embedFields, &discordgo.MessageEmbedField{
			Name:  result.Document.Title,
			Value: helpers.TruncateText(translateOutlineMarkdown(result.Context, client.BaseURL()), 900) + "\n" + result.Document.FullURL(client.BaseURL()),
		})
	}

	title := "Documents matching `" + query + "`"
	if collectionName != "" {
		title += " in " + collectionName
	}

	helpers.SendEmbed(msg.ChannelID, &discordgo.MessageEmbed{
		Title:  title,
		Fields: embedFields,
		Color:  0x0FADED,
	})
}

func (o *Outline) listDocuments(msg *discordgo.Message, args []string, client *outline.Client) {
	collectionID := ""
	title := "Documents"
	if len(args) >= 1 {
		name, gated := matchCollection(strings.Join(args, " "))
		if name == "" {
			helpers.SendMessage(msg.ChannelID, ":x: Unknown collection.")
			return
		}
		if gated && !helpers.IsMod(msg) {
			helpers.SendMessage(msg.ChannelID, ":x: That collection is staff only.")
			return
		}
		collectionID = collectionIDFor(name)
		title = "Documents in " + name
	}

	documents, err := client.ListDocuments(collectionID, 25)
	helpers.Relax(err)

	if len(documents) == 0 {
		helpers.SendMessage(msg.ChannelID, "No documents found.")
		return
	}

	var embedFields []*discordgo.MessageEmbedField
	for _, document := range documents {
		embedFields = append(embedFields, &discordgo.MessageEmbedField{
			Name:  document.Title,
			Value: document.FullURL(client.BaseURL()),
		})
	}

	helpers.SendPagedMessage(msg, &discordgo.MessageEmbed{
		Title:  title,
		Fields: embedFields,
		Color:  0x0FADED,
	}, 10)
}

func documentEmbed(document outline.Document, baseURL string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       document.Title,
		URL:         document.FullURL(baseURL),
		Description: helpers.TruncateText(translateOutlineMarkdown(document.Text, baseURL), 4000),
		Color:       0x0FADED,
	}
	if document.CreatedBy.Name != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: "Written by " + document.CreatedBy.Name,
		}
	}
	return embed
}

var (
	outlineHeadingRegex   = regexp.MustCompile(`(?m)^#{1,6} +(.+)$`)
	outlineHighlightRegex = regexp.MustCompile(`==([^=]+)==`)
	outlineRelLinkRegex   = regexp.MustCompile(`\]\((/doc/[^)]+)\)`)
	outlineCommentRegex   = regexp.MustCompile(`(?m)^\\$`)
)

// translateOutlineMarkdown converts Outline flavored markdown into the
// subset Discord renders
func translateOutlineMarkdown(text string, baseURL string) string {
	text = outlineHeadingRegex.ReplaceAllString(text, "**$1**")
	text = outlineHighlightRegex.ReplaceAllString(text, "**$1**")
	text = outlineRelLinkRegex.ReplaceAllString(text, "]("+baseURL+"$1)")
	text = outlineCommentRegex.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// matchCollection fuzzy-matches a configured collection name, reports
// whether the collection is staff gated
func matchCollection(input string) (name string, gated bool) {
	input = strings.TrimSpace(strings.ToLower(input))

	names := make([]string, 0)
	for _, pair := range helpers.GetConfig().OutlineCollections {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) == 2 {
			names = append(names, strings.TrimSpace(parts[0]))
		}
	}

	ranked := fuzzy.RankFindFold(input, names)
	if len(ranked) == 0 {
		return "", false
	}
	sort.Sort(ranked)
	name = ranked[0].Target

	for _, staffOnly := range helpers.GetConfig().OutlineStaffCollections {
		if strings.EqualFold(staffOnly, name) {
			return name, true
		}
	}
	return name, false
}

func collectionIDFor(name string) string {
	for _, pair := range helpers.GetConfig().OutlineCollections {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) == 2 && strings.EqualFold(strings.TrimSpace(parts[0]), name) {
			return strings.TrimSpace(parts[1])
		}
	}
	return ""
}
