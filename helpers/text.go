package helpers

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

const discordMessageLimit = 1992

// Pagify splits text into chunks that fit into a discord message, preferring
// to split at $delimiter
func Pagify(text string, delimiter string) (pages []string) {
	if len(text) <= discordMessageLimit {
		return []string{text}
	}

	parts := strings.Split(text, delimiter)
	page := ""
	for _, part := range parts {
		// hard-split parts that alone exceed the limit
		for len(part) > discordMessageLimit {
			if page != "" {
				pages = append(pages, page)
				page = ""
			}
			pages = append(pages, part[:discordMessageLimit])
			part = part[discordMessageLimit:]
		}

		if page == "" {
			page = part
			continue
		}

		if len(page)+len(delimiter)+len(part) > discordMessageLimit {
			pages = append(pages, page)
			page = part
			continue
		}

		page += delimiter + part
	}
	if page != "" {
		pages = append(pages, page)
	}

	return pages
}

// TruncateText shortens text to the given length, appends … if it got cut
func TruncateText(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-1]) + "…"
}

// TruncateEmbed enforces the discord embed limits on an embed
func TruncateEmbed(embed *discordgo.MessageEmbed) *discordgo.MessageEmbed {
	if embed == nil {
		return nil
	}

	embed.Title = TruncateText(embed.Title, 256)
	embed.Description = TruncateText(embed.Description, 4096)
	if embed.Footer != nil {
		embed.Footer.Text = TruncateText(embed.Footer.Text, 2048)
	}
	if embed.Author != nil {
		embed.Author.Name = TruncateText(embed.Author.Name, 256)
	}

	if len(embed.Fields) > 25 {
		embed.Fields = embed.Fields[:25]
	}
	for _, field := range embed.Fields {
		field.Name = TruncateText(field.Name, 256)
		field.Value = TruncateText(field.Value, 1024)
		if field.Name == "" {
			field.Name = "​"
		}
		if field.Value == "" {
			field.Value = "​"
		}
	}

	// total size cap, drop fields until it fits
	for embedSize(embed) > 6000 && len(embed.Fields) > 0 {
		embed.Fields = embed.Fields[:len(embed.Fields)-1]
	}

	return embed
}

func embedSize(embed *discordgo.MessageEmbed) (size int) {
	size = len(embed.Title) + len(embed.Description)
	if embed.Footer != nil {
		size += len(embed.Footer.Text)
	}
	if embed.Author != nil {
		size += len(embed.Author.Name)
	}
	for _, field := range embed.Fields {
		size += len(field.Name) + len(field.Value)
	}
	return size
}
