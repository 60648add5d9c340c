package helpers

import (
	"fmt"
	"math"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/wardenbot/warden/cache"
)

const (
	LEFT_ARROW_EMOJI  = "⬅"
	RIGHT_ARROW_EMOJI = "➡"
	X_EMOJI           = "🇽"
)

// map of messageID to pagedEmbedMessage
var (
	pagedEmbededMessages     map[string]*pagedEmbedMessage
	pagedEmbededMessagesLock sync.RWMutex
)

type pagedEmbedMessage struct {
	messageID       string
	fullEmbed       *discordgo.MessageEmbed
	channelID       string
	totalNumOfPages int
	currentPage     int
	fieldsPerPage   int
	userId          string // user who triggered the message
}

func init() {
	pagedEmbededMessages = make(map[string]*pagedEmbedMessage)
}

// GetPagedMessage will return the paged message if there is one, otherwise nil
func GetPagedMessage(messageID string) *pagedEmbedMessage {
	pagedEmbededMessagesLock.RLock()
	defer pagedEmbededMessagesLock.RUnlock()

	return pagedEmbededMessages[messageID]
}

// SendPagedMessage sends an embed users can page through with reactions
func SendPagedMessage(msg *discordgo.Message, embed *discordgo.MessageEmbed, fieldsPerPage int) error {
	// if the amount of fields fits on one page just send a normal embed
	if len(embed.Fields) < 2 || len(embed.Fields) <= fieldsPerPage {
		SendEmbed(msg.ChannelID, embed)
		return nil
	}

	if fieldsPerPage < 1 {
		return errors.New("fieldsPerPage can not be less than 1")
	}

	pagedMessage := &pagedEmbedMessage{
		fullEmbed:       embed,
		channelID:       msg.ChannelID,
		currentPage:     1,
		fieldsPerPage:   fieldsPerPage,
		totalNumOfPages: int(math.Ceil(float64(len(embed.Fields)) / float64(fieldsPerPage))),
		userId:          msg.Author.ID,
	}

	err := pagedMessage.setupAndSendFirstMessage()
	if err != nil {
		return err
	}

	pagedEmbededMessagesLock.Lock()
	pagedEmbededMessages[pagedMessage.messageID] = pagedMessage
	pagedEmbededMessagesLock.Unlock()
	return nil
}

// UpdateMessagePage will update the page based on the given direction
// reactions must be the left or right arrow
func (p *pagedEmbedMessage) UpdateMessagePage(reaction *discordgo.MessageReactionAdd) {
	// check for valid reaction
	if LEFT_ARROW_EMOJI != reaction.Emoji.Name && RIGHT_ARROW_EMOJI != reaction.Emoji.Name && X_EMOJI != reaction.Emoji.Name {
		return
	}

	// check if user who made the embed message is closing it
	if reaction.UserID == p.userId && X_EMOJI == reaction.Emoji.Name {
		pagedEmbededMessagesLock.Lock()
		delete(pagedEmbededMessages, reaction.MessageID)
		pagedEmbededMessagesLock.Unlock()

		cache.GetSession().ChannelMessageDelete(p.channelID, p.messageID)
		return
	}

	p.turnPage(reaction.Emoji.Name)

	tempEmbed := &discordgo.MessageEmbed{}
	*tempEmbed = *p.fullEmbed

	tempEmbed.Fields = p.pageFields()
	tempEmbed.Footer = p.getEmbedFooter()
	EditEmbed(p.channelID, p.messageID, tempEmbed)

	// may fail due to permissions, nothing to catch
	cache.GetSession().MessageReactionRemove(reaction.ChannelID, reaction.MessageID, reaction.Emoji.Name, reaction.UserID)
}

// turnPage moves one page in the direction of the arrow, wrapping around
func (p *pagedEmbedMessage) turnPage(emojiName string) {
	if LEFT_ARROW_EMOJI == emojiName {
		p.currentPage--
		if p.currentPage == 0 {
			p.currentPage = p.totalNumOfPages
		}
	}
	if RIGHT_ARROW_EMOJI == emojiName {
		p.currentPage++
		if p.currentPage > p.totalNumOfPages {
			p.currentPage = 1
		}
	}
}

// pageFields returns the slice of fields shown on the current page
func (p *pagedEmbedMessage) pageFields() []*discordgo.MessageEmbedField {
	startField := (p.currentPage - 1) * p.fieldsPerPage
	endField := startField + p.fieldsPerPage
	if endField > len(p.fullEmbed.Fields) {
		endField = len(p.fullEmbed.Fields)
	}

	return p.fullEmbed.Fields[startField:endField]
}

func (p *pagedEmbedMessage) setupAndSendFirstMessage() error {
	// copy the embed so changes can be made to it
	tempEmbed := &discordgo.MessageEmbed{}
	*tempEmbed = *p.fullEmbed

	// footer holds information about the page it is on
	tempEmbed.Footer = p.getEmbedFooter()
	tempEmbed.Fields = tempEmbed.Fields[:p.fieldsPerPage]

	sentMessage, err := SendEmbed(p.channelID, tempEmbed)
	if err != nil {
		return err
	}
	p.messageID = sentMessage.ID

	cache.GetSession().MessageReactionAdd(p.channelID, p.messageID, LEFT_ARROW_EMOJI)
	cache.GetSession().MessageReactionAdd(p.channelID, p.messageID, RIGHT_ARROW_EMOJI)
	cache.GetSession().MessageReactionAdd(p.channelID, p.messageID, X_EMOJI)
	return nil
}

func (p *pagedEmbedMessage) getEmbedFooter() *discordgo.MessageEmbedFooter {
	return &discordgo.MessageEmbedFooter{
		Text: fmt.Sprintf("Page: %d / %d", p.currentPage, p.totalNumOfPages),
	}
}
