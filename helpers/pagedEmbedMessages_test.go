package helpers

import (
	"math"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func pagedFixture(fieldCount, fieldsPerPage int) *pagedEmbedMessage {
	fields := make([]*discordgo.MessageEmbedField, 0, fieldCount)
	for i := 0; i < fieldCount; i++ {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "field", Value: "value"})
	}

	return &pagedEmbedMessage{
		fullEmbed:       &discordgo.MessageEmbed{Fields: fields},
		currentPage:     1,
		fieldsPerPage:   fieldsPerPage,
		totalNumOfPages: int(math.Ceil(float64(fieldCount) / float64(fieldsPerPage))),
	}
}

func TestTurnPageWrapsAround(t *testing.T) {
	paged := pagedFixture(25, 10)
	if paged.totalNumOfPages != 3 {
		t.Fatalf("expected 3 pages for 25 fields at 10 per page, got %d", paged.totalNumOfPages)
	}

	paged.turnPage(RIGHT_ARROW_EMOJI)
	if paged.currentPage != 2 {
		t.Fatalf("expected page 2, got %d", paged.currentPage)
	}

	paged.turnPage(RIGHT_ARROW_EMOJI)
	paged.turnPage(RIGHT_ARROW_EMOJI)
	if paged.currentPage != 1 {
		t.Fatalf("expected wrap to page 1, got %d", paged.currentPage)
	}

	paged.turnPage(LEFT_ARROW_EMOJI)
	if paged.currentPage != 3 {
		t.Fatalf("expected wrap back to last page, got %d", paged.currentPage)
	}

	paged.turnPage(X_EMOJI)
	if paged.currentPage != 3 {
		t.Fatalf("expected non-arrow emoji to leave page alone, got %d", paged.currentPage)
	}
}

func TestPageFields(t *testing.T) {
	paged := pagedFixture(25, 10)

	if got := len(paged.pageFields()); got != 10 {
		t.Fatalf("expected 10 fields on page 1, got %d", got)
	}

	paged.currentPage = 3
	if got := len(paged.pageFields()); got != 5 {
		t.Fatalf("expected 5 fields on the short last page, got %d", got)
	}

	paged.currentPage = 2
	fields := paged.pageFields()
	if len(fields) != 10 {
		t.Fatalf("expected 10 fields on page 2, got %d", len(fields))
	}
}

func TestPageFieldsExactFit(t *testing.T) {
	paged := pagedFixture(20, 10)
	if paged.totalNumOfPages != 2 {
		t.Fatalf("expected 2 pages for 20 fields at 10 per page, got %d", paged.totalNumOfPages)
	}

	paged.currentPage = 2
	if got := len(paged.pageFields()); got != 10 {
		t.Fatalf("expected full last page, got %d fields", got)
	}
}
