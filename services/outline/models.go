package outline

import "time"

// Document is an Outline knowledge base document
type Document struct {
	ID           string    `json:"id"`
	CollectionID string    `json:"collectionId"`
	Title        string    `json:"title"`
	Text         string    `json:"text"`
	URL          string    `json:"url"`
	URLID        string    `json:"urlId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	CreatedBy    User      `json:"createdBy"`
}

// User is the author information embedded in a document
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
}

// SearchResult is one ranked hit returned by documents.search
type SearchResult struct {
	Context  string   `json:"context"`
	Ranking  float64  `json:"ranking"`
	Document Document `json:"document"`
}

// FullURL returns the absolute URL of a document on the Outline instance
func (d Document) FullURL(baseURL string) string {
	return baseURL + d.URL
}
