// Package outline is a read-only client for the Outline knowledge base API.
package outline

import (
	"bytes"
	"io/ioutil"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"github.com/sethgrid/pester"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	ErrNotFound   = errors.New("outline: document not found")
	ErrBadRequest = errors.New("outline: bad request")
)

const (
	endpointDocumentInfo   = "/api/documents.info"
	endpointDocumentSearch = "/api/documents.search"
	endpointDocumentList   = "/api/documents.list"
)

type Client struct {
	baseURL  string
	apiToken string
	http     *pester.Client
}

func NewClient(baseURL, apiToken string) *Client {
	httpClient := pester.New()
	httpClient.Timeout = 15 * time.Second
	httpClient.MaxRetries = 2
	httpClient.Backoff = pester.ExponentialBackoff

	return &Client{
		baseURL:  baseURL,
		apiToken: apiToken,
		http:     httpClient,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// IsValidUUID reports whether text can be an Outline document or collection id
func IsValidUUID(text string) bool {
	_, err := uuid.FromString(text)
	return err == nil
}

func (c *Client) post(endpoint string, payload interface{}, result interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "outline: marshalling request")
	}

	request, err := http.NewRequest("POST", c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "outline: building request")
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+c.apiToken)

	response, err := c.http.Do(request)
	if err != nil {
		return errors.Wrap(err, "outline: request failed")
	}
	defer response.Body.Close()

	switch response.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest:
		return ErrBadRequest
	default:
		return errors.Errorf("outline: unexpected status %d", response.StatusCode)
	}

	data, err := ioutil.ReadAll(response.Body)
	if err != nil {
		return errors.Wrap(err, "outline: reading response")
	}

	return errors.Wrap(json.Unmarshal(data, result), "outline: decoding response")
}

// FetchDocument retrieves a single document by id
func (c *Client) FetchDocument(documentID string) (document Document, err error) {
	var result struct {
		Data Document `json:"data"`
	}

	err = c.post(endpointDocumentInfo, map[string]interface{}{
		"id": documentID,
	}, &result)
	if err != nil {
		return Document{}, err
	}

	return result.Data, nil
}

// SearchDocuments runs a ranked full text search, optionally scoped to one
// collection. Results below rankingThreshold are filtered out.
func (c *Client) SearchDocuments(query string, collectionID string, limit int, rankingThreshold float64) (results []SearchResult, err error) {
	payload := map[string]interface{}{
		"query": query,
		"limit": limit,
	}
	if collectionID != "" {
		payload["collectionId"] = collectionID
	}

	var result struct {
		Data []SearchResult `json:"data"`
	}

	err = c.post(endpointDocumentSearch, payload, &result)
	if err != nil {
		// the API answers 404/400 for empty result sets on some queries
		if err == ErrNotFound || err == ErrBadRequest {
			return []SearchResult{}, nil
		}
		return nil, err
	}

	results = make([]SearchResult, 0, len(result.Data))
	for _, searchResult := range result.Data {
		if searchResult.Ranking >= rankingThreshold {
			results = append(results, searchResult)
		}
	}

	return results, nil
}

// ListDocuments lists documents, optionally scoped to one collection
func (c *Client) ListDocuments(collectionID string, limit int) (documents []Document, err error) {
	payload := map[string]interface{}{
		"limit": limit,
	}
	if collectionID != "" {
		payload["collectionId"] = collectionID
	}

	var result struct {
		Data []Document `json:"data"`
	}

	err = c.post(endpointDocumentList, payload, &result)
	if err != nil {
		return nil, err
	}

	return result.Data, nil
}
