package sitefind

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/FranksOps/harrier/pkg/httpclient"
)

const defaultCSEEndpoint = "https://www.googleapis.com/customsearch/v1"

// GoogleCSE queries the Google Custom Search JSON API. The API returns at
// most ten results per request, so larger limits paginate via the start
// offset.
type GoogleCSE struct {
	client   *httpclient.Client
	apiKey   string
	engineID string
	endpoint string
}

// NewGoogleCSE builds a provider for the given API credentials.
func NewGoogleCSE(client *httpclient.Client, apiKey, engineID string) *GoogleCSE {
	return &GoogleCSE{
		client:   client,
		apiKey:   apiKey,
		engineID: engineID,
		endpoint: defaultCSEEndpoint,
	}
}

type cseResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

// Search pages through the API until limit candidates are collected or the
// results run out.
func (g *GoogleCSE) Search(ctx context.Context, query string, limit int) ([]Candidate, error) {
	if limit <= 0 {
		limit = 10
	}

	var out []Candidate
	for start := 1; len(out) < limit; start += 10 {
		page, err := g.page(ctx, query, start)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		out = append(out, page...)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (g *GoogleCSE) page(ctx context.Context, query string, start int) ([]Candidate, error) {
	q := url.Values{}
	q.Set("key", g.apiKey)
	q.Set("cx", g.engineID)
	q.Set("q", query)
	q.Set("start", strconv.Itoa(start))

	resp, err := g.client.Get(ctx, g.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("custom search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("custom search status %d: %s", resp.StatusCode, body)
	}

	var parsed cseResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode custom search response: %w", err)
	}

	out := make([]Candidate, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		out = append(out, Candidate{URL: item.Link, Title: item.Title, Snippet: item.Snippet})
	}
	return out, nil
}
