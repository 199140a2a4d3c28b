package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mohammad-safakhou/trendscout/tools/discovery/models"
)

type Search struct {
	ApiKey string
}

func (s Search) Name() string      { return "tavily" }
func (s Search) Kind() models.Kind { return models.KindWebSearch }

func (s Search) Discover(ctx context.Context, q string, k int, sites []string) ([]models.RawItem, error) {
	// https://docs.tavily.com/ search endpoint
	payload := map[string]any{
		"api_key":      s.ApiKey,
		"query":        q,
		"search_depth": "advanced",
		"max_results":  k,
	}
	if len(sites) > 0 {
		payload["include_domains"] = sites
	}

	body, _ := json.Marshal(payload)
	req, _ := http.NewRequestWithContext(ctx, "POST", "https://api.tavily.com/search", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily returned status: %d", resp.StatusCode)
	}

	var raw struct {
		Results []struct {
			Title         string  `json:"title"`
			URL           string  `json:"url"`
			Content       string  `json:"content"`
			PublishedDate string  `json:"published_date"`
			Score         float64 `json:"score"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}

	var out []models.RawItem
	for i, r := range raw.Results {
		if i >= k {
			break
		}
		item := models.RawItem{
			Title:    r.Title,
			Content:  r.Content,
			URL:      r.URL,
			Metadata: map[string]any{"relevance": r.Score},
		}
		if r.PublishedDate != "" {
			for _, layout := range []string{time.RFC3339, "2006-01-02"} {
				if t, err := time.Parse(layout, r.PublishedDate); err == nil {
					item.PublishedAt = t
					break
				}
			}
		}
		out = append(out, item)
	}
	return out, nil
}
