// Package simulated provides deterministic stand-in discovery providers used
// when no real provider is configured, so the pipeline always has candidates.
package simulated

import (
	"context"
	"fmt"
	"time"

	"github.com/mohammad-safakhou/trendscout/tools/discovery/models"
)

// Clock is swappable for deterministic tests.
var Clock = time.Now

// Web mimics a web-search provider with two synthetic results.
type Web struct{}

func (Web) Name() string      { return "tavily" }
func (Web) Kind() models.Kind { return models.KindWebSearch }

func (Web) Discover(ctx context.Context, q string, k int, sites []string) ([]models.RawItem, error) {
	now := Clock().UTC()
	items := []models.RawItem{
		{
			Title:       fmt.Sprintf("Trending: %s", q),
			Content:     fmt.Sprintf("Recent developments in %s show significant growth and adoption.", q),
			URL:         "https://example.com/trend1",
			PublishedAt: now,
		},
		{
			Title:       fmt.Sprintf("Industry Analysis: %s", q),
			Content:     fmt.Sprintf("Market research indicates strong momentum for %s.", q),
			URL:         "https://example.com/trend2",
			PublishedAt: now.Add(-48 * time.Hour),
		},
	}
	if k > 0 && len(items) > k {
		items = items[:k]
	}
	return items, nil
}

// Social mimics a discussion-search provider with one synthetic result
// carrying a high engagement score.
type Social struct{}

func (Social) Name() string      { return "reddit" }
func (Social) Kind() models.Kind { return models.KindSocial }

func (Social) Discover(ctx context.Context, q string, k int, sites []string) ([]models.RawItem, error) {
	now := Clock().UTC()
	items := []models.RawItem{
		{
			Title:       fmt.Sprintf("Discussion: %s is gaining traction", q),
			Content:     fmt.Sprintf("Community discussion about %s shows increasing interest.", q),
			URL:         "https://reddit.com/r/technology/example",
			PublishedAt: now.Add(-24 * time.Hour),
			Metadata: map[string]any{
				"score":     150,
				"comments":  45,
				"subreddit": "technology",
			},
		},
	}
	if k > 0 && len(items) > k {
		items = items[:k]
	}
	return items, nil
}
