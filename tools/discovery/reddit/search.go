package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mohammad-safakhou/trendscout/tools/discovery/models"
	"github.com/mohammad-safakhou/trendscout/utils"
)

// subreddits polled for marketing-adjacent discussion trends.
var subreddits = []string{"technology", "marketing", "entrepreneur"}

const postsPerSubreddit = 5

type Search struct{}

func (s Search) Name() string      { return "reddit" }
func (s Search) Kind() models.Kind { return models.KindSocial }

func (s Search) Discover(ctx context.Context, q string, k int, sites []string) ([]models.RawItem, error) {
	// Public listing API; no credentials required.
	var out []models.RawItem
	var lastErr error
	for _, sub := range subreddits {
		if len(out) >= k {
			break
		}
		items, err := s.searchSubreddit(ctx, sub, q)
		if err != nil {
			lastErr = err
			continue
		}
		out = append(out, items...)
	}
	if len(out) == 0 && lastErr != nil {
		return nil, lastErr
	}
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (s Search) searchSubreddit(ctx context.Context, sub, q string) ([]models.RawItem, error) {
	url := fmt.Sprintf("https://www.reddit.com/r/%s/search.json?q=%s&restrict_sr=1&sort=hot&t=month&limit=%d",
		sub, utils.UrlQuery(q), postsPerSubreddit)
	req, _ := http.NewRequestWithContext(ctx, "GET", url, nil)
	req.Header.Set("User-Agent", "trendscout/1.0")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit returned status: %d", resp.StatusCode)
	}

	var raw struct {
		Data struct {
			Children []struct {
				Data struct {
					Title       string  `json:"title"`
					Selftext    string  `json:"selftext"`
					Permalink   string  `json:"permalink"`
					CreatedUTC  float64 `json:"created_utc"`
					Score       int     `json:"score"`
					NumComments int     `json:"num_comments"`
					Author      string  `json:"author"`
				} `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}

	var out []models.RawItem
	for _, child := range raw.Data.Children {
		post := child.Data
		out = append(out, models.RawItem{
			Title:       post.Title,
			Content:     utils.Truncate(post.Selftext, 500),
			URL:         "https://reddit.com" + post.Permalink,
			PublishedAt: time.Unix(int64(post.CreatedUTC), 0).UTC(),
			Metadata: map[string]any{
				"score":     post.Score,
				"comments":  post.NumComments,
				"subreddit": sub,
				"author":    post.Author,
			},
		})
	}
	return out, nil
}
