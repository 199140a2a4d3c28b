package discovery

import (
	"context"
	"errors"

	"github.com/mohammad-safakhou/trendscout/tools/discovery/models"
	"github.com/mohammad-safakhou/trendscout/tools/discovery/reddit"
	"github.com/mohammad-safakhou/trendscout/tools/discovery/tavily"
)

// Discoverer is the capability all trend discovery providers implement.
// Failures are expected and non-fatal to callers.
type Discoverer interface {
	// Name is the provenance tag stamped on every returned item.
	Name() string
	Kind() models.Kind
	Discover(ctx context.Context, q string, k int, sites []string) ([]models.RawItem, error)
}

type Provider string

const (
	TavilyProvider Provider = "tavily"
	RedditProvider Provider = "reddit"
)

var ErrUnsupportedProvider = errors.New("unsupported discovery provider")

func NewDiscoverer(provider Provider, apiKey string) (Discoverer, error) {
	switch provider {
	case TavilyProvider:
		return tavily.Search{ApiKey: apiKey}, nil
	case RedditProvider:
		return reddit.Search{}, nil
	default:
		return nil, ErrUnsupportedProvider
	}
}
