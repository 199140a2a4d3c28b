package models

import "time"

// Kind classifies a provider for confidence scoring.
type Kind string

const (
	KindWebSearch Kind = "web_search"
	KindSocial    Kind = "social"
)

// RawItem is one unscored discovery result as returned by a provider.
type RawItem struct {
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	URL         string         `json:"url"`
	PublishedAt time.Time      `json:"published_at,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}
