package core

import (
	"context"
	"time"

	"github.com/mohammad-safakhou/trendscout/tools/discovery/models"
)

// Stage identifies where a pipeline run is in its lifecycle. Only
// StageAwaitingApproval survives across requests (via the session store);
// every other stage runs to completion within one invocation.
type Stage string

const (
	StagePlanning         Stage = "planning"
	StageRetrieving       Stage = "retrieving"
	StageSynthesizing     Stage = "synthesizing"
	StageAwaitingApproval Stage = "awaiting_approval"
	StageGenerating       Stage = "generating"
	StageCompleted        Stage = "completed"
)

// Scope bounds a research run. Inferred once per run; falls back to
// DefaultScope when inference cannot parse anything useful.
type Scope struct {
	TimeWindow string `json:"time_window"`
	Region     string `json:"region"`
	Domain     string `json:"domain"`
}

// DefaultScope is the hard fallback when scope inference fails entirely.
func DefaultScope() Scope {
	return Scope{TimeWindow: "last 30 days", Region: "global", Domain: "general"}
}

// TrendCandidate is a raw, unscored discovery result. Immutable once created.
type TrendCandidate struct {
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	URL         string         `json:"url"`
	PublishedAt time.Time      `json:"published_at,omitempty"`
	Provenance  string         `json:"source"`
	Kind        models.Kind    `json:"-"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// EnrichedTrend is a candidate plus LLM-derived synthesis. Enrichment failure
// never drops the candidate; it degrades to a fallback summary instead.
type EnrichedTrend struct {
	TrendCandidate
	Summary      string   `json:"summary"`
	WhyItMatters string   `json:"why_it_matters"`
	KeyEvidence  []string `json:"key_evidence"`
}

// ConfidenceLevel is the three-valued confidence verdict for one trend.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "High"
	ConfidenceMedium ConfidenceLevel = "Medium"
	ConfidenceLow    ConfidenceLevel = "Low"
)

// ConfidenceScore is derived deterministically at synthesis time, keyed by
// "trend_<index>" within the selected top-N list. Never user supplied.
type ConfidenceScore struct {
	Level     ConfidenceLevel `json:"confidence"`
	Rationale string          `json:"rationale"`
}

// TrendingTopic is one reviewable line item of a research report.
type TrendingTopic struct {
	Topic      string          `json:"topic"`
	Reason     string          `json:"reason"`
	URL        string          `json:"url"`
	Timestamp  string          `json:"timestamp"`
	Confidence ConfidenceLevel `json:"confidence"`
}

// ResearchReport is the synthesized artifact parked at the approval gate.
// A refine/restart cycle produces a brand-new report, never a mutation.
type ResearchReport struct {
	Markdown       string          `json:"research_report"`
	Sources        []string        `json:"sources"`
	TrendingTopics []TrendingTopic `json:"trending_topics"`
}

// PipelineState is the per-run record threaded through the five stages.
// Owned exclusively by its run; handed to the session store only at the
// suspension point.
type PipelineState struct {
	Query         string
	Platforms     []string
	SessionID     string
	Mode          string
	Scope         Scope
	Providers     []string
	Candidates    []TrendCandidate
	Enriched      []EnrichedTrend
	Scores        map[string]ConfidenceScore
	Report        *ResearchReport
	Stage         Stage
	NeedsApproval bool
	Ideas         map[string][]string
}

// LLMProvider is the text-generation capability the pipeline depends on.
// Any failure triggers a stage-local fallback, never a pipeline abort.
type LLMProvider interface {
	Complete(ctx context.Context, system, user string) (string, error)
}
