package core

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mohammad-safakhou/trendscout/tools/discovery/models"
)

func TestScoreTrendEvidenceBreadthDrivesLevel(t *testing.T) {
	now := time.Now()
	cases := []struct {
		evidence []string
		want     ConfidenceLevel
	}{
		{[]string{"https://a.example", "https://b.example"}, ConfidenceHigh},
		{[]string{"https://a.example"}, ConfidenceMedium},
		{nil, ConfidenceLow},
		{[]string{"not a url", "also not"}, ConfidenceLow},
	}
	for _, tc := range cases {
		trend := EnrichedTrend{KeyEvidence: tc.evidence}
		if got := scoreTrend(trend, now).Level; got != tc.want {
			t.Fatalf("evidence %v: level = %s, want %s", tc.evidence, got, tc.want)
		}
	}
}

func TestScoreTrendRationaleSignals(t *testing.T) {
	now := time.Now()

	web := EnrichedTrend{TrendCandidate: TrendCandidate{
		Kind:        models.KindWebSearch,
		PublishedAt: now.Add(-2 * 24 * time.Hour),
	}}
	score := scoreTrend(web, now)
	if !strings.Contains(score.Rationale, "High-quality web source") {
		t.Fatalf("missing web source rationale: %q", score.Rationale)
	}
	if !strings.Contains(score.Rationale, "Very recent (within 7 days)") {
		t.Fatalf("missing recency rationale: %q", score.Rationale)
	}

	social := EnrichedTrend{TrendCandidate: TrendCandidate{
		Kind:        models.KindSocial,
		Metadata:    map[string]any{"score": 150},
		PublishedAt: now.Add(-20 * 24 * time.Hour),
	}}
	score = scoreTrend(social, now)
	if !strings.Contains(score.Rationale, "High Reddit engagement") {
		t.Fatalf("missing engagement rationale: %q", score.Rationale)
	}
	if !strings.Contains(score.Rationale, "Recent (within 30 days)") {
		t.Fatalf("missing recency rationale: %q", score.Rationale)
	}

	quiet := EnrichedTrend{TrendCandidate: TrendCandidate{
		Kind:     models.KindSocial,
		Metadata: map[string]any{"score": 12},
	}}
	if r := scoreTrend(quiet, now).Rationale; !strings.Contains(r, "Moderate Reddit engagement") {
		t.Fatalf("missing moderate engagement rationale: %q", r)
	}
}

func TestScoreTrendRationaleOrder(t *testing.T) {
	now := time.Now()
	trend := EnrichedTrend{
		TrendCandidate: TrendCandidate{
			Kind:        models.KindWebSearch,
			PublishedAt: now.Add(-2 * 24 * time.Hour),
		},
		KeyEvidence: []string{"https://a.example", "https://b.example"},
	}
	score := scoreTrend(trend, now)
	want := "High-quality web source; Very recent (within 7 days); Multiple supporting sources"
	if score.Rationale != want {
		t.Fatalf("rationale = %q, want %q", score.Rationale, want)
	}
	if score.Level != ConfidenceHigh {
		t.Fatalf("unexpected level: %s", score.Level)
	}
}

func TestScoreTrendDefaultRationale(t *testing.T) {
	score := scoreTrend(EnrichedTrend{}, time.Now())
	if score.Rationale != "Standard trend analysis" {
		t.Fatalf("unexpected rationale: %q", score.Rationale)
	}
	if score.Level != ConfidenceLow {
		t.Fatalf("unexpected level: %s", score.Level)
	}
}

func TestSynthesizeEmptyCandidates(t *testing.T) {
	w := newTestWorkflow(t, &failingLLM{}, nil)
	report, scores := w.synthesize(context.Background(), "quantum knitting", DefaultScope(), nil)
	if !strings.Contains(report.Markdown, "No trends were found") {
		t.Fatalf("expected empty-result report, got: %s", report.Markdown)
	}
	if len(scores) != 0 {
		t.Fatalf("expected no scores, got %v", scores)
	}
}

func TestSynthesizeFallbackReportOnRenderFailure(t *testing.T) {
	w := newTestWorkflow(t, &failingLLM{}, nil)
	enriched := []EnrichedTrend{
		{
			TrendCandidate: TrendCandidate{Title: "AI copilots", URL: "https://example.com/ai"},
			Summary:        "Copilots everywhere",
			WhyItMatters:   "Changes daily tooling",
			KeyEvidence:    []string{"https://example.com/ai"},
		},
	}
	report, scores := w.synthesize(context.Background(), "dev tools", DefaultScope(), enriched)
	if !strings.Contains(report.Markdown, "AI copilots") {
		t.Fatalf("fallback report missing trend title: %s", report.Markdown)
	}
	if len(scores) != 1 {
		t.Fatalf("expected 1 score, got %d", len(scores))
	}
	if _, ok := scores["trend_0"]; !ok {
		t.Fatalf("expected trend_0 key, got %v", scores)
	}
	if len(report.Sources) != 1 || report.Sources[0] != "https://example.com/ai" {
		t.Fatalf("unexpected sources: %v", report.Sources)
	}
	if len(report.TrendingTopics) != 1 || report.TrendingTopics[0].Topic != "AI copilots" {
		t.Fatalf("unexpected topics: %v", report.TrendingTopics)
	}
}

func TestSynthesizeCapsTopTrends(t *testing.T) {
	w := newTestWorkflow(t, &failingLLM{}, nil)
	var enriched []EnrichedTrend
	for i := 0; i < 14; i++ {
		enriched = append(enriched, EnrichedTrend{
			TrendCandidate: TrendCandidate{Title: "t", URL: "https://example.com"},
			Summary:        "s",
		})
	}
	_, scores := w.synthesize(context.Background(), "q", DefaultScope(), enriched)
	if len(scores) != maxTopTrends {
		t.Fatalf("expected %d scores, got %d", maxTopTrends, len(scores))
	}
}
