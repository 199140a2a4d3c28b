package core

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mohammad-safakhou/trendscout/tools/discovery"
	"github.com/mohammad-safakhou/trendscout/tools/discovery/simulated"
	"github.com/mohammad-safakhou/trendscout/utils"
)

const enrichmentSystemPrompt = "You are a trend analysis expert. Provide concise, actionable insights."

// retrieve fans out to every selected provider concurrently. A provider
// error is logged and skipped; it never aborts retrieval from the others.
// When every provider fails, retrieval falls back to the synthetic pair so
// downstream stages always have at least one candidate. Results keep
// provider order so runs are reproducible under test.
func (w *Workflow) retrieve(ctx context.Context, providers []discovery.Discoverer, query string, scope Scope, platforms []string) []TrendCandidate {
	searchQuery := fmt.Sprintf("%s %s trends %s", query, scope.Domain, scope.TimeWindow)
	domains := w.cfg.TrendSourcesFor(platforms)

	out, allFailed := w.discover(ctx, providers, searchQuery, domains)
	if len(out) == 0 && allFailed {
		w.logger.Printf("all discovery providers failed, falling back to synthetic data")
		out, _ = w.discover(ctx, []discovery.Discoverer{simulated.Web{}, simulated.Social{}}, searchQuery, domains)
	}
	if max := w.cfg.Discovery.MaxCandidates; len(out) > max {
		out = out[:max]
	}
	return out
}

func (w *Workflow) discover(ctx context.Context, providers []discovery.Discoverer, searchQuery string, domains []string) ([]TrendCandidate, bool) {
	perProvider := make([][]TrendCandidate, len(providers))
	failed := make([]bool, len(providers))
	var wg sync.WaitGroup
	for i, p := range providers {
		wg.Add(1)
		go func(slot int, p discovery.Discoverer) {
			defer wg.Done()
			items, err := p.Discover(ctx, searchQuery, w.cfg.Discovery.MaxResults, domains)
			w.telemetry.RecordProviderCall(p.Name(), err)
			if err != nil {
				w.logger.Printf("discovery provider %s failed: %v", p.Name(), err)
				failed[slot] = true
				return
			}
			candidates := make([]TrendCandidate, 0, len(items))
			for _, item := range items {
				candidates = append(candidates, TrendCandidate{
					Title:       item.Title,
					Content:     item.Content,
					URL:         item.URL,
					PublishedAt: item.PublishedAt,
					Provenance:  p.Name(),
					Kind:        p.Kind(),
					Metadata:    item.Metadata,
				})
			}
			perProvider[slot] = candidates
		}(i, p)
	}
	wg.Wait()

	var out []TrendCandidate
	allFailed := len(providers) > 0
	for i, candidates := range perProvider {
		if !failed[i] {
			allFailed = false
		}
		out = append(out, candidates...)
	}
	return out, allFailed
}

// enrich runs one text-generation call per candidate, concurrently. An
// enrichment failure degrades that candidate to a fallback summary; it never
// drops the candidate or disturbs the order and count of the batch.
func (w *Workflow) enrich(ctx context.Context, candidates []TrendCandidate) []EnrichedTrend {
	enriched := make([]EnrichedTrend, len(candidates))
	var wg sync.WaitGroup
	for i, candidate := range candidates {
		wg.Add(1)
		go func(slot int, c TrendCandidate) {
			defer wg.Done()
			enriched[slot] = w.enrichOne(ctx, c)
		}(i, candidate)
	}
	wg.Wait()
	return enriched
}

func (w *Workflow) enrichOne(ctx context.Context, c TrendCandidate) EnrichedTrend {
	prompt := fmt.Sprintf(`Analyze this trend candidate and provide:
1. A 1-2 sentence summary
2. Why this trend matters for marketing
3. Key supporting evidence points

Trend: %s
Content: %s
Source: %s

Return JSON with: summary, why_it_matters, key_evidence`,
		c.Title, utils.Truncate(c.Content, 500), c.Provenance)

	text, err := w.complete(ctx, enrichmentSystemPrompt, prompt)
	if err != nil {
		w.logger.Printf("enrichment failed for %q: %v", c.Title, err)
		return fallbackEnrichment(c)
	}
	return parseEnrichment(c, text)
}

// parseEnrichment coerces the enrichment answer; malformed output degrades
// to the raw text rather than excluding the candidate.
func parseEnrichment(c TrendCandidate, text string) EnrichedTrend {
	out := EnrichedTrend{TrendCandidate: c}
	if block, ok := extractJSONObject(text); ok {
		var parsed struct {
			Summary      string `json:"summary"`
			WhyItMatters string `json:"why_it_matters"`
			KeyEvidence  []any  `json:"key_evidence"`
		}
		if err := json.Unmarshal([]byte(block), &parsed); err == nil {
			out.Summary = parsed.Summary
			out.WhyItMatters = parsed.WhyItMatters
			for _, ev := range parsed.KeyEvidence {
				if s := utils.Str(ev); s != "" {
					out.KeyEvidence = append(out.KeyEvidence, s)
				}
			}
		}
	}
	if out.Summary == "" {
		out.Summary = utils.Truncate(text, 200)
	}
	if out.WhyItMatters == "" {
		out.WhyItMatters = "Relevant trend for target audience"
	}
	if len(out.KeyEvidence) == 0 && c.URL != "" {
		out.KeyEvidence = []string{c.URL}
	}
	return out
}

func fallbackEnrichment(c TrendCandidate) EnrichedTrend {
	summary := c.Title
	if summary == "" {
		summary = utils.Truncate(c.Content, 200)
	}
	out := EnrichedTrend{
		TrendCandidate: c,
		Summary:        summary,
		WhyItMatters:   "Relevant trend for marketing",
	}
	if c.URL != "" {
		out.KeyEvidence = []string{c.URL}
	}
	return out
}
