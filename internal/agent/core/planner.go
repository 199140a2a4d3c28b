package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/trendscout/tools/discovery"
	"github.com/mohammad-safakhou/trendscout/tools/discovery/simulated"
)

const scopeSystemPrompt = "You are a research planning assistant. Analyze queries and determine appropriate research scope."

// planScope infers the research scope for a query. Contract: never fails.
// Structured extraction first, keyword heuristics second, hard default last.
func (w *Workflow) planScope(ctx context.Context, query string) Scope {
	prompt := fmt.Sprintf(`Analyze the following query and automatically determine the research scope:
Query: %s

Determine:
1. Time window: How recent should the trends be? (e.g., "last 7 days", "last 30 days", "last 3 months")
2. Region: What geographic region is relevant? (e.g., "global", "US", "Europe", "Asia")
3. Domain: What industry/domain is this about? (e.g., "technology", "marketing", "consumer goods", "finance")

Return a JSON object with keys: time_window, region, domain`, query)

	text, err := w.complete(ctx, scopeSystemPrompt, prompt)
	if err != nil {
		w.logger.Printf("scope inference failed, using default scope: %v", err)
		return DefaultScope()
	}
	return parseScope(text)
}

// parseScope coerces a free-text scope answer into a Scope.
func parseScope(text string) Scope {
	scope := DefaultScope()

	if block, ok := extractJSONObject(text); ok {
		var parsed Scope
		if err := json.Unmarshal([]byte(block), &parsed); err == nil {
			if parsed.TimeWindow != "" {
				scope.TimeWindow = parsed.TimeWindow
			}
			if parsed.Region != "" {
				scope.Region = parsed.Region
			}
			if parsed.Domain != "" {
				scope.Domain = parsed.Domain
			}
			return scope
		}
	}

	// Lenient tier: infer the time window from prose.
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "week") || strings.Contains(lower, "7 days"):
		scope.TimeWindow = "last 7 days"
	case strings.Contains(lower, "month") || strings.Contains(lower, "30 days"):
		scope.TimeWindow = "last 30 days"
	case strings.Contains(lower, "quarter") || strings.Contains(lower, "3 months"):
		scope.TimeWindow = "last 3 months"
	}
	return scope
}

// selectProviders returns every configured discovery provider, or the fixed
// simulated pair when none are configured so downstream stages always have
// at least synthetic data to work with.
func (w *Workflow) selectProviders() []discovery.Discoverer {
	if len(w.discoverers) > 0 {
		return w.discoverers
	}
	return []discovery.Discoverer{simulated.Web{}, simulated.Social{}}
}

func providerNames(providers []discovery.Discoverer) []string {
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name()
	}
	return names
}
