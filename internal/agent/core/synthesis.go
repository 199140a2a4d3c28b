package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mohammad-safakhou/trendscout/tools/discovery/models"
	"github.com/mohammad-safakhou/trendscout/utils"
)

const (
	maxTopTrends = 10

	reportSystemPrompt = "You are a research analyst. Produce clear, well-structured markdown reports."
)

// synthesize selects the top trends, scores them, and renders the research
// report. It is total: with zero candidates it still yields a minimal report
// stating that nothing was found, and a render failure degrades to a
// structured fallback built from the enriched data alone.
func (w *Workflow) synthesize(ctx context.Context, query string, scope Scope, enriched []EnrichedTrend) (*ResearchReport, map[string]ConfidenceScore) {
	if len(enriched) == 0 {
		return &ResearchReport{
			Markdown: fmt.Sprintf("# Trend Research Report\n\n**Query:** %s\n\nNo trends were found for this query. Consider broadening the search terms or adjusting the time window.", query),
		}, map[string]ConfidenceScore{}
	}

	top := enriched
	if len(top) > maxTopTrends {
		top = top[:maxTopTrends]
	}

	scores := make(map[string]ConfidenceScore, len(top))
	now := time.Now()
	for i, t := range top {
		scores[fmt.Sprintf("trend_%d", i)] = scoreTrend(t, now)
	}

	report := w.renderReport(ctx, query, scope, top, scores)
	report.Sources = collectSources(top)
	report.TrendingTopics = buildTopics(top, scores)
	return report, scores
}

// scoreTrend derives a confidence verdict for one trend. The level follows
// evidence breadth alone; provenance and recency signals only add rationale.
// Rationale order is fixed: provenance, recency, evidence.
func scoreTrend(t EnrichedTrend, now time.Time) ConfidenceScore {
	var rationale []string

	switch t.Kind {
	case models.KindWebSearch:
		rationale = append(rationale, "High-quality web source")
	case models.KindSocial:
		if score, ok := t.Metadata["score"].(int); ok && score > 100 {
			rationale = append(rationale, "High Reddit engagement")
		} else if f, ok := t.Metadata["score"].(float64); ok && f > 100 {
			rationale = append(rationale, "High Reddit engagement")
		} else {
			rationale = append(rationale, "Moderate Reddit engagement")
		}
	}

	if !t.PublishedAt.IsZero() {
		age := now.Sub(t.PublishedAt)
		switch {
		case age <= 7*24*time.Hour:
			rationale = append(rationale, "Very recent (within 7 days)")
		case age <= 30*24*time.Hour:
			rationale = append(rationale, "Recent (within 30 days)")
		}
	}

	evidence := 0
	for _, ev := range t.KeyEvidence {
		if strings.HasPrefix(ev, "http://") || strings.HasPrefix(ev, "https://") {
			evidence++
		}
	}

	level := ConfidenceLow
	switch {
	case evidence >= 2:
		level = ConfidenceHigh
		rationale = append(rationale, "Multiple supporting sources")
	case evidence == 1:
		level = ConfidenceMedium
		rationale = append(rationale, "Single supporting source")
	}

	if len(rationale) == 0 {
		rationale = append(rationale, "Standard trend analysis")
	}
	return ConfidenceScore{Level: level, Rationale: strings.Join(rationale, "; ")}
}

// renderReport asks the model for a markdown report over the top trends. On
// failure the fallback report is assembled directly from the enriched data.
func (w *Workflow) renderReport(ctx context.Context, query string, scope Scope, top []EnrichedTrend, scores map[string]ConfidenceScore) *ResearchReport {
	var sb strings.Builder
	for i, t := range top {
		score := scores[fmt.Sprintf("trend_%d", i)]
		fmt.Fprintf(&sb, "%d. %s (confidence: %s)\n   Summary: %s\n   Why it matters: %s\n   Source: %s\n",
			i+1, t.Title, score.Level, t.Summary, t.WhyItMatters, t.URL)
	}

	prompt := fmt.Sprintf(`Write a trend research report in markdown for the query: %s

Research scope: %s, %s, %s

Trends found:
%s
Structure the report with:
- An executive summary
- A section per trend with its summary, why it matters, and confidence level
- A closing recommendation

Return only the markdown report.`,
		query, scope.TimeWindow, scope.Region, scope.Domain, sb.String())

	text, err := w.complete(ctx, reportSystemPrompt, prompt)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			w.logger.Printf("report rendering failed, using fallback report: %v", err)
		}
		return &ResearchReport{Markdown: fallbackReport(query, top, scores)}
	}
	return &ResearchReport{Markdown: stripFences(text)}
}

func fallbackReport(query string, top []EnrichedTrend, scores map[string]ConfidenceScore) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Trend Research Report\n\n**Query:** %s\n\n## Trends\n\n", query)
	for i, t := range top {
		score := scores[fmt.Sprintf("trend_%d", i)]
		fmt.Fprintf(&sb, "### %d. %s\n\n", i+1, t.Title)
		fmt.Fprintf(&sb, "- **Confidence:** %s (%s)\n", score.Level, score.Rationale)
		fmt.Fprintf(&sb, "- **Summary:** %s\n", t.Summary)
		fmt.Fprintf(&sb, "- **Why it matters:** %s\n", t.WhyItMatters)
		if t.URL != "" {
			fmt.Fprintf(&sb, "- **Source:** %s\n", t.URL)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func collectSources(top []EnrichedTrend) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, t := range top {
		if t.URL == "" {
			continue
		}
		if _, ok := seen[t.URL]; ok {
			continue
		}
		seen[t.URL] = struct{}{}
		out = append(out, t.URL)
	}
	return out
}

func buildTopics(top []EnrichedTrend, scores map[string]ConfidenceScore) []TrendingTopic {
	topics := make([]TrendingTopic, 0, len(top))
	for i, t := range top {
		score := scores[fmt.Sprintf("trend_%d", i)]
		topic := TrendingTopic{
			Topic:      t.Title,
			Reason:     t.WhyItMatters,
			URL:        t.URL,
			Confidence: score.Level,
		}
		if topic.Topic == "" {
			topic.Topic = utils.Truncate(t.Content, 80)
		}
		if !t.PublishedAt.IsZero() {
			topic.Timestamp = t.PublishedAt.Format(time.RFC3339)
		}
		topics = append(topics, topic)
	}
	return topics
}
