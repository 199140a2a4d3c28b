package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const fastSystemPrompt = "You are a trend research analyst. Be concise and evidence-driven."

// runFast produces a research report with a single text-generation call and
// parks at the approval gate, skipping discovery entirely. Meant for cheap
// exploratory runs; the decision surface afterwards is identical to a deep run.
func (w *Workflow) runFast(ctx context.Context, query, originalQuery string, platforms []string, sessionID string, events chan<- Event) {
	emit(ctx, events, event(EventStep, map[string]any{"step": string(StageSynthesizing)}))

	prompt := fmt.Sprintf(`Research current trends for the query: %s

Write a short markdown research report covering the top 3-5 trends, each with
a one-line reason it matters and a source URL where you know one.

Then return a JSON object with keys:
- research_report: the markdown report
- trending_topics: array of {topic, reason, url}
- sources: array of URLs`, query)

	text, err := w.complete(ctx, fastSystemPrompt, prompt)
	report := parseFastReport(query, text, err)

	emit(ctx, events, event(EventResearchComplete, map[string]any{
		"research_report":   report.Markdown,
		"sources":           report.Sources,
		"trending_topics":   report.TrendingTopics,
		"confidence_scores": map[string]ConfidenceScore{},
	}))

	if perr := w.park(context.WithoutCancel(ctx), sessionID, originalQuery, ModeFast, platforms, DefaultScope(), report, nil); perr != nil {
		w.logger.Printf("failed to store session %s: %v", sessionID, perr)
		emit(ctx, events, event(EventError, map[string]any{"error": perr.Error()}))
		return
	}

	emit(ctx, events, event(EventApprovalRequired, map[string]any{
		"session_id": sessionID,
		"message":    "Research complete. Review the report, then approve, refine, or restart.",
	}))
}

// parseFastReport coerces a single-call research answer into a report. JSON
// tier first; otherwise the raw text becomes the report and topics are cut
// from extracted URLs.
func parseFastReport(query, text string, err error) *ResearchReport {
	if err != nil || strings.TrimSpace(text) == "" {
		return &ResearchReport{
			Markdown: fmt.Sprintf("# Trend Research Report\n\n**Query:** %s\n\nNo trends were found for this query. Consider broadening the search terms or adjusting the time window.", query),
		}
	}

	if block, ok := extractJSONObject(text); ok && strings.Contains(block, "trending_topics") {
		var parsed struct {
			Report string `json:"research_report"`
			Topics []struct {
				Topic  string `json:"topic"`
				Reason string `json:"reason"`
				URL    string `json:"url"`
			} `json:"trending_topics"`
			Sources []string `json:"sources"`
		}
		if jerr := json.Unmarshal([]byte(block), &parsed); jerr == nil && parsed.Report != "" {
			report := &ResearchReport{Markdown: parsed.Report, Sources: parsed.Sources}
			for _, t := range parsed.Topics {
				report.TrendingTopics = append(report.TrendingTopics, TrendingTopic{
					Topic:      t.Topic,
					Reason:     t.Reason,
					URL:        t.URL,
					Confidence: ConfidenceMedium,
				})
			}
			if len(report.Sources) == 0 {
				report.Sources = extractURLs(parsed.Report)
			}
			return report
		}
	}

	report := &ResearchReport{Markdown: stripFences(text), Sources: extractURLs(text)}
	for i, u := range report.Sources {
		report.TrendingTopics = append(report.TrendingTopics, TrendingTopic{
			Topic:      fmt.Sprintf("Trend %d", i+1),
			Reason:     "Identified in research summary",
			URL:        u,
			Confidence: ConfidenceLow,
		})
	}
	return report
}
