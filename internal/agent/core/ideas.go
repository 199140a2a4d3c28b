package core

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mohammad-safakhou/trendscout/utils"
)

const (
	ideasPerPlatform = 5

	ideasSystemPrompt = "You are a creative content strategist. Generate platform-native content ideas."
)

// generateIdeas produces content ideas for every requested platform
// concurrently. Each platform always ends up with at least one idea; a
// model failure for a platform degrades to a truncated slice of the report.
func (w *Workflow) generateIdeas(ctx context.Context, report string, platforms []string) map[string][]string {
	ideas := make(map[string][]string, len(platforms))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, platform := range platforms {
		wg.Add(1)
		go func(platform string) {
			defer wg.Done()
			list := w.ideasForPlatform(ctx, report, platform)
			mu.Lock()
			ideas[platform] = list
			mu.Unlock()
		}(platform)
	}
	wg.Wait()
	return ideas
}

func (w *Workflow) ideasForPlatform(ctx context.Context, report, platform string) []string {
	prompt := fmt.Sprintf(`Based on this trend research report, generate %d content ideas tailored for %s.

Report:
%s

Each idea should be specific, actionable, and native to how content works on %s.
Return a JSON array of %d idea strings.`,
		ideasPerPlatform, platform, report, platform, ideasPerPlatform)

	text, err := w.complete(ctx, ideasSystemPrompt, prompt)
	if err != nil {
		w.logger.Printf("idea generation failed for %s: %v", platform, err)
		return []string{utils.Truncate(report, 200)}
	}
	return parseIdeas(text)
}

// parseIdeas coerces a model answer into a non-empty list of ideas. JSON
// array first, then line-by-line salvage, then a single truncated fallback.
func parseIdeas(text string) []string {
	if list, ok := extractStringList(text); ok {
		if len(list) > ideasPerPlatform {
			list = list[:ideasPerPlatform]
		}
		return list
	}

	var out []string
	for _, line := range strings.Split(stripFences(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isStructuralLine(line) || strings.HasPrefix(line, "#") {
			continue
		}
		if cleaned := cleanIdeaLine(line); len(cleaned) > 10 {
			out = append(out, cleaned)
		}
		if len(out) == ideasPerPlatform {
			break
		}
	}
	if len(out) == 0 {
		return []string{utils.Truncate(text, 200)}
	}
	return out
}
