package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/mohammad-safakhou/trendscout/config"
	"github.com/mohammad-safakhou/trendscout/internal/agent/telemetry"
	"github.com/mohammad-safakhou/trendscout/internal/session"
	"github.com/mohammad-safakhou/trendscout/tools/discovery"
	"github.com/mohammad-safakhou/trendscout/tools/discovery/models"
)

// stubLLM answers every completion with a scripted function and counts calls.
type stubLLM struct {
	mu    sync.Mutex
	calls int
	reply func(system, user string) (string, error)
}

func (s *stubLLM) Complete(ctx context.Context, system, user string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.reply == nil {
		return "", nil
	}
	return s.reply(system, user)
}

func (s *stubLLM) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// failingLLM simulates a fully unavailable text-generation provider.
type failingLLM struct{}

func (failingLLM) Complete(ctx context.Context, system, user string) (string, error) {
	return "", errors.New("provider unavailable")
}

// stubDiscoverer returns a fixed item batch or a fixed error.
type stubDiscoverer struct {
	name  string
	kind  models.Kind
	items []models.RawItem
	err   error
}

func (s stubDiscoverer) Name() string      { return s.name }
func (s stubDiscoverer) Kind() models.Kind { return s.kind }
func (s stubDiscoverer) Discover(ctx context.Context, q string, k int, sites []string) ([]models.RawItem, error) {
	return s.items, s.err
}

func newTestWorkflow(t *testing.T, llm LLMProvider, discoverers []discovery.Discoverer) *Workflow {
	t.Helper()
	cfg := &config.Config{
		Discovery: config.DiscoveryConfig{MaxResults: 10, MaxCandidates: 15},
	}
	logger := log.New(io.Discard, "", 0)
	tel := telemetry.NewTelemetry(config.TelemetryConfig{Enabled: false}, logger)
	return NewWorkflow(cfg, logger, llm, discoverers, session.NewInMemoryStore(), tel)
}

func collect(events <-chan Event) []Event {
	var out []Event
	for e := range events {
		out = append(out, e)
	}
	return out
}

func eventsOfType(events []Event, t EventType) []Event {
	var out []Event
	for _, e := range events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func TestRunWithSimulatedProvidersAndFailingLLM(t *testing.T) {
	w := newTestWorkflow(t, failingLLM{}, nil)
	events := collect(w.Run(context.Background(), "electric bikes", []string{"X", "LinkedIn"}, "sess-1", ModeDeep))

	plan := eventsOfType(events, EventPlanComplete)
	if len(plan) != 1 {
		t.Fatalf("expected one plan event, got %d", len(plan))
	}
	if scope := plan[0].Payload["scope"].(Scope); scope != DefaultScope() {
		t.Fatalf("expected default scope, got %+v", scope)
	}

	if got := len(eventsOfType(events, EventTrendCandidate)); got != 3 {
		t.Fatalf("expected 3 synthetic candidates, got %d", got)
	}
	if got := len(eventsOfType(events, EventResearchComplete)); got != 1 {
		t.Fatalf("expected one research_complete event, got %d", got)
	}
	approval := eventsOfType(events, EventApprovalRequired)
	if len(approval) != 1 {
		t.Fatalf("expected one approval_required event, got %d", len(approval))
	}
	if approval[0].Payload["session_id"] != "sess-1" {
		t.Fatalf("approval event carries wrong session id: %v", approval[0].Payload)
	}

	rec, err := w.sessions.Get(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("session not stored: %v", err)
	}
	if rec.Decision != session.DecisionPending {
		t.Fatalf("expected pending decision, got %s", rec.Decision)
	}
	if rec.OriginalQuery != "electric bikes" {
		t.Fatalf("unexpected original query: %q", rec.OriginalQuery)
	}
	if rec.Mode != ModeDeep {
		t.Fatalf("unexpected mode: %q", rec.Mode)
	}
	if len(rec.ConfidenceScores) != 3 {
		t.Fatalf("expected 3 confidence scores, got %d", len(rec.ConfidenceScores))
	}
}

func TestProviderFailureDoesNotAbortRun(t *testing.T) {
	good := stubDiscoverer{name: "tavily", kind: models.KindWebSearch, items: []models.RawItem{
		{Title: "Solid result", URL: "https://example.com/solid"},
	}}
	bad := stubDiscoverer{name: "reddit", kind: models.KindSocial, err: errors.New("rate limited")}
	w := newTestWorkflow(t, failingLLM{}, nil)
	w.discoverers = append(w.discoverers, good, bad)

	events := collect(w.Run(context.Background(), "anything", []string{"X"}, "sess-2", ModeDeep))
	candidates := eventsOfType(events, EventTrendCandidate)
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate from the healthy provider, got %d", len(candidates))
	}
	if candidates[0].Payload["source"] != "tavily" {
		t.Fatalf("unexpected candidate source: %v", candidates[0].Payload)
	}
	if len(eventsOfType(events, EventApprovalRequired)) != 1 {
		t.Fatal("run should still reach the approval gate")
	}
}

func TestAllProvidersFailFallsBackToSynthetic(t *testing.T) {
	failing := []discovery.Discoverer{
		stubDiscoverer{name: "tavily", kind: models.KindWebSearch, err: errors.New("timeout")},
		stubDiscoverer{name: "reddit", kind: models.KindSocial, err: errors.New("rate limited")},
	}
	w := newTestWorkflow(t, failingLLM{}, failing)

	events := collect(w.Run(context.Background(), "electric bikes", []string{"X"}, "sess-fallback", ModeDeep))
	candidates := eventsOfType(events, EventTrendCandidate)
	if len(candidates) != 3 {
		t.Fatalf("expected 3 synthetic fallback candidates, got %d", len(candidates))
	}
	sources := map[string]bool{}
	for _, e := range candidates {
		sources[e.Payload["source"].(string)] = true
	}
	if !sources["tavily"] || !sources["reddit"] {
		t.Fatalf("fallback candidates missing expected provenance: %v", sources)
	}
	if len(eventsOfType(events, EventApprovalRequired)) != 1 {
		t.Fatal("run should still reach the approval gate")
	}
}

func TestEmptyProviderResultsDoNotTriggerFallback(t *testing.T) {
	empty := []discovery.Discoverer{
		stubDiscoverer{name: "tavily", kind: models.KindWebSearch},
	}
	w := newTestWorkflow(t, failingLLM{}, empty)
	events := collect(w.Run(context.Background(), "q", []string{"X"}, "sess-empty", ModeDeep))
	if got := len(eventsOfType(events, EventTrendCandidate)); got != 0 {
		t.Fatalf("a healthy provider with no results should yield 0 candidates, got %d", got)
	}
}

func TestCandidateCap(t *testing.T) {
	var items []models.RawItem
	for i := 0; i < 30; i++ {
		items = append(items, models.RawItem{Title: fmt.Sprintf("item %d", i)})
	}
	w := newTestWorkflow(t, failingLLM{}, nil)
	w.discoverers = append(w.discoverers, stubDiscoverer{name: "tavily", kind: models.KindWebSearch, items: items})

	events := collect(w.Run(context.Background(), "q", []string{"X"}, "sess-cap", ModeDeep))
	if got := len(eventsOfType(events, EventTrendCandidate)); got != 15 {
		t.Fatalf("expected candidate cap of 15, got %d", got)
	}
}

func TestEnrichmentFailurePreservesOrderAndCount(t *testing.T) {
	w := newTestWorkflow(t, failingLLM{}, nil)
	candidates := []TrendCandidate{
		{Title: "first", URL: "https://example.com/1"},
		{Title: "second", URL: "https://example.com/2"},
		{Title: "third"},
	}
	enriched := w.enrich(context.Background(), candidates)
	if len(enriched) != len(candidates) {
		t.Fatalf("expected %d enriched trends, got %d", len(candidates), len(enriched))
	}
	for i := range candidates {
		if enriched[i].Title != candidates[i].Title {
			t.Fatalf("order disturbed at %d: %q", i, enriched[i].Title)
		}
		if enriched[i].Summary == "" {
			t.Fatalf("candidate %d lost its summary", i)
		}
	}
	if len(enriched[0].KeyEvidence) != 1 || enriched[0].KeyEvidence[0] != "https://example.com/1" {
		t.Fatalf("expected url fallback evidence, got %v", enriched[0].KeyEvidence)
	}
}

func TestAbandonedStreamStillParksSession(t *testing.T) {
	var items []models.RawItem
	for i := 0; i < 15; i++ {
		items = append(items, models.RawItem{Title: fmt.Sprintf("item %d", i)})
	}
	w := newTestWorkflow(t, failingLLM{}, []discovery.Discoverer{
		stubDiscoverer{name: "tavily", kind: models.KindWebSearch, items: items},
	})

	// Nobody reads the stream and the request context dies mid-run.
	ctx, cancel := context.WithCancel(context.Background())
	_ = w.Run(ctx, "q", []string{"X"}, "sess-gone", ModeDeep)
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := w.sessions.Get(context.Background(), "sess-gone"); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("session was never parked after the stream was abandoned")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestDecideUnknownSession(t *testing.T) {
	w := newTestWorkflow(t, failingLLM{}, nil)
	if _, err := w.Decide(context.Background(), "missing", "approve", ""); !errors.Is(err, session.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestDecideRefineRequiresText(t *testing.T) {
	w := newTestWorkflow(t, failingLLM{}, nil)
	collect(w.Run(context.Background(), "q", []string{"X"}, "sess-3", ModeDeep))
	if _, err := w.Decide(context.Background(), "sess-3", "refine", ""); !errors.Is(err, ErrRefinementRequired) {
		t.Fatalf("expected ErrRefinementRequired, got %v", err)
	}
}

func TestDecideUnknownAction(t *testing.T) {
	w := newTestWorkflow(t, failingLLM{}, nil)
	collect(w.Run(context.Background(), "q", []string{"X"}, "sess-4", ModeDeep))
	if _, err := w.Decide(context.Background(), "sess-4", "ship-it", ""); err == nil {
		t.Fatal("expected error for unknown action")
	}
}

func TestApproveGeneratesPerPlatform(t *testing.T) {
	llm := &stubLLM{reply: func(system, user string) (string, error) {
		return `["idea about product demos","idea about user stories","idea about weekly threads"]`, nil
	}}
	w := newTestWorkflow(t, llm, nil)
	collect(w.Run(context.Background(), "electric bikes", []string{"X", "LinkedIn"}, "sess-5", ModeDeep))

	events, err := w.Decide(context.Background(), "sess-5", "approve", "")
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	all := collect(events)
	streams := eventsOfType(all, EventIdeaStream)
	if len(streams) != 2 {
		t.Fatalf("expected one idea batch per platform, got %d", len(streams))
	}
	for _, e := range streams {
		ideas := e.Payload["ideas"].([]string)
		if len(ideas) == 0 || len(ideas) > ideasPerPlatform {
			t.Fatalf("platform %v has %d ideas", e.Payload["platform"], len(ideas))
		}
	}
	if len(eventsOfType(all, EventComplete)) != 1 {
		t.Fatal("expected a complete event")
	}
}

func TestApproveIsIdempotent(t *testing.T) {
	llm := &stubLLM{reply: func(system, user string) (string, error) {
		return `["a repeatable idea about launches","another idea about community"]`, nil
	}}
	w := newTestWorkflow(t, llm, nil)
	collect(w.Run(context.Background(), "q", []string{"X"}, "sess-6", ModeDeep))

	first, err := w.Decide(context.Background(), "sess-6", "approve", "")
	if err != nil {
		t.Fatalf("first approve failed: %v", err)
	}
	firstEvents := collect(first)
	callsAfterFirst := llm.callCount()

	second, err := w.Decide(context.Background(), "sess-6", "approve", "")
	if err != nil {
		t.Fatalf("second approve failed: %v", err)
	}
	secondEvents := collect(second)
	if llm.callCount() != callsAfterFirst {
		t.Fatalf("replayed approve triggered generation again: %d -> %d calls", callsAfterFirst, llm.callCount())
	}

	firstIdeas := eventsOfType(firstEvents, EventIdeaStream)
	secondIdeas := eventsOfType(secondEvents, EventIdeaStream)
	if len(firstIdeas) != len(secondIdeas) {
		t.Fatalf("replay produced different batch count: %d vs %d", len(firstIdeas), len(secondIdeas))
	}
}

func TestRefineRerunsWithAmendedQuery(t *testing.T) {
	w := newTestWorkflow(t, failingLLM{}, nil)
	collect(w.Run(context.Background(), "electric bikes", []string{"X"}, "sess-7", ModeDeep))

	events, err := w.Decide(context.Background(), "sess-7", "refine", "focus on Gen Z")
	if err != nil {
		t.Fatalf("refine failed: %v", err)
	}
	all := collect(events)
	if len(eventsOfType(all, EventApprovalRequired)) != 1 {
		t.Fatal("refined run should reach the approval gate again")
	}

	rec, err := w.sessions.Get(context.Background(), "sess-7")
	if err != nil {
		t.Fatalf("session lost after refine: %v", err)
	}
	want := "electric bikes\n\nRefinement: focus on Gen Z"
	if rec.OriginalQuery != want {
		t.Fatalf("amended query = %q, want %q", rec.OriginalQuery, want)
	}
	if rec.Decision != session.DecisionPending {
		t.Fatalf("refined run should park pending, got %s", rec.Decision)
	}
}

func TestRestartReplacesQuery(t *testing.T) {
	w := newTestWorkflow(t, failingLLM{}, nil)
	collect(w.Run(context.Background(), "electric bikes", []string{"X"}, "sess-8", ModeDeep))

	events, err := w.Decide(context.Background(), "sess-8", "restart", "solar panels")
	if err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	collect(events)

	rec, err := w.sessions.Get(context.Background(), "sess-8")
	if err != nil {
		t.Fatalf("session lost after restart: %v", err)
	}
	if rec.OriginalQuery != "solar panels" {
		t.Fatalf("restart query = %q, want %q", rec.OriginalQuery, "solar panels")
	}
}

func TestRestartWithoutQueryReusesOriginal(t *testing.T) {
	w := newTestWorkflow(t, failingLLM{}, nil)
	collect(w.Run(context.Background(), "electric bikes", []string{"X"}, "sess-9", ModeDeep))

	events, err := w.Decide(context.Background(), "sess-9", "restart", "")
	if err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	collect(events)

	rec, _ := w.sessions.Get(context.Background(), "sess-9")
	if rec.OriginalQuery != "electric bikes" {
		t.Fatalf("restart should reuse original query, got %q", rec.OriginalQuery)
	}
}

func TestFastModeSkipsDiscovery(t *testing.T) {
	llm := &stubLLM{reply: func(system, user string) (string, error) {
		return `{"research_report": "# Report\n\nSolid trends.", "trending_topics": [{"topic": "AI agents", "reason": "everywhere", "url": "https://example.com/ai"}], "sources": ["https://example.com/ai"]}`, nil
	}}
	w := newTestWorkflow(t, llm, nil)
	events := collect(w.Run(context.Background(), "ai agents", []string{"X"}, "sess-10", ModeFast))

	if got := len(eventsOfType(events, EventTrendCandidate)); got != 0 {
		t.Fatalf("fast mode should not emit candidates, got %d", got)
	}
	if len(eventsOfType(events, EventResearchComplete)) != 1 {
		t.Fatal("expected research_complete event")
	}
	if len(eventsOfType(events, EventApprovalRequired)) != 1 {
		t.Fatal("expected approval_required event")
	}

	rec, err := w.sessions.Get(context.Background(), "sess-10")
	if err != nil {
		t.Fatalf("session not stored: %v", err)
	}
	if rec.Mode != ModeFast {
		t.Fatalf("mode not preserved: %q", rec.Mode)
	}
	if len(rec.TrendingTopics) != 1 || rec.TrendingTopics[0].Topic != "AI agents" {
		t.Fatalf("unexpected topics: %v", rec.TrendingTopics)
	}
}

func TestFastModePreservedAcrossRefine(t *testing.T) {
	w := newTestWorkflow(t, failingLLM{}, nil)
	collect(w.Run(context.Background(), "ai agents", []string{"X"}, "sess-11", ModeFast))

	events, err := w.Decide(context.Background(), "sess-11", "refine", "focus on open source")
	if err != nil {
		t.Fatalf("refine failed: %v", err)
	}
	all := collect(events)
	if got := len(eventsOfType(all, EventTrendCandidate)); got != 0 {
		t.Fatalf("refined fast run should stay fast, got %d candidates", got)
	}

	rec, _ := w.sessions.Get(context.Background(), "sess-11")
	if rec.Mode != ModeFast {
		t.Fatalf("mode lost across refine: %q", rec.Mode)
	}
}
