package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mohammad-safakhou/trendscout/config"
	"github.com/mohammad-safakhou/trendscout/internal/agent/telemetry"
	"github.com/mohammad-safakhou/trendscout/internal/session"
	"github.com/mohammad-safakhou/trendscout/tools/discovery"
)

// ErrRefinementRequired is returned when a refine decision carries no text.
var ErrRefinementRequired = errors.New("refinement text is required for refine action")

// ModeDeep runs the full five-stage pipeline; ModeFast collapses research
// into a single text-generation call and goes straight to the approval gate.
const (
	ModeDeep = "deep"
	ModeFast = "fast"
)

// Workflow drives research runs from query to approval gate, and from an
// approval decision to generated ideas. Safe for concurrent use; all per-run
// state lives on the stack of each invocation, shared state is the session
// store.
type Workflow struct {
	cfg         *config.Config
	logger      *log.Logger
	telemetry   *telemetry.Telemetry
	llm         LLMProvider
	discoverers []discovery.Discoverer
	sessions    session.Store
}

func NewWorkflow(cfg *config.Config, logger *log.Logger, llm LLMProvider, discoverers []discovery.Discoverer, sessions session.Store, tel *telemetry.Telemetry) *Workflow {
	if logger == nil {
		logger = log.New(log.Writer(), "[WORKFLOW] ", log.LstdFlags)
	}
	return &Workflow{
		cfg:         cfg,
		logger:      logger,
		telemetry:   tel,
		llm:         llm,
		discoverers: discoverers,
		sessions:    sessions,
	}
}

// complete wraps the text-generation provider with telemetry. Callers decide
// how to degrade on error; this never retries.
func (w *Workflow) complete(ctx context.Context, system, user string) (string, error) {
	started := time.Now()
	text, err := w.llm.Complete(ctx, system, user)
	w.telemetry.RecordLLMCall(err, time.Since(started))
	return text, err
}

// Run starts a research run and returns its event stream. The stream is
// closed after the approval gate is reached (or after an error event); the
// caller resumes the session through Decide.
func (w *Workflow) Run(ctx context.Context, query string, platforms []string, sessionID, mode string) <-chan Event {
	events := make(chan Event, 16)
	go func() {
		defer close(events)
		w.runToGate(ctx, query, query, platforms, sessionID, mode, events)
	}()
	return events
}

// emit sends one event unless the consumer is gone. A cancelled context
// never blocks the run; the pipeline keeps executing so the session still
// gets parked even when nobody is reading the stream.
func emit(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// runToGate executes planning through synthesis and parks the run at the
// approval gate. query is what research uses; originalQuery is what the
// session record stores and later refinements build on.
func (w *Workflow) runToGate(ctx context.Context, query, originalQuery string, platforms []string, sessionID, mode string, events chan<- Event) {
	started := time.Now()

	if mode == ModeFast {
		w.runFast(ctx, query, originalQuery, platforms, sessionID, events)
		w.telemetry.RecordPipelineRun(true, time.Since(started))
		return
	}

	emit(ctx, events, event(EventStep, map[string]any{"step": string(StagePlanning)}))
	stageStart := time.Now()
	scope := w.planScope(ctx, query)
	providers := w.selectProviders()
	w.telemetry.RecordStage(string(StagePlanning), time.Since(stageStart))
	emit(ctx, events, event(EventPlanComplete, map[string]any{
		"scope":     scope,
		"providers": providerNames(providers),
	}))

	emit(ctx, events, event(EventStep, map[string]any{"step": string(StageRetrieving)}))
	stageStart = time.Now()
	candidates := w.retrieve(ctx, providers, query, scope, platforms)
	for _, c := range candidates {
		emit(ctx, events, event(EventTrendCandidate, map[string]any{
			"title":  c.Title,
			"source": c.Provenance,
			"url":    c.URL,
		}))
	}
	enriched := w.enrich(ctx, candidates)
	w.telemetry.RecordStage(string(StageRetrieving), time.Since(stageStart))
	emit(ctx, events, event(EventRetrievalComplete, map[string]any{"count": len(candidates)}))

	emit(ctx, events, event(EventStep, map[string]any{"step": string(StageSynthesizing)}))
	stageStart = time.Now()
	report, scores := w.synthesize(ctx, query, scope, enriched)
	w.telemetry.RecordStage(string(StageSynthesizing), time.Since(stageStart))
	emit(ctx, events, event(EventResearchComplete, map[string]any{
		"research_report":   report.Markdown,
		"sources":           report.Sources,
		"trending_topics":   report.TrendingTopics,
		"confidence_scores": scores,
	}))

	// Parking must survive client disconnects or the run is lost.
	if err := w.park(context.WithoutCancel(ctx), sessionID, originalQuery, mode, platforms, scope, report, scores); err != nil {
		w.logger.Printf("failed to store session %s: %v", sessionID, err)
		emit(ctx, events, event(EventError, map[string]any{"error": err.Error()}))
		w.telemetry.RecordPipelineRun(false, time.Since(started))
		return
	}

	emit(ctx, events, event(EventApprovalRequired, map[string]any{
		"session_id": sessionID,
		"message":    "Research complete. Review the report, then approve, refine, or restart.",
	}))
	w.telemetry.RecordPipelineRun(true, time.Since(started))
}

// park writes the suspended run into the session store.
func (w *Workflow) park(ctx context.Context, sessionID, originalQuery, mode string, platforms []string, scope Scope, report *ResearchReport, scores map[string]ConfidenceScore) error {
	rec := session.Record{
		SessionID:      sessionID,
		ReportMarkdown: report.Markdown,
		Sources:        report.Sources,
		Scope: map[string]string{
			"time_window": scope.TimeWindow,
			"region":      scope.Region,
			"domain":      scope.Domain,
		},
		Platforms:     platforms,
		OriginalQuery: originalQuery,
		Mode:          mode,
		Decision:      session.DecisionPending,
	}
	for _, t := range report.TrendingTopics {
		rec.TrendingTopics = append(rec.TrendingTopics, session.TopicSnapshot{
			Topic:      t.Topic,
			Reason:     t.Reason,
			URL:        t.URL,
			Timestamp:  t.Timestamp,
			Confidence: string(t.Confidence),
		})
	}
	rec.ConfidenceScores = make(map[string]session.ConfidenceSnapshot, len(scores))
	for k, s := range scores {
		rec.ConfidenceScores[k] = session.ConfidenceSnapshot{
			Level:     string(s.Level),
			Rationale: s.Rationale,
		}
	}
	return w.sessions.Submit(ctx, rec)
}

// Decide resumes a parked session. Validation failures and unknown sessions
// are returned synchronously; everything else streams through the returned
// channel. Approving an already-approved session replays the cached ideas
// without generating again.
func (w *Workflow) Decide(ctx context.Context, sessionID, action, refinement string) (<-chan Event, error) {
	var decision session.Decision
	switch action {
	case "approve":
		decision = session.DecisionApproved
	case "refine":
		if refinement == "" {
			return nil, ErrRefinementRequired
		}
		decision = session.DecisionRefine
	case "restart":
		decision = session.DecisionRestart
	default:
		return nil, fmt.Errorf("unknown approval action: %s", action)
	}

	rec, err := w.sessions.Decide(ctx, sessionID, decision, refinement)
	if err != nil {
		return nil, err
	}
	w.telemetry.RecordDecision(action)

	events := make(chan Event, 16)
	go func() {
		defer close(events)
		switch decision {
		case session.DecisionApproved:
			w.generate(ctx, rec, events)
		case session.DecisionRefine:
			query := rec.OriginalQuery + "\n\nRefinement: " + refinement
			w.runToGate(ctx, query, query, rec.Platforms, sessionID, rec.Mode, events)
		case session.DecisionRestart:
			query := rec.OriginalQuery
			if refinement != "" {
				query = refinement
			}
			w.runToGate(ctx, query, query, rec.Platforms, sessionID, rec.Mode, events)
		}
	}()
	return events, nil
}

// generate streams content ideas for every platform on the record. Cached
// ideas short-circuit generation so the approval latch stays idempotent.
func (w *Workflow) generate(ctx context.Context, rec session.Record, events chan<- Event) {
	ideas := rec.Ideas
	if len(ideas) == 0 {
		emit(ctx, events, event(EventStep, map[string]any{"step": string(StageGenerating)}))
		stageStart := time.Now()
		ideas = w.generateIdeas(ctx, rec.ReportMarkdown, rec.Platforms)
		w.telemetry.RecordStage(string(StageGenerating), time.Since(stageStart))
		if err := w.sessions.SetIdeas(context.WithoutCancel(ctx), rec.SessionID, ideas); err != nil {
			w.logger.Printf("failed to cache ideas for session %s: %v", rec.SessionID, err)
		}
	}
	for _, platform := range rec.Platforms {
		list := ideas[platform]
		w.telemetry.RecordIdeas(platform, len(list))
		emit(ctx, events, event(EventIdeaStream, map[string]any{
			"platform": platform,
			"ideas":    list,
		}))
	}
	emit(ctx, events, event(EventComplete, map[string]any{"session_id": rec.SessionID}))
}
