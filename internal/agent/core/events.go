package core

import "encoding/json"

// EventType tags entries of a run's ordered event stream. The transport
// layer is responsible for wire encoding; payloads here are plain data.
type EventType string

const (
	EventStep              EventType = "step"
	EventPlanComplete      EventType = "research_plan_complete"
	EventTrendCandidate    EventType = "trend_candidate"
	EventRetrievalComplete EventType = "trend_retrieval_complete"
	EventResearchComplete  EventType = "research_complete"
	EventApprovalRequired  EventType = "approval_required"
	EventIdeaStream        EventType = "idea_stream"
	EventComplete          EventType = "complete"
	EventError             EventType = "error"
)

// Event is one entry in the stream. Payload fields are flattened next to
// "type" when serialized, matching what stream consumers expect.
type Event struct {
	Type    EventType
	Payload map[string]any
}

func (e Event) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(e.Payload)+1)
	for k, v := range e.Payload {
		flat[k] = v
	}
	flat["type"] = string(e.Type)
	return json.Marshal(flat)
}

func event(t EventType, payload map[string]any) Event {
	if payload == nil {
		payload = map[string]any{}
	}
	return Event{Type: t, Payload: payload}
}
