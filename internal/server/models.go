package server

// GenerateRequest starts a research run. A missing session_id mints a fresh
// one; a missing platform list falls back to the default trio.
type GenerateRequest struct {
	Query     string   `json:"query"`
	Platforms []string `json:"platforms"`
	SessionID string   `json:"session_id"`
	Mode      string   `json:"mode"`
}

// ApprovalRequest resolves a parked session with the caller's decision.
type ApprovalRequest struct {
	SessionID  string `json:"session_id"`
	Action     string `json:"action"` // approve, refine, restart
	Refinement string `json:"refinement"`
}

var defaultPlatforms = []string{"LinkedIn", "X", "Instagram"}
