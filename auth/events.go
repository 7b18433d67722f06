package auth

import (
	"encoding/json"
	"log/slog"
	"time"
)

// Audit event type and subtypes, in the NIST SP 800-92 layout.
const (
	EventAuthentication = "authentication"

	SubtypeSelect    = "select"
	SubtypeChallenge = "challenge"
	SubtypeResponse  = "response"
	SubtypePreempt   = "preempt"
)

// Audit event outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Audit event severities
const (
	SeverityInfo    = "INFO"
	SeverityWarning = "WARNING"
)

// AuditEvent is one structured record of a negotiation step.
// It never carries credentials or header values.
type AuditEvent struct {
	Timestamp     string `json:"timestamp"` // ISO 8601 UTC
	EventType     string `json:"event_type"`
	Subtype       string `json:"subtype"`
	Severity      string `json:"severity"`
	Source        string `json:"source"`
	Scheme        string `json:"scheme,omitempty"`
	CorrelationID string `json:"correlation_id"` // State.ID
	Outcome       string `json:"outcome"`
	Error         string `json:"error,omitempty"`

	Details map[string]any `json:"details,omitempty"`
}

// String returns the JSON representation of the event
func (e *AuditEvent) String() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// auditor writes AuditEvents. A nil logger disables auditing.
type auditor struct {
	logger *slog.Logger
}

func (a auditor) log(state *State, subtype, scheme string, err error, details map[string]any) {
	if a.logger == nil {
		return
	}

	event := &AuditEvent{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		EventType: EventAuthentication,
		Subtype:   subtype,
		Severity:  SeverityInfo,
		Source:    "go-httpauth",
		Scheme:    scheme,
		Outcome:   OutcomeSuccess,
		Details:   details,
	}
	if state != nil {
		event.CorrelationID = state.ID()
	}
	if err != nil {
		event.Severity = SeverityWarning
		event.Outcome = OutcomeFailure
		event.Error = err.Error()
	}

	if event.Severity == SeverityWarning {
		a.logger.Warn("AuditEvent", "event", event)
		return
	}
	a.logger.Info("AuditEvent", "event", event)
}
