// Package queue defines message payloads exchanged over the message
// broker and the background consumer that processes them.
package queue

// AccidentReportedEvent is published after an accident report is
// successfully stored. It carries enough information for downstream
// consumers to notify, log, or feed analytics without querying the
// primary database.
type AccidentReportedEvent struct {
	AccidentID string  `json:"accident_id"`
	ReportedBy string  `json:"reported_by,omitempty"` // empty for anonymous reports
	Location   string  `json:"location"`
	Type       string  `json:"type"`
	Severity   string  `json:"severity"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	OccurredAt string  `json:"occurred_at"`
	ReportedAt string  `json:"reported_at"`
}
