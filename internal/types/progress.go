package types

import "time"

// ProgressEvent is an ordered, append-only record of pipeline progress,
// scoped to a session identifier.
type ProgressEvent struct {
	Step      string    `json:"step"`
	Message   string    `json:"message"`
	Percent   *int      `json:"percent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
