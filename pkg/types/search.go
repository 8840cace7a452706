// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SourceResult is the uniform outcome of one abstract lookup. Abstract is
// empty unless Found is true. Source names the provider, or SourceNone when
// the whole resolution chain came up empty.
type SourceResult struct {
	Found    bool   `json:"found"`
	Abstract string `json:"abstract"`
	Source   string `json:"source"`
}

// NotFound returns the miss result attributed to source.
func NotFound(source string) SourceResult {
	return SourceResult{Source: source}
}

// EventType names a pipeline milestone.
type EventType string

const (
	EventStart      EventType = "start"
	EventDedup      EventType = "dedup"
	EventProcessing EventType = "processing"
	EventAbstract   EventType = "abstract"
	EventComplete   EventType = "complete"
	EventFinished   EventType = "finished"
)

// ProgressEvent is one ordered notification from a streaming run. Papers
// and Total are only set on EventFinished.
type ProgressEvent struct {
	Type    EventType `json:"type"`
	Message string    `json:"message,omitempty"`
	RunID   string    `json:"run_id,omitempty"`

	// Index is the 1-based position of the paper the event refers to.
	Index int `json:"index,omitempty"`

	Papers []Paper `json:"papers,omitempty"`
	Total  int     `json:"total,omitempty"`
}
