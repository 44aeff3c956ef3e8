package generator

import "github.com/abhisek/quizforge/internal/question"

// EventType discriminates the streaming frames of a batch generation run.
type EventType string

const (
	// EventStart opens the stream and announces the total set count.
	EventStart EventType = "start"

	// EventProgress carries a human-readable status line for one set.
	EventProgress EventType = "progress"

	// EventThinking forwards a raw model generation fragment.
	EventThinking EventType = "thinking"

	// EventValidating forwards a raw validation critique fragment.
	EventValidating EventType = "validating"

	// EventError reports a recoverable per-set failure. The stream
	// continues with the next set.
	EventError EventType = "error"

	// EventResult delivers one finalized question set.
	EventResult EventType = "result"

	// EventComplete is the terminal frame.
	EventComplete EventType = "complete"
)

// Event is one frame of the generation stream. Consumers typically encode
// each frame as a newline-delimited JSON object; Type discriminates which
// of the remaining fields are meaningful.
type Event struct {
	Type EventType `json:"type"`

	// TotalSets is set on start frames.
	TotalSets int `json:"total_sets,omitempty"`

	// Message and Step describe progress and error frames.
	Message string `json:"message,omitempty"`
	Step    string `json:"step,omitempty"`

	// SetIndex is the 1-based set this frame belongs to, when known.
	SetIndex int `json:"set_index,omitempty"`

	// Text carries model output fragments on thinking/validating frames.
	Text string `json:"text,omitempty"`

	// Data is the finalized batch on result frames, with persisted
	// identifiers attached when storage succeeded.
	Data []question.Question `json:"data,omitempty"`

	// SetID is the persisted question-set identifier on result frames,
	// zero when persistence was skipped or failed.
	SetID int64 `json:"set_id,omitempty"`
}
