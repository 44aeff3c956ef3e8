package question

import (
	"encoding/json"
	"fmt"
)

// wireQuestion is the snake_case JSON shape shared by the model schema,
// the event stream, and the cache files.
type wireQuestion struct {
	ID          int64    `json:"id,omitempty"`
	SetID       int64    `json:"set_id,omitempty"`
	Description string   `json:"description"`
	Options     []string `json:"options"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation,omitempty"`
}

// MarshalJSON encodes the question in its wire representation.
func (q Question) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireQuestion{
		ID:          q.ID,
		SetID:       q.SetID,
		Description: q.Description,
		Options:     q.Options,
		Answer:      q.Answer,
		Explanation: q.Explanation,
	})
}

// UnmarshalJSON decodes the wire representation.
func (q *Question) UnmarshalJSON(data []byte) error {
	var w wireQuestion
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	q.ID = w.ID
	q.SetID = w.SetID
	q.Description = w.Description
	q.Options = w.Options
	q.Answer = w.Answer
	q.Explanation = w.Explanation
	return nil
}

// ParseBatch decodes a JSON array of questions. The model is asked for an
// array; anything else is malformed output.
func ParseBatch(data []byte) ([]Question, error) {
	var batch []Question
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("parse question batch: %w", err)
	}
	return batch, nil
}
