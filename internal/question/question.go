package question

// Question represents a generated multiple-choice question ready for
// validation, persistence, and delivery.
type Question struct {
	// Description is the question prompt displayed to the user.
	Description string

	// Options is the ordered list of answer choices (2-6, unique).
	Options []string

	// Answer is the exact text of the correct option.
	Answer string

	// Explanation is an optional rationale for the correct answer.
	Explanation string

	// ID and SetID are populated after persistence. Zero until then.
	ID    int64
	SetID int64
}

// Descriptions extracts the question prompts from a batch, in order.
// The similarity engine embeds these for duplicate detection.
func Descriptions(batch []Question) []string {
	out := make([]string, len(batch))
	for i, q := range batch {
		out[i] = q.Description
	}
	return out
}
