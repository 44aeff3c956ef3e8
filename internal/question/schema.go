package question

import "github.com/abhisek/quizforge/internal/llm"

// BatchSchema defines the JSON schema for LLM question batch responses.
// Both generation and correction calls constrain their output to it.
var BatchSchema = &llm.Schema{
	Name:        "question-batch",
	Description: "An array of multiple choice questions with answers and explanations",
	Definition: map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"description": map[string]any{
					"type":        "string",
					"description": "The question text shown to the learner",
				},
				"options": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "string",
					},
					"description": "2-6 distinct answer options",
				},
				"answer": map[string]any{
					"type":        "string",
					"description": "The exact string text of the correct option",
				},
				"explanation": map[string]any{
					"type":        "string",
					"description": "Why the answer is correct",
				},
			},
			"required":             []any{"description", "options", "answer"},
			"additionalProperties": false,
		},
	},
}
