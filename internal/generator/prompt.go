package generator

import (
	"fmt"
	"strings"
)

const generationSystemPrompt = `You are an expert educational content generator.
Task: Create a question bank.

Rules:
1. Ensure questions are accurate, relevant, and grammatically correct.
2. Provide clear and distinct options for multiple choice questions.
3. The 'answer' field must be the exact string text of the correct option.
4. Provide a helpful 'explanation' for why the answer is correct.
5. Output MUST be a valid JSON array matching the specified schema.
6. Create UNIQUE questions. Do not repeat questions if called multiple times in a sequence.`

// buildGenerationPrompt constructs the user message for one batch request.
func buildGenerationPrompt(p Params, count int) string {
	var b strings.Builder

	b.WriteString("Parameters:\n")
	fmt.Fprintf(&b, "- Topic: %s\n", p.Topic)
	fmt.Fprintf(&b, "- Quantity: %d\n", count)
	fmt.Fprintf(&b, "- Difficulty: %s\n", p.Difficulty)
	fmt.Fprintf(&b, "- Type: %s\n", p.QuestionType)
	b.WriteString("\n")

	if p.Content != "" {
		fmt.Fprintf(&b, "Base your questions STRICTLY on the following content:\n---\n%s\n---\n", p.Content)
	} else {
		fmt.Fprintf(&b, "Generate questions based on general knowledge of the topic: %q.\n", p.Topic)
	}

	if p.UserContext != "" {
		fmt.Fprintf(&b, "\nUser Specific Instructions:\n%s\n", p.UserContext)
	}

	return b.String()
}
