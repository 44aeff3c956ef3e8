package question

import (
	"fmt"
	"strings"
)

const (
	minDescriptionLen = 10
	minOptions        = 2
	maxOptions        = 6
)

// Result reports the outcome of a local well-formedness check.
type Result struct {
	Valid  bool
	Issues []string
}

// Check runs the rule-based local validation on a single question without
// any model call. Every applicable rule is evaluated; issues accumulate
// rather than short-circuiting. An over-long option list is reported but
// does not invalidate the question.
func Check(q Question) Result {
	res := Result{Valid: true}

	if len(q.Description) < minDescriptionLen {
		res.Issues = append(res.Issues, "Question description is too short or empty")
		res.Valid = false
	}

	if len(q.Options) < minOptions {
		res.Issues = append(res.Issues, "Too few options (minimum 2 required)")
		res.Valid = false
	}
	if len(q.Options) > maxOptions {
		res.Issues = append(res.Issues, "Too many options (maximum 6 recommended)")
	}

	if !contains(q.Options, q.Answer) {
		res.Issues = append(res.Issues, fmt.Sprintf("Answer '%s' not found in options", q.Answer))
		res.Valid = false
	}

	if hasDuplicates(q.Options) {
		res.Issues = append(res.Issues, "Duplicate options detected")
		res.Valid = false
	}

	for _, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			res.Issues = append(res.Issues, "Empty or very short option detected")
			res.Valid = false
			break
		}
	}

	return res
}

// BatchCheck validates a batch locally, preserving the original order of
// retained questions. The issue report carries one line per rejected
// question, indexed 1-based.
func BatchCheck(batch []Question) (valid []Question, issues []string) {
	for idx, q := range batch {
		res := Check(q)
		if res.Valid {
			valid = append(valid, q)
			continue
		}
		issues = append(issues, fmt.Sprintf("Q%d: %s", idx+1, strings.Join(res.Issues, ", ")))
	}
	return valid, issues
}

func contains(opts []string, s string) bool {
	for _, o := range opts {
		if o == s {
			return true
		}
	}
	return false
}

func hasDuplicates(opts []string) bool {
	seen := make(map[string]struct{}, len(opts))
	for _, o := range opts {
		if _, ok := seen[o]; ok {
			return true
		}
		seen[o] = struct{}{}
	}
	return false
}
