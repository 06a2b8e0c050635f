package conceptgen

import (
	"fmt"
	"slices"
	"strings"

	"github.com/conceptclarity/clarity/internal/gateway"
)

// DefinitionValidator checks a generated definition.
type DefinitionValidator interface {
	Name() string
	Validate(d *Definition) *ValidationError
}

// QuestionValidator checks one generated question.
type QuestionValidator interface {
	Name() string
	Validate(q *gateway.Question, terms []string) *ValidationError
}

// ValidationError describes why generated output was rejected.
type ValidationError struct {
	Validator string // Name of the validator that failed
	Message   string // Human-readable description of the failure
	Retryable bool   // Whether regeneration is likely to fix this
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// DefinitionStructureValidator requires every level and at least one
// related word.
type DefinitionStructureValidator struct{}

func (v *DefinitionStructureValidator) Name() string { return "definition-structure" }

func (v *DefinitionStructureValidator) Validate(d *Definition) *ValidationError {
	for level, text := range map[string]string{"easy": d.Easy, "medium": d.Medium, "hard": d.Hard} {
		if strings.TrimSpace(text) == "" {
			return &ValidationError{Validator: v.Name(), Message: level + " is empty", Retryable: true}
		}
	}
	if len(d.RelatedWords) == 0 {
		return &ValidationError{Validator: v.Name(), Message: "related_words is empty", Retryable: true}
	}
	return nil
}

// QuestionStructureValidator requires a prompt, a topic, an explanation,
// and exactly 4 distinct options that include the answer.
type QuestionStructureValidator struct{}

func (v *QuestionStructureValidator) Name() string { return "question-structure" }

func (v *QuestionStructureValidator) Validate(q *gateway.Question, _ []string) *ValidationError {
	fail := func(msg string) *ValidationError {
		return &ValidationError{Validator: v.Name(), Message: msg, Retryable: true}
	}
	if strings.TrimSpace(q.Prompt) == "" {
		return fail("question is empty")
	}
	if strings.TrimSpace(q.Topic) == "" {
		return fail("topic is empty")
	}
	if strings.TrimSpace(q.Explanation) == "" {
		return fail("explanation is empty")
	}
	if len(q.Options) != 4 {
		return fail(fmt.Sprintf("question %q has %d options, want 4", q.Prompt, len(q.Options)))
	}
	seen := make(map[string]bool, 4)
	for _, o := range q.Options {
		key := strings.ToLower(strings.TrimSpace(o))
		if key == "" {
			return fail(fmt.Sprintf("question %q has an empty option", q.Prompt))
		}
		if seen[key] {
			return fail(fmt.Sprintf("question %q has duplicate option %q", q.Prompt, o))
		}
		seen[key] = true
	}
	if !slices.Contains(q.Options, q.Answer) {
		return fail(fmt.Sprintf("answer %q of question %q is not one of the options", q.Answer, q.Prompt))
	}
	return nil
}
