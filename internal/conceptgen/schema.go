package conceptgen

import "github.com/conceptclarity/clarity/internal/llm"

// DefinitionSchema defines the JSON returned for a concept explanation.
var DefinitionSchema = &llm.Schema{
	Name:        "concept-definition",
	Description: "A scientific concept explained at three levels with examples and related terms",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"easy": map[string]any{
				"type":        "string",
				"description": "Exactly 2 lines for a beginner",
			},
			"medium": map[string]any{
				"type":        "string",
				"description": "Exactly 4 lines for an intermediate learner",
			},
			"hard": map[string]any{
				"type":        "string",
				"description": "6 to 8 lines with technical depth",
			},
			"examples": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Concrete real-world examples",
			},
			"related_words": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "5 to 7 related scientific terms",
			},
		},
		"required":             []any{"easy", "medium", "hard", "examples", "related_words"},
		"additionalProperties": false,
	},
}

// QuizSchema defines the JSON returned for a generated quiz.
var QuizSchema = &llm.Schema{
	Name:        "concept-quiz",
	Description: "Multiple-choice questions about scientific concepts",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{
							"type":        "string",
							"description": "The question prompt",
						},
						"options": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"minItems":    4,
							"maxItems":    4,
							"description": "Exactly 4 distinct answer options",
						},
						"answer": map[string]any{
							"type":        "string",
							"description": "The correct option, copied exactly from options",
						},
						"explanation": map[string]any{
							"type":        "string",
							"description": "Why the answer is correct, in one or two sentences",
						},
						"topic": map[string]any{
							"type":        "string",
							"description": "The concept this question tests, taken from the given terms",
						},
					},
					"required":             []any{"question", "options", "answer", "explanation", "topic"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}
