// Package conceptgen produces leveled concept definitions and quiz
// questions with an LLM provider.
package conceptgen

import (
	"github.com/conceptclarity/clarity/internal/gateway"
)

// Source values reported with a definition.
const (
	SourceLLM      = "llm"
	SourceFallback = "fallback"
)

// Definition explains one term at every level.
type Definition struct {
	Term         string
	Easy         string
	Medium       string
	Hard         string
	Examples     []string
	RelatedWords []string
	Source       string
}

// Text returns the explanation for level, defaulting to easy.
func (d *Definition) Text(level gateway.Level) string {
	switch level {
	case gateway.LevelMedium:
		return d.Medium
	case gateway.LevelHard:
		return d.Hard
	}
	return d.Easy
}

// QuizRequest describes a quiz to generate.
type QuizRequest struct {
	Level    gateway.Level
	Language string
	Count    int
	// Terms are the concepts questions are drawn from.
	Terms []string
}

// LanguageName maps a language code to the name used in prompts.
func LanguageName(code string) string {
	switch code {
	case "te", "Telugu":
		return "Telugu"
	case "hi", "Hindi":
		return "Hindi"
	}
	return "English"
}

// GeneralTopics seed a quiz for users without search history.
var GeneralTopics = []string{
	"Photosynthesis",
	"Gravity",
	"DNA Replication",
	"Black Hole",
	"Climate Change",
	"Atom",
	"Evolution",
	"Electricity",
	"Cell Division",
	"Artificial Intelligence",
}
