package conceptgen

import (
	"fmt"
	"strings"

	"github.com/conceptclarity/clarity/internal/gateway"
)

const definitionSystemPrompt = `You are a precise science tutor. You MUST follow line counts strictly. Easy=2 lines, Medium=4 lines, Hard=6-8 lines.

Rules:
- Explain the concept at three levels: easy, medium and hard.
- Easy: exactly 2 lines and 1 example. Medium: exactly 4 lines and 1 example. Hard: 6 to 8 lines and 2 examples.
- Examples must be real-world and concrete.
- Provide 5 to 7 related scientific terms.
- Write every field in the requested language.`

const quizSystemPrompt = `You are a science teacher writing a multiple-choice quiz.

Rules:
- Each question tests one of the given concepts and names it as the topic.
- Each question has exactly 4 distinct options and exactly one correct answer.
- The answer must be copied exactly from the options.
- Distractors should be plausible misconceptions, not jokes.
- The explanation says in one or two sentences why the answer is correct.
- Match the difficulty: easy questions test recall, medium test understanding, hard test application.
- Do not repeat a question.
- Write every field in the requested language.`

// buildDefinitionMessage constructs the user message for a definition.
func buildDefinitionMessage(term, language string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Concept: %s\n", term)
	fmt.Fprintf(&b, "Language: %s\n", LanguageName(language))
	return b.String()
}

// buildQuizMessage constructs the user message for a quiz.
func buildQuizMessage(req QuizRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Number of questions: %d\n", req.Count)
	fmt.Fprintf(&b, "Difficulty: %s\n", levelOrEasy(req.Level))
	fmt.Fprintf(&b, "Language: %s\n", LanguageName(req.Language))
	b.WriteString("\nConcepts:\n")
	b.WriteString(buildTerms(req.Terms))
	return b.String()
}

// buildFeedback asks the model to fix a rejected answer.
func buildFeedback(verr *ValidationError) string {
	return fmt.Sprintf("Your previous answer was rejected: %s. Return a corrected answer.", verr.Message)
}

func buildTerms(terms []string) string {
	if len(terms) == 0 {
		return "None"
	}
	var b strings.Builder
	for i, t := range terms {
		fmt.Fprintf(&b, "%d. %s\n", i+1, t)
	}
	return strings.TrimRight(b.String(), "\n")
}

func levelOrEasy(l gateway.Level) gateway.Level {
	if l == "" {
		return gateway.LevelEasy
	}
	return l
}
