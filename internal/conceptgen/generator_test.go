package conceptgen

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/conceptclarity/clarity/internal/gateway"
	"github.com/conceptclarity/clarity/internal/llm"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validDefinition() map[string]any {
	return map[string]any{
		"easy":          "Plants make food from light. They use water and air.",
		"medium":        "Line 1. Line 2. Line 3. Line 4.",
		"hard":          "Line 1. Line 2. Line 3. Line 4. Line 5. Line 6.",
		"examples":      []string{"A leaf in sunlight", "Algae in a pond"},
		"related_words": []string{"Chlorophyll", "Glucose", "Stomata", "Carbon dioxide", "Light reaction"},
	}
}

func question(topic string) gateway.Question {
	return gateway.Question{
		Prompt:      "What do plants need for photosynthesis?",
		Options:     []string{"Light", "Sound", "Magnetism", "Heat only"},
		Answer:      "Light",
		Explanation: "Photosynthesis is driven by light energy.",
		Topic:       topic,
	}
}

func TestDefineWithoutProviderUsesFallback(t *testing.T) {
	g := New(nil, DefaultConfig(), quietLogger())

	def, err := g.Define(context.Background(), "Gravity", "en")
	if err != nil {
		t.Fatal(err)
	}
	if def.Source != SourceFallback {
		t.Errorf("Source = %q", def.Source)
	}
	if def.Easy != "Gravity is a scientific concept. It is interesting." {
		t.Errorf("Easy = %q", def.Easy)
	}
	if def.Text(gateway.LevelHard) != def.Hard || def.Text("") != def.Easy {
		t.Error("Text does not select by level")
	}
}

func TestDefine(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockJSON(validDefinition()))
	g := New(mock, DefaultConfig(), quietLogger())

	def, err := g.Define(context.Background(), " Photosynthesis ", "te")
	if err != nil {
		t.Fatal(err)
	}
	if def.Source != SourceLLM || def.Term != "Photosynthesis" {
		t.Errorf("def = %+v", def)
	}
	if len(def.RelatedWords) != 5 {
		t.Errorf("RelatedWords = %v", def.RelatedWords)
	}

	req := mock.Calls[0]
	if req.Schema != DefinitionSchema {
		t.Error("definition schema not requested")
	}
	if !strings.Contains(req.Messages[0].Content, "Language: Telugu") {
		t.Errorf("prompt = %q", req.Messages[0].Content)
	}
}

func TestDefineRetriesWithFeedback(t *testing.T) {
	bad := validDefinition()
	bad["medium"] = "  "
	mock := llm.NewMockProvider(llm.MockJSON(bad), llm.MockJSON(validDefinition()))
	g := New(mock, DefaultConfig(), quietLogger())

	def, err := g.Define(context.Background(), "Photosynthesis", "en")
	if err != nil {
		t.Fatal(err)
	}
	if def.Source != SourceLLM {
		t.Errorf("Source = %q, want llm after retry", def.Source)
	}
	if mock.CallCount() != 2 {
		t.Fatalf("calls = %d, want 2", mock.CallCount())
	}
	retry := mock.Calls[1].Messages
	if len(retry) != 3 || retry[1].Role != llm.RoleAssistant || !strings.Contains(retry[2].Content, "medium is empty") {
		t.Errorf("retry messages = %+v", retry)
	}
}

func TestDefineFallsBackOnProviderError(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}})
	g := New(mock, DefaultConfig(), quietLogger())

	def, err := g.Define(context.Background(), "Atom", "en")
	if err != nil {
		t.Fatal(err)
	}
	if def.Source != SourceFallback {
		t.Errorf("Source = %q", def.Source)
	}
}

func TestQuiz(t *testing.T) {
	qs := []gateway.Question{question("Photosynthesis"), question("Photosynthesis"), question("Photosynthesis")}
	mock := llm.NewMockProvider(llm.MockJSON(map[string]any{"questions": qs}))
	g := New(mock, DefaultConfig(), quietLogger())

	got, err := g.Quiz(context.Background(), QuizRequest{
		Level: gateway.LevelEasy, Language: "en", Count: 2, Terms: []string{"Photosynthesis"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("questions = %d, want 2", len(got))
	}
	msg := mock.Calls[0].Messages[0].Content
	if !strings.Contains(msg, "1. Photosynthesis") || !strings.Contains(msg, "Number of questions: 2") {
		t.Errorf("prompt = %q", msg)
	}
}

func TestQuizWithoutProviderIsEmpty(t *testing.T) {
	g := New(nil, DefaultConfig(), quietLogger())
	got, err := g.Quiz(context.Background(), QuizRequest{Level: gateway.LevelEasy, Count: 5})
	if err != nil || len(got) != 0 {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestQuizUsesGeneralTopicsWithoutTerms(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockJSON(map[string]any{"questions": []gateway.Question{question("Gravity")}}))
	g := New(mock, DefaultConfig(), quietLogger())

	if _, err := g.Quiz(context.Background(), QuizRequest{Level: gateway.LevelEasy, Count: 5}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(mock.Calls[0].Messages[0].Content, GeneralTopics[0]) {
		t.Error("general topics not used")
	}
}

func TestQuizRejectsAfterOneRetry(t *testing.T) {
	broken := question("Atom")
	broken.Answer = "Not an option"
	bad := llm.MockJSON(map[string]any{"questions": []gateway.Question{broken}})
	mock := llm.NewMockProvider(bad, bad, bad)
	g := New(mock, DefaultConfig(), quietLogger())

	_, err := g.Quiz(context.Background(), QuizRequest{Level: gateway.LevelEasy, Count: 5, Terms: []string{"Atom"}})
	if !IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if mock.CallCount() != 2 {
		t.Errorf("calls = %d, want 2", mock.CallCount())
	}
}

func TestQuestionStructureValidator(t *testing.T) {
	v := &QuestionStructureValidator{}
	tests := []struct {
		name string
		edit func(*gateway.Question)
		ok   bool
	}{
		{"valid", func(q *gateway.Question) {}, true},
		{"no prompt", func(q *gateway.Question) { q.Prompt = "" }, false},
		{"no topic", func(q *gateway.Question) { q.Topic = " " }, false},
		{"no explanation", func(q *gateway.Question) { q.Explanation = "" }, false},
		{"three options", func(q *gateway.Question) { q.Options = q.Options[:3] }, false},
		{"duplicate", func(q *gateway.Question) { q.Options = []string{"Light", "light", "Heat", "Sound"} }, false},
		{"empty option", func(q *gateway.Question) { q.Options[3] = "" }, false},
		{"answer missing", func(q *gateway.Question) { q.Answer = "Water" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := question("Photosynthesis")
			q.Options = append([]string(nil), q.Options...)
			tt.edit(&q)
			verr := v.Validate(&q, nil)
			if (verr == nil) != tt.ok {
				t.Errorf("Validate = %v, want ok=%v", verr, tt.ok)
			}
			if verr != nil && !verr.Retryable {
				t.Error("structural failures should be retryable")
			}
		})
	}
}

func TestLanguageName(t *testing.T) {
	for code, want := range map[string]string{"en": "English", "te": "Telugu", "hi": "Hindi", "": "English", "Hindi": "Hindi"} {
		if got := LanguageName(code); got != want {
			t.Errorf("LanguageName(%q) = %q, want %q", code, got, want)
		}
	}
}
