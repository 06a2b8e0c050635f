package conceptgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/conceptclarity/clarity/internal/gateway"
	"github.com/conceptclarity/clarity/internal/llm"
)

// Generator produces definitions and quizzes. A Generator without a
// provider serves fallback definitions and empty quizzes.
type Generator struct {
	provider llm.Provider
	config   Config
	logger   *slog.Logger
}

// New creates a Generator. provider may be nil.
func New(provider llm.Provider, cfg Config, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{provider: provider, config: cfg, logger: logger}
}

// Enabled reports whether a model is configured.
func (g *Generator) Enabled() bool {
	return g.provider != nil
}

// definitionOutput is the raw LLM response before validation.
type definitionOutput struct {
	Easy         string   `json:"easy"`
	Medium       string   `json:"medium"`
	Hard         string   `json:"hard"`
	Examples     []string `json:"examples"`
	RelatedWords []string `json:"related_words"`
}

type quizOutput struct {
	Questions []gateway.Question `json:"questions"`
}

// Define explains term at every level. Any model failure degrades to the
// fallback explanation, so the returned error is only ever a context error.
func (g *Generator) Define(ctx context.Context, term, language string) (*Definition, error) {
	term = strings.TrimSpace(term)
	if g.provider == nil {
		return Fallback(term), nil
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeDefinition)
	req := llm.Prompt(definitionSystemPrompt, buildDefinitionMessage(term, language), DefinitionSchema)
	req.MaxTokens = g.config.MaxTokens
	req.Temperature = g.config.Temperature

	var def *Definition
	err := g.generate(ctx, req, func(resp *llm.Response) *ValidationError {
		var raw definitionOutput
		if err := resp.Decode(&raw); err != nil {
			return &ValidationError{Validator: "decode", Message: err.Error(), Retryable: true}
		}
		def = &Definition{
			Term:         term,
			Easy:         raw.Easy,
			Medium:       raw.Medium,
			Hard:         raw.Hard,
			Examples:     raw.Examples,
			RelatedWords: raw.RelatedWords,
			Source:       SourceLLM,
		}
		for _, v := range g.config.DefinitionValidators {
			if verr := v.Validate(def); verr != nil {
				return verr
			}
		}
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		g.logger.Warn("definition generation failed, using fallback",
			slog.String("term", term), slog.String("error", err.Error()))
		return Fallback(term), nil
	}
	return def, nil
}

// Quiz generates up to req.Count questions about req.Terms. Without a
// provider it returns no questions and no error.
func (g *Generator) Quiz(ctx context.Context, req QuizRequest) ([]gateway.Question, error) {
	if g.provider == nil {
		return nil, nil
	}
	if req.Count <= 0 {
		return nil, errors.New("question count must be positive")
	}
	if len(req.Terms) == 0 {
		req.Terms = GeneralTopics
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeQuiz)
	llmReq := llm.Prompt(quizSystemPrompt, buildQuizMessage(req), QuizSchema)
	llmReq.MaxTokens = max(g.config.MaxTokens, 256*req.Count)
	llmReq.Temperature = 0.7

	var questions []gateway.Question
	err := g.generate(ctx, llmReq, func(resp *llm.Response) *ValidationError {
		var raw quizOutput
		if err := resp.Decode(&raw); err != nil {
			return &ValidationError{Validator: "decode", Message: err.Error(), Retryable: true}
		}
		if len(raw.Questions) == 0 {
			return &ValidationError{Validator: "quiz", Message: "no questions", Retryable: true}
		}
		for i := range raw.Questions {
			for _, v := range g.config.QuestionValidators {
				if verr := v.Validate(&raw.Questions[i], req.Terms); verr != nil {
					return verr
				}
			}
		}
		questions = raw.Questions
		if len(questions) > req.Count {
			questions = questions[:req.Count]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// generate calls the provider and runs accept on the response. A
// retryable rejection is fed back to the model up to MaxRetries times.
func (g *Generator) generate(ctx context.Context, req llm.Request, accept func(*llm.Response) *ValidationError) error {
	for attempt := 0; ; attempt++ {
		resp, err := g.provider.Generate(ctx, req)
		if err != nil {
			return fmt.Errorf("LLM generation failed: %w", err)
		}

		verr := accept(resp)
		if verr == nil {
			return nil
		}
		if !verr.Retryable || attempt >= g.config.MaxRetries {
			return verr
		}

		g.logger.Debug("retrying rejected generation",
			slog.String("purpose", llm.PurposeFrom(ctx)),
			slog.String("validator", verr.Validator),
			slog.String("reason", verr.Message))
		req = req.FollowUp(string(resp.Content), buildFeedback(verr))
	}
}

// IsValidation reports whether err is a rejected generation.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
