package llm

import "fmt"

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	openRouterReferer        = "https://github.com/conceptclarity/clarity"
	openRouterTitle          = "Concept Clarity"
)

// NewOpenRouterProvider returns an OpenAI-compatible provider aimed at
// OpenRouter. Requests carry the app attribution headers OpenRouter uses
// for its rankings.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}
	p, err := NewOpenAIProvider(OpenAIConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: baseURL,
		Headers: map[string]string{
			"HTTP-Referer": openRouterReferer,
			"X-Title":      openRouterTitle,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openrouter: %w", err)
	}
	p.name = "openrouter"
	return p, nil
}
