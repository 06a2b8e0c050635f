package conceptgen

// Config controls the behavior of the Generator.
type Config struct {
	// DefinitionValidators run on every generated definition, in order.
	DefinitionValidators []DefinitionValidator

	// QuestionValidators run on every generated quiz question, in order.
	QuestionValidators []QuestionValidator

	// MaxTokens is the token budget for the LLM response.
	MaxTokens int

	// Temperature controls LLM output randomness (0.0-1.0).
	Temperature float64

	// MaxRetries is how many times a retryable validation failure is fed
	// back to the model before giving up.
	MaxRetries int
}

// DefaultConfig returns a Config with the standard validator chains.
func DefaultConfig() Config {
	return Config{
		DefinitionValidators: []DefinitionValidator{&DefinitionStructureValidator{}},
		QuestionValidators:   []QuestionValidator{&QuestionStructureValidator{}},
		MaxTokens:            1024,
		Temperature:          0.3,
		MaxRetries:           1,
	}
}
