package llm

import "time"

// DefaultBaseURL is the OpenAI-compatible endpoint of the DashScope
// service the rewriter was built against.
const DefaultBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"

// DefaultModel serves requests when the configuration names no model.
const DefaultModel = "qwen3-30b-a3b-instruct-2507"

// DefaultTimeout bounds one generation call end to end.
const DefaultTimeout = 60 * time.Second

// Config carries everything one generation call needs.
type Config struct {
	// BaseURL is the service root. Empty means DefaultBaseURL.
	BaseURL string

	// Model selects which underlying model serves the request. Empty means
	// DefaultModel.
	Model string

	// APIKey authenticates the request.
	APIKey string

	// MaxOutputTokens caps generated text size. Zero omits the cap from
	// the request.
	MaxOutputTokens int

	// Temperature controls sampling. Zero omits it from the request and
	// the service default applies.
	Temperature float64

	// Timeout bounds the call. Zero means DefaultTimeout.
	Timeout time.Duration
}

// withDefaults fills unset fields with package defaults.
func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}
