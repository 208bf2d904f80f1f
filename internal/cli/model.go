package cli

import (
	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/eztoolbox/dispatch"
	"github.com/effective-security/eztoolbox/models/anthropic"
	"github.com/effective-security/eztoolbox/models/openai"
	openaisdk "github.com/openai/openai-go/v3"
	openaiopt "github.com/openai/openai-go/v3/option"
)

// ErrNoAPIKey is returned when the provider API key is not set
var ErrNoAPIKey = errors.New("API key is not set")

// NewModel returns the model of the configured provider
func NewModel(cfg *ChatConfig) (dispatch.Model, error) {
	key := cfg.APIKey()
	if key == "" {
		return nil, errors.WithMessagef(ErrNoAPIKey, "provider %s", cfg.ProviderName())
	}

	switch cfg.ProviderName() {
	case ProviderOpenAI:
		opts := []openaiopt.RequestOption{openaiopt.WithAPIKey(key)}
		if cfg.BaseURL != "" {
			opts = append(opts, openaiopt.WithBaseURL(cfg.BaseURL))
		}
		return openai.New(openaisdk.NewClient(opts...), cfg.Model), nil
	case ProviderAnthropic:
		opts := []anthropicopt.RequestOption{anthropicopt.WithAPIKey(key)}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropicopt.WithBaseURL(cfg.BaseURL))
		}
		return anthropic.New(anthropicsdk.NewClient(opts...), cfg.Model, cfg.MaxTokens), nil
	}
	return nil, errors.Newf("unsupported provider: %s", cfg.ProviderName())
}
