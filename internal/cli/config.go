// Package cli holds the plumbing of the command line tools.
package cli

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/eztoolbox/dispatch"
	"github.com/effective-security/eztoolbox/pool"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
	"github.com/go-playground/validator/v10"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/eztoolbox", "cli")

// Supported model providers
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// ChatConfig is the configuration of the chat agent,
// the server list shares the file with the agent settings
type ChatConfig struct {
	pool.Config `json:",inline" yaml:",inline" toml:",inline"`

	Provider string `json:"provider,omitempty" yaml:"provider,omitempty" toml:"provider,omitempty" validate:"omitempty,oneof=openai anthropic"`
	Model    string `json:"model,omitempty" yaml:"model,omitempty" toml:"model,omitempty"`
	BaseURL  string `json:"base_url,omitempty" yaml:"base_url,omitempty" toml:"base_url,omitempty" validate:"omitempty,url"`
	// APIKeyEnv is the name of the environment variable with the API key
	APIKeyEnv string `json:"api_key_env,omitempty" yaml:"api_key_env,omitempty" toml:"api_key_env,omitempty"`
	// SystemPrompt is a text/template with sprig functions
	SystemPrompt string `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty" toml:"system_prompt,omitempty"`
	MaxRounds    int    `json:"max_rounds,omitempty" yaml:"max_rounds,omitempty" toml:"max_rounds,omitempty" validate:"omitempty,min=1,max=100"`
	MaxTokens    int64  `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty" toml:"max_tokens,omitempty" validate:"omitempty,min=1"`
	UnsafeExec   bool   `json:"unsafe_exec,omitempty" yaml:"unsafe_exec,omitempty" toml:"unsafe_exec,omitempty"`
}

var validate = validator.New()

// DefaultChatConfig returns the config with the builtin server
func DefaultChatConfig() *ChatConfig {
	return &ChatConfig{
		Config: *pool.DefaultConfig(),
	}
}

// LoadChatConfig loads the config from file.
// When the file does not exist the default config is returned.
func LoadChatConfig(file string) (*ChatConfig, error) {
	cfg := DefaultChatConfig()
	if file == "" {
		return cfg, nil
	}
	if _, err := os.Stat(file); os.IsNotExist(err) {
		logger.KV(xlog.INFO, "status", "config_not_found", "file", file)
		return cfg, nil
	}

	cfg = new(ChatConfig)
	if err := pool.LoadFile(file, cfg); err != nil {
		return nil, err
	}
	if len(cfg.MCPServers) == 0 && len(cfg.Servers) == 0 {
		cfg.Config = *pool.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate returns an error if the config is not usable
func (c *ChatConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.WithMessage(err, "invalid chat config")
	}
	return c.Config.Validate()
}

// ProviderName returns the configured provider, openai by default
func (c *ChatConfig) ProviderName() string {
	return values.StringsCoalesce(c.Provider, ProviderOpenAI)
}

// APIKey returns the API key from the environment
func (c *ChatConfig) APIKey() string {
	env := c.APIKeyEnv
	if env == "" {
		env = "OPENAI_API_KEY"
		if c.ProviderName() == ProviderAnthropic {
			env = "ANTHROPIC_API_KEY"
		}
	}
	return os.Getenv(env)
}

// Rounds returns the max number of model calls per turn
func (c *ChatConfig) Rounds() int {
	return values.NumbersCoalesce(c.MaxRounds, dispatch.DefaultMaxRounds)
}

// SetupLogging writes the logs to stderr,
// debug enables the verbose level
func SetupLogging(debug bool) {
	xlog.SetFormatter(xlog.NewStringFormatter(os.Stderr))
	if debug {
		xlog.SetGlobalLogLevel(xlog.DEBUG)
	} else {
		xlog.SetGlobalLogLevel(xlog.WARNING)
	}
}
