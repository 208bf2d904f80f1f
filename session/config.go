package session

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/values"
	"github.com/go-playground/validator/v10"
)

// Supported transports
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
	TransportHTTP  = "http"
)

// Defaults
const (
	DefaultHost    = "localhost"
	DefaultPort    = 8000
	DefaultTimeout = 30 * time.Second
)

// EndpointConfig describes how to reach one tool endpoint.
type EndpointConfig struct {
	// Name is the logical name of the server, unique in the pool.
	// It is part of the provider function names, so only letters, digits,
	// '-' and single '_' are allowed.
	Name        string `json:"name" yaml:"name" toml:"name" validate:"required,server_name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	// Transport is stdio, sse or http, stdio by default
	Transport string `json:"transport,omitempty" yaml:"transport,omitempty" toml:"transport,omitempty" validate:"omitempty,oneof=stdio sse http"`

	// Command and Args launch the server for stdio transport
	Command string            `json:"command,omitempty" yaml:"command,omitempty" toml:"command,omitempty"`
	Args    []string          `json:"args,omitempty" yaml:"args,omitempty" toml:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty" yaml:"env,omitempty" toml:"env,omitempty"`

	// Host and Port locate the server for network transports,
	// URL overrides both when set
	Host    string            `json:"host,omitempty" yaml:"host,omitempty" toml:"host,omitempty" validate:"omitempty,hostname_rfc1123|ip"`
	Port    int               `json:"port,omitempty" yaml:"port,omitempty" toml:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	URL     string            `json:"url,omitempty" yaml:"url,omitempty" toml:"url,omitempty" validate:"omitempty,url"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty" toml:"headers,omitempty"`

	// Timeout is the connect timeout, as a duration string like 30s
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty" toml:"timeout,omitempty"`
}

var reServerName = regexp.MustCompile(`^[A-Za-z0-9-]+(_[A-Za-z0-9-]+)*$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("server_name", func(fl validator.FieldLevel) bool {
		return reServerName.MatchString(fl.Field().String())
	})
	return v
}

// TransportKind returns the configured transport, stdio by default
func (c *EndpointConfig) TransportKind() string {
	return values.StringsCoalesce(c.Transport, TransportStdio)
}

// Validate returns an error if the config is not usable
func (c *EndpointConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.WithMessagef(err, "invalid config for server %q", c.Name)
	}
	if c.TransportKind() == TransportStdio && c.Command == "" {
		return errors.Newf("invalid config for server %q: command is required for stdio transport", c.Name)
	}
	if _, err := c.ConnectTimeout(); err != nil {
		return errors.WithMessagef(err, "invalid config for server %q", c.Name)
	}
	return nil
}

// ConnectTimeout returns the parsed connect timeout
func (c *EndpointConfig) ConnectTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return DefaultTimeout, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 0, errors.Newf("invalid timeout %q", c.Timeout)
	}
	return d, nil
}

// EndpointURL returns the URL of a network endpoint
func (c *EndpointConfig) EndpointURL() string {
	if c.URL != "" {
		return c.URL
	}
	host := values.StringsCoalesce(c.Host, DefaultHost)
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	path := "/mcp"
	if c.TransportKind() == TransportSSE {
		path = "/sse"
	}
	return fmt.Sprintf("http://%s:%d%s", host, port, path)
}

var reEnvRef = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_]*)\}$`)

// ExpandEnv replaces a value of the exact form ${VAR} with the value
// of the environment variable, or the empty string when it is not set.
// Other values are returned unchanged.
func ExpandEnv(v string) string {
	if m := reEnvRef.FindStringSubmatch(v); m != nil {
		return os.Getenv(m[1])
	}
	return v
}

// Environ returns the process environment extended with the config Env,
// sorted by name for a stable command line.
func (c *EndpointConfig) Environ() []string {
	env := os.Environ()
	keys := make([]string, 0, len(c.Env))
	for k := range c.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+ExpandEnv(c.Env[k]))
	}
	return env
}
