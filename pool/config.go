package pool

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/eztoolbox/session"
	"github.com/effective-security/x/configloader"
	"github.com/effective-security/xlog"
)

// Default server
const (
	DefaultServerName        = "ez-mcp-server"
	DefaultServerDescription = "Ez MCP server with default tools"
	DefaultConfigFile        = "ez-config.json"
)

// Config is the list of tool servers
type Config struct {
	MCPServers []session.EndpointConfig `json:"mcp_servers,omitempty" yaml:"mcp_servers,omitempty" toml:"mcp_servers,omitempty"`
	// Servers is the map form used by other MCP clients,
	// keyed by server name
	Servers map[string]session.EndpointConfig `json:"mcpServers,omitempty" yaml:"mcpServers,omitempty" toml:"mcpServers,omitempty"`
}

// DefaultConfig returns the config with the builtin server on stdio
func DefaultConfig() *Config {
	return &Config{
		MCPServers: []session.EndpointConfig{
			{
				Name:        DefaultServerName,
				Description: DefaultServerDescription,
				Command:     DefaultServerName,
				Transport:   session.TransportStdio,
			},
		},
	}
}

// Endpoints returns the server list, with map entries appended
// in name order after the list entries.
func (c *Config) Endpoints() []session.EndpointConfig {
	res := append([]session.EndpointConfig(nil), c.MCPServers...)

	names := make([]string, 0, len(c.Servers))
	for name := range c.Servers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ec := c.Servers[name]
		if ec.Name == "" {
			ec.Name = name
		}
		res = append(res, ec)
	}
	return res
}

// Validate returns an error if any server config is invalid,
// or names are not unique
func (c *Config) Validate() error {
	seen := make(map[string]bool)
	for _, ec := range c.Endpoints() {
		if err := ec.Validate(); err != nil {
			return err
		}
		if seen[ec.Name] {
			return errors.Newf("duplicate server name %q", ec.Name)
		}
		seen[ec.Name] = true
	}
	return nil
}

// LoadFile unmarshals the file into cfg by its extension,
// toml files are decoded with BurntSushi/toml,
// others with configloader which expands environment references.
func LoadFile(file string, cfg any) error {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".toml":
		if _, err := toml.DecodeFile(file, cfg); err != nil {
			return errors.Wrapf(err, "unable to load %s", file)
		}
		return nil
	case ".json", ".yaml", ".yml":
		if err := configloader.UnmarshalAndExpand(file, cfg); err != nil {
			return errors.Wrapf(err, "unable to load %s", file)
		}
		return nil
	}
	return errors.Newf("unsupported config format: %s", file)
}

// LoadConfig loads the server list from file.
// When the file does not exist the default config is returned.
func LoadConfig(file string) (*Config, error) {
	if file == "" {
		return DefaultConfig(), nil
	}
	if _, err := os.Stat(file); os.IsNotExist(err) {
		logger.KV(xlog.INFO, "status", "config_not_found", "file", file)
		return DefaultConfig(), nil
	}

	cfg := new(Config)
	if err := LoadFile(file, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
