// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	regerrors "github.com/cargomirror/registry/pkg/errors"
)

const (
	defaultDomain = "localhost"
	defaultIP     = "0.0.0.0"
	defaultPort   = uint16(80)

	defaultHTTPSPort = uint16(443)
	defaultHTTPPort  = uint16(80)
)

// Config is the declarative configuration persisted as registry.toml.
type Config struct {
	Meta   MetaConfig    `toml:"meta"`
	Mirror *MirrorConfig `toml:"mirror,omitempty"`
	HTTP   HTTPConfig    `toml:"http"`
	Access AccessConfig  `toml:"access"`
}

// MetaConfig carries registry identity.
type MetaConfig struct {
	Name string `toml:"name"`
}

// MirrorConfig is present iff the registry was created via `mirror`.
type MirrorConfig struct {
	Source              string         `toml:"source"`
	Sync                bool           `toml:"sync"`
	IndexUpdateInterval uint           `toml:"index-update-interval"`
	OriginURLs          OriginURLs     `toml:"origin-urls"`
}

// OriginURLs mirrors the upstream index's config.json at the time of
// mirroring.
type OriginURLs struct {
	DL  string `toml:"dl"`
	API string `toml:"api"`
}

// HTTPConfig configures the bind address and optional TLS.
type HTTPConfig struct {
	Domain string `toml:"domain"`
	IP     string `toml:"ip"`
	Port   uint16 `toml:"port"`
	SSL    bool   `toml:"ssl"`
	Cert   string `toml:"cert"`
	Key    string `toml:"key"`
}

// AccessConfig gates the Git-protocol bridge's two RPC endpoints.
type AccessConfig struct {
	GitReceivePack bool `toml:"git-receive-pack"`
	GitUploadPack  bool `toml:"git-upload-pack"`
}

// DefaultConfig returns the config produced by `create`: no mirror section,
// both access bits enabled, and the documented HTTP defaults.
func DefaultConfig(name string) *Config {
	return &Config{
		Meta: MetaConfig{Name: name},
		HTTP: HTTPConfig{
			Domain: defaultDomain,
			IP:     defaultIP,
			Port:   defaultPort,
		},
		Access: AccessConfig{
			GitReceivePack: true,
			GitUploadPack:  true,
		},
	}
}

// applyDefaults fills in zero-valued fields that registry.toml allows to be
// omitted.
func applyDefaults(c *Config) {
	if c.HTTP.Domain == "" {
		c.HTTP.Domain = defaultDomain
	}
	if c.HTTP.IP == "" {
		c.HTTP.IP = defaultIP
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = defaultPort
	}
}

// Validate checks the non-negotiable invariant: meta.name must be
// non-empty.
func (c *Config) Validate() error {
	if c == nil {
		return regerrors.NewPathInvalidError("registry config is nil", nil)
	}
	if c.Meta.Name == "" {
		return regerrors.NewPathInvalidError("meta.name must not be empty", nil)
	}
	return nil
}

// LoadConfig reads and parses registry.toml from path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator-controlled, not user input
	if err != nil {
		return nil, regerrors.NewIOError("failed to read registry.toml", err)
	}
	// Access bits absent from the file keep these enabled defaults.
	cfg := Config{Access: AccessConfig{GitReceivePack: true, GitUploadPack: true}}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, regerrors.NewTOMLError("failed to parse registry.toml", err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig serializes cfg as TOML and writes it to path.
func SaveConfig(path string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return regerrors.NewTOMLError("failed to serialize registry.toml", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // registry.toml is not secret material
		return regerrors.NewIOError("failed to write registry.toml", err)
	}
	return nil
}

// BaseURL computes scheme://domain[:port]/name, omitting the port when it
// equals the scheme's default (443 for https, 80 for http).
func (c *Config) BaseURL() string {
	scheme := "http"
	defaultPort := defaultHTTPPort
	if c.HTTP.SSL {
		scheme = "https"
		defaultPort = defaultHTTPSPort
	}

	host := c.HTTP.Domain
	if c.HTTP.Port != defaultPort {
		host = fmt.Sprintf("%s:%d", host, c.HTTP.Port)
	}
	return fmt.Sprintf("%s://%s/%s", scheme, host, c.Meta.Name)
}

// IsMirror reports whether this registry was created via `mirror`.
func (c *Config) IsMirror() bool {
	return c.Mirror != nil
}
