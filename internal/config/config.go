// Package config loads System's immutable startup parameters, the same
// pointer-typed-optional-field JSON pattern as the teacher's
// TuningConfig/LoadTuningConfig/EmptyTuningConfig trio, trimmed to the
// fields spec.md §3.1 and §4.7 name as system-wide configuration.
package config

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/meridian-air/oirindex/index"
)

// DefaultConfigPath is the path to the canonical system defaults file.
const DefaultConfigPath = "config/system.defaults.json"

// SystemConfig is the root configuration for a System instance. Fields
// omitted from a loaded JSON file keep their compiled-in defaults (see
// the Get* accessors), so partial configs are always safe.
type SystemConfig struct {
	// Precision is the Morton grid precision, spec.md §3.1's immutable
	// per-instance parameter, 1-16.
	Precision *int `json:"precision,omitempty"`

	// CacheSize bounds the C14 query cache. 0 or omitted disables
	// caching entirely (GetByCell always reads through to storage).
	CacheSize *int `json:"cache_size,omitempty"`

	// InitialOwnerHex is the hex-encoded 20-byte address of the deployer,
	// set once at construction (spec.md §4.7).
	InitialOwnerHex *string `json:"initial_owner,omitempty"`

	// InitialAllowedHex seeds the allow-list beyond the owner, who is
	// always implicitly allowed.
	InitialAllowedHex []string `json:"initial_allowed,omitempty"`
}

// EmptyConfig returns a SystemConfig with every field nil/empty. Use
// LoadConfig to populate one from a defaults file.
func EmptyConfig() *SystemConfig { return &SystemConfig{} }

// LoadConfig loads a SystemConfig from the JSON file at path.
func LoadConfig(path string) (*SystemConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical system defaults from
// DefaultConfigPath, searching the current directory and a few parent
// directories the way the teacher's MustLoadDefaultConfig does, since
// the caller's working directory varies between `go test ./...` at the
// repo root and package-local test runs. Panics if the file can't be
// found; intended for test setup, not production paths (which should
// load an explicit, host-supplied path via LoadConfig).
func MustLoadDefaultConfig() *SystemConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the fields that are set for internal consistency. It
// does not know about fixedpoint.MaxPrecision (config imports index for
// Principal but not fixedpoint, so the bound 16 is repeated here);
// System re-validates Precision against that ceiling itself.
func (c *SystemConfig) Validate() error {
	if c.Precision != nil && (*c.Precision < 1 || *c.Precision > 16) {
		return fmt.Errorf("precision must be in [1,16], got %d", *c.Precision)
	}
	if c.CacheSize != nil && *c.CacheSize < 0 {
		return fmt.Errorf("cache_size must be non-negative, got %d", *c.CacheSize)
	}
	return nil
}

// GetPrecision returns Precision or its default (12).
func (c *SystemConfig) GetPrecision() int {
	if c.Precision == nil {
		return 12
	}
	return *c.Precision
}

// GetCacheSize returns CacheSize or its default (0, disabled).
func (c *SystemConfig) GetCacheSize() int {
	if c.CacheSize == nil {
		return 0
	}
	return *c.CacheSize
}

// GetInitialOwner decodes InitialOwnerHex into an index.Principal, or
// returns the zero principal if unset.
func (c *SystemConfig) GetInitialOwner() (index.Principal, error) {
	var p index.Principal
	if c.InitialOwnerHex == nil || *c.InitialOwnerHex == "" {
		return p, nil
	}
	return decodePrincipal(*c.InitialOwnerHex)
}

// GetInitialAllowed decodes InitialAllowedHex into index.Principal values.
func (c *SystemConfig) GetInitialAllowed() ([]index.Principal, error) {
	out := make([]index.Principal, 0, len(c.InitialAllowedHex))
	for _, h := range c.InitialAllowedHex {
		p, err := decodePrincipal(h)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func decodePrincipal(hexStr string) (index.Principal, error) {
	var p index.Principal
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return p, fmt.Errorf("invalid principal hex %q: %w", hexStr, err)
	}
	if len(b) != len(p) {
		return p, fmt.Errorf("principal hex %q must decode to %d bytes, got %d", hexStr, len(p), len(b))
	}
	copy(p[:], b)
	return p, nil
}
