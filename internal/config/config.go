// Package config loads and saves Cortex's TOML configuration, resolves
// $CORTEX_HOME and its related environment overrides, and implements the
// three-tier credential store. Extra fields round-trip via
// toml.Primitive, the way the teacher's settings.json loader preserved
// unknown JSON fields through a raw map — here the per-section decode
// just happens lazily instead of eagerly.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/cortexagent/cortex/internal/cerr"
)

var (
	homeDir     string
	homeDirOnce sync.Once
)

func cachedHomeDir() string {
	homeDirOnce.Do(func() {
		homeDir, _ = os.UserHomeDir()
	})
	return homeDir
}

// ExpandHome expands a leading ~/ to the user's home directory, leaving
// path unchanged if it doesn't start with ~/ or the home directory can't
// be determined.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home := cachedHomeDir()
	if home == "" {
		return path
	}
	return filepath.Join(home, path[2:])
}

// Home resolves $CORTEX_HOME, defaulting to ~/.cortex.
func Home() string {
	if v := os.Getenv("CORTEX_HOME"); v != "" {
		return ExpandHome(v)
	}
	return filepath.Join(cachedHomeDir(), ".cortex")
}

// Debug reports whether CORTEX_DEBUG requests verbose logging.
func Debug() bool {
	v := strings.ToLower(os.Getenv("CORTEX_DEBUG"))
	return v == "1" || v == "true" || v == "yes"
}

// NoColor reports whether NO_COLOR is set, per the informal
// no-color.org convention the teacher's terminal output already
// respects via lipgloss's own NO_COLOR detection; callers needing an
// explicit check (outside lipgloss's rendering path) use this.
func NoColor() bool {
	return os.Getenv("NO_COLOR") != ""
}

// Provider returns the CORTEX_PROVIDER override, if set.
func Provider() string {
	return os.Getenv("CORTEX_PROVIDER")
}

// Config is the root of config.toml.
type Config struct {
	Provider      string                    `toml:"provider"`
	Model         string                    `toml:"model"`
	SandboxPolicy string                    `toml:"sandbox_policy"`
	WorkspaceRoot string                    `toml:"workspace_root"`
	Extra         map[string]toml.Primitive `toml:"-"`

	// meta is kept from Load so Save can decode Extra's Primitives back
	// into plain values; a Config built fresh (not loaded) has no
	// Extra entries, so a zero meta is never dereferenced.
	meta toml.MetaData
}

// knownKeys are the top-level config.toml keys decoded into typed Config
// fields; everything else round-trips through Extra.
var knownKeys = map[string]bool{
	"provider": true, "model": true, "sandbox_policy": true, "workspace_root": true,
}

// Path returns the default config file path under Home().
func Path() string {
	return filepath.Join(Home(), "config.toml")
}

// Load reads and parses the config file at path, returning a zero-value
// Config with no error if the file doesn't exist.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{Extra: map[string]toml.Primitive{}}, nil
		}
		return nil, cerr.New(cerr.KindIO, "config.Load", err)
	}

	var table map[string]toml.Primitive
	md, err := toml.Decode(string(data), &table)
	if err != nil {
		return nil, cerr.New(cerr.KindInvalidInput, "config.Load", err)
	}

	cfg := &Config{Extra: map[string]toml.Primitive{}, meta: md}
	for k, v := range table {
		if !knownKeys[k] {
			cfg.Extra[k] = v
			continue
		}
		var s string
		if err := md.PrimitiveDecode(v, &s); err != nil {
			return nil, cerr.New(cerr.KindInvalidInput, "config.Load", err)
		}
		switch k {
		case "provider":
			cfg.Provider = s
		case "model":
			cfg.Model = s
		case "sandbox_policy":
			cfg.SandboxPolicy = s
		case "workspace_root":
			cfg.WorkspaceRoot = s
		}
	}
	return cfg, nil
}

// Save serializes cfg to path, writing Extra's keys back verbatim
// alongside the known fields.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return cerr.New(cerr.KindIO, "config.Save", err)
	}

	out := map[string]any{}
	if cfg.Provider != "" {
		out["provider"] = cfg.Provider
	}
	if cfg.Model != "" {
		out["model"] = cfg.Model
	}
	if cfg.SandboxPolicy != "" {
		out["sandbox_policy"] = cfg.SandboxPolicy
	}
	if cfg.WorkspaceRoot != "" {
		out["workspace_root"] = cfg.WorkspaceRoot
	}
	for k, v := range cfg.Extra {
		var decoded any
		if err := cfg.meta.PrimitiveDecode(v, &decoded); err == nil {
			out[k] = decoded
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return cerr.New(cerr.KindIO, "config.Save", err)
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(out)
}
