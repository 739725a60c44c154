//go:build darwin

package sandbox

import (
	"fmt"
	"strings"
)

// darwinPreparer wraps the command in sandbox-exec with a generated SBPL
// (Sandbox Profile Language) profile.
type darwinPreparer struct{}

func newPlatformPreparer() Preparer { return darwinPreparer{} }

func (darwinPreparer) Prepare(cfg Config, argv []string) ([]string, error) {
	if cfg.Policy == DangerFullAccess {
		return argv, nil
	}
	profile, err := sbplProfile(cfg)
	if err != nil {
		return nil, err
	}
	wrapped := append([]string{"sandbox-exec", "-p", profile}, argv...)
	return wrapped, nil
}

func sbplProfile(cfg Config) (string, error) {
	var b strings.Builder
	b.WriteString("(version 1)\n(deny default)\n(allow process-exec)\n(allow file-read*)\n")
	switch cfg.Policy {
	case ReadOnly:
		// no additional write allowances
	case WorkspaceWrite:
		if cfg.WorkspaceRoot == "" {
			return "", fmt.Errorf("sandbox: workspace-write requires a workspace root")
		}
		fmt.Fprintf(&b, "(allow file-write* (subpath %q))\n", cfg.WorkspaceRoot)
		for _, p := range cfg.ExtraWritablePaths {
			fmt.Fprintf(&b, "(allow file-write* (subpath %q))\n", p)
		}
		b.WriteString("(allow file-write* (subpath \"/tmp\"))\n")
	default:
		return "", fmt.Errorf("sandbox: unknown policy %v", cfg.Policy)
	}
	if cfg.AllowNetwork {
		b.WriteString("(allow network*)\n")
	}
	return b.String(), nil
}
