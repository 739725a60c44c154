//go:build linux

package sandbox

import "fmt"

// linuxPreparer checks the policy (WorkspaceWrite needs a workspace root)
// and returns argv unchanged. It installs no Landlock ruleset or seccomp
// filter, so ReadOnly and WorkspaceWrite commands run unconfined and
// AllowNetwork has no effect.
type linuxPreparer struct{}

func newPlatformPreparer() Preparer { return linuxPreparer{} }

func (linuxPreparer) Prepare(cfg Config, argv []string) ([]string, error) {
	switch cfg.Policy {
	case DangerFullAccess:
		return argv, nil
	case ReadOnly, WorkspaceWrite:
		if cfg.Policy == WorkspaceWrite && cfg.WorkspaceRoot == "" {
			return nil, fmt.Errorf("sandbox: workspace-write requires a workspace root")
		}
		return argv, nil
	default:
		return nil, fmt.Errorf("sandbox: unknown policy %v", cfg.Policy)
	}
}
