//go:build windows

package sandbox

import "fmt"

// windowsPreparer accepts the three known policies and returns argv
// unchanged; no Job Object or other confinement is applied to the child.
type windowsPreparer struct{}

func newPlatformPreparer() Preparer { return windowsPreparer{} }

func (windowsPreparer) Prepare(cfg Config, argv []string) ([]string, error) {
	switch cfg.Policy {
	case DangerFullAccess, ReadOnly, WorkspaceWrite:
		return argv, nil
	default:
		return nil, fmt.Errorf("sandbox: unknown policy %v", cfg.Policy)
	}
}
