//go:build !linux && !darwin && !windows

package sandbox

import "fmt"

// genericPreparer refuses anything but DangerFullAccess on platforms
// with no sandbox primitive wired up.
type genericPreparer struct{}

func newPlatformPreparer() Preparer { return genericPreparer{} }

func (genericPreparer) Prepare(cfg Config, argv []string) ([]string, error) {
	if cfg.Policy == DangerFullAccess {
		return argv, nil
	}
	return nil, fmt.Errorf("sandbox: no enforcement available on this platform for policy %v", cfg.Policy)
}
