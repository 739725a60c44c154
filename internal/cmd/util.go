package cmd

import (
	"fmt"
	"os"
	"path/filepath"
)

// workingDir returns the current directory, wrapped the way every RunE
// in this package reports a failed os.Getwd.
func workingDir() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolving working directory: %w", err)
	}
	return wd, nil
}

// writeSkillScaffold creates dir and writes manifest.toml and skill.md
// into it, failing if either already exists.
func writeSkillScaffold(dir, manifest, prompt string) error {
	if _, err := os.Stat(dir); err == nil {
		return usagef("%s already exists", dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.toml"), []byte(manifest), 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "skill.md"), []byte(prompt), 0o644); err != nil {
		return fmt.Errorf("writing prompt: %w", err)
	}
	return nil
}
