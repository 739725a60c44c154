// Package skill implements the skill/agent registry: directory-scanned
// prompt bundles (a TOML manifest plus a skill.md prompt body) kept in a
// concurrent keyed map, rescanned on a hot-reload tick or a filesystem
// watcher event. A skill and an agent share this same loader — an agent
// is simply a skill directory scanned from .cortex/agents whose manifest
// is expected to describe a full persona rather than a prompt fragment.
//
// YAML manifests are named in the distilled spec alongside TOML, but no
// YAML library is part of this project's dependency stack (only
// BurntSushi/toml is); manifests are TOML-only here, matching the
// teacher's own TOML/JSON configuration surfaces.
package skill

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/cortexagent/cortex/internal/cerr"
)

// maxPromptBytes caps a prompt markdown file's size; an oversized prompt
// fails validation rather than silently truncating at load time.
const maxPromptBytes = 64 * 1024

// Manifest is a skill directory's manifest.toml, decoded 1:1 per spec §3.
type Manifest struct {
	Name        string   `toml:"name"`
	Description string   `toml:"description"`
	Version     string   `toml:"version"`
	AutoAllowed bool     `toml:"auto_allowed"`
	TimeoutSecs int      `toml:"timeout"`
	Tags        []string `toml:"tags"`
	Author      string   `toml:"author"`
}

// Entry is one loaded skill or agent: its manifest, prompt body, and the
// directory it was scanned from. ID is the directory's base name,
// lower-cased, per spec §3's "identified by its directory name."
type Entry struct {
	ID       string
	Dir      string
	Manifest Manifest
	Prompt   string
}

// Source labels each scan root returned by Roots (project or user,
// skills or agents). An Entry does not record the root it was loaded from.
type Source string

const (
	SourceProjectSkill Source = "project_skill"
	SourceProjectAgent Source = "project_agent"
	SourceUserSkill    Source = "user_skill"
	SourceUserAgent    Source = "user_agent"
)

// Roots returns the scan directories in precedence order: project-local
// skills, project-local agents, then the user-global equivalents under
// home. A later, lower-precedence duplicate id never overwrites an
// earlier one — see Registry.Scan.
func Roots(projectDir, homeDir string) []struct {
	Source Source
	Path   string
} {
	return []struct {
		Source Source
		Path   string
	}{
		{SourceProjectSkill, filepath.Join(projectDir, ".cortex", "skills")},
		{SourceProjectAgent, filepath.Join(projectDir, ".cortex", "agents")},
		{SourceUserSkill, filepath.Join(homeDir, "skills")},
		{SourceUserAgent, filepath.Join(homeDir, "agents")},
	}
}

// loadEntry reads one skill/agent directory, validating as it goes.
func loadEntry(dir string) (Entry, error) {
	id := strings.ToLower(filepath.Base(dir))

	manifestPath := filepath.Join(dir, "manifest.toml")
	var m Manifest
	if _, err := toml.DecodeFile(manifestPath, &m); err != nil {
		return Entry{}, cerr.New(cerr.KindInvalidInput, "skill.loadEntry", fmt.Errorf("%s: %w", id, err))
	}
	if m.Name == "" {
		return Entry{}, cerr.Newf(cerr.KindInvalidInput, "skill.loadEntry", "%s: manifest missing name", id)
	}

	promptPath := filepath.Join(dir, "skill.md")
	data, err := os.ReadFile(promptPath)
	if err != nil {
		return Entry{}, cerr.New(cerr.KindIO, "skill.loadEntry", fmt.Errorf("%s: %w", id, err))
	}
	if len(data) > maxPromptBytes {
		return Entry{}, cerr.Newf(cerr.KindInvalidInput, "skill.loadEntry", "%s: prompt exceeds %d bytes", id, maxPromptBytes)
	}

	return Entry{ID: id, Dir: dir, Manifest: m, Prompt: string(data)}, nil
}

// Registry is the concurrent keyed map of loaded entries, plus the
// precedence-ordered roots it was last scanned from.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	roots   []struct {
		Source Source
		Path   string
	}

	// rejected accumulates the most recent scan's validation failures,
	// keyed by directory, so a caller (e.g. `cortex agents list`) can
	// surface why an entry didn't load without Scan itself failing.
	rejected map[string]error
}

// NewRegistry returns an empty Registry configured to scan the given
// project and user-home directories.
func NewRegistry(projectDir, homeDir string) *Registry {
	return &Registry{
		entries: map[string]Entry{},
		roots:   Roots(projectDir, homeDir),
	}
}

// Scan rescans every root in precedence order. An id already claimed by a
// higher-precedence root is not overwritten by a later root — this is how
// a project-local skill shadows a user-global one of the same name,
// matching the scan order in spec §4.Q rather than treating it as a
// duplicate-id validation failure (that check applies within one root).
func (r *Registry) Scan() error {
	fresh := map[string]Entry{}
	rejected := map[string]error{}
	seenInRoot := map[string]bool{}

	for _, root := range r.roots {
		seenInRoot = map[string]bool{}
		dirEntries, err := os.ReadDir(root.Path)
		if err != nil {
			continue // a missing scan root is not an error
		}
		names := make([]string, 0, len(dirEntries))
		for _, de := range dirEntries {
			if de.IsDir() {
				names = append(names, de.Name())
			}
		}
		sort.Strings(names)

		for _, name := range names {
			dir := filepath.Join(root.Path, name)
			id := strings.ToLower(name)
			if seenInRoot[id] {
				rejected[dir] = fmt.Errorf("duplicate id %q within %s", id, root.Path)
				continue
			}
			seenInRoot[id] = true

			entry, err := loadEntry(dir)
			if err != nil {
				rejected[dir] = err
				continue
			}
			if _, exists := fresh[id]; exists {
				continue // shadowed by a higher-precedence root
			}
			fresh[id] = entry
		}
	}

	r.mu.Lock()
	r.entries = fresh
	r.rejected = rejected
	r.mu.Unlock()
	return nil
}

// Get returns the entry for id (already lower-cased for lookup).
func (r *Registry) Get(id string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[strings.ToLower(id)]
	return e, ok
}

// List returns every loaded entry, sorted by id.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Rejected returns the most recent scan's validation failures, keyed by
// the directory that failed to load.
func (r *Registry) Rejected() map[string]error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]error, len(r.rejected))
	for k, v := range r.rejected {
		out[k] = v
	}
	return out
}

// Match returns every entry whose id or name satisfies the glob-style,
// case-insensitive pattern (`*`, `code-*`, `*-review`).
func (r *Registry) Match(pattern string) []Entry {
	pattern = strings.ToLower(pattern)
	var out []Entry
	for _, e := range r.List() {
		if globMatch(pattern, e.ID) || globMatch(pattern, strings.ToLower(e.Manifest.Name)) {
			out = append(out, e)
		}
	}
	return out
}

// globMatch implements the restricted glob subset spec §4.Q calls for: a
// bare "*" matches everything, and a single leading or trailing "*" is a
// prefix/suffix match. Patterns with "*" anywhere else fall back to an
// exact match, since the spec names only the two anchored forms.
func globMatch(pattern, s string) bool {
	switch {
	case pattern == "*":
		return true
	case strings.HasSuffix(pattern, "*") && !strings.HasPrefix(pattern, "*"):
		return strings.HasPrefix(s, pattern[:len(pattern)-1])
	case strings.HasPrefix(pattern, "*") && !strings.HasSuffix(pattern, "*"):
		return strings.HasSuffix(s, pattern[1:])
	default:
		return pattern == s
	}
}
