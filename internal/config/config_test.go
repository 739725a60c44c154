package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandHomeTildePath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}
	got := ExpandHome("~/.cortex/config.toml")
	want := filepath.Join(home, ".cortex/config.toml")
	if got != want {
		t.Errorf("ExpandHome = %q, want %q", got, want)
	}
}

func TestExpandHomeLeavesNonTildePaths(t *testing.T) {
	if got := ExpandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("got %q", got)
	}
	if got := ExpandHome("relative/path"); got != "relative/path" {
		t.Errorf("got %q", got)
	}
}

func TestHomeRespectsEnvOverride(t *testing.T) {
	t.Setenv("CORTEX_HOME", "/tmp/custom-cortex")
	if got := Home(); got != "/tmp/custom-cortex" {
		t.Errorf("Home() = %q, want /tmp/custom-cortex", got)
	}
}

func TestDebugRecognizesTruthyValues(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", "yes"} {
		t.Setenv("CORTEX_DEBUG", v)
		if !Debug() {
			t.Errorf("Debug() false for CORTEX_DEBUG=%q", v)
		}
	}
	t.Setenv("CORTEX_DEBUG", "0")
	if Debug() {
		t.Errorf("Debug() true for CORTEX_DEBUG=0")
	}
}

func TestLoadMissingFileReturnsEmptyConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != "" || cfg.Model != "" {
		t.Fatalf("expected zero-value config, got %+v", cfg)
	}
}

func TestLoadSaveRoundTripsKnownAndExtraFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	raw := "provider = \"anthropic\"\nmodel = \"claude\"\n\n[future_section]\nnested = \"value\"\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != "anthropic" || cfg.Model != "claude" {
		t.Fatalf("unexpected known fields: %+v", cfg)
	}
	if _, ok := cfg.Extra["future_section"]; !ok {
		t.Fatalf("expected future_section preserved in Extra")
	}

	cfg.SandboxPolicy = "workspace-write"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Provider != "anthropic" || reloaded.SandboxPolicy != "workspace-write" {
		t.Fatalf("unexpected reloaded config: %+v", reloaded)
	}
	if _, ok := reloaded.Extra["future_section"]; !ok {
		t.Fatalf("expected future_section to survive a save/reload cycle")
	}
}

func TestCredentialStoreRoundTripsThroughEncryptedTier(t *testing.T) {
	dir := t.TempDir()
	store := NewCredentialStore(dir)

	if _, err := store.Get("anthropic"); err == nil {
		t.Fatalf("expected error for unset provider")
	}

	want := Credentials{Provider: "anthropic", APIKey: "sk-test-123"}
	if err := store.Set("anthropic", want); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := store.Get("anthropic")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	if _, err := os.Stat(filepath.Join(dir, "credentials.enc")); err != nil {
		t.Fatalf("expected encrypted credentials file: %v", err)
	}
}

func TestCredentialStoreUpgradesLegacyPlaintext(t *testing.T) {
	dir := t.TempDir()
	legacy := Credentials{Provider: "openai", APIKey: "legacy-key"}
	if err := os.WriteFile(filepath.Join(dir, "auth.json"),
		[]byte(`{"openai":{"provider":"openai","api_key":"legacy-key"}}`), 0o600); err != nil {
		t.Fatalf("seed legacy file: %v", err)
	}

	store := NewCredentialStore(dir)
	got, err := store.Get("openai")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != legacy {
		t.Fatalf("got %+v, want %+v", got, legacy)
	}

	if _, err := os.Stat(filepath.Join(dir, "credentials.enc")); err != nil {
		t.Fatalf("expected legacy read to upgrade into the encrypted tier: %v", err)
	}

	// A second store instance (fresh process) should now resolve from the
	// encrypted tier without touching the legacy file.
	store2 := NewCredentialStore(dir)
	got2, err := store2.Get("openai")
	if err != nil {
		t.Fatalf("Get (post-upgrade): %v", err)
	}
	if got2 != legacy {
		t.Fatalf("got %+v, want %+v", got2, legacy)
	}
}
