package rollout

import (
	"testing"
	"time"
)

func TestCreateWritesMetaFirst(t *testing.T) {
	home := t.TempDir()
	w, err := Create(home, Meta{ID: "c1", Timestamp: time.Now(), CWD: "/tmp", Model: "test-model", CLIVersion: "0.0.0"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := w.Write("user_message", map[string]string{"text": "hi"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	w.Close()

	r, err := Read(home, "c1")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if r.Meta.ID != "c1" {
		t.Fatalf("expected meta id c1, got %q", r.Meta.ID)
	}
	if len(r.Records) != 1 || r.Records[0].Kind != "user_message" {
		t.Fatalf("expected 1 user_message record, got %+v", r.Records)
	}
}

func TestCreateRefusesExistingFile(t *testing.T) {
	home := t.TempDir()
	if _, err := Create(home, Meta{ID: "dup"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := Create(home, Meta{ID: "dup"}); err == nil {
		t.Fatalf("expected second create of the same conversation id to fail")
	}
}

func TestAppendResumesExistingFile(t *testing.T) {
	home := t.TempDir()
	w, _ := Create(home, Meta{ID: "c2"})
	w.Write("a", 1)
	w.Close()

	w2, err := Append(home, "c2")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	w2.Write("b", 2)
	w2.Close()

	r, err := Read(home, "c2")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(r.Records) != 2 {
		t.Fatalf("expected 2 records after append, got %d", len(r.Records))
	}
}
