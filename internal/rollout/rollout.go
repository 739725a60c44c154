// Package rollout implements the append-only JSONL rollout journal: one
// file per conversation, a meta header as the first line, flushed after
// every record so a crash never loses more than the record in flight.
package rollout

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/cortexagent/cortex/internal/cerr"
)

// Meta is the first line of every rollout file.
type Meta struct {
	ID           string    `json:"id"`
	ParentID     string    `json:"parent_id,omitempty"`
	ForkPoint    *int      `json:"fork_point,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	CWD          string    `json:"cwd"`
	Model        string    `json:"model"`
	CLIVersion   string    `json:"cli_version"`
	Instructions string    `json:"instructions,omitempty"`
}

// Record is one journaled event. Kind names the event/submission variant
// (session.Event.Kind or session.Submission.Op stringified); Payload is
// the JSON-encoded body.
type Record struct {
	Timestamp time.Time       `json:"timestamp"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
}

// Writer appends Records to one conversation's rollout file.
type Writer struct {
	f  *os.File
	bw *bufio.Writer
}

// Path returns the rollout file path for a conversation under home.
func Path(home, conversationID string) string {
	return filepath.Join(home, "rollouts", conversationID+".jsonl")
}

// Create opens a new rollout file at Path(home, meta.ID), writing meta as
// the first line. It errors if the file already exists.
func Create(home string, meta Meta) (*Writer, error) {
	path := Path(home, meta.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, cerr.New(cerr.KindIO, "rollout.Create", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, cerr.New(cerr.KindIO, "rollout.Create", err)
	}
	w := &Writer{f: f, bw: bufio.NewWriter(f)}
	if err := w.writeLine(meta); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

// Append opens an existing rollout file for appending (used when
// resuming a session), positioned after the existing content.
func Append(home, conversationID string) (*Writer, error) {
	path := Path(home, conversationID)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, cerr.New(cerr.KindIO, "rollout.Append", err)
	}
	return &Writer{f: f, bw: bufio.NewWriter(f)}, nil
}

func (w *Writer) writeLine(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return cerr.New(cerr.KindIO, "rollout.writeLine", err)
	}
	if _, err := w.bw.Write(data); err != nil {
		return cerr.New(cerr.KindIO, "rollout.writeLine", err)
	}
	if err := w.bw.WriteByte('\n'); err != nil {
		return cerr.New(cerr.KindIO, "rollout.writeLine", err)
	}
	if err := w.bw.Flush(); err != nil {
		return cerr.New(cerr.KindIO, "rollout.writeLine", err)
	}
	return w.f.Sync()
}

// Write appends one Record, flushing immediately.
func (w *Writer) Write(kind string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return cerr.New(cerr.KindIO, "rollout.Write", err)
	}
	return w.writeLine(Record{Timestamp: time.Now(), Kind: kind, Payload: data})
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	if err := w.bw.Flush(); err != nil {
		return err
	}
	return w.f.Close()
}

// Reader replays a rollout file's meta header and records in order.
type Reader struct {
	Meta    Meta
	Records []Record
}

// Read loads a whole rollout file into memory for replay or `logs`
// inspection. There is no streaming or tailing reader; callers always
// get the full ordered sequence.
func Read(home, conversationID string) (*Reader, error) {
	path := Path(home, conversationID)
	f, err := os.Open(path)
	if err != nil {
		return nil, cerr.New(cerr.KindIO, "rollout.Read", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	r := &Reader{}
	first := true
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		if first {
			if err := json.Unmarshal(line, &r.Meta); err != nil {
				return nil, cerr.New(cerr.KindIO, "rollout.Read", err)
			}
			first = false
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, cerr.New(cerr.KindIO, "rollout.Read", err)
		}
		r.Records = append(r.Records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, cerr.New(cerr.KindIO, "rollout.Read", err)
	}
	return r, nil
}
