package mockterm

import (
	"strings"
	"testing"

	"github.com/cortexagent/cortex/internal/action"
	"github.com/cortexagent/cortex/internal/cellgrid"
)

func TestBackendRecordsDrawsMovesAndClears(t *testing.T) {
	b := NewBackend(10, 4)
	b.Draw(0, 0, "hi", cellgrid.Style{})
	b.MoveCursor(2, 0)
	b.Clear()

	if len(b.Draws) != 1 || b.Draws[0].Text != "hi" {
		t.Fatalf("expected one recorded draw, got %+v", b.Draws)
	}
	if len(b.Moves) != 1 || b.Moves[0].X != 2 {
		t.Fatalf("expected one recorded cursor move, got %+v", b.Moves)
	}
	if b.Clears != 1 {
		t.Fatalf("expected one recorded clear, got %d", b.Clears)
	}
}

func TestSnapshotContainsDrawnText(t *testing.T) {
	b := NewBackend(20, 3)
	b.Draw(2, 1, "Hello", cellgrid.Style{})
	snap := b.Snapshot()
	if !snap.Contains("Hello") {
		t.Fatalf("expected snapshot to contain drawn text, got ASCII:\n%s", snap.ASCII)
	}
}

// TestMockTerminalCaptureScenario reproduces §8's mock-terminal capture
// scenario: draw a 40x10 "Hello" paragraph, capture frame "A", send
// Enter, capture frame "B". Two frames result; "A" contains "Hello"; "B"
// has exactly one preceding action, a KeyPress("Enter").
func TestMockTerminalCaptureScenario(t *testing.T) {
	r := NewRecorder(40, 10)
	r.Backend.Draw(0, 0, "Hello", cellgrid.Style{})

	frameA := r.Capture("A")
	r.SendKey("Enter", action.KeyEvent{Type: action.KeyEnter})
	frameB := r.Capture("B")

	frames := r.Frames()
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if !frameA.Snapshot.Contains("Hello") {
		t.Fatalf("expected frame A to contain %q, got:\n%s", "Hello", frameA.Snapshot.ASCII)
	}
	if len(frameB.PrecedingActions) != 1 {
		t.Fatalf("expected frame B to have one preceding action, got %+v", frameB.PrecedingActions)
	}
	if frameB.PrecedingActions[0].Label != `KeyPress("Enter")` {
		t.Fatalf("expected KeyPress(%q), got %q", "Enter", frameB.PrecedingActions[0].Label)
	}
}

func TestRecorderMarkdownIncludesFrameLabelsAndActions(t *testing.T) {
	r := NewRecorder(20, 5)
	r.Backend.Draw(0, 0, "hi", cellgrid.Style{})
	r.Capture("start")
	r.SendKey("Tab", action.KeyEvent{Type: action.KeyTab})
	r.Capture("after-tab")

	md := r.Markdown("demo session")
	if !strings.Contains(md, `Frame "start"`) || !strings.Contains(md, `Frame "after-tab"`) {
		t.Fatalf("expected both frame labels in report:\n%s", md)
	}
	if !strings.Contains(md, `KeyPress("Tab")`) {
		t.Fatalf("expected the recorded key press in report:\n%s", md)
	}
}

func TestRecorderJSONRoundTripsFrameCount(t *testing.T) {
	r := NewRecorder(10, 2)
	r.Capture("only")
	data, err := r.JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if !strings.Contains(string(data), `"label": "only"`) {
		t.Fatalf("expected frame label in JSON output, got: %s", data)
	}
}

func TestScenarioByIDFindsKnownScenario(t *testing.T) {
	sc, ok := ScenarioByID("empty_session")
	if !ok {
		t.Fatalf("expected empty_session to be a registered scenario")
	}
	if sc.Category != "views" {
		t.Fatalf("expected category %q, got %q", "views", sc.Category)
	}
}

func TestScenariosByCategoryFiltersCorrectly(t *testing.T) {
	for _, sc := range ScenariosByCategory("tools") {
		if sc.Category != "tools" {
			t.Fatalf("ScenariosByCategory leaked a non-matching scenario: %+v", sc)
		}
	}
	if len(ScenariosByCategory("tools")) == 0 {
		t.Fatalf("expected at least one tools scenario")
	}
}
