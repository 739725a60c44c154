// Package session implements the session loop: the glue between user
// input, the external LLM client, the tool registry, and the approval
// queue. It owns the phase FSM, the message log, the cancellation flag,
// and the undo/redo stacks, and is the sole writer of the rollout
// journal and the sole caller of the hook dispatcher's lifecycle points
// that concern a running conversation.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cortexagent/cortex/internal/approval"
	"github.com/cortexagent/cortex/internal/convo"
	"github.com/cortexagent/cortex/internal/hooks"
	"github.com/cortexagent/cortex/internal/llm"
	"github.com/cortexagent/cortex/internal/phase"
	"github.com/cortexagent/cortex/internal/rollout"
	"github.com/cortexagent/cortex/internal/snapshot"
	"github.com/cortexagent/cortex/internal/tool"
)

// Op is the closed set of operations a Submission may carry.
type Op string

const (
	OpUserInput           Op = "user_input"
	OpUserTurn            Op = "user_turn"
	OpCompact             Op = "compact"
	OpUndo                Op = "undo"
	OpRedo                Op = "redo"
	OpForkSession         Op = "fork_session"
	OpExecApproval        Op = "exec_approval"
	OpOverrideTurnContext Op = "override_turn_context"
	OpSwitchAgent         Op = "switch_agent"
	OpShare               Op = "share"
	OpUnshare             Op = "unshare"
	OpInterrupt           Op = "interrupt"
	OpShutdown            Op = "shutdown"
)

// Submission is one inbound request to the session loop.
type Submission struct {
	ID string
	Op Op

	Text string // OpUserInput / OpUserTurn

	ToolCallID string           // OpExecApproval
	Verdict    approval.Verdict // OpExecApproval

	ForkIndex int // OpForkSession

	Model     string // OpOverrideTurnContext
	AgentKind string // OpSwitchAgent
}

// EventKind is the closed set of outbound event variants.
type EventKind string

const (
	EventSessionConfigured EventKind = "session_configured"
	EventUserMessage       EventKind = "user_message"
	EventAgentMessage      EventKind = "agent_message"
	EventTokenCount        EventKind = "token_count"
	EventToolCallRequested EventKind = "tool_call_requested"
	EventToolResult        EventKind = "tool_result"
	EventTaskStarted       EventKind = "task_started"
	EventTaskComplete      EventKind = "task_complete"
	EventTurnDiff          EventKind = "turn_diff"
	EventError             EventKind = "error"
	EventShutdownComplete  EventKind = "shutdown_complete"
	EventUndoCompleted     EventKind = "undo_completed"
	EventRedoCompleted     EventKind = "redo_completed"
)

// Event is one item on the session's outbound stream.
type Event struct {
	Kind EventKind

	Text string // UserMessage / AgentMessage delta

	ToolCallID string
	ToolName   string
	ToolArgs   json.RawMessage
	ToolResult string
	ToolIsErr  bool

	TokensIn  int
	TokensOut int

	Diff string

	Err string

	ConvoID   string // SessionConfigured / ForkSession
	ParentID  string
	ForkPoint int
}

// Config bundles a Session's collaborators. LLM, Tools, and Approval
// are required; Rollout, Hooks, and Snapshot are optional (a nil
// Snapshot means the work tree isn't a git repo, per §4.F — undo/redo
// then only affect the message log, never the filesystem).
type Config struct {
	WorkDir    string
	Model      string
	CLIVersion string

	LLM      llm.Client
	Tools    *tool.Registry
	Approval *approval.Queue
	Rollout  *rollout.Writer
	Hooks    *hooks.Dispatcher
	Snapshot *snapshot.Service
}

// Session owns one conversation's authoritative state and drives its
// turns. Submissions arrive on In; Events are published on Out. Only one
// turn runs at a time; other operations (interrupt, approval resolution,
// undo/redo, fork, context overrides) are handled concurrently with an
// in-flight turn.
type Session struct {
	In  chan Submission
	Out chan Event

	cfg Config

	mu      sync.Mutex
	state   *convo.ConversationState
	history *convo.History
	agentKind string

	cancelled  atomic.Bool
	turnActive atomic.Bool

	turnCancelMu sync.Mutex
	turnCancel   context.CancelFunc
}

// New starts a fresh, un-forked Session.
func New(cfg Config) *Session {
	s := &Session{
		In:      make(chan Submission, 16),
		Out:     make(chan Event, 64),
		cfg:     cfg,
		state:   convo.NewConversationState(),
		history: convo.NewHistory(),
	}
	return s
}

// Run drains In until ctx is done or a Shutdown submission is processed,
// dispatching each Submission. Turn-starting ops run in their own
// goroutine so Interrupt/ExecApproval/Undo remain responsive while a
// turn streams.
func (s *Session) Run(ctx context.Context) {
	s.emit(ctx, Event{Kind: EventSessionConfigured, ConvoID: s.state.ID})
	if s.cfg.Rollout != nil {
		_ = s.cfg.Rollout.Write("session_configured", map[string]string{"id": s.state.ID})
	}

	for {
		select {
		case <-ctx.Done():
			return
		case sub, ok := <-s.In:
			if !ok {
				return
			}
			if s.dispatch(ctx, sub) {
				return
			}
		}
	}
}

// dispatch handles one Submission, returning true if the session should
// stop after it (Shutdown).
func (s *Session) dispatch(ctx context.Context, sub Submission) bool {
	switch sub.Op {
	case OpUserInput, OpUserTurn:
		if s.turnActive.Load() {
			s.emit(ctx, Event{Kind: EventError, Err: "a turn is already in progress"})
			return false
		}
		s.turnActive.Store(true)
		go func() {
			defer s.turnActive.Store(false)
			s.runTurn(ctx, sub.Text)
		}()

	case OpInterrupt:
		s.cancelled.Store(true)
		s.turnCancelMu.Lock()
		if s.turnCancel != nil {
			s.turnCancel()
		}
		s.turnCancelMu.Unlock()

	case OpExecApproval:
		if s.cfg.Approval != nil {
			_ = s.cfg.Approval.Resolve(sub.ToolCallID, sub.Verdict)
		}

	case OpUndo:
		s.handleUndo(ctx)

	case OpRedo:
		s.handleRedo(ctx)

	case OpForkSession:
		s.handleFork(ctx, sub.ForkIndex)

	case OpCompact:
		go s.handleCompact(ctx)

	case OpOverrideTurnContext:
		s.mu.Lock()
		if sub.Model != "" {
			s.cfg.Model = sub.Model
		}
		s.mu.Unlock()

	case OpSwitchAgent:
		s.mu.Lock()
		s.agentKind = sub.AgentKind
		s.mu.Unlock()

	case OpShare, OpUnshare:
		// Remote/collaborative editing is a non-goal; these ops are
		// accepted and acknowledged but have no backing transport.

	case OpShutdown:
		s.emit(ctx, Event{Kind: EventShutdownComplete})
		if s.cfg.Rollout != nil {
			_ = s.cfg.Rollout.Close()
		}
		return true
	}
	return false
}

// emit publishes ev on Out, giving up only if ctx is done so a slow or
// absent consumer can't deadlock the session loop forever.
func (s *Session) emit(ctx context.Context, ev Event) {
	select {
	case s.Out <- ev:
	case <-ctx.Done():
	}
	if s.cfg.Rollout != nil && ev.Kind != EventSessionConfigured {
		_ = s.cfg.Rollout.Write(string(ev.Kind), ev)
	}
}

// runTurn implements the §4.M run-turn algorithm. ctx is the session's
// long-lived context; a turn-scoped child is derived so Interrupt can
// cancel just the in-flight turn (unblocking a stalled stream read)
// without tearing down the session loop itself. emit always uses the
// outer ctx, so TaskComplete still reaches Out even after interruption.
func (s *Session) runTurn(ctx context.Context, text string) {
	s.cancelled.Store(false)

	turnCtx, cancel := context.WithCancel(ctx)
	s.turnCancelMu.Lock()
	s.turnCancel = cancel
	s.turnCancelMu.Unlock()
	defer func() {
		cancel()
		s.turnCancelMu.Lock()
		s.turnCancel = nil
		s.turnCancelMu.Unlock()
	}()

	s.mu.Lock()
	if _, err := s.state.Apply(phase.Event{Kind: phase.EvUserInput}); err != nil {
		s.mu.Unlock()
		s.emit(ctx, Event{Kind: EventError, Err: err.Error()})
		return
	}
	turnID := s.state.TurnID
	userMsg := convo.NewTextMessage(convo.RoleUser, text)
	userMsg.TurnID = turnID
	s.history.Append(userMsg)
	s.mu.Unlock()

	s.emit(ctx, Event{Kind: EventUserMessage, Text: text})
	s.emit(ctx, Event{Kind: EventTaskStarted})

	var preHash string
	if s.cfg.Snapshot != nil {
		if h, err := s.cfg.Snapshot.Capture(turnCtx); err == nil {
			preHash = h
		}
	}

	var turnMessages []convo.Message
	turnMessages = append(turnMessages, userMsg)

	for {
		if s.cancelled.Load() || turnCtx.Err() != nil {
			s.endTurnInterrupted(ctx)
			return
		}

		s.mu.Lock()
		_, startErr := s.state.Apply(phase.Event{Kind: phase.EvModelCallStart})
		s.mu.Unlock()
		if startErr != nil {
			s.emit(ctx, Event{Kind: EventError, Err: startErr.Error()})
			return
		}

		assistantMsg, toolCalls, err := s.streamOnce(turnCtx, turnID)
		if err != nil {
			s.emit(ctx, Event{Kind: EventError, Err: err.Error()})
			s.mu.Lock()
			s.state.Apply(phase.Event{Kind: phase.EvError, Error: err.Error()})
			s.mu.Unlock()
			return
		}
		s.mu.Lock()
		s.history.Append(assistantMsg)
		s.mu.Unlock()
		turnMessages = append(turnMessages, assistantMsg)

		if s.cancelled.Load() || turnCtx.Err() != nil {
			s.endTurnInterrupted(ctx)
			return
		}

		if len(toolCalls) == 0 {
			s.mu.Lock()
			_, completeErr := s.state.Apply(phase.Event{Kind: phase.EvModelCompleteNoTools})
			s.mu.Unlock()
			if completeErr != nil {
				s.emit(ctx, Event{Kind: EventError, Err: completeErr.Error()})
				return
			}
			break
		}

		// Tool calls were requested: move into AwaitingApproval before
		// handing off to executeToolCalls, which applies the Approved/
		// Denied/Completed transitions that follow.
		s.mu.Lock()
		_, reqErr := s.state.Apply(phase.Event{Kind: phase.EvToolCallRequested})
		s.mu.Unlock()
		if reqErr != nil {
			s.emit(ctx, Event{Kind: EventError, Err: reqErr.Error()})
			return
		}

		toolMsgs := s.executeToolCalls(turnCtx, toolCalls)
		s.mu.Lock()
		for i := range toolMsgs {
			toolMsgs[i].TurnID = turnID
			s.history.Append(toolMsgs[i])
		}
		s.mu.Unlock()
		turnMessages = append(turnMessages, toolMsgs...)

		if s.cancelled.Load() || turnCtx.Err() != nil {
			s.endTurnInterrupted(ctx)
			return
		}
	}

	var diffText, postHash string
	if s.cfg.Snapshot != nil && preHash != "" {
		diffText, _ = s.cfg.Snapshot.Diff(turnCtx, preHash)
		if h, err := s.cfg.Snapshot.Capture(turnCtx); err == nil {
			postHash = h
		}
	}
	s.emit(ctx, Event{Kind: EventTurnDiff, Diff: diffText})

	s.mu.Lock()
	s.history.PushTurn(convo.UndoTask{
		TurnID:   turnID,
		Messages: turnMessages,
		ForwardDiff: convo.ForwardDiff{
			UnifiedText:  diffText,
			TreeHash:     preHash,
			PostTreeHash: postHash,
		},
	})
	s.mu.Unlock()

	s.emit(ctx, Event{Kind: EventTaskComplete})
}

func (s *Session) endTurnInterrupted(ctx context.Context) {
	s.mu.Lock()
	s.state.Apply(phase.Event{Kind: phase.EvAbort})
	// A fresh machine re-enters AwaitingInput for the next turn; Abort's
	// Ended phase is terminal by design, so the conversation starts a
	// new logical turn cycle rather than resuming the old one.
	s.state = convo.NewConversationState()
	s.mu.Unlock()
	s.emit(ctx, Event{Kind: EventTaskComplete})
}

// streamOnce sends the current log to the LLM client and collects one
// assistant turn (text plus any requested tool calls) from the stream.
func (s *Session) streamOnce(ctx context.Context, turnID int) (convo.Message, []llm.ToolCall, error) {
	s.mu.Lock()
	msgs := make([]convo.Message, len(s.history.Log))
	copy(msgs, s.history.Log)
	model := s.cfg.Model
	s.mu.Unlock()

	var tools []llm.ToolDef
	if s.cfg.Tools != nil {
		for _, name := range s.cfg.Tools.List() {
			spec, _ := s.cfg.Tools.Lookup(name)
			tools = append(tools, llm.ToolDef{Name: spec.Name, Description: spec.Description, Schema: spec.Schema})
		}
	}

	stream, err := s.cfg.LLM.Stream(ctx, llm.CompletionRequest{Model: model, Messages: msgs, Tools: tools})
	if err != nil {
		return convo.Message{}, nil, err
	}

	var text string
	var calls []llm.ToolCall
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case ev, ok := <-stream:
			if !ok {
				break loop
			}
			if s.cancelled.Load() {
				break loop
			}
			switch ev.Kind {
			case llm.EventDelta:
				text += ev.Delta
				s.emit(ctx, Event{Kind: EventAgentMessage, Text: ev.Delta})
			case llm.EventToolCall:
				calls = append(calls, ev.ToolCall)
				s.mu.Lock()
				s.state.AddPendingToolCall(ev.ToolCall.ID, ev.ToolCall.Name, ev.ToolCall.Arguments)
				s.mu.Unlock()
				s.emit(ctx, Event{Kind: EventToolCallRequested, ToolCallID: ev.ToolCall.ID, ToolName: ev.ToolCall.Name, ToolArgs: ev.ToolCall.Arguments})
			case llm.EventUsage:
				s.emit(ctx, Event{Kind: EventTokenCount, TokensIn: ev.Usage.InputTokens, TokensOut: ev.Usage.OutputTokens})
			case llm.EventFinish:
				if ev.Err != nil {
					return convo.Message{}, nil, ev.Err
				}
			}
		}
	}

	msg := convo.Message{Role: convo.RoleAssistant, TurnID: turnID, Content: convo.Content{Text: text}}
	for _, c := range calls {
		msg.Content.ToolCalls = append(msg.Content.ToolCalls, convo.ToolCallRequest{ID: c.ID, Tool: c.Name, Arguments: c.Arguments})
	}
	return msg, calls, nil
}

// executeToolCalls runs the approval + dispatch cycle for every pending
// call in toolCalls, returning one tool-result Message per call. Every
// call's verdict is resolved first, since the phase machine needs to know
// whether any call was approved before it can validly enter ExecutingTools
// or drop straight to ProcessingResults for an all-denied batch. Dispatch
// then proceeds, delegating cross-call concurrency to tool.Registry's own
// capability-based locking (§4.G).
func (s *Session) executeToolCalls(ctx context.Context, toolCalls []llm.ToolCall) []convo.Message {
	verdicts := make([]approval.Verdict, len(toolCalls))
	var resolveWG sync.WaitGroup
	for i, call := range toolCalls {
		resolveWG.Add(1)
		go func(i int, call llm.ToolCall) {
			defer resolveWG.Done()
			verdicts[i] = s.resolveVerdict(ctx, call)
		}(i, call)
	}
	resolveWG.Wait()

	anyApproved := false
	for _, v := range verdicts {
		if v != approval.Denied && v != approval.Abort {
			anyApproved = true
			break
		}
	}

	s.mu.Lock()
	var transErr error
	if anyApproved {
		_, transErr = s.state.Apply(phase.Event{Kind: phase.EvToolApproved})
	} else {
		_, transErr = s.state.Apply(phase.Event{Kind: phase.EvToolDenied})
	}
	s.mu.Unlock()
	if transErr != nil {
		s.emit(ctx, Event{Kind: EventError, Err: transErr.Error()})
	}

	results := make([]convo.Message, len(toolCalls))
	var wg sync.WaitGroup
	for i, call := range toolCalls {
		wg.Add(1)
		go func(i int, call llm.ToolCall) {
			defer wg.Done()
			results[i] = s.executeOne(ctx, call, verdicts[i])
		}(i, call)
	}
	wg.Wait()

	if anyApproved {
		s.mu.Lock()
		_, err := s.state.Apply(phase.Event{Kind: phase.EvToolCompleted})
		s.mu.Unlock()
		if err != nil {
			s.emit(ctx, Event{Kind: EventError, Err: err.Error()})
		}
	}

	return results
}

// resolveVerdict runs the before-hook and approval queue for one pending
// call, in the order executeOne always applied them: a blocking hook
// denies before the call is ever submitted for approval.
func (s *Session) resolveVerdict(ctx context.Context, call llm.ToolCall) approval.Verdict {
	if s.cfg.Hooks != nil {
		dec, err := s.cfg.Hooks.Dispatch(ctx, hooks.EventContext{
			Type: hooks.TypeToolBefore, ToolName: call.Name, ToolArgs: string(call.Arguments),
		})
		if err == nil && dec.Block {
			return approval.Denied
		}
	}

	if s.cfg.Approval == nil {
		return approval.Approved
	}
	req := approval.Request{ToolCallID: call.ID, Tool: call.Name, Arguments: call.Arguments}
	autoApproved := s.cfg.Approval.Submit(req)
	return s.awaitVerdict(ctx, call.ID, autoApproved)
}

func (s *Session) executeOne(ctx context.Context, call llm.ToolCall, verdict approval.Verdict) convo.Message {
	if verdict == approval.Denied || verdict == approval.Abort {
		s.resolveToolCall(call.ID, convo.ToolCallDenied)
		return convo.NewToolResultMessage(call.ID, "Command was rejected by user.", true)
	}

	s.resolveToolCall(call.ID, convo.ToolCallRunning)
	result, err := s.cfg.Tools.Dispatch(tool.Context{Context: ctx, WorkDir: s.cfg.WorkDir, ToolCallID: call.ID, ConvoID: s.state.ID}, call.Name, call.Arguments)

	if s.cfg.Hooks != nil {
		afterType := hooks.TypeToolAfter
		if err != nil || result.IsError {
			afterType = hooks.TypeToolFailure
		}
		_, _ = s.cfg.Hooks.Dispatch(ctx, hooks.EventContext{Type: afterType, ToolName: call.Name, ToolArgs: string(call.Arguments), ToolResult: result.Content})
	}

	if err != nil {
		s.resolveToolCall(call.ID, convo.ToolCallFailed)
		s.emit(ctx, Event{Kind: EventToolResult, ToolCallID: call.ID, ToolResult: err.Error(), ToolIsErr: true})
		return convo.NewToolResultMessage(call.ID, err.Error(), true)
	}
	s.resolveToolCall(call.ID, convo.ToolCallCompleted)
	s.emit(ctx, Event{Kind: EventToolResult, ToolCallID: call.ID, ToolResult: result.Content, ToolIsErr: result.IsError})
	return convo.NewToolResultMessage(call.ID, result.Content, result.IsError)
}

func (s *Session) resolveToolCall(id string, status convo.ToolCallStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ResolveToolCall(id, status)
}

// awaitVerdict waits for callID's Decision to arrive on the approval
// queue's Events channel (pushed either by Submit's own auto-approve
// path or by a later OpExecApproval submission resolved concurrently by
// Run), filtering out decisions meant for other in-flight calls.
func (s *Session) awaitVerdict(ctx context.Context, callID string, autoApproved bool) approval.Verdict {
	_ = autoApproved // both paths resolve identically via Events
	for {
		select {
		case <-ctx.Done():
			return approval.Abort
		case d := <-s.cfg.Approval.Events:
			if d.ToolCallID == callID {
				return d.Verdict
			}
			// Not ours; put it back for whichever other waiter wants it.
			go func() { s.cfg.Approval.Events <- d }()
		}
	}
}

func (s *Session) handleUndo(ctx context.Context) {
	s.mu.Lock()
	task, ok := s.history.Undo()
	s.mu.Unlock()
	if !ok {
		s.emit(ctx, Event{Kind: EventError, Err: "nothing to undo"})
		return
	}
	if s.cfg.Snapshot != nil && task.ForwardDiff.TreeHash != "" {
		if err := s.cfg.Snapshot.Restore(ctx, task.ForwardDiff.TreeHash); err != nil {
			s.mu.Lock()
			s.history.Redo() // reverses the Undo() above, leaving stacks/log unchanged
			s.mu.Unlock()
			s.emit(ctx, Event{Kind: EventError, Err: fmt.Sprintf("undo failed: %v", err)})
			return
		}
	}
	s.emit(ctx, Event{Kind: EventUndoCompleted})
}

func (s *Session) handleRedo(ctx context.Context) {
	s.mu.Lock()
	task, ok := s.history.Redo()
	s.mu.Unlock()
	if !ok {
		s.emit(ctx, Event{Kind: EventError, Err: "nothing to redo"})
		return
	}
	if s.cfg.Snapshot != nil && task.ForwardDiff.PostTreeHash != "" {
		if err := s.cfg.Snapshot.Restore(ctx, task.ForwardDiff.PostTreeHash); err != nil {
			s.mu.Lock()
			s.history.Undo() // reverses the Redo() above, leaving stacks/log unchanged
			s.mu.Unlock()
			s.emit(ctx, Event{Kind: EventError, Err: fmt.Sprintf("redo failed: %v", err)})
			return
		}
	}
	s.emit(ctx, Event{Kind: EventRedoCompleted})
}

// handleFork allocates a new conversation identity branching off this
// one at index and emits its SessionConfigured event, carrying the parent
// id and fork point. It does not truncate this session's message log,
// write a rollout meta header for the fork, or keep the forked state:
// this Session goes on with its own identity and history.
func (s *Session) handleFork(ctx context.Context, index int) {
	s.mu.Lock()
	if index < -1 || index >= len(s.history.Log) {
		s.mu.Unlock()
		s.emit(ctx, Event{Kind: EventError, Err: "fork index out of range"})
		return
	}
	forked := convo.Fork(s.state, index)
	s.mu.Unlock()

	s.emit(ctx, Event{
		Kind:      EventSessionConfigured,
		ConvoID:   forked.ID,
		ParentID:  *forked.ParentID,
		ForkPoint: *forked.ForkPoint,
	})
}

// handleCompact implements the §4.M compaction algorithm: split the log
// into a prefix to summarize and a suffix to keep by a token budget,
// summarize the prefix via the LLM client, and replace it with a single
// synthetic system message.
const compactTokenBudget = 8000

func (s *Session) handleCompact(ctx context.Context) {
	s.mu.Lock()
	_, startErr := s.state.Apply(phase.Event{Kind: phase.EvCompactStart})
	if startErr != nil {
		s.mu.Unlock()
		s.emit(ctx, Event{Kind: EventError, Err: startErr.Error()})
		return
	}
	log := make([]convo.Message, len(s.history.Log))
	copy(log, s.history.Log)
	s.mu.Unlock()

	splitAt := splitByTokenBudget(log, compactTokenBudget)
	if splitAt == 0 {
		s.mu.Lock()
		s.state.Apply(phase.Event{Kind: phase.EvCompactComplete})
		s.mu.Unlock()
		return // everything already fits; nothing to compact
	}
	toSummarize, toKeep := log[:splitAt], log[splitAt:]

	req := llm.CompletionRequest{
		Model: s.cfg.Model,
		Messages: append(append([]convo.Message{}, toSummarize...),
			convo.NewTextMessage(convo.RoleUser, "Summarize the conversation above concisely, preserving decisions and open tasks.")),
	}
	stream, err := s.cfg.LLM.Stream(ctx, req)
	if err != nil {
		s.mu.Lock()
		s.state.Apply(phase.Event{Kind: phase.EvCompactComplete})
		s.mu.Unlock()
		s.emit(ctx, Event{Kind: EventError, Err: err.Error()})
		return
	}
	var summary string
	for ev := range stream {
		if ev.Kind == llm.EventDelta {
			summary += ev.Delta
		}
	}

	summaryMsg := convo.NewTextMessage(convo.RoleSystem, "Conversation summary:\n"+summary)
	s.mu.Lock()
	s.history.Log = append([]convo.Message{summaryMsg}, toKeep...)
	s.state.Apply(phase.Event{Kind: phase.EvCompactComplete})
	s.mu.Unlock()
	s.emit(ctx, Event{Kind: EventTaskComplete})
}

// splitByTokenBudget returns the index at which log should split so that
// everything from that index onward fits within budget tokens, estimated
// at one token per four characters (no tokenizer dependency is wired; a
// closer estimate isn't worth one here since compaction only needs a
// rough split point). Returns 0 if the whole log already fits.
func splitByTokenBudget(log []convo.Message, budget int) int {
	total := 0
	for i := len(log) - 1; i >= 0; i-- {
		total += estimateTokens(log[i])
		if total > budget {
			return i + 1
		}
	}
	return 0
}

func estimateTokens(m convo.Message) int {
	n := len(m.Content.Text)
	for _, tr := range m.Content.ToolResults {
		n += len(tr.Content)
	}
	return n/4 + 1
}
