package mockterm

// Scenario names one reproducible capture a doc generator or regression
// suite can drive: an id, a display label, a grouping category, a short
// description, and free-form tags for filtering. The table below has ten
// categories (views, autocomplete, modals, streaming, tools, approval,
// permissions, messages, errors, sidebar); it has no question, input,
// scroll or animation scenarios. Callers walk it instead of hand-listing
// scenarios at every call site.
type Scenario struct {
	ID          string
	Label       string
	Category    string
	Description string
	Tags        []string
}

// Scenarios is the built-in set, grouped by category in registration
// order. Each category's entries are appended by its own register*
// function below, matching the original's per-category methods rather
// than one flat literal, so a future category can be added without
// reflowing the whole table.
var Scenarios = buildScenarios()

func buildScenarios() []Scenario {
	var s []Scenario
	s = registerViewScenarios(s)
	s = registerAutocompleteScenarios(s)
	s = registerModalScenarios(s)
	s = registerStreamingScenarios(s)
	s = registerToolScenarios(s)
	s = registerApprovalScenarios(s)
	s = registerPermissionScenarios(s)
	s = registerMessageScenarios(s)
	s = registerErrorScenarios(s)
	s = registerSidebarScenarios(s)
	return s
}

func registerViewScenarios(s []Scenario) []Scenario {
	return append(s,
		Scenario{"empty_session", "Empty Session View", "views", "Initial empty session with no messages", []string{"session", "empty", "initial"}},
		Scenario{"session_with_messages", "Session with Messages", "views", "Session view with user and assistant messages", []string{"session", "messages", "conversation"}},
		Scenario{"help_view", "Help View", "views", "The help overlay showing keybindings", []string{"help", "keybindings"}},
	)
}

func registerAutocompleteScenarios(s []Scenario) []Scenario {
	return append(s,
		Scenario{"autocomplete_commands", "Command Autocomplete", "autocomplete", "Autocomplete popup showing slash commands", []string{"autocomplete", "commands", "slash"}},
		Scenario{"autocomplete_mentions", "Mention Autocomplete", "autocomplete", "Autocomplete popup showing @ mentions", []string{"autocomplete", "mentions", "at"}},
		Scenario{"autocomplete_selected", "Autocomplete with Selection", "autocomplete", "Autocomplete with an item selected (highlighted)", []string{"autocomplete", "selection", "highlight"}},
	)
}

func registerModalScenarios(s []Scenario) []Scenario {
	return append(s,
		Scenario{"modal_model_picker", "Model Picker Modal", "modals", "Modal for selecting the active model", []string{"modal", "model", "picker"}},
		Scenario{"modal_command_palette", "Command Palette", "modals", "Command palette modal with search", []string{"modal", "command", "palette"}},
		Scenario{"modal_export", "Export Modal", "modals", "Session export dialog", []string{"modal", "export"}},
	)
}

func registerStreamingScenarios(s []Scenario) []Scenario {
	return append(s,
		Scenario{"streaming_started", "Streaming Started", "streaming", "Initial streaming state with thinking indicator", []string{"streaming", "thinking", "start"}},
		Scenario{"streaming_in_progress", "Streaming In Progress", "streaming", "Active streaming with partial response", []string{"streaming", "progress", "partial"}},
		Scenario{"streaming_completed", "Streaming Completed", "streaming", "State after streaming completes", []string{"streaming", "complete", "done"}},
	)
}

func registerToolScenarios(s []Scenario) []Scenario {
	return append(s,
		Scenario{"tool_pending", "Tool Pending Execution", "tools", "Tool call waiting on approval", []string{"tool", "pending", "waiting"}},
		Scenario{"tool_running", "Tool Running", "tools", "Tool actively executing with spinner", []string{"tool", "running", "executing"}},
		Scenario{"tool_completed", "Tool Completed", "tools", "Tool finished successfully with output", []string{"tool", "completed", "success"}},
		Scenario{"tool_failed", "Tool Failed", "tools", "Tool execution that failed with error", []string{"tool", "failed", "error"}},
	)
}

func registerApprovalScenarios(s []Scenario) []Scenario {
	return append(s,
		Scenario{"approval_simple", "Simple Approval", "approval", "Basic tool approval dialog", []string{"approval", "simple", "dialog"}},
		Scenario{"approval_with_diff", "Approval with Diff", "approval", "Tool approval showing a file diff", []string{"approval", "diff", "file"}},
		Scenario{"approval_modes", "Approval Mode Selection", "approval", "Approval showing mode options (ask/session/always)", []string{"approval", "modes", "options"}},
	)
}

func registerPermissionScenarios(s []Scenario) []Scenario {
	return append(s,
		Scenario{"permission_high", "High Security Mode", "permissions", "UI in high security (ask) permission mode", []string{"permission", "high", "ask"}},
		Scenario{"permission_yolo", "YOLO Mode", "permissions", "UI in YOLO (all auto-approved) mode", []string{"permission", "yolo"}},
	)
}

func registerMessageScenarios(s []Scenario) []Scenario {
	return append(s,
		Scenario{"message_user", "User Message", "messages", "A single user message", []string{"message", "user"}},
		Scenario{"message_assistant", "Assistant Message", "messages", "A single assistant message", []string{"message", "assistant"}},
		Scenario{"message_code_block", "Message with Code Block", "messages", "Message containing a fenced code block", []string{"message", "code"}},
	)
}

func registerErrorScenarios(s []Scenario) []Scenario {
	return append(s,
		Scenario{"error_toast", "Error Toast", "errors", "Error notification toast", []string{"error", "toast", "notification"}},
		Scenario{"error_streaming", "Streaming Error", "errors", "Error during streaming response", []string{"error", "streaming"}},
	)
}

func registerSidebarScenarios(s []Scenario) []Scenario {
	return append(s,
		Scenario{"sidebar_visible", "Sidebar Visible", "sidebar", "Session with sidebar open", []string{"sidebar", "visible", "open"}},
		Scenario{"sidebar_sessions", "Sidebar with Sessions", "sidebar", "Sidebar showing the session list", []string{"sidebar", "sessions", "list"}},
	)
}

// ScenarioByID finds a registered scenario by id, reporting false if none
// matches.
func ScenarioByID(id string) (Scenario, bool) {
	for _, s := range Scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return Scenario{}, false
}

// ScenariosByCategory returns every scenario in the given category, in
// registration order.
func ScenariosByCategory(category string) []Scenario {
	var out []Scenario
	for _, s := range Scenarios {
		if s.Category == category {
			out = append(out, s)
		}
	}
	return out
}
