package llm

import "context"

// NoopClient is a non-functional Client stub. The real provider HTTP
// client and wire format are out of scope for this module (see
// DESIGN.md) — NoopClient exists only so internal/cmd can construct a
// complete Config and run the session loop end to end without one,
// surfacing a clear error the moment a turn actually needs a model
// response rather than panicking on a nil interface.
type NoopClient struct{}

// Stream immediately returns a closed channel carrying a single
// EventFinish event with Err set, explaining that no provider is
// configured.
func (NoopClient) Stream(ctx context.Context, req CompletionRequest) (<-chan ResponseEvent, error) {
	ch := make(chan ResponseEvent, 1)
	ch <- ResponseEvent{
		Kind:   EventFinish,
		Reason: "error",
		Err:    errNoProvider,
	}
	close(ch)
	return ch, nil
}

var errNoProvider = &noProviderError{}

type noProviderError struct{}

func (*noProviderError) Error() string {
	return "llm: no provider configured (the model HTTP client is not part of this build)"
}
