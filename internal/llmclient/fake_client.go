package llmclient

import (
	"context"
	"fmt"
	"sync"
)

// FakeClient is a scripted Client used by roleexec and orchestrator
// tests: each call pops the next response off Responses, or returns
// Err if set.
type FakeClient struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	Calls     []Request
}

func (f *FakeClient) Generate(_ context.Context, req Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, req)
	if f.Err != nil {
		return "", f.Err
	}
	if len(f.Responses) == 0 {
		return "", fmt.Errorf("fake client: no scripted response left")
	}
	resp := f.Responses[0]
	f.Responses = f.Responses[1:]
	return resp, nil
}
