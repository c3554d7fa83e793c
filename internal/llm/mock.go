package llm

import "context"

// MockClient is a test double for Client.
type MockClient struct {
	ProviderName string
	CompleteFunc func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

func (m *MockClient) Name() string {
	if m.ProviderName != "" {
		return m.ProviderName
	}
	return "mock"
}

func (m *MockClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return &CompletionResponse{Content: "mock response"}, nil
}

// ScriptedClient replays canned responses in order, useful for multi-step
// workflow tests. After the script is exhausted it repeats the last entry.
type ScriptedClient struct {
	Responses []*CompletionResponse
	Calls     []CompletionRequest
	pos       int
}

func (s *ScriptedClient) Name() string { return "scripted" }

func (s *ScriptedClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	s.Calls = append(s.Calls, req)
	if len(s.Responses) == 0 {
		return &CompletionResponse{Content: "scripted response"}, nil
	}
	resp := s.Responses[s.pos]
	if s.pos < len(s.Responses)-1 {
		s.pos++
	}
	return resp, nil
}
