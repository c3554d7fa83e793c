package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/supportdesk/internal/domain"
	"github.com/soyeahso/supportdesk/internal/llm"
	"github.com/soyeahso/supportdesk/internal/logging"
	"github.com/soyeahso/supportdesk/internal/store"
	"github.com/soyeahso/supportdesk/internal/tools"
)

func testLookups(t *testing.T) *tools.Registry {
	t.Helper()
	db, err := store.Open(":memory:", logging.New(nil, "silent"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Seed(context.Background()))
	return tools.NewLookupRegistry(db)
}

// toolThenText answers the first call with a tool invocation and the second
// with plain text, recording every request it sees.
func toolThenText(toolName, args, text string) (*llm.MockClient, *[]llm.CompletionRequest) {
	var calls []llm.CompletionRequest
	client := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			calls = append(calls, req)
			if len(calls) == 1 {
				return &llm.CompletionResponse{
					ToolCalls: []llm.ToolCall{{ID: "call_1", Name: toolName, Arguments: args}},
				}, nil
			}
			return &llm.CompletionResponse{Content: text}, nil
		},
	}
	return client, &calls
}

func TestBillingAgent_ToolRoundTrip(t *testing.T) {
	client, calls := toolThenText(tools.NameGetBillingInfo, `{"policy_number": "POL000004"}`, "Your next bill of $112.25 is due on 2026-09-10.")
	agent, err := NewBillingAgent(client, ModelConfig{Model: "test"}, testLookups(t), silentLog())
	require.NoError(t, err)

	st := domain.NewConversationState("When is my bill due? POL000004", "")
	st.Task = "Check pending bill for POL000004"
	require.NoError(t, agent.Node()(context.Background(), st))

	require.Len(t, *calls, 2)

	// First call offers only the billing tool subset
	first := (*calls)[0]
	require.Len(t, first.Tools, 2)
	assert.Equal(t, tools.NameGetBillingInfo, first.Tools[0].Name)
	assert.Equal(t, tools.NameGetPaymentHistory, first.Tools[1].Name)

	// Second call feeds the tool result back
	second := (*calls)[1]
	require.GreaterOrEqual(t, len(second.Messages), 3)
	toolMsg := second.Messages[len(second.Messages)-1]
	assert.Equal(t, llm.RoleTool, toolMsg.Role)
	assert.Equal(t, "call_1", toolMsg.ToolCallID)
	assert.Contains(t, toolMsg.Content, "BILL0003")

	require.Len(t, st.Messages, 1)
	assert.Equal(t, domain.RoleAssistant, st.Messages[0].Role)
	assert.Contains(t, st.History, "Billing Agent: Your next bill of $112.25 is due on 2026-09-10.")
}

func TestPolicyAgent_NotFoundFedBackAsErrorPayload(t *testing.T) {
	client, calls := toolThenText(tools.NameGetPolicyDetails, `{"policy_number": "POL999999"}`, "I could not find that policy. Could you double-check the number?")
	agent, err := NewPolicyAgent(client, ModelConfig{Model: "test"}, testLookups(t), silentLog())
	require.NoError(t, err)

	st := domain.NewConversationState("Tell me about POL999999", "")
	require.NoError(t, agent.Node()(context.Background(), st))

	require.Len(t, *calls, 2)
	toolMsg := (*calls)[1].Messages[len((*calls)[1].Messages)-1]
	assert.JSONEq(t, `{"error": "Policy not found"}`, toolMsg.Content)

	// The turn still completed
	require.Len(t, st.Messages, 1)
	assert.Contains(t, st.History, "Policy Agent:")
}

func TestClaimsAgent_UnknownToolBecomesErrorPayload(t *testing.T) {
	client, calls := toolThenText("get_weather", `{}`, "Let me check that claim for you.")
	agent, err := NewClaimsAgent(client, ModelConfig{Model: "test"}, testLookups(t), silentLog())
	require.NoError(t, err)

	st := domain.NewConversationState("claim status for CLM000001", "")
	require.NoError(t, agent.Node()(context.Background(), st))

	toolMsg := (*calls)[1].Messages[len((*calls)[1].Messages)-1]
	assert.JSONEq(t, `{"error": "Tool 'get_weather' not implemented."}`, toolMsg.Content)
}

func TestClaimsAgent_PlainAnswerSkipsSecondRound(t *testing.T) {
	var calls int
	client := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			calls++
			return &llm.CompletionResponse{Content: "Could you share your claim ID?"}, nil
		},
	}
	agent, err := NewClaimsAgent(client, ModelConfig{Model: "test"}, testLookups(t), silentLog())
	require.NoError(t, err)

	st := domain.NewConversationState("what about my claim?", "")
	require.NoError(t, agent.Node()(context.Background(), st))

	assert.Equal(t, 1, calls)
	assert.Contains(t, st.History, "Claims Agent: Could you share your claim ID?")
}

func TestSpecialist_DoesNotTouchSupervisorFields(t *testing.T) {
	client := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return &llm.CompletionResponse{Content: "answer"}, nil
		},
	}
	agent, err := NewBillingAgent(client, ModelConfig{Model: "test"}, testLookups(t), silentLog())
	require.NoError(t, err)

	st := domain.NewConversationState("question", "")
	st.Iteration = 2
	st.NextAgent = domain.AgentBilling
	st.PolicyNumber = "POL000004"
	require.NoError(t, agent.Node()(context.Background(), st))

	assert.Equal(t, 2, st.Iteration)
	assert.Equal(t, domain.AgentBilling, st.NextAgent)
	assert.Equal(t, "POL000004", st.PolicyNumber)
	assert.False(t, st.NeedsClarification)
	assert.False(t, st.RequiresHumanEscalation)
	assert.False(t, st.EndConversation)
}

// --- General help ---

type stubSearcher struct {
	matches []domain.FAQMatch
	err     error
}

func (s *stubSearcher) SearchFAQs(ctx context.Context, query string, limit int) ([]domain.FAQMatch, error) {
	return s.matches, s.err
}

func TestGeneralHelp_UsesRetrievedFAQs(t *testing.T) {
	var seenPrompt string
	client := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			seenPrompt = req.Messages[0].Content
			assert.Empty(t, req.Tools, "general help is tool-free")
			return &llm.CompletionResponse{Content: "Claims are filed online or by phone."}, nil
		},
	}
	searcher := &stubSearcher{matches: []domain.FAQMatch{
		{Question: "How do I file a claim?", Answer: "Online or by phone.", Rank: 1},
	}}
	agent := NewGeneralHelpAgent(client, ModelConfig{Model: "test"}, searcher, 3, silentLog())

	st := domain.NewConversationState("how do I file a claim?", "")
	require.NoError(t, agent.Node()(context.Background(), st))

	assert.Contains(t, seenPrompt, "How do I file a claim?")
	assert.Contains(t, seenPrompt, "Online or by phone.")
	require.Len(t, st.RetrievedFAQs, 1)
	assert.Contains(t, st.History, "General Help Agent: Claims are filed online or by phone.")
}

func TestGeneralHelp_RetrievalFailureSubstitutesFixedContext(t *testing.T) {
	var seenPrompt string
	client := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			seenPrompt = req.Messages[0].Content
			return &llm.CompletionResponse{Content: "general guidance"}, nil
		},
	}
	searcher := &stubSearcher{err: errors.New("index offline")}
	agent := NewGeneralHelpAgent(client, ModelConfig{Model: "test"}, searcher, 3, silentLog())

	st := domain.NewConversationState("what does life insurance cover?", "")
	require.NoError(t, agent.Node()(context.Background(), st))

	assert.Contains(t, seenPrompt, noFAQsContext)
	assert.Empty(t, st.RetrievedFAQs)
	require.Len(t, st.Messages, 1)
}

// --- Escalation ---

func TestEscalation_SetsTerminalState(t *testing.T) {
	client := routingClient("I understand, a human representative will join you shortly.")
	agent := NewEscalationAgent(client, ModelConfig{Model: "test"}, silentLog())

	st := domain.NewConversationState("I want to talk to a person", "")
	st.AppendMessage(domain.RoleAssistant, "earlier specialist output")
	historyBefore := st.History

	require.NoError(t, agent.Node()(context.Background(), st))

	assert.True(t, st.RequiresHumanEscalation)
	assert.Equal(t, defaultEscalationReason, st.EscalationReason)
	assert.Equal(t, "I understand, a human representative will join you shortly.", st.FinalAnswer)
	require.Len(t, st.Messages, 1)
	assert.Equal(t, st.FinalAnswer, st.Messages[0].Content)
	assert.Equal(t, historyBefore, st.History, "escalation does not append to the transcript")
}

func TestEscalation_PreservesExplicitReason(t *testing.T) {
	client := routingClient("handoff acknowledged")
	agent := NewEscalationAgent(client, ModelConfig{Model: "test"}, silentLog())

	st := domain.NewConversationState("help", "")
	st.EscalationReason = "Repeated clarification failures"
	require.NoError(t, agent.Node()(context.Background(), st))

	assert.Equal(t, "Repeated clarification failures", st.EscalationReason)
}

// --- Final answer ---

func TestFinalAnswer_SummarizesLatestSpecialistResponse(t *testing.T) {
	var seenPrompt string
	client := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			seenPrompt = req.Messages[0].Content
			assert.Empty(t, req.Tools)
			return &llm.CompletionResponse{Content: "Your bill of $112.25 is due September 10th. Have a great day!"}, nil
		},
	}
	agent := NewFinalAnswerAgent(client, ModelConfig{Model: "test"}, silentLog())

	st := domain.NewConversationState("when is my bill due?", "")
	st.AppendMessage(domain.RoleAssistant, "older answer")
	st.AppendMessage(domain.RoleAssistant, "Bill BILL0003 for $112.25 is pending, due 2026-09-10.")
	require.NoError(t, agent.Node()(context.Background(), st))

	assert.Contains(t, seenPrompt, "Bill BILL0003 for $112.25 is pending, due 2026-09-10.")
	assert.Contains(t, seenPrompt, "when is my bill due?")
	assert.True(t, st.EndConversation)
	assert.Equal(t, "Your bill of $112.25 is due September 10th. Have a great day!", st.FinalAnswer)
	require.Len(t, st.Messages, 1)
	assert.Equal(t, st.FinalAnswer, st.Messages[0].Content)
	assert.Contains(t, st.History, "Assistant: Your bill of $112.25 is due September 10th. Have a great day!")
}

func TestFinalAnswer_SkipsClarificationArtifacts(t *testing.T) {
	var seenPrompt string
	client := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			seenPrompt = req.Messages[0].Content
			return &llm.CompletionResponse{Content: "done"}, nil
		},
	}
	agent := NewFinalAnswerAgent(client, ModelConfig{Model: "test"}, silentLog())

	st := domain.NewConversationState("question", "")
	st.AppendMessage(domain.RoleAssistant, "the real specialist answer")
	st.AppendMessage(domain.RoleAssistant, "I need a Clarification on your policy number")
	require.NoError(t, agent.Node()(context.Background(), st))

	assert.Contains(t, seenPrompt, "the real specialist answer")
	assert.NotContains(t, seenPrompt, "Clarification on your policy number")
}

func TestFinalAnswer_PlaceholderWhenNoMessages(t *testing.T) {
	var seenPrompt string
	client := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			seenPrompt = req.Messages[0].Content
			return &llm.CompletionResponse{Content: "I'm sorry, I don't have an answer yet."}, nil
		},
	}
	agent := NewFinalAnswerAgent(client, ModelConfig{Model: "test"}, silentLog())

	st := domain.NewConversationState("question", "")
	require.NoError(t, agent.Node()(context.Background(), st))

	assert.Contains(t, seenPrompt, noResponsePlaceholder)
	assert.True(t, st.EndConversation)
}
