package agents

import (
	"context"
	"fmt"

	"github.com/soyeahso/supportdesk/internal/domain"
	"github.com/soyeahso/supportdesk/internal/llm"
	"github.com/soyeahso/supportdesk/internal/logging"
	"github.com/soyeahso/supportdesk/internal/workflow"
)

// defaultEscalationReason is recorded when no specific reason was set
// before the escalation handler ran.
const defaultEscalationReason = "Customer requested human assistance."

// EscalationAgent is a terminal handler producing an empathetic handoff
// acknowledgment. It never answers the original question.
type EscalationAgent struct {
	client llm.Client
	cfg    ModelConfig
	log    *logging.Logger
}

// NewEscalationAgent creates the escalation handler.
func NewEscalationAgent(client llm.Client, cfg ModelConfig, log *logging.Logger) *EscalationAgent {
	return &EscalationAgent{
		client: client,
		cfg:    cfg,
		log:    log.Sub("agent.escalation"),
	}
}

// Node adapts the agent to the workflow graph.
func (a *EscalationAgent) Node() workflow.NodeFunc {
	return a.process
}

func (a *EscalationAgent) process(ctx context.Context, st *domain.ConversationState) error {
	a.log.Warn().
		Str("customer", st.CustomerID).
		Str("policy", st.PolicyNumber).
		Int("iterations", st.Iteration).
		Msg("escalation triggered")

	prompt := escalationPrompt(st.Task, st.History)
	resp, err := a.client.Complete(ctx, a.cfg.request(prompt, nil))
	if err != nil {
		return fmt.Errorf("escalation model call: %w", err)
	}

	st.RequiresHumanEscalation = true
	if st.EscalationReason == "" {
		st.EscalationReason = defaultEscalationReason
	}
	st.FinalAnswer = resp.Content
	st.ReplaceMessages(domain.RoleAssistant, resp.Content)
	a.log.Info().Msg("conversation escalated to human")
	return nil
}
