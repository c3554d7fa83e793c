package agents

import (
	"context"

	"github.com/soyeahso/supportdesk/internal/domain"
	"github.com/soyeahso/supportdesk/internal/llm"
	"github.com/soyeahso/supportdesk/internal/logging"
	"github.com/soyeahso/supportdesk/internal/tools"
	"github.com/soyeahso/supportdesk/internal/workflow"
)

// PolicyAgent answers policy detail and coverage questions using the
// policy lookup tools.
type PolicyAgent struct {
	client llm.Client
	cfg    ModelConfig
	tools  *tools.Registry
	log    *logging.Logger
}

// NewPolicyAgent creates the policy specialist with its tool subset.
func NewPolicyAgent(client llm.Client, cfg ModelConfig, reg *tools.Registry, log *logging.Logger) (*PolicyAgent, error) {
	sub, err := reg.Subset(tools.NameGetPolicyDetails, tools.NameGetAutoPolicyDetails)
	if err != nil {
		return nil, err
	}
	return &PolicyAgent{
		client: client,
		cfg:    cfg,
		tools:  sub,
		log:    log.Sub("agent.policy"),
	}, nil
}

// Node adapts the agent to the workflow graph.
func (a *PolicyAgent) Node() workflow.NodeFunc {
	return a.process
}

func (a *PolicyAgent) process(ctx context.Context, st *domain.ConversationState) error {
	a.log.Info().Str("task", st.Task).Msg("policy agent started")

	prompt := policyPrompt(st.Task, st.PolicyNumber, st.CustomerID, st.History)
	result, err := runWithTools(ctx, a.client, a.cfg, prompt, a.tools, a.log)
	if err != nil {
		return err
	}

	st.AppendMessage(domain.RoleAssistant, result)
	st.AppendHistory(domain.HandlerLabel(domain.AgentPolicy), result)
	a.log.Info().Msg("policy agent completed")
	return nil
}
