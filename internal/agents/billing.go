package agents

import (
	"context"

	"github.com/soyeahso/supportdesk/internal/domain"
	"github.com/soyeahso/supportdesk/internal/llm"
	"github.com/soyeahso/supportdesk/internal/logging"
	"github.com/soyeahso/supportdesk/internal/tools"
	"github.com/soyeahso/supportdesk/internal/workflow"
)

// BillingAgent handles billing statements, premiums, due dates, and
// payment history.
type BillingAgent struct {
	client llm.Client
	cfg    ModelConfig
	tools  *tools.Registry
	log    *logging.Logger
}

// NewBillingAgent creates the billing specialist with its tool subset.
func NewBillingAgent(client llm.Client, cfg ModelConfig, reg *tools.Registry, log *logging.Logger) (*BillingAgent, error) {
	sub, err := reg.Subset(tools.NameGetBillingInfo, tools.NameGetPaymentHistory)
	if err != nil {
		return nil, err
	}
	return &BillingAgent{
		client: client,
		cfg:    cfg,
		tools:  sub,
		log:    log.Sub("agent.billing"),
	}, nil
}

// Node adapts the agent to the workflow graph.
func (a *BillingAgent) Node() workflow.NodeFunc {
	return a.process
}

func (a *BillingAgent) process(ctx context.Context, st *domain.ConversationState) error {
	a.log.Info().Str("task", st.Task).Msg("billing agent started")

	prompt := billingPrompt(st.Task, st.History)
	result, err := runWithTools(ctx, a.client, a.cfg, prompt, a.tools, a.log)
	if err != nil {
		return err
	}

	st.AppendMessage(domain.RoleAssistant, result)
	st.AppendHistory(domain.HandlerLabel(domain.AgentBilling), result)
	a.log.Info().Msg("billing agent completed")
	return nil
}
