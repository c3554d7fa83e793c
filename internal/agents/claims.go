package agents

import (
	"context"

	"github.com/soyeahso/supportdesk/internal/domain"
	"github.com/soyeahso/supportdesk/internal/llm"
	"github.com/soyeahso/supportdesk/internal/logging"
	"github.com/soyeahso/supportdesk/internal/tools"
	"github.com/soyeahso/supportdesk/internal/workflow"
)

// ClaimsAgent handles claim status, filing, and settlement questions.
type ClaimsAgent struct {
	client llm.Client
	cfg    ModelConfig
	tools  *tools.Registry
	log    *logging.Logger
}

// NewClaimsAgent creates the claims specialist with its tool subset.
func NewClaimsAgent(client llm.Client, cfg ModelConfig, reg *tools.Registry, log *logging.Logger) (*ClaimsAgent, error) {
	sub, err := reg.Subset(tools.NameGetClaimStatus)
	if err != nil {
		return nil, err
	}
	return &ClaimsAgent{
		client: client,
		cfg:    cfg,
		tools:  sub,
		log:    log.Sub("agent.claims"),
	}, nil
}

// Node adapts the agent to the workflow graph.
func (a *ClaimsAgent) Node() workflow.NodeFunc {
	return a.process
}

func (a *ClaimsAgent) process(ctx context.Context, st *domain.ConversationState) error {
	a.log.Info().Str("task", st.Task).Msg("claims agent started")

	prompt := claimsPrompt(st.Task, st.PolicyNumber, st.ClaimID, st.History)
	result, err := runWithTools(ctx, a.client, a.cfg, prompt, a.tools, a.log)
	if err != nil {
		return err
	}

	st.AppendMessage(domain.RoleAssistant, result)
	st.AppendHistory(domain.HandlerLabel(domain.AgentClaims), result)
	a.log.Info().Msg("claims agent completed")
	return nil
}
