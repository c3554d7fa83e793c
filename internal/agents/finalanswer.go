package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/soyeahso/supportdesk/internal/domain"
	"github.com/soyeahso/supportdesk/internal/llm"
	"github.com/soyeahso/supportdesk/internal/logging"
	"github.com/soyeahso/supportdesk/internal/workflow"
)

// noResponsePlaceholder feeds the synthesizer when no specialist produced
// a usable response this turn.
const noResponsePlaceholder = "No response available"

// FinalAnswerAgent is a terminal handler that condenses the most recent
// specialist output into one clean, user-facing answer.
type FinalAnswerAgent struct {
	client llm.Client
	cfg    ModelConfig
	log    *logging.Logger
}

// NewFinalAnswerAgent creates the final answer synthesizer.
func NewFinalAnswerAgent(client llm.Client, cfg ModelConfig, log *logging.Logger) *FinalAnswerAgent {
	return &FinalAnswerAgent{
		client: client,
		cfg:    cfg,
		log:    log.Sub("agent.finalanswer"),
	}
}

// Node adapts the agent to the workflow graph.
func (a *FinalAnswerAgent) Node() workflow.NodeFunc {
	return a.process
}

func (a *FinalAnswerAgent) process(ctx context.Context, st *domain.ConversationState) error {
	a.log.Info().Msg("final answer agent started")

	specialist := latestSpecialistResponse(st.Messages)
	prompt := finalAnswerPrompt(st.UserInput, specialist)

	resp, err := a.client.Complete(ctx, a.cfg.request(prompt, nil))
	if err != nil {
		return fmt.Errorf("final answer model call: %w", err)
	}

	st.FinalAnswer = resp.Content
	st.EndConversation = true
	st.AppendHistory("Assistant", resp.Content)
	st.ReplaceMessages(domain.RoleAssistant, resp.Content)
	a.log.Info().Msg("final answer generated")
	return nil
}

// latestSpecialistResponse scans the structured transcript newest-first,
// skipping clarification artifacts, and returns the most recent specialist
// response. Up to two candidates are considered so a trailing artifact
// does not hide the real answer.
func latestSpecialistResponse(messages []domain.Message) string {
	var candidates []string
	for i := len(messages) - 1; i >= 0 && len(candidates) < 2; i-- {
		content := messages[i].Content
		if strings.Contains(strings.ToLower(content), "clarification") {
			continue
		}
		candidates = append(candidates, content)
	}
	if len(candidates) == 0 {
		return noResponsePlaceholder
	}
	return candidates[0]
}
