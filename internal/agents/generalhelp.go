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

// noFAQsContext substitutes for the knowledge base when retrieval fails or
// matches nothing; the turn proceeds with general guidance instead of
// failing.
const noFAQsContext = "No FAQs available."

// FAQSearcher is the retrieval collaborator the general help agent queries
// before each model call.
type FAQSearcher interface {
	SearchFAQs(ctx context.Context, query string, limit int) ([]domain.FAQMatch, error)
}

// GeneralHelpAgent answers general insurance questions grounded on FAQ
// retrieval. It is tool-free: retrieval happens outside the model call and
// its results are folded into the prompt.
type GeneralHelpAgent struct {
	client llm.Client
	cfg    ModelConfig
	faqs   FAQSearcher
	topK   int
	log    *logging.Logger
}

// NewGeneralHelpAgent creates the general help agent. topK bounds the FAQ
// retrieval; values below 1 are coerced to the default of 3.
func NewGeneralHelpAgent(client llm.Client, cfg ModelConfig, faqs FAQSearcher, topK int, log *logging.Logger) *GeneralHelpAgent {
	if topK < 1 {
		topK = 3
	}
	return &GeneralHelpAgent{
		client: client,
		cfg:    cfg,
		faqs:   faqs,
		topK:   topK,
		log:    log.Sub("agent.generalhelp"),
	}
}

// Node adapts the agent to the workflow graph.
func (a *GeneralHelpAgent) Node() workflow.NodeFunc {
	return a.process
}

func (a *GeneralHelpAgent) process(ctx context.Context, st *domain.ConversationState) error {
	a.log.Info().Str("task", st.Task).Msg("general help agent started")

	faqContext := noFAQsContext
	matches, err := a.faqs.SearchFAQs(ctx, st.UserInput, a.topK)
	switch {
	case err != nil:
		a.log.Warn().Err(err).Msg("faq retrieval failed, continuing without context")
	case len(matches) == 0:
		a.log.Debug().Msg("no relevant faqs found")
	default:
		a.log.Debug().Int("matches", len(matches)).Msg("retrieved faqs")
		st.RetrievedFAQs = matches
		faqContext = formatFAQContext(matches)
	}

	prompt := generalHelpPrompt(st.Task, st.History, faqContext)
	resp, err := a.client.Complete(ctx, a.cfg.request(prompt, nil))
	if err != nil {
		return fmt.Errorf("general help model call: %w", err)
	}

	st.AppendMessage(domain.RoleAssistant, resp.Content)
	st.AppendHistory(domain.HandlerLabel(domain.AgentGeneralHelp), resp.Content)
	a.log.Info().Msg("general help agent completed")
	return nil
}

func formatFAQContext(matches []domain.FAQMatch) string {
	var b strings.Builder
	for i, m := range matches {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "FAQ %d:\nQ: %s\nA: %s", i+1, m.Question, m.Answer)
	}
	return b.String()
}
