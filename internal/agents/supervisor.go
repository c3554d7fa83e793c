package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/soyeahso/supportdesk/internal/domain"
	"github.com/soyeahso/supportdesk/internal/llm"
	"github.com/soyeahso/supportdesk/internal/logging"
	"github.com/soyeahso/supportdesk/internal/workflow"
)

// escalationNotice is appended to the transcript when the iteration ceiling
// forces a conversation to a human.
const escalationNotice = "It seems this issue requires human review. Escalating to a human support specialist."

// Fallbacks for a routing decision the model failed to express as JSON.
const (
	fallbackTask     = "Assist the user with their query."
	fallbackQuestion = "Can you please provide more details?"
)

// askUserToolName is the single tool offered to the supervisor model.
const askUserToolName = "ask_user"

var askUserTool = llm.ToolDefinition{
	Name:        askUserToolName,
	Description: "Ask the user for clarification or additional information when their query is unclear or missing important details. ONLY use this if essential information like policy number or customer ID is missing.",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"question": {
				"type": "string",
				"description": "The specific question to ask the user for clarification"
			},
			"missing_info": {
				"type": "string",
				"description": "What specific information is missing or needs clarification"
			}
		},
		"required": ["question", "missing_info"]
	}`),
}

// decision is the supervisor model's routing output.
type decision struct {
	NextAgent     string `json:"next_agent"`
	Task          string `json:"task"`
	Justification string `json:"justification"`
}

// Supervisor is the routing state machine at the center of the workflow. It
// decides which specialist runs next, manages the clarification
// sub-protocol, and enforces the iteration ceiling that bounds every
// conversation.
type Supervisor struct {
	client        llm.Client
	cfg           ModelConfig
	maxIterations int
	log           *logging.Logger
}

// NewSupervisor creates the supervisor. maxIterations bounds routing
// decisions per turn; values below 1 are coerced to the default of 3.
func NewSupervisor(client llm.Client, cfg ModelConfig, maxIterations int, log *logging.Logger) *Supervisor {
	if maxIterations < 1 {
		maxIterations = 3
	}
	return &Supervisor{
		client:        client,
		cfg:           cfg,
		maxIterations: maxIterations,
		log:           log.Sub("agent.supervisor"),
	}
}

// Node adapts the supervisor to the workflow graph.
func (s *Supervisor) Node() workflow.NodeFunc {
	return s.process
}

func (s *Supervisor) process(ctx context.Context, st *domain.ConversationState) error {
	// A resolution pass (the user just answered a clarifying question) does
	// not count as a routing decision, but the ceiling check still runs
	// first: a conversation stuck asking for clarification is bounded too.
	resolving := st.NeedsClarification && st.UserClarification != ""
	if !resolving {
		st.Iteration++
	}
	s.log.Info().Int("iteration", st.Iteration).Bool("resolving", resolving).Msg("supervisor invoked")

	if st.Iteration >= s.maxIterations {
		s.log.Warn().Int("max", s.maxIterations).Msg("iteration ceiling reached, forcing escalation")
		st.AppendHistory("Assistant", escalationNotice)
		st.ClearClarification()
		st.NextAgent = domain.AgentHumanEscalation
		return nil
	}

	if resolving {
		s.resolveClarification(st)
		return nil
	}

	return s.route(ctx, st)
}

// resolveClarification folds the answered question into the transcript and
// clears the sub-protocol fields as a unit. No routing decision is made
// here; the dispatch self-loop brings control straight back for one.
func (s *Supervisor) resolveClarification(st *domain.ConversationState) {
	s.log.Info().Str("answer", st.UserClarification).Msg("resolving clarification")
	st.AppendHistory("Assistant", st.ClarificationQuestion)
	st.AppendHistory("User", st.UserClarification)
	st.ClearClarification()
	st.NextAgent = domain.AgentSupervisor
}

func (s *Supervisor) route(ctx context.Context, st *domain.ConversationState) error {
	prompt := supervisorPrompt(st.History)
	req := s.cfg.request(prompt, []llm.ToolDefinition{askUserTool})

	resp, err := s.client.Complete(ctx, req)
	if err != nil {
		return fmt.Errorf("supervisor model call: %w", err)
	}

	// The model asking a question suspends the turn: record the question,
	// leave the answer empty, and let the engine hand control back to the
	// caller. The Q/A pair reaches the transcript only once the answer
	// arrives.
	for _, call := range resp.ToolCalls {
		if call.Name != askUserToolName {
			continue
		}
		question, missing := parseAskUserArgs(call.Arguments)
		s.log.Info().Str("question", question).Str("missing", missing).Msg("supervisor requesting clarification")
		st.NeedsClarification = true
		st.ClarificationQuestion = question
		st.UserClarification = ""
		return nil
	}

	var d decision
	if err := json.Unmarshal([]byte(resp.Content), &d); err != nil {
		s.log.Warn().Str("content", resp.Content).Msg("routing decision not valid JSON, using fallback")
		d = decision{}
	}
	if d.NextAgent == "" {
		d.NextAgent = domain.AgentGeneralHelp
	}
	if d.Task == "" {
		d.Task = fallbackTask
	}

	s.log.Info().Str("nextAgent", d.NextAgent).Str("task", d.Task).Str("justification", d.Justification).Msg("supervisor decision")

	st.NextAgent = d.NextAgent
	st.Task = d.Task
	st.Justification = d.Justification
	st.AppendHistory("Assistant", fmt.Sprintf("Routing to %s for: %s", d.NextAgent, d.Task))
	return nil
}

func parseAskUserArgs(raw string) (question, missing string) {
	var args struct {
		Question    string `json:"question"`
		MissingInfo string `json:"missing_info"`
	}
	_ = json.Unmarshal([]byte(raw), &args)
	if args.Question == "" {
		args.Question = fallbackQuestion
	}
	if args.MissingInfo == "" {
		args.MissingInfo = "additional information"
	}
	return args.Question, args.MissingInfo
}
