// Package domain defines the conversation state shared by every agent node
// and the session types that carry it across turns.
package domain

import (
	"strconv"
	"strings"
)

// Agent node names. The supervisor's routing decision must resolve to one of
// these or to TargetEnd.
const (
	AgentSupervisor      = "supervisor_agent"
	AgentPolicy          = "policy_agent"
	AgentBilling         = "billing_agent"
	AgentClaims          = "claims_agent"
	AgentGeneralHelp     = "general_help_agent"
	AgentHumanEscalation = "human_escalation_agent"
	AgentFinalAnswer     = "final_answer_agent"

	// TargetEnd is the supervisor's sentinel for "question fully answered";
	// the dispatcher maps it to the final answer node.
	TargetEnd = "end"
)

// Role constants for transcript messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single tagged entry in the structured transcript.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FAQMatch is one retrieval hit recorded by the general help agent.
type FAQMatch struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Rank     int    `json:"rank"`
}

// ConversationState is the single mutable record threaded through every node
// of a turn. The supervisor owns the routing, clarification and escalation
// fields; specialist agents only append to Messages and History and must
// never clear entity references.
type ConversationState struct {
	UserInput string `json:"user_input"`

	// History is the append-only human-readable transcript, one
	// "Role: text" line per entry. It never shrinks.
	History string `json:"conversation_history"`

	// Messages mirrors the transcript as structured entries. It is
	// append-only except that the final answer and escalation agents
	// replace it with their single closing entry.
	Messages []Message `json:"messages"`

	// Iteration counts supervisor routing decisions. It is the sole
	// loop-prevention mechanism and never decreases.
	Iteration int `json:"n_iteration"`

	CustomerID   string `json:"customer_id,omitempty"`
	PolicyNumber string `json:"policy_number,omitempty"`
	ClaimID      string `json:"claim_id,omitempty"`

	NextAgent     string `json:"next_agent,omitempty"`
	Task          string `json:"task,omitempty"`
	Justification string `json:"justification,omitempty"`

	// Clarification sub-protocol. The three fields are set and cleared
	// together; UserClarification stays empty while the turn is suspended
	// waiting for the user's answer.
	NeedsClarification    bool   `json:"needs_clarification,omitempty"`
	ClarificationQuestion string `json:"clarification_question,omitempty"`
	UserClarification     string `json:"user_clarification,omitempty"`

	RequiresHumanEscalation bool   `json:"requires_human_escalation,omitempty"`
	EscalationReason        string `json:"escalation_reason,omitempty"`

	EndConversation bool   `json:"end_conversation,omitempty"`
	FinalAnswer     string `json:"final_answer,omitempty"`

	RetrievedFAQs []FAQMatch `json:"retrieved_faqs,omitempty"`
}

// NewConversationState seeds the state for a fresh turn. seedHistory carries
// prior turns from the session; when empty the history starts with the
// current user line.
func NewConversationState(userInput, seedHistory string) *ConversationState {
	history := "User: " + userInput
	if seedHistory != "" {
		history = seedHistory + "\n" + history
	}
	return &ConversationState{
		UserInput: userInput,
		History:   history,
		NextAgent: AgentSupervisor,
		Task:      "Help user with their query",
	}
}

// AppendHistory adds one "Label: text" line to the transcript.
func (s *ConversationState) AppendHistory(label, text string) {
	line := label + ": " + text
	if s.History == "" {
		s.History = line
		return
	}
	s.History += "\n" + line
}

// AppendMessage adds one structured transcript entry.
func (s *ConversationState) AppendMessage(role, content string) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content})
}

// ReplaceMessages resets the structured transcript to a single entry. Only
// the final answer and escalation agents may call this.
func (s *ConversationState) ReplaceMessages(role, content string) {
	s.Messages = []Message{{Role: role, Content: content}}
}

// ClearClarification resets the clarification sub-protocol fields as a unit.
func (s *ConversationState) ClearClarification() {
	s.NeedsClarification = false
	s.ClarificationQuestion = ""
	s.UserClarification = ""
}

// KnownSpecialist reports whether name is one of the specialist agents the
// supervisor may route to.
func KnownSpecialist(name string) bool {
	switch name {
	case AgentPolicy, AgentBilling, AgentClaims, AgentGeneralHelp, AgentHumanEscalation:
		return true
	}
	return false
}

// HandlerLabel maps an agent name to its transcript label.
func HandlerLabel(name string) string {
	switch name {
	case AgentPolicy:
		return "Policy Agent"
	case AgentBilling:
		return "Billing Agent"
	case AgentClaims:
		return "Claims Agent"
	case AgentGeneralHelp:
		return "General Help Agent"
	default:
		return "Assistant"
	}
}

// Terminal reports whether the conversation has reached a terminal state.
func (s *ConversationState) Terminal() bool {
	return s.EndConversation || s.RequiresHumanEscalation
}

// Summary returns a short single-line description for logging.
func (s *ConversationState) Summary() string {
	var b strings.Builder
	b.WriteString("iter=")
	b.WriteString(strconv.Itoa(s.Iteration))
	if s.NextAgent != "" {
		b.WriteString(" next=")
		b.WriteString(s.NextAgent)
	}
	if s.NeedsClarification {
		b.WriteString(" awaiting-clarification")
	}
	if s.RequiresHumanEscalation {
		b.WriteString(" escalated")
	}
	if s.EndConversation {
		b.WriteString(" ended")
	}
	return b.String()
}
