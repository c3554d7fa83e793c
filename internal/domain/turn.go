package domain

// TurnInput is one inbound user message plus the entity references the
// caller already knows.
type TurnInput struct {
	SessionID    string `json:"sessionId,omitempty"`
	Message      string `json:"message"`
	CustomerID   string `json:"customerId,omitempty"`
	PolicyNumber string `json:"policyNumber,omitempty"`
	ClaimID      string `json:"claimId,omitempty"`
}

// TurnResult is the outcome of running one turn through the workflow.
//
// Exactly one of three shapes comes back: a final answer (Complete or
// Escalated set), a clarification request (RequiresClarification set with
// the question in Message), or an error from the engine call itself.
type TurnResult struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	AgentUsed string `json:"agentUsed,omitempty"`

	RequiresClarification bool `json:"requiresClarification"`
	Complete              bool `json:"conversationComplete"`
	Escalated             bool `json:"escalated"`

	Iterations int    `json:"iterations"`
	RequestID  string `json:"requestId,omitempty"`
}
