package domain

import "time"

// SessionMessage is one logged exchange entry in a session.
type SessionMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	AgentUsed string    `json:"agentUsed,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionContext holds entity references extracted across turns. Once set,
// a reference is never cleared by the engine; callers may overwrite it with
// a new non-empty value.
type SessionContext struct {
	CustomerID   string `json:"customerId,omitempty"`
	PolicyNumber string `json:"policyNumber,omitempty"`
	ClaimID      string `json:"claimId,omitempty"`
}

// Session tracks one conversation across turns. It expires after a
// configurable inactivity window; the store enforces the TTL.
type Session struct {
	ID           string           `json:"id"`
	CreatedAt    time.Time        `json:"createdAt"`
	LastActivity time.Time        `json:"lastActivity"`
	ExpiresAt    time.Time        `json:"expiresAt"`
	Messages     []SessionMessage `json:"messages,omitempty"`
	Context      SessionContext   `json:"context"`

	// Pending holds the suspended conversation state while the engine
	// waits for the user to answer a clarification question. Nil when no
	// turn is in flight.
	Pending *ConversationState `json:"pending,omitempty"`

	AgentsUsed      []string `json:"agentsUsed,omitempty"`
	TotalIterations int      `json:"totalIterations"`
	Escalated       bool     `json:"escalated"`
	Complete        bool     `json:"complete"`
}

// SeedHistory renders the logged messages as "Role: text" lines for seeding
// the next turn's conversation history.
func (s *Session) SeedHistory() string {
	out := ""
	for _, m := range s.Messages {
		label := "Assistant"
		if m.Role == RoleUser {
			label = "User"
		}
		if out != "" {
			out += "\n"
		}
		out += label + ": " + m.Content
	}
	return out
}

// AddMessage appends an exchange entry and bumps the activity timestamp.
func (s *Session) AddMessage(role, content, agentUsed string) {
	s.Messages = append(s.Messages, SessionMessage{
		Role:      role,
		Content:   content,
		AgentUsed: agentUsed,
		Timestamp: time.Now(),
	})
	s.LastActivity = time.Now()
}

// RecordAgent tracks which specialist handled part of the conversation.
func (s *Session) RecordAgent(name string) {
	for _, a := range s.AgentsUsed {
		if a == name {
			return
		}
	}
	s.AgentsUsed = append(s.AgentsUsed, name)
}

// Expired reports whether the session passed its inactivity deadline.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
