// Package engine wires the supervisor and specialist agents into the
// support workflow and drives whole conversational turns against it,
// including the suspend-and-resume protocol for clarification questions.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/supportdesk/internal/domain"
	"github.com/soyeahso/supportdesk/internal/logging"
	"github.com/soyeahso/supportdesk/internal/workflow"
)

// SessionStore persists conversations across turns. Implementations must be
// safe for concurrent use; the engine additionally serializes turns per
// session ID.
type SessionStore interface {
	// Get returns a session by ID, or an error for a missing/expired one.
	Get(id string) (*domain.Session, error)

	// Put upserts a session and refreshes its expiry.
	Put(sess *domain.Session) error

	// Delete removes a session.
	Delete(id string) error

	// List returns all live session IDs.
	List() ([]string, error)
}

// Agents bundles the workflow node handlers.
type Agents struct {
	Supervisor  workflow.NodeFunc
	Policy      workflow.NodeFunc
	Billing     workflow.NodeFunc
	Claims      workflow.NodeFunc
	GeneralHelp workflow.NodeFunc
	Escalation  workflow.NodeFunc
	FinalAnswer workflow.NodeFunc
}

// Config tunes engine behavior.
type Config struct {
	// StepTimeout bounds each workflow node execution. Zero disables it.
	StepTimeout time.Duration
}

// Engine executes conversational turns.
type Engine struct {
	agents   Agents
	cfg      Config
	sessions SessionStore
	log      *logging.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an engine. It validates the graph wiring once up front so a
// misconfigured agent set fails at startup, not mid-conversation.
func New(agents Agents, sessions SessionStore, cfg Config, log *logging.Logger) (*Engine, error) {
	e := &Engine{
		agents:   agents,
		cfg:      cfg,
		sessions: sessions,
		log:      log.Sub("engine"),
		locks:    make(map[string]*sync.Mutex),
	}
	g, err := e.buildGraph(nil)
	if err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// buildGraph assembles the workflow. A fresh graph is built per turn so the
// transition observer can be attached without sharing mutable state between
// concurrent sessions.
func (e *Engine) buildGraph(onEnter func(node string, st *domain.ConversationState)) (*workflow.Graph, error) {
	g := workflow.New("support", e.log)
	g.StepTimeout = e.cfg.StepTimeout
	g.OnEnter = onEnter

	nodes := map[string]workflow.NodeFunc{
		domain.AgentSupervisor:      e.agents.Supervisor,
		domain.AgentPolicy:          e.agents.Policy,
		domain.AgentBilling:         e.agents.Billing,
		domain.AgentClaims:          e.agents.Claims,
		domain.AgentGeneralHelp:     e.agents.GeneralHelp,
		domain.AgentHumanEscalation: e.agents.Escalation,
		domain.AgentFinalAnswer:     e.agents.FinalAnswer,
	}
	for name, fn := range nodes {
		if fn == nil {
			return nil, fmt.Errorf("missing handler for %s", name)
		}
		if err := g.AddNode(name, fn); err != nil {
			return nil, err
		}
	}

	if err := g.AddConditionalEdge(domain.AgentSupervisor, Dispatch); err != nil {
		return nil, err
	}
	for _, specialist := range []string{domain.AgentPolicy, domain.AgentBilling, domain.AgentClaims, domain.AgentGeneralHelp} {
		if err := g.AddEdge(specialist, domain.AgentSupervisor); err != nil {
			return nil, err
		}
	}
	if err := g.SetEntryPoint(domain.AgentSupervisor); err != nil {
		return nil, err
	}
	if err := g.SetTerminal(domain.AgentFinalAnswer); err != nil {
		return nil, err
	}
	if err := g.SetTerminal(domain.AgentHumanEscalation); err != nil {
		return nil, err
	}
	return g, nil
}

// Dispatch is the routing function evaluated after every supervisor step.
// Precedence is fixed: a pending clarification wins over end-of-conversation,
// which wins over escalation, which wins over the routed target. An
// unanswered clarification suspends the graph instead of self-looping.
func Dispatch(st *domain.ConversationState) string {
	if st.NeedsClarification {
		if st.UserClarification == "" {
			return workflow.Halt
		}
		return domain.AgentSupervisor
	}
	if st.EndConversation {
		return domain.AgentFinalAnswer
	}
	if st.RequiresHumanEscalation {
		return domain.AgentHumanEscalation
	}

	switch next := st.NextAgent; {
	case next == domain.TargetEnd:
		return domain.AgentFinalAnswer
	case next == domain.AgentSupervisor:
		return domain.AgentSupervisor
	case domain.KnownSpecialist(next):
		return next
	default:
		// Unrecognized routing targets fail closed instead of crashing.
		return domain.AgentGeneralHelp
	}
}

// RunTurn executes one conversational turn: either a fresh user message or
// the answer to a previously posed clarification question. Session state is
// committed only after the turn reaches a terminal node or suspends; a
// failing turn leaves the stored session untouched.
func (e *Engine) RunTurn(ctx context.Context, input domain.TurnInput) (*domain.TurnResult, error) {
	return e.RunTurnObserved(ctx, input, nil)
}

// RunTurnObserved is RunTurn with a transition observer: observe is called
// with each node name as the workflow enters it, which lets callers stream
// agent activity while the turn runs.
func (e *Engine) RunTurnObserved(ctx context.Context, input domain.TurnInput, observe func(node string)) (*domain.TurnResult, error) {
	requestID := uuid.New().String()
	log := e.log.Sub("turn").WithSession(input.SessionID)

	sess := e.loadOrCreateSession(input.SessionID)
	unlock := e.lockSession(sess.ID)
	defer unlock()

	resuming := sess.Pending != nil
	var st *domain.ConversationState
	if resuming {
		st = sess.Pending
		st.UserClarification = input.Message
		log.Info().Str("requestId", requestID).Msg("resuming suspended turn with clarification answer")
	} else {
		st = domain.NewConversationState(input.Message, sess.SeedHistory())
		log.Info().Str("requestId", requestID).Msg("starting turn")
	}
	applyEntityRefs(st, sess, input)

	var visited []string
	graph, err := e.buildGraph(func(node string, _ *domain.ConversationState) {
		visited = append(visited, node)
		if observe != nil {
			observe(node)
		}
	})
	if err != nil {
		return nil, err
	}

	stopped, err := graph.RunFrom(ctx, domain.AgentSupervisor, st)
	if err != nil {
		log.Error().Err(err).Str("requestId", requestID).Msg("turn failed")
		return nil, &TurnError{RequestID: requestID, Err: err}
	}

	sess.Context = domain.SessionContext{
		CustomerID:   st.CustomerID,
		PolicyNumber: st.PolicyNumber,
		ClaimID:      st.ClaimID,
	}

	if stopped == workflow.Halt {
		sess.AddMessage(domain.RoleUser, input.Message, "")
		sess.AddMessage(domain.RoleAssistant, st.ClarificationQuestion, domain.AgentSupervisor)
		sess.Pending = st
		if err := e.sessions.Put(sess); err != nil {
			return nil, &TurnError{RequestID: requestID, Err: err}
		}
		log.Info().Str("requestId", requestID).Str("question", st.ClarificationQuestion).Msg("turn suspended awaiting clarification")
		return &domain.TurnResult{
			SessionID:             sess.ID,
			Message:               st.ClarificationQuestion,
			AgentUsed:             domain.AgentSupervisor,
			RequiresClarification: true,
			Iterations:            st.Iteration,
			RequestID:             requestID,
		}, nil
	}

	e.commitTurn(sess, st, input.Message, stopped)
	for _, node := range visited {
		if node != domain.AgentSupervisor {
			sess.RecordAgent(node)
		}
	}
	if err := e.sessions.Put(sess); err != nil {
		return nil, &TurnError{RequestID: requestID, Err: err}
	}

	log.Info().
		Str("requestId", requestID).
		Str("terminal", stopped).
		Int("iterations", st.Iteration).
		Msg("turn complete")

	return &domain.TurnResult{
		SessionID:  sess.ID,
		Message:    st.FinalAnswer,
		AgentUsed:  stopped,
		Complete:   st.EndConversation,
		Escalated:  st.RequiresHumanEscalation,
		Iterations: st.Iteration,
		RequestID:  requestID,
	}, nil
}

// commitTurn folds a finished turn back into the session log. The suspension
// path already logged the original question and the clarification prompt, so
// userMessage here is whichever message actually drove this run.
func (e *Engine) commitTurn(sess *domain.Session, st *domain.ConversationState, userMessage, terminal string) {
	sess.Pending = nil
	sess.AddMessage(domain.RoleUser, userMessage, "")
	sess.AddMessage(domain.RoleAssistant, st.FinalAnswer, terminal)
	sess.TotalIterations += st.Iteration
	sess.Escalated = sess.Escalated || st.RequiresHumanEscalation
	sess.Complete = st.EndConversation
}

// Session returns a stored session.
func (e *Engine) Session(id string) (*domain.Session, error) {
	return e.sessions.Get(id)
}

// EndSession deletes a session.
func (e *Engine) EndSession(id string) error {
	return e.sessions.Delete(id)
}

// Sessions lists live session IDs.
func (e *Engine) Sessions() ([]string, error) {
	return e.sessions.List()
}

func (e *Engine) loadOrCreateSession(id string) *domain.Session {
	if id != "" {
		if sess, err := e.sessions.Get(id); err == nil {
			return sess
		}
	}
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now()
	return &domain.Session{ID: id, CreatedAt: now, LastActivity: now}
}

// lockSession serializes turns per session ID: no two turns for the same
// conversation run concurrently.
func (e *Engine) lockSession(id string) func() {
	e.mu.Lock()
	lock, ok := e.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[id] = lock
	}
	e.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func applyEntityRefs(st *domain.ConversationState, sess *domain.Session, input domain.TurnInput) {
	st.CustomerID = firstNonEmpty(input.CustomerID, st.CustomerID, sess.Context.CustomerID)
	st.PolicyNumber = firstNonEmpty(input.PolicyNumber, st.PolicyNumber, sess.Context.PolicyNumber)
	st.ClaimID = firstNonEmpty(input.ClaimID, st.ClaimID, sess.Context.ClaimID)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// TurnError wraps a turn failure with its correlation ID so callers can
// report a generic failure without leaking internals.
type TurnError struct {
	RequestID string
	Err       error
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("turn %s failed: %v", e.RequestID, e.Err)
}

func (e *TurnError) Unwrap() error { return e.Err }

// AsTurnError extracts a TurnError from an error chain.
func AsTurnError(err error) (*TurnError, bool) {
	var te *TurnError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}
