// Package workflow runs a directed graph of agent nodes over shared
// conversation state. Nodes transform the state in place; edges decide
// which node runs next, either unconditionally or through a routing
// function evaluated on the state after each step.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/soyeahso/supportdesk/internal/domain"
	"github.com/soyeahso/supportdesk/internal/logging"
)

// Halt is the routing sentinel that suspends execution without reaching a
// terminal node. The caller is expected to persist the state and resume
// the graph later, e.g. after the user answers a clarifying question.
const Halt = "__halt__"

// NodeFunc is one computation step. It mutates the state and returns an
// error only for infrastructure failures; domain outcomes (escalation,
// clarification, completion) are expressed through the state itself.
type NodeFunc func(ctx context.Context, st *domain.ConversationState) error

// RouteFunc picks the next node after a step, or Halt to suspend.
type RouteFunc func(st *domain.ConversationState) string

// Graph is a workflow of named nodes.
type Graph struct {
	name     string
	nodes    map[string]NodeFunc
	static   map[string]string
	routes   map[string]RouteFunc
	entry    string
	terminal map[string]bool
	log      *logging.Logger

	// StepTimeout bounds each node invocation. Zero means no bound.
	StepTimeout time.Duration

	// OnEnter, when set, is called before each node runs. The gateway uses
	// it to stream node transitions over WebSocket.
	OnEnter func(node string, st *domain.ConversationState)
}

// New creates an empty graph.
func New(name string, log *logging.Logger) *Graph {
	return &Graph{
		name:     name,
		nodes:    make(map[string]NodeFunc),
		static:   make(map[string]string),
		routes:   make(map[string]RouteFunc),
		terminal: make(map[string]bool),
		log:      log.Sub("workflow"),
	}
}

// AddNode registers a computation step. Node names must be unique.
func (g *Graph) AddNode(name string, fn NodeFunc) error {
	if name == "" {
		return fmt.Errorf("node name cannot be empty")
	}
	if fn == nil {
		return fmt.Errorf("node %s cannot be nil", name)
	}
	if _, exists := g.nodes[name]; exists {
		return fmt.Errorf("node %s already exists", name)
	}
	g.nodes[name] = fn
	return nil
}

// AddEdge creates an unconditional transition between two nodes.
func (g *Graph) AddEdge(from, to string) error {
	if err := g.checkNode(from); err != nil {
		return err
	}
	if err := g.checkNode(to); err != nil {
		return err
	}
	if _, exists := g.static[from]; exists {
		return fmt.Errorf("node %s already has an outgoing edge", from)
	}
	if _, exists := g.routes[from]; exists {
		return fmt.Errorf("node %s already has a routing function", from)
	}
	g.static[from] = to
	return nil
}

// AddConditionalEdge attaches a routing function to a node. The function's
// result must name a registered node, or Halt.
func (g *Graph) AddConditionalEdge(from string, route RouteFunc) error {
	if err := g.checkNode(from); err != nil {
		return err
	}
	if route == nil {
		return fmt.Errorf("routing function for %s cannot be nil", from)
	}
	if _, exists := g.static[from]; exists {
		return fmt.Errorf("node %s already has an outgoing edge", from)
	}
	if _, exists := g.routes[from]; exists {
		return fmt.Errorf("node %s already has a routing function", from)
	}
	g.routes[from] = route
	return nil
}

// SetEntryPoint defines the starting node. Only one entry point is allowed.
func (g *Graph) SetEntryPoint(node string) error {
	if g.entry != "" {
		return fmt.Errorf("entry point already set to %s", g.entry)
	}
	if err := g.checkNode(node); err != nil {
		return err
	}
	g.entry = node
	return nil
}

// SetTerminal marks a node as an exit point. Execution stops after a
// terminal node runs. Multiple terminal nodes are supported.
func (g *Graph) SetTerminal(node string) error {
	if err := g.checkNode(node); err != nil {
		return err
	}
	g.terminal[node] = true
	return nil
}

// Validate checks graph structure before execution.
func (g *Graph) Validate() error {
	if len(g.nodes) == 0 {
		return fmt.Errorf("graph %s has no nodes", g.name)
	}
	if g.entry == "" {
		return fmt.Errorf("graph %s has no entry point", g.name)
	}
	if len(g.terminal) == 0 {
		return fmt.Errorf("graph %s has no terminal nodes", g.name)
	}
	for name := range g.nodes {
		if g.terminal[name] {
			continue
		}
		_, hasStatic := g.static[name]
		_, hasRoute := g.routes[name]
		if !hasStatic && !hasRoute {
			return fmt.Errorf("node %s has no outgoing edge and is not terminal", name)
		}
	}
	return nil
}

// Run executes the graph from its entry point and returns the name of the
// node it stopped at: a terminal node, or Halt when a routing function
// suspended execution. There is no step ceiling here; bounding the loop is
// the supervisor's job, and the context deadline backstops runaways.
func (g *Graph) Run(ctx context.Context, st *domain.ConversationState) (string, error) {
	return g.RunFrom(ctx, g.entry, st)
}

// RunFrom executes the graph starting at the given node. Resuming a
// suspended conversation re-enters the graph at the node that asked to halt.
func (g *Graph) RunFrom(ctx context.Context, start string, st *domain.ConversationState) (string, error) {
	if err := g.Validate(); err != nil {
		return "", err
	}
	if err := g.checkNode(start); err != nil {
		return "", err
	}

	current := start
	for {
		if err := ctx.Err(); err != nil {
			return current, fmt.Errorf("graph %s interrupted at %s: %w", g.name, current, err)
		}

		if g.OnEnter != nil {
			g.OnEnter(current, st)
		}

		g.log.Debug().Str("graph", g.name).Str("node", current).Int("iteration", st.Iteration).Msg("executing node")

		if err := g.step(ctx, current, st); err != nil {
			return current, fmt.Errorf("node %s: %w", current, err)
		}

		if g.terminal[current] {
			g.log.Debug().Str("graph", g.name).Str("node", current).Msg("reached terminal node")
			return current, nil
		}

		next, err := g.next(current, st)
		if err != nil {
			return current, err
		}
		if next == Halt {
			g.log.Debug().Str("graph", g.name).Str("node", current).Msg("execution suspended")
			return Halt, nil
		}
		current = next
	}
}

func (g *Graph) step(ctx context.Context, node string, st *domain.ConversationState) error {
	fn := g.nodes[node]
	if g.StepTimeout <= 0 {
		return fn(ctx, st)
	}
	stepCtx, cancel := context.WithTimeout(ctx, g.StepTimeout)
	defer cancel()
	return fn(stepCtx, st)
}

func (g *Graph) next(current string, st *domain.ConversationState) (string, error) {
	if to, ok := g.static[current]; ok {
		return to, nil
	}
	route, ok := g.routes[current]
	if !ok {
		return "", fmt.Errorf("node %s has no outgoing edge", current)
	}
	next := route(st)
	if next == Halt {
		return Halt, nil
	}
	if _, ok := g.nodes[next]; !ok {
		return "", fmt.Errorf("routing function at %s returned unknown node %q", current, next)
	}
	return next, nil
}

func (g *Graph) checkNode(name string) error {
	if name == "" {
		return fmt.Errorf("node name cannot be empty")
	}
	if _, exists := g.nodes[name]; !exists {
		return fmt.Errorf("node %s does not exist", name)
	}
	return nil
}
