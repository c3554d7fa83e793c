// Package agents implements the supervisor and specialist handlers that run
// as nodes of the support workflow. Each agent formats a prompt from the
// conversation state, calls the model gateway, and writes its result back
// into the state; routing fields stay under supervisor control.
package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/soyeahso/supportdesk/internal/llm"
	"github.com/soyeahso/supportdesk/internal/logging"
	"github.com/soyeahso/supportdesk/internal/tools"
)

// ModelConfig carries the per-call model parameters shared by all agents.
type ModelConfig struct {
	Model       string
	Temperature *float64
	MaxTokens   int
}

func (c ModelConfig) request(prompt string, defs []llm.ToolDefinition) llm.CompletionRequest {
	req := llm.SystemRequest(c.Model, prompt, defs)
	req.Temperature = c.Temperature
	req.MaxTokens = c.MaxTokens
	return req
}

// runWithTools executes one prompt with the two-phase tool protocol: the
// model is offered the registry's tools; if it calls any, each is executed
// and the results are fed back for a second completion. Tool misses and
// execution failures become {"error": ...} payloads so the model can phrase
// an apology or ask again instead of the turn aborting.
func runWithTools(ctx context.Context, client llm.Client, cfg ModelConfig, prompt string, reg *tools.Registry, log *logging.Logger) (string, error) {
	var defs []llm.ToolDefinition
	if reg != nil {
		defs = reg.Definitions()
	}

	resp, err := client.Complete(ctx, cfg.request(prompt, defs))
	if err != nil {
		return "", fmt.Errorf("model call: %w", err)
	}
	if len(resp.ToolCalls) == 0 {
		return resp.Content, nil
	}

	log.Debug().Int("toolCalls", len(resp.ToolCalls)).Msg("executing tool calls")

	followup := []llm.Message{
		{Role: llm.RoleSystem, Content: prompt},
		{Role: llm.RoleAssistant, Content: resp.Content, ToolCalls: resp.ToolCalls},
	}
	for _, call := range resp.ToolCalls {
		followup = append(followup, llm.Message{
			Role:       llm.RoleTool,
			ToolCallID: call.ID,
			Content:    executeToolCall(ctx, reg, call, log),
		})
	}

	final, err := client.Complete(ctx, llm.CompletionRequest{
		Model:       cfg.Model,
		Messages:    followup,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("model call with tool results: %w", err)
	}
	return final.Content, nil
}

func executeToolCall(ctx context.Context, reg *tools.Registry, call llm.ToolCall, log *logging.Logger) string {
	tool, ok := reg.Get(call.Name)
	if !ok {
		log.Warn().Str("tool", call.Name).Msg("model requested unknown tool")
		return toolError(fmt.Sprintf("Tool '%s' not implemented.", call.Name))
	}

	args := call.Arguments
	if args == "" {
		args = "{}"
	}
	result, err := tool.Execute(ctx, args)
	if err != nil {
		log.Warn().Err(err).Str("tool", call.Name).Msg("tool execution failed")
		return toolError(err.Error())
	}
	log.Debug().Str("tool", call.Name).Msg("tool executed")
	return result
}

func toolError(msg string) string {
	data, _ := json.Marshal(map[string]string{"error": msg})
	return string(data)
}
