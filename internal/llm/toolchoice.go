package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sweetdelights/bakery-mcp/pkg/types"
)

// NoTool is the decision name returned when no tool fits the query.
const NoTool = "no_tool"

// Decision is the model's verdict on which tool to run for a user query.
type Decision struct {
	ToolName  string                 `json:"tool_name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// Reason returns the model's explanation when no tool was chosen.
func (d Decision) Reason() string {
	if r, ok := d.Arguments["reason"].(string); ok {
		return r
	}
	return "No specific tool seemed appropriate."
}

func noTool(reason string) Decision {
	return Decision{ToolName: NoTool, Arguments: map[string]interface{}{"reason": reason}}
}

// ChooseTool asks the model to pick a tool for the query. It never fails:
// any transport or parse problem degrades to a no_tool decision so the
// caller can fall back to a plain generated reply.
func (c *Client) ChooseTool(ctx context.Context, tools []types.Tool, query string, history []ChatMessage) Decision {
	prompt := buildSelectionPrompt(tools, query, history)

	text, err := c.generate(ctx, generateRequest{
		Model:  c.cfg.Model,
		Prompt: prompt,
		Stream: false,
		Format: "json",
		Options: map[string]interface{}{
			"num_ctx":     2048,
			"temperature": 0.1,
			"top_p":       0.7,
		},
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("tool selection request failed")
		return noTool(fmt.Sprintf("Ollama connection error: %v", err))
	}
	if strings.TrimSpace(text) == "" {
		return noTool("LLM response was empty.")
	}

	var decision Decision
	if err := json.Unmarshal([]byte(text), &decision); err == nil {
		return decision
	}

	// Models sometimes wrap the JSON in prose; salvage the object.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), &decision); err == nil {
			return decision
		}
	}

	c.log.Warn().Str("response", truncate(text, 200)).Msg("tool selection response was not valid JSON")
	return noTool("LLM response was not valid JSON.")
}

func buildSelectionPrompt(tools []types.Tool, query string, history []ChatMessage) string {
	var b strings.Builder
	b.WriteString(`You are an AI assistant for a bakery. Your task is to analyze the user's query and decide which, if any, of the available tools can best address it.
If a tool is appropriate, respond with a JSON object containing the 'tool_name' and any necessary 'arguments' extracted from the query.
If no tool is suitable, respond with JSON: {"tool_name": "no_tool", "arguments": {"reason": "brief explanation why no tool is needed"}}
Do not add any explanations outside of the JSON.

Available tools:
`)
	for _, tool := range tools {
		fmt.Fprintf(&b, "- Tool Name: %s\n", tool.Name)
		fmt.Fprintf(&b, "  Description: %s\n", tool.Description)
		if len(tool.InputSchema.Properties) > 0 {
			b.WriteString("  Parameters:\n")
			if schema, err := json.Marshal(tool.InputSchema.Properties); err == nil {
				fmt.Fprintf(&b, "    %s\n", schema)
			}
		}
		b.WriteString("\n")
	}

	for _, turn := range lastTurns(history, 2) {
		switch turn.Role {
		case "user":
			fmt.Fprintf(&b, "Previous User: %s\n", turn.Content)
		case "assistant":
			fmt.Fprintf(&b, "Previous Assistant: %s\n", turn.Content)
		}
	}

	fmt.Fprintf(&b, "\nUser Query: %q\n", query)
	b.WriteString("JSON Response (tool_name and arguments OR no_tool):")
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
