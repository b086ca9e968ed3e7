package types

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// ToolInputSchema represents the input schema for a tool
type ToolInputSchema struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	Required   []string               `json:"required,omitempty"`
}

// Tool describes a tool that can be called by the client
type Tool struct {
	// Name of the tool
	Name string `json:"name"`

	// Optional description
	Description string `json:"description,omitempty"`

	// JSON Schema defining expected parameters
	InputSchema ToolInputSchema `json:"inputSchema"`
}

// ListToolsResult represents the response to a tools/list request
type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

// CallToolRequest represents a request to call a specific tool
type CallToolRequest struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

// TextContent is a single text block in a tool or resource result
type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallToolResult represents the response from a tool call. The payload is
// carried as a JSON string inside a single text content block.
type CallToolResult struct {
	Content []TextContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// NewToolResult wraps a payload as a CallToolResult text block.
func NewToolResult(payload interface{}) (*CallToolResult, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool payload: %w", err)
	}
	return &CallToolResult{
		Content: []TextContent{{Type: "text", Text: string(data)}},
	}, nil
}

// UnwrapPayload decodes the JSON payload carried in the first text block into v.
func (r *CallToolResult) UnwrapPayload(v interface{}) error {
	if len(r.Content) == 0 || r.Content[0].Text == "" {
		return fmt.Errorf("tool result has no text content")
	}
	return json.Unmarshal([]byte(r.Content[0].Text), v)
}

// ToolHandler is a function that handles tool invocations
type ToolHandler func(ctx context.Context, arguments map[string]interface{}) (*CallToolResult, error)

// TypedToolHandler processes a tool's decoded input and returns the payload
// that will be wrapped into the result's text block.
type TypedToolHandler[T any] func(ctx context.Context, input T) (interface{}, error)

// BakeryTool defines the interface for a registered tool
type BakeryTool interface {
	GetName() string
	GetDescription() string
	GetDefinition() Tool
	GetHandler() ToolHandler
}

// TypedTool is a generic implementation of BakeryTool whose input schema is
// reflected from the argument struct.
type TypedTool[T any] struct {
	name        string
	description string
	handler     TypedToolHandler[T]
}

// NewTool creates a new typed tool
func NewTool[T any](name, description string, handler TypedToolHandler[T]) *TypedTool[T] {
	return &TypedTool[T]{
		name:        name,
		description: description,
		handler:     handler,
	}
}

func (t *TypedTool[T]) GetName() string {
	return t.name
}

func (t *TypedTool[T]) GetDescription() string {
	return t.description
}

func (t *TypedTool[T]) GetDefinition() Tool {
	// Generate JSON schema from the type T
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}

	schema := reflector.Reflect(new(T))

	// Convert the orderedmap to a map[string]interface{}
	props := make(map[string]interface{})
	for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
		props[pair.Key] = pair.Value
	}

	return Tool{
		Name:        t.name,
		Description: t.description,
		InputSchema: ToolInputSchema{
			Type:       "object",
			Properties: props,
			Required:   schema.Required,
		},
	}
}

func (t *TypedTool[T]) GetHandler() ToolHandler {
	return func(ctx context.Context, arguments map[string]interface{}) (*CallToolResult, error) {
		data, err := json.Marshal(arguments)
		if err != nil {
			return nil, NewError(InvalidParams, fmt.Sprintf("failed to marshal arguments: %v", err))
		}

		var input T
		if err := json.Unmarshal(data, &input); err != nil {
			return nil, NewError(InvalidParams, fmt.Sprintf("invalid arguments for tool %s: %v", t.name, err))
		}

		payload, err := t.handler(ctx, input)
		if err != nil {
			return nil, err
		}
		return NewToolResult(payload)
	}
}
