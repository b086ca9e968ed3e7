package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sweetdelights/bakery-mcp/pkg/methods"
	"github.com/sweetdelights/bakery-mcp/pkg/types"
)

// CallTool invokes a named tool on the server and returns the JSON payload
// carried in the result's text block.
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]interface{}) (json.RawMessage, error) {
	raw, err := c.Call(ctx, methods.CallTool, types.CallToolRequest{Name: name, Arguments: arguments})
	if err != nil {
		return nil, err
	}

	var result types.CallToolResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("malformed tool response for %s: %w", name, err)
	}
	var payload json.RawMessage
	if err := result.UnwrapPayload(&payload); err != nil {
		return nil, fmt.Errorf("malformed tool response for %s: %w", name, err)
	}
	return payload, nil
}

// ReadResource reads a resource by URI and returns the JSON payload carried
// in the result's text block.
func (c *Client) ReadResource(ctx context.Context, uri string) (json.RawMessage, error) {
	raw, err := c.Call(ctx, methods.ReadResource, types.ReadResourceRequest{URI: uri})
	if err != nil {
		return nil, err
	}

	var result types.ReadResourceResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("malformed resource response for %s: %w", uri, err)
	}
	var payload json.RawMessage
	if err := result.UnwrapPayload(&payload); err != nil {
		return nil, fmt.Errorf("malformed resource response for %s: %w", uri, err)
	}
	return payload, nil
}

// ListTools fetches the server's registered tool definitions.
func (c *Client) ListTools(ctx context.Context) ([]types.Tool, error) {
	raw, err := c.Call(ctx, methods.ListTools, struct{}{})
	if err != nil {
		return nil, err
	}
	var result types.ListToolsResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("malformed tools/list response: %w", err)
	}
	return result.Tools, nil
}
