package types

import (
	"encoding/json"
	"fmt"
)

// ReadResourceRequest represents a request to read a resource by URI
type ReadResourceRequest struct {
	URI string `json:"uri"`
}

// ReadResourceResult represents the response to a resources/read request.
// Each resource payload is carried as a JSON string inside a text block.
type ReadResourceResult struct {
	Contents []TextContent `json:"contents"`
}

// NewResourceResult wraps a payload as a ReadResourceResult text block.
func NewResourceResult(payload interface{}) (*ReadResourceResult, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource payload: %w", err)
	}
	return &ReadResourceResult{
		Contents: []TextContent{{Type: "text", Text: string(data)}},
	}, nil
}

// UnwrapPayload decodes the JSON payload carried in the first text block into v.
func (r *ReadResourceResult) UnwrapPayload(v interface{}) error {
	if len(r.Contents) == 0 || r.Contents[0].Text == "" {
		return fmt.Errorf("resource result has no text content")
	}
	return json.Unmarshal([]byte(r.Contents[0].Text), v)
}
