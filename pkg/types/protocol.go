package types

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sourcegraph/jsonrpc2"
)

const (
	// JSONRPCVersion is the JSON-RPC version spoken on the wire
	JSONRPCVersion = "2.0"
)

// ID represents a unique identifier for a request in JSON-RPC
type ID = jsonrpc2.ID // string or number

// Message represents either a Request, Notification, or Response.
// Exactly one shape is valid at a time; Validate enforces the closed set.
type Message struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *ID              `json:"id,omitempty"`
	Method  string           `json:"method,omitempty"`
	Params  *json.RawMessage `json:"params,omitempty"`
	Result  *json.RawMessage `json:"result,omitempty"`
	Error   *ErrorResponse   `json:"error,omitempty"`
}

// IsResponse reports whether the message answers an earlier request.
func (m *Message) IsResponse() bool {
	return m.Method == "" && m.ID != nil
}

// IsNotification reports whether the message is a fire-and-forget notification.
func (m *Message) IsNotification() bool {
	return m.Method != "" && m.ID == nil
}

// UnmarshalResult decodes the response result into v.
func (m *Message) UnmarshalResult(v interface{}) error {
	if m.Error != nil {
		return m.Error
	}
	if m.Result == nil {
		return errors.New("message has no result")
	}
	return json.Unmarshal(*m.Result, v)
}

// Validate validates a Message according to the JSON-RPC 2.0 spec
func (m *Message) Validate() error {
	if m.JSONRPC != JSONRPCVersion {
		return fmt.Errorf("invalid jsonrpc version %q", m.JSONRPC)
	}

	// Request or notification must have a method
	if m.Method != "" {
		if m.Result != nil || m.Error != nil {
			return errors.New("request/notification cannot have result or error")
		}
		return nil
	}

	// Response must reference a request and carry either result or error
	if m.ID == nil {
		return errors.New("response missing id")
	}
	if m.Result != nil && m.Error != nil {
		return errors.New("response cannot have both result and error")
	}
	if m.Result == nil && m.Error == nil {
		return errors.New("response must have either result or error")
	}

	return nil
}

// ErrorResponse represents a JSON-RPC 2.0 error object
type ErrorResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NewError creates a new ErrorResponse with the given code and message
func NewError(code int, message string, data ...interface{}) *ErrorResponse {
	err := &ErrorResponse{
		Code:    code,
		Message: message,
	}
	if len(data) > 0 {
		err.Data = data[0]
	}
	return err
}

// Error implements the error interface.
func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Standard JSON-RPC error codes
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

// Implementation-defined error codes used across the client/server boundary
const (
	ServerError      = -32000
	NotConnectedCode = -32001
	TransportCode    = -32002
	TimeoutCode      = -32003
	CancelledCode    = -32004
)
