// Package codec implements the line-delimited JSON envelope format: one
// JSON-RPC object per line, no framing beyond the newline.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sweetdelights/bakery-mcp/pkg/types"
)

// ErrMalformed marks a line that could not be decoded as a valid envelope.
// It is non-fatal: callers skip the line and keep reading.
var ErrMalformed = errors.New("malformed message")

// Encode serializes msg as a single line terminated by '\n'. The encoded
// form never contains embedded line breaks.
func Encode(msg *types.Message) ([]byte, error) {
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("refusing to encode invalid message: %w", err)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	if bytes.ContainsRune(data, '\n') {
		// json.Marshal does not emit raw newlines, but a RawMessage
		// param assembled by hand could.
		data = bytes.ReplaceAll(data, []byte("\n"), []byte(" "))
	}
	return append(data, '\n'), nil
}

// Decode parses one line as a JSON-RPC envelope. Malformed input yields an
// error wrapping ErrMalformed.
func Decode(line []byte) (*types.Message, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, fmt.Errorf("%w: empty line", ErrMalformed)
	}

	var msg types.Message
	if err := json.Unmarshal(line, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &msg, nil
}
