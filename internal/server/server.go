// Package server implements the catalog server side of the wire: a
// line-delimited JSON-RPC loop over stdin/stdout, with all diagnostics on
// stderr.
package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sweetdelights/bakery-mcp/internal/catalog"
	"github.com/sweetdelights/bakery-mcp/internal/codec"
	"github.com/sweetdelights/bakery-mcp/internal/llm"
	"github.com/sweetdelights/bakery-mcp/pkg/methods"
	"github.com/sweetdelights/bakery-mcp/pkg/types"
)

// errExit signals an orderly stop requested by the client's exit notification.
var errExit = errors.New("exit requested")

// Server answers JSON-RPC requests read one per line from in, writing one
// response per line to out.
type Server struct {
	in  io.Reader
	out io.Writer
	log zerolog.Logger

	outMu sync.Mutex

	catalog   *catalog.Catalog
	tools     *Registry
	resources map[string]func() (interface{}, error)
}

// NewServer wires a server over the given streams. The llm client powers the
// assistant_chat tool; it may point at an unreachable endpoint, in which case
// the assistant degrades to apologetic replies.
func NewServer(in io.Reader, out io.Writer, cat *catalog.Catalog, lm *llm.Client, log zerolog.Logger) *Server {
	s := &Server{
		in:      in,
		out:     out,
		log:     log,
		catalog: cat,
	}
	s.tools = NewRegistry(cat, lm, log)
	s.resources = map[string]func() (interface{}, error){
		"bakery://products/all":        func() (interface{}, error) { return cat.All(), nil },
		"bakery://products/categories": func() (interface{}, error) { return cat.Categories(), nil },
	}
	return s
}

// Run processes requests until stdin closes, the context is cancelled, or an
// exit notification arrives. A malformed line is logged and skipped.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info().Strs("tools", s.tools.Names()).Msg("catalog server listening on stdin")

	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		msg, err := codec.Decode(line)
		if err != nil {
			s.log.Error().Err(err).Msg("skipping undecodable line")
			continue
		}

		if err := s.handle(ctx, msg); err != nil {
			if errors.Is(err, errExit) {
				s.log.Info().Msg("exit notification received, terminating")
				return nil
			}
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stdin read: %w", err)
	}
	s.log.Info().Msg("stdin closed, exiting")
	return nil
}

func (s *Server) handle(ctx context.Context, msg *types.Message) error {
	s.log.Debug().Str("method", msg.Method).Msg("request received")

	switch msg.Method {
	case methods.Initialize:
		return s.respond(msg.ID, types.InitializeResult{
			ServerInfo: &types.Implementation{Name: "bakeryd", Version: "1.0"},
			Capabilities: types.ServerCapabilities{
				Experimental: map[string]interface{}{
					"bakeryTools":   true,
					"assistantChat": true,
				},
				Tools:     &types.ToolsServerCapabilities{},
				Resources: &types.ResourcesServerCapabilities{},
			},
		}, nil)

	case methods.Initialized:
		s.log.Info().Msg("client initialized")
		return nil

	case methods.ListTools:
		return s.respond(msg.ID, types.ListToolsResult{Tools: s.tools.Definitions()}, nil)

	case methods.CallTool:
		return s.handleCallTool(ctx, msg)

	case methods.ReadResource:
		return s.handleReadResource(msg)

	case methods.Shutdown:
		s.log.Info().Msg("shutdown requested")
		return s.respond(msg.ID, struct{}{}, nil)

	case methods.Exit:
		return errExit

	default:
		s.log.Warn().Str("method", msg.Method).Msg("unknown method")
		if msg.ID != nil {
			return s.respond(msg.ID, nil, types.NewError(types.MethodNotFound, fmt.Sprintf("method not found: %s", msg.Method)))
		}
		return nil
	}
}

func (s *Server) handleCallTool(ctx context.Context, msg *types.Message) error {
	var req types.CallToolRequest
	if err := unmarshalParams(msg, &req); err != nil {
		return s.respond(msg.ID, nil, types.NewError(types.InvalidParams, err.Error()))
	}

	tool := s.tools.Get(req.Name)
	if tool == nil {
		s.log.Error().Str("tool", req.Name).Msg("tool not found")
		return s.respond(msg.ID, nil, types.NewError(types.MethodNotFound, fmt.Sprintf("tool not found: %s", req.Name)))
	}

	result, err := tool.GetHandler()(ctx, req.Arguments)
	if err != nil {
		var rpcErr *types.ErrorResponse
		if errors.As(err, &rpcErr) {
			return s.respond(msg.ID, nil, rpcErr)
		}
		s.log.Error().Err(err).Str("tool", req.Name).Msg("tool execution failed")
		return s.respond(msg.ID, nil, types.NewError(types.ServerError, fmt.Sprintf("error executing tool %s: %v", req.Name, err)))
	}
	return s.respond(msg.ID, result, nil)
}

func (s *Server) handleReadResource(msg *types.Message) error {
	var req types.ReadResourceRequest
	if err := unmarshalParams(msg, &req); err != nil {
		return s.respond(msg.ID, nil, types.NewError(types.InvalidParams, err.Error()))
	}

	read, ok := s.resources[req.URI]
	if !ok {
		return s.respond(msg.ID, nil, types.NewError(types.MethodNotFound, fmt.Sprintf("resource not found: %s", req.URI)))
	}

	payload, err := read()
	if err != nil {
		s.log.Error().Err(err).Str("uri", req.URI).Msg("resource read failed")
		return s.respond(msg.ID, nil, types.NewError(types.ServerError, fmt.Sprintf("error reading resource %s: %v", req.URI, err)))
	}
	result, err := types.NewResourceResult(payload)
	if err != nil {
		return s.respond(msg.ID, nil, types.NewError(types.InternalError, err.Error()))
	}
	return s.respond(msg.ID, result, nil)
}

// respond writes one response line. A request without an id gets no answer.
func (s *Server) respond(id *types.ID, result interface{}, rpcErr *types.ErrorResponse) error {
	if id == nil {
		return nil
	}

	msg := &types.Message{JSONRPC: types.JSONRPCVersion, ID: id}
	if rpcErr != nil {
		msg.Error = rpcErr
	} else {
		data, err := json.Marshal(result)
		if err != nil {
			msg.Error = types.NewError(types.InternalError, fmt.Sprintf("failed to marshal result: %v", err))
		} else {
			raw := json.RawMessage(data)
			msg.Result = &raw
		}
	}

	line, err := codec.Encode(msg)
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}

	s.outMu.Lock()
	defer s.outMu.Unlock()
	if _, err := s.out.Write(line); err != nil {
		return fmt.Errorf("stdout write: %w", err)
	}
	return nil
}

func unmarshalParams(msg *types.Message, v interface{}) error {
	if msg.Params == nil {
		return errors.New("missing params")
	}
	if err := json.Unmarshal(*msg.Params, v); err != nil {
		return fmt.Errorf("invalid params: %v", err)
	}
	return nil
}
