// Package client implements the synchronous façade over the catalog server
// subprocess: it spawns the server, pumps line-delimited JSON-RPC over its
// stdio pipes, and correlates responses to outstanding requests by id.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweetdelights/bakery-mcp/internal/codec"
	"github.com/sweetdelights/bakery-mcp/internal/logx"
	"github.com/sweetdelights/bakery-mcp/internal/pending"
	"github.com/sweetdelights/bakery-mcp/internal/proc"
	"github.com/sweetdelights/bakery-mcp/pkg/methods"
	"github.com/sweetdelights/bakery-mcp/pkg/types"
)

// Config describes how to launch and talk to the catalog server.
type Config struct {
	// Command and Args launch the server subprocess.
	Command string
	Args    []string
	Env     map[string]string
	Dir     string

	// ClientInfo is the identity block sent in the initialize handshake.
	ClientInfo types.Implementation

	// ConnectTimeout bounds the initialize handshake.
	ConnectTimeout time.Duration
	// CallTimeout bounds each call when the caller's context has no deadline.
	CallTimeout time.Duration
	// SettleDelay is the wait after process start before the handshake.
	SettleDelay time.Duration
	// GracefulTimeout bounds graceful termination before escalating to a kill.
	GracefulTimeout time.Duration
}

func (cfg Config) withDefaults() Config {
	if cfg.ClientInfo.Name == "" {
		cfg.ClientInfo = types.Implementation{Name: "bakery-web", Version: "1.0"}
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 15 * time.Second
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 15 * time.Second
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = 500 * time.Millisecond
	}
	if cfg.GracefulTimeout <= 0 {
		cfg.GracefulTimeout = 5 * time.Second
	}
	return cfg
}

// Client is a synchronous JSON-RPC client over a server subprocess's stdio.
// All exported methods are safe for concurrent use.
type Client struct {
	cfg   Config
	log   zerolog.Logger
	group *proc.Group

	nextID  atomic.Uint64
	pending *pending.Table
	state   stateVar

	mu          sync.Mutex // guards the fields below and stdin writes
	proc        *proc.Process
	stdin       *bufio.Writer
	stop        chan struct{}
	primaryDone chan struct{}
	diagDone    chan struct{}
	caps        types.ServerCapabilities

	closeOnce sync.Once
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger for the client.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a client that will launch the server described by cfg.
// The client holds a reference on group until Close.
func NewClient(cfg Config, group *proc.Group, opts ...Option) *Client {
	c := &Client{
		cfg:   cfg.withDefaults(),
		log:   logx.With("client"),
		group: group,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.pending = pending.NewTable(c.log)
	group.Acquire()
	return c
}

// Connect starts the subprocess, launches both pumps, and performs the
// initialize handshake. It is idempotent: a Ready client returns nil
// immediately. A degraded or crashed connection is torn down first, so a
// reconnect never leaks the previous subprocess or its pumps. On handshake
// failure the subprocess is torn down and the client is left Disconnected.
func (c *Client) Connect(ctx context.Context) error {
	if c.state.Load() == Ready {
		return nil
	}

	c.mu.Lock()
	switch c.state.Load() {
	case Ready:
		c.mu.Unlock()
		return nil
	case Starting:
		c.mu.Unlock()
		return errors.New("connect already in progress")
	}
	if c.proc != nil {
		// The previous connection still owns a process and its pumps
		// (Degraded, or the process died without a Disconnect). Join
		// them before starting fresh.
		c.mu.Unlock()
		_ = c.Disconnect(c.cfg.GracefulTimeout)
		c.mu.Lock()
		switch c.state.Load() {
		case Ready:
			c.mu.Unlock()
			return nil
		case Starting:
			c.mu.Unlock()
			return errors.New("connect already in progress")
		}
	}
	c.state.Store(Starting)

	p, err := proc.Start(proc.Config{
		Command: c.cfg.Command,
		Args:    c.cfg.Args,
		Env:     c.cfg.Env,
		Dir:     c.cfg.Dir,
	})
	if err != nil {
		c.state.Store(Disconnected)
		c.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}

	stop := make(chan struct{})
	primaryDone := make(chan struct{})
	diagDone := make(chan struct{})
	c.proc = p
	c.stdin = bufio.NewWriter(p.Stdin)
	c.stop = stop
	c.primaryDone = primaryDone
	c.diagDone = diagDone
	c.mu.Unlock()

	c.log.Debug().Int("pid", p.PID()).Str("command", c.cfg.Command).Msg("server process started")
	c.group.Go(func() { c.primaryPump(p, stop, primaryDone) })
	c.group.Go(func() { c.diagnosticPump(p, stop, diagDone) })

	// Give the process a moment to come up before the handshake.
	select {
	case <-time.After(c.cfg.SettleDelay):
	case <-p.Done():
		_ = c.Disconnect(c.cfg.GracefulTimeout)
		return fmt.Errorf("%w: server process exited during startup", ErrTransport)
	case <-ctx.Done():
		_ = c.Disconnect(c.cfg.GracefulTimeout)
		return ctx.Err()
	}

	hctx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()
	resp, err := c.roundTrip(hctx, methods.Initialize, types.InitializeRequest{
		ProcessID:    os.Getpid(),
		ClientInfo:   c.cfg.ClientInfo,
		Capabilities: types.ClientCapabilities{},
		Trace:        "off",
	})
	if err != nil {
		_ = c.Disconnect(c.cfg.GracefulTimeout)
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("initialize handshake: %w", ErrRequestTimeout)
		}
		return fmt.Errorf("initialize handshake: %w", err)
	}

	var result types.InitializeResult
	if err := resp.UnmarshalResult(&result); err != nil {
		_ = c.Disconnect(c.cfg.GracefulTimeout)
		return fmt.Errorf("initialize handshake: %w", err)
	}

	c.mu.Lock()
	c.caps = result.Capabilities
	c.mu.Unlock()

	if err := c.Notify(methods.Initialized, struct{}{}); err != nil {
		_ = c.Disconnect(c.cfg.GracefulTimeout)
		return fmt.Errorf("initialized notification: %w", err)
	}

	c.state.Store(Ready)
	c.log.Info().Int("pid", p.PID()).Msg("connected")
	return nil
}

// Call sends a request and blocks until the matching response arrives or the
// bound expires. Outside the Ready/Degraded states it fails immediately with
// ErrNotConnected. A remote error is returned as *types.ErrorResponse.
func (c *Client) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	switch c.state.Load() {
	case Ready, Degraded:
	default:
		return nil, fmt.Errorf("%s: %w", method, ErrNotConnected)
	}

	if _, bounded := ctx.Deadline(); !bounded {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.CallTimeout)
		defer cancel()
	}

	resp, err := c.roundTrip(ctx, method, params)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s: %w", method, ErrRequestTimeout)
		}
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	if resp.Result == nil {
		return nil, fmt.Errorf("%s: response has no result", method)
	}
	return *resp.Result, nil
}

// Notify sends a one-way notification; no response is expected.
func (c *Client) Notify(method string, params interface{}) error {
	msg := &types.Message{JSONRPC: types.JSONRPCVersion, Method: method}
	if err := attachParams(msg, params); err != nil {
		return err
	}
	if err := c.write(msg); err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return nil
}

// IsHealthy reports whether the connection is Ready, the subprocess has not
// exited, and both pumps are still running. Point-in-time snapshot only.
func (c *Client) IsHealthy() bool {
	if c.state.Load() != Ready {
		return false
	}
	c.mu.Lock()
	p, pd, dd := c.proc, c.primaryDone, c.diagDone
	c.mu.Unlock()
	if p == nil || !p.Alive() {
		return false
	}
	select {
	case <-pd:
		return false
	default:
	}
	select {
	case <-dd:
		return false
	default:
	}
	return true
}

// State returns the current connection state.
func (c *Client) State() State {
	return c.state.Load()
}

// Capabilities returns the capabilities the server advertised during the
// handshake. Zero value until Ready.
func (c *Client) Capabilities() types.ServerCapabilities {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.caps
}

// Disconnect stops both pumps, cancels every pending call, sends a
// best-effort exit notification, and terminates the subprocess with an
// escalation from graceful to forced. Safe to call repeatedly, and safe to
// call when Connect never succeeded.
func (c *Client) Disconnect(graceful time.Duration) error {
	c.mu.Lock()
	p := c.proc
	stdin := c.stdin
	stop := c.stop
	pd, dd := c.primaryDone, c.diagDone
	c.proc = nil
	c.stdin = nil
	if stop != nil {
		select {
		case <-stop:
		default:
			close(stop)
		}
	}
	c.mu.Unlock()

	if p == nil {
		c.state.Store(Disconnected)
		return nil
	}

	// Ask the server to leave on its own before terminating it.
	if stdin != nil && p.Alive() {
		exit := &types.Message{JSONRPC: types.JSONRPCVersion, Method: methods.Exit}
		_ = attachParams(exit, struct{}{})
		if data, err := codec.Encode(exit); err == nil {
			_, _ = stdin.Write(data)
			_ = stdin.Flush()
		}
	}

	c.pending.CancelAll(ErrConnectionClosed)

	err := p.Terminate(graceful)
	if pd != nil {
		<-pd
	}
	if dd != nil {
		<-dd
	}
	c.state.Store(Disconnected)
	c.log.Info().Int("pid", p.PID()).Msg("disconnected")
	return err
}

// Close disconnects and releases the client's reference on the shared pump
// group.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.Disconnect(c.cfg.GracefulTimeout)
		c.group.Release()
	})
	return err
}

// roundTrip registers a pending call, writes the request, and awaits the
// matching response.
func (c *Client) roundTrip(ctx context.Context, method string, params interface{}) (*types.Message, error) {
	id := types.ID{Num: c.nextID.Add(1)}
	call, err := c.pending.Register(id)
	if err != nil {
		return nil, err
	}

	msg := &types.Message{JSONRPC: types.JSONRPCVersion, ID: &id, Method: method}
	if err := attachParams(msg, params); err != nil {
		c.pending.Forget(id)
		return nil, err
	}

	if err := c.write(msg); err != nil {
		c.pending.Forget(id)
		// A broken pipe means the connection is gone; tear it down so
		// later callers fail fast instead of timing out.
		_ = c.Disconnect(c.cfg.GracefulTimeout)
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	return call.Wait(ctx)
}

func (c *Client) write(msg *types.Message) error {
	data, err := codec.Encode(msg)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stdin == nil {
		return ErrNotConnected
	}
	if _, err := c.stdin.Write(data); err != nil {
		return err
	}
	return c.stdin.Flush()
}

// primaryPump reads the server's stdout for the lifetime of the connection.
// Responses resolve pending calls; notifications are logged; a malformed
// line is skipped, never fatal.
func (c *Client) primaryPump(p *proc.Process, stop, done chan struct{}) {
	defer close(done)

	scanner := bufio.NewScanner(p.Stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		select {
		case <-stop:
			return
		default:
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		msg, err := codec.Decode(line)
		if err != nil {
			c.log.Warn().Err(err).Msg("skipping malformed line")
			continue
		}
		switch {
		case msg.IsResponse():
			c.pending.Resolve(*msg.ID, msg)
		case msg.IsNotification():
			c.log.Debug().Str("method", msg.Method).Msg("server notification")
		default:
			c.log.Debug().Str("method", msg.Method).Msg("ignoring server-initiated request")
		}
	}

	select {
	case <-stop:
		return
	default:
	}
	if err := scanner.Err(); err != nil {
		c.log.Warn().Err(err).Msg("primary pump read error")
	}
	c.onPumpExit(p, true)
}

// diagnosticPump forwards the server's stderr lines to the host logger. It
// never resolves calls.
func (c *Client) diagnosticPump(p *proc.Process, stop, done chan struct{}) {
	defer close(done)

	scanner := bufio.NewScanner(p.Stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		select {
		case <-stop:
			return
		default:
		}
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			c.log.Info().Str("stream", "server").Msg(line)
		}
	}

	select {
	case <-stop:
		return
	default:
	}
	c.onPumpExit(p, false)
}

// onPumpExit handles a pump stopping outside an orderly disconnect.
func (c *Client) onPumpExit(p *proc.Process, primary bool) {
	if primary {
		// No response can arrive anymore; unblock every waiter.
		c.pending.CancelAll(ErrConnectionClosed)
	}
	if p.Alive() {
		if c.state.CompareAndSwap(Ready, Degraded) {
			c.log.Warn().Bool("primary", primary).Msg("pump stopped while server still running, connection degraded")
		}
		return
	}
	switch c.state.Load() {
	case Ready, Degraded, Starting:
		c.state.Store(Disconnected)
		c.log.Warn().Msg("server process exited unexpectedly")
	}
}

func attachParams(msg *types.Message, params interface{}) error {
	if params == nil {
		return nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}
	raw := json.RawMessage(data)
	msg.Params = &raw
	return nil
}
