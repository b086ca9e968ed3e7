// Package pending tracks in-flight JSON-RPC requests and hands each matching
// response to exactly one waiter.
package pending

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sweetdelights/bakery-mcp/pkg/types"
)

// ErrDuplicateID is returned when a request id is registered while a call
// with the same id is still outstanding. The id generator is monotonic, so
// hitting this is a programmer error, fatal to that call only.
var ErrDuplicateID = errors.New("duplicate request id")

// outcome is the single resolution of a call: a response message or a failure.
type outcome struct {
	msg *types.Message
	err error
}

// Call is one in-flight request awaiting its response.
type Call struct {
	id    types.ID
	table *Table
	done  chan outcome // buffered 1; written at most once
}

// ID returns the request id this call is waiting on.
func (c *Call) ID() types.ID { return c.id }

// Wait blocks until the call resolves or ctx expires. On ctx expiry the
// entry is purged so a late response is dropped instead of mis-delivered.
func (c *Call) Wait(ctx context.Context) (*types.Message, error) {
	select {
	case out := <-c.done:
		return out.msg, out.err
	case <-ctx.Done():
		c.table.Forget(c.id)
		// A resolution may have raced the purge; prefer it.
		select {
		case out := <-c.done:
			return out.msg, out.err
		default:
		}
		return nil, ctx.Err()
	}
}

// Table is the pending-call table. Entries are removed on first resolution,
// so no slot can ever resolve twice.
type Table struct {
	mu    sync.Mutex
	calls map[types.ID]*Call
	log   zerolog.Logger
}

// NewTable creates an empty pending-call table.
func NewTable(log zerolog.Logger) *Table {
	return &Table{
		calls: make(map[types.ID]*Call),
		log:   log,
	}
}

// Register creates an unresolved slot for id.
func (t *Table) Register(id types.ID) (*Call, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.calls[id]; exists {
		return nil, ErrDuplicateID
	}
	call := &Call{
		id:    id,
		table: t,
		done:  make(chan outcome, 1),
	}
	t.calls[id] = call
	return call, nil
}

// Resolve fulfills the slot for id with a response message. A response for
// an unknown or already-resolved id is dropped with a diagnostic; that is a
// protocol anomaly, not an error.
func (t *Table) Resolve(id types.ID, msg *types.Message) {
	t.mu.Lock()
	call, ok := t.calls[id]
	if ok {
		delete(t.calls, id)
	}
	t.mu.Unlock()

	if !ok {
		t.log.Warn().Str("id", id.String()).Msg("response for unknown or expired request id, dropping")
		return
	}
	call.done <- outcome{msg: msg}
}

// CancelAll resolves every still-pending slot with err so no waiter hangs.
func (t *Table) CancelAll(err error) {
	t.mu.Lock()
	cancelled := make([]*Call, 0, len(t.calls))
	for id, call := range t.calls {
		cancelled = append(cancelled, call)
		delete(t.calls, id)
	}
	t.mu.Unlock()

	for _, call := range cancelled {
		call.done <- outcome{err: err}
	}
}

// Len reports the number of in-flight calls.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}

// Forget discards the slot for id without resolving it. Used when a request
// could not be written or its wait expired; a late response for the id is
// then dropped by Resolve.
func (t *Table) Forget(id types.ID) {
	t.mu.Lock()
	delete(t.calls, id)
	t.mu.Unlock()
}
