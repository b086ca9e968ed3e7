package pending

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweetdelights/bakery-mcp/pkg/types"
)

func newTestTable() *Table {
	return NewTable(zerolog.Nop())
}

func respFor(id types.ID) *types.Message {
	result := json.RawMessage(`{"ok":true}`)
	return &types.Message{JSONRPC: "2.0", ID: &id, Result: &result}
}

func TestRegisterAndResolve(t *testing.T) {
	table := newTestTable()
	id := types.ID{Num: 1}

	call, err := table.Register(id)
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if table.Len() != 1 {
		t.Fatalf("Len = %d, want 1", table.Len())
	}

	table.Resolve(id, respFor(id))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, err := call.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait error: %v", err)
	}
	if msg.ID.Num != 1 {
		t.Errorf("resolved id = %d, want 1", msg.ID.Num)
	}
	if table.Len() != 0 {
		t.Errorf("Len after resolve = %d, want 0", table.Len())
	}
}

func TestResolveBeforeWait(t *testing.T) {
	// Delivery must not depend on a waiter being parked yet.
	table := newTestTable()
	id := types.ID{Num: 2}
	call, err := table.Register(id)
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	table.Resolve(id, respFor(id))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := call.Wait(ctx); err != nil {
		t.Fatalf("Wait after early resolve: %v", err)
	}
}

func TestDuplicateID(t *testing.T) {
	table := newTestTable()
	id := types.ID{Num: 3}
	if _, err := table.Register(id); err != nil {
		t.Fatalf("first Register error: %v", err)
	}
	if _, err := table.Register(id); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("second Register = %v, want ErrDuplicateID", err)
	}
}

func TestWaitTimeoutPurgesEntry(t *testing.T) {
	table := newTestTable()
	id := types.ID{Num: 4}
	call, err := table.Register(id)
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := call.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait = %v, want DeadlineExceeded", err)
	}

	// The entry is gone, so a late response is dropped rather than delivered.
	if table.Len() != 0 {
		t.Errorf("Len after timeout = %d, want 0", table.Len())
	}
	table.Resolve(id, respFor(id))
}

func TestResolveUnknownIDIsDropped(t *testing.T) {
	table := newTestTable()
	table.Resolve(types.ID{Num: 99}, respFor(types.ID{Num: 99}))
	if table.Len() != 0 {
		t.Errorf("Len = %d, want 0", table.Len())
	}
}

func TestCancelAll(t *testing.T) {
	table := newTestTable()
	sentinel := errors.New("connection torn down")

	var calls []*Call
	for i := 1; i <= 5; i++ {
		call, err := table.Register(types.ID{Num: uint64(i)})
		if err != nil {
			t.Fatalf("Register %d error: %v", i, err)
		}
		calls = append(calls, call)
	}

	table.CancelAll(sentinel)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for i, call := range calls {
		if _, err := call.Wait(ctx); !errors.Is(err, sentinel) {
			t.Errorf("call %d: Wait = %v, want sentinel", i+1, err)
		}
	}
	if table.Len() != 0 {
		t.Errorf("Len after CancelAll = %d, want 0", table.Len())
	}
}

func TestConcurrentRegisterResolve(t *testing.T) {
	table := newTestTable()
	const n = 50

	done := make(chan error, n)
	for i := 1; i <= n; i++ {
		id := types.ID{Num: uint64(i)}
		call, err := table.Register(id)
		if err != nil {
			t.Fatalf("Register %d error: %v", i, err)
		}
		go func(call *Call) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_, err := call.Wait(ctx)
			done <- err
		}(call)
		go table.Resolve(id, respFor(id))
	}

	for i := 0; i < n; i++ {
		if err := <-done; err != nil {
			t.Fatalf("waiter error: %v", err)
		}
	}
	if table.Len() != 0 {
		t.Errorf("Len = %d, want 0", table.Len())
	}
}
