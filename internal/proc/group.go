package proc

import "sync"

// Group is the shared pump group: one service object handed to every client
// at construction. It is reference counted; the pumps of all live clients run
// on it, and the last Release waits for every pump to finish so reconnect
// cycles never leak goroutines.
type Group struct {
	mu   sync.Mutex
	refs int
	wg   sync.WaitGroup
}

// NewGroup creates an empty pump group.
func NewGroup() *Group {
	return &Group{}
}

// Acquire takes a reference. Each client acquires once at construction.
func (g *Group) Acquire() {
	g.mu.Lock()
	g.refs++
	g.mu.Unlock()
}

// Go runs fn on the group. The caller must hold a reference.
func (g *Group) Go(fn func()) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		fn()
	}()
}

// Release drops a reference. When the last reference is dropped, Release
// blocks until every pump started on the group has exited. Callers must stop
// their pumps (stop flag, process teardown) before the final Release.
func (g *Group) Release() {
	g.mu.Lock()
	if g.refs > 0 {
		g.refs--
	}
	last := g.refs == 0
	g.mu.Unlock()

	if last {
		g.wg.Wait()
	}
}

// Refs reports the current reference count.
func (g *Group) Refs() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.refs
}
