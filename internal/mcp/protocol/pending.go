package protocol

import (
	"fmt"
	"sync"
)

// PendingCall is a single outstanding request awaiting its response: the
// channel is closed exactly once, by whichever goroutine first resolves it
// (a matching response, a cancellation, or a deadline).
type PendingCall struct {
	ID     ID
	Method string
	done   chan Response
	once   sync.Once
}

func newPendingCall(id ID, method string) *PendingCall {
	return &PendingCall{ID: id, Method: method, done: make(chan Response, 1)}
}

// Done returns the channel that receives the call's Response exactly once.
func (p *PendingCall) Done() <-chan Response {
	return p.done
}

// resolve delivers resp to the waiter. Safe to call more than once; only
// the first call has any effect, matching the single-shot completion sink
// idiom used throughout the reliability and transport layers.
func (p *PendingCall) resolve(resp Response) {
	p.once.Do(func() {
		p.done <- resp
	})
}

// PendingTable correlates outgoing requests with their eventual responses
// by request ID. It is the shared primitive both the client facade and the
// server's reverse-channel (sampling, roots) calls use to turn the
// fire-and-forget transport into a synchronous-looking call, guarded the
// same way the teacher's connection manager guards its store cache: a
// single RWMutex over a plain map.
type PendingTable struct {
	mu    sync.RWMutex
	calls map[string]*PendingCall
}

// NewPendingTable builds an empty PendingTable.
func NewPendingTable() *PendingTable {
	return &PendingTable{calls: make(map[string]*PendingCall)}
}

// Register creates and stores a PendingCall for id, returning it so the
// caller can block on Done(). It is an error to register the same id
// twice concurrently.
func (t *PendingTable) Register(id ID, method string) (*PendingCall, error) {
	key := id.String()
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.calls[key]; exists {
		return nil, fmt.Errorf("protocol: request id %s already outstanding", key)
	}
	call := newPendingCall(id, method)
	t.calls[key] = call
	return call, nil
}

// Resolve delivers resp to the PendingCall registered under resp.ID, if
// any, and removes it from the table. It reports false when no matching
// call was outstanding — typically a duplicate or late response arriving
// after a timeout already removed the entry.
func (t *PendingTable) Resolve(resp Response) bool {
	key := resp.ID.String()
	t.mu.Lock()
	call, ok := t.calls[key]
	if ok {
		delete(t.calls, key)
	}
	t.mu.Unlock()
	if !ok {
		return false
	}
	call.resolve(resp)
	return true
}

// Cancel resolves the PendingCall registered under id with a synthetic
// Cancelled error response, used when a deadline elapses or an explicit
// notifications/cancelled arrives for a request this side issued.
func (t *PendingTable) Cancel(id ID, reason string) bool {
	key := id.String()
	t.mu.Lock()
	call, ok := t.calls[key]
	if ok {
		delete(t.calls, key)
	}
	t.mu.Unlock()
	if !ok {
		return false
	}
	call.resolve(NewErrorResponse(id, &Error{Code: CodeCancelled, Message: reason}))
	return true
}

// Len reports the number of outstanding calls, used by the reliability
// layer's metrics to expose in-flight request depth.
func (t *PendingTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.calls)
}

// Drain cancels every outstanding call with the given reason, used when a
// transport closes out from under the table (connection drop, process
// shutdown) so no caller blocks forever on a response that will never
// arrive.
func (t *PendingTable) Drain(reason string) {
	t.mu.Lock()
	calls := make([]*PendingCall, 0, len(t.calls))
	for key, call := range t.calls {
		calls = append(calls, call)
		delete(t.calls, key)
	}
	t.mu.Unlock()
	for _, call := range calls {
		call.resolve(NewErrorResponse(call.ID, &Error{Code: CodeCancelled, Message: reason}))
	}
}
