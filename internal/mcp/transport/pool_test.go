package transport_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/mcpcore/internal/mcp/transport"
)

// fakeTransport is a minimal in-memory transport.Transport used to drive
// the pool's selection and failure-handling logic without a real wire
// binding.
type fakeTransport struct {
	mu        sync.Mutex
	sendErr   error
	sendCount int
	connected bool
}

func newFakeTransport() *fakeTransport { return &fakeTransport{connected: true} }

func (f *fakeTransport) Kind() transport.Kind { return transport.KindStdio }
func (f *fakeTransport) Send(ctx context.Context, frame []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendCount++
	return f.sendErr
}
func (f *fakeTransport) Receive(ctx context.Context) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
func (f *fakeTransport) Close() error { return nil }
func (f *fakeTransport) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func fakeDialer(ft *fakeTransport) transport.DialerFunc {
	return func(ctx context.Context) (transport.Transport, error) {
		return ft, nil
	}
}

func TestPool_RoundRobinDistributesSends(t *testing.T) {
	a := newFakeTransport()
	b := newFakeTransport()
	pool, err := transport.NewPool(context.Background(), transport.StrategyRoundRobin, nil, fakeDialer(a), fakeDialer(b))
	require.NoError(t, err)
	defer pool.Close()

	for i := 0; i < 4; i++ {
		require.NoError(t, pool.Send(context.Background(), []byte("{}")))
	}
	assert.Equal(t, 2, a.sendCount)
	assert.Equal(t, 2, b.sendCount)
}

func TestPool_SendFailureDegradesMember(t *testing.T) {
	a := newFakeTransport()
	a.sendErr = errors.New("broken pipe")
	pool, err := transport.NewPool(context.Background(), transport.StrategyRoundRobin, nil, fakeDialer(a))
	require.NoError(t, err)
	defer pool.Close()

	err = pool.Send(context.Background(), []byte("{}"))
	assert.Error(t, err)

	// A single-member pool whose only member failed once is Degraded, not
	// Unhealthy, and remains selectable.
	err = pool.Send(context.Background(), []byte("{}"))
	assert.Error(t, err)
}

func TestPool_NoHealthyMembersReturnsError(t *testing.T) {
	pool, err := transport.NewPool(context.Background(), transport.StrategyRoundRobin, nil, transport.DialerFunc(func(ctx context.Context) (transport.Transport, error) {
		return nil, errors.New("dial failed")
	}))
	require.NoError(t, err)
	defer pool.Close()

	err = pool.Send(context.Background(), []byte("{}"))
	assert.Error(t, err)
}

func TestPool_EmptyDialerListRejected(t *testing.T) {
	_, err := transport.NewPool(context.Background(), transport.StrategyRoundRobin, nil)
	assert.Error(t, err)
}
