package transport_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/mcpcore/internal/mcp/transport"
)

func startWebSocketServer(t *testing.T) (*httptest.Server, chan *transport.WebSocket) {
	t.Helper()
	accepted := make(chan *transport.WebSocket, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws, err := transport.AcceptWebSocket(w, r, []string{"*"})
		if err != nil {
			return
		}
		accepted <- ws
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, accepted
}

func wsURL(ts *httptest.Server) string {
	return "ws" + ts.URL[len("http"):] + "/ws"
}

func TestWebSocket_SendReceiveRoundTrips(t *testing.T) {
	ts, accepted := startWebSocketServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := transport.DialWebSocket(ctx, wsURL(ts))
	require.NoError(t, err)
	defer client.Close()

	var server *transport.WebSocket
	select {
	case server = <-accepted:
	case <-ctx.Done():
		t.Fatal("server never accepted connection")
	}
	defer server.Close()

	require.NoError(t, client.Send(ctx, []byte(`{"jsonrpc":"2.0","id":1,"method":"ping"}`)))
	frame, err := server.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"jsonrpc":"2.0","id":1,"method":"ping"}`, string(frame))

	require.NoError(t, server.Send(ctx, []byte(`{"jsonrpc":"2.0","id":1,"result":{}}`)))
	frame, err = client.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"jsonrpc":"2.0","id":1,"result":{}}`, string(frame))
}

func TestWebSocket_CloseMarksDisconnected(t *testing.T) {
	ts, accepted := startWebSocketServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := transport.DialWebSocket(ctx, wsURL(ts))
	require.NoError(t, err)

	var server *transport.WebSocket
	select {
	case server = <-accepted:
	case <-ctx.Done():
		t.Fatal("server never accepted connection")
	}
	defer server.Close()

	assert.True(t, client.IsConnected())
	require.NoError(t, client.Close())
	assert.False(t, client.IsConnected())

	err = client.Send(ctx, []byte("x"))
	assert.ErrorIs(t, err, transport.ErrClosed)
}
