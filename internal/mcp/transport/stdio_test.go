package transport_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/mcpcore/internal/mcp/transport"
)

func TestStdio_SendWritesNewlineTerminatedFrame(t *testing.T) {
	var out bytes.Buffer
	st := transport.NewStdio(bytes.NewReader(nil), &out)

	require.NoError(t, st.Send(context.Background(), []byte(`{"jsonrpc":"2.0"}`)))
	assert.Equal(t, "{\"jsonrpc\":\"2.0\"}\n", out.String())
}

func TestStdio_ReceiveReadsOneLine(t *testing.T) {
	in := bytes.NewBufferString("{\"a\":1}\n{\"b\":2}\n")
	st := transport.NewStdio(in, &bytes.Buffer{})

	frame, err := st.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(frame))

	frame, err = st.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"b":2}`, string(frame))
}

func TestStdio_ReceiveReturnsErrClosedOnEOF(t *testing.T) {
	in := bytes.NewBufferString("")
	st := transport.NewStdio(in, &bytes.Buffer{})

	_, err := st.Receive(context.Background())
	assert.ErrorIs(t, err, transport.ErrClosed)
	assert.False(t, st.IsConnected())
}

func TestStdio_SendAfterCloseFails(t *testing.T) {
	st := transport.NewStdio(bytes.NewReader(nil), &bytes.Buffer{})
	require.NoError(t, st.Close())
	err := st.Send(context.Background(), []byte("{}"))
	assert.ErrorIs(t, err, transport.ErrClosed)
}

func TestStdio_Kind(t *testing.T) {
	st := transport.NewStdio(bytes.NewReader(nil), &bytes.Buffer{})
	assert.Equal(t, transport.KindStdio, st.Kind())
}
