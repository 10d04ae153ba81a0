package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/mcpcore/internal/mcp/protocol"
)

func TestClassify_Request(t *testing.T) {
	kind, err := protocol.Classify([]byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	require.NoError(t, err)
	assert.Equal(t, protocol.KindRequest, kind)
}

func TestClassify_Notification(t *testing.T) {
	kind, err := protocol.Classify([]byte(`{"jsonrpc":"2.0","method":"notifications/progress"}`))
	require.NoError(t, err)
	assert.Equal(t, protocol.KindNotification, kind)
}

func TestClassify_Response(t *testing.T) {
	kind, err := protocol.Classify([]byte(`{"jsonrpc":"2.0","id":1,"result":{}}`))
	require.NoError(t, err)
	assert.Equal(t, protocol.KindResponse, kind)
}

func TestClassify_Malformed(t *testing.T) {
	_, err := protocol.Classify([]byte(`not json`))
	assert.Error(t, err)

	_, err = protocol.Classify([]byte(`{"jsonrpc":"2.0"}`))
	assert.Error(t, err)
}

func TestNewRequest_MarshalsParams(t *testing.T) {
	req, err := protocol.NewRequest(protocol.NewIntID(1), "tools/call", map[string]any{"name": "echo"})
	require.NoError(t, err)
	assert.Equal(t, protocol.Version, req.JSONRPC)
	assert.Contains(t, string(req.Params), `"name":"echo"`)
}

func TestDecodeRequest_RejectsWrongVersion(t *testing.T) {
	_, err := protocol.DecodeRequest([]byte(`{"jsonrpc":"1.0","id":1,"method":"ping"}`))
	assert.Error(t, err)
}

func TestNewResultResponse_NilResult(t *testing.T) {
	resp, err := protocol.NewResultResponse(protocol.NewIntID(1), nil)
	require.NoError(t, err)
	assert.Nil(t, resp.Result)
	assert.Nil(t, resp.Error)
}
