package protocol_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/mcpcore/internal/mcp/protocol"
)

func TestID_RoundTripInt(t *testing.T) {
	id := protocol.NewIntID(42)
	raw, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, "42", string(raw))

	var decoded protocol.ID
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.True(t, decoded.Equal(id))
	assert.False(t, decoded.IsString())
}

func TestID_RoundTripString(t *testing.T) {
	id := protocol.NewStringID("req-9")
	raw, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, `"req-9"`, string(raw))

	var decoded protocol.ID
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.True(t, decoded.Equal(id))
	assert.True(t, decoded.IsString())
}

func TestID_Unset(t *testing.T) {
	var id protocol.ID
	assert.False(t, id.IsSet())
	assert.Equal(t, "<unset>", id.String())

	raw, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))
}

func TestID_UnmarshalNull(t *testing.T) {
	var id protocol.ID
	require.NoError(t, json.Unmarshal([]byte("null"), &id))
	assert.False(t, id.IsSet())
}

func TestID_UnmarshalInvalid(t *testing.T) {
	var id protocol.ID
	err := json.Unmarshal([]byte("true"), &id)
	assert.Error(t, err)
}

func TestID_NotEqualAcrossKinds(t *testing.T) {
	intID := protocol.NewIntID(1)
	strID := protocol.NewStringID("1")
	assert.False(t, intID.Equal(strID))
}
