package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/mcpcore/internal/mcp/protocol"
)

func TestPendingTable_RegisterResolve(t *testing.T) {
	table := protocol.NewPendingTable()
	id := protocol.NewIntID(1)
	call, err := table.Register(id, "tools/call")
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())

	resp := protocol.NewErrorResponse(id, protocol.NewError(protocol.CodeInternalError, "boom"))
	assert.True(t, table.Resolve(resp))

	got := <-call.Done()
	assert.Equal(t, "boom", got.Error.Message)
	assert.Equal(t, 0, table.Len())
}

func TestPendingTable_DuplicateRegisterFails(t *testing.T) {
	table := protocol.NewPendingTable()
	id := protocol.NewIntID(1)
	_, err := table.Register(id, "tools/call")
	require.NoError(t, err)
	_, err = table.Register(id, "tools/call")
	assert.Error(t, err)
}

func TestPendingTable_ResolveUnknownIsFalse(t *testing.T) {
	table := protocol.NewPendingTable()
	resp := protocol.NewErrorResponse(protocol.NewIntID(99), protocol.NewError(protocol.CodeInternalError, "x"))
	assert.False(t, table.Resolve(resp))
}

func TestPendingTable_Cancel(t *testing.T) {
	table := protocol.NewPendingTable()
	id := protocol.NewIntID(1)
	call, _ := table.Register(id, "tools/call")
	assert.True(t, table.Cancel(id, "client timeout"))
	got := <-call.Done()
	assert.Equal(t, protocol.CodeCancelled, got.Error.Code)
}

func TestPendingTable_Drain(t *testing.T) {
	table := protocol.NewPendingTable()
	id1 := protocol.NewIntID(1)
	id2 := protocol.NewIntID(2)
	call1, _ := table.Register(id1, "m1")
	call2, _ := table.Register(id2, "m2")

	table.Drain("shutdown")

	resp1 := <-call1.Done()
	resp2 := <-call2.Done()
	assert.Equal(t, protocol.CodeCancelled, resp1.Error.Code)
	assert.Equal(t, protocol.CodeCancelled, resp2.Error.Code)
	assert.Equal(t, 0, table.Len())
}

func TestPendingCall_ResolveOnlyOnce(t *testing.T) {
	table := protocol.NewPendingTable()
	id := protocol.NewIntID(1)
	call, _ := table.Register(id, "m")
	resp := protocol.NewErrorResponse(id, protocol.NewError(protocol.CodeInternalError, "first"))
	table.Resolve(resp)
	// Second resolve on an already-removed id is a no-op at the table level.
	assert.False(t, table.Resolve(resp))
	got := <-call.Done()
	assert.Equal(t, "first", got.Error.Message)
}
