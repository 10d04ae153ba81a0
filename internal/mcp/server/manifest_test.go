package server_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/mcpcore/internal/mcp/protocol"
	"github.com/scrypster/mcpcore/internal/mcp/server"
)

const manifestV1 = `
tools:
  - name: echo
    description: echoes back its input
    schema:
      type: object
      properties:
        text:
          type: string
`

const manifestV2 = `
tools:
  - name: echo
    description: echoes back its input, louder
    schema:
      type: object
      properties:
        text:
          type: string
  - name: shout
    description: a new tool added on reload
    schema:
      type: object
`

func writeManifest(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadManifest_ParsesTools(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, manifestV1)

	m, err := server.LoadManifest(path)
	require.NoError(t, err)
	require.Len(t, m.Tools, 1)
	assert.Equal(t, "echo", m.Tools[0].Name)
	assert.Equal(t, "object", m.Tools[0].Schema["type"])
}

func TestApplyManifest_SkipsEntriesWithNoHandler(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, manifestV1)
	m, err := server.LoadManifest(path)
	require.NoError(t, err)

	h := server.New(protocol.ServerInfo{Name: "test", Version: "0"})
	h.ApplyManifest(m, server.Handlers{})

	assert.Equal(t, 0, h.Tools().Len())
}

func TestApplyManifest_RegistersToolsWithHandlers(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, manifestV1)
	m, err := server.LoadManifest(path)
	require.NoError(t, err)

	h := server.New(protocol.ServerInfo{Name: "test", Version: "0"})
	h.ApplyManifest(m, server.Handlers{
		Tools: map[string]server.ToolHandler{
			"echo": func(ctx context.Context, args any) (protocol.ToolCallResult, error) {
				return protocol.ToolCallResult{Content: []protocol.ContentItem{protocol.NewTextContent("ok")}}, nil
			},
		},
	})

	require.Equal(t, 1, h.Tools().Len())
	result, rpcErr := h.Tools().Call(context.Background(), "echo", map[string]any{"text": "hi"})
	require.Nil(t, rpcErr)
	assert.Equal(t, "ok", result.Content[0].Text)
}

func TestWatchManifest_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, manifestV1)

	h := server.New(protocol.ServerInfo{Name: "test", Version: "0"})
	handlers := server.Handlers{
		Tools: map[string]server.ToolHandler{
			"echo": func(ctx context.Context, args any) (protocol.ToolCallResult, error) {
				return protocol.ToolCallResult{}, nil
			},
			"shout": func(ctx context.Context, args any) (protocol.ToolCallResult, error) {
				return protocol.ToolCallResult{}, nil
			},
		},
	}

	fw, err := h.WatchManifest(context.Background(), path, handlers)
	require.NoError(t, err)
	defer fw.Stop()

	require.Equal(t, 1, h.Tools().Len())

	require.NoError(t, os.WriteFile(path, []byte(manifestV2), 0o644))

	require.Eventually(t, func() bool {
		return h.Tools().Len() == 2
	}, 2*time.Second, 20*time.Millisecond)

	names := make([]string, 0, 2)
	for _, d := range h.Tools().List() {
		names = append(names, d.Name)
	}
	assert.Contains(t, names, "echo")
	assert.Contains(t, names, "shout")
}
