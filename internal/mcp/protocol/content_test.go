package protocol_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/mcpcore/internal/mcp/protocol"
)

func TestContentItem_ValidateText(t *testing.T) {
	assert.NoError(t, protocol.NewTextContent("hi").Validate())
	assert.Error(t, protocol.ContentItem{Type: "text"}.Validate())
}

func TestContentItem_ValidateImage(t *testing.T) {
	assert.NoError(t, protocol.NewImageContent("YWJj", "image/png").Validate())
	assert.Error(t, protocol.ContentItem{Type: "image"}.Validate())
}

func TestContentItem_ValidateResource(t *testing.T) {
	item := protocol.NewResourceContent(protocol.EmbeddedResource{URI: "file:///a.txt", Text: "hi"})
	assert.NoError(t, item.Validate())
	assert.Error(t, protocol.ContentItem{Type: "resource"}.Validate())
}

func TestContentItem_UnmarshalRejectsMissingType(t *testing.T) {
	var item protocol.ContentItem
	err := json.Unmarshal([]byte(`{"text":"hi"}`), &item)
	assert.Error(t, err)
}

func TestContentItem_UnmarshalAllowsUnknownType(t *testing.T) {
	var item protocol.ContentItem
	err := json.Unmarshal([]byte(`{"type":"audio","data":"xyz"}`), &item)
	require.NoError(t, err)
	assert.Equal(t, "audio", item.Type)
}
