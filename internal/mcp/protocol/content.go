package protocol

import (
	"encoding/json"
	"fmt"
)

// ContentItem is a tagged union over the three content shapes the
// protocol exchanges in tool results, prompt messages, resource reads, and
// sampling messages: text, image, and embedded resource. Exactly one of
// Text, Data, or Resource is meaningful, selected by Type.
type ContentItem struct {
	Type string `json:"type"`

	// Text is set when Type == "text".
	Text string `json:"text,omitempty"`

	// Data and MimeType are set when Type == "image"; Data is
	// base64-encoded per the wire protocol, URI is an alternative to
	// inline Data for out-of-band image references.
	Data     string `json:"data,omitempty"`
	URI      string `json:"uri,omitempty"`
	MimeType string `json:"mimeType,omitempty"`

	// Resource is set when Type == "resource".
	Resource *EmbeddedResource `json:"resource,omitempty"`
}

// EmbeddedResource carries an inline resource body, either as text or as
// base64 Blob, alongside the URI that identifies it.
type EmbeddedResource struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"`
}

// NewTextContent builds a text ContentItem.
func NewTextContent(text string) ContentItem {
	return ContentItem{Type: "text", Text: text}
}

// NewImageContent builds an image ContentItem from inline base64 data.
func NewImageContent(data, mimeType string) ContentItem {
	return ContentItem{Type: "image", Data: data, MimeType: mimeType}
}

// NewImageURLContent builds an image ContentItem referencing an
// out-of-band URL instead of inlining the bytes.
func NewImageURLContent(uri, mimeType string) ContentItem {
	return ContentItem{Type: "image", URI: uri, MimeType: mimeType}
}

// NewResourceContent builds a resource ContentItem wrapping r.
func NewResourceContent(r EmbeddedResource) ContentItem {
	return ContentItem{Type: "resource", Resource: &r}
}

// Validate checks that ContentItem carries the fields its Type requires,
// so registries can reject a malformed tool result before it is ever
// marshaled onto the wire.
func (c ContentItem) Validate() error {
	switch c.Type {
	case "text":
		if c.Text == "" {
			return fmt.Errorf("protocol: text content item has empty text")
		}
	case "image":
		if c.Data == "" && c.URI == "" {
			return fmt.Errorf("protocol: image content item has neither data nor uri")
		}
		if c.MimeType == "" {
			return fmt.Errorf("protocol: image content item missing mimeType")
		}
	case "resource":
		if c.Resource == nil {
			return fmt.Errorf("protocol: resource content item missing resource body")
		}
		if c.Resource.URI == "" {
			return fmt.Errorf("protocol: embedded resource missing uri")
		}
	default:
		return fmt.Errorf("protocol: unknown content item type %q", c.Type)
	}
	return nil
}

// UnmarshalJSON rejects content items that carry no type at all; items
// with an unrecognized type are decoded and kept as they are.
func (c *ContentItem) UnmarshalJSON(data []byte) error {
	type alias ContentItem
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("protocol: decode content item: %w", err)
	}
	switch a.Type {
	case "text", "image", "resource":
	case "":
		return fmt.Errorf("protocol: content item missing type")
	default:
		// Unknown types are preserved rather than rejected so forward-
		// compatible peers advertising a newer content kind don't break
		// older handlers that merely pass content through untouched.
	}
	*c = ContentItem(a)
	return nil
}
