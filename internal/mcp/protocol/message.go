package protocol

import (
	"encoding/json"
	"fmt"
)

// Version is the literal JSON-RPC version string every envelope carries.
const Version = "2.0"

// Request is a JSON-RPC 2.0 request: it always carries an id and expects a
// response.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      ID              `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response: exactly one of Result or Error is
// set, and ID echoes the request it answers.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      ID              `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Notification is a JSON-RPC 2.0 notification: it carries no id and never
// produces a response.
type Notification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// NewRequest builds a Request with params marshaled from an arbitrary value.
func NewRequest(id ID, method string, params any) (Request, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return Request{}, err
	}
	return Request{JSONRPC: Version, ID: id, Method: method, Params: raw}, nil
}

// NewNotification builds a Notification with params marshaled from an
// arbitrary value.
func NewNotification(method string, params any) (Notification, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return Notification{}, err
	}
	return Notification{JSONRPC: Version, Method: method, Params: raw}, nil
}

// NewResultResponse builds a successful Response with result marshaled from
// an arbitrary value.
func NewResultResponse(id ID, result any) (Response, error) {
	raw, err := marshalParams(result)
	if err != nil {
		return Response{}, err
	}
	return Response{JSONRPC: Version, ID: id, Result: raw}, nil
}

// NewErrorResponse builds a failed Response carrying err.
func NewErrorResponse(id ID, err *Error) Response {
	return Response{JSONRPC: Version, ID: id, Error: err}
}

func marshalParams(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("protocol: marshal params: %w", err)
	}
	return raw, nil
}

// Kind classifies a raw JSON-RPC frame without fully decoding it, by the
// presence of "id" and "method" fields — exactly the rule spec.md §4.2
// prescribes for the stdio adapter, generalized so every adapter can share
// it.
type Kind int

const (
	// KindUnknown is returned for malformed frames — not valid JSON, or
	// missing jsonrpc/method entirely.
	KindUnknown Kind = iota
	KindRequest
	KindResponse
	KindNotification
)

type envelopeProbe struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  *string         `json:"method"`
	Result  json.RawMessage `json:"result"`
	Error   json.RawMessage `json:"error"`
}

// Classify inspects a raw frame and reports its Kind, which is what the
// engine needs to route it further.
func Classify(raw []byte) (Kind, error) {
	var probe envelopeProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return KindUnknown, fmt.Errorf("protocol: invalid JSON-RPC frame: %w", err)
	}
	hasID := len(probe.ID) > 0 && string(probe.ID) != "null"
	switch {
	case probe.Method != nil && hasID:
		return KindRequest, nil
	case probe.Method != nil && !hasID:
		return KindNotification, nil
	case probe.Result != nil || probe.Error != nil:
		return KindResponse, nil
	default:
		return KindUnknown, fmt.Errorf("protocol: frame is neither request, response, nor notification")
	}
}

// DecodeRequest parses raw as a Request, validating the jsonrpc version.
func DecodeRequest(raw []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return Request{}, fmt.Errorf("protocol: decode request: %w", err)
	}
	if req.JSONRPC != Version {
		return Request{}, fmt.Errorf("protocol: invalid jsonrpc version %q", req.JSONRPC)
	}
	return req, nil
}

// DecodeResponse parses raw as a Response.
func DecodeResponse(raw []byte) (Response, error) {
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Response{}, fmt.Errorf("protocol: decode response: %w", err)
	}
	return resp, nil
}

// DecodeNotification parses raw as a Notification.
func DecodeNotification(raw []byte) (Notification, error) {
	var n Notification
	if err := json.Unmarshal(raw, &n); err != nil {
		return Notification{}, fmt.Errorf("protocol: decode notification: %w", err)
	}
	return n, nil
}
