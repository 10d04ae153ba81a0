// Package auth defines the pluggable authentication and per-tool
// authorization seam the server core consults before dispatching any
// capability-gated request.
package auth

import (
	"context"
	"fmt"
)

// Identity is the authenticated caller a successful Authenticator.Authenticate
// resolves to. Scopes drive ToolAuthorizer decisions; Subject is an opaque
// caller identifier used only for logging and audit trails.
type Identity struct {
	Subject string
	Scopes  []string
}

// HasScope reports whether id was granted scope.
func (id Identity) HasScope(scope string) bool {
	for _, s := range id.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Authenticator resolves a request's credentials (carried out-of-band by
// whichever transport accepted the connection — an HTTP Authorization
// header, a WebSocket handshake query param) into an Identity. It is the
// single seam for authentication: a deployment installs exactly one
// Authenticator, never a transport-level check layered on top of it, so
// spec.md's auth-header-vs-middleware-auth precedence question never
// arises in this SDK — there is nothing else to conflict with.
type Authenticator interface {
	Authenticate(ctx context.Context, credentials map[string]string) (Identity, error)
}

// AuthenticatorFunc adapts a plain function to Authenticator.
type AuthenticatorFunc func(ctx context.Context, credentials map[string]string) (Identity, error)

func (f AuthenticatorFunc) Authenticate(ctx context.Context, credentials map[string]string) (Identity, error) {
	return f(ctx, credentials)
}

// ErrUnauthenticated is returned by an Authenticator when credentials are
// absent or invalid.
var ErrUnauthenticated = fmt.Errorf("auth: unauthenticated")

// ToolAuthorizer decides whether an already-authenticated Identity may
// invoke a specific tool (or prompt/resource) by name. Separating this
// from Authenticator lets a deployment swap authorization policy (scopes,
// per-tool allowlists, rate tiers) without touching how identity itself
// is established.
type ToolAuthorizer interface {
	Authorize(ctx context.Context, id Identity, toolName string) error
}

// ToolAuthorizerFunc adapts a plain function to ToolAuthorizer.
type ToolAuthorizerFunc func(ctx context.Context, id Identity, toolName string) error

func (f ToolAuthorizerFunc) Authorize(ctx context.Context, id Identity, toolName string) error {
	return f(ctx, id, toolName)
}

// ErrPermissionDenied is returned by a ToolAuthorizer when id lacks the
// scope a tool requires.
var ErrPermissionDenied = fmt.Errorf("auth: permission denied")
