package auth

import (
	"context"
	"fmt"
	"sync"
)

// ScopeAuthorizer is the default ToolAuthorizer: each tool is registered
// with the scope it requires, and a caller's Identity must carry that
// scope to invoke it. A tool registered with no required scope is open to
// any authenticated caller.
type ScopeAuthorizer struct {
	mu       sync.RWMutex
	required map[string]string
}

// NewScopeAuthorizer builds an empty ScopeAuthorizer.
func NewScopeAuthorizer() *ScopeAuthorizer {
	return &ScopeAuthorizer{required: make(map[string]string)}
}

// RequireScope declares that toolName may only be invoked by callers
// carrying scope. Calling it again for the same tool replaces the
// requirement.
func (a *ScopeAuthorizer) RequireScope(toolName, scope string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.required[toolName] = scope
}

// Authorize implements ToolAuthorizer.
func (a *ScopeAuthorizer) Authorize(ctx context.Context, id Identity, toolName string) error {
	a.mu.RLock()
	scope, ok := a.required[toolName]
	a.mu.RUnlock()
	if !ok || scope == "" {
		return nil
	}
	if !id.HasScope(scope) {
		return fmt.Errorf("%w: tool %q requires scope %q", ErrPermissionDenied, toolName, scope)
	}
	return nil
}
