package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scrypster/mcpcore/internal/auth"
)

func TestScopeAuthorizer_NoRequirementAllowsAnyone(t *testing.T) {
	a := auth.NewScopeAuthorizer()
	err := a.Authorize(context.Background(), auth.Identity{Subject: "anon"}, "echo")
	assert.NoError(t, err)
}

func TestScopeAuthorizer_MissingScopeDenied(t *testing.T) {
	a := auth.NewScopeAuthorizer()
	a.RequireScope("delete_project", "admin")
	err := a.Authorize(context.Background(), auth.Identity{Subject: "u1", Scopes: []string{"read"}}, "delete_project")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, auth.ErrPermissionDenied))
}

func TestScopeAuthorizer_MatchingScopeAllowed(t *testing.T) {
	a := auth.NewScopeAuthorizer()
	a.RequireScope("delete_project", "admin")
	err := a.Authorize(context.Background(), auth.Identity{Subject: "u1", Scopes: []string{"admin"}}, "delete_project")
	assert.NoError(t, err)
}

func TestIdentity_HasScope(t *testing.T) {
	id := auth.Identity{Scopes: []string{"read", "write"}}
	assert.True(t, id.HasScope("write"))
	assert.False(t, id.HasScope("admin"))
}
