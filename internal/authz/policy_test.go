package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/records-service/internal/model"
)

func TestPolicyAllow(t *testing.T) {
	user := Subject{UserID: 1, Role: model.RoleUser}
	admin := Subject{UserID: 2, Role: model.RoleAdmin}

	tests := []struct {
		name    string
		policy  Policy
		subject Subject
		owner   uint64
		want    bool
	}{
		{"authenticated user", Authenticated(), user, 0, true},
		{"authenticated anonymous", Authenticated(), Subject{}, 0, false},
		{"admin only as user", AdminOnly, user, 0, false},
		{"admin only as admin", AdminOnly, admin, 0, true},
		{"admin only ignores ownership", AdminOnly, user, user.UserID, false},
		{"owner or admin as owner", OwnerOrAdmin, user, 1, true},
		{"owner or admin as stranger", OwnerOrAdmin, user, 99, false},
		{"owner or admin as admin", OwnerOrAdmin, admin, 99, true},
		{"owner check with zero ids", OwnerOrAdmin, Subject{Role: model.RoleUser}, 0, false},
		{"multiple roles", RequireRoles(model.RoleUser, model.RoleAdmin), user, 0, true},
		{"unknown kind", Policy{Kind: Kind(42)}, admin, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Allow(tt.subject, tt.owner))
		})
	}
}

func TestPolicyNeedsOwner(t *testing.T) {
	assert.True(t, OwnerOrAdmin.NeedsOwner())
	assert.False(t, AdminOnly.NeedsOwner())
	assert.False(t, Authenticated().NeedsOwner())
	assert.Equal(t, "owner_or_roles", OwnerOrAdmin.Kind.String())
}
