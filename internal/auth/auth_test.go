package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_Can(t *testing.T) {
	t.Parallel()

	tests := []struct {
		role   Role
		action Action
		want   bool
	}{
		{RoleAdmin, ActionRead, true},
		{RoleAdmin, ActionEdit, true},
		{RoleAdmin, ActionDelete, true},
		{RoleOperator, ActionRead, true},
		{RoleOperator, ActionEdit, true},
		{RoleOperator, ActionDelete, false},
		{RoleViewer, ActionRead, true},
		{RoleViewer, ActionEdit, false},
		{RoleViewer, ActionDelete, false},
		{Role("bogus"), ActionRead, false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.role.Can(tc.action),
			"role %s action %s", tc.role, tc.action)
	}
}

func TestParseRole(t *testing.T) {
	t.Parallel()

	role, err := ParseRole("viewer")
	require.NoError(t, err)
	assert.Equal(t, RoleViewer, role)

	_, err = ParseRole("root")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestAccessibleDAGs(t *testing.T) {
	t.Parallel()

	t.Run("NilUser", func(t *testing.T) {
		ids, all := AccessibleDAGs(nil)
		assert.Empty(t, ids)
		assert.False(t, all)
	})

	t.Run("AdminSeesAll", func(t *testing.T) {
		_, all := AccessibleDAGs(&User{Username: "root", Role: RoleAdmin})
		assert.True(t, all)
	})

	t.Run("WildcardGrant", func(t *testing.T) {
		_, all := AccessibleDAGs(&User{Role: RoleViewer, DAGs: []string{"*"}})
		assert.True(t, all)
	})

	t.Run("ExplicitGrants", func(t *testing.T) {
		ids, all := AccessibleDAGs(&User{Role: RoleViewer, DAGs: []string{"a", "b"}})
		assert.False(t, all)
		assert.Equal(t, []string{"a", "b"}, ids)
	})

	t.Run("NoGrants", func(t *testing.T) {
		ids, all := AccessibleDAGs(&User{Role: RoleViewer})
		assert.False(t, all)
		assert.Empty(t, ids)
	})
}

func TestUserContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, ok := UserFromContext(ctx)
	assert.False(t, ok)

	user := &User{Username: "alice", Role: RoleOperator}
	ctx = WithUser(ctx, user)

	got, ok := UserFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, user, got)
}
