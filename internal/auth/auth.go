// Package auth holds the principal model for the registry: users, roles
// and per-DAG grants, plus the access filter consumed by listing.
package auth

import (
	"context"
	"errors"
	"fmt"
)

// Common errors for principal resolution.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidRole  = errors.New("invalid role")
)

// Role determines which actions a principal may perform.
type Role string

const (
	// RoleAdmin may read, edit and delete any DAG.
	RoleAdmin Role = "admin"
	// RoleOperator may read and edit granted DAGs.
	RoleOperator Role = "operator"
	// RoleViewer may only read granted DAGs.
	RoleViewer Role = "viewer"
)

// ParseRole validates a role string from configuration.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleOperator, RoleViewer:
		return Role(s), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidRole, s)
	}
}

// Action is an operation a principal attempts against the DAG resource.
type Action string

const (
	ActionRead   Action = "read"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// Can reports whether the role permits the action.
func (r Role) Can(action Action) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleOperator:
		return action == ActionRead || action == ActionEdit
	case RoleViewer:
		return action == ActionRead
	default:
		return false
	}
}

// WildcardGrant grants visibility over every DAG.
const WildcardGrant = "*"

// User is the requesting principal. It is supplied per call and never
// persisted by the registry core.
type User struct {
	Username string
	Role     Role
	// DAGs lists the DAG ids the user is granted access to. A single
	// WildcardGrant entry means all DAGs.
	DAGs []string
}

// AccessibleDAGs returns the set of DAG ids the user may read. It is a pure
// function of the user's grants and never fails: a user with no grants gets
// an empty set. all=true means the set is unrestricted.
func AccessibleDAGs(user *User) (ids []string, all bool) {
	if user == nil {
		return nil, false
	}
	if user.Role == RoleAdmin {
		return nil, true
	}
	for _, id := range user.DAGs {
		if id == WildcardGrant {
			return nil, true
		}
		ids = append(ids, id)
	}
	return ids, false
}

type userCtxKey struct{}

// WithUser stores the authenticated principal in the context.
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, user)
}

// UserFromContext returns the authenticated principal, if any.
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userCtxKey{}).(*User)
	return user, ok
}
