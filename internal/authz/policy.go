// Package authz holds the role policy as a plain decision table. It is
// evaluated before any domain logic runs and never inspects resource
// state beyond the principal's role.
package authz

import "github.com/Jenkinson16/leaveease-api/internal/shared/apperror"

type Role string

const (
	RoleEmployee Role = "EMPLOYEE"
	RoleAdmin    Role = "ADMIN"
)

func ValidRole(r string) bool {
	switch Role(r) {
	case RoleEmployee, RoleAdmin:
		return true
	}
	return false
}

type Action string

const (
	ActionCreateLeave   Action = "leave:create"
	ActionListOwnLeaves Action = "leave:list-own"
	ActionListAllLeaves Action = "leave:list-all"
	ActionDecideLeave   Action = "leave:decide"
)

// requiredRole maps each action to the exact role allowed to perform it.
// Roles are not hierarchical: an admin cannot submit leave requests.
var requiredRole = map[Action]Role{
	ActionCreateLeave:   RoleEmployee,
	ActionListOwnLeaves: RoleEmployee,
	ActionListAllLeaves: RoleAdmin,
	ActionDecideLeave:   RoleAdmin,
}

// Authorize decides whether a principal with the given role may perform
// the action. An empty role means no authenticated principal.
func Authorize(role Role, action Action) error {
	if role == "" {
		return apperror.ErrUnauthorized
	}
	required, ok := requiredRole[action]
	if !ok || role != required {
		return apperror.ErrForbidden
	}
	return nil
}
