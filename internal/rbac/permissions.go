// Package rbac holds the static role permission table. Permissions are
// independent of workflow position: a Manager always holds Approve even
// when it is not their turn — turn-taking is enforced by the workflow
// engine, not here.
package rbac

import "github.com/0xfishbone/approval-flow/internal/models"

// Action is something a user can attempt against the system.
type Action string

const (
	ActionCreateRequest  Action = "CREATE_REQUEST"
	ActionViewRequest    Action = "VIEW_REQUEST"
	ActionApproveRequest Action = "APPROVE_REQUEST"
	ActionRejectRequest  Action = "REJECT_REQUEST"
	ActionAddComment     Action = "ADD_COMMENT"
	ActionViewDepartment Action = "VIEW_DEPARTMENT"
	ActionViewCompany    Action = "VIEW_COMPANY"
)

// permissions is the fixed role → action matrix. Built once; never
// mutated at runtime.
var permissions = map[models.Role]map[Action]bool{}

func init() {
	grant := func(role models.Role, actions ...Action) {
		set := make(map[Action]bool, len(actions))
		for _, a := range actions {
			set[a] = true
		}
		permissions[role] = set
	}

	grant(models.RoleStaff,
		ActionCreateRequest, ActionViewRequest, ActionAddComment)
	grant(models.RoleManager,
		ActionCreateRequest, ActionViewRequest, ActionApproveRequest,
		ActionRejectRequest, ActionAddComment, ActionViewDepartment)

	approverActions := []Action{
		ActionViewRequest, ActionApproveRequest, ActionRejectRequest,
		ActionAddComment, ActionViewCompany,
	}
	grant(models.RoleControleur, approverActions...)
	grant(models.RoleDirection, approverActions...)
	grant(models.RoleEconome, approverActions...)
}

// CanPerform reports whether the role is allowed to perform the action.
// Unknown roles have no permissions.
func CanPerform(role models.Role, action Action) bool {
	return permissions[role][action]
}
