package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/0xfishbone/approval-flow/internal/models"
)

func TestCanPerform(t *testing.T) {
	tests := []struct {
		role   models.Role
		action Action
		want   bool
	}{
		{models.RoleStaff, ActionCreateRequest, true},
		{models.RoleStaff, ActionViewRequest, true},
		{models.RoleStaff, ActionAddComment, true},
		{models.RoleStaff, ActionApproveRequest, false},
		{models.RoleStaff, ActionRejectRequest, false},
		{models.RoleStaff, ActionViewDepartment, false},

		{models.RoleManager, ActionCreateRequest, true},
		{models.RoleManager, ActionApproveRequest, true},
		{models.RoleManager, ActionRejectRequest, true},
		{models.RoleManager, ActionViewDepartment, true},
		{models.RoleManager, ActionViewCompany, false},

		{models.RoleControleur, ActionApproveRequest, true},
		{models.RoleControleur, ActionViewCompany, true},
		{models.RoleControleur, ActionCreateRequest, false},

		{models.RoleDirection, ActionRejectRequest, true},
		{models.RoleDirection, ActionCreateRequest, false},

		{models.RoleEconome, ActionApproveRequest, true},
		{models.RoleEconome, ActionViewDepartment, false},
	}

	for _, tt := range tests {
		got := CanPerform(tt.role, tt.action)
		assert.Equal(t, tt.want, got, "%s / %s", tt.role, tt.action)
	}
}

func TestCanPerform_UnknownRole(t *testing.T) {
	assert.False(t, CanPerform(models.Role("ADMIN"), ActionViewRequest))
	assert.False(t, CanPerform("", ActionViewRequest))
}
