package workflow

import "github.com/0xfishbone/approval-flow/internal/models"

// initialStepRole maps the request creator's role to the role of the
// chain's first acting step. Creators never approve their own requests,
// so a Manager-created request skips the Manager step. Roles missing
// from this table cannot create workflows (UnsupportedCreatorRoleError).
var initialStepRole = map[models.Role]models.Role{
	models.RoleStaff:   models.RoleManager,
	models.RoleManager: models.RoleControleur,
}

// stepDataValidator validates the structured data supplied when a step
// is approved. Returning nil accepts the data.
type stepDataValidator func(data models.ApprovalData) error

// stepDataValidators holds per-role validation of approval data, keyed
// by the role that owns the step. New step-specific requirements are a
// table entry, not a branch in the engine.
var stepDataValidators = map[models.Role]stepDataValidator{
	models.RoleControleur: validateDailyCost,
}

func validateDailyCost(data models.ApprovalData) error {
	cost, ok := data.DailyCost()
	if !ok || cost <= 0 {
		return ErrMissingDailyCost
	}
	return nil
}

// validateStepData applies the step's declarative data requirements:
// presence when the step demands additional info, then the role-keyed
// validator if one exists.
func validateStepData(step *models.WorkflowStep, data models.ApprovalData) error {
	if step.RequiresAdditionalInfo && len(data) == 0 {
		return ErrMissingAdditionalInfo
	}
	if validate, ok := stepDataValidators[step.Role]; ok {
		return validate(data)
	}
	return nil
}
