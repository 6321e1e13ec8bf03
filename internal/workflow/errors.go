package workflow

import (
	"errors"
	"fmt"

	"github.com/0xfishbone/approval-flow/internal/models"
)

// Business-rule failures returned synchronously to the caller. None of
// these are retried by the engine.
var (
	// ErrWorkflowNotFound is returned when no workflow exists for the given ID.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrWorkflowComplete is returned when a mutation is attempted on a
	// completed workflow.
	ErrWorkflowComplete = errors.New("workflow already complete")

	// ErrApproverNotFound is returned when the acting user does not exist.
	ErrApproverNotFound = errors.New("approver not found")

	// ErrCrossTenantApprover is returned when the approver belongs to a
	// different company than the workflow.
	ErrCrossTenantApprover = errors.New("approver must belong to the same company as the workflow")

	// ErrInvalidStep indicates the workflow points at a step that is not
	// defined in the company's configuration. This is data corruption,
	// not a user error.
	ErrInvalidStep = errors.New("invalid workflow step")

	// ErrMissingAdditionalInfo is returned when the current step requires
	// additional data and none was supplied.
	ErrMissingAdditionalInfo = errors.New("current step requires additional information")

	// ErrMissingDailyCost is returned when the Contrôleur step is approved
	// without a positive dailyCost value.
	ErrMissingDailyCost = fmt.Errorf("%w: a positive dailyCost is required", ErrMissingAdditionalInfo)

	// ErrInvalidRejectionReason is returned when a rejection reason is
	// absent or shorter than MinRejectionReasonLen after trimming.
	ErrInvalidRejectionReason = errors.New("rejection reason must be at least 10 characters")

	// ErrConcurrentUpdate is returned when a concurrent transition won the
	// race for the same step. Retryable, unlike the business-rule errors.
	ErrConcurrentUpdate = errors.New("workflow was modified concurrently")
)

// MinRejectionReasonLen is the minimum trimmed length of a rejection reason.
const MinRejectionReasonLen = 10

// RoleMismatchError is returned when the approver's role does not match
// the role the current step requires. Both roles are carried so the
// caller can render an actionable message.
type RoleMismatchError struct {
	Required models.Role
	Actual   models.Role
}

func (e *RoleMismatchError) Error() string {
	return fmt.Sprintf("current step requires %s, but approver is %s", e.Required, e.Actual)
}

// UnsupportedCreatorRoleError is returned when a workflow is created for
// a request whose creator role has no defined initial step.
type UnsupportedCreatorRoleError struct {
	Role models.Role
}

func (e *UnsupportedCreatorRoleError) Error() string {
	return fmt.Sprintf("no initial approval step is defined for creator role %s", e.Role)
}
