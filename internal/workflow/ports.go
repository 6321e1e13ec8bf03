package workflow

import (
	"context"

	"github.com/0xfishbone/approval-flow/internal/models"
)

// Collaborator interfaces consumed by the engine. Implemented by the
// repository layer; faked in tests.

// WorkflowStore persists workflow records.
type WorkflowStore interface {
	Create(ctx context.Context, wf *models.Workflow) error
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	GetByRequestID(ctx context.Context, requestID string) (*models.Workflow, error)

	// AdvanceStep moves the workflow from fromOrder to toOrder. It must be
	// a compare-and-swap: if the workflow is no longer at fromOrder, or is
	// already complete, it returns ErrConcurrentUpdate and writes nothing.
	AdvanceStep(ctx context.Context, id string, fromOrder, toOrder int) error

	// Complete marks the workflow complete, leaving current_step_order at
	// fromOrder. Same compare-and-swap contract as AdvanceStep.
	Complete(ctx context.Context, id string, fromOrder int) error
}

// ApprovalLedger is the append-only store of step decisions.
type ApprovalLedger interface {
	Append(ctx context.Context, approval *models.Approval) error
	ListByRequestID(ctx context.Context, requestID string) ([]*models.ApprovalWithApprover, error)
}

// UserDirectory resolves approvers.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// RequestStore is the slice of the request table the engine writes:
// projected status and the displayed current step.
type RequestStore interface {
	GetByID(ctx context.Context, id string) (*models.Request, error)
	SetStatus(ctx context.Context, id string, status models.RequestStatus) error
	SetCurrentStep(ctx context.Context, id string, step models.Role) error
	ClearCurrentStep(ctx context.Context, id string) error
}

// TxManager runs fn atomically. Nested calls reuse the outer transaction.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier receives workflow events after a transition commits. Delivery
// mechanics (email, push) live outside this module.
type Notifier interface {
	// StepAdvanced fires when the chain moves to a new step; role is the
	// role now expected to act.
	StepAdvanced(ctx context.Context, requestID string, role models.Role)

	// Resolved fires when the chain terminates with a final status.
	Resolved(ctx context.Context, requestID string, status models.RequestStatus)
}
