// Package workflow implements the approval chain state machine: it
// decides which role must act next on a request, validates approvers
// against the current step, appends decisions to the approval ledger and
// projects the coarse request status.
package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/0xfishbone/approval-flow/internal/models"
)

// StepRef identifies the step a workflow is waiting on.
type StepRef struct {
	Role      models.Role `json:"role"`
	StepOrder int         `json:"step_order"`
}

// Engine owns all workflow transitions. Each transition executes inside
// one transaction; workflow advancement is a compare-and-swap so that of
// two concurrent approvals on the same step exactly one succeeds.
type Engine struct {
	workflows WorkflowStore
	ledger    ApprovalLedger
	users     UserDirectory
	requests  RequestStore
	configs   *ConfigProvider
	tx        TxManager
	notifier  Notifier
	logger    *zap.Logger
	now       func() time.Time
}

// NewEngine creates a workflow engine. notifier may be nil.
func NewEngine(
	workflows WorkflowStore,
	ledger ApprovalLedger,
	users UserDirectory,
	requests RequestStore,
	configs *ConfigProvider,
	tx TxManager,
	notifier Notifier,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		workflows: workflows,
		ledger:    ledger,
		users:     users,
		requests:  requests,
		configs:   configs,
		tx:        tx,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateWorkflow starts the approval chain for a freshly created request.
// The initial step depends on the creator's role: staff requests start at
// the Manager step, manager requests skip straight to the Contrôleur
// (creators cannot self-approve). Other creator roles are rejected.
func (e *Engine) CreateWorkflow(ctx context.Context, requestID, companyID string, creatorRole models.Role) (*models.Workflow, error) {
	startRole, ok := initialStepRole[creatorRole]
	if !ok {
		return nil, &UnsupportedCreatorRoleError{Role: creatorRole}
	}

	cfg := e.configs.Get(companyID)
	step := cfg.StepForRole(startRole)
	if step == nil {
		return nil, fmt.Errorf("%w: role %s has no step in company %s config", ErrInvalidStep, startRole, companyID)
	}

	now := e.now()
	wf := &models.Workflow{
		ID:               uuid.NewString(),
		RequestID:        requestID,
		CompanyID:        companyID,
		CurrentStepOrder: step.Order,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err := e.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := e.workflows.Create(ctx, wf); err != nil {
			return err
		}
		return e.requests.SetCurrentStep(ctx, requestID, step.Role)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("workflow created",
		zap.String("workflow_id", wf.ID),
		zap.String("request_id", requestID),
		zap.String("creator_role", creatorRole.String()),
		zap.Int("initial_step", step.Order))

	if e.notifier != nil {
		e.notifier.StepAdvanced(ctx, requestID, step.Role)
	}
	return wf, nil
}

// GetWorkflowByRequestID returns the workflow owning the request, or
// ErrWorkflowNotFound.
func (e *Engine) GetWorkflowByRequestID(ctx context.Context, requestID string) (*models.Workflow, error) {
	wf, err := e.workflows.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if wf == nil {
		return nil, ErrWorkflowNotFound
	}
	return wf, nil
}

// ApproveStep records an approval for the workflow's current step and
// advances the chain, or completes it when the final step was approved.
func (e *Engine) ApproveStep(ctx context.Context, workflowID, approverID, signature string, data models.ApprovalData, location string) (*models.Approval, error) {
	var (
		approval *models.Approval
		nextRole models.Role
		done     bool
	)

	err := e.tx.WithTransaction(ctx, func(ctx context.Context) error {
		wf, step, err := e.loadActingStep(ctx, workflowID, approverID)
		if err != nil {
			return err
		}
		if err := validateStepData(step, data); err != nil {
			return err
		}

		approval = &models.Approval{
			ID:               uuid.NewString(),
			WorkflowID:       wf.ID,
			RequestID:        wf.RequestID,
			ApproverID:       approverID,
			StepOrder:        wf.CurrentStepOrder,
			StepRole:         step.Role,
			Status:           models.ApprovalApproved,
			AdditionalData:   data,
			DigitalSignature: signature,
			Location:         location,
			CreatedAt:        e.now(),
		}
		if err := e.ledger.Append(ctx, approval); err != nil {
			return err
		}

		cfg := e.configs.Get(wf.CompanyID)
		next := cfg.StepAt(wf.CurrentStepOrder + 1)
		if next == nil {
			done = true
			if err := e.workflows.Complete(ctx, wf.ID, wf.CurrentStepOrder); err != nil {
				return err
			}
			if err := e.requests.ClearCurrentStep(ctx, wf.RequestID); err != nil {
				return err
			}
			return e.requests.SetStatus(ctx, wf.RequestID, models.RequestApproved)
		}

		nextRole = next.Role
		if err := e.workflows.AdvanceStep(ctx, wf.ID, wf.CurrentStepOrder, next.Order); err != nil {
			return err
		}
		if err := e.requests.SetCurrentStep(ctx, wf.RequestID, next.Role); err != nil {
			return err
		}
		return e.requests.SetStatus(ctx, wf.RequestID, models.RequestInProgress)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("step approved",
		zap.String("workflow_id", workflowID),
		zap.String("approver_id", approverID),
		zap.Int("step_order", approval.StepOrder),
		zap.Bool("complete", done))

	if e.notifier != nil {
		if done {
			e.notifier.Resolved(ctx, approval.RequestID, models.RequestApproved)
		} else {
			e.notifier.StepAdvanced(ctx, approval.RequestID, nextRole)
		}
	}
	return approval, nil
}

// RejectStep records a rejection for the workflow's current step and
// terminates the chain. Rejection is final: the workflow completes
// immediately regardless of position, and no re-submission path exists
// on this workflow instance.
func (e *Engine) RejectStep(ctx context.Context, workflowID, approverID, signature, reason, location string) (*models.Approval, error) {
	var approval *models.Approval

	err := e.tx.WithTransaction(ctx, func(ctx context.Context) error {
		wf, step, err := e.loadActingStep(ctx, workflowID, approverID)
		if err != nil {
			return err
		}
		if len(strings.TrimSpace(reason)) < MinRejectionReasonLen {
			return ErrInvalidRejectionReason
		}

		approval = &models.Approval{
			ID:               uuid.NewString(),
			WorkflowID:       wf.ID,
			RequestID:        wf.RequestID,
			ApproverID:       approverID,
			StepOrder:        wf.CurrentStepOrder,
			StepRole:         step.Role,
			Status:           models.ApprovalRejected,
			RejectionReason:  reason,
			DigitalSignature: signature,
			Location:         location,
			CreatedAt:        e.now(),
		}
		if err := e.ledger.Append(ctx, approval); err != nil {
			return err
		}
		if err := e.workflows.Complete(ctx, wf.ID, wf.CurrentStepOrder); err != nil {
			return err
		}
		if err := e.requests.ClearCurrentStep(ctx, wf.RequestID); err != nil {
			return err
		}
		return e.requests.SetStatus(ctx, wf.RequestID, models.RequestRejected)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("step rejected",
		zap.String("workflow_id", workflowID),
		zap.String("approver_id", approverID),
		zap.Int("step_order", approval.StepOrder))

	if e.notifier != nil {
		e.notifier.Resolved(ctx, approval.RequestID, models.RequestRejected)
	}
	return approval, nil
}

// loadActingStep loads the workflow and resolves the step the approver
// is acting on, checking the shared approve/reject preconditions in
// order: workflow exists, not complete, approver exists, same company,
// step defined, role matches.
func (e *Engine) loadActingStep(ctx context.Context, workflowID, approverID string) (*models.Workflow, *models.WorkflowStep, error) {
	wf, err := e.workflows.GetByID(ctx, workflowID)
	if err != nil {
		return nil, nil, err
	}
	if wf == nil {
		return nil, nil, ErrWorkflowNotFound
	}
	if wf.IsComplete {
		return nil, nil, ErrWorkflowComplete
	}

	approver, err := e.users.GetByID(ctx, approverID)
	if err != nil {
		return nil, nil, err
	}
	if approver == nil {
		return nil, nil, ErrApproverNotFound
	}
	if approver.CompanyID != wf.CompanyID {
		return nil, nil, ErrCrossTenantApprover
	}

	cfg := e.configs.Get(wf.CompanyID)
	step := cfg.StepAt(wf.CurrentStepOrder)
	if step == nil {
		return nil, nil, fmt.Errorf("%w: order %d is not defined for company %s", ErrInvalidStep, wf.CurrentStepOrder, wf.CompanyID)
	}
	if approver.Role != step.Role {
		return nil, nil, &RoleMismatchError{Required: step.Role, Actual: approver.Role}
	}
	return wf, step, nil
}

// CurrentApprover returns the role and order of the step the workflow is
// waiting on, or nil when the workflow is complete.
func (e *Engine) CurrentApprover(ctx context.Context, workflowID string) (*StepRef, error) {
	wf, err := e.workflows.GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if wf == nil {
		return nil, ErrWorkflowNotFound
	}
	if wf.IsComplete {
		return nil, nil
	}

	step := e.configs.Get(wf.CompanyID).StepAt(wf.CurrentStepOrder)
	if step == nil {
		return nil, fmt.Errorf("%w: order %d is not defined for company %s", ErrInvalidStep, wf.CurrentStepOrder, wf.CompanyID)
	}
	return &StepRef{Role: step.Role, StepOrder: step.Order}, nil
}

// IsComplete reports whether the workflow has terminated.
func (e *Engine) IsComplete(ctx context.Context, workflowID string) (bool, error) {
	wf, err := e.workflows.GetByID(ctx, workflowID)
	if err != nil {
		return false, err
	}
	if wf == nil {
		return false, ErrWorkflowNotFound
	}
	return wf.IsComplete, nil
}

// ApprovalHistory returns the request's ledger entries ordered by step
// order ascending. Step order is the single source of truth for
// sequencing; timestamps are never consulted.
func (e *Engine) ApprovalHistory(ctx context.Context, requestID string) ([]*models.ApprovalWithApprover, error) {
	return e.ledger.ListByRequestID(ctx, requestID)
}

// Config returns the company's approval chain.
func (e *Engine) Config(companyID string) *models.WorkflowConfig {
	return e.configs.Get(companyID)
}
