package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/0xfishbone/approval-flow/internal/models"
	"github.com/0xfishbone/approval-flow/internal/workflow"
	"github.com/0xfishbone/approval-flow/pkg/database"
)

// WorkflowRepository persists workflow records. Advancement and
// completion are compare-and-swap updates keyed on the expected current
// step, so concurrent transitions on the same workflow serialize: the
// loser matches zero rows and gets workflow.ErrConcurrentUpdate.
type WorkflowRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *database.DB, logger *zap.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

// Create inserts a new workflow.
func (r *WorkflowRepository) Create(ctx context.Context, wf *models.Workflow) error {
	query := `
		INSERT INTO workflows (id, request_id, company_id, current_step_order, is_complete, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(ctx).ExecContext(ctx, query,
		wf.ID, wf.RequestID, wf.CompanyID, wf.CurrentStepOrder, wf.IsComplete,
		wf.CreatedAt, wf.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to create workflow", zap.Error(err))
		return fmt.Errorf("failed to create workflow: %w", err)
	}
	return nil
}

// GetByID retrieves a workflow by ID. Returns nil when none exists.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	return r.get(ctx, `WHERE id = ?`, id)
}

// GetByRequestID retrieves the workflow owning a request.
func (r *WorkflowRepository) GetByRequestID(ctx context.Context, requestID string) (*models.Workflow, error) {
	return r.get(ctx, `WHERE request_id = ?`, requestID)
}

func (r *WorkflowRepository) get(ctx context.Context, where string, arg string) (*models.Workflow, error) {
	query := `
		SELECT id, request_id, company_id, current_step_order, is_complete, created_at, updated_at
		FROM workflows ` + where

	var wf models.Workflow
	err := r.db.Exec(ctx).QueryRowContext(ctx, query, arg).Scan(
		&wf.ID, &wf.RequestID, &wf.CompanyID, &wf.CurrentStepOrder,
		&wf.IsComplete, &wf.CreatedAt, &wf.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to get workflow", zap.String("key", arg), zap.Error(err))
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}
	return &wf, nil
}

// AdvanceStep moves the workflow to the next step, guarded on the step
// it was read at.
func (r *WorkflowRepository) AdvanceStep(ctx context.Context, id string, fromOrder, toOrder int) error {
	query := `
		UPDATE workflows SET current_step_order = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND current_step_order = ? AND is_complete = 0
	`
	return r.guardedUpdate(ctx, query, toOrder, id, fromOrder)
}

// Complete freezes the workflow at its last acted-upon step.
func (r *WorkflowRepository) Complete(ctx context.Context, id string, fromOrder int) error {
	query := `
		UPDATE workflows SET is_complete = 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND current_step_order = ? AND is_complete = 0
	`
	return r.guardedUpdate(ctx, query, id, fromOrder)
}

func (r *WorkflowRepository) guardedUpdate(ctx context.Context, query string, args ...interface{}) error {
	res, err := r.db.Exec(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to update workflow", zap.Error(err))
		return fmt.Errorf("failed to update workflow: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return workflow.ErrConcurrentUpdate
	}
	return nil
}
