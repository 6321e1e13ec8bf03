package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/0xfishbone/approval-flow/internal/models"
	"github.com/0xfishbone/approval-flow/pkg/database"
)

// RequestRepository handles purchase request rows. The workflow engine
// only touches Status and CurrentStep; Create is API-layer glue.
type RequestRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository.
func NewRequestRepository(db *database.DB, logger *zap.Logger) *RequestRepository {
	return &RequestRepository{db: db, logger: logger}
}

// Create inserts a new request.
func (r *RequestRepository) Create(ctx context.Context, req *models.Request) error {
	query := `
		INSERT INTO requests (id, request_number, creator_id, department_id, company_id, status, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(ctx).ExecContext(ctx, query,
		req.ID, req.RequestNumber, req.CreatorID, nullable(req.DepartmentID),
		req.CompanyID, req.Status, req.Notes, req.CreatedAt, req.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to create request", zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}
	return nil
}

// GetByID retrieves a request by ID. Returns nil when no request exists.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*models.Request, error) {
	query := `
		SELECT id, request_number, creator_id, department_id, company_id, status, current_step, notes, created_at, updated_at
		FROM requests WHERE id = ?
	`

	var req models.Request
	var departmentID, currentStep sql.NullString
	err := r.db.Exec(ctx).QueryRowContext(ctx, query, id).Scan(
		&req.ID, &req.RequestNumber, &req.CreatorID, &departmentID,
		&req.CompanyID, &req.Status, &currentStep, &req.Notes,
		&req.CreatedAt, &req.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to get request", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	req.DepartmentID = departmentID.String
	req.CurrentStep = models.Role(currentStep.String)
	return &req, nil
}

// SetStatus writes the projected request status.
func (r *RequestRepository) SetStatus(ctx context.Context, id string, status models.RequestStatus) error {
	query := `UPDATE requests SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := r.db.Exec(ctx).ExecContext(ctx, query, status, id); err != nil {
		r.logger.Error("failed to set request status", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to set request status: %w", err)
	}
	return nil
}

// SetCurrentStep writes the role the request is displayed as waiting on.
func (r *RequestRepository) SetCurrentStep(ctx context.Context, id string, step models.Role) error {
	query := `UPDATE requests SET current_step = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := r.db.Exec(ctx).ExecContext(ctx, query, step, id); err != nil {
		r.logger.Error("failed to set request step", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to set request step: %w", err)
	}
	return nil
}

// ClearCurrentStep clears the displayed step once the chain terminates.
func (r *RequestRepository) ClearCurrentStep(ctx context.Context, id string) error {
	query := `UPDATE requests SET current_step = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := r.db.Exec(ctx).ExecContext(ctx, query, id); err != nil {
		r.logger.Error("failed to clear request step", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to clear request step: %w", err)
	}
	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
