package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/0xfishbone/approval-flow/internal/models"
	"github.com/0xfishbone/approval-flow/internal/workflow"
	"github.com/0xfishbone/approval-flow/pkg/database"
)

// ApprovalRepository is the append-only approval ledger. The
// approvals(workflow_id, step_order) unique constraint backstops the
// one-decision-per-step invariant at the persistence boundary; a
// violation means a concurrent writer already decided the step.
type ApprovalRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewApprovalRepository creates a new approval repository.
func NewApprovalRepository(db *database.DB, logger *zap.Logger) *ApprovalRepository {
	return &ApprovalRepository{db: db, logger: logger}
}

// Append writes one ledger entry. Entries are never updated or deleted.
func (r *ApprovalRepository) Append(ctx context.Context, a *models.Approval) error {
	var additionalData interface{}
	if len(a.AdditionalData) > 0 {
		raw, err := json.Marshal(a.AdditionalData)
		if err != nil {
			return fmt.Errorf("failed to marshal additional data: %w", err)
		}
		additionalData = string(raw)
	}

	query := `
		INSERT INTO approvals (
			id, workflow_id, request_id, approver_id, step_order, step_role,
			status, rejection_reason, additional_data, digital_signature, location, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(ctx).ExecContext(ctx, query,
		a.ID, a.WorkflowID, a.RequestID, a.ApproverID, a.StepOrder, a.StepRole,
		a.Status, nullable(a.RejectionReason), additionalData,
		a.DigitalSignature, nullable(a.Location), a.CreatedAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return workflow.ErrConcurrentUpdate
		}
		r.logger.Error("failed to append approval", zap.Error(err))
		return fmt.Errorf("failed to append approval: %w", err)
	}
	return nil
}

// ListByRequestID returns the request's ledger entries with approver
// identity, ordered by step_order ascending regardless of insertion
// order.
func (r *ApprovalRepository) ListByRequestID(ctx context.Context, requestID string) ([]*models.ApprovalWithApprover, error) {
	query := `
		SELECT
			a.id, a.workflow_id, a.request_id, a.approver_id, a.step_order, a.step_role,
			a.status, a.rejection_reason, a.additional_data, a.digital_signature, a.location, a.created_at,
			u.first_name, u.last_name, u.email, u.role
		FROM approvals a
		LEFT JOIN users u ON a.approver_id = u.id
		WHERE a.request_id = ?
		ORDER BY a.step_order ASC
	`

	rows, err := r.db.Exec(ctx).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("failed to list approvals", zap.String("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to list approvals: %w", err)
	}
	defer rows.Close()

	var entries []*models.ApprovalWithApprover
	for rows.Next() {
		var e models.ApprovalWithApprover
		var rejectionReason, additionalData, location sql.NullString
		var firstName, lastName, email, role sql.NullString

		if err := rows.Scan(
			&e.ID, &e.WorkflowID, &e.RequestID, &e.ApproverID, &e.StepOrder, &e.StepRole,
			&e.Status, &rejectionReason, &additionalData, &e.DigitalSignature, &location, &e.CreatedAt,
			&firstName, &lastName, &email, &role,
		); err != nil {
			return nil, fmt.Errorf("failed to scan approval: %w", err)
		}

		e.RejectionReason = rejectionReason.String
		e.Location = location.String
		if additionalData.Valid {
			if err := json.Unmarshal([]byte(additionalData.String), &e.AdditionalData); err != nil {
				return nil, fmt.Errorf("failed to unmarshal additional data: %w", err)
			}
		}
		e.ApproverFirstName = firstName.String
		e.ApproverLastName = lastName.String
		e.ApproverEmail = email.String
		e.ApproverRole = models.Role(role.String)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
