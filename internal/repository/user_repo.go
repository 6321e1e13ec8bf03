// Package repository implements the engine's persistence ports on
// SQLite. All methods honour a transaction carried on the context.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/0xfishbone/approval-flow/internal/models"
	"github.com/0xfishbone/approval-flow/pkg/database"
)

// UserRepository handles user lookups for the workflow engine and the
// API layer.
type UserRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *database.DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

const userColumns = `id, email, first_name, last_name, role, department_id, company_id, is_active, created_at, updated_at`

// GetByID retrieves a user by ID. Returns nil when no user exists.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	user, err := r.scanUser(r.db.Exec(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		r.logger.Error("failed to get user", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByCompany returns the active users of a company, used by callers to
// resolve notification recipients by role.
func (r *UserRepository) GetByCompany(ctx context.Context, companyID string) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE company_id = ? AND is_active = 1 ORDER BY first_name`

	rows, err := r.db.Exec(ctx).QueryContext(ctx, query, companyID)
	if err != nil {
		r.logger.Error("failed to list users", zap.String("company_id", companyID), zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var u models.User
		var departmentID sql.NullString
		if err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role,
			&departmentID, &u.CompanyID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.DepartmentID = departmentID.String
		users = append(users, &u)
	}
	return users, rows.Err()
}

func (r *UserRepository) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var departmentID sql.NullString

	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role,
		&departmentID, &u.CompanyID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.DepartmentID = departmentID.String
	return &u, nil
}
