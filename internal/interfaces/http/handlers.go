package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/0xfishbone/approval-flow/internal/models"
	"github.com/0xfishbone/approval-flow/internal/rbac"
	"github.com/0xfishbone/approval-flow/internal/workflow"
)

// Handlers contains all HTTP request handlers.
type Handlers struct {
	service  WorkflowService
	users    UserDirectory
	requests RequestStore
	tx       workflow.TxManager
	logger   *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service WorkflowService, users UserDirectory, requests RequestStore, tx workflow.TxManager, logger *zap.Logger) *Handlers {
	return &Handlers{
		service:  service,
		users:    users,
		requests: requests,
		tx:       tx,
		logger:   logger,
	}
}

// Response is the standard JSON envelope.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, Response{Success: false, Error: msg})
}

// respondError translates engine errors into status codes. Every
// business-rule failure keeps its message: the UI needs to know which
// precondition failed.
func (h *Handlers) respondError(c *gin.Context, err error) {
	var roleMismatch *workflow.RoleMismatchError
	var unsupportedCreator *workflow.UnsupportedCreatorRoleError

	switch {
	case errors.Is(err, workflow.ErrWorkflowNotFound),
		errors.Is(err, workflow.ErrApproverNotFound):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, workflow.ErrWorkflowComplete),
		errors.Is(err, workflow.ErrConcurrentUpdate):
		fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, workflow.ErrCrossTenantApprover),
		errors.As(err, &roleMismatch):
		fail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, workflow.ErrMissingAdditionalInfo),
		errors.Is(err, workflow.ErrInvalidRejectionReason),
		errors.As(err, &unsupportedCreator):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, workflow.ErrInvalidStep):
		// Configuration or data corruption: alert-worthy, never user-caused.
		h.logger.Error("workflow step corruption", zap.Error(err))
		fail(c, http.StatusInternalServerError, "workflow configuration error")
	default:
		h.logger.Error("unhandled error", zap.Error(err))
		fail(c, http.StatusInternalServerError, "internal error")
	}
}

// HealthCheck handles GET /health.
func (h *Handlers) HealthCheck(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// CreateRequestBody is the payload for POST /api/requests.
type CreateRequestBody struct {
	CreatorID    string `json:"creator_id" binding:"required"`
	DepartmentID string `json:"department_id"`
	Notes        string `json:"notes"`
}

// CreateRequest handles POST /api/requests: it creates the request row
// and its workflow in one transaction.
func (h *Handlers) CreateRequest(c *gin.Context) {
	var body CreateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	creator, err := h.users.GetByID(ctx, body.CreatorID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if creator == nil {
		fail(c, http.StatusNotFound, "creator not found")
		return
	}
	if !rbac.CanPerform(creator.Role, rbac.ActionCreateRequest) {
		fail(c, http.StatusForbidden, "role "+creator.Role.String()+" may not create requests")
		return
	}

	now := time.Now()
	req := &models.Request{
		ID:            uuid.NewString(),
		RequestNumber: "REQ-" + strings.ToUpper(uuid.NewString()[:8]),
		CreatorID:     creator.ID,
		DepartmentID:  body.DepartmentID,
		CompanyID:     creator.CompanyID,
		Status:        models.RequestPending,
		Notes:         body.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var wf *models.Workflow
	err = h.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := h.requests.Create(ctx, req); err != nil {
			return err
		}
		wf, err = h.service.CreateWorkflow(ctx, req.ID, req.CompanyID, creator.Role)
		return err
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	ok(c, http.StatusCreated, gin.H{"request": req, "workflow": wf})
}

// GetWorkflow handles GET /api/requests/:id/workflow.
func (h *Handlers) GetWorkflow(c *gin.Context) {
	wf, err := h.service.GetWorkflowByRequestID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, wf)
}

// GetWorkflowState handles GET /api/workflows/:id.
func (h *Handlers) GetWorkflowState(c *gin.Context) {
	complete, err := h.service.IsComplete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"id": c.Param("id"), "is_complete": complete})
}

// GetCurrentApprover handles GET /api/workflows/:id/current-approver.
// Returns null data when the workflow is complete.
func (h *Handlers) GetCurrentApprover(c *gin.Context) {
	ref, err := h.service.CurrentApprover(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, ref)
}

// ApproveBody is the payload for POST /api/workflows/:id/approve.
type ApproveBody struct {
	ApproverID       string              `json:"approver_id" binding:"required"`
	DigitalSignature string              `json:"digital_signature" binding:"required"`
	AdditionalData   models.ApprovalData `json:"additional_data"`
	Location         string              `json:"location"`
}

// ApproveStep handles POST /api/workflows/:id/approve.
func (h *Handlers) ApproveStep(c *gin.Context) {
	var body ApproveBody
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	if !h.checkActionPermission(c, body.ApproverID, rbac.ActionApproveRequest) {
		return
	}

	approval, err := h.service.ApproveStep(ctx, c.Param("id"), body.ApproverID,
		body.DigitalSignature, body.AdditionalData, body.Location)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, approval)
}

// RejectBody is the payload for POST /api/workflows/:id/reject.
type RejectBody struct {
	ApproverID       string `json:"approver_id" binding:"required"`
	DigitalSignature string `json:"digital_signature" binding:"required"`
	RejectionReason  string `json:"rejection_reason" binding:"required"`
	Location         string `json:"location"`
}

// RejectStep handles POST /api/workflows/:id/reject.
func (h *Handlers) RejectStep(c *gin.Context) {
	var body RejectBody
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	if !h.checkActionPermission(c, body.ApproverID, rbac.ActionRejectRequest) {
		return
	}

	approval, err := h.service.RejectStep(ctx, c.Param("id"), body.ApproverID,
		body.DigitalSignature, body.RejectionReason, body.Location)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, approval)
}

// checkActionPermission verifies the acting user holds the capability in
// the static permission table. Turn-taking is the engine's concern; this
// only filters roles that can never act (e.g. STAFF approving).
func (h *Handlers) checkActionPermission(c *gin.Context, userID string, action rbac.Action) bool {
	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return false
	}
	if user == nil {
		// Let the engine produce its ApproverNotFound error path via the
		// normal flow for consistency.
		return true
	}
	if !rbac.CanPerform(user.Role, action) {
		fail(c, http.StatusForbidden, "role "+user.Role.String()+" may not perform "+string(action))
		return false
	}
	return true
}

// GetApprovalHistory handles GET /api/requests/:id/history.
func (h *Handlers) GetApprovalHistory(c *gin.Context) {
	history, err := h.service.ApprovalHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if history == nil {
		history = []*models.ApprovalWithApprover{}
	}
	ok(c, http.StatusOK, history)
}

// ListUsers handles GET /api/users?company_id=... It returns the
// company's active users so clients can present approver candidates.
func (h *Handlers) ListUsers(c *gin.Context) {
	companyID := c.Query("company_id")
	if companyID == "" {
		fail(c, http.StatusBadRequest, "company_id is required")
		return
	}
	users, err := h.users.GetByCompany(c.Request.Context(), companyID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	ok(c, http.StatusOK, users)
}

// GetWorkflowConfig handles GET /api/config?company_id=...
func (h *Handlers) GetWorkflowConfig(c *gin.Context) {
	companyID := c.Query("company_id")
	if companyID == "" {
		fail(c, http.StatusBadRequest, "company_id is required")
		return
	}
	ok(c, http.StatusOK, h.service.Config(companyID))
}
