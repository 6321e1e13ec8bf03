package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/0xfishbone/approval-flow/internal/models"
	"github.com/0xfishbone/approval-flow/internal/workflow"
)

// Stubs with func fields, overridden per test.

type stubService struct {
	createWorkflowFunc  func(ctx context.Context, requestID, companyID string, creatorRole models.Role) (*models.Workflow, error)
	approveStepFunc     func(ctx context.Context, workflowID, approverID, signature string, data models.ApprovalData, location string) (*models.Approval, error)
	rejectStepFunc      func(ctx context.Context, workflowID, approverID, signature, reason, location string) (*models.Approval, error)
	currentApproverFunc func(ctx context.Context, workflowID string) (*workflow.StepRef, error)
	historyFunc         func(ctx context.Context, requestID string) ([]*models.ApprovalWithApprover, error)
}

func (s *stubService) CreateWorkflow(ctx context.Context, requestID, companyID string, creatorRole models.Role) (*models.Workflow, error) {
	return s.createWorkflowFunc(ctx, requestID, companyID, creatorRole)
}

func (s *stubService) GetWorkflowByRequestID(_ context.Context, requestID string) (*models.Workflow, error) {
	if requestID == "req-1" {
		return &models.Workflow{ID: "wf-1", RequestID: "req-1"}, nil
	}
	return nil, workflow.ErrWorkflowNotFound
}

func (s *stubService) ApproveStep(ctx context.Context, workflowID, approverID, signature string, data models.ApprovalData, location string) (*models.Approval, error) {
	return s.approveStepFunc(ctx, workflowID, approverID, signature, data, location)
}

func (s *stubService) RejectStep(ctx context.Context, workflowID, approverID, signature, reason, location string) (*models.Approval, error) {
	return s.rejectStepFunc(ctx, workflowID, approverID, signature, reason, location)
}

func (s *stubService) CurrentApprover(ctx context.Context, workflowID string) (*workflow.StepRef, error) {
	return s.currentApproverFunc(ctx, workflowID)
}

func (s *stubService) IsComplete(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func (s *stubService) ApprovalHistory(ctx context.Context, requestID string) ([]*models.ApprovalWithApprover, error) {
	return s.historyFunc(ctx, requestID)
}

func (s *stubService) Config(companyID string) *models.WorkflowConfig {
	return workflow.DefaultConfig(companyID)
}

type stubUsers struct {
	users map[string]*models.User
}

func (s *stubUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	return s.users[id], nil
}

func (s *stubUsers) GetByCompany(_ context.Context, companyID string) ([]*models.User, error) {
	var out []*models.User
	for _, u := range s.users {
		if u.CompanyID == companyID {
			out = append(out, u)
		}
	}
	return out, nil
}

type stubRequests struct {
	created []*models.Request
}

func (s *stubRequests) Create(_ context.Context, req *models.Request) error {
	s.created = append(s.created, req)
	return nil
}

func (s *stubRequests) GetByID(_ context.Context, _ string) (*models.Request, error) {
	return nil, nil
}

type jsonBody = map[string]interface{}

type stubTx struct{}

func (stubTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestServer(t *testing.T, service *stubService) (http.Handler, *stubRequests) {
	t.Helper()

	users := &stubUsers{users: map[string]*models.User{
		"u-staff":      {ID: "u-staff", Role: models.RoleStaff, CompanyID: "acme"},
		"u-manager":    {ID: "u-manager", Role: models.RoleManager, CompanyID: "acme"},
		"u-controleur": {ID: "u-controleur", Role: models.RoleControleur, CompanyID: "acme"},
	}}
	requests := &stubRequests{}

	handlers := NewHandlers(service, users, requests, stubTx{}, zap.NewNop())
	server := NewServer(ServerConfig{}, handlers, zap.NewNop())
	return server.Router(), requests
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestApproveStep_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		engineErr  error
		wantStatus int
	}{
		{"workflow not found", workflow.ErrWorkflowNotFound, http.StatusNotFound},
		{"approver not found", workflow.ErrApproverNotFound, http.StatusNotFound},
		{"already complete", workflow.ErrWorkflowComplete, http.StatusConflict},
		{"concurrent update", workflow.ErrConcurrentUpdate, http.StatusConflict},
		{"cross tenant", workflow.ErrCrossTenantApprover, http.StatusForbidden},
		{"role mismatch", &workflow.RoleMismatchError{Required: models.RoleManager, Actual: models.RoleControleur}, http.StatusForbidden},
		{"missing additional info", workflow.ErrMissingAdditionalInfo, http.StatusBadRequest},
		{"missing daily cost", workflow.ErrMissingDailyCost, http.StatusBadRequest},
		{"step corruption", workflow.ErrInvalidStep, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &stubService{
				approveStepFunc: func(_ context.Context, _, _, _ string, _ models.ApprovalData, _ string) (*models.Approval, error) {
					return nil, tt.engineErr
				},
			}
			router, _ := newTestServer(t, service)

			rec := doJSON(t, router, http.MethodPost, "/api/workflows/wf-1/approve", jsonBody{
				"approver_id":       "u-manager",
				"digital_signature": "sig",
			})

			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestApproveStep_Success(t *testing.T) {
	service := &stubService{
		approveStepFunc: func(_ context.Context, workflowID, approverID, signature string, data models.ApprovalData, _ string) (*models.Approval, error) {
			assert.Equal(t, "wf-1", workflowID)
			assert.Equal(t, "u-controleur", approverID)
			assert.Equal(t, "sig-ctl", signature)
			cost, ok := data.DailyCost()
			require.True(t, ok)
			assert.Equal(t, 150.0, cost)
			return &models.Approval{ID: "a-1", Status: models.ApprovalApproved}, nil
		},
	}
	router, _ := newTestServer(t, service)

	rec := doJSON(t, router, http.MethodPost, "/api/workflows/wf-1/approve", jsonBody{
		"approver_id":       "u-controleur",
		"digital_signature": "sig-ctl",
		"additional_data":   jsonBody{"dailyCost": 150.0},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestApproveStep_BindingValidation(t *testing.T) {
	service := &stubService{
		approveStepFunc: func(_ context.Context, _, _, _ string, _ models.ApprovalData, _ string) (*models.Approval, error) {
			t.Fatal("engine must not be reached on a binding failure")
			return nil, nil
		},
	}
	router, _ := newTestServer(t, service)

	// Missing digital_signature.
	rec := doJSON(t, router, http.MethodPost, "/api/workflows/wf-1/approve", jsonBody{
		"approver_id": "u-manager",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Missing approver_id.
	rec = doJSON(t, router, http.MethodPost, "/api/workflows/wf-1/approve", jsonBody{
		"digital_signature": "sig",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApproveStep_StaffForbidden(t *testing.T) {
	service := &stubService{
		approveStepFunc: func(_ context.Context, _, _, _ string, _ models.ApprovalData, _ string) (*models.Approval, error) {
			t.Fatal("engine must not be reached when the role lacks the capability")
			return nil, nil
		},
	}
	router, _ := newTestServer(t, service)

	rec := doJSON(t, router, http.MethodPost, "/api/workflows/wf-1/approve", jsonBody{
		"approver_id":       "u-staff",
		"digital_signature": "sig",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRejectStep(t *testing.T) {
	service := &stubService{
		rejectStepFunc: func(_ context.Context, _, _, _, reason, _ string) (*models.Approval, error) {
			if len(reason) < workflow.MinRejectionReasonLen {
				return nil, workflow.ErrInvalidRejectionReason
			}
			return &models.Approval{Status: models.ApprovalRejected, RejectionReason: reason}, nil
		},
	}
	router, _ := newTestServer(t, service)

	rec := doJSON(t, router, http.MethodPost, "/api/workflows/wf-1/reject", jsonBody{
		"approver_id":       "u-manager",
		"digital_signature": "sig",
		"rejection_reason":  "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/workflows/wf-1/reject", jsonBody{
		"approver_id":       "u-manager",
		"digital_signature": "sig",
		"rejection_reason":  "Budget exceeded for this quarter",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	// rejection_reason is required at the binding layer.
	rec = doJSON(t, router, http.MethodPost, "/api/workflows/wf-1/reject", jsonBody{
		"approver_id":       "u-manager",
		"digital_signature": "sig",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRequest(t *testing.T) {
	service := &stubService{
		createWorkflowFunc: func(_ context.Context, requestID, companyID string, creatorRole models.Role) (*models.Workflow, error) {
			return &models.Workflow{ID: "wf-new", RequestID: requestID, CompanyID: companyID, CurrentStepOrder: 1}, nil
		},
	}
	router, requests := newTestServer(t, service)

	rec := doJSON(t, router, http.MethodPost, "/api/requests", jsonBody{
		"creator_id": "u-staff",
		"notes":      "travel advance",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, requests.created, 1)
	assert.Equal(t, "acme", requests.created[0].CompanyID)
	assert.Equal(t, models.RequestPending, requests.created[0].Status)
	assert.NotEmpty(t, requests.created[0].RequestNumber)

	// Unknown creator.
	rec = doJSON(t, router, http.MethodPost, "/api/requests", jsonBody{"creator_id": "nobody"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Contrôleur holds no CreateRequest capability.
	rec = doJSON(t, router, http.MethodPost, "/api/requests", jsonBody{"creator_id": "u-controleur"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetCurrentApprover_CompleteWorkflow(t *testing.T) {
	service := &stubService{
		currentApproverFunc: func(_ context.Context, _ string) (*workflow.StepRef, error) {
			return nil, nil
		},
	}
	router, _ := newTestServer(t, service)

	rec := doJSON(t, router, http.MethodGet, "/api/workflows/wf-1/current-approver", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Data)
}

func TestGetApprovalHistory_Empty(t *testing.T) {
	service := &stubService{
		historyFunc: func(_ context.Context, _ string) ([]*models.ApprovalWithApprover, error) {
			return nil, nil
		},
	}
	router, _ := newTestServer(t, service)

	rec := doJSON(t, router, http.MethodGet, "/api/requests/req-1/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestGetWorkflowConfig(t *testing.T) {
	router, _ := newTestServer(t, &stubService{})

	rec := doJSON(t, router, http.MethodGet, "/api/config", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/config?company_id=acme", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "MANAGER")
	assert.Contains(t, rec.Body.String(), "ECONOME")
}

func TestListUsers(t *testing.T) {
	router, _ := newTestServer(t, &stubService{})

	rec := doJSON(t, router, http.MethodGet, "/api/users", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/users?company_id=acme", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "u-manager")

	rec = doJSON(t, router, http.MethodGet, "/api/users?company_id=ghost", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestHealthCheck(t *testing.T) {
	router, _ := newTestServer(t, &stubService{})

	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}
