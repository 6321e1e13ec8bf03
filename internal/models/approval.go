package models

import (
	"encoding/json"
	"time"
)

// ApprovalStatus is the decision recorded for one workflow step.
type ApprovalStatus string

const (
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// ApprovalData carries step-specific structured data supplied by the
// approver (e.g. the Contrôleur's daily cost). Free-form apart from the
// keys individual steps require.
type ApprovalData map[string]interface{}

// DailyCost extracts the dailyCost key as a float64. The second return
// value is false when the key is absent or not numeric.
func (d ApprovalData) DailyCost() (float64, bool) {
	v, ok := d["dailyCost"]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Approval is one ledger entry: the decision taken at a single workflow
// step. Entries are append-only and never rewritten; at most one exists
// per (workflow, step order).
type Approval struct {
	ID               string         `json:"id"`
	WorkflowID       string         `json:"workflow_id"`
	RequestID        string         `json:"request_id"`
	ApproverID       string         `json:"approver_id"`
	StepOrder        int            `json:"step_order"`
	StepRole         Role           `json:"step_role"`
	Status           ApprovalStatus `json:"status"`
	RejectionReason  string         `json:"rejection_reason,omitempty"`
	AdditionalData   ApprovalData   `json:"additional_data,omitempty"`
	DigitalSignature string         `json:"digital_signature"`
	Location         string         `json:"location,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

// ApprovalWithApprover joins approver identity onto a ledger entry for
// history views.
type ApprovalWithApprover struct {
	Approval
	ApproverFirstName string `json:"approver_first_name,omitempty"`
	ApproverLastName  string `json:"approver_last_name,omitempty"`
	ApproverEmail     string `json:"approver_email,omitempty"`
	ApproverRole      Role   `json:"approver_role,omitempty"`
}
