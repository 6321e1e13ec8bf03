package models

import "time"

// Workflow tracks the position of one request in its approval chain.
// Exactly one workflow exists per request. Once IsComplete is true the
// record is frozen; it is never deleted.
type Workflow struct {
	ID               string    `json:"id"`
	RequestID        string    `json:"request_id"`
	CompanyID        string    `json:"company_id"`
	CurrentStepOrder int       `json:"current_step_order"`
	IsComplete       bool      `json:"is_complete"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// WorkflowStep is one entry of a company's ordered approval chain.
type WorkflowStep struct {
	Order                  int    `json:"order"`
	Role                   Role   `json:"role"`
	Label                  string `json:"label"`
	RequiresAdditionalInfo bool   `json:"requires_additional_info"`
}

// WorkflowConfig is the ordered approval chain for one company.
// Invariant: step orders are contiguous starting at 1 and each role
// appears at most once.
type WorkflowConfig struct {
	CompanyID string         `json:"company_id"`
	Steps     []WorkflowStep `json:"steps"`
}

// StepAt returns the step with the given order, or nil if none is defined.
func (c *WorkflowConfig) StepAt(order int) *WorkflowStep {
	for i := range c.Steps {
		if c.Steps[i].Order == order {
			return &c.Steps[i]
		}
	}
	return nil
}

// StepForRole returns the step assigned to the given role, or nil.
func (c *WorkflowConfig) StepForRole(role Role) *WorkflowStep {
	for i := range c.Steps {
		if c.Steps[i].Role == role {
			return &c.Steps[i]
		}
	}
	return nil
}
