package workflow

import (
	"fmt"

	"github.com/0xfishbone/approval-flow/internal/models"
)

// ConfigProvider supplies the ordered approval chain per company. Every
// company uses the default four-step chain unless an override was
// registered at construction.
type ConfigProvider struct {
	overrides map[string][]models.WorkflowStep
}

// NewConfigProvider creates a provider serving the default chain.
func NewConfigProvider() *ConfigProvider {
	return &ConfigProvider{overrides: make(map[string][]models.WorkflowStep)}
}

// Override registers a custom chain for one company. The chain is
// validated; an invalid chain is rejected rather than served.
func (p *ConfigProvider) Override(companyID string, steps []models.WorkflowStep) error {
	if err := ValidateSteps(steps); err != nil {
		return fmt.Errorf("invalid workflow config for company %s: %w", companyID, err)
	}
	p.overrides[companyID] = steps
	return nil
}

// Get returns the company's approval chain. Always succeeds: companies
// without an override get the default chain.
func (p *ConfigProvider) Get(companyID string) *models.WorkflowConfig {
	if steps, ok := p.overrides[companyID]; ok {
		return &models.WorkflowConfig{CompanyID: companyID, Steps: steps}
	}
	return DefaultConfig(companyID)
}

// DefaultConfig returns the standard chain:
// Manager → Contrôleur → Direction → Économe.
func DefaultConfig(companyID string) *models.WorkflowConfig {
	return &models.WorkflowConfig{
		CompanyID: companyID,
		Steps: []models.WorkflowStep{
			{Order: 1, Role: models.RoleManager, Label: "Manager Approval"},
			{Order: 2, Role: models.RoleControleur, Label: "Contrôleur Review", RequiresAdditionalInfo: true},
			{Order: 3, Role: models.RoleDirection, Label: "Direction Authorization"},
			{Order: 4, Role: models.RoleEconome, Label: "Économe Release"},
		},
	}
}

// ValidateSteps checks the chain invariants: at least one step, orders
// contiguous starting at 1, each role valid and used at most once.
func ValidateSteps(steps []models.WorkflowStep) error {
	if len(steps) == 0 {
		return fmt.Errorf("chain must have at least one step")
	}

	byOrder := make(map[int]bool, len(steps))
	byRole := make(map[models.Role]bool, len(steps))
	for _, s := range steps {
		if !s.Role.IsValid() {
			return fmt.Errorf("unknown role %q at order %d", s.Role, s.Order)
		}
		if byOrder[s.Order] {
			return fmt.Errorf("duplicate step order %d", s.Order)
		}
		byOrder[s.Order] = true
		if byRole[s.Role] {
			return fmt.Errorf("role %s appears more than once", s.Role)
		}
		byRole[s.Role] = true
	}

	for order := 1; order <= len(steps); order++ {
		if !byOrder[order] {
			return fmt.Errorf("step orders must be contiguous from 1, missing order %d", order)
		}
	}
	return nil
}
