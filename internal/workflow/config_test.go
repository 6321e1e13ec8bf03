package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xfishbone/approval-flow/internal/models"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("acme")

	require.Len(t, cfg.Steps, 4)
	assert.Equal(t, "acme", cfg.CompanyID)

	wantRoles := []models.Role{models.RoleManager, models.RoleControleur, models.RoleDirection, models.RoleEconome}
	for i, step := range cfg.Steps {
		assert.Equal(t, i+1, step.Order)
		assert.Equal(t, wantRoles[i], step.Role)
	}

	// Only the Contrôleur step demands structured data.
	assert.False(t, cfg.Steps[0].RequiresAdditionalInfo)
	assert.True(t, cfg.Steps[1].RequiresAdditionalInfo)
	assert.False(t, cfg.Steps[2].RequiresAdditionalInfo)
	assert.False(t, cfg.Steps[3].RequiresAdditionalInfo)
}

func TestConfigLookups(t *testing.T) {
	cfg := DefaultConfig("acme")

	step := cfg.StepAt(2)
	require.NotNil(t, step)
	assert.Equal(t, models.RoleControleur, step.Role)
	assert.Nil(t, cfg.StepAt(5))
	assert.Nil(t, cfg.StepAt(0))

	step = cfg.StepForRole(models.RoleEconome)
	require.NotNil(t, step)
	assert.Equal(t, 4, step.Order)
	assert.Nil(t, cfg.StepForRole(models.RoleStaff))
}

func TestValidateSteps(t *testing.T) {
	tests := []struct {
		name    string
		steps   []models.WorkflowStep
		wantErr string
	}{
		{
			name:    "empty chain",
			steps:   nil,
			wantErr: "at least one step",
		},
		{
			name: "valid short chain",
			steps: []models.WorkflowStep{
				{Order: 1, Role: models.RoleManager},
				{Order: 2, Role: models.RoleDirection},
			},
		},
		{
			name: "duplicate order",
			steps: []models.WorkflowStep{
				{Order: 1, Role: models.RoleManager},
				{Order: 1, Role: models.RoleDirection},
			},
			wantErr: "duplicate step order",
		},
		{
			name: "duplicate role",
			steps: []models.WorkflowStep{
				{Order: 1, Role: models.RoleManager},
				{Order: 2, Role: models.RoleManager},
			},
			wantErr: "appears more than once",
		},
		{
			name: "gap in orders",
			steps: []models.WorkflowStep{
				{Order: 1, Role: models.RoleManager},
				{Order: 3, Role: models.RoleDirection},
			},
			wantErr: "contiguous",
		},
		{
			name: "unknown role",
			steps: []models.WorkflowStep{
				{Order: 1, Role: models.Role("INTERN")},
			},
			wantErr: "unknown role",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSteps(tt.steps)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigProviderOverride(t *testing.T) {
	p := NewConfigProvider()

	custom := []models.WorkflowStep{
		{Order: 1, Role: models.RoleDirection, Label: "Direct Authorization"},
	}
	require.NoError(t, p.Override("small-co", custom))

	got := p.Get("small-co")
	require.Len(t, got.Steps, 1)
	assert.Equal(t, models.RoleDirection, got.Steps[0].Role)

	// Companies without an override fall back to the default chain.
	assert.Len(t, p.Get("other-co").Steps, 4)

	err := p.Override("bad-co", []models.WorkflowStep{{Order: 2, Role: models.RoleManager}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad-co")
}
