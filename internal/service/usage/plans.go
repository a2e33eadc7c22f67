package usage

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrganizationPlans reads the plan name assigned to an organization
type OrganizationPlans interface {
	GetPlan(ctx context.Context, orgID uuid.UUID) (string, error)
}

// StaticPlanLookup resolves allowances from a configured plan table
type StaticPlanLookup struct {
	orgs          OrganizationPlans
	minutesByPlan map[string]int
	defaultPlan   string
	logger        *zap.Logger
}

// NewStaticPlanLookup creates a lookup. Plan names are matched case-insensitively.
func NewStaticPlanLookup(orgs OrganizationPlans, minutesByPlan map[string]int, defaultPlan string, logger *zap.Logger) *StaticPlanLookup {
	table := make(map[string]int, len(minutesByPlan))
	for name, minutes := range minutesByPlan {
		table[strings.ToLower(name)] = minutes
	}
	return &StaticPlanLookup{
		orgs:          orgs,
		minutesByPlan: table,
		defaultPlan:   strings.ToLower(defaultPlan),
		logger:        logger,
	}
}

// GetMonthlyAllowanceMinutes returns the allowance of the organization's plan.
// Unknown plans use the default plan; a missing default allows nothing.
func (s *StaticPlanLookup) GetMonthlyAllowanceMinutes(ctx context.Context, orgID uuid.UUID) (int, error) {
	plan, err := s.orgs.GetPlan(ctx, orgID)
	if err != nil {
		return 0, err
	}

	if minutes, ok := s.minutesByPlan[strings.ToLower(plan)]; ok {
		return minutes, nil
	}

	s.logger.Warn("Unknown plan, using default allowance",
		zap.String("org_id", orgID.String()),
		zap.String("plan", plan),
		zap.String("default_plan", s.defaultPlan))
	return s.minutesByPlan[s.defaultPlan], nil
}
