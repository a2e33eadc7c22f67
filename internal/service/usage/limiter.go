// Package usage enforces monthly calling-minute allowances per organization.
package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/davidleathers/campaign-dialer/internal/domain/errors"
	"github.com/davidleathers/campaign-dialer/internal/domain/values"
)

// Unlimited is the allowance of plans without a minute cap
const Unlimited = -1

var secondsPerMinute = decimal.NewFromInt(60)

// DurationSummer totals call seconds for an organization
type DurationSummer interface {
	SumDurationSince(ctx context.Context, orgID uuid.UUID, since time.Time) (int64, error)
}

// PlanLookup returns the monthly minute allowance of an organization
type PlanLookup interface {
	GetMonthlyAllowanceMinutes(ctx context.Context, orgID uuid.UUID) (int, error)
}

// Result is the outcome of a usage check
type Result struct {
	CanCall        bool   `json:"can_call"`
	Reason         string `json:"reason,omitempty"`
	UsedMinutes    int64  `json:"used_minutes"`
	AllowedMinutes int    `json:"allowed_minutes"`
}

// Limiter compares month-to-date usage with the plan allowance
type Limiter struct {
	calls  DurationSummer
	plans  PlanLookup
	clock  values.Clock
	logger *zap.Logger
}

// NewLimiter creates a usage limiter
func NewLimiter(calls DurationSummer, plans PlanLookup, clock values.Clock, logger *zap.Logger) *Limiter {
	if clock == nil {
		clock = values.RealClock{}
	}
	return &Limiter{calls: calls, plans: plans, clock: clock, logger: logger}
}

// CheckUsageLimits reports whether the organization may place another call.
// Usage is counted from the start of the current UTC calendar month.
func (l *Limiter) CheckUsageLimits(ctx context.Context, orgID uuid.UUID) (Result, error) {
	allowed, err := l.plans.GetMonthlyAllowanceMinutes(ctx, orgID)
	if err != nil {
		return Result{}, errors.NewInternalError("failed to load plan allowance").WithCause(err)
	}
	if allowed == Unlimited {
		return Result{CanCall: true, AllowedMinutes: Unlimited}, nil
	}

	seconds, err := l.calls.SumDurationSince(ctx, orgID, MonthStart(l.clock.Now()))
	if err != nil {
		return Result{}, errors.NewInternalError("failed to sum call usage").WithCause(err)
	}

	used := SecondsToMinutes(seconds)
	res := Result{CanCall: used < int64(allowed), UsedMinutes: used, AllowedMinutes: allowed}
	if !res.CanCall {
		res.Reason = fmt.Sprintf("monthly minute allowance exhausted (%d of %d minutes used)", used, allowed)
		l.logger.Info("Usage limit reached",
			zap.String("org_id", orgID.String()),
			zap.Int64("used_minutes", used),
			zap.Int("allowed_minutes", allowed))
	}
	return res, nil
}

// SecondsToMinutes rounds up to whole billable minutes
func SecondsToMinutes(seconds int64) int64 {
	if seconds <= 0 {
		return 0
	}
	return decimal.NewFromInt(seconds).Div(secondsPerMinute).Ceil().IntPart()
}

// MonthStart returns midnight UTC on the first day of t's month
func MonthStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}
