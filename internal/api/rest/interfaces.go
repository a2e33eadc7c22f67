package rest

import (
	"context"

	"github.com/google/uuid"

	campaignpkg "github.com/davidleathers/campaign-dialer/internal/domain/campaign"
	"github.com/davidleathers/campaign-dialer/internal/domain/consent"
	"github.com/davidleathers/campaign-dialer/internal/domain/dnc"
	"github.com/davidleathers/campaign-dialer/internal/service/compliance"
)

// CampaignController starts and steers campaign runs
type CampaignController interface {
	Launch(ctx context.Context, campaignID, orgID uuid.UUID) error
	Pause(ctx context.Context, campaignID uuid.UUID) error
	Resume(ctx context.Context, campaignID uuid.UUID) error
	Stop(ctx context.Context, campaignID uuid.UUID) error
	GetState(ctx context.Context, campaignID uuid.UUID) (campaignpkg.RunState, bool)
}

// CampaignReader loads campaigns for ownership checks
type CampaignReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*campaignpkg.Campaign, error)
}

// ComplianceService manages DNC lists, consent and opt-outs
type ComplianceService interface {
	CheckDNC(ctx context.Context, phone string, orgID uuid.UUID) (dnc.CheckResult, error)
	AddToDNC(ctx context.Context, req compliance.AddDNCRequest) (*dnc.Entry, error)
	RemoveFromDNC(ctx context.Context, phone string, orgID uuid.UUID) error
	ScrubContacts(ctx context.Context, phones []string, orgID uuid.UUID) (*compliance.ScrubResult, error)
	CheckConsent(ctx context.Context, phone string, orgID uuid.UUID) (compliance.ConsentResult, error)
	RecordConsent(ctx context.Context, req compliance.RecordConsentRequest) (*consent.Consent, error)
	RevokeConsent(ctx context.Context, phone string, orgID uuid.UUID) (int64, error)
	HandleOptOutRequest(ctx context.Context, req compliance.OptOutRequest) (*compliance.OptOutResult, error)
}

// HealthChecker checks the health of a dependency
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}
