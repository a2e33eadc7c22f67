// Package compliance decides whether a phone number may be dialed and
// maintains the DNC and consent records those decisions read.
package compliance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davidleathers/campaign-dialer/internal/domain/audit"
	"github.com/davidleathers/campaign-dialer/internal/domain/consent"
	"github.com/davidleathers/campaign-dialer/internal/domain/dnc"
	"github.com/davidleathers/campaign-dialer/internal/domain/errors"
	"github.com/davidleathers/campaign-dialer/internal/domain/values"
)

const auditTimeout = 5 * time.Second

// Gate runs DNC, consent and calling-hours checks and owns the DNC and
// consent mutations.
type Gate struct {
	dncRepo     dnc.Repository
	consentRepo consent.Repository
	contacts    ContactMarker
	cache       DNCCache
	sink        audit.Sink
	hours       *HoursPolicy
	clock       values.Clock
	logger      *zap.Logger
}

// NewGate creates a compliance gate. cache and sink may be nil.
func NewGate(
	dncRepo dnc.Repository,
	consentRepo consent.Repository,
	contacts ContactMarker,
	cache DNCCache,
	sink audit.Sink,
	hours *HoursPolicy,
	clock values.Clock,
	logger *zap.Logger,
) *Gate {
	if clock == nil {
		clock = values.RealClock{}
	}
	if hours == nil {
		hours = NewHoursPolicy(clock, nil)
	}
	return &Gate{
		dncRepo:     dncRepo,
		consentRepo: consentRepo,
		contacts:    contacts,
		cache:       cache,
		sink:        sink,
		hours:       hours,
		clock:       clock,
		logger:      logger,
	}
}

// CheckDNC looks up phone on the organization's DNC list. Cache failures
// degrade to the repository.
func (g *Gate) CheckDNC(ctx context.Context, phone string, orgID uuid.UUID) (dnc.CheckResult, error) {
	normalized, err := normalize(phone)
	if err != nil {
		return dnc.CheckResult{}, err
	}

	if g.cache != nil {
		result, ok, err := g.cache.Get(ctx, orgID, normalized)
		if err != nil {
			g.logger.Warn("DNC cache read failed, falling back to database",
				zap.String("org_id", orgID.String()),
				zap.Error(err))
		} else if ok {
			return result, nil
		}
	}

	entry, err := g.dncRepo.Find(ctx, orgID, normalized)
	if err != nil {
		return dnc.CheckResult{}, errors.NewInternalError("failed to check dnc list").WithCause(err)
	}

	result := dnc.ResultFor(entry)
	if g.cache != nil {
		if err := g.cache.Set(ctx, orgID, normalized, result); err != nil {
			g.logger.Warn("DNC cache write failed",
				zap.String("org_id", orgID.String()),
				zap.Error(err))
		}
	}
	return result, nil
}

// BulkCheckDNC checks many numbers with one repository query. The result is
// keyed by normalized phone; invalid numbers are omitted.
func (g *Gate) BulkCheckDNC(ctx context.Context, phones []string, orgID uuid.UUID) (map[string]dnc.CheckResult, error) {
	unique := make([]string, 0, len(phones))
	seen := make(map[string]struct{}, len(phones))
	for _, p := range phones {
		n, err := normalize(p)
		if err != nil {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		unique = append(unique, n)
	}

	results := make(map[string]dnc.CheckResult, len(unique))
	if len(unique) == 0 {
		return results, nil
	}

	entries, err := g.dncRepo.FindByPhones(ctx, orgID, unique)
	if err != nil {
		return nil, errors.NewInternalError("failed to bulk check dnc list").WithCause(err)
	}

	for _, n := range unique {
		results[n] = dnc.ResultFor(entries[n])
	}
	return results, nil
}

// CheckCallingHours checks the state window at the current time
func (g *Gate) CheckCallingHours(state, timezone string) HoursResult {
	return g.hours.CheckCallingHours(state, timezone)
}

// CheckCallingHoursWithin checks the state window narrowed by a campaign window
func (g *Gate) CheckCallingHoursWithin(state, timezone string, window values.DailyWindow) HoursResult {
	return g.hours.CheckCallingHoursWithin(state, timezone, window)
}

// CheckConsent returns the most recent active consent for phone
func (g *Gate) CheckConsent(ctx context.Context, phone string, orgID uuid.UUID) (ConsentResult, error) {
	normalized, err := normalize(phone)
	if err != nil {
		return ConsentResult{}, err
	}

	c, err := g.consentRepo.FindActive(ctx, orgID, normalized, g.clock.Now())
	if err != nil {
		return ConsentResult{}, errors.NewInternalError("failed to check consent").WithCause(err)
	}
	if c == nil {
		return ConsentResult{}, nil
	}
	return ConsentResult{HasConsent: true, ConsentType: c.Type, ExpiresAt: c.ExpiresAt}, nil
}

// AddToDNC adds or refreshes a DNC entry
func (g *Gate) AddToDNC(ctx context.Context, req AddDNCRequest) (*dnc.Entry, error) {
	entry, err := dnc.NewEntry(req.OrganizationID, req.Phone, req.Source, req.Reason, g.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := g.dncRepo.Upsert(ctx, entry); err != nil {
		return nil, errors.NewInternalError("failed to add dnc entry").WithCause(err)
	}
	g.invalidate(ctx, req.OrganizationID, entry.PhoneNumber)

	g.logger.Info("Number added to DNC list",
		zap.String("org_id", req.OrganizationID.String()),
		zap.String("source", entry.Source.String()))
	return entry, nil
}

// RemoveFromDNC deletes a DNC entry. Removing an unlisted number succeeds.
func (g *Gate) RemoveFromDNC(ctx context.Context, phone string, orgID uuid.UUID) error {
	normalized, err := normalize(phone)
	if err != nil {
		return err
	}

	if err := g.dncRepo.Delete(ctx, orgID, normalized); err != nil {
		return errors.NewInternalError("failed to remove dnc entry").WithCause(err)
	}
	g.invalidate(ctx, orgID, normalized)
	return nil
}

// RecordConsent appends a consent record
func (g *Gate) RecordConsent(ctx context.Context, req RecordConsentRequest) (*consent.Consent, error) {
	c, err := consent.NewConsent(req.OrganizationID, req.Phone, req.Type, req.Method, req.Text, req.ExpiresAt, g.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := g.consentRepo.Create(ctx, c); err != nil {
		return nil, errors.NewInternalError("failed to record consent").WithCause(err)
	}
	return c, nil
}

// RevokeConsent revokes every active consent for phone and returns the count
func (g *Gate) RevokeConsent(ctx context.Context, phone string, orgID uuid.UUID) (int64, error) {
	normalized, err := normalize(phone)
	if err != nil {
		return 0, err
	}

	n, err := g.consentRepo.RevokeActive(ctx, orgID, normalized, g.clock.Now())
	if err != nil {
		return 0, errors.NewInternalError("failed to revoke consent").WithCause(err)
	}
	return n, nil
}

// HandleOptOutRequest honours a verbal opt-out: the number goes on the DNC
// list, consent is revoked, matching contacts are flagged and the event is audited.
func (g *Gate) HandleOptOutRequest(ctx context.Context, req OptOutRequest) (*OptOutResult, error) {
	reason := "verbal opt-out request"
	if req.CallID != nil {
		reason = fmt.Sprintf("verbal opt-out request on call %s", req.CallID)
	}

	entry, err := g.AddToDNC(ctx, AddDNCRequest{
		OrganizationID: req.OrganizationID,
		Phone:          req.Phone,
		Source:         dnc.SourceVerbalRequest,
		Reason:         reason,
	})
	if err != nil {
		return nil, err
	}

	revoked, err := g.RevokeConsent(ctx, entry.PhoneNumber, req.OrganizationID)
	if err != nil {
		return nil, err
	}

	var marked int64
	if g.contacts != nil {
		marked, err = g.contacts.MarkDNCByPhone(ctx, req.OrganizationID, entry.PhoneNumber)
		if err != nil {
			return nil, errors.NewInternalError("failed to mark contacts as dnc").WithCause(err)
		}
	}

	if event, err := audit.NewComplianceEvent(req.OrganizationID, audit.KindOptOut, entry.PhoneNumber, reason, g.clock.Now()); err == nil {
		g.RecordEvent(ctx, event)
	}

	return &OptOutResult{
		Phone:            entry.PhoneNumber,
		ContactsMarked:   marked,
		ConsentsRevoked:  revoked,
		DetectedInSpeech: DetectOptOut(req.Transcript),
	}, nil
}

// ScrubContacts partitions phones into clean and blocked numbers in input order
func (g *Gate) ScrubContacts(ctx context.Context, phones []string, orgID uuid.UUID) (*ScrubResult, error) {
	results, err := g.BulkCheckDNC(ctx, phones, orgID)
	if err != nil {
		return nil, err
	}

	out := &ScrubResult{Clean: []string{}, Blocked: []BlockedNumber{}}
	seen := make(map[string]struct{}, len(phones))
	for _, p := range phones {
		n, err := normalize(p)
		if err != nil {
			out.Blocked = append(out.Blocked, BlockedNumber{Phone: p, Reason: "invalid phone number"})
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}

		if r := results[n]; r.IsBlocked {
			out.Blocked = append(out.Blocked, BlockedNumber{Phone: n, Reason: r.Reason})
			continue
		}
		out.Clean = append(out.Clean, n)
	}
	return out, nil
}

// RecordEvent hands the event to the audit sink. Sink failures are logged,
// never returned.
func (g *Gate) RecordEvent(ctx context.Context, event *audit.ComplianceEvent) {
	if g.sink == nil || event == nil {
		return
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()
	if err := g.sink.Record(actx, event); err != nil {
		g.logger.Warn("Failed to record compliance event",
			zap.String("kind", event.Kind.String()),
			zap.Error(err))
	}
}

func (g *Gate) invalidate(ctx context.Context, orgID uuid.UUID, phone string) {
	if g.cache == nil {
		return
	}
	if err := g.cache.Invalidate(ctx, orgID, phone); err != nil {
		g.logger.Warn("DNC cache invalidation failed",
			zap.String("org_id", orgID.String()),
			zap.Error(err))
	}
}

// normalize returns the E.164 form of phone or an INVALID_PHONE_NUMBER
// validation error
func normalize(phone string) (string, error) {
	p, err := values.NewPhoneNumber(phone)
	if err != nil {
		return "", errors.NewValidationError("INVALID_PHONE_NUMBER", "phone number is not a valid E.164 number").WithCause(err)
	}
	return p.String(), nil
}
