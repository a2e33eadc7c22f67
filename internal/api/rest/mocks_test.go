package rest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	campaignpkg "github.com/davidleathers/campaign-dialer/internal/domain/campaign"
	"github.com/davidleathers/campaign-dialer/internal/domain/consent"
	"github.com/davidleathers/campaign-dialer/internal/domain/dnc"
	"github.com/davidleathers/campaign-dialer/internal/domain/errors"
	"github.com/davidleathers/campaign-dialer/internal/domain/values"
	"github.com/davidleathers/campaign-dialer/internal/service/compliance"
)

type fakeController struct {
	mu        sync.Mutex
	launchErr error
	launched  []uuid.UUID
	actions   []string
	states    map[uuid.UUID]campaignpkg.RunState
}

func newFakeController() *fakeController {
	return &fakeController{states: map[uuid.UUID]campaignpkg.RunState{}}
}

func (f *fakeController) Launch(_ context.Context, id, _ uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.launchErr != nil {
		return f.launchErr
	}
	f.launched = append(f.launched, id)
	f.states[id] = campaignpkg.RunStateRunning
	return nil
}

func (f *fakeController) signal(id uuid.UUID, action string, state campaignpkg.RunState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
	if _, ok := f.states[id]; ok {
		f.states[id] = state
	}
	return nil
}

func (f *fakeController) Pause(_ context.Context, id uuid.UUID) error {
	return f.signal(id, "pause", campaignpkg.RunStatePaused)
}

func (f *fakeController) Resume(_ context.Context, id uuid.UUID) error {
	return f.signal(id, "resume", campaignpkg.RunStateRunning)
}

func (f *fakeController) Stop(_ context.Context, id uuid.UUID) error {
	return f.signal(id, "stop", campaignpkg.RunStateStopped)
}

func (f *fakeController) GetState(_ context.Context, id uuid.UUID) (campaignpkg.RunState, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.states[id]
	return s, ok
}

type fakeCampaigns map[uuid.UUID]*campaignpkg.Campaign

func (f fakeCampaigns) GetByID(_ context.Context, id uuid.UUID) (*campaignpkg.Campaign, error) {
	c, ok := f[id]
	if !ok {
		return nil, errors.ErrCampaignNotFound
	}
	return c, nil
}

type fakeCompliance struct {
	mu       sync.Mutex
	dnc      map[string]*dnc.Entry
	consents map[string]*consent.Consent
	optOuts  []compliance.OptOutRequest
	now      time.Time
}

func newFakeCompliance() *fakeCompliance {
	return &fakeCompliance{
		dnc:      map[string]*dnc.Entry{},
		consents: map[string]*consent.Consent{},
		now:      time.Date(2025, 1, 15, 17, 30, 0, 0, time.UTC),
	}
}

func key(orgID uuid.UUID, phone string) string {
	return orgID.String() + "|" + values.NormalizePhone(phone)
}

func (f *fakeCompliance) CheckDNC(_ context.Context, phone string, orgID uuid.UUID) (dnc.CheckResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return dnc.ResultFor(f.dnc[key(orgID, phone)]), nil
}

func (f *fakeCompliance) AddToDNC(_ context.Context, req compliance.AddDNCRequest) (*dnc.Entry, error) {
	e, err := dnc.NewEntry(req.OrganizationID, req.Phone, req.Source, req.Reason, f.now)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dnc[key(req.OrganizationID, req.Phone)] = e
	return e, nil
}

func (f *fakeCompliance) RemoveFromDNC(_ context.Context, phone string, orgID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.dnc, key(orgID, phone))
	return nil
}

func (f *fakeCompliance) ScrubContacts(ctx context.Context, phones []string, orgID uuid.UUID) (*compliance.ScrubResult, error) {
	out := &compliance.ScrubResult{Clean: []string{}, Blocked: []compliance.BlockedNumber{}}
	for _, p := range phones {
		r, _ := f.CheckDNC(ctx, p, orgID)
		if r.IsBlocked {
			out.Blocked = append(out.Blocked, compliance.BlockedNumber{Phone: values.NormalizePhone(p), Reason: r.Reason})
			continue
		}
		out.Clean = append(out.Clean, values.NormalizePhone(p))
	}
	return out, nil
}

func (f *fakeCompliance) CheckConsent(_ context.Context, phone string, orgID uuid.UUID) (compliance.ConsentResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.consents[key(orgID, phone)]
	if !ok || !c.IsActive(f.now) {
		return compliance.ConsentResult{}, nil
	}
	return compliance.ConsentResult{HasConsent: true, ConsentType: c.Type, ExpiresAt: c.ExpiresAt}, nil
}

func (f *fakeCompliance) RecordConsent(_ context.Context, req compliance.RecordConsentRequest) (*consent.Consent, error) {
	c, err := consent.NewConsent(req.OrganizationID, req.Phone, req.Type, req.Method, req.Text, req.ExpiresAt, f.now)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.consents[key(req.OrganizationID, req.Phone)] = c
	return c, nil
}

func (f *fakeCompliance) RevokeConsent(_ context.Context, phone string, orgID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.consents[key(orgID, phone)]
	if !ok || c.RevokedAt != nil {
		return 0, nil
	}
	c.Revoke(f.now)
	return 1, nil
}

func (f *fakeCompliance) HandleOptOutRequest(_ context.Context, req compliance.OptOutRequest) (*compliance.OptOutResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.optOuts = append(f.optOuts, req)
	return &compliance.OptOutResult{
		Phone:            values.NormalizePhone(req.Phone),
		ContactsMarked:   2,
		DetectedInSpeech: compliance.DetectOptOut(req.Transcript),
	}, nil
}

type staticChecker struct {
	name string
	err  error
}

func (s staticChecker) Name() string                  { return s.name }
func (s staticChecker) Check(_ context.Context) error { return s.err }
