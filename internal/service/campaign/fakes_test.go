package campaign

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/davidleathers/campaign-dialer/internal/domain/audit"
	"github.com/davidleathers/campaign-dialer/internal/domain/call"
	campaignpkg "github.com/davidleathers/campaign-dialer/internal/domain/campaign"
	"github.com/davidleathers/campaign-dialer/internal/domain/dnc"
	"github.com/davidleathers/campaign-dialer/internal/domain/errors"
	"github.com/davidleathers/campaign-dialer/internal/domain/values"
	"github.com/davidleathers/campaign-dialer/internal/service/compliance"
	"github.com/davidleathers/campaign-dialer/internal/service/dialer"
	"github.com/davidleathers/campaign-dialer/internal/service/usage"
)

// In-memory fakes shared by the executor tests

type fakeCampaigns struct {
	mu        sync.Mutex
	campaigns map[uuid.UUID]*campaignpkg.Campaign
	statusErr error
}

func (f *fakeCampaigns) GetByID(_ context.Context, id uuid.UUID) (*campaignpkg.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[id]
	if !ok {
		return nil, errors.ErrCampaignNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCampaigns) UpdateStatus(_ context.Context, id uuid.UUID, status campaignpkg.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return f.statusErr
	}
	f.campaigns[id].Status = status
	return nil
}

func (f *fakeCampaigns) UpdateStats(_ context.Context, id uuid.UUID, stats campaignpkg.RunStats) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.campaigns[id].Stats = stats
	return nil
}

func (f *fakeCampaigns) get(id uuid.UUID) campaignpkg.Campaign {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.campaigns[id]
}

type fakeContacts struct {
	mu        sync.Mutex
	contacts  map[uuid.UUID]*campaignpkg.Contact
	updateErr error
}

func (f *fakeContacts) ListPending(_ context.Context, campaignID uuid.UUID) ([]*campaignpkg.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*campaignpkg.Contact
	for _, c := range f.contacts {
		if c.CampaignID == campaignID && c.Status == campaignpkg.ContactPending {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeContacts) CountPending(_ context.Context, campaignID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.contacts {
		if c.CampaignID == campaignID && c.Status == campaignpkg.ContactPending {
			n++
		}
	}
	return n, nil
}

func (f *fakeContacts) UpdateStatus(_ context.Context, id uuid.UUID, status campaignpkg.ContactStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	c := f.contacts[id]
	if !c.Status.CanTransitionTo(status) {
		return errors.ErrContactState
	}
	c.Status = status
	return nil
}

func (f *fakeContacts) MarkCalled(_ context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.contacts[id]
	if c.Status != campaignpkg.ContactPending {
		return errors.ErrContactState
	}
	c.Status = campaignpkg.ContactCalled
	c.CallAttempts++
	c.LastCalledAt = &at
	return nil
}

func (f *fakeContacts) MarkDNCByPhone(_ context.Context, orgID uuid.UUID, phone string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, c := range f.contacts {
		if c.OrganizationID == orgID && c.PhoneNumber == phone {
			c.Status = campaignpkg.ContactDNC
			n++
		}
	}
	return n, nil
}

func (f *fakeContacts) status(id uuid.UUID) campaignpkg.ContactStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.contacts[id].Status
}

type fakeAgents map[uuid.UUID]*campaignpkg.Agent

func (f fakeAgents) GetByID(_ context.Context, id uuid.UUID) (*campaignpkg.Agent, error) {
	a, ok := f[id]
	if !ok {
		return nil, errors.ErrAgentNotFound
	}
	return a, nil
}

type fakeCalls struct {
	mu          sync.Mutex
	created     []*call.Call
	placedToday int
}

func (f *fakeCalls) Create(_ context.Context, c *call.Call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, c)
	return nil
}

func (f *fakeCalls) CountForCampaignSince(context.Context, uuid.UUID, time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.placedToday, nil
}

func (f *fakeCalls) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

// fakeGate blocks listed numbers and evaluates real calling-hours rules
type fakeGate struct {
	mu      sync.Mutex
	blocked map[string]string
	hours   *compliance.HoursPolicy
	events  []*audit.ComplianceEvent
}

func (g *fakeGate) CheckDNC(_ context.Context, phone string, _ uuid.UUID) (dnc.CheckResult, error) {
	p, err := values.NewPhoneNumber(phone)
	if err != nil {
		return dnc.CheckResult{}, errors.NewValidationError("INVALID_PHONE_NUMBER", "phone number is not a valid E.164 number")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if reason, ok := g.blocked[p.String()]; ok {
		return dnc.CheckResult{IsBlocked: true, Reason: reason, Source: dnc.SourceInternal}, nil
	}
	return dnc.CheckResult{}, nil
}

func (g *fakeGate) CheckCallingHoursWithin(state, timezone string, window values.DailyWindow) compliance.HoursResult {
	return g.hours.CheckCallingHoursWithin(state, timezone, window)
}

func (g *fakeGate) RecordEvent(_ context.Context, e *audit.ComplianceEvent) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.events = append(g.events, e)
}

func (g *fakeGate) recorded() []*audit.ComplianceEvent {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*audit.ComplianceEvent(nil), g.events...)
}

// fakeUsage allows a fixed number of checks before blocking
type fakeUsage struct {
	mu      sync.Mutex
	allowed int
	checks  int
}

func (u *fakeUsage) CheckUsageLimits(context.Context, uuid.UUID) (usage.Result, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.checks++
	if u.allowed >= 0 && u.checks > u.allowed {
		return usage.Result{CanCall: false, Reason: "monthly minute allowance exhausted"}, nil
	}
	return usage.Result{CanCall: true, AllowedMinutes: usage.Unlimited}, nil
}

// fakeVoice records requests and runs an optional hook per call
type fakeVoice struct {
	mu       sync.Mutex
	requests []*dialer.CallRequest
	fail     map[string]bool
	hook     func(n int)
}

func (v *fakeVoice) PlaceCall(_ context.Context, req *dialer.CallRequest) (*dialer.CallResponse, error) {
	v.mu.Lock()
	v.requests = append(v.requests, req)
	n := len(v.requests)
	fail := v.fail[req.CustomerNumber]
	hook := v.hook
	v.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	if fail {
		return nil, errors.NewExternalError("voice", "503 service unavailable")
	}
	return &dialer.CallResponse{ID: "ext_" + req.CustomerNumber, Status: "queued"}, nil
}

func (v *fakeVoice) count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.requests)
}

// memoryBus delivers signals to every subscriber in process
type memoryBus struct {
	mu       sync.Mutex
	handlers []func(Signal)
	ready    chan struct{}
}

func newMemoryBus() *memoryBus {
	return &memoryBus{ready: make(chan struct{}, 8)}
}

func (b *memoryBus) Publish(_ context.Context, sig Signal) error {
	b.mu.Lock()
	handlers := append([]func(Signal){}, b.handlers...)
	b.mu.Unlock()
	for _, h := range handlers {
		h(sig)
	}
	return nil
}

func (b *memoryBus) Subscribe(ctx context.Context, handler func(Signal)) error {
	b.mu.Lock()
	b.handlers = append(b.handlers, handler)
	b.mu.Unlock()
	b.ready <- struct{}{}
	<-ctx.Done()
	return nil
}
