package campaign

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/davidleathers/campaign-dialer/internal/domain/audit"
	campaignpkg "github.com/davidleathers/campaign-dialer/internal/domain/campaign"
	"github.com/davidleathers/campaign-dialer/internal/domain/errors"
	"github.com/davidleathers/campaign-dialer/internal/domain/geo"
	"github.com/davidleathers/campaign-dialer/internal/domain/values"
	"github.com/davidleathers/campaign-dialer/internal/service/compliance"
	"github.com/davidleathers/campaign-dialer/internal/service/dialer"
)

// 17:30 UTC is 12:30 in New York, 09:30 in Los Angeles and 07:30 in Honolulu
var testNow = time.Date(2025, 1, 15, 17, 30, 0, 0, time.UTC)

type harness struct {
	t          *testing.T
	exec       *Executor
	campaigns  *fakeCampaigns
	contacts   *fakeContacts
	agents     fakeAgents
	calls      *fakeCalls
	gate       *fakeGate
	usage      *fakeUsage
	voice      *fakeVoice
	leases     *MemoryLeaseStore
	clock      *values.MockClock
	logs       *observer.ObservedLogs
	orgID      uuid.UUID
	campaignID uuid.UUID
	agentID    uuid.UUID
	contactIDs []uuid.UUID
}

func newHarness(t *testing.T, phones ...string) *harness {
	t.Helper()

	h := &harness{
		t:          t,
		clock:      values.NewMockClock(testNow),
		orgID:      uuid.New(),
		campaignID: uuid.New(),
		agentID:    uuid.New(),
		gate:       &fakeGate{blocked: map[string]string{}},
		usage:      &fakeUsage{allowed: -1},
		voice:      &fakeVoice{fail: map[string]bool{}},
		calls:      &fakeCalls{},
	}
	h.gate.hours = compliance.NewHoursPolicy(h.clock, nil)
	h.leases = NewMemoryLeaseStore(h.clock)

	h.campaigns = &fakeCampaigns{campaigns: map[uuid.UUID]*campaignpkg.Campaign{
		h.campaignID: {
			ID:             h.campaignID,
			OrganizationID: h.orgID,
			AgentID:        h.agentID,
			Name:           "spring outreach",
			Status:         campaignpkg.StatusScheduled,
		},
	}}

	h.agents = fakeAgents{h.agentID: {
		ID:               h.agentID,
		OrganizationID:   h.orgID,
		VoiceAssistantID: "asst_1",
		PhoneNumbers:     []campaignpkg.AgentPhoneNumber{{ID: uuid.New(), ExternalID: "pn_1", Active: true}},
	}}

	h.contacts = &fakeContacts{contacts: map[uuid.UUID]*campaignpkg.Contact{}}
	for i, p := range phones {
		id := uuid.New()
		h.contacts.contacts[id] = &campaignpkg.Contact{
			ID:             id,
			OrganizationID: h.orgID,
			CampaignID:     h.campaignID,
			Name:           "contact",
			PhoneNumber:    values.NormalizePhone(p),
			Status:         campaignpkg.ContactPending,
			CreatedAt:      testNow.Add(-time.Duration(len(phones)-i) * time.Hour),
		}
		h.contactIDs = append(h.contactIDs, id)
	}

	core, logs := observer.New(zap.DebugLevel)
	h.logs = logs
	h.exec = h.newExecutor(zap.New(core), nil, Config{CallInterval: 0, InstanceID: "test"})
	return h
}

func (h *harness) newExecutor(logger *zap.Logger, bus ControlBus, cfg Config) *Executor {
	h.t.Helper()
	d := dialer.NewDispatcher(h.contacts, h.calls, h.voice, h.clock, zaptest.NewLogger(h.t))
	exec, err := NewExecutor(Dependencies{
		Campaigns:  h.campaigns,
		Contacts:   h.contacts,
		Agents:     h.agents,
		Calls:      h.calls,
		Compliance: h.gate,
		Usage:      h.usage,
		Dispatcher: d,
		Geo:        geo.NewResolver(),
		Leases:     h.leases,
		Bus:        bus,
		Clock:      h.clock,
		Logger:     logger,
	}, cfg)
	require.NoError(h.t, err)
	return exec
}

func (h *harness) campaign() campaignpkg.Campaign {
	return h.campaigns.get(h.campaignID)
}

func (h *harness) contactStatus(i int) campaignpkg.ContactStatus {
	return h.contacts.status(h.contactIDs[i])
}

func (h *harness) startAsync(ctx context.Context) <-chan startResult {
	done := make(chan startResult, 1)
	go func() {
		s, err := h.exec.Start(ctx, h.campaignID, h.orgID)
		done <- startResult{summary: s, err: err}
	}()
	return done
}

type startResult struct {
	summary *RunSummary
	err     error
}

func waitResult(t *testing.T, done <-chan startResult) startResult {
	t.Helper()
	select {
	case r := <-done:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("campaign run did not finish")
		return startResult{}
	}
}

func TestExecutor_Start_ProcessesAllContactsInOrder(t *testing.T) {
	h := newHarness(t, "212-555-0101", "212-555-0102", "212-555-0103")

	summary, err := h.exec.Start(context.Background(), h.campaignID, h.orgID)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalContacts)
	assert.Equal(t, 3, summary.CallsAttempted)
	assert.Equal(t, 3, summary.CallsSucceeded)
	assert.Equal(t, HaltExhausted, summary.HaltReason)

	require.Len(t, h.voice.requests, 3)
	assert.Equal(t, "+12125550101", h.voice.requests[0].CustomerNumber)
	assert.Equal(t, "+12125550102", h.voice.requests[1].CustomerNumber)
	assert.Equal(t, "+12125550103", h.voice.requests[2].CustomerNumber)
	assert.Equal(t, 3, h.calls.count())

	for i := range h.contactIDs {
		assert.Equal(t, campaignpkg.ContactCalled, h.contactStatus(i))
	}

	c := h.campaign()
	assert.Equal(t, campaignpkg.StatusCompleted, c.Status)
	assert.Equal(t, 3, c.Stats.Attempted)
	assert.Equal(t, 3, c.Stats.Succeeded)
	require.NotNil(t, c.Stats.CompletedAt)
	require.NotNil(t, c.Stats.LastRunAt)

	_, found := h.exec.GetState(context.Background(), h.campaignID)
	assert.False(t, found, "run state is cleared after the run")
}

func TestExecutor_Start_ComplianceSkips(t *testing.T) {
	h := newHarness(t, "212-555-0101", "808-555-0100", "212-555-0102")
	h.gate.blocked["+12125550101"] = "customer request"

	summary, err := h.exec.Start(context.Background(), h.campaignID, h.orgID)
	require.NoError(t, err)

	require.Len(t, summary.Results, 3)
	assert.Equal(t, OutcomeSkipped, summary.Results[0].Outcome)
	assert.Equal(t, "DNC: customer request", summary.Results[0].Detail)
	assert.Equal(t, OutcomeSkipped, summary.Results[1].Outcome)
	assert.Equal(t, "calling hours: outside calling hours (08:00-20:00 Pacific/Honolulu), local time 07:30", summary.Results[1].Detail)
	assert.Equal(t, OutcomeCalled, summary.Results[2].Outcome)
	assert.Equal(t, 2, summary.CallsSkipped)

	assert.Equal(t, campaignpkg.ContactDNC, h.contactStatus(0))
	assert.Equal(t, campaignpkg.ContactPending, h.contactStatus(1), "calling-hours skips stay pending")
	assert.Equal(t, campaignpkg.ContactCalled, h.contactStatus(2))
	assert.Equal(t, 1, h.voice.count())

	events := h.gate.recorded()
	require.Len(t, events, 2)
	assert.Equal(t, audit.KindDNCBlock, events[0].Kind)
	assert.Equal(t, audit.KindCallingHoursBlock, events[1].Kind)
	require.NotNil(t, events[0].CampaignID)
	assert.Equal(t, h.campaignID, *events[0].CampaignID)

	c := h.campaign()
	assert.Equal(t, campaignpkg.StatusPaused, c.Status, "pending contacts remain")
	assert.Equal(t, 2, c.Stats.Skipped)
}

func TestExecutor_Start_CampaignWindowNarrowsStateWindow(t *testing.T) {
	h := newHarness(t, "212-555-0101")
	h.campaigns.campaigns[h.campaignID].CallingHours = campaignpkg.CallingHours{Start: "14:00", End: "17:00"}

	summary, err := h.exec.Start(context.Background(), h.campaignID, h.orgID)
	require.NoError(t, err)

	require.Len(t, summary.Results, 1)
	assert.Equal(t, "calling hours: outside calling hours (14:00-17:00 America/New_York), local time 12:30", summary.Results[0].Detail)
	assert.Equal(t, 0, h.voice.count())
}

func TestExecutor_Start_UnmappedAreaCodeIsLogged(t *testing.T) {
	h := newHarness(t, "+1 999 555 0100")

	summary, err := h.exec.Start(context.Background(), h.campaignID, h.orgID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.CallsSucceeded)

	entries := h.logs.FilterMessage("Area code not mapped, using default jurisdiction").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "999", entries[0].ContextMap()["area_code"])
	assert.Equal(t, "NY", entries[0].ContextMap()["state"])
}

func TestExecutor_Start_DispatchFailureIsIsolated(t *testing.T) {
	h := newHarness(t, "212-555-0101", "212-555-0102", "212-555-0103")
	h.voice.fail["+12125550102"] = true

	summary, err := h.exec.Start(context.Background(), h.campaignID, h.orgID)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.CallsAttempted)
	assert.Equal(t, 2, summary.CallsSucceeded)
	assert.Equal(t, 1, summary.CallsFailed)
	assert.Equal(t, OutcomeFailed, summary.Results[1].Outcome)
	assert.Contains(t, summary.Results[1].Detail, "503")

	assert.Equal(t, campaignpkg.ContactFailed, h.contactStatus(1))
	assert.Equal(t, campaignpkg.ContactCalled, h.contactStatus(2))
	assert.Equal(t, campaignpkg.StatusCompleted, h.campaign().Status)
}

func TestExecutor_Start_ConfigurationErrorFailsContacts(t *testing.T) {
	h := newHarness(t, "212-555-0101", "212-555-0102")
	h.agents[h.agentID].PhoneNumbers[0].Active = false

	summary, err := h.exec.Start(context.Background(), h.campaignID, h.orgID)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.CallsFailed)
	assert.Equal(t, "configuration error: Agent has no active phone number assigned", summary.Results[0].Detail)
	assert.Equal(t, campaignpkg.ContactFailed, h.contactStatus(0))
	assert.Equal(t, 0, h.voice.count())
}

func TestExecutor_Start_InvalidNumberFailsAlone(t *testing.T) {
	h := newHarness(t, "212-555-0101", "+12345", "212-555-0103")

	summary, err := h.exec.Start(context.Background(), h.campaignID, h.orgID)
	require.NoError(t, err)

	assert.Equal(t, HaltExhausted, summary.HaltReason)
	require.Len(t, summary.Results, 3)
	assert.Equal(t, OutcomeCalled, summary.Results[0].Outcome)
	assert.Equal(t, OutcomeFailed, summary.Results[1].Outcome)
	assert.Equal(t, "invalid phone number", summary.Results[1].Detail)
	assert.Equal(t, OutcomeCalled, summary.Results[2].Outcome)

	assert.Equal(t, campaignpkg.ContactFailed, h.contactStatus(1))
	assert.Equal(t, 2, h.voice.count(), "no provider request for the invalid number")
	assert.Equal(t, 2, h.calls.count())
	assert.Equal(t, campaignpkg.StatusCompleted, h.campaign().Status)
}

func TestExecutor_Start_OnlyProviderRequestsArePaced(t *testing.T) {
	t.Run("invalid numbers", func(t *testing.T) {
		h := newHarness(t, "+12345", "+1234", "212-555-0101")
		h.exec = h.newExecutor(zaptest.NewLogger(t), nil, Config{CallInterval: time.Hour, InstanceID: "test"})

		r := waitResult(t, h.startAsync(context.Background()))
		require.NoError(t, r.err)
		assert.Equal(t, HaltExhausted, r.summary.HaltReason)
		assert.Equal(t, 2, r.summary.CallsFailed)
		assert.Equal(t, 1, h.voice.count())
	})

	t.Run("configuration errors", func(t *testing.T) {
		h := newHarness(t, "212-555-0101", "212-555-0102", "212-555-0103")
		h.agents[h.agentID].PhoneNumbers[0].Active = false
		h.exec = h.newExecutor(zaptest.NewLogger(t), nil, Config{CallInterval: time.Hour, InstanceID: "test"})

		r := waitResult(t, h.startAsync(context.Background()))
		require.NoError(t, r.err)
		assert.Equal(t, HaltExhausted, r.summary.HaltReason)
		assert.Equal(t, 3, r.summary.CallsFailed)
		assert.Equal(t, 0, h.voice.count())
	})
}

func TestExecutor_Start_ContactFlaggedMidRunIsNotDialed(t *testing.T) {
	h := newHarness(t, "212-555-0101", "212-555-0102", "212-555-0103")
	h.voice.hook = func(n int) {
		if n == 1 {
			// an opt-out for the second contact lands while the run holds its snapshot
			_, _ = h.contacts.MarkDNCByPhone(context.Background(), h.orgID, "+12125550102")
		}
	}

	summary, err := h.exec.Start(context.Background(), h.campaignID, h.orgID)
	require.NoError(t, err)

	require.Len(t, summary.Results, 3)
	assert.Equal(t, OutcomeSkipped, summary.Results[1].Outcome)
	assert.Equal(t, "contact is no longer pending", summary.Results[1].Detail)
	assert.Equal(t, campaignpkg.ContactDNC, h.contactStatus(1))
	assert.Equal(t, 2, h.voice.count())
	for _, req := range h.voice.requests {
		assert.NotEqual(t, "+12125550102", req.CustomerNumber)
	}
}

func TestExecutor_Start_LeaseKeptDuringPacing(t *testing.T) {
	h := newHarness(t, "212-555-0101", "212-555-0102")
	h.leases = NewMemoryLeaseStore(values.RealClock{})
	h.exec = h.newExecutor(zaptest.NewLogger(t), nil, Config{
		CallInterval: 300 * time.Millisecond,
		LeaseTTL:     60 * time.Millisecond,
		InstanceID:   "test",
	})
	ctx := context.Background()

	stolen := make(chan bool, 1)
	h.voice.hook = func(n int) {
		if n == 1 {
			go func() {
				time.Sleep(150 * time.Millisecond)
				ok, _ := h.leases.Acquire(ctx, h.campaignID, "other-instance", time.Minute)
				stolen <- ok
			}()
		}
	}

	r := waitResult(t, h.startAsync(ctx))
	require.NoError(t, r.err)
	assert.Equal(t, HaltExhausted, r.summary.HaltReason)
	assert.Equal(t, 2, h.voice.count())
	assert.False(t, <-stolen, "lease outlived its TTL while the run was pacing")
}

func TestExecutor_Start_LeaseLossInterruptsPacing(t *testing.T) {
	h := newHarness(t, "212-555-0101", "212-555-0102")
	h.leases = NewMemoryLeaseStore(values.RealClock{})
	h.exec = h.newExecutor(zaptest.NewLogger(t), nil, Config{
		CallInterval: time.Hour,
		LeaseTTL:     60 * time.Millisecond,
		InstanceID:   "test",
	})

	h.voice.hook = func(n int) {
		if n == 1 {
			h.leases.mu.Lock()
			h.leases.leases[h.campaignID].owner = "other-instance"
			h.leases.mu.Unlock()
		}
	}

	r := waitResult(t, h.startAsync(context.Background()))
	require.NoError(t, r.err)
	assert.Equal(t, HaltLeaseLost, r.summary.HaltReason)
	assert.Equal(t, 1, h.voice.count())
	assert.Equal(t, campaignpkg.ContactPending, h.contactStatus(1))
}

func TestExecutor_Start_QuotaHaltsBatch(t *testing.T) {
	h := newHarness(t, "212-555-0101", "212-555-0102", "212-555-0103")
	h.usage.allowed = 1

	summary, err := h.exec.Start(context.Background(), h.campaignID, h.orgID)
	require.NoError(t, err)

	assert.Equal(t, HaltQuota, summary.HaltReason)
	assert.Equal(t, "monthly minute allowance exhausted", summary.Detail)
	assert.Equal(t, 1, h.voice.count())
	assert.Equal(t, campaignpkg.ContactPending, h.contactStatus(1))
	assert.Equal(t, campaignpkg.ContactPending, h.contactStatus(2))
	assert.Equal(t, campaignpkg.StatusPaused, h.campaign().Status)
}

func TestExecutor_Start_DailyCap(t *testing.T) {
	h := newHarness(t, "212-555-0101", "212-555-0102", "212-555-0103")
	h.campaigns.campaigns[h.campaignID].MaxCallsPerDay = 2
	h.calls.placedToday = 1

	summary, err := h.exec.Start(context.Background(), h.campaignID, h.orgID)
	require.NoError(t, err)

	assert.Equal(t, HaltDailyCap, summary.HaltReason)
	assert.Equal(t, 1, h.voice.count())
}

func TestExecutor_Pause_HaltsAtNextIteration(t *testing.T) {
	h := newHarness(t, "212-555-0101", "212-555-0102", "212-555-0103")
	ctx := context.Background()
	h.voice.hook = func(n int) {
		if n == 1 {
			require.NoError(t, h.exec.Pause(ctx, h.campaignID))
		}
	}

	summary, err := h.exec.Start(ctx, h.campaignID, h.orgID)
	require.NoError(t, err)

	assert.Equal(t, HaltPaused, summary.HaltReason)
	assert.Equal(t, 1, h.voice.count(), "in-flight call completes, later contacts are not dialed")
	assert.Equal(t, campaignpkg.ContactCalled, h.contactStatus(0))
	assert.Equal(t, campaignpkg.ContactPending, h.contactStatus(1))

	c := h.campaign()
	assert.Equal(t, campaignpkg.StatusPaused, c.Status)
	require.NotNil(t, c.Stats.PausedAt)

	// a later Start picks up the remaining contacts
	summary, err = h.exec.Start(ctx, h.campaignID, h.orgID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalContacts)
	assert.Equal(t, campaignpkg.StatusCompleted, h.campaign().Status)
	require.NotNil(t, h.campaign().Stats.ResumedAt)
	assert.Equal(t, 3, h.campaign().Stats.Succeeded)
}

func TestExecutor_Stop_InterruptsPacing(t *testing.T) {
	h := newHarness(t, "212-555-0101", "212-555-0102")
	h.exec = h.newExecutor(zaptest.NewLogger(t), nil, Config{CallInterval: time.Hour, InstanceID: "test"})
	ctx := context.Background()

	h.voice.hook = func(n int) {
		if n == 1 {
			go func() {
				time.Sleep(50 * time.Millisecond)
				_ = h.exec.Stop(ctx, h.campaignID)
			}()
		}
	}

	r := waitResult(t, h.startAsync(ctx))
	require.NoError(t, r.err)
	assert.Equal(t, HaltStopped, r.summary.HaltReason)
	assert.Equal(t, 1, h.voice.count())
	assert.Equal(t, campaignpkg.ContactPending, h.contactStatus(1))
}

func TestExecutor_Start_ContextCancelEndsPacing(t *testing.T) {
	h := newHarness(t, "212-555-0101", "212-555-0102")
	h.exec = h.newExecutor(zaptest.NewLogger(t), nil, Config{CallInterval: time.Hour, InstanceID: "test"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.voice.hook = func(n int) {
		if n == 1 {
			go func() {
				time.Sleep(50 * time.Millisecond)
				cancel()
			}()
		}
	}

	r := waitResult(t, h.startAsync(ctx))
	require.NoError(t, r.err)
	assert.Equal(t, HaltCanceled, r.summary.HaltReason)
	assert.Equal(t, campaignpkg.StatusPaused, h.campaign().Status)
}

func TestExecutor_Start_RejectsDuplicateRun(t *testing.T) {
	h := newHarness(t, "212-555-0101", "212-555-0102")
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	h.voice.hook = func(n int) {
		if n == 1 {
			close(entered)
			<-release
		}
	}

	done := h.startAsync(ctx)
	<-entered

	state, found := h.exec.GetState(ctx, h.campaignID)
	assert.True(t, found)
	assert.Equal(t, campaignpkg.RunStateRunning, state)

	_, err := h.exec.Start(ctx, h.campaignID, h.orgID)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, "CAMPAIGN_ALREADY_RUNNING"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeConflict))

	close(release)
	r := waitResult(t, done)
	require.NoError(t, r.err)
	assert.Equal(t, 2, h.voice.count())
}

func TestExecutor_Start_InfrastructureErrorForcesPaused(t *testing.T) {
	h := newHarness(t, "212-555-0101", "212-555-0102")
	h.gate.blocked["+12125550102"] = "listed"
	ctx := context.Background()

	h.voice.hook = func(n int) {
		h.contacts.mu.Lock()
		h.contacts.updateErr = assert.AnError
		h.contacts.mu.Unlock()
	}

	summary, err := h.exec.Start(ctx, h.campaignID, h.orgID)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInternal))

	require.NotNil(t, summary)
	assert.Equal(t, HaltError, summary.HaltReason)
	assert.Equal(t, 1, summary.CallsSucceeded)

	c := h.campaign()
	assert.Equal(t, campaignpkg.StatusPaused, c.Status)
	assert.Equal(t, 1, c.Stats.Succeeded)

	_, found := h.exec.GetState(ctx, h.campaignID)
	assert.False(t, found)
}

func TestExecutor_Start_Validation(t *testing.T) {
	future := testNow.Add(24 * time.Hour)

	tests := []struct {
		name     string
		mutate   func(*harness)
		orgID    func(*harness) uuid.UUID
		wantCode string
	}{
		{
			name:     "unknown campaign",
			mutate:   func(h *harness) { delete(h.campaigns.campaigns, h.campaignID) },
			wantCode: "RESOURCE_NOT_FOUND",
		},
		{
			name:     "other organization",
			mutate:   func(h *harness) {},
			orgID:    func(*harness) uuid.UUID { return uuid.New() },
			wantCode: "RESOURCE_NOT_FOUND",
		},
		{
			name:     "completed campaign",
			mutate:   func(h *harness) { h.campaigns.campaigns[h.campaignID].Status = campaignpkg.StatusCompleted },
			wantCode: "CAMPAIGN_COMPLETED",
		},
		{
			name:     "before schedule start",
			mutate:   func(h *harness) { h.campaigns.campaigns[h.campaignID].ScheduleStart = &future },
			wantCode: "OUTSIDE_SCHEDULE",
		},
		{
			name: "malformed calling hours",
			mutate: func(h *harness) {
				h.campaigns.campaigns[h.campaignID].CallingHours = campaignpkg.CallingHours{Start: "9:00 AM", End: "5:00 PM"}
			},
			wantCode: "INVALID_CALLING_HOURS",
		},
		{
			name:     "agent without assistant",
			mutate:   func(h *harness) { h.agents[h.agentID].VoiceAssistantID = "" },
			wantCode: "NO_VOICE_ASSISTANT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "212-555-0101")
			tt.mutate(h)
			org := h.orgID
			if tt.orgID != nil {
				org = tt.orgID(h)
			}

			_, err := h.exec.Start(context.Background(), h.campaignID, org)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tt.wantCode), "got %v", err)
			assert.Equal(t, 0, h.voice.count())

			_, found := h.exec.GetState(context.Background(), h.campaignID)
			assert.False(t, found, "failed start leaves no run state behind")
		})
	}
}

func TestExecutor_ControlAcrossInstances(t *testing.T) {
	h := newHarness(t, "212-555-0101", "212-555-0102", "212-555-0103")
	bus := newMemoryBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// both instances share the lease store and the bus
	h.exec = h.newExecutor(zaptest.NewLogger(t), bus, Config{InstanceID: "a"})
	other := h.newExecutor(zaptest.NewLogger(t), bus, Config{InstanceID: "b"})

	go func() { _ = h.exec.Listen(ctx) }()
	go func() { _ = other.Listen(ctx) }()
	<-bus.ready
	<-bus.ready

	entered := make(chan struct{})
	release := make(chan struct{})
	h.voice.hook = func(n int) {
		if n == 1 {
			close(entered)
			<-release
		}
	}

	done := h.startAsync(ctx)
	<-entered

	state, found := other.GetState(ctx, h.campaignID)
	require.True(t, found, "remote instance sees the shared state")
	assert.Equal(t, campaignpkg.RunStateRunning, state)

	_, err := other.Start(ctx, h.campaignID, h.orgID)
	assert.True(t, errors.IsCode(err, "CAMPAIGN_ALREADY_RUNNING"))

	require.NoError(t, other.Pause(ctx, h.campaignID))

	state, _ = h.exec.GetState(ctx, h.campaignID)
	assert.Equal(t, campaignpkg.RunStatePaused, state)
	state, _ = other.GetState(ctx, h.campaignID)
	assert.Equal(t, campaignpkg.RunStatePaused, state)

	close(release)
	r := waitResult(t, done)
	require.NoError(t, r.err)
	assert.Equal(t, HaltPaused, r.summary.HaltReason)
	assert.Equal(t, 1, h.voice.count())
}

func TestExecutor_SignalsForIdleCampaignAreNoops(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, h.exec.Pause(ctx, id))
	require.NoError(t, h.exec.Resume(ctx, id))
	require.NoError(t, h.exec.Stop(ctx, id))

	_, found := h.exec.GetState(ctx, id)
	assert.False(t, found)
	assert.Empty(t, h.exec.Running())
}

func TestNewExecutor_RequiresDependencies(t *testing.T) {
	_, err := NewExecutor(Dependencies{}, DefaultConfig())
	assert.Error(t, err)
}

func TestExecutor_Launch(t *testing.T) {
	h := newHarness(t, "212-555-0101", "212-555-0102")

	require.NoError(t, h.exec.Launch(context.Background(), h.campaignID, h.orgID))
	h.exec.Wait()

	assert.Equal(t, 2, h.calls.count())
	assert.Equal(t, campaignpkg.StatusCompleted, h.campaign().Status)
	assert.Empty(t, h.exec.Running())
}

func TestExecutor_Launch_ValidationErrorsAreSynchronous(t *testing.T) {
	h := newHarness(t, "212-555-0101")

	err := h.exec.Launch(context.Background(), h.campaignID, uuid.New())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))

	h.exec.Wait()
	assert.Zero(t, h.calls.count())
	assert.Empty(t, h.exec.Running())

	_, found, err := h.leases.State(context.Background(), h.campaignID)
	require.NoError(t, err)
	assert.False(t, found, "lease released after a rejected launch")
}
