// Package campaign runs dialing campaigns: one sequential, paced loop per
// campaign with cooperative pause, resume and stop.
package campaign

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/davidleathers/campaign-dialer/internal/domain/audit"
	campaignpkg "github.com/davidleathers/campaign-dialer/internal/domain/campaign"
	"github.com/davidleathers/campaign-dialer/internal/domain/errors"
	"github.com/davidleathers/campaign-dialer/internal/domain/values"
)

const finalizeTimeout = 10 * time.Second

// Config tunes the executor
type Config struct {
	// CallInterval is the minimum spacing between dispatches. Zero disables pacing.
	CallInterval time.Duration
	LeaseTTL     time.Duration
	// InstanceID prefixes lease owner tokens so operators can see which instance runs a campaign
	InstanceID string
}

// DefaultConfig returns production defaults
func DefaultConfig() Config {
	return Config{
		CallInterval: 4 * time.Second,
		LeaseTTL:     30 * time.Second,
		InstanceID:   "dialer",
	}
}

// Dependencies are the collaborators of the executor. Bus, Metrics, Tracer
// and Clock are optional.
type Dependencies struct {
	Campaigns  campaignpkg.Repository
	Contacts   campaignpkg.ContactRepository
	Agents     campaignpkg.AgentRepository
	Calls      CallCounter
	Compliance ComplianceChecker
	Usage      UsageChecker
	Dispatcher CallDispatcher
	Geo        GeoResolver
	Leases     LeaseStore
	Bus        ControlBus
	Metrics    Metrics
	Tracer     trace.Tracer
	Clock      values.Clock
	Logger     *zap.Logger
}

// Executor owns the runners of the campaigns executing on this instance
type Executor struct {
	deps Dependencies
	cfg  Config

	mu      sync.Mutex
	runners map[uuid.UUID]*runner
	wg      sync.WaitGroup
}

// NewExecutor validates dependencies and creates an executor
func NewExecutor(deps Dependencies, cfg Config) (*Executor, error) {
	switch {
	case deps.Campaigns == nil, deps.Contacts == nil, deps.Agents == nil:
		return nil, fmt.Errorf("campaign, contact and agent repositories are required")
	case deps.Calls == nil:
		return nil, fmt.Errorf("call counter is required")
	case deps.Compliance == nil, deps.Usage == nil, deps.Dispatcher == nil:
		return nil, fmt.Errorf("compliance, usage and dispatcher are required")
	case deps.Geo == nil, deps.Leases == nil:
		return nil, fmt.Errorf("geo resolver and lease store are required")
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger is required")
	}

	if deps.Metrics == nil {
		deps.Metrics = noopMetrics{}
	}
	if deps.Tracer == nil {
		deps.Tracer = otel.Tracer("campaign-dialer/executor")
	}
	if deps.Clock == nil {
		deps.Clock = values.RealClock{}
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = DefaultConfig().LeaseTTL
	}
	if cfg.InstanceID == "" {
		cfg.InstanceID = DefaultConfig().InstanceID
	}
	if cfg.CallInterval < 0 {
		cfg.CallInterval = 0
	}

	return &Executor{deps: deps, cfg: cfg, runners: make(map[uuid.UUID]*runner)}, nil
}

// run carries the per-run context through the loop
type run struct {
	r          *runner
	camp       *campaignpkg.Campaign
	agent      *campaignpkg.Agent
	window     values.DailyWindow
	limiter    *rate.Limiter
	contacts   []*campaignpkg.Contact
	callsToday int
	summary    *RunSummary
}

// Start runs the campaign to completion or until halted, on the calling
// goroutine. A second Start for a campaign that is already running anywhere
// returns errors.ErrCampaignRunning.
func (e *Executor) Start(ctx context.Context, campaignID, orgID uuid.UUID) (*RunSummary, error) {
	ctx, s, err := e.begin(ctx, campaignID, orgID)
	if err != nil {
		return nil, err
	}
	return e.execute(ctx, s)
}

// Launch validates and registers the run on the calling goroutine and then
// runs the loop in the background. ctx bounds the whole run, not just the
// validation.
func (e *Executor) Launch(ctx context.Context, campaignID, orgID uuid.UUID) error {
	ctx, s, err := e.begin(ctx, campaignID, orgID)
	if err != nil {
		return err
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if _, err := e.execute(ctx, s); err != nil {
			s.logger.Warn("Background campaign run ended with error", zap.Error(err))
		}
	}()
	return nil
}

// Wait blocks until every launched run has returned
func (e *Executor) Wait() {
	e.wg.Wait()
}

// session is a registered and validated run that has not started dialing
type session struct {
	rn     *run
	span   trace.Span
	logger *zap.Logger
}

func (e *Executor) begin(ctx context.Context, campaignID, orgID uuid.UUID) (context.Context, *session, error) {
	owner := fmt.Sprintf("%s:%s", e.cfg.InstanceID, uuid.NewString())

	r, err := e.register(ctx, campaignID, owner)
	if err != nil {
		return ctx, nil, err
	}

	ctx, span := e.deps.Tracer.Start(ctx, "campaign.run", trace.WithAttributes(
		attribute.String("campaign.id", campaignID.String()),
		attribute.String("organization.id", orgID.String()),
	))

	rn, err := e.prepare(ctx, r, campaignID, orgID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		e.unregister(ctx, r)
		return ctx, nil, err
	}

	logger := e.deps.Logger.With(
		zap.String("campaign_id", campaignID.String()),
		zap.String("org_id", orgID.String()))
	return ctx, &session{rn: rn, span: span, logger: logger}, nil
}

func (e *Executor) execute(ctx context.Context, s *session) (*RunSummary, error) {
	rn, span, logger := s.rn, s.span, s.logger
	defer e.unregister(ctx, rn.r)
	defer span.End()

	logger.Info("Campaign run started",
		zap.Int("pending_contacts", rn.summary.TotalContacts),
		zap.Int("calls_today", rn.callsToday))

	e.deps.Metrics.RunStarted(ctx)

	keepCtx, stopKeeping := context.WithCancel(ctx)
	kept := make(chan struct{})
	go func() {
		defer close(kept)
		e.keepLease(keepCtx, rn.r, logger)
	}()

	halt, loopErr := e.loop(ctx, rn, logger)
	stopKeeping()
	<-kept
	rn.summary.HaltReason = halt
	rn.summary.FinishedAt = e.deps.Clock.Now()
	span.SetAttributes(
		attribute.String("campaign.halt_reason", string(halt)),
		attribute.Int("campaign.calls_attempted", rn.summary.CallsAttempted),
	)
	e.deps.Metrics.RunFinished(ctx, string(halt), rn.summary.FinishedAt.Sub(rn.summary.StartedAt))

	if loopErr != nil {
		span.RecordError(loopErr)
		span.SetStatus(codes.Error, loopErr.Error())
		e.abort(ctx, rn, loopErr, logger)
		return rn.summary, loopErr
	}

	if err := e.finalize(ctx, rn, logger); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.abort(ctx, rn, err, logger)
		return rn.summary, err
	}

	logger.Info("Campaign run finished",
		zap.String("halt_reason", string(halt)),
		zap.Int("attempted", rn.summary.CallsAttempted),
		zap.Int("succeeded", rn.summary.CallsSucceeded),
		zap.Int("failed", rn.summary.CallsFailed),
		zap.Int("skipped", rn.summary.CallsSkipped))

	return rn.summary, nil
}

func (e *Executor) register(ctx context.Context, campaignID uuid.UUID, owner string) (*runner, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.runners[campaignID]; exists {
		return nil, errors.ErrCampaignRunning
	}

	ok, err := e.deps.Leases.Acquire(ctx, campaignID, owner, e.cfg.LeaseTTL)
	if err != nil {
		return nil, errors.NewInternalError("failed to acquire campaign lease").WithCause(err)
	}
	if !ok {
		return nil, errors.ErrCampaignRunning
	}

	r := newRunner(campaignID, owner)
	e.runners[campaignID] = r
	return r, nil
}

func (e *Executor) unregister(ctx context.Context, r *runner) {
	e.mu.Lock()
	if cur, ok := e.runners[r.campaignID]; ok && cur == r {
		delete(e.runners, r.campaignID)
	}
	e.mu.Unlock()

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()
	if err := e.deps.Leases.Release(rctx, r.campaignID, r.owner); err != nil {
		e.deps.Logger.Warn("Failed to release campaign lease",
			zap.String("campaign_id", r.campaignID.String()),
			zap.Error(err))
	}
}

// prepare loads and validates everything the loop needs
func (e *Executor) prepare(ctx context.Context, r *runner, campaignID, orgID uuid.UUID) (*run, error) {
	camp, err := e.deps.Campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if !camp.BelongsTo(orgID) {
		return nil, errors.ErrCampaignNotFound
	}
	if camp.Status.IsTerminal() {
		return nil, errors.ErrCampaignCompleted
	}

	now := e.deps.Clock.Now()
	if !camp.WithinSchedule(now) {
		return nil, errors.ErrOutsideSchedule
	}

	window, err := camp.CallingHours.Window()
	if err != nil {
		return nil, err
	}

	agent, err := e.deps.Agents.GetByID(ctx, camp.AgentID)
	if err != nil {
		return nil, err
	}
	if !agent.HasAssistant() {
		return nil, errors.ErrNoVoiceAssistant
	}

	contacts, err := e.deps.Contacts.ListPending(ctx, camp.ID)
	if err != nil {
		return nil, errors.NewInternalError("failed to load pending contacts").WithCause(err)
	}

	callsToday := 0
	if camp.MaxCallsPerDay > 0 {
		callsToday, err = e.deps.Calls.CountForCampaignSince(ctx, camp.ID, dayStart(now))
		if err != nil {
			return nil, errors.NewInternalError("failed to count today's calls").WithCause(err)
		}
	}

	if camp.Status == campaignpkg.StatusPaused {
		camp.Stats.ResumedAt = &now
	}
	if err := e.deps.Campaigns.UpdateStatus(ctx, camp.ID, campaignpkg.StatusRunning); err != nil {
		return nil, errors.NewInternalError("failed to mark campaign running").WithCause(err)
	}

	limit := rate.Inf
	if e.cfg.CallInterval > 0 {
		limit = rate.Every(e.cfg.CallInterval)
	}
	limiter := rate.NewLimiter(limit, 1)
	// the first dispatch spends the initial token
	limiter.Allow()

	return &run{
		r:          r,
		camp:       camp,
		agent:      agent,
		window:     window,
		limiter:    limiter,
		contacts:   contacts,
		callsToday: callsToday,
		summary: &RunSummary{
			CampaignID:    camp.ID,
			TotalContacts: len(contacts),
			Results:       make([]ContactResult, 0, len(contacts)),
			StartedAt:     now,
		},
	}, nil
}

// loop processes contacts in order until exhausted or halted. A non-nil
// error is an infrastructure failure.
func (e *Executor) loop(ctx context.Context, rn *run, logger *zap.Logger) (HaltReason, error) {
	for i, contact := range rn.contacts {
		switch rn.r.State() {
		case campaignpkg.RunStatePaused:
			return HaltPaused, nil
		case campaignpkg.RunStateStopped:
			return HaltStopped, nil
		}
		if ctx.Err() != nil {
			return HaltCanceled, nil
		}

		if !rn.r.hasLease() {
			logger.Error("Campaign lease lost, halting run")
			rn.summary.Detail = "campaign lease was taken over"
			return HaltLeaseLost, nil
		}
		ok, err := e.deps.Leases.Refresh(ctx, rn.camp.ID, rn.r.owner, e.cfg.LeaseTTL)
		if err != nil {
			logger.Warn("Failed to refresh campaign lease", zap.Error(err))
		} else if !ok {
			logger.Error("Campaign lease lost, halting run")
			rn.summary.Detail = "campaign lease was taken over"
			return HaltLeaseLost, nil
		}

		quota, err := e.deps.Usage.CheckUsageLimits(ctx, rn.camp.OrganizationID)
		if err != nil {
			return HaltError, err
		}
		if !quota.CanCall {
			logger.Info("Usage limit reached, halting run", zap.String("reason", quota.Reason))
			rn.summary.Detail = quota.Reason
			return HaltQuota, nil
		}

		if rn.camp.MaxCallsPerDay > 0 && rn.callsToday >= rn.camp.MaxCallsPerDay {
			logger.Info("Daily call cap reached, halting run",
				zap.Int("max_calls_per_day", rn.camp.MaxCallsPerDay))
			rn.summary.Detail = fmt.Sprintf("daily cap of %d calls reached", rn.camp.MaxCallsPerDay)
			return HaltDailyCap, nil
		}

		result, category, err := e.processContact(ctx, rn, contact, logger)
		if err != nil {
			return HaltError, err
		}
		rn.summary.add(result)
		e.deps.Metrics.ContactProcessed(ctx, string(result.Outcome), category)

		if i == len(rn.contacts)-1 || rn.r.State() != campaignpkg.RunStateRunning {
			continue
		}
		if result.Outcome != OutcomeCalled && category != categoryDispatch {
			// no provider request was made
			continue
		}
		if err := e.pace(ctx, rn); err != nil {
			return HaltCanceled, nil
		}
	}

	if !rn.r.hasLease() {
		rn.summary.Detail = "campaign lease was taken over"
		return HaltLeaseLost, nil
	}
	switch rn.r.State() {
	case campaignpkg.RunStatePaused:
		return HaltPaused, nil
	case campaignpkg.RunStateStopped:
		return HaltStopped, nil
	}
	return HaltExhausted, nil
}

// processContact applies the compliance gates and dispatches one contact.
// It returns the result and a metrics category.
func (e *Executor) processContact(ctx context.Context, rn *run, contact *campaignpkg.Contact, logger *zap.Logger) (ContactResult, string, error) {
	ctx, span := e.deps.Tracer.Start(ctx, "campaign.contact", trace.WithAttributes(
		attribute.String("contact.id", contact.ID.String()),
	))
	defer span.End()

	result := ContactResult{ContactID: contact.ID, Phone: contact.PhoneNumber}
	clog := logger.With(zap.String("contact_id", contact.ID.String()))

	loc := e.deps.Geo.Resolve(contact.PhoneNumber)
	if loc.Fallback {
		clog.Warn("Area code not mapped, using default jurisdiction",
			zap.String("area_code", loc.AreaCode),
			zap.String("state", loc.State),
			zap.String("timezone", loc.Timezone))
	}
	span.SetAttributes(attribute.String("contact.state", loc.State))

	dncResult, err := e.deps.Compliance.CheckDNC(ctx, contact.PhoneNumber, rn.camp.OrganizationID)
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeValidation) {
			moved, uerr := e.setStatus(ctx, contact.ID, campaignpkg.ContactFailed)
			if uerr != nil {
				return result, "", errors.NewInternalError("failed to mark contact failed").WithCause(uerr)
			}
			if !moved {
				return notPending(result), categoryNotPending, nil
			}
			result.Outcome = OutcomeFailed
			result.Detail = "invalid phone number"
			return result, "invalid_phone", nil
		}
		span.RecordError(err)
		return result, "", err
	}

	if dncResult.IsBlocked {
		if _, err := e.setStatus(ctx, contact.ID, campaignpkg.ContactDNC); err != nil {
			return result, "", errors.NewInternalError("failed to mark contact dnc").WithCause(err)
		}
		e.audit(ctx, rn, contact, audit.KindDNCBlock, dncResult.Reason)
		result.Outcome = OutcomeSkipped
		result.Detail = "DNC: " + dncResult.Reason
		return result, "dnc", nil
	}

	hours := e.deps.Compliance.CheckCallingHoursWithin(loc.State, loc.Timezone, rn.window)
	if !hours.CanCall {
		e.audit(ctx, rn, contact, audit.KindCallingHoursBlock, hours.Reason)
		result.Outcome = OutcomeSkipped
		result.Detail = "calling hours: " + hours.Reason
		return result, "calling_hours", nil
	}

	res, err := e.deps.Dispatcher.PlaceCall(ctx, contact, rn.camp, rn.agent)
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeConfiguration) {
			result.Outcome = OutcomeFailed
			result.Detail = "configuration error: " + configMessage(err)
			return result, "configuration", nil
		}
		span.RecordError(err)
		return result, "", err
	}

	if res.Skipped {
		return notPending(result), categoryNotPending, nil
	}
	if !res.Success {
		result.Outcome = OutcomeFailed
		result.Detail = res.Error
		if !res.Attempted {
			return result, "invalid_phone", nil
		}
		return result, categoryDispatch, nil
	}

	rn.callsToday++
	result.Outcome = OutcomeCalled
	result.Detail = res.ExternalCallID
	span.SetAttributes(attribute.String("call.external_id", res.ExternalCallID))
	return result, "", nil
}

const (
	categoryDispatch   = "dispatch"
	categoryNotPending = "not_pending"
)

// setStatus applies a contact transition. It reports false, without error,
// when the contact already left the statuses that may move to status.
func (e *Executor) setStatus(ctx context.Context, contactID uuid.UUID, status campaignpkg.ContactStatus) (bool, error) {
	err := e.deps.Contacts.UpdateStatus(ctx, contactID, status)
	switch {
	case err == nil:
		return true, nil
	case errors.IsCode(err, errors.ErrContactState.Code):
		return false, nil
	default:
		return false, err
	}
}

func notPending(result ContactResult) ContactResult {
	result.Outcome = OutcomeSkipped
	result.Detail = "contact is no longer pending"
	return result
}

// keepLease refreshes the run's lease every third of its TTL until ctx is
// done, so long dispatches and pacing waits keep ownership. A refused refresh
// marks the lease lost and wakes the loop.
func (e *Executor) keepLease(ctx context.Context, r *runner, logger *zap.Logger) {
	ticker := time.NewTicker(max(e.cfg.LeaseTTL/3, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		ok, err := e.deps.Leases.Refresh(ctx, r.campaignID, r.owner, e.cfg.LeaseTTL)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			logger.Warn("Failed to refresh campaign lease", zap.Error(err))
		case !ok:
			r.loseLease()
			return
		}
	}
}

// pace waits for the next dispatch token. A pause or stop ends the wait early.
func (e *Executor) pace(ctx context.Context, rn *run) error {
	res := rn.limiter.Reserve()
	delay := res.Delay()
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-rn.r.wake:
		res.Cancel()
		return nil
	case <-ctx.Done():
		res.Cancel()
		return ctx.Err()
	}
}

// finalize persists stats and the resulting campaign status
func (e *Executor) finalize(ctx context.Context, rn *run, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()

	now := e.deps.Clock.Now()
	stats := e.accumulate(rn, now)

	pending, err := e.deps.Contacts.CountPending(ctx, rn.camp.ID)
	if err != nil {
		return errors.NewInternalError("failed to count pending contacts").WithCause(err)
	}

	status := campaignpkg.StatusPaused
	if pending == 0 {
		status = campaignpkg.StatusCompleted
		stats.CompletedAt = &now
	} else {
		stats.PausedAt = &now
	}

	if err := e.deps.Campaigns.UpdateStats(ctx, rn.camp.ID, stats); err != nil {
		return errors.NewInternalError("failed to persist campaign stats").WithCause(err)
	}
	if err := e.deps.Campaigns.UpdateStatus(ctx, rn.camp.ID, status); err != nil {
		return errors.NewInternalError("failed to update campaign status").WithCause(err)
	}

	logger.Debug("Campaign finalized",
		zap.String("status", status.String()),
		zap.Int("pending_contacts", pending))
	return nil
}

// abort forces the campaign to paused after an infrastructure failure
func (e *Executor) abort(ctx context.Context, rn *run, cause error, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()

	now := e.deps.Clock.Now()
	rn.summary.HaltReason = HaltError
	rn.summary.Detail = cause.Error()

	logger.Error("Campaign run aborted, forcing paused", zap.Error(cause))

	stats := e.accumulate(rn, now)
	stats.PausedAt = &now
	if err := e.deps.Campaigns.UpdateStats(ctx, rn.camp.ID, stats); err != nil {
		logger.Error("Failed to persist partial stats", zap.Error(err))
	}
	if err := e.deps.Campaigns.UpdateStatus(ctx, rn.camp.ID, campaignpkg.StatusPaused); err != nil {
		logger.Error("Failed to force campaign paused", zap.Error(err))
	}
}

// accumulate adds this run's counters to the campaign's stored stats
func (e *Executor) accumulate(rn *run, now time.Time) campaignpkg.RunStats {
	stats := rn.camp.Stats
	stats.Attempted += rn.summary.CallsAttempted
	stats.Succeeded += rn.summary.CallsSucceeded
	stats.Failed += rn.summary.CallsFailed
	stats.Skipped += rn.summary.CallsSkipped
	stats.LastRunAt = &now
	return stats
}

func (e *Executor) audit(ctx context.Context, rn *run, contact *campaignpkg.Contact, kind audit.Kind, reason string) {
	event, err := audit.NewComplianceEvent(rn.camp.OrganizationID, kind, contact.PhoneNumber, reason, e.deps.Clock.Now())
	if err != nil {
		e.deps.Logger.Warn("Failed to build compliance event", zap.Error(err))
		return
	}
	e.deps.Compliance.RecordEvent(ctx, event.ForContact(rn.camp.ID, contact.ID))
}

// Pause asks the campaign to halt at its next iteration boundary
func (e *Executor) Pause(ctx context.Context, campaignID uuid.UUID) error {
	return e.signal(ctx, Signal{CampaignID: campaignID, Action: ActionPause})
}

// Resume flips a paused runner back to running. It does not restart a loop
// that already exited; call Start for that.
func (e *Executor) Resume(ctx context.Context, campaignID uuid.UUID) error {
	return e.signal(ctx, Signal{CampaignID: campaignID, Action: ActionResume})
}

// Stop asks the campaign to exit, leaving untouched contacts pending
func (e *Executor) Stop(ctx context.Context, campaignID uuid.UUID) error {
	return e.signal(ctx, Signal{CampaignID: campaignID, Action: ActionStop})
}

// signal applies the action locally when this instance runs the campaign and
// otherwise publishes it for the instance that does
func (e *Executor) signal(ctx context.Context, sig Signal) error {
	if e.applyLocal(ctx, sig) {
		return nil
	}
	if e.deps.Bus == nil {
		return nil
	}
	if err := e.deps.Bus.Publish(ctx, sig); err != nil {
		return errors.NewInternalError("failed to publish control signal").WithCause(err)
	}
	return nil
}

func (e *Executor) applyLocal(ctx context.Context, sig Signal) bool {
	e.mu.Lock()
	r, ok := e.runners[sig.CampaignID]
	e.mu.Unlock()
	if !ok {
		return false
	}

	state := r.apply(sig.Action)
	e.deps.Logger.Info("Campaign control signal applied",
		zap.String("campaign_id", sig.CampaignID.String()),
		zap.String("action", string(sig.Action)),
		zap.String("state", state.String()))

	if err := e.deps.Leases.SetState(ctx, sig.CampaignID, r.owner, state); err != nil {
		e.deps.Logger.Warn("Failed to mirror run state",
			zap.String("campaign_id", sig.CampaignID.String()),
			zap.Error(err))
	}
	return true
}

// Listen applies control signals published by other instances until ctx is done
func (e *Executor) Listen(ctx context.Context) error {
	if e.deps.Bus == nil {
		<-ctx.Done()
		return nil
	}
	return e.deps.Bus.Subscribe(ctx, func(sig Signal) {
		e.applyLocal(ctx, sig)
	})
}

// GetState reports the run state of a campaign on any instance. The second
// result is false when the campaign is not running anywhere.
func (e *Executor) GetState(ctx context.Context, campaignID uuid.UUID) (campaignpkg.RunState, bool) {
	e.mu.Lock()
	r, ok := e.runners[campaignID]
	e.mu.Unlock()
	if ok {
		return r.State(), true
	}

	state, found, err := e.deps.Leases.State(ctx, campaignID)
	if err != nil {
		e.deps.Logger.Warn("Failed to read shared run state",
			zap.String("campaign_id", campaignID.String()),
			zap.Error(err))
		return "", false
	}
	return state, found
}

// Running lists the campaigns executing on this instance
func (e *Executor) Running() []uuid.UUID {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make([]uuid.UUID, 0, len(e.runners))
	for id := range e.runners {
		ids = append(ids, id)
	}
	return ids
}

func configMessage(err error) string {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.Message
	}
	return err.Error()
}

func dayStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
