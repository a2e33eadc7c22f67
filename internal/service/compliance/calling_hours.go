package compliance

import (
	"fmt"
	"time"

	"github.com/davidleathers/campaign-dialer/internal/domain/geo"
	"github.com/davidleathers/campaign-dialer/internal/domain/values"
)

// DefaultCallingWindow is the federal 8:00-21:00 local window
var DefaultCallingWindow = values.HourWindow(8, 21)

// stricter state windows
var stateCallingWindows = map[string]values.DailyWindow{
	"CA": values.HourWindow(8, 20),
	"HI": values.HourWindow(8, 20),
	"AK": values.HourWindow(8, 20),
}

// twoPartyConsentStates require every party to agree to call recording
var twoPartyConsentStates = map[string]struct{}{
	"CA": {}, "CT": {}, "FL": {}, "IL": {}, "MD": {}, "MA": {}, "MI": {},
	"MT": {}, "NV": {}, "NH": {}, "OR": {}, "PA": {}, "WA": {},
}

// HoursPolicy evaluates state calling windows against a clock
type HoursPolicy struct {
	clock         values.Clock
	defaultWindow values.DailyWindow
	byState       map[string]values.DailyWindow
}

// NewHoursPolicy builds a policy from the built-in state table. Overrides
// replace individual state windows.
func NewHoursPolicy(clock values.Clock, overrides map[string]values.DailyWindow) *HoursPolicy {
	byState := make(map[string]values.DailyWindow, len(stateCallingWindows)+len(overrides))
	for s, w := range stateCallingWindows {
		byState[s] = w
	}
	for s, w := range overrides {
		byState[s] = w
	}
	return &HoursPolicy{clock: clock, defaultWindow: DefaultCallingWindow, byState: byState}
}

// WindowFor returns the calling window of a state
func (p *HoursPolicy) WindowFor(state string) values.DailyWindow {
	if w, ok := p.byState[state]; ok {
		return w
	}
	return p.defaultWindow
}

// CheckCallingHours checks the state window at the current time in timezone
func (p *HoursPolicy) CheckCallingHours(state, timezone string) HoursResult {
	return p.CheckCallingHoursWithin(state, timezone, values.HourWindow(0, 24))
}

// CheckCallingHoursWithin checks the intersection of the state window and an
// additional campaign window. An invalid timezone falls back to the default zone.
func (p *HoursPolicy) CheckCallingHoursWithin(state, timezone string, campaignWindow values.DailyWindow) HoursResult {
	loc, err := time.LoadLocation(timezone)
	if err != nil || timezone == "" {
		loc, _ = time.LoadLocation(geo.DefaultTimezone)
	}

	window := p.WindowFor(state).Intersect(campaignWindow)
	local := p.clock.Now().In(loc)
	result := HoursResult{Window: window, Timezone: loc.String()}

	if window.IsEmpty() {
		result.Reason = fmt.Sprintf("campaign calling hours do not overlap the %s window (%s)", state, p.WindowFor(state))
		return result
	}

	minute := local.Hour()*60 + local.Minute()
	if window.Contains(minute) {
		result.CanCall = true
		return result
	}

	result.Reason = fmt.Sprintf("outside calling hours (%s %s), local time %s", window, loc, local.Format("15:04"))
	next := nextWindowStart(local, window, minute)
	result.NextAvailableTime = &next
	return result
}

func nextWindowStart(local time.Time, window values.DailyWindow, minute int) time.Time {
	y, m, d := local.Date()
	start := time.Date(y, m, d, window.StartMinute/60, window.StartMinute%60, 0, 0, local.Location())
	if minute < window.StartMinute {
		return start
	}
	return time.Date(y, m, d+1, window.StartMinute/60, window.StartMinute%60, 0, 0, local.Location())
}

// RequiresTwoPartyConsent reports whether recording a call into state needs both parties' consent
func RequiresTwoPartyConsent(state string) bool {
	_, ok := twoPartyConsentStates[state]
	return ok
}
