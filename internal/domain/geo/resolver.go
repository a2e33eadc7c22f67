// Package geo maps phone numbers to an approximate US jurisdiction.
//
// The mapping is a static NANP area-code table. It is an approximation, not
// authoritative geolocation: ported numbers and mobile subscribers who moved
// keep their original area code.
package geo

import (
	"github.com/davidleathers/campaign-dialer/internal/domain/values"
)

// Default jurisdiction used when an area code is not in the table
const (
	DefaultState    = "NY"
	DefaultTimezone = "America/New_York"
)

// Location is the resolved jurisdiction of a phone number
type Location struct {
	State    string `json:"state"`
	Timezone string `json:"timezone"`
	// Fallback is true when the area code was unmapped and the default was used
	Fallback bool   `json:"fallback"`
	AreaCode string `json:"area_code,omitempty"`
}

// Resolver resolves phone numbers against the area-code table
type Resolver struct {
	byAreaCode map[string]Location
}

// NewResolver builds a resolver from the built-in table
func NewResolver() *Resolver {
	idx := make(map[string]Location, 400)
	for state, codes := range areaCodesByState {
		tz := stateTimezones[state]
		for _, code := range codes {
			loc := Location{State: state, Timezone: tz, AreaCode: code}
			if override, ok := areaCodeTimezoneOverrides[code]; ok {
				loc.Timezone = override
			}
			idx[code] = loc
		}
	}
	return &Resolver{byAreaCode: idx}
}

// Resolve maps phone to a state and timezone. It never fails: unmapped or
// non-NANP numbers resolve to the default with Fallback set.
func (r *Resolver) Resolve(phone string) Location {
	code := values.AreaCode(phone)
	if loc, ok := r.byAreaCode[code]; ok {
		return loc
	}
	return Location{State: DefaultState, Timezone: DefaultTimezone, Fallback: true, AreaCode: code}
}

// TimezoneForState returns the dominant zone for a state, or the default zone
func TimezoneForState(state string) string {
	if tz, ok := stateTimezones[state]; ok {
		return tz
	}
	return DefaultTimezone
}

var defaultResolver = NewResolver()

// ResolveGeography resolves phone with the package-level resolver
func ResolveGeography(phone string) Location {
	return defaultResolver.Resolve(phone)
}
