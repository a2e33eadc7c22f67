package values

import (
	"fmt"
	"strconv"
	"strings"
)

// DailyWindow is a half-open [Start, End) range of minutes within a local day
type DailyWindow struct {
	StartMinute int
	EndMinute   int
}

// HourWindow builds a DailyWindow from whole hours
func HourWindow(startHour, endHour int) DailyWindow {
	return DailyWindow{StartMinute: startHour * 60, EndMinute: endHour * 60}
}

// ParseDailyWindow parses "HH:mm" bounds. Malformed input is an error; there is
// no fallback to midnight.
func ParseDailyWindow(start, end string) (DailyWindow, error) {
	s, err := ParseClockMinutes(start)
	if err != nil {
		return DailyWindow{}, fmt.Errorf("invalid window start: %w", err)
	}
	e, err := ParseClockMinutes(end)
	if err != nil {
		return DailyWindow{}, fmt.Errorf("invalid window end: %w", err)
	}
	if e <= s {
		return DailyWindow{}, fmt.Errorf("window end %q must be after start %q", end, start)
	}
	return DailyWindow{StartMinute: s, EndMinute: e}, nil
}

// ParseClockMinutes converts a 24h "HH:mm" string to minutes after midnight.
// "24:00" is accepted as end of day.
func ParseClockMinutes(v string) (int, error) {
	parts := strings.Split(strings.TrimSpace(v), ":")
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[0]) > 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%q is not in HH:mm format", v)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%q has a non-numeric hour", v)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%q has non-numeric minutes", v)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("%q is out of range", v)
	}
	return h*60 + m, nil
}

// Contains reports whether minuteOfDay falls inside the window
func (w DailyWindow) Contains(minuteOfDay int) bool {
	return minuteOfDay >= w.StartMinute && minuteOfDay < w.EndMinute
}

// Intersect narrows w by other. The result may be empty.
func (w DailyWindow) Intersect(other DailyWindow) DailyWindow {
	out := w
	if other.StartMinute > out.StartMinute {
		out.StartMinute = other.StartMinute
	}
	if other.EndMinute < out.EndMinute {
		out.EndMinute = other.EndMinute
	}
	return out
}

// IsEmpty reports whether no minute of the day is inside the window
func (w DailyWindow) IsEmpty() bool {
	return w.EndMinute <= w.StartMinute
}

// String renders the window as "HH:mm-HH:mm"
func (w DailyWindow) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d",
		w.StartMinute/60, w.StartMinute%60, w.EndMinute/60, w.EndMinute%60)
}
