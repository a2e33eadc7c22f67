package campaign

// RunState is the in-memory state of an executing campaign run
type RunState string

const (
	RunStateRunning RunState = "running"
	RunStatePaused  RunState = "paused"
	RunStateStopped RunState = "stopped"
)

func (s RunState) String() string {
	return string(s)
}

// ParseRunState returns false for unknown values
func ParseRunState(v string) (RunState, bool) {
	switch RunState(v) {
	case RunStateRunning, RunStatePaused, RunStateStopped:
		return RunState(v), true
	default:
		return "", false
	}
}
