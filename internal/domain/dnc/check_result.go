package dnc

// CheckResult is the outcome of a DNC lookup for one number
type CheckResult struct {
	IsBlocked bool   `json:"is_blocked"`
	Reason    string `json:"reason,omitempty"`
	Source    Source `json:"source,omitempty"`
}

// ResultFor converts a lookup into a CheckResult. A nil entry is not blocked.
func ResultFor(e *Entry) CheckResult {
	if e == nil {
		return CheckResult{}
	}
	reason := e.Reason
	if reason == "" {
		reason = "number is on the " + e.Source.String() + " do not call list"
	}
	return CheckResult{IsBlocked: true, Reason: reason, Source: e.Source}
}
