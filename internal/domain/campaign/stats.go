package campaign

import (
	"encoding/json"
	"time"
)

// RunStats is the persisted summary of the most recent executor runs.
// Decoding ignores unknown keys so older rows with extra fields still load.
type RunStats struct {
	Attempted   int        `json:"attempted"`
	Succeeded   int        `json:"succeeded"`
	Failed      int        `json:"failed"`
	Skipped     int        `json:"skipped"`
	LastRunAt   *time.Time `json:"last_run_at,omitempty"`
	PausedAt    *time.Time `json:"paused_at,omitempty"`
	ResumedAt   *time.Time `json:"resumed_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// DecodeRunStats decodes a JSONB stats column. Empty input decodes to zero stats.
func DecodeRunStats(data []byte) (RunStats, error) {
	var s RunStats
	if len(data) == 0 || string(data) == "null" {
		return s, nil
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return RunStats{}, err
	}
	return s, nil
}

// Encode returns the JSONB representation
func (s RunStats) Encode() ([]byte, error) {
	return json.Marshal(s)
}
