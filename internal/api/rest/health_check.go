package rest

import (
	"context"
	"net/http"
	"sync"
	"time"
)

const healthTimeout = 3 * time.Second

// HealthStatus represents the health status
type HealthStatus string

const (
	HealthStatusPass HealthStatus = "pass"
	HealthStatusFail HealthStatus = "fail"
)

// HealthResponse is the body of /healthz
type HealthResponse struct {
	Status HealthStatus            `json:"status"`
	Checks map[string]HealthResult `json:"checks"`
	Uptime string                  `json:"uptime"`
}

// HealthResult is the outcome of one dependency check
type HealthResult struct {
	Status       HealthStatus `json:"status"`
	Error        string       `json:"error,omitempty"`
	ResponseTime string       `json:"response_time"`
}

// HealthHandler runs every registered checker concurrently
type HealthHandler struct {
	*baseHandler
	checkers  []HealthChecker
	startTime time.Time
}

func newHealthHandler(base *baseHandler, checkers []HealthChecker) *HealthHandler {
	return &HealthHandler{baseHandler: base, checkers: checkers, startTime: time.Now()}
}

// Healthz returns 200 when every dependency passes and 503 otherwise
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := HealthResponse{
		Status: HealthStatusPass,
		Checks: make(map[string]HealthResult, len(h.checkers)),
		Uptime: time.Since(h.startTime).Round(time.Second).String(),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, c := range h.checkers {
		wg.Add(1)
		go func(c HealthChecker) {
			defer wg.Done()
			start := time.Now()
			err := c.Check(ctx)
			result := HealthResult{Status: HealthStatusPass, ResponseTime: time.Since(start).String()}
			if err != nil {
				result.Status = HealthStatusFail
				result.Error = err.Error()
			}

			mu.Lock()
			resp.Checks[c.Name()] = result
			if err != nil {
				resp.Status = HealthStatusFail
			}
			mu.Unlock()
		}(c)
	}
	wg.Wait()

	if resp.Status != HealthStatusPass {
		h.write(w, r, http.StatusServiceUnavailable, ResponseEnvelope{Success: false, Data: resp, Meta: responseMeta(r)})
		return
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

// PingChecker adapts a ping function into a HealthChecker
type PingChecker struct {
	name string
	ping func(ctx context.Context) error
}

// NewPingChecker creates a checker named name
func NewPingChecker(name string, ping func(ctx context.Context) error) *PingChecker {
	return &PingChecker{name: name, ping: ping}
}

func (p *PingChecker) Name() string { return p.name }

func (p *PingChecker) Check(ctx context.Context) error { return p.ping(ctx) }
