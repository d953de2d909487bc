// Package health implements liveness and readiness probes with
// Kubernetes-style failure and success thresholds, so a single slow probe
// run does not flip the reported state.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes one component. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

const (
	defaultFailureThreshold = 3
	defaultSuccessThreshold = 1
)

// probe is one registered check plus its sliding state. The state fields are
// guarded by mu; the loop goroutine writes them and HTTP handlers read them.
type probe struct {
	name    string
	timeout time.Duration
	check   CheckFunc

	mu      sync.Mutex
	healthy bool
	lastErr error
	fails   int
	passes  int
}

func newProbe(name string, timeout time.Duration, check CheckFunc) *probe {
	return &probe{
		name:    name,
		timeout: timeout,
		check:   check,
		healthy: true,
	}
}

// execute runs the check once and applies the thresholds.
func (p *probe) execute(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.check(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastErr = err
	if err != nil {
		p.passes = 0
		p.fails++
		if p.fails >= defaultFailureThreshold {
			p.healthy = false
		}
		return
	}
	p.fails = 0
	p.passes++
	if p.passes >= defaultSuccessThreshold {
		p.healthy = true
	}
}

func (p *probe) state() (healthy bool, lastErr error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.healthy, p.lastErr
}

// loop re-executes the probe at the given interval until ctx is cancelled.
func (p *probe) loop(ctx context.Context, interval time.Duration) {
	p.execute(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.execute(ctx)
		}
	}
}

// Service aggregates liveness and readiness probes and serves them over
// HTTP. Register probes before calling Start.
type Service struct {
	ready atomic.Bool

	mu        sync.Mutex
	liveness  []*probe
	readiness []*probe
	cancel    context.CancelFunc
}

// NewService returns a Service in the not-ready state. Call SetReady(true)
// once initialization completes.
func NewService() *Service {
	return &Service{}
}

// AddLiveness registers a liveness probe, used to decide whether the process
// should be restarted.
func (s *Service) AddLiveness(name string, timeout time.Duration, check CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.liveness = append(s.liveness, newProbe(name, timeout, check))
}

// AddReadiness registers a readiness probe, used to decide whether the
// service should receive traffic.
func (s *Service) AddReadiness(name string, timeout time.Duration, check CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readiness = append(s.readiness, newProbe(name, timeout, check))
}

// Start launches one goroutine per registered probe. Stop cancels them.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	probes := make([]*probe, 0, len(s.liveness)+len(s.readiness))
	probes = append(probes, s.liveness...)
	probes = append(probes, s.readiness...)
	s.mu.Unlock()

	for _, p := range probes {
		go p.loop(ctx, interval)
	}
}

// Stop cancels the probe goroutines. Safe to call more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// SetReady flips the manual readiness gate. Set it to false during graceful
// shutdown so load balancers drain the instance.
func (s *Service) SetReady(ready bool) {
	s.ready.Store(ready)
}

// IsReady reports whether the manual gate is open and every readiness probe
// is currently healthy.
func (s *Service) IsReady() bool {
	if !s.ready.Load() {
		return false
	}
	for _, p := range s.snapshot(&s.readiness) {
		if healthy, _ := p.state(); !healthy {
			return false
		}
	}
	return true
}

func (s *Service) snapshot(src *[]*probe) []*probe {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*probe, len(*src))
	copy(out, *src)
	return out
}

type probeResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves the liveness probe. 200 when all liveness checks pass,
// 503 with per-check messages otherwise.
func (s *Service) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeProbeResponse(w, failures(s.snapshot(&s.liveness)))
}

// ReadyEndpoint serves the readiness probe. 200 only when the manual gate is
// open and all readiness checks pass.
func (s *Service) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	f := failures(s.snapshot(&s.readiness))
	if !s.ready.Load() {
		f["_gate"] = "service is not ready"
	}
	writeProbeResponse(w, f)
}

func failures(probes []*probe) map[string]string {
	out := make(map[string]string)
	for _, p := range probes {
		healthy, err := p.state()
		if healthy {
			continue
		}
		if err != nil {
			out[p.name] = err.Error()
		} else {
			out[p.name] = "unhealthy"
		}
	}
	return out
}

func writeProbeResponse(w http.ResponseWriter, f map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	resp := probeResponse{Status: "ok"}
	code := http.StatusOK
	if len(f) > 0 {
		resp.Status = "unhealthy"
		resp.Checks = f
		code = http.StatusServiceUnavailable
	}

	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
