// Package health provides the liveness/readiness/health HTTP handlers the
// run subcommand exposes alongside /metrics.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

type Response struct {
	Status     Status                 `json:"status"`
	Version    string                 `json:"version,omitempty"`
	Uptime     string                 `json:"uptime,omitempty"`
	Checks     map[string]CheckResult `json:"checks,omitempty"`
	ReportedAt time.Time              `json:"reported_at"`
}

// Checker reports process liveness and database readiness for the run
// subcommand's supervisor loop.
type Checker struct {
	db        *sqlx.DB
	startTime time.Time
	version   string
	mu        sync.RWMutex
	ready     bool
}

func NewChecker(db *sqlx.DB, version string) *Checker {
	return &Checker{db: db, startTime: time.Now(), version: version}
}

// SetReady marks the service as ready to accept readiness checks. The run
// subcommand flips it on when its metrics listener starts, after bootstrap
// has applied migrations.
func (c *Checker) SetReady(ready bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = ready
}

func (c *Checker) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// LivenessHandler reports that the process is running, independent of
// database state.
func (c *Checker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Response{
		Status:     StatusHealthy,
		Version:    c.version,
		Uptime:     time.Since(c.startTime).Round(time.Second).String(),
		ReportedAt: time.Now(),
	})
}

// ReadinessHandler reports whether the service has finished startup and can
// reach the database.
func (c *Checker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	if !c.IsReady() {
		writeJSON(w, http.StatusServiceUnavailable, Response{
			Status:     StatusUnhealthy,
			Version:    c.version,
			ReportedAt: time.Now(),
			Checks: map[string]CheckResult{
				"startup": {Status: StatusUnhealthy, Message: "service is still starting up"},
			},
		})
		return
	}

	check := c.checkDatabase(r.Context())
	status := StatusHealthy
	code := http.StatusOK
	if check.Status == StatusUnhealthy {
		status = StatusUnhealthy
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, Response{
		Status:     status,
		Version:    c.version,
		Uptime:     time.Since(c.startTime).Round(time.Second).String(),
		Checks:     map[string]CheckResult{"database": check},
		ReportedAt: time.Now(),
	})
}

// HealthHandler is the detailed check used by operators, identical to
// ReadinessHandler but without the startup gate.
func (c *Checker) HealthHandler(w http.ResponseWriter, r *http.Request) {
	check := c.checkDatabase(r.Context())
	status := StatusHealthy
	code := http.StatusOK
	if check.Status == StatusUnhealthy {
		status = StatusUnhealthy
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, Response{
		Status:     status,
		Version:    c.version,
		Uptime:     time.Since(c.startTime).Round(time.Second).String(),
		Checks:     map[string]CheckResult{"database": check},
		ReportedAt: time.Now(),
	})
}

func (c *Checker) checkDatabase(ctx context.Context) CheckResult {
	if c.db == nil {
		return CheckResult{Status: StatusUnhealthy, Message: "database not configured"}
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := c.db.PingContext(ctx); err != nil {
		return CheckResult{Status: StatusUnhealthy, Message: err.Error(), Latency: time.Since(start).String()}
	}
	return CheckResult{Status: StatusHealthy, Latency: time.Since(start).String()}
}

// RegisterRoutes wires the three probe endpoints onto mux, the way the run
// subcommand's metrics/health listener does alongside /metrics.
func (c *Checker) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", c.HealthHandler)
	mux.HandleFunc("/livez", c.LivenessHandler)
	mux.HandleFunc("/readyz", c.ReadinessHandler)
}

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
