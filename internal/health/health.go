package health

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/klokku/gcalbridge/internal/rest"
)

const (
	statusOK           = "ok"
	statusNotReady     = "not ready"
	statusShuttingDown = "shutting down"
)

// Checker serves liveness and readiness probes.
type Checker struct {
	ready        atomic.Bool
	shuttingDown atomic.Bool
	startTime    time.Time
}

type Response struct {
	Status string            `json:"status"`
	Uptime string            `json:"uptime,omitempty"`
	Checks map[string]string `json:"checks,omitempty"`
}

// NewChecker returns a Checker that is not ready until SetReady(true) is called.
func NewChecker() *Checker {
	return &Checker{startTime: time.Now()}
}

func (c *Checker) SetReady(ready bool) {
	c.ready.Store(ready)
}

func (c *Checker) SetShuttingDown() {
	c.shuttingDown.Store(true)
	c.ready.Store(false)
}

func (c *Checker) Liveness(w http.ResponseWriter, _ *http.Request) {
	rest.WriteJSON(w, http.StatusOK, Response{
		Status: statusOK,
		Uptime: time.Since(c.startTime).Round(time.Second).String(),
	})
}

func (c *Checker) Readiness(w http.ResponseWriter, _ *http.Request) {
	checks := map[string]string{
		"ready":    statusOK,
		"shutdown": statusOK,
	}
	ok := true
	if !c.ready.Load() {
		checks["ready"] = statusNotReady
		ok = false
	}
	if c.shuttingDown.Load() {
		checks["shutdown"] = statusShuttingDown
		ok = false
	}

	if !ok {
		rest.WriteJSON(w, http.StatusServiceUnavailable, Response{Status: statusNotReady, Checks: checks})
		return
	}
	rest.WriteJSON(w, http.StatusOK, Response{Status: statusOK, Checks: checks})
}
