package orchestrator

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// loopStatus is one loop's last-observed run outcome, polled by `router
// status` over the admin HTTP surface.
type loopStatus struct {
	Running  bool      `json:"running"`
	LastTick time.Time `json:"last_tick"`
	LastErr  string    `json:"last_err,omitempty"`
}

// health tracks every named loop's status behind a mutex; it is the "loop
// health registry" the router status subcommand queries, in process
// instead of by shelling out to the running server.
type health struct {
	mu    sync.RWMutex
	loops map[string]loopStatus
}

func newHealth(names ...string) *health {
	h := &health{loops: make(map[string]loopStatus, len(names))}
	for _, n := range names {
		h.loops[n] = loopStatus{}
	}
	return h
}

func (h *health) markRunning(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loops[name] = loopStatus{Running: true, LastTick: time.Now()}
}

func (h *health) markStopped(name string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.loops[name]
	s.Running = false
	s.LastTick = time.Now()
	if err != nil {
		s.LastErr = err.Error()
	}
	h.loops[name] = s
}

func (h *health) snapshot() map[string]loopStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]loopStatus, len(h.loops))
	for k, v := range h.loops {
		out[k] = v
	}
	return out
}

// runTracked runs fn until it returns, recording the loop as running for
// the duration so a concurrent /healthz request sees it, then recording
// the outcome (on cancellation fn returns ctx.Err(), recorded like any
// other error).
func (h *health) runTracked(name string, fn func() error) error {
	h.markRunning(name)
	err := fn()
	h.markStopped(name, err)
	return err
}

// adminServer exposes /healthz (loop status JSON) and /metrics
// (promhttp) on its own echo instance (the same labstack/echo stack the
// bridge webhook receiver uses), so ops tooling scrapes one admin address
// for the whole process.
type adminServer struct {
	echo *echo.Echo
	addr string
}

func newAdminServer(addr string, o *Orchestrator) *adminServer {
	e := echo.New()
	e.HideBanner = true
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, o.health.snapshot())
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(o.metrics.Registry(), promhttp.HandlerOpts{})))
	return &adminServer{echo: e, addr: addr}
}

func (a *adminServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- a.echo.Start(a.addr) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.echo.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
