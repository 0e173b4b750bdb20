// Package host assembles the gateway into a running process: the request
// server on its own goroutines, and a single host loop that pumps the tick
// scheduler and dispatches queued messages.
package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/seantiz/lchgate/internal/api"
	"github.com/seantiz/lchgate/internal/backend"
	"github.com/seantiz/lchgate/internal/config"
	"github.com/seantiz/lchgate/internal/engine"
	"github.com/seantiz/lchgate/internal/gateway"
	"github.com/seantiz/lchgate/internal/payload"
	"github.com/seantiz/lchgate/internal/tick"
)

// Host owns one gateway lifecycle.
type Host struct {
	cfg        config.Config
	exec       backend.Executor
	logger     *slog.Logger
	sched      *tick.Scheduler
	gw         *gateway.Gateway
	server     *api.Server
	reporter   *payload.HTTPReporter
	dispatcher *engine.Dispatcher

	mu         sync.Mutex
	dispatchID int
	started    bool
}

// New creates a host. console receives the output of unwrapped messages.
func New(cfg config.Config, exec backend.Executor, logger *slog.Logger, console io.Writer) *Host {
	gw := gateway.New()
	reporter := payload.NewHTTPReporter(nil, logger)
	runner := payload.NewRunner(exec, reporter, logger)

	return &Host{
		cfg:        cfg,
		exec:       exec,
		logger:     logger,
		sched:      tick.NewScheduler(logger, tick.WithMaxBacklog(cfg.MaxBacklog)),
		gw:         gw,
		server:     api.NewServer(cfg.ListenAddr, gw, logger),
		reporter:   reporter,
		dispatcher: engine.NewDispatcher(gw, exec, runner, console, logger),
	}
}

// Start binds the request server and registers the dispatch tick.
func (h *Host) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started {
		return errors.New("host already started")
	}

	if err := h.server.Start(ctx); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	id, err := h.sched.Register(h.cfg.DispatchInterval, h.dispatcher.Tick)
	if err != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		h.server.Shutdown(shutdownCtx)
		return fmt.Errorf("register dispatch tick: %w", err)
	}
	h.dispatchID = id
	h.started = true

	h.logger.Info("host started",
		"addr", h.server.Addr(),
		"executor", h.exec.Capabilities().Name,
		"dispatch_interval", h.cfg.DispatchInterval.String(),
	)
	return nil
}

// Run pumps the scheduler every loop interval until ctx is done. It is the
// host loop: every tick callback runs on the calling goroutine.
func (h *Host) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.cfg.LoopInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			h.sched.RunDueNow()
		}
	}
}

// Stop shuts the server down, removes the dispatch tick and waits for
// in-flight reports.
func (h *Host) Stop(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.started {
		return nil
	}
	h.started = false

	err := h.server.Shutdown(ctx)
	h.sched.Unregister(h.dispatchID)
	h.reporter.Wait()

	h.logger.Info("host stopped", "pending_messages", h.gw.Queue().Len())
	return err
}

// RegisterTick adds a repeating callback to the host loop.
func (h *Host) RegisterTick(interval time.Duration, fn tick.Callback) (int, error) {
	return h.sched.Register(interval, fn)
}

// UnregisterTick removes a callback added with RegisterTick.
func (h *Host) UnregisterTick(id int) bool {
	return h.sched.Unregister(id)
}

// Addr returns the bound server address.
func (h *Host) Addr() string {
	return h.server.Addr()
}

// Gateway returns the host's gateway context.
func (h *Host) Gateway() *gateway.Gateway {
	return h.gw
}
