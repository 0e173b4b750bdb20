package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/seantiz/lchgate/internal/backend"
	"github.com/seantiz/lchgate/internal/gateway"
	"github.com/seantiz/lchgate/internal/payload"
)

const (
	outcomeOK     = "ok"
	outcomeFailed = "failed"
)

// Dispatcher drains the gateway queue into an executor.
type Dispatcher struct {
	gw      *gateway.Gateway
	exec    backend.Executor
	runner  *payload.Runner
	console io.Writer
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher. Output of unwrapped messages goes to
// console; wrapped payloads are handed to runner through the entry point builtin.
func NewDispatcher(gw *gateway.Gateway, exec backend.Executor, runner *payload.Runner, console io.Writer, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		gw:      gw,
		exec:    exec,
		runner:  runner,
		console: backend.OutputOrDiscard(console),
		logger:  logger,
	}
}

// Tick dispatches at most one message. It is a tick.Callback.
// An execution failure is returned so the scheduler can log it; a wrapped
// payload never fails here because its outcome is reported instead.
func (d *Dispatcher) Tick() error {
	msg, ok := d.gw.Queue().PopNonBlocking()
	if !ok {
		d.logger.Debug("no message in queue")
		return nil
	}

	executor := d.exec.Capabilities().Name
	d.logger.Info("dispatching message",
		"message_id", msg.ID,
		"executor", executor,
		"queued_ms", time.Since(msg.EnqueuedAt).Milliseconds(),
	)

	start := time.Now()
	err := d.exec.Execute(context.Background(), backend.ExecSpec{
		Name:   "message",
		Source: msg.Body,
		Output: d.console,
		Builtins: map[string]backend.Builtin{
			payload.EntryPoint: d.runner.Builtin(),
		},
	})
	executionDuration.WithLabelValues(executor).Observe(time.Since(start).Seconds())

	if err != nil {
		executionsTotal.WithLabelValues(executor, outcomeFailed).Inc()
		return fmt.Errorf("execute message %s: %w", msg.ID, err)
	}
	executionsTotal.WithLabelValues(executor, outcomeOK).Inc()
	return nil
}
