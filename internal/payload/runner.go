package payload

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/seantiz/lchgate/internal/backend"
)

// Runner executes decoded payloads and reports their outcome.
type Runner struct {
	exec     backend.Executor
	reporter Reporter
	logger   *slog.Logger
}

// NewRunner creates a Runner that executes with exec and reports through reporter.
func NewRunner(exec backend.Executor, reporter Reporter, logger *slog.Logger) *Runner {
	return &Runner{exec: exec, reporter: reporter, logger: logger}
}

// Run decodes the envelope, executes its code and reports exactly once.
// A failure of the code itself becomes the reported result; only a
// malformed envelope is returned as an error, in which case nothing is
// reported because there is no target.
func (r *Runner) Run(ctx context.Context, encoded string) error {
	block, err := Decode(encoded)
	if err != nil {
		return err
	}

	var (
		out    bytes.Buffer
		result string
	)
	err = r.exec.Execute(ctx, backend.ExecSpec{
		Name:   "payload",
		Source: block.Code,
		Output: &out,
	})
	if err != nil {
		r.logger.Info("payload failed", "error", err)
		result = backend.Describe(err)
	} else {
		result = out.String()
	}

	r.reporter.Report(block.Target(), result)
	return nil
}

// Builtin exposes Run as the EntryPoint host builtin.
func (r *Runner) Builtin() backend.Builtin {
	return r.Run
}
