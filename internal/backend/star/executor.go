package star

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/seantiz/lchgate/internal/backend"
)

// Name is the registry name of this executor.
const Name = "starlark"

// DefaultMaxSteps bounds a single execution when no budget is configured.
const DefaultMaxSteps = 10_000_000

// fileOptions enables the Python-like features payloads commonly rely on.
var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

var _ backend.Executor = (*Executor)(nil)

// Executor runs Starlark sources.
type Executor struct {
	maxSteps uint64
}

// New creates a Starlark executor. A zero maxSteps selects DefaultMaxSteps.
func New(maxSteps uint64) *Executor {
	if maxSteps == 0 {
		maxSteps = DefaultMaxSteps
	}
	return &Executor{maxSteps: maxSteps}
}

// Capabilities reports the interpreter and its step budget.
func (e *Executor) Capabilities() backend.Capabilities {
	names := []string{"print"}
	for name := range starlark.Universe {
		names = append(names, name)
	}
	sort.Strings(names)

	return backend.Capabilities{
		Name:        Name,
		Description: "sandboxed Starlark interpreter",
		Builtins:    names,
		MaxSteps:    e.maxSteps,
	}
}

// Execute runs spec.Source as a Starlark file. print output goes to
// spec.Output; spec.Builtins are predeclared as one-string-argument functions.
// Cancelling ctx interrupts the interpreter at the next step.
func (e *Executor) Execute(ctx context.Context, spec backend.ExecSpec) error {
	name := spec.Name
	if name == "" {
		name = "source"
	}

	out := backend.OutputOrDiscard(spec.Output)
	thread := &starlark.Thread{
		Name:  name,
		Print: func(_ *starlark.Thread, msg string) { fmt.Fprintln(out, msg) },
	}
	thread.SetMaxExecutionSteps(e.maxSteps)

	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(context.Cause(ctx).Error())
	})
	defer stop()

	predeclared := starlark.StringDict{
		"print": newPrint(out),
	}
	for bname, fn := range spec.Builtins {
		predeclared[bname] = newHostBuiltin(ctx, bname, fn)
	}

	_, err := starlark.ExecFileOptions(fileOptions, thread, name+".star", spec.Source, predeclared)
	if err == nil {
		return nil
	}

	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		return &backend.ExecError{
			Message:   evalErr.Msg,
			Traceback: evalErr.Backtrace(),
			Err:       err,
		}
	}
	// Syntax and resolve errors carry their own position.
	return &backend.ExecError{
		Message:   err.Error(),
		Traceback: err.Error(),
		Err:       err,
	}
}

// newHostBuiltin exposes fn to Starlark as name(arg).
func newHostBuiltin(ctx context.Context, name string, fn backend.Builtin) *starlark.Builtin {
	return starlark.NewBuiltin(name, func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var arg string
		if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &arg); err != nil {
			return nil, err
		}
		if err := fn(ctx, arg); err != nil {
			return nil, err
		}
		return starlark.None, nil
	})
}
