package backend

import (
	"context"
	"errors"
	"io"
)

// Executor is the interface that all execution backends must implement.
type Executor interface {
	// Execute runs spec.Source, writing any text the source emits to spec.Output.
	// A failure raised by the source itself is returned as an *ExecError.
	Execute(ctx context.Context, spec ExecSpec) error

	// Capabilities describes the executor.
	Capabilities() Capabilities
}

// Builtin is a host function a payload may call with a single string argument.
type Builtin func(ctx context.Context, arg string) error

// ExecSpec describes one execution.
type ExecSpec struct {
	// Name labels the source in diagnostics.
	Name string

	// Source is the text to execute.
	Source string

	// Output receives everything the source prints. Nil discards it.
	Output io.Writer

	// Builtins are extra host functions visible to the source by name.
	Builtins map[string]Builtin
}

// Capabilities describes what an executor offers.
type Capabilities struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Builtins    []string `json:"builtins"`
	MaxSteps    uint64   `json:"max_steps,omitempty"`
}

// ExecError is a failure raised by executed source. Traceback is the
// human-readable diagnostic, equivalent to a stack trace.
type ExecError struct {
	Message   string
	Traceback string
	Err       error
}

func (e *ExecError) Error() string {
	return e.Message
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// Describe renders err as the text a caller should see in place of output:
// the traceback for an *ExecError, the error string otherwise.
func Describe(err error) string {
	var execErr *ExecError
	if errors.As(err, &execErr) && execErr.Traceback != "" {
		return execErr.Traceback
	}
	return err.Error()
}

// OutputOrDiscard returns w, or io.Discard when w is nil.
func OutputOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
