// Package command implements a restricted command-set executor. A source is a
// sequence of lines, each either blank, a # comment, or a single call of the
// form name("quoted string") or name(). Nothing else is accepted, which makes
// it safe to expose where a general interpreter is not.
package command

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/seantiz/lchgate/internal/backend"
)

// Name is the registry name of this executor.
const Name = "command"

// callPattern matches one call: an identifier, then a parenthesised argument
// that is either empty or a Go string literal.
var callPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\(\s*(".*"|` + "`[^`]*`" + `)?\s*\)$`)

var _ backend.Executor = (*Executor)(nil)

// Executor runs restricted command-set sources.
type Executor struct{}

// New creates a command executor.
func New() *Executor {
	return &Executor{}
}

// Capabilities reports the built-in commands.
func (e *Executor) Capabilities() backend.Capabilities {
	return backend.Capabilities{
		Name:        Name,
		Description: `restricted command set: one name("arg") call per line`,
		Builtins:    []string{"fail", "print"},
	}
}

// Execute runs spec.Source line by line. The first failing line stops
// execution and is returned as an *backend.ExecError naming the line.
func (e *Executor) Execute(ctx context.Context, spec backend.ExecSpec) error {
	out := backend.OutputOrDiscard(spec.Output)
	name := spec.Name
	if name == "" {
		name = "source"
	}

	for i, raw := range strings.Split(spec.Source, "\n") {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("execution cancelled: %w", err)
		}

		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if err := e.run(ctx, spec, out, line); err != nil {
			return &backend.ExecError{
				Message:   err.Error(),
				Traceback: fmt.Sprintf("Traceback (most recent call last):\n  %s:%d: %s\nError: %v", name, i+1, line, err),
				Err:       err,
			}
		}
	}
	return nil
}

func (e *Executor) run(ctx context.Context, spec backend.ExecSpec, out io.Writer, line string) error {
	m := callPattern.FindStringSubmatch(line)
	if m == nil {
		return fmt.Errorf("syntax error: expected name(\"arg\")")
	}
	fn, lit := m[1], m[2]

	arg := ""
	if lit != "" {
		s, err := strconv.Unquote(lit)
		if err != nil {
			return fmt.Errorf("syntax error: bad string literal: %w", err)
		}
		arg = s
	}

	switch fn {
	case "print":
		_, err := io.WriteString(out, arg+"\n")
		return err
	case "fail":
		return fmt.Errorf("fail: %s", arg)
	}

	if b, ok := spec.Builtins[fn]; ok {
		return b(ctx, arg)
	}
	return fmt.Errorf("name %q is not defined (available: %s)", fn, strings.Join(available(spec), ", "))
}

func available(spec backend.ExecSpec) []string {
	names := []string{"fail", "print"}
	for name := range spec.Builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
