package star

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/seantiz/lchgate/internal/backend"
)

func run(t *testing.T, e *Executor, src string) (string, error) {
	t.Helper()
	var out strings.Builder
	err := e.Execute(context.Background(), backend.ExecSpec{Name: "payload", Source: src, Output: &out})
	return out.String(), err
}

func TestPrintConventions(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"single", `print("pong")`, "pong\n"},
		{"several args", `print("a", 1, True)`, "a 1 True\n"},
		{"sep", `print("a", "b", sep="-")`, "a-b\n"},
		{"end", `print("a", end="")` + "\n" + `print("b")`, "ab\n"},
		{"none defaults", `print("a", "b", sep=None, end=None)`, "a b\n"},
		{"no args", `print()`, "\n"},
		{"file and flush ignored", `print("x", file=None, flush=True)`, "x\n"},
		{"non-string values", `print([1, "two"], {"k": 3})`, `[1, "two"] {"k": 3}` + "\n"},
	}

	e := New(0)
	for _, tt := range tests {
		got, err := run(t, e, tt.src)
		if err != nil {
			t.Errorf("%s: Execute: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: output = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestPrintRejectsBadKeywords(t *testing.T) {
	e := New(0)
	for _, src := range []string{`print("a", sep=1)`, `print("a", color="red")`} {
		if _, err := run(t, e, src); err == nil {
			t.Errorf("Execute(%q): expected error", src)
		}
	}
}

func TestPythonLikeControlFlow(t *testing.T) {
	src := `
total = 0
for i in range(5):
    total += i
n = 0
while n < 3:
    n += 1
if total > 5:
    print("total", total, "n", n)
`
	got, err := run(t, New(0), src)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got != "total 10 n 3\n" {
		t.Errorf("output = %q", got)
	}
}

func TestFailureBecomesTraceback(t *testing.T) {
	src := `
def inner():
    fail("boom")

print("before")
inner()
`
	got, err := run(t, New(0), src)

	var execErr *backend.ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("error = %v, want *ExecError", err)
	}
	if got != "before\n" {
		t.Errorf("output = %q, want output up to the failure", got)
	}
	tb := backend.Describe(err)
	for _, want := range []string{"Traceback", "inner", "boom"} {
		if !strings.Contains(tb, want) {
			t.Errorf("traceback %q missing %q", tb, want)
		}
	}
}

func TestSyntaxError(t *testing.T) {
	_, err := run(t, New(0), "print(")

	var execErr *backend.ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("error = %v, want *ExecError", err)
	}
	if !strings.Contains(backend.Describe(err), "payload.star") {
		t.Errorf("diagnostic %q does not name the source", backend.Describe(err))
	}
}

func TestStepBudget(t *testing.T) {
	_, err := run(t, New(1000), "x = 0\nwhile True:\n    x += 1\n")
	if err == nil {
		t.Fatal("infinite loop completed, want step budget error")
	}
	if !strings.Contains(err.Error(), "too many steps") {
		t.Errorf("error = %v, want step budget error", err)
	}
}

func TestContextCancelInterrupts(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := New(1<<62).Execute(ctx, backend.ExecSpec{Source: "x = 0\nwhile True:\n    x += 1\n"})
	if err == nil {
		t.Fatal("infinite loop completed, want cancellation")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("cancellation took %v", elapsed)
	}
}

func TestHostBuiltins(t *testing.T) {
	var got []string
	spec := backend.ExecSpec{
		Source: "record(\"one\")\nfor x in [\"two\"]:\n    record(x)\n",
		Builtins: map[string]backend.Builtin{
			"record": func(_ context.Context, arg string) error {
				got = append(got, arg)
				return nil
			},
		},
	}

	if err := New(0).Execute(context.Background(), spec); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if strings.Join(got, ",") != "one,two" {
		t.Errorf("builtin calls = %v", got)
	}
}

func TestHostBuiltinErrorPropagates(t *testing.T) {
	spec := backend.ExecSpec{
		Source: `record("x")`,
		Builtins: map[string]backend.Builtin{
			"record": func(context.Context, string) error { return errors.New("host refused") },
		},
	}

	err := New(0).Execute(context.Background(), spec)
	if err == nil || !strings.Contains(backend.Describe(err), "host refused") {
		t.Errorf("error = %v, want host builtin failure", err)
	}
}

func TestHostBuiltinArgumentChecked(t *testing.T) {
	spec := backend.ExecSpec{
		Source:   `record(42)`,
		Builtins: map[string]backend.Builtin{"record": func(context.Context, string) error { return nil }},
	}
	if err := New(0).Execute(context.Background(), spec); err == nil {
		t.Error("record(42): expected argument type error")
	}
}

func TestNoHostAccess(t *testing.T) {
	for _, src := range []string{`load("os", "system")`, `open("/etc/passwd")`, `__import__("os")`} {
		if _, err := run(t, New(0), src); err == nil {
			t.Errorf("Execute(%q): expected error", src)
		}
	}
}

func TestCapabilities(t *testing.T) {
	caps := New(42).Capabilities()
	if caps.Name != Name {
		t.Errorf("Name = %q, want %q", caps.Name, Name)
	}
	if caps.MaxSteps != 42 {
		t.Errorf("MaxSteps = %d, want 42", caps.MaxSteps)
	}
}
