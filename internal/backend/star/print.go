package star

import (
	"fmt"
	"io"
	"strings"

	"go.starlark.net/starlark"
)

// newPrint returns a print builtin that follows the Python convention:
// arguments joined by sep (default " ") and terminated by end (default "\n").
// file and flush are accepted and ignored. Strings print without quotes.
func newPrint(out io.Writer) *starlark.Builtin {
	return starlark.NewBuiltin("print", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		sep, end := " ", "\n"

		for _, kv := range kwargs {
			key, _ := starlark.AsString(kv[0])
			switch key {
			case "sep":
				s, err := textArg(b.Name(), key, kv[1], sep)
				if err != nil {
					return nil, err
				}
				sep = s
			case "end":
				s, err := textArg(b.Name(), key, kv[1], end)
				if err != nil {
					return nil, err
				}
				end = s
			case "file", "flush":
			default:
				return nil, fmt.Errorf("%s: unexpected keyword argument %s", b.Name(), key)
			}
		}

		var sb strings.Builder
		for i, arg := range args {
			if i > 0 {
				sb.WriteString(sep)
			}
			if s, ok := starlark.AsString(arg); ok {
				sb.WriteString(s)
			} else {
				sb.WriteString(arg.String())
			}
		}
		sb.WriteString(end)

		if _, err := io.WriteString(out, sb.String()); err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}
		return starlark.None, nil
	})
}

// textArg reads a sep/end keyword. None selects the default.
func textArg(fn, key string, v starlark.Value, def string) (string, error) {
	if v == starlark.None {
		return def, nil
	}
	s, ok := starlark.AsString(v)
	if !ok {
		return "", fmt.Errorf("%s: %s must be None or a string, not %s", fn, key, v.Type())
	}
	return s, nil
}
