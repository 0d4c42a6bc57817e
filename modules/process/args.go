package process

import (
	"fmt"
	"sort"
)

// BuildArgs converts the `args` parameter into command-line arguments.
//
// A bare string is a positional argument and a mapping becomes one
// `--key=value` flag per key, keys sorted when there are several. `args`
// may be a single string, a single mapping, or a sequence mixing both.
// Scalars other than strings are formatted with fmt.
func BuildArgs(raw any) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []any:
		var out []string
		for i, item := range v {
			args, err := convertItem(item)
			if err != nil {
				return nil, fmt.Errorf("args[%d]: %w", i, err)
			}
			out = append(out, args...)
		}
		return out, nil
	case []string:
		return append([]string(nil), v...), nil
	default:
		return convertItem(v)
	}
}

func convertItem(item any) ([]string, error) {
	switch v := item.(type) {
	case string:
		return []string{v}, nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]string, 0, len(keys))
		for _, k := range keys {
			s, err := scalar(v[k])
			if err != nil {
				return nil, fmt.Errorf("flag %q: %w", k, err)
			}
			out = append(out, fmt.Sprintf("--%s=%s", k, s))
		}
		return out, nil
	default:
		s, err := scalar(v)
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	}
}

func scalar(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case bool, int, int64, float64, uint64:
		return fmt.Sprint(t), nil
	default:
		return "", fmt.Errorf("unsupported argument value of type %T", v)
	}
}
