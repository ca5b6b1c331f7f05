package process

import (
	"encoding/base64"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/GriffinCanCode/procpipe/internal/spawn"
)

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", spawn.ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// intParam reads a required integer. JSON numbers arrive as float64.
func intParam(params map[string]interface{}, name string) (int, error) {
	v, ok := params[name]
	if !ok || v == nil {
		return 0, invalid("%s is required", name)
	}
	return toInt(name, v)
}

// optionalInt reads an integer that may be absent.
func optionalInt(params map[string]interface{}, name string, def int) (int, error) {
	v, ok := params[name]
	if !ok || v == nil {
		return def, nil
	}
	return toInt(name, v)
}

func toInt(name string, v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt32 || n < math.MinInt32 {
			return 0, invalid("%s must be an integer", name)
		}
		return int(n), nil
	default:
		return 0, invalid("%s must be a number", name)
	}
}

func optionalString(params map[string]interface{}, name string) (string, error) {
	v, ok := params[name]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", invalid("%s must be a string", name)
	}
	return s, nil
}

func optionalBool(params map[string]interface{}, name string) (bool, error) {
	v, ok := params[name]
	if !ok || v == nil {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, invalid("%s must be a boolean", name)
	}
	return b, nil
}

// argsParam reads the argument vector. Entries must all be strings.
func argsParam(params map[string]interface{}) ([]string, error) {
	switch v := params["args"].(type) {
	case []string:
		return v, nil
	case []interface{}:
		argv := make([]string, len(v))
		for i, a := range v {
			s, ok := a.(string)
			if !ok {
				return nil, invalid("args[%d] must be a string", i)
			}
			argv[i] = s
		}
		return argv, nil
	case nil:
		return nil, invalid("args is required")
	default:
		return nil, invalid("args must be an array of strings")
	}
}

// envParam merges the "env" object over the server environment. A nil
// result means inherit unchanged.
func envParam(params map[string]interface{}) ([]string, error) {
	raw, ok := params["env"]
	if !ok || raw == nil {
		return nil, nil
	}
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, invalid("env must be an object")
	}

	merged := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			merged[k] = v
		}
	}
	for k, v := range obj {
		s, ok := v.(string)
		if !ok {
			return nil, invalid("env.%s must be a string", k)
		}
		if k == "" || strings.ContainsAny(k, "=\x00") || strings.IndexByte(s, 0) >= 0 {
			return nil, invalid("env.%s is not a valid variable", k)
		}
		merged[k] = s
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, len(keys))
	for i, k := range keys {
		env[i] = k + "=" + merged[k]
	}
	return env, nil
}

// dataParam reads the bytes to write from "data" or "data_base64".
func dataParam(params map[string]interface{}) ([]byte, error) {
	text, hasText := params["data"]
	encoded, hasEncoded := params["data_base64"]

	switch {
	case hasText && hasEncoded:
		return nil, invalid("data and data_base64 are mutually exclusive")
	case hasText:
		s, ok := text.(string)
		if !ok {
			return nil, invalid("data must be a string")
		}
		return []byte(s), nil
	case hasEncoded:
		s, ok := encoded.(string)
		if !ok {
			return nil, invalid("data_base64 must be a string")
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, invalid("data_base64: %v", err)
		}
		return b, nil
	default:
		return nil, invalid("data or data_base64 is required")
	}
}
