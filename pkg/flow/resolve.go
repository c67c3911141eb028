package flow

import (
	"fmt"
	"strconv"
	"strings"
)

// resolveValue applies the property-resolution rule shared by every
// activity: a connected data input that produced a non-nil value always
// overrides the node's static property of the same name.
func resolveValue(node *ActivityNode, inputs map[string]any, name string) (any, bool) {
	if v, ok := inputs[name]; ok && v != nil {
		return v, true
	}
	if v, ok := node.Property(name); ok && v != nil {
		return v, true
	}
	return nil, false
}

func resolveString(node *ActivityNode, inputs map[string]any, name string) (string, bool) {
	v, ok := resolveValue(node, inputs, name)
	if !ok {
		return "", false
	}
	return toString(v), true
}

func resolveNumber(node *ActivityNode, inputs map[string]any, name string) (float64, bool) {
	v, ok := resolveValue(node, inputs, name)
	if !ok {
		return 0, false
	}
	return toNumber(v)
}

func resolveBool(node *ActivityNode, inputs map[string]any, name string) (bool, bool) {
	v, ok := resolveValue(node, inputs, name)
	if !ok {
		return false, false
	}
	return toBool(v)
}

// toNumber coerces numeric types and numeric strings. Property bags decoded
// from JSON carry float64, but programmatic builds may use any Go numeric.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(strings.ToLower(b)))
		return parsed, err == nil
	default:
		return false, false
	}
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}
