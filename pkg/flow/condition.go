package flow

import (
	"context"
	"fmt"
	"strings"
)

// Condition operators.
const (
	OpExists     = "Exists"
	OpNotExists  = "NotExists"
	OpEquals     = "Equals"
	OpNotEquals  = "NotEquals"
	OpGreater    = "GreaterThan"
	OpLess       = "LessThan"
	OpContains   = "Contains"
	OpStartsWith = "StartsWith"
	OpEndsWith   = "EndsWith"
)

// ConditionActivity evaluates a value against a configured operator and
// routes to the True or False flow output. The value comes from the Value
// data port, else from the named variable. Comparison is numeric when both
// operands parse as numbers, boolean when both parse as booleans, and
// case-insensitive string comparison otherwise.
type ConditionActivity struct{}

func (ConditionActivity) Type() string { return ActivityCondition }

func (ConditionActivity) Info() ActivityInfo {
	return ActivityInfo{
		DisplayName: "Condition",
		Category:    "Control",
		Description: "Branches on a comparison of a value or variable.",
	}
}

func (ConditionActivity) PortSpec() ([]Port, []Port) {
	return []Port{flowIn(), dataIn("Value", TypeAny)},
		[]Port{flowOut("True"), flowOut("False")}
}

func (ConditionActivity) Properties() []PropertyDef {
	return []PropertyDef{
		{Name: "Variable", Type: PropString},
		{Name: "Operator", Type: PropEnum, Default: OpEquals, Options: []string{
			OpExists, OpNotExists, OpEquals, OpNotEquals, OpGreater, OpLess,
			OpContains, OpStartsWith, OpEndsWith,
		}},
		{Name: "CompareValue", Type: PropString},
	}
}

func (ConditionActivity) Execute(ctx context.Context, rc *RunContext, node *ActivityNode, inputs map[string]any) (ActivityResult, error) {
	var value any
	exists := false
	if v, ok := inputs["Value"]; ok && v != nil {
		value = v
		exists = true
	} else if name, ok := resolveString(node, inputs, "Variable"); ok && name != "" {
		value, exists = rc.Vars.Get(name)
	}

	op, ok := resolveString(node, inputs, "Operator")
	if !ok || op == "" {
		op = OpEquals
	}
	compare, _ := resolveString(node, inputs, "CompareValue")

	result, err := evaluateCondition(op, value, exists, compare)
	if err != nil {
		return ActivityResult{}, err
	}

	rc.Logger.Debug("condition evaluated", "operator", op, "result", result)
	if result {
		return ActivityResult{NextPort: "True"}, nil
	}
	return ActivityResult{NextPort: "False"}, nil
}

func evaluateCondition(op string, value any, exists bool, compare string) (bool, error) {
	switch op {
	case OpExists:
		return exists && value != nil, nil
	case OpNotExists:
		return !exists || value == nil, nil
	}

	left := toString(value)

	if ln, lok := toNumber(value); lok {
		if rn, rok := toNumber(compare); rok {
			return compareNumbers(op, ln, rn)
		}
	}
	if lb, lok := toBool(value); lok {
		if rb, rok := toBool(compare); rok {
			return compareBools(op, lb, rb)
		}
	}
	return compareStrings(op, left, compare)
}

func compareNumbers(op string, a, b float64) (bool, error) {
	switch op {
	case OpEquals:
		return a == b, nil
	case OpNotEquals:
		return a != b, nil
	case OpGreater:
		return a > b, nil
	case OpLess:
		return a < b, nil
	default:
		return compareStrings(op, fmt.Sprint(a), fmt.Sprint(b))
	}
}

func compareBools(op string, a, b bool) (bool, error) {
	switch op {
	case OpEquals:
		return a == b, nil
	case OpNotEquals:
		return a != b, nil
	default:
		return false, fmt.Errorf("condition: operator %q not applicable to booleans", op)
	}
}

func compareStrings(op, a, b string) (bool, error) {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	switch op {
	case OpEquals:
		return la == lb, nil
	case OpNotEquals:
		return la != lb, nil
	case OpGreater:
		return la > lb, nil
	case OpLess:
		return la < lb, nil
	case OpContains:
		return strings.Contains(la, lb), nil
	case OpStartsWith:
		return strings.HasPrefix(la, lb), nil
	case OpEndsWith:
		return strings.HasSuffix(la, lb), nil
	default:
		return false, fmt.Errorf("condition: unknown operator %q", op)
	}
}
