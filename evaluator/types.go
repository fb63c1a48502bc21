package evaluator

import "strings"

// typeMatches implements `is TargetType`. Since FHIR schema resolution is
// explicitly out of scope (spec.md §1 Non-goals: "producing FHIR-typed
// results with schema resolution"), node values are matched only via the
// conventional "resourceType" field FHIR JSON carries; primitives match
// against their System type name (the last dotted segment of targetType, so
// both "Integer" and "System.Integer" match an Integer value).
func typeMatches(v interface{}, targetType string) bool {
	name := lastSegment(targetType)
	switch x := v.(type) {
	case Integer:
		return name == "Integer"
	case Decimal:
		return name == "Decimal"
	case String:
		return name == "String"
	case Boolean:
		return name == "Boolean"
	case Date:
		return name == "Date"
	case Time:
		return name == "Time"
	case DateTime:
		return name == "DateTime"
	case map[string]interface{}:
		if rt, ok := x["resourceType"].(string); ok {
			return rt == name
		}
		return false
	default:
		return false
	}
}

func lastSegment(dotted string) string {
	if i := strings.LastIndex(dotted, "."); i >= 0 {
		return dotted[i+1:]
	}
	return dotted
}

// tryCast implements `as TargetType`: a matching value passes through
// unchanged; a convertible primitive is converted; anything else is dropped
// (spec.md §4.6: "unconvertible elements are dropped").
func tryCast(v interface{}, targetType string) (interface{}, bool) {
	if typeMatches(v, targetType) {
		return v, true
	}
	name := lastSegment(targetType)
	switch name {
	case "String":
		return String(stringOf(v)), true
	case "Integer":
		return toIntegerValue(v)
	case "Decimal":
		return toDecimalValue(v)
	case "Boolean":
		return toBooleanValue(v)
	default:
		return nil, false
	}
}
