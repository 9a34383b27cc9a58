package criteria

import "fmt"

// ArrayOp is an operator over the tag list.
type ArrayOp uint8

// Array operators. The recursive forms also match descendants of the given tags.
const (
	ArrayContains ArrayOp = iota + 1
	ArrayNotContains
	ArrayContainsRecursively
	ArrayContainsNotRecursively
)

var arrayOpNames = []string{
	ArrayContains:               "contains",
	ArrayNotContains:            "notContains",
	ArrayContainsRecursively:    "containsRecursively",
	ArrayContainsNotRecursively: "containsNotRecursively",
}

func (op ArrayOp) String() string { return opName(arrayOpNames, op) }
func (op ArrayOp) valid() bool    { return op >= ArrayContains && op <= ArrayContainsNotRecursively }

// StringOp is an operator over a string field.
type StringOp uint8

// String operators.
const (
	StringEquals StringOp = iota + 1
	StringNotEqual
	StringContains
	StringNotContains
	StringStartsWith
	StringNotStartsWith
	StringEqualsIgnoreCase
	StringStartsWithIgnoreCase
)

var stringOpNames = []string{
	StringEquals:               "equals",
	StringNotEqual:             "notEqual",
	StringContains:             "contains",
	StringNotContains:          "notContains",
	StringStartsWith:           "startsWith",
	StringNotStartsWith:        "notStartsWith",
	StringEqualsIgnoreCase:     "equalsIgnoreCase",
	StringStartsWithIgnoreCase: "startsWithIgnoreCase",
}

func (op StringOp) String() string { return opName(stringOpNames, op) }
func (op StringOp) valid() bool    { return op >= StringEquals && op <= StringStartsWithIgnoreCase }

// CompareOp is an operator over a number or date field.
type CompareOp uint8

// Comparison operators.
const (
	Equals CompareOp = iota + 1
	NotEqual
	SmallerThan
	SmallerThanOrEquals
	GreaterThan
	GreaterThanOrEquals
)

var compareOpNames = []string{
	Equals:              "equals",
	NotEqual:            "notEqual",
	SmallerThan:         "smallerThan",
	SmallerThanOrEquals: "smallerThanOrEquals",
	GreaterThan:         "greaterThan",
	GreaterThanOrEquals: "greaterThanOrEquals",
}

func (op CompareOp) String() string { return opName(compareOpNames, op) }
func (op CompareOp) valid() bool    { return op >= Equals && op <= GreaterThanOrEquals }

func opName[T ~uint8](names []string, op T) string {
	if int(op) > 0 && int(op) < len(names) {
		return names[op]
	}
	return fmt.Sprintf("op(%d)", op)
}

func parseOp[T ~uint8](names []string, s string) (T, bool) {
	for i, name := range names {
		if i > 0 && name == s {
			return T(i), true //nolint:gosec // len(names) is tiny
		}
	}
	return 0, false
}

// ParseArrayOp parses an array operator name.
func ParseArrayOp(s string) (ArrayOp, bool) { return parseOp[ArrayOp](arrayOpNames, s) }

// ParseStringOp parses a string operator name.
func ParseStringOp(s string) (StringOp, bool) { return parseOp[StringOp](stringOpNames, s) }

// ParseCompareOp parses a number or date operator name.
func ParseCompareOp(s string) (CompareOp, bool) { return parseOp[CompareOp](compareOpNames, s) }
