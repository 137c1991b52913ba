// =============================================================================
// aqtools - Comparison Conditions
// =============================================================================
//
// This module models the comparison applied to table cells: one of six
// operators paired with a numeric threshold.
//
// Operators are resolved through two lookup tables (symbol to kind, kind to
// comparator). Nothing is evaluated from strings at runtime.
//
// =============================================================================

package condition

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Kind is a comparison operator.
type Kind int

const (
	LessThan Kind = iota + 1
	GreaterThan
	LessOrEqual
	GreaterOrEqual
	Equal
	NotEqual
)

// ErrInvalidThreshold is returned for a NaN threshold.
var ErrInvalidThreshold = errors.New("threshold must be a number")

var symbols = map[string]Kind{
	"<":  LessThan,
	">":  GreaterThan,
	"<=": LessOrEqual,
	">=": GreaterOrEqual,
	"==": Equal,
	"!=": NotEqual,
}

var comparators = map[Kind]func(v, threshold float64) bool{
	LessThan:       func(v, t float64) bool { return v < t },
	GreaterThan:    func(v, t float64) bool { return v > t },
	LessOrEqual:    func(v, t float64) bool { return v <= t },
	GreaterOrEqual: func(v, t float64) bool { return v >= t },
	Equal:          func(v, t float64) bool { return v == t },
	NotEqual:       func(v, t float64) bool { return v != t },
}

// InvalidConditionError is returned when an operator is not one of the six
// supported symbols.
type InvalidConditionError struct {
	Operator string
}

func (e *InvalidConditionError) Error() string {
	return fmt.Sprintf("invalid condition %q: must be one of %s", e.Operator, strings.Join(Symbols(), " "))
}

// Symbols lists the supported operator symbols in Kind order.
func Symbols() []string {
	out := make([]string, 0, len(symbols))
	for _, k := range Kinds() {
		out = append(out, k.String())
	}
	return out
}

// Kinds lists every supported kind.
func Kinds() []Kind {
	return []Kind{LessThan, GreaterThan, LessOrEqual, GreaterOrEqual, Equal, NotEqual}
}

// Parse resolves an operator symbol. Surrounding whitespace is ignored.
func Parse(op string) (Kind, error) {
	k, ok := symbols[strings.TrimSpace(op)]
	if !ok {
		return 0, &InvalidConditionError{Operator: op}
	}
	return k, nil
}

// String returns the operator symbol.
func (k Kind) String() string {
	for sym, kind := range symbols {
		if kind == k {
			return sym
		}
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	_, ok := comparators[k]
	return ok
}

// Condition is a comparison kind paired with a threshold.
type Condition struct {
	Kind      Kind
	Threshold float64
}

// New parses op and pairs it with threshold.
func New(op string, threshold float64) (Condition, error) {
	k, err := Parse(op)
	if err != nil {
		return Condition{}, err
	}
	if math.IsNaN(threshold) {
		return Condition{}, ErrInvalidThreshold
	}
	return Condition{Kind: k, Threshold: threshold}, nil
}

// Match reports whether v satisfies the condition.
func (c Condition) Match(v float64) bool {
	cmp, ok := comparators[c.Kind]
	if !ok {
		return false
	}
	return cmp(v, c.Threshold)
}

// String renders the condition as "op threshold", e.g. "> 3".
func (c Condition) String() string {
	return fmt.Sprintf("%s %g", c.Kind, c.Threshold)
}
