package query

import "strings"

// Op is a normalized filter operator.
type Op int

const (
	OpUnknown Op = iota
	OpEq
	OpNeq
	OpGt
	OpGte
	OpLt
	OpLte
	OpLike
	OpNotLike
	OpIn
	OpNotIn
	OpIsNull
	OpIsNotNull
	OpBetween
)

var operators = map[string]Op{
	"=":           OpEq,
	"EQ":          OpEq,
	"!=":          OpNeq,
	"<>":          OpNeq,
	"NEQ":         OpNeq,
	">":           OpGt,
	"GT":          OpGt,
	">=":          OpGte,
	"GTE":         OpGte,
	"<":           OpLt,
	"LT":          OpLt,
	"<=":          OpLte,
	"LTE":         OpLte,
	"LIKE":        OpLike,
	"NOT LIKE":    OpNotLike,
	"IN":          OpIn,
	"NOT IN":      OpNotIn,
	"IS NULL":     OpIsNull,
	"IS NOT NULL": OpIsNotNull,
	"BETWEEN":     OpBetween,
}

// ParseOp normalizes an operator name. Matching ignores case; unrecognized
// names return OpUnknown.
func ParseOp(name string) Op {
	if op, ok := operators[strings.ToUpper(name)]; ok {
		return op
	}
	return OpUnknown
}
