package ast

// Operator is the closed set of unary and binary operators.
type Operator int

const (
	OpInvalid Operator = iota

	// unary
	OpNot    // !
	OpNeg    // -
	OpPos    // +
	OpBitNot // ~

	// binary
	OpMul    // *
	OpDiv    // /
	OpMod    // %
	OpAdd    // +
	OpSub    // -
	OpShl    // <<
	OpShr    // >>
	OpUshr   // >>>
	OpRange  // ..
	OpLt     // <
	OpLe     // <=
	OpGt     // >
	OpGe     // >=
	OpEq     // ==
	OpNe     // !=
	OpBitAnd // &
	OpBitXor // ^
	OpBitOr  // |
	OpAnd    // &&
	OpOr     // ||

	// OpCall invokes the member named by BinaryOpNode.Member on the left
	// operand, or a macro or function of that name when there is no left
	// operand.
	OpCall
	// OpIndex selects an element of a list or map: left[right].
	OpIndex
)

var opSymbols = [...]string{
	OpInvalid: "<invalid>",
	OpNot:     "!",
	OpNeg:     "-",
	OpPos:     "+",
	OpBitNot:  "~",
	OpMul:     "*",
	OpDiv:     "/",
	OpMod:     "%",
	OpAdd:     "+",
	OpSub:     "-",
	OpShl:     "<<",
	OpShr:     ">>",
	OpUshr:    ">>>",
	OpRange:   "..",
	OpLt:      "<",
	OpLe:      "<=",
	OpGt:      ">",
	OpGe:      ">=",
	OpEq:      "==",
	OpNe:      "!=",
	OpBitAnd:  "&",
	OpBitXor:  "^",
	OpBitOr:   "|",
	OpAnd:     "&&",
	OpOr:      "||",
	OpCall:    ".",
	OpIndex:   "[]",
}

func (op Operator) String() string {
	if op < 0 || int(op) >= len(opSymbols) {
		return opSymbols[OpInvalid]
	}
	return opSymbols[op]
}

// IsUnary reports whether op takes a single operand.
func (op Operator) IsUnary() bool { return OpNot <= op && op <= OpBitNot }

// BinaryOperator returns the binary operator spelled by sym.
func BinaryOperator(sym string) (Operator, bool) {
	for op := OpMul; op <= OpOr; op++ {
		if opSymbols[op] == sym {
			return op, true
		}
	}
	return OpInvalid, false
}

// UnaryOperator returns the unary operator spelled by sym.
func UnaryOperator(sym string) (Operator, bool) {
	for op := OpNot; op <= OpBitNot; op++ {
		if opSymbols[op] == sym {
			return op, true
		}
	}
	return OpInvalid, false
}
