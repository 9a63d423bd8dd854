package compiler

// Precedence orders binding strength from loosest to tightest.
type Precedence int

const (
	PrecNone       Precedence = iota
	PrecAssignment            // =
	PrecOr                    // or
	PrecAnd                   // and
	PrecEquality              // == !=
	PrecComparison            // < > <= >=
	PrecTerm                  // + -
	PrecFactor                // * /
	PrecUnary                 // ! -
	PrecCall                  // . ()
	PrecPrimary
)

// next returns the precedence one step tighter. Primary is the ceiling.
func (p Precedence) next() Precedence {
	if p >= PrecPrimary {
		return PrecPrimary
	}
	return p + 1
}

type parseFn func(c *compiler)

// parseRule is one row of the Pratt table.
type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

// rules is indexed by TokenKind. Kinds without an entry have no prefix or
// infix behavior and PrecNone.
var rules [tokenKindCount]parseRule

func init() {
	rules = [tokenKindCount]parseRule{
		TokenLeftParen:    {prefix: (*compiler).grouping},
		TokenMinus:        {prefix: (*compiler).unary, infix: (*compiler).binary, precedence: PrecTerm},
		TokenPlus:         {infix: (*compiler).binary, precedence: PrecTerm},
		TokenSlash:        {infix: (*compiler).binary, precedence: PrecFactor},
		TokenStar:         {infix: (*compiler).binary, precedence: PrecFactor},
		TokenBang:         {prefix: (*compiler).unary},
		TokenBangEqual:    {infix: (*compiler).binary, precedence: PrecEquality},
		TokenEqualEqual:   {infix: (*compiler).binary, precedence: PrecEquality},
		TokenGreater:      {infix: (*compiler).binary, precedence: PrecComparison},
		TokenGreaterEqual: {infix: (*compiler).binary, precedence: PrecComparison},
		TokenLess:         {infix: (*compiler).binary, precedence: PrecComparison},
		TokenLessEqual:    {infix: (*compiler).binary, precedence: PrecComparison},
		TokenString:       {prefix: (*compiler).string},
		TokenNumber:       {prefix: (*compiler).number},
		TokenFalse:        {prefix: (*compiler).literal},
		TokenNil:          {prefix: (*compiler).literal},
		TokenTrue:         {prefix: (*compiler).literal},
	}
}

func getRule(kind TokenKind) *parseRule {
	return &rules[kind]
}
