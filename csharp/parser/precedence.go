package parser

// Precedence is the binding strength of an operator; larger binds tighter.
type Precedence int

const (
	PrecSelect Precedence = iota
	PrecAssign
	PrecConditional
	PrecCoalesce
	PrecLogicalOr
	PrecLogicalAnd
	PrecBitOr
	PrecBitXor
	PrecBitAnd
	PrecEquality
	PrecRelational
	PrecShift
	PrecAdditive
	PrecMultiplicative
	PrecWith
	PrecSwitch
	PrecRange
	PrecUnary
	PrecPostfix
)

type Assoc int

const (
	AssocLeft Assoc = iota
	AssocRight
	AssocNone
)

type PrecedenceLevel struct {
	Prec  Precedence
	Assoc Assoc
}

// next is the minimum precedence of a right operand.
func (l PrecedenceLevel) next() Precedence {
	if l.Assoc == AssocRight {
		return l.Prec
	}
	return l.Prec + 1
}

var binaryLevels = map[TokenKind]PrecedenceLevel{
	TokenStar:             {PrecMultiplicative, AssocLeft},
	TokenSlash:            {PrecMultiplicative, AssocLeft},
	TokenPercent:          {PrecMultiplicative, AssocLeft},
	TokenPlus:             {PrecAdditive, AssocLeft},
	TokenMinus:            {PrecAdditive, AssocLeft},
	TokenShl:              {PrecShift, AssocLeft},
	TokenShr:              {PrecShift, AssocLeft},
	TokenLT:               {PrecRelational, AssocLeft},
	TokenGT:               {PrecRelational, AssocLeft},
	TokenLE:               {PrecRelational, AssocLeft},
	TokenGE:               {PrecRelational, AssocLeft},
	TokenIs:               {PrecRelational, AssocLeft},
	TokenAs:               {PrecRelational, AssocLeft},
	TokenEQ:               {PrecEquality, AssocLeft},
	TokenNE:               {PrecEquality, AssocLeft},
	TokenAmp:              {PrecBitAnd, AssocLeft},
	TokenCaret:            {PrecBitXor, AssocLeft},
	TokenPipe:             {PrecBitOr, AssocLeft},
	TokenAndAnd:           {PrecLogicalAnd, AssocLeft},
	TokenOrOr:             {PrecLogicalOr, AssocLeft},
	TokenQuestionQuestion: {PrecCoalesce, AssocRight},
	TokenQuestion:         {PrecConditional, AssocRight},
	TokenDotDot:           {PrecRange, AssocNone},
	TokenSwitch:           {PrecSwitch, AssocLeft},
}

var assignLevel = PrecedenceLevel{PrecAssign, AssocRight}

var withLevel = PrecedenceLevel{PrecWith, AssocLeft}

// BinaryPrecedence returns the level of a binary, conditional or assignment
// operator token.
func BinaryPrecedence(k TokenKind) (PrecedenceLevel, bool) {
	if k.IsAssignment() {
		return assignLevel, true
	}
	l, ok := binaryLevels[k]
	return l, ok
}
