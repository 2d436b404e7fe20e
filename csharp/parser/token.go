package parser

import "fmt"

type Position struct {
	File   string
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	if p.File != "" {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

type Span struct {
	Start Position
	End   Position
}

// Len is the width of the span in bytes.
func (s Span) Len() int {
	return s.End.Offset - s.Start.Offset
}

func (s Span) Contains(offset int) bool {
	return offset >= s.Start.Offset && offset < s.End.Offset
}

type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenError
	TokenWhitespace
	TokenNewline
	TokenLineComment
	TokenBlockComment
	TokenDirective
	TokenDisabledText

	// Tokens of directive lines, found only inside directive trivia.
	TokenHash
	TokenPreprocessorMessage

	// Literals
	TokenIdent
	TokenIntLiteral
	TokenRealLiteral
	TokenCharLiteral
	TokenStringLiteral
	TokenVerbatimStringLiteral

	// Interpolated strings: $" text { hole , align : format } text "
	TokenInterpolatedStart
	TokenInterpolatedText
	TokenInterpolationOpen
	TokenInterpolationFormat
	TokenInterpolationClose
	TokenInterpolatedEnd

	// Keywords
	keywordBegin
	TokenAbstract
	TokenAs
	TokenBase
	TokenBool
	TokenBreak
	TokenByte
	TokenCase
	TokenCatch
	TokenChar
	TokenChecked
	TokenClass
	TokenConst
	TokenContinue
	TokenDecimal
	TokenDefault
	TokenDelegate
	TokenDo
	TokenDouble
	TokenElse
	TokenEnum
	TokenEvent
	TokenExplicit
	TokenExtern
	TokenFalse
	TokenFinally
	TokenFixed
	TokenFloat
	TokenFor
	TokenForeach
	TokenGoto
	TokenIf
	TokenImplicit
	TokenIn
	TokenInt
	TokenInterface
	TokenInternal
	TokenIs
	TokenLock
	TokenLong
	TokenNamespace
	TokenNew
	TokenNull
	TokenObject
	TokenOperator
	TokenOut
	TokenOverride
	TokenParams
	TokenPrivate
	TokenProtected
	TokenPublic
	TokenReadonly
	TokenRef
	TokenReturn
	TokenSbyte
	TokenSealed
	TokenShort
	TokenSizeof
	TokenStackalloc
	TokenStatic
	TokenString
	TokenStruct
	TokenSwitch
	TokenThis
	TokenThrow
	TokenTrue
	TokenTry
	TokenTypeof
	TokenUint
	TokenUlong
	TokenUnchecked
	TokenUnsafe
	TokenUshort
	TokenUsing
	TokenVirtual
	TokenVoid
	TokenVolatile
	TokenWhile
	TokenArglist
	TokenMakeref
	TokenReftype
	TokenRefvalue
	keywordEnd

	// Delimiters
	TokenLParen
	TokenRParen
	TokenLBrace
	TokenRBrace
	TokenLBracket
	TokenRBracket
	TokenSemicolon
	TokenComma
	TokenDot
	TokenDotDot
	TokenColon
	TokenColonColon
	TokenQuestion
	TokenQuestionQuestion
	TokenArrow
	TokenFatArrow

	// Operators
	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenPercent
	TokenAmp
	TokenPipe
	TokenCaret
	TokenBang
	TokenTilde
	TokenAssign
	TokenLT
	TokenGT
	TokenLE
	TokenGE
	TokenEQ
	TokenNE
	TokenAndAnd
	TokenOrOr
	TokenIncrement
	TokenDecrement
	TokenShl
	// TokenShr is never produced by the lexer. The parser combines two
	// adjacent '>' tokens so that nested type argument lists close cleanly.
	TokenShr

	// Compound assignment
	TokenPlusAssign
	TokenMinusAssign
	TokenStarAssign
	TokenSlashAssign
	TokenPercentAssign
	TokenAndAssign
	TokenOrAssign
	TokenXorAssign
	TokenShlAssign
	TokenShrAssign
	TokenCoalesceAssign
)

var tokenKindNames = map[TokenKind]string{
	TokenEOF:                   "EOF",
	TokenError:                 "Error",
	TokenWhitespace:            "Whitespace",
	TokenNewline:               "Newline",
	TokenLineComment:           "LineComment",
	TokenBlockComment:          "BlockComment",
	TokenDirective:             "Directive",
	TokenDisabledText:          "DisabledText",
	TokenHash:                  "#",
	TokenPreprocessorMessage:   "PreprocessorMessage",
	TokenIdent:                 "Ident",
	TokenIntLiteral:            "IntLiteral",
	TokenRealLiteral:           "RealLiteral",
	TokenCharLiteral:           "CharLiteral",
	TokenStringLiteral:         "StringLiteral",
	TokenVerbatimStringLiteral: "VerbatimStringLiteral",
	TokenInterpolatedStart:     "InterpolatedStart",
	TokenInterpolatedText:      "InterpolatedText",
	TokenInterpolationOpen:     "InterpolationOpen",
	TokenInterpolationFormat:   "InterpolationFormat",
	TokenInterpolationClose:    "InterpolationClose",
	TokenInterpolatedEnd:       "InterpolatedEnd",
	TokenLParen:                "(",
	TokenRParen:                ")",
	TokenLBrace:                "{",
	TokenRBrace:                "}",
	TokenLBracket:              "[",
	TokenRBracket:              "]",
	TokenSemicolon:             ";",
	TokenComma:                 ",",
	TokenDot:                   ".",
	TokenDotDot:                "..",
	TokenColon:                 ":",
	TokenColonColon:            "::",
	TokenQuestion:              "?",
	TokenQuestionQuestion:      "??",
	TokenArrow:                 "->",
	TokenFatArrow:              "=>",
	TokenPlus:                  "+",
	TokenMinus:                 "-",
	TokenStar:                  "*",
	TokenSlash:                 "/",
	TokenPercent:               "%",
	TokenAmp:                   "&",
	TokenPipe:                  "|",
	TokenCaret:                 "^",
	TokenBang:                  "!",
	TokenTilde:                 "~",
	TokenAssign:                "=",
	TokenLT:                    "<",
	TokenGT:                    ">",
	TokenLE:                    "<=",
	TokenGE:                    ">=",
	TokenEQ:                    "==",
	TokenNE:                    "!=",
	TokenAndAnd:                "&&",
	TokenOrOr:                  "||",
	TokenIncrement:             "++",
	TokenDecrement:             "--",
	TokenShl:                   "<<",
	TokenShr:                   ">>",
	TokenPlusAssign:            "+=",
	TokenMinusAssign:           "-=",
	TokenStarAssign:            "*=",
	TokenSlashAssign:           "/=",
	TokenPercentAssign:         "%=",
	TokenAndAssign:             "&=",
	TokenOrAssign:              "|=",
	TokenXorAssign:             "^=",
	TokenShlAssign:             "<<=",
	TokenShrAssign:             ">>=",
	TokenCoalesceAssign:        "??=",
}

func init() {
	for word, kind := range keywords {
		tokenKindNames[kind] = word
	}
}

func (k TokenKind) String() string {
	if name, ok := tokenKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

func (k TokenKind) IsKeyword() bool {
	return k > keywordBegin && k < keywordEnd
}

// IsTrivia reports whether tokens of this kind are attached to the next
// significant token instead of being handed to the grammar.
func (k TokenKind) IsTrivia() bool {
	switch k {
	case TokenWhitespace, TokenNewline, TokenLineComment, TokenBlockComment, TokenDirective, TokenDisabledText:
		return true
	}
	return false
}

// IsPredefinedType reports whether k names one of the built-in types.
func (k TokenKind) IsPredefinedType() bool {
	switch k {
	case TokenBool, TokenByte, TokenChar, TokenDecimal, TokenDouble, TokenFloat,
		TokenInt, TokenLong, TokenObject, TokenSbyte, TokenShort, TokenString,
		TokenUint, TokenUlong, TokenUshort, TokenVoid:
		return true
	}
	return false
}

func (k TokenKind) IsLiteral() bool {
	switch k {
	case TokenIntLiteral, TokenRealLiteral, TokenCharLiteral, TokenStringLiteral,
		TokenVerbatimStringLiteral, TokenTrue, TokenFalse, TokenNull:
		return true
	}
	return false
}

func (k TokenKind) IsAssignment() bool {
	return k == TokenAssign || (k >= TokenPlusAssign && k <= TokenCoalesceAssign)
}

type Token struct {
	Kind    TokenKind
	Span    Span
	Literal string
	// Value is the decoded content of string and character literals, and the
	// identifier text without a leading '@' for verbatim identifiers.
	Value string
	// Contextual marks identifiers that are contextual keywords in some
	// grammar position.
	Contextual bool
	// Missing marks a zero-width token inserted by error recovery.
	Missing bool
	// Leading holds the trivia between the previous token and this one.
	Leading []Trivia
}

// Text returns the token with its leading trivia, as it appeared in the source.
func (t *Token) Text() string {
	if len(t.Leading) == 0 {
		return t.Literal
	}
	n := len(t.Literal)
	for _, tr := range t.Leading {
		n += len(tr.Literal)
	}
	buf := make([]byte, 0, n)
	for _, tr := range t.Leading {
		buf = append(buf, tr.Literal...)
	}
	return string(append(buf, t.Literal...))
}

// Is reports whether the token is an identifier spelled word, which is how
// the grammar recognizes contextual keywords. Verbatim identifiers such as
// @where never match.
func (t *Token) Is(word string) bool {
	return t.Kind == TokenIdent && t.Literal == word
}

var keywords = map[string]TokenKind{
	"abstract":   TokenAbstract,
	"as":         TokenAs,
	"base":       TokenBase,
	"bool":       TokenBool,
	"break":      TokenBreak,
	"byte":       TokenByte,
	"case":       TokenCase,
	"catch":      TokenCatch,
	"char":       TokenChar,
	"checked":    TokenChecked,
	"class":      TokenClass,
	"const":      TokenConst,
	"continue":   TokenContinue,
	"decimal":    TokenDecimal,
	"default":    TokenDefault,
	"delegate":   TokenDelegate,
	"do":         TokenDo,
	"double":     TokenDouble,
	"else":       TokenElse,
	"enum":       TokenEnum,
	"event":      TokenEvent,
	"explicit":   TokenExplicit,
	"extern":     TokenExtern,
	"false":      TokenFalse,
	"finally":    TokenFinally,
	"fixed":      TokenFixed,
	"float":      TokenFloat,
	"for":        TokenFor,
	"foreach":    TokenForeach,
	"goto":       TokenGoto,
	"if":         TokenIf,
	"implicit":   TokenImplicit,
	"in":         TokenIn,
	"int":        TokenInt,
	"interface":  TokenInterface,
	"internal":   TokenInternal,
	"is":         TokenIs,
	"lock":       TokenLock,
	"long":       TokenLong,
	"namespace":  TokenNamespace,
	"new":        TokenNew,
	"null":       TokenNull,
	"object":     TokenObject,
	"operator":   TokenOperator,
	"out":        TokenOut,
	"override":   TokenOverride,
	"params":     TokenParams,
	"private":    TokenPrivate,
	"protected":  TokenProtected,
	"public":     TokenPublic,
	"readonly":   TokenReadonly,
	"ref":        TokenRef,
	"return":     TokenReturn,
	"sbyte":      TokenSbyte,
	"sealed":     TokenSealed,
	"short":      TokenShort,
	"sizeof":     TokenSizeof,
	"stackalloc": TokenStackalloc,
	"static":     TokenStatic,
	"string":     TokenString,
	"struct":     TokenStruct,
	"switch":     TokenSwitch,
	"this":       TokenThis,
	"throw":      TokenThrow,
	"true":       TokenTrue,
	"try":        TokenTry,
	"typeof":     TokenTypeof,
	"uint":       TokenUint,
	"ulong":      TokenUlong,
	"unchecked":  TokenUnchecked,
	"unsafe":     TokenUnsafe,
	"ushort":     TokenUshort,
	"using":      TokenUsing,
	"virtual":    TokenVirtual,
	"void":       TokenVoid,
	"volatile":   TokenVolatile,
	"while":      TokenWhile,
	"__arglist":  TokenArglist,
	"__makeref":  TokenMakeref,
	"__reftype":  TokenReftype,
	"__refvalue": TokenRefvalue,
}

var contextualKeywords = map[string]bool{
	"add": true, "alias": true, "and": true, "ascending": true, "async": true,
	"await": true, "by": true, "descending": true, "dynamic": true, "equals": true,
	"file": true, "from": true, "get": true, "global": true, "group": true,
	"init": true, "into": true, "join": true, "let": true, "managed": true,
	"nameof": true, "nint": true, "not": true, "notnull": true, "nuint": true,
	"on": true, "or": true, "orderby": true, "partial": true, "record": true,
	"remove": true, "required": true, "scoped": true, "select": true, "set": true,
	"unmanaged": true, "value": true, "var": true, "when": true, "where": true,
	"with": true, "yield": true,
}

// LookupKeyword returns the reserved keyword kind for ident, or TokenIdent.
func LookupKeyword(ident string) TokenKind {
	if kind, ok := keywords[ident]; ok {
		return kind
	}
	return TokenIdent
}

// IsContextualKeyword reports whether word has a keyword meaning in some
// grammar position while remaining a valid identifier.
func IsContextualKeyword(word string) bool {
	return contextualKeywords[word]
}
