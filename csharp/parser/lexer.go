package parser

import (
	"unicode"
	"unicode/utf8"
)

type Lexer struct {
	input  []byte
	file   string
	pos    int
	line   int
	column int
	// atLineStart is true while only whitespace has been seen on the
	// current line, which is where a '#' starts a directive.
	atLineStart bool
	interp      []interpFrame
	diags       []Diagnostic
}

// interpFrame tracks one open interpolated string. Holes re-enter ordinary
// lexing; depth counts brackets opened inside the current hole so that the
// closing '}' and the format ':' are only recognized at depth zero.
type interpFrame struct {
	verbatim bool
	inHole   bool
	format   bool
	depth    int
}

// LexerState is a snapshot of the lexer used to restart scanning from an
// earlier point.
type LexerState struct {
	pos         int
	line        int
	column      int
	atLineStart bool
	interp      []interpFrame
	ndiags      int
}

func NewLexer(input []byte, file string) *Lexer {
	return &Lexer{
		input:       input,
		file:        file,
		line:        1,
		column:      1,
		atLineStart: true,
	}
}

func (l *Lexer) Position() Position {
	return Position{
		File:   l.file,
		Offset: l.pos,
		Line:   l.line,
		Column: l.column,
	}
}

// Diagnostics returns the lexical problems found so far.
func (l *Lexer) Diagnostics() []Diagnostic {
	return l.diags
}

func (l *Lexer) Mark() LexerState {
	return LexerState{
		pos:         l.pos,
		line:        l.line,
		column:      l.column,
		atLineStart: l.atLineStart,
		interp:      append([]interpFrame(nil), l.interp...),
		ndiags:      len(l.diags),
	}
}

func (l *Lexer) Restore(s LexerState) {
	l.pos = s.pos
	l.line = s.line
	l.column = s.column
	l.atLineStart = s.atLineStart
	l.interp = append(l.interp[:0], s.interp...)
	l.diags = l.diags[:s.ndiags]
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) peekN(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

func (l *Lexer) peekRune() (rune, int) {
	if l.pos >= len(l.input) {
		return 0, 0
	}
	return utf8.DecodeRune(l.input[l.pos:])
}

func (l *Lexer) advance() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	ch := l.input[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

func (l *Lexer) advanceN(n int) {
	for i := 0; i < n; i++ {
		l.advance()
	}
}

func (l *Lexer) errorf(start Position, code, msg string) {
	l.diags = append(l.diags, Diagnostic{
		Span:     Span{Start: start, End: l.Position()},
		Severity: SeverityError,
		Code:     code,
		Message:  msg,
	})
}

// NextToken returns the next raw token, trivia included. Tokens are
// produced on demand; the lexer never looks further ahead than the token
// it is scanning.
func (l *Lexer) NextToken() Token {
	startPos := l.Position()

	if n := len(l.interp); n > 0 {
		f := &l.interp[n-1]
		if !f.inHole {
			return l.scanInterpolatedText(startPos, f)
		}
		if f.format {
			return l.scanInterpolationFormat(startPos, f)
		}
	}

	if l.pos >= len(l.input) {
		if len(l.interp) > 0 {
			l.errorf(startPos, CodeUnterminatedInterpStr, "unterminated interpolated string")
			l.interp = l.interp[:0]
		}
		return Token{Kind: TokenEOF, Span: Span{Start: startPos, End: startPos}}
	}

	ch := l.peek()

	if ch == '\n' || ch == '\r' {
		return l.scanNewline(startPos)
	}
	if ch == ' ' || ch == '\t' || ch == '\v' || ch == '\f' {
		return l.scanWhitespace(startPos)
	}
	if ch >= utf8.RuneSelf {
		if r, _ := l.peekRune(); unicode.Is(unicode.Zs, r) {
			return l.scanWhitespace(startPos)
		}
	}

	atLineStart := l.atLineStart
	l.atLineStart = false

	if ch == '/' && l.peekN(1) == '/' {
		return l.scanLineComment(startPos)
	}
	if ch == '/' && l.peekN(1) == '*' {
		return l.scanBlockComment(startPos)
	}
	if ch == '#' && len(l.interp) == 0 {
		if atLineStart {
			return l.scanDirective(startPos)
		}
		l.advance()
		l.errorf(startPos, CodeDirectivePlacement, "preprocessor directives must appear as the first non-whitespace character on a line")
		return l.token(TokenError, startPos)
	}

	if ch == '$' || (ch == '@' && l.peekN(1) == '$') {
		return l.scanInterpolatedStart(startPos)
	}
	if ch == '@' && l.peekN(1) == '"' {
		return l.scanVerbatimString(startPos)
	}
	if ch == '@' || ch == '_' || isLetterAt(l) {
		return l.scanIdentOrKeyword(startPos)
	}
	if isDigit(ch) || (ch == '.' && isDigit(l.peekN(1))) {
		return l.scanNumber(startPos)
	}
	if ch == '\'' {
		return l.scanCharLiteral(startPos)
	}
	if ch == '"' {
		return l.scanStringLiteral(startPos)
	}

	tok := l.scanOperator(startPos)
	l.trackHoleDepth(tok.Kind)
	return tok
}

func isLetterAt(l *Lexer) bool {
	r, _ := l.peekRune()
	return isIdentStart(r)
}

func (l *Lexer) scanNewline(start Position) Token {
	if l.peek() == '\r' && l.peekN(1) == '\n' {
		l.advanceN(2)
	} else {
		l.advance()
	}
	l.atLineStart = true
	return l.token(TokenNewline, start)
}

func (l *Lexer) scanWhitespace(start Position) Token {
	for l.pos < len(l.input) {
		ch := l.peek()
		if ch == ' ' || ch == '\t' || ch == '\v' || ch == '\f' {
			l.advance()
			continue
		}
		if ch >= utf8.RuneSelf {
			if r, size := l.peekRune(); unicode.Is(unicode.Zs, r) {
				l.advanceN(size)
				continue
			}
		}
		break
	}
	return l.token(TokenWhitespace, start)
}

func (l *Lexer) scanLineComment(start Position) Token {
	l.advanceN(2)
	for l.pos < len(l.input) && l.peek() != '\n' && l.peek() != '\r' {
		l.advance()
	}
	return l.token(TokenLineComment, start)
}

func (l *Lexer) scanBlockComment(start Position) Token {
	l.advanceN(2)
	for {
		if l.pos >= len(l.input) {
			l.errorf(start, CodeUnterminatedComment, "end-of-file found, '*/' expected")
			break
		}
		if l.peek() == '*' && l.peekN(1) == '/' {
			l.advanceN(2)
			break
		}
		l.advance()
	}
	return l.token(TokenBlockComment, start)
}

// scanDirective consumes a directive line up to, not including, the line
// terminator.
func (l *Lexer) scanDirective(start Position) Token {
	for l.pos < len(l.input) && l.peek() != '\n' && l.peek() != '\r' {
		l.advance()
	}
	return l.token(TokenDirective, start)
}

// ScanDisabledText consumes the lines of an excluded conditional section. It
// stops at the start of the next line whose first non-whitespace character
// is '#', or at end of input. It reports false when there was nothing to
// consume.
func (l *Lexer) ScanDisabledText() (Token, bool) {
	start := l.Position()
	for l.pos < len(l.input) {
		if l.atLineStart {
			i := l.pos
			for i < len(l.input) && (l.input[i] == ' ' || l.input[i] == '\t') {
				i++
			}
			if i < len(l.input) && l.input[i] == '#' {
				break
			}
		}
		ch := l.advance()
		if ch == '\n' {
			l.atLineStart = true
		} else if ch == '\r' {
			if l.peek() == '\n' {
				l.advance()
			}
			l.atLineStart = true
		} else {
			l.atLineStart = false
		}
	}
	if l.pos == start.Offset {
		return Token{}, false
	}
	return l.token(TokenDisabledText, start), true
}

func (l *Lexer) scanIdentOrKeyword(start Position) Token {
	verbatim := false
	if l.peek() == '@' {
		verbatim = true
		l.advance()
		if r, _ := l.peekRune(); !isIdentStart(r) {
			l.errorf(start, CodeUnexpectedCharacter, "identifier expected after '@'")
			return l.token(TokenError, start)
		}
	}
	for l.pos < len(l.input) {
		r, size := l.peekRune()
		if !isIdentPart(r) {
			break
		}
		l.advanceN(size)
	}
	tok := l.token(TokenIdent, start)
	if verbatim {
		tok.Value = tok.Literal[1:]
		return tok
	}
	tok.Value = tok.Literal
	if kind := LookupKeyword(tok.Literal); kind != TokenIdent {
		tok.Kind = kind
		return tok
	}
	tok.Contextual = IsContextualKeyword(tok.Literal)
	return tok
}

func (l *Lexer) scanNumber(start Position) Token {
	kind := TokenIntLiteral
	if l.peek() == '0' && (l.peekN(1) == 'x' || l.peekN(1) == 'X') {
		l.advanceN(2)
		if !l.scanDigits(isHexDigit) {
			l.errorf(start, CodeInvalidNumber, "invalid number")
		}
		l.scanIntegerSuffix()
		return l.token(kind, start)
	}
	if l.peek() == '0' && (l.peekN(1) == 'b' || l.peekN(1) == 'B') {
		l.advanceN(2)
		if !l.scanDigits(func(c byte) bool { return c == '0' || c == '1' }) {
			l.errorf(start, CodeInvalidNumber, "invalid number")
		}
		l.scanIntegerSuffix()
		return l.token(kind, start)
	}

	l.scanDigits(isDigit)
	if l.peek() == '.' && isDigit(l.peekN(1)) {
		kind = TokenRealLiteral
		l.advance()
		l.scanDigits(isDigit)
	}
	if l.peek() == 'e' || l.peek() == 'E' {
		next := l.peekN(1)
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekN(2))) {
			kind = TokenRealLiteral
			l.advanceN(2)
			l.scanDigits(isDigit)
		}
	}
	switch l.peek() {
	case 'f', 'F', 'd', 'D', 'm', 'M':
		kind = TokenRealLiteral
		l.advance()
		return l.token(kind, start)
	}
	if kind == TokenIntLiteral {
		l.scanIntegerSuffix()
	}
	return l.token(kind, start)
}

func (l *Lexer) scanDigits(ok func(byte) bool) bool {
	any := false
	for ok(l.peek()) || (l.peek() == '_' && any) {
		if l.peek() != '_' {
			any = true
		}
		l.advance()
	}
	return any
}

func (l *Lexer) scanIntegerSuffix() {
	switch l.peek() {
	case 'u', 'U':
		l.advance()
		if l.peek() == 'l' || l.peek() == 'L' {
			l.advance()
		}
	case 'l', 'L':
		l.advance()
		if l.peek() == 'u' || l.peek() == 'U' {
			l.advance()
		}
	}
}

func (l *Lexer) scanCharLiteral(start Position) Token {
	l.advance()
	bodyStart := l.pos
	for l.pos < len(l.input) {
		ch := l.peek()
		if ch == '\'' || ch == '\n' || ch == '\r' {
			break
		}
		if ch == '\\' && l.pos+1 < len(l.input) {
			l.advance()
		}
		l.advance()
	}
	body := string(l.input[bodyStart:l.pos])
	if l.peek() != '\'' {
		l.errorf(start, CodeNewlineInConstant, "newline in constant")
		tok := l.token(TokenCharLiteral, start)
		tok.Value, _ = decodeEscapes(body)
		return tok
	}
	l.advance()
	tok := l.token(TokenCharLiteral, start)
	value, errs := decodeEscapes(body)
	l.reportEscapes(start, errs)
	tok.Value = value
	if len(errs) > 0 {
		// A bad escape is kept verbatim in value, so its length says nothing.
		return tok
	}
	switch n := utf8.RuneCountInString(value); {
	case n == 0:
		l.errorf(start, CodeEmptyChar, "empty character literal")
	case n > 1 && !isSurrogatePair(value):
		l.errorf(start, CodeTooManyChars, "too many characters in character literal")
	}
	return tok
}

func isSurrogatePair(s string) bool {
	r, size := utf8.DecodeRuneInString(s)
	return size == len(s) && r > 0xFFFF
}

func (l *Lexer) scanStringLiteral(start Position) Token {
	l.advance()
	bodyStart := l.pos
	for l.pos < len(l.input) {
		ch := l.peek()
		if ch == '"' || ch == '\n' || ch == '\r' {
			break
		}
		if ch == '\\' && l.pos+1 < len(l.input) && l.peekN(1) != '\n' {
			l.advance()
		}
		l.advance()
	}
	body := string(l.input[bodyStart:l.pos])
	if l.peek() == '"' {
		l.advance()
	} else {
		l.errorf(start, CodeNewlineInConstant, "newline in constant")
	}
	tok := l.token(TokenStringLiteral, start)
	value, errs := decodeEscapes(body)
	l.reportEscapes(start, errs)
	tok.Value = value
	return tok
}

func (l *Lexer) scanVerbatimString(start Position) Token {
	l.advanceN(2)
	bodyStart := l.pos
	for {
		if l.pos >= len(l.input) {
			l.errorf(start, CodeUnterminatedString, "unterminated string literal")
			tok := l.token(TokenVerbatimStringLiteral, start)
			tok.Value = decodeVerbatim(string(l.input[bodyStart:l.pos]))
			return tok
		}
		if l.peek() == '"' {
			if l.peekN(1) == '"' {
				l.advanceN(2)
				continue
			}
			break
		}
		l.advance()
	}
	body := string(l.input[bodyStart:l.pos])
	l.advance()
	tok := l.token(TokenVerbatimStringLiteral, start)
	tok.Value = decodeVerbatim(body)
	return tok
}

func (l *Lexer) reportEscapes(lit Position, errs []escapeError) {
	for _, e := range errs {
		// The body starts one byte after the opening quote.
		at := Position{File: lit.File, Offset: lit.Offset + 1 + e.offset, Line: lit.Line, Column: lit.Column + 1 + e.offset}
		end := at
		end.Offset += e.length
		end.Column += e.length
		l.diags = append(l.diags, Diagnostic{
			Span:     Span{Start: at, End: end},
			Severity: SeverityError,
			Code:     CodeBadEscape,
			Message:  e.msg,
		})
	}
}

func (l *Lexer) scanInterpolatedStart(start Position) Token {
	verbatim := false
	for l.peek() == '$' || l.peek() == '@' {
		if l.peek() == '@' {
			verbatim = true
		}
		l.advance()
	}
	if l.peek() != '"' {
		l.errorf(start, CodeUnexpectedCharacter, "unexpected character '$'")
		return l.token(TokenError, start)
	}
	l.advance()
	l.interp = append(l.interp, interpFrame{verbatim: verbatim})
	return l.token(TokenInterpolatedStart, start)
}

// scanInterpolatedText scans literal text of an interpolated string up to
// the next hole or the closing quote.
func (l *Lexer) scanInterpolatedText(start Position, f *interpFrame) Token {
	if l.pos >= len(l.input) {
		l.errorf(start, CodeUnterminatedInterpStr, "unterminated interpolated string")
		l.interp = l.interp[:len(l.interp)-1]
		return Token{Kind: TokenEOF, Span: Span{Start: start, End: start}}
	}
	switch l.peek() {
	case '"':
		if !f.verbatim || l.peekN(1) != '"' {
			l.advance()
			l.interp = l.interp[:len(l.interp)-1]
			return l.token(TokenInterpolatedEnd, start)
		}
	case '{':
		if l.peekN(1) != '{' {
			l.advance()
			f.inHole = true
			f.depth = 0
			return l.token(TokenInterpolationOpen, start)
		}
	}
	for l.pos < len(l.input) {
		ch := l.peek()
		if ch == '"' {
			if f.verbatim && l.peekN(1) == '"' {
				l.advanceN(2)
				continue
			}
			break
		}
		if ch == '{' || ch == '}' {
			if l.peekN(1) == ch {
				l.advanceN(2)
				continue
			}
			if ch == '{' {
				break
			}
			at := l.Position()
			l.advance()
			l.errorf(at, CodeSyntaxError, "'}' must be doubled in interpolated string text")
			continue
		}
		if !f.verbatim {
			if ch == '\n' || ch == '\r' {
				l.errorf(start, CodeNewlineInConstant, "newline in constant")
				l.interp = l.interp[:len(l.interp)-1]
				break
			}
			if ch == '\\' && l.pos+1 < len(l.input) {
				l.advance()
			}
		}
		l.advance()
	}
	tok := l.token(TokenInterpolatedText, start)
	if f.verbatim {
		tok.Value = decodeBraces(decodeVerbatim(tok.Literal))
	} else {
		value, errs := decodeEscapes(tok.Literal)
		for i := range errs {
			errs[i].offset--
		}
		l.reportEscapes(start, errs)
		tok.Value = decodeBraces(value)
	}
	return tok
}

// scanInterpolationFormat scans ':' and the format specifier of a hole.
func (l *Lexer) scanInterpolationFormat(start Position, f *interpFrame) Token {
	l.advance()
	for l.pos < len(l.input) {
		ch := l.peek()
		if ch == '}' || ch == '"' || (!f.verbatim && (ch == '\n' || ch == '\r')) {
			break
		}
		l.advance()
	}
	f.format = false
	tok := l.token(TokenInterpolationFormat, start)
	tok.Value = tok.Literal[1:]
	return tok
}

// trackHoleDepth keeps bracket depth inside an interpolation hole and turns
// the closing brace and the format colon into their interpolation kinds.
func (l *Lexer) trackHoleDepth(kind TokenKind) {
	n := len(l.interp)
	if n == 0 || !l.interp[n-1].inHole {
		return
	}
	f := &l.interp[n-1]
	switch kind {
	case TokenLParen, TokenLBracket, TokenLBrace:
		f.depth++
	case TokenRParen, TokenRBracket:
		if f.depth > 0 {
			f.depth--
		}
	case TokenRBrace:
		if f.depth > 0 {
			f.depth--
		}
	}
}

func (l *Lexer) scanOperator(start Position) Token {
	if n := len(l.interp); n > 0 && l.interp[n-1].inHole && l.interp[n-1].depth == 0 {
		f := &l.interp[n-1]
		switch {
		case l.peek() == '}':
			l.advance()
			f.inHole = false
			return l.token(TokenInterpolationClose, start)
		case l.peek() == ':' && l.peekN(1) != ':':
			f.format = true
			return l.scanInterpolationFormat(start, f)
		}
	}

	ch := l.advance()
	switch ch {
	case '(':
		return l.token(TokenLParen, start)
	case ')':
		return l.token(TokenRParen, start)
	case '{':
		return l.token(TokenLBrace, start)
	case '}':
		return l.token(TokenRBrace, start)
	case '[':
		return l.token(TokenLBracket, start)
	case ']':
		return l.token(TokenRBracket, start)
	case ';':
		return l.token(TokenSemicolon, start)
	case ',':
		return l.token(TokenComma, start)
	case '~':
		return l.token(TokenTilde, start)
	case '.':
		if l.peek() == '.' {
			l.advance()
			return l.token(TokenDotDot, start)
		}
		return l.token(TokenDot, start)
	case ':':
		if l.peek() == ':' {
			l.advance()
			return l.token(TokenColonColon, start)
		}
		return l.token(TokenColon, start)
	case '?':
		if l.peek() == '?' {
			l.advance()
			if l.peek() == '=' {
				l.advance()
				return l.token(TokenCoalesceAssign, start)
			}
			return l.token(TokenQuestionQuestion, start)
		}
		return l.token(TokenQuestion, start)
	case '=':
		switch l.peek() {
		case '=':
			l.advance()
			return l.token(TokenEQ, start)
		case '>':
			l.advance()
			return l.token(TokenFatArrow, start)
		}
		return l.token(TokenAssign, start)
	case '!':
		if l.peek() == '=' {
			l.advance()
			return l.token(TokenNE, start)
		}
		return l.token(TokenBang, start)
	case '<':
		if l.peek() == '<' {
			l.advance()
			if l.peek() == '=' {
				l.advance()
				return l.token(TokenShlAssign, start)
			}
			return l.token(TokenShl, start)
		}
		if l.peek() == '=' {
			l.advance()
			return l.token(TokenLE, start)
		}
		return l.token(TokenLT, start)
	case '>':
		if l.peek() == '=' {
			l.advance()
			return l.token(TokenGE, start)
		}
		return l.token(TokenGT, start)
	case '+':
		switch l.peek() {
		case '+':
			l.advance()
			return l.token(TokenIncrement, start)
		case '=':
			l.advance()
			return l.token(TokenPlusAssign, start)
		}
		return l.token(TokenPlus, start)
	case '-':
		switch l.peek() {
		case '-':
			l.advance()
			return l.token(TokenDecrement, start)
		case '=':
			l.advance()
			return l.token(TokenMinusAssign, start)
		case '>':
			l.advance()
			return l.token(TokenArrow, start)
		}
		return l.token(TokenMinus, start)
	case '*':
		if l.peek() == '=' {
			l.advance()
			return l.token(TokenStarAssign, start)
		}
		return l.token(TokenStar, start)
	case '/':
		if l.peek() == '=' {
			l.advance()
			return l.token(TokenSlashAssign, start)
		}
		return l.token(TokenSlash, start)
	case '%':
		if l.peek() == '=' {
			l.advance()
			return l.token(TokenPercentAssign, start)
		}
		return l.token(TokenPercent, start)
	case '&':
		switch l.peek() {
		case '&':
			l.advance()
			return l.token(TokenAndAnd, start)
		case '=':
			l.advance()
			return l.token(TokenAndAssign, start)
		}
		return l.token(TokenAmp, start)
	case '|':
		switch l.peek() {
		case '|':
			l.advance()
			return l.token(TokenOrOr, start)
		case '=':
			l.advance()
			return l.token(TokenOrAssign, start)
		}
		return l.token(TokenPipe, start)
	case '^':
		if l.peek() == '=' {
			l.advance()
			return l.token(TokenXorAssign, start)
		}
		return l.token(TokenCaret, start)
	}

	// Consume the rest of a multi-byte character so the error token holds
	// the whole rune.
	if ch >= utf8.RuneSelf {
		for l.pos < len(l.input) && !utf8.RuneStart(l.input[l.pos]) {
			l.advance()
		}
	}
	l.errorf(start, CodeUnexpectedCharacter, "unexpected character")
	return l.token(TokenError, start)
}

func (l *Lexer) token(kind TokenKind, start Position) Token {
	end := l.Position()
	return Token{
		Kind:    kind,
		Span:    Span{Start: start, End: end},
		Literal: string(l.input[start.Offset:end.Offset]),
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.Is(unicode.Nl, r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r) ||
		unicode.In(r, unicode.Mn, unicode.Mc, unicode.Pc, unicode.Cf)
}
