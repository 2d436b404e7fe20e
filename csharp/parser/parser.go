package parser

import (
	"fmt"
	"io"

	"github.com/Masterminds/semver/v3"

	"github.com/dhamidi/sharp/csharp/preproc"
)

type Option func(*Parser)

func WithFile(path string) Option {
	return func(p *Parser) {
		p.file = path
	}
}

func WithStartLine(line int) Option {
	return func(p *Parser) {
		p.startLine = line
	}
}

// WithDefines sets the conditional-compilation symbols defined before the
// first line of the unit.
func WithDefines(symbols ...string) Option {
	return func(p *Parser) {
		p.defines = append(p.defines, symbols...)
	}
}

// WithLanguageVersion enables feature gating: constructs introduced after
// version v are reported. A nil version accepts everything.
func WithLanguageVersion(v *semver.Version) Option {
	return func(p *Parser) {
		p.langVersion = v
	}
}

type parseFunc func(*Parser) *Node

type Parser struct {
	file        string
	startLine   int
	defines     []string
	langVersion *semver.Version
	reader      io.Reader
	input       []byte

	lexer    *Lexer
	pp       *preproc.State
	tokens   []Token
	pos      int
	eof      bool
	sawToken bool
	regions  []Span

	entry      parseFunc
	ctx        parseContext
	diags      []Diagnostic
	srcDiags   []Diagnostic
	gateDiags  []Diagnostic
	incomplete bool
}

// parseContext carries the grammar flags that change how ambiguous tokens
// are read. It is saved and restored around the productions that set it.
type parseContext struct {
	inPattern   bool
	inQuery     bool
	inAttribute bool
	unsafeDepth int
	async       bool
	// arrowEnds stops expressions before '=>' so that a guard or pattern
	// in a switch expression arm is not read as a lambda.
	arrowEnds bool
}

func newParser(r io.Reader, entry parseFunc, opts []Option) *Parser {
	p := &Parser{
		startLine: 1,
		reader:    r,
		entry:     entry,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseCompilationUnit prepares a parser for a whole source file.
func ParseCompilationUnit(r io.Reader, opts ...Option) *Parser {
	return newParser(r, (*Parser).parseCompilationUnit, opts)
}

// ParseExpression prepares a parser for a single expression.
func ParseExpression(r io.Reader, opts ...Option) *Parser {
	return newParser(r, (*Parser).parseExpressionUnit, opts)
}

// ParseStatement prepares a parser for a single statement.
func ParseStatement(r io.Reader, opts ...Option) *Parser {
	return newParser(r, (*Parser).parseStatementUnit, opts)
}

func (p *Parser) readAll() error {
	if p.input != nil {
		return nil
	}
	data, err := io.ReadAll(p.reader)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	if data == nil {
		data = []byte{}
	}
	p.input = data
	return nil
}

// Finish parses the input and returns the tree. The tree is nil only when
// reading the input failed; syntax errors are reported by Diagnostics.
func (p *Parser) Finish() *Node {
	node, _ := p.FinishErr()
	return node
}

// FinishErr is Finish with the read error exposed.
func (p *Parser) FinishErr() (*Node, error) {
	if err := p.readAll(); err != nil {
		return nil, err
	}
	p.reset()
	return p.entry(p), nil
}

func (p *Parser) reset() {
	p.lexer = NewLexer(p.input, p.file)
	p.lexer.line = p.startLine
	p.pp = preproc.NewState(p.defines...)
	p.tokens = p.tokens[:0]
	p.pos = 0
	p.eof = false
	p.sawToken = false
	p.regions = nil
	p.ctx = parseContext{}
	p.diags = nil
	p.srcDiags = nil
	p.gateDiags = nil
	p.incomplete = false
}

// Reset discards the previous input so the parser can be reused.
func (p *Parser) Reset(r io.Reader) {
	p.reader = r
	p.input = nil
	p.lexer = nil
	p.tokens = nil
	p.pos = 0
}

// Incomplete reports whether the last parse ran out of input while a
// construct was still open, as with "1 +".
func (p *Parser) Incomplete() bool {
	return p.incomplete
}

// Diagnostics returns lexical, preprocessor and syntax diagnostics of the
// last parse in source order.
func (p *Parser) Diagnostics() []Diagnostic {
	var out []Diagnostic
	if p.lexer != nil {
		out = append(out, p.lexer.Diagnostics()...)
	}
	out = append(out, p.srcDiags...)
	out = append(out, p.diags...)
	out = append(out, p.gateDiags...)
	sortDiagnostics(out)
	return out
}

func sortDiagnostics(diags []Diagnostic) {
	// insertion sort keeps the relative order of diagnostics at one offset
	for i := 1; i < len(diags); i++ {
		for j := i; j > 0 && diags[j].Span.Start.Offset < diags[j-1].Span.Start.Offset; j-- {
			diags[j], diags[j-1] = diags[j-1], diags[j]
		}
	}
}

// Symbols returns the conditional-compilation symbols defined at the end of
// the last parse.
func (p *Parser) Symbols() []string {
	if p.pp == nil {
		return nil
	}
	return p.pp.Symbols()
}

func (p *Parser) peek() Token {
	p.fill(p.pos)
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekN(n int) Token {
	p.fill(p.pos + n)
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

func (p *Parser) check(kind TokenKind) bool {
	return p.peek().Kind == kind
}

func (p *Parser) match(kinds ...TokenKind) bool {
	k := p.peek().Kind
	for _, kind := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// checkWord reports whether the next token is the contextual keyword word.
func (p *Parser) checkWord(word string) bool {
	tok := p.peek()
	return tok.Is(word)
}

// peekWord reports whether the token n ahead is the contextual keyword word.
func (p *Parser) peekWord(n int, word string) bool {
	tok := p.peekN(n)
	return tok.Is(word)
}

func (p *Parser) isIdentifier() bool {
	return p.check(TokenIdent)
}

func (p *Parser) leaf(tok Token, kind NodeKind) *Node {
	t := tok
	return &Node{Kind: kind, Span: t.Span, Token: &t}
}

func leafKind(k TokenKind) NodeKind {
	switch {
	case k == TokenIdent:
		return KindIdentifier
	case k.IsLiteral():
		return KindLiteral
	}
	return KindToken
}

// advance consumes the next token and returns it as a leaf. At end of
// input it returns a zero-width missing leaf so that the end-of-file token
// is only ever placed once, by the unit entry point.
func (p *Parser) advance() *Node {
	tok := p.peek()
	if tok.Kind == TokenEOF {
		p.incomplete = true
		return p.missingLeaf(TokenEOF)
	}
	p.pos++
	return p.leaf(tok, leafKind(tok.Kind))
}

func (p *Parser) advanceAs(kind NodeKind) *Node {
	n := p.advance()
	if n.Kind != KindMissing {
		n.Kind = kind
	}
	return n
}

// expect consumes a token of the given kind, or inserts a missing one and
// reports it.
func (p *Parser) expect(kind TokenKind) *Node {
	if p.check(kind) {
		return p.advance()
	}
	if kind == TokenGT && p.check(TokenGE) {
		return p.splitGE()
	}
	p.reportExpected(kind.String())
	return p.missingLeaf(kind)
}

// expectIdentifier consumes an identifier or inserts a missing one.
func (p *Parser) expectIdentifier() *Node {
	if p.isIdentifier() {
		return p.advance()
	}
	p.reportAt(p.peek().Span, CodeIdentifierExpected, "identifier expected")
	n := p.missingLeaf(TokenIdent)
	return n
}

// expectWord consumes the contextual keyword word or inserts it as missing.
func (p *Parser) expectWord(word string) *Node {
	if p.checkWord(word) {
		return p.advance()
	}
	p.reportExpected(word)
	return p.missingLeaf(TokenIdent)
}

func (p *Parser) prevEnd() Position {
	if p.pos > 0 && p.pos <= len(p.tokens) {
		return p.tokens[p.pos-1].Span.End
	}
	return p.peek().Span.Start
}

func (p *Parser) missingLeaf(kind TokenKind) *Node {
	at := p.prevEnd()
	if p.check(TokenEOF) {
		p.incomplete = true
	}
	tok := &Token{Kind: kind, Span: Span{Start: at, End: at}, Missing: true}
	return &Node{Kind: KindMissing, Span: tok.Span, Token: tok}
}

func (p *Parser) reportExpected(what string) {
	at := p.prevEnd()
	code := CodeSyntaxError
	switch what {
	case ";":
		code = CodeSemicolonExpected
	case "}":
		code = CodeCloseBraceExpected
	case "{":
		code = CodeOpenBraceExpected
	}
	p.reportAt(Span{Start: at, End: at}, code, fmt.Sprintf("'%s' expected", what))
}

// reportAt records a syntax error unless one was already reported at the
// same offset, which keeps one mistake from producing a cascade.
func (p *Parser) reportAt(span Span, code, msg string) {
	if n := len(p.diags); n > 0 && p.diags[n-1].Span.Start.Offset == span.Start.Offset {
		return
	}
	p.diags = append(p.diags, Diagnostic{Span: span, Severity: SeverityError, Code: code, Message: msg})
}

func (p *Parser) warnAt(span Span, code, msg string) {
	p.diags = append(p.diags, Diagnostic{Span: span, Severity: SeverityWarning, Code: code, Message: msg})
}

// mustProgress returns a function that checks if the parser has advanced.
// Call it at the start of a loop iteration, then call the returned function
// at the end. When nothing was consumed it wraps the offending token in an
// error node under parent, so the loop always moves and no text is lost.
func (p *Parser) mustProgress(parent *Node) func() bool {
	saved := p.pos
	return func() bool {
		if p.pos != saved {
			return true
		}
		if !p.check(TokenEOF) {
			parent.AddChild(p.unexpected())
		}
		return false
	}
}

// unexpected wraps the next token in an error node.
func (p *Parser) unexpected() *Node {
	tok := p.peek()
	p.reportAt(tok.Span, CodeUnexpectedToken, fmt.Sprintf("unexpected %s", describe(tok)))
	node := &Node{Kind: KindError, Error: &Error{Message: "unexpected " + describe(tok), Got: &tok}}
	node.AddChild(p.advance())
	return p.finishNode(node)
}

func describe(tok Token) string {
	switch tok.Kind {
	case TokenEOF:
		return "end of file"
	case TokenIdent:
		return fmt.Sprintf("identifier '%s'", tok.Literal)
	}
	if tok.Literal != "" {
		return fmt.Sprintf("'%s'", tok.Literal)
	}
	return tok.Kind.String()
}

func (p *Parser) startNode(kind NodeKind) *Node {
	return &Node{
		Kind: kind,
		Span: Span{Start: p.peek().Span.Start},
	}
}

// finishNode sets the span of n to the union of its children. A node
// without children is zero width at the position it was started.
func (p *Parser) finishNode(n *Node) *Node {
	if len(n.Children) == 0 {
		if n.Token == nil {
			at := p.prevEnd()
			if n.Span.Start.Line != 0 {
				at = n.Span.Start
			}
			n.Span = Span{Start: at, End: at}
		}
		return n
	}
	n.Span.Start = n.Children[0].Span.Start
	n.Span.End = n.Children[len(n.Children)-1].Span.End
	return n
}

func (p *Parser) wrap(kind NodeKind, children ...*Node) *Node {
	n := &Node{Kind: kind}
	for _, c := range children {
		n.AddChild(c)
	}
	return p.finishNode(n)
}

// errorNode reports msg at the next token and sweeps tokens into an error
// node until one of recoverTo is next. At least one token is consumed.
func (p *Parser) errorNode(code, msg string, recoverTo []TokenKind, expected ...TokenKind) *Node {
	tok := p.peek()
	p.reportAt(tok.Span, code, msg)
	node := &Node{
		Kind: KindError,
		Span: Span{Start: tok.Span.Start, End: tok.Span.Start},
		Error: &Error{
			Message:  msg,
			Expected: expected,
			Got:      &tok,
		},
	}
	if tok.Kind == TokenEOF {
		p.incomplete = true
		return node
	}
	node.AddChild(p.advance())
	for len(recoverTo) > 0 && !p.check(TokenEOF) && !p.match(recoverTo...) {
		node.AddChild(p.advance())
	}
	return p.finishNode(node)
}

type checkpoint struct {
	pos        int
	ndiags     int
	ngate      int
	ctx        parseContext
	incomplete bool
}

func (p *Parser) mark() checkpoint {
	return checkpoint{pos: p.pos, ndiags: len(p.diags), ngate: len(p.gateDiags), ctx: p.ctx, incomplete: p.incomplete}
}

func (p *Parser) restore(c checkpoint) {
	p.pos = c.pos
	p.diags = p.diags[:c.ndiags]
	p.gateDiags = p.gateDiags[:c.ngate]
	p.ctx = c.ctx
	p.incomplete = c.incomplete
}

// speculate runs fn and rewinds. It reports whether fn claimed a match and
// did so without any syntax error.
func (p *Parser) speculate(fn func() bool) bool {
	c := p.mark()
	ok := fn() && len(p.diags) == c.ndiags
	p.restore(c)
	return ok
}

// attempt runs fn and keeps its result when it succeeded cleanly; otherwise
// it rewinds and returns nil.
func (p *Parser) attempt(fn func() *Node) *Node {
	c := p.mark()
	n := fn()
	if n == nil || len(p.diags) != c.ndiags {
		p.restore(c)
		return nil
	}
	return n
}

// withContext runs fn with the context changed by set, restoring it after.
func (p *Parser) withContext(set func(*parseContext), fn func() *Node) *Node {
	saved := p.ctx
	set(&p.ctx)
	n := fn()
	p.ctx = saved
	return n
}

// finishUnit sweeps anything left before end of input into an error node
// and appends the end-of-file token, which carries the trailing trivia.
func (p *Parser) finishUnit(node *Node) *Node {
	if !p.check(TokenEOF) {
		node.AddChild(p.errorNode(CodeUnexpectedToken, fmt.Sprintf("unexpected %s", describe(p.peek())), []TokenKind{TokenEOF}))
	}
	eof := p.peek()
	node.AddChild(p.leaf(eof, KindToken))
	p.checkUnclosed(eof)
	return p.finishNode(node)
}

func (p *Parser) parseExpressionUnit() *Node {
	node := &Node{Kind: KindCompilationUnit}
	node.AddField("expression", p.parseExpression())
	return p.finishUnit(node)
}

func (p *Parser) parseStatementUnit() *Node {
	node := &Node{Kind: KindCompilationUnit}
	p.ctx.async = true
	node.AddField("statement", p.parseStatement())
	return p.finishUnit(node)
}
