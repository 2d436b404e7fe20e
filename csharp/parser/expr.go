package parser

import "fmt"

// parseExpression parses a full expression including assignment.
func (p *Parser) parseExpression() *Node {
	return p.parseExpr(PrecAssign)
}

// parseExpr parses an expression whose operators all bind at least as
// tightly as min.
func (p *Parser) parseExpr(min Precedence) *Node {
	return p.parseBinaryRest(p.parseUnary(), min)
}

func (p *Parser) parseBinaryRest(left *Node, min Precedence) *Node {
	for {
		if p.checkWord("with") && p.peekN(1).Kind == TokenLBrace {
			if withLevel.Prec < min {
				return left
			}
			left = p.parseWith(left)
			continue
		}
		kind, width := p.binaryOperator()
		level, ok := BinaryPrecedence(kind)
		if !ok || level.Prec < min {
			return left
		}
		switch {
		case kind == TokenQuestion:
			left = p.parseConditional(left)
		case kind == TokenIs:
			left = p.parseIsRest(left)
		case kind == TokenAs:
			n := &Node{Kind: KindAsExpr}
			n.AddField("expression", left)
			n.AddField("operator", p.advance())
			n.AddField("type", p.parseTypeMode(typeModeExpression))
			left = p.finishNode(n)
		case kind == TokenSwitch:
			if p.peekN(1).Kind != TokenLBrace {
				return left
			}
			left = p.parseSwitchExpr(left)
		case kind == TokenDotDot:
			left = p.parseRange(left)
			if p.check(TokenDotDot) {
				p.reportAt(p.peek().Span, CodeSyntaxError, "the range operator cannot be chained")
			}
		case kind.IsAssignment():
			n := &Node{Kind: KindAssignExpr}
			n.AddField("left", left)
			op := p.takeOperator(kind, width)
			n.AddField("operator", op)
			if kind == TokenCoalesceAssign {
				p.requireFeature(FeatureNullCoalescingAssignment, op.Span)
			}
			n.AddField("right", p.parseExpr(level.next()))
			left = p.finishNode(n)
		default:
			n := &Node{Kind: KindBinaryExpr}
			n.AddField("left", left)
			n.AddField("operator", p.takeOperator(kind, width))
			n.AddField("right", p.parseExpr(level.next()))
			left = p.finishNode(n)
		}
	}
}

// binaryOperator returns the operator at the cursor and how many tokens
// it spans. Adjacent '>' '>' form a shift and '>' '>=' a shift assignment.
func (p *Parser) binaryOperator() (TokenKind, int) {
	tok := p.peek()
	if tok.Kind == TokenGT {
		next := p.peekN(1)
		if next.Span.Start.Offset == tok.Span.End.Offset && len(next.Leading) == 0 {
			switch next.Kind {
			case TokenGT:
				return TokenShr, 2
			case TokenGE:
				return TokenShrAssign, 2
			}
		}
	}
	return tok.Kind, 1
}

func (p *Parser) takeOperator(kind TokenKind, width int) *Node {
	if width == 1 {
		return p.advance()
	}
	first := p.peek()
	p.pos++
	second := p.peek()
	p.pos++
	merged := Token{
		Kind:    kind,
		Span:    Span{Start: first.Span.Start, End: second.Span.End},
		Literal: first.Literal + second.Literal,
		Leading: first.Leading,
	}
	return p.leaf(merged, KindToken)
}

func (p *Parser) parseConditional(cond *Node) *Node {
	n := &Node{Kind: KindConditionalExpr}
	n.AddField("condition", cond)
	n.AddChild(p.advance())
	n.AddField("whenTrue", p.nested(p.parseExpression))
	n.AddChild(p.expect(TokenColon))
	n.AddField("whenFalse", p.parseExpression())
	return p.finishNode(n)
}

func (p *Parser) parseRange(left *Node) *Node {
	n := &Node{Kind: KindRangeExpr}
	n.AddField("left", left)
	op := p.advance()
	n.AddField("operator", op)
	if p.canStartRangeOperand() {
		n.AddField("right", p.parseExpr(PrecRange+1))
	}
	p.requireFeature(FeatureRanges, op.Span)
	return p.finishNode(n)
}

func (p *Parser) canStartRangeOperand() bool {
	tok := p.peek()
	if tok.Kind == TokenDotDot {
		return false
	}
	if tok.Kind == TokenIdent && p.isOperatorWord(tok) {
		return false
	}
	return canStartExpression(tok)
}

func (p *Parser) parseWith(left *Node) *Node {
	n := &Node{Kind: KindWithExpr}
	n.AddField("expression", left)
	kw := p.advanceAs(KindToken)
	n.AddChild(kw)
	n.AddField("initializer", p.parseInitializer())
	p.requireFeature(FeatureWithExpressions, kw.Span)
	return p.finishNode(n)
}

// parseIsRest parses the right side of 'is'. A bare type gives a type test;
// anything else, or a type followed by a designation or subpatterns, is a
// pattern.
func (p *Parser) parseIsRest(left *Node) *Node {
	isTok := p.advance()
	if !(p.checkWord("not") && canStartPattern(p.peekN(1))) {
		t := p.attempt(func() *Node {
			t := p.parseTypeMode(typeModeExpression)
			if p.isPatternContinuation() {
				return nil
			}
			return t
		})
		if t != nil {
			n := &Node{Kind: KindIsExpr}
			n.AddField("expression", left)
			n.AddField("operator", isTok)
			n.AddField("type", t)
			return p.finishNode(n)
		}
	}
	n := &Node{Kind: KindIsPatternExpr}
	n.AddField("expression", left)
	n.AddField("operator", isTok)
	n.AddField("pattern", p.parsePattern())
	p.requireFeature(FeaturePatternMatching, isTok.Span)
	return p.finishNode(n)
}

func (p *Parser) isPatternContinuation() bool {
	tok := p.peek()
	switch tok.Kind {
	case TokenLParen, TokenLBrace:
		return true
	case TokenIdent:
		return !p.ctx.inQuery || !isQueryWord(tok)
	}
	return false
}

var queryWords = map[string]bool{
	"from": true, "where": true, "select": true, "group": true, "into": true,
	"orderby": true, "join": true, "let": true, "on": true, "equals": true,
	"by": true, "ascending": true, "descending": true,
}

func isQueryWord(tok Token) bool {
	return tok.Kind == TokenIdent && queryWords[tok.Literal]
}

// isOperatorWord reports whether an identifier token acts as a contextual
// operator at this point and therefore cannot start an operand.
func (p *Parser) isOperatorWord(tok Token) bool {
	switch tok.Literal {
	case "with", "and", "or", "when":
		return true
	}
	return p.ctx.inQuery && isQueryWord(tok)
}

// nested runs fn inside brackets, where '=>' can start a lambda again.
func (p *Parser) nested(fn func() *Node) *Node {
	return p.withContext(func(c *parseContext) { c.arrowEnds = false }, fn)
}

func (p *Parser) parseUnary() *Node {
	tok := p.peek()
	switch tok.Kind {
	case TokenPlus, TokenMinus, TokenBang, TokenTilde, TokenIncrement, TokenDecrement,
		TokenAmp, TokenStar, TokenCaret:
		n := p.startNode(KindPrefixUnaryExpr)
		op := p.advance()
		n.AddField("operator", op)
		n.AddField("operand", p.parseUnary())
		if tok.Kind == TokenCaret {
			p.requireFeature(FeatureRanges, op.Span)
		}
		return p.finishNode(n)
	case TokenDotDot:
		n := p.startNode(KindRangeExpr)
		op := p.advance()
		n.AddField("operator", op)
		if p.canStartRangeOperand() {
			n.AddField("right", p.parseExpr(PrecRange+1))
		}
		p.requireFeature(FeatureRanges, op.Span)
		return p.finishNode(n)
	case TokenRef:
		n := p.startNode(KindRefExpr)
		n.AddChild(p.advance())
		n.AddField("expression", p.parseUnary())
		return p.finishNode(n)
	case TokenThrow:
		n := p.startNode(KindThrowExpr)
		n.AddChild(p.advance())
		n.AddField("expression", p.parseExpr(PrecCoalesce))
		return p.finishNode(n)
	case TokenLParen:
		if !p.ctx.arrowEnds && p.isParenLambdaAt(0) {
			return p.parseLambda()
		}
		if p.isCast() {
			return p.parseCast()
		}
	case TokenIdent:
		if tok.Is("await") && p.isAwait() {
			n := p.startNode(KindAwaitExpr)
			kw := p.advanceAs(KindToken)
			n.AddChild(kw)
			if !p.ctx.async {
				p.reportAt(kw.Span, CodeAwaitOutsideAsync, "the 'await' operator can only be used within an async method")
			}
			n.AddField("expression", p.parseUnary())
			return p.finishNode(n)
		}
	}
	return p.parsePostfix(p.parsePrimary())
}

// isAwait decides whether 'await' at the cursor is the operator or an
// identifier. Inside async code it is the operator whenever an operand can
// follow; elsewhere only when what follows could not continue an expression.
func (p *Parser) isAwait() bool {
	next := p.peekN(1)
	if p.ctx.async {
		return canStartExpression(next) && !isBinaryOnlyStart(next.Kind) && !(next.Kind == TokenIdent && p.isOperatorWord(next))
	}
	switch next.Kind {
	case TokenIdent:
		return !p.isOperatorWord(next)
	case TokenThis, TokenBase, TokenNew, TokenTypeof, TokenDefault, TokenInterpolatedStart:
		return true
	}
	return next.Kind.IsLiteral()
}

// isBinaryOnlyStart lists tokens that start an operand but after an
// identifier are more likely a binary operator. '(' is not among them:
// in async code "await (t)" awaits t.
func isBinaryOnlyStart(k TokenKind) bool {
	switch k {
	case TokenPlus, TokenMinus, TokenStar, TokenAmp, TokenCaret, TokenDotDot:
		return true
	}
	return false
}

// isParenLambdaAt reports whether the '(' n tokens ahead opens the
// parameter list of a lambda.
func (p *Parser) isParenLambdaAt(n int) bool {
	depth := 0
	for i := n; ; i++ {
		switch p.peekN(i).Kind {
		case TokenLParen:
			depth++
		case TokenRParen:
			depth--
			if depth == 0 {
				return p.peekN(i+1).Kind == TokenFatArrow
			}
		case TokenEOF, TokenSemicolon, TokenLBrace, TokenRBrace, TokenFatArrow:
			return false
		}
	}
}

// isCast decides between a cast and a parenthesized expression by parsing
// a type between the parentheses and looking at what follows.
func (p *Parser) isCast() bool {
	return p.speculate(func() bool {
		p.advance()
		t := p.parseType()
		if !p.check(TokenRParen) {
			return false
		}
		p.advance()
		next := p.peek()
		if isComplexType(t) {
			return canStartExpression(next) && !(next.Kind == TokenIdent && p.isOperatorWord(next))
		}
		return p.canFollowSimpleCast(next)
	})
}

func isComplexType(t *Node) bool {
	switch t.Kind {
	case KindPredefinedType, KindArrayType, KindNullableType, KindPointerType,
		KindTupleType, KindGenericName, KindFunctionPointerType:
		return true
	case KindQualifiedName:
		return isComplexType(t.Field("right"))
	case KindAliasQualifiedName:
		return isComplexType(t.Field("name"))
	}
	return false
}

func (p *Parser) canFollowSimpleCast(tok Token) bool {
	switch tok.Kind {
	case TokenIdent:
		return !p.isOperatorWord(tok)
	case TokenLParen, TokenTilde, TokenBang, TokenInterpolatedStart, TokenThis,
		TokenBase, TokenNew, TokenTypeof, TokenSizeof, TokenDefault, TokenChecked,
		TokenUnchecked, TokenDelegate, TokenStackalloc:
		return true
	}
	return tok.Kind.IsLiteral() || tok.Kind.IsPredefinedType()
}

func (p *Parser) parseCast() *Node {
	n := p.startNode(KindCastExpr)
	n.AddChild(p.advance())
	n.AddField("type", p.parseType())
	n.AddChild(p.expect(TokenRParen))
	n.AddField("expression", p.parseUnary())
	return p.finishNode(n)
}

func (p *Parser) parsePrimary() *Node {
	tok := p.peek()
	switch {
	case tok.Kind == TokenDefault:
		if p.peekN(1).Kind == TokenLParen {
			n := p.startNode(KindDefaultExpr)
			n.AddChild(p.advance())
			n.AddChild(p.advance())
			n.AddField("type", p.parseType())
			n.AddChild(p.expect(TokenRParen))
			return p.finishNode(n)
		}
		lit := p.advanceAs(KindLiteral)
		p.requireFeature(FeatureDefaultLiteral, lit.Span)
		return lit
	case tok.Kind.IsLiteral():
		return p.advance()
	case tok.Kind.IsPredefinedType():
		return p.advanceAs(KindPredefinedType)
	}

	switch tok.Kind {
	case TokenInterpolatedStart:
		return p.parseInterpolatedString()
	case TokenThis:
		return p.advanceAs(KindThisExpr)
	case TokenBase:
		return p.advanceAs(KindBaseExpr)
	case TokenArglist:
		return p.advance()
	case TokenLParen:
		return p.parseParenOrTuple()
	case TokenNew:
		return p.parseNew()
	case TokenTypeof:
		return p.parseTypeOperator(KindTypeofExpr)
	case TokenSizeof:
		return p.parseTypeOperator(KindSizeofExpr)
	case TokenChecked, TokenUnchecked:
		n := p.startNode(KindCheckedExpr)
		n.AddChild(p.advance())
		n.AddChild(p.expect(TokenLParen))
		n.AddField("expression", p.nested(p.parseExpression))
		n.AddChild(p.expect(TokenRParen))
		return p.finishNode(n)
	case TokenDelegate:
		return p.parseAnonymousMethod()
	case TokenStatic:
		if p.isLambdaStart() {
			return p.parseLambda()
		}
	case TokenStackalloc:
		return p.parseStackAlloc()
	case TokenMakeref, TokenReftype:
		kind := KindMakeRefExpr
		if tok.Kind == TokenReftype {
			kind = KindRefTypeExpr
		}
		n := p.startNode(kind)
		n.AddChild(p.advance())
		n.AddChild(p.expect(TokenLParen))
		n.AddField("expression", p.nested(p.parseExpression))
		n.AddChild(p.expect(TokenRParen))
		return p.finishNode(n)
	case TokenRefvalue:
		n := p.startNode(KindRefValueExpr)
		n.AddChild(p.advance())
		n.AddChild(p.expect(TokenLParen))
		n.AddField("expression", p.nested(p.parseExpression))
		n.AddChild(p.expect(TokenComma))
		n.AddField("type", p.parseType())
		n.AddChild(p.expect(TokenRParen))
		return p.finishNode(n)
	case TokenIdent:
		return p.parseIdentifierExpr()
	}

	p.reportAt(tok.Span, CodeInvalidExprTerm, fmt.Sprintf("invalid expression term %s", describe(tok)))
	return p.missingLeaf(TokenIdent)
}

func (p *Parser) parseIdentifierExpr() *Node {
	switch {
	case p.peekN(1).Kind == TokenFatArrow && !p.ctx.arrowEnds:
		return p.parseLambda()
	case p.checkWord("from") && p.isQueryStart():
		return p.parseQuery()
	case p.checkWord("async") && p.peekN(1).Kind == TokenDelegate:
		return p.parseAnonymousMethod()
	case p.checkWord("async") && p.isLambdaStart():
		return p.parseLambda()
	case p.checkWord("var") && p.peekN(1).Kind == TokenLParen && p.isDeconstruction(1):
		n := p.startNode(KindDeclarationExpr)
		n.AddField("type", p.advance())
		n.AddField("designation", p.parseDesignation())
		return p.finishNode(n)
	case p.peekN(1).Kind == TokenColonColon:
		n := &Node{Kind: KindAliasQualifiedName}
		n.AddField("alias", p.advance())
		n.AddChild(p.advance())
		n.AddField("name", p.parseSimpleName(false))
		return p.finishNode(n)
	}
	return p.parseSimpleName(false)
}

// isLambdaStart reports whether async/static modifiers at the cursor are
// followed by lambda parameters.
func (p *Parser) isLambdaStart() bool {
	i := 0
	for {
		tok := p.peekN(i)
		if tok.Kind == TokenStatic || tok.Is("async") {
			i++
			continue
		}
		break
	}
	if i == 0 || (i == 1 && p.peekN(1).Kind == TokenFatArrow) {
		return false
	}
	switch p.peekN(i).Kind {
	case TokenIdent:
		return p.peekN(i+1).Kind == TokenFatArrow
	case TokenLParen:
		return p.isParenLambdaAt(i)
	}
	return false
}

// isDeconstruction reports whether the '(' n tokens ahead holds only
// designations and is followed by '=' or 'in', as in "var (a, b) = t".
func (p *Parser) isDeconstruction(n int) bool {
	depth := 0
	for i := n; ; i++ {
		switch p.peekN(i).Kind {
		case TokenLParen:
			depth++
		case TokenRParen:
			depth--
			if depth == 0 {
				k := p.peekN(i + 1).Kind
				return k == TokenAssign || k == TokenIn
			}
		case TokenIdent, TokenComma:
		default:
			return false
		}
	}
}

// parseDesignation parses a variable name or a parenthesized list of them.
func (p *Parser) parseDesignation() *Node {
	if !p.check(TokenLParen) {
		return p.expectIdentifier()
	}
	n := p.startNode(KindParenthesizedVariableDesignation)
	n.AddChild(p.advance())
	if !p.check(TokenRParen) {
		n.AddChild(p.parseDesignation())
		for p.check(TokenComma) {
			n.AddChild(p.advance())
			n.AddChild(p.parseDesignation())
		}
	}
	n.AddChild(p.expect(TokenRParen))
	return p.finishNode(n)
}

func (p *Parser) parseTypeOperator(kind NodeKind) *Node {
	n := p.startNode(kind)
	n.AddChild(p.advance())
	n.AddChild(p.expect(TokenLParen))
	n.AddField("type", p.parseType())
	n.AddChild(p.expect(TokenRParen))
	return p.finishNode(n)
}

func (p *Parser) parsePostfix(expr *Node) *Node {
	for {
		tok := p.peek()
		switch tok.Kind {
		case TokenDot, TokenArrow:
			kind := KindMemberAccessExpr
			if tok.Kind == TokenArrow {
				kind = KindPointerMemberAccessExpr
			}
			n := &Node{Kind: kind}
			n.AddField("expression", expr)
			n.AddField("operator", p.advance())
			n.AddField("name", p.parseSimpleName(false))
			expr = p.finishNode(n)
		case TokenLParen:
			n := &Node{Kind: KindInvocationExpr}
			n.AddField("expression", expr)
			n.AddField("arguments", p.parseArgumentList())
			expr = p.finishNode(n)
		case TokenLBracket:
			n := &Node{Kind: KindElementAccessExpr}
			n.AddField("expression", expr)
			n.AddField("arguments", p.parseBracketedArgumentList())
			expr = p.finishNode(n)
		case TokenIncrement, TokenDecrement, TokenBang:
			n := &Node{Kind: KindPostfixUnaryExpr}
			n.AddField("operand", expr)
			n.AddField("operator", p.advance())
			expr = p.finishNode(n)
		case TokenQuestion:
			next := p.peekN(1).Kind
			if next != TokenDot && next != TokenLBracket {
				return expr
			}
			n := &Node{Kind: KindConditionalAccessExpr}
			n.AddField("expression", expr)
			n.AddField("operator", p.advance())
			n.AddField("whenNotNull", p.parsePostfix(p.parseBinding()))
			expr = p.finishNode(n)
		default:
			return expr
		}
	}
}

// parseBinding parses the first access after '?' in a conditional access.
func (p *Parser) parseBinding() *Node {
	if p.check(TokenLBracket) {
		n := p.startNode(KindElementBindingExpr)
		n.AddField("arguments", p.parseBracketedArgumentList())
		return p.finishNode(n)
	}
	n := p.startNode(KindMemberBindingExpr)
	n.AddField("operator", p.expect(TokenDot))
	n.AddField("name", p.parseSimpleName(false))
	return p.finishNode(n)
}

func (p *Parser) parseArgumentList() *Node {
	return p.parseArguments(KindArgumentList, TokenLParen, TokenRParen)
}

func (p *Parser) parseBracketedArgumentList() *Node {
	return p.parseArguments(KindBracketedArgumentList, TokenLBracket, TokenRBracket)
}

func (p *Parser) parseArguments(kind NodeKind, open, close TokenKind) *Node {
	n := p.startNode(kind)
	n.AddChild(p.expect(open))
	if !p.check(close) {
		for {
			progress := p.mustProgress(n)
			n.AddChild(p.nested(p.parseArgument))
			if p.check(TokenComma) {
				n.AddChild(p.advance())
				continue
			}
			if p.check(close) || p.check(TokenEOF) || isStatementEnd(p.peek().Kind) {
				break
			}
			if !progress() {
				continue
			}
			p.reportExpected(",")
		}
	}
	n.AddChild(p.expect(close))
	return p.finishNode(n)
}

func isStatementEnd(k TokenKind) bool {
	return k == TokenSemicolon || k == TokenRBrace
}

func (p *Parser) parseArgument() *Node {
	n := p.startNode(KindArgument)
	if p.isIdentifier() && p.peekN(1).Kind == TokenColon {
		nc := p.startNode(KindNameColon)
		nc.AddField("name", p.advance())
		nc.AddChild(p.advance())
		n.AddField("nameColon", p.finishNode(nc))
	}
	isOut := p.check(TokenOut)
	if p.match(TokenRef, TokenOut, TokenIn) {
		n.AddField("refKind", p.advance())
	}
	if isOut && p.isDeclarationExpression() {
		n.AddField("expression", p.parseDeclarationExpression())
	} else {
		n.AddField("expression", p.parseExpression())
	}
	return p.finishNode(n)
}

// isDeclarationExpression reports whether a type and a designation follow,
// as in "out var x" or the "int a" of "(int a, int b) = t".
func (p *Parser) isDeclarationExpression() bool {
	return p.speculate(func() bool {
		p.parseTypeMode(typeModeDeclaration)
		if !p.isIdentifier() && !p.check(TokenLParen) {
			return false
		}
		p.parseDesignation()
		k := p.peek().Kind
		return k == TokenComma || k == TokenRParen || k == TokenRBracket
	})
}

func (p *Parser) parseDeclarationExpression() *Node {
	n := p.startNode(KindDeclarationExpr)
	n.AddField("type", p.parseTypeMode(typeModeDeclaration))
	n.AddField("designation", p.parseDesignation())
	return p.finishNode(n)
}

func (p *Parser) parseParenOrTuple() *Node {
	return p.nested(func() *Node {
		open := p.advance()
		first := p.startNode(KindArgument)
		tuple := false
		if p.isIdentifier() && p.peekN(1).Kind == TokenColon {
			nc := p.startNode(KindNameColon)
			nc.AddField("name", p.advance())
			nc.AddChild(p.advance())
			first.AddField("nameColon", p.finishNode(nc))
			tuple = true
		}
		if p.isDeclarationExpression() {
			first.AddField("expression", p.parseDeclarationExpression())
			tuple = true
		} else {
			first.AddField("expression", p.parseExpression())
		}
		if !tuple && !p.check(TokenComma) {
			n := &Node{Kind: KindParenExpr}
			n.AddChild(open)
			n.AddField("expression", first.Field("expression"))
			n.AddChild(p.expect(TokenRParen))
			return p.finishNode(n)
		}
		n := &Node{Kind: KindTupleExpr}
		n.AddChild(open)
		n.AddChild(p.finishNode(first))
		for p.check(TokenComma) {
			n.AddChild(p.advance())
			n.AddChild(p.parseTupleArgument())
		}
		n.AddChild(p.expect(TokenRParen))
		n = p.finishNode(n)
		p.requireFeature(FeatureTuples, n.Span)
		return n
	})
}

func (p *Parser) parseTupleArgument() *Node {
	n := p.startNode(KindArgument)
	if p.isIdentifier() && p.peekN(1).Kind == TokenColon {
		nc := p.startNode(KindNameColon)
		nc.AddField("name", p.advance())
		nc.AddChild(p.advance())
		n.AddField("nameColon", p.finishNode(nc))
	}
	if p.isDeclarationExpression() {
		n.AddField("expression", p.parseDeclarationExpression())
	} else {
		n.AddField("expression", p.parseExpression())
	}
	return p.finishNode(n)
}

func (p *Parser) parseLambda() *Node {
	n := p.startNode(KindLambdaExpr)
	async := false
	for p.checkWord("async") || p.check(TokenStatic) {
		if p.checkWord("async") {
			if p.peekN(1).Kind == TokenFatArrow {
				break
			}
			async = true
		}
		n.AddChild(p.advanceAs(KindToken))
	}
	if p.check(TokenLParen) {
		n.AddField("parameters", p.parseParameterList(KindParameterList, TokenLParen, TokenRParen, true))
	} else {
		param := p.startNode(KindParameter)
		param.AddField("name", p.expectIdentifier())
		n.AddField("parameter", p.finishNode(param))
	}
	n.AddField("arrow", p.expect(TokenFatArrow))
	n.AddField("body", p.parseLambdaBody(async))
	return p.finishNode(n)
}

func (p *Parser) parseLambdaBody(async bool) *Node {
	return p.withContext(func(c *parseContext) {
		c.async = async
		c.arrowEnds = false
		c.inPattern = false
	}, func() *Node {
		if p.check(TokenLBrace) {
			return p.parseBlock()
		}
		return p.parseExpression()
	})
}

func (p *Parser) parseAnonymousMethod() *Node {
	n := p.startNode(KindAnonymousMethodExpr)
	async := false
	if p.checkWord("async") {
		async = true
		n.AddChild(p.advanceAs(KindToken))
	}
	n.AddChild(p.expect(TokenDelegate))
	if p.check(TokenLParen) {
		n.AddField("parameters", p.parseParameterList(KindParameterList, TokenLParen, TokenRParen, false))
	}
	n.AddField("body", p.withContext(func(c *parseContext) {
		c.async = async
		c.arrowEnds = false
	}, p.parseBlock))
	return p.finishNode(n)
}

func (p *Parser) parseNew() *Node {
	newTok := p.advance()
	switch p.peek().Kind {
	case TokenLParen:
		n := &Node{Kind: KindImplicitObjectCreationExpr}
		n.AddChild(newTok)
		n.AddField("arguments", p.parseArgumentList())
		if p.check(TokenLBrace) {
			n.AddField("initializer", p.parseInitializer())
		}
		n = p.finishNode(n)
		p.requireFeature(FeatureTargetTypedNew, newTok.Span)
		return n
	case TokenLBracket:
		n := &Node{Kind: KindImplicitArrayCreationExpr}
		n.AddChild(newTok)
		n.AddChild(p.advance())
		for p.check(TokenComma) {
			n.AddChild(p.advance())
		}
		n.AddChild(p.expect(TokenRBracket))
		n.AddField("initializer", p.parseInitializer())
		return p.finishNode(n)
	case TokenLBrace:
		return p.parseAnonymousObject(newTok)
	}

	t := p.parseType()
	if p.check(TokenLBracket) {
		n := &Node{Kind: KindArrayCreationExpr}
		n.AddChild(newTok)
		n.AddField("type", p.parseSizedArrayType(t))
		if p.check(TokenLBrace) {
			n.AddField("initializer", p.parseInitializer())
		}
		return p.finishNode(n)
	}
	if t.Kind == KindArrayType {
		n := &Node{Kind: KindArrayCreationExpr}
		n.AddChild(newTok)
		n.AddField("type", t)
		if p.check(TokenLBrace) {
			n.AddField("initializer", p.parseInitializer())
		} else {
			p.reportExpected("{")
		}
		return p.finishNode(n)
	}
	n := &Node{Kind: KindObjectCreationExpr}
	n.AddChild(newTok)
	n.AddField("type", t)
	if p.check(TokenLParen) {
		n.AddField("arguments", p.parseArgumentList())
	}
	if p.check(TokenLBrace) {
		n.AddField("initializer", p.parseInitializer())
	} else if n.Field("arguments") == nil {
		p.reportExpected("(")
	}
	return p.finishNode(n)
}

// parseSizedArrayType parses the ranks of "new int[n][]" where the first
// rank carries sizes.
func (p *Parser) parseSizedArrayType(elem *Node) *Node {
	n := &Node{Kind: KindArrayType}
	n.AddField("elementType", elem)
	rank := p.startNode(KindArrayRankSpecifier)
	rank.AddChild(p.advance())
	p.nested(func() *Node {
		if p.check(TokenComma) || p.check(TokenRBracket) {
			rank.AddChild(p.omitted(KindOmittedArraySize))
		} else {
			rank.AddChild(p.parseExpression())
		}
		for p.check(TokenComma) {
			rank.AddChild(p.advance())
			if p.check(TokenComma) || p.check(TokenRBracket) {
				rank.AddChild(p.omitted(KindOmittedArraySize))
			} else {
				rank.AddChild(p.parseExpression())
			}
		}
		return nil
	})
	rank.AddChild(p.expect(TokenRBracket))
	n.AddChild(p.finishNode(rank))
	for p.check(TokenLBracket) && p.isRankSpecifier() {
		n.AddChild(p.parseRankSpecifier())
	}
	return p.finishNode(n)
}

func (p *Parser) parseAnonymousObject(newTok *Node) *Node {
	n := &Node{Kind: KindAnonymousObjectCreationExpr}
	n.AddChild(newTok)
	n.AddChild(p.advance())
	for !p.check(TokenRBrace) && !p.check(TokenEOF) {
		progress := p.mustProgress(n)
		m := p.startNode(KindAnonymousObjectMember)
		if p.isIdentifier() && p.peekN(1).Kind == TokenAssign {
			ne := p.startNode(KindNameEquals)
			ne.AddField("name", p.advance())
			ne.AddChild(p.advance())
			m.AddField("nameEquals", p.finishNode(ne))
		}
		m.AddField("expression", p.nested(p.parseExpression))
		n.AddChild(p.finishNode(m))
		if p.check(TokenComma) {
			n.AddChild(p.advance())
			continue
		}
		if !progress() {
			continue
		}
		break
	}
	n.AddChild(p.expect(TokenRBrace))
	return p.finishNode(n)
}

// parseInitializer parses an object, collection or array initializer.
func (p *Parser) parseInitializer() *Node {
	n := p.startNode(KindInitializerExpr)
	n.AddChild(p.expect(TokenLBrace))
	p.nested(func() *Node {
		for !p.check(TokenRBrace) && !p.check(TokenEOF) {
			progress := p.mustProgress(n)
			n.AddChild(p.parseInitializerElement())
			if p.check(TokenComma) {
				n.AddChild(p.advance())
				continue
			}
			if !progress() {
				continue
			}
			break
		}
		return nil
	})
	n.AddChild(p.expect(TokenRBrace))
	return p.finishNode(n)
}

func (p *Parser) parseInitializerElement() *Node {
	if p.check(TokenLBrace) {
		return p.parseInitializer()
	}
	var left *Node
	switch {
	case p.check(TokenLBracket):
		b := p.startNode(KindElementBindingExpr)
		b.AddField("arguments", p.parseBracketedArgumentList())
		left = p.finishNode(b)
	case p.isIdentifier() && p.peekN(1).Kind == TokenAssign:
		left = p.advance()
	default:
		return p.parseExpression()
	}
	n := &Node{Kind: KindAssignExpr}
	n.AddField("left", left)
	n.AddField("operator", p.expect(TokenAssign))
	if p.check(TokenLBrace) {
		n.AddField("right", p.parseInitializer())
	} else {
		n.AddField("right", p.parseExpression())
	}
	return p.finishNode(n)
}

func (p *Parser) parseStackAlloc() *Node {
	n := p.startNode(KindStackAllocExpr)
	n.AddChild(p.advance())
	if p.check(TokenLBracket) {
		n.AddChild(p.advance())
		n.AddChild(p.expect(TokenRBracket))
		n.AddField("initializer", p.parseInitializer())
		return p.finishNode(n)
	}
	t := p.parseType()
	if p.check(TokenLBracket) {
		t = p.parseSizedArrayType(t)
	}
	n.AddField("type", t)
	if p.check(TokenLBrace) {
		n.AddField("initializer", p.parseInitializer())
	}
	return p.finishNode(n)
}

func (p *Parser) parseInterpolatedString() *Node {
	n := p.startNode(KindInterpolatedString)
	n.AddChild(p.advance())
	for {
		switch p.peek().Kind {
		case TokenInterpolatedText:
			n.AddChild(p.advance())
		case TokenInterpolationOpen:
			n.AddChild(p.parseInterpolation())
		case TokenInterpolatedEnd:
			n.AddChild(p.advance())
			return p.finishNode(n)
		default:
			// The lexer has reported the unterminated string.
			at := p.prevEnd()
			tok := &Token{Kind: TokenInterpolatedEnd, Span: Span{Start: at, End: at}, Missing: true}
			n.AddChild(&Node{Kind: KindMissing, Span: tok.Span, Token: tok})
			return p.finishNode(n)
		}
	}
}

func (p *Parser) parseInterpolation() *Node {
	n := p.startNode(KindInterpolation)
	n.AddChild(p.advance())
	n.AddField("expression", p.withContext(func(c *parseContext) {
		c.arrowEnds = false
		c.inPattern = false
		c.inQuery = false
	}, p.parseExpression))
	if p.check(TokenComma) {
		a := p.startNode(KindInterpolationAlignment)
		a.AddChild(p.advance())
		a.AddField("value", p.parseExpression())
		n.AddField("alignment", p.finishNode(a))
	}
	if p.check(TokenInterpolationFormat) {
		f := p.startNode(KindInterpolationFormat)
		f.AddChild(p.advance())
		n.AddField("format", p.finishNode(f))
	}
	if p.check(TokenInterpolationClose) {
		n.AddChild(p.advance())
	} else {
		at := p.prevEnd()
		p.reportAt(Span{Start: at, End: at}, CodeSyntaxError, "'}' expected")
		n.AddChild(p.missingLeaf(TokenInterpolationClose))
	}
	return p.finishNode(n)
}

// parseSwitchExpr parses "e switch { pattern [when cond] => result, ... }".
func (p *Parser) parseSwitchExpr(governing *Node) *Node {
	n := &Node{Kind: KindSwitchExpr}
	n.AddField("governing", governing)
	kw := p.advance()
	n.AddChild(kw)
	p.requireFeature(FeatureSwitchExpressions, kw.Span)
	n.AddChild(p.expect(TokenLBrace))
	for !p.check(TokenRBrace) && !p.check(TokenEOF) {
		progress := p.mustProgress(n)
		n.AddChild(p.parseSwitchExprArm())
		if p.check(TokenComma) {
			n.AddChild(p.advance())
			continue
		}
		if !progress() {
			continue
		}
		if !p.check(TokenRBrace) {
			p.reportExpected(",")
			if !p.check(TokenEOF) && canStartPattern(p.peek()) {
				continue
			}
		}
		break
	}
	n.AddChild(p.expect(TokenRBrace))
	return p.finishNode(n)
}

func (p *Parser) parseSwitchExprArm() *Node {
	n := p.startNode(KindSwitchExprArm)
	n.AddField("pattern", p.withContext(func(c *parseContext) { c.arrowEnds = true }, p.parsePattern))
	if p.checkWord("when") {
		w := p.startNode(KindWhenClause)
		w.AddChild(p.advanceAs(KindToken))
		w.AddField("condition", p.withContext(func(c *parseContext) {
			c.arrowEnds = true
			c.inPattern = false
		}, p.parseExpression))
		n.AddField("when", p.finishNode(w))
	}
	n.AddChild(p.expect(TokenFatArrow))
	n.AddField("expression", p.withContext(func(c *parseContext) {
		c.arrowEnds = false
		c.inPattern = false
	}, p.parseExpression))
	return p.finishNode(n)
}
