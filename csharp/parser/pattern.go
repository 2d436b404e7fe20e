package parser

// parsePattern parses a pattern as found after 'is', in a case label or in
// a switch expression arm. Combinators bind loosest to tightest as
// or, and, not.
func (p *Parser) parsePattern() *Node {
	return p.withContext(func(c *parseContext) { c.inPattern = true }, p.parseOrPattern)
}

func (p *Parser) parseOrPattern() *Node {
	left := p.parseAndPattern()
	for p.checkWord("or") && canStartPattern(p.peekN(1)) {
		left = p.binaryPattern(left, p.parseAndPattern)
	}
	return left
}

func (p *Parser) parseAndPattern() *Node {
	left := p.parseNotPattern()
	for p.checkWord("and") && canStartPattern(p.peekN(1)) {
		left = p.binaryPattern(left, p.parseNotPattern)
	}
	return left
}

func (p *Parser) binaryPattern(left *Node, operand func() *Node) *Node {
	n := &Node{Kind: KindBinaryPattern}
	n.AddField("left", left)
	op := p.advanceAs(KindToken)
	n.AddField("operator", op)
	n.AddField("right", operand())
	p.requireFeature(FeaturePatternCombinators, op.Span)
	return p.finishNode(n)
}

func (p *Parser) parseNotPattern() *Node {
	if p.checkWord("not") && canStartPattern(p.peekN(1)) {
		n := p.startNode(KindNegatedPattern)
		op := p.advanceAs(KindToken)
		n.AddField("operator", op)
		n.AddField("pattern", p.parseNotPattern())
		p.requireFeature(FeaturePatternCombinators, op.Span)
		return p.finishNode(n)
	}
	return p.parsePrimaryPattern()
}

// canStartPattern reports whether tok can begin a pattern.
func canStartPattern(tok Token) bool {
	switch tok.Kind {
	case TokenLT, TokenLE, TokenGT, TokenGE, TokenLBrace, TokenLBracket:
		return true
	}
	return canStartExpression(tok)
}

func (p *Parser) parsePrimaryPattern() *Node {
	tok := p.peek()
	switch tok.Kind {
	case TokenLT, TokenLE, TokenGT, TokenGE:
		n := p.startNode(KindRelationalPattern)
		op := p.advance()
		n.AddField("operator", op)
		n.AddField("expression", p.parseConstantExpr())
		p.requireFeature(FeatureRelationalPatterns, op.Span)
		return p.finishNode(n)
	case TokenLParen:
		return p.parseParenPattern()
	case TokenLBrace:
		n := p.startNode(KindRecursivePattern)
		n.AddField("properties", p.parsePropertyPatternClause())
		p.parseOptionalDesignation(n)
		return p.finishNode(n)
	case TokenIdent:
		next := p.peekN(1)
		if tok.Is("var") && (next.Kind == TokenIdent || next.Kind == TokenLParen) && !p.isPatternWord(next) {
			n := p.startNode(KindVarPattern)
			n.AddChild(p.advanceAs(KindToken))
			n.AddField("designation", p.parseDesignation())
			return p.finishNode(n)
		}
		if tok.Is("_") && !p.isTypeContinuation(next) {
			return p.wrap(KindDiscardPattern, p.advance())
		}
	}
	if tok.Kind == TokenIdent || tok.Kind.IsPredefinedType() {
		if n := p.attempt(p.parseTypedPattern); n != nil {
			return n
		}
	}
	return p.wrap(KindConstantPattern, p.parseConstantExpr())
}

// parseConstantExpr parses the operand of a constant or relational
// pattern. It stops before relational operators and pattern combinators.
func (p *Parser) parseConstantExpr() *Node {
	return p.withContext(func(c *parseContext) { c.inPattern = false }, func() *Node {
		return p.parseExpr(PrecShift)
	})
}

func (p *Parser) isPatternWord(tok Token) bool {
	switch tok.Literal {
	case "and", "or", "when":
		return tok.Kind == TokenIdent
	}
	return p.ctx.inQuery && isQueryWord(tok)
}

func (p *Parser) isTypeContinuation(tok Token) bool {
	switch tok.Kind {
	case TokenDot, TokenLT, TokenLParen, TokenLBrace, TokenColonColon, TokenLBracket:
		return true
	case TokenIdent:
		return !p.isPatternWord(tok)
	}
	return false
}

// parseTypedPattern parses a pattern that begins with a type. It returns
// nil when the type is better read as a constant, as for a plain name with
// nothing after it.
func (p *Parser) parseTypedPattern() *Node {
	t := p.parseTypeMode(typeModeExpression)
	switch {
	case p.check(TokenLParen), p.check(TokenLBrace):
		n := &Node{Kind: KindRecursivePattern}
		n.AddField("type", t)
		p.parseRecursiveClauses(n)
		return p.finishNode(n)
	case p.isIdentifier() && !p.isPatternWord(p.peek()):
		n := &Node{Kind: KindDeclarationPattern}
		n.AddField("type", t)
		n.AddField("designation", p.parseDesignation())
		return p.finishNode(n)
	case isComplexType(t):
		return p.wrap(KindTypePattern, t)
	}
	return nil
}

func (p *Parser) parseRecursiveClauses(n *Node) {
	if p.check(TokenLParen) {
		n.AddField("positional", p.parsePositionalPatternClause())
	}
	if p.check(TokenLBrace) {
		n.AddField("properties", p.parsePropertyPatternClause())
	}
	p.parseOptionalDesignation(n)
	p.requireFeature(FeatureRecursivePatterns, n.Children[0].Span)
}

func (p *Parser) parseOptionalDesignation(n *Node) {
	if p.isIdentifier() && !p.isPatternWord(p.peek()) {
		n.AddField("designation", p.parseDesignation())
	}
}

// parseParenPattern parses "(p)" or a positional pattern "(p, q)".
func (p *Parser) parseParenPattern() *Node {
	c := p.mark()
	open := p.advance()
	if !p.check(TokenRParen) && !p.startsSubpatternName() {
		inner := p.parsePattern()
		if p.check(TokenRParen) {
			n := &Node{Kind: KindParenthesizedPattern}
			n.AddChild(open)
			n.AddField("pattern", inner)
			n.AddChild(p.advance())
			n = p.finishNode(n)
			if !p.check(TokenLBrace) && !(p.isIdentifier() && !p.isPatternWord(p.peek())) {
				return n
			}
		}
	}
	p.restore(c)
	n := &Node{Kind: KindRecursivePattern}
	p.parseRecursiveClauses(n)
	return p.finishNode(n)
}

func (p *Parser) startsSubpatternName() bool {
	return p.isIdentifier() && (p.peekN(1).Kind == TokenColon || p.peekN(1).Kind == TokenDot && p.isExtendedName())
}

func (p *Parser) parsePositionalPatternClause() *Node {
	return p.parseSubpatterns(KindPositionalPatternClause, TokenLParen, TokenRParen)
}

func (p *Parser) parsePropertyPatternClause() *Node {
	return p.parseSubpatterns(KindPropertyPatternClause, TokenLBrace, TokenRBrace)
}

func (p *Parser) parseSubpatterns(kind NodeKind, open, close TokenKind) *Node {
	n := p.startNode(kind)
	n.AddChild(p.expect(open))
	for !p.check(close) && !p.check(TokenEOF) {
		progress := p.mustProgress(n)
		n.AddChild(p.withContext(func(c *parseContext) { c.arrowEnds = false }, p.parseSubpattern))
		if p.check(TokenComma) {
			n.AddChild(p.advance())
			continue
		}
		if !progress() {
			continue
		}
		break
	}
	n.AddChild(p.expect(close))
	return p.finishNode(n)
}

func (p *Parser) parseSubpattern() *Node {
	n := p.startNode(KindSubpattern)
	switch {
	case p.isIdentifier() && p.peekN(1).Kind == TokenColon:
		nc := p.startNode(KindNameColon)
		nc.AddField("name", p.advance())
		nc.AddChild(p.advance())
		n.AddField("nameColon", p.finishNode(nc))
	case p.isIdentifier() && p.peekN(1).Kind == TokenDot && p.isExtendedName():
		nc := p.startNode(KindNameColon)
		name := p.advance()
		for p.check(TokenDot) {
			m := &Node{Kind: KindMemberAccessExpr}
			m.AddField("expression", name)
			m.AddField("operator", p.advance())
			m.AddField("name", p.expectIdentifier())
			name = p.finishNode(m)
		}
		nc.AddField("name", name)
		nc.AddChild(p.expect(TokenColon))
		nc = p.finishNode(nc)
		n.AddField("nameColon", nc)
		p.requireFeature(FeatureExtendedPropertyPatterns, nc.Span)
	}
	n.AddField("pattern", p.parsePattern())
	return p.finishNode(n)
}

// isExtendedName reports whether a dotted name followed by ':' is at the
// cursor, as in { A.B: 1 }.
func (p *Parser) isExtendedName() bool {
	i := 0
	for p.peekN(i).Kind == TokenIdent {
		switch p.peekN(i + 1).Kind {
		case TokenDot:
			i += 2
		case TokenColon:
			return i > 0
		default:
			return false
		}
	}
	return false
}
