package parser

// isQueryStart reports whether 'from' at the cursor opens a query:
// "from x in" or "from T x in".
func (p *Parser) isQueryStart() bool {
	next := p.peekN(1)
	if next.Kind == TokenIdent && p.peekN(2).Kind == TokenIn {
		return true
	}
	if next.Kind != TokenIdent && !next.Kind.IsPredefinedType() && next.Kind != TokenLParen {
		return false
	}
	return p.speculate(func() bool {
		p.advance()
		p.parseType()
		if !p.isIdentifier() {
			return false
		}
		p.advance()
		return p.check(TokenIn)
	})
}

// queryExpr parses an expression inside a query clause, where the clause
// keywords end it.
func (p *Parser) queryExpr() *Node {
	return p.withContext(func(c *parseContext) {
		c.inQuery = true
		c.arrowEnds = false
		c.inPattern = false
	}, p.parseExpression)
}

func (p *Parser) parseQuery() *Node {
	n := p.startNode(KindQueryExpr)
	n.AddField("from", p.parseFromClause())
	n.AddField("body", p.parseQueryBody())
	return p.finishNode(n)
}

func (p *Parser) parseFromClause() *Node {
	n := p.startNode(KindFromClause)
	n.AddChild(p.advanceAs(KindToken))
	if !(p.isIdentifier() && p.peekN(1).Kind == TokenIn) {
		n.AddField("type", p.parseType())
	}
	n.AddField("name", p.expectIdentifier())
	n.AddChild(p.expect(TokenIn))
	n.AddField("expression", p.queryExpr())
	return p.finishNode(n)
}

func (p *Parser) parseQueryBody() *Node {
	n := p.startNode(KindQueryBody)
	for {
		progress := p.mustProgress(n)
		switch {
		case p.checkWord("from"):
			n.AddChild(p.parseFromClause())
		case p.checkWord("let"):
			c := p.startNode(KindLetClause)
			c.AddChild(p.advanceAs(KindToken))
			c.AddField("name", p.expectIdentifier())
			c.AddChild(p.expect(TokenAssign))
			c.AddField("expression", p.queryExpr())
			n.AddChild(p.finishNode(c))
		case p.checkWord("where"):
			c := p.startNode(KindWhereClause)
			c.AddChild(p.advanceAs(KindToken))
			c.AddField("condition", p.queryExpr())
			n.AddChild(p.finishNode(c))
		case p.checkWord("join"):
			n.AddChild(p.parseJoinClause())
		case p.checkWord("orderby"):
			n.AddChild(p.parseOrderByClause())
		case p.checkWord("select"):
			c := p.startNode(KindSelectClause)
			c.AddChild(p.advanceAs(KindToken))
			c.AddField("expression", p.queryExpr())
			n.AddChild(p.finishNode(c))
			p.parseContinuation(n)
			return p.finishNode(n)
		case p.checkWord("group"):
			c := p.startNode(KindGroupClause)
			c.AddChild(p.advanceAs(KindToken))
			c.AddField("expression", p.queryExpr())
			c.AddChild(p.expectKeywordWord("by"))
			c.AddField("key", p.queryExpr())
			n.AddChild(p.finishNode(c))
			p.parseContinuation(n)
			return p.finishNode(n)
		default:
			at := p.prevEnd()
			p.reportAt(Span{Start: at, End: at}, CodeQueryBodyEnd, "a query body must end with a select clause or a group clause")
			return p.finishNode(n)
		}
		progress()
	}
}

// expectKeywordWord is expectWord with the result marked as a keyword leaf.
func (p *Parser) expectKeywordWord(word string) *Node {
	n := p.expectWord(word)
	if n.Kind == KindIdentifier {
		n.Kind = KindToken
	}
	return n
}

func (p *Parser) parseContinuation(body *Node) {
	if !p.checkWord("into") {
		return
	}
	c := p.startNode(KindQueryContinuation)
	c.AddChild(p.advanceAs(KindToken))
	c.AddField("name", p.expectIdentifier())
	c.AddField("body", p.parseQueryBody())
	body.AddChild(p.finishNode(c))
}

func (p *Parser) parseJoinClause() *Node {
	n := p.startNode(KindJoinClause)
	n.AddChild(p.advanceAs(KindToken))
	if !(p.isIdentifier() && p.peekN(1).Kind == TokenIn) {
		n.AddField("type", p.parseType())
	}
	n.AddField("name", p.expectIdentifier())
	n.AddChild(p.expect(TokenIn))
	n.AddField("in", p.queryExpr())
	n.AddChild(p.expectKeywordWord("on"))
	n.AddField("left", p.queryExpr())
	n.AddChild(p.expectKeywordWord("equals"))
	n.AddField("right", p.queryExpr())
	if p.checkWord("into") {
		into := p.startNode(KindJoinIntoClause)
		into.AddChild(p.advanceAs(KindToken))
		into.AddField("name", p.expectIdentifier())
		n.AddField("into", p.finishNode(into))
	}
	return p.finishNode(n)
}

func (p *Parser) parseOrderByClause() *Node {
	n := p.startNode(KindOrderByClause)
	n.AddChild(p.advanceAs(KindToken))
	for {
		o := p.startNode(KindOrdering)
		o.AddField("expression", p.queryExpr())
		if p.checkWord("ascending") || p.checkWord("descending") {
			o.AddField("direction", p.advanceAs(KindToken))
		}
		n.AddChild(p.finishNode(o))
		if !p.check(TokenComma) {
			break
		}
		n.AddChild(p.advance())
	}
	return p.finishNode(n)
}
