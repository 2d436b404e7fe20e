package parser

import "fmt"

func (p *Parser) parseBlock() *Node {
	n := p.startNode(KindBlock)
	n.AddChild(p.expect(TokenLBrace))
	p.parseStatements(n, func() bool { return p.check(TokenRBrace) })
	n.AddChild(p.expect(TokenRBrace))
	return p.finishNode(n)
}

// parseStatements parses statements into parent until done reports true or
// input ends.
func (p *Parser) parseStatements(parent *Node, done func() bool) {
	for !p.check(TokenEOF) && !done() {
		progress := p.mustProgress(parent)
		parent.AddChild(p.parseStatement())
		progress()
	}
}

func (p *Parser) parseStatement() *Node {
	tok := p.peek()
	switch tok.Kind {
	case TokenLBrace:
		return p.parseBlock()
	case TokenSemicolon:
		return p.wrap(KindEmptyStmt, p.advance())
	case TokenIf:
		return p.parseIf()
	case TokenWhile:
		n := p.startNode(KindWhileStmt)
		n.AddChild(p.advance())
		p.parseCondition(n)
		n.AddField("body", p.parseEmbeddedStatement())
		return p.finishNode(n)
	case TokenDo:
		n := p.startNode(KindDoStmt)
		n.AddChild(p.advance())
		n.AddField("body", p.parseEmbeddedStatement())
		n.AddChild(p.expect(TokenWhile))
		p.parseCondition(n)
		n.AddChild(p.expect(TokenSemicolon))
		return p.finishNode(n)
	case TokenFor:
		return p.parseFor()
	case TokenForeach:
		return p.parseForeach(nil)
	case TokenSwitch:
		return p.parseSwitchStatement()
	case TokenReturn:
		n := p.startNode(KindReturnStmt)
		n.AddChild(p.advance())
		if !p.check(TokenSemicolon) {
			n.AddField("expression", p.parseExpression())
		}
		n.AddChild(p.expect(TokenSemicolon))
		return p.finishNode(n)
	case TokenBreak:
		return p.wrap(KindBreakStmt, p.advance(), p.expect(TokenSemicolon))
	case TokenContinue:
		return p.wrap(KindContinueStmt, p.advance(), p.expect(TokenSemicolon))
	case TokenGoto:
		return p.parseGoto()
	case TokenThrow:
		n := p.startNode(KindThrowStmt)
		n.AddChild(p.advance())
		if !p.check(TokenSemicolon) {
			n.AddField("expression", p.parseExpression())
		}
		n.AddChild(p.expect(TokenSemicolon))
		return p.finishNode(n)
	case TokenTry:
		return p.parseTry()
	case TokenLock:
		n := p.startNode(KindLockStmt)
		n.AddChild(p.advance())
		p.parseCondition(n)
		n.AddField("body", p.parseEmbeddedStatement())
		return p.finishNode(n)
	case TokenFixed:
		return p.parseFixed()
	case TokenChecked, TokenUnchecked:
		if p.peekN(1).Kind == TokenLBrace {
			n := p.startNode(KindCheckedStmt)
			n.AddChild(p.advance())
			n.AddField("body", p.parseBlock())
			return p.finishNode(n)
		}
	case TokenUnsafe:
		if p.peekN(1).Kind == TokenLBrace {
			n := p.startNode(KindUnsafeStmt)
			n.AddChild(p.advance())
			n.AddField("body", p.withContext(func(c *parseContext) { c.unsafeDepth++ }, p.parseBlock))
			return p.finishNode(n)
		}
	case TokenUsing:
		if p.peekN(1).Kind == TokenLParen {
			return p.parseUsingStatement(nil)
		}
	case TokenElse, TokenCase, TokenCatch, TokenFinally:
		return p.errorNode(CodeStatementExpected, fmt.Sprintf("invalid statement start %s", describe(tok)),
			[]TokenKind{TokenSemicolon, TokenRBrace, TokenLBrace})
	case TokenDefault:
		if p.peekN(1).Kind == TokenColon {
			return p.errorNode(CodeStatementExpected, "'default' label outside of a switch statement",
				[]TokenKind{TokenSemicolon, TokenRBrace, TokenLBrace})
		}
	case TokenRBrace:
		// Left for the enclosing block.
		p.reportAt(tok.Span, CodeStatementExpected, "statement expected")
		return p.missingStatement()
	case TokenIdent:
		if s := p.parseContextualStatement(); s != nil {
			return s
		}
	}
	switch p.localDeclarationKind() {
	case localVariable:
		return p.parseLocalDeclaration()
	case localFunction:
		return p.parseLocalFunction()
	}
	return p.parseExpressionStatement()
}

func (p *Parser) missingStatement() *Node {
	return p.wrap(KindExprStmt, p.missingLeaf(TokenIdent))
}

// parseContextualStatement handles statements that start with a
// contextual keyword: yield, await foreach, await using and labels.
func (p *Parser) parseContextualStatement() *Node {
	next := p.peekN(1)
	switch {
	case p.checkWord("yield") && (next.Kind == TokenReturn || next.Kind == TokenBreak):
		n := p.startNode(KindYieldStmt)
		n.AddChild(p.advanceAs(KindToken))
		kw := p.advance()
		n.AddChild(kw)
		if kw.Token.Kind == TokenReturn {
			n.AddField("expression", p.parseExpression())
		}
		n.AddChild(p.expect(TokenSemicolon))
		return p.finishNode(n)
	case p.checkWord("await") && next.Kind == TokenForeach:
		kw := p.advanceAs(KindToken)
		p.requireFeature(FeatureAsyncStreams, kw.Span)
		return p.parseForeach(kw)
	case p.checkWord("await") && next.Kind == TokenUsing:
		kw := p.advanceAs(KindToken)
		p.requireFeature(FeatureAsyncStreams, kw.Span)
		if p.peekN(1).Kind == TokenLParen {
			return p.parseUsingStatement(kw)
		}
		n := p.parseLocalDeclaration()
		n.Children = append([]*Node{kw}, n.Children...)
		shiftFields(n, 1)
		return p.finishNode(n)
	case next.Kind == TokenColon:
		n := p.startNode(KindLabeledStmt)
		n.AddField("label", p.advance())
		n.AddChild(p.advance())
		n.AddField("statement", p.parseStatement())
		return p.finishNode(n)
	}
	return nil
}

// shiftFields moves recorded field indexes after children were prepended.
func shiftFields(n *Node, by int) {
	for name, i := range n.fields {
		n.fields[name] = i + by
	}
}

func (p *Parser) parseCondition(n *Node) {
	n.AddChild(p.expect(TokenLParen))
	n.AddField("condition", p.nested(p.parseExpression))
	n.AddChild(p.expect(TokenRParen))
}

// parseEmbeddedStatement parses the body of if, while and similar
// statements, where declarations and labels are not allowed.
func (p *Parser) parseEmbeddedStatement() *Node {
	s := p.parseStatement()
	switch s.Kind {
	case KindLocalDeclStmt, KindLabeledStmt, KindLocalFunctionStmt:
		p.reportAt(s.Span, CodeEmbeddedStatement, "embedded statement cannot be a declaration or labeled statement")
	}
	return s
}

// parseIf parses an if statement. Else-if chains are flattened into
// else-if clauses of the first if; an else binds to the nearest if.
func (p *Parser) parseIf() *Node {
	n := p.startNode(KindIfStmt)
	n.AddChild(p.advance())
	p.parseCondition(n)
	n.AddField("statement", p.parseEmbeddedStatement())
	for p.check(TokenElse) {
		if p.peekN(1).Kind == TokenIf {
			c := p.startNode(KindElseIfClause)
			c.AddChild(p.advance())
			c.AddChild(p.advance())
			p.parseCondition(c)
			c.AddField("statement", p.parseEmbeddedStatement())
			n.AddChild(p.finishNode(c))
			continue
		}
		c := p.startNode(KindElseClause)
		c.AddChild(p.advance())
		c.AddField("statement", p.parseEmbeddedStatement())
		n.AddField("else", p.finishNode(c))
		break
	}
	return p.finishNode(n)
}

func (p *Parser) parseFor() *Node {
	n := p.startNode(KindForStmt)
	n.AddChild(p.advance())
	n.AddChild(p.expect(TokenLParen))
	p.nested(func() *Node {
		if !p.check(TokenSemicolon) {
			if p.localDeclarationKind() == localVariable {
				n.AddField("declaration", p.parseVariableDeclaration(typeModeDeclaration))
			} else {
				p.parseExpressionList(n, "initializer")
			}
		}
		n.AddChild(p.expect(TokenSemicolon))
		if !p.check(TokenSemicolon) {
			n.AddField("condition", p.parseExpression())
		}
		n.AddChild(p.expect(TokenSemicolon))
		if !p.check(TokenRParen) {
			p.parseExpressionList(n, "incrementor")
		}
		return nil
	})
	n.AddChild(p.expect(TokenRParen))
	n.AddField("body", p.parseEmbeddedStatement())
	return p.finishNode(n)
}

func (p *Parser) parseExpressionList(n *Node, field string) {
	n.AddField(field, p.parseExpression())
	for p.check(TokenComma) {
		n.AddChild(p.advance())
		n.AddField(field, p.parseExpression())
	}
}

// parseForeach parses foreach; await is the already consumed 'await' of
// "await foreach", or nil.
func (p *Parser) parseForeach(await *Node) *Node {
	n := p.startNode(KindForeachStmt)
	n.AddChild(await)
	n.AddChild(p.expect(TokenForeach))
	n.AddChild(p.expect(TokenLParen))
	typed := p.speculate(func() bool {
		p.parseTypeMode(typeModeDeclaration)
		if !p.isIdentifier() {
			return false
		}
		p.advance()
		return p.check(TokenIn)
	})
	if typed {
		n.AddField("type", p.parseTypeMode(typeModeDeclaration))
		n.AddField("name", p.advance())
	} else {
		n.AddField("variable", p.nested(p.parseExpression))
	}
	n.AddChild(p.expect(TokenIn))
	n.AddField("expression", p.nested(p.parseExpression))
	n.AddChild(p.expect(TokenRParen))
	n.AddField("body", p.parseEmbeddedStatement())
	return p.finishNode(n)
}

func (p *Parser) parseGoto() *Node {
	n := p.startNode(KindGotoStmt)
	n.AddChild(p.advance())
	switch {
	case p.check(TokenCase):
		n.AddChild(p.advance())
		n.AddField("expression", p.parseExpression())
	case p.check(TokenDefault):
		n.AddChild(p.advance())
	default:
		n.AddField("label", p.expectIdentifier())
	}
	n.AddChild(p.expect(TokenSemicolon))
	return p.finishNode(n)
}

func (p *Parser) parseTry() *Node {
	n := p.startNode(KindTryStmt)
	n.AddChild(p.advance())
	n.AddField("block", p.parseBlock())
	handled := false
	for p.check(TokenCatch) {
		handled = true
		c := p.startNode(KindCatchClause)
		c.AddChild(p.advance())
		if p.check(TokenLParen) {
			d := p.startNode(KindCatchDeclaration)
			d.AddChild(p.advance())
			d.AddField("type", p.parseType())
			if p.isIdentifier() {
				d.AddField("name", p.advance())
			}
			d.AddChild(p.expect(TokenRParen))
			c.AddField("declaration", p.finishNode(d))
		}
		if p.checkWord("when") {
			f := p.startNode(KindCatchFilterClause)
			f.AddChild(p.advanceAs(KindToken))
			p.parseCondition(f)
			c.AddField("filter", p.finishNode(f))
		}
		c.AddField("block", p.parseBlock())
		n.AddChild(p.finishNode(c))
	}
	if p.check(TokenFinally) {
		handled = true
		f := p.startNode(KindFinallyClause)
		f.AddChild(p.advance())
		f.AddField("block", p.parseBlock())
		n.AddField("finally", p.finishNode(f))
	}
	if !handled {
		p.reportExpected("catch")
	}
	return p.finishNode(n)
}

func (p *Parser) parseFixed() *Node {
	n := p.startNode(KindFixedStmt)
	n.AddChild(p.advance())
	n.AddChild(p.expect(TokenLParen))
	n.AddField("declaration", p.withContext(func(c *parseContext) { c.unsafeDepth++ }, func() *Node {
		return p.parseVariableDeclaration(typeModeNormal)
	}))
	n.AddChild(p.expect(TokenRParen))
	n.AddField("body", p.parseEmbeddedStatement())
	return p.finishNode(n)
}

// parseUsingStatement parses "using (resource) statement".
func (p *Parser) parseUsingStatement(await *Node) *Node {
	n := p.startNode(KindUsingStmt)
	n.AddChild(await)
	n.AddChild(p.expect(TokenUsing))
	n.AddChild(p.expect(TokenLParen))
	p.nested(func() *Node {
		if p.localDeclarationKind() == localVariable {
			n.AddField("declaration", p.parseVariableDeclaration(typeModeDeclaration))
		} else {
			n.AddField("expression", p.parseExpression())
		}
		return nil
	})
	n.AddChild(p.expect(TokenRParen))
	n.AddField("body", p.parseEmbeddedStatement())
	return p.finishNode(n)
}

func (p *Parser) parseSwitchStatement() *Node {
	n := p.startNode(KindSwitchStmt)
	n.AddChild(p.advance())
	if !p.check(TokenLParen) {
		p.reportExpected("(")
		n.AddField("expression", p.parseExpression())
	} else {
		e := p.nested(p.parseExpression)
		if e.Kind == KindParenExpr {
			// The parentheses belong to the statement.
			for i, c := range e.Children {
				if e.FieldOf(i) == "expression" {
					n.AddField("expression", c)
				} else {
					n.AddChild(c)
				}
			}
		} else {
			n.AddField("expression", e)
		}
	}
	n.AddChild(p.expect(TokenLBrace))
	for !p.check(TokenRBrace) && !p.check(TokenEOF) {
		progress := p.mustProgress(n)
		if p.check(TokenCase) || p.check(TokenDefault) {
			n.AddChild(p.parseSwitchSection())
		} else {
			p.reportAt(p.peek().Span, CodeSyntaxError, "'case' or 'default' expected")
			n.AddChild(p.parseStatement())
		}
		progress()
	}
	n.AddChild(p.expect(TokenRBrace))
	return p.finishNode(n)
}

func (p *Parser) isSectionEnd() bool {
	switch p.peek().Kind {
	case TokenCase, TokenRBrace:
		return true
	case TokenDefault:
		return p.peekN(1).Kind == TokenColon
	}
	return false
}

func (p *Parser) parseSwitchSection() *Node {
	n := p.startNode(KindSwitchSection)
	for p.check(TokenCase) || (p.check(TokenDefault) && p.peekN(1).Kind == TokenColon) {
		n.AddChild(p.parseSwitchLabel())
	}
	p.parseStatements(n, p.isSectionEnd)
	return p.finishNode(n)
}

// parseSwitchLabel parses "default:", "case constant:" or "case pattern
// [when condition]:". A constant without a guard gives a plain case label.
func (p *Parser) parseSwitchLabel() *Node {
	if p.check(TokenDefault) {
		return p.wrap(KindDefaultSwitchLabel, p.advance(), p.expect(TokenColon))
	}
	kw := p.advance()
	pattern := p.parsePattern()
	var when *Node
	if p.checkWord("when") {
		w := p.startNode(KindWhenClause)
		w.AddChild(p.advanceAs(KindToken))
		w.AddField("condition", p.parseExpression())
		when = p.finishNode(w)
	}
	if pattern.Kind == KindConstantPattern && when == nil {
		n := &Node{Kind: KindCaseSwitchLabel}
		n.AddChild(kw)
		n.AddField("value", pattern.Children[0])
		n.AddChild(p.expect(TokenColon))
		return p.finishNode(n)
	}
	n := &Node{Kind: KindCasePatternSwitchLabel}
	n.AddChild(kw)
	n.AddField("pattern", pattern)
	n.AddField("when", when)
	n.AddChild(p.expect(TokenColon))
	return p.finishNode(n)
}

func (p *Parser) parseExpressionStatement() *Node {
	n := p.startNode(KindExprStmt)
	n.AddField("expression", p.parseExpression())
	n.AddChild(p.expect(TokenSemicolon))
	return p.finishNode(n)
}

type localKind int

const (
	notLocal localKind = iota
	localVariable
	localFunction
)

// isLocalModifier reports whether tok can precede the type of a local
// declaration or local function.
func isLocalModifier(tok Token) bool {
	switch tok.Kind {
	case TokenConst, TokenRef, TokenReadonly, TokenStatic, TokenUnsafe, TokenExtern, TokenUsing, TokenVolatile:
		return true
	case TokenIdent:
		return tok.Literal == "async" || tok.Literal == "scoped"
	}
	return false
}

// localDeclarationKind decides whether the statement at the cursor declares
// a local variable or a local function: modifiers, a type, then a name
// followed by one of "= ; , [" or a parameter list.
func (p *Parser) localDeclarationKind() localKind {
	// In async code 'await' is always the operator.
	if p.ctx.async && p.checkWord("await") {
		return notLocal
	}
	kind := notLocal
	ok := p.speculate(func() bool {
		p.skipLocalModifiers()
		if p.check(TokenRef) {
			p.parseRefType(typeModeDeclaration)
		} else {
			p.parseTypeMode(typeModeDeclaration)
		}
		if !p.isIdentifier() {
			return false
		}
		p.advance()
		switch p.peek().Kind {
		case TokenAssign, TokenSemicolon, TokenComma, TokenLBracket:
			kind = localVariable
		case TokenLParen, TokenLT:
			kind = localFunction
		default:
			return false
		}
		return true
	})
	if !ok {
		return notLocal
	}
	return kind
}

// skipLocalModifiers consumes the modifiers of a local declaration. A 'ref'
// is left in place since it belongs to the type.
func (p *Parser) skipLocalModifiers() []*Node {
	var mods []*Node
	for {
		tok := p.peek()
		if !isLocalModifier(tok) || tok.Kind == TokenRef {
			return mods
		}
		if tok.Kind == TokenIdent {
			// A modifier word may itself be the type or the name.
			next := p.peekN(1)
			if next.Kind != TokenIdent && !next.Kind.IsPredefinedType() && !next.Kind.IsKeyword() && next.Kind != TokenLParen {
				return mods
			}
			if next.Kind == TokenLParen && tok.Literal == "scoped" {
				return mods
			}
			mods = append(mods, p.advanceAs(KindToken))
			continue
		}
		mods = append(mods, p.advance())
	}
}

func (p *Parser) parseLocalDeclaration() *Node {
	n := p.startNode(KindLocalDeclStmt)
	if mods := p.skipLocalModifiers(); len(mods) > 0 {
		n.AddField("modifiers", p.wrap(KindModifiers, mods...))
	}
	n.AddField("declaration", p.parseVariableDeclaration(typeModeDeclaration))
	n.AddChild(p.expect(TokenSemicolon))
	return p.finishNode(n)
}

// parseVariableDeclaration parses "Type a = 1, b".
func (p *Parser) parseVariableDeclaration(mode typeMode) *Node {
	n := p.startNode(KindVariableDeclaration)
	if p.check(TokenRef) {
		n.AddField("type", p.parseRefType(mode))
	} else {
		n.AddField("type", p.parseTypeMode(mode))
	}
	n.AddChild(p.parseVariableDeclarator())
	for p.check(TokenComma) {
		n.AddChild(p.advance())
		n.AddChild(p.parseVariableDeclarator())
	}
	return p.finishNode(n)
}

func (p *Parser) parseVariableDeclarator() *Node {
	n := p.startNode(KindVariableDeclarator)
	n.AddField("name", p.expectIdentifier())
	if p.check(TokenLBracket) {
		// Fixed-size buffers and the C-style "int x[5]" mistake.
		n.AddField("arguments", p.parseBracketedArgumentList())
	}
	if p.check(TokenAssign) {
		n.AddField("initializer", p.parseEqualsValue())
	}
	return p.finishNode(n)
}

func (p *Parser) parseEqualsValue() *Node {
	n := p.startNode(KindEqualsValueClause)
	n.AddChild(p.advance())
	if p.check(TokenLBrace) {
		n.AddField("value", p.parseInitializer())
	} else {
		n.AddField("value", p.parseExpression())
	}
	return p.finishNode(n)
}

func (p *Parser) parseLocalFunction() *Node {
	n := p.startNode(KindLocalFunctionStmt)
	mods := p.skipLocalModifiers()
	async := false
	for _, m := range mods {
		switch m.TokenLiteral() {
		case "async":
			async = true
		case "static":
			p.requireFeature(FeatureStaticLocalFunctions, m.Span)
		}
	}
	if len(mods) > 0 {
		n.AddField("modifiers", p.wrap(KindModifiers, mods...))
	}
	n.AddField("returnType", p.parseReturnType())
	n.AddField("name", p.expectIdentifier())
	if p.check(TokenLT) {
		n.AddField("typeParameters", p.parseTypeParameterList())
	}
	n.AddField("parameters", p.parseParameterList(KindParameterList, TokenLParen, TokenRParen, false))
	p.parseConstraintClauses(n)
	p.parseMethodBody(n, async)
	return p.finishNode(n)
}
