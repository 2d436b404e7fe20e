package parser

// typeMode selects how the suffixes '?' and '*' after a type are read,
// since both are also binary or conditional operators.
type typeMode int

const (
	// typeModeNormal is a position where only a type can appear.
	typeModeNormal typeMode = iota
	// typeModeExpression follows 'is' and 'as' or sits in a pattern: '?' is
	// nullable only when what follows cannot start an expression.
	typeModeExpression
	// typeModeDeclaration is the trial parse of a local declaration: '*' is a
	// pointer only in unsafe code or after a predefined type.
	typeModeDeclaration
)

func (p *Parser) parseType() *Node {
	return p.parseTypeMode(typeModeNormal)
}

// parseReturnType parses a type that may be void or a ref type.
func (p *Parser) parseReturnType() *Node {
	if p.check(TokenRef) {
		return p.parseRefType(typeModeNormal)
	}
	return p.parseType()
}

func (p *Parser) parseRefType(mode typeMode) *Node {
	node := p.startNode(KindRefType)
	node.AddChild(p.expect(TokenRef))
	if p.check(TokenReadonly) {
		node.AddChild(p.advance())
	}
	node.AddField("type", p.parseTypeMode(mode))
	return p.finishNode(node)
}

func (p *Parser) parseTypeMode(mode typeMode) *Node {
	var t *Node
	tok := p.peek()
	switch {
	case tok.Kind == TokenLParen:
		t = p.parseTupleType()
	case tok.Kind.IsPredefinedType():
		t = p.advanceAs(KindPredefinedType)
	case tok.Kind == TokenDelegate && p.peekN(1).Kind == TokenStar:
		t = p.parseFunctionPointerType()
	case tok.Kind == TokenIdent:
		t = p.parseName(true)
	default:
		p.reportAt(tok.Span, CodeTypeExpected, "type expected")
		return p.missingLeaf(TokenIdent)
	}
	return p.parseTypeSuffixes(t, mode)
}

func (p *Parser) parseTypeSuffixes(t *Node, mode typeMode) *Node {
	for {
		switch {
		case p.check(TokenQuestion) && p.nullableAllowed(mode):
			n := &Node{Kind: KindNullableType}
			n.AddField("elementType", t)
			n.AddChild(p.advance())
			t = p.finishNode(n)
		case p.check(TokenStar) && p.pointerAllowed(mode, t):
			n := &Node{Kind: KindPointerType}
			n.AddField("elementType", t)
			n.AddChild(p.advance())
			t = p.finishNode(n)
		case p.check(TokenLBracket) && p.isRankSpecifier():
			n := &Node{Kind: KindArrayType}
			n.AddField("elementType", t)
			for p.check(TokenLBracket) && p.isRankSpecifier() {
				n.AddChild(p.parseRankSpecifier())
			}
			t = p.finishNode(n)
		default:
			return t
		}
	}
}

func (p *Parser) nullableAllowed(mode typeMode) bool {
	if mode != typeModeExpression {
		return true
	}
	next := p.peekN(1)
	switch next.Kind {
	case TokenLBracket:
		return p.peekN(2).Kind == TokenRBracket || p.peekN(2).Kind == TokenComma
	case TokenQuestion:
		return true
	}
	return !canStartExpression(next)
}

func (p *Parser) pointerAllowed(mode typeMode, elem *Node) bool {
	switch mode {
	case typeModeNormal:
		return true
	case typeModeDeclaration:
		return p.ctx.unsafeDepth > 0 || elem.Kind == KindPredefinedType || elem.Kind == KindPointerType
	}
	return p.ctx.unsafeDepth > 0 && !canStartExpression(p.peekN(1))
}

func (p *Parser) isRankSpecifier() bool {
	k := p.peekN(1).Kind
	return k == TokenRBracket || k == TokenComma
}

// parseRankSpecifier parses "[]" or "[,,]".
func (p *Parser) parseRankSpecifier() *Node {
	node := p.startNode(KindArrayRankSpecifier)
	node.AddChild(p.expect(TokenLBracket))
	for p.check(TokenComma) {
		node.AddChild(p.advance())
	}
	node.AddChild(p.expect(TokenRBracket))
	return p.finishNode(node)
}

// parseName parses a simple, alias-qualified, qualified or generic name.
// In type context '<' always opens a type argument list; in expression
// context it does so only when the generic reading is confirmed.
func (p *Parser) parseName(inType bool) *Node {
	var left *Node
	if p.isIdentifier() && p.peekN(1).Kind == TokenColonColon {
		n := &Node{Kind: KindAliasQualifiedName}
		n.AddField("alias", p.advance())
		n.AddChild(p.advance())
		n.AddField("name", p.parseSimpleName(inType))
		left = p.finishNode(n)
	} else {
		left = p.parseSimpleName(inType)
	}
	for p.check(TokenDot) && p.peekN(1).Kind == TokenIdent {
		n := &Node{Kind: KindQualifiedName}
		n.AddField("left", left)
		n.AddChild(p.advance())
		n.AddField("right", p.parseSimpleName(inType))
		left = p.finishNode(n)
	}
	return left
}

func (p *Parser) parseSimpleName(inType bool) *Node {
	id := p.expectIdentifier()
	if p.check(TokenLT) && (inType || p.isGenericArgumentList()) {
		n := &Node{Kind: KindGenericName}
		n.AddField("name", id)
		n.AddField("typeArguments", p.parseTypeArgumentList())
		return p.finishNode(n)
	}
	return id
}

// isGenericArgumentList decides whether the '<' at the cursor opens a type
// argument list in expression context: the list must parse as types and be
// followed by a token that cannot continue a relational expression.
func (p *Parser) isGenericArgumentList() bool {
	return p.speculate(func() bool {
		p.parseTypeArgumentList()
		return canFollowTypeArguments(p.peek().Kind)
	})
}

func canFollowTypeArguments(k TokenKind) bool {
	switch k {
	case TokenLParen, TokenRParen, TokenRBracket, TokenRBrace, TokenColon,
		TokenSemicolon, TokenComma, TokenDot, TokenQuestion, TokenEQ, TokenNE,
		TokenPipe, TokenCaret, TokenAndAnd, TokenOrOr, TokenAmp, TokenLBracket,
		TokenEOF, TokenInterpolationClose, TokenInterpolationFormat:
		return true
	}
	return false
}

func (p *Parser) parseTypeArgumentList() *Node {
	node := p.startNode(KindTypeArgumentList)
	node.AddChild(p.expect(TokenLT))
	if p.check(TokenComma) || p.check(TokenGT) {
		// Unbound generic type as in typeof(Dictionary<,>).
		node.AddChild(p.omitted(KindOmittedTypeArgument))
		for p.check(TokenComma) {
			node.AddChild(p.advance())
			node.AddChild(p.omitted(KindOmittedTypeArgument))
		}
		node.AddChild(p.expect(TokenGT))
		return p.finishNode(node)
	}
	node.AddChild(p.parseTypeArgument())
	for p.check(TokenComma) {
		node.AddChild(p.advance())
		node.AddChild(p.parseTypeArgument())
	}
	node.AddChild(p.expect(TokenGT))
	return p.finishNode(node)
}

func (p *Parser) parseTypeArgument() *Node {
	if p.check(TokenRef) || p.check(TokenIn) || p.check(TokenOut) {
		// Function pointer signatures allow by-reference types here.
		return p.parseFunctionPointerParameter()
	}
	return p.parseType()
}

// omitted returns an empty node of the given kind at the cursor.
func (p *Parser) omitted(kind NodeKind) *Node {
	at := p.peek().Span.Start
	return &Node{Kind: kind, Span: Span{Start: at, End: at}}
}

// splitGE splits a '>=' token so that its '>' can close a type argument
// list, as in "List<int>=x".
func (p *Parser) splitGE() *Node {
	tok := p.peek()
	gt := tok
	gt.Kind = TokenGT
	gt.Literal = ">"
	gt.Span.End = shift(tok.Span.Start, 1)
	eq := Token{Kind: TokenAssign, Literal: "=", Span: Span{Start: gt.Span.End, End: tok.Span.End}}
	rest := append([]Token{gt, eq}, p.tokens[p.pos+1:]...)
	p.tokens = append(p.tokens[:p.pos], rest...)
	p.pos++
	return p.leaf(gt, KindToken)
}

func shift(pos Position, n int) Position {
	pos.Offset += n
	pos.Column += n
	return pos
}

func (p *Parser) parseTupleType() *Node {
	node := p.startNode(KindTupleType)
	node.AddChild(p.expect(TokenLParen))
	count := 0
	for {
		el := p.startNode(KindTupleElement)
		el.AddField("type", p.parseType())
		if p.isIdentifier() {
			el.AddField("name", p.advance())
		}
		node.AddChild(p.finishNode(el))
		count++
		if !p.check(TokenComma) {
			break
		}
		node.AddChild(p.advance())
	}
	node.AddChild(p.expect(TokenRParen))
	node = p.finishNode(node)
	if count < 2 {
		p.reportAt(node.Span, CodeSyntaxError, "tuple must contain at least two elements")
	}
	p.requireFeature(FeatureTuples, node.Span)
	return node
}

// parseFunctionPointerType parses delegate* [managed|unmanaged[...]] <...>.
func (p *Parser) parseFunctionPointerType() *Node {
	node := p.startNode(KindFunctionPointerType)
	node.AddChild(p.expect(TokenDelegate))
	node.AddChild(p.expect(TokenStar))
	if p.checkWord("managed") || p.checkWord("unmanaged") {
		cc := p.startNode(KindFunctionPointerCallingConvention)
		cc.AddChild(p.advanceAs(KindToken))
		if p.check(TokenLBracket) {
			cc.AddChild(p.advance())
			cc.AddChild(p.expectIdentifier())
			for p.check(TokenComma) {
				cc.AddChild(p.advance())
				cc.AddChild(p.expectIdentifier())
			}
			cc.AddChild(p.expect(TokenRBracket))
		}
		node.AddField("callingConvention", p.finishNode(cc))
	}
	node.AddChild(p.expect(TokenLT))
	node.AddChild(p.parseFunctionPointerParameter())
	for p.check(TokenComma) {
		node.AddChild(p.advance())
		node.AddChild(p.parseFunctionPointerParameter())
	}
	node.AddChild(p.expect(TokenGT))
	node = p.finishNode(node)
	p.requireFeature(FeatureFunctionPointers, node.Span)
	return node
}

func (p *Parser) parseFunctionPointerParameter() *Node {
	node := p.startNode(KindFunctionPointerParameter)
	for p.match(TokenRef, TokenIn, TokenOut, TokenReadonly) {
		node.AddChild(p.advance())
	}
	node.AddField("type", p.parseType())
	return p.finishNode(node)
}

// parseTypeParameterList parses <[attributes] [in|out] T, ...>.
func (p *Parser) parseTypeParameterList() *Node {
	node := p.startNode(KindTypeParameterList)
	node.AddChild(p.expect(TokenLT))
	for {
		tp := p.startNode(KindTypeParameter)
		for p.check(TokenLBracket) {
			tp.AddChild(p.parseAttributeList())
		}
		if p.check(TokenIn) || p.check(TokenOut) {
			tp.AddField("variance", p.advance())
		}
		tp.AddField("name", p.expectIdentifier())
		node.AddChild(p.finishNode(tp))
		if !p.check(TokenComma) {
			break
		}
		node.AddChild(p.advance())
	}
	node.AddChild(p.expect(TokenGT))
	return p.finishNode(node)
}

// parseConstraintClauses parses any number of "where T : constraint, ...".
func (p *Parser) parseConstraintClauses(parent *Node) {
	for p.checkWord("where") {
		clause := p.startNode(KindConstraintClause)
		clause.AddChild(p.advanceAs(KindToken))
		clause.AddField("name", p.expectIdentifier())
		clause.AddChild(p.expect(TokenColon))
		clause.AddChild(p.parseConstraint())
		for p.check(TokenComma) {
			clause.AddChild(p.advance())
			clause.AddChild(p.parseConstraint())
		}
		parent.AddChild(p.finishNode(clause))
	}
}

func (p *Parser) parseConstraint() *Node {
	node := p.startNode(KindConstraint)
	switch {
	case p.check(TokenClass):
		node.AddChild(p.advance())
		if p.check(TokenQuestion) {
			node.AddChild(p.advance())
		}
	case p.check(TokenStruct), p.check(TokenDefault):
		node.AddChild(p.advance())
	case p.check(TokenNew):
		node.AddChild(p.advance())
		node.AddChild(p.expect(TokenLParen))
		node.AddChild(p.expect(TokenRParen))
	case p.checkWord("notnull") || p.checkWord("unmanaged"):
		if k := p.peekN(1).Kind; k == TokenComma || k == TokenLBrace || k == TokenSemicolon || k == TokenFatArrow || p.peekWord(1, "where") {
			node.AddChild(p.advanceAs(KindToken))
			break
		}
		node.AddField("type", p.parseType())
	default:
		node.AddField("type", p.parseType())
	}
	return p.finishNode(node)
}

// canStartExpression reports whether tok can begin an expression.
func canStartExpression(tok Token) bool {
	k := tok.Kind
	if k.IsLiteral() || k.IsPredefinedType() {
		return true
	}
	switch k {
	case TokenIdent, TokenThis, TokenBase, TokenNew, TokenTypeof, TokenSizeof,
		TokenDefault, TokenChecked, TokenUnchecked, TokenDelegate, TokenThrow,
		TokenRef, TokenStackalloc, TokenMakeref, TokenReftype, TokenRefvalue,
		TokenArglist, TokenStatic,
		TokenLParen, TokenBang, TokenTilde, TokenPlus, TokenMinus, TokenIncrement,
		TokenDecrement, TokenAmp, TokenStar, TokenCaret, TokenDotDot,
		TokenInterpolatedStart:
		return true
	}
	return false
}
