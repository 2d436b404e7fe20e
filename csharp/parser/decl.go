package parser

import "fmt"

func (p *Parser) parseCompilationUnit() *Node {
	node := &Node{Kind: KindCompilationUnit}
	// Top-level statements may await.
	p.ctx.async = true
	p.parseNamespaceMembers(node, true, func() bool { return false })
	return p.finishUnit(node)
}

// parseNamespaceMembers parses extern aliases, using directives, global
// attributes and members into parent until done reports true.
func (p *Parser) parseNamespaceMembers(parent *Node, topLevel bool, done func() bool) {
	for !p.check(TokenEOF) && !done() {
		progress := p.mustProgress(parent)
		if m := p.parseNamespaceMember(topLevel); m != nil {
			parent.AddChild(m)
		}
		progress()
	}
}

func (p *Parser) parseNamespaceMember(topLevel bool) *Node {
	switch {
	case p.check(TokenExtern) && p.peekWord(1, "alias"):
		n := p.startNode(KindExternAlias)
		n.AddChild(p.advance())
		n.AddChild(p.advanceAs(KindToken))
		n.AddField("name", p.expectIdentifier())
		n.AddChild(p.expect(TokenSemicolon))
		return p.finishNode(n)
	case p.isUsingDirective():
		return p.parseUsingDirective()
	case p.check(TokenLBracket) && p.isGlobalAttribute():
		return p.parseAttributeList()
	case p.check(TokenRBrace):
		return p.unexpected()
	case p.check(TokenNamespace):
		return p.parseNamespace(memberStart{}, topLevel)
	}
	if topLevel && !p.isTopLevelDeclaration() {
		n := p.startNode(KindGlobalStatement)
		n.AddField("statement", p.parseStatement())
		n = p.finishNode(n)
		p.requireFeature(FeatureTopLevelStatements, n.Span)
		return n
	}
	s := p.parseMemberStart()
	if p.check(TokenNamespace) {
		return p.parseNamespace(s, topLevel)
	}
	return p.parseMemberDeclaration(s, false)
}

// isUsingDirective tells a using directive from a using statement or
// declaration at the top level.
func (p *Parser) isUsingDirective() bool {
	i := 0
	if p.checkWord("global") && p.peekN(1).Kind == TokenUsing {
		i = 1
	}
	if p.peekN(i).Kind != TokenUsing {
		return false
	}
	next := p.peekN(i + 1)
	switch {
	case next.Kind == TokenStatic:
		return true
	case next.Kind == TokenIdent && p.peekN(i+2).Kind == TokenAssign:
		return true
	case next.Kind != TokenIdent:
		return false
	}
	return p.speculate(func() bool {
		for j := 0; j <= i; j++ {
			p.advance()
		}
		p.parseName(true)
		return p.check(TokenSemicolon)
	})
}

func (p *Parser) parseUsingDirective() *Node {
	n := p.startNode(KindUsingDirective)
	if p.checkWord("global") {
		kw := p.advanceAs(KindToken)
		n.AddField("global", kw)
		p.requireFeature(FeatureGlobalUsings, kw.Span)
	}
	n.AddChild(p.advance())
	if p.check(TokenStatic) {
		n.AddField("static", p.advance())
	}
	if p.isIdentifier() && p.peekN(1).Kind == TokenAssign {
		ne := p.startNode(KindNameEquals)
		ne.AddField("name", p.advance())
		ne.AddChild(p.advance())
		n.AddField("alias", p.finishNode(ne))
		n.AddField("name", p.parseType())
	} else {
		n.AddField("name", p.parseName(true))
	}
	n.AddChild(p.expect(TokenSemicolon))
	return p.finishNode(n)
}

func (p *Parser) isGlobalAttribute() bool {
	k := p.peekN(1)
	return (k.Is("assembly") || k.Is("module")) && p.peekN(2).Kind == TokenColon
}

func (p *Parser) parseNamespace(s memberStart, topLevel bool) *Node {
	kw := p.advance()
	name := p.parseName(true)
	if p.check(TokenSemicolon) {
		n := p.begin(KindFileScopedNamespaceDecl, s)
		n.AddChild(kw)
		n.AddField("name", name)
		n.AddChild(p.advance())
		p.requireFeature(FeatureFileScopedNamespaces, kw.Span)
		if !topLevel {
			p.reportAt(kw.Span, CodeSyntaxError, "file-scoped namespace must be declared at the top level")
		}
		// The rest of the file belongs to the namespace.
		p.parseNamespaceMembers(n, false, func() bool { return false })
		return p.finishNode(n)
	}
	n := p.begin(KindNamespaceDecl, s)
	n.AddChild(kw)
	n.AddField("name", name)
	body := p.startNode(KindDeclarationList)
	body.AddChild(p.expect(TokenLBrace))
	p.parseNamespaceMembers(body, false, func() bool { return p.check(TokenRBrace) })
	body.AddChild(p.expect(TokenRBrace))
	n.AddField("body", p.finishNode(body))
	if p.check(TokenSemicolon) {
		n.AddChild(p.advance())
	}
	return p.finishNode(n)
}

// isTopLevelDeclaration reports whether what follows is a type or member
// declaration rather than a top-level statement.
func (p *Parser) isTopLevelDeclaration() bool {
	c := p.mark()
	defer p.restore(c)
	for p.check(TokenLBracket) {
		p.parseAttributeList()
	}
	mods := p.parseModifiers()
	switch p.peek().Kind {
	case TokenClass, TokenStruct, TokenInterface, TokenEnum, TokenNamespace:
		return true
	case TokenDelegate:
		k := p.peekN(1).Kind
		return k != TokenLParen && k != TokenLBrace && k != TokenStar
	}
	if p.isRecordStart() {
		return true
	}
	if mods != nil {
		for _, m := range mods.Children {
			switch m.TokenLiteral() {
			case "static", "async", "unsafe", "extern", "const", "readonly", "volatile", "new", "fixed":
			default:
				return true
			}
		}
	}
	return false
}

type memberStart struct {
	attrs []*Node
	mods  *Node
}

func (s memberStart) has(modifier string) bool {
	if s.mods == nil {
		return false
	}
	for _, m := range s.mods.Children {
		if m.TokenLiteral() == modifier {
			return true
		}
	}
	return false
}

func (p *Parser) parseMemberStart() memberStart {
	var s memberStart
	for p.check(TokenLBracket) {
		s.attrs = append(s.attrs, p.parseAttributeList())
	}
	s.mods = p.parseModifiers()
	return s
}

// begin starts a declaration node holding the attributes and modifiers
// already parsed.
func (p *Parser) begin(kind NodeKind, s memberStart) *Node {
	n := p.startNode(kind)
	for _, a := range s.attrs {
		n.AddChild(a)
	}
	n.AddField("modifiers", s.mods)
	return n
}

var modifierKinds = map[TokenKind]bool{
	TokenPublic: true, TokenPrivate: true, TokenProtected: true, TokenInternal: true,
	TokenStatic: true, TokenAbstract: true, TokenSealed: true, TokenVirtual: true,
	TokenOverride: true, TokenReadonly: true, TokenVolatile: true, TokenExtern: true,
	TokenUnsafe: true, TokenNew: true, TokenConst: true, TokenFixed: true,
}

var contextualModifiers = map[string]bool{
	"async": true, "partial": true, "required": true, "file": true,
}

// parseModifiers parses modifiers in any order. Contextual modifiers count
// only when a name or keyword follows them.
func (p *Parser) parseModifiers() *Node {
	var mods []*Node
	for {
		tok := p.peek()
		switch {
		case modifierKinds[tok.Kind]:
			switch next := p.peekN(1).Kind; {
			case tok.Kind == TokenNew && (next == TokenLParen || next == TokenLBracket),
				tok.Kind == TokenFixed && next == TokenLParen,
				tok.Kind == TokenUnsafe && next == TokenLBrace:
				return p.modifiersNode(mods)
			}
			mods = append(mods, p.advance())
		case tok.Kind == TokenRef && (p.peekN(1).Kind == TokenStruct || p.peekWord(1, "partial") || p.peekN(1).Kind == TokenReadonly && p.peekN(2).Kind == TokenStruct):
			mods = append(mods, p.advance())
		case tok.Kind == TokenIdent && contextualModifiers[tok.Literal]:
			next := p.peekN(1)
			if next.Kind != TokenIdent && !next.Kind.IsKeyword() {
				return p.modifiersNode(mods)
			}
			if next.Kind == TokenIdent && isMemberNameEnd(p.peekN(2).Kind) {
				// "partial x;" declares a field of type partial.
				return p.modifiersNode(mods)
			}
			mods = append(mods, p.advanceAs(KindToken))
		default:
			return p.modifiersNode(mods)
		}
	}
}

func isMemberNameEnd(k TokenKind) bool {
	return k == TokenSemicolon || k == TokenAssign || k == TokenComma
}

func (p *Parser) modifiersNode(mods []*Node) *Node {
	if len(mods) == 0 {
		return nil
	}
	return p.wrap(KindModifiers, mods...)
}

func (p *Parser) isRecordStart() bool {
	if !p.checkWord("record") {
		return false
	}
	next := p.peekN(1)
	if next.Kind == TokenClass || next.Kind == TokenStruct {
		return true
	}
	if next.Kind != TokenIdent {
		return false
	}
	switch p.peekN(2).Kind {
	case TokenLParen, TokenLBrace, TokenColon, TokenLT, TokenSemicolon:
		return true
	}
	return false
}

var memberRecovery = []TokenKind{
	TokenRBrace, TokenLBracket, TokenPublic, TokenPrivate, TokenProtected, TokenInternal,
	TokenStatic, TokenAbstract, TokenSealed, TokenVirtual, TokenOverride, TokenClass,
	TokenStruct, TokenInterface, TokenEnum, TokenDelegate, TokenNamespace, TokenUsing,
	TokenVoid, TokenReadonly, TokenConst, TokenEvent,
}

func canStartMemberType(tok Token) bool {
	switch tok.Kind {
	case TokenIdent, TokenLParen, TokenRef, TokenDelegate, TokenTilde, TokenEvent,
		TokenImplicit, TokenExplicit:
		return true
	}
	return tok.Kind.IsPredefinedType()
}

// parseMemberDeclaration parses a type or member declaration after its
// attributes and modifiers.
func (p *Parser) parseMemberDeclaration(s memberStart, inType bool) *Node {
	tok := p.peek()
	switch {
	case tok.Kind == TokenClass, tok.Kind == TokenStruct, tok.Kind == TokenInterface:
		return p.parseTypeDeclaration(s)
	case tok.Kind == TokenEnum:
		return p.parseEnum(s)
	case tok.Kind == TokenDelegate && p.peekN(1).Kind != TokenStar:
		return p.parseDelegate(s)
	case p.isRecordStart():
		return p.parseTypeDeclaration(s)
	}
	if len(s.attrs) == 0 && s.mods == nil && !canStartMemberType(tok) {
		return p.errorNode(CodeMemberDeclExpected, fmt.Sprintf("invalid token %s in class, record, struct, or interface member declaration", describe(tok)), memberRecovery)
	}
	n := p.parseMember(s)
	if !inType {
		p.reportAt(n.Span, CodeNamespaceMember, "a namespace cannot directly contain members such as fields, methods or statements")
	}
	return n
}

func (p *Parser) parseMember(s memberStart) *Node {
	switch p.peek().Kind {
	case TokenTilde:
		return p.parseDestructor(s)
	case TokenEvent:
		return p.parseEvent(s)
	case TokenImplicit, TokenExplicit:
		return p.parseConversionOperator(s)
	case TokenIdent:
		if p.peekN(1).Kind == TokenLParen {
			return p.parseConstructor(s)
		}
	}

	typ := p.parseReturnType()
	switch {
	case p.check(TokenOperator):
		return p.parseOperator(s, typ)
	case p.check(TokenImplicit) || p.check(TokenExplicit):
		return p.parseConversionOperator(s)
	}
	iface, name := p.parseMemberName()
	switch {
	case p.check(TokenThis):
		return p.parseIndexer(s, typ, iface)
	case p.check(TokenOperator):
		return p.parseOperator(s, typ)
	}
	switch p.peek().Kind {
	case TokenLParen, TokenLT:
		return p.parseMethod(s, typ, iface, name)
	case TokenLBrace, TokenFatArrow:
		return p.parseProperty(s, typ, iface, name)
	}
	if iface != nil {
		// An explicit implementation must be a method, property or event.
		return p.parseProperty(s, typ, iface, name)
	}
	n := p.begin(KindFieldDecl, s)
	n.AddField("declaration", p.finishDeclaration(typ, name))
	n.AddChild(p.expect(TokenSemicolon))
	return p.finishNode(n)
}

// finishDeclaration builds a variable declaration whose type and first
// name were parsed already.
func (p *Parser) finishDeclaration(typ, name *Node) *Node {
	decl := &Node{Kind: KindVariableDeclaration}
	decl.AddField("type", typ)
	first := &Node{Kind: KindVariableDeclarator}
	first.AddField("name", name)
	if p.check(TokenLBracket) {
		first.AddField("arguments", p.parseBracketedArgumentList())
	}
	if p.check(TokenAssign) {
		first.AddField("initializer", p.parseEqualsValue())
	}
	decl.AddChild(p.finishNode(first))
	for p.check(TokenComma) {
		decl.AddChild(p.advance())
		decl.AddChild(p.parseVariableDeclarator())
	}
	return p.finishNode(decl)
}

// parseMemberName parses a member name with an optional explicit
// interface specifier, as in "IEnumerable<T>.GetEnumerator". The name is
// nil when 'this' or 'operator' follows the specifier.
func (p *Parser) parseMemberName() (iface, name *Node) {
	if segments := p.interfaceSegments(); segments > 0 {
		spec := p.startNode(KindExplicitInterfaceSpecifier)
		var left *Node
		if p.isIdentifier() && p.peekN(1).Kind == TokenColonColon {
			a := &Node{Kind: KindAliasQualifiedName}
			a.AddField("alias", p.advance())
			a.AddChild(p.advance())
			a.AddField("name", p.parseSimpleName(true))
			left = p.finishNode(a)
		} else {
			left = p.parseSimpleName(true)
		}
		for i := 1; i < segments; i++ {
			q := &Node{Kind: KindQualifiedName}
			q.AddField("left", left)
			q.AddChild(p.advance())
			q.AddField("right", p.parseSimpleName(true))
			left = p.finishNode(q)
		}
		spec.AddField("name", left)
		spec.AddChild(p.expect(TokenDot))
		iface = p.finishNode(spec)
	}
	if p.check(TokenThis) || p.check(TokenOperator) {
		return iface, nil
	}
	return iface, p.expectIdentifier()
}

// interfaceSegments counts the dotted name segments before the member
// name proper.
func (p *Parser) interfaceSegments() int {
	c := p.mark()
	defer p.restore(c)
	n := 0
	if p.isIdentifier() && p.peekN(1).Kind == TokenColonColon {
		p.advance()
		p.advance()
	}
	for p.isIdentifier() {
		p.advance()
		if p.check(TokenLT) {
			p.parseTypeArgumentList()
		}
		if !p.check(TokenDot) {
			break
		}
		p.advance()
		n++
		if p.check(TokenThis) || p.check(TokenOperator) {
			break
		}
	}
	return n
}

func (p *Parser) parseTypeDeclaration(s memberStart) *Node {
	var n *Node
	var kw *Node
	switch {
	case p.check(TokenClass):
		n = p.begin(KindClassDecl, s)
		kw = p.advance()
		n.AddChild(kw)
	case p.check(TokenStruct):
		n = p.begin(KindStructDecl, s)
		kw = p.advance()
		n.AddChild(kw)
	case p.check(TokenInterface):
		n = p.begin(KindInterfaceDecl, s)
		kw = p.advance()
		n.AddChild(kw)
	default:
		n = p.begin(KindRecordDecl, s)
		kw = p.advanceAs(KindToken)
		n.AddChild(kw)
		p.requireFeature(FeatureRecords, kw.Span)
		if p.check(TokenClass) || p.check(TokenStruct) {
			k := p.advance()
			n.AddField("kind", k)
			if k.Token.Kind == TokenStruct {
				p.requireFeature(FeatureRecordStructs, k.Span)
			}
		}
	}
	n.AddField("name", p.expectIdentifier())
	if p.check(TokenLT) {
		n.AddField("typeParameters", p.parseTypeParameterList())
	}
	if p.check(TokenLParen) {
		n.AddField("parameters", p.parseParameterList(KindParameterList, TokenLParen, TokenRParen, false))
	}
	if p.check(TokenColon) {
		n.AddField("baseList", p.parseBaseList())
	}
	p.parseConstraintClauses(n)
	if n.Kind == KindRecordDecl && p.check(TokenSemicolon) {
		n.AddChild(p.advance())
		return p.finishNode(n)
	}
	n.AddField("body", p.parseTypeBody())
	if p.check(TokenSemicolon) {
		n.AddChild(p.advance())
	}
	return p.finishNode(n)
}

func (p *Parser) parseBaseList() *Node {
	n := p.startNode(KindBaseList)
	n.AddChild(p.advance())
	n.AddChild(p.parseBaseType())
	for p.check(TokenComma) {
		n.AddChild(p.advance())
		n.AddChild(p.parseBaseType())
	}
	return p.finishNode(n)
}

func (p *Parser) parseBaseType() *Node {
	t := p.parseType()
	if !p.check(TokenLParen) {
		return t
	}
	n := &Node{Kind: KindPrimaryConstructorBase}
	n.AddField("type", t)
	n.AddField("arguments", p.parseArgumentList())
	return p.finishNode(n)
}

func (p *Parser) parseTypeBody() *Node {
	return p.withContext(func(c *parseContext) {
		c.async = false
		c.arrowEnds = false
	}, func() *Node {
		body := p.startNode(KindDeclarationList)
		body.AddChild(p.expect(TokenLBrace))
		for !p.check(TokenRBrace) && !p.check(TokenEOF) {
			progress := p.mustProgress(body)
			if p.check(TokenSemicolon) {
				body.AddChild(p.unexpected())
				continue
			}
			s := p.parseMemberStart()
			body.AddChild(p.parseMemberDeclaration(s, true))
			progress()
		}
		body.AddChild(p.expect(TokenRBrace))
		return p.finishNode(body)
	})
}

func (p *Parser) parseEnum(s memberStart) *Node {
	n := p.begin(KindEnumDecl, s)
	n.AddChild(p.advance())
	n.AddField("name", p.expectIdentifier())
	if p.check(TokenColon) {
		b := p.startNode(KindBaseList)
		b.AddChild(p.advance())
		b.AddChild(p.parseType())
		n.AddField("baseList", p.finishNode(b))
	}
	body := p.startNode(KindDeclarationList)
	body.AddChild(p.expect(TokenLBrace))
	for !p.check(TokenRBrace) && !p.check(TokenEOF) {
		progress := p.mustProgress(body)
		m := p.startNode(KindEnumMember)
		for p.check(TokenLBracket) {
			m.AddChild(p.parseAttributeList())
		}
		m.AddField("name", p.expectIdentifier())
		if p.check(TokenAssign) {
			m.AddField("value", p.parseEqualsValue())
		}
		body.AddChild(p.finishNode(m))
		if p.check(TokenComma) {
			body.AddChild(p.advance())
			continue
		}
		if !progress() {
			continue
		}
		break
	}
	body.AddChild(p.expect(TokenRBrace))
	n.AddField("body", p.finishNode(body))
	if p.check(TokenSemicolon) {
		n.AddChild(p.advance())
	}
	return p.finishNode(n)
}

func (p *Parser) parseDelegate(s memberStart) *Node {
	n := p.begin(KindDelegateDecl, s)
	n.AddChild(p.advance())
	n.AddField("returnType", p.parseReturnType())
	n.AddField("name", p.expectIdentifier())
	if p.check(TokenLT) {
		n.AddField("typeParameters", p.parseTypeParameterList())
	}
	n.AddField("parameters", p.parseParameterList(KindParameterList, TokenLParen, TokenRParen, false))
	p.parseConstraintClauses(n)
	n.AddChild(p.expect(TokenSemicolon))
	return p.finishNode(n)
}

func (p *Parser) parseMethod(s memberStart, typ, iface, name *Node) *Node {
	n := p.begin(KindMethodDecl, s)
	n.AddField("returnType", typ)
	n.AddField("explicitInterface", iface)
	n.AddField("name", name)
	if p.check(TokenLT) {
		n.AddField("typeParameters", p.parseTypeParameterList())
	}
	n.AddField("parameters", p.parseParameterList(KindParameterList, TokenLParen, TokenRParen, false))
	p.parseConstraintClauses(n)
	p.parseMethodBody(n, s.has("async"))
	return p.finishNode(n)
}

// parseMethodBody parses a block, "=> expr ;" or a lone ';'.
func (p *Parser) parseMethodBody(n *Node, async bool) {
	body := func(fn func() *Node) *Node {
		return p.withContext(func(c *parseContext) {
			c.async = async
			c.arrowEnds = false
		}, fn)
	}
	switch {
	case p.check(TokenLBrace):
		n.AddField("body", body(p.parseBlock))
	case p.check(TokenFatArrow):
		n.AddField("expressionBody", body(p.parseArrowClause))
		n.AddChild(p.expect(TokenSemicolon))
	case p.check(TokenSemicolon):
		n.AddChild(p.advance())
	default:
		p.reportExpected("{")
	}
}

func (p *Parser) parseArrowClause() *Node {
	n := p.startNode(KindArrowExpressionClause)
	n.AddChild(p.advance())
	n.AddField("expression", p.parseExpression())
	return p.finishNode(n)
}

func (p *Parser) parseProperty(s memberStart, typ, iface, name *Node) *Node {
	n := p.begin(KindPropertyDecl, s)
	n.AddField("type", typ)
	n.AddField("explicitInterface", iface)
	n.AddField("name", name)
	p.parsePropertyBody(n)
	if n.Field("accessors") != nil && p.check(TokenAssign) {
		n.AddField("initializer", p.parseEqualsValue())
		n.AddChild(p.expect(TokenSemicolon))
	}
	return p.finishNode(n)
}

func (p *Parser) parsePropertyBody(n *Node) {
	switch {
	case p.check(TokenLBrace):
		n.AddField("accessors", p.parseAccessorList())
	case p.check(TokenFatArrow):
		n.AddField("expressionBody", p.withContext(func(c *parseContext) { c.async = false }, p.parseArrowClause))
		n.AddChild(p.expect(TokenSemicolon))
	default:
		p.reportExpected("{")
	}
}

func (p *Parser) parseIndexer(s memberStart, typ, iface *Node) *Node {
	n := p.begin(KindIndexerDecl, s)
	n.AddField("type", typ)
	n.AddField("explicitInterface", iface)
	n.AddChild(p.advance())
	n.AddField("parameters", p.parseParameterList(KindBracketedParameterList, TokenLBracket, TokenRBracket, false))
	p.parsePropertyBody(n)
	return p.finishNode(n)
}

var accessorWords = map[string]bool{"get": true, "set": true, "init": true, "add": true, "remove": true}

func (p *Parser) parseAccessorList() *Node {
	n := p.startNode(KindAccessorList)
	n.AddChild(p.advance())
	for !p.check(TokenRBrace) && !p.check(TokenEOF) {
		progress := p.mustProgress(n)
		s := p.parseMemberStart()
		tok := p.peek()
		if tok.Kind != TokenIdent {
			n.AddChild(p.errorNode(CodeSyntaxError, "get or set accessor expected", []TokenKind{TokenRBrace, TokenIdent}))
			continue
		}
		a := p.begin(KindAccessorDecl, s)
		kw := p.advanceAs(KindToken)
		a.AddField("keyword", kw)
		if !accessorWords[tok.Literal] {
			p.reportAt(kw.Span, CodeSyntaxError, "get, set or init accessor expected")
		}
		if tok.Literal == "init" {
			p.requireFeature(FeatureInitAccessors, kw.Span)
		}
		p.parseMethodBody(a, false)
		n.AddChild(p.finishNode(a))
		progress()
	}
	n.AddChild(p.expect(TokenRBrace))
	return p.finishNode(n)
}

func (p *Parser) parseConstructor(s memberStart) *Node {
	n := p.begin(KindConstructorDecl, s)
	n.AddField("name", p.advance())
	n.AddField("parameters", p.parseParameterList(KindParameterList, TokenLParen, TokenRParen, false))
	if p.check(TokenColon) {
		init := p.startNode(KindConstructorInitializer)
		init.AddChild(p.advance())
		if p.check(TokenBase) || p.check(TokenThis) {
			init.AddField("keyword", p.advance())
		} else {
			p.reportExpected("base")
		}
		init.AddField("arguments", p.parseArgumentList())
		n.AddField("initializer", p.finishNode(init))
	}
	p.parseMethodBody(n, s.has("async"))
	return p.finishNode(n)
}

func (p *Parser) parseDestructor(s memberStart) *Node {
	n := p.begin(KindDestructorDecl, s)
	n.AddChild(p.advance())
	n.AddField("name", p.expectIdentifier())
	n.AddField("parameters", p.parseParameterList(KindParameterList, TokenLParen, TokenRParen, false))
	p.parseMethodBody(n, false)
	return p.finishNode(n)
}

func (p *Parser) parseEvent(s memberStart) *Node {
	kw := p.advance()
	typ := p.parseType()
	iface, name := p.parseMemberName()
	if p.check(TokenLBrace) || iface != nil {
		n := p.begin(KindEventDecl, s)
		n.AddChild(kw)
		n.AddField("type", typ)
		n.AddField("explicitInterface", iface)
		n.AddField("name", name)
		n.AddField("accessors", p.parseAccessorList())
		return p.finishNode(n)
	}
	n := p.begin(KindEventFieldDecl, s)
	n.AddChild(kw)
	n.AddField("declaration", p.finishDeclaration(typ, name))
	n.AddChild(p.expect(TokenSemicolon))
	return p.finishNode(n)
}

var overloadableOperators = map[TokenKind]bool{
	TokenPlus: true, TokenMinus: true, TokenBang: true, TokenTilde: true,
	TokenIncrement: true, TokenDecrement: true, TokenStar: true, TokenSlash: true,
	TokenPercent: true, TokenAmp: true, TokenPipe: true, TokenCaret: true,
	TokenShl: true, TokenShr: true, TokenEQ: true, TokenNE: true, TokenLT: true,
	TokenGT: true, TokenLE: true, TokenGE: true, TokenTrue: true, TokenFalse: true,
}

func (p *Parser) parseOperator(s memberStart, typ *Node) *Node {
	n := p.begin(KindOperatorDecl, s)
	n.AddField("returnType", typ)
	n.AddChild(p.advance())
	if p.check(TokenChecked) {
		n.AddChild(p.advance())
	}
	kind, width := p.binaryOperator()
	if kind == TokenShrAssign {
		kind, width = TokenGT, 1
	}
	if overloadableOperators[kind] {
		n.AddField("operator", p.takeOperator(kind, width))
	} else {
		p.reportAt(p.peek().Span, CodeSyntaxError, "overloadable operator expected")
		n.AddField("operator", p.missingLeaf(TokenPlus))
	}
	n.AddField("parameters", p.parseParameterList(KindParameterList, TokenLParen, TokenRParen, false))
	p.parseMethodBody(n, false)
	return p.finishNode(n)
}

func (p *Parser) parseConversionOperator(s memberStart) *Node {
	n := p.begin(KindConversionOperatorDecl, s)
	n.AddField("kind", p.advance())
	n.AddChild(p.expect(TokenOperator))
	if p.check(TokenChecked) {
		n.AddChild(p.advance())
	}
	n.AddField("type", p.parseType())
	n.AddField("parameters", p.parseParameterList(KindParameterList, TokenLParen, TokenRParen, false))
	p.parseMethodBody(n, false)
	return p.finishNode(n)
}

// parseParameterList parses a parenthesized or bracketed parameter list.
// Lambda parameter lists may leave out the types.
func (p *Parser) parseParameterList(kind NodeKind, open, close TokenKind, lambda bool) *Node {
	n := p.startNode(kind)
	n.AddChild(p.expect(open))
	if !p.check(close) {
		for {
			progress := p.mustProgress(n)
			n.AddChild(p.parseParameter(lambda))
			if p.check(TokenComma) {
				n.AddChild(p.advance())
				continue
			}
			k := p.peek().Kind
			if k == close || k == TokenEOF || k == TokenLBrace || k == TokenSemicolon || k == TokenFatArrow {
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

func (p *Parser) parseParameter(lambda bool) *Node {
	n := p.startNode(KindParameter)
	for p.check(TokenLBracket) {
		n.AddChild(p.parseAttributeList())
	}
	var mods []*Node
	for {
		if p.match(TokenRef, TokenOut, TokenIn, TokenParams, TokenThis, TokenReadonly) {
			mods = append(mods, p.advance())
			continue
		}
		if p.checkWord("scoped") && (p.peekN(1).Kind == TokenIdent || p.peekN(1).Kind == TokenRef || p.peekN(1).Kind.IsPredefinedType()) &&
			p.peekN(2).Kind != TokenComma && p.peekN(2).Kind != TokenRParen {
			mods = append(mods, p.advanceAs(KindToken))
			continue
		}
		break
	}
	n.AddField("modifiers", p.modifiersNode(mods))
	if p.check(TokenArglist) {
		n.AddField("name", p.advance())
		return p.finishNode(n)
	}
	if lambda && p.isIdentifier() {
		if k := p.peekN(1).Kind; k == TokenComma || k == TokenRParen {
			n.AddField("name", p.advance())
			return p.finishNode(n)
		}
	}
	n.AddField("type", p.parseType())
	n.AddField("name", p.expectIdentifier())
	if p.check(TokenAssign) {
		n.AddField("default", p.parseEqualsValue())
	}
	return p.finishNode(n)
}

// parseAttributeList parses "[target: A, B(x, Name = y)]".
func (p *Parser) parseAttributeList() *Node {
	return p.withContext(func(c *parseContext) {
		c.inAttribute = true
		c.arrowEnds = false
	}, func() *Node {
		n := p.startNode(KindAttributeList)
		n.AddChild(p.expect(TokenLBracket))
		if tok := p.peek(); (tok.Kind == TokenIdent || tok.Kind.IsKeyword()) && p.peekN(1).Kind == TokenColon {
			t := p.startNode(KindAttributeTarget)
			t.AddField("name", p.advanceAs(KindToken))
			t.AddChild(p.advance())
			n.AddField("target", p.finishNode(t))
		}
		for !p.check(TokenRBracket) && !p.check(TokenEOF) {
			progress := p.mustProgress(n)
			n.AddChild(p.parseAttribute())
			if p.check(TokenComma) {
				n.AddChild(p.advance())
				continue
			}
			if !progress() {
				continue
			}
			break
		}
		n.AddChild(p.expect(TokenRBracket))
		return p.finishNode(n)
	})
}

func (p *Parser) parseAttribute() *Node {
	n := p.startNode(KindAttribute)
	n.AddField("name", p.parseName(true))
	if !p.check(TokenLParen) {
		return p.finishNode(n)
	}
	args := p.startNode(KindAttributeArgumentList)
	args.AddChild(p.advance())
	for !p.check(TokenRParen) && !p.check(TokenEOF) {
		progress := p.mustProgress(args)
		a := p.startNode(KindAttributeArgument)
		switch {
		case p.isIdentifier() && p.peekN(1).Kind == TokenAssign:
			ne := p.startNode(KindNameEquals)
			ne.AddField("name", p.advance())
			ne.AddChild(p.advance())
			a.AddField("nameEquals", p.finishNode(ne))
		case p.isIdentifier() && p.peekN(1).Kind == TokenColon:
			nc := p.startNode(KindNameColon)
			nc.AddField("name", p.advance())
			nc.AddChild(p.advance())
			a.AddField("nameColon", p.finishNode(nc))
		}
		a.AddField("expression", p.parseExpression())
		args.AddChild(p.finishNode(a))
		if p.check(TokenComma) {
			args.AddChild(p.advance())
			continue
		}
		if !progress() {
			continue
		}
		break
	}
	args.AddChild(p.expect(TokenRParen))
	n.AddField("arguments", p.finishNode(args))
	return p.finishNode(n)
}
