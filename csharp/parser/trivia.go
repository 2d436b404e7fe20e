package parser

import (
	"fmt"

	"github.com/dhamidi/sharp/csharp/preproc"
)

type TriviaKind int

const (
	TriviaWhitespace TriviaKind = iota
	TriviaNewline
	TriviaLineComment
	TriviaBlockComment
	TriviaDirective
	TriviaDisabledText
)

var triviaKindNames = [...]string{
	TriviaWhitespace:   "Whitespace",
	TriviaNewline:      "Newline",
	TriviaLineComment:  "LineComment",
	TriviaBlockComment: "BlockComment",
	TriviaDirective:    "Directive",
	TriviaDisabledText: "DisabledText",
}

func (k TriviaKind) String() string {
	if int(k) < len(triviaKindNames) {
		return triviaKindNames[k]
	}
	return "Unknown"
}

// Trivia is source text that carries no grammar meaning: whitespace,
// comments, directive lines and the text of excluded conditional sections.
type Trivia struct {
	Kind    TriviaKind
	Span    Span
	Literal string
	// Directive is the structured form of a directive line.
	Directive *Node
}

var triviaKinds = map[TokenKind]TriviaKind{
	TokenWhitespace:   TriviaWhitespace,
	TokenNewline:      TriviaNewline,
	TokenLineComment:  TriviaLineComment,
	TokenBlockComment: TriviaBlockComment,
	TokenDirective:    TriviaDirective,
	TokenDisabledText: TriviaDisabledText,
}

func triviaOf(tok Token) Trivia {
	return Trivia{Kind: triviaKinds[tok.Kind], Span: tok.Span, Literal: tok.Literal}
}

// fill makes sure the token buffer holds index i, pulling tokens from the
// lexer on demand.
func (p *Parser) fill(i int) {
	for len(p.tokens) <= i && !p.eof {
		tok := p.nextSignificant()
		p.tokens = append(p.tokens, tok)
		if tok.Kind == TokenEOF {
			p.eof = true
		}
	}
}

// nextSignificant returns the next token the grammar sees, with the trivia
// before it attached. Directives are applied to the conditional state as
// they are met, and excluded sections become disabled-text trivia.
func (p *Parser) nextSignificant() Token {
	var leading []Trivia
	for {
		tok := p.lexer.NextToken()
		switch {
		case tok.Kind == TokenDirective:
			leading = append(leading, p.directive(tok)...)
		case tok.Kind.IsTrivia():
			leading = append(leading, triviaOf(tok))
		default:
			if tok.Kind != TokenEOF {
				p.sawToken = true
			}
			tok.Leading = leading
			return tok
		}
	}
}

func (p *Parser) sourceError(span Span, code, msg string) {
	p.srcDiags = append(p.srcDiags, Diagnostic{Span: span, Severity: SeverityError, Code: code, Message: msg})
}

func (p *Parser) sourceWarning(span Span, code, msg string) {
	p.srcDiags = append(p.srcDiags, Diagnostic{Span: span, Severity: SeverityWarning, Code: code, Message: msg})
}

func (p *Parser) directive(tok Token) []Trivia {
	wasActive := p.pp.Active()
	d := preproc.Parse(tok.Literal)
	node := directiveNode(tok, d)
	out := []Trivia{{Kind: TriviaDirective, Span: tok.Span, Literal: tok.Literal, Directive: node}}

	if d.Kind.IsConditional() || wasActive {
		err := p.pp.Apply(d, tok.Span.Start.Line)
		if err != nil && (wasActive || d.Kind != preproc.DirectiveIf) {
			code := CodeUnexpectedDirective
			switch {
			case d.Err != nil && (d.Kind == preproc.DirectiveIf || d.Kind == preproc.DirectiveElif):
				code = CodeInvalidPreprocExpr
			case d.Err != nil:
				code = CodeBadDirective
			}
			p.sourceError(tok.Span, code, err.Error())
		}
	}

	if wasActive {
		switch d.Kind {
		case preproc.DirectiveDefine, preproc.DirectiveUndef:
			if p.sawToken {
				p.sourceError(tok.Span, CodeDefineAfterToken, "cannot define/undefine preprocessor symbols after first token in file")
			}
		case preproc.DirectiveError:
			p.sourceError(tok.Span, CodeErrorDirective, fmt.Sprintf("#error: '%s'", d.Message))
		case preproc.DirectiveWarning:
			p.sourceWarning(tok.Span, CodeWarningDirective, fmt.Sprintf("#warning: '%s'", d.Message))
		case preproc.DirectiveRegion:
			p.regions = append(p.regions, tok.Span)
		case preproc.DirectiveEndregion:
			if len(p.regions) == 0 {
				p.sourceError(tok.Span, CodeUnexpectedEndRegion, "unexpected preprocessor directive #endregion")
			} else {
				p.regions = p.regions[:len(p.regions)-1]
			}
		}
	}

	if p.pp.Active() {
		return out
	}
	// The excluded section starts on the line after the directive.
	m := p.lexer.Mark()
	if nl := p.lexer.NextToken(); nl.Kind == TokenNewline {
		out = append(out, triviaOf(nl))
	} else {
		p.lexer.Restore(m)
	}
	if text, ok := p.lexer.ScanDisabledText(); ok {
		out = append(out, triviaOf(text))
	}
	return out
}

// checkUnclosed reports #if and #region blocks still open at end of input.
func (p *Parser) checkUnclosed(eof Token) {
	if p.pp == nil {
		return
	}
	if line, ok := p.pp.Unclosed(); ok {
		p.sourceError(eof.Span, CodeEndifExpected, fmt.Sprintf("#endif directive expected for #if on line %d", line))
	}
	if n := len(p.regions); n > 0 {
		p.sourceError(eof.Span, CodeEndRegionExpected, fmt.Sprintf("#endregion directive expected for #region on line %d", p.regions[n-1].Start.Line))
	}
	p.pp = preproc.NewState(p.pp.Symbols()...)
	p.regions = nil
}

var directiveKinds = map[preproc.DirectiveKind]NodeKind{
	preproc.DirectiveIf:        KindIfDirective,
	preproc.DirectiveElif:      KindElifDirective,
	preproc.DirectiveElse:      KindElseDirective,
	preproc.DirectiveEndif:     KindEndifDirective,
	preproc.DirectiveDefine:    KindDefineDirective,
	preproc.DirectiveUndef:     KindUndefDirective,
	preproc.DirectiveRegion:    KindRegionDirective,
	preproc.DirectiveEndregion: KindEndregionDirective,
	preproc.DirectivePragma:    KindPragmaDirective,
	preproc.DirectiveLine:      KindLineDirective,
	preproc.DirectiveNullable:  KindNullableDirective,
	preproc.DirectiveError:     KindErrorDirective,
	preproc.DirectiveWarning:   KindWarningDirective,
}

var directiveTokenKinds = map[preproc.TokKind]TokenKind{
	preproc.TokHash:    TokenHash,
	preproc.TokName:    TokenIdent,
	preproc.TokIdent:   TokenIdent,
	preproc.TokNumber:  TokenIntLiteral,
	preproc.TokString:  TokenStringLiteral,
	preproc.TokNot:     TokenBang,
	preproc.TokAnd:     TokenAndAnd,
	preproc.TokOr:      TokenOrOr,
	preproc.TokEq:      TokenEQ,
	preproc.TokNe:      TokenNE,
	preproc.TokLParen:  TokenLParen,
	preproc.TokRParen:  TokenRParen,
	preproc.TokComma:   TokenComma,
	preproc.TokMessage: TokenPreprocessorMessage,
	preproc.TokComment: TokenLineComment,
	preproc.TokInvalid: TokenError,
}

// directiveNode builds the structured node of a directive line. Its leaves
// carry positions inside the line; they are not part of the token stream.
func directiveNode(tok Token, d *preproc.Directive) *Node {
	kind, ok := directiveKinds[d.Kind]
	if !ok {
		kind = KindBadDirective
	}
	node := &Node{Kind: kind, Span: tok.Span}
	for _, t := range d.Tokens {
		start := tok.Span.Start
		start.Offset += t.Offset
		start.Column += t.Offset
		end := start
		end.Offset += len(t.Text)
		end.Column += len(t.Text)
		lt := &Token{Kind: directiveTokenKinds[t.Kind], Span: Span{Start: start, End: end}, Literal: t.Text, Value: t.Text}
		leaf := &Node{Kind: leafKind(lt.Kind), Span: lt.Span, Token: lt}
		switch {
		case t.Kind == preproc.TokName:
			node.AddField("name", leaf)
		case t.Kind == preproc.TokMessage:
			node.AddField("message", leaf)
		case t.Kind == preproc.TokIdent && d.Symbol == t.Text && (d.Kind == preproc.DirectiveDefine || d.Kind == preproc.DirectiveUndef):
			node.AddField("symbol", leaf)
		default:
			node.AddChild(leaf)
		}
	}
	if d.Err != nil {
		node.Error = &Error{Message: d.Err.Error()}
	}
	return node
}
