package preproc

import "fmt"

// Expr is a conditional-compilation expression.
type Expr interface {
	Eval(s *State) bool
	String() string
}

type SymbolExpr struct{ Name string }

type BoolExpr struct{ Value bool }

type NotExpr struct{ Operand Expr }

type BinaryExpr struct {
	Op          TokKind
	Left, Right Expr
}

type ParenExpr struct{ Inner Expr }

func (e *SymbolExpr) Eval(s *State) bool { return s.IsDefined(e.Name) }
func (e *BoolExpr) Eval(*State) bool     { return e.Value }
func (e *NotExpr) Eval(s *State) bool    { return !e.Operand.Eval(s) }
func (e *ParenExpr) Eval(s *State) bool  { return e.Inner.Eval(s) }

func (e *BinaryExpr) Eval(s *State) bool {
	switch e.Op {
	case TokAnd:
		return e.Left.Eval(s) && e.Right.Eval(s)
	case TokOr:
		return e.Left.Eval(s) || e.Right.Eval(s)
	case TokEq:
		return e.Left.Eval(s) == e.Right.Eval(s)
	case TokNe:
		return e.Left.Eval(s) != e.Right.Eval(s)
	}
	return false
}

func (e *SymbolExpr) String() string { return e.Name }
func (e *BoolExpr) String() string   { return fmt.Sprint(e.Value) }
func (e *NotExpr) String() string    { return "!" + e.Operand.String() }
func (e *ParenExpr) String() string  { return "(" + e.Inner.String() + ")" }

func (e *BinaryExpr) String() string {
	op := map[TokKind]string{TokAnd: "&&", TokOr: "||", TokEq: "==", TokNe: "!="}[e.Op]
	return "(" + e.Left.String() + " " + op + " " + e.Right.String() + ")"
}

// ParseExpr parses a directive condition such as "DEBUG && !TRACE".
func ParseExpr(src string) (Expr, error) {
	sc := &scanner{src: src}
	toks, err := sc.tokenize()
	if err != nil {
		return nil, err
	}
	return parseExpr(significant(toks))
}

func parseExpr(toks []Tok) (Expr, error) {
	p := &exprParser{toks: toks}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.toks) {
		return nil, fmt.Errorf("unexpected %q in preprocessor expression", p.toks[p.pos].Text)
	}
	return e, nil
}

// Operator binding from loosest to tightest: || && (== !=) !.
type exprParser struct {
	toks []Tok
	pos  int
}

func (p *exprParser) peek() (Tok, bool) {
	if p.pos >= len(p.toks) {
		return Tok{}, false
	}
	return p.toks[p.pos], true
}

func (p *exprParser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.Kind != TokOr {
			return left, nil
		}
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: TokOr, Left: left, Right: right}
	}
}

func (p *exprParser) parseAnd() (Expr, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.Kind != TokAnd {
			return left, nil
		}
		p.pos++
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: TokAnd, Left: left, Right: right}
	}
}

func (p *exprParser) parseEquality() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || (t.Kind != TokEq && t.Kind != TokNe) {
			return left, nil
		}
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: t.Kind, Left: left, Right: right}
	}
}

func (p *exprParser) parseUnary() (Expr, error) {
	t, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("expression expected")
	}
	switch t.Kind {
	case TokNot:
		p.pos++
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &NotExpr{Operand: operand}, nil
	case TokLParen:
		p.pos++
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		closing, ok := p.peek()
		if !ok || closing.Kind != TokRParen {
			return nil, fmt.Errorf("')' expected")
		}
		p.pos++
		return &ParenExpr{Inner: inner}, nil
	case TokIdent:
		p.pos++
		switch t.Text {
		case "true":
			return &BoolExpr{Value: true}, nil
		case "false":
			return &BoolExpr{Value: false}, nil
		}
		return &SymbolExpr{Name: t.Text}, nil
	}
	return nil, fmt.Errorf("invalid preprocessor expression at %q", t.Text)
}
