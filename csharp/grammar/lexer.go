package grammar

import (
	"fmt"
	"io"
	"sort"
	"unicode"
	"unicode/utf8"

	"golang.org/x/exp/ebnf"
)

type Position struct {
	Filename string
	Offset   int
	Line     int
	Column   int
}

func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is a match of one token production. Kind is the production name,
// or "ERROR" for a byte no production matches.
type Token struct {
	Kind     string
	Literal  string
	Position Position
}

func (t Token) String() string {
	return fmt.Sprintf("%s %s %q", t.Position, t.Kind, t.Literal)
}

type memoKey struct {
	name   string
	offset int
}

// Lexer splits input by longest match over the token productions of a
// grammar: the productions whose name starts with an upper-case letter,
// except Start. Ties go to the production whose name sorts first.
type Lexer struct {
	grammar  ebnf.Grammar
	tokens   []string
	input    []byte
	filename string
	pos      int
	line     int
	column   int
	memo     map[memoKey]int
	visiting map[memoKey]bool
}

func NewLexer(g ebnf.Grammar, input []byte, filename string) *Lexer {
	var names []string
	for name, prod := range g {
		if name == Start || prod.Expr == nil {
			continue
		}
		if r, _ := utf8.DecodeRuneInString(name); unicode.IsUpper(r) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return &Lexer{
		grammar:  g,
		tokens:   names,
		input:    input,
		filename: filename,
		line:     1,
		column:   1,
		memo:     make(map[memoKey]int),
		visiting: make(map[memoKey]bool),
	}
}

func (l *Lexer) Position() Position {
	return Position{
		Filename: l.filename,
		Offset:   l.pos,
		Line:     l.line,
		Column:   l.column,
	}
}

func (l *Lexer) advance() {
	if l.pos >= len(l.input) {
		return
	}
	if l.input[l.pos] == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	l.pos++
}

// NextToken returns the next token, or io.EOF at the end of input.
func (l *Lexer) NextToken() (Token, error) {
	start := l.Position()
	if l.pos >= len(l.input) {
		return Token{Kind: "EOF", Position: start}, io.EOF
	}

	bestLen := 0
	bestKind := ""
	for _, name := range l.tokens {
		if n := l.matchName(name, l.pos); n > bestLen {
			bestLen = n
			bestKind = name
		}
	}
	if bestLen == 0 {
		bestLen = 1
		bestKind = "ERROR"
	}

	literal := string(l.input[l.pos : l.pos+bestLen])
	for i := 0; i < bestLen; i++ {
		l.advance()
	}
	return Token{Kind: bestKind, Literal: literal, Position: start}, nil
}

// Tokenize returns all tokens up to and including the EOF token.
func (l *Lexer) Tokenize() []Token {
	var tokens []Token
	for {
		tok, err := l.NextToken()
		tokens = append(tokens, tok)
		if err != nil {
			return tokens
		}
	}
}

// match returns the length matched by expr at offset, or -1. Repetitions
// and options are greedy and never backtrack.
func (l *Lexer) match(expr ebnf.Expression, offset int) int {
	switch e := expr.(type) {
	case nil:
		return 0
	case *ebnf.Token:
		if bytesHavePrefix(l.input[offset:], e.String) {
			return len(e.String)
		}
		return -1
	case *ebnf.Range:
		if offset >= len(l.input) {
			return -1
		}
		r, size := utf8.DecodeRune(l.input[offset:])
		lo, _ := utf8.DecodeRuneInString(e.Begin.String)
		hi, _ := utf8.DecodeRuneInString(e.End.String)
		if r >= lo && r <= hi {
			return size
		}
		return -1
	case ebnf.Sequence:
		total := 0
		for _, item := range e {
			n := l.match(item, offset+total)
			if n < 0 {
				return -1
			}
			total += n
		}
		return total
	case ebnf.Alternative:
		best := -1
		for _, alt := range e {
			if n := l.match(alt, offset); n > best {
				best = n
			}
		}
		return best
	case *ebnf.Repetition:
		total := 0
		for {
			n := l.match(e.Body, offset+total)
			if n <= 0 {
				return total
			}
			total += n
		}
	case *ebnf.Option:
		if n := l.match(e.Body, offset); n > 0 {
			return n
		}
		return 0
	case *ebnf.Group:
		return l.match(e.Body, offset)
	case *ebnf.Name:
		return l.matchName(e.String, offset)
	}
	return -1
}

// matchName matches a production by name. Results are memoized by offset;
// a production reached again at the same offset fails, which cuts left
// recursion.
func (l *Lexer) matchName(name string, offset int) int {
	key := memoKey{name: name, offset: offset}
	if n, ok := l.memo[key]; ok {
		return n
	}
	if l.visiting[key] {
		return -1
	}
	prod, ok := l.grammar[name]
	if !ok {
		l.memo[key] = -1
		return -1
	}
	l.visiting[key] = true
	n := l.match(prod.Expr, offset)
	delete(l.visiting, key)
	l.memo[key] = n
	return n
}

func bytesHavePrefix(b []byte, prefix string) bool {
	return len(b) >= len(prefix) && string(b[:len(prefix)]) == prefix
}
