// Package grammar holds the lexical grammar of C# in EBNF and a slow,
// grammar-driven lexer built on it. The lexer serves as a reference to
// check the hand-written lexer of package parser against.
package grammar

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"golang.org/x/exp/ebnf"
)

// Start is the production that covers a whole input.
const Start = "Input"

//go:embed lexical.ebnf
var lexicalSource []byte

// Source returns the text of the built-in lexical grammar.
func Source() []byte {
	return lexicalSource
}

// Lexical parses and verifies the built-in lexical grammar.
func Lexical() (ebnf.Grammar, error) {
	return Parse("lexical.ebnf", bytes.NewReader(lexicalSource))
}

// Load reads a grammar file and verifies it from Start.
func Load(filename string) (ebnf.Grammar, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open grammar: %w", err)
	}
	defer f.Close()
	return Parse(filename, f)
}

func Parse(filename string, r io.Reader) (ebnf.Grammar, error) {
	g, err := ebnf.Parse(filename, r)
	if err != nil {
		return nil, fmt.Errorf("parse grammar: %w", err)
	}
	if err := ebnf.Verify(g, Start); err != nil {
		return nil, fmt.Errorf("verify grammar: %w", err)
	}
	return g, nil
}
