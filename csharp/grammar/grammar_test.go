package grammar

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dhamidi/sharp/csharp/parser"
)

type lexeme struct {
	Kind    string
	Literal string
}

func referenceLexemes(t *testing.T, input string) []lexeme {
	t.Helper()
	g, err := Lexical()
	if err != nil {
		t.Fatalf("Lexical: %v", err)
	}
	var out []lexeme
	for _, tok := range NewLexer(g, []byte(input), "test.cs").Tokenize() {
		switch tok.Kind {
		case "EOF", "Whitespace", "LineComment", "BlockComment":
			continue
		}
		out = append(out, lexeme{tok.Kind, tok.Literal})
	}
	return out
}

func parserLexemes(input string) []lexeme {
	lexer := parser.NewLexer([]byte(input), "test.cs")
	var out []lexeme
	for {
		tok := lexer.NextToken()
		if tok.Kind == parser.TokenEOF {
			return out
		}
		if tok.Kind.IsTrivia() {
			continue
		}
		out = append(out, lexeme{category(tok), tok.Literal})
	}
}

func category(tok parser.Token) string {
	switch tok.Kind {
	case parser.TokenIntLiteral:
		return "IntegerLiteral"
	case parser.TokenRealLiteral:
		return "RealLiteral"
	case parser.TokenCharLiteral:
		return "CharacterLiteral"
	case parser.TokenStringLiteral:
		return "StringLiteral"
	case parser.TokenVerbatimStringLiteral:
		return "VerbatimStringLiteral"
	case parser.TokenError:
		return "ERROR"
	}
	if c := tok.Literal[0]; c == '_' || c == '@' || (c|0x20 >= 'a' && c|0x20 <= 'z') {
		return "Identifier"
	}
	return "Punctuator"
}

func TestLexicalGrammarVerifies(t *testing.T) {
	g, err := Lexical()
	if err != nil {
		t.Fatalf("Lexical: %v", err)
	}
	for _, name := range []string{"Identifier", "IntegerLiteral", "RealLiteral", "Punctuator"} {
		if g[name] == nil {
			t.Errorf("production %s missing", name)
		}
	}
}

func TestParseRejectsUnusedProduction(t *testing.T) {
	src := "Input = { A } .\nA = \"a\" .\nB = \"b\" .\n"
	if _, err := Parse("bad.ebnf", strings.NewReader(src)); err == nil {
		t.Fatal("expected a verification error for unused production B")
	}
}

// The hand-written lexer and the grammar must split the same input into
// the same tokens.
func TestLexerMatchesGrammar(t *testing.T) {
	inputs := []string{
		"class C : B<int> { public int x = 0x1F + 0b1010 * 1_000UL; }",
		"a >>= b >> c >= d ?? e ??= f?.g",
		`var s = @"a ""quoted"" path\dir" + "tab\tA" + 'x' + '\n';`,
		"double d = 1.5e-3 + 2f - 3.0m + 4d + 1e10 + 7L;",
		"x => x.Items[i..^1] :: y -> z",
		"/* block ** comment */ a // line\n b",
		"@class @where _under score9",
		"if (a != b && c || !d) { x++; y--; z <<= 2; w %= 3; v ^= 1; u |= 2; t &= 3; }",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			want := referenceLexemes(t, input)
			got := parserLexemes(input)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("lexer disagrees with grammar (-grammar +lexer):\n%s", diff)
			}
		})
	}
}

func TestReferenceLexerPositions(t *testing.T) {
	g, err := Lexical()
	if err != nil {
		t.Fatal(err)
	}
	toks := NewLexer(g, []byte("a\n  `b"), "x.cs").Tokenize()
	var got []string
	for _, tok := range toks {
		got = append(got, tok.String())
	}
	want := []string{
		`x.cs:1:1 Identifier "a"`,
		`x.cs:1:2 Whitespace "\n  "`,
		"x.cs:2:3 ERROR \"`\"",
		`x.cs:2:4 Identifier "b"`,
		`x.cs:2:5 EOF ""`,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tokens (-want +got):\n%s", diff)
	}
}
