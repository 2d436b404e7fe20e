package preproc

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseExpr(t *testing.T) {
	tests := []struct {
		input   string
		defined []string
		want    bool
		str     string
	}{
		{"DEBUG", []string{"DEBUG"}, true, "DEBUG"},
		{"DEBUG", nil, false, "DEBUG"},
		{"!DEBUG", nil, true, "!DEBUG"},
		{"true", nil, true, "true"},
		{"A && B", []string{"A"}, false, "(A && B)"},
		{"A || B", []string{"B"}, true, "(A || B)"},
		{"A || B && C", []string{"A"}, true, "(A || (B && C))"},
		{"A == B", nil, true, "(A == B)"},
		{"A != B", []string{"A"}, true, "(A != B)"},
		{"!(A || B)", nil, true, "!((A || B))"},
		{"A && !B == C", []string{"A", "C"}, true, "(A && (!B == C))"},
		{"DEBUG // trailing", []string{"DEBUG"}, true, "DEBUG"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			e, err := ParseExpr(tt.input)
			if err != nil {
				t.Fatalf("ParseExpr(%q): %v", tt.input, err)
			}
			if got := e.String(); got != tt.str {
				t.Errorf("String() = %q, want %q", got, tt.str)
			}
			if got := e.Eval(NewState(tt.defined...)); got != tt.want {
				t.Errorf("Eval = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseExprErrors(t *testing.T) {
	for _, input := range []string{"", "A &&", "(A", "A B", "1", "A & B", "A)"} {
		t.Run(input, func(t *testing.T) {
			if _, err := ParseExpr(input); err == nil {
				t.Errorf("ParseExpr(%q) succeeded, want error", input)
			}
		})
	}
}

func TestParseDirective(t *testing.T) {
	tests := []struct {
		line    string
		kind    DirectiveKind
		symbol  string
		message string
		wantErr bool
	}{
		{"#if DEBUG", DirectiveIf, "", "", false},
		{"  #  elif A && B", DirectiveElif, "", "", false},
		{"#else", DirectiveElse, "", "", false},
		{"#endif // done", DirectiveEndif, "", "", false},
		{"#define TRACE", DirectiveDefine, "TRACE", "", false},
		{"#undef TRACE", DirectiveUndef, "TRACE", "", false},
		{"#region Helpers and such", DirectiveRegion, "", "Helpers and such", false},
		{"#endregion", DirectiveEndregion, "", "", false},
		{"#error Not supported", DirectiveError, "", "Not supported", false},
		{"#warning Check this", DirectiveWarning, "", "Check this", false},
		{"#pragma warning disable CS0168, CS0219", DirectivePragma, "", "", false},
		{"#pragma warning restore", DirectivePragma, "", "", false},
		{`#pragma checksum "a.cs" "{406EA660-64CF-4C82-B6F0-42D48172A799}" "ab007f1d23d9"`, DirectivePragma, "", "", false},
		{"#line 200 \"Special.cs\"", DirectiveLine, "", "", false},
		{"#line default", DirectiveLine, "", "", false},
		{"#line hidden", DirectiveLine, "", "", false},
		{"#nullable enable", DirectiveNullable, "", "", false},
		{"#nullable disable warnings", DirectiveNullable, "", "", false},

		{"#if", DirectiveIf, "", "", true},
		{"#else junk", DirectiveElse, "", "", true},
		{"#define", DirectiveDefine, "", "", true},
		{"#define A B", DirectiveDefine, "A", "", true},
		{"#pragma warning sideways", DirectivePragma, "", "", true},
		{"#pragma whatever", DirectivePragma, "", "", true},
		{"#line 0", DirectiveLine, "", "", true},
		{"#line later", DirectiveLine, "", "", true},
		{"#nullable maybe", DirectiveNullable, "", "", true},
		{"#nullable enable everything", DirectiveNullable, "", "", true},
		{"#foo", DirectiveUnknown, "", "", true},
		{"#", DirectiveUnknown, "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			d := Parse(tt.line)
			if d.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", d.Kind, tt.kind)
			}
			if d.Symbol != tt.symbol {
				t.Errorf("symbol = %q, want %q", d.Symbol, tt.symbol)
			}
			if d.Message != tt.message {
				t.Errorf("message = %q, want %q", d.Message, tt.message)
			}
			if (d.Err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", d.Err, tt.wantErr)
			}
		})
	}
}

func TestDirectiveTokens(t *testing.T) {
	d := Parse("  #if (A || B) // note")
	want := []Tok{
		{Kind: TokHash, Text: "#", Offset: 2},
		{Kind: TokName, Text: "if", Offset: 3},
		{Kind: TokLParen, Text: "(", Offset: 6},
		{Kind: TokIdent, Text: "A", Offset: 7},
		{Kind: TokOr, Text: "||", Offset: 9},
		{Kind: TokIdent, Text: "B", Offset: 12},
		{Kind: TokRParen, Text: ")", Offset: 13},
		{Kind: TokComment, Text: "// note", Offset: 15},
	}
	if diff := cmp.Diff(want, d.Tokens); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func apply(t *testing.T, s *State, lines ...string) []bool {
	t.Helper()
	var live []bool
	for i, line := range lines {
		if err := s.Apply(Parse(line), i+1); err != nil {
			t.Fatalf("Apply(%q): %v", line, err)
		}
		live = append(live, s.Active())
	}
	return live
}

func TestConditionalBranches(t *testing.T) {
	tests := []struct {
		name    string
		defined []string
		lines   []string
		want    []bool
	}{
		{
			name:    "if taken",
			defined: []string{"DEBUG"},
			lines:   []string{"#if DEBUG", "#else", "#endif"},
			want:    []bool{true, false, true},
		},
		{
			name:  "else taken",
			lines: []string{"#if DEBUG", "#else", "#endif"},
			want:  []bool{false, true, true},
		},
		{
			name:    "first true elif wins",
			defined: []string{"B", "C"},
			lines:   []string{"#if A", "#elif B", "#elif C", "#else", "#endif"},
			want:    []bool{false, true, false, false, true},
		},
		{
			name:    "nested inside excluded stays excluded",
			defined: []string{"B"},
			lines:   []string{"#if A", "#if B", "#else", "#endif", "#endif"},
			want:    []bool{false, false, false, false, true},
		},
		{
			name:  "define applies to later directives",
			lines: []string{"#define X", "#if X", "#endif", "#undef X", "#if X", "#endif"},
			want:  []bool{true, true, true, true, false, true},
		},
		{
			name:  "define inside excluded branch is ignored",
			lines: []string{"#if NOPE", "#define X", "#endif", "#if X", "#endif"},
			want:  []bool{false, false, true, false, true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState(tt.defined...)
			if diff := cmp.Diff(tt.want, apply(t, s, tt.lines...)); diff != "" {
				t.Errorf("live mismatch (-want +got):\n%s", diff)
			}
			if s.Depth() != 0 {
				t.Errorf("depth = %d, want 0", s.Depth())
			}
		})
	}
}

func TestConditionalErrors(t *testing.T) {
	t.Run("unbalanced endif", func(t *testing.T) {
		s := NewState()
		if err := s.Apply(Parse("#endif"), 1); err == nil {
			t.Error("expected error for #endif without #if")
		}
	})
	t.Run("else after else", func(t *testing.T) {
		s := NewState()
		apply(t, s, "#if A", "#else")
		if err := s.Apply(Parse("#else"), 3); err == nil {
			t.Error("expected error for duplicate #else")
		}
	})
	t.Run("bad condition excludes branch", func(t *testing.T) {
		s := NewState("A")
		if err := s.Apply(Parse("#if A &&"), 1); err == nil {
			t.Error("expected error for malformed condition")
		}
		if s.Active() {
			t.Error("branch with malformed condition should be excluded")
		}
		if s.Depth() != 1 {
			t.Errorf("depth = %d, want 1", s.Depth())
		}
	})
	t.Run("unclosed", func(t *testing.T) {
		s := NewState()
		apply(t, s, "#if A", "#if B")
		line, ok := s.Unclosed()
		if !ok || line != 2 {
			t.Errorf("Unclosed() = %d, %v; want 2, true", line, ok)
		}
	})
}

func TestSymbols(t *testing.T) {
	s := NewState("B", "A", "")
	s.Define("C")
	s.Undefine("B")
	if diff := cmp.Diff([]string{"A", "C"}, s.Symbols()); diff != "" {
		t.Errorf("symbols mismatch (-want +got):\n%s", diff)
	}
}
