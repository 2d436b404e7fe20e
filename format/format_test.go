package format

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dhamidi/sharp/csharp/parser"
)

func parseDoc(t *testing.T, src string) *Document {
	t.Helper()
	p := parser.ParseCompilationUnit(strings.NewReader(src), parser.WithFile("a.cs"))
	tree := p.Finish()
	if tree == nil {
		t.Fatalf("parse %q returned nil", src)
	}
	return &Document{File: "a.cs", Tree: tree, Diagnostics: p.Diagnostics()}
}

func TestNewEncoder(t *testing.T) {
	for _, name := range Formats {
		if _, err := NewEncoder(name, &bytes.Buffer{}, false); err != nil {
			t.Errorf("NewEncoder(%q): %v", name, err)
		}
	}
	if _, err := NewEncoder("yaml", &bytes.Buffer{}, false); err == nil {
		t.Error("NewEncoder(yaml) should fail")
	}
}

func TestTreeJSONEncoder(t *testing.T) {
	doc := parseDoc(t, "class C { int x }")
	var buf bytes.Buffer
	if err := NewTreeJSONEncoder(&buf).Encode(doc); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var got struct {
		File string `json:"file"`
		Tree struct {
			Kind string `json:"kind"`
		} `json:"tree"`
		Diagnostics []struct {
			Line     int    `json:"line"`
			Severity string `json:"severity"`
			Code     string `json:"code"`
		} `json:"diagnostics"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if got.File != "a.cs" || got.Tree.Kind != "CompilationUnit" {
		t.Errorf("file = %q, tree kind = %q", got.File, got.Tree.Kind)
	}
	if len(got.Diagnostics) != 1 || got.Diagnostics[0].Code != parser.CodeSemicolonExpected || got.Diagnostics[0].Severity != "error" {
		t.Errorf("diagnostics = %+v", got.Diagnostics)
	}
}

func TestSexpEncoder(t *testing.T) {
	p := parser.ParseExpression(strings.NewReader("a * (b + 1)"))
	doc := &Document{Tree: p.Finish().Field("expression"), Diagnostics: p.Diagnostics()}
	data, err := NewSexpEncoder(&bytes.Buffer{}).Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	want := "(BinaryExpr Identifier:a * (ParenExpr ( (BinaryExpr Identifier:b + Literal:1) )))\n"
	if diff := cmp.Diff(want, string(data)); diff != "" {
		t.Errorf("sexp (-want +got):\n%s", diff)
	}
}

func TestTreeTextEncoder(t *testing.T) {
	doc := parseDoc(t, "class C { }\n}")
	var buf bytes.Buffer
	enc, err := NewEncoder("tree", &buf, true)
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.Encode(doc); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "CompilationUnit [a.cs:1:1-a.cs:2:2]\n") {
		t.Errorf("unexpected header:\n%s", out)
	}
	if !strings.Contains(out, "  ClassDecl [") || !strings.Contains(out, "    name: Identifier [a.cs:1:7-a.cs:1:8] C\n") {
		t.Errorf("missing class lines:\n%s", out)
	}
	if !strings.HasSuffix(out, "a.cs:2:1: error "+parser.CodeUnexpectedToken+": unexpected '}'\n") {
		t.Errorf("missing diagnostic line:\n%s", out)
	}
}

func TestTokenEncoder(t *testing.T) {
	doc := parseDoc(t, "// hi\nclass C { int x }")
	data, err := NewTokenEncoder(&bytes.Buffer{}).Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"\ta.cs:1:1\tLineComment\t\"// hi\"",
		"\ta.cs:1:6\tNewline\t\"\\n\"",
		"a.cs:2:1\tclass\t\"class\"",
		"\ta.cs:2:6\tWhitespace\t\" \"",
		"a.cs:2:7\tIdent\t\"C\"",
		"\ta.cs:2:8\tWhitespace\t\" \"",
		"a.cs:2:9\t{\t\"{\"",
		"\ta.cs:2:10\tWhitespace\t\" \"",
		"a.cs:2:11\tint\t\"int\"",
		"\ta.cs:2:14\tWhitespace\t\" \"",
		"a.cs:2:15\tIdent\t\"x\"",
		"a.cs:2:16\t;\t\"\"\tmissing",
		"\ta.cs:2:16\tWhitespace\t\" \"",
		"a.cs:2:17\t}\t\"}\"",
		"a.cs:2:18\tEOF\t\"\"",
		"",
	}
	if diff := cmp.Diff(want, strings.Split(string(data), "\n")); diff != "" {
		t.Errorf("tokens (-want +got):\n%s", diff)
	}
}

func TestOutlineEncoder(t *testing.T) {
	doc := parseDoc(t, "namespace N { class C { void M() { } int P { get; } } }")
	data, err := NewOutlineEncoder(&bytes.Buffer{}).Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	want := "namespace\tN\ta.cs:1:11\n" +
		"  class\tC\ta.cs:1:21\n" +
		"    method\tM\ta.cs:1:30\n" +
		"    property\tP\ta.cs:1:42\n"
	if diff := cmp.Diff(want, string(data)); diff != "" {
		t.Errorf("outline (-want +got):\n%s", diff)
	}
}
