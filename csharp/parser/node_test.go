package parser

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNodeKindString(t *testing.T) {
	tests := []struct {
		kind NodeKind
		want string
	}{
		{KindError, "Error"},
		{KindCompilationUnit, "CompilationUnit"},
		{KindUsingDirective, "UsingDirective"},
		{KindClassDecl, "ClassDecl"},
		{KindMethodDecl, "MethodDecl"},
		{KindIfStmt, "IfStmt"},
		{KindBinaryExpr, "BinaryExpr"},
		{KindIsPatternExpr, "IsPatternExpr"},
		{KindIfDirective, "IfDirective"},
		{NodeKind(9999), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("NodeKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
			}
		})
	}
}

func TestNodeFields(t *testing.T) {
	n := &Node{Kind: KindBinaryExpr}
	left := &Node{Kind: KindIdentifier}
	op := &Node{Kind: KindToken}
	right := &Node{Kind: KindLiteral}
	n.AddField("left", left)
	n.AddField("operator", op)
	n.AddField("right", right)
	n.AddField("missing", nil)
	n.AddChild(nil)

	if len(n.Children) != 3 {
		t.Fatalf("got %d children, want 3", len(n.Children))
	}
	if n.Field("left") != left || n.Field("right") != right {
		t.Errorf("Field lookup mismatch")
	}
	if n.Field("missing") != nil {
		t.Errorf("Field(missing) should be nil")
	}
	if diff := cmp.Diff([]string{"left", "operator", "right"}, n.FieldNames()); diff != "" {
		t.Errorf("FieldNames (-want +got):\n%s", diff)
	}
	if got := n.FieldOf(1); got != "operator" {
		t.Errorf("FieldOf(1) = %q", got)
	}
}

func TestNodeWalk(t *testing.T) {
	tree, _ := parseUnit(t, "class A { void M() { } } class B { }")

	var names []string
	tree.Walk(func(n *Node) bool {
		if n.Kind == KindClassDecl {
			names = append(names, n.Field("name").TokenLiteral())
			return false
		}
		return true
	})
	if diff := cmp.Diff([]string{"A", "B"}, names); diff != "" {
		t.Errorf("class names (-want +got):\n%s", diff)
	}
	if got := len(tree.Find(KindMethodDecl)); got != 1 {
		t.Errorf("Find(MethodDecl) = %d, want 1", got)
	}
}

func TestNodeSpans(t *testing.T) {
	src := "class A\n{\n    int x;\n}\n"
	tree, _ := parseUnit(t, src)
	field := tree.Find(KindFieldDecl)[0]
	if field.Span.Start.Line != 3 || field.Span.Start.Column != 5 {
		t.Errorf("field starts at %v, want 3:5", field.Span.Start)
	}
	if got := src[field.Span.Start.Offset:field.Span.End.Offset]; got != "int x;" {
		t.Errorf("field text = %q", got)
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"   \n\t",
		"// only a comment\n",
		"class C { }",
		"class C {",
		"}}}",
		"class C { void M() { if (x) { y(); } else z(); } }",
		"using System;\n/* header */\nnamespace N {\n  #region R\n  class C { }\n  #endregion\n}\n",
		"#if A\nclass Hidden { !!! }\n#endif\nclass Shown { }\n",
		"class C { int M() => x switch { > 0 and < 5 => 1, _ => 0 }; }",
		"var q = from c in cs let n = c.Name orderby n descending select n;",
		"class C { void M() { var s = $\"{a,3:N2} and {{b}}\"; } }",
		"class C { string s = @\"multi\nline\"; }",
		"@#$%^",
		"class C { void M() { x = (int)(long)y + (z) - w; } }",
		"record R(int A) : B(A) { public int C { get; init; } }",
		"class C { unsafe void M(int* p) { delegate*<int, void> f = null; } }",
		"namespace N; class C { } enum E { A, B }",
		"\ufeffclass BOM { }",
	}
	for _, src := range inputs {
		t.Run(src, func(t *testing.T) {
			tree, _ := parseUnit(t, src)
			if got := tree.Text(); got != src {
				t.Errorf("round trip mismatch:\n got %q\nwant %q", got, src)
			}
			if tree.Span.End.Offset != len(src) {
				t.Errorf("tree ends at %d, want %d", tree.Span.End.Offset, len(src))
			}
		})
	}
}

func TestNodeJSON(t *testing.T) {
	tree, _ := parseUnit(t, "class C { }")
	data, err := json.Marshal(tree)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got struct {
		Kind     string `json:"kind"`
		Children []struct {
			Kind     string `json:"kind"`
			Children []struct {
				Kind  string `json:"kind"`
				Field string `json:"field"`
				Token string `json:"token"`
			} `json:"children"`
		} `json:"children"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Kind != "CompilationUnit" || len(got.Children) == 0 || got.Children[0].Kind != "ClassDecl" {
		t.Fatalf("unexpected JSON: %s", data)
	}
	var name string
	for _, c := range got.Children[0].Children {
		if c.Field == "name" {
			name = c.Token
		}
	}
	if name != "C" {
		t.Errorf("class name field = %q in %s", name, data)
	}
}

func TestNodeString(t *testing.T) {
	tree, _ := parseExpr(t, "a + 1")
	want := strings.Join([]string{
		"BinaryExpr",
		"  left: Identifier a",
		"  operator: Token +",
		"  right: Literal 1",
		"",
	}, "\n")
	if diff := cmp.Diff(want, tree.String()); diff != "" {
		t.Errorf("String() (-want +got):\n%s", diff)
	}
}
