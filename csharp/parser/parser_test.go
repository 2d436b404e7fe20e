package parser

import (
	"strings"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/google/go-cmp/cmp"
)

func parseExpr(t *testing.T, src string, opts ...Option) (*Node, []Diagnostic) {
	t.Helper()
	p := ParseExpression(strings.NewReader(src), opts...)
	tree := p.Finish()
	if tree == nil {
		t.Fatalf("ParseExpression(%q) returned nil", src)
	}
	return tree.Field("expression"), p.Diagnostics()
}

func parseStmt(t *testing.T, src string, opts ...Option) (*Node, []Diagnostic) {
	t.Helper()
	p := ParseStatement(strings.NewReader(src), opts...)
	tree := p.Finish()
	if tree == nil {
		t.Fatalf("ParseStatement(%q) returned nil", src)
	}
	return tree.Field("statement"), p.Diagnostics()
}

func parseUnit(t *testing.T, src string, opts ...Option) (*Node, []Diagnostic) {
	t.Helper()
	p := ParseCompilationUnit(strings.NewReader(src), opts...)
	tree := p.Finish()
	if tree == nil {
		t.Fatalf("ParseCompilationUnit(%q) returned nil", src)
	}
	return tree, p.Diagnostics()
}

func TestParseExpressionShape(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2 * 3", "(BinaryExpr Literal:1 + (BinaryExpr Literal:2 * Literal:3))"},
		{"a - b - c", "(BinaryExpr (BinaryExpr Identifier:a - Identifier:b) - Identifier:c)"},
		{"a = b = c", "(AssignExpr Identifier:a = (AssignExpr Identifier:b = Identifier:c))"},
		{"a ?? b ?? c", "(BinaryExpr Identifier:a ?? (BinaryExpr Identifier:b ?? Identifier:c))"},
		{"a || b && c", "(BinaryExpr Identifier:a || (BinaryExpr Identifier:b && Identifier:c))"},
		{"a < b > c", "(BinaryExpr (BinaryExpr Identifier:a < Identifier:b) > Identifier:c)"},
		{"x >> 2", "(BinaryExpr Identifier:x >> Literal:2)"},
		{"x >>= 2", "(AssignExpr Identifier:x >>= Literal:2)"},
		{"(int)x", "(CastExpr ( PredefinedType:int ) Identifier:x)"},
		{"(x)", "(ParenExpr ( Identifier:x ))"},
		{"(x) - y", "(BinaryExpr (ParenExpr ( Identifier:x )) - Identifier:y)"},
		{"-x * y", "(BinaryExpr (PrefixUnaryExpr - Identifier:x) * Identifier:y)"},
		{"a ? b : c ? d : e", "(ConditionalExpr Identifier:a ? Identifier:b : (ConditionalExpr Identifier:c ? Identifier:d : Identifier:e))"},
		{
			"x is int or string and not null",
			"(IsPatternExpr Identifier:x is (BinaryPattern (TypePattern PredefinedType:int) or " +
				"(BinaryPattern (TypePattern PredefinedType:string) and (NegatedPattern not (ConstantPattern Literal:null)))))",
		},
		{"x is string", "(IsExpr Identifier:x is PredefinedType:string)"},
		{"x is > 0 and < 10", "(IsPatternExpr Identifier:x is (BinaryPattern (RelationalPattern > Literal:0) and (RelationalPattern < Literal:10)))"},
		{"x is null", "(IsPatternExpr Identifier:x is (ConstantPattern Literal:null))"},
		{"x as string", "(AsExpr Identifier:x as PredefinedType:string)"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr, diags := parseExpr(t, tt.input)
			if len(diags) > 0 {
				t.Errorf("unexpected diagnostics: %v", diags)
			}
			if diff := cmp.Diff(tt.want, expr.Sexp()); diff != "" {
				t.Errorf("tree mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseExpressionKinds(t *testing.T) {
	tests := []struct {
		input string
		kind  NodeKind
	}{
		{"42", KindLiteral},
		{"x", KindIdentifier},
		{"obj.Field", KindMemberAccessExpr},
		{"obj.Method()", KindInvocationExpr},
		{"a[1]", KindElementAccessExpr},
		{"a?.b", KindConditionalAccessExpr},
		{"x++", KindPostfixUnaryExpr},
		{"x!", KindPostfixUnaryExpr},
		{"new List<int>()", KindObjectCreationExpr},
		{"new[] { 1, 2 }", KindImplicitArrayCreationExpr},
		{"new int[3]", KindArrayCreationExpr},
		{"new { A = 1 }", KindAnonymousObjectCreationExpr},
		{"new()", KindImplicitObjectCreationExpr},
		{"x => x * 2", KindLambdaExpr},
		{"(a, b) => a + b", KindLambdaExpr},
		{"async () => await t", KindLambdaExpr},
		{"delegate (int a) { return a; }", KindAnonymousMethodExpr},
		{"(1, 2)", KindTupleExpr},
		{"typeof(List<>)", KindTypeofExpr},
		{"default(int)", KindDefaultExpr},
		{"$\"a{b}c\"", KindInterpolatedString},
		{"x switch { 1 => a, _ => b }", KindSwitchExpr},
		{"p with { X = 1 }", KindWithExpr},
		{"1..^1", KindRangeExpr},
		{"throw e", KindThrowExpr},
		{"from c in cs where c.A select c", KindQueryExpr},
		{"checked(a + b)", KindCheckedExpr},
		{"stackalloc int[4]", KindStackAllocExpr},
		{"A::B", KindAliasQualifiedName},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr, diags := parseExpr(t, tt.input)
			if len(diags) > 0 {
				t.Errorf("unexpected diagnostics: %v", diags)
			}
			if expr.Kind != tt.kind {
				t.Errorf("got %v, want %v\n%s", expr.Kind, tt.kind, expr)
			}
		})
	}
}

func TestGenericDisambiguation(t *testing.T) {
	tests := []struct {
		input    string
		generics int
	}{
		{"F(G<A, B>(7))", 1},
		{"F(G < A, B > 7)", 0},
		{"x = a < b", 0},
		{"List<int>.Empty", 1},
		{"M<int>()", 1},
		{"a < b && c > d", 0},
		{"typeof(Dictionary<string, List<int>>)", 2},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr, diags := parseExpr(t, tt.input)
			if len(diags) > 0 {
				t.Errorf("unexpected diagnostics: %v", diags)
			}
			if got := len(expr.Find(KindGenericName)); got != tt.generics {
				t.Errorf("got %d generic names, want %d\n%s", got, tt.generics, expr)
			}
		})
	}
}

func TestParseStatementKinds(t *testing.T) {
	tests := []struct {
		input string
		kind  NodeKind
	}{
		{"{ }", KindBlock},
		{";", KindEmptyStmt},
		{"x = 1;", KindExprStmt},
		{"List<int> x;", KindLocalDeclStmt},
		{"var x = 1;", KindLocalDeclStmt},
		{"int[] xs = { 1 };", KindLocalDeclStmt},
		{"const int x = 1;", KindLocalDeclStmt},
		{"int F(int a) => a;", KindLocalFunctionStmt},
		{"if (a) b();", KindIfStmt},
		{"while (a) { }", KindWhileStmt},
		{"do x(); while (a);", KindDoStmt},
		{"for (int i = 0; i < n; i++) { }", KindForStmt},
		{"foreach (var x in xs) { }", KindForeachStmt},
		{"await foreach (var x in xs) { }", KindForeachStmt},
		{"switch (x) { case 1: break; default: return; }", KindSwitchStmt},
		{"try { } catch (Exception e) when (e != null) { } finally { }", KindTryStmt},
		{"using (var f = Open()) { }", KindUsingStmt},
		{"using var f = Open();", KindLocalDeclStmt},
		{"lock (o) { }", KindLockStmt},
		{"return;", KindReturnStmt},
		{"throw;", KindThrowStmt},
		{"yield return 1;", KindYieldStmt},
		{"goto case 1;", KindGotoStmt},
		{"label: x();", KindLabeledStmt},
		{"checked { }", KindCheckedStmt},
		{"unsafe { }", KindUnsafeStmt},
		{"fixed (int* p = &x) { }", KindFixedStmt},
		{"var (a, b) = t;", KindExprStmt},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			stmt, diags := parseStmt(t, tt.input)
			if len(diags) > 0 {
				t.Errorf("unexpected diagnostics: %v", diags)
			}
			if stmt.Kind != tt.kind {
				t.Errorf("got %v, want %v\n%s", stmt.Kind, tt.kind, stmt)
			}
		})
	}
}

func TestGenericLocalDeclaration(t *testing.T) {
	stmt, _ := parseStmt(t, "List<int> x;")
	decl := stmt.Field("declaration")
	if decl == nil {
		t.Fatalf("no declaration in %s", stmt)
	}
	if got := decl.Field("type").Sexp(); got != "(GenericName Identifier:List (TypeArgumentList < PredefinedType:int >))" {
		t.Errorf("type = %s", got)
	}
}

func TestDanglingElse(t *testing.T) {
	stmt, diags := parseStmt(t, "if (a) if (b) x(); else y();")
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if stmt.Field("else") != nil {
		t.Errorf("else bound to the outer if")
	}
	inner := stmt.Field("statement")
	if inner.Kind != KindIfStmt || inner.Field("else") == nil {
		t.Errorf("else not bound to the inner if:\n%s", stmt)
	}
}

func TestElseIfChain(t *testing.T) {
	stmt, _ := parseStmt(t, "if (a) x(); else if (b) y(); else if (c) z(); else w();")
	if got := len(stmt.ChildrenOfKind(KindElseIfClause)); got != 2 {
		t.Errorf("got %d else-if clauses, want 2", got)
	}
	if stmt.Field("else") == nil {
		t.Errorf("missing trailing else")
	}
}

func TestConstraintKeywords(t *testing.T) {
	src := "unsafe class C<T, U> where T : unmanaged where U : notnull { delegate* managed<int, void> f; delegate* unmanaged[Cdecl]<void> g; }"
	tree, diags := parseUnit(t, src)
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v\n%s", diags, tree)
	}

	var clauses []string
	for _, c := range tree.Find(KindConstraintClause) {
		clauses = append(clauses, c.Sexp())
	}
	want := []string{
		"(ConstraintClause where Identifier:T : (Constraint unmanaged))",
		"(ConstraintClause where Identifier:U : (Constraint notnull))",
	}
	if diff := cmp.Diff(want, clauses); diff != "" {
		t.Errorf("constraint clauses (-want +got):\n%s", diff)
	}

	tree.Walk(func(n *Node) bool {
		if n.Token == nil {
			return true
		}
		switch n.Token.Literal {
		case "where", "unmanaged", "notnull", "managed":
			if n.Kind != KindToken {
				t.Errorf("%q at %s is %v, want Token", n.Token.Literal, n.Span.Start, n.Kind)
			}
		}
		return true
	})
}

func TestCompilationUnit(t *testing.T) {
	src := `using System;
using static System.Math;
using IO = System.IO;

namespace Demo
{
    [Serializable]
    public sealed class Point<T> : IEquatable<Point<T>> where T : struct
    {
        private readonly T x, y;
        public T X { get; init; } = default;
        public int this[int i] => i;
        public event EventHandler Changed;
        public Point(T x, T y) : base() { this.x = x; this.y = y; }
        ~Point() { }
        public static Point<T> operator +(Point<T> a, Point<T> b) => a;
        public static implicit operator T(Point<T> p) => p.x;
        bool IEquatable<Point<T>>.Equals(Point<T> other) => true;
        public async Task<int> RunAsync() { await Task.Delay(1); return 1; }
    }

    public enum Color { Red, Green = 2, Blue, }
    public delegate void Handler(object sender, EventArgs e);
    public record Person(string Name, int Age);
    public interface IShape { double Area { get; } void Draw(); }
    public struct Pair { public int A; }
}
`
	tree, diags := parseUnit(t, src)
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v\n%s", diags, tree)
	}
	if tree.Text() != src {
		t.Errorf("round trip mismatch")
	}

	counts := map[NodeKind]int{
		KindUsingDirective:         3,
		KindNamespaceDecl:          1,
		KindClassDecl:              1,
		KindFieldDecl:              2,
		KindPropertyDecl:           2,
		KindIndexerDecl:            1,
		KindEventFieldDecl:         1,
		KindConstructorDecl:        1,
		KindDestructorDecl:         1,
		KindOperatorDecl:           1,
		KindConversionOperatorDecl: 1,
		KindMethodDecl:             3,
		KindEnumMember:             3,
		KindDelegateDecl:           1,
		KindRecordDecl:             1,
		KindInterfaceDecl:          1,
		KindStructDecl:             1,
		KindAwaitExpr:              1,
	}
	for kind, want := range counts {
		if got := len(tree.Find(kind)); got != want {
			t.Errorf("%v: got %d, want %d", kind, got, want)
		}
	}
}

func TestTopLevelStatements(t *testing.T) {
	src := "using System;\nConsole.WriteLine(1);\nawait Task.Delay(1);\nint x = 2;\nclass C { }\n"
	tree, diags := parseUnit(t, src)
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if got := len(tree.ChildrenOfKind(KindGlobalStatement)); got != 3 {
		t.Errorf("got %d global statements, want 3\n%s", got, tree)
	}
	if got := len(tree.ChildrenOfKind(KindClassDecl)); got != 1 {
		t.Errorf("got %d classes, want 1", got)
	}
}

func TestFileScopedNamespace(t *testing.T) {
	tree, diags := parseUnit(t, "namespace A.B;\nclass C { }\nclass D { }\n")
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	ns := tree.FirstChildOfKind(KindFileScopedNamespaceDecl)
	if ns == nil {
		t.Fatalf("no file-scoped namespace:\n%s", tree)
	}
	if got := len(ns.ChildrenOfKind(KindClassDecl)); got != 2 {
		t.Errorf("got %d classes in namespace, want 2", got)
	}
}

func TestPreprocessorExclusion(t *testing.T) {
	src := "class C {\n#if RELEASE\n  int a;\n#else\n  int b;\n#endif\n}\n"
	tree, diags := parseUnit(t, src, WithDefines("DEBUG"))
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	var names []string
	for _, d := range tree.Find(KindVariableDeclarator) {
		names = append(names, d.Field("name").TokenLiteral())
	}
	if diff := cmp.Diff([]string{"b"}, names); diff != "" {
		t.Errorf("declared fields (-want +got):\n%s", diff)
	}
	var kinds []NodeKind
	for _, d := range tree.Directives() {
		kinds = append(kinds, d.Kind)
	}
	if diff := cmp.Diff([]NodeKind{KindIfDirective, KindElseDirective, KindEndifDirective}, kinds); diff != "" {
		t.Errorf("directives (-want +got):\n%s", diff)
	}
	if tree.Text() != src {
		t.Errorf("round trip mismatch")
	}
}

func TestPreprocessorDefine(t *testing.T) {
	src := "#define FEATURE\n#if FEATURE && !OTHER\nclass A { }\n#elif OTHER\nclass B { }\n#endif\n"
	tree, diags := parseUnit(t, src)
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	classes := tree.Find(KindClassDecl)
	if len(classes) != 1 || classes[0].Field("name").TokenLiteral() != "A" {
		t.Errorf("got classes %v\n%s", classes, tree)
	}
}

func TestPreprocessorDiagnostics(t *testing.T) {
	tests := []struct {
		input string
		code  string
	}{
		{"#if A\nclass C { }\n", CodeEndifExpected},
		{"#endif\n", CodeUnexpectedDirective},
		{"class C { }\n#define X\n", CodeDefineAfterToken},
		{"#error stop\n", CodeErrorDirective},
		{"#region r\n", CodeEndRegionExpected},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, diags := parseUnit(t, tt.input)
			found := false
			for _, d := range diags {
				if d.Code == tt.code {
					found = true
				}
			}
			if !found {
				t.Errorf("no %s in %v", tt.code, diags)
			}
		})
	}
}

func TestErrorRecovery(t *testing.T) {
	tests := []struct {
		input string
		code  string
	}{
		{"class C { void M() { int x = ; } }", CodeInvalidExprTerm},
		{"class C { void M() { x() } }", CodeSemicolonExpected},
		{"class C { void M() { if (a { } } }", CodeSyntaxError},
		{"class C { int }", CodeIdentifierExpected},
		{"class C {", CodeCloseBraceExpected},
		{"class C { + }", CodeMemberDeclExpected},
		{"namespace N { int x; }", CodeNamespaceMember},
		{"class C { void M() { var q = from x in xs where x; } }", CodeQueryBodyEnd},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tree, diags := parseUnit(t, tt.input)
			if tree.Text() != tt.input {
				t.Errorf("round trip mismatch:\n got %q\nwant %q", tree.Text(), tt.input)
			}
			found := false
			for _, d := range diags {
				if d.Code == tt.code {
					found = true
				}
			}
			if !found {
				t.Errorf("no %s in %v", tt.code, diags)
			}
		})
	}
}

func TestAwaitOutsideAsync(t *testing.T) {
	_, diags := parseUnit(t, "class C { void M() { await Task.Delay(1); } }")
	if len(diags) == 0 || diags[0].Code != CodeAwaitOutsideAsync {
		t.Errorf("diagnostics = %v, want %s", diags, CodeAwaitOutsideAsync)
	}
	_, diags = parseUnit(t, "class C { async void M() { await Task.Delay(1); } }")
	if len(diags) > 0 {
		t.Errorf("unexpected diagnostics in async method: %v", diags)
	}
}

func TestAwaitStatements(t *testing.T) {
	tests := []struct {
		input  string
		await  int
		locals int
	}{
		{"class C { async Task M() { await t; await (t); } }", 2, 0},
		{"class C { async Task M() { await task1; await task2; } }", 2, 0},
		{"class C { async Task M() { var x = await (t); } }", 1, 1},
		{"class C { void M() { await t; } }", 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tree, diags := parseUnit(t, tt.input)
			if len(diags) > 0 {
				t.Fatalf("unexpected diagnostics: %v", diags)
			}
			if got := len(tree.Find(KindAwaitExpr)); got != tt.await {
				t.Errorf("await expressions = %d, want %d\n%s", got, tt.await, tree)
			}
			if got := len(tree.Find(KindLocalDeclStmt)); got != tt.locals {
				t.Errorf("local declarations = %d, want %d\n%s", got, tt.locals, tree)
			}
		})
	}

	stmt, diags := parseStmt(t, "await t;")
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if got := stmt.Sexp(); got != "(ExprStmt (AwaitExpr await Identifier:t) ;)" {
		t.Errorf("statement = %s", got)
	}
}

func TestFeatureGating(t *testing.T) {
	tests := []struct {
		input   string
		version string
		gated   bool
	}{
		{"namespace N;", "9.0", true},
		{"namespace N;", "10.0", false},
		{"record R(int A);", "8.0", true},
		{"record R(int A);", "9.0", false},
		{"class C { bool M(object o) => o is not null; }", "8.0", true},
		{"class C { bool M(object o) => o is not null; }", "9.0", false},
		{"global using System;", "9.0", true},
		{"class C { int X { get; init; } }", "8.0", true},
	}
	for _, tt := range tests {
		t.Run(tt.input+"@"+tt.version, func(t *testing.T) {
			v := semver.MustParse(tt.version)
			_, diags := parseUnit(t, tt.input, WithLanguageVersion(v))
			gated := false
			for _, d := range diags {
				if d.Code == CodeFeatureUnavailable {
					gated = true
				}
			}
			if gated != tt.gated {
				t.Errorf("gated = %v, want %v (%v)", gated, tt.gated, diags)
			}
		})
	}

	_, diags := parseUnit(t, "namespace N;")
	if len(diags) > 0 {
		t.Errorf("no language version set, got %v", diags)
	}
}

func TestIncomplete(t *testing.T) {
	tests := []struct {
		input      string
		incomplete bool
	}{
		{"1 +", true},
		{"1 + 2", false},
		{"f(", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p := ParseExpression(strings.NewReader(tt.input))
			p.Finish()
			if got := p.Incomplete(); got != tt.incomplete {
				t.Errorf("Incomplete() = %v, want %v", got, tt.incomplete)
			}
		})
	}
}

func TestReset(t *testing.T) {
	p := ParseCompilationUnit(strings.NewReader("class A { }"))
	first := p.Finish()
	p.Reset(strings.NewReader("class B { }"))
	second := p.Finish()
	if first.Text() != "class A { }" || second.Text() != "class B { }" {
		t.Errorf("got %q and %q", first.Text(), second.Text())
	}
}
