package codebase

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/go-cmp/cmp"

	"github.com/dhamidi/sharp/csharp/parser"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("SHARP_DEFINE", "DEBUG;TRACE, NET8_0")
	t.Setenv("SHARP_LANGVERSION", "9.0")
	t.Setenv("SHARP_WORKERS", "3")
	t.Setenv("SHARP_LOG_LEVEL", "2")
	t.Setenv("SHARP_LOG_FILE", "")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if diff := cmp.Diff([]string{"DEBUG", "TRACE", "NET8_0"}, cfg.Defines); diff != "" {
		t.Errorf("Defines (-want +got):\n%s", diff)
	}
	if cfg.LanguageVersion == nil || cfg.LanguageVersion.Major() != 9 {
		t.Errorf("LanguageVersion = %v, want 9.0", cfg.LanguageVersion)
	}
	if cfg.Workers != 3 || cfg.LogLevel != 2 {
		t.Errorf("Workers = %d, LogLevel = %d", cfg.Workers, cfg.LogLevel)
	}
}

func TestConfigFromEnvInvalidVersion(t *testing.T) {
	t.Setenv("SHARP_LANGVERSION", "nine")
	if _, err := ConfigFromEnv(); err == nil {
		t.Fatal("expected an error for an invalid language version")
	}
}

func TestConfigFromEnvRereads(t *testing.T) {
	t.Setenv("SHARP_LANGVERSION", "8.0")
	t.Setenv("SHARP_WORKERS", "2")
	if _, err := ConfigFromEnv(); err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}

	t.Setenv("SHARP_LANGVERSION", "10.0")
	t.Setenv("SHARP_WORKERS", "5")
	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if cfg.LanguageVersion == nil || cfg.LanguageVersion.Major() != 10 {
		t.Errorf("LanguageVersion = %v, want 10.0", cfg.LanguageVersion)
	}
	if cfg.Workers != 5 {
		t.Errorf("Workers = %d, want 5", cfg.Workers)
	}

	t.Setenv("SHARP_LANGVERSION", "nine")
	if _, err := ConfigFromEnv(); err == nil {
		t.Fatal("expected an error for an invalid language version")
	}
}

func TestConfigMatches(t *testing.T) {
	cfg := DefaultConfig()
	tests := map[string]bool{
		"a.cs":        true,
		"dir/B.CS":    true,
		"a.csx":       false,
		"readme.md":   false,
		"noextension": false,
	}
	for path, want := range tests {
		if got := cfg.Matches(path); got != want {
			t.Errorf("Matches(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestScanAll(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.cs"), "class A { }")
	writeFile(t, filepath.Join(root, "sub", "b.cs"), "class B { void M() { int x = ; } }")
	writeFile(t, filepath.Join(root, "sub", "notes.txt"), "not C#")
	writeFile(t, filepath.Join(root, "obj", "gen.cs"), "class Generated { }")
	writeFile(t, filepath.Join(root, ".git", "x.cs"), "class Hidden { }")

	cfg := DefaultConfig()
	cfg.Workers = 2
	c := New(root, cfg)
	if err := c.ScanAll(context.Background()); err != nil {
		t.Fatalf("ScanAll: %v", err)
	}

	var paths []string
	for _, f := range c.Files() {
		rel, _ := filepath.Rel(root, f.Path)
		paths = append(paths, filepath.ToSlash(rel))
	}
	if diff := cmp.Diff([]string{"a.cs", "sub/b.cs"}, paths); diff != "" {
		t.Errorf("scanned files (-want +got):\n%s", diff)
	}

	a := c.GetFile(filepath.Join(root, "a.cs"))
	if a == nil || a.HasErrors() {
		t.Fatalf("a.cs: %+v", a)
	}
	if a.Tree.Text() != "class A { }" {
		t.Errorf("a.cs round trip = %q", a.Tree.Text())
	}
	b := c.GetFile(filepath.Join(root, "sub", "b.cs"))
	if b == nil || !b.HasErrors() {
		t.Fatalf("b.cs should have errors: %+v", b)
	}

	s := c.Summary()
	if s.Files != 2 || s.Errors == 0 {
		t.Errorf("Summary = %+v", s)
	}

	c.RemoveFile(filepath.Join(root, "a.cs"))
	if c.GetFile(filepath.Join(root, "a.cs")) != nil {
		t.Error("a.cs still present after RemoveFile")
	}
}

func TestScanAllCanceled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.cs"), "class A { }")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := New(root, DefaultConfig())
	if err := c.ScanAll(ctx); err == nil {
		t.Fatal("expected an error from a canceled scan")
	}
}

func TestParseUsesConfig(t *testing.T) {
	src := "#if FEATURE\nclass On { }\n#else\nclass Off { }\n#endif\nnamespace N;\n"

	cfg := DefaultConfig()
	cfg.Defines = []string{"FEATURE"}
	v, err := parser.ParseLanguageVersion("9")
	if err != nil {
		t.Fatal(err)
	}
	cfg.LanguageVersion = v

	info := Parse("x.cs", []byte(src), cfg)
	var names []string
	for _, s := range info.Symbols {
		names = append(names, s.Name)
	}
	if diff := cmp.Diff([]string{"On", "N"}, names); diff != "" {
		t.Errorf("symbols (-want +got):\n%s", diff)
	}
	var gated bool
	for _, d := range info.Diagnostics {
		if d.Code == parser.CodeFeatureUnavailable {
			gated = true
		}
	}
	if !gated {
		t.Errorf("expected a feature diagnostic, got %v", info.Diagnostics)
	}
}

func TestSymbols(t *testing.T) {
	src := `namespace App.Core
{
    public class Shape : IShape
    {
        private int a, b;
        public Shape(int a) { }
        ~Shape() { }
        public int Area => 0;
        public int this[int i] => i;
        public static Shape operator +(Shape x, Shape y) => x;
        public static implicit operator int(Shape s) => 0;
        public event EventHandler Changed;
        void IShape.Draw() { }
        public enum Color { Red, Green }
    }
    delegate void Handler();
}
`
	info := Parse("shape.cs", []byte(src), DefaultConfig())

	var got []string
	var flatten func(syms []Symbol, depth int)
	flatten = func(syms []Symbol, depth int) {
		for _, s := range syms {
			got = append(got, strings.Repeat("  ", depth)+s.Kind.String()+" "+s.Name)
			flatten(s.Children, depth+1)
		}
	}
	flatten(info.Symbols, 0)

	want := []string{
		"namespace App.Core",
		"  class Shape",
		"    field a",
		"    field b",
		"    constructor Shape",
		"    destructor ~Shape",
		"    property Area",
		"    indexer this",
		"    operator operator +",
		"    operator implicit operator int",
		"    event Changed",
		"    method IShape.Draw",
		"    enum Color",
		"      enum member Red",
		"      enum member Green",
		"  delegate Handler",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("outline (-want +got):\n%s", diff)
	}

	cls := info.Symbols[0].Children[0]
	if got := src[cls.NameSpan.Start.Offset:cls.NameSpan.End.Offset]; got != "Shape" {
		t.Errorf("class name span covers %q", got)
	}
}

func TestSymbolsSkipMissingNames(t *testing.T) {
	info := Parse("x.cs", []byte("class { } class Ok { }"), DefaultConfig())
	if len(info.Symbols) != 1 || info.Symbols[0].Name != "Ok" {
		t.Errorf("symbols = %+v", info.Symbols)
	}
}

func TestToPosition(t *testing.T) {
	content := []byte("ab\n\U0001F600x y")
	tests := []struct {
		pos        parser.Position
		line, char uint32
	}{
		{parser.Position{Offset: 0, Line: 1, Column: 1}, 0, 0},
		{parser.Position{Offset: 2, Line: 1, Column: 3}, 0, 2},
		{parser.Position{Offset: 3, Line: 2, Column: 1}, 1, 0},
		{parser.Position{Offset: 7, Line: 2, Column: 5}, 1, 2},
		{parser.Position{Offset: 9, Line: 2, Column: 7}, 1, 4},
	}
	for _, tt := range tests {
		got := toPosition(content, tt.pos)
		if uint32(got.Line) != tt.line || uint32(got.Character) != tt.char {
			t.Errorf("toPosition(%d) = %d:%d, want %d:%d", tt.pos.Offset, got.Line, got.Character, tt.line, tt.char)
		}
	}
}

func TestURIToPath(t *testing.T) {
	got, err := uriToPath("file:///tmp/My%20Project/a.cs")
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Clean("/tmp/My Project/a.cs") {
		t.Errorf("uriToPath = %q", got)
	}
}

func TestFileWatcher(t *testing.T) {
	root := t.TempDir()
	c := New(root, DefaultConfig())
	fw, err := NewFileWatcher(c)
	if err != nil {
		t.Fatalf("NewFileWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- fw.Run(ctx) }()

	path := filepath.Join(root, "w.cs")
	writeFile(t, path, "class W { }")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case ch := <-fw.Changes():
			if ch.Path == path && ch.Info != nil && len(ch.Info.Symbols) == 1 {
				cancel()
				if err := <-done; err != nil {
					t.Errorf("Run: %v", err)
				}
				return
			}
		case <-deadline:
			t.Fatal("no change reported for w.cs")
		}
	}
}

func changePaths(changes []Change) []string {
	var out []string
	for _, ch := range changes {
		out = append(out, ch.Path)
	}
	return out
}

func TestFileWatcherNewDirectory(t *testing.T) {
	root := t.TempDir()
	c := New(root, DefaultConfig())
	fw, err := NewFileWatcher(c)
	if err != nil {
		t.Fatalf("NewFileWatcher: %v", err)
	}
	defer fw.w.Close()

	sub := filepath.Join(root, "sub")
	writeFile(t, filepath.Join(sub, "a.cs"), "class A { }")
	writeFile(t, filepath.Join(sub, "deep", "b.cs"), "class B { }")
	writeFile(t, filepath.Join(sub, "obj", "c.cs"), "class C { }")
	writeFile(t, filepath.Join(sub, "readme.md"), "# sub")

	changes := fw.handle(fsnotify.Event{Name: sub, Op: fsnotify.Create})
	want := []string{filepath.Join(sub, "a.cs"), filepath.Join(sub, "deep", "b.cs")}
	if diff := cmp.Diff(want, changePaths(changes)); diff != "" {
		t.Errorf("changes (-want +got):\n%s", diff)
	}
	for _, ch := range changes {
		if ch.Info == nil || len(ch.Info.Symbols) != 1 {
			t.Errorf("%s was not parsed: %+v", ch.Path, ch.Info)
		}
	}
	if c.GetFile(filepath.Join(sub, "deep", "b.cs")) == nil {
		t.Error("b.cs missing from the codebase")
	}
}

func TestFileWatcherRemovedDirectory(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	writeFile(t, filepath.Join(sub, "a.cs"), "class A { }")
	writeFile(t, filepath.Join(sub, "deep", "b.cs"), "class B { }")
	writeFile(t, filepath.Join(root, "subway.cs"), "class S { }")

	c := New(root, DefaultConfig())
	if err := c.ScanAll(context.Background()); err != nil {
		t.Fatalf("ScanAll: %v", err)
	}
	fw, err := NewFileWatcher(c)
	if err != nil {
		t.Fatalf("NewFileWatcher: %v", err)
	}
	defer fw.w.Close()

	if err := os.RemoveAll(sub); err != nil {
		t.Fatal(err)
	}
	changes := fw.handle(fsnotify.Event{Name: sub, Op: fsnotify.Remove})
	want := []string{filepath.Join(sub, "a.cs"), filepath.Join(sub, "deep", "b.cs")}
	if diff := cmp.Diff(want, changePaths(changes)); diff != "" {
		t.Errorf("changes (-want +got):\n%s", diff)
	}
	for _, ch := range changes {
		if ch.Info != nil {
			t.Errorf("%s reported as parsed, want removed", ch.Path)
		}
	}
	var remaining []string
	for _, f := range c.Files() {
		remaining = append(remaining, f.Path)
	}
	if diff := cmp.Diff([]string{filepath.Join(root, "subway.cs")}, remaining); diff != "" {
		t.Errorf("files after removal (-want +got):\n%s", diff)
	}
}
