package format

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/dhamidi/sharp/csharp/parser"
)

var testcasesDir string
var testFilter string

func init() {
	flag.StringVar(&testcasesDir, "testcases", "", "directory containing .cs test files")
	flag.StringVar(&testFilter, "filter", "", "filter test files by substring match on filename")
}

func TestMain(m *testing.M) {
	flag.Parse()
	os.Exit(m.Run())
}

var roundTripSources = map[string]string{
	"generics": `class Box<T> where T : class, new()
{
    private List<Dictionary<string, int>> map = new();
    public T Get(int i) => items[i] >> 2 > 0 ? default : null;
    bool Less(int a, int b) => a < b && b > a;
}
`,
	"patterns": `class P
{
    int Classify(object o) => o switch
    {
        int n when n > 0 => 1,
        string { Length: > 3 } s => s.Length,
        (int x, int y) => x + y,
        not null => 0,
        _ => -1,
    };
}
`,
	"statements": `class S
{
    async Task Run()
    {
        // comment
        foreach (var (k, v) in pairs) { Console.WriteLine($"{k}: {v,5:N2}"); }
        using var f = Open();
        try { await foreach (var x in xs) yield return x; }
        catch (IOException e) when (e.HResult != 0) { throw; }
        finally { f?.Dispose(); }
        switch (n) { case 1: case 2: break; default: goto case 1; }
    }
}
`,
	"query": `var q = from c in customers
        join o in orders on c.Id equals o.CustomerId into g
        where g.Count() > 1
        orderby c.Name descending, c.Id
        group c by c.City into cities
        select new { cities.Key, Count = cities.Count() };
`,
	"records": `namespace N;
public record Point(int X, int Y)
{
    public Point With(int x) => this with { X = x };
}
public readonly record struct Pair<A, B>(A First, B Second);
`,
}

func TestRoundTrip_Sources(t *testing.T) {
	names := make([]string, 0, len(roundTripSources))
	for name := range roundTripSources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			runRoundTripTest(t, []byte(roundTripSources[name]))
		})
	}
}

// TestRoundTrip_Testcases runs the round trip on every .cs file of a
// testcases directory. Each file becomes a subtest that can be targeted with
// go test -run TestRoundTrip_Testcases/filename.
func TestRoundTrip_Testcases(t *testing.T) {
	dir := testcasesDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			t.Fatalf("failed to get working directory: %v", err)
		}
		for d := wd; d != filepath.Dir(d); d = filepath.Dir(d) {
			candidate := filepath.Join(d, "testcases")
			if info, err := os.Stat(candidate); err == nil && info.IsDir() {
				dir = candidate
				break
			}
		}
		if dir == "" {
			t.Skip("testcases directory not found; use -testcases flag to specify")
		}
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".cs") {
			if testFilter != "" && !strings.Contains(path, testFilter) {
				return nil
			}
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to walk testcases directory: %v", err)
	}
	if len(files) == 0 {
		t.Skipf("no .cs files found in %s", dir)
	}

	for _, file := range files {
		relPath, err := filepath.Rel(dir, file)
		if err != nil {
			relPath = filepath.Base(file)
		}
		testName := strings.ReplaceAll(relPath, string(filepath.Separator), "_")
		testName = strings.TrimSuffix(testName, ".cs")

		t.Run(testName, func(t *testing.T) {
			source, err := os.ReadFile(file)
			if err != nil {
				t.Fatalf("failed to read file: %v", err)
			}
			runRoundTripTest(t, source)
		})
	}
}

// runRoundTripTest checks that the tree reproduces the source exactly, and
// that the source with all trivia collapsed to single separators parses to
// the same shape.
func runRoundTripTest(t *testing.T, source []byte) {
	t.Helper()
	p := parser.ParseCompilationUnit(bytes.NewReader(source))
	tree := p.Finish()
	if tree == nil {
		t.Fatalf("failed to parse original file")
	}
	if got := tree.Text(); got != string(source) {
		t.Fatalf("text round trip differs at offset %d", firstDifference(got, string(source)))
	}
	if parser.HasErrors(p.Diagnostics()) {
		t.Skipf("original file has parse errors:\n%s", formatDiagnostics(p.Diagnostics()))
	}

	collapsed, ok := collapseTrivia(tree)
	if !ok {
		t.Skip("file uses preprocessor directives")
	}
	cp := parser.ParseCompilationUnit(bytes.NewReader(collapsed))
	ctree := cp.Finish()
	if parser.HasErrors(cp.Diagnostics()) {
		t.Errorf("collapsed output has parse errors:\n%s", formatDiagnostics(cp.Diagnostics()))
		t.Logf("\n=== Collapsed output ===\n%s", collapsed)
		return
	}

	diffs := compareNodeCounts(countNodeKinds(tree), countNodeKinds(ctree))
	if len(diffs) > 0 {
		t.Errorf("node count mismatch after collapsing trivia:\n\n%s", formatDiffs(diffs))
	}
}

// collapseTrivia re-emits the tokens of tree with each run of trivia
// replaced by one space, or one newline when the run held a line break.
func collapseTrivia(tree *parser.Node) ([]byte, bool) {
	var buf bytes.Buffer
	for _, tok := range tree.Tokens() {
		if len(tok.Leading) > 0 {
			sep := " "
			for _, tr := range tok.Leading {
				switch tr.Kind {
				case parser.TriviaDirective, parser.TriviaDisabledText:
					return nil, false
				case parser.TriviaNewline:
					sep = "\n"
				case parser.TriviaLineComment:
					sep = "\n"
				}
			}
			buf.WriteString(sep)
		}
		buf.WriteString(tok.Literal)
	}
	return buf.Bytes(), true
}

func firstDifference(a, b string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return min(len(a), len(b))
}

// NodeCountDiff represents a difference in node counts between two trees.
type NodeCountDiff struct {
	Kind      parser.NodeKind
	Original  int
	Collapsed int
}

func countNodeKinds(node *parser.Node) map[parser.NodeKind]int {
	counts := make(map[parser.NodeKind]int)
	node.Walk(func(n *parser.Node) bool {
		counts[n.Kind]++
		return true
	})
	return counts
}

func formatDiagnostics(diags []parser.Diagnostic) string {
	var lines []string
	for _, d := range diags {
		lines = append(lines, "  - "+d.String())
	}
	return strings.Join(lines, "\n")
}

func compareNodeCounts(original, collapsed map[parser.NodeKind]int) []NodeCountDiff {
	var diffs []NodeCountDiff

	allKinds := make(map[parser.NodeKind]bool)
	for k := range original {
		allKinds[k] = true
	}
	for k := range collapsed {
		allKinds[k] = true
	}

	for kind := range allKinds {
		if original[kind] != collapsed[kind] {
			diffs = append(diffs, NodeCountDiff{
				Kind:      kind,
				Original:  original[kind],
				Collapsed: collapsed[kind],
			})
		}
	}

	sort.Slice(diffs, func(i, j int) bool {
		return diffs[i].Kind < diffs[j].Kind
	})

	return diffs
}

func formatDiffs(diffs []NodeCountDiff) string {
	var sb strings.Builder
	sb.WriteString("Kind                          Original  Collapsed  Delta\n")
	sb.WriteString("------------------------------------------------------------\n")
	for _, d := range diffs {
		delta := d.Collapsed - d.Original
		sign := "+"
		if delta < 0 {
			sign = ""
		}
		sb.WriteString(fmt.Sprintf("%-30s %8d  %9d  %s%d\n",
			d.Kind.String(), d.Original, d.Collapsed, sign, delta))
	}
	return sb.String()
}
