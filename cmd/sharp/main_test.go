package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func runCmd(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCheckCmd(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.cs")
	bad := filepath.Join(dir, "bad.cs")
	if err := os.WriteFile(good, []byte("class Good { }"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte("class Bad { int x }"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCmd(t, newCheckCmd(), good)
	if err != nil || out != "" {
		t.Errorf("check good.cs: out=%q err=%v", out, err)
	}

	out, err = runCmd(t, newCheckCmd(), dir)
	if !errors.Is(err, errDiagnostics) {
		t.Errorf("check dir: err = %v, want errDiagnostics", err)
	}
	if !strings.Contains(out, "bad.cs:1:18: error CS1002: ';' expected") {
		t.Errorf("check dir output:\n%s", out)
	}
}

func TestCheckCmdLangVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ns.cs")
	if err := os.WriteFile(path, []byte("namespace N;\nclass C { }\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := runCmd(t, newCheckCmd(), path); err != nil {
		t.Errorf("check without version: %v", err)
	}
	out, err := runCmd(t, newCheckCmd(), "--langversion", "9", path)
	if !errors.Is(err, errDiagnostics) || !strings.Contains(out, "CS8400") {
		t.Errorf("check --langversion 9: out=%q err=%v", out, err)
	}
}

func TestParseCmdDefines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "d.cs")
	src := "#if DEBUG\nclass Debug { }\n#else\nclass Release { }\n#endif\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCmd(t, newParseCmd(), "-f", "outline", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "class\tRelease\t") {
		t.Errorf("without DEBUG:\n%s", out)
	}

	out, err = runCmd(t, newParseCmd(), "-f", "outline", "-D", "DEBUG", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "class\tDebug\t") {
		t.Errorf("with DEBUG:\n%s", out)
	}
}

func TestParseCmdUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.cs")
	if err := os.WriteFile(path, []byte("class A { }"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runCmd(t, newParseCmd(), "-f", "yaml", path); err == nil {
		t.Error("expected an error for an unknown format")
	}
}
