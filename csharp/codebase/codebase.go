package codebase

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"github.com/dhamidi/sharp/csharp/parser"
)

var log = commonlog.GetLogger("sharp.codebase")

// Codebase holds the parsed C# files below a root directory.
type Codebase struct {
	mu      sync.RWMutex
	rootDir string
	config  Config
	files   map[string]*FileInfo
}

type FileInfo struct {
	Path        string
	Content     []byte
	Tree        *parser.Node
	Diagnostics []parser.Diagnostic
	Symbols     []Symbol
}

// HasErrors reports whether any diagnostic of the file is an error.
func (f *FileInfo) HasErrors() bool {
	return parser.HasErrors(f.Diagnostics)
}

func New(rootDir string, cfg Config) *Codebase {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = DefaultConfig().Extensions
	}
	return &Codebase{
		rootDir: rootDir,
		config:  cfg,
		files:   make(map[string]*FileInfo),
	}
}

func (c *Codebase) RootDir() string {
	return c.rootDir
}

func (c *Codebase) Config() Config {
	return c.config
}

// Parse parses a single file with the given configuration. It does not
// touch any codebase.
func Parse(path string, content []byte, cfg Config) *FileInfo {
	p := parser.ParseCompilationUnit(bytes.NewReader(content), cfg.ParserOptions(path)...)
	tree := p.Finish()
	return &FileInfo{
		Path:        path,
		Content:     content,
		Tree:        tree,
		Diagnostics: p.Diagnostics(),
		Symbols:     Symbols(tree),
	}
}

// SourceFiles lists the files under root that cfg matches. Hidden
// directories and build output (bin, obj) are skipped.
func SourceFiles(root string, cfg Config) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warningf("walk %s: %s", path, err)
			return nil
		}
		if d.IsDir() {
			if path != root && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if cfg.Matches(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(paths)
	return paths, nil
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "bin" || name == "obj"
}

// ScanAll parses every matching file below the root directory, using up to
// Config.Workers goroutines.
func (c *Codebase) ScanAll(ctx context.Context) error {
	paths, err := SourceFiles(c.rootDir, c.config)
	if err != nil {
		return err
	}
	return c.ScanFiles(ctx, paths)
}

// ScanFiles parses the given files in parallel. Parsing happens outside the
// lock; results are stored as each file finishes.
func (c *Codebase) ScanFiles(ctx context.Context, paths []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Workers)
	for _, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, err := c.ScanFile(path)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	log.Infof("scanned %d files in %s", len(paths), c.rootDir)
	return nil
}

// ScanFile reads and parses path, replacing any earlier result.
func (c *Codebase) ScanFile(path string) (*FileInfo, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return c.UpdateFile(path, content), nil
}

// UpdateFile parses content as the new text of path.
func (c *Codebase) UpdateFile(path string, content []byte) *FileInfo {
	info := Parse(path, content, c.config)
	log.Debugf("parsed %s: %d diagnostics", path, len(info.Diagnostics))

	c.mu.Lock()
	defer c.mu.Unlock()
	c.files[path] = info
	return info
}

func (c *Codebase) RemoveFile(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.files, path)
}

// RemoveTree removes every file below dir and returns their paths in
// order.
func (c *Codebase) RemoveTree(dir string) []string {
	prefix := filepath.Clean(dir) + string(filepath.Separator)
	c.mu.Lock()
	defer c.mu.Unlock()
	var removed []string
	for path := range c.files {
		if strings.HasPrefix(path, prefix) {
			removed = append(removed, path)
			delete(c.files, path)
		}
	}
	sort.Strings(removed)
	return removed
}

func (c *Codebase) GetFile(path string) *FileInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.files[path]
}

// Files returns the parsed files ordered by path.
func (c *Codebase) Files() []*FileInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*FileInfo, 0, len(c.files))
	for _, f := range c.files {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Summary counts the diagnostics of all files by severity.
type Summary struct {
	Files    int
	Errors   int
	Warnings int
}

func (c *Codebase) Summary() Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := Summary{Files: len(c.files)}
	for _, f := range c.files {
		for _, d := range f.Diagnostics {
			switch d.Severity {
			case parser.SeverityError:
				s.Errors++
			case parser.SeverityWarning:
				s.Warnings++
			}
		}
	}
	return s
}
