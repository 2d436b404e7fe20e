package codebase

import (
	"path/filepath"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/xyproto/env/v2"

	"github.com/dhamidi/sharp/csharp/parser"
)

// Config controls how source files are found and parsed.
type Config struct {
	// Defines are the conditional-compilation symbols set before the first
	// line of every file.
	Defines []string
	// LanguageVersion enables feature gating. Nil accepts every construct.
	LanguageVersion *semver.Version
	Workers         int
	Extensions      []string
	LogLevel        int
	LogFile         string
}

func DefaultConfig() Config {
	return Config{
		Workers:    runtime.NumCPU(),
		Extensions: []string{".cs"},
	}
}

// ConfigFromEnv reads SHARP_DEFINE, SHARP_LANGVERSION, SHARP_WORKERS,
// SHARP_LOG_LEVEL and SHARP_LOG_FILE on top of the defaults. The
// environment is re-read on every call.
func ConfigFromEnv() (Config, error) {
	env.Load()
	cfg := DefaultConfig()
	cfg.Defines = SplitDefines(env.Str("SHARP_DEFINE"))
	v, err := parser.ParseLanguageVersion(env.Str("SHARP_LANGVERSION"))
	if err != nil {
		return cfg, err
	}
	cfg.LanguageVersion = v
	cfg.Workers = env.Int("SHARP_WORKERS", cfg.Workers)
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	cfg.LogLevel = env.Int("SHARP_LOG_LEVEL", 0)
	cfg.LogFile = env.Str("SHARP_LOG_FILE")
	return cfg, nil
}

// SplitDefines splits a symbol list the way project files write it:
// separated by commas or semicolons.
func SplitDefines(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' '
	})
}

func (c Config) ParserOptions(path string) []parser.Option {
	opts := []parser.Option{parser.WithFile(path)}
	if len(c.Defines) > 0 {
		opts = append(opts, parser.WithDefines(c.Defines...))
	}
	if c.LanguageVersion != nil {
		opts = append(opts, parser.WithLanguageVersion(c.LanguageVersion))
	}
	return opts
}

// Matches reports whether path has one of the configured extensions.
func (c Config) Matches(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range c.Extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
