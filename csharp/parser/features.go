package parser

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Feature is a language construct introduced by a particular C# version.
type Feature int

const (
	FeatureAsyncMain Feature = iota
	FeatureTuples
	FeaturePatternMatching
	FeatureDefaultLiteral
	FeatureNullCoalescingAssignment
	FeatureSwitchExpressions
	FeatureRanges
	FeatureRecursivePatterns
	FeatureAsyncStreams
	FeatureStaticLocalFunctions
	FeatureRecords
	FeatureInitAccessors
	FeatureTopLevelStatements
	FeatureTargetTypedNew
	FeaturePatternCombinators
	FeatureRelationalPatterns
	FeatureFunctionPointers
	FeatureWithExpressions
	FeatureFileScopedNamespaces
	FeatureGlobalUsings
	FeatureRecordStructs
	FeatureExtendedPropertyPatterns
)

// LatestLanguageVersion is the newest language version whose syntax the
// parser knows.
const LatestLanguageVersion = "10.0"

type featureInfo struct {
	name       string
	constraint *semver.Constraints
	version    string
}

func minVersion(v string) *semver.Constraints {
	c, err := semver.NewConstraint(">= " + v)
	if err != nil {
		panic(err)
	}
	return c
}

var features = map[Feature]featureInfo{
	FeatureAsyncMain:                {"async main", minVersion("7.1"), "7.1"},
	FeatureTuples:                   {"tuples", minVersion("7.0"), "7.0"},
	FeaturePatternMatching:          {"pattern matching", minVersion("7.0"), "7.0"},
	FeatureDefaultLiteral:           {"default literal", minVersion("7.1"), "7.1"},
	FeatureNullCoalescingAssignment: {"coalescing assignment", minVersion("8.0"), "8.0"},
	FeatureSwitchExpressions:        {"switch expressions", minVersion("8.0"), "8.0"},
	FeatureRanges:                   {"ranges", minVersion("8.0"), "8.0"},
	FeatureRecursivePatterns:        {"recursive patterns", minVersion("8.0"), "8.0"},
	FeatureAsyncStreams:             {"async streams", minVersion("8.0"), "8.0"},
	FeatureStaticLocalFunctions:     {"static local functions", minVersion("8.0"), "8.0"},
	FeatureRecords:                  {"records", minVersion("9.0"), "9.0"},
	FeatureInitAccessors:            {"init-only setters", minVersion("9.0"), "9.0"},
	FeatureTopLevelStatements:       {"top-level statements", minVersion("9.0"), "9.0"},
	FeatureTargetTypedNew:           {"target-typed object creation", minVersion("9.0"), "9.0"},
	FeaturePatternCombinators:       {"pattern combinators", minVersion("9.0"), "9.0"},
	FeatureRelationalPatterns:       {"relational patterns", minVersion("9.0"), "9.0"},
	FeatureFunctionPointers:         {"function pointers", minVersion("9.0"), "9.0"},
	FeatureWithExpressions:          {"with expressions", minVersion("9.0"), "9.0"},
	FeatureFileScopedNamespaces:     {"file-scoped namespaces", minVersion("10.0"), "10.0"},
	FeatureGlobalUsings:             {"global using directives", minVersion("10.0"), "10.0"},
	FeatureRecordStructs:            {"record structs", minVersion("10.0"), "10.0"},
	FeatureExtendedPropertyPatterns: {"extended property patterns", minVersion("10.0"), "10.0"},
}

func (f Feature) String() string {
	return features[f].name
}

// RequiredVersion returns the first language version that has f.
func (f Feature) RequiredVersion() string {
	return features[f].version
}

// Supports reports whether language version v has feature f. A nil
// version means the newest language.
func Supports(v *semver.Version, f Feature) bool {
	if v == nil {
		return true
	}
	info, ok := features[f]
	if !ok {
		return true
	}
	return info.constraint.Check(v)
}

// ParseLanguageVersion reads a version as given to a compiler: "9", "7.3",
// "latest", "preview" or "default". The named forms return nil.
func ParseLanguageVersion(s string) (*semver.Version, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "latest", "latestmajor", "preview", "default":
		return nil, nil
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("invalid language version %q: %w", s, err)
	}
	return v, nil
}

// requireFeature reports use of f when the configured language version
// predates it. The construct is still parsed, and the report does not count
// as a syntax error when a disambiguation is being tried.
func (p *Parser) requireFeature(f Feature, span Span) {
	if Supports(p.langVersion, f) {
		return
	}
	if n := len(p.gateDiags); n > 0 && p.gateDiags[n-1].Span.Start.Offset == span.Start.Offset {
		return
	}
	p.gateDiags = append(p.gateDiags, Diagnostic{
		Span:     span,
		Severity: SeverityError,
		Code:     CodeFeatureUnavailable,
		Message: fmt.Sprintf("feature '%s' is not available in C# %d.%d; use language version %s or greater",
			f, p.langVersion.Major(), p.langVersion.Minor(), f.RequiredVersion()),
	})
}
