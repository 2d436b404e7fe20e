package parser

import "fmt"

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	}
	return "unknown"
}

// Diagnostic codes. They follow the numbering C# compilers use for the same
// conditions so that messages can be cross-referenced.
const (
	CodeUnexpectedCharacter   = "CS1056"
	CodeNewlineInConstant     = "CS1010"
	CodeUnterminatedComment   = "CS1035"
	CodeUnterminatedString    = "CS1039"
	CodeBadEscape             = "CS1009"
	CodeEmptyChar             = "CS1011"
	CodeTooManyChars          = "CS1012"
	CodeInvalidNumber         = "CS1013"
	CodeSyntaxError           = "CS1003"
	CodeSemicolonExpected     = "CS1002"
	CodeInvalidExprTerm       = "CS1525"
	CodeUnexpectedToken       = "CS1022"
	CodeDirectivePlacement    = "CS1040"
	CodeDefineAfterToken      = "CS1032"
	CodeEndifExpected         = "CS1027"
	CodeUnexpectedDirective   = "CS1028"
	CodeBadDirective          = "CS1024"
	CodeInvalidPreprocExpr    = "CS1517"
	CodeErrorDirective        = "CS1029"
	CodeWarningDirective      = "CS1030"
	CodeFeatureUnavailable    = "CS8400"
	CodeAwaitOutsideAsync     = "CS4033"
	CodeEndRegionExpected     = "CS1038"
	CodeUnexpectedEndRegion   = "CS1028"
	CodeQueryBodyEnd          = "CS0742"
	CodeTypeExpected          = "CS1031"
	CodeIdentifierExpected    = "CS1001"
	CodeCloseBraceExpected    = "CS1513"
	CodeOpenBraceExpected     = "CS1514"
	CodeMemberDeclExpected    = "CS1519"
	CodeStatementExpected     = "CS1525"
	CodeEmbeddedStatement     = "CS1023"
	CodeInvalidPatternSyntax  = "CS8504"
	CodeUnterminatedInterpStr = "CS8076"
	CodeNamespaceMember       = "CS0116"
)

// Diagnostic describes a problem found while lexing or parsing. Parsing
// never stops at a diagnostic; the tree is still produced.
type Diagnostic struct {
	Span     Span
	Severity Severity
	Code     string
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s %s: %s", d.Span.Start, d.Severity, d.Code, d.Message)
}

// HasErrors reports whether any diagnostic has error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
