package format

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/dhamidi/sharp/csharp/parser"
)

type TreeJSONEncoder struct {
	w io.Writer
}

func NewTreeJSONEncoder(w io.Writer) *TreeJSONEncoder {
	return &TreeJSONEncoder{w: w}
}

func (e *TreeJSONEncoder) Encode(doc *Document) error {
	return write(e.w, e.Marshal, doc)
}

type jsonDocument struct {
	File        string           `json:"file,omitempty"`
	Tree        *parser.Node     `json:"tree"`
	Diagnostics []jsonDiagnostic `json:"diagnostics"`
}

type jsonDiagnostic struct {
	File     string `json:"file,omitempty"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Offset   int    `json:"offset"`
	Length   int    `json:"length"`
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

func (e *TreeJSONEncoder) Marshal(doc *Document) ([]byte, error) {
	data, err := json.MarshalIndent(jsonDocument{
		File:        doc.File,
		Tree:        doc.Tree,
		Diagnostics: diagnosticsToJSON(doc.Diagnostics),
	}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func diagnosticsToJSON(diags []parser.Diagnostic) []jsonDiagnostic {
	out := make([]jsonDiagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, jsonDiagnostic{
			File:     d.Span.Start.File,
			Line:     d.Span.Start.Line,
			Column:   d.Span.Start.Column,
			Offset:   d.Span.Start.Offset,
			Length:   d.Span.Len(),
			Severity: d.Severity.String(),
			Code:     d.Code,
			Message:  d.Message,
		})
	}
	return out
}

// TreeTextEncoder writes the indented tree followed by the diagnostics,
// one per line.
type TreeTextEncoder struct {
	w         io.Writer
	Positions bool
}

func (e *TreeTextEncoder) Encode(doc *Document) error {
	return write(e.w, e.Marshal, doc)
}

func (e *TreeTextEncoder) Marshal(doc *Document) ([]byte, error) {
	var sb strings.Builder
	if doc.Tree != nil {
		if e.Positions {
			sb.WriteString(doc.Tree.StringWithPositions())
		} else {
			sb.WriteString(doc.Tree.String())
		}
	}
	writeDiagnostics(&sb, doc.Diagnostics)
	return []byte(sb.String()), nil
}

type SexpEncoder struct {
	w io.Writer
}

func NewSexpEncoder(w io.Writer) *SexpEncoder {
	return &SexpEncoder{w: w}
}

func (e *SexpEncoder) Encode(doc *Document) error {
	return write(e.w, e.Marshal, doc)
}

func (e *SexpEncoder) Marshal(doc *Document) ([]byte, error) {
	var sb strings.Builder
	if doc.Tree != nil {
		sb.WriteString(doc.Tree.Sexp())
		sb.WriteByte('\n')
	}
	writeDiagnostics(&sb, doc.Diagnostics)
	return []byte(sb.String()), nil
}

func writeDiagnostics(sb *strings.Builder, diags []parser.Diagnostic) {
	for _, d := range diags {
		sb.WriteString(d.String())
		sb.WriteByte('\n')
	}
}
