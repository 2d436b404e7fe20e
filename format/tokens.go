package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/sharp/csharp/codebase"
)

// TokenEncoder lists the tokens of a tree one per line, tab separated:
// position, kind and quoted text. Trivia is listed indented before the
// token that owns it, and tokens inserted by error recovery are marked.
type TokenEncoder struct {
	w      io.Writer
	Trivia bool
}

func NewTokenEncoder(w io.Writer) *TokenEncoder {
	return &TokenEncoder{w: w, Trivia: true}
}

func (e *TokenEncoder) Encode(doc *Document) error {
	return write(e.w, e.Marshal, doc)
}

func (e *TokenEncoder) Marshal(doc *Document) ([]byte, error) {
	var sb strings.Builder
	if doc.Tree == nil {
		return nil, nil
	}
	for _, tok := range doc.Tree.Tokens() {
		if e.Trivia {
			for _, tr := range tok.Leading {
				fmt.Fprintf(&sb, "\t%s\t%s\t%q\n", tr.Span.Start, tr.Kind, tr.Literal)
			}
		}
		fmt.Fprintf(&sb, "%s\t%s\t%q", tok.Span.Start, tok.Kind, tok.Literal)
		if tok.Missing {
			sb.WriteString("\tmissing")
		}
		sb.WriteByte('\n')
	}
	return []byte(sb.String()), nil
}

// OutlineEncoder writes the declaration outline of a file, one symbol per
// line, indented by nesting depth.
type OutlineEncoder struct {
	w io.Writer
}

func NewOutlineEncoder(w io.Writer) *OutlineEncoder {
	return &OutlineEncoder{w: w}
}

func (e *OutlineEncoder) Encode(doc *Document) error {
	return write(e.w, e.Marshal, doc)
}

func (e *OutlineEncoder) Marshal(doc *Document) ([]byte, error) {
	var sb strings.Builder
	var walk func(syms []codebase.Symbol, depth int)
	walk = func(syms []codebase.Symbol, depth int) {
		for _, s := range syms {
			fmt.Fprintf(&sb, "%s%s\t%s\t%s\n", strings.Repeat("  ", depth), s.Kind, s.Name, s.NameSpan.Start)
			walk(s.Children, depth+1)
		}
	}
	walk(codebase.Symbols(doc.Tree), 0)
	return []byte(sb.String()), nil
}
