package format

import (
	"fmt"
	"io"

	"github.com/dhamidi/sharp/csharp/parser"
)

// Document is a parsed file as handed to an encoder.
type Document struct {
	File        string
	Tree        *parser.Node
	Diagnostics []parser.Diagnostic
}

type Encoder interface {
	Encode(doc *Document) error
	Marshal(doc *Document) ([]byte, error)
}

// Formats lists the names NewEncoder accepts.
var Formats = []string{"json", "tree", "sexp", "tokens", "outline"}

// NewEncoder returns the encoder for a format name. Positions only affect
// the tree format.
func NewEncoder(name string, w io.Writer, positions bool) (Encoder, error) {
	switch name {
	case "json":
		return NewTreeJSONEncoder(w), nil
	case "tree":
		return &TreeTextEncoder{w: w, Positions: positions}, nil
	case "sexp":
		return NewSexpEncoder(w), nil
	case "tokens":
		return NewTokenEncoder(w), nil
	case "outline":
		return NewOutlineEncoder(w), nil
	}
	return nil, fmt.Errorf("unknown format: %s", name)
}

func write(w io.Writer, m func(*Document) ([]byte, error), doc *Document) error {
	text, err := m(doc)
	if err != nil {
		return err
	}
	_, err = w.Write(text)
	return err
}
