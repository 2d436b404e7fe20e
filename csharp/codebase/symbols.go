package codebase

import (
	"strings"

	"github.com/dhamidi/sharp/csharp/parser"
)

type SymbolKind int

const (
	SymbolNamespace SymbolKind = iota
	SymbolClass
	SymbolStruct
	SymbolInterface
	SymbolEnum
	SymbolRecord
	SymbolDelegate
	SymbolMethod
	SymbolConstructor
	SymbolDestructor
	SymbolProperty
	SymbolIndexer
	SymbolField
	SymbolEvent
	SymbolOperator
	SymbolEnumMember
)

var symbolKindNames = [...]string{
	SymbolNamespace:   "namespace",
	SymbolClass:       "class",
	SymbolStruct:      "struct",
	SymbolInterface:   "interface",
	SymbolEnum:        "enum",
	SymbolRecord:      "record",
	SymbolDelegate:    "delegate",
	SymbolMethod:      "method",
	SymbolConstructor: "constructor",
	SymbolDestructor:  "destructor",
	SymbolProperty:    "property",
	SymbolIndexer:     "indexer",
	SymbolField:       "field",
	SymbolEvent:       "event",
	SymbolOperator:    "operator",
	SymbolEnumMember:  "enum member",
}

func (k SymbolKind) String() string {
	if int(k) < len(symbolKindNames) {
		return symbolKindNames[k]
	}
	return "unknown"
}

// Symbol is an entry of a document outline.
type Symbol struct {
	Name     string
	Kind     SymbolKind
	Span     parser.Span
	NameSpan parser.Span
	Children []Symbol
}

var declSymbols = map[parser.NodeKind]SymbolKind{
	parser.KindNamespaceDecl:           SymbolNamespace,
	parser.KindFileScopedNamespaceDecl: SymbolNamespace,
	parser.KindClassDecl:               SymbolClass,
	parser.KindStructDecl:              SymbolStruct,
	parser.KindInterfaceDecl:           SymbolInterface,
	parser.KindEnumDecl:                SymbolEnum,
	parser.KindRecordDecl:              SymbolRecord,
	parser.KindDelegateDecl:            SymbolDelegate,
	parser.KindMethodDecl:              SymbolMethod,
	parser.KindConstructorDecl:         SymbolConstructor,
	parser.KindDestructorDecl:          SymbolDestructor,
	parser.KindPropertyDecl:            SymbolProperty,
	parser.KindIndexerDecl:             SymbolIndexer,
	parser.KindEventDecl:               SymbolEvent,
	parser.KindOperatorDecl:            SymbolOperator,
	parser.KindConversionOperatorDecl:  SymbolOperator,
	parser.KindEnumMember:              SymbolEnumMember,
	parser.KindFieldDecl:               SymbolField,
	parser.KindEventFieldDecl:          SymbolEvent,
}

// Symbols builds the declaration outline of a compilation unit:
// namespaces, types and their members. Declarations whose name is
// missing are left out.
func Symbols(tree *parser.Node) []Symbol {
	if tree == nil {
		return nil
	}
	return collectSymbols(tree)
}

func collectSymbols(container *parser.Node) []Symbol {
	var out []Symbol
	for _, n := range container.Children {
		kind, ok := declSymbols[n.Kind]
		if !ok {
			continue
		}
		switch n.Kind {
		case parser.KindFieldDecl, parser.KindEventFieldDecl:
			out = append(out, declaratorSymbols(n, kind)...)
			continue
		}
		name, nameNode := symbolName(n)
		if name == "" {
			continue
		}
		sym := Symbol{Name: name, Kind: kind, Span: n.Span, NameSpan: n.Span}
		if nameNode != nil {
			sym.NameSpan = nameNode.Span
		}
		switch {
		case n.Kind == parser.KindFileScopedNamespaceDecl:
			sym.Children = collectSymbols(n)
		case n.Field("body") != nil:
			sym.Children = collectSymbols(n.Field("body"))
		}
		out = append(out, sym)
	}
	return out
}

// declaratorSymbols returns one symbol per declarator of a field or event
// field, as in "int a, b;".
func declaratorSymbols(n *parser.Node, kind SymbolKind) []Symbol {
	decl := n.Field("declaration")
	if decl == nil {
		return nil
	}
	var out []Symbol
	for _, d := range decl.ChildrenOfKind(parser.KindVariableDeclarator) {
		name := d.Field("name")
		text := tokenText(name)
		if text == "" {
			continue
		}
		out = append(out, Symbol{Name: text, Kind: kind, Span: n.Span, NameSpan: name.Span})
	}
	return out
}

func symbolName(n *parser.Node) (string, *parser.Node) {
	switch n.Kind {
	case parser.KindIndexerDecl:
		return withInterface(n, "this"), n
	case parser.KindOperatorDecl:
		op := n.Field("operator")
		if op == nil || tokenText(op) == "" {
			return "", nil
		}
		return "operator " + tokenText(op), op
	case parser.KindConversionOperatorDecl:
		kind, typ := n.Field("kind"), n.Field("type")
		if typ == nil || tokenText(typ) == "" {
			return "", nil
		}
		return tokenText(kind) + " operator " + tokenText(typ), typ
	case parser.KindDestructorDecl:
		name := n.Field("name")
		if tokenText(name) == "" {
			return "", nil
		}
		return "~" + tokenText(name), name
	}
	name := n.Field("name")
	text := tokenText(name)
	if text == "" {
		return "", nil
	}
	return withInterface(n, text), name
}

func withInterface(n *parser.Node, name string) string {
	if iface := n.Field("explicitInterface"); iface != nil {
		return tokenText(iface) + name
	}
	return name
}

// tokenText joins the token literals under n without trivia, so that a
// qualified name reads "A.B.C" however it was spaced.
func tokenText(n *parser.Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	for _, tok := range n.Tokens() {
		sb.WriteString(tok.Literal)
	}
	return sb.String()
}
