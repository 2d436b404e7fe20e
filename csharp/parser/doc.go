// Package parser provides an error-tolerant parser for C# source code.
//
// # Overview
//
// The parser turns source text into a concrete syntax tree (CST) that keeps
// every token. Whitespace, comments, preprocessor directives and the text of
// excluded #if branches are attached to the following token as leading
// trivia, so the tree reproduces its input exactly:
//
//	p := parser.ParseCompilationUnit(r, parser.WithDefines("DEBUG"))
//	tree := p.Finish()
//	tree.Text() == source // always true
//
// Malformed input never stops the parse. Missing tokens are inserted as
// zero-width leaves of kind KindMissing and unexpected tokens are swept into
// KindError nodes. Both are reported through Diagnostics.
//
// # Architecture
//
//	┌─────────────┐     ┌─────────────┐     ┌─────────────┐
//	│   Input     │────▶│   Lexer     │────▶│   Parser    │
//	│  (bytes)    │     │  (tokens)   │     │   (CST)     │
//	└─────────────┘     └─────────────┘     └─────────────┘
//	                           │                   │
//	                           ▼                   ▼
//	                    ┌─────────────┐     ┌─────────────┐
//	                    │  preproc    │     │ Diagnostics │
//	                    │  (#if/#…)   │     │             │
//	                    └─────────────┘     └─────────────┘
//
// The lexer never decides between a generic name and a comparison, or a
// cast and a parenthesized expression. Tokens are buffered on demand and the
// parser settles those questions by looking ahead and, where needed, by
// parsing speculatively and rewinding. A '>>' is always lexed as two '>'
// tokens and merged back when it is used as a shift operator.
//
// # Nodes and fields
//
// Every node has a Kind and ordered Children. Leaves carry a Token. Inner
// nodes name the children that play a role:
//
//	if (x) a(); else b();
//
//	IfStmt
//	  if
//	  (
//	  condition: Identifier x
//	  )
//	  statement: ExpressionStmt ...
//	  else: ElseClause ...
//
// Use Field to look a child up by role, Walk or Find to search a subtree
// and Sexp for a compact rendering.
//
// # Preprocessor
//
// Conditional compilation is evaluated against the symbols passed with
// WithDefines and those introduced by #define and #undef. Excluded text is
// kept as TriviaDisabledText trivia. Other directives such as #region,
// #nullable, #pragma and #line appear as structured nodes in the trivia and
// are listed by Node.Directives.
//
// # Language versions
//
// Without WithLanguageVersion every construct is accepted. With a version,
// syntax introduced later is still parsed but reported, for example:
//
//	error CS8400: feature 'file-scoped namespaces' is not available in C# 9.0; use language version 10.0 or greater
package parser
