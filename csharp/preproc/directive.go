package preproc

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type DirectiveKind int

const (
	DirectiveUnknown DirectiveKind = iota
	DirectiveIf
	DirectiveElif
	DirectiveElse
	DirectiveEndif
	DirectiveDefine
	DirectiveUndef
	DirectiveRegion
	DirectiveEndregion
	DirectivePragma
	DirectiveLine
	DirectiveNullable
	DirectiveError
	DirectiveWarning
)

var directiveNames = map[string]DirectiveKind{
	"if":        DirectiveIf,
	"elif":      DirectiveElif,
	"else":      DirectiveElse,
	"endif":     DirectiveEndif,
	"define":    DirectiveDefine,
	"undef":     DirectiveUndef,
	"region":    DirectiveRegion,
	"endregion": DirectiveEndregion,
	"pragma":    DirectivePragma,
	"line":      DirectiveLine,
	"nullable":  DirectiveNullable,
	"error":     DirectiveError,
	"warning":   DirectiveWarning,
}

func (k DirectiveKind) String() string {
	for name, kind := range directiveNames {
		if kind == k {
			return name
		}
	}
	return "unknown"
}

// IsConditional reports whether the directive takes part in the branch stack.
func (k DirectiveKind) IsConditional() bool {
	switch k {
	case DirectiveIf, DirectiveElif, DirectiveElse, DirectiveEndif:
		return true
	}
	return false
}

// Directive is one split and validated directive line.
type Directive struct {
	Kind DirectiveKind
	// Name is the directive keyword as written, without the '#'.
	Name string
	// Tokens covers the whole line: '#', the name, then the arguments.
	Tokens []Tok
	// Expr is the condition of #if and #elif.
	Expr Expr
	// Symbol is the operand of #define and #undef.
	Symbol string
	// Message is the free text of #region, #endregion, #error and #warning.
	Message string
	// Err is set when the directive is structurally malformed.
	Err error
}

type TokKind int

const (
	TokHash TokKind = iota
	TokName
	TokIdent
	TokNumber
	TokString
	TokNot
	TokAnd
	TokOr
	TokEq
	TokNe
	TokLParen
	TokRParen
	TokComma
	TokMessage
	TokComment
	TokInvalid
)

var tokKindNames = [...]string{
	TokHash:    "Hash",
	TokName:    "Name",
	TokIdent:   "Ident",
	TokNumber:  "Number",
	TokString:  "String",
	TokNot:     "Not",
	TokAnd:     "And",
	TokOr:      "Or",
	TokEq:      "Eq",
	TokNe:      "Ne",
	TokLParen:  "LParen",
	TokRParen:  "RParen",
	TokComma:   "Comma",
	TokMessage: "Message",
	TokComment: "Comment",
	TokInvalid: "Invalid",
}

func (k TokKind) String() string {
	if int(k) < len(tokKindNames) {
		return tokKindNames[k]
	}
	return fmt.Sprintf("TokKind(%d)", int(k))
}

// Tok is a token of a directive line. Offset is the byte offset from the
// start of the line.
type Tok struct {
	Kind   TokKind
	Text   string
	Offset int
}

// Parse splits and validates one directive line. The line must start with
// optional whitespace followed by '#' and must not include the line
// terminator.
func Parse(line string) *Directive {
	d := &Directive{}
	sc := &scanner{src: line}
	sc.skipSpace()
	if sc.peek() != '#' {
		d.Err = fmt.Errorf("preprocessor directive expected")
		return d
	}
	d.Tokens = append(d.Tokens, Tok{Kind: TokHash, Text: "#", Offset: sc.pos})
	sc.pos++
	sc.skipSpace()
	start := sc.pos
	for sc.pos < len(sc.src) && isIdentPart(sc.peekRune()) {
		_, size := utf8.DecodeRuneInString(sc.src[sc.pos:])
		sc.pos += size
	}
	d.Name = sc.src[start:sc.pos]
	if d.Name == "" {
		d.Err = fmt.Errorf("preprocessor directive expected")
		d.Tokens = append(d.Tokens, sc.rest(TokInvalid)...)
		return d
	}
	d.Tokens = append(d.Tokens, Tok{Kind: TokName, Text: d.Name, Offset: start})
	kind, ok := directiveNames[d.Name]
	if !ok {
		d.Err = fmt.Errorf("preprocessor directive expected, found #%s", d.Name)
		d.Tokens = append(d.Tokens, sc.rest(TokMessage)...)
		return d
	}
	d.Kind = kind

	switch kind {
	case DirectiveRegion, DirectiveEndregion, DirectiveError, DirectiveWarning:
		toks := sc.rest(TokMessage)
		d.Tokens = append(d.Tokens, toks...)
		if len(toks) > 0 {
			d.Message = toks[0].Text
		}
		return d
	}

	args, err := sc.tokenize()
	d.Tokens = append(d.Tokens, args...)
	if err != nil {
		d.Err = err
		return d
	}
	words := significant(args)

	switch kind {
	case DirectiveIf, DirectiveElif:
		if len(words) == 0 {
			d.Err = fmt.Errorf("expression expected after #%s", d.Name)
			return d
		}
		d.Expr, d.Err = parseExpr(words)
	case DirectiveElse, DirectiveEndif:
		if len(words) > 0 {
			d.Err = fmt.Errorf("single-line comment or end-of-line expected after #%s", d.Name)
		}
	case DirectiveDefine, DirectiveUndef:
		if len(words) == 0 || words[0].Kind != TokIdent {
			d.Err = fmt.Errorf("identifier expected after #%s", d.Name)
			return d
		}
		d.Symbol = words[0].Text
		if len(words) > 1 {
			d.Err = fmt.Errorf("single-line comment or end-of-line expected after #%s %s", d.Name, d.Symbol)
		}
	case DirectivePragma:
		d.Err = validatePragma(words)
	case DirectiveLine:
		d.Err = validateLine(words)
	case DirectiveNullable:
		d.Err = validateNullable(words)
	}
	return d
}

func significant(toks []Tok) []Tok {
	out := toks[:0:0]
	for _, t := range toks {
		if t.Kind != TokComment {
			out = append(out, t)
		}
	}
	return out
}

func validatePragma(words []Tok) error {
	if len(words) == 0 || words[0].Kind != TokIdent {
		return fmt.Errorf("expected 'warning' or 'checksum' after #pragma")
	}
	switch words[0].Text {
	case "warning":
		if len(words) < 2 || words[1].Kind != TokIdent {
			return fmt.Errorf("expected 'disable' or 'restore' after #pragma warning")
		}
		if words[1].Text != "disable" && words[1].Text != "restore" {
			return fmt.Errorf("expected 'disable' or 'restore' after #pragma warning, found %q", words[1].Text)
		}
		rest := words[2:]
		for i, w := range rest {
			if i%2 == 1 {
				if w.Kind != TokComma {
					return fmt.Errorf("',' expected in #pragma warning list")
				}
				continue
			}
			if w.Kind != TokIdent && w.Kind != TokNumber {
				return fmt.Errorf("warning code expected in #pragma warning list")
			}
		}
		if len(rest) > 0 && len(rest)%2 == 0 {
			return fmt.Errorf("warning code expected after ','")
		}
	case "checksum":
		if len(words) != 4 || words[1].Kind != TokString || words[2].Kind != TokString || words[3].Kind != TokString {
			return fmt.Errorf("#pragma checksum expects a file name, a GUID and a checksum string")
		}
	default:
		return fmt.Errorf("unrecognized #pragma %q", words[0].Text)
	}
	return nil
}

func validateLine(words []Tok) error {
	if len(words) == 0 {
		return fmt.Errorf("line number, 'default' or 'hidden' expected after #line")
	}
	switch {
	case words[0].Kind == TokIdent && (words[0].Text == "default" || words[0].Text == "hidden"):
		if len(words) > 1 {
			return fmt.Errorf("end-of-line expected after #line %s", words[0].Text)
		}
	case words[0].Kind == TokNumber:
		n, err := strconv.Atoi(words[0].Text)
		if err != nil || n < 1 || n > 16707565 {
			return fmt.Errorf("invalid line number %q", words[0].Text)
		}
		if len(words) > 2 || (len(words) == 2 && words[1].Kind != TokString) {
			return fmt.Errorf("file name expected after #line %s", words[0].Text)
		}
	default:
		return fmt.Errorf("line number, 'default' or 'hidden' expected after #line")
	}
	return nil
}

func validateNullable(words []Tok) error {
	if len(words) == 0 || words[0].Kind != TokIdent {
		return fmt.Errorf("expected 'enable', 'disable' or 'restore' after #nullable")
	}
	switch words[0].Text {
	case "enable", "disable", "restore":
	default:
		return fmt.Errorf("expected 'enable', 'disable' or 'restore' after #nullable, found %q", words[0].Text)
	}
	if len(words) == 1 {
		return nil
	}
	if len(words) > 2 || words[1].Kind != TokIdent || (words[1].Text != "annotations" && words[1].Text != "warnings") {
		return fmt.Errorf("expected 'annotations', 'warnings' or end-of-line after #nullable %s", words[0].Text)
	}
	return nil
}

type scanner struct {
	src string
	pos int
}

func (s *scanner) peek() byte {
	if s.pos >= len(s.src) {
		return 0
	}
	return s.src[s.pos]
}

func (s *scanner) peekRune() rune {
	if s.pos >= len(s.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(s.src[s.pos:])
	return r
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.src) && (s.src[s.pos] == ' ' || s.src[s.pos] == '\t' || s.src[s.pos] == '\f' || s.src[s.pos] == '\v') {
		s.pos++
	}
}

// rest returns the remainder of the line, trimmed of leading space, as one
// token of the given kind.
func (s *scanner) rest(kind TokKind) []Tok {
	s.skipSpace()
	if s.pos >= len(s.src) {
		return nil
	}
	text := strings.TrimRight(s.src[s.pos:], " \t")
	tok := Tok{Kind: kind, Text: text, Offset: s.pos}
	s.pos = len(s.src)
	return []Tok{tok}
}

func (s *scanner) tokenize() ([]Tok, error) {
	var toks []Tok
	for {
		s.skipSpace()
		if s.pos >= len(s.src) {
			return toks, nil
		}
		start := s.pos
		c := s.src[s.pos]
		switch {
		case c == '/' && strings.HasPrefix(s.src[s.pos:], "//"):
			toks = append(toks, Tok{Kind: TokComment, Text: s.src[s.pos:], Offset: start})
			s.pos = len(s.src)
			return toks, nil
		case c == '!':
			if strings.HasPrefix(s.src[s.pos:], "!=") {
				s.pos += 2
				toks = append(toks, Tok{Kind: TokNe, Text: "!=", Offset: start})
			} else {
				s.pos++
				toks = append(toks, Tok{Kind: TokNot, Text: "!", Offset: start})
			}
		case c == '=' && strings.HasPrefix(s.src[s.pos:], "=="):
			s.pos += 2
			toks = append(toks, Tok{Kind: TokEq, Text: "==", Offset: start})
		case c == '&' && strings.HasPrefix(s.src[s.pos:], "&&"):
			s.pos += 2
			toks = append(toks, Tok{Kind: TokAnd, Text: "&&", Offset: start})
		case c == '|' && strings.HasPrefix(s.src[s.pos:], "||"):
			s.pos += 2
			toks = append(toks, Tok{Kind: TokOr, Text: "||", Offset: start})
		case c == '(':
			s.pos++
			toks = append(toks, Tok{Kind: TokLParen, Text: "(", Offset: start})
		case c == ')':
			s.pos++
			toks = append(toks, Tok{Kind: TokRParen, Text: ")", Offset: start})
		case c == ',':
			s.pos++
			toks = append(toks, Tok{Kind: TokComma, Text: ",", Offset: start})
		case c == '"':
			s.pos++
			for s.pos < len(s.src) && s.src[s.pos] != '"' {
				s.pos++
			}
			if s.pos >= len(s.src) {
				toks = append(toks, Tok{Kind: TokInvalid, Text: s.src[start:], Offset: start})
				return toks, fmt.Errorf("newline in constant")
			}
			s.pos++
			toks = append(toks, Tok{Kind: TokString, Text: s.src[start:s.pos], Offset: start})
		case c >= '0' && c <= '9':
			for s.pos < len(s.src) && s.src[s.pos] >= '0' && s.src[s.pos] <= '9' {
				s.pos++
			}
			toks = append(toks, Tok{Kind: TokNumber, Text: s.src[start:s.pos], Offset: start})
		case isIdentStart(s.peekRune()):
			for s.pos < len(s.src) && isIdentPart(s.peekRune()) {
				_, size := utf8.DecodeRuneInString(s.src[s.pos:])
				s.pos += size
			}
			toks = append(toks, Tok{Kind: TokIdent, Text: s.src[start:s.pos], Offset: start})
		default:
			_, size := utf8.DecodeRuneInString(s.src[s.pos:])
			s.pos += size
			toks = append(toks, Tok{Kind: TokInvalid, Text: s.src[start:s.pos], Offset: start})
			rest := s.src[s.pos:]
			if rest != "" {
				toks = append(toks, Tok{Kind: TokInvalid, Text: rest, Offset: s.pos})
				s.pos = len(s.src)
			}
			return toks, fmt.Errorf("unexpected character %q in directive", s.src[start:start+size])
		}
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r) || unicode.Is(unicode.Pc, r)
}
