package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// escapeError reports a bad escape sequence at a byte offset within the
// literal body.
type escapeError struct {
	offset int
	length int
	msg    string
}

// decodeEscapes decodes the body of a regular string or character literal.
// Unrecognized escapes are kept verbatim and reported.
func decodeEscapes(body string) (string, []escapeError) {
	if strings.IndexByte(body, '\\') < 0 {
		return body, nil
	}
	var sb strings.Builder
	var errs []escapeError
	for i := 0; i < len(body); {
		c := body[i]
		if c != '\\' {
			sb.WriteByte(c)
			i++
			continue
		}
		if i+1 >= len(body) {
			errs = append(errs, escapeError{i, 1, "unrecognized escape sequence"})
			sb.WriteByte(c)
			i++
			continue
		}
		switch body[i+1] {
		case '\'':
			sb.WriteByte('\'')
		case '"':
			sb.WriteByte('"')
		case '\\':
			sb.WriteByte('\\')
		case '0':
			sb.WriteByte(0)
		case 'a':
			sb.WriteByte('\a')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'v':
			sb.WriteByte('\v')
		case 'x':
			n, width := hexPrefix(body[i+2:], 1, 4)
			if width == 0 {
				errs = append(errs, escapeError{i, 2, "unrecognized escape sequence"})
				sb.WriteString(body[i : i+2])
				i += 2
				continue
			}
			sb.WriteRune(rune(n))
			i += 2 + width
			continue
		case 'u', 'U':
			want := 4
			if body[i+1] == 'U' {
				want = 8
			}
			n, width := hexPrefix(body[i+2:], want, want)
			if width != want {
				errs = append(errs, escapeError{i, 2 + width, "unrecognized escape sequence"})
				sb.WriteString(body[i : i+2+width])
				i += 2 + width
				continue
			}
			if n > utf8.MaxRune {
				errs = append(errs, escapeError{i, 2 + width, fmt.Sprintf("escape \\U%08X is out of range", n)})
				sb.WriteRune(utf8.RuneError)
			} else {
				sb.WriteRune(rune(n))
			}
			i += 2 + width
			continue
		default:
			errs = append(errs, escapeError{i, 2, "unrecognized escape sequence"})
			sb.WriteString(body[i : i+2])
		}
		i += 2
	}
	return sb.String(), errs
}

// decodeVerbatim decodes the body of a verbatim string, where the only
// escape is a doubled quote.
func decodeVerbatim(body string) string {
	return strings.ReplaceAll(body, `""`, `"`)
}

// decodeBraces undoes the {{ and }} escapes of interpolated string text.
func decodeBraces(text string) string {
	if !strings.Contains(text, "{{") && !strings.Contains(text, "}}") {
		return text
	}
	text = strings.ReplaceAll(text, "{{", "{")
	return strings.ReplaceAll(text, "}}", "}")
}

func hexPrefix(s string, min, max int) (uint32, int) {
	var n uint32
	width := 0
	for width < max && width < len(s) && isHexDigit(s[width]) {
		n = n<<4 | uint32(hexValue(s[width]))
		width++
	}
	if width < min {
		return 0, width
	}
	return n, width
}

func hexValue(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
