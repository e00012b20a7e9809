package toml

import (
	"fmt"
	"strings"
)

// =========================
// Lexical Normalization
// =========================

// normalize performs a single left-to-right pass over raw input and returns a
// cleaned equivalent: line endings unified to \n, tabs mapped to spaces,
// comments stripped outside strings, line breaks inside array literals
// elided, and backslash line-folds inside multi-line basic strings resolved.
// Any unbalanced bracket, string delimiter, or table header is rejected here,
// before line splitting begins.
//
// Because elided and folded breaks make output lines shorter than source
// lines, the second result maps each output line to the source line it
// starts on, so later errors can report source positions.
func normalize(src string) (string, []int, error) {
	var out strings.Builder
	out.Grow(len(src))
	lineMap := []int{1}

	var (
		inBasic      bool // inside "..."
		inLiteral    bool // inside '...'
		inMultiBasic bool // inside """..."""
		inMultiLit   bool // inside '''...'''
		depth        int  // bracket depth outside strings
		header       bool // open bracket belongs to a table header
	)
	lineBlank := true
	line := 1

	i := 0
	for i < len(src) {
		c := src[i]

		if isLineBreak(c) {
			// CRLF and LFCR collapse to one break.
			if i+1 < len(src) && isLineBreak(src[i+1]) && src[i+1] != c {
				i++
			}
			i++
			emitted := false
			switch {
			case inBasic:
				return "", nil, errAt(line, fmt.Errorf("%w: line break in basic string", ErrUnterminatedString))
			case inLiteral:
				return "", nil, errAt(line, fmt.Errorf("%w: line break in literal string", ErrUnterminatedString))
			case header:
				return "", nil, errAt(line, ErrMultilineHeader)
			case inMultiBasic || inMultiLit:
				out.WriteByte('\n')
				emitted = true
			case depth > 0:
				// Arrays may span lines; the break is dropped so the
				// builder sees the whole literal on one line.
			default:
				out.WriteByte('\n')
				lineBlank = true
				emitted = true
			}
			line++
			if emitted {
				lineMap = append(lineMap, line)
			}
			continue
		}

		if c == '\t' {
			c = ' '
		}

		switch {
		case inBasic:
			if c == '\\' {
				if i+1 >= len(src) {
					return "", nil, errAt(line, fmt.Errorf("%w: trailing backslash", ErrInvalidEscape))
				}
				if !isEscapeChar(src[i+1]) {
					return "", nil, errAt(line, fmt.Errorf("%w: \\%c", ErrInvalidEscape, src[i+1]))
				}
				out.WriteByte('\\')
				out.WriteByte(src[i+1])
				i += 2
				continue
			}
			if c == '"' {
				inBasic = false
			}
			out.WriteByte(c)
			i++

		case inLiteral:
			if c == '\'' {
				inLiteral = false
			}
			out.WriteByte(c)
			i++

		case inMultiBasic:
			if c == '\\' {
				j := i + 1
				for j < len(src) && (src[j] == ' ' || src[j] == '\t' || isLineBreak(src[j])) {
					if src[j] == '\n' {
						line++
					}
					j++
				}
				if j > i+1 {
					// Line-folding: the backslash and the whitespace run
					// after it vanish from the output.
					i = j
					continue
				}
				out.WriteByte('\\')
				if i+1 < len(src) {
					out.WriteByte(src[i+1])
					i += 2
				} else {
					i++
				}
				continue
			}
			if c == '"' && i+2 < len(src) && src[i+1] == '"' && src[i+2] == '"' {
				inMultiBasic = false
				out.WriteString(`"""`)
				i += 3
				continue
			}
			out.WriteByte(c)
			i++

		case inMultiLit:
			if c == '\'' && i+2 < len(src) && src[i+1] == '\'' && src[i+2] == '\'' {
				inMultiLit = false
				out.WriteString(`'''`)
				i += 3
				continue
			}
			out.WriteByte(c)
			i++

		default:
			switch c {
			case '#':
				if header {
					out.WriteByte(c)
					i++
					continue
				}
				for i < len(src) && !isLineBreak(src[i]) {
					i++
				}
				// Comment text dropped; the break is handled above.
			case '"':
				if i+2 < len(src) && src[i+1] == '"' && src[i+2] == '"' {
					inMultiBasic = true
					out.WriteString(`"""`)
					i += 3
				} else {
					inBasic = true
					out.WriteByte('"')
					i++
				}
				lineBlank = false
			case '\'':
				if i+2 < len(src) && src[i+1] == '\'' && src[i+2] == '\'' {
					inMultiLit = true
					out.WriteString(`'''`)
					i += 3
				} else {
					inLiteral = true
					out.WriteByte('\'')
					i++
				}
				lineBlank = false
			case '[':
				depth++
				if depth == 1 && lineBlank {
					header = true
				}
				out.WriteByte('[')
				i++
				lineBlank = false
			case ']':
				header = false
				depth--
				if depth < 0 {
					return "", nil, errAt(line, fmt.Errorf("%w: unexpected ']'", ErrSyntax))
				}
				out.WriteByte(']')
				i++
				lineBlank = false
			default:
				if c != ' ' {
					lineBlank = false
				}
				out.WriteByte(c)
				i++
			}
		}
	}

	switch {
	case inBasic:
		return "", nil, errAt(line, fmt.Errorf("%w: basic string", ErrUnterminatedString))
	case inLiteral:
		return "", nil, errAt(line, fmt.Errorf("%w: literal string", ErrUnterminatedString))
	case inMultiBasic:
		return "", nil, errAt(line, fmt.Errorf("%w: multi-line basic string", ErrUnterminatedString))
	case inMultiLit:
		return "", nil, errAt(line, fmt.Errorf("%w: multi-line literal string", ErrUnterminatedString))
	case header:
		return "", nil, errAt(line, fmt.Errorf("%w: table header", ErrUnterminatedBracket))
	case depth != 0:
		return "", nil, errAt(line, fmt.Errorf("%w: %d unclosed '['", ErrUnterminatedBracket, depth))
	}

	return out.String(), lineMap, nil
}

func isLineBreak(c byte) bool { return c == '\n' || c == '\r' }

// isEscapeChar reports whether c may follow a backslash in a single-line
// basic string.
func isEscapeChar(c byte) bool {
	switch c {
	case 'b', 't', 'n', 'f', 'r', 'u', 'U', '"', '\\', ' ', '\t':
		return true
	}
	return false
}
