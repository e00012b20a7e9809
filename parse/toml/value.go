package toml

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =========================
// Value Parsing
// =========================

// parseValue turns the raw right-hand side of an assignment into a node. The
// checks run in a fixed order, so a value's type is decided by the first form
// it satisfies: booleans, strings, numbers, datetimes, arrays, inline tables.
func parseValue(raw string) (Node, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrEmptyValue
	}

	switch raw {
	case "true":
		return &Value{Type: KindBool, V: true}, nil
	case "false":
		return &Value{Type: KindBool, V: false}, nil
	}

	switch {
	case strings.HasPrefix(raw, "'''"):
		return parseMultiLiteral(raw)
	case strings.HasPrefix(raw, "'"):
		return parseLiteral(raw)
	case strings.HasPrefix(raw, `"""`):
		return parseMultiBasic(raw)
	case strings.HasPrefix(raw, `"`):
		return parseBasic(raw)
	}

	if v, ok := parseNumber(raw); ok {
		return v, nil
	}
	if v, ok := parseDatetime(raw); ok {
		return v, nil
	}

	switch {
	case strings.HasPrefix(raw, "["):
		return parseArray(raw)
	case strings.HasPrefix(raw, "{"):
		return parseInlineTable(raw)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownValueType, raw)
}

// =========================
// String Values
// =========================

func parseLiteral(raw string) (Node, error) {
	if len(raw) < 2 || !strings.HasSuffix(raw, "'") {
		return nil, fmt.Errorf("%w: literal string", ErrUnterminatedString)
	}
	inner := raw[1 : len(raw)-1]
	if strings.ContainsAny(inner, "'\n") {
		return nil, fmt.Errorf("%w: literal string", ErrUnterminatedString)
	}
	return &Value{Type: KindString, V: inner}, nil
}

func parseMultiLiteral(raw string) (Node, error) {
	if len(raw) < 6 || !strings.HasSuffix(raw, "'''") {
		return nil, fmt.Errorf("%w: multi-line literal string", ErrUnterminatedString)
	}
	inner := raw[3 : len(raw)-3]
	// A break right after the opening delimiter is trimmed.
	inner = strings.TrimPrefix(inner, "\n")
	return &Value{Type: KindString, V: inner}, nil
}

func parseBasic(raw string) (Node, error) {
	if len(raw) < 2 || !strings.HasSuffix(raw, `"`) {
		return nil, fmt.Errorf("%w: basic string", ErrUnterminatedString)
	}
	s, err := decodeEscapes(raw[1 : len(raw)-1])
	if err != nil {
		return nil, err
	}
	return &Value{Type: KindString, V: s}, nil
}

func parseMultiBasic(raw string) (Node, error) {
	if len(raw) < 6 || !strings.HasSuffix(raw, `"""`) {
		return nil, fmt.Errorf("%w: multi-line basic string", ErrUnterminatedString)
	}
	inner := raw[3 : len(raw)-3]
	inner = strings.TrimPrefix(inner, "\n")
	s, err := decodeEscapes(inner)
	if err != nil {
		return nil, err
	}
	return &Value{Type: KindString, V: s}, nil
}

// decodeEscapes resolves backslash escapes in a basic string body:
// \b \t \n \f \r \" \\ and the \uXXXX / \UXXXXXXXX unicode forms.
func decodeEscapes(s string) (string, error) {
	var out strings.Builder
	out.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			out.WriteByte(c)
			continue
		}
		if i+1 >= len(s) {
			return "", fmt.Errorf("%w: trailing backslash", ErrInvalidEscape)
		}
		i++
		switch s[i] {
		case 'b':
			out.WriteByte('\b')
		case 't':
			out.WriteByte('\t')
		case 'n':
			out.WriteByte('\n')
		case 'f':
			out.WriteByte('\f')
		case 'r':
			out.WriteByte('\r')
		case '"':
			out.WriteByte('"')
		case '\\':
			out.WriteByte('\\')
		case 'u', 'U':
			width := 4
			if s[i] == 'U' {
				width = 8
			}
			if i+width >= len(s) {
				return "", fmt.Errorf("%w: truncated \\%c", ErrInvalidEscape, s[i])
			}
			code, err := strconv.ParseUint(s[i+1:i+1+width], 16, 32)
			if err != nil {
				return "", fmt.Errorf("%w: \\%c%s", ErrInvalidEscape, s[i], s[i+1:i+1+width])
			}
			out.WriteRune(rune(code))
			i += width
		default:
			return "", fmt.Errorf("%w: \\%c", ErrInvalidEscape, s[i])
		}
	}
	return out.String(), nil
}

// =========================
// Numeric Values
// =========================

// parseNumber tries the integer and float forms. Underscore digit separators
// are removed before conversion; 0x/0o/0b prefixes select the base, and
// inf/nan pass through strconv.ParseFloat.
func parseNumber(raw string) (*Value, bool) {
	s := strings.ReplaceAll(raw, "_", "")

	body, neg := s, false
	if len(body) > 0 && (body[0] == '+' || body[0] == '-') {
		neg = body[0] == '-'
		body = body[1:]
	}
	if len(body) > 2 && body[0] == '0' {
		var base int
		switch body[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseInt(body[2:], base, 64)
			if err != nil {
				return nil, false
			}
			if neg {
				n = -n
			}
			return &Value{Type: KindInt, V: n}, true
		}
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &Value{Type: KindInt, V: n}, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return &Value{Type: KindFloat, V: f}, true
	}
	return nil, false
}

// =========================
// Datetime Values
// =========================

// parseDatetime recognizes the calendar value forms: a full date, a clock
// time with optional fraction, and their combination joined by 'T', 't' or a
// single space, with an optional trailing Z or ±HH:MM offset. Field ranges
// are checked explicitly; anything out of range is simply not a datetime.
func parseDatetime(raw string) (*Value, bool) {
	if t, ok := parseClock(raw); ok {
		return &Value{Type: KindLocalTime, V: t}, true
	}

	datePart, rest, hasTime := splitDatetime(raw)
	y, mo, d, ok := parseDate(datePart)
	if !ok {
		return nil, false
	}
	if !hasTime {
		t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
		return &Value{Type: KindLocalDate, V: t}, true
	}

	timePart, loc, zoned, ok := splitOffset(rest)
	if !ok {
		return nil, false
	}
	clk, ok := parseClock(timePart)
	if !ok {
		return nil, false
	}

	kind := KindLocalDatetime
	if zoned {
		kind = KindDatetime
	} else {
		loc = time.UTC
	}
	t := time.Date(y, time.Month(mo), d, clk.Hour(), clk.Minute(), clk.Second(), clk.Nanosecond(), loc)
	return &Value{Type: kind, V: t}, true
}

// splitDatetime cuts raw into the date part and whatever follows the
// separator. A date is always exactly ten bytes.
func splitDatetime(raw string) (date, rest string, hasTime bool) {
	if len(raw) <= 10 {
		return raw, "", false
	}
	sep := raw[10]
	if sep != 'T' && sep != 't' && sep != ' ' {
		return raw, "", false
	}
	return raw[:10], raw[11:], true
}

func parseDate(s string) (y, mo, d int, ok bool) {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return 0, 0, 0, false
	}
	y, ok1 := atoi(s[0:4])
	mo, ok2 := atoi(s[5:7])
	d, ok3 := atoi(s[8:10])
	if !ok1 || !ok2 || !ok3 || mo < 1 || mo > 12 || d < 1 || d > 31 {
		return 0, 0, 0, false
	}
	return y, mo, d, true
}

// parseClock parses HH:MM:SS with an optional fractional part. Seconds are
// required.
func parseClock(s string) (time.Time, bool) {
	if len(s) < 8 || s[2] != ':' || s[5] != ':' {
		return time.Time{}, false
	}
	h, ok1 := atoi(s[0:2])
	m, ok2 := atoi(s[3:5])
	sec, ok3 := atoi(s[6:8])
	if !ok1 || !ok2 || !ok3 || h > 23 || m > 59 || sec > 59 {
		return time.Time{}, false
	}
	nsec := 0
	if len(s) > 8 {
		if s[8] != '.' || len(s) == 9 {
			return time.Time{}, false
		}
		frac := s[9:]
		for i := 0; i < len(frac); i++ {
			if frac[i] < '0' || frac[i] > '9' {
				return time.Time{}, false
			}
		}
		if len(frac) > 9 {
			frac = frac[:9]
		}
		n, _ := atoi(frac)
		for i := len(frac); i < 9; i++ {
			n *= 10
		}
		nsec = n
	}
	return time.Date(1, 1, 1, h, m, sec, nsec, time.UTC), true
}

// splitOffset strips a trailing Z or ±HH:MM from a time expression and
// returns the matching location.
func splitOffset(s string) (timePart string, loc *time.Location, zoned, ok bool) {
	if n := len(s); n > 0 && (s[n-1] == 'Z' || s[n-1] == 'z') {
		return s[:n-1], time.UTC, true, true
	}
	if n := len(s); n >= 6 && (s[n-6] == '+' || s[n-6] == '-') && s[n-3] == ':' {
		h, ok1 := atoi(s[n-5 : n-3])
		m, ok2 := atoi(s[n-2:])
		if !ok1 || !ok2 || h > 23 || m > 59 {
			return "", nil, false, false
		}
		offset := (h*60 + m) * 60
		if s[n-6] == '-' {
			offset = -offset
		}
		name := s[n-6:]
		return s[:n-6], time.FixedZone(name, offset), true, true
	}
	return s, nil, false, true
}

func atoi(s string) (int, bool) {
	n := 0
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
	}
	return n, true
}

// =========================
// Array Values
// =========================

func parseArray(raw string) (Node, error) {
	if len(raw) < 2 || !strings.HasSuffix(raw, "]") {
		return nil, fmt.Errorf("%w: %q", ErrMalformedArray, raw)
	}
	inner := strings.TrimSpace(raw[1 : len(raw)-1])

	arr := &Array{}
	if inner == "" {
		return arr, nil
	}

	parts, err := splitTopLevel(inner)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedArray, err)
	}
	// A trailing comma leaves one empty tail element.
	if n := len(parts); n > 0 && strings.TrimSpace(parts[n-1]) == "" {
		parts = parts[:n-1]
	}

	var elemKind Kind
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("%w: empty element", ErrMalformedArray)
		}
		elem, err := parseValue(part)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			elemKind = elem.Kind()
		} else if elem.Kind() != elemKind {
			return nil, fmt.Errorf("%w: %q", ErrMixedArrayTypes, part)
		}
		arr.Elems = append(arr.Elems, elem)
	}
	return arr, nil
}

// splitTopLevel splits s on commas that sit outside strings, brackets and
// braces. Nested literals travel intact to the recursive parse.
func splitTopLevel(s string) ([]string, error) {
	var parts []string
	var cur strings.Builder
	var (
		bracket   int
		brace     int
		inBasic   bool
		inLiteral bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inBasic:
			if c == '\\' && i+1 < len(s) {
				cur.WriteByte(c)
				i++
				c = s[i]
			} else if c == '"' {
				inBasic = false
			}
		case inLiteral:
			if c == '\'' {
				inLiteral = false
			}
		case c == '"':
			inBasic = true
		case c == '\'':
			inLiteral = true
		case c == '[':
			bracket++
		case c == ']':
			bracket--
			if bracket < 0 {
				return nil, fmt.Errorf("unexpected ']'")
			}
		case c == '{':
			brace++
		case c == '}':
			brace--
			if brace < 0 {
				return nil, fmt.Errorf("unexpected '}'")
			}
		case c == ',' && bracket == 0 && brace == 0:
			parts = append(parts, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteByte(c)
	}
	if inBasic || inLiteral {
		return nil, fmt.Errorf("unterminated string")
	}
	if bracket != 0 || brace != 0 {
		return nil, fmt.Errorf("unbalanced delimiters")
	}
	parts = append(parts, cur.String())
	return parts, nil
}

// =========================
// Inline Tables
// =========================

// parseInlineTable parses {k1 = v1, k2 = v2}. Keys are flat: a dot inside an
// unquoted inline key is part of the key text, not a nesting operator.
func parseInlineTable(raw string) (Node, error) {
	if len(raw) < 2 || !strings.HasSuffix(raw, "}") {
		return nil, fmt.Errorf("%w: %q", ErrMalformedInlineTable, raw)
	}
	inner := strings.TrimSpace(raw[1 : len(raw)-1])

	t := NewTable()
	if inner == "" {
		return t, nil
	}

	parts, err := splitTopLevel(inner)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInlineTable, err)
	}
	for _, part := range parts {
		part = strings.TrimSpace(part)
		idx := strings.Index(part, "=")
		if idx < 0 {
			return nil, fmt.Errorf("%w: missing '=' in %q", ErrMalformedInlineTable, part)
		}
		key, err := inlineKey(strings.TrimSpace(part[:idx]))
		if err != nil {
			return nil, err
		}
		if key == "" {
			return nil, fmt.Errorf("%w: empty key in %q", ErrMalformedInlineTable, part)
		}
		if _, exists := t.Items[key]; exists {
			return nil, fmt.Errorf("%w: duplicate inline key %q", ErrKeyRedefinition, key)
		}
		v, err := parseValue(part[idx+1:])
		if err != nil {
			return nil, err
		}
		t.Items[key] = v
	}
	return t, nil
}

// inlineKey strips one matching pair of outer quotes from an inline-table
// key, decoding escapes for the basic form. A quote anywhere else in the key
// is malformed; it never silently vanishes.
func inlineKey(s string) (string, error) {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		inner := s[1 : len(s)-1]
		if s[0] == '"' {
			return decodeEscapes(inner)
		}
		return inner, nil
	}
	if strings.ContainsAny(s, `"'`) {
		return "", fmt.Errorf("%w: bad key %q", ErrMalformedInlineTable, s)
	}
	return s, nil
}
