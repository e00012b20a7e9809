package parse

// Package parse holds the first-generation TOML reader. It predates the
// parse/toml package: sections are flat (a [header] names one bucket, dots
// and all), values are scalars only, and arrays are not understood. It is
// retained for callers that still depend on that loose behavior; new code
// should use parse/toml.

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Document maps section names to their key/value pairs. Keys assigned before
// any [header] live in the "" section.
type Document map[string]Section

type Section map[string]any

// Get looks a key up in a named section.
func (d Document) Get(section, key string) (any, bool) {
	s, ok := d[section]
	if !ok {
		return nil, false
	}
	v, ok := s[key]
	return v, ok
}

// ParseToml reads flat TOML from r. A [header] line opens a section whose
// name is the literal text between the brackets; key = value lines fill the
// open section. Anything else is an error tagged with its line number.
func ParseToml(r io.Reader) (Document, error) {
	doc := Document{}
	cur := Section{}
	doc[""] = cur

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "" || strings.HasPrefix(line, "#"):
			continue

		case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
			name := strings.TrimSpace(line[1 : len(line)-1])
			if name == "" {
				return nil, errLine(lineNo, "empty section name")
			}
			if _, exists := doc[name]; !exists {
				doc[name] = Section{}
			}
			cur = doc[name]

		case strings.Contains(line, "="):
			idx := strings.Index(line, "=")
			key := strings.TrimSpace(line[:idx])
			if key == "" {
				return nil, errLine(lineNo, "empty key")
			}
			if _, exists := cur[key]; exists {
				return nil, errLine(lineNo, fmt.Sprintf("duplicate key %q", key))
			}
			v, err := scalar(strings.TrimSpace(line[idx+1:]))
			if err != nil {
				return nil, errLine(lineNo, err.Error())
			}
			cur[key] = v

		default:
			return nil, errLine(lineNo, "invalid syntax")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return doc, nil
}

func errLine(lineNo int, msg string) error {
	return fmt.Errorf("toml:%d: %s", lineNo, msg)
}

// scalar converts one right-hand side. Quoted text, booleans, RFC3339
// datetimes, integers and floats, in that order.
func scalar(s string) (any, error) {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1], nil
	}
	if s == "true" || s == "false" {
		return s == "true", nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, nil
	}
	return nil, errors.New("unsupported value")
}
