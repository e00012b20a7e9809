package toml

// toml 包实现了一个生产级的 TOML 解析器，具有强大的内部 AST、确定性语义和安全的解析后操作。
//
// 范围：
// - 嵌套表 / 表数组
// - 带引号段的点分键
// - 三种字符串风格、数组、内联表、日期时间
// - 确定性的分类错误
//
// 非目标：
// - 注释保留
// - 格式化往返
// - 序列化回 TOML 文本
//
// 解析是输入文本的纯函数：一次规范化扫描，一次按行装配，无共享状态。
// 不同的调用可以安全地并发执行。

import (
	"fmt"
	"strings"

	"github.com/dzjyyds666/tq/pkg"
)

// =========================
// AST Definitions
// =========================

type Kind uint8

const (
	KindTable Kind = iota
	KindTableArray
	KindArray
	KindString
	KindInt
	KindFloat
	KindBool
	KindDatetime
	KindLocalDate
	KindLocalTime
	KindLocalDatetime
)

// Node is the closed set of document node types: *Table, *TableArray,
// *Array, and *Value. Every node's role is known from its type; no container
// is ever reused for both the table and array roles.
type Node interface {
	Kind() Kind
}

// -------- Table --------

type Table struct {
	Items map[string]Node
}

func NewTable() *Table {
	return &Table{Items: make(map[string]Node)}
}

func (*Table) Kind() Kind { return KindTable }

// -------- TableArray --------

// TableArray is the array-of-tables node: an insertion-ordered sequence of
// tables sharing one [[header]] path. Each [[header]] occurrence appends a
// fresh element; elements are never merged.
type TableArray struct {
	Tables []*Table
}

func (*TableArray) Kind() Kind { return KindTableArray }

// -------- Array --------

// Array is an array value ([1, 2, 3]).
type Array struct {
	Elems []Node
}

func (*Array) Kind() Kind { return KindArray }

// -------- Value --------

// Value is a scalar: Type selects the variant, V holds string, int64,
// float64, bool, or time.Time.
type Value struct {
	Type Kind
	V    any
}

func (v *Value) Kind() Kind { return v.Type }

// =========================
// Public API
// =========================

// Parse parses TOML text and returns the root table. On any malformed input
// it fails with an error wrapping one of the package sentinels; no partial
// document is ever returned.
func Parse(src string) (*Table, error) {
	clean, lineMap, err := normalize(src)
	if err != nil {
		return nil, err
	}

	b := &builder{
		lines:    strings.Split(clean, "\n"),
		srcLines: lineMap,
		root:     NewTable(),
	}
	b.cur.root = b.root

	if err := b.run(); err != nil {
		return nil, err
	}
	return b.root, nil
}

// ParseFile reads the file at path, strips a leading UTF-8 byte-order mark,
// and parses the contents. A path that is not a readable regular file fails
// with an error wrapping ErrFileAccess.
func ParseFile(path string) (*Table, error) {
	text, err := pkg.ReadTextFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFileAccess, path, err)
	}
	return Parse(text)
}

// =========================
// Document Builder
// =========================

// builder drives the line loop. The cursor is path-based: it records the key
// path of the table currently receiving assignments and re-resolves it from
// the root on use, so no long-lived reference into the tree exists.
type builder struct {
	lines    []string
	srcLines []int // source line each normalized line starts on
	i        int
	root     *Table
	cur      cursor
}

// lineAt translates a normalized line index back to its source line, so that
// errors point at the input even after the normalizer elided breaks inside
// arrays or folded them inside multi-line strings.
func (b *builder) lineAt(i int) int {
	if i < len(b.srcLines) {
		return b.srcLines[i]
	}
	return i + 1
}

type cursor struct {
	root *Table
	path []string
}

func (c *cursor) set(path []string) {
	c.path = append(c.path[:0], path...)
}

// table re-resolves the cursor path from the root, stepping into the newest
// element wherever the path crosses a table array.
func (c *cursor) table() (*Table, error) {
	t := c.root
	for _, seg := range c.path {
		switch n := t.Items[seg].(type) {
		case *Table:
			t = n
		case *TableArray:
			t = n.Tables[len(n.Tables)-1]
		default:
			return nil, fmt.Errorf("%w: key %q already defined and is not a table", ErrKeyRedefinition, seg)
		}
	}
	return t, nil
}

func (b *builder) run() error {
	for b.i = 0; b.i < len(b.lines); b.i++ {
		line := strings.TrimSpace(b.lines[b.i])
		lineNo := b.lineAt(b.i)

		var err error
		switch {
		case line == "" || strings.HasPrefix(line, "#"):
			continue
		case strings.HasPrefix(line, "[[") && strings.HasSuffix(line, "]]"):
			err = b.openTableArray(line[2 : len(line)-2])
		case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
			err = b.openTable(line[1 : len(line)-1])
		case strings.HasPrefix(line, "["):
			err = fmt.Errorf("%w: table headers must appear alone on a line", ErrSyntax)
		case strings.Contains(line, "="):
			err = b.assign(line)
		default:
			err = fmt.Errorf("%w: %q", ErrSyntax, line)
		}
		if err != nil {
			return errAt(lineNo, err)
		}
	}
	return nil
}

// descend returns the table child named seg of t, creating it when absent
// and stepping into the newest element when the child is a table array.
func descend(t *Table, seg string) (*Table, error) {
	switch n := t.Items[seg].(type) {
	case nil:
		next := NewTable()
		t.Items[seg] = next
		return next, nil
	case *Table:
		return n, nil
	case *TableArray:
		return n.Tables[len(n.Tables)-1], nil
	default:
		return nil, fmt.Errorf("%w: key %q already defined and is not a table", ErrKeyRedefinition, seg)
	}
}

func (b *builder) openTable(name string) error {
	segs, err := headerSegments(name)
	if err != nil {
		return err
	}

	t := b.root
	for _, seg := range segs[:len(segs)-1] {
		if t, err = descend(t, seg); err != nil {
			return err
		}
	}

	last := segs[len(segs)-1]
	if _, exists := t.Items[last]; exists {
		return fmt.Errorf("%w: table %q", ErrKeyRedefinition, strings.Join(segs, "."))
	}
	t.Items[last] = NewTable()

	b.cur.set(segs)
	return nil
}

func (b *builder) openTableArray(name string) error {
	segs, err := headerSegments(name)
	if err != nil {
		return err
	}

	t := b.root
	for _, seg := range segs[:len(segs)-1] {
		if t, err = descend(t, seg); err != nil {
			return err
		}
	}

	last := segs[len(segs)-1]
	var arr *TableArray
	switch n := t.Items[last].(type) {
	case nil:
		arr = &TableArray{}
		t.Items[last] = arr
	case *TableArray:
		arr = n
	default:
		return fmt.Errorf("%w: key %q already defined and is not an array of tables", ErrKeyRedefinition, last)
	}
	arr.Tables = append(arr.Tables, NewTable())

	b.cur.set(segs)
	return nil
}

func (b *builder) assign(line string) error {
	idx := strings.Index(line, "=")
	rawKey := strings.TrimSpace(line[:idx])
	rawVal := strings.TrimSpace(line[idx+1:])

	full, err := b.completeValue(rawVal)
	if err != nil {
		return err
	}

	target, leaf, err := b.resolveKey(rawKey)
	if err != nil {
		return err
	}
	if _, exists := target.Items[leaf]; exists {
		return fmt.Errorf("%w: duplicate key %q", ErrKeyRedefinition, leaf)
	}

	v, err := parseValue(full)
	if err != nil {
		return err
	}
	target.Items[leaf] = v
	return nil
}

// completeValue joins continuation lines when a value opens a multi-line
// string without closing it on the same line. It returns the joined text and
// advances the builder's line index past the consumed lines.
func (b *builder) completeValue(raw string) (string, error) {
	for _, delim := range []string{`"""`, "'''"} {
		if !strings.HasPrefix(raw, delim) {
			continue
		}
		if len(raw) >= 6 && strings.HasSuffix(raw, delim) {
			return raw, nil
		}
		joined, n, ok := consumeUntil(b.lines[b.i+1:], delim)
		if !ok {
			return "", fmt.Errorf("%w: multi-line string", ErrUnterminatedString)
		}
		b.i += n
		return raw + "\n" + joined, nil
	}
	return raw, nil
}

// consumeUntil joins lines up to and including the first one containing sep,
// returning the joined text and the number of lines consumed.
func consumeUntil(lines []string, sep string) (string, int, bool) {
	var joined strings.Builder
	for n, l := range lines {
		if n > 0 {
			joined.WriteByte('\n')
		}
		joined.WriteString(l)
		if strings.Contains(l, sep) {
			return joined.String(), n + 1, true
		}
	}
	return "", 0, false
}

// resolveKey walks a possibly dotted key expression from the cursor's table,
// creating intermediate tables on demand, and returns the table that will
// hold the leaf together with the leaf key. Quote characters delimit
// segments, so a quoted segment may contain literal dots.
func (b *builder) resolveKey(raw string) (*Table, string, error) {
	t, err := b.cur.table()
	if err != nil {
		return nil, "", err
	}

	var segs []string
	var cur strings.Builder
	inBasic, inLiteral := false, false
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		switch {
		case inBasic:
			if ch == '"' {
				inBasic = false
				continue
			}
			cur.WriteByte(ch)
		case inLiteral:
			if ch == '\'' {
				inLiteral = false
				continue
			}
			cur.WriteByte(ch)
		case ch == '"':
			inBasic = true
		case ch == '\'':
			inLiteral = true
		case ch == '.':
			segs = append(segs, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	if inBasic || inLiteral {
		return nil, "", fmt.Errorf("%w: unterminated quoted key %q", ErrSyntax, raw)
	}
	segs = append(segs, strings.TrimSpace(cur.String()))

	for _, seg := range segs {
		if seg == "" {
			return nil, "", fmt.Errorf("%w: empty key in %q", ErrSyntax, raw)
		}
	}

	for _, seg := range segs[:len(segs)-1] {
		switch n := t.Items[seg].(type) {
		case nil:
			next := NewTable()
			t.Items[seg] = next
			t = next
		case *Table:
			t = n
		default:
			return nil, "", fmt.Errorf("%w: key %q already defined and is not a table", ErrKeyRedefinition, seg)
		}
	}
	return t, segs[len(segs)-1], nil
}

// =========================
// Table Name Resolution
// =========================

// splitTableName splits a header's inner name on unquoted dots and returns
// the raw segments; decoding and validation are the caller's job.
func splitTableName(name string) []string {
	var segs []string
	var cur strings.Builder
	quote := byte(0)
	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
			cur.WriteByte(ch)
		case ch == '"' || ch == '\'':
			quote = ch
			cur.WriteByte(ch)
		case ch == '.':
			segs = append(segs, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	segs = append(segs, cur.String())
	return segs
}

func headerSegments(name string) ([]string, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: [%s]", ErrEmptyTableKey, name)
	}
	raw := splitTableName(name)
	segs := make([]string, 0, len(raw))
	for _, r := range raw {
		seg, err := decodeSegment(strings.TrimSpace(r))
		if err != nil {
			return nil, err
		}
		segs = append(segs, seg)
	}
	return segs, nil
}

// decodeSegment validates one header segment: a quoted name is decoded, a
// bare name may contain only letters, digits, '-' and '_'.
func decodeSegment(s string) (string, error) {
	if s == "" {
		return "", ErrEmptyTableKey
	}
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		inner := s[1 : len(s)-1]
		if inner == "" {
			return "", ErrEmptyTableKey
		}
		if s[0] == '"' {
			return decodeEscapes(inner)
		}
		return inner, nil
	}
	for i := 0; i < len(s); i++ {
		if !isBareKeyChar(s[i]) {
			return "", fmt.Errorf("%w: %q", ErrInvalidTableName, s)
		}
	}
	return s, nil
}

func isBareKeyChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' || c == '-' || c == '_'
}

// =========================
// Safe Access Helpers
// =========================

func Get(root *Table, path ...string) (Node, bool) {
	var cur Node = root
	for _, p := range path {
		if len(p) == 0 {
			continue
		}
		t, ok := cur.(*Table)
		if !ok {
			return nil, false
		}
		cur, ok = t.Items[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func GetUntyped(root *Table, path ...string) (any, bool) {
	n, ok := Get(root, path...)
	if !ok {
		return nil, false
	}
	return ToUntyped(n), true
}

// ToUntyped converts a node to plain Go values: maps, slices, and scalars.
func ToUntyped(n Node) any {
	switch v := n.(type) {
	case *Value:
		return v.V
	case *Array:
		out := make([]any, len(v.Elems))
		for i := range v.Elems {
			out[i] = ToUntyped(v.Elems[i])
		}
		return out
	case *TableArray:
		out := make([]any, len(v.Tables))
		for i := range v.Tables {
			out[i] = ToUntyped(v.Tables[i])
		}
		return out
	case *Table:
		m := make(map[string]any, len(v.Items))
		for k, child := range v.Items {
			m[k] = ToUntyped(child)
		}
		return m
	default:
		return nil
	}
}

func MustString(n Node) string {
	v := n.(*Value)
	return v.V.(string)
}

func MustInt(n Node) int64 {
	v := n.(*Value)
	return v.V.(int64)
}
