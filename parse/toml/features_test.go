package toml

import (
	"math"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
)

func TestBasicDocument(t *testing.T) {
	convey.Convey("title, nested owner table and servers", t, func() {
		src := `
title = "TOML Example"

[owner]
name = "Tom Preston-Werner"
dob = 1979-05-27T07:32:00-08:00

[servers]

[servers.alpha]
ip = "10.0.0.1"
role = "frontend"

[servers.beta]
ip = "10.0.0.2"
role = "backend"
`
		root, err := Parse(src)
		convey.So(err, convey.ShouldBeNil)

		n, ok := Get(root, "title")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(MustString(n), convey.ShouldEqual, "TOML Example")

		name, ok := Get(root, "owner", "name")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(MustString(name), convey.ShouldEqual, "Tom Preston-Werner")

		dob, ok := Get(root, "owner", "dob")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(dob.Kind(), convey.ShouldEqual, KindDatetime)
		_, offset := dob.(*Value).V.(time.Time).Zone()
		convey.So(offset, convey.ShouldEqual, -8*3600)

		ip, ok := Get(root, "servers", "beta", "ip")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(MustString(ip), convey.ShouldEqual, "10.0.0.2")
	})
}

func TestArrayOfTables(t *testing.T) {
	convey.Convey("array of tables keeps order and stays separate", t, func() {
		src := `
[[products]]
name = "Hammer"
sku = 738594937

[[products]]
name = "Nails"
sku = 284758393
count = 100
`
		root, err := Parse(src)
		convey.So(err, convey.ShouldBeNil)
		n, ok := Get(root, "products")
		convey.So(ok, convey.ShouldBeTrue)
		arr := n.(*TableArray)
		convey.So(len(arr.Tables), convey.ShouldEqual, 2)
		convey.So(MustString(arr.Tables[0].Items["name"]), convey.ShouldEqual, "Hammer")
		convey.So(MustString(arr.Tables[1].Items["name"]), convey.ShouldEqual, "Nails")
		convey.So(MustInt(arr.Tables[1].Items["count"]), convey.ShouldEqual, 100)
		_, hasCount := arr.Tables[0].Items["count"]
		convey.So(hasCount, convey.ShouldBeFalse)
	})
}

func TestInlineTable(t *testing.T) {
	convey.Convey("inline table", t, func() {
		src := `owner = { name = "Tom", dob = 1979-05-27T07:32:00Z }`
		root, err := Parse(src)
		convey.So(err, convey.ShouldBeNil)
		n, ok := Get(root, "owner")
		convey.So(ok, convey.ShouldBeTrue)
		tbl := n.(*Table)
		convey.So(MustString(tbl.Items["name"]), convey.ShouldEqual, "Tom")
		convey.So(tbl.Items["dob"].Kind(), convey.ShouldEqual, KindDatetime)
	})

	convey.Convey("inline table rejects duplicate and bare entries", t, func() {
		_, err := Parse(`p = { x = 1, x = 2 }`)
		convey.So(errIs(err, ErrKeyRedefinition), convey.ShouldBeTrue)

		_, err = Parse(`p = { x }`)
		convey.So(errIs(err, ErrMalformedInlineTable), convey.ShouldBeTrue)
	})

	convey.Convey("inline keys unquote as a pair or not at all", t, func() {
		root, err := Parse(`p = { "a.b" = 1 }`)
		convey.So(err, convey.ShouldBeNil)
		n, ok := Get(root, "p", "a.b")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(MustInt(n), convey.ShouldEqual, 1)

		_, err = Parse(`p = { ''a = 1 }`)
		convey.So(errIs(err, ErrMalformedInlineTable), convey.ShouldBeTrue)
	})
}

func TestMultilineBasicString(t *testing.T) {
	convey.Convey("multiline basic string", t, func() {
		src := `desc = """first
second
third"""`
		root, err := Parse(src)
		convey.So(err, convey.ShouldBeNil)
		n, ok := Get(root, "desc")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(MustString(n), convey.ShouldEqual, "first\nsecond\nthird")
	})

	convey.Convey("backslash line-fold collapses the break and indentation", t, func() {
		src := `quote = """The quick brown \
       fox jumps."""`
		root, err := Parse(src)
		convey.So(err, convey.ShouldBeNil)
		n, _ := Get(root, "quote")
		convey.So(MustString(n), convey.ShouldEqual, "The quick brown fox jumps.")
	})

	convey.Convey("multiline literal string keeps content verbatim", t, func() {
		src := `re = '''I [dw]on't need \d{2} apples'''`
		root, err := Parse(src)
		convey.So(err, convey.ShouldBeNil)
		n, _ := Get(root, "re")
		convey.So(MustString(n), convey.ShouldEqual, `I [dw]on't need \d{2} apples`)
	})
}

func TestQuotedKeys(t *testing.T) {
	convey.Convey("quoted keys", t, func() {
		src := `"a.b" = 1
a.c = 2`
		root, err := Parse(src)
		convey.So(err, convey.ShouldBeNil)
		n, ok := Get(root, "a.b")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(MustInt(n), convey.ShouldEqual, 1)
		n2, ok2 := Get(root, "a", "c")
		convey.So(ok2, convey.ShouldBeTrue)
		convey.So(MustInt(n2), convey.ShouldEqual, 2)
	})

	convey.Convey("quoted table header segment keeps its dot", t, func() {
		src := `[dog."tater.man"]
type = "pug"`
		root, err := Parse(src)
		convey.So(err, convey.ShouldBeNil)
		n, ok := Get(root, "dog", "tater.man", "type")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(MustString(n), convey.ShouldEqual, "pug")
	})
}

func TestSpecialFloatsAndInts(t *testing.T) {
	convey.Convey("floats and ints with underscores and bases", t, func() {
		src := `
f1 = +inf
f2 = -inf
f3 = nan
i1 = 1_000
hex = 0xDEADBEEF
oct = 0o755
bin = 0b1010
`
		root, err := Parse(src)
		convey.So(err, convey.ShouldBeNil)
		f1, _ := Get(root, "f1")
		convey.So(f1.(*Value).V.(float64), convey.ShouldEqual, math.Inf(+1))
		f2, _ := Get(root, "f2")
		convey.So(f2.(*Value).V.(float64), convey.ShouldEqual, math.Inf(-1))
		f3, _ := Get(root, "f3")
		convey.So(math.IsNaN(f3.(*Value).V.(float64)), convey.ShouldBeTrue)
		i1, _ := Get(root, "i1")
		convey.So(MustInt(i1), convey.ShouldEqual, 1000)
		hex, _ := Get(root, "hex")
		convey.So(MustInt(hex), convey.ShouldEqual, 0xDEADBEEF)
		oct, _ := Get(root, "oct")
		convey.So(MustInt(oct), convey.ShouldEqual, 0o755)
		bin, _ := Get(root, "bin")
		convey.So(MustInt(bin), convey.ShouldEqual, 10)
	})
}

func TestMultilineArrayAndTrailingComma(t *testing.T) {
	convey.Convey("multiline array with trailing comma", t, func() {
		src := `
ports = [
  8001,
  8002,
]
`
		root, err := Parse(src)
		convey.So(err, convey.ShouldBeNil)
		n, ok := GetUntyped(root, "ports")
		convey.So(ok, convey.ShouldBeTrue)
		arr := n.([]any)
		convey.So(len(arr), convey.ShouldEqual, 2)
		convey.So(arr[0], convey.ShouldEqual, int64(8001))
		convey.So(arr[1], convey.ShouldEqual, int64(8002))
	})

	convey.Convey("nested arrays parse as array elements", t, func() {
		root, err := Parse(`data = [[1, 2], [3, 4]]`)
		convey.So(err, convey.ShouldBeNil)
		n, _ := GetUntyped(root, "data")
		arr := n.([]any)
		convey.So(len(arr), convey.ShouldEqual, 2)
		convey.So(arr[1].([]any)[0], convey.ShouldEqual, int64(3))
	})
}

func TestHomogeneity(t *testing.T) {
	convey.Convey("homogeneous arrays parse, mixed ones fail", t, func() {
		root, err := Parse(`x = [1, 2, 3]`)
		convey.So(err, convey.ShouldBeNil)
		n, _ := Get(root, "x")
		convey.So(len(n.(*Array).Elems), convey.ShouldEqual, 3)

		_, err = Parse(`x = [1, "a"]`)
		convey.So(errIs(err, ErrMixedArrayTypes), convey.ShouldBeTrue)
	})
}

func TestKeyRedefinition(t *testing.T) {
	convey.Convey("redefinitions fail", t, func() {
		_, err := Parse("[a]\n[a]")
		convey.So(errIs(err, ErrKeyRedefinition), convey.ShouldBeTrue)

		_, err = Parse("x = 1\nx = 2")
		convey.So(errIs(err, ErrKeyRedefinition), convey.ShouldBeTrue)

		_, err = Parse("x = 1\n[x]")
		convey.So(errIs(err, ErrKeyRedefinition), convey.ShouldBeTrue)

		_, err = Parse("x = 1\nx.y = 2")
		convey.So(errIs(err, ErrKeyRedefinition), convey.ShouldBeTrue)
	})
}

func TestDottedKeys(t *testing.T) {
	convey.Convey("dotted keys build intermediate tables under the open table", t, func() {
		src := `
[server]
net.ip = "10.0.0.1"
net.port = 8080
`
		root, err := Parse(src)
		convey.So(err, convey.ShouldBeNil)
		ip, ok := Get(root, "server", "net", "ip")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(MustString(ip), convey.ShouldEqual, "10.0.0.1")
		port, _ := Get(root, "server", "net", "port")
		convey.So(MustInt(port), convey.ShouldEqual, 8080)
	})
}

func TestCursorFollowsTableArray(t *testing.T) {
	convey.Convey("assignments after [[header]] land in the newest element", t, func() {
		src := `
[[fruit]]
name = "apple"

[fruit.physical]
color = "red"

[[fruit]]
name = "banana"
`
		root, err := Parse(src)
		convey.So(err, convey.ShouldBeNil)
		arr := mustNode(root, "fruit").(*TableArray)
		convey.So(len(arr.Tables), convey.ShouldEqual, 2)
		phys := arr.Tables[0].Items["physical"].(*Table)
		convey.So(MustString(phys.Items["color"]), convey.ShouldEqual, "red")
		convey.So(MustString(arr.Tables[1].Items["name"]), convey.ShouldEqual, "banana")
	})
}

func TestDatetimeForms(t *testing.T) {
	convey.Convey("local and zoned calendar values", t, func() {
		src := `
odt = 1979-05-27T07:32:00Z
ldt = 1979-05-27 07:32:00.999
ld = 1979-05-27
lt = 07:32:00
`
		root, err := Parse(src)
		convey.So(err, convey.ShouldBeNil)

		odt := mustNode(root, "odt")
		convey.So(odt.Kind(), convey.ShouldEqual, KindDatetime)

		ldt := mustNode(root, "ldt")
		convey.So(ldt.Kind(), convey.ShouldEqual, KindLocalDatetime)
		convey.So(ldt.(*Value).V.(time.Time).Nanosecond(), convey.ShouldEqual, 999000000)

		ld := mustNode(root, "ld")
		convey.So(ld.Kind(), convey.ShouldEqual, KindLocalDate)

		lt := mustNode(root, "lt")
		convey.So(lt.Kind(), convey.ShouldEqual, KindLocalTime)
		convey.So(lt.(*Value).V.(time.Time).Hour(), convey.ShouldEqual, 7)
	})
}

func TestEscapes(t *testing.T) {
	convey.Convey("escape decoding in basic strings", t, func() {
		root, err := Parse(`s = "a\tb\nc é \"q\""`)
		convey.So(err, convey.ShouldBeNil)
		convey.So(MustString(mustNode(root, "s")), convey.ShouldEqual, "a\tb\nc é \"q\"")

		_, err = Parse(`s = "bad \x escape"`)
		convey.So(errIs(err, ErrInvalidEscape), convey.ShouldBeTrue)
	})
}

func TestConcurrentParse(t *testing.T) {
	convey.Convey("independent calls share no state", t, func() {
		src := `
[a.b]
x = [1, 2, 3]
y = "text"
`
		done := make(chan error, 8)
		for i := 0; i < 8; i++ {
			go func() {
				for j := 0; j < 50; j++ {
					if _, err := Parse(src); err != nil {
						done <- err
						return
					}
				}
				done <- nil
			}()
		}
		for i := 0; i < 8; i++ {
			convey.So(<-done, convey.ShouldBeNil)
		}
	})
}

func mustNode(root *Table, path ...string) Node {
	n, ok := Get(root, path...)
	if !ok {
		panic("missing key: " + path[len(path)-1])
	}
	return n
}
