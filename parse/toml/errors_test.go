package toml

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func errIs(err, target error) bool { return errors.Is(err, target) }

func TestErrorClassification(t *testing.T) {
	convey.Convey("every failure wraps exactly one sentinel", t, func() {
		cases := map[string]error{
			"x =":              ErrEmptyValue,
			"x = ???":          ErrUnknownValueType,
			"[]":               ErrEmptyTableKey,
			"[a..b]":           ErrEmptyTableKey,
			"[a b]":            ErrInvalidTableName,
			"just some text":   ErrSyntax,
			"x = [1, 2,, 3]":   ErrMalformedArray,
			"x = { a = 1, b }": ErrMalformedInlineTable,
		}
		for src, want := range cases {
			_, err := Parse(src)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(errors.Is(err, want), convey.ShouldBeTrue)
		}
	})
}

func TestParseFile(t *testing.T) {
	convey.Convey("ParseFile reads, strips the BOM and parses", t, func() {
		path := filepath.Join(t.TempDir(), "conf.toml")
		src := "\xef\xbb\xbftitle = \"hello\"\n"
		convey.So(os.WriteFile(path, []byte(src), 0o644), convey.ShouldBeNil)

		root, err := ParseFile(path)
		convey.So(err, convey.ShouldBeNil)
		n, ok := Get(root, "title")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(MustString(n), convey.ShouldEqual, "hello")
	})

	convey.Convey("a missing path reports a file access failure", t, func() {
		_, err := ParseFile(filepath.Join(t.TempDir(), "nope.toml"))
		convey.So(err, convey.ShouldNotBeNil)
		convey.So(errors.Is(err, ErrFileAccess), convey.ShouldBeTrue)
	})

	convey.Convey("a directory is not a parseable file", t, func() {
		_, err := ParseFile(t.TempDir())
		convey.So(errors.Is(err, ErrFileAccess), convey.ShouldBeTrue)
	})
}
