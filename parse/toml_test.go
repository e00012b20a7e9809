package parse

import (
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestParseTomlFlat(t *testing.T) {
	convey.Convey("flat sections and scalars", t, func() {
		src := `
# top-level pair
title = "demo"

[database]
host = "127.0.0.1"
port = 5432
timeout = 2.5
enabled = true
started = 2024-01-02T03:04:05Z
`
		doc, err := ParseToml(strings.NewReader(src))
		convey.So(err, convey.ShouldBeNil)

		v, ok := doc.Get("", "title")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(v, convey.ShouldEqual, "demo")

		port, _ := doc.Get("database", "port")
		convey.So(port, convey.ShouldEqual, int64(5432))
		enabled, _ := doc.Get("database", "enabled")
		convey.So(enabled, convey.ShouldEqual, true)
	})

	convey.Convey("dotted headers stay literal", t, func() {
		doc, err := ParseToml(strings.NewReader("[a.b]\nx = 1"))
		convey.So(err, convey.ShouldBeNil)
		v, ok := doc.Get("a.b", "x")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(v, convey.ShouldEqual, int64(1))
	})

	convey.Convey("bad lines fail with the line number", t, func() {
		_, err := ParseToml(strings.NewReader("a = 1\nnot a pair"))
		convey.So(err, convey.ShouldNotBeNil)
		convey.So(err.Error(), convey.ShouldStartWith, "toml:2:")

		_, err = ParseToml(strings.NewReader("a = 1\na = 2"))
		convey.So(err, convey.ShouldNotBeNil)
	})
}
