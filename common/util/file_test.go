package util

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestOpenInputFile(t *testing.T) {
	Convey("With a file on disk", t, func() {
		dir, err := ioutil.TempDir("", "util")
		So(err, ShouldBeNil)
		defer os.RemoveAll(dir)
		path := filepath.Join(dir, "reply.bin")
		So(ioutil.WriteFile(path, []byte("abc"), 0644), ShouldBeNil)

		Convey("opening it should return its contents", func() {
			in, err := OpenInputFile(path)
			So(err, ShouldBeNil)
			defer in.Close()
			data, err := ioutil.ReadAll(in)
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, "abc")
		})

		Convey("opening a missing file should fail", func() {
			_, err := OpenInputFile(filepath.Join(dir, "missing"))
			So(err, ShouldNotBeNil)
		})
	})

	Convey("A blank path or a dash should mean stdin", t, func() {
		for _, path := range []string{"", "-"} {
			in, err := OpenInputFile(path)
			So(err, ShouldBeNil)
			So(in, ShouldNotBeNil)
		}
	})
}
