package log

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

type verbosity struct {
	level int
	quiet bool
}

func (v verbosity) Level() int    { return v.level }
func (v verbosity) IsQuiet() bool { return v.quiet }

func TestBasicToolLoggerFunctionality(t *testing.T) {
	var tl *ToolLogger

	oldTime := time.Now().Truncate(time.Millisecond)
	// sleep to avoid failures due to low timestamp resolution
	time.Sleep(time.Millisecond)

	Convey("With a new ToolLogger", t, func() {
		tl = NewToolLogger(verbosity{level: 3})
		So(tl, ShouldNotBeNil)
		So(tl.writer, ShouldNotBeNil)
		So(tl.verbosity, ShouldEqual, 3)

		Convey("writing a negative verbosity should panic", func() {
			So(func() { tl.Logvf(-1, "nope") }, ShouldPanic)
			So(func() { tl.Logv(-1, "nope") }, ShouldPanic)
		})

		Convey("writing the output to a buffer", func() {
			buf := &bytes.Buffer{}
			tl.SetWriter(buf)

			Convey("with Logvfs of various verbosity levels", func() {
				tl.Logvf(0, "test this string")
				tl.Logvf(5, "this log level is too high and will not log")
				tl.Logvf(1, "====!%v!====", 12.5)

				Convey("only messages of low enough verbosity should be written", func() {
					l1, _ := buf.ReadString('\n')
					So(l1, ShouldContainSubstring, "test this string")
					l2, _ := buf.ReadString('\n')
					So(l2, ShouldContainSubstring, "====!12.5!====")
					_, err := buf.ReadString('\n')
					So(err, ShouldNotBeNil)

					Convey("and contain a proper timestamp", func() {
						So(l2, ShouldContainSubstring, "\t")
						timestamp := l2[:strings.Index(l2, "\t")]
						parsedTime, err := time.Parse(ToolTimeFormat, timestamp)
						So(err, ShouldBeNil)
						So(parsedTime, ShouldHappenOnOrAfter, oldTime)
					})
				})
			})
		})

		Convey("a quiet verbosity should silence everything", func() {
			buf := &bytes.Buffer{}
			tl.SetWriter(buf)
			tl.SetVerbosity(verbosity{level: 3, quiet: true})
			tl.Logv(Always, "hidden")
			So(buf.Len(), ShouldEqual, 0)
		})
	})
}

func TestGlobalToolLoggerFunctionality(t *testing.T) {
	Convey("With the global ToolLogger", t, func() {
		So(globalToolLogger, ShouldNotBeNil)

		Convey("actions shouldn't panic", func() {
			So(func() { SetVerbosity(verbosity{quiet: true}) }, ShouldNotPanic)
			So(func() { Logvf(0, "woooo") }, ShouldNotPanic)
			So(func() { SetDateFormat(ToolTimeFormat) }, ShouldNotPanic)
			So(func() { SetWriter(os.Stderr) }, ShouldNotPanic)
			So(IsInVerbosity(Always), ShouldBeFalse)
			So(func() { SetVerbosity(nil) }, ShouldNotPanic)
			So(IsInVerbosity(Always), ShouldBeTrue)
		})
	})
}

func TestToolLoggerWriter(t *testing.T) {
	Convey("With a tool logger that writes to a buffer", t, func() {
		buff := &bytes.Buffer{}
		tl := NewToolLogger(verbosity{level: 3})
		tl.SetWriter(buff)

		Convey("writing using a ToolLogWriter", func() {
			tlw := tl.Writer(0)
			_, err := tlw.Write([]byte("One"))
			So(err, ShouldBeNil)
			_, err = tlw.Write([]byte("Two"))
			So(err, ShouldBeNil)

			Convey("the messages should appear in the buffer", func() {
				results := buff.String()
				So(results, ShouldContainSubstring, "One")
				So(results, ShouldContainSubstring, "Two")
			})
		})

		Convey("but with a log writer of too high verbosity", func() {
			tlw2 := tl.Writer(1776)
			_, err := tlw2.Write([]byte("nothing to see here"))
			So(err, ShouldBeNil)

			Convey("nothing should be written", func() {
				So(buff.String(), ShouldNotContainSubstring, "nothing")
			})
		})
	})
}
