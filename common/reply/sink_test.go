package reply

import (
	"io"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/mongodb/mongo-reply-tools/common/testutil"
)

func TestOnceSink(t *testing.T) {

	testutil.VerifyTestType(t, testutil.UnitTestType)

	Convey("With a OnceSink around a counting sink", t, func() {
		calls := 0
		var lastErr ClassifiedError
		once := NewOnceSink[person](SinkFunc[person](func(_ *QueryResult[person], err ClassifiedError) {
			calls++
			lastErr = err
		}))
		So(once.Fired(), ShouldBeFalse)

		Convey("only the first delivery should get through", func() {
			Deliver[person](once, Result[person]{Reply: &QueryResult[person]{}})
			Deliver[person](once, Result[person]{Err: &TransportError{Cause: io.EOF}})
			So(calls, ShouldEqual, 1)
			So(lastErr, ShouldBeNil)
			So(once.Fired(), ShouldBeTrue)
		})
	})
}
