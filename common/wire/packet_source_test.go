package wire

import (
	"bytes"
	"io"
	"net"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
	"go.mongodb.org/mongo-driver/x/mongo/driver/wiremessage"

	"github.com/mongodb/mongo-reply-tools/common/testutil"
)

// writeCapture builds a pcap stream out of segments.
func writeCapture(segments ...testutil.Segment) []byte {
	capture, err := testutil.WriteCapture(segments...)
	So(err, ShouldBeNil)
	return capture
}

func TestPacketSource(t *testing.T) {

	testutil.VerifyTestType(t, testutil.UnitTestType)

	server, client := net.IPv4(10, 0, 0, 1), net.IPv4(10, 0, 0, 2)
	fromServer := func(payload []byte) testutil.Segment {
		return testutil.Segment{SrcIP: server, DstIP: client, SrcPort: 27017, DstPort: 50000, Payload: payload}
	}
	fromClient := func(payload []byte) testutil.Segment {
		return testutil.Segment{SrcIP: client, DstIP: server, SrcPort: 50000, DstPort: 27017, Payload: payload}
	}

	Convey("With a capture of requests and replies", t, func() {
		first := testutil.MakeReply(testutil.ReplyFixture{
			ResponseTo: 1,
			Documents:  []bsoncore.Document{testutil.NamedDocument(1, "ada")},
		})
		second := testutil.MakeReply(testutil.ReplyFixture{
			ResponseTo: 2,
			Flags:      wiremessage.QueryFailure,
			Documents:  []bsoncore.Document{testutil.ErrorDocument("bad query", 2)},
		})
		request := testutil.MakeReply(testutil.ReplyFixture{RequestID: 1})
		request[12], request[13] = 0xd4, 0x07 // OP_QUERY

		capture := writeCapture(
			fromClient(request),
			// the first reply is split across two segments
			fromServer(first[:20]),
			fromServer(first[20:]),
			fromServer(second),
		)
		source, err := NewPacketSource(bytes.NewReader(capture), nil)
		So(err, ShouldBeNil)

		Convey("only the replies should come out, attributed to the server", func() {
			got, err := source.Next()
			So(err, ShouldBeNil)
			So(got.Envelope.Header.ResponseTo, ShouldEqual, 1)
			So(got.Source.String(), ShouldEqual, "10.0.0.1:27017")
			So(got.Envelope.Header.NumberReturned, ShouldEqual, 1)
			got.Envelope.Release()

			got, err = source.Next()
			So(err, ShouldBeNil)
			So(got.Envelope.Header.ResponseTo, ShouldEqual, 2)
			So(got.Envelope.Header.QueryFailure(), ShouldBeTrue)
			got.Envelope.Release()

			_, err = source.Next()
			So(err, ShouldEqual, io.EOF)
			So(source.Malformed, ShouldEqual, 0)
			So(source.Desynced, ShouldEqual, 0)
		})
	})

	Convey("A stream with a nonsense length prefix should be dropped", t, func() {
		garbage := make([]byte, MsgHeaderLen)
		garbage[0] = 1
		ok := testutil.MakeReply(testutil.ReplyFixture{ResponseTo: 3})
		capture := writeCapture(fromServer(garbage), testutil.Segment{SrcIP: server, DstIP: client, SrcPort: 27017, DstPort: 50001, Payload: ok})
		source, err := NewPacketSource(bytes.NewReader(capture), nil)
		So(err, ShouldBeNil)

		got, err := source.Next()
		So(err, ShouldBeNil)
		So(got.Envelope.Header.ResponseTo, ShouldEqual, 3)
		So(source.Desynced, ShouldEqual, 1)
		source.Release()
	})

	Convey("A reply too short for its fields should be counted as malformed", t, func() {
		short := testutil.MakeReply(testutil.ReplyFixture{})[:MsgHeaderLen+4]
		short[0] = byte(len(short))
		capture := writeCapture(fromServer(short))
		source, err := NewPacketSource(bytes.NewReader(capture), nil)
		So(err, ShouldBeNil)
		_, err = source.Next()
		So(err, ShouldEqual, io.EOF)
		So(source.Malformed, ShouldEqual, 1)
	})

	Convey("Input that is not a capture should be rejected", t, func() {
		_, err := NewPacketSource(bytes.NewReader([]byte("not a pcap file at all")), nil)
		So(err, ShouldNotBeNil)
	})
}
