package reply

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"

	"github.com/mongodb/mongo-reply-tools/common/testutil"
)

func TestDecodeDocuments(t *testing.T) {

	testutil.VerifyTestType(t, testutil.UnitTestType)

	Convey("With a reply holding two documents", t, func() {
		env, _ := testEnvelope(0, namedDocs()...)

		Convey("a BSONDecoder should decode them in order", func() {
			people, err := DecodeDocuments[person](env, BSONDecoder[person]{})
			So(err, ShouldBeNil)
			So(people, ShouldResemble, []person{{1, "ada"}, {2, "grace"}})
		})

		Convey("the generic document decoder should decode them too", func() {
			docs, err := DecodeDocuments(env, DocumentDecoder)
			So(err, ShouldBeNil)
			So(len(docs), ShouldEqual, 2)
			So(docs[1]["name"], ShouldEqual, "grace")
		})

		Convey("a failing decoder should report the failing index", func() {
			calls := 0
			dec := DecoderFunc[person](func(doc []byte) (person, error) {
				calls++
				if calls == 2 {
					return person{}, errBadPayload
				}
				return BSONDecoder[person]{}.Decode(doc)
			})
			_, err := DecodeDocuments[person](env, dec)
			var decodeErr *DecodeError
			So(errors.As(err, &decodeErr), ShouldBeTrue)
			So(decodeErr.Index, ShouldEqual, 1)
			So(errors.Is(err, errBadPayload), ShouldBeTrue)
		})
	})

	Convey("A reply with no documents decodes to an empty list", t, func() {
		env, _ := testEnvelope(0)
		people, err := DecodeDocuments[person](env, BSONDecoder[person]{})
		So(err, ShouldBeNil)
		So(people, ShouldBeEmpty)
	})

	Convey("A document count that disagrees with the header is an error", t, func() {
		env, _ := testEnvelope(0, namedDocs()...)
		env.Header.NumberReturned = 3
		_, err := DecodeDocuments[person](env, BSONDecoder[person]{})
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "NumberReturned")
	})

	Convey("A negative document count is an error", t, func() {
		env, _ := testEnvelope(0, namedDocs()...)
		env.Header.NumberReturned = -1
		_, err := DecodeDocuments[person](env, BSONDecoder[person]{})
		So(err, ShouldNotBeNil)
	})

	Convey("Trailing bytes that are not a document are an error", t, func() {
		docs := namedDocs()
		body := append(append([]byte{}, docs[0]...), docs[1][:6]...)
		env := NewEnvelope(Header{NumberReturned: 2}, body, nil)
		_, err := DecodeDocuments[person](env, BSONDecoder[person]{})
		var decodeErr *DecodeError
		So(errors.As(err, &decodeErr), ShouldBeTrue)
		So(decodeErr.Index, ShouldEqual, 1)
	})

	Convey("A type mismatch is reported by the BSONDecoder", t, func() {
		doc := bsoncore.NewDocumentBuilder().AppendString("_id", "not a number").Build()
		env, _ := testEnvelope(0, doc)
		_, err := DecodeDocuments[person](env, BSONDecoder[person]{})
		So(err, ShouldNotBeNil)
	})
}
