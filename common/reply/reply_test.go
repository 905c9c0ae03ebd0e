package reply

import (
	"errors"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
	"go.mongodb.org/mongo-driver/x/mongo/driver/wiremessage"

	"github.com/mongodb/mongo-reply-tools/common/testutil"
)

const testAddress = FixedAddress("db1.example.com:27017")

// testEnvelope builds an envelope around docs and counts its releases.
func testEnvelope(flags wiremessage.ReplyFlag, docs ...bsoncore.Document) (*Envelope, *int32) {
	var body []byte
	for _, doc := range docs {
		body = append(body, doc...)
	}
	releases := new(int32)
	header := Header{
		MessageLength:  int32(36 + len(body)),
		RequestID:      7,
		ResponseTo:     42,
		Flags:          flags,
		CursorID:       1234,
		StartingFrom:   3,
		NumberReturned: int32(len(docs)),
	}
	return NewEnvelope(header, body, func() { atomic.AddInt32(releases, 1) }), releases
}

type person struct {
	ID   int32  `bson:"_id"`
	Name string `bson:"name"`
}

// countingDecoder wraps BSONDecoder and counts its calls.
type countingDecoder struct {
	calls int32
	err   error
	panic interface{}
}

func (d *countingDecoder) Decode(doc []byte) (person, error) {
	atomic.AddInt32(&d.calls, 1)
	if d.panic != nil {
		panic(d.panic)
	}
	if d.err != nil {
		return person{}, d.err
	}
	return BSONDecoder[person]{}.Decode(doc)
}

var errBadPayload = errors.New("bad payload")

func namedDocs() []bsoncore.Document {
	return []bsoncore.Document{
		testutil.NamedDocument(1, "ada"),
		testutil.NamedDocument(2, "grace"),
	}
}
