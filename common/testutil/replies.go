package testutil

import (
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
	"go.mongodb.org/mongo-driver/x/mongo/driver/wiremessage"
)

// ReplyFixture describes an OP_REPLY message to build with MakeReply.
type ReplyFixture struct {
	RequestID    int32
	ResponseTo   int32
	Flags        wiremessage.ReplyFlag
	CursorID     int64
	StartingFrom int32
	Documents    []bsoncore.Document

	// NumberReturned overrides the document count written to the reply
	// when non-nil.
	NumberReturned *int32
}

// MakeReply returns the full wire bytes of the reply described by f.
func MakeReply(f ReplyFixture) []byte {
	idx, dst := wiremessage.AppendHeaderStart(nil, f.RequestID, f.ResponseTo, wiremessage.OpReply)
	dst = wiremessage.AppendReplyFlags(dst, f.Flags)
	dst = wiremessage.AppendReplyCursorID(dst, f.CursorID)
	dst = wiremessage.AppendReplyStartingFrom(dst, f.StartingFrom)
	numberReturned := int32(len(f.Documents))
	if f.NumberReturned != nil {
		numberReturned = *f.NumberReturned
	}
	dst = wiremessage.AppendReplyNumberReturned(dst, numberReturned)
	for _, doc := range f.Documents {
		dst = append(dst, doc...)
	}
	return bsoncore.UpdateLength(dst, idx, int32(len(dst[idx:])))
}

// ErrorDocument builds the document a server sends back with a query
// failure.
func ErrorDocument(msg string, code int32) bsoncore.Document {
	return bsoncore.NewDocumentBuilder().
		AppendString("$err", msg).
		AppendInt32("code", code).
		Build()
}

// NamedDocument builds a small {_id, name} document.
func NamedDocument(id int32, name string) bsoncore.Document {
	return bsoncore.NewDocumentBuilder().
		AppendInt32("_id", id).
		AppendString("name", name).
		Build()
}

// Int32Ptr is a helper for ReplyFixture.NumberReturned.
func Int32Ptr(i int32) *int32 {
	return &i
}
