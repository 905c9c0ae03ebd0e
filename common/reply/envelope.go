// Package reply turns the raw bytes of one OP_REPLY into exactly one typed
// result or classified error and hands it to a single-shot sink.
//
// The transport hands a received reply to the package as an *Envelope. The
// envelope owns the reply's buffer until it is released, and resolution
// always releases it, whichever way the reply turns out.
package reply

import (
	"fmt"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/x/mongo/driver/wiremessage"
)

// Header holds the parsed fixed-size fields of an OP_REPLY.
type Header struct {
	// MessageLength is the total message size, including the header
	MessageLength int32
	// RequestID is the identifier the server gave this message
	RequestID int32
	// ResponseTo is the RequestID of the request being answered
	ResponseTo int32

	Flags          wiremessage.ReplyFlag
	CursorID       int64
	StartingFrom   int32
	NumberReturned int32
}

// QueryFailure reports whether the server flagged the reply as a failed query.
func (h Header) QueryFailure() bool {
	return h.Flags&wiremessage.QueryFailure == wiremessage.QueryFailure
}

// String returns a string representation of the header.
// Useful for debugging.
func (h Header) String() string {
	return fmt.Sprintf(
		"reqID:%d respTo:%d msgLen:%d flags:%s cursorID:%d startingFrom:%d numberReturned:%d",
		h.RequestID,
		h.ResponseTo,
		h.MessageLength,
		h.Flags,
		h.CursorID,
		h.StartingFrom,
		h.NumberReturned,
	)
}

// Envelope is one received reply: its header and the bytes of the documents
// that follow it. An Envelope must be released exactly once, after which its
// body must not be read.
type Envelope struct {
	Header Header

	body     []byte
	release  func()
	released int32
}

// NewEnvelope wraps a reply body. release is called once when the envelope
// is released and may be nil when the body does not need to be recycled.
func NewEnvelope(header Header, body []byte, release func()) *Envelope {
	return &Envelope{
		Header:  header,
		body:    body,
		release: release,
	}
}

// Body returns the documents section of the reply. It panics if the
// envelope has been released.
func (e *Envelope) Body() []byte {
	if e.Released() {
		panic(fmt.Sprintf("read of released reply envelope (responseTo %d)", e.Header.ResponseTo))
	}
	return e.body
}

// Release hands the reply's buffer back to its owner. Releasing an envelope
// twice is a programming error and panics.
func (e *Envelope) Release() {
	if !atomic.CompareAndSwapInt32(&e.released, 0, 1) {
		panic(fmt.Sprintf("reply envelope released twice (responseTo %d)", e.Header.ResponseTo))
	}
	e.body = nil
	if e.release != nil {
		e.release()
	}
}

// Released reports whether Release has been called.
func (e *Envelope) Released() bool {
	return atomic.LoadInt32(&e.released) == 1
}
