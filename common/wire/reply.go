// Package wire frames OP_REPLY messages off a byte stream or a packet
// capture and hands them out as reply envelopes.
package wire

import (
	"fmt"

	"go.mongodb.org/mongo-driver/x/mongo/driver/wiremessage"

	"github.com/mongodb/mongo-reply-tools/common/reply"
)

const (
	// MsgHeaderLen is the message header length in bytes
	MsgHeaderLen = 16

	// ReplyPrefixLen is the header plus the fixed OP_REPLY fields: flags,
	// cursor id, starting-from and number-returned.
	ReplyPrefixLen = MsgHeaderLen + 20

	// MaxMessageSize is the maximum message size as defined in the server
	MaxMessageSize = 48 * 1000 * 1000
)

// ParseReply parses one complete OP_REPLY message. On success the returned
// envelope owns msg and calls release when it is released; on failure the
// caller keeps ownership of msg.
func ParseReply(msg []byte, release func()) (*reply.Envelope, error) {
	length, requestID, responseTo, opcode, rem, ok := wiremessage.ReadHeader(msg)
	if !ok {
		return nil, fmt.Errorf("wire message of %v bytes is too short for a header", len(msg))
	}
	if opcode != wiremessage.OpReply {
		return nil, fmt.Errorf("unexpected op code %v (%d), expected OP_REPLY", opcode, int32(opcode))
	}
	if int(length) != len(msg) {
		return nil, fmt.Errorf("header message length %v does not match the %v bytes received", length, len(msg))
	}
	if length < ReplyPrefixLen {
		return nil, fmt.Errorf("expected OP_REPLY to have at least %d bytes but was %d bytes", ReplyPrefixLen, length)
	}

	header := reply.Header{
		MessageLength: length,
		RequestID:     requestID,
		ResponseTo:    responseTo,
	}
	// the length check above guarantees the fixed fields are present
	header.Flags, rem, _ = wiremessage.ReadReplyFlags(rem)
	header.CursorID, rem, _ = wiremessage.ReadReplyCursorID(rem)
	header.StartingFrom, rem, _ = wiremessage.ReadReplyStartingFrom(rem)
	header.NumberReturned, rem, _ = wiremessage.ReadReplyNumberReturned(rem)

	return reply.NewEnvelope(header, rem, release), nil
}
