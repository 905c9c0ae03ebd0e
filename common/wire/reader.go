package wire

import (
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/x/mongo/driver/wiremessage"

	"github.com/mongodb/mongo-reply-tools/common/log"
	"github.com/mongodb/mongo-reply-tools/common/pool"
	"github.com/mongodb/mongo-reply-tools/common/reply"
)

// DefaultBufferSize is the size of pooled reply buffers; larger replies get
// their own allocation.
const DefaultBufferSize = 64 * 1024

// Reader reads successive OP_REPLY messages from a stream, such as a file
// of replies written back to back.
type Reader struct {
	r    io.Reader
	pool *pool.BufferPool
	read int
}

// NewReader returns a Reader drawing reply buffers from bp. A nil bp gets a
// pool of DefaultBufferSize buffers.
func NewReader(r io.Reader, bp *pool.BufferPool) *Reader {
	if bp == nil {
		bp = pool.NewBufferPool(DefaultBufferSize)
	}
	return &Reader{r: r, pool: bp}
}

// Next returns the next reply in the stream, or io.EOF once the stream ends
// cleanly between messages. Any other error leaves the stream unusable.
func (r *Reader) Next() (*reply.Envelope, error) {
	var head [MsgHeaderLen]byte
	if _, err := io.ReadFull(r.r, head[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("error reading header of reply %v: %v", r.read, err)
	}

	length, _, _, _, _, _ := wiremessage.ReadHeader(head[:])
	if length < ReplyPrefixLen || length > MaxMessageSize {
		return nil, fmt.Errorf("invalid message length %v for reply %v", length, r.read)
	}

	buf := r.pool.GetSized(int(length))
	copy(buf, head[:])
	if _, err := io.ReadFull(r.r, buf[MsgHeaderLen:]); err != nil {
		r.pool.PutSized(buf)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("truncated reply %v: expected %v bytes", r.read, length)
		}
		return nil, fmt.Errorf("error reading reply %v: %v", r.read, err)
	}

	env, err := ParseReply(buf, func() { r.pool.PutSized(buf) })
	if err != nil {
		r.pool.PutSized(buf)
		return nil, fmt.Errorf("error parsing reply %v: %v", r.read, err)
	}
	log.Logvf(log.DebugHigh, "read reply %v: %v", r.read, env.Header)
	r.read++
	return env, nil
}

// Read reports how many replies have been returned so far.
func (r *Reader) Read() int {
	return r.read
}
