package reply

import (
	"go.mongodb.org/mongo-driver/mongo/address"

	"github.com/mongodb/mongo-reply-tools/common/log"
)

// Connection is the part of a server connection a callback needs: the
// address replies are attributed to.
type Connection interface {
	ServerAddress() address.Address
}

// FixedAddress is a Connection that always reports the same address.
type FixedAddress address.Address

func (a FixedAddress) ServerAddress() address.Address {
	return address.Address(a)
}

// Completer is what the transport calls when a reply, or an error in place
// of one, arrives for a request.
type Completer interface {
	Complete(env *Envelope, err error)
}

// QueryResultCallback resolves the reply to one query and delivers the
// outcome to its sink.
type QueryResultCallback[T any] struct {
	sink    Sink[T]
	decoder Decoder[T]
	conn    Connection
}

// NewQueryResultCallback binds a sink and a payload decoder to the
// connection the request was sent on.
func NewQueryResultCallback[T any](sink Sink[T], decoder Decoder[T], conn Connection) *QueryResultCallback[T] {
	return &QueryResultCallback[T]{
		sink:    sink,
		decoder: decoder,
		conn:    conn,
	}
}

// Complete resolves env and invokes the sink once. env is released before
// the sink runs.
func (c *QueryResultCallback[T]) Complete(env *Envelope, err error) {
	addr := c.conn.ServerAddress()
	res := Resolve(env, err, c.decoder, addr)
	logOutcome(env, addr, res.Outcome(), res.Err)
	Deliver(c.sink, res)
}

func logOutcome(env *Envelope, addr address.Address, outcome string, err ClassifiedError) {
	responseTo := int32(-1)
	if env != nil {
		responseTo = env.Header.ResponseTo
	}
	if err != nil && err.Kind() == InternalErrorKind {
		log.Logvf(log.Info, "internal error resolving reply to request %v from %v: %v", responseTo, addr, err)
		return
	}
	log.Logvf(log.DebugHigh, "resolved reply to request %v from %v: %v", responseTo, addr, outcome)
}
