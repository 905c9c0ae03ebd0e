package reply

import (
	"sync/atomic"

	"github.com/mongodb/mongo-reply-tools/common/log"
)

// Sink receives the outcome of one resolution. Exactly one of reply and err
// is non-nil.
type Sink[T any] interface {
	OnResult(reply *QueryResult[T], err ClassifiedError)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc[T any] func(reply *QueryResult[T], err ClassifiedError)

func (f SinkFunc[T]) OnResult(reply *QueryResult[T], err ClassifiedError) {
	f(reply, err)
}

// Deliver hands res to sink.
func Deliver[T any](sink Sink[T], res Result[T]) {
	sink.OnResult(res.Reply, res.Err)
}

// OnceSink forwards only the first result it receives. Later deliveries are
// dropped and logged.
type OnceSink[T any] struct {
	sink  Sink[T]
	fired int32
}

// NewOnceSink guards sink against duplicate delivery.
func NewOnceSink[T any](sink Sink[T]) *OnceSink[T] {
	return &OnceSink[T]{sink: sink}
}

func (s *OnceSink[T]) OnResult(reply *QueryResult[T], err ClassifiedError) {
	if !atomic.CompareAndSwapInt32(&s.fired, 0, 1) {
		log.Logv(log.Always, "dropping duplicate reply completion")
		return
	}
	s.sink.OnResult(reply, err)
}

// Fired reports whether a result has been forwarded.
func (s *OnceSink[T]) Fired() bool {
	return atomic.LoadInt32(&s.fired) == 1
}
