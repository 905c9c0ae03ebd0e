package reply

import (
	"go.mongodb.org/mongo-driver/mongo/address"
)

// QueryResult is the decoded payload of a successful reply.
type QueryResult[T any] struct {
	Documents    []T
	Address      address.Address
	CursorID     int64
	StartingFrom int32
}

// Result is the outcome of resolving one reply. Exactly one of Reply and
// Err is set.
type Result[T any] struct {
	Reply *QueryResult[T]
	Err   ClassifiedError
}

// OK reports whether the reply resolved to a payload.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Outcome names the result for logs and metrics: "success" or the kind of
// the error.
func (r Result[T]) Outcome() string {
	if r.Err == nil {
		return "success"
	}
	return r.Err.Kind().String()
}

func failed[T any](err ClassifiedError) Result[T] {
	return Result[T]{Err: err}
}
