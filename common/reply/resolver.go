package reply

import (
	"go.mongodb.org/mongo-driver/mongo/address"

	"github.com/mongodb/mongo-reply-tools/common/log"
)

// Resolve produces the single outcome of a reply.
//
// A non-nil priorErr wins: the result is a TransportError and the envelope
// is neither classified nor decoded. Otherwise a reply flagged as a query
// failure resolves to a QueryFailureError carrying its first document, and
// any other reply is decoded with dec. Decoding problems, a missing error
// document and panics all become an InternalError.
//
// The envelope, when non-nil, is released exactly once before Resolve
// returns. If that release panics because the caller already released the
// envelope, a transport result still stands and anything else becomes an
// InternalError.
func Resolve[T any](env *Envelope, priorErr error, dec Decoder[T], addr address.Address) (res Result[T]) {
	// registered first so that it runs after the release below
	defer func() {
		if r := recover(); r != nil {
			if res.Err != nil && res.Err.Kind() == TransportErrorKind {
				log.Logvf(log.Info, "ignoring failed release of reply with transport error: %v", r)
				return
			}
			res = failed[T](newInternalError(panicCause(r)))
		}
	}()
	if env != nil {
		defer env.Release()
	}

	if priorErr != nil {
		if te, ok := priorErr.(*TransportError); ok {
			return failed[T](te)
		}
		return failed[T](&TransportError{Cause: priorErr})
	}
	if env == nil {
		return failed[T](newInternalError(errNoEnvelope))
	}

	switch Classify(env) {
	case QueryFailure:
		doc, err := DecodeErrorDocument(env)
		if err != nil {
			return failed[T](newInternalError(err))
		}
		return failed[T](&QueryFailureError{Address: addr, Document: doc})
	default:
		if dec == nil {
			return failed[T](newInternalError(errNoDecoder))
		}
		docs, err := DecodeDocuments(env, dec)
		if err != nil {
			return failed[T](newInternalError(err))
		}
		return Result[T]{Reply: &QueryResult[T]{
			Documents:    docs,
			Address:      addr,
			CursorID:     env.Header.CursorID,
			StartingFrom: env.Header.StartingFrom,
		}}
	}
}
