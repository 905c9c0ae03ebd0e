package reply

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo/address"
	"gopkg.in/mgo.v2/bson"
)

const internalErrorMessage = "Internal exception"

var (
	// ErrNoErrorDocument is the cause of the InternalError produced when a
	// reply is flagged as a query failure but carries no document.
	ErrNoErrorDocument = errors.New("query failure reply carried no error document")

	errNoEnvelope = errors.New("no reply envelope was delivered")
	errNoDecoder  = errors.New("no decoder was supplied for the reply")
)

// ErrorKind tags the variant of a ClassifiedError.
type ErrorKind int

const (
	TransportErrorKind ErrorKind = iota + 1
	QueryFailureKind
	InternalErrorKind
)

func (k ErrorKind) String() string {
	switch k {
	case TransportErrorKind:
		return "transport"
	case QueryFailureKind:
		return "queryFailure"
	case InternalErrorKind:
		return "internal"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// ClassifiedError is the single error channel a Sink receives. Exactly one
// of *TransportError, *QueryFailureError or *InternalError.
type ClassifiedError interface {
	error
	Kind() ErrorKind
}

// TransportError passes through an error the transport reported before the
// reply could be resolved.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return e.Cause.Error()
}

func (e *TransportError) Kind() ErrorKind { return TransportErrorKind }

func (e *TransportError) Unwrap() error { return e.Cause }

// QueryFailureError is a failure the server reported itself, with the error
// document it sent and the server it came from.
type QueryFailureError struct {
	Address  address.Address
	Document bson.M
}

func (e *QueryFailureError) Error() string {
	if code := e.Code(); code != 0 {
		return fmt.Sprintf("query failure from %v: %v (code %v)", e.Address, e.Message(), code)
	}
	return fmt.Sprintf("query failure from %v: %v", e.Address, e.Message())
}

func (e *QueryFailureError) Kind() ErrorKind { return QueryFailureKind }

// Message returns the server's error message, taken from "$err" or, failing
// that, "errmsg".
func (e *QueryFailureError) Message() string {
	for _, key := range []string{"$err", "errmsg"} {
		if msg, ok := e.Document[key].(string); ok {
			return msg
		}
	}
	return "unknown error"
}

// Code returns the server's error code, or 0 if the document has none.
func (e *QueryFailureError) Code() int {
	switch code := e.Document["code"].(type) {
	case int:
		return code
	case int64:
		return int(code)
	case float64:
		return int(code)
	}
	return 0
}

// InternalError reports a defect found while resolving a reply: a payload
// that would not decode, a missing error document, or a recovered panic.
type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%v: %v", e.Message, e.Cause)
}

func (e *InternalError) Kind() ErrorKind { return InternalErrorKind }

func (e *InternalError) Unwrap() error { return e.Cause }

func newInternalError(cause error) *InternalError {
	return &InternalError{Message: internalErrorMessage, Cause: cause}
}

// panicCause turns a recovered value into an error.
func panicCause(r interface{}) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}
