package reply

import (
	"fmt"

	driverbson "go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
	"gopkg.in/mgo.v2/bson"
)

// Decoder turns the bytes of one BSON document into a T. Implementations
// must be safe to call from any goroutine and must not keep a reference to
// doc after returning, since the bytes go back to a buffer pool.
type Decoder[T any] interface {
	Decode(doc []byte) (T, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc[T any] func(doc []byte) (T, error)

func (f DecoderFunc[T]) Decode(doc []byte) (T, error) {
	return f(doc)
}

// BSONDecoder decodes documents into T with the driver's default registry.
// It decodes a private copy of doc, so values that alias their source bytes,
// such as binary data, outlive the reply's buffer.
type BSONDecoder[T any] struct{}

func (BSONDecoder[T]) Decode(doc []byte) (T, error) {
	var v T
	err := driverbson.Unmarshal(copyDocument(doc), &v)
	return v, err
}

func copyDocument(doc []byte) []byte {
	return append([]byte(nil), doc...)
}

// DocumentDecoder is the fixed, general-purpose decoder used for the error
// document of a failed reply.
var DocumentDecoder Decoder[bson.M] = DecoderFunc[bson.M](func(doc []byte) (bson.M, error) {
	m := bson.M{}
	if err := bson.Unmarshal(copyDocument(doc), &m); err != nil {
		return nil, err
	}
	return m, nil
})

// DecodeError reports which document of a reply could not be decoded.
type DecodeError struct {
	Index int
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("error decoding document %d of reply: %v", e.Index, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DecodeDocuments decodes every document in the reply body, in order. The
// number of documents must match the header's NumberReturned.
func DecodeDocuments[T any](env *Envelope, dec Decoder[T]) ([]T, error) {
	rem := env.Body()
	expected := int(env.Header.NumberReturned)
	if expected < 0 {
		return nil, fmt.Errorf("malformed OP_REPLY: negative NumberReturned (%d)", expected)
	}
	// the smallest BSON document is 5 bytes
	if limit := len(rem) / 5; expected > limit {
		expected = limit
	}
	values := make([]T, 0, expected)
	for len(rem) > 0 {
		doc, next, ok := bsoncore.ReadDocument(rem)
		if !ok {
			return nil, &DecodeError{
				Index: len(values),
				Err:   fmt.Errorf("%v trailing bytes do not hold a whole document", len(rem)),
			}
		}
		v, err := dec.Decode(doc)
		if err != nil {
			return nil, &DecodeError{Index: len(values), Err: err}
		}
		values = append(values, v)
		rem = next
	}
	if len(values) != int(env.Header.NumberReturned) {
		return nil, fmt.Errorf("malformed OP_REPLY: NumberReturned (%d) does not match number of returned documents (%d)",
			env.Header.NumberReturned, len(values))
	}
	return values, nil
}
