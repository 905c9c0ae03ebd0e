package reply

import (
	"fmt"

	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
	"gopkg.in/mgo.v2/bson"
)

// Classification is the outcome of inspecting a reply's header.
type Classification int

const (
	Success Classification = iota
	QueryFailure
)

func (c Classification) String() string {
	if c == QueryFailure {
		return "query failure"
	}
	return "success"
}

// Classify inspects the reply header's failure flag. It does not read the
// body.
func Classify(env *Envelope) Classification {
	if env.Header.QueryFailure() {
		return QueryFailure
	}
	return Success
}

// DecodeErrorDocument decodes the first document of a failed reply into a
// generic document. A reply that returns no documents, by its header or its
// body, yields ErrNoErrorDocument.
func DecodeErrorDocument(env *Envelope) (bson.M, error) {
	if env.Header.NumberReturned < 1 {
		return nil, ErrNoErrorDocument
	}
	body := env.Body()
	if len(body) == 0 {
		return nil, ErrNoErrorDocument
	}
	doc, _, ok := bsoncore.ReadDocument(body)
	if !ok {
		return nil, fmt.Errorf("malformed error document: %v bytes do not hold a whole document", len(body))
	}
	return DocumentDecoder.Decode(doc)
}
