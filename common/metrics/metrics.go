// Package metrics provides Prometheus instrumentation for reply resolution.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mongodb/mongo-reply-tools/common/reply"
)

// Collector holds the reply metrics registered with one registry.
type Collector struct {
	received    prometheus.Counter
	resolutions *prometheus.CounterVec
	bodyBytes   prometheus.Histogram
}

// NewCollector registers the reply metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		received: factory.NewCounter(prometheus.CounterOpts{
			Name: "mongo_replies_received_total",
			Help: "Total number of replies handed to a callback",
		}),
		resolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mongo_reply_resolutions_total",
				Help: "Total number of resolved replies",
			},
			[]string{"outcome"}, // success, transport, queryFailure, internal
		),
		bodyBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mongo_reply_body_bytes",
			Help:    "Size of reply bodies in bytes",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8),
		}),
	}
}

// Resolved records one outcome.
func (c *Collector) Resolved(outcome string) {
	c.resolutions.WithLabelValues(outcome).Inc()
}

type instrumentedSink[T any] struct {
	c    *Collector
	sink reply.Sink[T]
}

func (s instrumentedSink[T]) OnResult(r *reply.QueryResult[T], err reply.ClassifiedError) {
	s.c.Resolved(reply.Result[T]{Reply: r, Err: err}.Outcome())
	s.sink.OnResult(r, err)
}

// Instrument wraps sink so every outcome it receives is counted.
func Instrument[T any](c *Collector, sink reply.Sink[T]) reply.Sink[T] {
	return instrumentedSink[T]{c: c, sink: sink}
}

type instrumentedCompleter struct {
	c    *Collector
	next reply.Completer
}

func (ic instrumentedCompleter) Complete(env *reply.Envelope, err error) {
	ic.c.received.Inc()
	if env != nil && !env.Released() {
		ic.c.bodyBytes.Observe(float64(len(env.Body())))
	}
	ic.next.Complete(env, err)
}

// InstrumentCompleter wraps next so the replies it is handed are counted and
// their sizes observed.
func InstrumentCompleter(c *Collector, next reply.Completer) reply.Completer {
	return instrumentedCompleter{c: c, next: next}
}
