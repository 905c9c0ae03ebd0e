// Package replydump resolves the OP_REPLY messages in a capture and prints
// each outcome as extended JSON.
package replydump

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	driverbson "go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/address"
	"gopkg.in/mgo.v2/bson"

	"github.com/mongodb/mongo-reply-tools/common/log"
	"github.com/mongodb/mongo-reply-tools/common/metrics"
	"github.com/mongodb/mongo-reply-tools/common/options"
	"github.com/mongodb/mongo-reply-tools/common/pool"
	"github.com/mongodb/mongo-reply-tools/common/reply"
	"github.com/mongodb/mongo-reply-tools/common/text"
	"github.com/mongodb/mongo-reply-tools/common/util"
	"github.com/mongodb/mongo-reply-tools/common/wire"
)

// Stats counts what a run of Dump saw.
type Stats struct {
	Replies  int
	Outcomes map[string]int
	// Bytes is the total size of the reply messages read.
	Bytes int64
}

// WriteSummary prints stats as a table of replies per outcome.
func WriteSummary(w io.Writer, stats Stats) error {
	outcomes := make([]string, 0, len(stats.Outcomes))
	for outcome := range stats.Outcomes {
		outcomes = append(outcomes, outcome)
	}
	sort.Strings(outcomes)

	table := &text.Table{Padding: 4}
	table.Row("outcome", "replies")
	for _, outcome := range outcomes {
		table.Row(outcome, strconv.Itoa(stats.Outcomes[outcome]))
	}
	table.Row("total", strconv.Itoa(stats.Replies), text.FormatByteAmount(stats.Bytes))
	return table.Flush(w)
}

type ReplyDump struct {
	ToolOptions   *options.ToolOptions
	OutputOptions *OutputOptions
	FileName      string
	Out           io.Writer

	// Registry collects the run's metrics. One is created by Init if unset.
	Registry *prometheus.Registry

	dispatcher *reply.Dispatcher
	collector  *metrics.Collector
	printer    *printer
	bytesRead  int64
}

func (rd *ReplyDump) ValidateSettings() error {
	if rd.FileName == "" {
		return fmt.Errorf("must specify a file to read replies from")
	}
	if rd.OutputOptions == nil {
		return fmt.Errorf("missing output options")
	}
	return rd.OutputOptions.Validate()
}

// Init prepares the dispatcher so Kill can be wired to signals before Dump
// starts reading.
func (rd *ReplyDump) Init() {
	if rd.Registry == nil {
		rd.Registry = prometheus.NewRegistry()
	}
	rd.collector = metrics.NewCollector(rd.Registry)
	rd.dispatcher = reply.NewDispatcher(rd.OutputOptions.QueueDepth)
	rd.printer = &printer{
		out:    rd.Out,
		pretty: rd.OutputOptions.Pretty,
		stats:  Stats{Outcomes: map[string]int{}},
	}
}

// Kill stops resolution; replies still queued are reported as transport
// errors.
func (rd *ReplyDump) Kill() {
	if rd.dispatcher != nil {
		rd.dispatcher.Kill()
	}
}

// Dump reads every reply in the input, resolves it and prints the outcome.
func (rd *ReplyDump) Dump() (Stats, error) {
	if rd.dispatcher == nil {
		rd.Init()
	}

	in, err := util.OpenInputFile(rd.FileName)
	if err != nil {
		rd.dispatcher.Close()
		return Stats{}, fmt.Errorf("couldn't open input: %v", err)
	}
	defer in.Close()

	bp := pool.NewBufferPool(wire.DefaultBufferSize)

	var readErr error
	switch rd.OutputOptions.Type {
	case PcapType:
		readErr = rd.dumpCapture(in, bp)
	default:
		readErr = rd.dumpWire(in, bp)
	}

	rd.dispatcher.Close()
	if err := rd.dispatcher.Wait(); err != nil && readErr == nil {
		readErr = err
	}

	if rd.OutputOptions.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(rd.OutputOptions.MetricsFile, rd.Registry); err != nil && readErr == nil {
			readErr = fmt.Errorf("error writing metrics: %v", err)
		}
	}

	stats := rd.printer.snapshot()
	stats.Bytes = rd.bytesRead
	if readErr == nil {
		readErr = rd.printer.writeErr()
	}
	return stats, readErr
}

// callback builds the completion for one reply from addr. Its sink fires at
// most once.
func (rd *ReplyDump) callback(addr address.Address) reply.Completer {
	printed := reply.SinkFunc[driverbson.D](func(r *reply.QueryResult[driverbson.D], err reply.ClassifiedError) {
		rd.printer.onResult(addr, r, err)
	})
	sink := reply.NewOnceSink[driverbson.D](metrics.Instrument[driverbson.D](rd.collector, printed))
	cb := reply.NewQueryResultCallback[driverbson.D](sink, reply.BSONDecoder[driverbson.D]{}, reply.FixedAddress(addr))
	return metrics.InstrumentCompleter(rd.collector, cb)
}

func (rd *ReplyDump) dumpWire(in io.Reader, bp *pool.BufferPool) error {
	addr, err := rd.ToolOptions.ServerAddress()
	if err != nil {
		return err
	}
	reader := wire.NewReader(in, bp)
	for {
		env, err := reader.Next()
		if err == io.EOF {
			log.Logvf(log.DebugLow, "read %v replies", reader.Read())
			return nil
		}
		if err != nil {
			// the reply that could not be framed still gets an outcome
			rd.dispatcher.Submit(reply.Completion{Err: err, Callback: rd.callback(addr)})
			return err
		}
		rd.bytesRead += int64(env.Header.MessageLength)
		if err := rd.dispatcher.Submit(reply.Completion{Envelope: env, Callback: rd.callback(addr)}); err != nil {
			return util.ErrTerminated
		}
	}
}

func (rd *ReplyDump) dumpCapture(in io.Reader, bp *pool.BufferPool) error {
	source, err := wire.NewPacketSource(in, bp)
	if err != nil {
		return err
	}
	defer source.Release()

	for {
		captured, err := source.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		rd.bytesRead += int64(captured.Envelope.Header.MessageLength)
		cb := rd.callback(captured.Source)
		if err := rd.dispatcher.Submit(reply.Completion{Envelope: captured.Envelope, Callback: cb}); err != nil {
			return util.ErrTerminated
		}
	}
	if source.Malformed > 0 || source.Desynced > 0 {
		log.Logvf(log.Always, "skipped %v malformed replies and %v desynchronized streams", source.Malformed, source.Desynced)
	}
	return nil
}

// printer writes the outcome of every callback. Abandoned completions can be
// delivered from the reading goroutine, so output is serialized.
type printer struct {
	mutex  sync.Mutex
	out    io.Writer
	pretty bool
	stats  Stats
	err    error
}

func (p *printer) onResult(addr address.Address, r *reply.QueryResult[driverbson.D], err reply.ClassifiedError) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.stats.Replies++
	p.stats.Outcomes[reply.Result[driverbson.D]{Reply: r, Err: err}.Outcome()]++
	if p.err != nil {
		return
	}

	var record driverbson.D
	if err != nil {
		record = errorRecord(addr, err)
	} else {
		record = resultRecord(r)
	}
	if p.err = p.write(record); p.err != nil {
		log.Logvf(log.Always, "error writing reply: %v", p.err)
	}
}

func (p *printer) write(record driverbson.D) error {
	out, err := driverbson.MarshalExtJSON(record, false, false)
	if err != nil {
		return fmt.Errorf("error converting reply to extended JSON: %v", err)
	}
	if p.pretty {
		var buf bytes.Buffer
		if err := json.Indent(&buf, out, "", "\t"); err != nil {
			return err
		}
		out = buf.Bytes()
	}
	if _, err := p.out.Write(append(out, '\n')); err != nil {
		return err
	}
	return nil
}

func (p *printer) snapshot() Stats {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	stats := Stats{Replies: p.stats.Replies, Outcomes: map[string]int{}}
	for k, v := range p.stats.Outcomes {
		stats.Outcomes[k] = v
	}
	return stats
}

func (p *printer) writeErr() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.err
}

func resultRecord(r *reply.QueryResult[driverbson.D]) driverbson.D {
	docs := make(driverbson.A, 0, len(r.Documents))
	for _, doc := range r.Documents {
		docs = append(docs, doc)
	}
	return driverbson.D{
		{Key: "ok", Value: 1},
		{Key: "address", Value: r.Address.String()},
		{Key: "cursorId", Value: r.CursorID},
		{Key: "startingFrom", Value: r.StartingFrom},
		{Key: "documents", Value: docs},
	}
}

func errorRecord(addr address.Address, err reply.ClassifiedError) driverbson.D {
	record := driverbson.D{
		{Key: "ok", Value: 0},
		{Key: "kind", Value: err.Kind().String()},
		{Key: "address", Value: addr.String()},
		{Key: "error", Value: err.Error()},
	}
	qf, ok := err.(*reply.QueryFailureError)
	if !ok {
		return record
	}
	record = append(record, driverbson.E{Key: "code", Value: qf.Code()})
	// the error document was decoded with mgo; re-encode it for the driver
	if raw, mErr := bson.Marshal(qf.Document); mErr == nil {
		record = append(record, driverbson.E{Key: "document", Value: driverbson.Raw(raw)})
	}
	return record
}
