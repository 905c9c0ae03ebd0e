package replydump

import (
	"fmt"
)

var Usage = `<options> <file>

Resolve and print the OP_REPLY messages in a file of raw replies or a pcap capture.

Each reply is printed as one line of extended JSON: the decoded documents for a
successful reply, or the classified error for a failed one. Use "-" as the file
to read raw replies from standard input.`

const (
	WireType = "wire"
	PcapType = "pcap"
)

// OutputOptions defines the set of options for reading and printing replies.
type OutputOptions struct {
	Type        string `long:"type" value-name:"<type>" default:"wire" default-mask:"-" description:"type of input: wire, pcap (default 'wire')"`
	Pretty      bool   `long:"pretty" description:"output JSON formatted to be human-readable"`
	MetricsFile string `long:"metricsFile" value-name:"<filename>" description:"write Prometheus metrics for the run to this file"`
	QueueDepth  int    `long:"queueDepth" value-name:"<n>" default:"64" description:"number of replies buffered ahead of resolution"`
}

func (*OutputOptions) Name() string {
	return "output"
}

func (o *OutputOptions) Validate() error {
	switch o.Type {
	case WireType, PcapType:
	default:
		return fmt.Errorf("unsupported input type '%v'; must be either '%v' or '%v'", o.Type, WireType, PcapType)
	}
	if o.QueueDepth < 0 {
		return fmt.Errorf("--queueDepth must not be negative")
	}
	return nil
}
