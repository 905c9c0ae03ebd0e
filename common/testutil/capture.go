package testutil

import (
	"bytes"
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// Segment is one TCP payload in a capture built by WriteCapture.
type Segment struct {
	SrcIP, DstIP     net.IP
	SrcPort, DstPort layers.TCPPort
	Payload          []byte
}

// WriteCapture serializes segments as Ethernet/IPv4/TCP packets into a pcap
// stream.
func WriteCapture(segments ...Segment) ([]byte, error) {
	out := &bytes.Buffer{}
	w := pcapgo.NewWriter(out)
	if err := w.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		return nil, err
	}

	ts := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, seg := range segments {
		eth := &layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0, 0, 0, 0, 0, 1},
			DstMAC:       net.HardwareAddr{0, 0, 0, 0, 0, 2},
			EthernetType: layers.EthernetTypeIPv4,
		}
		ip := &layers.IPv4{
			Version:  4,
			TTL:      64,
			Protocol: layers.IPProtocolTCP,
			SrcIP:    seg.SrcIP,
			DstIP:    seg.DstIP,
		}
		tcp := &layers.TCP{
			SrcPort: seg.SrcPort,
			DstPort: seg.DstPort,
			Seq:     uint32(1000 + i),
			ACK:     true,
			PSH:     true,
			Window:  65535,
		}
		if err := tcp.SetNetworkLayerForChecksum(ip); err != nil {
			return nil, err
		}
		buf := gopacket.NewSerializeBuffer()
		opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
		if err := gopacket.SerializeLayers(buf, opts, eth, ip, tcp, gopacket.Payload(seg.Payload)); err != nil {
			return nil, err
		}
		data := buf.Bytes()
		ci := gopacket.CaptureInfo{
			Timestamp:     ts.Add(time.Duration(i) * time.Millisecond),
			CaptureLength: len(data),
			Length:        len(data),
		}
		if err := w.WritePacket(ci, data); err != nil {
			return nil, err
		}
	}
	return out.Bytes(), nil
}
