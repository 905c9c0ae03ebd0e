package wire

import (
	"fmt"
	"io"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"go.mongodb.org/mongo-driver/mongo/address"
	"go.mongodb.org/mongo-driver/x/mongo/driver/wiremessage"

	"github.com/mongodb/mongo-reply-tools/common/log"
	"github.com/mongodb/mongo-reply-tools/common/pool"
	"github.com/mongodb/mongo-reply-tools/common/reply"
)

// CapturedReply is a reply peeled out of a capture, with the address of the
// server that sent it.
type CapturedReply struct {
	Envelope *reply.Envelope
	Source   address.Address
}

type streamKey struct {
	net, transport gopacket.Flow
}

// PacketSource reads OP_REPLY messages out of a pcap capture. TCP payloads
// are concatenated per direction in capture order; retransmitted or
// reordered segments are not reassembled. Messages other than OP_REPLY,
// such as the requests flowing the other way, are skipped.
type PacketSource struct {
	packets *gopacket.PacketSource
	pool    *pool.BufferPool
	streams map[streamKey][]byte
	ready   []CapturedReply

	// Malformed counts replies that were framed but failed to parse.
	Malformed int
	// Desynced counts streams dropped because a length prefix made no sense.
	Desynced int
}

// NewPacketSource opens a pcap stream. A nil bp gets a pool of
// DefaultBufferSize buffers.
func NewPacketSource(r io.Reader, bp *pool.BufferPool) (*PacketSource, error) {
	handle, err := pcapgo.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("error opening pcap stream: %v", err)
	}
	if bp == nil {
		bp = pool.NewBufferPool(DefaultBufferSize)
	}
	packets := gopacket.NewPacketSource(handle, handle.LinkType())
	packets.DecodeOptions.Lazy = true
	return &PacketSource{
		packets: packets,
		pool:    bp,
		streams: make(map[streamKey][]byte),
	}, nil
}

// Next returns the next reply in the capture, or io.EOF when the capture is
// exhausted.
func (s *PacketSource) Next() (CapturedReply, error) {
	for len(s.ready) == 0 {
		pkt, err := s.packets.NextPacket()
		if err == io.EOF {
			return CapturedReply{}, io.EOF
		}
		if err != nil {
			return CapturedReply{}, fmt.Errorf("error reading packet: %v", err)
		}
		s.handlePacket(pkt)
	}
	next := s.ready[0]
	s.ready = s.ready[1:]
	return next, nil
}

// Release releases every reply that was framed but not yet returned by Next.
func (s *PacketSource) Release() {
	for _, captured := range s.ready {
		captured.Envelope.Release()
	}
	s.ready = nil
}

func (s *PacketSource) handlePacket(pkt gopacket.Packet) {
	netLayer := pkt.NetworkLayer()
	tcpLayer := pkt.Layer(layers.LayerTypeTCP)
	if netLayer == nil || tcpLayer == nil {
		return
	}
	tcp := tcpLayer.(*layers.TCP)
	if len(tcp.Payload) == 0 {
		return
	}
	key := streamKey{net: netLayer.NetworkFlow(), transport: tcp.TransportFlow()}
	buf := append(s.streams[key], tcp.Payload...)

	for len(buf) >= MsgHeaderLen {
		length, _, responseTo, opcode, _, _ := wiremessage.ReadHeader(buf)
		if length < MsgHeaderLen || length > MaxMessageSize {
			log.Logvf(log.Info, "dropping %v buffered bytes of stream %v: invalid message length %v",
				len(buf), key.transport, length)
			s.Desynced++
			buf = nil
			break
		}
		if len(buf) < int(length) {
			break
		}
		msg := buf[:length]
		buf = buf[length:]
		if opcode != wiremessage.OpReply {
			log.Logvf(log.DebugHigh, "skipping %v message on stream %v", opcode, key.transport)
			continue
		}
		s.frameReply(key, msg, responseTo)
	}

	if len(buf) == 0 {
		delete(s.streams, key)
		return
	}
	// copy so the stream does not pin the packet's memory
	s.streams[key] = append([]byte(nil), buf...)
}

func (s *PacketSource) frameReply(key streamKey, msg []byte, responseTo int32) {
	owned := s.pool.GetSized(len(msg))
	copy(owned, msg)
	env, err := ParseReply(owned, func() { s.pool.PutSized(owned) })
	if err != nil {
		s.pool.PutSized(owned)
		s.Malformed++
		log.Logvf(log.Info, "skipping malformed reply to request %v on stream %v: %v", responseTo, key.transport, err)
		return
	}
	src := address.Address(net.JoinHostPort(key.net.Src().String(), key.transport.Src().String()))
	s.ready = append(s.ready, CapturedReply{Envelope: env, Source: src})
}
