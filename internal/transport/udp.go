// SPDX-License-Identifier: MIT
package transport

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"net"
	"sync"

	applog "wavbeep/internal/log"
)

/*
UDP Packet Structure (BigEndian)

+-----------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description             |
|-------------------|----------------|--------------|-------------------------|
| Run ID            | [16]byte       | 16           | UUID of the run         |
| Sequence Number   | uint32         | 4            | Event index, from 0     |
| Event Count       | uint32         | 4            | Events in the run       |
| Duration          | uint32         | 4            | Milliseconds            |
| Frequency         | float32        | 4            | Hz                      |
+-----------------------------------------------------------------------------+
*/

// PacketSize is the length of one encoded message.
const PacketSize = 32

var ErrShortPacket = errors.New("packet too short")

type packet struct {
	Run   [16]byte
	Seq   uint32
	Count uint32
	MS    uint32
	Hz    float32
}

// MarshalMessage appends the binary encoding of msg to buf.
func MarshalMessage(buf *bytes.Buffer, msg Message) error {
	if msg.Event.DurationMS < 0 || int64(msg.Event.DurationMS) > math.MaxUint32 {
		return fmt.Errorf("duration %d ms does not fit the packet", msg.Event.DurationMS)
	}
	return binary.Write(buf, binary.BigEndian, packet{
		Run:   msg.Run,
		Seq:   msg.Seq,
		Count: msg.Count,
		MS:    uint32(msg.Event.DurationMS),
		Hz:    float32(msg.Event.Hz),
	})
}

// UnmarshalMessage decodes one packet. Hz comes back at float32 precision.
func UnmarshalMessage(data []byte) (Message, error) {
	if len(data) < PacketSize {
		return Message{}, fmt.Errorf("%w: %d bytes, want %d", ErrShortPacket, len(data), PacketSize)
	}
	var p packet
	if err := binary.Read(bytes.NewReader(data), binary.BigEndian, &p); err != nil {
		return Message{}, err
	}
	var msg Message
	msg.Run = p.Run
	msg.Seq = p.Seq
	msg.Count = p.Count
	msg.Event.DurationMS = int(p.MS)
	msg.Event.Hz = float64(p.Hz)
	return msg, nil
}

// UDPSender sends each message as one datagram.
type UDPSender struct {
	conn         *net.UDPConn
	mu           sync.Mutex // Protects conn and packetBuffer.
	closed       bool
	packetBuffer *bytes.Buffer
}

// NewUDPSender creates a sender targeting targetAddress ("host:port").
func NewUDPSender(targetAddress string) (*UDPSender, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", targetAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP target address '%s': %w", targetAddress, err)
	}

	// No local address: the kernel picks an ephemeral port.
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial UDP for target '%s': %w", targetAddress, err)
	}

	applog.Debugf("UDP Sender: Connection established to %s", conn.RemoteAddr())

	return &UDPSender{
		conn:         conn,
		packetBuffer: bytes.NewBuffer(make([]byte, 0, PacketSize)),
	}, nil
}

// Send encodes msg and transmits it as a single packet.
func (s *UDPSender) Send(msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("UDP sender is closed")
	}

	s.packetBuffer.Reset()
	if err := MarshalMessage(s.packetBuffer, msg); err != nil {
		return fmt.Errorf("failed to pack message %d: %w", msg.Seq, err)
	}

	if _, err := s.conn.Write(s.packetBuffer.Bytes()); err != nil {
		return fmt.Errorf("failed to send UDP packet: %w", err)
	}
	return nil
}

// Close closes the underlying UDP connection. Further sends fail.
func (s *UDPSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	applog.Debugf("UDP Sender: Closing connection to %s", s.conn.RemoteAddr())
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close UDP connection: %w", err)
	}
	return nil
}

var _ Transport = (*UDPSender)(nil)
