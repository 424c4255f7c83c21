// SPDX-License-Identifier: MIT
package transport

import (
	"bytes"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wavbeep/internal/tone"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func testMessage(seq uint32) Message {
	return Message{
		Run:   uuid.MustParse("6f1c2f5e-8a57-4b3e-9d0a-3c6f2b1e4d7a"),
		Seq:   seq,
		Count: 3,
		Event: tone.Event{DurationMS: 1014, Hz: 440},
	}
}

func TestMarshalMessage(t *testing.T) {
	var buf bytes.Buffer
	msg := testMessage(2)
	if err := MarshalMessage(&buf, msg); err != nil {
		t.Fatalf("MarshalMessage() error: %v", err)
	}
	if buf.Len() != PacketSize {
		t.Fatalf("packet is %d bytes, want %d", buf.Len(), PacketSize)
	}

	b := buf.Bytes()
	if !bytes.Equal(b[:16], msg.Run[:]) {
		t.Errorf("run id bytes = %x, want %x", b[:16], msg.Run[:])
	}
	// seq = 2, count = 3, ms = 1014 (0x3f6), 440 as float32 = 0x43dc0000.
	want := []byte{0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0x03, 0xf6, 0x43, 0xdc, 0, 0}
	if !bytes.Equal(b[16:], want) {
		t.Errorf("packet body = %x, want %x", b[16:], want)
	}

	got, err := UnmarshalMessage(b)
	if err != nil {
		t.Fatalf("UnmarshalMessage() error: %v", err)
	}
	if got != msg {
		t.Errorf("UnmarshalMessage() = %+v, want %+v", got, msg)
	}
}

func TestMarshalMessageRejectsNegativeDuration(t *testing.T) {
	msg := testMessage(0)
	msg.Event.DurationMS = -1
	if err := MarshalMessage(new(bytes.Buffer), msg); err == nil {
		t.Error("MarshalMessage() accepted a negative duration")
	}
}

func TestUnmarshalShortPacket(t *testing.T) {
	_, err := UnmarshalMessage(make([]byte, PacketSize-1))
	if !errors.Is(err, ErrShortPacket) {
		t.Errorf("UnmarshalMessage() error = %v, want ErrShortPacket", err)
	}
}

func TestUDPSender(t *testing.T) {
	listener, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Skipf("cannot listen on loopback: %v", err)
	}
	defer listener.Close()

	sender, err := NewUDPSender(listener.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewUDPSender() error: %v", err)
	}

	for i := range uint32(3) {
		if err := sender.Send(testMessage(i)); err != nil {
			t.Fatalf("Send(%d) error: %v", i, err)
		}
	}

	buf := make([]byte, 1500)
	for i := range uint32(3) {
		listener.SetReadDeadline(time.Now().Add(2 * time.Second))
		n, _, err := listener.ReadFromUDP(buf)
		if err != nil {
			t.Fatalf("ReadFromUDP() error: %v", err)
		}
		if n != PacketSize {
			t.Errorf("datagram %d is %d bytes, want %d", i, n, PacketSize)
		}
		msg, err := UnmarshalMessage(buf[:n])
		if err != nil {
			t.Fatalf("UnmarshalMessage() error: %v", err)
		}
		if msg != testMessage(i) {
			t.Errorf("datagram %d = %+v, want %+v", i, msg, testMessage(i))
		}
	}

	if err := sender.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
	if err := sender.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
	if err := sender.Send(testMessage(0)); err == nil {
		t.Error("Send() after Close() succeeded")
	}
}

func TestWebSocketTransport(t *testing.T) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	received := make(chan Message, 8)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade() error: %v", err)
			return
		}
		defer conn.Close()
		for {
			var msg Message
			if err := conn.ReadJSON(&msg); err != nil {
				close(received)
				return
			}
			received <- msg
		}
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	tr, err := Open(wsURL)
	if err != nil {
		t.Fatalf("Open(%s) error: %v", wsURL, err)
	}

	for i := range uint32(3) {
		if err := tr.Send(testMessage(i)); err != nil {
			t.Fatalf("Send(%d) error: %v", i, err)
		}
	}
	if err := tr.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}

	var got []Message
	timeout := time.After(2 * time.Second)
	for done := false; !done; {
		select {
		case msg, ok := <-received:
			if !ok {
				done = true
				break
			}
			got = append(got, msg)
		case <-timeout:
			t.Fatal("timed out waiting for messages")
		}
	}

	if len(got) != 3 {
		t.Fatalf("received %d messages, want 3", len(got))
	}
	for i, msg := range got {
		if msg != testMessage(uint32(i)) {
			t.Errorf("message %d = %+v, want %+v", i, msg, testMessage(uint32(i)))
		}
	}
}

func TestLoggingTransport(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	lt := &LoggingTransport{logger: zap.New(core)}

	if err := lt.Send(testMessage(1)); err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if err := lt.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	entries := logs.FilterMessage("tone").All()
	if len(entries) != 1 {
		t.Fatalf("logged %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["seq"] != uint32(1) || fields["ms"] != int64(1014) || fields["hz"] != 440.0 {
		t.Errorf("logged fields = %v", fields)
	}
}

func TestOpen(t *testing.T) {
	tests := []struct {
		url     string
		wantErr error
		wantTyp string
	}{
		{"log:", nil, "*transport.LoggingTransport"},
		{"udp://127.0.0.1:9", nil, "*transport.UDPSender"},
		{"tcp://127.0.0.1:9", ErrUnsupportedScheme, ""},
		{"udp://", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			tr, err := Open(tt.url)
			if tt.wantTyp == "" {
				if err == nil {
					tr.Close()
					t.Fatal("Open() succeeded, want error")
				}
				if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
					t.Errorf("Open() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() error: %v", err)
			}
			defer tr.Close()
			if got := typeName(tr); got != tt.wantTyp {
				t.Errorf("Open() = %s, want %s", got, tt.wantTyp)
			}
		})
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *LoggingTransport:
		return "*transport.LoggingTransport"
	case *UDPSender:
		return "*transport.UDPSender"
	case *WebSocketTransport:
		return "*transport.WebSocketTransport"
	}
	return "unknown"
}
