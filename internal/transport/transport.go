// SPDX-License-Identifier: MIT
/*
Package transport publishes tone events to listeners outside the process:
UDP datagrams for microcontrollers on the LAN, JSON over a WebSocket for
browsers and dashboards, or the log for debugging.

Every run is tagged with a random UUID so receivers can tell interleaved
runs apart, and every message carries its position and the run length so
dropped datagrams are detectable.
*/
package transport

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"wavbeep/internal/tone"

	"github.com/google/uuid"
)

// ErrUnsupportedScheme is returned by Open for unknown URL schemes.
var ErrUnsupportedScheme = errors.New("unsupported transport scheme")

// DefaultDialTimeout bounds connection setup for dialing transports.
const DefaultDialTimeout = 5 * time.Second

// Message is one published tone event.
type Message struct {
	Run   uuid.UUID  `json:"run"`
	Seq   uint32     `json:"seq"`   // 0-based position in the run.
	Count uint32     `json:"count"` // Events in the run.
	Event tone.Event `json:"event"`
}

// Transport delivers messages. Implementations are safe for concurrent use.
type Transport interface {
	Send(msg Message) error
	Close() error
}

// Open returns the transport for rawURL:
//
//	udp://host:port    binary datagrams (see MarshalMessage)
//	ws://host/path     JSON text frames, also wss://
//	log:               the application log
func Open(rawURL string) (Transport, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid transport URL '%s': %w", rawURL, err)
	}

	switch u.Scheme {
	case "udp":
		if u.Host == "" {
			return nil, fmt.Errorf("udp transport needs host:port, got '%s'", rawURL)
		}
		return NewUDPSender(u.Host)
	case "ws", "wss":
		return DialWebSocket(rawURL, DefaultDialTimeout)
	case "log":
		return NewLoggingTransport(), nil
	default:
		return nil, fmt.Errorf("%w: '%s'", ErrUnsupportedScheme, u.Scheme)
	}
}
