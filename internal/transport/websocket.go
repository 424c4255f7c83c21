// SPDX-License-Identifier: MIT
package transport

import (
	"fmt"
	"sync"
	"time"

	applog "wavbeep/internal/log"

	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 2 * time.Second

// WebSocketTransport sends each message as a JSON text frame over a client
// connection.
type WebSocketTransport struct {
	url    string
	conn   *websocket.Conn
	mu     sync.Mutex // gorilla allows one concurrent writer.
	closed bool
}

// DialWebSocket connects to a ws:// or wss:// URL.
func DialWebSocket(rawURL string, timeout time.Duration) (*WebSocketTransport, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: timeout,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
	}

	conn, _, err := dialer.Dial(rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial websocket '%s': %w", rawURL, err)
	}
	applog.Debugf("WebSocketTransport: Connected to %s", rawURL)

	return &WebSocketTransport{url: rawURL, conn: conn}, nil
}

// Send writes msg as JSON.
func (wst *WebSocketTransport) Send(msg Message) error {
	wst.mu.Lock()
	defer wst.mu.Unlock()

	if wst.closed {
		return fmt.Errorf("websocket transport to %s is closed", wst.url)
	}
	if err := wst.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	if err := wst.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to send message %d: %w", msg.Seq, err)
	}
	return nil
}

// Close sends a close frame and closes the connection.
func (wst *WebSocketTransport) Close() error {
	wst.mu.Lock()
	defer wst.mu.Unlock()

	if wst.closed {
		return nil
	}
	wst.closed = true

	applog.Debugf("WebSocketTransport: Closing connection to %s", wst.url)
	deadline := time.Now().Add(wsWriteTimeout)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := wst.conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
		applog.Debugf("WebSocketTransport: Close frame not sent: %v", err)
	}
	return wst.conn.Close()
}

var _ Transport = (*WebSocketTransport)(nil)
