package relay

import (
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// WebSocketConn makes a websocket.Conn binary-oriented so the frame pipe
// can treat it as an ordinary byte stream. It implements net.Conn.
//
// websocket messages carry no alignment guarantee relative to frames: a
// peer may pack a whole frame into one message or spread it over several.
// Read therefore drains each binary message across as many calls as the
// caller needs, so exact-size reads like the ones wire.ReadFrame issues
// see one continuous byte stream regardless of message boundaries.
type WebSocketConn struct {
	*websocket.Conn
	writeM sync.Mutex

	// remainder of the current binary message; nil when exhausted.
	// Only the reading goroutine touches it.
	reader io.Reader
}

func (ws *WebSocketConn) Write(data []byte) (int, error) {
	ws.writeM.Lock()
	err := ws.WriteMessage(websocket.BinaryMessage, data)
	ws.writeM.Unlock()
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

func (ws *WebSocketConn) Read(buf []byte) (int, error) {
	for {
		if ws.reader == nil {
			t, r, err := ws.NextReader()
			if err != nil {
				return 0, err
			}
			if t != websocket.BinaryMessage {
				continue
			}
			ws.reader = r
		}
		n, err := ws.reader.Read(buf)
		if err == io.EOF {
			// this message is spent; the next Read moves on to the next one
			ws.reader = nil
			if n == 0 {
				continue
			}
			err = nil
		}
		return n, err
	}
}

func (ws *WebSocketConn) Close() error {
	ws.writeM.Lock()
	defer ws.writeM.Unlock()
	return ws.Conn.Close()
}

func (ws *WebSocketConn) SetDeadline(t time.Time) error {
	err := ws.SetReadDeadline(t)
	if err != nil {
		return err
	}
	return ws.SetWriteDeadline(t)
}

// ServeWebSocket upgrades HTTP requests arriving on l to websocket and
// relays the frames carried in their binary messages.
func ServeWebSocket(l net.Listener, conf *Config) error {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warnf("failed to upgrade connection from %v: %v", r.RemoteAddr, err)
			return
		}
		handleConn(&WebSocketConn{Conn: c}, conf)
	})
	return http.Serve(l, handler)
}
