package relay

import (
	"io"
	"net"
	"time"

	"github.com/cbeuw/wireframe/internal/journal"
	"github.com/cbeuw/wireframe/internal/wire"
	log "github.com/sirupsen/logrus"
)

// https://tools.ietf.org/html/rfc8446#section-5.2
const defaultMaxFrameSize = 1<<14 + 256

type Config struct {
	// Journal records per-stream traffic; nil disables accounting
	Journal *journal.Journal

	// Valve throttles the aggregate traffic of all connections; nil means unlimited
	Valve *wire.Valve

	// Sink receives the payloads of data frames; nil discards them
	Sink io.Writer

	// the largest frame accepted on the wire, header included
	MaxFrameSize int
}

// Serve accepts connections off l and relays their frames until l fails
// permanently. Accept errors back off progressively the way a transient
// fd exhaustion demands.
func Serve(l net.Listener, conf *Config) {
	waitDur := [10]time.Duration{
		50 * time.Millisecond, 100 * time.Millisecond, 300 * time.Millisecond, 500 * time.Millisecond, 1 * time.Second,
		3 * time.Second, 5 * time.Second, 10 * time.Second, 15 * time.Second, 30 * time.Second}

	fails := 0
	for {
		conn, err := l.Accept()
		if err != nil {
			log.Errorf("%v, retrying", err)
			time.Sleep(waitDur[fails])
			if fails < 9 {
				fails++
			}
			continue
		}
		fails = 0
		go handleConn(conn, conf)
	}
}

func (conf *Config) recordRx(sid uint32, n int) {
	if conf.Journal == nil {
		return
	}
	if err := conf.Journal.RecordRx(sid, int64(n)); err != nil {
		log.Errorf("recording rx for stream %d: %v", sid, err)
	}
}

func (conf *Config) recordTx(sid uint32, n int) {
	if conf.Journal == nil {
		return
	}
	if err := conf.Journal.RecordTx(sid, int64(n)); err != nil {
		log.Errorf("recording tx for stream %d: %v", sid, err)
	}
}

// handleConn reads frames off conn one at a time until the peer goes
// away, the stream ends, or a malformed frame forces a teardown. Short
// reads ("need more bytes") are absorbed inside wire.ReadFrame; a bad tag
// is corruption and kills the connection.
func handleConn(conn net.Conn, conf *Config) {
	remoteAddr := conn.RemoteAddr()
	defer conn.Close()

	valve := conf.Valve
	if valve == nil {
		valve = wire.UnlimitedValve()
	}
	maxFrameSize := conf.MaxFrameSize
	if maxFrameSize == 0 {
		maxFrameSize = defaultMaxFrameSize
	}

	pipe := wire.NewValvedPipe(conn, valve)
	buf := make([]byte, maxFrameSize)
	for {
		n, err := pipe.ReadFrame(buf)
		if err != nil {
			if err == io.EOF {
				log.WithField("remoteAddr", remoteAddr).Debug("connection closed by peer")
			} else {
				log.WithField("remoteAddr", remoteAddr).
					Infof("dropping connection on read error: %v", err)
			}
			return
		}

		frame, err := wire.ParseMut(buf[:n])
		if err != nil {
			log.WithField("remoteAddr", remoteAddr).
				Warnf("dropping connection on malformed frame: %v", err)
			return
		}
		sid := frame.StreamID()

		switch frame.Tag() {
		case wire.TagData:
			conf.recordRx(sid, n)
			if conf.Sink != nil {
				if _, err := conf.Sink.Write(frame.Body()); err != nil {
					log.Errorf("writing stream %d payload to sink: %v", sid, err)
					return
				}
			}
		case wire.TagWindowUpdate:
			conf.recordRx(sid, n)
		case wire.TagPing:
			conf.recordRx(sid, n)
			// the reply reuses the buffer as is; only the header matters to
			// the peer's keepalive logic
			if _, err := pipe.Write(buf[:n]); err != nil {
				log.WithField("remoteAddr", remoteAddr).
					Infof("dropping connection on ping reply error: %v", err)
				return
			}
			conf.recordTx(sid, n)
		case wire.TagGoAway:
			conf.recordRx(sid, n)
			log.WithFields(log.Fields{
				"remoteAddr": remoteAddr,
				"streamID":   sid,
			}).Info("peer sent GoAway")
			return
		}
	}
}
