package wire

import (
	"io"
	"sync/atomic"

	"github.com/juju/ratelimit"
)

// Valve throttles and accounts the framed traffic of a connection.
// Traffic directions are referred to exclusively as rx and tx, from the
// perspective of the process holding the valve.
type Valve struct {
	rxtb atomic.Value // *ratelimit.Bucket
	txtb atomic.Value // *ratelimit.Bucket

	rx *int64
	tx *int64
}

func MakeValve(rxRate, txRate int64) *Valve {
	var rx, tx int64
	v := &Valve{
		rx: &rx,
		tx: &tx,
	}
	v.SetRxRate(rxRate)
	v.SetTxRate(txRate)
	return v
}

func UnlimitedValve() *Valve { return MakeValve(1<<63-1, 1<<63-1) }

func (v *Valve) SetRxRate(rate int64) { v.rxtb.Store(ratelimit.NewBucketWithRate(float64(rate), rate)) }
func (v *Valve) SetTxRate(rate int64) { v.txtb.Store(ratelimit.NewBucketWithRate(float64(rate), rate)) }
func (v *Valve) rxWait(n int)         { v.rxtb.Load().(*ratelimit.Bucket).Wait(int64(n)) }
func (v *Valve) txWait(n int)         { v.txtb.Load().(*ratelimit.Bucket).Wait(int64(n)) }
func (v *Valve) AddRx(n int64)        { atomic.AddInt64(v.rx, n) }
func (v *Valve) AddTx(n int64)        { atomic.AddInt64(v.tx, n) }
func (v *Valve) GetRx() int64         { return atomic.LoadInt64(v.rx) }
func (v *Valve) GetTx() int64         { return atomic.LoadInt64(v.tx) }
func (v *Valve) Nullify() (int64, int64) {
	rx := atomic.SwapInt64(v.rx, 0)
	tx := atomic.SwapInt64(v.tx, 0)
	return rx, tx
}

// ValvedPipe moves frames over rw while spending valve credit on every
// byte in both directions. A valve may be shared between any number of
// pipes so limits can span all connections of one peer.
type ValvedPipe struct {
	rw    io.ReadWriter
	valve *Valve
}

func NewValvedPipe(rw io.ReadWriter, valve *Valve) *ValvedPipe {
	return &ValvedPipe{rw: rw, valve: valve}
}

// ReadFrame reads one frame into buf like wire.ReadFrame, then blocks
// until the valve grants credit for the bytes read.
func (p *ValvedPipe) ReadFrame(buf []byte) (int, error) {
	n, err := ReadFrame(p.rw, buf)
	if n > 0 {
		p.valve.rxWait(n)
		p.valve.AddRx(int64(n))
	}
	return n, err
}

// Write sends raw bytes out after the valve grants tx credit. The caller
// is responsible for p being a whole frame; the valve doesn't care.
func (p *ValvedPipe) Write(b []byte) (int, error) {
	p.valve.txWait(len(b))
	n, err := p.rw.Write(b)
	p.valve.AddTx(int64(n))
	return n, err
}

// WriteDataFrame frames payload under a data header and sends it through
// the valve.
func (p *ValvedPipe) WriteDataFrame(streamID uint32, payload []byte) (int, error) {
	p.valve.txWait(HEADER_LEN + len(payload))
	n, err := WriteDataFrame(p.rw, streamID, payload)
	p.valve.AddTx(int64(n))
	return n, err
}
