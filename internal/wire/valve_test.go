package wire

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/cbeuw/connutil"
)

func TestValveCounters(t *testing.T) {
	v := UnlimitedValve()
	v.AddRx(100)
	v.AddRx(23)
	v.AddTx(7)
	if v.GetRx() != 123 {
		t.Errorf("expecting rx 123 got %d", v.GetRx())
	}
	if v.GetTx() != 7 {
		t.Errorf("expecting tx 7 got %d", v.GetTx())
	}
	rx, tx := v.Nullify()
	if rx != 123 || tx != 7 {
		t.Errorf("nullify returned %d %d", rx, tx)
	}
	if v.GetRx() != 0 || v.GetTx() != 0 {
		t.Error("counters not zeroed after nullify")
	}
}

func TestValvedPipe(t *testing.T) {
	local, remote := connutil.AsyncPipe()
	valve := UnlimitedValve()
	sender := NewValvedPipe(remote, valve)
	receiver := NewValvedPipe(local, valve)

	payload := make([]byte, 777)
	rand.Read(payload)

	go sender.WriteDataFrame(4, payload)

	buf := make([]byte, 2048)
	n, err := receiver.ReadFrame(buf)
	if err != nil {
		t.Fatal(err)
	}
	frame, err := Parse(buf[:n])
	if err != nil {
		t.Fatal(err)
	}
	if frame.StreamID() != 4 || !bytes.Equal(frame.Body(), payload) {
		t.Error("frame came out different to what was sent")
	}

	wireLen := int64(HEADER_LEN + len(payload))
	if valve.GetTx() != wireLen {
		t.Errorf("expecting tx %d got %d", wireLen, valve.GetTx())
	}
	if valve.GetRx() != wireLen {
		t.Errorf("expecting rx %d got %d", wireLen, valve.GetRx())
	}
}
