package wire

import (
	"bytes"
	"io"
	"math/rand"
	"testing"

	"github.com/cbeuw/connutil"
)

func TestReadFrame(t *testing.T) {
	t.Run("whole frame", func(t *testing.T) {
		local, remote := connutil.AsyncPipe()
		payload := make([]byte, 1024)
		rand.Read(payload)

		go WriteDataFrame(remote, 7, payload)

		buf := make([]byte, 2048)
		n, err := ReadFrame(local, buf)
		if err != nil {
			t.Fatal(err)
		}
		if n != HEADER_LEN+len(payload) {
			t.Errorf("expecting %d bytes got %d", HEADER_LEN+len(payload), n)
		}
		frame, err := Parse(buf[:n])
		if err != nil {
			t.Fatal(err)
		}
		if frame.StreamID() != 7 || !bytes.Equal(frame.Body(), payload) {
			t.Error("frame came out different to what was sent")
		}
	})

	t.Run("declared body larger than buffer", func(t *testing.T) {
		local, remote := connutil.AsyncPipe()
		go WriteDataFrame(remote, 1, make([]byte, 512))

		buf := make([]byte, 64)
		if _, err := ReadFrame(local, buf); err != ErrShortBuffer {
			t.Errorf("expecting ErrShortBuffer got %v", err)
		}
	})

	t.Run("huge declared length", func(t *testing.T) {
		// lengths at and above 2^31 must fail cleanly rather than wrap a
		// 32-bit int and panic on the slice bound
		for _, declared := range []uint32{1 << 31, ^uint32(0)} {
			declared := declared
			local, remote := connutil.AsyncPipe()
			go func() {
				var hdr [HEADER_LEN]byte
				PutDataHeader(hdr[:], 1, declared)
				remote.Write(hdr[:])
			}()

			buf := make([]byte, 1024)
			if _, err := ReadFrame(local, buf); err != ErrShortBuffer {
				t.Errorf("declared %d: expecting ErrShortBuffer got %v", declared, err)
			}
		}
	})

	t.Run("buffer smaller than a header", func(t *testing.T) {
		local, _ := connutil.AsyncPipe()
		if _, err := ReadFrame(local, make([]byte, HEADER_LEN-1)); err != ErrShortBuffer {
			t.Errorf("expecting ErrShortBuffer got %v", err)
		}
	})

	t.Run("body shorter than declared", func(t *testing.T) {
		// a truncated bytes.Reader yields a real EOF; connutil's AsyncPipe
		// returns ErrClosedPipe after Close and can never produce one
		var hdr [HEADER_LEN]byte
		PutDataHeader(hdr[:], 1, 10)
		src := bytes.NewReader(append(hdr[:], 0x01, 0x02, 0x03))

		buf := make([]byte, 64)
		if _, err := ReadFrame(src, buf); err != io.ErrUnexpectedEOF {
			t.Errorf("expecting ErrUnexpectedEOF got %v", err)
		}
	})
}

func TestWriteFrame(t *testing.T) {
	src := make([]byte, HEADER_LEN+5)
	h := PutDataHeader(src, 3, 5)
	h.SetTag(TagWindowUpdate)
	copy(src[HEADER_LEN:], "hello")

	frame, err := Parse(src)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	n, err := WriteFrame(&out, frame)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(src) || !bytes.Equal(out.Bytes(), src) {
		t.Errorf("expecting %x got %x", src, out.Bytes())
	}
}
