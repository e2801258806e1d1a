package wire

import (
	"io"
)

// ReadFrame reads exactly one frame off r into buf: a full header first,
// then exactly as many body bytes as the header declares. It returns the
// total number of bytes read; buf[:n] is then ready for Parse. This is
// where the declared length is enforced against the stream: a peer that
// sends fewer body bytes than declared will stall the io.ReadFull and
// eventually surface an io.ErrUnexpectedEOF.
//
// ErrShortBuffer means buf cannot hold the frame, either because it is
// smaller than a header or because the declared body does not fit.
func ReadFrame(r io.Reader, buf []byte) (n int, err error) {
	if len(buf) < HEADER_LEN {
		return 0, ErrShortBuffer
	}
	n, err = io.ReadFull(r, buf[:HEADER_LEN])
	if err != nil {
		return
	}
	// compare in uint64 so a declared length near 2^32 cannot wrap a
	// 32-bit int into a negative slice bound
	bodyLen := Header(buf[:HEADER_LEN]).Length()
	if HEADER_LEN+uint64(bodyLen) > uint64(len(buf)) {
		return n, ErrShortBuffer
	}
	var m int
	m, err = io.ReadFull(r, buf[HEADER_LEN:HEADER_LEN+int(bodyLen)])
	return n + m, err
}

// WriteFrame emits f's header followed by its body.
func WriteFrame(w io.Writer, f *Frame) (n int, err error) {
	n, err = w.Write(f.header)
	if err != nil {
		return
	}
	var m int
	m, err = w.Write(f.body)
	return n + m, err
}

// WriteDataFrame frames payload under a fresh data header and writes it
// out. The header lives on the stack; the payload is not copied.
func WriteDataFrame(w io.Writer, streamID uint32, payload []byte) (n int, err error) {
	var hdr [HEADER_LEN]byte
	PutDataHeader(hdr[:], streamID, uint32(len(payload)))
	n, err = w.Write(hdr[:])
	if err != nil {
		return
	}
	var m int
	m, err = w.Write(payload)
	return n + m, err
}
