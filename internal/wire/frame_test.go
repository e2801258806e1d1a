package wire

import (
	"bytes"
	"testing"
	"testing/quick"
)

func TestParseShortBuffer(t *testing.T) {
	for l := 0; l < HEADER_LEN; l++ {
		if _, err := Parse(make([]byte, l)); err != ErrShortBuffer {
			t.Errorf("length %d: expecting ErrShortBuffer got %v", l, err)
		}
	}
}

func TestParseUnknownTag(t *testing.T) {
	for _, rawTag := range []byte{4, 5, 0x80, 0xff} {
		buf := make([]byte, HEADER_LEN+16)
		buf[tagOffset] = rawTag
		before := make([]byte, len(buf))
		copy(before, buf)

		if _, err := Parse(buf); err != ErrUnknownTag {
			t.Errorf("tag %d: expecting ErrUnknownTag got %v", rawTag, err)
		}
		// a failed parse must be side effect free
		if !bytes.Equal(buf, before) {
			t.Errorf("tag %d: buffer mutated by failed parse", rawTag)
		}
	}
}

func TestParseExample(t *testing.T) {
	buf := []byte{
		0x01, 0x02, 0x01, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x03, 0x01, 0x02, 0x03,
	}
	frame, err := Parse(buf)
	if err != nil {
		t.Fatal(err)
	}
	if frame.Version() != 1 {
		t.Errorf("version: expecting 1 got %d", frame.Version())
	}
	if frame.Tag() != TagPing {
		t.Errorf("tag: expecting %v got %v", TagPing, frame.Tag())
	}
	if frame.Flags() != 0x0100 {
		t.Errorf("flags: expecting 0x0100 got %#04x", frame.Flags())
	}
	if frame.StreamID() != 1 {
		t.Errorf("stream id: expecting 1 got %d", frame.StreamID())
	}
	if frame.Length() != 3 {
		t.Errorf("length: expecting 3 got %d", frame.Length())
	}
	if !bytes.Equal(frame.Body(), []byte{0x01, 0x02, 0x03}) {
		t.Errorf("body: expecting 010203 got %x", frame.Body())
	}

	// the body must alias the buffer, not copy it
	if len(frame.Body()) != len(buf)-HEADER_LEN {
		t.Errorf("body length: expecting %d got %d", len(buf)-HEADER_LEN, len(frame.Body()))
	}
	buf[HEADER_LEN] = 0xAA
	if frame.Body()[0] != 0xAA {
		t.Error("body does not alias the underlying buffer")
	}
}

func TestZeroCopyMutation(t *testing.T) {
	buf := make([]byte, HEADER_LEN+4)
	PutDataHeader(buf, 42, 4)

	frame, err := ParseMut(buf)
	if err != nil {
		t.Fatal(err)
	}
	frame.SetTag(TagGoAway)

	// the write must be visible in the raw buffer, independently of the frame
	if buf[tagOffset] != byte(TagGoAway) {
		t.Errorf("tag byte in buffer: expecting %d got %d", byte(TagGoAway), buf[tagOffset])
	}
	reRead, err := Parse(buf)
	if err != nil {
		t.Fatal(err)
	}
	if reRead.Tag() != TagGoAway {
		t.Errorf("tag after re-parse: expecting %v got %v", TagGoAway, reRead.Tag())
	}

	// every setter writes through to the raw buffer
	frame.SetVersion(7)
	frame.SetFlags(0xCAFE)
	frame.SetStreamID(0xDEADBEEF)
	frame.SetLength(99)
	rawHeader := Header(buf)
	if rawHeader.Version() != 7 || rawHeader.Flags() != 0xCAFE ||
		rawHeader.StreamID() != 0xDEADBEEF || rawHeader.Length() != 99 {
		t.Errorf("setter writes not visible in buffer: %v", rawHeader)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	prop := func(version byte, rawTag byte, flags uint16, sid uint32, body []byte) bool {
		tag := Tag(rawTag % 4)
		buf := make([]byte, HEADER_LEN+len(body))
		h := Header(buf)
		h.SetVersion(version)
		h.SetTag(tag)
		h.SetFlags(flags)
		h.SetStreamID(sid)
		h.SetLength(uint32(len(body)))
		copy(buf[HEADER_LEN:], body)

		frame, err := Parse(buf)
		if err != nil {
			return false
		}
		return frame.Version() == version &&
			frame.Tag() == tag &&
			frame.Flags() == flags &&
			frame.StreamID() == sid &&
			frame.Length() == uint32(len(body)) &&
			bytes.Equal(frame.Body(), body)
	}
	if err := quick.Check(prop, nil); err != nil {
		t.Error(err)
	}
}
