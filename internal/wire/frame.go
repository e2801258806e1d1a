package wire

import "errors"

var ErrShortBuffer = errors.New("buffer is shorter than a frame header")

// A Frame is a read-only view of a buffer split into a header prefix and a
// body. It owns nothing: the header and body alias the buffer given to
// Parse, and the Frame must not outlive that buffer. For a view that can
// rewrite header fields in place, use ParseMut.
type Frame struct {
	header Header
	body   []byte
}

// Parse splits b into a HEADER_LEN byte header and a body without copying
// anything. It fails with ErrShortBuffer when b cannot hold a full header
// (the caller should wait for more bytes) and with ErrUnknownTag when the
// tag byte is outside the closed tag set (the frame is corrupt and the
// producing stream should be torn down). On failure b is untouched and no
// partial Frame is returned.
func Parse(b []byte) (*Frame, error) {
	if len(b) < HEADER_LEN {
		return nil, ErrShortBuffer
	}
	if _, err := TagFromByte(b[tagOffset]); err != nil {
		return nil, err
	}
	return &Frame{
		header: Header(b[:HEADER_LEN]),
		body:   b[HEADER_LEN:],
	}, nil
}

func (f *Frame) Version() byte { return f.header.Version() }

// Tag cannot fail on a parsed Frame as the raw byte was validated by Parse.
func (f *Frame) Tag() Tag { return Tag(f.header.RawTag()) }

func (f *Frame) Flags() uint16    { return f.header.Flags() }
func (f *Frame) StreamID() uint32 { return f.header.StreamID() }

// Length is the payload length the header declares. It is not checked
// against len(Body()): whether enough body bytes actually follow the
// header is for the transport edge to enforce.
func (f *Frame) Length() uint32 { return f.header.Length() }

// Body aliases the bytes of the underlying buffer after the header.
func (f *Frame) Body() []byte { return f.body }

func (f *Frame) String() string { return f.header.String() }

// A MutFrame is a Frame over a buffer the caller is allowed to mutate.
// Setter writes land directly in the underlying buffer and are immediately
// visible to anyone else holding it.
type MutFrame struct {
	Frame
}

// ParseMut is Parse for a mutable buffer.
func ParseMut(b []byte) (*MutFrame, error) {
	f, err := Parse(b)
	if err != nil {
		return nil, err
	}
	return &MutFrame{Frame: *f}, nil
}

// SetTag rewrites the tag byte in place. The body is not reinterpreted or
// revalidated against the new tag, so after a retag the body's shape may
// no longer be what the tag suggests.
func (f *MutFrame) SetTag(t Tag) { f.header.SetTag(t) }

func (f *MutFrame) SetVersion(v byte)      { f.header.SetVersion(v) }
func (f *MutFrame) SetFlags(flags uint16)  { f.header.SetFlags(flags) }
func (f *MutFrame) SetStreamID(sid uint32) { f.header.SetStreamID(sid) }

// SetLength rewrites the declared payload length only; the body view is
// unchanged, so the two can diverge just like tag and body shape can
// after SetTag.
func (f *MutFrame) SetLength(l uint32) { f.header.SetLength(l) }

// Header exposes the raw header overlay for callers that need direct
// field writes beyond the setters above.
func (f *MutFrame) Header() Header { return f.header }
