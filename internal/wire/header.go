package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var u16 = binary.BigEndian.Uint16
var u32 = binary.BigEndian.Uint32
var putU16 = binary.BigEndian.PutUint16
var putU32 = binary.BigEndian.PutUint32

// header: [Version 1 byte][Tag 1 byte][Flags 2 bytes][StreamID 4 bytes][Length 4 bytes]
// all multi-byte fields are big-endian
const HEADER_LEN = 12

const (
	versionOffset  = 0
	tagOffset      = 1
	flagsOffset    = 2
	streamIDOffset = 4
	lengthOffset   = 8
)

// Tag is the kind discriminant of a frame. The set of valid tags is closed:
// a raw byte outside it must be rejected with TagFromByte before use.
type Tag byte

const (
	TagData Tag = iota
	TagWindowUpdate
	TagPing
	TagGoAway
)

var ErrUnknownTag = errors.New("unknown frame tag")

// TagFromByte converts a raw tag byte read off the wire into a Tag.
// Any byte outside the closed set fails with ErrUnknownTag.
func TagFromByte(b byte) (Tag, error) {
	if b > byte(TagGoAway) {
		return 0, ErrUnknownTag
	}
	return Tag(b), nil
}

func (t Tag) String() string {
	switch t {
	case TagData:
		return "Data"
	case TagWindowUpdate:
		return "WindowUpdate"
	case TagPing:
		return "Ping"
	case TagGoAway:
		return "GoAway"
	default:
		return fmt.Sprintf("Tag(%d)", byte(t))
	}
}

// Header is a view over the first HEADER_LEN bytes of a buffer. It carries
// no storage of its own: accessors decode fields out of the underlying
// buffer and setters write into it directly.
type Header []byte

func (h Header) Version() byte { return h[versionOffset] }
func (h Header) RawTag() byte  { return h[tagOffset] }

// Tag validates the raw tag byte on every call, so it is safe on a Header
// that has not been through Parse.
func (h Header) Tag() (Tag, error) { return TagFromByte(h[tagOffset]) }

func (h Header) Flags() uint16    { return u16(h[flagsOffset:streamIDOffset]) }
func (h Header) StreamID() uint32 { return u32(h[streamIDOffset:lengthOffset]) }
func (h Header) Length() uint32   { return u32(h[lengthOffset:HEADER_LEN]) }

func (h Header) SetVersion(v byte)      { h[versionOffset] = v }
func (h Header) SetTag(t Tag)           { h[tagOffset] = byte(t) }
func (h Header) SetFlags(f uint16)      { putU16(h[flagsOffset:streamIDOffset], f) }
func (h Header) SetStreamID(sid uint32) { putU32(h[streamIDOffset:lengthOffset], sid) }
func (h Header) SetLength(l uint32)     { putU32(h[lengthOffset:HEADER_LEN], l) }

func (h Header) String() string {
	return fmt.Sprintf("Version:%d Tag:%d Flags:%#04x StreamID:%d Length:%d",
		h.Version(), h.RawTag(), h.Flags(), h.StreamID(), h.Length())
}

// PutDataHeader writes a complete data frame header into the first
// HEADER_LEN bytes of b: version 0, TagData, zero flags, and the given
// stream id and payload length. Every uint32 is a legal stream id and
// length, so construction cannot fail.
func PutDataHeader(b []byte, streamID uint32, length uint32) Header {
	h := Header(b[:HEADER_LEN])
	h.SetVersion(0)
	h.SetTag(TagData)
	h.SetFlags(0)
	h.SetStreamID(streamID)
	h.SetLength(length)
	return h
}

// NewDataHeader is PutDataHeader into a fresh buffer.
func NewDataHeader(streamID uint32, length uint32) Header {
	return PutDataHeader(make([]byte, HEADER_LEN), streamID, length)
}
