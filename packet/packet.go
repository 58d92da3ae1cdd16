// Package packet implements length-prefixed wire framing: a 4-byte
// big-endian length prefix followed by that many payload bytes, with
// fixed-width integer, string, and floating-point codecs layered on top.
// Two deviations from the most literal reading of this framing are
// documented where they occur (see Reader.Peek and WriteFloat64/
// ReadFloat64 below).
package packet

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrInsufficientData is returned by a Reader when a read or peek
// requests more bytes than remain in the payload.
var ErrInsufficientData = errors.New("packet: insufficient data")

const lengthPrefixSize = 4

// Packet accumulates a payload behind a 4-byte big-endian length prefix:
// buf always begins with the prefix, and Write appends to the payload and
// keeps the prefix current.
type Packet struct {
	buf []byte // buf[:4] is the length prefix, buf[4:] is the payload
}

// NewPacket constructs an empty Packet, optionally reserving capacity for
// payloadSizeHint bytes of payload.
func NewPacket(payloadSizeHint int) *Packet {
	buf := make([]byte, lengthPrefixSize, lengthPrefixSize+payloadSizeHint)
	return &Packet{buf: buf}
}

// NewPacketFromPayload builds a Packet whose payload is initialized to a
// copy of data.
func NewPacketFromPayload(data []byte) *Packet {
	p := NewPacket(len(data))
	p.Write(data)
	return p
}

// Write appends data to the payload and updates the length prefix.
func (p *Packet) Write(data []byte) {
	p.buf = append(p.buf, data...)
	binary.BigEndian.PutUint32(p.buf[:lengthPrefixSize], uint32(len(p.buf)-lengthPrefixSize))
}

// Bytes returns the full wire representation: the 4-byte length prefix
// followed by the payload. The returned slice aliases Packet's internal
// buffer and must not be retained past the next Write.
func (p *Packet) Bytes() []byte { return p.buf }

// Payload returns the payload bytes only, excluding the length prefix.
func (p *Packet) Payload() []byte { return p.buf[lengthPrefixSize:] }

// Size is the full wire size, prefix included.
func (p *Packet) Size() uint32 { return uint32(len(p.buf)) }

// PayloadSize is the payload length, prefix excluded.
func (p *Packet) PayloadSize() uint32 { return uint32(len(p.buf) - lengthPrefixSize) }

// Empty reports whether the payload is zero-length.
func (p *Packet) Empty() bool { return p.PayloadSize() == 0 }

// Reader returns a Reader over this packet's current payload.
func (p *Packet) Reader() *Reader { return NewReader(p.Payload()) }

// Reader sequentially decodes a packet's payload. Peek honors the read
// cursor: it fills buf starting at the current cursor position, not from
// the start of the payload, so repeated peeks after a read observe the
// bytes actually still unread.
type Reader struct {
	payload []byte
	cursor  int
}

// NewReader wraps payload for sequential decoding. payload is not copied;
// the caller must not mutate it while the Reader is in use.
func NewReader(payload []byte) *Reader {
	return &Reader{payload: payload}
}

// Remaining is the number of unread payload bytes.
func (r *Reader) Remaining() int { return len(r.payload) - r.cursor }

// Peek copies len(buf) bytes starting at the current cursor into buf
// without advancing the cursor. Returns ErrInsufficientData if fewer
// bytes remain than requested.
func (r *Reader) Peek(buf []byte) error {
	if len(buf) > r.Remaining() {
		return fmt.Errorf("%w: want %d, have %d", ErrInsufficientData, len(buf), r.Remaining())
	}
	copy(buf, r.payload[r.cursor:r.cursor+len(buf)])
	return nil
}

// Read copies len(buf) bytes starting at the current cursor into buf and
// advances the cursor by that amount.
func (r *Reader) Read(buf []byte) error {
	if err := r.Peek(buf); err != nil {
		return err
	}
	r.cursor += len(buf)
	return nil
}
