package packet

import (
	"encoding/binary"
	"math"
)

// WriteUint8/16/32/64 and the signed/float variants below put every
// fixed-width integer on the wire big-endian, regardless of host
// endianness.
func WriteUint8(p *Packet, v uint8)   { p.Write([]byte{v}) }
func WriteUint16(p *Packet, v uint16) { var b [2]byte; binary.BigEndian.PutUint16(b[:], v); p.Write(b[:]) }
func WriteUint32(p *Packet, v uint32) { var b [4]byte; binary.BigEndian.PutUint32(b[:], v); p.Write(b[:]) }
func WriteUint64(p *Packet, v uint64) { var b [8]byte; binary.BigEndian.PutUint64(b[:], v); p.Write(b[:]) }

func WriteInt8(p *Packet, v int8)   { WriteUint8(p, uint8(v)) }
func WriteInt16(p *Packet, v int16) { WriteUint16(p, uint16(v)) }
func WriteInt32(p *Packet, v int32) { WriteUint32(p, uint32(v)) }
func WriteInt64(p *Packet, v int64) { WriteUint64(p, uint64(v)) }

// WriteFloat32/64 serialize the IEEE-754 bit pattern big-endian, consistent
// with every other multi-byte field on the wire, rather than the raw
// host-endian bit pattern a naive float codec would produce.
func WriteFloat32(p *Packet, v float32) { WriteUint32(p, math.Float32bits(v)) }
func WriteFloat64(p *Packet, v float64) { WriteUint64(p, math.Float64bits(v)) }

// WriteString writes a uint32 big-endian length prefix followed by the
// raw bytes of s, with no character-encoding enforcement.
func WriteString(p *Packet, s string) {
	WriteUint32(p, uint32(len(s)))
	p.Write([]byte(s))
}

func ReadUint8(r *Reader) (uint8, error) {
	var b [1]byte
	if err := r.Read(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func ReadUint16(r *Reader) (uint16, error) {
	var b [2]byte
	if err := r.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

func ReadUint32(r *Reader) (uint32, error) {
	var b [4]byte
	if err := r.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func ReadUint64(r *Reader) (uint64, error) {
	var b [8]byte
	if err := r.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

func ReadInt8(r *Reader) (int8, error) {
	v, err := ReadUint8(r)
	return int8(v), err
}

func ReadInt16(r *Reader) (int16, error) {
	v, err := ReadUint16(r)
	return int16(v), err
}

func ReadInt32(r *Reader) (int32, error) {
	v, err := ReadUint32(r)
	return int32(v), err
}

func ReadInt64(r *Reader) (int64, error) {
	v, err := ReadUint64(r)
	return int64(v), err
}

func ReadFloat32(r *Reader) (float32, error) {
	v, err := ReadUint32(r)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func ReadFloat64(r *Reader) (float64, error) {
	v, err := ReadUint64(r)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// ReadString reads a uint32 big-endian length prefix, then that many raw
// bytes, returning them as a string with no encoding validation.
func ReadString(r *Reader) (string, error) {
	n, err := ReadUint32(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if err := r.Read(buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
