// Package asm holds the code buffers the translated machine code is written into.
package asm

import (
	"encoding/binary"
	"fmt"
)

var zero [16]byte

// CodeSegment represents a region where native CPU instructions of a big-endian
// host are written.
//
// To construct code segments, the program must call Next to obtain a buffer
// view capable of writing data at the end of the segment. Next must be called
// before generating the code of a block because it aligns the next write on
// 16 bytes.
//
// A segment may be bounded: writing past the limit is a caller bug and panics,
// so callers check Remaining before emitting an instruction.
//
// The zero value is a valid, empty and unbounded code segment.
type CodeSegment struct {
	code  []byte
	size  int
	limit int
}

// NewCodeSegment constructs a CodeSegment which can hold at most limit bytes.
// A limit of zero means unbounded.
func NewCodeSegment(limit int) *CodeSegment {
	return &CodeSegment{limit: limit}
}

// Size returns the number of bytes written to the segment.
func (seg *CodeSegment) Size() int {
	return seg.size
}

// Limit returns the maximum size of the segment, zero meaning unbounded.
func (seg *CodeSegment) Limit() int {
	return seg.limit
}

// Bytes returns the bytes written to the segment.
//
// The returned slice remains valid until more bytes are written to a buffer
// of the code segment.
func (seg *CodeSegment) Bytes() []byte {
	return seg.code[:seg.size]
}

// Reset drops everything written to the segment, keeping the backing memory.
func (seg *CodeSegment) Reset() {
	seg.size = 0
}

// Next returns a buffer pointed at the end of the code segment to support
// writing more code instructions to it.
//
// Buffers are passed by value, but they hold a reference to the code segment
// that they were created from.
func (seg *CodeSegment) Next() Buffer {
	// Align 16-bytes boundary.
	seg.write(zero[:(16-seg.size&15)&15])
	return Buffer{seg: seg, off: seg.size}
}

func (seg *CodeSegment) append(n int) []byte {
	i := seg.size
	j := seg.size + n
	if seg.limit > 0 && j > seg.limit {
		panic(fmt.Sprintf("asm: code segment full: writing %d bytes at %d exceeds the %d bytes limit", n, i, seg.limit))
	}
	if j > len(seg.code) {
		seg.grow(n)
	}
	seg.size = j
	return seg.code[i:j:j]
}

func (seg *CodeSegment) write(b []byte) {
	copy(seg.append(len(b)), b)
}

func (seg *CodeSegment) grow(n int) {
	size := len(seg.code)
	want := seg.size + n
	if size >= want {
		return
	}
	if size == 0 {
		size = 4096
	}
	for size < want {
		size *= 2
	}
	if seg.limit > 0 && size > seg.limit {
		size = seg.limit
	}
	b := make([]byte, size)
	copy(b, seg.code[:seg.size])
	seg.code = b
}

// Buffer is a reference type representing a section beginning at the end of a
// code segment where new instructions can be written.
type Buffer struct {
	seg *CodeSegment
	off int
}

// Start returns the offset of the buffer within its code segment.
func (buf Buffer) Start() int {
	return buf.off
}

// Len returns the number of bytes written through the buffer.
func (buf Buffer) Len() int {
	return buf.seg.size - buf.off
}

// Remaining returns how many more bytes the segment accepts, or -1 when unbounded.
func (buf Buffer) Remaining() int {
	if buf.seg.limit == 0 {
		return -1
	}
	return buf.seg.limit - buf.seg.size
}

// Bytes returns the bytes written through the buffer.
func (buf Buffer) Bytes() []byte {
	i := buf.off
	j := buf.seg.size
	return buf.seg.code[i:j:j]
}

// Reset discards everything written through the buffer.
func (buf Buffer) Reset() {
	buf.seg.size = buf.off
}

// Truncate keeps the first n bytes written through the buffer.
func (buf Buffer) Truncate(n int) {
	buf.seg.size = buf.off + n
}

// EmitWord appends one big-endian instruction word.
func (buf Buffer) EmitWord(u uint32) {
	binary.BigEndian.PutUint32(buf.seg.append(4), u)
}

// Word returns the instruction word at the given offset relative to the buffer start.
func (buf Buffer) Word(at int) uint32 {
	return binary.BigEndian.Uint32(buf.Bytes()[at : at+4])
}

// PatchWord overwrites the instruction word at the given offset relative to the buffer start.
func (buf Buffer) PatchWord(at int, u uint32) {
	binary.BigEndian.PutUint32(buf.Bytes()[at:at+4], u)
}

// Write implements io.Writer.
func (buf Buffer) Write(b []byte) (int, error) {
	buf.seg.write(b)
	return len(b), nil
}
