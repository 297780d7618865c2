package sparcjit

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/sparcjit/sparcjit/internal/engine/backend/isa/sparc64"
)

var (
	// magic is the first bytes of every cached block.
	magic = []byte{'S', 'P', 'J', 'I', 'T', 'B'}
	crc   = crc32.MakeTable(crc32.Castagnoli)
)

// cachedBlock is what the compilation cache keeps of a translated block.
type cachedBlock struct {
	guestLen uint64
	code     []byte
	sites    []sparc64.ChainSite
}

// serializeBlock encodes b as:
//
//	magic | len(version) u8 | version | guestLen u64 | len(code) u64 | code | crc32(code) u32 |
//	len(sites) u32 | { offset u32 | target u64 | toFastEP u8 }...
//
// Integers are little endian.
func serializeBlock(version string, b *cachedBlock) io.Reader {
	buf := bytes.NewBuffer(nil)
	buf.Write(magic)
	buf.WriteByte(byte(len(version)))
	buf.WriteString(version)

	var tmp [8]byte
	u32 := func(v uint32) {
		binary.LittleEndian.PutUint32(tmp[:4], v)
		buf.Write(tmp[:4])
	}
	u64 := func(v uint64) {
		binary.LittleEndian.PutUint64(tmp[:], v)
		buf.Write(tmp[:])
	}
	u64(b.guestLen)
	u64(uint64(len(b.code)))
	buf.Write(b.code)
	u32(crc32.Checksum(b.code, crc))
	u32(uint32(len(b.sites)))
	for _, s := range b.sites {
		u32(uint32(s.Offset))
		u64(s.Target)
		if s.ToFastEP {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	}
	return bytes.NewReader(buf.Bytes())
}

// deserializeBlock decodes what serializeBlock wrote. staleCache is true when the entry was written by another
// version, in which case it should be deleted.
func deserializeBlock(version string, reader io.Reader) (b *cachedBlock, staleCache bool, err error) {
	header := make([]byte, len(magic)+1+len(version))
	if n, err := io.ReadFull(reader, header); err != nil {
		return nil, false, fmt.Errorf("compilationcache: invalid header length: %d", n)
	}
	if !bytes.Equal(header[:len(magic)], magic) {
		return nil, false, fmt.Errorf("compilationcache: invalid magic number: got %s but want %s",
			header[:len(magic)], magic)
	}
	if v := header[len(magic)]; int(v) != len(version) || string(header[len(magic)+1:]) != version {
		return nil, true, nil
	}

	var tmp [8]byte
	u32 := func(what string) (uint32, error) {
		if _, err := io.ReadFull(reader, tmp[:4]); err != nil {
			return 0, fmt.Errorf("compilationcache: error reading %s: %w", what, err)
		}
		return binary.LittleEndian.Uint32(tmp[:4]), nil
	}
	u64 := func(what string) (uint64, error) {
		if _, err := io.ReadFull(reader, tmp[:]); err != nil {
			return 0, fmt.Errorf("compilationcache: error reading %s: %w", what, err)
		}
		return binary.LittleEndian.Uint64(tmp[:]), nil
	}

	b = &cachedBlock{}
	if b.guestLen, err = u64("guest length"); err != nil {
		return nil, false, err
	}
	size, err := u64("code size")
	if err != nil {
		return nil, false, err
	}
	b.code = make([]byte, size)
	if _, err = io.ReadFull(reader, b.code); err != nil {
		return nil, false, fmt.Errorf("compilationcache: error reading code (len=%d): %w", size, err)
	}
	expected, err := u32("checksum")
	if err != nil {
		return nil, false, err
	}
	if checksum := crc32.Checksum(b.code, crc); checksum != expected {
		return nil, false, fmt.Errorf("compilationcache: checksum mismatch (expected %d, got %d)", expected, checksum)
	}

	n, err := u32("number of chain sites")
	if err != nil {
		return nil, false, err
	}
	b.sites = make([]sparc64.ChainSite, n)
	for k := range b.sites {
		off, err := u32("chain site offset")
		if err != nil {
			return nil, false, err
		}
		target, err := u64("chain site target")
		if err != nil {
			return nil, false, err
		}
		if _, err = io.ReadFull(reader, tmp[:1]); err != nil {
			return nil, false, fmt.Errorf("compilationcache: error reading chain site entry point: %w", err)
		}
		if int(off)+sparc64.ChainPatchSize > len(b.code) {
			return nil, false, fmt.Errorf("compilationcache: chain site at %d lies outside of the code (len=%d)", off, len(b.code))
		}
		b.sites[k] = sparc64.ChainSite{Offset: int(off), Target: target, ToFastEP: tmp[0] != 0}
	}
	return b, false, nil
}
