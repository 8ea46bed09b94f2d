// Package gpt decodes and validates the GUID Partition Table found in the
// last sectors of the flash user area. Validation follows the UEFI layout:
// the header carries a CRC-32 over its own bytes with the checksum field
// zeroed, and no entry is read from a device whose header fails that check.
package gpt

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/tklauser/apalis-tools/internal/checksum"
	"github.com/tklauser/apalis-tools/internal/guid"
)

const (
	// DefaultSectorSize is assumed when the device cannot report its
	// logical sector size.
	DefaultSectorSize = 512

	// headerLen is the fixed portion of the GPT header. The on-disk size
	// field may declare more (the remainder must still checksum), never
	// less.
	headerLen = 92

	// minEntryLen covers the fixed fields plus the 72-byte name of one
	// partition entry; the declared entry stride may be larger.
	minEntryLen = 128

	crcOffset = 16
	nameBytes = 72

	// maxNameRunes bounds the decoded display name of an entry.
	maxNameRunes = 19
)

var signature = [8]byte{'E', 'F', 'I', ' ', 'P', 'A', 'R', 'T'}

// Errors returned by ParseHeader and ReadTable; match with errors.Is.
var (
	ErrFormat     = errors.New("bad GPT header format")
	ErrValidation = errors.New("GPT header validation failed")
)

// SectorReader is the device access the decoder consumes. It is implemented
// by the disk I/O layer; the decoder itself never opens anything.
type SectorReader interface {
	io.ReaderAt

	// SectorSize reports the logical sector size of the device, or 0 if
	// it cannot be determined.
	SectorSize() uint32

	// Size reports the total size of the device in bytes.
	Size() (int64, error)
}

// Header is a decoded GPT header. All fields are converted from their
// little-endian wire representation.
type Header struct {
	Revision    uint32
	Size        uint32
	CRC         uint32
	CurrentLBA  uint64
	BackupLBA   uint64
	FirstUsable uint64
	LastUsable  uint64
	DiskGUID    uuid.UUID
	EntriesLBA  uint64
	NumEntries  uint32
	EntrySize   uint32
	EntriesCRC  uint32
}

// Entry is a decoded partition entry.
type Entry struct {
	Type       uuid.UUID
	Unique     uuid.UUID
	FirstLBA   uint64
	LastLBA    uint64
	Attributes uint64
	Name       string
}

// Blocks returns the partition length in logical blocks; both LBA bounds
// are inclusive.
func (e Entry) Blocks() uint64 {
	return e.LastLBA - e.FirstLBA + 1
}

// Table is a fully decoded and validated GPT.
type Table struct {
	Header  *Header
	Entries []Entry

	// SectorSize and TableOffset describe where the entry array was read
	// from, for reporting.
	SectorSize  uint32
	TableOffset int64

	rawHeader  []byte
	rawEntries []byte
}

// RawHeader returns the header sector as read from the device.
func (t *Table) RawHeader() []byte {
	return t.rawHeader
}

// RawEntry returns the on-disk bytes of entry i.
func (t *Table) RawEntry(i int) []byte {
	off := i * int(t.Header.EntrySize)
	return t.rawEntries[off : off+int(t.Header.EntrySize)]
}

// ParseHeader decodes and validates a GPT header sector. The signature is
// compared byte-for-byte; the self-checksum is recomputed over exactly
// Header.Size bytes with the stored CRC field zeroed. A checksum mismatch
// means the whole table is untrustworthy, so callers must not read entries
// after an error.
func ParseHeader(block []byte) (*Header, error) {
	if len(block) < headerLen {
		return nil, fmt.Errorf("%w: header block too small (%d bytes)", ErrFormat, len(block))
	}
	if !bytes.Equal(block[0:8], signature[:]) {
		return nil, fmt.Errorf("%w: invalid signature %q", ErrFormat, block[0:8])
	}

	le := binary.LittleEndian
	h := &Header{
		Revision:    le.Uint32(block[8:12]),
		Size:        le.Uint32(block[12:16]),
		CRC:         le.Uint32(block[16:20]),
		CurrentLBA:  le.Uint64(block[24:32]),
		BackupLBA:   le.Uint64(block[32:40]),
		FirstUsable: le.Uint64(block[40:48]),
		LastUsable:  le.Uint64(block[48:56]),
		EntriesLBA:  le.Uint64(block[72:80]),
		NumEntries:  le.Uint32(block[80:84]),
		EntrySize:   le.Uint32(block[84:88]),
		EntriesCRC:  le.Uint32(block[88:92]),
	}

	if h.Size < headerLen || int(h.Size) > len(block) {
		return nil, fmt.Errorf("%w: header size %d out of range", ErrValidation, h.Size)
	}

	if crc := checksum.Crc32WithZeroedField(block[:h.Size], crcOffset, 4); crc != h.CRC {
		return nil, fmt.Errorf("%w: header CRC 0x%08x, calculated 0x%08x", ErrValidation, h.CRC, crc)
	}

	var err error
	if h.DiskGUID, err = guid.Decode(block[56:72]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	return h, nil
}

func parseEntry(b []byte) (Entry, error) {
	le := binary.LittleEndian
	e := Entry{
		FirstLBA:   le.Uint64(b[32:40]),
		LastLBA:    le.Uint64(b[40:48]),
		Attributes: le.Uint64(b[48:56]),
		Name:       guid.DecodeUTF16Name(b[56:56+nameBytes], maxNameRunes),
	}

	var err error
	if e.Type, err = guid.Decode(b[0:16]); err != nil {
		return Entry{}, err
	}
	if e.Unique, err = guid.Decode(b[16:32]); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// ReadTable locates, decodes and validates the GPT of a device. The header
// lives in the final logical sector; the entry array location and extent
// are taken from the validated header, with the read rounded up to whole
// sectors.
func ReadTable(r SectorReader) (*Table, error) {
	sector := r.SectorSize()
	if sector == 0 {
		sector = DefaultSectorSize
	}

	size, err := r.Size()
	if err != nil {
		return nil, fmt.Errorf("determine device size: %w", err)
	}
	if size < int64(sector) {
		return nil, fmt.Errorf("%w: device smaller than one sector", ErrFormat)
	}

	block := make([]byte, sector)
	if _, err := r.ReadAt(block, size-int64(sector)); err != nil {
		return nil, fmt.Errorf("read GPT header sector: %w", err)
	}

	h, err := ParseHeader(block)
	if err != nil {
		return nil, err
	}

	if h.EntrySize < minEntryLen {
		return nil, fmt.Errorf("%w: entry size %d below minimum %d", ErrValidation, h.EntrySize, minEntryLen)
	}

	tableBytes := uint64(h.NumEntries) * uint64(h.EntrySize)
	sectors := (tableBytes + uint64(sector) - 1) / uint64(sector)
	offset := int64(h.EntriesLBA) * int64(sector)

	buf := make([]byte, sectors*uint64(sector))
	if _, err := r.ReadAt(buf, offset); err != nil {
		return nil, fmt.Errorf("read GPT entry table: %w", err)
	}

	t := &Table{
		Header:      h,
		SectorSize:  sector,
		TableOffset: offset,
		rawHeader:   block,
		rawEntries:  buf,
	}

	for i := 0; i < int(h.NumEntries); i++ {
		e, err := parseEntry(t.RawEntry(i))
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrFormat, i, err)
		}
		t.Entries = append(t.Entries, e)
	}

	return t, nil
}
