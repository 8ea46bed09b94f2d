// Package tegra decodes the proprietary NVIDIA partition table stored in the
// boot area of Tegra-based modules. The table is a fixed 4096-byte structure
// holding a small header followed by up to 24 partition records; on flash it
// simply repeats after 0x1000 bytes.
package tegra

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// TableSize is the size of the raw partition table buffer.
	TableSize = 4096

	// Version is the only partition table layout version this decoder
	// supports (as flashed by the Apalis 2.1 images).
	Version = 0x00000100

	// MaxRecords bounds the partition record array inside the table.
	MaxRecords = 24

	// BCTID is the partition id the boot configuration table record must
	// carry at position 0.
	BCTID = 2

	// sentinelID marks the end of the valid record range; any record with
	// an id at or above it terminates the scan.
	sentinelID = 128

	headerLen    = 72
	recordStride = 80
)

var (
	bctName = [4]byte{'B', 'C', 'T', 0}
	gptName = [3]byte{'G', 'P', 'T'}
)

// Errors returned by Parse. ErrFormat covers structural mismatches such as
// an unexpected table version; ErrValidation covers tables with the right
// shape but inconsistent content. Both are wrapped with detail, match with
// errors.Is.
var (
	ErrFormat     = errors.New("unsupported partition table format")
	ErrValidation = errors.New("partition table validation failed")
)

// Record is a single partition record. The two name fields are expected to
// agree; both are kept so callers can report when they do not.
type Record struct {
	ID               uint32
	Name             [4]byte
	Name2            [4]byte
	AllocationPolicy uint32
	FilesystemType   uint32
	VirtualStart     uint32
	VirtualSize      uint32
	StartSector      uint32
	EndSector        uint32
	Type             uint32
}

// DisplayName returns the primary name field up to its NUL padding.
func (r Record) DisplayName() string {
	name := r.Name[:]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	return string(name)
}

// isGPTMarker reports whether both name fields start with "GPT". Such a
// record signals that a GPT is present on the user area of the flash; its
// own sector fields are not meaningful for locating it.
func (r Record) isGPTMarker() bool {
	return bytes.Equal(r.Name[:3], gptName[:]) && bytes.Equal(r.Name2[:3], gptName[:])
}

// Table is a decoded partition table. Records holds every record visited
// during the scan, in table order, starting with the BCT record.
type Table struct {
	Version   uint32
	TableSize uint32
	NumParts  uint32

	records  []Record
	gptIndex int
}

// Records returns the visited records in table order. The returned slice is
// a copy; the table itself is immutable once parsed.
func (t *Table) Records() []Record {
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// GPT returns the record marking the presence of a GUID partition table and
// its index, if one was found during the scan.
func (t *Table) GPT() (Record, int, bool) {
	if t.gptIndex < 0 {
		return Record{}, 0, false
	}
	return t.records[t.gptIndex], t.gptIndex, true
}

func decodeRecord(b []byte) Record {
	le := binary.LittleEndian
	var r Record
	r.ID = le.Uint32(b[0:4])
	copy(r.Name[:], b[4:8])
	r.AllocationPolicy = le.Uint32(b[8:12])
	copy(r.Name2[:], b[20:24])
	r.FilesystemType = le.Uint32(b[24:28])
	r.VirtualStart = le.Uint32(b[40:44])
	r.VirtualSize = le.Uint32(b[48:52])
	r.StartSector = le.Uint32(b[56:60])
	r.EndSector = le.Uint32(b[64:68])
	r.Type = le.Uint32(b[72:76])
	return r
}

// Parse decodes a raw 4096-byte partition table.
//
// Record 0 must be the BCT record (id 2, both names "BCT", start sector 0).
// Records after it are scanned in order up to the lower of MaxRecords and
// the declared partition count; the first record with an id >= 128 ends the
// scan without error. Scan precedence is exactly bound, then declared
// count, then sentinel.
//
// On a validation failure the table decoded so far is returned alongside
// the error so callers can still report the records already visited.
func Parse(buf []byte) (*Table, error) {
	if len(buf) != TableSize {
		return nil, fmt.Errorf("%w: table must be %d bytes, got %d", ErrFormat, TableSize, len(buf))
	}

	le := binary.LittleEndian
	t := &Table{
		Version:   le.Uint32(buf[8:12]),
		TableSize: le.Uint32(buf[12:16]),
		NumParts:  le.Uint32(buf[64:68]),
		gptIndex:  -1,
	}

	if t.Version != Version {
		return nil, fmt.Errorf("%w: version 0x%08x, expected 0x%08x", ErrFormat, t.Version, Version)
	}

	bct := decodeRecord(buf[headerLen : headerLen+recordStride])
	t.records = append(t.records, bct)

	if bct.ID != BCTID {
		return t, fmt.Errorf("%w: BCT record has id %d, expected %d", ErrValidation, bct.ID, BCTID)
	}
	if bct.Name != bctName || bct.Name2 != bctName {
		return t, fmt.Errorf("%w: BCT record has name %q/%q, expected %q", ErrValidation,
			bct.Name[:], bct.Name2[:], bctName[:3])
	}
	if bct.StartSector != 0 {
		return t, fmt.Errorf("%w: BCT record starts at sector %d, expected 0", ErrValidation, bct.StartSector)
	}

	for i := 1; i < MaxRecords && uint32(i) < t.NumParts; i++ {
		off := headerLen + i*recordStride
		r := decodeRecord(buf[off : off+recordStride])
		if r.ID >= sentinelID {
			break
		}
		t.records = append(t.records, r)
		if r.isGPTMarker() {
			t.gptIndex = len(t.records) - 1
		}
	}

	return t, nil
}
