// Package configblock decodes the Toradex config block, a small
// tag-length-value structure holding factory data such as the module type
// and the Ethernet MAC address.
package configblock

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// BlockSize is the size of the raw config block buffer. The walk never
	// reads past it, even when a corrupt tag length claims otherwise.
	BlockSize = 512

	// TagValid marks the start of a config block.
	TagValid = 0xcf01
	// TagMAC carries the 6-byte Ethernet address.
	TagMAC = 0x0000
	// TagHW carries the 8-byte hardware info record.
	TagHW = 0x0008

	tagLen       = 4
	flagValid    = 0x1
	ethAddrLen   = 6
	hardwareLen  = 8
	lenMask      = 0x3fff
	flagShift    = 14
)

// ErrNotFound is returned when the buffer does not start with a valid
// config block marker. It is not fatal; the caller may retry another
// device or offset.
var ErrNotFound = errors.New("no config block found")

// Tag is a 4-byte tag header: a 14-bit payload length in 32-bit words, a
// 2-bit flag field of which only the valid bit is meaningful, and a 16-bit
// tag id.
type Tag struct {
	Len   uint16
	Flags uint8
	ID    uint16
}

// Valid reports whether the valid flag bit is set. The walk over a tag
// stream ends at the first tag where it is not.
func (t Tag) Valid() bool {
	return t.Flags&flagValid != 0
}

func parseTag(b []byte) Tag {
	le := binary.LittleEndian
	w := le.Uint16(b[0:2])
	return Tag{
		Len:   w & lenMask,
		Flags: uint8(w >> flagShift),
		ID:    le.Uint16(b[2:4]),
	}
}

// HardwareInfo describes the module hardware revision and product.
type HardwareInfo struct {
	VerMajor    uint16
	VerMinor    uint16
	VerAssembly uint16
	ProductID   uint16
}

// Version renders the hardware revision the way Toradex prints it, with
// the assembly version as a letter starting at A.
func (h HardwareInfo) Version() string {
	return fmt.Sprintf("V%d.%d%c", h.VerMajor, h.VerMinor, 'A'+byte(h.VerAssembly))
}

// EthernetAddress is a MAC address split into its organizationally-unique
// and NIC-specific halves, as stored on flash.
type EthernetAddress struct {
	OUI [3]byte
	NIC [3]byte
}

func (e EthernetAddress) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
		e.OUI[0], e.OUI[1], e.OUI[2], e.NIC[0], e.NIC[1], e.NIC[2])
}

// Serial derives the module serial number from the NIC half of the MAC
// address, read as a big-endian 24-bit value.
func (e EthernetAddress) Serial() uint32 {
	return uint32(e.NIC[0])<<16 | uint32(e.NIC[1])<<8 | uint32(e.NIC[2])
}

// Block is a decoded config block. HW and Eth are nil when the
// corresponding tag was absent. UnknownTags lists ids that were skipped,
// for diagnostics.
type Block struct {
	HW          *HardwareInfo
	Eth         *EthernetAddress
	UnknownTags []uint16
}

// Parse walks the tag stream of a raw config block buffer.
//
// The first tag must carry the valid flag and the TagValid id, otherwise
// ErrNotFound is returned. After that, tags are visited in order until one
// without the valid flag ends the stream, or until the next tag header or
// payload would cross the buffer bound. The cursor advances by 4 bytes of
// tag header plus 4*Len payload bytes per tag, recognized or not.
func Parse(buf []byte) (*Block, error) {
	if len(buf) < tagLen {
		return nil, fmt.Errorf("%w: buffer too small (%d bytes)", ErrNotFound, len(buf))
	}
	if len(buf) > BlockSize {
		buf = buf[:BlockSize]
	}

	start := parseTag(buf[0:tagLen])
	if !start.Valid() || start.ID != TagValid {
		return nil, ErrNotFound
	}

	blk := &Block{}
	for off := tagLen; off+tagLen <= len(buf); {
		tag := parseTag(buf[off : off+tagLen])
		if !tag.Valid() {
			break
		}
		off += tagLen

		switch tag.ID {
		case TagMAC:
			if off+ethAddrLen > len(buf) {
				return blk, nil
			}
			eth := &EthernetAddress{}
			copy(eth.OUI[:], buf[off:off+3])
			copy(eth.NIC[:], buf[off+3:off+6])
			blk.Eth = eth
		case TagHW:
			if off+hardwareLen > len(buf) {
				return blk, nil
			}
			le := binary.LittleEndian
			blk.HW = &HardwareInfo{
				VerMajor:    le.Uint16(buf[off : off+2]),
				VerMinor:    le.Uint16(buf[off+2 : off+4]),
				VerAssembly: le.Uint16(buf[off+4 : off+6]),
				ProductID:   le.Uint16(buf[off+6 : off+8]),
			}
		default:
			blk.UnknownTags = append(blk.UnknownTags, tag.ID)
		}

		payload := int(tag.Len) * 4
		if payload > len(buf)-off {
			break
		}
		off += payload
	}

	return blk, nil
}
