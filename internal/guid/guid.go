// Package guid decodes the mixed-endian GUIDs and fixed-width UTF-16LE name
// fields found in GPT headers and partition entries.
package guid

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"

	"github.com/google/uuid"
)

// Size is the on-disk size of a GPT GUID in bytes.
const Size = 16

// Decode converts an on-disk GPT GUID into its canonical representation.
// GPT stores the first three GUID fields (one 32-bit, two 16-bit) in
// little-endian byte order while the final two fields are stored verbatim,
// so the leading eight bytes have to be swapped into big-endian display
// order before the value can be rendered as the usual 8-4-4-4-12 string.
func Decode(b []byte) (uuid.UUID, error) {
	if len(b) < Size {
		return uuid.UUID{}, fmt.Errorf("short GUID: got %d bytes, need %d", len(b), Size)
	}

	var u uuid.UUID
	u[0], u[1], u[2], u[3] = b[3], b[2], b[1], b[0]
	u[4], u[5] = b[5], b[4]
	u[6], u[7] = b[7], b[6]
	copy(u[8:], b[8:Size])
	return u, nil
}

// DecodeUTF16Name decodes a fixed-width UTF-16LE name field into a string.
// Decoding stops at the first NUL code unit or when the buffer is exhausted
// and the result is truncated to at most max runes. Name fields are not a
// correctness-critical path, so invalid code units are passed through
// best-effort as replacement runes.
func DecodeUTF16Name(b []byte, max int) string {
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		u := binary.LittleEndian.Uint16(b[i : i+2])
		if u == 0 {
			break
		}
		units = append(units, u)
	}

	runes := utf16.Decode(units)
	if max >= 0 && len(runes) > max {
		runes = runes[:max]
	}
	return string(runes)
}
