// Package checksum implements the CRC-32 self-check used by GPT on-disk
// structures.
package checksum

import "hash/crc32"

// Crc32 computes the CRC-32 of data using the reflected polynomial
// 0xEDB88320, an all-ones initial value and a final inversion. This is the
// CRC-32/ISO-HDLC variant that GPT uses for both the header self-checksum
// and the entry array checksum.
func Crc32(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// Crc32WithZeroedField computes the CRC-32 of data as if the width bytes
// starting at offset were zero. GPT stores the header checksum inside the
// checksummed region, so validation requires hashing with that field blanked
// out. The caller's buffer is not modified.
func Crc32WithZeroedField(data []byte, offset, width int) uint32 {
	buf := make([]byte, len(data))
	copy(buf, data)
	for i := offset; i < offset+width && i < len(buf); i++ {
		buf[i] = 0
	}
	return crc32.ChecksumIEEE(buf)
}
