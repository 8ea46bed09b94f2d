package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCrc32(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint32
	}{
		{
			name: "empty buffer",
			data: nil,
			want: 0,
		},
		{
			name: "check value from the CRC catalogue",
			data: []byte("123456789"),
			want: 0xCBF43926,
		},
		{
			name: "single zero byte",
			data: []byte{0x00},
			want: 0xD202EF8D,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Crc32(tt.data))
		})
	}
}

func TestCrc32Deterministic(t *testing.T) {
	data := make([]byte, 512)
	for i := range data {
		data[i] = byte(i * 7)
	}
	assert.Equal(t, Crc32(data), Crc32(data))
}

func TestCrc32WithZeroedField(t *testing.T) {
	data := []byte("123456789")

	// Zeroing a field must hash as if those bytes were zero.
	zeroed := []byte{'1', '2', 0, 0, 0, '6', '7', '8', '9'}
	assert.Equal(t, Crc32(zeroed), Crc32WithZeroedField(data, 2, 3))

	// The input buffer is left untouched.
	assert.Equal(t, []byte("123456789"), data)

	// A width running past the end of the buffer is clamped.
	assert.Equal(t, Crc32([]byte{'1', '2', 0, 0, 0, 0, 0, 0, 0}),
		Crc32WithZeroedField(data, 2, 100))
}
