package disk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flash.img")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestOpen(t *testing.T) {
	data := make([]byte, 2048)
	for i := range data {
		data[i] = byte(i)
	}

	d, err := Open(writeImage(t, data))
	require.NoError(t, err)
	defer d.Close()

	size, err := d.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(2048), size)

	// Regular files have no kernel-reported sector size.
	assert.Equal(t, uint32(0), d.SectorSize())
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestReadBlock(t *testing.T) {
	data := make([]byte, 2048)
	for i := range data {
		data[i] = byte(i)
	}

	d, err := Open(writeImage(t, data))
	require.NoError(t, err)
	defer d.Close()

	t.Run("positive offset", func(t *testing.T) {
		buf, pos, err := d.ReadBlock(512, 16)
		require.NoError(t, err)
		assert.Equal(t, int64(512), pos)
		assert.Equal(t, data[512:528], buf)
	})

	t.Run("negative offset counts from end", func(t *testing.T) {
		buf, pos, err := d.ReadBlock(-512, 512)
		require.NoError(t, err)
		assert.Equal(t, int64(1536), pos)
		assert.Equal(t, data[1536:], buf)
	})

	t.Run("short read fails", func(t *testing.T) {
		_, _, err := d.ReadBlock(2000, 512)
		assert.Error(t, err)
	})

	t.Run("offset before start fails", func(t *testing.T) {
		_, _, err := d.ReadBlock(-4096, 16)
		assert.Error(t, err)
	})
}
