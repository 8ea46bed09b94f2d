// Package disk provides read-only access to the block devices and image
// files the decoders pull their buffers from. The decoders themselves only
// ever see byte buffers and the SectorReader interface.
package disk

import (
	"fmt"
	"io"
	"os"
)

// Device is an open block device or regular file.
type Device struct {
	f    *os.File
	path string

	sectorSize uint32
}

// Open opens a device or image file read-only.
func Open(path string) (*Device, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	d := &Device{f: f, path: path}
	d.sectorSize = querySectorSize(f)
	return d, nil
}

// Path returns the path the device was opened with, for diagnostics.
func (d *Device) Path() string {
	return d.path
}

// SectorSize reports the logical sector size of the device, or 0 when it
// could not be determined (regular files, non-Linux platforms).
func (d *Device) SectorSize() uint32 {
	return d.sectorSize
}

// Size reports the total size of the device in bytes.
func (d *Device) Size() (int64, error) {
	size, err := d.f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("determine size of %s: %w", d.path, err)
	}
	return size, nil
}

// ReadAt implements io.ReaderAt.
func (d *Device) ReadAt(p []byte, off int64) (int, error) {
	return d.f.ReadAt(p, off)
}

// ReadBlock reads exactly n bytes at the given byte offset. A negative
// offset counts back from the end of the device. It returns the buffer and
// the absolute position the read started at, for diagnostics.
func (d *Device) ReadBlock(off int64, n int) ([]byte, int64, error) {
	pos := off
	if off < 0 {
		size, err := d.Size()
		if err != nil {
			return nil, 0, err
		}
		pos = size + off
	}
	if pos < 0 {
		return nil, 0, fmt.Errorf("read %s: offset %d out of range", d.path, off)
	}

	buf := make([]byte, n)
	if _, err := d.f.ReadAt(buf, pos); err != nil {
		return nil, 0, fmt.Errorf("read %d bytes from %s at offset 0x%x: %w", n, d.path, pos, err)
	}
	return buf, pos, nil
}

// Close closes the underlying file.
func (d *Device) Close() error {
	return d.f.Close()
}
