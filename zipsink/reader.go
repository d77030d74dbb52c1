package zipsink

import (
	"archive/zip"
	"fmt"
	"hash/crc32"
	"io"
	"io/fs"

	"github.com/zipwright/zipwright"
)

// EntryInfo describes one archive member.
type EntryInfo struct {
	Name           string
	Method         zipwright.Method
	Transforms     zipwright.TransformFlags
	OriginalSize   int64
	CompressedSize int64
	CRC32          uint32
}

// Reader opens zipwright archives for listing and extraction.
type Reader struct {
	zr *zip.Reader
}

// NewReader reads the archive directory from r.
func NewReader(r io.ReaderAt, size int64) (*Reader, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("zipsink: open archive: %w", err)
	}
	return &Reader{zr: zr}, nil
}

// Entries lists the archive members in directory order.
func (r *Reader) Entries() []EntryInfo {
	infos := make([]EntryInfo, 0, len(r.zr.File))
	for _, f := range r.zr.File {
		method, flags, originalSize, ok := parseExtra(f.Extra)
		if !ok {
			method, flags = zipwright.MethodStore, 0
			originalSize = int64(f.UncompressedSize64)
		}
		infos = append(infos, EntryInfo{
			Name:           f.Name,
			Method:         method,
			Transforms:     flags,
			OriginalSize:   originalSize,
			CompressedSize: int64(f.CompressedSize64),
			CRC32:          f.CRC32,
		})
	}
	return infos
}

// Extract decompresses one member, reverses its preprocessing, verifies
// the checksum, and returns the original bytes. The member is fully
// buffered; archives written by zipwright record the original size in
// each entry for sizing decisions before extraction.
func (r *Reader) Extract(name string) ([]byte, error) {
	for _, f := range r.zr.File {
		if f.Name == name {
			return r.extractFile(f)
		}
	}
	return nil, fmt.Errorf("zipsink: %s: %w", name, fs.ErrNotExist)
}

func (r *Reader) extractFile(f *zip.File) ([]byte, error) {
	method, flags, _, ok := parseExtra(f.Extra)
	if !ok {
		// Plain stored zip entries still extract; anything else needs
		// metadata this archive does not carry.
		if f.Method != zip.Store {
			return nil, fmt.Errorf("zipsink: %s: %w", f.Name, ErrForeignEntry)
		}
		method, flags = zipwright.MethodStore, 0
	}

	raw, err := f.OpenRaw()
	if err != nil {
		return nil, fmt.Errorf("zipsink: open %s: %w", f.Name, err)
	}
	dec, err := zipwright.NewDecompressor(method, raw)
	if err != nil {
		return nil, fmt.Errorf("zipsink: %s: %w", f.Name, err)
	}
	data, err := io.ReadAll(dec)
	if err != nil {
		dec.Close()
		return nil, fmt.Errorf("zipsink: decompress %s: %w", f.Name, err)
	}
	if err := dec.Close(); err != nil {
		return nil, fmt.Errorf("zipsink: decompress %s: %w", f.Name, err)
	}

	plain, err := zipwright.Invert(data, flags)
	if err != nil {
		return nil, fmt.Errorf("zipsink: restore %s: %w", f.Name, err)
	}
	if crc32.ChecksumIEEE(plain) != f.CRC32 {
		return nil, fmt.Errorf("zipsink: %s: %w", f.Name, ErrChecksum)
	}
	return plain, nil
}
