// Package zipsink writes and reads zipwright archives. An archive is a
// standard ZIP file whose entries are stored verbatim (zip method Store)
// and carry the real compression method, transform flags, and original
// size in a private extra field. Generic zip tools can list such archives;
// extracting the payloads requires this package or the zipwright CLI.
package zipsink

import (
	"archive/zip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/zipwright/zipwright"
)

var (
	ErrForeignEntry = errors.New("zipsink: entry was not written by zipwright")
	ErrChecksum     = errors.New("zipsink: checksum mismatch")
)

// ExtraFieldID tags the private extra field holding entry metadata ("ZW").
const ExtraFieldID uint16 = 0x5a57

const (
	extraVersion = 1
	extraSize    = 11 // version, method, flags, original size
)

// Writer packs engine entries into a ZIP archive. It is not safe for
// concurrent use; feed it from the single consumer of a run's results.
type Writer struct {
	zw *zip.Writer
}

// NewWriter returns a Writer emitting the archive to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{zw: zip.NewWriter(w)}
}

// Add appends one entry to the archive and releases its payload.
func (w *Writer) Add(entry *zipwright.Entry) error {
	defer entry.Close()

	hdr := &zip.FileHeader{
		Name:     normalizeName(entry.Name),
		Method:   zip.Store,
		Modified: time.Now(),
	}
	hdr.SetMode(0o644)
	hdr.CRC32 = entry.CRC32
	hdr.CompressedSize64 = uint64(entry.CompressedSize)
	hdr.UncompressedSize64 = uint64(entry.CompressedSize)
	hdr.Extra = encodeExtra(entry.Method, entry.Transforms, entry.OriginalSize)

	fw, err := w.zw.CreateRaw(hdr)
	if err != nil {
		return fmt.Errorf("zipsink: create %s: %w", hdr.Name, err)
	}
	rc, err := entry.Open()
	if err != nil {
		return fmt.Errorf("zipsink: payload %s: %w", hdr.Name, err)
	}
	if _, err := io.Copy(fw, rc); err != nil {
		rc.Close()
		return fmt.Errorf("zipsink: write %s: %w", hdr.Name, err)
	}
	return rc.Close()
}

// Close finishes the archive. It does not close the underlying writer.
func (w *Writer) Close() error {
	return w.zw.Close()
}

// normalizeName makes a task name safe as an archive member name.
func normalizeName(name string) string {
	name = path.Clean(filepath.ToSlash(name))
	name = strings.TrimPrefix(name, "/")
	for strings.HasPrefix(name, "../") {
		name = strings.TrimPrefix(name, "../")
	}
	if name == "" || name == "." || name == ".." {
		name = "file"
	}
	return name
}

// encodeExtra builds the private extra field: the standard 2-byte ID and
// 2-byte length, then version, method code, transform flag byte, and the
// original size in little-endian.
func encodeExtra(method zipwright.Method, flags zipwright.TransformFlags, originalSize int64) []byte {
	buf := make([]byte, 4+extraSize)
	binary.LittleEndian.PutUint16(buf[0:], ExtraFieldID)
	binary.LittleEndian.PutUint16(buf[2:], extraSize)
	buf[4] = extraVersion
	buf[5] = byte(method)
	buf[6] = byte(flags)
	binary.LittleEndian.PutUint64(buf[7:], uint64(originalSize))
	return buf
}

// parseExtra scans a zip extra area for the zipwright field.
func parseExtra(extra []byte) (zipwright.Method, zipwright.TransformFlags, int64, bool) {
	for len(extra) >= 4 {
		id := binary.LittleEndian.Uint16(extra[0:])
		n := int(binary.LittleEndian.Uint16(extra[2:]))
		if len(extra) < 4+n {
			break
		}
		body := extra[4 : 4+n]
		if id == ExtraFieldID && n >= extraSize && body[0] == extraVersion {
			method := zipwright.Method(body[1])
			flags := zipwright.TransformFlags(body[2])
			size := int64(binary.LittleEndian.Uint64(body[3:]))
			return method, flags, size, true
		}
		extra = extra[4+n:]
	}
	return 0, 0, 0, false
}
