package zipwright

import (
	"bytes"
	"io"

	"github.com/spf13/afero"
)

// spool buffers a compressed payload. It stays in memory up to limit bytes
// and spills to a temp file beyond that, so large payloads never hold a
// full in-memory copy. Close removes the temp file when one was created.
type spool struct {
	fs    afero.Fs
	dir   string
	limit int

	mem  bytes.Buffer
	file afero.File
	size int64
}

func newSpool(fs afero.Fs, dir string, limit int) *spool {
	return &spool{fs: fs, dir: dir, limit: limit}
}

func (s *spool) Write(p []byte) (int, error) {
	if s.file == nil && s.mem.Len()+len(p) > s.limit {
		f, err := afero.TempFile(s.fs, s.dir, "zipwright-spool-")
		if err != nil {
			return 0, err
		}
		if _, err := f.Write(s.mem.Bytes()); err != nil {
			f.Close()
			s.fs.Remove(f.Name())
			return 0, err
		}
		s.file = f
		s.mem.Reset()
	}

	var n int
	var err error
	if s.file != nil {
		n, err = s.file.Write(p)
	} else {
		n, err = s.mem.Write(p)
	}
	s.size += int64(n)
	return n, err
}

// Size returns the number of bytes written so far.
func (s *spool) Size() int64 {
	return s.size
}

// Reader returns a reader over the buffered payload from the start.
// Closing the reader does not release the spool; that is Close's job.
// Reading and writing must not be interleaved.
func (s *spool) Reader() (io.ReadCloser, error) {
	if s.file != nil {
		if _, err := s.file.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		return io.NopCloser(s.file), nil
	}
	return io.NopCloser(bytes.NewReader(s.mem.Bytes())), nil
}

// Close releases the buffer and removes the temp file if one was created.
func (s *spool) Close() error {
	if s.file == nil {
		s.mem.Reset()
		return nil
	}
	name := s.file.Name()
	err := s.file.Close()
	if rerr := s.fs.Remove(name); rerr != nil && err == nil {
		err = rerr
	}
	s.file = nil
	return err
}
