package zipwright

import (
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/zlib"
	"github.com/ulikunitz/xz/lzma"
)

// NewCompressor returns a writer that compresses into w with the given
// method. Level 0 selects the method's default; STORE ignores the level.
// The returned writer must be closed to flush the stream.
func NewCompressor(method Method, w io.Writer, level int) (io.WriteCloser, error) {
	switch method {
	case MethodStore:
		return nopWriteCloser{w}, nil
	case MethodZlib:
		return newZlibWriter(w, level)
	case MethodBzip2:
		return newBzip2Writer(w, level)
	case MethodLZMA:
		return newLZMAWriter(w, level)
	default:
		return nil, ErrUnknownMethod
	}
}

// NewDecompressor returns a reader that decompresses the given method's
// stream from r.
func NewDecompressor(method Method, r io.Reader) (io.ReadCloser, error) {
	switch method {
	case MethodStore:
		return io.NopCloser(r), nil
	case MethodZlib:
		return zlib.NewReader(r)
	case MethodBzip2:
		return bzip2.NewReader(r, nil)
	case MethodLZMA:
		lr, err := lzma.NewReader(r)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(lr), nil
	default:
		return nil, ErrUnknownMethod
	}
}

func newZlibWriter(w io.Writer, level int) (io.WriteCloser, error) {
	if level == 0 {
		level = zlib.DefaultCompression
	} else if level < zlib.BestSpeed || level > zlib.BestCompression {
		return nil, ErrInvalidLevel
	}
	return zlib.NewWriterLevel(w, level)
}

func newBzip2Writer(w io.Writer, level int) (io.WriteCloser, error) {
	if level == 0 {
		level = bzip2.DefaultCompression
	} else if level < bzip2.BestSpeed || level > bzip2.BestCompression {
		return nil, ErrInvalidLevel
	}
	return bzip2.NewWriter(w, &bzip2.WriterConfig{Level: level})
}

const lzmaDefaultLevel = 6

// lzmaDictCaps maps levels 1-9 to dictionary capacities following the xz
// preset ladder. Index 0 is unused; level 0 maps to the default level.
var lzmaDictCaps = [10]int{
	0,
	1 << 20, // 1: 1 MiB
	1 << 21, // 2: 2 MiB
	1 << 22, // 3: 4 MiB
	1 << 22, // 4: 4 MiB
	1 << 23, // 5: 8 MiB
	1 << 23, // 6: 8 MiB
	1 << 24, // 7: 16 MiB
	1 << 25, // 8: 32 MiB
	1 << 26, // 9: 64 MiB
}

func newLZMAWriter(w io.Writer, level int) (io.WriteCloser, error) {
	if level == 0 {
		level = lzmaDefaultLevel
	} else if level < 1 || level > 9 {
		return nil, ErrInvalidLevel
	}
	cfg := lzma.WriterConfig{DictCap: lzmaDictCaps[level]}
	return cfg.NewWriter(w)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
