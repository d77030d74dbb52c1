package zipwright

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/spf13/afero"
)

// Benchmark data generators

func generateTextData(size int) []byte {
	// Cased prose with wide gaps, so both text transforms have work to do
	data := make([]byte, size)
	pattern := []byte("The Quick Brown Fox  jumps over the Lazy Dog.  ")
	for i := range data {
		data[i] = pattern[i%len(pattern)]
	}
	return data
}

func generateStructuredData(size int) []byte {
	// Fixed-width records: an ascii tag, a little-endian sequence number,
	// then payload bytes cycling through a short alphabet
	data := make([]byte, size)
	for i := range data {
		rec := i / 16
		switch pos := i % 16; {
		case pos < 4:
			data[i] = "rec="[pos]
		case pos < 8:
			data[i] = byte(rec >> (8 * (pos - 4)))
		default:
			data[i] = byte('a' + (rec+pos)%26)
		}
	}
	return data
}

func generateIncompressibleData(size int) []byte {
	// Seeded noise; the first byte is pinned clear of format signatures
	data := pseudoRandom(8251, size)
	if size > 0 {
		data[0] = 0xa5
	}
	return data
}

// Benchmark raw method throughput
func benchmarkMethodCompress(b *testing.B, method Method, level int, dataSize int) {
	data := generateStructuredData(dataSize)

	b.ResetTimer()
	b.SetBytes(int64(dataSize))

	for i := 0; i < b.N; i++ {
		w, err := NewCompressor(method, io.Discard, level)
		if err != nil {
			b.Fatal(err)
		}
		w.Write(data)
		w.Close()
	}
}

func benchmarkMethodDecompress(b *testing.B, method Method, dataSize int) {
	compressed, err := CompressData(generateStructuredData(dataSize), method, 0)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.SetBytes(int64(dataSize))

	for i := 0; i < b.N; i++ {
		r, err := NewDecompressor(method, bytes.NewReader(compressed))
		if err != nil {
			b.Fatal(err)
		}
		io.Copy(io.Discard, r)
		r.Close()
	}
}

// Small buffers (4KB)
func BenchmarkZlibCompress4KB(b *testing.B)  { benchmarkMethodCompress(b, MethodZlib, 6, 4*1024) }
func BenchmarkBzip2Compress4KB(b *testing.B) { benchmarkMethodCompress(b, MethodBzip2, 9, 4*1024) }
func BenchmarkLZMACompress4KB(b *testing.B)  { benchmarkMethodCompress(b, MethodLZMA, 6, 4*1024) }

// Medium buffers (256KB)
func BenchmarkZlibCompress256KB(b *testing.B)  { benchmarkMethodCompress(b, MethodZlib, 6, 256*1024) }
func BenchmarkBzip2Compress256KB(b *testing.B) { benchmarkMethodCompress(b, MethodBzip2, 9, 256*1024) }
func BenchmarkLZMACompress256KB(b *testing.B)  { benchmarkMethodCompress(b, MethodLZMA, 6, 256*1024) }

// Large buffers (1MB)
func BenchmarkZlibCompress1MB(b *testing.B)  { benchmarkMethodCompress(b, MethodZlib, 6, 1024*1024) }
func BenchmarkBzip2Compress1MB(b *testing.B) { benchmarkMethodCompress(b, MethodBzip2, 9, 1024*1024) }
func BenchmarkLZMACompress1MB(b *testing.B)  { benchmarkMethodCompress(b, MethodLZMA, 6, 1024*1024) }

func BenchmarkZlibDecompress1MB(b *testing.B)  { benchmarkMethodDecompress(b, MethodZlib, 1024*1024) }
func BenchmarkBzip2Decompress1MB(b *testing.B) { benchmarkMethodDecompress(b, MethodBzip2, 1024*1024) }
func BenchmarkLZMADecompress1MB(b *testing.B)  { benchmarkMethodDecompress(b, MethodLZMA, 1024*1024) }

// Compression level comparison for LZMA
func BenchmarkLZMALevel1Compress1MB(b *testing.B) { benchmarkMethodCompress(b, MethodLZMA, 1, 1024*1024) }
func BenchmarkLZMALevel6Compress1MB(b *testing.B) { benchmarkMethodCompress(b, MethodLZMA, 6, 1024*1024) }
func BenchmarkLZMALevel9Compress1MB(b *testing.B) { benchmarkMethodCompress(b, MethodLZMA, 9, 1024*1024) }

// Compression level comparison for ZLIB
func BenchmarkZlibLevel1Compress1MB(b *testing.B) { benchmarkMethodCompress(b, MethodZlib, 1, 1024*1024) }
func BenchmarkZlibLevel6Compress1MB(b *testing.B) { benchmarkMethodCompress(b, MethodZlib, 6, 1024*1024) }
func BenchmarkZlibLevel9Compress1MB(b *testing.B) { benchmarkMethodCompress(b, MethodZlib, 9, 1024*1024) }

// Benchmark analysis and selection
func BenchmarkAnalyze64KB(b *testing.B) {
	policy := DefaultPolicy()
	data := generateTextData(64 * 1024)

	b.ResetTimer()
	b.SetBytes(int64(len(data)))

	for i := 0; i < b.N; i++ {
		policy.Analyze(data, int64(len(data)))
	}
}

func BenchmarkSelect(b *testing.B) {
	policy := DefaultPolicy()
	profile := policy.Analyze(generateTextData(64*1024), 64*1024)

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		policy.Select(profile, 64*1024)
	}
}

// Benchmark text preprocessing
func BenchmarkApplyTransforms1MB(b *testing.B) {
	data := generateTextData(1024 * 1024)

	b.ResetTimer()
	b.SetBytes(int64(len(data)))

	for i := 0; i < b.N; i++ {
		Apply(data, TransformCollapseWhitespace|TransformFoldCase)
	}
}

// Benchmark the full pipeline per data type
func benchmarkPipeline(b *testing.B, data []byte) {
	engine, err := New(&Config{Fs: afero.NewMemMapFs()})
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()

	b.ResetTimer()
	b.SetBytes(int64(len(data)))

	for i := 0; i < b.N; i++ {
		task := FileTask{
			Name: "bench.dat",
			Size: int64(len(data)),
			Open: func() (io.ReadCloser, error) {
				return io.NopCloser(bytes.NewReader(data)), nil
			},
		}
		entry, err := engine.Compress(ctx, task)
		if err != nil {
			b.Fatal(err)
		}
		entry.Close()
	}
}

func BenchmarkPipelineText1MB(b *testing.B) {
	benchmarkPipeline(b, generateTextData(1024*1024))
}

func BenchmarkPipelineStructured1MB(b *testing.B) {
	benchmarkPipeline(b, generateStructuredData(1024*1024))
}

func BenchmarkPipelineIncompressible1MB(b *testing.B) {
	benchmarkPipeline(b, generateIncompressibleData(1024*1024))
}
