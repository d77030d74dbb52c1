package zipwright

import (
	"bytes"
	"fmt"
	"io"
)

// Preset policies for common use cases

// FastPolicy favors throughput over ratio: light levels, no text
// preprocessing, and a low entropy cutoff so most binary content takes the
// fast zlib path.
func FastPolicy() *Policy {
	p := DefaultPolicy()
	p.TextLZMALevel = 3
	p.TextBzip2Level = 1
	p.BinaryLZMALevel = 1
	p.DenseTextEntropy = 0
	p.BinaryEntropyCutoff = 4.0
	return p
}

// ArchivalPolicy favors ratio over time. Use for write-once archives where
// compression cost is paid once.
func ArchivalPolicy() *Policy {
	p := DefaultPolicy()
	p.BinaryLZMALevel = 9
	p.BinaryEntropyCutoff = 6.5
	p.FastZlibLevel = 6
	return p
}

// CompressData compresses a byte slice with the given method and level.
func CompressData(data []byte, method Method, level int) ([]byte, error) {
	var buf bytes.Buffer
	compressor, err := NewCompressor(method, &buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := compressor.Write(data); err != nil {
		return nil, err
	}
	if err := compressor.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecompressData decompresses a byte slice with the given method.
func DecompressData(data []byte, method Method) ([]byte, error) {
	decompressor, err := NewDecompressor(method, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer decompressor.Close()
	return io.ReadAll(decompressor)
}

// CompressionRatio returns compressedSize / originalSize. Lower is better;
// 0.5 means the output is half the input.
func CompressionRatio(originalSize, compressedSize int64) float64 {
	if originalSize == 0 {
		return 0
	}
	return float64(compressedSize) / float64(originalSize)
}

// SavingsPercent returns the percentage of space saved (0-100).
func SavingsPercent(originalSize, compressedSize int64) float64 {
	if originalSize == 0 {
		return 0
	}
	return (1 - float64(compressedSize)/float64(originalSize)) * 100
}

// FormatSize renders a byte count in binary units, e.g. "3.4 MiB".
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
