package zipwright

import "math"

// ContentClass is the analyzer's verdict on what kind of data a file holds.
type ContentClass string

const (
	// ClassText is mostly printable ASCII and common whitespace.
	ClassText ContentClass = "text"
	// ClassBinary is binary data that is not known to be compressed.
	ClassBinary ContentClass = "binary"
	// ClassPrecompressed matched a compressed-format signature.
	ClassPrecompressed ContentClass = "precompressed"
)

// SizeBucket groups files by size for method selection.
type SizeBucket string

const (
	SizeSmall  SizeBucket = "small"
	SizeMedium SizeBucket = "medium"
	SizeLarge  SizeBucket = "large"
)

// ContentProfile summarizes a file's sampled content.
type ContentProfile struct {
	Class     ContentClass
	Entropy   float64 // Shannon estimate in bits per byte, 0..8
	Printable float64 // fraction of printable bytes in the sample
	Bucket    SizeBucket
	Signature string // matched format name, "" if none
	Empty     bool
}

// Analyze classifies a file from a bounded head sample and its total size.
// It is a pure function: identical inputs always yield identical profiles.
func (p *Policy) Analyze(head []byte, size int64) ContentProfile {
	profile := ContentProfile{Bucket: p.bucket(size)}

	if size == 0 || len(head) == 0 {
		profile.Empty = true
		profile.Class = ClassPrecompressed
		return profile
	}

	profile.Entropy = shannonEntropy(head)
	profile.Printable = printableRatio(head)

	if sig, ok := matchSignature(head); ok {
		profile.Class = ClassPrecompressed
		profile.Signature = sig
		return profile
	}

	if profile.Printable > p.TextRatio {
		profile.Class = ClassText
	} else {
		profile.Class = ClassBinary
	}
	return profile
}

func (p *Policy) bucket(size int64) SizeBucket {
	switch {
	case size < p.SmallFileSize:
		return SizeSmall
	case size < p.LargeFileSize:
		return SizeMedium
	default:
		return SizeLarge
	}
}

// shannonEntropy estimates bits of information per byte from a histogram
// of the sample.
func shannonEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var hist [256]int
	for _, b := range data {
		hist[b]++
	}
	total := float64(len(data))
	var h float64
	for _, count := range hist {
		if count == 0 {
			continue
		}
		p := float64(count) / total
		h -= p * math.Log2(p)
	}
	return h
}

// printableRatio is the fraction of bytes that are printable ASCII or
// common whitespace.
func printableRatio(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	printable := 0
	for _, b := range data {
		if (b >= 0x20 && b < 0x7f) || b == '\t' || b == '\n' || b == '\r' {
			printable++
		}
	}
	return float64(printable) / float64(len(data))
}
