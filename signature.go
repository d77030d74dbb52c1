package zipwright

import (
	"bytes"

	"github.com/h2non/filetype"
)

// denseFormats lists filetype extensions whose content is already
// entropy-coded. Matching any of these classifies the file as
// precompressed regardless of the entropy estimate. Container formats
// that are typically uncompressed inside (tar, wav, bmp, iso) are
// deliberately absent.
var denseFormats = map[string]struct{}{
	// archives and compressed streams
	"zip": {}, "gz": {}, "bz2": {}, "xz": {}, "zst": {},
	"7z": {}, "rar": {}, "lz": {}, "epub": {}, "pdf": {},
	// images
	"png": {}, "jpg": {}, "gif": {}, "webp": {}, "heif": {}, "jxr": {},
	// video
	"mp4": {}, "m4v": {}, "mkv": {}, "webm": {}, "mov": {}, "avi": {}, "flv": {}, "3gp": {},
	// audio
	"mp3": {}, "m4a": {}, "ogg": {}, "flac": {}, "aac": {}, "amr": {},
}

// rawSignatures covers compressed stream headers the filetype matchers do
// not know: bare frames without a container around them.
var rawSignatures = []struct {
	name  string
	magic []byte
}{
	{"lz4", []byte{0x04, 0x22, 0x4d, 0x18}},
	{"snappy", []byte{0xff, 0x06, 0x00, 0x00, 0x73, 0x4e, 0x61, 0x50}},
	{"lzma", []byte{0x5d, 0x00, 0x00}},
}

// matchSignature reports whether the sample starts with a known
// compressed-format signature and returns the matched format name.
func matchSignature(head []byte) (string, bool) {
	if len(head) == 0 {
		return "", false
	}

	if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown {
		if _, dense := denseFormats[kind.Extension]; dense {
			return kind.Extension, true
		}
	}

	for _, sig := range rawSignatures {
		if len(head) >= len(sig.magic) && bytes.Equal(head[:len(sig.magic)], sig.magic) {
			return sig.name, true
		}
	}

	if isZlibHeader(head) {
		return "zlib", true
	}

	return "", false
}

// isZlibHeader recognizes a bare zlib stream: CMF 0x78 (deflate, 32K
// window) with a valid FCHECK in the flag byte.
func isZlibHeader(head []byte) bool {
	if len(head) < 2 || head[0] != 0x78 {
		return false
	}
	return (uint16(head[0])<<8|uint16(head[1]))%31 == 0
}
