package zipwright

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// TransformFlags is a bit set of text transforms. The bit assignments are
// part of the archive format and must not change.
type TransformFlags uint8

const (
	// TransformCollapseWhitespace replaces interior runs of two or more
	// spaces and tabs with a single space. Line breaks and leading
	// indentation are untouched. Lossy: collapsed runs stay collapsed.
	TransformCollapseWhitespace TransformFlags = 1 << 0

	// TransformFoldCase lowercases ASCII letters and prepends a run-length
	// case mask to the payload so the original casing is restored exactly
	// on extraction.
	TransformFoldCase TransformFlags = 1 << 1

	transformAll = TransformCollapseWhitespace | TransformFoldCase
)

// Has reports whether flag is set.
func (f TransformFlags) Has(flag TransformFlags) bool {
	return f&flag != 0
}

// String returns the transform names joined with "|", or "none".
func (f TransformFlags) String() string {
	if f == 0 {
		return "none"
	}
	var names []string
	if f.Has(TransformCollapseWhitespace) {
		names = append(names, "collapse_whitespace")
	}
	if f.Has(TransformFoldCase) {
		names = append(names, "fold_case")
	}
	if extra := f &^ transformAll; extra != 0 {
		names = append(names, fmt.Sprintf("unknown(%#x)", uint8(extra)))
	}
	return strings.Join(names, "|")
}

// ParseTransforms maps transform names to flags.
func ParseTransforms(names []string) (TransformFlags, error) {
	var flags TransformFlags
	for _, name := range names {
		switch name {
		case "collapse_whitespace":
			flags |= TransformCollapseWhitespace
		case "fold_case":
			flags |= TransformFoldCase
		default:
			return 0, fmt.Errorf("zipwright: unknown transform %q", name)
		}
	}
	return flags, nil
}

// PreprocessResult is the output of Apply: the transformed bytes and the
// subset of requested transforms that actually changed something.
type PreprocessResult struct {
	Data    []byte
	Applied TransformFlags

	// Restored is what Invert(Data, Applied) returns: the collapse output
	// with its original casing. Checksums that must hold after extraction
	// are computed over these bytes, not the pre-collapse input.
	Restored []byte
}

// Apply runs the requested transforms over text. Transforms that would be
// a no-op are dropped from Applied and leave no trace in the output, so
// extraction only ever inverts what was really done. Collapse runs before
// fold; the case mask indexes the final text.
func Apply(data []byte, flags TransformFlags) PreprocessResult {
	out := data
	var applied TransformFlags

	if flags.Has(TransformCollapseWhitespace) {
		if collapsed, changed := collapseWhitespace(out); changed {
			out = collapsed
			applied |= TransformCollapseWhitespace
		}
	}
	restored := out

	if flags.Has(TransformFoldCase) {
		if folded, mask, changed := foldCase(out); changed {
			out = encodeCaseMask(mask, folded)
			applied |= TransformFoldCase
		}
	}

	return PreprocessResult{Data: out, Applied: applied, Restored: restored}
}

// Invert reverses the transforms recorded in flags. Case folding is undone
// exactly via the embedded mask; collapsed whitespace stays collapsed.
func Invert(data []byte, flags TransformFlags) ([]byte, error) {
	if !flags.Has(TransformFoldCase) {
		return data, nil
	}
	return unfoldCase(data)
}

// collapseWhitespace shrinks interior runs of 2+ spaces/tabs to a single
// space. Whitespace at the start of a line is indentation and is copied
// verbatim. Returns the input unchanged when no run was collapsed.
func collapseWhitespace(data []byte) ([]byte, bool) {
	out := make([]byte, 0, len(data))
	changed := false
	lineStart := true

	for i := 0; i < len(data); {
		b := data[i]
		if b == '\n' {
			out = append(out, b)
			lineStart = true
			i++
			continue
		}
		if lineStart {
			if b == ' ' || b == '\t' {
				out = append(out, b)
				i++
				continue
			}
			lineStart = false
		}
		if b == ' ' || b == '\t' {
			j := i
			for j < len(data) && (data[j] == ' ' || data[j] == '\t') {
				j++
			}
			if j-i >= 2 {
				out = append(out, ' ')
				changed = true
			} else {
				out = append(out, b)
			}
			i = j
			continue
		}
		out = append(out, b)
		i++
	}

	if !changed {
		return data, false
	}
	return out, true
}

// foldCase lowercases ASCII A-Z and records the uppercase positions as
// alternating run lengths (kept, uppercase, kept, ...), starting with a
// kept run. A trailing kept run is implicit.
func foldCase(data []byte) ([]byte, []uint64, bool) {
	folded := make([]byte, len(data))
	var runs []uint64
	var run uint64
	inUpper := false
	changed := false

	for i, b := range data {
		isUpper := b >= 'A' && b <= 'Z'
		if isUpper {
			folded[i] = b + ('a' - 'A')
			changed = true
		} else {
			folded[i] = b
		}
		if isUpper != inUpper {
			runs = append(runs, run)
			run = 0
			inUpper = isUpper
		}
		run++
	}
	if inUpper {
		runs = append(runs, run)
	}

	return folded, runs, changed
}

// encodeCaseMask prepends the run-length mask to the folded text: a uvarint
// run count followed by the runs as uvarints.
func encodeCaseMask(runs []uint64, folded []byte) []byte {
	out := make([]byte, 0, len(folded)+2*len(runs)+binary.MaxVarintLen64)
	var tmp [binary.MaxVarintLen64]byte

	n := binary.PutUvarint(tmp[:], uint64(len(runs)))
	out = append(out, tmp[:n]...)
	for _, r := range runs {
		n := binary.PutUvarint(tmp[:], r)
		out = append(out, tmp[:n]...)
	}
	return append(out, folded...)
}

// unfoldCase parses the run-length mask and restores the original casing.
func unfoldCase(data []byte) ([]byte, error) {
	runCount, n := binary.Uvarint(data)
	if n <= 0 || runCount > uint64(len(data)) {
		return nil, ErrMaskCorrupt
	}
	off := n

	runs := make([]uint64, 0, runCount)
	for i := uint64(0); i < runCount; i++ {
		r, n := binary.Uvarint(data[off:])
		if n <= 0 {
			return nil, ErrMaskCorrupt
		}
		off += n
		runs = append(runs, r)
	}

	text := data[off:]
	out := make([]byte, len(text))
	copy(out, text)

	pos := uint64(0)
	upper := false
	for _, r := range runs {
		if r > uint64(len(out))-pos {
			return nil, ErrMaskCorrupt
		}
		if upper {
			for i := pos; i < pos+r; i++ {
				b := out[i]
				if b < 'a' || b > 'z' {
					return nil, ErrMaskCorrupt
				}
				out[i] = b - ('a' - 'A')
			}
		}
		pos += r
		upper = !upper
	}
	return out, nil
}
