// Package zipwright decides, per file, how to compress it, and executes
// that decision concurrently into archive-ready entries.
//
// For every input file the engine samples the head, classifies the content
// (text, compressible binary, or already-compressed), estimates its
// Shannon entropy, and picks a method and level from a deterministic
// policy table. Low-entropy text is additionally run through reversible
// preprocessing before compression. Each finished entry carries everything
// a container needs: the compressed payload, the CRC-32 of the bytes
// extraction restores, the method code, and the transform flags.
//
// # Methods
//
// The method set is closed and its codes are part of the archive format:
//
//   - STORE (0): no compression
//   - ZLIB  (1): fast general-purpose deflate
//   - BZIP2 (2): block-sorting, strong on large text
//   - LZMA  (3): best ratio on text and structured binary
//
// # Decision Table
//
// Selection is a pure function of content profile and size:
//
//   - already-compressed or empty content: STORE
//   - below the minimum size (default 64 bytes): STORE
//   - text, small or medium: LZMA at a high level
//   - text, large: BZIP2 at a high level
//   - binary below the entropy cutoff (default 6.0): LZMA
//   - binary at or above the cutoff: ZLIB at a fast level
//
// Low-entropy text additionally gets whitespace collapsing and case
// folding before compression. Case folding is exactly reversible via a
// mask embedded in the payload; collapsed whitespace stays collapsed, so
// entry checksums cover the restored text rather than the pre-collapse
// input. When a compressed payload comes out no smaller than its input,
// the entry falls back to STORE and the checksum covers the original
// bytes again.
//
// # Quick Start
//
//	engine, _ := zipwright.New(nil)
//
//	fs := afero.NewOsFs()
//	tasks, _ := zipwright.Walk(fs, "data/")
//
//	out, _ := fs.Create("data.zip")
//	sink := zipsink.NewWriter(out)
//	for res := range engine.Run(ctx, tasks) {
//	    if res.Err != nil {
//	        continue // failures never stop the run
//	    }
//	    sink.Add(res.Entry)
//	}
//	sink.Close()
//
// # Concurrency
//
// Run schedules files over a bounded worker pool; each file's pipeline is
// owned by one worker and results arrive in completion order. Cancelling
// the context aborts in-flight files at their next chunk boundary and
// never emits partial entries.
//
// # Memory
//
// Files compressed without transforms stream through fixed-size chunks
// (Config.ChunkSize), keeping peak memory independent of file size. Plans
// that apply transforms buffer the whole file: the case mask precedes the
// text in the payload, and the store fallback needs the original bytes.
// Finished payloads are held in memory up to Config.SpoolMemoryLimit and
// spill to a temp file beyond it.
//
// # Statistics
//
// The engine accumulates per-method counts, byte totals, and failures;
// Stats returns a snapshot at any time and snapshots merge associatively.
//
// See the zipsink package for the archive container and cmd/zipwright for
// the command-line front end.
package zipwright
