package zipwright

import (
	"sync"
	"time"
)

// Statistics is a snapshot of run counters. Merging snapshots is
// associative and commutative, so accumulators can be combined in any
// order with the same result.
type Statistics struct {
	FilesSucceeded  int64
	FilesFailed     int64
	OriginalBytes   int64
	CompressedBytes int64
	MethodCounts    map[Method]int64

	// Elapsed is the sum of per-file pipeline time, not wall time.
	Elapsed time.Duration
}

// Stored returns how many files ended up stored uncompressed.
func (s Statistics) Stored() int64 {
	return s.MethodCounts[MethodStore]
}

// Ratio returns total compressed bytes over total original bytes.
func (s Statistics) Ratio() float64 {
	return CompressionRatio(s.OriginalBytes, s.CompressedBytes)
}

// RunStats accumulates statistics across concurrent workers.
type RunStats struct {
	mu sync.Mutex
	s  Statistics
}

// NewRunStats returns an empty accumulator.
func NewRunStats() *RunStats {
	return &RunStats{s: Statistics{MethodCounts: make(map[Method]int64)}}
}

// RecordEntry counts one completed entry.
func (r *RunStats) RecordEntry(e *Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.FilesSucceeded++
	r.s.OriginalBytes += e.OriginalSize
	r.s.CompressedBytes += e.CompressedSize
	r.s.MethodCounts[e.Method]++
	r.s.Elapsed += e.Elapsed
}

// RecordFailure counts one failed file.
func (r *RunStats) RecordFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.FilesFailed++
}

// Merge folds another snapshot into this accumulator.
func (r *RunStats) Merge(other Statistics) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.FilesSucceeded += other.FilesSucceeded
	r.s.FilesFailed += other.FilesFailed
	r.s.OriginalBytes += other.OriginalBytes
	r.s.CompressedBytes += other.CompressedBytes
	r.s.Elapsed += other.Elapsed
	for method, count := range other.MethodCounts {
		r.s.MethodCounts[method] += count
	}
}

// Snapshot returns a copy of the current counters.
func (r *RunStats) Snapshot() Statistics {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.s
	out.MethodCounts = make(map[Method]int64, len(r.s.MethodCounts))
	for method, count := range r.s.MethodCounts {
		out.MethodCounts[method] = count
	}
	return out
}

// Reset zeroes the counters.
func (r *RunStats) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s = Statistics{MethodCounts: make(map[Method]int64)}
}
