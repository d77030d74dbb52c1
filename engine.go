package zipwright

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Method identifies a compression method. The numeric values are part of
// the archive format and must not change.
type Method uint8

const (
	MethodStore Method = 0
	MethodZlib  Method = 1
	MethodBzip2 Method = 2
	MethodLZMA  Method = 3
)

// String returns the lower-case method name.
func (m Method) String() string {
	switch m {
	case MethodStore:
		return "store"
	case MethodZlib:
		return "zlib"
	case MethodBzip2:
		return "bzip2"
	case MethodLZMA:
		return "lzma"
	default:
		return fmt.Sprintf("method(%d)", uint8(m))
	}
}

func (m Method) valid() bool {
	return m <= MethodLZMA
}

// FileTask describes one file to compress. Tasks are immutable once built;
// Open must return a fresh reader positioned at the start of the content.
type FileTask struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// Entry is the result of compressing one file. The payload is backed by a
// spool (memory or a temp file) and must be released with Close once it has
// been written to a container.
type Entry struct {
	Name           string
	OriginalSize   int64
	CompressedSize int64
	CRC32          uint32 // checksum of the restored bytes (the original unless collapse changed them)
	Method         Method
	Transforms     TransformFlags
	Elapsed        time.Duration

	payload *spool
}

// Open returns a reader over the compressed payload.
func (e *Entry) Open() (io.ReadCloser, error) {
	if e.payload == nil {
		return nil, ErrEntryConsumed
	}
	return e.payload.Reader()
}

// Close releases the payload spool. It is safe to call more than once.
func (e *Entry) Close() error {
	if e.payload == nil {
		return nil
	}
	sp := e.payload
	e.payload = nil
	return sp.Close()
}

// Ratio returns compressed size over original size (lower is better).
func (e *Entry) Ratio() float64 {
	return CompressionRatio(e.OriginalSize, e.CompressedSize)
}

// Config holds engine configuration.
type Config struct {
	// Policy supplies decision thresholds and levels (default: DefaultPolicy)
	Policy *Policy

	// Workers is the number of concurrent file pipelines (default: NumCPU)
	Workers int

	// ChunkSize is the streaming unit in bytes (default: 1 MiB)
	ChunkSize int

	// SampleSize caps the analysis sample in bytes (default: 64 KiB)
	SampleSize int

	// SpoolMemoryLimit is the per-file in-memory payload cap before the
	// spool spills to a temp file (default: 8 MiB)
	SpoolMemoryLimit int

	// SpoolDir is where spilled payloads go ("" = the default temp dir)
	SpoolDir string

	// Fs backs payload spills (default: the operating system filesystem)
	Fs afero.Fs

	// Logger receives engine diagnostics (zero value = silent)
	Logger zerolog.Logger

	// Progress receives per-file lifecycle callbacks (default: none)
	Progress Progress
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Policy:           DefaultPolicy(),
		Workers:          runtime.NumCPU(),
		ChunkSize:        1 << 20,
		SampleSize:       64 * 1024,
		SpoolMemoryLimit: 8 << 20,
		Fs:               afero.NewOsFs(),
		Progress:         NopProgress{},
	}
}

var (
	ErrUnknownMethod = errors.New("zipwright: unknown compression method")
	ErrInvalidLevel  = errors.New("zipwright: invalid compression level")
	ErrInvalidPolicy = errors.New("zipwright: invalid policy")
	ErrPlanInvariant = errors.New("zipwright: plan violates selection invariants")
	ErrEntryConsumed = errors.New("zipwright: entry payload already released")
	ErrMaskCorrupt   = errors.New("zipwright: corrupt case mask")
)

// Engine analyzes, plans, and compresses files into archive-ready entries.
type Engine struct {
	config   *Config
	policy   *Policy
	stats    *RunStats
	log      zerolog.Logger
	progress Progress
}

// New creates an engine. A nil config selects DefaultConfig; zero fields
// fall back to their defaults individually.
func New(config *Config) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}

	// Copy so later mutation by the caller cannot race the engine.
	cfg := *config
	if cfg.Policy == nil {
		cfg.Policy = DefaultPolicy()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1 << 20
	}
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = 64 * 1024
	}
	if cfg.SpoolMemoryLimit <= 0 {
		cfg.SpoolMemoryLimit = 8 << 20
	}
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.Progress == nil {
		cfg.Progress = NopProgress{}
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}

	return &Engine{
		config:   &cfg,
		policy:   cfg.Policy,
		stats:    NewRunStats(),
		log:      cfg.Logger,
		progress: cfg.Progress,
	}, nil
}

// Stats returns a snapshot of the accumulated run statistics.
func (e *Engine) Stats() Statistics {
	return e.stats.Snapshot()
}

// ResetStats resets statistics to zero.
func (e *Engine) ResetStats() {
	e.stats.Reset()
}
