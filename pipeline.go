package zipwright

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"time"
)

// Compress runs the full pipeline for one file: sample the head, analyze,
// select a plan, preprocess when planned, and compress chunk by chunk into
// a spooled payload. Cancellation is observed at chunk boundaries; a
// cancelled or failed task never yields an entry and leaves no spool
// behind.
func (e *Engine) Compress(ctx context.Context, task FileTask) (*Entry, error) {
	entry, err := e.processTask(ctx, task)
	if err != nil {
		if !isCancellation(err) {
			e.stats.RecordFailure()
			e.log.Error().Err(err).Str("file", task.Name).Msg("compression failed")
		}
		e.progress.FileDone(task.Name, 0, err)
		return nil, err
	}
	e.stats.RecordEntry(entry)
	e.progress.FileDone(task.Name, entry.Method, nil)
	return entry, nil
}

func (e *Engine) processTask(ctx context.Context, task FileTask) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("zipwright: %s: %w", task.Name, err)
	}
	start := time.Now()
	e.progress.FileStarted(task.Name, task.Size)

	rc, err := task.Open()
	if err != nil {
		return nil, fmt.Errorf("zipwright: open %s: %w", task.Name, err)
	}
	defer rc.Close()

	head := make([]byte, e.config.SampleSize)
	n, err := io.ReadFull(rc, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("zipwright: read %s: %w", task.Name, err)
	}
	head = head[:n]

	profile := e.policy.Analyze(head, task.Size)
	plan := e.policy.Select(profile, task.Size)
	if err := validatePlan(plan, profile); err != nil {
		return nil, fmt.Errorf("%w (%s)", err, task.Name)
	}

	e.log.Debug().
		Str("file", task.Name).
		Str("class", string(profile.Class)).
		Str("bucket", string(profile.Bucket)).
		Float64("entropy", profile.Entropy).
		Str("method", plan.Method.String()).
		Int("level", plan.Level).
		Str("transforms", plan.Transforms.String()).
		Msg("plan selected")

	src := io.MultiReader(bytes.NewReader(head), rc)

	var entry *Entry
	if plan.Transforms != 0 {
		entry, err = e.compressBuffered(ctx, task.Name, src, plan)
	} else {
		entry, err = e.compressStreaming(ctx, task.Name, src, plan)
	}
	if err != nil {
		return nil, err
	}
	entry.Name = task.Name
	entry.Elapsed = time.Since(start)
	return entry, nil
}

// compressStreaming handles plans without transforms. Content flows from
// the source through the compressor into the spool one chunk at a time,
// with the CRC computed over the original bytes as they pass.
func (e *Engine) compressStreaming(ctx context.Context, name string, src io.Reader, plan Plan) (*Entry, error) {
	sp := e.newPayloadSpool()
	cw, err := NewCompressor(plan.Method, sp, plan.Level)
	if err != nil {
		sp.Close()
		return nil, fmt.Errorf("zipwright: %s: %w", name, err)
	}

	crc := crc32.NewIEEE()
	meter := &meterWriter{progress: e.progress}
	if cerr := copyChunks(ctx, io.MultiWriter(crc, meter, cw), src, e.config.ChunkSize); cerr != nil {
		sp.Close()
		return nil, fmt.Errorf("zipwright: compress %s: %w", name, cerr)
	}
	if err := cw.Close(); err != nil {
		sp.Close()
		return nil, fmt.Errorf("zipwright: compress %s: %w", name, err)
	}
	original := meter.n

	method := plan.Method
	if method != MethodStore && sp.Size() >= original {
		stored, err := e.restoreOriginal(ctx, name, sp, method, original)
		if err != nil {
			sp.Close()
			return nil, err
		}
		sp.Close()
		sp = stored
		method = MethodStore
	}

	return &Entry{
		OriginalSize:   original,
		CompressedSize: sp.Size(),
		CRC32:          crc.Sum32(),
		Method:         method,
		payload:        sp,
	}, nil
}

// compressBuffered handles plans with transforms. The whole file is
// buffered because the case mask precedes the text in the payload and the
// original bytes must stay available for the store fallback.
func (e *Engine) compressBuffered(ctx context.Context, name string, src io.Reader, plan Plan) (*Entry, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("zipwright: read %s: %w", name, err)
	}
	e.progress.FileBytes(len(data))
	original := int64(len(data))

	pre := Apply(data, plan.Transforms)
	// Collapse is lossy; the checksum covers the bytes extraction can
	// reproduce, which without collapse are the original bytes.
	sum := crc32.ChecksumIEEE(pre.Restored)

	sp := e.newPayloadSpool()
	cw, err := NewCompressor(plan.Method, sp, plan.Level)
	if err != nil {
		sp.Close()
		return nil, fmt.Errorf("zipwright: %s: %w", name, err)
	}
	if cerr := copyChunks(ctx, cw, bytes.NewReader(pre.Data), e.config.ChunkSize); cerr != nil {
		sp.Close()
		return nil, fmt.Errorf("zipwright: compress %s: %w", name, cerr)
	}
	if err := cw.Close(); err != nil {
		sp.Close()
		return nil, fmt.Errorf("zipwright: compress %s: %w", name, err)
	}

	method := plan.Method
	transforms := pre.Applied
	if sp.Size() >= original {
		stored := e.newPayloadSpool()
		if cerr := copyChunks(ctx, stored, bytes.NewReader(data), e.config.ChunkSize); cerr != nil {
			stored.Close()
			sp.Close()
			return nil, fmt.Errorf("zipwright: store %s: %w", name, cerr)
		}
		sp.Close()
		sp = stored
		method, transforms = MethodStore, 0
		// The payload is the original bytes again; so is the checksum.
		sum = crc32.ChecksumIEEE(data)
	}

	return &Entry{
		OriginalSize:   original,
		CompressedSize: sp.Size(),
		CRC32:          sum,
		Method:         method,
		Transforms:     transforms,
		payload:        sp,
	}, nil
}

// restoreOriginal rebuilds a STORE payload by decompressing a spool that
// turned out larger than its input.
func (e *Engine) restoreOriginal(ctx context.Context, name string, compressed *spool, method Method, original int64) (*spool, error) {
	rc, err := compressed.Reader()
	if err != nil {
		return nil, fmt.Errorf("zipwright: store %s: %w", name, err)
	}
	dec, err := NewDecompressor(method, rc)
	if err != nil {
		return nil, fmt.Errorf("zipwright: store %s: %w", name, err)
	}
	defer dec.Close()

	sp := e.newPayloadSpool()
	if err := copyChunks(ctx, sp, dec, e.config.ChunkSize); err != nil {
		sp.Close()
		return nil, fmt.Errorf("zipwright: store %s: %w", name, err)
	}
	if sp.Size() != original {
		sp.Close()
		return nil, fmt.Errorf("zipwright: store %s: restored size mismatch", name)
	}
	return sp, nil
}

func (e *Engine) newPayloadSpool() *spool {
	return newSpool(e.config.Fs, e.config.SpoolDir, e.config.SpoolMemoryLimit)
}

// copyChunks copies src to dst in chunk-sized reads, checking for
// cancellation before every chunk.
func copyChunks(ctx context.Context, dst io.Writer, src io.Reader, chunkSize int) error {
	buf := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return rerr
		}
	}
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
