package zipwright

// Progress receives one-directional pipeline lifecycle callbacks. The
// engine never blocks on the consumer beyond these calls returning, and it
// invokes them from worker goroutines, so implementations must be safe for
// concurrent use.
type Progress interface {
	// FileStarted is called once per task before any bytes are read.
	FileStarted(name string, size int64)

	// FileBytes reports original bytes consumed, in chunk-sized steps.
	FileBytes(n int)

	// FileDone is called once per task with the final method, or a
	// non-nil error when the task failed or was cancelled.
	FileDone(name string, method Method, err error)
}

// NopProgress discards all callbacks.
type NopProgress struct{}

func (NopProgress) FileStarted(string, int64)      {}
func (NopProgress) FileBytes(int)                  {}
func (NopProgress) FileDone(string, Method, error) {}

// meterWriter counts bytes and forwards them to a Progress.
type meterWriter struct {
	progress Progress
	n        int64
}

func (w *meterWriter) Write(p []byte) (int, error) {
	w.n += int64(len(p))
	w.progress.FileBytes(len(p))
	return len(p), nil
}
