package main

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/zipwright/zipwright"
)

// consoleProgress keeps a single status line updated while a run is
// active. Callbacks arrive from worker goroutines.
type consoleProgress struct {
	files  atomic.Int64
	bytes  atomic.Int64
	done   chan struct{}
	closed chan struct{}
}

func newConsoleProgress() *consoleProgress {
	p := &consoleProgress{
		done:   make(chan struct{}),
		closed: make(chan struct{}),
	}
	go p.loop()
	return p
}

func (p *consoleProgress) loop() {
	defer close(p.closed)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	start := time.Now()
	for {
		select {
		case <-p.done:
			fmt.Fprint(os.Stderr, "\r\033[K")
			return
		case <-ticker.C:
			read := p.bytes.Load()
			rate := float64(read) / time.Since(start).Seconds()
			fmt.Fprintf(os.Stderr, "\r%d files, %s read (%s/s)",
				p.files.Load(), zipwright.FormatSize(read), zipwright.FormatSize(int64(rate)))
		}
	}
}

// Stop clears the status line and waits for the printer to exit.
func (p *consoleProgress) Stop() {
	close(p.done)
	<-p.closed
}

func (p *consoleProgress) FileStarted(string, int64) {
	p.files.Add(1)
}

func (p *consoleProgress) FileBytes(n int) {
	p.bytes.Add(int64(n))
}

func (p *consoleProgress) FileDone(string, zipwright.Method, error) {}
