package zipwright

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

// spoolFiles lists the temp files the spool has left on the filesystem.
func spoolFiles(t *testing.T, fs afero.Fs) []string {
	t.Helper()
	var found []string
	err := afero.Walk(fs, "/", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.Contains(path, "zipwright-spool-") {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to walk filesystem: %v", err)
	}
	return found
}

func TestSpoolStaysInMemory(t *testing.T) {
	fs := afero.NewMemMapFs()
	sp := newSpool(fs, "", 64)
	defer sp.Close()

	data := []byte("well under the limit")
	if _, err := sp.Write(data); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}
	if sp.Size() != int64(len(data)) {
		t.Errorf("Expected size %d, got %d", len(data), sp.Size())
	}
	if files := spoolFiles(t, fs); len(files) != 0 {
		t.Errorf("Expected no temp files, found %v", files)
	}

	rc, err := sp.Reader()
	if err != nil {
		t.Fatalf("Failed to open reader: %v", err)
	}
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("Failed to read back: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("Read-back does not match written data")
	}
}

func TestSpoolSpillsToFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	sp := newSpool(fs, "", 64)

	var want bytes.Buffer
	for i := 0; i < 5; i++ {
		chunk := bytes.Repeat([]byte{byte('a' + i)}, 30)
		want.Write(chunk)
		if _, err := sp.Write(chunk); err != nil {
			t.Fatalf("Failed to write chunk %d: %v", i, err)
		}
	}

	if sp.Size() != int64(want.Len()) {
		t.Errorf("Expected size %d, got %d", want.Len(), sp.Size())
	}
	if files := spoolFiles(t, fs); len(files) != 1 {
		t.Fatalf("Expected one temp file after spilling, found %v", files)
	}

	rc, err := sp.Reader()
	if err != nil {
		t.Fatalf("Failed to open reader: %v", err)
	}
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("Failed to read back: %v", err)
	}
	if !bytes.Equal(got, want.Bytes()) {
		t.Error("Read-back does not match data written across the spill")
	}

	if err := sp.Close(); err != nil {
		t.Fatalf("Failed to close spool: %v", err)
	}
	if files := spoolFiles(t, fs); len(files) != 0 {
		t.Errorf("Expected temp file removed on close, found %v", files)
	}
}

func TestSpoolSpillUsesConfiguredDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/var/spool", 0o755); err != nil {
		t.Fatalf("Failed to create spool dir: %v", err)
	}
	sp := newSpool(fs, "/var/spool", 8)
	defer sp.Close()

	if _, err := sp.Write(make([]byte, 32)); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}

	files := spoolFiles(t, fs)
	if len(files) != 1 || !strings.HasPrefix(files[0], "/var/spool/") {
		t.Errorf("Expected temp file under /var/spool, found %v", files)
	}
}

func TestSpoolCloseIdempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	sp := newSpool(fs, "", 8)
	if _, err := sp.Write(make([]byte, 32)); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}

	if err := sp.Close(); err != nil {
		t.Fatalf("Failed to close spool: %v", err)
	}
	if err := sp.Close(); err != nil {
		t.Errorf("Expected second close to be a no-op, got %v", err)
	}
}

func TestSpoolEmptyReader(t *testing.T) {
	sp := newSpool(afero.NewMemMapFs(), "", 8)
	defer sp.Close()

	rc, err := sp.Reader()
	if err != nil {
		t.Fatalf("Failed to open reader: %v", err)
	}
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected empty payload, got %d bytes", len(got))
	}
}
