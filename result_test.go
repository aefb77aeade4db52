package docfetch

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

var samplePDF = []byte("%PDF-1.4 fake content for testing")

func newResult(t *testing.T) (*Result, *int) {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "doc.pdf")
	if err := os.WriteFile(p, samplePDF, 0o644); err != nil {
		t.Fatal(err)
	}
	releases := 0
	return &Result{
		Path:     p,
		Filename: "doc.pdf",
		Size:     int64(len(samplePDF)),
		dir:      dir,
		release: func(d string) error {
			releases++
			return os.RemoveAll(d)
		},
	}, &releases
}

func TestResult_Bytes(t *testing.T) {
	r, _ := newResult(t)
	data, err := r.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if !bytes.Equal(data, samplePDF) {
		t.Error("Bytes() did not return original data")
	}
}

func TestResult_WriteTo(t *testing.T) {
	r, _ := newResult(t)
	var buf bytes.Buffer
	n, err := r.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if n != int64(len(samplePDF)) {
		t.Errorf("WriteTo wrote %d bytes, want %d", n, len(samplePDF))
	}
	if !bytes.Equal(buf.Bytes(), samplePDF) {
		t.Error("WriteTo content mismatch")
	}
}

func TestResult_SaveAs(t *testing.T) {
	r, _ := newResult(t)
	path := filepath.Join(t.TempDir(), "out.pdf")
	if err := r.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, samplePDF) {
		t.Error("saved file content mismatch")
	}
}

func TestResult_CloseIdempotent(t *testing.T) {
	r, releases := newResult(t)
	for range 3 {
		if err := r.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}
	if *releases != 1 {
		t.Errorf("release called %d times, want 1", *releases)
	}
	if _, err := os.Stat(r.Path); !os.IsNotExist(err) {
		t.Error("file still present after Close")
	}
	if _, err := r.Bytes(); err == nil {
		t.Error("Bytes after Close succeeded")
	}
}
