package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/sensemap/internal/apperr"
)

func tempImages(t *testing.T) *FS {
	t.Helper()
	fs, err := NewFS(filepath.Join(t.TempDir(), "images"))
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestWriteAndRead(t *testing.T) {
	s := tempImages(t)
	if err := s.Write("a.png", pngHeader); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("a.png")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(pngHeader) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestDelete(t *testing.T) {
	s := tempImages(t)
	_ = s.Write("del.png", pngHeader)
	if err := s.Delete("del.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("del.png"); err == nil {
		t.Error("expected error reading deleted file")
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempImages(t)
	for _, p := range []string{"../../etc/passwd", "../outside.png", "/etc/shadow", "sub/x.png", ".hidden", ""} {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for name %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteLeavesNoTemp(t *testing.T) {
	s := tempImages(t)
	_ = s.Write("atomic.png", []byte("original"))
	if err := s.Write("atomic.png", []byte("updated")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.png")
	if string(got) != "updated" {
		t.Errorf("expected updated content, got %q", got)
	}
	matches, _ := filepath.Glob(filepath.Join(s.root, ".sensemap-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "sensemap-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	if _, err := NewFS(f.Name()); err == nil {
		t.Error("expected error when root is a file")
	}
}

func TestSaveImage(t *testing.T) {
	s := tempImages(t)

	name, err := SaveImage(s, pngHeader, "")
	if err != nil {
		t.Fatalf("SaveImage: %v", err)
	}
	if !strings.HasSuffix(name, ".png") {
		t.Errorf("name = %q, want .png suffix", name)
	}
	if _, err := s.Read(name); err != nil {
		t.Errorf("saved image unreadable: %v", err)
	}

	svg := []byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"></svg>`)
	if name, err := SaveImage(s, svg, ".svg"); err != nil || !strings.HasSuffix(name, ".svg") {
		t.Errorf("svg: name=%q err=%v", name, err)
	}
}

func TestSaveImage_Rejects(t *testing.T) {
	s := tempImages(t)
	cases := []struct {
		name string
		data []byte
		ext  string
	}{
		{"empty", nil, ".png"},
		{"wrong magic", []byte("plain text"), ".png"},
		{"unknown ext", pngHeader, ".exe"},
		{"unsniffable", []byte("plain text"), ""},
		{"fake svg", []byte("<html></html>"), ".svg"},
	}
	for _, tc := range cases {
		if _, err := SaveImage(s, tc.data, tc.ext); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("%s: err = %v, want ErrValidation", tc.name, err)
		}
	}
}
