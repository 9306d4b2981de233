// Package archive packages enhanced images for download, either as a single
// ZIP or as individual files in a directory.
//
// Archives are byte-for-byte reproducible: entries are stored uncompressed
// in the order given, with a fixed modification time.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zip"
)

// Epoch is the modification time written for every entry (the MS-DOS epoch).
var Epoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// Entry is one file of an archive.
type Entry struct {
	Name string
	Data []byte
}

// EntryName returns the archive name for the image at 1-based position i:
// "01.jpg", "02.jpg", ... "100.jpg".
func EntryName(i int) string {
	return fmt.Sprintf("%02d.jpg", i)
}

// Write streams entries into a ZIP written to w.
//
// JPEG data does not compress further, so entries use the Store method.
// Duplicate or empty names are rejected before anything is written.
func Write(w io.Writer, entries []Entry) error {
	if err := checkNames(entries); err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	for _, e := range entries {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.Name,
			Method:   zip.Store,
			Modified: Epoch,
		})
		if err != nil {
			return fmt.Errorf("failed to create entry %s: %w", e.Name, err)
		}
		if _, err := fw.Write(e.Data); err != nil {
			return fmt.Errorf("failed to write entry %s: %w", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}

// Build returns the ZIP bytes for entries.
func Build(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, entries); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes the ZIP to path. The file is assembled under a temporary
// name and renamed into place, so a failed write never leaves a partial archive.
func WriteFile(path string, entries []Entry) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer os.Remove(tmpPath)

	if err := Write(f, entries); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close archive: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move archive into place: %w", err)
	}
	return nil
}

// WriteDir writes each entry as its own file under dir, creating dir if needed.
// It returns the written paths in entry order.
func WriteDir(dir string, entries []Entry) ([]string, error) {
	if err := checkNames(entries); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		p := filepath.Join(dir, e.Name)
		if err := os.WriteFile(p, e.Data, 0o644); err != nil {
			return paths, fmt.Errorf("failed to write %s: %w", p, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func checkNames(entries []Entry) error {
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			return errors.New("archive entry has no name")
		}
		if e.Name != filepath.Base(e.Name) {
			return fmt.Errorf("archive entry %q must be a plain file name", e.Name)
		}
		if seen[e.Name] {
			return fmt.Errorf("duplicate archive entry %q", e.Name)
		}
		seen[e.Name] = true
	}
	return nil
}
