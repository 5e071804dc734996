// Package archive packs export artifacts into zip files and reads them back.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

// Archive errors.
var (
	ErrInvalidEntryName = errors.New("invalid archive entry name")
	ErrDuplicateEntry   = errors.New("duplicate archive entry")
	ErrEntryNotFound    = errors.New("archive entry not found")
)

// File is one entry to be written.
type File struct {
	Name string
	Data []byte
}

// Options controls archive writing.
type Options struct {
	// Level is a flate compression level; zero selects flate.DefaultCompression.
	Level int
	// Modified stamps every entry. Zero writes the DOS epoch so output is
	// reproducible.
	Modified time.Time
}

// Write packs files into a zip stream. Entry names must be relative,
// slash-separated and unique ignoring case.
func Write(w io.Writer, files []File, opts Options) error {
	level := opts.Level
	if level == 0 {
		level = flate.DefaultCompression
	}
	modified := opts.Modified
	if modified.IsZero() {
		modified = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if err := checkName(f.Name); err != nil {
			return err
		}
		key := normalizePath(f.Name)
		if seen[key] {
			return fmt.Errorf("%w: %s", ErrDuplicateEntry, f.Name)
		}
		seen[key] = true
	}

	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	for _, f := range files {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return fmt.Errorf("creating %s: %w", f.Name, err)
		}
		if _, err := fw.Write(f.Data); err != nil {
			return fmt.Errorf("writing %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finishing archive: %w", err)
	}
	return nil
}

// Bytes is Write into memory.
func Bytes(files []File, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, files, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func checkName(name string) error {
	switch {
	case name == "",
		strings.Contains(name, "\\"),
		path.IsAbs(name),
		path.Clean(name) != name,
		name == "..", strings.HasPrefix(name, "../"):
		return fmt.Errorf("%w: %q", ErrInvalidEntryName, name)
	}
	return nil
}

// Archive is an opened zip archive.
type Archive struct {
	closer   io.Closer
	fileList map[string]*zip.File
	names    []string
}

// Open opens a zip archive on disk.
func Open(filename string) (*Archive, error) {
	rc, err := zip.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	a := newArchive(&rc.Reader)
	a.closer = rc
	return a, nil
}

// NewReader reads an archive held in memory.
func NewReader(data []byte) (*Archive, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}
	return newArchive(r), nil
}

func newArchive(r *zip.Reader) *Archive {
	a := &Archive{fileList: make(map[string]*zip.File, len(r.File))}
	for _, f := range r.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		key := normalizePath(f.Name)
		if _, dup := a.fileList[key]; dup {
			continue
		}
		a.fileList[key] = f
		a.names = append(a.names, f.Name)
	}
	sort.Strings(a.names)
	return a
}

// Close releases the underlying file, if any.
func (a *Archive) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

// List returns entry names in sorted order.
func (a *Archive) List() []string {
	return append([]string(nil), a.names...)
}

// Contains reports whether an entry exists. Lookup ignores case and
// accepts backslash separators.
func (a *Archive) Contains(name string) bool {
	_, ok := a.fileList[normalizePath(name)]
	return ok
}

// Read returns the decompressed content of an entry.
func (a *Archive) Read(name string) ([]byte, error) {
	f, ok := a.fileList[normalizePath(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

func normalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return strings.ToLower(p)
}
