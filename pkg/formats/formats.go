// Package formats encodes export views into interchange file formats and
// parses the binary containers back for inspection.
//
// Encoders are selected by file format (text or binary) and extension.
// Every encoder is a pure function of the view it is handed: it never
// mutates the view and keeps no state between calls.
package formats

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pranavRajmane/Ayrton/pkg/encoding"
	"github.com/pranavRajmane/Ayrton/pkg/view"
)

// Export errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported format/extension")
	// ErrEmptyExportSet describes a view with no triangles. Encoders never
	// return it; they emit a minimal valid artifact instead.
	ErrEmptyExportSet        = errors.New("empty export set")
	ErrSerializationOverflow = errors.New("serialization overflow")
)

// FileFormat distinguishes textual from binary output.
type FileFormat int

const (
	FormatText FileFormat = iota
	FormatBinary
)

// String returns the format name accepted by ParseFileFormat.
func (f FileFormat) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatBinary:
		return "binary"
	default:
		return fmt.Sprintf("Unknown(%d)", int(f))
	}
}

// ParseFileFormat parses "text"/"ascii" or "binary".
func ParseFileFormat(s string) (FileFormat, error) {
	switch strings.ToLower(s) {
	case "text", "ascii":
		return FormatText, nil
	case "binary", "bin":
		return FormatBinary, nil
	}
	return FormatText, fmt.Errorf("unknown file format %q", s)
}

// Artifact is one named output file. Text artifacts hold UTF-8.
type Artifact struct {
	Name string
	Data []byte
	Text bool
}

// Encoder turns a view into artifacts.
type Encoder interface {
	// CanExport reports whether the encoder produces format with the given
	// extension (without the leading dot).
	CanExport(format FileFormat, ext string) bool
	// ExportContent encodes v. On error, including cancellation, no
	// artifacts are returned.
	ExportContent(ctx context.Context, v *view.View) ([]Artifact, error)
}

// GroupAware is implemented by encoders that carry physical groups inside a
// single artifact. They receive one view annotated with the whole partition
// instead of one view per group.
type GroupAware interface {
	ExportsGroups() bool
}

// NormalizeExt lower-cases ext and strips a leading dot.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// baseName returns the file-name token for a view.
func baseName(v *view.View) string {
	return encoding.SanitizeName(v.Name())
}

// cancelEvery is the triangle stride between cancellation checks.
const cancelEvery = 1024

func checkCancel(ctx context.Context, i int) error {
	if i%cancelEvery != 0 {
		return nil
	}
	return ctx.Err()
}
