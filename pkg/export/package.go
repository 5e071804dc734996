package export

import (
	"fmt"

	"github.com/pranavRajmane/Ayrton/pkg/archive"
	"github.com/pranavRajmane/Ayrton/pkg/encoding"
	"github.com/pranavRajmane/Ayrton/pkg/formats"
)

// Result is what a caller saves or downloads after an export.
type Result struct {
	Name      string
	Data      []byte
	Archive   bool // Data is a zip of Artifacts files
	Artifacts int
}

// Package applies the delivery rule: no artifacts is ErrNothingToExport,
// one artifact is delivered as is, more are zipped into <name>.zip.
func Package(name string, arts []formats.Artifact) (Result, error) {
	switch len(arts) {
	case 0:
		return Result{}, ErrNothingToExport
	case 1:
		return Result{Name: arts[0].Name, Data: arts[0].Data, Artifacts: 1}, nil
	}

	files := make([]archive.File, len(arts))
	for i, a := range arts {
		files[i] = archive.File{Name: a.Name, Data: a.Data}
	}
	data, err := archive.Bytes(files, archive.Options{})
	if err != nil {
		return Result{}, fmt.Errorf("packaging %d artifacts: %w", len(arts), err)
	}
	return Result{
		Name:      encoding.SanitizeName(name) + ".zip",
		Data:      data,
		Archive:   true,
		Artifacts: len(arts),
	}, nil
}
