package kernel

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pranavRajmane/Ayrton/pkg/encoding"
	"github.com/pranavRajmane/Ayrton/pkg/formats"
	"github.com/pranavRajmane/Ayrton/pkg/scene"
	"github.com/pranavRajmane/Ayrton/pkg/view"
)

// Extensions lists the formats the service converts to.
var Extensions = []string{"iges", "igs", "step", "stp"}

// Converter is the part of Client the encoder needs.
type Converter interface {
	Convert(ctx context.Context, req *Request) ([]byte, error)
}

// Metadata is the sidecar written next to the converted file.
type Metadata struct {
	PhysicalGroups []GroupRecord `json:"physical_groups"`
	SourceFile     string        `json:"source_file"`
	Unit           string        `json:"unit,omitempty"`
}

// Encoder exports one extension through the kernel service. It carries
// physical groups natively, so it receives one view annotated with the
// whole partition.
type Encoder struct {
	Converter Converter
	Ext       string
}

// NewEncoders returns one encoder per supported extension, all backed by c.
func NewEncoders(c Converter) []*Encoder {
	out := make([]*Encoder, len(Extensions))
	for i, ext := range Extensions {
		out[i] = &Encoder{Converter: c, Ext: ext}
	}
	return out
}

// CanExport implements formats.Encoder.
func (e *Encoder) CanExport(format formats.FileFormat, ext string) bool {
	return format == formats.FormatBinary && formats.NormalizeExt(ext) == e.Ext
}

// ExportsGroups implements formats.GroupAware.
func (e *Encoder) ExportsGroups() bool { return true }

// ExportContent implements formats.Encoder. It produces the converted file
// and a <name>.<ext>.meta.json sidecar listing the groups sent.
func (e *Encoder) ExportContent(ctx context.Context, v *view.View) ([]formats.Artifact, error) {
	req, err := BuildRequest(ctx, v, e.Ext)
	if err != nil {
		return nil, err
	}
	data, err := e.Converter.Convert(ctx, req)
	if err != nil {
		return nil, err
	}

	name := encoding.SanitizeName(v.Name()) + "." + e.Ext
	meta := Metadata{
		PhysicalGroups: req.PhysicalGroups,
		SourceFile:     name,
	}
	if u := v.Unit(); u != scene.UnitUnknown {
		meta.Unit = u.String()
	}
	sidecar, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding metadata: %w", err)
	}
	return []formats.Artifact{
		{Name: name, Data: data},
		{Name: name + ".meta.json", Data: sidecar, Text: true},
	}, nil
}
