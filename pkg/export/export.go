// Package export runs export passes: it validates the model, partitions it
// by physical group, builds one view per output part and hands each to the
// encoder selected for the requested format.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pranavRajmane/Ayrton/pkg/encoding"
	"github.com/pranavRajmane/Ayrton/pkg/formats"
	"github.com/pranavRajmane/Ayrton/pkg/math"
	"github.com/pranavRajmane/Ayrton/pkg/scene"
	"github.com/pranavRajmane/Ayrton/pkg/view"
)

// Export errors.
var (
	ErrNothingToExport = errors.New("nothing to export")
	ErrModelMutated    = errors.New("model mutated during export")
)

// Settings selects what an export pass covers.
type Settings struct {
	// Visible filters mesh instances. Nil means every instance.
	Visible func(scene.MeshInstanceKey) bool
	// Transform is applied to all output geometry. Zero means identity.
	Transform math.Mat4
	// GroupMode splits the output by physical group.
	GroupMode scene.GroupMode
	// Selected lists group indices for scene.GroupModeSelected.
	Selected []int
	// IncludeRemainder adds the remainder part for GroupModeAll and
	// GroupModeSelected.
	IncludeRemainder bool
}

// Recorder observes finished export passes. Status is "ok" or "error".
type Recorder interface {
	ExportFinished(format, status string, d time.Duration, artifacts, triangles int)
}

// Exporter runs export passes against a registry of encoders.
type Exporter struct {
	Registry      *Registry
	Logger        *zap.Logger
	Recorder      Recorder
	RemainderName string
}

// New returns an exporter over the default registry.
func New(logger *zap.Logger) *Exporter {
	return &Exporter{Registry: DefaultRegistry(RegistryOptions{}), Logger: logger}
}

func (e *Exporter) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

// Export encodes m in the given format. With a group mode it returns the
// artifacts of every non-empty part in partition order; otherwise the
// artifacts of the whole visible model. A model with nothing visible still
// yields the encoder's minimal artifact.
//
// On any error no artifacts are returned. The model must not be mutated
// while the pass runs; if it is, the pass fails with ErrModelMutated.
func (e *Exporter) Export(ctx context.Context, m *scene.Model, s Settings, format formats.FileFormat, ext string) ([]formats.Artifact, error) {
	ext = formats.NormalizeExt(ext)
	log := e.logger().With(
		zap.String("pass", uuid.NewString()),
		zap.String("format", format.String()),
		zap.String("ext", ext),
	)
	log.Info("export started", zap.String("model", m.Name()), zap.Stringer("mode", s.GroupMode))

	start := time.Now()
	arts, triangles, err := e.run(ctx, m, s, format, ext, log)
	d := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
		log.Error("export failed", zap.Duration("duration", d), zap.Error(err))
	} else {
		log.Info("export finished",
			zap.Int("artifacts", len(arts)),
			zap.Int("triangles", triangles),
			zap.Duration("duration", d))
	}
	if e.Recorder != nil {
		e.Recorder.ExportFinished(ext, status, d, len(arts), triangles)
	}
	if err != nil {
		return nil, err
	}
	return arts, nil
}

func (e *Exporter) run(ctx context.Context, m *scene.Model, s Settings, format formats.FileFormat, ext string, log *zap.Logger) ([]formats.Artifact, int, error) {
	if e.Registry == nil {
		return nil, 0, fmt.Errorf("%w: no registry", formats.ErrUnsupportedFormat)
	}
	enc, err := e.Registry.Find(format, ext)
	if err != nil {
		return nil, 0, err
	}
	if err := m.Validate(); err != nil {
		return nil, 0, fmt.Errorf("validating model: %w", err)
	}
	p, err := m.Partition(scene.GroupScope{
		Mode:             s.GroupMode,
		Selected:         s.Selected,
		IncludeRemainder: s.IncludeRemainder,
		RemainderName:    e.RemainderName,
	})
	if err != nil {
		return nil, 0, err
	}

	base := view.Options{Visible: s.Visible, Transform: s.Transform}

	if s.GroupMode == scene.GroupModeNone {
		return encodeView(ctx, enc, view.New(m, base))
	}

	if ga, ok := enc.(formats.GroupAware); ok && ga.ExportsGroups() {
		if len(p.Parts) == 0 {
			return nil, 0, nil
		}
		opts := base
		opts.Partition = p
		return encodeView(ctx, enc, view.New(m, opts))
	}

	names := encoding.NewUniqueNames()
	// Companion files are named from one set across parts, so a texture
	// keeps the name its part's document refers to.
	files := encoding.NewUniqueNames()
	var (
		out       []formats.Artifact
		triangles int
	)
	for _, part := range p.Parts {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		opts := base
		opts.Faces = part.Faces
		opts.Name = names.Unique(part.Name)
		opts.Files = files
		v := view.New(m, opts)
		if v.Empty() {
			log.Debug("part not visible", zap.String("group", part.Name))
			continue
		}
		arts, n, err := encodeView(ctx, enc, v)
		if err != nil {
			return nil, 0, fmt.Errorf("group %q: %w", part.Name, err)
		}
		out = mergeArtifacts(out, arts, log)
		triangles += n
	}
	return out, triangles, nil
}

func encodeView(ctx context.Context, enc formats.Encoder, v *view.View) ([]formats.Artifact, int, error) {
	arts, err := enc.ExportContent(ctx, v)
	if err != nil {
		return nil, 0, err
	}
	if v.Stale() {
		return nil, 0, ErrModelMutated
	}
	return arts, v.TriangleCount(), nil
}

// mergeArtifacts appends add to out. Files shared between parts, such as
// textures, are kept once. Names compare case-insensitively, as archive
// entries do; a clash with different content is renamed and logged.
func mergeArtifacts(out, add []formats.Artifact, log *zap.Logger) []formats.Artifact {
	for _, a := range add {
		dup := false
		for _, prev := range out {
			if !strings.EqualFold(prev.Name, a.Name) {
				continue
			}
			if bytes.Equal(prev.Data, a.Data) {
				dup = true
				break
			}
			renamed := uniqueArtifactName(out, a.Name)
			log.Warn("renaming clashing artifact", zap.String("name", a.Name), zap.String("renamed", renamed))
			a.Name = renamed
			break
		}
		if !dup {
			out = append(out, a)
		}
	}
	return out
}

func uniqueArtifactName(out []formats.Artifact, name string) string {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	taken := make(map[string]bool, len(out))
	for _, a := range out {
		taken[strings.ToLower(a.Name)] = true
	}
	for n := 2; ; n++ {
		candidate := stem + "_" + strconv.Itoa(n) + ext
		if !taken[strings.ToLower(candidate)] {
			return candidate
		}
	}
}
