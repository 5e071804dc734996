package export

import (
	"fmt"

	"github.com/pranavRajmane/Ayrton/pkg/formats"
	"github.com/pranavRajmane/Ayrton/pkg/kernel"
)

// Registry dispatches a (format, extension) request to the first encoder
// that accepts it.
type Registry struct {
	encoders []formats.Encoder
}

// NewRegistry returns a registry over encoders, consulted in order.
func NewRegistry(encoders ...formats.Encoder) *Registry {
	return &Registry{encoders: encoders}
}

// RegistryOptions configures DefaultRegistry.
type RegistryOptions struct {
	// STLHeader overrides the binary STL header.
	STLHeader string
	// Kernel enables the IGES/STEP encoders when non-nil.
	Kernel kernel.Converter
}

// DefaultRegistry returns every built-in encoder.
func DefaultRegistry(opts RegistryOptions) *Registry {
	r := NewRegistry(
		&formats.STLEncoder{},
		&formats.STLEncoder{Binary: true, Header: opts.STLHeader},
		&formats.GLTFEncoder{},
		&formats.GLTFEncoder{Binary: true},
		formats.OBJEncoder{},
		formats.OFFEncoder{},
		&formats.PLYEncoder{},
		&formats.PLYEncoder{Binary: true},
	)
	if opts.Kernel != nil {
		for _, e := range kernel.NewEncoders(opts.Kernel) {
			r.Register(e)
		}
	}
	return r
}

// Register appends an encoder.
func (r *Registry) Register(e formats.Encoder) {
	r.encoders = append(r.encoders, e)
}

// Find returns the encoder for format and ext.
func (r *Registry) Find(format formats.FileFormat, ext string) (formats.Encoder, error) {
	for _, e := range r.encoders {
		if e.CanExport(format, ext) {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %s %q", formats.ErrUnsupportedFormat, format, formats.NormalizeExt(ext))
}

// Supports reports whether any encoder accepts format and ext.
func (r *Registry) Supports(format formats.FileFormat, ext string) bool {
	_, err := r.Find(format, ext)
	return err == nil
}
