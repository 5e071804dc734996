package export

import (
	"context"

	"github.com/pranavRajmane/Ayrton/pkg/formats"
	"github.com/pranavRajmane/Ayrton/pkg/scene"
)

// Task is a deferred export pass. It resolves exactly once.
type Task struct {
	done      chan struct{}
	artifacts []formats.Artifact
	err       error
}

// Start schedules an export pass and returns immediately. The caller must
// not mutate m until the task resolves.
func (e *Exporter) Start(ctx context.Context, m *scene.Model, s Settings, format formats.FileFormat, ext string) *Task {
	t := &Task{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		t.artifacts, t.err = e.Export(ctx, m, s, format, ext)
	}()
	return t
}

// Done is closed when the task resolves.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the task resolves and returns its outcome. Every call
// returns the same result.
func (t *Task) Wait() ([]formats.Artifact, error) {
	<-t.done
	return t.artifacts, t.err
}
