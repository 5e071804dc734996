package kernel

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranavRajmane/Ayrton/pkg/formats"
	"github.com/pranavRajmane/Ayrton/pkg/scene"
	"github.com/pranavRajmane/Ayrton/pkg/scene/scenetest"
	"github.com/pranavRajmane/Ayrton/pkg/view"
)

// splitCubeView returns a cube view annotated with a partition of group
// "lid" (faces 2 and 3, the +Z side) plus the remainder.
func splitCubeView(t *testing.T) *view.View {
	t.Helper()
	m, key := scenetest.CubeModel()
	g, err := m.CreateGroup("lid")
	require.NoError(t, err)
	require.NoError(t, g.AddInstanceFaces(key, 2, 3))

	p, err := m.Partition(scene.GroupScope{Mode: scene.GroupModeAll, IncludeRemainder: true})
	require.NoError(t, err)
	return view.New(m, view.Options{Partition: p})
}

type countingObserver struct {
	mu     sync.Mutex
	counts map[string]int
}

func (o *countingObserver) KernelRequest(status string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.counts == nil {
		o.counts = make(map[string]int)
	}
	o.counts[status]++
}

func testClient(url string, retries int) *Client {
	return NewClient(Config{URL: url, Timeout: 5 * time.Second, MaxRetries: retries, InitialInterval: time.Millisecond}, nil)
}

func TestBuildRequest_UsesRecordedMembership(t *testing.T) {
	req, err := BuildRequest(context.Background(), splitCubeView(t), "STEP")
	require.NoError(t, err)

	assert.Equal(t, "step", req.Format)
	assert.Equal(t, 12, req.TriangleCount())
	assert.Len(t, req.Vertices, 3*24)
	require.Len(t, req.PhysicalGroups, 2)

	lid := req.PhysicalGroups[0]
	assert.Equal(t, "lid", lid.Name)
	assert.Equal(t, []uint32{2, 3}, lid.Triangles)
	assert.Equal(t, []string{"1:0"}, lid.MeshIDs)

	rest := req.PhysicalGroups[1]
	assert.Equal(t, scene.DefaultRemainderName, rest.Name)
	assert.Equal(t, []uint32{0, 1, 4, 5, 6, 7, 8, 9, 10, 11}, rest.Triangles)
	assert.Equal(t, []int{0}, req.SelectedGroups)
}

func TestBuildRequest_NoPartition(t *testing.T) {
	m, _ := scenetest.CubeModel()
	req, err := BuildRequest(context.Background(), view.New(m, view.Options{}), "iges")
	require.NoError(t, err)

	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"physicalGroups":[]`)
	assert.Contains(t, string(data), `"selectedGroups":[]`)
}

func TestClient_Convert(t *testing.T) {
	var (
		mu        sync.Mutex
		got       Request
		requestID string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/convert/step", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		requestID = r.Header.Get(RequestIDHeader)
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte("ISO-10303-21;"))
	}))
	defer srv.Close()

	c := testClient(srv.URL+"/api", 0)
	obs := &countingObserver{}
	c.SetObserver(obs)

	data, err := c.Convert(context.Background(), &Request{Format: "step", Vertices: []float32{0, 0, 0}})
	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "ISO-10303-21;", string(data))
	assert.Equal(t, []float32{0, 0, 0}, got.Vertices)
	assert.Len(t, requestID, 36)
	assert.Equal(t, 1, obs.counts["200"])
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	ids := make(map[string]bool)
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		ids[r.Header.Get(RequestIDHeader)] = true
		mu.Unlock()
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"busy"}`))
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	data, err := testClient(srv.URL, 3).Convert(context.Background(), &Request{Format: "iges"})
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
	assert.Equal(t, int32(3), calls.Load())
	assert.Len(t, ids, 1, "retries keep the request id")
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 2).Convert(context.Background(), &Request{Format: "step"})
	var se *ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	assert.Equal(t, "502 Bad Gateway", se.Message)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"mesh is not closed"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 5).Convert(context.Background(), &Request{Format: "step"})
	var se *ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "mesh is not closed", se.Message)
	assert.False(t, se.Temporary())
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_NoURL(t *testing.T) {
	_, err := NewClient(DefaultConfig(), nil).Convert(context.Background(), &Request{Format: "step"})
	assert.ErrorIs(t, err, ErrNoServiceURL)
}

func TestClient_TransportErrorObserved(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := testClient(url, 1)
	obs := &countingObserver{}
	c.SetObserver(obs)
	_, err := c.Convert(context.Background(), &Request{Format: "step"})
	require.Error(t, err)
	assert.Equal(t, 2, obs.counts["error"])
}

type fakeConverter struct {
	req  *Request
	data []byte
	err  error
}

func (f *fakeConverter) Convert(_ context.Context, req *Request) ([]byte, error) {
	f.req = req
	return f.data, f.err
}

func TestEncoder(t *testing.T) {
	encs := NewEncoders(&fakeConverter{})
	require.Len(t, encs, len(Extensions))
	for _, e := range encs {
		assert.True(t, e.CanExport(formats.FormatBinary, "."+e.Ext))
		assert.False(t, e.CanExport(formats.FormatText, e.Ext))
		assert.True(t, e.ExportsGroups())
	}
	assert.False(t, encs[0].CanExport(formats.FormatBinary, "stl"))

	conv := &fakeConverter{data: []byte("IGES")}
	enc := &Encoder{Converter: conv, Ext: "igs"}
	arts, err := enc.ExportContent(context.Background(), splitCubeView(t))
	require.NoError(t, err)
	require.Len(t, arts, 2)
	assert.Equal(t, "cube.igs", arts[0].Name)
	assert.Equal(t, []byte("IGES"), arts[0].Data)
	assert.Equal(t, "cube.igs.meta.json", arts[1].Name)
	assert.True(t, arts[1].Text)

	var meta Metadata
	require.NoError(t, json.Unmarshal(arts[1].Data, &meta))
	assert.Equal(t, "cube.igs", meta.SourceFile)
	assert.Equal(t, "mm", meta.Unit)
	require.Len(t, meta.PhysicalGroups, 2)
	assert.Equal(t, conv.req.PhysicalGroups, meta.PhysicalGroups)
}

func TestEncoder_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	enc := &Encoder{Converter: &fakeConverter{err: boom}, Ext: "step"}
	arts, err := enc.ExportContent(context.Background(), splitCubeView(t))
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, arts)
}
