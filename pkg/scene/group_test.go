package scene_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranavRajmane/Ayrton/pkg/scene"
	"github.com/pranavRajmane/Ayrton/pkg/scene/scenetest"
)

func TestCreateGroupRejectsDuplicates(t *testing.T) {
	m, _ := scenetest.CubeModel()

	_, err := m.CreateGroup("Inlet")
	require.NoError(t, err)
	_, err = m.CreateGroup("Inlet")
	assert.ErrorIs(t, err, scene.ErrDuplicateGroupName)

	// Names are case-sensitive.
	_, err = m.CreateGroup("inlet")
	assert.NoError(t, err)

	_, err = m.CreateGroup("")
	assert.ErrorIs(t, err, scene.ErrInvalidGroupName)
	assert.Equal(t, 2, m.GroupCount())
}

func TestGroupIndexErrors(t *testing.T) {
	m, _ := scenetest.CubeModel()
	_, err := m.CreateGroup("a")
	require.NoError(t, err)

	tests := []struct {
		name string
		run  func() error
	}{
		{"get", func() error { _, err := m.Group(1); return err }},
		{"get negative", func() error { _, err := m.Group(-1); return err }},
		{"rename", func() error { return m.RenameGroup(3, "x") }},
		{"remove", func() error { return m.RemoveGroup(1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.run(), scene.ErrInvalidGroupIndex)
		})
	}
	assert.ErrorIs(t, m.RemoveGroupByName("missing"), scene.ErrGroupNotFound)
}

func TestRenameGroup(t *testing.T) {
	m, _ := scenetest.CubeModel()
	_, err := m.CreateGroup("a")
	require.NoError(t, err)
	_, err = m.CreateGroup("b")
	require.NoError(t, err)

	assert.ErrorIs(t, m.RenameGroup(0, "b"), scene.ErrDuplicateGroupName)
	require.NoError(t, m.RenameGroup(0, "a"), "renaming to own name is allowed")
	require.NoError(t, m.RenameGroup(0, "c"))

	i, ok := m.GroupIndex("c")
	assert.True(t, ok)
	assert.Equal(t, 0, i)
	_, ok = m.GroupByName("a")
	assert.False(t, ok)
}

func TestRemoveGroupShiftsIndices(t *testing.T) {
	m, _ := scenetest.CubeModel()
	for _, name := range []string{"a", "b", "c"} {
		_, err := m.CreateGroup(name)
		require.NoError(t, err)
	}
	require.NoError(t, m.RemoveGroupByName("b"))

	var names []string
	m.EnumerateGroups(func(_ int, g *scene.PhysicalGroup) bool {
		names = append(names, g.Name())
		return true
	})
	assert.Equal(t, []string{"a", "c"}, names)
}

func TestAddInstanceFacesIsIdempotent(t *testing.T) {
	m, key := scenetest.CubeModel()
	g, err := m.CreateGroup("top")
	require.NoError(t, err)

	require.NoError(t, g.AddInstanceFaces(key, 6, 7))
	rev := m.Revision()
	require.NoError(t, g.AddInstanceFaces(key, 7, 6, 7))

	ms, ok := g.FacesForInstance(key)
	require.True(t, ok)
	assert.Equal(t, scene.FaceSubset, ms.Kind)
	assert.Equal(t, []int{6, 7}, ms.FaceIndices())
	assert.Equal(t, 2, g.TriangleCount())
	assert.GreaterOrEqual(t, m.Revision(), rev)
}

func TestAddInstanceFacesRejectsWholeCall(t *testing.T) {
	m, key := scenetest.CubeModel()
	g, err := m.CreateGroup("top")
	require.NoError(t, err)

	err = g.AddInstanceFaces(key, 1, 12)
	assert.ErrorIs(t, err, scene.ErrInvalidFaceIndex)
	assert.False(t, g.ContainsInstance(key), "no face of a rejected call is stored")

	err = g.AddInstanceFaces(scene.MeshInstanceKey{Node: key.Node, Slot: 4}, 0)
	assert.ErrorIs(t, err, scene.ErrUnknownInstance)
}

func TestAddInstanceFacesWithoutFaces(t *testing.T) {
	m, key := scenetest.CubeModel()
	g, err := m.CreateGroup("none")
	require.NoError(t, err)
	rev := m.Revision()

	require.NoError(t, g.AddInstanceFaces(key))
	assert.False(t, g.ContainsInstance(key), "no faces means no membership")
	assert.True(t, g.IsEmpty())
	assert.Equal(t, rev, m.Revision())

	err = g.AddInstanceFaces(scene.MeshInstanceKey{Node: key.Node, Slot: 4})
	assert.ErrorIs(t, err, scene.ErrUnknownInstance, "the key is still checked")
}

func TestWholeInstanceAbsorbsFaces(t *testing.T) {
	m, key := scenetest.CubeModel()
	g, err := m.CreateGroup("all")
	require.NoError(t, err)

	require.NoError(t, g.AddInstanceFaces(key, 0))
	require.NoError(t, g.AddWholeInstance(key))
	require.NoError(t, g.AddInstanceFaces(key, 3))

	ms, ok := g.FacesForInstance(key)
	require.True(t, ok)
	assert.Equal(t, scene.WholeInstance, ms.Kind)
	assert.Nil(t, ms.FaceIndices())
	assert.Equal(t, 12, g.TriangleCount())
	assert.Equal(t, 1, g.InstanceCount())
}

func TestFacesForInstanceReturnsCopy(t *testing.T) {
	m, key := scenetest.CubeModel()
	g, err := m.CreateGroup("g")
	require.NoError(t, err)
	require.NoError(t, g.AddInstanceFaces(key, 1))

	ms, _ := g.FacesForInstance(key)
	ms.Faces.Add(9)

	again, _ := g.FacesForInstance(key)
	assert.Equal(t, []int{1}, again.FaceIndices())
}

func TestRemoveInstance(t *testing.T) {
	m, a, b := scenetest.InstancedModel()
	g, err := m.CreateGroup("g")
	require.NoError(t, err)
	require.NoError(t, g.AddWholeInstance(a))
	require.NoError(t, g.AddWholeInstance(b))

	assert.True(t, g.RemoveInstance(a))
	assert.False(t, g.RemoveInstance(a))
	assert.Equal(t, []scene.MeshInstanceKey{b}, g.Keys())
}

func TestGroupColor(t *testing.T) {
	m, _ := scenetest.CubeModel()
	g, err := m.CreateGroup("g")
	require.NoError(t, err)

	_, ok := g.Color()
	assert.False(t, ok)
	g.SetColor(scene.Color{R: 1, G: 2, B: 3})
	c, ok := g.Color()
	assert.True(t, ok)
	assert.Equal(t, "#010203", c.String())
}
