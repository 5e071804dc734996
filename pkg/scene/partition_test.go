package scene_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/pranavRajmane/Ayrton/pkg/scene"
	"github.com/pranavRajmane/Ayrton/pkg/scene/scenetest"
)

// splitCube puts faces 0-4 in "five" and 5-11 in "seven".
func splitCube(t *testing.T) (*scene.Model, scene.MeshInstanceKey) {
	t.Helper()
	m, key := scenetest.CubeModel()
	five, err := m.CreateGroup("five")
	require.NoError(t, err)
	require.NoError(t, five.AddInstanceFaces(key, 0, 1, 2, 3, 4))
	seven, err := m.CreateGroup("seven")
	require.NoError(t, err)
	require.NoError(t, seven.AddInstanceFaces(key, 5, 6, 7, 8, 9, 10, 11))
	return m, key
}

func TestPartitionSelectedWithoutRemainder(t *testing.T) {
	m, _ := splitCube(t)

	p, err := m.Partition(scene.GroupScope{Mode: scene.GroupModeSelected, Selected: []int{0, 1}})
	require.NoError(t, err)
	require.Len(t, p.Parts, 2)
	assert.Equal(t, "five", p.Parts[0].Name)
	assert.Equal(t, 5, p.Parts[0].Faces.TriangleCount())
	assert.Equal(t, "seven", p.Parts[1].Name)
	assert.Equal(t, 7, p.Parts[1].Faces.TriangleCount())
	assert.Equal(t, 12, p.Total)
}

func TestPartitionFullCoverDropsEmptyRemainder(t *testing.T) {
	m, _ := splitCube(t)

	p, err := m.Partition(scene.GroupScope{Mode: scene.GroupModeAll, IncludeRemainder: true})
	require.NoError(t, err)
	assert.Len(t, p.Parts, 2)

	p, err = m.Partition(scene.GroupScope{Mode: scene.GroupModeRemainderOnly})
	require.NoError(t, err)
	assert.Empty(t, p.Parts)
}

func TestPartitionSelectedRemainderUsesSelection(t *testing.T) {
	m, key := splitCube(t)

	p, err := m.Partition(scene.GroupScope{
		Mode:             scene.GroupModeSelected,
		Selected:         []int{1},
		IncludeRemainder: true,
		RemainderName:    "rest",
	})
	require.NoError(t, err)
	require.Len(t, p.Parts, 2)
	rest := p.Parts[1]
	assert.True(t, rest.IsRemainder())
	assert.Equal(t, "rest", rest.Name)
	assert.Equal(t, 5, rest.Faces.TriangleCount())
	assert.True(t, rest.Faces.Contains(key, 0))
	assert.False(t, rest.Faces.Contains(key, 5))
}

func TestPartitionWholeInstanceDisjointFromRemainder(t *testing.T) {
	m, a, b := scenetest.InstancedModel()
	g, err := m.CreateGroup("left")
	require.NoError(t, err)
	require.NoError(t, g.AddWholeInstance(a))

	groups, err := m.Partition(scene.GroupScope{Mode: scene.GroupModeAll})
	require.NoError(t, err)
	rest, err := m.Partition(scene.GroupScope{Mode: scene.GroupModeRemainderOnly})
	require.NoError(t, err)

	require.Len(t, groups.Parts, 1)
	require.Len(t, rest.Parts, 1)
	assert.Equal(t, scene.DefaultRemainderName, rest.Parts[0].Name)
	assert.Equal(t, []scene.MeshInstanceKey{a}, groups.Parts[0].Faces.Keys())
	assert.Equal(t, []scene.MeshInstanceKey{b}, rest.Parts[0].Faces.Keys())
}

func TestPartitionKeepsOverlap(t *testing.T) {
	m, key := scenetest.CubeModel()
	g1, err := m.CreateGroup("g1")
	require.NoError(t, err)
	require.NoError(t, g1.AddInstanceFaces(key, 0, 1, 2))
	g2, err := m.CreateGroup("g2")
	require.NoError(t, err)
	require.NoError(t, g2.AddInstanceFaces(key, 2, 3))

	p, err := m.Partition(scene.GroupScope{Mode: scene.GroupModeAll, IncludeRemainder: true})
	require.NoError(t, err)
	require.Len(t, p.Parts, 3)
	assert.True(t, p.Parts[0].Faces.Contains(key, 2))
	assert.True(t, p.Parts[1].Faces.Contains(key, 2))
	assert.Equal(t, 8, p.Parts[2].Faces.TriangleCount())
	assert.Equal(t, 13, p.TriangleCount())
}

func TestPartitionErrors(t *testing.T) {
	m, _ := splitCube(t)

	_, err := m.Partition(scene.GroupScope{Mode: scene.GroupModeSelected, Selected: []int{2}})
	assert.ErrorIs(t, err, scene.ErrInvalidGroupIndex)

	p, err := m.Partition(scene.GroupScope{Mode: scene.GroupModeNone})
	require.NoError(t, err)
	assert.Empty(t, p.Parts)
	assert.Equal(t, 12, p.Total)
}

func TestParseGroupMode(t *testing.T) {
	for _, mode := range []scene.GroupMode{
		scene.GroupModeNone, scene.GroupModeAll, scene.GroupModeSelected, scene.GroupModeRemainderOnly,
	} {
		got, err := scene.ParseGroupMode(mode.String())
		require.NoError(t, err)
		assert.Equal(t, mode, got)
	}
	_, err := scene.ParseGroupMode("some")
	assert.Error(t, err)
}

// Every triangle lands in at least one part when the remainder is included,
// and the remainder never overlaps a group in scope.
func TestPartitionCoverageProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m, key := scenetest.CubeModel()
		nGroups := rapid.IntRange(0, 4).Draw(t, "groups")
		for i := 0; i < nGroups; i++ {
			g, err := m.CreateGroup(string(rune('a' + i)))
			if err != nil {
				t.Fatal(err)
			}
			faces := rapid.SliceOf(rapid.IntRange(0, 11)).Draw(t, "faces")
			if err := g.AddInstanceFaces(key, faces...); err != nil {
				t.Fatal(err)
			}
		}

		p, err := m.Partition(scene.GroupScope{Mode: scene.GroupModeAll, IncludeRemainder: true})
		if err != nil {
			t.Fatal(err)
		}
		for tri := 0; tri < 12; tri++ {
			hits, inRemainder := 0, false
			for _, part := range p.Parts {
				if part.Faces.Contains(key, tri) {
					hits++
					inRemainder = inRemainder || part.IsRemainder()
				}
			}
			if hits == 0 {
				t.Fatalf("triangle %d in no part", tri)
			}
			if inRemainder && hits > 1 {
				t.Fatalf("remainder triangle %d also in a group", tri)
			}
		}
	})
}

func TestMeshInstanceCountProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := scene.NewModel("random")
		idx := m.AddMesh(scenetest.CubeMesh())
		parents := []scene.NodeID{scene.RootID}
		want := 0

		steps := rapid.IntRange(1, 30).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			parent := rapid.SampledFrom(parents).Draw(t, "parent")
			n, err := m.AddNode(parent, "n")
			if err != nil {
				t.Fatal(err)
			}
			parents = append(parents, n.ID())
			slots := rapid.IntRange(0, 3).Draw(t, "slots")
			for s := 0; s < slots; s++ {
				if _, err := n.AddMesh(idx); err != nil {
					t.Fatal(err)
				}
			}
			want += slots
		}

		if got := m.MeshInstanceCount(); got != want {
			t.Fatalf("MeshInstanceCount = %d, want %d", got, want)
		}
		if got := m.TriangleCount(); got != 12*want {
			t.Fatalf("TriangleCount = %d, want %d", got, 12*want)
		}
	})
}
