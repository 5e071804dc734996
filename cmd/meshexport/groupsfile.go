package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pranavRajmane/Ayrton/pkg/math"
	"github.com/pranavRajmane/Ayrton/pkg/scene"
)

// groupsFile is the YAML description of physical groups:
//
//	- name: lid
//	  color: "#ff8000"
//	  members:
//	    - node: Body
//	      slot: 0
//	      faces: [2, 3]
//
// Empty faces mean the whole instance. A node is matched by name, or by
// identity when written as "#<id>".
type groupsFile []groupDef

type groupDef struct {
	Name    string      `yaml:"name"`
	Color   string      `yaml:"color,omitempty"`
	Members []memberDef `yaml:"members"`
}

type memberDef struct {
	Node  string `yaml:"node"`
	Slot  int    `yaml:"slot"`
	Faces []int  `yaml:"faces,omitempty"`
}

func loadGroupsFile(path string) (groupsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var gf groupsFile
	if err := yaml.Unmarshal(data, &gf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return gf, nil
}

// apply creates the groups on m. It stops at the first error; groups
// created before it stay on the model.
func (gf groupsFile) apply(m *scene.Model) error {
	for _, def := range gf {
		g, err := m.CreateGroup(def.Name)
		if err != nil {
			return err
		}
		if def.Color != "" {
			c, err := scene.ParseColor(def.Color)
			if err != nil {
				return fmt.Errorf("group %q: %w", def.Name, err)
			}
			g.SetColor(c)
		}
		for _, member := range def.Members {
			key, err := resolveMember(m, member)
			if err != nil {
				return fmt.Errorf("group %q: %w", def.Name, err)
			}
			if len(member.Faces) == 0 {
				err = g.AddWholeInstance(key)
			} else {
				err = g.AddInstanceFaces(key, member.Faces...)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func resolveMember(m *scene.Model, member memberDef) (scene.MeshInstanceKey, error) {
	if id, ok := strings.CutPrefix(member.Node, "#"); ok {
		n, err := strconv.ParseUint(id, 10, 32)
		if err != nil {
			return scene.MeshInstanceKey{}, fmt.Errorf("node %q: %w", member.Node, err)
		}
		return scene.MeshInstanceKey{Node: scene.NodeID(n), Slot: member.Slot}, nil
	}

	var found *scene.Node
	m.EnumerateNodes(func(n *scene.Node, _ math.Mat4) bool {
		if n.Name() == member.Node {
			found = n
			return false
		}
		return true
	})
	if found == nil {
		return scene.MeshInstanceKey{}, fmt.Errorf("node %q: %w", member.Node, scene.ErrUnknownNode)
	}
	return scene.MeshInstanceKey{Node: found.ID(), Slot: member.Slot}, nil
}
