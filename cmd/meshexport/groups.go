package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pranavRajmane/Ayrton/pkg/scene"
)

var groupsUnit string

var groupsCmd = &cobra.Command{
	Use:   "groups <groups.yaml> <in.stl>",
	Short: "List physical groups with their instance and triangle counts",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadModel(args[1], args[0], groupsUnit)
		if err != nil {
			return err
		}
		p, err := m.Partition(scene.GroupScope{
			Mode:             scene.GroupModeAll,
			IncludeRemainder: true,
			RemainderName:    state.cfg.Export.RemainderName,
		})
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "INDEX\tNAME\tINSTANCES\tTRIANGLES\tCOLOR")
		m.EnumerateGroups(func(i int, g *scene.PhysicalGroup) bool {
			color := "-"
			if c, ok := g.Color(); ok {
				color = c.String()
			}
			fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\n", i, g.Name(), g.InstanceCount(), g.TriangleCount(), color)
			return true
		})
		for _, part := range p.Parts {
			if part.IsRemainder() {
				fmt.Fprintf(w, "-\t%s\t%d\t%d\t-\n", part.Name, len(part.Faces.Keys()), part.Faces.TriangleCount())
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\n%d groups, %d triangles in model\n", m.GroupCount(), p.Total)
		return nil
	},
}

func init() {
	groupsCmd.Flags().StringVar(&groupsUnit, "unit", "", "Model unit: mm, cm, m, in, ft")
	rootCmd.AddCommand(groupsCmd)
}
