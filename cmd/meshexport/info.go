package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pranavRajmane/Ayrton/pkg/archive"
	"github.com/pranavRajmane/Ayrton/pkg/formats"
)

var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Show STL, GLB or zip archive information",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		switch strings.ToLower(filepath.Ext(path)) {
		case ".stl":
			return infoSTL(path)
		case ".glb":
			return infoGLB(path)
		case ".zip":
			return infoZip(path)
		}
		return fmt.Errorf("%w: %s", formats.ErrUnsupportedFormat, filepath.Ext(path))
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func infoSTL(path string) error {
	stl, err := formats.ParseSTLFile(path)
	if err != nil {
		return err
	}
	kind := "ascii"
	label := stl.Name
	if stl.Binary {
		kind = "binary"
		label = stl.Header
	}
	fmt.Printf("File:      %s\n", path)
	fmt.Printf("Encoding:  %s\n", kind)
	fmt.Printf("Name:      %s\n", label)
	fmt.Printf("Triangles: %d\n", len(stl.Triangles))

	m := stl.ToModel("")
	fmt.Printf("Vertices:  %d (merged)\n", m.VertexCount())
	if b, ok := m.Bounds(); ok {
		size := b.Size()
		fmt.Printf("Bounds:    (%g, %g, %g) - (%g, %g, %g)\n", b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
		fmt.Printf("Size:      %g x %g x %g\n", size.X, size.Y, size.Z)
	}
	return nil
}

func infoGLB(path string) error {
	glb, err := formats.ParseGLBFile(path)
	if err != nil {
		return err
	}
	doc := glb.Document
	fmt.Printf("File:      %s\n", path)
	fmt.Printf("Version:   %d\n", glb.Version)
	fmt.Printf("Length:    %d bytes\n", glb.Length)
	fmt.Printf("JSON:      %d bytes\n", len(glb.JSON))
	fmt.Printf("BIN:       %d bytes\n", len(glb.BIN))
	fmt.Printf("Nodes:     %d\n", len(doc.Nodes))
	fmt.Printf("Meshes:    %d\n", len(doc.Meshes))
	fmt.Printf("Materials: %d\n", len(doc.Materials))
	fmt.Printf("Accessors: %d\n", len(doc.Accessors))
	if doc.Asset.Generator != "" {
		fmt.Printf("Generator: %s\n", doc.Asset.Generator)
	}
	return nil
}

func infoZip(path string) error {
	a, err := archive.Open(path)
	if err != nil {
		return err
	}
	defer a.Close()

	files := a.List()
	fmt.Printf("Archive: %s\n", path)
	fmt.Printf("Files:   %d\n", len(files))
	fmt.Println()
	var total int
	for _, name := range files {
		data, err := a.Read(name)
		if err != nil {
			return err
		}
		total += len(data)
		fmt.Printf("  %-40s %10d\n", name, len(data))
	}
	fmt.Printf("\nTotal:   %.2f KB uncompressed\n", float64(total)/1024)
	return nil
}
