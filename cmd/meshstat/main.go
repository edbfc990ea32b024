// meshstat is a CLI utility for inspecting LandXML and JSON surface meshes.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Mr-akami/indices-vertices-visualizer/internal/engine/mesh"
	"github.com/Mr-akami/indices-vertices-visualizer/internal/scene"
	"github.com/Mr-akami/indices-vertices-visualizer/pkg/formats"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "validate", "check":
		cmdValidate(args)
	case "center":
		cmdCenter(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshstat - surface mesh inspection utility

Usage:
  meshstat <command> [options]

Commands:
  info <file...>       Show surfaces, counts and bounds per file
  validate <file...>   Check files parse and reference valid geometry
  center <file...>     Load all files into one scene and report the
                       shared center and bounding sphere

Supported formats: LandXML (.xml, .landxml) and JSON meshes (.json)

Examples:
  meshstat info terrain.xml
  meshstat validate survey1.xml survey2.json
  meshstat center *.xml`)
}

func parseFile(path string) ([]*formats.RawSurface, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return formats.Parse(path, data)
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshstat info <file...>")
		os.Exit(1)
	}

	for _, path := range args {
		surfaces, err := parseFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", path, err)
			os.Exit(1)
		}

		fmt.Printf("File: %s\n", path)
		fmt.Printf("Surfaces: %d\n", len(surfaces))

		for _, surface := range surfaces {
			name := surface.Name
			if name == "" {
				name = filepath.Base(path)
			}
			bounds := mesh.RawBounds(surface)
			size := bounds.Size()

			fmt.Printf("  %s\n", name)
			fmt.Printf("    Vertices:  %d\n", surface.VertexCount())
			fmt.Printf("    Triangles: %d\n", surface.TriangleCount())
			if !bounds.IsEmpty() {
				fmt.Printf("    Min:       (%.3f, %.3f, %.3f)\n", bounds.Min.X, bounds.Min.Y, bounds.Min.Z)
				fmt.Printf("    Max:       (%.3f, %.3f, %.3f)\n", bounds.Max.X, bounds.Max.Y, bounds.Max.Z)
				fmt.Printf("    Extent:    %.3f x %.3f x %.3f\n", size.X, size.Y, size.Z)
			}
		}
		fmt.Println()
	}
}

func cmdValidate(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshstat validate <file...>")
		os.Exit(1)
	}

	failed := 0
	for _, path := range args {
		surfaces, err := parseFile(path)
		if err != nil {
			fmt.Printf("FAIL %s: %v\n", path, err)
			failed++
			continue
		}

		ok := true
		for _, surface := range surfaces {
			if err := surface.Validate(); err != nil {
				fmt.Printf("FAIL %s (%s): %v\n", path, surface.Name, err)
				ok = false
			}
		}
		if ok {
			fmt.Printf("OK   %s (%d surfaces)\n", path, len(surfaces))
		} else {
			failed++
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func cmdCenter(args []string) {
	fs := flag.NewFlagSet("center", flag.ExitOnError)
	colorMode := fs.String("colors", "height", "Color mode used for the rebuild: flat, height or index")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshstat center [-colors mode] <file...>")
		os.Exit(1)
	}

	view := scene.DefaultViewState()
	mode, err := mesh.ParseColorMode(*colorMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	view.ColorMode = mode

	// Headless scene: same registry the viewer uses, no render groups.
	registry := scene.New(nil)

	for _, path := range fs.Args() {
		surfaces, err := parseFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", path, err)
			os.Exit(1)
		}
		for _, surface := range surfaces {
			name := surface.Name
			if name == "" {
				name = filepath.Base(path)
			}
			if _, err := registry.Add(name, surface, view); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s: %v\n", name, err)
				os.Exit(1)
			}
		}
	}

	center := registry.Center()
	stats := registry.Stats()

	fmt.Printf("Entries:   %d\n", registry.Len())
	fmt.Printf("Triangles: %d\n", stats.Triangles)
	fmt.Printf("Vertices:  %d\n", stats.Vertices)
	fmt.Printf("Center:    (%.3f, %.3f, %.3f)\n", center.X, center.Y, center.Z)

	if sphere, ok := registry.VisibleSphere(); ok {
		fmt.Printf("Sphere:    center (%.3f, %.3f, %.3f) radius %.3f\n",
			sphere.Center.X, sphere.Center.Y, sphere.Center.Z, sphere.Radius)
	}
}
