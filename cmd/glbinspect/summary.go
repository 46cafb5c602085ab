package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Carmen-Shannon/oxy-glb/engine/model"
)

// summary is the per-file report printed by glbinspect.
type summary struct {
	Path       string     `json:"path"`
	Name       string     `json:"name"`
	ID         string     `json:"id,omitempty"`
	Nodes      int        `json:"nodes"`
	Roots      int        `json:"roots"`
	Meshes     int        `json:"meshes"`
	Primitives int        `json:"primitives"`
	Streams    int        `json:"streams"`
	Vertices   int        `json:"vertices"`
	Indices    int        `json:"indices"`
	Materials  int        `json:"materials"`
	Textures   int        `json:"textures"`
	Skins      int        `json:"skins"`
	Clips      []string   `json:"clips"`
	BoundsMin  [3]float32 `json:"boundsMin"`
	BoundsMax  [3]float32 `json:"boundsMax"`
	ImportMS   float64    `json:"importMs,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// summarize counts the contents of m. Meshes shared by several nodes are counted once.
func summarize(path string, m model.Model) summary {
	s := summary{
		Path:      path,
		Name:      m.Name(),
		ID:        m.ID(),
		Nodes:     len(m.AllNodes()),
		Roots:     len(m.RootNodes()),
		Materials: len(m.MaterialDescriptions()),
		Skins:     len(m.Skins()),
		Clips:     m.AnimationNames(),
	}

	seen := make(map[int]bool)
	for _, c := range m.MeshContainers() {
		if seen[c.MeshIndex] {
			continue
		}
		seen[c.MeshIndex] = true
		s.Meshes++
		for _, p := range c.Primitives {
			s.Primitives++
			s.Streams += len(p.Streams)
			s.Vertices += p.VertexCount()
			if p.Indices != nil {
				s.Indices += p.Indices.Count
			}
		}
	}

	for _, mat := range m.MaterialDescriptions() {
		for _, tex := range []*model.TextureBinding{
			mat.BaseColorTexture,
			mat.MetallicRoughnessTexture,
			mat.NormalTexture,
			mat.EmissiveTexture,
			mat.OcclusionTexture,
		} {
			if tex != nil {
				s.Textures++
			}
		}
	}

	bounds := m.BoundingBox()
	s.BoundsMin = [3]float32(bounds.Min)
	s.BoundsMax = [3]float32(bounds.Max)
	return s
}

// failed is the report for a file that could not be imported.
func failed(path string, err error) summary {
	return summary{Path: path, Error: err.Error()}
}

func withElapsed(s summary, elapsed time.Duration) summary {
	s.ImportMS = float64(elapsed.Microseconds()) / 1000
	return s
}

// writeJSON prints the summaries as an indented JSON array.
func writeJSON(w io.Writer, summaries []summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summaries)
}

// writeText prints one aligned block per summary, sorted by path.
func writeText(w io.Writer, summaries []summary) error {
	sorted := slices.Clone(summaries)
	slices.SortFunc(sorted, func(a, b summary) int { return strings.Compare(a.Path, b.Path) })

	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
	for i, s := range sorted {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "File:\t%s\n", s.Path)
		if s.Error != "" {
			fmt.Fprintf(tw, "Error:\t%s\n", s.Error)
			continue
		}
		fmt.Fprintf(tw, "Model:\t%s\t%s\n", s.Name, s.ID)
		fmt.Fprintf(tw, "Nodes:\t%d\t(%d roots)\n", s.Nodes, s.Roots)
		fmt.Fprintf(tw, "Meshes:\t%d\t(%d primitives, %d streams)\n", s.Meshes, s.Primitives, s.Streams)
		fmt.Fprintf(tw, "Geometry:\t%d vertices\t%d indices\n", s.Vertices, s.Indices)
		fmt.Fprintf(tw, "Materials:\t%d\t(%d textures)\n", s.Materials, s.Textures)
		fmt.Fprintf(tw, "Skins:\t%d\n", s.Skins)
		clips := "-"
		if len(s.Clips) > 0 {
			clips = strings.Join(s.Clips, ", ")
		}
		fmt.Fprintf(tw, "Clips:\t%s\n", clips)
		fmt.Fprintf(tw, "Bounds:\t%v\t%v\n", s.BoundsMin, s.BoundsMax)
		if s.ImportMS > 0 {
			fmt.Fprintf(tw, "Import:\t%.2f ms\n", s.ImportMS)
		}
	}
	return tw.Flush()
}
