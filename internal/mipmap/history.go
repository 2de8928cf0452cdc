package mipmap

import (
	"fmt"
	"strings"
	"time"

	"p3d-mipgen/internal/p3d"
)

// Provenance describes one run for the history chunk.
type Provenance struct {
	Tool    string
	Version string
	Args    []string
	At      time.Time
}

// Lines renders the three history lines: tool and version, the quoted
// invocation, and the run time.
func (p Provenance) Lines() []string {
	invocation := p.Tool
	if len(p.Args) > 0 {
		invocation += ` "` + strings.Join(p.Args, `" "`) + `"`
	}
	lines := []string{
		fmt.Sprintf("MipMaps Generated by %s v%s.", p.Tool, p.Version),
		invocation,
		"Run at " + p.At.UTC().Format(time.RFC1123),
	}
	for i, l := range lines {
		lines[i] = clip(p3d.Encodable(l), p3d.MaxStringLen)
	}
	return lines
}

// clip shortens s to at most n runes. After p3d.Encodable each rune is one
// encoded byte.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Record prepends a history chunk for the run to the root of f. Existing
// chunks, earlier history included, keep their order after it.
func Record(f *p3d.File, p Provenance) error {
	h := p3d.NewNode(&p3d.History{Lines: p.Lines()})
	if err := f.Root.Insert(0, h); err != nil {
		return fmt.Errorf("mipmap: record history: %w", err)
	}
	return nil
}
