package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"p3d-mipgen/internal/mipmap"
	"p3d-mipgen/internal/p3d"
	"p3d-mipgen/internal/texture"
)

func main() {
	root := &cobra.Command{
		Use:          "mipdump",
		Short:        "Inspect the textures and mipmap chains of a P3D file",
		SilenceUsage: true,
	}
	root.AddCommand(newTreeCmd(), newLevelsCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree <file.p3d>",
		Short: "Print the chunk tree with per-texture chain validation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := p3d.ReadFile(args[0])
			if err != nil {
				return err
			}
			printTree(cmd.OutOrStdout(), f)
			return nil
		},
	}
}

func printTree(w io.Writer, f *p3d.File) {
	p3d.Walk(f.Root, func(n *p3d.Node, depth int) bool {
		indent := strings.Repeat("  ", depth)
		switch p := n.Payload().(type) {
		case *p3d.Texture:
			fmt.Fprintf(w, "%s%s %q %dx%d bpp=%d mips=%d images=%d [%s]\n", indent, n.Kind(), p.Name,
				p.Width, p.Height, p.Bpp, p.NumMipMaps, len(p.Images()), mipmap.Validate(p))
		case *p3d.Image:
			fmt.Fprintf(w, "%s%s %q %dx%d %s\n", indent, n.Kind(), p.Name, p.Width, p.Height, p.Format)
		case *p3d.ImageData:
			fmt.Fprintf(w, "%s%s %d bytes %s\n", indent, n.Kind(), len(p.Data), texture.Sniff(p.Data))
		case *p3d.Shader:
			fmt.Fprintf(w, "%s%s %q (%s)\n", indent, n.Kind(), p.Name, p.PddiShaderName)
		case *p3d.TextureParam:
			fmt.Fprintf(w, "%s%s %s=%q\n", indent, n.Kind(), p.Param, p.Value)
		case *p3d.IntParam:
			fmt.Fprintf(w, "%s%s %s=%d\n", indent, n.Kind(), p.Param, p.Value)
		case *p3d.Set:
			fmt.Fprintf(w, "%s%s %q\n", indent, n.Kind(), p.Name)
		case *p3d.History:
			fmt.Fprintf(w, "%s%s\n", indent, n.Kind())
			for _, l := range p.Lines {
				fmt.Fprintf(w, "%s  | %s\n", indent, l)
			}
		case *p3d.Raw:
			fmt.Fprintf(w, "%s%s %d bytes\n", indent, n.Kind(), len(p.Data))
		default:
			fmt.Fprintf(w, "%s%s\n", indent, n.Kind())
		}
		return true
	})
}

func newLevelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "levels <file.p3d> <outdir>",
		Short: "Write every mipmap level as <texture>/<level>_<w>x<h>.webp",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := p3d.ReadFile(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			errors := dumpLevels(out, cmd.ErrOrStderr(), f, args[1])
			if errors > 0 {
				fmt.Fprintf(out, "\nDone with %d error(s).\n", errors)
				return fmt.Errorf("%d level(s) failed", errors)
			}
			fmt.Fprintln(out, "\nDone. All levels extracted.")
			return nil
		},
	}
}

// dumpLevels writes each level of each texture and returns the failure count.
func dumpLevels(out, errOut io.Writer, f *p3d.File, dir string) int {
	errors := 0
	for _, t := range p3d.Descendants[*p3d.Texture](f.Root) {
		for i, img := range t.Images() {
			if err := dumpLevel(dir, t.Name, i, img); err != nil {
				fmt.Fprintf(errOut, "ERR %s level %d: %v\n", t.Name, i, err)
				errors++
				continue
			}
			fmt.Fprintf(out, "OK  %s level %d (%dx%d)\n", t.Name, i, img.Width, img.Height)
		}
	}
	return errors
}

func dumpLevel(dir, name string, level int, img *p3d.Image) error {
	data, ok := p3d.First[*p3d.ImageData](img.Node())
	if !ok {
		return fmt.Errorf("no image data")
	}
	sub := filepath.Join(dir, sanitize(name))
	if err := os.MkdirAll(sub, 0755); err != nil {
		return err
	}
	path := filepath.Join(sub, fmt.Sprintf("%d_%dx%d.webp", level, img.Width, img.Height))
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := texture.EncodeWebP(fh, data.Data); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}
