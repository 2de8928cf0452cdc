package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"p3d-mipgen/internal/batch"
	"p3d-mipgen/internal/config"
	"p3d-mipgen/internal/mipmap"
	"p3d-mipgen/internal/p3d"
)

const toolName = "p3d-mipgen"

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "1.0.0"

type options struct {
	flags      config.Flags
	configFile string
	reportFile string
	verbose    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:   "mipgen [flags] <input.p3d> [output.p3d]",
		Short: "Regenerate texture mipmap chains in a P3D file",
		Long: `Regenerates the mipmap chain of every texture in a P3D file from its
full-size image, and switches the shaders that sample those textures to a
mipmapped filter mode. The output defaults to overwriting the input.`,
		Example: `  mipgen --min_size 8 model.p3d out/model.p3d
  mipgen --force --no_history --num_mipmaps 3 model.p3d`,
		Args:          cobra.RangeArgs(1, 2),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := run(cmd, o, args)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			return err
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&o.flags.Force, "force", "f", false, "Force overwrite the output file.")
	f.BoolVar(&o.flags.NoHistory, "no_history", false, "Don't add history chunk.")
	f.BoolVar(&o.flags.UpdateAllShaders, "update_all_shaders", false, "Update all shaders in the file to set their filter mode to use mipmaps.")
	f.IntVarP(&o.flags.MinSize, "min_size", "m", 0, "Sets the minimum size mipmap to generate (power of 2, 2-2048).")
	f.IntVarP(&o.flags.NumMipMaps, "num_mipmaps", "n", 0, "Sets the number of mipmaps to generate (greater than 1).")
	f.BoolVar(&o.flags.TruncateAtTwo, "truncate_at_two", false, "Stop the chain at the first level with a side of 2.")
	f.IntVar(&o.flags.Workers, "workers", 0, "Number of worker goroutines (default: NumCPU)")
	f.StringVar(&o.flags.Encoding, "encoding", "", "Encoding of generated levels: png or tga (default: png)")
	f.StringVar(&o.flags.Filter, "filter", "", "Resampling filter: catmullrom, bilinear or nearest (default: catmullrom)")
	f.StringVar(&o.configFile, "config", "", "Path to a JSON or YAML config file")
	f.StringVar(&o.reportFile, "report", "", "Write a JSON run report to this path")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "Debug logging")
	return cmd
}

func run(cmd *cobra.Command, o options, args []string) error {
	// Load config
	var cfg config.Config
	if o.configFile != "" {
		var err error
		cfg, err = config.Load(o.configFile)
		if err != nil {
			return err
		}
	}
	cfg.Resolve(o.flags)
	if err := cfg.Validate(); err != nil {
		return err
	}

	output := ""
	if len(args) > 1 {
		output = args[1]
	}
	paths, err := resolvePaths(args[0], output)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if paths.OutputExists && !cfg.Force {
		if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
			return fmt.Errorf("output file %q already exists; use --force to overwrite", paths.Output)
		}
		ok, err := confirmOverwrite(cmd.InOrStdin(), out, paths.Output)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	fmt.Fprintf(out, "Input Path: %s.\n", paths.Input)
	fmt.Fprintf(out, "Output Path: %s.\n", paths.Output)
	fmt.Fprintf(out, "Force: %t.\n", cfg.Force)
	fmt.Fprintf(out, "No History: %t.\n", cfg.NoHistory)
	fmt.Fprintf(out, "Update All Shaders: %t.\n", cfg.UpdateAllShaders)
	fmt.Fprintf(out, "Minimum Size: %s\n", orNull(cfg.MinSize))
	fmt.Fprintf(out, "Number of Mipmaps: %s\n", orNull(cfg.NumMipMaps))

	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	file, err := p3d.ReadFile(paths.Input)
	if err != nil {
		return err
	}
	if !cfg.UpdateAllShaders && len(file.Textures()) == 0 {
		fmt.Fprintln(out, "Could not find any Texture chunks in file.")
		return nil
	}

	policy, err := cfg.Policy()
	if err != nil {
		return err
	}
	rs, err := cfg.Resampler()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := batch.Run(ctx, file, rs, batch.Options{
		Policy:           policy,
		TruncateAtTwo:    cfg.TruncateAtTwo,
		UpdateAllShaders: cfg.UpdateAllShaders,
		NoHistory:        cfg.NoHistory,
		Workers:          cfg.Workers,
		Logger:           logger,
		ProgressInterval: defaultProgressInterval,
		Provenance: mipmap.Provenance{
			Tool:    toolName,
			Version: version,
			Args:    os.Args[1:],
		},
	})
	if err != nil {
		return fmt.Errorf("there was an error generating mipmaps: %w", err)
	}

	if o.reportFile != "" {
		if err := batch.WriteReport(o.reportFile, report); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	if !report.Changed {
		fmt.Fprintln(out, "No changes were made. Exiting.")
		return nil
	}

	if err := p3d.WriteFile(paths.Output, file); err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved updated P3D file to: %s\n", paths.Output)
	return nil
}

func orNull(v int) string {
	if v == 0 {
		return "NULL"
	}
	return fmt.Sprint(v)
}
