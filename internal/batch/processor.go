package batch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"p3d-mipgen/internal/mipmap"
	"p3d-mipgen/internal/p3d"
)

// Options configures one regeneration run.
type Options struct {
	Policy           mipmap.Policy
	TruncateAtTwo    bool
	UpdateAllShaders bool
	NoHistory        bool
	Workers          int
	Provenance       mipmap.Provenance // At defaults to the time of recording
	Logger           *slog.Logger
	ProgressInterval time.Duration // 0 disables progress logging
}

// job is one texture that passed planning and needs a new chain.
type job struct {
	result *TextureResult
	tex    *p3d.Texture
	levels int
	chain  *mipmap.Chain
	err    error
}

// Run regenerates the mipmap chains of every texture in f. Textures are
// planned in order, their chains generated in parallel, and the results
// applied in order. f is only modified after every chain has been
// generated; a cancelled ctx returns its error with f untouched.
func Run(ctx context.Context, f *p3d.File, rs mipmap.Resampler, opts Options) (*Report, error) {
	if opts.Policy == nil {
		return nil, mipmap.ErrNoTarget
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	start := time.Now()
	textures := f.Textures()
	shaders := f.Shaders()
	index := mipmap.IndexShaders(shaders)
	builder := &mipmap.Builder{Resampler: rs, Shaders: index, TruncateAtTwo: opts.TruncateAtTwo}

	report := &Report{Textures: make([]TextureResult, len(textures))}
	log.Debug("Indexed shaders", "shaders", len(shaders), "textures_referenced", index.Len())

	// Plan
	var jobs []*job
	for i, tex := range textures {
		res := &report.Textures[i]
		res.Name = tex.Name
		res.FromLevels = int(tex.NumMipMaps)
		res.Shaders = len(index.Lookup(tex.Name))

		levels, reason := mipmap.Target(tex, opts.Policy, opts.TruncateAtTwo)
		if reason != mipmap.OK {
			res.skip(reason, levels)
			log.Info("Skipping texture", "texture", tex.Name, "reason", reason.String())
			continue
		}
		res.ToLevels = levels
		jobs = append(jobs, &job{result: res, tex: tex, levels: levels})
	}

	// Generate
	if err := generate(ctx, builder, jobs, workers, opts.ProgressInterval, log); err != nil {
		return nil, err
	}

	// Commit
	for _, j := range jobs {
		if j.err != nil {
			j.result.Status = StatusFailed
			j.result.Reason = mipmap.ResampleFailed.String()
			j.result.Error = j.err.Error()
			log.Warn("Mipmap generation failed", "texture", j.tex.Name, "error", j.err)
			continue
		}
		if err := builder.Commit(j.chain); err != nil {
			return nil, err
		}
		j.result.Status = StatusRebuilt
		j.result.ToLevels = len(j.chain.Levels)
		report.Changed = true
		log.Info("Generated mipmaps", "texture", j.tex.Name, "from", j.result.FromLevels, "to", j.result.ToLevels)
	}

	if opts.UpdateAllShaders {
		report.ShadersUpdated = mipmap.UpdateFilterMode(shaders)
		report.Changed = report.ShadersUpdated || report.Changed
	}

	if report.Changed && !opts.NoHistory {
		prov := opts.Provenance
		if prov.At.IsZero() {
			prov.At = time.Now()
		}
		if err := mipmap.Record(f, prov); err != nil {
			return nil, err
		}
		report.HistoryWritten = true
	}

	report.Elapsed = time.Since(start)
	log.Info("Run complete",
		"textures", len(textures),
		"rebuilt", report.Count(StatusRebuilt),
		"skipped", report.Count(StatusSkipped),
		"failed", report.Count(StatusFailed),
		"changed", report.Changed,
	)
	return report, nil
}

// generate builds every job's chain with a bounded worker pool. Per-texture
// failures are stored on the job; only cancellation fails the call.
func generate(ctx context.Context, b *mipmap.Builder, jobs []*job, workers int, interval time.Duration, log *slog.Logger) error {
	if len(jobs) == 0 {
		return nil
	}
	var processed atomic.Int64
	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	if interval > 0 {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					p := processed.Load()
					if p > 0 {
						rate := float64(p) / time.Since(start).Seconds()
						log.Info("Progress", "done", p, "total", len(jobs), "per_sec", fmt.Sprintf("%.1f", rate))
					}
				}
			}
		}()
	}
	defer close(done)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, j := range jobs {
		g.Go(func() error {
			defer processed.Add(1)
			log.Debug("Generating mipmaps", "texture", j.tex.Name, "levels", j.levels)
			j.chain, j.err = b.Generate(gctx, j.tex, j.levels)
			if err := gctx.Err(); err != nil {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("batch: generate mipmaps: %w", err)
	}
	return ctx.Err()
}
