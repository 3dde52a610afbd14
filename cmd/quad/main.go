// Command quad runs the rotating quad render loop without a native window.
//
// With the default software backend the frames are rasterized on the CPU;
// -snapshot saves the last one as PNG and -preview saves the CPU reference
// rendering of the same frame. With both, the run fails when the two differ
// by more than -max-diff. -scale enlarges the written images.
//
//	quad -frames 60 -snapshot frame.png -preview preview.png -scale 2
//	quad -config quad.yaml -backend vulkan
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/gogpu/quad"
	"github.com/gogpu/quad/app"
	"github.com/gogpu/quad/preview"

	_ "github.com/gogpu/wgpu/hal/allbackends"
)

func main() {
	cfg, err := parseArgs(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("quad: %v", err)
	}

	level, _ := cfg.level()
	quad.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stats, err := run(ctx, cfg)
	if err != nil {
		log.Fatalf("quad: %v", err)
	}
	log.Printf("rendered %d frames in %v (skipped %d, paced %d), final angle %.3f rad",
		stats.Frames, stats.Elapsed.Round(time.Millisecond), stats.SurfaceUnavailable, stats.PacerWaits, stats.Angle)
}

func run(ctx context.Context, cfg Config) (quad.Stats, error) {
	win := app.NewHeadlessWindow(cfg.Width, cfg.Height)

	var bar *progressbar.ProgressBar
	if cfg.Progress && cfg.Frames > 0 {
		bar = progressbar.Default(int64(cfg.Frames), "rendering")
		defer bar.Close()
	}

	var (
		last    *image.RGBA
		snapErr error
	)
	opts := app.Options{
		Quad:      cfg.quadOptions(),
		MaxFrames: cfg.Frames,
		OnFrame: func(s *quad.State, redraw uint64, _ error) {
			if bar != nil {
				_ = bar.Add(1)
			}
			if cfg.Snapshot != "" && redraw == cfg.Frames {
				last, snapErr = snapshot(s)
			}
		},
	}

	stats, err := app.Run(ctx, win, win.Events(), opts)
	if err != nil {
		return stats, err
	}

	if cfg.Snapshot != "" {
		if snapErr != nil {
			return stats, snapErr
		}
		if last == nil {
			return stats, fmt.Errorf("snapshot: loop ended before frame %d", cfg.Frames)
		}
		if err := writeScaledPNG(cfg, cfg.Snapshot, last); err != nil {
			return stats, err
		}
		quad.Logger().Info("snapshot written", "path", cfg.Snapshot)
	}

	if cfg.Preview != "" {
		w, h := quad.PhysicalSize(win)
		ref := preview.Render(int(w), int(h), stats.Angle)
		if err := writeScaledPNG(cfg, cfg.Preview, ref); err != nil {
			return stats, err
		}
		quad.Logger().Info("preview written", "path", cfg.Preview)
		if last != nil {
			diff := meanAbsDiff(last, ref)
			quad.Logger().Info("snapshot vs preview", "mean_abs_diff", diff)
			if cfg.MaxDiff > 0 && diff > cfg.MaxDiff {
				return stats, fmt.Errorf("snapshot differs from preview by %.2f, limit %.2f", diff, cfg.MaxDiff)
			}
		}
	}
	return stats, nil
}
