package main

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/quad"
	"github.com/gogpu/quad/internal/gputest"
)

func useRecordingBackend(t *testing.T) *gputest.Backend {
	t.Helper()
	b := gputest.NewBackend()
	quad.RegisterBackend("recording", func() hal.Backend { return b })
	t.Cleanup(func() { quad.UnregisterBackend("recording") })
	return b
}

func decodePNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return img
}

func TestRun_Preview(t *testing.T) {
	b := useRecordingBackend(t)
	out := filepath.Join(t.TempDir(), "preview.png")

	cfg := defaultConfig()
	cfg.Backend = "recording"
	cfg.Width, cfg.Height = 64, 48
	cfg.Frames = 3
	cfg.Progress = false
	cfg.Preview = out

	stats, err := run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.Frames != 3 || b.Rec.Presents != 3 {
		t.Errorf("frames = %d, presents = %d, want 3", stats.Frames, b.Rec.Presents)
	}

	img := decodePNG(t, out)
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 48 {
		t.Errorf("preview bounds = %v, want 64x48", img.Bounds())
	}
}

func TestRun_SnapshotUnsupported(t *testing.T) {
	useRecordingBackend(t)

	cfg := defaultConfig()
	cfg.Backend = "recording"
	cfg.Width, cfg.Height = 16, 16
	cfg.Frames = 1
	cfg.Progress = false
	cfg.Snapshot = filepath.Join(t.TempDir(), "frame.png")

	_, err := run(context.Background(), cfg)
	if err == nil || !strings.Contains(err.Error(), "no readable framebuffer") {
		t.Errorf("err = %v, want unreadable framebuffer error", err)
	}
}

func TestRun_UnknownBackend(t *testing.T) {
	cfg := defaultConfig()
	cfg.Backend = "glide"
	cfg.Progress = false
	if _, err := run(context.Background(), cfg); err == nil {
		t.Error("run with an unknown backend succeeded")
	}
}

func TestMeanAbsDiff(t *testing.T) {
	a := image.NewRGBA(image.Rect(0, 0, 2, 2))
	b := image.NewRGBA(image.Rect(0, 0, 2, 2))
	if d := meanAbsDiff(a, b); d != 0 {
		t.Errorf("identical images diff = %v, want 0", d)
	}
	b.SetRGBA(0, 0, color.RGBA{R: 120, G: 0, B: 0, A: 255})
	// 120 over 4 pixels x 3 channels.
	if d := meanAbsDiff(a, b); d != 10 {
		t.Errorf("diff = %v, want 10", d)
	}
}

func TestWritePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.png")
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.SetRGBA(1, 1, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	if err := writePNG(path, img); err != nil {
		t.Fatalf("writePNG: %v", err)
	}
	got := decodePNG(t, path)
	if r, g, b, _ := got.At(1, 1).RGBA(); r>>8 != 1 || g>>8 != 2 || b>>8 != 3 {
		t.Errorf("pixel = %d,%d,%d, want 1,2,3", r>>8, g>>8, b>>8)
	}
}

func TestWriteScaledPNG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 8))
	for _, tt := range []struct {
		scale        float64
		wantW, wantH int
	}{
		{1, 10, 8},
		{3, 30, 24},
		{0.5, 5, 4},
	} {
		path := filepath.Join(t.TempDir(), "x.png")
		if err := writeScaledPNG(Config{Scale: tt.scale}, path, src); err != nil {
			t.Fatalf("writeScaledPNG(%v): %v", tt.scale, err)
		}
		if b := decodePNG(t, path).Bounds(); b.Dx() != tt.wantW || b.Dy() != tt.wantH {
			t.Errorf("scale %v: bounds = %v, want %dx%d", tt.scale, b, tt.wantW, tt.wantH)
		}
	}
}
