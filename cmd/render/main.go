// Command render rasterizes a saved drawing file to PNG.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/inamate/sketchboard/internal/asset"
	"github.com/inamate/sketchboard/internal/config"
	"github.com/inamate/sketchboard/internal/export"
)

func main() {
	out := flag.String("o", "drawing.png", "output PNG path")
	width := flag.Int("width", 0, "output width (default EXPORT_WIDTH)")
	height := flag.Int("height", 0, "output height (default EXPORT_HEIGHT)")
	fit := flag.Bool("fit", false, "crop to the drawing's content")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: render [-o out.png] [-width w] [-height h] [-fit] <drawing.json>")
		os.Exit(2)
	}
	if err := run(flag.Arg(0), *out, *width, *height, *fit); err != nil {
		slog.Error("render failed", "error", err)
		os.Exit(1)
	}
}

func run(in, out string, width, height int, fit bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if width <= 0 {
		width = cfg.ExportWidth
	}
	if height <= 0 {
		height = cfg.ExportHeight
	}

	data, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	library, err := asset.NewLibrary(cfg.AssetDir)
	if err != nil {
		return fmt.Errorf("open asset library: %w", err)
	}

	canvas, res, err := export.Render(context.Background(), data, export.Options{
		Width:   width,
		Height:  height,
		Fit:     fit,
		Decoder: library,
	})
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		slog.Warn("skipped shape", "warning", w.String())
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := canvas.EncodePNG(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	slog.Info("rendered", "out", out, "summary", res.Summary())
	return nil
}
