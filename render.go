package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"compositor/config"
	"compositor/debug"
	"compositor/host"
	"compositor/renderer"
	"compositor/resource"
	"compositor/scene"
	"compositor/task"
	"compositor/trace"

	"github.com/HugoSmits86/nativewebp"
)

// renderCommand loads a scene and draws it for a number of frames with the
// software renderer, writing the result as webp or png.
func renderCommand(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(stderr)
	settingsFile := fs.String("settings", "", "Path to a settings TOML file")
	output := fs.String("o", "frame.webp", "Output image (.webp or .png); a %d in the name writes every frame")
	frames := fs.Int("frames", 1, "Number of frames to draw")
	traceFile := fs.String("trace", "", "Write a trace event file")
	verbose := fs.Bool("v", false, "Log per-frame diagnostics to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("render takes one scene file")
	}
	if *frames < 1 {
		return fmt.Errorf("-frames must be at least 1, got %d", *frames)
	}

	if *verbose {
		debug.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		defer debug.SetLogger(nil)
	}

	settings := config.Default()
	if *settingsFile != "" {
		var err error
		settings, err = config.Load(*settingsFile)
		if err != nil {
			return err
		}
	}

	sc, err := scene.Load(fs.Arg(0), settings)
	if err != nil {
		return err
	}

	h := host.New(sc.Tree)
	h.SetViewportSize(sc.Viewport)
	resources := resource.NewProvider(settings.MaxTextureSize)
	sw := renderer.NewSoftware(resources, settings)
	if !h.InitializeRenderer(sw, resources) {
		return fmt.Errorf("renderer initialization failed")
	}

	var tracer *trace.Tracer
	if *traceFile != "" {
		tracer, err = trace.Create(*traceFile)
		if err != nil {
			return fmt.Errorf("create trace: %w", err)
		}
		h.SetTracer(tracer)
	}

	start := time.Now()
	drawn, writeErr := drawFrames(h, sw, *frames, *output)
	elapsed := time.Since(start)

	if tracer != nil {
		if err := tracer.Finish(); err != nil && writeErr == nil {
			writeErr = fmt.Errorf("finish trace: %w", err)
		}
	}
	if writeErr != nil {
		return writeErr
	}
	if drawn == 0 {
		return fmt.Errorf("no frame was drawn")
	}
	if !strings.Contains(*output, "%d") {
		if err := writeImage(*output, sw.Output()); err != nil {
			return err
		}
	}

	m := h.LastOverdrawMetrics()
	fmt.Fprintf(stdout, "Drew %d of %d frames in %.1fms\n", drawn, *frames, float64(elapsed.Microseconds())/1000)
	fmt.Fprintf(stdout, "Last frame: %.0f opaque, %.0f translucent, %.0f culled pixels\n",
		m.PixelsDrawnOpaque, m.PixelsDrawnTranslucent, m.PixelsCulled)
	return nil
}

// drawFrames runs the frame loop on a task runner, one task per frame.
func drawFrames(h *host.Host, sw *renderer.Software, frames int, output string) (int, error) {
	runner := task.NewRunner()
	runner.Start()

	drawn := 0
	var firstErr error
	for i := range frames {
		runner.ScheduleTask(task.Func(func() {
			if firstErr != nil {
				return
			}
			h.Animate()
			frame := host.NewFrameData()
			if h.PrepareToDraw(frame) {
				h.DrawLayers(frame)
				drawn++
				if strings.Contains(output, "%d") {
					firstErr = writeImage(fmt.Sprintf(output, i), sw.Output())
				}
			} else {
				debug.Logger().Warn("frame not drawn", "frame", i)
			}
			h.DidDrawAllLayers(frame)
		}))
	}
	runner.Drain()
	return drawn, firstErr
}

func writeImage(path string, img *image.RGBA) error {
	if img == nil {
		return fmt.Errorf("write %s: nothing drawn", path)
	}
	var encode func(io.Writer, image.Image) error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".webp":
		encode = func(w io.Writer, img image.Image) error { return nativewebp.Encode(w, img, nil) }
	case ".png":
		encode = png.Encode
	default:
		return fmt.Errorf("write %s: unsupported format %q", path, ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
