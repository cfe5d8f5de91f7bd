//go:generate glslc ../../shaders/resa.vert -o ../../shaders/resa.vert.spv
//go:generate glslc ../../shaders/resa.frag -o ../../shaders/resa.frag.spv

package main

import (
	"context"
	"flag"
	"runtime"

	"github.com/gobuffalo/packr"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/xlab/closer"

	"github.com/Godric2010/resa/core"
	"github.com/Godric2010/resa/gfx"
	"github.com/Godric2010/resa/gfx/vkr"
	"github.com/Godric2010/resa/render"
	"github.com/Godric2010/resa/sysinfo"
	"github.com/Godric2010/resa/utility/kar"
	"github.com/Godric2010/resa/window"
)

func init() {
	runtime.LockOSThread()
}

var (
	settingsPath = flag.String("settings", "settings.ini", "Path of the settings file, written with defaults when missing")
	validation   = flag.Bool("validation", false, "Load the validation layer, overrides the settings")
)

func main() {
	flag.Parse()

	cfg, err := core.LoadConfiguration(*settingsPath)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load settings")
	}
	log, logFile, err := core.NewLogger(cfg.Logging)
	if err != nil {
		logrus.WithError(err).Fatal("failed to set up logging")
	}
	log.ExitFunc = closer.Exit

	cfg = cfg.Validate(log)
	if *validation {
		cfg.Renderer.Validation = true
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	closer.Bind(func() {
		cancel()
		<-done
		logFile.Close()
	})

	err = run(ctx, log, cfg)
	close(done)
	if err != nil {
		entry := log.WithError(err)
		if gfx.IsFatal(err) {
			entry.Fatal("renderer failed")
		}
		entry.Fatal("resa stopped")
	}
	closer.Close()
}

func run(ctx context.Context, log *logrus.Logger, cfg core.Configuration) error {
	info := sysinfo.Collect()

	kind, err := gfx.ParseKind(cfg.Renderer.Backend, runtime.GOOS)
	if err != nil {
		return err
	}

	shaders, err := loadShaders(cfg.Renderer)
	if err != nil {
		return err
	}

	win, err := window.New(cfg.Window)
	if err != nil {
		return errors.Wrap(err, "open window")
	}
	defer win.Destroy()

	renderer, err := vkr.NewRenderer(kind, log.WithField("component", "renderer"), win, cfg.Renderer, shaders)
	if err != nil {
		return err
	}
	defer renderer.Dispose()

	desc := renderer.Device()
	info.SetGPU(desc.Name, desc.Memory)
	info.Log(log)

	t := core.NewTime(cfg.Time)
	defer t.Stop()

	loop := render.NewLoop(log.WithField("component", "loop"), renderer, win)
	return loop.Run(ctx, t)
}

// loadShaders reads the compiled shaders from the configured kar archive,
// or from the shaders bundled into the binary.
func loadShaders(cfg core.RendererConfiguration) ([]core.ShaderBinary, error) {
	names := []string{core.VertexShaderName, core.FragmentShaderName}
	if cfg.ShaderArchive == "" {
		box := packr.NewBox("../../shaders")
		return core.LoadShaders(box, names...)
	}

	archive, err := kar.OpenFile(cfg.ShaderArchive)
	if err != nil {
		return nil, errors.Wrap(err, "open shader archive")
	}
	defer archive.Close()
	return core.LoadShaders(archive, names...)
}
