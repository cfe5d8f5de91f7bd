package core_test

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/gobuffalo/envy"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/Godric2010/resa/core"
)

const sampleSettings = `#Window
Mode=windowed
Width=1024
Height=768
Title=Resa Sample

# renderer tuning
#Renderer
FramesInFlight=3
Device="AMD Radeon Pro"
Validation=true

#Logging
Path=out/resa.log
`

func TestParseSettings(t *testing.T) {
	c := qt.New(t)
	sections, err := core.ParseSettings(strings.NewReader(sampleSettings))
	c.Assert(err, qt.IsNil)
	c.Assert(sections["Window"]["Width"], qt.Equals, "1024")
	c.Assert(sections["Window"]["Title"], qt.Equals, "Resa Sample")
	c.Assert(sections["Renderer"]["Device"], qt.Equals, "AMD Radeon Pro")
	c.Assert(sections["Logging"]["Path"], qt.Equals, "out/resa.log")
	_, ok := sections[""]
	c.Assert(ok, qt.IsFalse)
}

func TestApplySettings(t *testing.T) {
	c := qt.New(t)
	sections, err := core.ParseSettings(strings.NewReader(sampleSettings))
	c.Assert(err, qt.IsNil)

	cfg := core.DefaultConfiguration()
	envy.Temp(func() {
		c.Assert(cfg.Apply(sections), qt.IsNil)
	})
	c.Assert(cfg.Window.Width, qt.Equals, uint32(1024))
	c.Assert(cfg.Window.Height, qt.Equals, uint32(768))
	c.Assert(cfg.Window.Mode, qt.Equals, core.Windowed)
	c.Assert(cfg.Renderer.FramesInFlight, qt.Equals, 3)
	c.Assert(cfg.Renderer.Validation, qt.IsTrue)
	c.Assert(cfg.Renderer.Device, qt.Equals, "AMD Radeon Pro")
	// Untouched keys keep their defaults.
	c.Assert(cfg.Time.FramesPerSecond, qt.Equals, 60)
	c.Assert(cfg.Renderer.FenceTimeout, qt.Equals, time.Second)
}

func TestApplyEnvironmentOverride(t *testing.T) {
	c := qt.New(t)
	cfg := core.DefaultConfiguration()
	envy.Temp(func() {
		envy.Set(core.EnvKey("Window", "Width"), "1920")
		envy.Set(core.EnvKey("Renderer", "FenceTimeout"), "250ms")
		c.Assert(cfg.Apply(core.Sections{"Window": {"Width": "800"}}), qt.IsNil)
	})
	c.Assert(core.EnvKey("Window", "Width"), qt.Equals, "RESA_WINDOW_WIDTH")
	c.Assert(cfg.Window.Width, qt.Equals, uint32(1920))
	c.Assert(cfg.Renderer.FenceTimeout, qt.Equals, 250*time.Millisecond)
}

func TestApplyInvalidValue(t *testing.T) {
	c := qt.New(t)
	cfg := core.DefaultConfiguration()
	var err error
	envy.Temp(func() {
		err = cfg.Apply(core.Sections{"Window": {"Width": "wide"}})
	})
	c.Assert(err, qt.ErrorMatches, `Window.Width: .*invalid syntax`)

	envy.Temp(func() {
		err = cfg.Apply(core.Sections{"Window": {"Mode": "borderless"}})
	})
	c.Assert(err, qt.ErrorMatches, `Window.Mode: unknown display mode "borderless"`)
}

func TestWriteSettingsRoundTrip(t *testing.T) {
	c := qt.New(t)
	cfg := core.DefaultConfiguration()
	cfg.Window.Title = "Round Trip"
	cfg.Renderer.Device = "llvmpipe"

	var buf bytes.Buffer
	c.Assert(core.WriteSettings(&buf, cfg.Sections()), qt.IsNil)
	c.Assert(strings.HasPrefix(buf.String(), "#Window\n"), qt.IsTrue)

	sections, err := core.ParseSettings(&buf)
	c.Assert(err, qt.IsNil)

	read := core.DefaultConfiguration()
	envy.Temp(func() {
		c.Assert(read.Apply(sections), qt.IsNil)
	})
	c.Assert(read, qt.DeepEquals, cfg)
}

func TestLoadConfigurationWritesDefaults(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(c.TempDir(), "conf", "settings.ini")

	var (
		cfg core.Configuration
		err error
	)
	envy.Temp(func() {
		cfg, err = core.LoadConfiguration(path)
	})
	c.Assert(err, qt.IsNil)
	c.Assert(cfg, qt.DeepEquals, core.DefaultConfiguration())

	data, err := ioutil.ReadFile(path)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Contains, `Width="640"`)
	c.Assert(string(data), qt.Contains, "#Logging")

	c.Assert(ioutil.WriteFile(path, []byte("#Window\nHeight=200\n"), 0644), qt.IsNil)
	envy.Temp(func() {
		cfg, err = core.LoadConfiguration(path)
	})
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Window.Height, qt.Equals, uint32(200))
	c.Assert(cfg.Window.Width, qt.Equals, uint32(640))
}

func TestValidateFullscreenFallsBack(t *testing.T) {
	c := qt.New(t)
	log, hook := test.NewNullLogger()

	cfg := core.DefaultConfiguration()
	cfg.Window.Mode = core.Fullscreen
	cfg.Renderer.FramesInFlight = 0
	cfg.Window.System = "wayland"

	valid := cfg.Validate(log)
	c.Assert(valid.Window.Mode, qt.Equals, core.Windowed)
	c.Assert(valid.Renderer.FramesInFlight, qt.Equals, 2)
	c.Assert(valid.Window.System, qt.Equals, "sdl")
	c.Assert(hook.LastEntry(), qt.Not(qt.IsNil))
	c.Assert(len(hook.AllEntries()), qt.Equals, 3)
	for _, e := range hook.AllEntries() {
		c.Assert(e.Level, qt.Equals, logrus.WarnLevel)
	}
}

func TestNewLoggerFile(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(c.TempDir(), "logs", "resa.log")

	log, closer, err := core.NewLogger(core.LoggingConfiguration{
		Path:  path,
		Level: "warning",
	})
	c.Assert(err, qt.IsNil)
	log.Info("hidden")
	log.WithField("component", "test").Warn("shown")
	c.Assert(closer.Close(), qt.IsNil)

	data, err := ioutil.ReadFile(path)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Not(qt.Contains), "hidden")
	c.Assert(string(data), qt.Contains, "shown")
	c.Assert(string(data), qt.Contains, "component=test")
}

func TestNewLoggerBadLevel(t *testing.T) {
	c := qt.New(t)
	_, _, err := core.NewLogger(core.LoggingConfiguration{Level: "loud"})
	c.Assert(err, qt.ErrorMatches, "logging level: .*")
}

func TestNewTime(t *testing.T) {
	c := qt.New(t)
	tm := core.NewTime(core.TimeConfiguration{FramesPerSecond: 1000, EventPollDelay: 1})
	defer tm.Stop()
	c.Assert(tm.Fps(), qt.Equals, 1000)

	select {
	case <-tm.FpsTicker().C:
	case <-time.After(time.Second):
		c.Fatal("fps ticker did not fire")
	}
	select {
	case <-tm.EventTicker().C:
	case <-time.After(time.Second):
		c.Fatal("event ticker did not fire")
	}
}

func TestMain(m *testing.M) {
	for _, key := range []string{"RESA_WINDOW_WIDTH", "RESA_WINDOW_HEIGHT"} {
		os.Unsetenv(key)
	}
	os.Exit(m.Run())
}
