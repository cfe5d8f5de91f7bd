package core

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// EnvPrefix prefixes environment overrides, as in RESA_WINDOW_WIDTH
const EnvPrefix = "RESA"

// sectionOrder is the order sections are written out in
var sectionOrder = []string{"Window", "Logging", "Renderer", "Time"}

// Sections holds raw settings, keyed by section and then by key
type Sections map[string]map[string]string

// ParseSettings reads the settings format: "#Section" lines open a
// section, "Key=Value" lines below fill it. Other lines starting with
// '#' and a space are comments.
func ParseSettings(r io.Reader) (Sections, error) {
	bodies := map[string]*strings.Builder{}
	current := ""
	bodies[current] = &strings.Builder{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if name, ok := sectionName(line); ok {
			current = name
			if _, ok := bodies[current]; !ok {
				bodies[current] = &strings.Builder{}
			}
			continue
		}
		bodies[current].WriteString(line)
		bodies[current].WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	sections := Sections{}
	for name, body := range bodies {
		values, err := godotenv.Unmarshal(body.String())
		if err != nil {
			return nil, errors.Wrapf(err, "section %q", name)
		}
		if len(values) == 0 && name == "" {
			continue
		}
		sections[name] = values
	}
	return sections, nil
}

func sectionName(line string) (string, bool) {
	if !strings.HasPrefix(line, "#") {
		return "", false
	}
	name := strings.TrimPrefix(line, "#")
	if name == "" || strings.ContainsAny(name, " \t=") {
		return "", false
	}
	return name, true
}

// WriteSettings writes sections in the format ParseSettings reads.
func WriteSettings(w io.Writer, sections Sections) error {
	names := append([]string{}, sectionOrder...)
	for name := range sections {
		if !contains(names, name) {
			names = append(names, name)
		}
	}

	for _, name := range names {
		values, ok := sections[name]
		if !ok {
			continue
		}
		body, err := godotenv.Marshal(values)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, "#"+name+"\n"+body+"\n\n"); err != nil {
			return err
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Sections converts the configuration into raw settings
func (c Configuration) Sections() Sections {
	return Sections{
		"Window": {
			"Mode":   c.Window.Mode.String(),
			"Width":  strconv.FormatUint(uint64(c.Window.Width), 10),
			"Height": strconv.FormatUint(uint64(c.Window.Height), 10),
			"Title":  c.Window.Title,
			"System": c.Window.System,
		},
		"Logging": {
			"Path":    c.Logging.Path,
			"Level":   c.Logging.Level,
			"Console": strconv.FormatBool(c.Logging.Console),
		},
		"Renderer": {
			"FramesInFlight": strconv.Itoa(c.Renderer.FramesInFlight),
			"Device":         c.Renderer.Device,
			"Validation":     strconv.FormatBool(c.Renderer.Validation),
			"Backend":        c.Renderer.Backend,
			"ShaderArchive":  c.Renderer.ShaderArchive,
			"FenceTimeout":   c.Renderer.FenceTimeout.String(),
		},
		"Time": {
			"FramesPerSecond": strconv.Itoa(c.Time.FramesPerSecond),
			"EventPollDelay":  strconv.Itoa(c.Time.EventPollDelay),
		},
	}
}

// Apply overlays raw settings and environment overrides onto c.
// Keys missing in both keep their current value.
func (c *Configuration) Apply(sections Sections) error {
	s := settingsReader{sections: sections}

	var mode string
	if s.lookup("Window", "Mode", &mode) {
		m, err := ParseDisplayMode(mode)
		if err != nil {
			return errors.Wrap(err, "Window.Mode")
		}
		c.Window.Mode = m
	}
	s.uint32("Window", "Width", &c.Window.Width)
	s.uint32("Window", "Height", &c.Window.Height)
	s.lookup("Window", "Title", &c.Window.Title)
	s.lookup("Window", "System", &c.Window.System)

	s.lookup("Logging", "Path", &c.Logging.Path)
	s.lookup("Logging", "Level", &c.Logging.Level)
	s.bool("Logging", "Console", &c.Logging.Console)

	s.int("Renderer", "FramesInFlight", &c.Renderer.FramesInFlight)
	s.lookup("Renderer", "Device", &c.Renderer.Device)
	s.bool("Renderer", "Validation", &c.Renderer.Validation)
	s.lookup("Renderer", "Backend", &c.Renderer.Backend)
	s.lookup("Renderer", "ShaderArchive", &c.Renderer.ShaderArchive)
	s.duration("Renderer", "FenceTimeout", &c.Renderer.FenceTimeout)

	s.int("Time", "FramesPerSecond", &c.Time.FramesPerSecond)
	s.int("Time", "EventPollDelay", &c.Time.EventPollDelay)

	return s.err
}

// LoadConfiguration reads the settings file at path over the defaults.
// When the file does not exist, the defaults are written there first.
func LoadConfiguration(path string) (Configuration, error) {
	cfg := DefaultConfiguration()

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		if err := SaveConfiguration(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, cfg.Apply(Sections{})
	} else if err != nil {
		return cfg, errors.Wrap(err, "open settings")
	}
	defer f.Close()

	sections, err := ParseSettings(f)
	if err != nil {
		return cfg, errors.Wrapf(err, "parse %s", path)
	}
	if err := cfg.Apply(sections); err != nil {
		return cfg, errors.Wrapf(err, "apply %s", path)
	}
	return cfg, nil
}

// SaveConfiguration writes cfg to path, creating directories as needed
func SaveConfiguration(path string, cfg Configuration) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, "create settings directory")
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create settings")
	}
	if err := WriteSettings(f, cfg.Sections()); err != nil {
		f.Close()
		return errors.Wrap(err, "write settings")
	}
	return f.Close()
}

// EnvKey returns the environment variable overriding section.key
func EnvKey(section, key string) string {
	return EnvPrefix + "_" + strings.ToUpper(section) + "_" + strings.ToUpper(key)
}

type settingsReader struct {
	sections Sections
	err      error
}

// lookup finds the value for section.key, environment first.
func (s *settingsReader) lookup(section, key string, dst *string) bool {
	value, ok := s.sections[section][key]
	if env := envy.Get(EnvKey(section, key), ""); env != "" {
		value, ok = env, true
	}
	if ok {
		*dst = value
	}
	return ok
}

func (s *settingsReader) fail(section, key string, err error) {
	if s.err == nil {
		s.err = errors.Wrapf(err, "%s.%s", section, key)
	}
}

func (s *settingsReader) uint32(section, key string, dst *uint32) {
	var raw string
	if !s.lookup(section, key, &raw) {
		return
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		s.fail(section, key, err)
		return
	}
	*dst = uint32(v)
}

func (s *settingsReader) int(section, key string, dst *int) {
	var raw string
	if !s.lookup(section, key, &raw) {
		return
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		s.fail(section, key, err)
		return
	}
	*dst = v
}

func (s *settingsReader) bool(section, key string, dst *bool) {
	var raw string
	if !s.lookup(section, key, &raw) {
		return
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		s.fail(section, key, err)
		return
	}
	*dst = v
}

func (s *settingsReader) duration(section, key string, dst *time.Duration) {
	var raw string
	if !s.lookup(section, key, &raw) {
		return
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		s.fail(section, key, err)
		return
	}
	*dst = v
}
