// ABOUTME: Settings loading with global + project config deep merge
// ABOUTME: YAML configuration via gopkg.in/yaml.v3; unknown keys are rejected

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mauromedda/stickybar/internal/log"
	"github.com/mauromedda/stickybar/pkg/theme"
)

// Defaults applied when a duration is not configured at all.
const (
	DefaultInterval        = time.Second
	DefaultCommandThrottle = 500 * time.Millisecond
)

// Colors holds the status line colour specs (names, 0-255, #rrggbb or SGR).
type Colors struct {
	Status string `yaml:"status,omitempty"`
	Error  string `yaml:"error,omitempty"`
}

// Settings holds the merged configuration.
type Settings struct {
	StatusCommand string            `yaml:"status_command,omitempty"`
	StatusPadding int               `yaml:"status_padding,omitempty"`
	StatusTimeout time.Duration     `yaml:"status_timeout,omitempty"`
	Interval      *time.Duration    `yaml:"interval,omitempty"`
	Throttle      *time.Duration    `yaml:"throttle,omitempty"`
	MaxRows       int               `yaml:"max_rows,omitempty"`
	Colors        Colors            `yaml:"colors,omitempty"`
	Encoding      string            `yaml:"encoding,omitempty"`
	PTY           *bool             `yaml:"pty,omitempty"`
	LogFile       string            `yaml:"log_file,omitempty"`
	LogLevel      string            `yaml:"log_level,omitempty"`
	Env           map[string]string `yaml:"env,omitempty"`
}

// UsePTY reports whether the child should run on a pseudo-terminal.
// The default is true.
func (s *Settings) UsePTY() bool {
	return s.PTY == nil || *s.PTY
}

// RefreshInterval returns the periodic redraw interval. Unset means
// DefaultInterval; an explicit zero turns periodic redraws off.
func (s *Settings) RefreshInterval() time.Duration {
	if s.Interval == nil {
		return DefaultInterval
	}
	return *s.Interval
}

// StatusThrottle returns the minimum time between status producer calls.
// Unset means DefaultCommandThrottle with a status command, which runs a
// process per call, and no throttle for the built-in status.
func (s *Settings) StatusThrottle() time.Duration {
	if s.Throttle != nil {
		return *s.Throttle
	}
	if s.StatusCommand != "" {
		return DefaultCommandThrottle
	}
	return 0
}

// Palette converts the colour settings. Empty specs keep the defaults.
func (s *Settings) Palette() (theme.Palette, error) {
	var p theme.Palette
	var err error
	if s.Colors.Status != "" {
		if p.Status, err = theme.ParseColor(s.Colors.Status); err != nil {
			return p, fmt.Errorf("colors.status: %w", err)
		}
	}
	if s.Colors.Error != "" {
		if p.Error, err = theme.ParseColor(s.Colors.Error); err != nil {
			return p, fmt.Errorf("colors.error: %w", err)
		}
	}
	return p.Merge(theme.DefaultPalette()), nil
}

// Validate reports every invalid setting.
func (s *Settings) Validate() error {
	var errs []error
	if s.StatusPadding < 0 {
		errs = append(errs, fmt.Errorf("status_padding must not be negative, got %d", s.StatusPadding))
	}
	if s.StatusTimeout < 0 {
		errs = append(errs, fmt.Errorf("status_timeout must not be negative, got %s", s.StatusTimeout))
	}
	if s.Interval != nil && *s.Interval < 0 {
		errs = append(errs, fmt.Errorf("interval must not be negative, got %s", *s.Interval))
	}
	if s.Throttle != nil && *s.Throttle < 0 {
		errs = append(errs, fmt.Errorf("throttle must not be negative, got %s", *s.Throttle))
	}
	if s.MaxRows < 0 {
		errs = append(errs, fmt.Errorf("max_rows must not be negative, got %d", s.MaxRows))
	}
	if _, err := s.Palette(); err != nil {
		errs = append(errs, err)
	}
	if s.LogLevel != "" {
		if _, err := log.ParseLevel(s.LogLevel); err != nil {
			errs = append(errs, fmt.Errorf("log_level: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Load reads and merges global and project-local settings.
// Project settings override global settings.
func Load(projectRoot string) (*Settings, error) {
	return LoadFiles(GlobalConfigFile(), ProjectConfigFile(projectRoot))
}

// LoadFiles merges the given files in order; later files win. Missing files
// are skipped.
func LoadFiles(paths ...string) (*Settings, error) {
	merged := &Settings{}
	for _, path := range paths {
		s, err := loadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		log.Debug("loaded config %s", path)
		merged = merge(merged, s)
	}
	ResolveEnvVars(merged)
	return merged, nil
}

// loadFile reads Settings from a YAML file. Returns zero Settings if the
// file does not exist.
func loadFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return &Settings{}, err
	}

	var s Settings
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &s, nil
}

// merge deep-merges project settings onto global settings.
// Non-zero project values override global values.
func merge(global, project *Settings) *Settings {
	if global == nil {
		global = &Settings{}
	}
	if project == nil {
		return global
	}

	result := *global

	if project.StatusCommand != "" {
		result.StatusCommand = project.StatusCommand
	}
	if project.StatusPadding != 0 {
		result.StatusPadding = project.StatusPadding
	}
	if project.StatusTimeout != 0 {
		result.StatusTimeout = project.StatusTimeout
	}
	if project.Interval != nil {
		v := *project.Interval
		result.Interval = &v
	}
	if project.Throttle != nil {
		v := *project.Throttle
		result.Throttle = &v
	}
	if project.MaxRows != 0 {
		result.MaxRows = project.MaxRows
	}
	if project.Colors.Status != "" {
		result.Colors.Status = project.Colors.Status
	}
	if project.Colors.Error != "" {
		result.Colors.Error = project.Colors.Error
	}
	if project.Encoding != "" {
		result.Encoding = project.Encoding
	}
	if project.PTY != nil {
		v := *project.PTY
		result.PTY = &v
	}
	if project.LogFile != "" {
		result.LogFile = project.LogFile
	}
	if project.LogLevel != "" {
		result.LogLevel = project.LogLevel
	}

	if len(project.Env) > 0 {
		env := make(map[string]string, len(result.Env)+len(project.Env))
		maps.Copy(env, result.Env)
		maps.Copy(env, project.Env)
		result.Env = env
	}

	return &result
}
