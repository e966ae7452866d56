// Package config loads assetvariant.toml project files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the project configuration file looked up by Find.
const FileName = "assetvariant.toml"

// Config is the parsed project configuration. Paths are absolute after Load.
type Config struct {
	Project  Project  `toml:"project"`
	Database Database `toml:"database"`
	Log      Log      `toml:"log"`
	Watch    Watch    `toml:"watch"`

	// Dir is the directory holding the configuration file.
	Dir string `toml:"-"`
}

// Project locates assets and schemas.
type Project struct {
	Assets  string `toml:"assets"`
	Schemas string `toml:"schemas"`
}

// Database locates the SQLite index.
type Database struct {
	Path string `toml:"path"`
}

// Log configures the CLI logger.
type Log struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`
	// Format is text or json.
	Format string `toml:"format"`
}

// Watch configures the file watcher.
type Watch struct {
	Debounce Duration `toml:"debounce"`
}

// Duration is a time.Duration written as a string such as "250ms".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Default returns the configuration used when no file exists, rooted at dir.
func Default(dir string) *Config {
	c := &Config{Dir: dir}
	c.applyDefaults()
	c.resolve()
	return c
}

func (c *Config) applyDefaults() {
	if c.Project.Assets == "" {
		c.Project.Assets = "assets"
	}
	if c.Project.Schemas == "" {
		c.Project.Schemas = "schemas"
	}
	if c.Database.Path == "" {
		c.Database.Path = filepath.Join(".assetvariant", "index.db")
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = Duration(100 * time.Millisecond)
	}
}

func (c *Config) resolve() {
	c.Project.Assets = c.abs(c.Project.Assets)
	c.Project.Schemas = c.abs(c.Project.Schemas)
	if c.Database.Path != ":memory:" {
		c.Database.Path = c.abs(c.Database.Path)
	}
}

func (c *Config) abs(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.Dir, filepath.FromSlash(p))
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, errors.New("watch.debounce must not be negative"))
	}
	return errors.Join(errs...)
}

// Level returns the configured slog level.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(c.Log.Level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return l, nil
}

// Load reads the configuration file at path. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c := &Config{Dir: filepath.Dir(abs)}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		var serr *toml.StrictMissingError
		if errors.As(err, &serr) {
			return nil, fmt.Errorf("%s: unknown keys:\n%s", path, serr.String())
		}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("%s:%d:%d: %s", path, row, col, derr.Error())
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.applyDefaults()
	c.resolve()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Find walks up from dir looking for FileName. It returns the defaults
// rooted at dir when no file is found.
func Find(dir string) (*Config, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	for d := abs; ; d = filepath.Dir(d) {
		candidate := filepath.Join(d, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return Load(candidate)
		}
		if filepath.Dir(d) == d {
			return Default(abs), nil
		}
	}
}

// Write saves a starter configuration to dir/FileName. It fails if the
// file exists.
func Write(dir string) (string, error) {
	c := &Config{}
	c.applyDefaults()
	c.Database.Path = filepath.ToSlash(c.Database.Path)
	data, err := toml.Marshal(c)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return "", err
	}
	return path, nil
}
