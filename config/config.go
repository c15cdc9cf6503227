// Package config loads runtime settings from .env, an optional YAML file and
// the process environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderRemoveBG = "removebg"
	ProviderNone     = "none"

	StorageDisk   = "disk"
	StorageMemory = "memory"
)

type Config struct {
	Port      int    `yaml:"port" validate:"min=1,max=65535"`
	GinMode   string `yaml:"gin_mode" validate:"omitempty,oneof=debug release test"`
	StaticDir string `yaml:"static_dir"`

	RemoveBG RemoveBG `yaml:"remove_bg"`
	Upload   Upload   `yaml:"upload"`
	Frame    Frame    `yaml:"frame"`
	Log      Log      `yaml:"log"`
}

// RemoveBG configures the remote remover. APIKey may be empty; requests then
// fail with a missing credential error instead of at startup.
type RemoveBG struct {
	Provider        string        `yaml:"provider" validate:"oneof=removebg none"`
	APIKey          string        `yaml:"api_key"`
	Endpoint        string        `yaml:"endpoint" validate:"required,url"`
	Size            string        `yaml:"size" validate:"required"`
	Encoding        string        `yaml:"encoding" validate:"oneof=multipart base64"`
	Timeout         time.Duration `yaml:"timeout" validate:"gt=0"`
	SkipTransparent bool          `yaml:"skip_transparent"`
}

type Upload struct {
	Storage  string        `yaml:"storage" validate:"oneof=disk memory"`
	Dir      string        `yaml:"dir" validate:"required_if=Storage disk"`
	MaxBytes int64         `yaml:"max_bytes" validate:"gt=0"`
	MaxAge   time.Duration `yaml:"max_age" validate:"gt=0"`
	Sweep    string        `yaml:"sweep"`
}

type Frame struct {
	// Path to the frame art. Empty draws the built-in ring.
	Path          string  `yaml:"path"`
	CanvasSize    int     `yaml:"canvas_size" validate:"min=16,max=8192"`
	MaxSourceEdge int     `yaml:"max_source_edge" validate:"gte=0"`
	MaxScale      float64 `yaml:"max_scale" validate:"gte=0"`
	CenterSubject bool    `yaml:"center_subject"`
}

type Log struct {
	Level string `yaml:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
	File  string `yaml:"file"`
}

func Default() *Config {
	return &Config{
		Port:    3000,
		GinMode: "release",
		RemoveBG: RemoveBG{
			Provider: ProviderRemoveBG,
			Endpoint: "https://api.remove.bg/v1.0/removebg",
			Size:     "auto",
			Encoding: "multipart",
			Timeout:  30 * time.Second,
		},
		Upload: Upload{
			Storage:  StorageDisk,
			Dir:      "uploads",
			MaxBytes: 10 << 20,
			MaxAge:   time.Hour,
			Sweep:    "@every 10m",
		},
		Frame: Frame{
			CanvasSize:    1024,
			MaxSourceEdge: 2048,
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load reads .env when present, then CONFIG_FILE, then environment overrides,
// and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	bindings := []struct {
		key string
		set func(string) error
	}{
		{"PORT", intVar(&c.Port)},
		{"GIN_MODE", strVar(&c.GinMode)},
		{"STATIC_DIR", strVar(&c.StaticDir)},
		{"REMBG_PROVIDER", strVar(&c.RemoveBG.Provider)},
		{"REMOVE_BG_API_KEY", strVar(&c.RemoveBG.APIKey)},
		{"REMOVE_BG_ENDPOINT", strVar(&c.RemoveBG.Endpoint)},
		{"REMOVE_BG_SIZE", strVar(&c.RemoveBG.Size)},
		{"REMOVE_BG_ENCODING", strVar(&c.RemoveBG.Encoding)},
		{"REMOVE_BG_TIMEOUT", durationVar(&c.RemoveBG.Timeout)},
		{"SKIP_TRANSPARENT", boolVar(&c.RemoveBG.SkipTransparent)},
		{"UPLOAD_STORAGE", strVar(&c.Upload.Storage)},
		{"UPLOAD_DIR", strVar(&c.Upload.Dir)},
		{"UPLOAD_MAX_BYTES", int64Var(&c.Upload.MaxBytes)},
		{"UPLOAD_MAX_AGE", durationVar(&c.Upload.MaxAge)},
		{"UPLOAD_SWEEP", strVar(&c.Upload.Sweep)},
		{"FRAME_PATH", strVar(&c.Frame.Path)},
		{"CANVAS_SIZE", intVar(&c.Frame.CanvasSize)},
		{"MAX_SOURCE_EDGE", intVar(&c.Frame.MaxSourceEdge)},
		{"MAX_SCALE", floatVar(&c.Frame.MaxScale)},
		{"CENTER_SUBJECT", boolVar(&c.Frame.CenterSubject)},
		{"LOG_LEVEL", strVar(&c.Log.Level)},
		{"LOG_FILE", strVar(&c.Log.File)},
	}

	for _, b := range bindings {
		v, ok := os.LookupEnv(b.key)
		if !ok {
			continue
		}
		if err := b.set(v); err != nil {
			return fmt.Errorf("parse %s: %w", b.key, err)
		}
	}
	return nil
}

func strVar(p *string) func(string) error {
	return func(s string) error {
		*p = s
		return nil
	}
}

func intVar(p *int) func(string) error {
	return func(s string) error {
		v, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		*p = v
		return nil
	}
}

func int64Var(p *int64) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		*p = v
		return nil
	}
}

func floatVar(p *float64) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*p = v
		return nil
	}
}

func boolVar(p *bool) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		*p = v
		return nil
	}
}

func durationVar(p *time.Duration) func(string) error {
	return func(s string) error {
		v, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*p = v
		return nil
	}
}
