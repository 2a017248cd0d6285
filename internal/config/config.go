package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/broadphase"
	"github.com/san-kum/rigidsim/internal/scene"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTimeStep      = 0.02
	DefaultDuration      = 10.0
	DefaultRestitution   = 1.0
	DefaultMaxIterations = 10000
	DefaultTolerance     = 1e-3
	DefaultMaxDepth      = 1
	DefaultDataDir       = ".rigidsim"
	DefaultLogLevel      = "info"
)

// ErrInvalid indicates a configuration value outside its valid range.
var ErrInvalid = errors.New("config: invalid value")

type Config struct {
	TimeStep    float64 `yaml:"time_step"`
	Duration    float64 `yaml:"duration"`
	Restitution float64 `yaml:"restitution"`
	// MaxIterations is reserved for an iterative solver and currently unused.
	MaxIterations int        `yaml:"max_iterations"`
	Tolerance     float64    `yaml:"tolerance"`
	MaxDepth      int        `yaml:"max_depth"`
	CellScale     float64    `yaml:"cell_scale"`
	Gravity       [3]float64 `yaml:"gravity,flow"`
	GeometryDir   string     `yaml:"geometry_dir,omitempty"`
	DataDir       string     `yaml:"data_dir"`
	LogLevel      string     `yaml:"log_level"`
}

func DefaultConfig() *Config {
	return &Config{
		TimeStep:      DefaultTimeStep,
		Duration:      DefaultDuration,
		Restitution:   DefaultRestitution,
		MaxIterations: DefaultMaxIterations,
		Tolerance:     DefaultTolerance,
		MaxDepth:      DefaultMaxDepth,
		CellScale:     broadphase.DefaultCellScale,
		Gravity:       [3]float64{0, -9.8, 0},
		DataDir:       DefaultDataDir,
		LogLevel:      DefaultLogLevel,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	switch {
	case c.TimeStep <= 0:
		return fmt.Errorf("%w: time_step must be positive, got %g", ErrInvalid, c.TimeStep)
	case c.Duration <= 0:
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalid, c.Duration)
	case c.Restitution < 0:
		return fmt.Errorf("%w: restitution must not be negative, got %g", ErrInvalid, c.Restitution)
	case c.Tolerance < 0:
		return fmt.Errorf("%w: tolerance must not be negative, got %g", ErrInvalid, c.Tolerance)
	case c.MaxDepth < 0:
		return fmt.Errorf("%w: max_depth must not be negative, got %d", ErrInvalid, c.MaxDepth)
	case c.CellScale <= 0:
		return fmt.Errorf("%w: cell_scale must be positive, got %g", ErrInvalid, c.CellScale)
	}
	return nil
}

func (c *Config) GravityVec() mgl64.Vec3 {
	return mgl64.Vec3(c.Gravity)
}

// Steps is the number of whole time steps that fit in Duration.
func (c *Config) Steps() int {
	return int(c.Duration/c.TimeStep + 1e-9)
}

func (c *Config) SceneOptions() scene.Options {
	return scene.Options{
		Gravity:   c.GravityVec(),
		CellScale: c.CellScale,
		MaxDepth:  c.MaxDepth,
	}
}
