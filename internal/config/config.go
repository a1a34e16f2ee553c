// Package config maps YAML files and CLI defaults onto engine
// options.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/odekit/internal/ode"
)

const (
	DefaultMethod   = "rk45"
	DefaultAtol     = 1e-8
	DefaultRtol     = 1e-6
	DefaultDuration = 10.0
	DefaultRootTol  = 1e-10
	DefaultLimiter  = "muscl"
)

type Config struct {
	Problem  string  `yaml:"problem"`
	Method   string  `yaml:"method"`
	Atol     float64 `yaml:"atol"`
	Rtol     float64 `yaml:"rtol"`
	HInit    float64 `yaml:"h_init"`
	HMin     float64 `yaml:"h_min"`
	HMax     float64 `yaml:"h_max"`
	RootTol  float64 `yaml:"root_tol"`
	Duration float64 `yaml:"duration"`
	MaxOrder int     `yaml:"max_order"`
	Limiter  string  `yaml:"limiter"`

	InitState []float64 `yaml:"init_state"`
}

func Default() *Config {
	return &Config{
		Problem:  "logistic",
		Method:   DefaultMethod,
		Atol:     DefaultAtol,
		Rtol:     DefaultRtol,
		RootTol:  DefaultRootTol,
		Duration: DefaultDuration,
		Limiter:  DefaultLimiter,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ode.ErrInvalidConfig, err)
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

// Engine translates the file config into the engine's option struct.
func (c *Config) Engine() (ode.Config, error) {
	m, err := ode.ParseMethod(c.Method)
	if err != nil {
		return ode.Config{}, err
	}
	e := ode.DefaultConfig()
	e.Method = m
	if c.Atol > 0 {
		e.Atol = c.Atol
	}
	if c.Rtol > 0 {
		e.Rtol = c.Rtol
	}
	if c.HInit > 0 {
		e.HInit = c.HInit
	}
	if c.HMin > 0 {
		e.HMin = c.HMin
	}
	if c.HMax > 0 {
		e.HMax = c.HMax
	}
	if c.RootTol > 0 {
		e.RootTol = c.RootTol
	}
	if c.MaxOrder > 0 {
		e.MaxOrder = c.MaxOrder
	}
	return e, nil
}
