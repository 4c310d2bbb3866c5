package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/k1LoW/expand"
)

const appName = "inkcard"

var (
	homePath       string
	configHomePath string
	dataHomePath   string
	stateHomePath  string
)

type Config struct {
	// Padding between the canvas edge and the text region
	Padding *int `yaml:"padding,omitempty" json:"padding,omitempty"`
	// Output path of rendered cards
	Output string `yaml:"output,omitempty" json:"output,omitempty"`
	// TrueType font used to fit text
	Font   string  `yaml:"font,omitempty" json:"font,omitempty"`
	Canvas *Canvas `yaml:"canvas,omitempty" json:"canvas,omitempty"`
	// Wrap lines by measured width instead of character count
	PixelWrap *bool `yaml:"pixelWrap,omitempty" json:"pixelWrap,omitempty"`
	Show      Show  `yaml:"show,omitempty" json:"show,omitempty"`
}

type Canvas struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

type Show struct {
	Dir      string   `yaml:"dir,omitempty" json:"dir,omitempty"`
	Interval Duration `yaml:"interval,omitempty" json:"interval,omitempty"`
	// frames or command
	Driver string `yaml:"driver,omitempty" json:"driver,omitempty"`
	// command line for the command driver, expanded per operation
	Command  string `yaml:"command,omitempty" json:"command,omitempty"`
	FrameDir string `yaml:"frameDir,omitempty" json:"frameDir,omitempty"`
	Panel    string `yaml:"panel,omitempty" json:"panel,omitempty"`
	Filter   string `yaml:"filter,omitempty" json:"filter,omitempty"`
	Watch    *bool  `yaml:"watch,omitempty" json:"watch,omitempty"`
	Dedupe   *bool  `yaml:"dedupe,omitempty" json:"dedupe,omitempty"`
	Dither   *bool  `yaml:"dither,omitempty" json:"dither,omitempty"`
}

// Duration is a time.Duration written as "10s" in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(b []byte) error {
	var s string
	if err := yaml.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func init() {
	var err error
	homePath, err = os.UserHomeDir()
	if err != nil {
		panic(fmt.Sprintf("failed to get home directory: %v", err))
	}
}

// Load loads the configuration from the config file.
// It searches for config files in the following order:
// 1. $XDG_CONFIG_HOME/inkcard/config-{profile}.yml
// 2. $XDG_CONFIG_HOME/inkcard/config.yml
// Environment variables in the file are expanded before parsing.
// If no config file is found, it returns an empty Config struct.
func Load(profile string) (*Config, error) {
	cfg := &Config{}
	p, ok := Path(profile)
	if !ok {
		return cfg, nil
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(expand.ExpandenvYAMLBytes(b), cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// Path returns the config file Load would read.
func Path(profile string) (string, bool) {
	var configBasePaths []string
	if profile != "" {
		configBasePaths = append(configBasePaths, filepath.Join(configPath(), fmt.Sprintf("config-%s", profile)))
	}
	configBasePaths = append(configBasePaths, filepath.Join(configPath(), "config"))
	for _, basePath := range configBasePaths {
		for _, ext := range []string{".yml", ".yaml"} {
			p := basePath + ext
			if _, err := os.Stat(p); err == nil {
				return p, true
			}
		}
	}
	return "", false
}

// configPath returns the path to the configuration directory.
func configPath() string {
	if configHomePath != "" {
		return configHomePath
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		configHomePath = filepath.Join(v, appName)
	} else {
		configHomePath = filepath.Join(homePath, ".config", appName)
	}
	return configHomePath
}

// DataHomePath returns the path to the data home directory.
func DataHomePath() string {
	if dataHomePath != "" {
		return dataHomePath
	}
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		dataHomePath = filepath.Join(v, appName)
	} else {
		dataHomePath = filepath.Join(homePath, ".local", "share", appName)
	}
	return dataHomePath
}

// StateHomePath holds frame dumps and error reports.
func StateHomePath() string {
	if stateHomePath != "" {
		return stateHomePath
	}
	if v := os.Getenv("XDG_STATE_HOME"); v != "" {
		stateHomePath = filepath.Join(v, appName)
	} else {
		stateHomePath = filepath.Join(homePath, ".local", "state", appName)
	}
	return stateHomePath
}
