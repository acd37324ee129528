// Package config loads salecast settings from an optional YAML file,
// with SALECAST_* environment variables overriding file values and
// built-in defaults underneath both.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/salecast/salecast/pkg/errors"
)

// DefaultPath is where the cmds look for a config file.
const DefaultPath = "salecast.yaml"

// Config holds every tunable the trainer and the web app read.
type Config struct {
	Data     DataConfig     `yaml:"data"`
	Model    ModelConfig    `yaml:"model"`
	Training TrainingConfig `yaml:"training"`
	Server   ServerConfig   `yaml:"server"`
}

// DataConfig locates the training data.
type DataConfig struct {
	Path string `yaml:"path"`
	// Target names the label column; empty means the last CSV column.
	Target string `yaml:"target"`
}

// ModelConfig locates the artifacts the trainer writes.
type ModelConfig struct {
	Dir  string `yaml:"dir"`
	Base string `yaml:"base"`
}

// ArtifactPath is the gob file the trainer writes and the app loads.
func (m ModelConfig) ArtifactPath() string {
	return filepath.Join(m.Dir, m.Base+".gob")
}

// RegistryPath is the sqlite run-history database.
func (m ModelConfig) RegistryPath() string {
	return filepath.Join(m.Dir, "runs.db")
}

// PlotPath is the holdout diagnostics PNG.
func (m ModelConfig) PlotPath() string {
	return filepath.Join(m.Dir, m.Base+"_holdout.png")
}

// TrainingConfig carries the experiment policy knobs.
type TrainingConfig struct {
	Seed        int64   `yaml:"seed"`
	Folds       int     `yaml:"folds"`
	TopN        int     `yaml:"top_n"`
	HoldoutFrac float64 `yaml:"holdout_fraction"`
	// ClassThreshold is the distinct-value cutoff below which a numeric
	// target is treated as classification.
	ClassThreshold int `yaml:"class_threshold"`
}

// ServerConfig configures the prediction web app.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in settings, mirroring the original
// training script's constants.
func Default() *Config {
	return &Config{
		Data:  DataConfig{Path: filepath.Join("data", "dataset.csv")},
		Model: ModelConfig{Dir: "model", Base: "best_model"},
		Training: TrainingConfig{
			Seed:           42,
			Folds:          5,
			TopN:           5,
			HoldoutFrac:    0.2,
			ClassThreshold: 10,
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Load reads path when it exists, then applies environment overrides.
// A missing file falls back to defaults; a malformed one is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to parse config %s", path)
		}
	case os.IsNotExist(err):
		// Defaults plus environment only.
	default:
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Data.Path = getEnv("SALECAST_DATA_PATH", c.Data.Path)
	c.Data.Target = getEnv("SALECAST_TARGET", c.Data.Target)
	c.Model.Dir = getEnv("SALECAST_MODEL_DIR", c.Model.Dir)
	c.Model.Base = getEnv("SALECAST_MODEL_BASE", c.Model.Base)
	c.Training.Seed = getEnvAsInt64("SALECAST_SEED", c.Training.Seed)
	c.Training.Folds = getEnvAsInt("SALECAST_FOLDS", c.Training.Folds)
	c.Training.TopN = getEnvAsInt("SALECAST_TOP_N", c.Training.TopN)
	c.Training.HoldoutFrac = getEnvAsFloat("SALECAST_HOLDOUT", c.Training.HoldoutFrac)
	c.Training.ClassThreshold = getEnvAsInt("SALECAST_CLASS_THRESHOLD", c.Training.ClassThreshold)
	c.Server.Addr = getEnv("SALECAST_ADDR", c.Server.Addr)
}

func (c *Config) validate() error {
	if c.Data.Path == "" {
		return errors.NewValidationError("data.path", "must not be empty", c.Data.Path)
	}
	if c.Training.Folds < 2 {
		return errors.NewValidationError("training.folds", "must be at least 2", c.Training.Folds)
	}
	if c.Training.TopN < 1 {
		return errors.NewValidationError("training.top_n", "must be at least 1", c.Training.TopN)
	}
	if c.Training.HoldoutFrac < 0 || c.Training.HoldoutFrac >= 1 {
		return errors.NewValidationError("training.holdout_fraction", "must be in [0, 1)", c.Training.HoldoutFrac)
	}
	if c.Training.ClassThreshold < 0 {
		return errors.NewValidationError("training.class_threshold", "must not be negative", c.Training.ClassThreshold)
	}
	return nil
}

// getEnv retrieves an environment variable or returns the fallback.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvAsInt retrieves an environment variable as an int, keeping the
// fallback on absence or a bad parse.
func getEnvAsInt(key string, fallback int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsInt64(key string, fallback int64) int64 {
	value, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsFloat(key string, fallback float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return value
}
