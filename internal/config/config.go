package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Engine contains configuration for the fusion engine host loop.
type Engine struct {
	SweepInterval   int `toml:"sweep_interval"`
	PersistInterval int `toml:"persist_interval"`
}

// Temporal contains configuration for the temporal coherence regularizer.
type Temporal struct {
	// AdjacentWindowMs bounds how far apart two detections can sit on the
	// playback timeline and still count as adjacent.
	AdjacentWindowMs int `toml:"adjacent_window_ms"`
	// RetentionMs is how long per-category history entries stay relevant.
	RetentionMs int `toml:"retention_ms"`
	// Smoothing is the EMA weight given to the newest sample.
	Smoothing float64 `toml:"smoothing"`
	// JumpThreshold is the confidence delta treated as an anomalous spike.
	JumpThreshold float64 `toml:"jump_threshold"`
	// MinSustainedMs is the run length that marks a detection as sustained.
	MinSustainedMs int `toml:"min_sustained_ms"`
	// CoherenceThreshold is the minimum coherence score that surfaces a warning.
	CoherenceThreshold float64 `toml:"coherence_threshold"`
	// OverrideConfidence surfaces a warning regardless of history.
	OverrideConfidence float64 `toml:"override_confidence"`
	// SceneAdjustment is the confidence delta applied on scene affinity.
	SceneAdjustment float64 `toml:"scene_adjustment"`
}

// Attention contains configuration for the adaptive modality weighting.
type Attention struct {
	LearningRate         float64 `toml:"learning_rate"`
	PerformanceSmoothing float64 `toml:"performance_smoothing"`
	AgreementBoost       float64 `toml:"agreement_boost"`
	IsolationPenalty     float64 `toml:"isolation_penalty"`
	ConfidenceNudge      float64 `toml:"confidence_nudge"`
	// StrongSignal is the per-modality confidence above which a modality
	// counts toward cross-modality agreement.
	StrongSignal float64 `toml:"strong_signal"`
}

// Dedup contains configuration for warning deduplication.
type Dedup struct {
	Strategy          string  `toml:"strategy"`
	WindowSeconds     int     `toml:"window_seconds"`
	CooldownSeconds   int     `toml:"cooldown_seconds"`
	CategoryRateLimit int     `toml:"category_rate_limit"`
	MergeBonus        float64 `toml:"merge_bonus"`
	MergeBonusCap     float64 `toml:"merge_bonus_cap"`
	MaxConfidence     float64 `toml:"max_confidence"`
}

// Config encapsulates all configuration values for vigil.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and the HTTP API bind address
//   - Logging: log format, level, and retention
//   - Engine: sweep and persistence intervals for the daemon loop
//   - Temporal: coherence regularizer windows and thresholds
//   - Attention: adaptive modality weight learning parameters
//   - Dedup: warning grouping strategy, windows, and rate limits
type Config struct {
	Paths     Paths     `toml:"paths"`
	Logging   Logging   `toml:"logging"`
	Engine    Engine    `toml:"engine"`
	Temporal  Temporal  `toml:"temporal"`
	Attention Attention `toml:"attention"`
	Dedup     Dedup     `toml:"dedup"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/vigil/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/vigil/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("vigil.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite database location under the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "vigil.db")
}

// SocketPath returns the IPC socket location under the log directory.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.LogDir, "vigild.sock")
}

// LockPath returns the daemon lock file location under the log directory.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "vigild.lock")
}

// PIDPath returns the daemon pid file location under the log directory.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.LogDir, "vigild.pid")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
