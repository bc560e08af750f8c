package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateTemporal(); err != nil {
		return err
	}
	if err := c.validateAttention(); err != nil {
		return err
	}
	if err := c.validateDedup(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateEngine() error {
	return ensurePositiveMap(map[string]int{
		"engine.sweep_interval":   c.Engine.SweepInterval,
		"engine.persist_interval": c.Engine.PersistInterval,
	})
}

func (c *Config) validateTemporal() error {
	if err := ensurePositiveMap(map[string]int{
		"temporal.adjacent_window_ms": c.Temporal.AdjacentWindowMs,
		"temporal.retention_ms":       c.Temporal.RetentionMs,
		"temporal.min_sustained_ms":   c.Temporal.MinSustainedMs,
	}); err != nil {
		return err
	}
	if c.Temporal.RetentionMs < c.Temporal.AdjacentWindowMs {
		return errors.New("temporal.retention_ms must be at least temporal.adjacent_window_ms")
	}
	if c.Temporal.Smoothing <= 0 || c.Temporal.Smoothing >= 1 {
		return errors.New("temporal.smoothing must be between 0 and 1 exclusive")
	}
	if c.Temporal.JumpThreshold <= 0 || c.Temporal.JumpThreshold > 100 {
		return errors.New("temporal.jump_threshold must be between 0 and 100")
	}
	if c.Temporal.CoherenceThreshold < 0 || c.Temporal.CoherenceThreshold > 1 {
		return errors.New("temporal.coherence_threshold must be between 0 and 1")
	}
	if c.Temporal.OverrideConfidence < 0 || c.Temporal.OverrideConfidence > 100 {
		return errors.New("temporal.override_confidence must be between 0 and 100")
	}
	if c.Temporal.SceneAdjustment < 0 || c.Temporal.SceneAdjustment > 100 {
		return errors.New("temporal.scene_adjustment must be between 0 and 100")
	}
	return nil
}

func (c *Config) validateAttention() error {
	if c.Attention.LearningRate <= 0 || c.Attention.LearningRate >= 1 {
		return errors.New("attention.learning_rate must be between 0 and 1 exclusive")
	}
	if c.Attention.PerformanceSmoothing <= 0 || c.Attention.PerformanceSmoothing >= 1 {
		return errors.New("attention.performance_smoothing must be between 0 and 1 exclusive")
	}
	if c.Attention.AgreementBoost < 1 {
		return errors.New("attention.agreement_boost must be at least 1")
	}
	if c.Attention.IsolationPenalty <= 0 || c.Attention.IsolationPenalty > 1 {
		return errors.New("attention.isolation_penalty must be between 0 and 1")
	}
	if c.Attention.ConfidenceNudge < 0 || c.Attention.ConfidenceNudge > 0.5 {
		return errors.New("attention.confidence_nudge must be between 0 and 0.5")
	}
	if c.Attention.StrongSignal < 0 || c.Attention.StrongSignal > 100 {
		return errors.New("attention.strong_signal must be between 0 and 100")
	}
	return nil
}

func (c *Config) validateDedup() error {
	switch c.Dedup.Strategy {
	case "merge-all", "keep-highest", "suppress-duplicates", "show-all":
	default:
		return fmt.Errorf("dedup.strategy %q is not one of merge-all, keep-highest, suppress-duplicates, show-all", c.Dedup.Strategy)
	}
	if err := ensurePositiveMap(map[string]int{
		"dedup.window_seconds":      c.Dedup.WindowSeconds,
		"dedup.category_rate_limit": c.Dedup.CategoryRateLimit,
	}); err != nil {
		return err
	}
	if c.Dedup.CooldownSeconds < 0 {
		return errors.New("dedup.cooldown_seconds must be >= 0")
	}
	if c.Dedup.MergeBonus < 0 {
		return errors.New("dedup.merge_bonus must be >= 0")
	}
	if c.Dedup.MergeBonusCap < 0 {
		return errors.New("dedup.merge_bonus_cap must be >= 0")
	}
	if c.Dedup.MaxConfidence <= 0 || c.Dedup.MaxConfidence > 100 {
		return errors.New("dedup.max_confidence must be between 0 and 100")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
