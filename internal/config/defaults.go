package config

const (
	defaultDataDir          = "~/.local/share/vigil"
	defaultLogDir           = "~/.local/share/vigil/logs"
	defaultLogRetentionDays = 60
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultAPIBind          = "127.0.0.1:7841"

	defaultSweepInterval   = 1
	defaultPersistInterval = 60

	defaultAdjacentWindowMs   = 500
	defaultRetentionMs        = 3000
	defaultSmoothing          = 0.25
	defaultJumpThreshold      = 30.0
	defaultMinSustainedMs     = 2000
	defaultCoherenceThreshold = 0.7
	defaultOverrideConfidence = 97.0
	defaultSceneAdjustment    = 8.0

	defaultLearningRate         = 0.05
	defaultPerformanceSmoothing = 0.1
	defaultAgreementBoost       = 1.2
	defaultIsolationPenalty     = 0.9
	defaultConfidenceNudge      = 0.05
	defaultStrongSignal         = 60.0

	defaultDedupStrategy     = "merge-all"
	defaultDedupWindow       = 2
	defaultDedupCooldown     = 3
	defaultCategoryRateLimit = 10
	defaultMergeBonus        = 5.0
	defaultMergeBonusCap     = 15.0
	defaultMaxConfidence     = 99.0
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Engine: Engine{
			SweepInterval:   defaultSweepInterval,
			PersistInterval: defaultPersistInterval,
		},
		Temporal: Temporal{
			AdjacentWindowMs:   defaultAdjacentWindowMs,
			RetentionMs:        defaultRetentionMs,
			Smoothing:          defaultSmoothing,
			JumpThreshold:      defaultJumpThreshold,
			MinSustainedMs:     defaultMinSustainedMs,
			CoherenceThreshold: defaultCoherenceThreshold,
			OverrideConfidence: defaultOverrideConfidence,
			SceneAdjustment:    defaultSceneAdjustment,
		},
		Attention: Attention{
			LearningRate:         defaultLearningRate,
			PerformanceSmoothing: defaultPerformanceSmoothing,
			AgreementBoost:       defaultAgreementBoost,
			IsolationPenalty:     defaultIsolationPenalty,
			ConfidenceNudge:      defaultConfidenceNudge,
			StrongSignal:         defaultStrongSignal,
		},
		Dedup: Dedup{
			Strategy:          defaultDedupStrategy,
			WindowSeconds:     defaultDedupWindow,
			CooldownSeconds:   defaultDedupCooldown,
			CategoryRateLimit: defaultCategoryRateLimit,
			MergeBonus:        defaultMergeBonus,
			MergeBonusCap:     defaultMergeBonusCap,
			MaxConfidence:     defaultMaxConfidence,
		},
	}
}
