package defense

// EnvironmentConfig configures the simulated environment.
type EnvironmentConfig struct {
	// MaxSteps is the episode step limit.
	MaxSteps int `json:"maxSteps"`

	// ThreatEventProb is the per-step probability of a new threat event.
	ThreatEventProb float64 `json:"threatEventProb"`

	// Seed seeds the environment PRNG. Zero means time-based.
	Seed int64 `json:"seed"`
}

// DefaultEnvironmentConfig returns the default environment configuration.
func DefaultEnvironmentConfig() EnvironmentConfig {
	return EnvironmentConfig{
		MaxSteps:        1000,
		ThreatEventProb: 0.1,
	}
}

// ValueAgentConfig configures the dueling DQN value agent.
type ValueAgentConfig struct {
	// LearningRate for gradient updates.
	LearningRate float64 `json:"learningRate"`

	// Gamma is the discount factor.
	Gamma float64 `json:"gamma"`

	// EpsilonInitial is the starting exploration rate.
	EpsilonInitial float64 `json:"epsilonInitial"`

	// EpsilonDecay is the per-episode multiplicative decay.
	EpsilonDecay float64 `json:"epsilonDecay"`

	// EpsilonMin is the exploration rate floor.
	EpsilonMin float64 `json:"epsilonMin"`

	// HiddenDim is the first trunk layer width.
	HiddenDim int `json:"hiddenDim"`

	// FeatureDim is the shared feature width feeding both heads.
	FeatureDim int `json:"featureDim"`

	// DropoutRate is the trunk dropout rate during training.
	DropoutRate float64 `json:"dropoutRate"`

	// MaxGradNorm is the per-weight gradient clip.
	MaxGradNorm float64 `json:"maxGradNorm"`

	// Seed seeds the agent PRNG. Zero means time-based.
	Seed int64 `json:"seed"`
}

// DefaultValueAgentConfig returns the default value agent configuration.
func DefaultValueAgentConfig() ValueAgentConfig {
	return ValueAgentConfig{
		LearningRate:   0.001,
		Gamma:          0.99,
		EpsilonInitial: 1.0,
		EpsilonDecay:   0.995,
		EpsilonMin:     0.01,
		HiddenDim:      128,
		FeatureDim:     64,
		DropoutRate:    0.3,
		MaxGradNorm:    1.0,
	}
}

// PolicyAgentConfig configures the Gaussian policy agent.
type PolicyAgentConfig struct {
	// LearningRate for gradient updates.
	LearningRate float64 `json:"learningRate"`

	// Gamma is the discount factor for returns.
	Gamma float64 `json:"gamma"`

	// HiddenDim is the first trunk layer width.
	HiddenDim int `json:"hiddenDim"`

	// FeatureDim is the shared feature width feeding both heads.
	FeatureDim int `json:"featureDim"`

	// DropoutRate is the trunk dropout rate during training.
	DropoutRate float64 `json:"dropoutRate"`

	// LogStdMin clamps the log standard deviation from below.
	LogStdMin float64 `json:"logStdMin"`

	// LogStdMax clamps the log standard deviation from above.
	LogStdMax float64 `json:"logStdMax"`

	// MaxGradNorm is the per-weight gradient clip.
	MaxGradNorm float64 `json:"maxGradNorm"`

	// Seed seeds the agent PRNG. Zero means time-based.
	Seed int64 `json:"seed"`
}

// DefaultPolicyAgentConfig returns the default policy agent configuration.
func DefaultPolicyAgentConfig() PolicyAgentConfig {
	return PolicyAgentConfig{
		LearningRate: 0.001,
		Gamma:        0.99,
		HiddenDim:    128,
		FeatureDim:   64,
		DropoutRate:  0.2,
		LogStdMin:    -20,
		LogStdMax:    2,
		MaxGradNorm:  1.0,
	}
}

// EngineConfig configures the defense engine.
type EngineConfig struct {
	// Environment configures the simulator.
	Environment EnvironmentConfig `json:"environment"`

	// ValueAgent configures the DQN agent.
	ValueAgent ValueAgentConfig `json:"valueAgent"`

	// PolicyAgent configures the Gaussian policy agent.
	PolicyAgent PolicyAgentConfig `json:"policyAgent"`

	// BufferSize is the replay buffer capacity.
	BufferSize int `json:"bufferSize"`

	// BatchSize is the DQN minibatch size.
	BatchSize int `json:"batchSize"`

	// TargetUpdateFreq is the target-sync period in episodes.
	TargetUpdateFreq int `json:"targetUpdateFreq"`

	// ValueEpisodes is the DQN episode count for a full training run.
	ValueEpisodes int `json:"valueEpisodes"`

	// PolicyEpisodes is the policy-gradient episode count for a full run.
	PolicyEpisodes int `json:"policyEpisodes"`

	// FallbackValueEpisodes is the abbreviated DQN episode count used when
	// no checkpoint exists at startup.
	FallbackValueEpisodes int `json:"fallbackValueEpisodes"`

	// FallbackPolicyEpisodes is the abbreviated policy episode count.
	FallbackPolicyEpisodes int `json:"fallbackPolicyEpisodes"`

	// CheckpointPath is the checkpoint artifact location.
	CheckpointPath string `json:"checkpointPath"`
}

// DefaultEngineConfig returns the default engine configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Environment:            DefaultEnvironmentConfig(),
		ValueAgent:             DefaultValueAgentConfig(),
		PolicyAgent:            DefaultPolicyAgentConfig(),
		BufferSize:             100000,
		BatchSize:              64,
		TargetUpdateFreq:       100,
		ValueEpisodes:          1000,
		PolicyEpisodes:         500,
		FallbackValueEpisodes:  500,
		FallbackPolicyEpisodes: 200,
		CheckpointPath:         "models/rl_agent.json",
	}
}
