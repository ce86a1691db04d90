// Package defense provides domain types for the cyber-defense strategy engine.
package defense

import (
	"time"
)

// StateDim is the dimensionality of the environment state vector.
const StateDim = 20

// ActionDim is the dimensionality of the defense action vector.
const ActionDim = 8

// ActionNames are the human-readable names of the eight defense levers,
// in action-vector order.
var ActionNames = [ActionDim]string{
	"Firewall Configuration",
	"Monitoring Intensity",
	"Patch Deployment",
	"Network Isolation",
	"Incident Response",
	"Access Control",
	"Backup Operations",
	"Threat Hunting",
}

// Priority is the urgency bucket of a single recommendation.
type Priority string

const (
	// PriorityLow indicates minimal changes are needed.
	PriorityLow Priority = "low"
	// PriorityMedium indicates a moderate adjustment.
	PriorityMedium Priority = "medium"
	// PriorityHigh indicates the lever should be raised to maximum.
	PriorityHigh Priority = "high"
)

// ThreatLevel is the overall assessment derived from a state vector.
type ThreatLevel string

const (
	ThreatLevelLow      ThreatLevel = "low"
	ThreatLevelMedium   ThreatLevel = "medium"
	ThreatLevelHigh     ThreatLevel = "high"
	ThreatLevelCritical ThreatLevel = "critical"
)

// EngineState is the training state machine position.
type EngineState string

const (
	// StateUntrained means no agent has completed a training pass.
	StateUntrained EngineState = "untrained"
	// StateTrainingValueAgent means the DQN pass is in progress.
	StateTrainingValueAgent EngineState = "training-value-agent"
	// StateTrainingPolicyAgent means the policy-gradient pass is in progress.
	StateTrainingPolicyAgent EngineState = "training-policy-agent"
	// StateTrained means both agents have completed at least one pass.
	StateTrained EngineState = "trained"
)

// Experience is a single (s, a, r, s', done) transition. Once pushed into the
// replay buffer it is owned by the buffer and must not be mutated.
type Experience struct {
	// State is the state the action was taken in.
	State []float64 `json:"state"`

	// Action is the continuous action vector, already clipped to [-1, 1].
	Action []float64 `json:"action"`

	// Reward is the reward received for the transition.
	Reward float64 `json:"reward"`

	// NextState is the resulting state.
	NextState []float64 `json:"nextState"`

	// Done indicates a terminal transition.
	Done bool `json:"done"`
}

// StepInfo carries the simulator's internal gauges alongside a step result.
type StepInfo struct {
	ThreatIntensity      float64 `json:"threatIntensity"`
	SystemHealth         float64 `json:"systemHealth"`
	DefenseEffectiveness float64 `json:"defenseEffectiveness"`
	StepCount            int     `json:"stepCount"`
}

// ThreatState is the inbound snapshot supplied by an external
// threat-intelligence collaborator.
type ThreatState struct {
	// ActiveThreats is the number of currently active threats.
	ActiveThreats int `json:"active_threats"`

	// AvgSeverity is the mean severity of active threats in [0, 1].
	AvgSeverity float64 `json:"avg_severity"`

	// SystemHealth is the reported health of the protected system in [0, 1].
	SystemHealth float64 `json:"system_health"`
}

// Recommendation is one prioritized defense action.
type Recommendation struct {
	// Action is the defense lever name.
	Action string `json:"action"`

	// Priority is the urgency bucket.
	Priority Priority `json:"priority"`

	// Description is a human-readable instruction.
	Description string `json:"description"`

	// Value is the normalized action intensity in [0, 1].
	Value float64 `json:"value"`
}

// DefenseRecommendation is the full outbound recommendation object produced
// per inference call.
type DefenseRecommendation struct {
	// ID identifies this recommendation set.
	ID string `json:"id"`

	// Recommendations holds one entry per defense lever.
	Recommendations []Recommendation `json:"recommendations"`

	// Confidence is the engine's confidence in [0, 1].
	Confidence float64 `json:"confidence"`

	// ActionValues is the raw network output, pre-normalization.
	ActionValues []float64 `json:"action_values"`

	// ThreatAssessment is the overall threat level.
	ThreatAssessment ThreatLevel `json:"threat_assessment"`

	// Timestamp is the ISO-8601 creation time.
	Timestamp string `json:"timestamp"`
}

// TrainingStats summarizes training progress for diagnostics.
type TrainingStats struct {
	// TotalEpisodes is the number of completed episodes across both phases.
	TotalEpisodes int `json:"totalEpisodes"`

	// AvgReward is the mean reward over the last 100 episodes.
	AvgReward float64 `json:"avgReward"`

	// BestReward is the highest episode reward observed.
	BestReward float64 `json:"bestReward"`

	// AvgEpisodeLength is the mean length of the last 100 episodes.
	AvgEpisodeLength float64 `json:"avgEpisodeLength"`

	// Epsilon is the current exploration rate.
	Epsilon float64 `json:"epsilon"`

	// TrainingSteps is the number of gradient steps taken.
	TrainingSteps int64 `json:"trainingSteps"`

	// Trained indicates both agents completed a scheduled pass.
	Trained bool `json:"trained"`

	// State is the current state-machine position.
	State EngineState `json:"state"`
}

// Checkpoint is the single persisted training artifact.
type Checkpoint struct {
	// ID is the checkpoint identifier.
	ID string `json:"id"`

	// ValueWeights are the value-network weight slabs keyed by layer name.
	ValueWeights map[string][]float64 `json:"valueWeights"`

	// TargetWeights are the target-network weight slabs.
	TargetWeights map[string][]float64 `json:"targetWeights"`

	// PolicyWeights are the policy-network weight slabs.
	PolicyWeights map[string][]float64 `json:"policyWeights"`

	// ValueMomentum is the value optimizer's momentum state.
	ValueMomentum map[string][]float64 `json:"valueMomentum"`

	// PolicyMomentum is the policy optimizer's momentum state.
	PolicyMomentum map[string][]float64 `json:"policyMomentum"`

	// Epsilon is the exploration rate at save time.
	Epsilon float64 `json:"epsilon"`

	// TrainingStep is the gradient-step counter.
	TrainingStep int64 `json:"trainingStep"`

	// Trained indicates both agents completed a scheduled pass.
	Trained bool `json:"trained"`

	// EpisodeRewards is the full episode-reward history.
	EpisodeRewards []float64 `json:"episodeRewards"`

	// EpisodeLengths is the full episode-length history.
	EpisodeLengths []int `json:"episodeLengths"`

	// CreatedAt is when the checkpoint was written.
	CreatedAt time.Time `json:"createdAt"`
}
