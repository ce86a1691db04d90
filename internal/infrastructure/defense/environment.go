package defense

import (
	"math"
	"math/rand"
	"time"

	domainDefense "github.com/yuvrajhash/AI-Cyber-God/internal/domain/defense"
)

const (
	stateDim  = domainDefense.StateDim
	actionDim = domainDefense.ActionDim
)

// defense-boost weights for the four contributing action dimensions:
// firewall, monitoring, patch speed, isolation.
var defenseBoostWeights = [4]float64{0.2, 0.15, 0.25, 0.1}

// Environment simulates one abstract system under cyber-attack as an MDP.
// It is a single-writer resource: only the training orchestrator steps it.
type Environment struct {
	config domainDefense.EnvironmentConfig
	rng    *rand.Rand
	now    func() time.Time

	threatIntensity      float64
	systemHealth         float64
	defenseEffectiveness float64
	stepCount            int
}

// NewEnvironment creates a new simulated environment. A zero seed falls back
// to a time-based seed; fixing the seed and the clock makes episodes
// reproducible.
func NewEnvironment(config domainDefense.EnvironmentConfig) *Environment {
	if config.MaxSteps == 0 {
		config.MaxSteps = 1000
	}
	if config.ThreatEventProb == 0 {
		config.ThreatEventProb = 0.1
	}
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	env := &Environment{
		config: config,
		rng:    rand.New(rand.NewSource(seed)),
		now:    time.Now,
	}
	env.Reset()
	return env
}

// SetClock overrides the wall clock used for calendar-derived state signals.
func (e *Environment) SetClock(now func() time.Time) {
	e.now = now
}

// Reset reinitializes the simulation and returns the initial state vector.
func (e *Environment) Reset() []float64 {
	e.stepCount = 0
	e.threatIntensity = 0.3 + e.rng.Float64()*0.4
	e.systemHealth = 1.0
	e.defenseEffectiveness = 0.8
	return e.generateState()
}

// Step applies a defense action and advances the simulation by one step.
// The action is clipped to [-1, 1] before use.
func (e *Environment) Step(action []float64) (state []float64, reward float64, done bool, info domainDefense.StepInfo) {
	e.stepCount++

	clipped := clipAction(action)

	// Rescale to [0, 1] for interpretation as lever intensities.
	scaled := make([]float64, actionDim)
	for i, v := range clipped {
		scaled[i] = (v + 1) / 2
	}

	e.applyAction(scaled)
	e.simulateThreats()

	reward = e.computeReward(scaled)
	if math.IsNaN(reward) || math.IsInf(reward, 0) {
		reward = 0
	}

	state = e.generateState()

	done = e.stepCount >= e.config.MaxSteps ||
		e.systemHealth <= 0.1 ||
		e.threatIntensity >= 0.95

	info = domainDefense.StepInfo{
		ThreatIntensity:      e.threatIntensity,
		SystemHealth:         e.systemHealth,
		DefenseEffectiveness: e.defenseEffectiveness,
		StepCount:            e.stepCount,
	}
	return state, reward, done, info
}

// StepCount returns the number of steps taken since the last reset.
func (e *Environment) StepCount() int {
	return e.stepCount
}

func (e *Environment) applyAction(scaled []float64) {
	var boost float64
	for i, w := range defenseBoostWeights {
		boost += scaled[i] * w
	}
	// Defenses improve with investment and decay naturally.
	e.defenseEffectiveness = clip01(e.defenseEffectiveness + boost*0.1 - 0.02)
}

func (e *Environment) simulateThreats() {
	if e.rng.Float64() < e.config.ThreatEventProb {
		e.threatIntensity += 0.1 + e.rng.Float64()*0.2
	}

	mitigation := e.defenseEffectiveness * 0.1
	e.threatIntensity = clip01(e.threatIntensity - mitigation + e.rng.NormFloat64()*0.02)

	damage := e.threatIntensity * (1 - e.defenseEffectiveness) * 0.05
	e.systemHealth = clip01(e.systemHealth - damage)

	if e.threatIntensity < 0.3 {
		e.systemHealth = clip01(e.systemHealth + 0.01)
	}
}

func (e *Environment) computeReward(scaled []float64) float64 {
	healthReward := e.systemHealth * 10
	threatPenalty := -e.threatIntensity * 5
	defenseReward := e.defenseEffectiveness * 3

	var actionPenalty float64
	for _, v := range scaled {
		actionPenalty += v * v
	}
	actionPenalty *= -0.5

	var stabilityBonus float64
	if e.systemHealth > 0.8 && e.threatIntensity < 0.4 {
		stabilityBonus = 2
	}

	var criticalPenalty float64
	if e.systemHealth < 0.3 || e.threatIntensity > 0.8 {
		criticalPenalty = -20
	}

	return healthReward + threatPenalty + defenseReward + actionPenalty + stabilityBonus + criticalPenalty
}

// generateState builds the full 20-dim state vector: three core signals,
// three resource gauges drawn from the environment PRNG, two calendar
// signals, and twelve auxiliary telemetry signals.
func (e *Environment) generateState() []float64 {
	now := e.now()

	state := make([]float64, 0, stateDim)
	state = append(state,
		e.threatIntensity,
		e.systemHealth,
		e.defenseEffectiveness,
		0.4+e.rng.Float64()*0.5, // CPU usage
		0.3+e.rng.Float64()*0.5, // memory usage
		0.2+e.rng.Float64()*0.5, // network usage
		float64(now.Hour())/24.0,
		float64(now.Weekday())/7.0,
	)
	// Auxiliary telemetry: active connections, firewall status, IDS alerts,
	// patch level, backup status, monitoring coverage, IR readiness, user
	// activity, external threat intel, vulnerability score, compliance
	// status, security training level.
	for len(state) < stateDim {
		state = append(state, e.rng.Float64())
	}

	for i, v := range state {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			state[i] = 0
		}
	}
	return state
}
