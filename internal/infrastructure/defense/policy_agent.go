package defense

import (
	"math"
	"math/rand"
	"sync"
	"time"

	domainDefense "github.com/yuvrajhash/AI-Cyber-God/internal/domain/defense"
)

const halfLog2Pi = 0.9189385332046727 // 0.5 * ln(2*pi)

// PolicyTransition is one step of an episode trajectory collected for a
// policy-gradient update. Trajectories are scoped to a single episode and
// discarded after the update.
type PolicyTransition struct {
	State   []float64
	Action  []float64
	Reward  float64
	LogProb float64
}

// PolicyAgent is a stochastic continuous-action agent: a shared dense trunk
// with a tanh-bounded mean head and a clamped log-std head, trained by
// Monte-Carlo policy gradient over full episodes.
type PolicyAgent struct {
	mu     sync.RWMutex
	config domainDefense.PolicyAgentConfig
	rng    *rand.Rand

	trunk1 linear
	trunk2 linear
	mean   linear
	logStd linear

	grads    policyGrads
	momentum policyGrads

	updateCount int64
}

type policyGrads struct {
	trunk1, trunk2, mean, logStd linearGrad
}

func (g *policyGrads) zero() {
	g.trunk1.zero()
	g.trunk2.zero()
	g.mean.zero()
	g.logStd.zero()
}

// NewPolicyAgent creates a new Gaussian policy agent.
func NewPolicyAgent(config domainDefense.PolicyAgentConfig) *PolicyAgent {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	a := &PolicyAgent{
		config: config,
		rng:    rng,
		trunk1: newLinear(rng, stateDim, config.HiddenDim),
		trunk2: newLinear(rng, config.HiddenDim, config.FeatureDim),
		mean:   newLinear(rng, config.FeatureDim, actionDim),
		logStd: newLinear(rng, config.FeatureDim, actionDim),
	}
	a.grads = policyGrads{
		trunk1: newLinearGrad(&a.trunk1),
		trunk2: newLinearGrad(&a.trunk2),
		mean:   newLinearGrad(&a.mean),
		logStd: newLinearGrad(&a.logStd),
	}
	a.momentum = policyGrads{
		trunk1: newLinearGrad(&a.trunk1),
		trunk2: newLinearGrad(&a.trunk2),
		mean:   newLinearGrad(&a.mean),
		logStd: newLinearGrad(&a.logStd),
	}
	return a
}

// policyCache carries one forward pass for backpropagation.
type policyCache struct {
	state     []float64
	pre1, h1  []float64
	mask1     []float64
	pre2, h2  []float64
	mask2     []float64
	meanPre   []float64 // pre-tanh
	mean      []float64
	logStdPre []float64 // pre-clamp
	logStd    []float64
}

// forward computes the action distribution parameters. A non-nil rng enables
// trunk dropout (training mode).
func (a *PolicyAgent) forward(state []float64, rng *rand.Rand) policyCache {
	c := policyCache{state: state}

	c.pre1 = a.trunk1.forward(state)
	c.h1 = copyVec(c.pre1)
	reluInPlace(c.h1)
	if rng != nil {
		c.mask1 = dropoutMask(rng, len(c.h1), a.config.DropoutRate)
		applyMask(c.h1, c.mask1)
	}

	c.pre2 = a.trunk2.forward(c.h1)
	c.h2 = copyVec(c.pre2)
	reluInPlace(c.h2)
	if rng != nil {
		c.mask2 = dropoutMask(rng, len(c.h2), a.config.DropoutRate)
		applyMask(c.h2, c.mask2)
	}

	c.meanPre = a.mean.forward(c.h2)
	c.mean = make([]float64, actionDim)
	for i, v := range c.meanPre {
		c.mean[i] = math.Tanh(v)
	}

	c.logStdPre = a.logStd.forward(c.h2)
	c.logStd = make([]float64, actionDim)
	for i, v := range c.logStdPre {
		c.logStd[i] = math.Max(a.config.LogStdMin, math.Min(a.config.LogStdMax, v))
	}
	return c
}

// SampleAction draws an action from the current diagonal Gaussian and
// returns it with its log-probability summed across dimensions. The sample
// is unbounded; callers must clip to [-1, 1] before applying it.
func (a *PolicyAgent) SampleAction(state []float64) (action []float64, logProb float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	c := a.forward(state, nil)
	action = make([]float64, actionDim)
	for i := range action {
		std := math.Exp(c.logStd[i])
		action[i] = c.mean[i] + std*a.rng.NormFloat64()
	}
	return action, logProbGaussian(action, c.mean, c.logStd)
}

// Mean returns the deterministic (mean) action for a state. Always within
// [-1, 1] because the mean head is tanh-bounded.
func (a *PolicyAgent) Mean(state []float64) []float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	c := a.forward(state, nil)
	return c.mean
}

// TrainEpisode performs one REINFORCE update from a completed episode
// trajectory and returns the policy loss. Returns are discounted backward,
// then normalized as a variance-reduction baseline.
func (a *PolicyAgent) TrainEpisode(trajectory []PolicyTransition) float64 {
	if len(trajectory) == 0 {
		return 0
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// Discounted returns via backward accumulation.
	returns := make([]float64, len(trajectory))
	var g float64
	for t := len(trajectory) - 1; t >= 0; t-- {
		g = trajectory[t].Reward + a.config.Gamma*g
		returns[t] = g
	}
	mean, std := meanStd(returns)
	for i := range returns {
		returns[i] = (returns[i] - mean) / (std + 1e-8)
	}

	a.grads.zero()
	var policyLoss float64

	for t, tr := range trajectory {
		c := a.forward(tr.State, a.rng)
		logProb := logProbGaussian(tr.Action, c.mean, c.logStd)
		policyLoss += -logProb * returns[t]
		a.backward(c, tr.Action, returns[t])
	}

	lr := a.config.LearningRate / float64(len(trajectory))
	sign := -1.0 // descend the negative-log-prob-times-return loss
	applyMomentum(&a.trunk1, &a.grads.trunk1, &a.momentum.trunk1, lr, a.config.MaxGradNorm, sign)
	applyMomentum(&a.trunk2, &a.grads.trunk2, &a.momentum.trunk2, lr, a.config.MaxGradNorm, sign)
	applyMomentum(&a.mean, &a.grads.mean, &a.momentum.mean, lr, a.config.MaxGradNorm, sign)
	applyMomentum(&a.logStd, &a.grads.logStd, &a.momentum.logStd, lr, a.config.MaxGradNorm, sign)

	a.updateCount++
	return policyLoss
}

// backward accumulates the gradient of loss = -logProb(action) * ret.
func (a *PolicyAgent) backward(c policyCache, action []float64, ret float64) {
	dMeanPre := make([]float64, actionDim)
	dLogStdPre := make([]float64, actionDim)

	for j := 0; j < actionDim; j++ {
		std := math.Exp(c.logStd[j])
		diff := action[j] - c.mean[j]

		// d logProb / d mean, through the tanh bound.
		dLogProbDMean := diff / (std * std)
		dMeanPre[j] = -ret * dLogProbDMean * (1 - c.mean[j]*c.mean[j])

		// d logProb / d logStd, zero where the clamp is active.
		if c.logStdPre[j] > a.config.LogStdMin && c.logStdPre[j] < a.config.LogStdMax {
			dLogProbDLogStd := (diff*diff)/(std*std) - 1
			dLogStdPre[j] = -ret * dLogProbDLogStd
		}
	}

	dh2 := a.mean.backward(c.h2, dMeanPre, &a.grads.mean)
	dh2Std := a.logStd.backward(c.h2, dLogStdPre, &a.grads.logStd)
	for i := range dh2 {
		dh2[i] += dh2Std[i]
	}

	applyMask(dh2, c.mask2)
	reluBackward(dh2, c.pre2)
	dh1 := a.trunk2.backward(c.h1, dh2, &a.grads.trunk2)

	applyMask(dh1, c.mask1)
	reluBackward(dh1, c.pre1)
	a.trunk1.backward(c.state, dh1, &a.grads.trunk1)
}

// UpdateCount returns the number of completed episode updates.
func (a *PolicyAgent) UpdateCount() int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.updateCount
}

// Snapshot exports network weights and optimizer momentum for checkpointing.
func (a *PolicyAgent) Snapshot() (weights, momentum map[string][]float64) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	weights = make(map[string][]float64, 8)
	snapshotLayer(weights, "trunk1", &a.trunk1)
	snapshotLayer(weights, "trunk2", &a.trunk2)
	snapshotLayer(weights, "mean", &a.mean)
	snapshotLayer(weights, "logStd", &a.logStd)

	momentum = make(map[string][]float64, 8)
	snapshotGrad(momentum, "trunk1", &a.momentum.trunk1)
	snapshotGrad(momentum, "trunk2", &a.momentum.trunk2)
	snapshotGrad(momentum, "mean", &a.momentum.mean)
	snapshotGrad(momentum, "logStd", &a.momentum.logStd)
	return weights, momentum
}

// Restore loads checkpointed weights and optimizer state.
func (a *PolicyAgent) Restore(weights, momentum map[string][]float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := restoreLayer(weights, "trunk1", &a.trunk1); err != nil {
		return err
	}
	if err := restoreLayer(weights, "trunk2", &a.trunk2); err != nil {
		return err
	}
	if err := restoreLayer(weights, "mean", &a.mean); err != nil {
		return err
	}
	if err := restoreLayer(weights, "logStd", &a.logStd); err != nil {
		return err
	}
	restoreGrad(momentum, "trunk1", &a.momentum.trunk1)
	restoreGrad(momentum, "trunk2", &a.momentum.trunk2)
	restoreGrad(momentum, "mean", &a.momentum.mean)
	restoreGrad(momentum, "logStd", &a.momentum.logStd)
	return nil
}

// Reset reinitializes networks and optimizer state.
func (a *PolicyAgent) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.trunk1 = newLinear(a.rng, stateDim, a.config.HiddenDim)
	a.trunk2 = newLinear(a.rng, a.config.HiddenDim, a.config.FeatureDim)
	a.mean = newLinear(a.rng, a.config.FeatureDim, actionDim)
	a.logStd = newLinear(a.rng, a.config.FeatureDim, actionDim)
	a.grads = policyGrads{
		trunk1: newLinearGrad(&a.trunk1),
		trunk2: newLinearGrad(&a.trunk2),
		mean:   newLinearGrad(&a.mean),
		logStd: newLinearGrad(&a.logStd),
	}
	a.momentum = policyGrads{
		trunk1: newLinearGrad(&a.trunk1),
		trunk2: newLinearGrad(&a.trunk2),
		mean:   newLinearGrad(&a.mean),
		logStd: newLinearGrad(&a.logStd),
	}
	a.updateCount = 0
}

// logProbGaussian sums the diagonal Gaussian log density across dimensions.
func logProbGaussian(action, mean, logStd []float64) float64 {
	var logProb float64
	for j := range action {
		std := math.Exp(logStd[j])
		z := (action[j] - mean[j]) / std
		logProb += -0.5*z*z - logStd[j] - halfLog2Pi
	}
	return logProb
}
