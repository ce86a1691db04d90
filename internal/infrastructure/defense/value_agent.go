package defense

import (
	"math"
	"math/rand"
	"sync"
	"time"

	domainDefense "github.com/yuvrajhash/AI-Cyber-God/internal/domain/defense"
)

// qNetwork is a dueling Q-network: a shared dense trunk feeding a scalar
// value head and a per-action advantage head, combined as
// Q = V + (A - mean(A)).
type qNetwork struct {
	trunk1 linear
	trunk2 linear
	value  linear
	adv    linear
}

func newQNetwork(rng *rand.Rand, hiddenDim, featureDim int) qNetwork {
	return qNetwork{
		trunk1: newLinear(rng, stateDim, hiddenDim),
		trunk2: newLinear(rng, hiddenDim, featureDim),
		value:  newLinear(rng, featureDim, 1),
		adv:    newLinear(rng, featureDim, actionDim),
	}
}

func (n *qNetwork) clone() qNetwork {
	return qNetwork{
		trunk1: n.trunk1.clone(),
		trunk2: n.trunk2.clone(),
		value:  n.value.clone(),
		adv:    n.adv.clone(),
	}
}

// qCache holds the activations of one forward pass for backpropagation.
type qCache struct {
	state        []float64
	pre1, h1     []float64
	mask1        []float64
	pre2, h2     []float64
	mask2        []float64
}

// forward computes Q-values. A non-nil rng enables dropout (training mode);
// dropout is skipped entirely at inference.
func (n *qNetwork) forward(state []float64, rng *rand.Rand, dropoutRate float64) ([]float64, qCache) {
	c := qCache{state: state}

	c.pre1 = n.trunk1.forward(state)
	c.h1 = copyVec(c.pre1)
	reluInPlace(c.h1)
	if rng != nil {
		c.mask1 = dropoutMask(rng, len(c.h1), dropoutRate)
		applyMask(c.h1, c.mask1)
	}

	c.pre2 = n.trunk2.forward(c.h1)
	c.h2 = copyVec(c.pre2)
	reluInPlace(c.h2)
	if rng != nil {
		c.mask2 = dropoutMask(rng, len(c.h2), dropoutRate)
		applyMask(c.h2, c.mask2)
	}

	v := n.value.forward(c.h2)[0]
	a := n.adv.forward(c.h2)

	var advMean float64
	for _, x := range a {
		advMean += x
	}
	advMean /= float64(len(a))

	q := make([]float64, actionDim)
	for j := range q {
		q[j] = v + a[j] - advMean
	}
	return q, c
}

func (n *qNetwork) snapshot() map[string][]float64 {
	w := make(map[string][]float64, 8)
	snapshotLayer(w, "trunk1", &n.trunk1)
	snapshotLayer(w, "trunk2", &n.trunk2)
	snapshotLayer(w, "value", &n.value)
	snapshotLayer(w, "adv", &n.adv)
	return w
}

func (n *qNetwork) restore(w map[string][]float64) error {
	if err := restoreLayer(w, "trunk1", &n.trunk1); err != nil {
		return err
	}
	if err := restoreLayer(w, "trunk2", &n.trunk2); err != nil {
		return err
	}
	if err := restoreLayer(w, "value", &n.value); err != nil {
		return err
	}
	return restoreLayer(w, "adv", &n.adv)
}

// qGrads accumulates gradients for every layer of a qNetwork.
type qGrads struct {
	trunk1, trunk2, value, adv linearGrad
}

func newQGrads(n *qNetwork) qGrads {
	return qGrads{
		trunk1: newLinearGrad(&n.trunk1),
		trunk2: newLinearGrad(&n.trunk2),
		value:  newLinearGrad(&n.value),
		adv:    newLinearGrad(&n.adv),
	}
}

func (g *qGrads) zero() {
	g.trunk1.zero()
	g.trunk2.zero()
	g.value.zero()
	g.adv.zero()
}

// ValueAgent is the dueling DQN agent with a periodically synchronized
// target network and epsilon-greedy exploration.
type ValueAgent struct {
	mu     sync.RWMutex
	config domainDefense.ValueAgentConfig
	rng    *rand.Rand

	online qNetwork
	target qNetwork

	grads    qGrads
	momentum qGrads

	epsilon   float64
	stepCount int64
}

// NewValueAgent creates a new dueling DQN agent.
func NewValueAgent(config domainDefense.ValueAgentConfig) *ValueAgent {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	a := &ValueAgent{
		config:  config,
		rng:     rng,
		online:  newQNetwork(rng, config.HiddenDim, config.FeatureDim),
		epsilon: config.EpsilonInitial,
	}
	a.target = a.online.clone()
	a.grads = newQGrads(&a.online)
	a.momentum = newQGrads(&a.online)
	return a
}

// SelectAction returns a continuous action vector. In training mode it
// explores with probability epsilon by returning a uniform random vector in
// [-1, 1]; otherwise it returns the greedy one-hot action.
func (a *ValueAgent) SelectAction(state []float64, training bool) []float64 {
	if training {
		a.mu.RLock()
		eps := a.epsilon
		a.mu.RUnlock()
		if a.randFloat() < eps {
			return a.randomAction()
		}
	}
	return a.GreedyAction(state)
}

// GreedyAction returns the one-hot continuous encoding of the argmax
// Q-value action.
func (a *ValueAgent) GreedyAction(state []float64) []float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()

	q, _ := a.online.forward(state, nil, 0)
	action := make([]float64, actionDim)
	action[argmax(q)] = 1.0
	return action
}

// QValues returns the online network's Q-values for a state.
func (a *ValueAgent) QValues(state []float64) []float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	q, _ := a.online.forward(state, nil, 0)
	return q
}

// TrainStep performs one Bellman update over a sampled minibatch and returns
// the mean squared TD error. Only the online network is trained.
func (a *ValueAgent) TrainStep(batch []domainDefense.Experience) float64 {
	if len(batch) == 0 {
		return 0
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.grads.zero()
	var totalLoss float64

	for _, exp := range batch {
		q, cache := a.online.forward(exp.State, a.rng, a.config.DropoutRate)
		actionIdx := argmax(exp.Action)
		currentQ := q[actionIdx]

		targetQ := exp.Reward
		if !exp.Done {
			nextQ, _ := a.target.forward(exp.NextState, nil, 0)
			targetQ += a.config.Gamma * maxOf(nextQ)
		}

		tdError := targetQ - currentQ
		totalLoss += tdError * tdError

		a.backward(cache, actionIdx, tdError)
	}

	lr := a.config.LearningRate / float64(len(batch))
	sign := 1.0 // gradient signal is tdError * dQ/dw: ascent reduces squared TD error
	applyMomentum(&a.online.trunk1, &a.grads.trunk1, &a.momentum.trunk1, lr, a.config.MaxGradNorm, sign)
	applyMomentum(&a.online.trunk2, &a.grads.trunk2, &a.momentum.trunk2, lr, a.config.MaxGradNorm, sign)
	applyMomentum(&a.online.value, &a.grads.value, &a.momentum.value, lr, a.config.MaxGradNorm, sign)
	applyMomentum(&a.online.adv, &a.grads.adv, &a.momentum.adv, lr, a.config.MaxGradNorm, sign)

	a.stepCount++
	return totalLoss / float64(len(batch))
}

// backward accumulates the gradient of Q[actionIdx] scaled by tdError,
// propagated through the dueling combination Q = V + (A - mean(A)).
func (a *ValueAgent) backward(c qCache, actionIdx int, tdError float64) {
	dValue := []float64{tdError}
	dAdv := make([]float64, actionDim)
	for j := range dAdv {
		indicator := 0.0
		if j == actionIdx {
			indicator = 1.0
		}
		dAdv[j] = tdError * (indicator - 1.0/float64(actionDim))
	}

	dh2 := a.online.value.backward(c.h2, dValue, &a.grads.value)
	dh2Adv := a.online.adv.backward(c.h2, dAdv, &a.grads.adv)
	for i := range dh2 {
		dh2[i] += dh2Adv[i]
	}

	applyMask(dh2, c.mask2)
	reluBackward(dh2, c.pre2)
	dh1 := a.online.trunk2.backward(c.h1, dh2, &a.grads.trunk2)

	applyMask(dh1, c.mask1)
	reluBackward(dh1, c.pre1)
	a.online.trunk1.backward(c.state, dh1, &a.grads.trunk1)
}

// SyncTarget hard-copies the online weights into the target network.
func (a *ValueAgent) SyncTarget() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.target = a.online.clone()
}

// DecayEpsilon applies one episode's multiplicative exploration decay.
func (a *ValueAgent) DecayEpsilon() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.epsilon = math.Max(a.config.EpsilonMin, a.epsilon*a.config.EpsilonDecay)
}

// Epsilon returns the current exploration rate.
func (a *ValueAgent) Epsilon() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.epsilon
}

// StepCount returns the number of gradient steps taken.
func (a *ValueAgent) StepCount() int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stepCount
}

// Snapshot exports online weights, target weights, and optimizer momentum
// for checkpointing.
func (a *ValueAgent) Snapshot() (online, target, momentum map[string][]float64) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	momentum = make(map[string][]float64, 8)
	snapshotGrad(momentum, "trunk1", &a.momentum.trunk1)
	snapshotGrad(momentum, "trunk2", &a.momentum.trunk2)
	snapshotGrad(momentum, "value", &a.momentum.value)
	snapshotGrad(momentum, "adv", &a.momentum.adv)
	return a.online.snapshot(), a.target.snapshot(), momentum
}

// Restore loads checkpointed weights and optimizer state.
func (a *ValueAgent) Restore(online, target, momentum map[string][]float64, epsilon float64, stepCount int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.online.restore(online); err != nil {
		return err
	}
	if err := a.target.restore(target); err != nil {
		return err
	}
	restoreGrad(momentum, "trunk1", &a.momentum.trunk1)
	restoreGrad(momentum, "trunk2", &a.momentum.trunk2)
	restoreGrad(momentum, "value", &a.momentum.value)
	restoreGrad(momentum, "adv", &a.momentum.adv)

	a.epsilon = epsilon
	a.stepCount = stepCount
	return nil
}

// Reset reinitializes networks, optimizer state, and exploration.
func (a *ValueAgent) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.online = newQNetwork(a.rng, a.config.HiddenDim, a.config.FeatureDim)
	a.target = a.online.clone()
	a.grads = newQGrads(&a.online)
	a.momentum = newQGrads(&a.online)
	a.epsilon = a.config.EpsilonInitial
	a.stepCount = 0
}

func (a *ValueAgent) randFloat() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rng.Float64()
}

func (a *ValueAgent) randomAction() []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	action := make([]float64, actionDim)
	for i := range action {
		action[i] = a.rng.Float64()*2 - 1
	}
	return action
}
