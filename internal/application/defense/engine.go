// Package defense provides the cyber-defense strategy engine: the training
// orchestrator and the inference adapter over the simulated environment and
// the two trainable agents.
package defense

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	domainDefense "github.com/yuvrajhash/AI-Cyber-God/internal/domain/defense"
	infraDefense "github.com/yuvrajhash/AI-Cyber-God/internal/infrastructure/defense"
	"github.com/yuvrajhash/AI-Cyber-God/internal/infrastructure/history"
)

// Engine owns the environment, replay buffer, and both agents. It is
// constructed once by its owning service and passed by reference; there is
// no package-level instance. Training mutates agents on the calling
// goroutine; inference takes read locks only, so owners may dispatch Train
// to a background goroutine and keep serving recommendations.
type Engine struct {
	mu     sync.RWMutex
	config domainDefense.EngineConfig

	env    *infraDefense.Environment
	value  *infraDefense.ValueAgent
	policy *infraDefense.PolicyAgent
	replay *infraDefense.ReplayBuffer

	// exploration PRNG, deliberately separate from the environment's
	// state-filling PRNG
	rng *rand.Rand
	now func() time.Time

	history *history.Store // optional episode persistence

	state          domainDefense.EngineState
	trained        bool
	episodeRewards []float64
	episodeLengths []int
}

// NewEngine creates a new defense engine in the untrained state.
func NewEngine(config domainDefense.EngineConfig) *Engine {
	return &Engine{
		config: config,
		env:    infraDefense.NewEnvironment(config.Environment),
		value:  infraDefense.NewValueAgent(config.ValueAgent),
		policy: infraDefense.NewPolicyAgent(config.PolicyAgent),
		replay: infraDefense.NewReplayBuffer(config.BufferSize, config.ValueAgent.Seed),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now,
		state:  domainDefense.StateUntrained,
	}
}

// SetHistory attaches a persistent episode history store.
func (e *Engine) SetHistory(store *history.Store) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = store
}

// SetClock overrides the wall clock used for inference-time calendar
// signals and checkpoint timestamps.
func (e *Engine) SetClock(now func() time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = now
	e.env.SetClock(now)
}

// Start loads the checkpoint artifact if present. A missing checkpoint
// triggers an abbreviated training run; a corrupted one resets the networks
// and leaves the engine serving default-confidence recommendations until
// retrained.
func (e *Engine) Start(ctx context.Context) error {
	err := e.LoadCheckpoint()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domainDefense.ErrCheckpointMissing):
		log.Printf("no checkpoint at %s, running abbreviated training", e.config.CheckpointPath)
		return e.Train(ctx, e.config.FallbackValueEpisodes, e.config.FallbackPolicyEpisodes)
	default:
		log.Printf("failed to load checkpoint: %v; resetting networks", err)
		e.resetAgents()
		return nil
	}
}

// Train runs a full training pass: the DQN phase, then the policy-gradient
// phase. The engine reaches the trained state only after both phases
// complete, at which point a checkpoint is written. Cancellation is
// cooperative: the context is checked between episodes and between gradient
// steps.
func (e *Engine) Train(ctx context.Context, valueEpisodes, policyEpisodes int) error {
	runID := uuid.NewString()

	e.setState(domainDefense.StateTrainingValueAgent)
	if err := e.trainValueAgent(ctx, runID, valueEpisodes); err != nil {
		return err
	}

	e.setState(domainDefense.StateTrainingPolicyAgent)
	if err := e.trainPolicyAgent(ctx, runID, policyEpisodes); err != nil {
		return err
	}

	e.mu.Lock()
	e.trained = true
	e.state = domainDefense.StateTrained
	e.mu.Unlock()

	if err := e.SaveCheckpoint(); err != nil {
		log.Printf("failed to save checkpoint: %v", err)
	}
	return nil
}

func (e *Engine) trainValueAgent(ctx context.Context, runID string, episodes int) error {
	log.Printf("starting DQN training for %d episodes", episodes)

	for episode := 0; episode < episodes; episode++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		state := e.env.Reset()
		var episodeReward float64
		var episodeLength int

		for {
			action := e.SelectAction(state, true)
			nextState, reward, done, _ := e.env.Step(action)

			e.replay.Push(domainDefense.Experience{
				State:     state,
				Action:    action,
				Reward:    reward,
				NextState: nextState,
				Done:      done,
			})

			episodeReward += reward
			episodeLength++
			state = nextState

			if e.replay.Len() > e.config.BatchSize {
				if err := ctx.Err(); err != nil {
					return err
				}
				if batch, err := e.replay.Sample(e.config.BatchSize); err == nil {
					e.value.TrainStep(batch)
				}
			}

			if done {
				break
			}
		}

		if episode%e.config.TargetUpdateFreq == 0 {
			e.value.SyncTarget()
		}
		e.value.DecayEpsilon()

		e.recordEpisode(runID, domainDefense.StateTrainingValueAgent, episode, episodeReward, episodeLength)

		if episode%100 == 0 {
			log.Printf("episode %d, avg reward: %.2f, epsilon: %.3f",
				episode, e.avgRecentReward(100), e.value.Epsilon())
		}
	}

	log.Printf("DQN training completed")
	return nil
}

func (e *Engine) trainPolicyAgent(ctx context.Context, runID string, episodes int) error {
	log.Printf("starting policy gradient training for %d episodes", episodes)

	for episode := 0; episode < episodes; episode++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		state := e.env.Reset()
		trajectory := make([]infraDefense.PolicyTransition, 0, e.config.Environment.MaxSteps)
		var episodeReward float64

		for {
			// The sampled action is unbounded; clip before stepping, but
			// keep the raw sample so the gradient matches the draw.
			action, logProb := e.policy.SampleAction(state)
			nextState, reward, done, _ := e.env.Step(clipActionVec(action))

			trajectory = append(trajectory, infraDefense.PolicyTransition{
				State:   state,
				Action:  action,
				Reward:  reward,
				LogProb: logProb,
			})

			episodeReward += reward
			state = nextState

			if done {
				break
			}
		}

		e.policy.TrainEpisode(trajectory)
		e.recordEpisode(runID, domainDefense.StateTrainingPolicyAgent, episode, episodeReward, len(trajectory))

		if episode%50 == 0 {
			log.Printf("policy episode %d, reward: %.2f", episode, episodeReward)
		}
	}

	log.Printf("policy gradient training completed")
	return nil
}

// SelectAction picks a continuous action for a state. In training mode it
// explores with probability epsilon. Once the policy agent has completed
// training, the Gaussian policy drives exploitation (its sample clipped to
// [-1, 1]); until then the value agent's one-hot action is the fallback.
func (e *Engine) SelectAction(state []float64, training bool) []float64 {
	if training && e.exploreRoll() {
		return e.randomAction()
	}

	e.mu.RLock()
	trained := e.trained
	e.mu.RUnlock()

	if trained {
		action, _ := e.policy.SampleAction(state)
		return clipActionVec(action)
	}
	return e.value.GreedyAction(state)
}

// State returns the state-machine position.
func (e *Engine) State() domainDefense.EngineState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Trained reports whether both agents completed a scheduled pass.
func (e *Engine) Trained() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.trained
}

// Stats returns training statistics for diagnostics.
func (e *Engine) Stats() domainDefense.TrainingStats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	stats := domainDefense.TrainingStats{
		TotalEpisodes: len(e.episodeRewards),
		Epsilon:       e.value.Epsilon(),
		TrainingSteps: e.value.StepCount(),
		Trained:       e.trained,
		State:         e.state,
	}
	if len(e.episodeRewards) == 0 {
		return stats
	}

	window := 100
	if window > len(e.episodeRewards) {
		window = len(e.episodeRewards)
	}
	var rewardSum, lengthSum float64
	best := e.episodeRewards[0]
	for _, r := range e.episodeRewards {
		if r > best {
			best = r
		}
	}
	for i := len(e.episodeRewards) - window; i < len(e.episodeRewards); i++ {
		rewardSum += e.episodeRewards[i]
		lengthSum += float64(e.episodeLengths[i])
	}
	stats.AvgReward = rewardSum / float64(window)
	stats.AvgEpisodeLength = lengthSum / float64(window)
	stats.BestReward = best
	return stats
}

func (e *Engine) setState(s domainDefense.EngineState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = s
}

func (e *Engine) resetAgents() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.value.Reset()
	e.policy.Reset()
	e.trained = false
	e.state = domainDefense.StateUntrained
}

func (e *Engine) recordEpisode(runID string, phase domainDefense.EngineState, episode int, reward float64, length int) {
	e.mu.Lock()
	e.episodeRewards = append(e.episodeRewards, reward)
	e.episodeLengths = append(e.episodeLengths, length)
	store := e.history
	e.mu.Unlock()

	if store == nil {
		return
	}
	rec := history.EpisodeRecord{
		RunID:   runID,
		Phase:   phase,
		Episode: episode,
		Reward:  reward,
		Length:  length,
		Epsilon: e.value.Epsilon(),
	}
	if err := store.RecordEpisode(rec); err != nil {
		log.Printf("failed to record episode: %v", err)
	}
}

func (e *Engine) avgRecentReward(window int) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.episodeRewards) == 0 {
		return 0
	}
	if window > len(e.episodeRewards) {
		window = len(e.episodeRewards)
	}
	var sum float64
	for i := len(e.episodeRewards) - window; i < len(e.episodeRewards); i++ {
		sum += e.episodeRewards[i]
	}
	return sum / float64(window)
}

func (e *Engine) exploreRoll() bool {
	eps := e.value.Epsilon()
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Float64() < eps
}

func (e *Engine) randomAction() []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	action := make([]float64, domainDefense.ActionDim)
	for i := range action {
		action[i] = e.rng.Float64()*2 - 1
	}
	return action
}

func clipActionVec(action []float64) []float64 {
	clipped := make([]float64, len(action))
	for i, v := range action {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		clipped[i] = v
	}
	return clipped
}
