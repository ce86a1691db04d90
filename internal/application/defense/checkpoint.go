package defense

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	domainDefense "github.com/yuvrajhash/AI-Cyber-God/internal/domain/defense"
)

// SaveCheckpoint writes the single checkpoint artifact atomically: both
// value networks, the policy network, optimizer momentum, exploration rate,
// step counter, trained flag, and the full episode histories.
func (e *Engine) SaveCheckpoint() error {
	path := e.config.CheckpointPath
	if path == "" {
		return fmt.Errorf("checkpoint path not configured")
	}

	online, target, valueMomentum := e.value.Snapshot()
	policyWeights, policyMomentum := e.policy.Snapshot()

	e.mu.RLock()
	checkpoint := domainDefense.Checkpoint{
		ID:             uuid.NewString(),
		ValueWeights:   online,
		TargetWeights:  target,
		PolicyWeights:  policyWeights,
		ValueMomentum:  valueMomentum,
		PolicyMomentum: policyMomentum,
		Epsilon:        e.value.Epsilon(),
		TrainingStep:   e.value.StepCount(),
		Trained:        e.trained,
		EpisodeRewards: append([]float64(nil), e.episodeRewards...),
		EpisodeLengths: append([]int(nil), e.episodeLengths...),
		CreatedAt:      e.now(),
	}
	e.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	data, err := json.MarshalIndent(checkpoint, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to publish checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint restores engine state from the checkpoint artifact.
// A missing file returns defense.ErrCheckpointMissing; any other failure
// means the artifact is corrupted or incompatible.
func (e *Engine) LoadCheckpoint() error {
	path := e.config.CheckpointPath
	if path == "" {
		return fmt.Errorf("checkpoint path not configured")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domainDefense.ErrCheckpointMissing
		}
		return fmt.Errorf("failed to read checkpoint: %w", err)
	}

	var checkpoint domainDefense.Checkpoint
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		return fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}

	if err := e.value.Restore(checkpoint.ValueWeights, checkpoint.TargetWeights,
		checkpoint.ValueMomentum, checkpoint.Epsilon, checkpoint.TrainingStep); err != nil {
		return fmt.Errorf("incompatible value network checkpoint: %w", err)
	}
	if err := e.policy.Restore(checkpoint.PolicyWeights, checkpoint.PolicyMomentum); err != nil {
		return fmt.Errorf("incompatible policy network checkpoint: %w", err)
	}

	e.mu.Lock()
	e.trained = checkpoint.Trained
	if checkpoint.Trained {
		e.state = domainDefense.StateTrained
	} else {
		e.state = domainDefense.StateUntrained
	}
	e.episodeRewards = checkpoint.EpisodeRewards
	e.episodeLengths = checkpoint.EpisodeLengths
	e.mu.Unlock()
	return nil
}
