package defense

import (
	"context"
	"os"
	"testing"

	domainDefense "github.com/yuvrajhash/AI-Cyber-God/internal/domain/defense"
)

// tinyTrainingConfig shrinks episodes and nets so a full training pass runs
// in well under a second.
func tinyTrainingConfig(t *testing.T) domainDefense.EngineConfig {
	t.Helper()
	cfg := testEngineConfig(t)
	cfg.Environment.MaxSteps = 10
	cfg.BufferSize = 200
	cfg.BatchSize = 8
	cfg.TargetUpdateFreq = 2
	cfg.ValueEpisodes = 3
	cfg.PolicyEpisodes = 2
	cfg.FallbackValueEpisodes = 2
	cfg.FallbackPolicyEpisodes = 1
	return cfg
}

func TestEngine_TrainReachesTrainedState(t *testing.T) {
	cfg := tinyTrainingConfig(t)
	engine := NewEngine(cfg)

	if engine.State() != domainDefense.StateUntrained {
		t.Fatalf("expected untrained state, got %s", engine.State())
	}

	if err := engine.Train(context.Background(), cfg.ValueEpisodes, cfg.PolicyEpisodes); err != nil {
		t.Fatalf("unexpected training error: %v", err)
	}

	if engine.State() != domainDefense.StateTrained {
		t.Errorf("expected trained state, got %s", engine.State())
	}
	if !engine.Trained() {
		t.Error("expected trained flag set")
	}

	stats := engine.Stats()
	if stats.TotalEpisodes != cfg.ValueEpisodes+cfg.PolicyEpisodes {
		t.Errorf("expected %d total episodes, got %d", cfg.ValueEpisodes+cfg.PolicyEpisodes, stats.TotalEpisodes)
	}
	if stats.Epsilon >= cfg.ValueAgent.EpsilonInitial {
		t.Errorf("expected epsilon below %v after training, got %v", cfg.ValueAgent.EpsilonInitial, stats.Epsilon)
	}

	if _, err := os.Stat(cfg.CheckpointPath); err != nil {
		t.Errorf("expected checkpoint artifact at %s: %v", cfg.CheckpointPath, err)
	}
}

func TestEngine_TrainCancellation(t *testing.T) {
	cfg := tinyTrainingConfig(t)
	engine := NewEngine(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := engine.Train(ctx, cfg.ValueEpisodes, cfg.PolicyEpisodes)
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if engine.Trained() {
		t.Error("engine must not report trained after a cancelled run")
	}
	if _, statErr := os.Stat(cfg.CheckpointPath); !os.IsNotExist(statErr) {
		t.Error("no checkpoint should be written for a cancelled run")
	}
}

func TestEngine_CheckpointRoundTrip(t *testing.T) {
	cfg := tinyTrainingConfig(t)
	engine := NewEngine(cfg)
	if err := engine.Train(context.Background(), cfg.ValueEpisodes, cfg.PolicyEpisodes); err != nil {
		t.Fatalf("unexpected training error: %v", err)
	}
	trainedStats := engine.Stats()

	restored := NewEngine(cfg)
	if err := restored.LoadCheckpoint(); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	if !restored.Trained() {
		t.Error("expected restored engine to be trained")
	}
	if restored.State() != domainDefense.StateTrained {
		t.Errorf("expected trained state, got %s", restored.State())
	}

	stats := restored.Stats()
	if stats.TotalEpisodes != trainedStats.TotalEpisodes {
		t.Errorf("expected %d episodes after restore, got %d", trainedStats.TotalEpisodes, stats.TotalEpisodes)
	}
	if stats.Epsilon != trainedStats.Epsilon {
		t.Errorf("expected epsilon %v after restore, got %v", trainedStats.Epsilon, stats.Epsilon)
	}
	if stats.TrainingSteps != trainedStats.TrainingSteps {
		t.Errorf("expected %d training steps after restore, got %d", trainedStats.TrainingSteps, stats.TrainingSteps)
	}
}

func TestEngine_StartWithCheckpoint(t *testing.T) {
	cfg := tinyTrainingConfig(t)
	engine := NewEngine(cfg)
	if err := engine.Train(context.Background(), cfg.ValueEpisodes, cfg.PolicyEpisodes); err != nil {
		t.Fatalf("unexpected training error: %v", err)
	}

	restored := NewEngine(cfg)
	if err := restored.Start(context.Background()); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	if !restored.Trained() {
		t.Error("expected trained engine after loading checkpoint")
	}
	// Loading should not have retrained.
	if restored.Stats().TotalEpisodes != engine.Stats().TotalEpisodes {
		t.Error("start must not retrain when a checkpoint loads cleanly")
	}
}

func TestEngine_StartMissingCheckpointRunsFallback(t *testing.T) {
	cfg := tinyTrainingConfig(t)
	engine := NewEngine(cfg)

	if err := engine.Start(context.Background()); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}

	if !engine.Trained() {
		t.Error("expected trained engine after fallback training")
	}
	want := cfg.FallbackValueEpisodes + cfg.FallbackPolicyEpisodes
	if got := engine.Stats().TotalEpisodes; got != want {
		t.Errorf("expected %d fallback episodes, got %d", want, got)
	}
}

func TestEngine_StartCorruptedCheckpointResets(t *testing.T) {
	cfg := tinyTrainingConfig(t)
	if err := os.WriteFile(cfg.CheckpointPath, []byte("{not json"), 0644); err != nil {
		t.Fatalf("failed to plant corrupted checkpoint: %v", err)
	}

	engine := NewEngine(cfg)
	if err := engine.Start(context.Background()); err != nil {
		t.Fatalf("expected nil error for corrupted checkpoint, got %v", err)
	}

	if engine.Trained() {
		t.Error("engine must not report trained after a corrupted checkpoint")
	}
	if engine.State() != domainDefense.StateUntrained {
		t.Errorf("expected untrained state after reset, got %s", engine.State())
	}

	// Untrained engines still serve default-confidence recommendations.
	rec, err := engine.Recommend(context.Background(), domainDefense.ThreatState{
		ActiveThreats: 2,
		AvgSeverity:   0.4,
		SystemHealth:  0.9,
	})
	if err != nil {
		t.Fatalf("unexpected recommend error: %v", err)
	}
	if rec.Confidence != 0.6 {
		t.Errorf("expected default confidence 0.6, got %v", rec.Confidence)
	}
}

func TestEngine_SelectActionShape(t *testing.T) {
	engine := NewEngine(tinyTrainingConfig(t))

	state := make([]float64, domainDefense.StateDim)
	for _, training := range []bool{true, false} {
		action := engine.SelectAction(state, training)
		if len(action) != domainDefense.ActionDim {
			t.Fatalf("expected action length %d, got %d", domainDefense.ActionDim, len(action))
		}
		for i, v := range action {
			if v < -1 || v > 1 {
				t.Errorf("training=%v: action dim %d = %v outside [-1, 1]", training, i, v)
			}
		}
	}
}

func TestEngine_TrainedInferenceClipsPolicySample(t *testing.T) {
	cfg := tinyTrainingConfig(t)
	engine := NewEngine(cfg)
	if err := engine.Train(context.Background(), cfg.ValueEpisodes, cfg.PolicyEpisodes); err != nil {
		t.Fatalf("unexpected training error: %v", err)
	}

	state := make([]float64, domainDefense.StateDim)
	for i := 0; i < 50; i++ {
		action := engine.SelectAction(state, false)
		for j, v := range action {
			if v < -1 || v > 1 {
				t.Fatalf("trained inference action dim %d = %v outside [-1, 1]", j, v)
			}
		}
	}
}
