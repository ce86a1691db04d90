package defense

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	domainDefense "github.com/yuvrajhash/AI-Cyber-God/internal/domain/defense"
)

func testEngineConfig(t *testing.T) domainDefense.EngineConfig {
	t.Helper()
	cfg := domainDefense.DefaultEngineConfig()
	cfg.CheckpointPath = t.TempDir() + "/rl_agent.json"
	cfg.Environment.Seed = 7
	cfg.ValueAgent.Seed = 7
	cfg.ValueAgent.HiddenDim = 16
	cfg.ValueAgent.FeatureDim = 8
	cfg.PolicyAgent.Seed = 7
	cfg.PolicyAgent.HiddenDim = 16
	cfg.PolicyAgent.FeatureDim = 8
	return cfg
}

func fixedEngineClock() func() time.Time {
	at := time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func TestMapThreatState_Deterministic(t *testing.T) {
	engine := NewEngine(testEngineConfig(t))
	engine.SetClock(fixedEngineClock())

	threat := domainDefense.ThreatState{ActiveThreats: 10, AvgSeverity: 0.6, SystemHealth: 0.9}

	a, err := engine.MapThreatState(threat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := engine.MapThreatState(threat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(a) != domainDefense.StateDim {
		t.Fatalf("expected state length %d, got %d", domainDefense.StateDim, len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("mapping not deterministic at dim %d: %v vs %v", i, a[i], b[i])
		}
	}

	// Severity 0.6 outranks 10/50 = 0.2 count pressure.
	if a[0] != 0.6 {
		t.Errorf("expected threat intensity 0.6, got %v", a[0])
	}
	if a[1] != 0.9 {
		t.Errorf("expected system health 0.9, got %v", a[1])
	}
	if a[6] != 14.0/24.0 {
		t.Errorf("expected hour signal %v, got %v", 14.0/24.0, a[6])
	}
}

func TestMapThreatState_CountSaturates(t *testing.T) {
	engine := NewEngine(testEngineConfig(t))

	state, err := engine.MapThreatState(domainDefense.ThreatState{ActiveThreats: 500, AvgSeverity: 0.1, SystemHealth: 1.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state[0] != 1.0 {
		t.Errorf("expected threat intensity saturated at 1.0, got %v", state[0])
	}
}

func TestMapThreatState_RejectsInvalidInput(t *testing.T) {
	engine := NewEngine(testEngineConfig(t))

	cases := []struct {
		name   string
		threat domainDefense.ThreatState
		field  string
	}{
		{"negative threat count", domainDefense.ThreatState{ActiveThreats: -1, AvgSeverity: 0.5, SystemHealth: 0.5}, "active_threats"},
		{"severity above one", domainDefense.ThreatState{ActiveThreats: 1, AvgSeverity: 1.5, SystemHealth: 0.5}, "avg_severity"},
		{"severity NaN", domainDefense.ThreatState{ActiveThreats: 1, AvgSeverity: math.NaN(), SystemHealth: 0.5}, "avg_severity"},
		{"negative health", domainDefense.ThreatState{ActiveThreats: 1, AvgSeverity: 0.5, SystemHealth: -0.1}, "system_health"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.MapThreatState(tc.threat)
			var inputErr *domainDefense.AdapterInputError
			if !errors.As(err, &inputErr) {
				t.Fatalf("expected AdapterInputError, got %v", err)
			}
			if inputErr.Field != tc.field {
				t.Errorf("expected field %q, got %q", tc.field, inputErr.Field)
			}
		})
	}
}

func TestAssessThreatLevel(t *testing.T) {
	cases := []struct {
		name            string
		threatIntensity float64
		systemHealth    float64
		want            domainDefense.ThreatLevel
	}{
		{"quiet network", 0.0, 1.0, domainDefense.ThreatLevelLow},
		{"mild activity", 0.1, 1.0, domainDefense.ThreatLevelLow},
		{"low boundary", 0.4, 0.7, domainDefense.ThreatLevelLow},
		{"medium intensity", 0.5, 1.0, domainDefense.ThreatLevelMedium},
		{"degraded health", 0.1, 0.6, domainDefense.ThreatLevelMedium},
		{"high intensity", 0.7, 1.0, domainDefense.ThreatLevelHigh},
		{"poor health", 0.1, 0.4, domainDefense.ThreatLevelHigh},
		{"critical intensity", 0.9, 1.0, domainDefense.ThreatLevelCritical},
		{"failing system", 0.1, 0.2, domainDefense.ThreatLevelCritical},
		{"near-dead system", 0.5, 0.05, domainDefense.ThreatLevelCritical},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			state := make([]float64, domainDefense.StateDim)
			state[0] = tc.threatIntensity
			state[1] = tc.systemHealth
			if got := AssessThreatLevel(state); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestActionToRecommendations_Buckets(t *testing.T) {
	action := make([]float64, domainDefense.ActionDim)
	action[0] = 1.0  // -> 1.0, high
	action[1] = 0.0  // -> 0.5, medium
	action[2] = -1.0 // -> 0.0, low
	action[3] = 5.0  // clamps to 1.0, high

	recs := actionToRecommendations(action)
	if len(recs) != domainDefense.ActionDim {
		t.Fatalf("expected %d recommendations, got %d", domainDefense.ActionDim, len(recs))
	}

	expect := []domainDefense.Priority{
		domainDefense.PriorityHigh,
		domainDefense.PriorityMedium,
		domainDefense.PriorityLow,
		domainDefense.PriorityHigh,
	}
	for i, want := range expect {
		if recs[i].Priority != want {
			t.Errorf("rec %d: expected priority %s, got %s", i, want, recs[i].Priority)
		}
	}
	for i, rec := range recs {
		if rec.Action != domainDefense.ActionNames[i] {
			t.Errorf("rec %d: expected action %q, got %q", i, domainDefense.ActionNames[i], rec.Action)
		}
		if rec.Value < 0 || rec.Value > 1 {
			t.Errorf("rec %d: value %v outside [0, 1]", i, rec.Value)
		}
		if rec.Description == "" {
			t.Errorf("rec %d: empty description", i)
		}
	}
}

func TestRecommend_UntrainedDefaults(t *testing.T) {
	engine := NewEngine(testEngineConfig(t))
	engine.SetClock(fixedEngineClock())

	rec, err := engine.Recommend(context.Background(), domainDefense.ThreatState{
		ActiveThreats: 5,
		AvgSeverity:   0.3,
		SystemHealth:  0.95,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.Confidence != 0.6 {
		t.Errorf("expected default confidence 0.6 while untrained, got %v", rec.Confidence)
	}
	if rec.ID == "" {
		t.Error("expected a non-empty recommendation ID")
	}
	if len(rec.Recommendations) != domainDefense.ActionDim {
		t.Errorf("expected %d recommendations, got %d", domainDefense.ActionDim, len(rec.Recommendations))
	}
	if len(rec.ActionValues) != domainDefense.ActionDim {
		t.Errorf("expected %d action values, got %d", domainDefense.ActionDim, len(rec.ActionValues))
	}
	if rec.ThreatAssessment != domainDefense.ThreatLevelLow {
		t.Errorf("expected low threat assessment, got %s", rec.ThreatAssessment)
	}
	if rec.Timestamp != "2024-03-15T14:00:00Z" {
		t.Errorf("unexpected timestamp %q", rec.Timestamp)
	}
}

func TestRecommend_InvalidInputSurfacesError(t *testing.T) {
	engine := NewEngine(testEngineConfig(t))

	_, err := engine.Recommend(context.Background(), domainDefense.ThreatState{
		ActiveThreats: -3,
		AvgSeverity:   0.3,
		SystemHealth:  0.95,
	})
	var inputErr *domainDefense.AdapterInputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected AdapterInputError, got %v", err)
	}
}

func TestRecommend_CancelledContext(t *testing.T) {
	engine := NewEngine(testEngineConfig(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Recommend(ctx, domainDefense.ThreatState{AvgSeverity: 0.3, SystemHealth: 0.95})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSoftmaxMax_Range(t *testing.T) {
	cases := [][]float64{
		{0, 0, 0, 0},
		{10, -10, 0, 3},
		{-5, -5, -5},
		{100},
	}
	for _, q := range cases {
		p := softmaxMax(q)
		if p <= 0 || p > 1 || math.IsNaN(p) {
			t.Errorf("softmaxMax(%v) = %v outside (0, 1]", q, p)
		}
	}
}
