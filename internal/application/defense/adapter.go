package defense

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	domainDefense "github.com/yuvrajhash/AI-Cyber-God/internal/domain/defense"
)

// threatCountScale normalizes the active-threat count into [0, 1].
const threatCountScale = 50.0

// defaultConfidence is served while the value agent is untrained.
const defaultConfidence = 0.6

// Recommend maps an external threat snapshot into a ranked set of defense
// recommendations with a confidence estimate. Malformed input surfaces as an
// *defense.AdapterInputError.
func (e *Engine) Recommend(ctx context.Context, threat domainDefense.ThreatState) (domainDefense.DefenseRecommendation, error) {
	if err := ctx.Err(); err != nil {
		return domainDefense.DefenseRecommendation{}, err
	}

	state, err := e.MapThreatState(threat)
	if err != nil {
		return domainDefense.DefenseRecommendation{}, err
	}

	action := e.SelectAction(state, false)

	confidence := defaultConfidence
	if e.Trained() {
		q := e.value.QValues(state)
		confidence = softmaxMax(q)
	}

	e.mu.RLock()
	now := e.now()
	e.mu.RUnlock()

	return domainDefense.DefenseRecommendation{
		ID:               uuid.NewString(),
		Recommendations:  actionToRecommendations(action),
		Confidence:       confidence,
		ActionValues:     action,
		ThreatAssessment: AssessThreatLevel(state),
		Timestamp:        now.UTC().Format(time.RFC3339),
	}, nil
}

// MapThreatState converts a threat snapshot into the internal 20-dim state.
// The mapping is deterministic: core signals come from the snapshot,
// calendar signals from the engine clock, and all remaining auxiliary
// signals take a fixed neutral value.
func (e *Engine) MapThreatState(threat domainDefense.ThreatState) ([]float64, error) {
	if threat.ActiveThreats < 0 {
		return nil, &domainDefense.AdapterInputError{Field: "active_threats", Reason: "must be >= 0"}
	}
	if math.IsNaN(threat.AvgSeverity) || threat.AvgSeverity < 0 || threat.AvgSeverity > 1 {
		return nil, &domainDefense.AdapterInputError{Field: "avg_severity", Reason: "must be in [0, 1]"}
	}
	if math.IsNaN(threat.SystemHealth) || threat.SystemHealth < 0 || threat.SystemHealth > 1 {
		return nil, &domainDefense.AdapterInputError{Field: "system_health", Reason: "must be in [0, 1]"}
	}

	countIntensity := math.Min(float64(threat.ActiveThreats)/threatCountScale, 1.0)
	// Blend count pressure with severity so a few severe threats rank as
	// high as many mild ones.
	threatIntensity := math.Max(countIntensity, threat.AvgSeverity)

	e.mu.RLock()
	now := e.now()
	e.mu.RUnlock()

	state := make([]float64, domainDefense.StateDim)
	state[0] = threatIntensity
	state[1] = threat.SystemHealth
	state[2] = 0.8 // defense effectiveness default
	state[6] = float64(now.Hour()) / 24.0
	state[7] = float64(now.Weekday()) / 7.0
	for i := range state {
		switch i {
		case 0, 1, 2, 6, 7:
		default:
			state[i] = 0.5 // neutral placeholder for unknown telemetry
		}
	}
	return state, nil
}

// AssessThreatLevel derives the overall threat level from the core state
// signals.
func AssessThreatLevel(state []float64) domainDefense.ThreatLevel {
	threatIntensity := state[0]
	systemHealth := state[1]

	switch {
	case threatIntensity > 0.8 || systemHealth < 0.3:
		return domainDefense.ThreatLevelCritical
	case threatIntensity > 0.6 || systemHealth < 0.5:
		return domainDefense.ThreatLevelHigh
	case threatIntensity > 0.4 || systemHealth < 0.7:
		return domainDefense.ThreatLevelMedium
	default:
		return domainDefense.ThreatLevelLow
	}
}

// actionToRecommendations converts an action vector into one prioritized
// recommendation per defense lever. Values are normalized from [-1, 1] to
// [0, 1] and bucketed: low < 0.4, medium < 0.7, high >= 0.7.
func actionToRecommendations(action []float64) []domainDefense.Recommendation {
	recs := make([]domainDefense.Recommendation, 0, domainDefense.ActionDim)

	for i, name := range domainDefense.ActionNames {
		var raw float64
		if i < len(action) {
			raw = action[i]
		}
		value := (raw + 1) / 2
		if value < 0 {
			value = 0
		} else if value > 1 {
			value = 1
		}

		var priority domainDefense.Priority
		var description string
		switch {
		case value >= 0.7:
			priority = domainDefense.PriorityHigh
			description = fmt.Sprintf("Increase %s to maximum level", strings.ToLower(name))
		case value >= 0.4:
			priority = domainDefense.PriorityMedium
			description = fmt.Sprintf("Moderate adjustment to %s", strings.ToLower(name))
		default:
			priority = domainDefense.PriorityLow
			description = fmt.Sprintf("Minimal changes to %s", strings.ToLower(name))
		}

		recs = append(recs, domainDefense.Recommendation{
			Action:      name,
			Priority:    priority,
			Description: description,
			Value:       value,
		})
	}
	return recs
}

func softmaxMax(q []float64) float64 {
	maxVal := q[0]
	for _, v := range q {
		if v > maxVal {
			maxVal = v
		}
	}
	var sum float64
	for _, v := range q {
		sum += math.Exp(v - maxVal)
	}
	return 1.0 / sum // exp(max - max) / sum
}

