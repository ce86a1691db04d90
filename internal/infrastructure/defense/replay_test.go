package defense

import (
	"errors"
	"math"
	"testing"

	domainDefense "github.com/yuvrajhash/AI-Cyber-God/internal/domain/defense"
)

func makeExperience(tag float64) domainDefense.Experience {
	return domainDefense.Experience{
		State:     make([]float64, stateDim),
		Action:    make([]float64, actionDim),
		Reward:    tag,
		NextState: make([]float64, stateDim),
	}
}

func TestReplayBuffer_FIFOEviction(t *testing.T) {
	buf := NewReplayBuffer(100, 1)

	for i := 0; i < 1000; i++ {
		buf.Push(makeExperience(float64(i)))
	}

	if buf.Len() != 100 {
		t.Fatalf("expected size 100 after 1000 pushes, got %d", buf.Len())
	}

	entries := buf.Entries()
	if len(entries) != 100 {
		t.Fatalf("expected 100 entries, got %d", len(entries))
	}
	for i, exp := range entries {
		want := float64(900 + i)
		if exp.Reward != want {
			t.Fatalf("entry %d: expected reward %v, got %v", i, want, exp.Reward)
		}
	}
}

func TestReplayBuffer_SampleInsufficient(t *testing.T) {
	buf := NewReplayBuffer(100, 1)
	for i := 0; i < 5; i++ {
		buf.Push(makeExperience(float64(i)))
	}

	if _, err := buf.Sample(10); !errors.Is(err, domainDefense.ErrInsufficientSamples) {
		t.Fatalf("expected ErrInsufficientSamples, got %v", err)
	}

	batch, err := buf.Sample(5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch) != 5 {
		t.Fatalf("expected batch of 5, got %d", len(batch))
	}
}

func TestReplayBuffer_SampleWithoutReplacement(t *testing.T) {
	buf := NewReplayBuffer(50, 1)
	for i := 0; i < 50; i++ {
		buf.Push(makeExperience(float64(i)))
	}

	batch, err := buf.Sample(50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seen := make(map[float64]bool)
	for _, exp := range batch {
		if seen[exp.Reward] {
			t.Fatalf("duplicate experience %v in sample", exp.Reward)
		}
		seen[exp.Reward] = true
	}
}

func TestReplayBuffer_RejectsNonFinite(t *testing.T) {
	buf := NewReplayBuffer(10, 1)

	bad := makeExperience(math.NaN())
	if buf.Push(bad) {
		t.Error("expected NaN reward to be rejected")
	}

	bad = makeExperience(1)
	bad.State[0] = math.Inf(1)
	if buf.Push(bad) {
		t.Error("expected Inf state to be rejected")
	}

	if buf.Len() != 0 {
		t.Errorf("expected empty buffer, got %d", buf.Len())
	}
	if buf.Dropped() != 2 {
		t.Errorf("expected 2 dropped transitions, got %d", buf.Dropped())
	}
}
