package history

import (
	"testing"

	domainDefense "github.com/yuvrajhash/AI-Cyber-God/internal/domain/defense"
)

func newTestStore(t *testing.T, maxEpisodes int) *Store {
	t.Helper()
	store, err := NewStore(StoreConfig{DBPath: ":memory:", MaxEpisodes: maxEpisodes})
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_RecordAndRecent(t *testing.T) {
	store := newTestStore(t, 100)

	for i := 0; i < 5; i++ {
		err := store.RecordEpisode(EpisodeRecord{
			RunID:   "run-1",
			Phase:   domainDefense.StateTrainingValueAgent,
			Episode: i,
			Reward:  float64(i) * 1.5,
			Length:  10 + i,
			Epsilon: 1.0 - float64(i)*0.1,
		})
		if err != nil {
			t.Fatalf("failed to record episode %d: %v", i, err)
		}
	}

	records, err := store.RecentEpisodes(3)
	if err != nil {
		t.Fatalf("failed to fetch recent episodes: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	// Newest first.
	for i, rec := range records {
		wantEpisode := 4 - i
		if rec.Episode != wantEpisode {
			t.Errorf("record %d: expected episode %d, got %d", i, wantEpisode, rec.Episode)
		}
		if rec.RunID != "run-1" {
			t.Errorf("record %d: expected run-1, got %q", i, rec.RunID)
		}
		if rec.Phase != domainDefense.StateTrainingValueAgent {
			t.Errorf("record %d: unexpected phase %s", i, rec.Phase)
		}
	}
}

func TestStore_Summarize(t *testing.T) {
	store := newTestStore(t, 100)

	rewards := []float64{1, 2, 3, 4}
	for i, r := range rewards {
		err := store.RecordEpisode(EpisodeRecord{
			RunID:   "run-a",
			Phase:   domainDefense.StateTrainingPolicyAgent,
			Episode: i,
			Reward:  r,
			Length:  20,
		})
		if err != nil {
			t.Fatalf("failed to record episode: %v", err)
		}
	}
	// A second run must not leak into the summary.
	if err := store.RecordEpisode(EpisodeRecord{RunID: "run-b", Phase: domainDefense.StateTrainingValueAgent, Reward: 100, Length: 1}); err != nil {
		t.Fatalf("failed to record episode: %v", err)
	}

	summary, err := store.Summarize("run-a")
	if err != nil {
		t.Fatalf("failed to summarize: %v", err)
	}
	if summary.Episodes != 4 {
		t.Errorf("expected 4 episodes, got %d", summary.Episodes)
	}
	if summary.AvgReward != 2.5 {
		t.Errorf("expected avg reward 2.5, got %v", summary.AvgReward)
	}
	if summary.BestReward != 4 {
		t.Errorf("expected best reward 4, got %v", summary.BestReward)
	}
	if summary.AvgLength != 20 {
		t.Errorf("expected avg length 20, got %v", summary.AvgLength)
	}
}

func TestStore_SummarizeEmptyRun(t *testing.T) {
	store := newTestStore(t, 100)

	summary, err := store.Summarize("no-such-run")
	if err != nil {
		t.Fatalf("failed to summarize empty run: %v", err)
	}
	if summary.Episodes != 0 {
		t.Errorf("expected 0 episodes, got %d", summary.Episodes)
	}
}

func TestStore_PruneKeepsNewest(t *testing.T) {
	store := newTestStore(t, 10)

	for i := 0; i < 25; i++ {
		err := store.RecordEpisode(EpisodeRecord{
			RunID:   "run-1",
			Phase:   domainDefense.StateTrainingValueAgent,
			Episode: i,
			Reward:  float64(i),
			Length:  1,
		})
		if err != nil {
			t.Fatalf("failed to record episode: %v", err)
		}
	}

	deleted, err := store.Prune()
	if err != nil {
		t.Fatalf("failed to prune: %v", err)
	}
	if deleted != 15 {
		t.Errorf("expected 15 deleted rows, got %d", deleted)
	}

	records, err := store.RecentEpisodes(100)
	if err != nil {
		t.Fatalf("failed to fetch episodes: %v", err)
	}
	if len(records) != 10 {
		t.Fatalf("expected 10 surviving records, got %d", len(records))
	}
	if records[0].Episode != 24 || records[len(records)-1].Episode != 15 {
		t.Errorf("expected episodes 24..15 to survive, got %d..%d", records[0].Episode, records[len(records)-1].Episode)
	}
}
