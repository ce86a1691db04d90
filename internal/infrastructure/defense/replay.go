package defense

import (
	"math"
	"math/rand"
	"sync"
	"time"

	domainDefense "github.com/yuvrajhash/AI-Cyber-God/internal/domain/defense"
)

// ReplayBuffer is a fixed-capacity FIFO store of experience tuples. Oldest
// entries are evicted on overflow. Contents are not checkpointed.
type ReplayBuffer struct {
	mu  sync.RWMutex
	rng *rand.Rand

	buffer   []domainDefense.Experience
	capacity int
	head     int // index of the oldest entry once full

	dropped int64
}

// NewReplayBuffer creates a buffer holding at most capacity experiences.
func NewReplayBuffer(capacity int, seed int64) *ReplayBuffer {
	if capacity <= 0 {
		capacity = 100000
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &ReplayBuffer{
		rng:      rand.New(rand.NewSource(seed)),
		buffer:   make([]domainDefense.Experience, 0, capacity),
		capacity: capacity,
	}
}

// Push appends an experience, evicting the oldest entry when full.
// Transitions carrying NaN or Inf are dropped rather than stored, so faulty
// local computation never reaches a training batch. Returns false when the
// transition was dropped.
func (b *ReplayBuffer) Push(exp domainDefense.Experience) bool {
	if !transitionFinite(exp) {
		b.mu.Lock()
		b.dropped++
		b.mu.Unlock()
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.buffer) < b.capacity {
		b.buffer = append(b.buffer, exp)
		return true
	}
	b.buffer[b.head] = exp
	b.head = (b.head + 1) % b.capacity
	return true
}

// Sample returns batchSize experiences drawn uniformly at random without
// replacement. It fails when the buffer holds fewer entries than requested.
func (b *ReplayBuffer) Sample(batchSize int) ([]domainDefense.Experience, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.buffer) < batchSize {
		return nil, domainDefense.ErrInsufficientSamples
	}

	batch := make([]domainDefense.Experience, 0, batchSize)
	seen := make(map[int]bool, batchSize)
	for len(batch) < batchSize {
		idx := b.rng.Intn(len(b.buffer))
		if !seen[idx] {
			seen[idx] = true
			batch = append(batch, b.buffer[idx])
		}
	}
	return batch, nil
}

// Len returns the number of stored experiences.
func (b *ReplayBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.buffer)
}

// Cap returns the buffer capacity.
func (b *ReplayBuffer) Cap() int {
	return b.capacity
}

// Dropped returns the number of transitions rejected for non-finite values.
func (b *ReplayBuffer) Dropped() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dropped
}

// Entries returns the stored experiences in insertion order, oldest first.
func (b *ReplayBuffer) Entries() []domainDefense.Experience {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]domainDefense.Experience, 0, len(b.buffer))
	if len(b.buffer) < b.capacity {
		out = append(out, b.buffer...)
		return out
	}
	out = append(out, b.buffer[b.head:]...)
	out = append(out, b.buffer[:b.head]...)
	return out
}

func transitionFinite(exp domainDefense.Experience) bool {
	if math.IsNaN(exp.Reward) || math.IsInf(exp.Reward, 0) {
		return false
	}
	return finiteVec(exp.State) && finiteVec(exp.Action) && finiteVec(exp.NextState)
}
