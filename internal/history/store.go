// Package history keeps the in-memory record of what the collector and the
// ranking runner produced.
package history

import (
	"log/slog"
	"sync"
	"time"

	"github.com/IshaanNene/cafepulse/internal/observability"
	"github.com/IshaanNene/cafepulse/internal/types"
)

// DefaultCapacity is the number of nickname entries retained.
const DefaultCapacity = 10

// Job names used in run records.
const (
	JobNicknames = "nicknames"
	JobRankings  = "rankings"
)

// RunRecord describes the last execution of a job.
type RunRecord struct {
	RunID      string        `json:"run_id,omitempty"`
	Status     string        `json:"status"`
	Cause      string        `json:"cause,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration_ns"`
}

// View is a point-in-time copy of the store. Mutating it does not affect
// the store.
type View struct {
	Nicknames []types.NicknameEntry `json:"nicknames"` // oldest first
	Rankings  types.RankingSnapshot `json:"rankings"`
	Runs      map[string]RunRecord  `json:"runs"`
}

// Latest returns the newest nickname entry, if any.
func (v View) Latest() (types.NicknameEntry, bool) {
	if len(v.Nicknames) == 0 {
		return types.NicknameEntry{}, false
	}
	return v.Nicknames[len(v.Nicknames)-1], true
}

// Store holds a bounded FIFO of nickname entries, the latest ranking
// snapshot, and the last run of each job. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	capacity int
	entries  []types.NicknameEntry
	rankings types.RankingSnapshot
	runs     map[string]RunRecord
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewStore creates a store retaining capacity nickname entries. A
// non-positive capacity selects DefaultCapacity.
func NewStore(capacity int, logger *slog.Logger, metrics *observability.Metrics) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity: capacity,
		entries:  make([]types.NicknameEntry, 0, capacity),
		runs:     make(map[string]RunRecord),
		logger:   logger.With("component", "history"),
		metrics:  metrics,
	}
}

// AppendNicknames adds entry, evicting the oldest entries beyond capacity.
func (s *Store) AppendNicknames(entry types.NicknameEntry) {
	entry = entry.Clone()

	s.mu.Lock()
	s.entries = append(s.entries, entry)
	if over := len(s.entries) - s.capacity; over > 0 {
		// Copy down so the backing array does not grow without bound.
		n := copy(s.entries, s.entries[over:])
		clear(s.entries[n:])
		s.entries = s.entries[:n]
	}
	size := len(s.entries)
	s.mu.Unlock()

	s.metrics.HistorySize(size)
	s.logger.Debug("nickname entry stored", "count", entry.Count, "history", size)
}

// ReplaceRankings swaps in snap as the latest ranking snapshot.
func (s *Store) ReplaceRankings(snap types.RankingSnapshot) {
	snap = snap.Clone()

	s.mu.Lock()
	s.rankings = snap
	s.mu.Unlock()

	s.logger.Debug("ranking snapshot replaced",
		"posts", len(snap.Posts), "comments", len(snap.Comments))
}

// RecordRun stores rec as the last run of job.
func (s *Store) RecordRun(job string, rec RunRecord) {
	s.mu.Lock()
	s.runs[job] = rec
	s.mu.Unlock()
}

// Len returns the number of nickname entries held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Capacity returns the ring capacity.
func (s *Store) Capacity() int { return s.capacity }

// View returns a deep copy of the store's contents.
func (s *Store) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := View{
		Nicknames: make([]types.NicknameEntry, len(s.entries)),
		Rankings:  s.rankings.Clone(),
		Runs:      make(map[string]RunRecord, len(s.runs)),
	}
	for i, e := range s.entries {
		v.Nicknames[i] = e.Clone()
	}
	for k, r := range s.runs {
		v.Runs[k] = r
	}
	return v
}
