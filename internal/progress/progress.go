// Package progress keeps the learner's stats and turn history and mirrors
// them to a durable key-value store.
package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/verte-zerg/parla/internal/level"
	"github.com/verte-zerg/parla/internal/model"
)

// Keys under which state is persisted.
const (
	KeyStats   = "stats"
	KeyHistory = "history"
	KeyStrict  = "strictMode"
)

// DisplayLimit is the number of history entries shown to the learner.
const DisplayLimit = 5

// KV is the durable key-value store progress is mirrored to. SetMany
// must write all values or none.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	SetMany(ctx context.Context, values map[string]string) error
}

// Book holds the persisted learner state. It is not safe for concurrent
// use; callers serialize turns.
type Book struct {
	kv      KV
	ladder  level.Ladder
	logger  *slog.Logger
	stats   model.Stats
	history []model.HistoryEntry
	strict  bool
}

// Load reads stats, history and strict mode from kv. Absent or corrupt
// values fall back to defaults and are logged, never returned as errors.
// Only a failing store is an error.
func Load(ctx context.Context, kv KV, ladder level.Ladder, logger *slog.Logger) (*Book, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	b := &Book{kv: kv, ladder: ladder, logger: logger}

	stats := model.Stats{Level: ladder.Lowest()}
	raw, ok, err := kv.Get(ctx, KeyStats)
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}
	if ok {
		var decoded model.Stats
		switch {
		case json.Unmarshal([]byte(raw), &decoded) != nil:
			logger.Warn("stored stats are corrupt; using defaults")
		case !ladder.Valid(decoded.Level) || decoded.Hits < 0 || decoded.Errors < 0:
			logger.Warn("stored stats are out of range; using defaults", "level", decoded.Level)
		default:
			stats = decoded
		}
	}
	b.stats = stats

	raw, ok, err = kv.Get(ctx, KeyHistory)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if ok {
		var decoded []model.HistoryEntry
		if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
			logger.Warn("stored history is corrupt; starting empty")
		} else {
			b.history = decoded
		}
	}

	raw, ok, err = kv.Get(ctx, KeyStrict)
	if err != nil {
		return nil, fmt.Errorf("load strict mode: %w", err)
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), &b.strict); err != nil {
			logger.Warn("stored strict mode is corrupt; using off")
			b.strict = false
		}
	}
	return b, nil
}

// Stats returns the current snapshot.
func (b *Book) Stats() model.Stats {
	return b.stats
}

// Ladder returns the level ladder the book advances on.
func (b *Book) Ladder() level.Ladder {
	return b.ladder
}

// History returns a copy of every recorded turn, oldest first.
func (b *Book) History() []model.HistoryEntry {
	return append([]model.HistoryEntry(nil), b.history...)
}

// Recent returns up to n of the newest entries, oldest first.
func (b *Book) Recent(n int) []model.HistoryEntry {
	return Tail(b.history, n)
}

// Strict reports whether strict assessment is enabled.
func (b *Book) Strict() bool {
	return b.strict
}

// Outcome is the result of recording one turn.
type Outcome struct {
	Previous model.Level
	Stats    model.Stats
	Entry    model.HistoryEntry
}

// RecordTurn applies a turn with errorCount errors: a clean turn counts a
// hit and moves up a rung, anything else counts an error and moves down.
// The new stats and history are persisted before they replace the
// in-memory state, so a failed write leaves the book unchanged.
func (b *Book) RecordTurn(ctx context.Context, errorCount int, at time.Time) (Outcome, error) {
	if errorCount < 0 {
		errorCount = 0
	}
	success := errorCount == 0
	next := b.stats
	if success {
		next.Hits++
	} else {
		next.Errors++
	}
	next.Level = b.ladder.Next(b.stats.Level, success)

	entry := model.NewHistoryEntry(at, next.Level, errorCount)
	history := make([]model.HistoryEntry, len(b.history), len(b.history)+1)
	copy(history, b.history)
	history = append(history, entry)

	if err := b.persist(ctx, next, history); err != nil {
		return Outcome{}, err
	}
	out := Outcome{Previous: b.stats.Level, Stats: next, Entry: entry}
	b.stats = next
	b.history = history
	return out, nil
}

// SetStrict toggles strict assessment and persists the choice.
func (b *Book) SetStrict(ctx context.Context, strict bool) error {
	raw, err := json.Marshal(strict)
	if err != nil {
		return err
	}
	if err := b.kv.Set(ctx, KeyStrict, string(raw)); err != nil {
		return fmt.Errorf("save strict mode: %w", err)
	}
	b.strict = strict
	return nil
}

// Reset restores default stats and clears the history.
func (b *Book) Reset(ctx context.Context) error {
	stats := model.Stats{Level: b.ladder.Lowest()}
	if err := b.persist(ctx, stats, []model.HistoryEntry{}); err != nil {
		return err
	}
	b.stats = stats
	b.history = nil
	return nil
}

func (b *Book) persist(ctx context.Context, stats model.Stats, history []model.HistoryEntry) error {
	rawStats, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	if history == nil {
		history = []model.HistoryEntry{}
	}
	rawHistory, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	values := map[string]string{
		KeyStats:   string(rawStats),
		KeyHistory: string(rawHistory),
	}
	if err := b.kv.SetMany(ctx, values); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// Tail returns up to n of the newest entries, oldest first.
func Tail(history []model.HistoryEntry, n int) []model.HistoryEntry {
	if n <= 0 || len(history) == 0 {
		return nil
	}
	if len(history) > n {
		history = history[len(history)-n:]
	}
	return append([]model.HistoryEntry(nil), history...)
}
