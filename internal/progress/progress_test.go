package progress

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/verte-zerg/parla/internal/level"
	"github.com/verte-zerg/parla/internal/model"
	"github.com/verte-zerg/parla/internal/store"
)

var day = time.Date(2026, 10, 17, 9, 30, 0, 0, time.Local)

func loadBook(t *testing.T, kv KV) *Book {
	t.Helper()
	b, err := Load(context.Background(), kv, level.Default(), nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return b
}

func TestLoadDefaults(t *testing.T) {
	b := loadBook(t, store.NewMemory())
	if b.Stats() != model.DefaultStats() {
		t.Fatalf("unexpected default stats: %+v", b.Stats())
	}
	if len(b.History()) != 0 || b.Strict() {
		t.Fatalf("expected empty history and strict off")
	}
}

func TestLoadCorruptFallsBack(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	_ = kv.SetMany(ctx, map[string]string{
		KeyStats:   "{not json",
		KeyHistory: "42",
		KeyStrict:  "maybe",
	})
	b := loadBook(t, kv)
	if b.Stats() != model.DefaultStats() {
		t.Fatalf("expected defaults for corrupt stats, got %+v", b.Stats())
	}
	if len(b.History()) != 0 || b.Strict() {
		t.Fatalf("expected empty history and strict off")
	}

	_ = kv.Set(ctx, KeyStats, `{"level":"Z9","hits":1,"errors":0}`)
	if got := loadBook(t, kv).Stats(); got != model.DefaultStats() {
		t.Fatalf("expected defaults for unknown level, got %+v", got)
	}
}

func TestRecordTurn(t *testing.T) {
	ctx := context.Background()
	b := loadBook(t, store.NewMemory())

	out, err := b.RecordTurn(ctx, 0, day)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if out.Previous != "A1" || out.Stats.Level != "A2" || out.Stats.Hits != 1 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if out.Entry != (model.HistoryEntry{Date: "2026-10-17", Level: "A2", Errors: 0}) {
		t.Fatalf("unexpected entry: %+v", out.Entry)
	}

	out, err = b.RecordTurn(ctx, 3, day)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if out.Stats.Level != "A1" || out.Stats.Errors != 1 || out.Entry.Errors != 3 {
		t.Fatalf("unexpected outcome: %+v", out)
	}

	out, err = b.RecordTurn(ctx, 1, day)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if out.Stats.Level != "A1" {
		t.Fatalf("expected to stay at the bottom rung, got %q", out.Stats.Level)
	}
	if len(b.History()) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(b.History()))
	}
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(filepath.Join(t.TempDir(), "parla.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	b := loadBook(t, st)
	for i, errs := range []int{0, 0, 2, 0, 1, 0, 0, 0, 0, 0} {
		if _, err := b.RecordTurn(ctx, errs, day.AddDate(0, 0, i)); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	if err := b.SetStrict(ctx, true); err != nil {
		t.Fatalf("set strict: %v", err)
	}

	reloaded := loadBook(t, st)
	if reloaded.Stats() != b.Stats() {
		t.Fatalf("stats differ after reload: %+v vs %+v", reloaded.Stats(), b.Stats())
	}
	if !reflect.DeepEqual(reloaded.History(), b.History()) {
		t.Fatalf("history differs after reload")
	}
	if !reloaded.Strict() {
		t.Fatalf("expected strict mode to persist")
	}
	if b.Stats().Level != "C1" {
		t.Fatalf("expected top rung after a clean streak, got %q", b.Stats().Level)
	}
}

var (
	_ KV = (*store.Store)(nil)
	_ KV = (*store.Memory)(nil)
)

type failingKV struct {
	*store.Memory
	fail bool
	sets int
}

func (f *failingKV) Set(ctx context.Context, key, value string) error {
	f.sets++
	if f.fail {
		return errors.New("disk full")
	}
	return f.Memory.Set(ctx, key, value)
}

func (f *failingKV) SetMany(ctx context.Context, values map[string]string) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.Memory.SetMany(ctx, values)
}

func TestRecordTurnFailedWriteLeavesState(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{Memory: store.NewMemory()}
	b := loadBook(t, kv)
	if _, err := b.RecordTurn(ctx, 0, day); err != nil {
		t.Fatalf("record: %v", err)
	}
	before := b.Stats()

	kv.fail = true
	if _, err := b.RecordTurn(ctx, 0, day); err == nil {
		t.Fatalf("expected write failure")
	}
	if b.Stats() != before || len(b.History()) != 1 {
		t.Fatalf("state changed after failed write: %+v, %d entries", b.Stats(), len(b.History()))
	}
	reloaded := loadBook(t, kv)
	if reloaded.Stats() != before {
		t.Fatalf("persisted state changed after failed write: %+v", reloaded.Stats())
	}
	if kv.sets != 0 {
		t.Fatalf("stats and history must be written in one batch, got %d single writes", kv.sets)
	}
}

func TestResetFailedWriteLeavesState(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{Memory: store.NewMemory()}
	b := loadBook(t, kv)
	if _, err := b.RecordTurn(ctx, 2, day); err != nil {
		t.Fatalf("record: %v", err)
	}
	before := b.Stats()

	kv.fail = true
	if err := b.Reset(ctx); err == nil {
		t.Fatalf("expected write failure")
	}
	if b.Stats() != before || len(b.History()) != 1 {
		t.Fatalf("state changed after failed reset: %+v, %d entries", b.Stats(), len(b.History()))
	}
	kv.fail = false
	reloaded := loadBook(t, kv)
	if reloaded.Stats() != before || len(reloaded.History()) != 1 {
		t.Fatalf("persisted state changed after failed reset: %+v", reloaded.Stats())
	}
	if kv.sets != 0 {
		t.Fatalf("reset must write in one batch, got %d single writes", kv.sets)
	}
}

func TestRecentAndReset(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	b := loadBook(t, kv)
	for i := 0; i < 8; i++ {
		if _, err := b.RecordTurn(ctx, i%2, day.AddDate(0, 0, i)); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	recent := b.Recent(DisplayLimit)
	if len(recent) != DisplayLimit {
		t.Fatalf("expected %d recent entries, got %d", DisplayLimit, len(recent))
	}
	if recent[len(recent)-1].Date != "2026-10-24" {
		t.Fatalf("expected newest entry last, got %+v", recent)
	}
	if len(b.History()) != 8 {
		t.Fatalf("store must keep the full history, got %d", len(b.History()))
	}

	if err := b.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	reloaded := loadBook(t, kv)
	if reloaded.Stats() != model.DefaultStats() || len(reloaded.History()) != 0 {
		t.Fatalf("expected defaults after reset, got %+v with %d entries", reloaded.Stats(), len(reloaded.History()))
	}
}

func TestSummary(t *testing.T) {
	if got := Accuracy(model.Stats{}); got != 0 {
		t.Fatalf("expected 0 accuracy, got %v", got)
	}
	if got := Accuracy(model.Stats{Hits: 3, Errors: 1}); got != 0.75 {
		t.Fatalf("expected 0.75 accuracy, got %v", got)
	}
	history := []model.HistoryEntry{{Level: "A2", Errors: 0}, {Level: "A1", Errors: 2}}
	if got := ErrorSeries(history); !reflect.DeepEqual(got, []float64{0, 2}) {
		t.Fatalf("unexpected error series: %v", got)
	}
	b := loadBook(t, store.NewMemory())
	if got := b.LevelSeries(history); !reflect.DeepEqual(got, []float64{1, 0}) {
		t.Fatalf("unexpected level series: %v", got)
	}
}
