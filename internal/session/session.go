// Package session runs assessment turns against a learner's persisted
// progress.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/verte-zerg/parla/internal/assess"
	"github.com/verte-zerg/parla/internal/critique"
	"github.com/verte-zerg/parla/internal/model"
	"github.com/verte-zerg/parla/internal/progress"
)

var (
	// ErrNoUtterance is returned when there is nothing to assess.
	ErrNoUtterance = errors.New("no utterance to assess")
	// ErrAssessmentUnavailable is returned when the assessor failed or timed out.
	ErrAssessmentUnavailable = errors.New("assessment unavailable")
	// ErrMalformedCritique is returned when the assessor answer lacks a reply or correction.
	ErrMalformedCritique = errors.New("malformed critique")
	// ErrNoCritic is returned by Assess when the session has no assessor.
	ErrNoCritic = errors.New("no assessor configured")
)

// Options configures how turns are scored. Classifier is used as given,
// so callers start from DefaultOptions.
type Options struct {
	Strategy   assess.Strategy
	Classifier assess.Classifier
	CountMild  bool
	Logger     *slog.Logger
	Now        func() time.Time
}

// DefaultOptions scores with the positional strategy and counts mild pairs.
func DefaultOptions() Options {
	return Options{
		Strategy:   assess.Positional{},
		Classifier: assess.DefaultClassifier(),
		CountMild:  true,
	}
}

// Session owns the learner's progress for the lifetime of the program.
// Turns run one at a time.
type Session struct {
	critic critique.Critic
	book   *progress.Book
	opts   Options
	logger *slog.Logger

	turn sync.Mutex

	mu            sync.Mutex
	lastUtterance string
}

// New creates a session. critic may be nil for offline scoring.
func New(critic critique.Critic, book *progress.Book, opts Options) *Session {
	if opts.Strategy == nil {
		opts.Strategy = assess.Positional{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{critic: critic, book: book, opts: opts, logger: logger}
}

// Result describes one completed turn.
type Result struct {
	Utterance string
	Critique  model.Critique
	// Suggested is the assessor's level hint when it names a known rung.
	// It is informational and does not move the learner.
	Suggested model.Level
	Pairs     []model.AlignedPair
	Errors    int
	Success   bool
	Outcome   progress.Outcome
}

// Assess sends utterance to the assessor, scores it against the returned
// correction and records the turn. When the assessor fails or its answer
// is unusable nothing is recorded and the utterance stays available
// through LastUtterance.
func (s *Session) Assess(ctx context.Context, utterance string) (Result, error) {
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return Result{}, ErrNoUtterance
	}
	if s.critic == nil {
		return Result{}, ErrNoCritic
	}

	s.turn.Lock()
	defer s.turn.Unlock()

	s.mu.Lock()
	s.lastUtterance = utterance
	req := critique.Request{
		Utterance: utterance,
		Level:     s.book.Stats().Level,
		Strict:    s.book.Strict(),
	}
	s.mu.Unlock()

	raw, err := s.critic.Critique(ctx, req)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.logger.Warn("assessor call failed", "err", err)
		return Result{}, fmt.Errorf("%w: %w", ErrAssessmentUnavailable, err)
	}

	c := critique.Parse(raw)
	if c.Reply == "" {
		return Result{}, fmt.Errorf("%w: missing %s", ErrMalformedCritique, critique.LabelReply)
	}
	if len(assess.Tokens(c.Correction)) == 0 {
		return Result{}, fmt.Errorf("%w: missing %s", ErrMalformedCritique, critique.LabelCorrection)
	}
	return s.record(ctx, utterance, c)
}

// Score records a turn against a known reference without calling the
// assessor.
func (s *Session) Score(ctx context.Context, corrected, spoken string) (Result, error) {
	spoken = strings.TrimSpace(spoken)
	if spoken == "" {
		return Result{}, ErrNoUtterance
	}
	if len(assess.Tokens(corrected)) == 0 {
		return Result{}, fmt.Errorf("%w: empty reference", ErrMalformedCritique)
	}

	s.turn.Lock()
	defer s.turn.Unlock()

	s.mu.Lock()
	s.lastUtterance = spoken
	s.mu.Unlock()
	return s.record(ctx, spoken, model.Critique{Correction: corrected})
}

func (s *Session) record(ctx context.Context, utterance string, c model.Critique) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrAssessmentUnavailable, err)
	}

	pairs := assess.Compare(c.Correction, utterance, s.opts.Strategy, s.opts.Classifier)
	errs := assess.Tally(pairs, s.opts.CountMild)
	outcome, err := s.book.RecordTurn(ctx, errs, s.opts.Now())
	if err != nil {
		return Result{}, fmt.Errorf("record turn: %w", err)
	}
	suggested, _ := s.book.Ladder().Parse(c.Level)
	s.logger.Debug("turn recorded",
		"errors", errs,
		"from", outcome.Previous,
		"to", outcome.Stats.Level,
		"strategy", s.opts.Strategy.Name())
	return Result{
		Utterance: utterance,
		Critique:  c,
		Suggested: suggested,
		Pairs:     pairs,
		Errors:    errs,
		Success:   errs == 0,
		Outcome:   outcome,
	}, nil
}

// LastUtterance returns the most recent utterance submitted for assessment.
func (s *Session) LastUtterance() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUtterance
}

// Stats returns the current stats snapshot.
func (s *Session) Stats() model.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.Stats()
}

// Recent returns up to n of the newest history entries.
func (s *Session) Recent(n int) []model.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.Recent(n)
}

// Strict reports whether strict assessment is on.
func (s *Session) Strict() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.Strict()
}

// SetStrict switches strict assessment and persists the choice.
func (s *Session) SetStrict(ctx context.Context, strict bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.SetStrict(ctx, strict)
}

// StrategyName returns the comparison strategy in use.
func (s *Session) StrategyName() string {
	return s.opts.Strategy.Name()
}
