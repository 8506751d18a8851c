package critique

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

type scriptedCritic struct {
	errs  []error
	text  string
	calls int
}

func (s *scriptedCritic) Critique(context.Context, Request) (string, error) {
	s.calls++
	if s.calls <= len(s.errs) {
		return "", s.errs[s.calls-1]
	}
	return s.text, nil
}

func testConfig() ResilientConfig {
	return ResilientConfig{
		MaxAttempts:    3,
		InitialDelay:   time.Millisecond,
		MaxDelay:       5 * time.Millisecond,
		FailuresToTrip: 10,
		OpenTimeout:    time.Second,
	}
}

func TestResilientRetriesTransientFailure(t *testing.T) {
	critic := &scriptedCritic{
		errs: []error{&StatusError{Code: http.StatusServiceUnavailable, Err: ErrServiceError}},
		text: "Correction: hi\nReply: hello",
	}
	r := NewResilient(critic, testConfig())
	got, err := r.Critique(context.Background(), Request{Utterance: "hi"})
	if err != nil {
		t.Fatalf("critique: %v", err)
	}
	if got != critic.text {
		t.Fatalf("unexpected text: %q", got)
	}
	if critic.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", critic.calls)
	}
}

func TestResilientStopsOnFinalError(t *testing.T) {
	critic := &scriptedCritic{errs: []error{ErrEmptyResponse}}
	r := NewResilient(critic, testConfig())
	if _, err := r.Critique(context.Background(), Request{Utterance: "hi"}); err == nil {
		t.Fatalf("expected error")
	}
	if critic.calls != 1 {
		t.Fatalf("expected a single call, got %d", critic.calls)
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{context.Canceled, false},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), false},
		{ErrEmptyResponse, false},
		{fmt.Errorf("%w: bad payload", ErrServiceError), false},
		{&StatusError{Code: http.StatusTooManyRequests, Err: ErrServiceError}, true},
		{&StatusError{Code: http.StatusBadGateway, Err: ErrServiceError}, true},
		{&StatusError{Code: http.StatusUnauthorized, Err: ErrServiceError}, false},
		{&ResponseError{Message: "Model is currently loading"}, true},
		{errors.New("connection reset by peer"), true},
	}
	for _, tc := range cases {
		if got := IsRetryable(tc.err); got != tc.want {
			t.Fatalf("IsRetryable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
