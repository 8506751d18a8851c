package critique

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tidwall/gjson"
)

func completionBody(content, refusal string) string {
	return fmt.Sprintf(`{"id":"chatcmpl-1","object":"chat.completion","created":1760688000,"model":"test-model",`+
		`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":%q,"refusal":%q}}]}`,
		content, refusal)
}

func newTestClient(t *testing.T, status int, body string, timeout time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		raw, _ := io.ReadAll(r.Body)
		if model := gjson.GetBytes(raw, "model").String(); model != "test-model" {
			t.Errorf("unexpected model %q", model)
		}
		if msg := gjson.GetBytes(raw, "messages.1.content").String(); !strings.Contains(msg, "she go home") {
			t.Errorf("utterance missing from user message: %q", msg)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient("test-key", "test-model", WithBaseURL(srv.URL+"/v1/"), WithTimeout(timeout))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

var testRequest = Request{Utterance: "she go home", Level: "A1"}

func TestClientReturnsCompletionText(t *testing.T) {
	c := newTestClient(t, http.StatusOK, completionBody("Correction: She goes home.\nReply: Nice!", ""), time.Second)
	got, err := c.Critique(context.Background(), testRequest)
	if err != nil {
		t.Fatalf("critique: %v", err)
	}
	if got != "Correction: She goes home.\nReply: Nice!" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestClientEmptyChoices(t *testing.T) {
	body := `{"id":"chatcmpl-1","object":"chat.completion","created":1760688000,"model":"test-model","choices":[]}`
	c := newTestClient(t, http.StatusOK, body, time.Second)
	_, err := c.Critique(context.Background(), testRequest)
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
	if IsRetryable(err) {
		t.Fatalf("empty response should be final")
	}
}

func TestClientErrorFieldInBody(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{name: "object", body: `{"error":{"message":"Model is currently loading","type":"server_error"}}`, want: "Model is currently loading"},
		{name: "string", body: `{"error":"Rate limit reached"}`, want: "Rate limit reached"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, http.StatusOK, tc.body, time.Second)
			_, err := c.Critique(context.Background(), testRequest)
			if !errors.Is(err, ErrServiceError) {
				t.Fatalf("expected ErrServiceError, got %v", err)
			}
			if errors.Is(err, ErrEmptyResponse) {
				t.Fatalf("service error reported as empty response: %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected service message in %q", err.Error())
			}
			if !IsRetryable(err) {
				t.Fatalf("service error in body should be retried")
			}
		})
	}
}

func TestClientStatusErrors(t *testing.T) {
	cases := []struct {
		status    int
		retryable bool
	}{
		{status: http.StatusTooManyRequests, retryable: true},
		{status: http.StatusServiceUnavailable, retryable: true},
		{status: http.StatusUnauthorized, retryable: false},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			c := newTestClient(t, tc.status, `{"error":{"message":"upstream says no","type":"error"}}`, time.Second)
			_, err := c.Critique(context.Background(), testRequest)
			var statusErr *StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("expected *StatusError, got %T %v", err, err)
			}
			if statusErr.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, statusErr.Code)
			}
			if !errors.Is(err, ErrServiceError) {
				t.Fatalf("expected ErrServiceError in chain")
			}
			if got := IsRetryable(err); got != tc.retryable {
				t.Fatalf("IsRetryable = %v, want %v", got, tc.retryable)
			}
		})
	}
}

func TestClientRefusal(t *testing.T) {
	c := newTestClient(t, http.StatusOK, completionBody("", "I can't help with that."), time.Second)
	_, err := c.Critique(context.Background(), testRequest)
	if !errors.Is(err, ErrServiceError) || !strings.Contains(err.Error(), "I can't help with that.") {
		t.Fatalf("expected refusal as service error, got %v", err)
	}
	if IsRetryable(err) {
		t.Fatalf("refusal should be final")
	}
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c, err := NewClient("test-key", "test-model", WithBaseURL(srv.URL+"/v1/"), WithTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	start := time.Now()
	_, err = c.Critique(context.Background(), testRequest)
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	var netErr net.Error
	if !errors.Is(err, context.DeadlineExceeded) && !(errors.As(err, &netErr) && netErr.Timeout()) {
		t.Fatalf("expected a timeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("call was not bounded by the timeout: %v", elapsed)
	}
}

func TestNewClientRequiresKeyAndModel(t *testing.T) {
	if _, err := NewClient("", "m"); err == nil {
		t.Fatalf("expected error for empty key")
	}
	if _, err := NewClient("k", ""); err == nil {
		t.Fatalf("expected error for empty model")
	}
}
