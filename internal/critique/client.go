package critique

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"
	"github.com/tidwall/gjson"
)

// DefaultTimeout bounds a single assessor call.
const DefaultTimeout = 20 * time.Second

var (
	// ErrEmptyResponse is returned when the assessor answers with no text.
	ErrEmptyResponse = errors.New("critique: empty response")
	// ErrServiceError is returned when the assessor reports an error in its response.
	ErrServiceError = errors.New("critique: service error")
)

// Critic returns the raw assessor text for an utterance.
type Critic interface {
	Critique(ctx context.Context, req Request) (string, error)
}

// Client is a Critic backed by an OpenAI-compatible chat completions API.
type Client struct {
	client  oai.Client
	model   string
	timeout time.Duration
}

type clientConfig struct {
	baseURL string
	timeout time.Duration
}

// Option configures a Client.
type Option func(*clientConfig)

// WithBaseURL points the client at another OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithTimeout sets the per-call deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// NewClient constructs a Client.
func NewClient(apiKey, model string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("critique: api key must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("critique: model must not be empty")
	}
	cfg := &clientConfig{timeout: DefaultTimeout}
	for _, o := range opts {
		o(cfg)
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: cfg.timeout}))
	}
	return &Client{
		client:  oai.NewClient(reqOpts...),
		model:   model,
		timeout: cfg.timeout,
	}, nil
}

// Critique implements Critic.
func (c *Client) Critique(ctx context.Context, req Request) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	params := oai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(SystemPrompt(req)),
			oai.UserMessage(UserPrompt(req)),
		},
		Temperature: param.NewOpt(0.2),
	}
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *oai.Error
		if errors.As(err, &apiErr) {
			return "", &StatusError{Code: apiErr.StatusCode, Err: fmt.Errorf("%w: %v", ErrServiceError, err)}
		}
		return "", fmt.Errorf("critique: chat completion: %w", err)
	}
	if field, ok := resp.JSON.ExtraFields["error"]; ok {
		if msg := serviceMessage(field.Raw()); msg != "" {
			return "", &ResponseError{Message: msg}
		}
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		if refusal := resp.Choices[0].Message.Refusal; refusal != "" {
			return "", fmt.Errorf("%w: %s", ErrServiceError, refusal)
		}
		return "", ErrEmptyResponse
	}
	return text, nil
}

// serviceMessage extracts the text of an "error" member, which services
// send either as a string or as an object with a message.
func serviceMessage(raw string) string {
	v := gjson.Parse(raw)
	switch {
	case v.Type == gjson.Null:
		return ""
	case v.IsObject():
		if msg := v.Get("message").String(); msg != "" {
			return msg
		}
		return raw
	default:
		return v.String()
	}
}

// ResponseError is an error the service reported inside a successful
// response, such as a model that is still loading. It matches
// ErrServiceError.
type ResponseError struct {
	Message string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%v: %s", ErrServiceError, e.Message)
}

func (e *ResponseError) Is(target error) bool {
	return target == ErrServiceError
}

// StatusError carries the HTTP status of a failed assessor call.
type StatusError struct {
	Code int
	Err  error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %v", e.Code, e.Err)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}
