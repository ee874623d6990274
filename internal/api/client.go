package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/guonaihong/gout"
	"github.com/guonaihong/gout/dataflow"
	jsoniter "github.com/json-iterator/go"
	"github.com/sony/gobreaker/v2"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// TokenSource supplies the bearer token attached to outgoing requests.
// An empty token means the request goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// Client talks to the backend over HTTP/JSON. Responses arrive either raw or
// wrapped in a {success, data} envelope; the envelope is unwrapped before
// decoding. Every call goes through a circuit breaker so a dead backend
// fails fast instead of piling up timeouts.
type Client struct {
	base           string
	g              *dataflow.Gout
	breaker        *gobreaker.CircuitBreaker[[]byte]
	tokens         TokenSource
	onAuthRejected func()
	products       singleflight.Group
	log            *zap.Logger
}

// New creates a client for the backend at baseURL. tokens may be nil for an
// always-anonymous client.
func New(baseURL string, timeout time.Duration, tokens TokenSource, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		base:   strings.TrimRight(baseURL, "/"),
		g:      gout.New(&http.Client{Timeout: timeout}),
		tokens: tokens,
		log:    log,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "backend",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// client-side rejections (4xx) are not a backend outage
			apiErr, ok := AsError(err)
			return ok && apiErr.Kind != KindNetwork && apiErr.Status < 500
		},
	})
	return c
}

// SetAuthRejectedHook registers the function invoked whenever the backend
// answers 401, so stale credentials are dropped instead of retried.
func (c *Client) SetAuthRejectedHook(fn func()) {
	c.onAuthRejected = fn
}

func (c *Client) do(ctx context.Context, method, path string, query gout.H, body interface{}) ([]byte, error) {
	raw, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, method, path, query, body)
	})
	if err != nil {
		if _, ok := AsError(err); !ok {
			// breaker open / too many requests
			return nil, &Error{Kind: KindNetwork, Message: "backend unavailable", cause: err}
		}
		return nil, err
	}
	return raw, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query gout.H, body interface{}) ([]byte, error) {
	url := c.base + path

	var df *dataflow.DataFlow
	switch method {
	case http.MethodGet:
		df = c.g.GET(url)
	case http.MethodPost:
		df = c.g.POST(url)
	case http.MethodPut:
		df = c.g.PUT(url)
	case http.MethodDelete:
		df = c.g.DELETE(url)
	default:
		return nil, fmt.Errorf("unsupported method %q", method)
	}

	headers := gout.H{"accept": "application/json"}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			headers["authorization"] = "Bearer " + token
		}
	}
	df = df.WithContext(ctx).SetHeader(headers)
	if query != nil {
		df = df.SetQuery(query)
	}
	if body != nil {
		df = df.SetJSON(body)
	}

	var (
		code int
		raw  []byte
	)
	if err := df.Code(&code).BindBody(&raw).Do(); err != nil {
		c.log.Warn("backend request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, &Error{Kind: KindNetwork, Message: transportMessage(err), cause: err}
	}

	switch {
	case code == http.StatusUnauthorized:
		c.log.Warn("backend rejected credentials", zap.String("path", path))
		if c.onAuthRejected != nil {
			c.onAuthRejected()
		}
		return nil, &Error{Kind: KindAuthRejected, Status: code, Message: bodyMessage(raw, "session rejected")}
	case code >= 400:
		return nil, &Error{Kind: KindRemote, Status: code, Message: bodyMessage(raw, http.StatusText(code))}
	}

	return unwrapEnvelope(raw), nil
}

// unwrapEnvelope strips the {success, data} wrapper some endpoints use and
// returns the inner payload. The success marker must be present; a payload
// that merely contains a data field passes through untouched.
func unwrapEnvelope(raw []byte) []byte {
	var env struct {
		Success *bool               `json:"success"`
		Data    jsoniter.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && env.Success != nil && len(env.Data) > 0 {
		return env.Data
	}
	return raw
}

// bodyMessage pulls a human-readable message out of an error body. NestJS
// style bodies carry either a string or an array under "message".
func bodyMessage(raw []byte, fallback string) string {
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err == nil {
		for _, field := range []string{"message", "error"} {
			switch v := body[field].(type) {
			case nil:
			case []interface{}:
				if parts := cast.ToStringSlice(v); len(parts) > 0 {
					return strings.Join(parts, ", ")
				}
			default:
				if msg := cast.ToString(v); msg != "" {
					return msg
				}
			}
		}
	}
	return fallback
}

func transportMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	return err.Error()
}
