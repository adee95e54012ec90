package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/sethvargo/go-retry"
)

const (
	defaultMaxRetries = 3
	defaultBaseDelay  = 100 * time.Millisecond
	defaultMaxDelay   = 2 * time.Second
)

type HTTPStore struct {
	baseURL    string
	client     *http.Client
	maxRetries uint64
	baseDelay  time.Duration
	maxDelay   time.Duration
}

type HTTPOption func(*HTTPStore)

func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPStore) { s.client = c }
}

// WithBackoff overrides the retry policy. retries is the number of attempts
// after the first one.
func WithBackoff(retries uint64, base, maxDelay time.Duration) HTTPOption {
	return func(s *HTTPStore) {
		s.maxRetries = retries
		s.baseDelay = base
		s.maxDelay = maxDelay
	}
}

func NewHTTPStore(baseURL string, opts ...HTTPOption) *HTTPStore {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	s := &HTTPStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		client:     &http.Client{Timeout: 30 * time.Second},
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *HTTPStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

type listResponse struct {
	Notes []models.Note `json:"notes"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *HTTPStore) SelectAll(ctx context.Context, owner string) ([]models.Note, error) {
	var out listResponse
	if err := s.do(ctx, http.MethodGet, s.notesPath(owner), nil, &out); err != nil {
		return nil, err
	}
	if out.Notes == nil {
		return []models.Note{}, nil
	}
	return out.Notes, nil
}

func (s *HTTPStore) Insert(ctx context.Context, n models.Note) error {
	return s.do(ctx, http.MethodPost, s.notesPath(n.Owner), n, nil)
}

func (s *HTTPStore) UpdateByID(ctx context.Context, id, owner string, f models.NoteFields) error {
	return s.do(ctx, http.MethodPatch, s.notePath(owner, id), f, nil)
}

func (s *HTTPStore) DeleteByID(ctx context.Context, id, owner string) error {
	return s.do(ctx, http.MethodDelete, s.notePath(owner, id), nil, nil)
}

func (s *HTTPStore) Ping(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := s.do(ctx, http.MethodGet, "/v1/ping", nil, &out); err != nil {
		return err
	}
	if out.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *HTTPStore) notesPath(owner string) string {
	return "/v1/owners/" + url.PathEscape(owner) + "/notes"
}

func (s *HTTPStore) notePath(owner, id string) string {
	return s.notesPath(owner) + "/" + url.PathEscape(id)
}

func (s *HTTPStore) backoff() retry.Backoff {
	b := retry.NewExponential(s.baseDelay)
	b = retry.WithCappedDuration(s.maxDelay, b)
	return retry.WithMaxRetries(s.maxRetries, b)
}

// do sends one request, retrying network errors, 429 and 5xx. in is encoded
// as JSON when non-nil; out is decoded from a 2xx body when non-nil.
func (s *HTTPStore) do(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = b
	}

	err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			return retry.RetryableError(fmt.Errorf("%w: %v", ErrUnavailable, err))
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if out == nil || resp.StatusCode == http.StatusNoContent {
				_, _ = io.Copy(io.Discard, resp.Body)
				return nil
			}
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
			return nil
		}

		herr := &HTTPError{StatusCode: resp.StatusCode}
		var er errorResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&er); err == nil {
			herr.Code = er.Code
			herr.Message = er.Message
		}
		if retryableStatus(resp.StatusCode) {
			return retry.RetryableError(herr)
		}
		return herr
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrUnavailable) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return err
	}
	return nil
}
