package dynamic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"
)

const defaultHTTPTimeout = 10 * time.Second

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithHTTPClient overrides the client used for requests.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		if client != nil {
			s.client = client
		}
	}
}

// WithTimeout bounds each fetch. Zero or negative disables the bound.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		s.timeout = timeout
	}
}

// WithResultsPath points at the descriptor array inside a wrapped payload,
// e.g. "data.items". Empty means the body is the array.
func WithResultsPath(path string) HTTPOption {
	return func(s *HTTPSource) {
		s.resultsPath = strings.TrimSpace(path)
	}
}

// WithHeader adds a request header, typically for auth.
func WithHeader(key, value string) HTTPOption {
	return func(s *HTTPSource) {
		if strings.TrimSpace(key) == "" {
			return
		}
		s.headers.Set(key, value)
	}
}

// HTTPSource lists descriptors from a JSON endpoint. Concurrent fetches share
// a single in-flight request.
type HTTPSource struct {
	url         string
	client      *http.Client
	timeout     time.Duration
	resultsPath string
	headers     http.Header
	group       singleflight.Group
}

// NewHTTPSource builds a source for url.
func NewHTTPSource(url string, options ...HTTPOption) (*HTTPSource, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("dynamic: http source url is required")
	}
	s := &HTTPSource{
		url:     url,
		client:  http.DefaultClient,
		timeout: defaultHTTPTimeout,
		headers: make(http.Header),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s, nil
}

// URL reports the endpoint.
func (s *HTTPSource) URL() string {
	return s.url
}

// ListFieldDescriptors fetches and decodes the descriptor list. The shared
// request outlives a cancelled caller so that joiners are not failed by an
// abandoned request; each caller still returns as soon as its own ctx ends.
func (s *HTTPSource) ListFieldDescriptors(ctx context.Context) ([]Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch := s.group.DoChan(s.url, func() (any, error) {
		fetchCtx := context.WithoutCancel(ctx)
		if s.timeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(fetchCtx, s.timeout)
			defer cancel()
		}
		return s.fetch(fetchCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		list, _ := res.Val.([]Descriptor)
		return append([]Descriptor(nil), list...), nil
	}
}

func (s *HTTPSource) fetch(ctx context.Context) ([]Descriptor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dynamic: request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for key, values := range s.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dynamic: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("dynamic: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("dynamic: read body: %w", err)
	}
	return decodeDescriptors(body, s.resultsPath)
}

func decodeDescriptors(body []byte, resultsPath string) ([]Descriptor, error) {
	if resultsPath == "" {
		var list []Descriptor
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, fmt.Errorf("dynamic: decode: %w", err)
		}
		return list, nil
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("dynamic: decode: %w", err)
	}
	cur := payload
	for _, segment := range strings.Split(resultsPath, ".") {
		node, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("dynamic: results path %q not found", resultsPath)
		}
		cur = node[segment]
	}
	if _, ok := cur.([]any); !ok {
		return nil, fmt.Errorf("dynamic: results path %q is not an array", resultsPath)
	}

	raw, err := json.Marshal(cur)
	if err != nil {
		return nil, fmt.Errorf("dynamic: re-encode results: %w", err)
	}
	var list []Descriptor
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("dynamic: decode results: %w", err)
	}
	return list, nil
}
