package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// HTTPStore talks to the badge server's configuration endpoints:
// GET /config/{resource} returning {"config": ...} and PUT /config/{resource}
// with the full document as body. Transient failures (5xx, transport errors)
// are retried here so the settings engine never has to.
type HTTPStore struct {
	baseURL  string
	client   *http.Client
	attempts uint
}

// NewHTTPStore uses a default client with a request timeout when client is
// nil.
func NewHTTPStore(baseURL string, client *http.Client) *HTTPStore {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPStore{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   client,
		attempts: 3,
	}
}

func (s *HTTPStore) Get(ctx context.Context, resource string) (json.RawMessage, error) {
	endpoint, err := s.endpoint(resource)
	if err != nil {
		return nil, err
	}

	var config json.RawMessage
	err = retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := s.client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusNotFound {
				config = nil
				return nil
			}
			if resp.StatusCode >= 500 {
				return fmt.Errorf("get %s: status %d", resource, resp.StatusCode)
			}
			if resp.StatusCode != http.StatusOK {
				return retry.Unrecoverable(fmt.Errorf("get %s: status %d", resource, resp.StatusCode))
			}

			var envelope struct {
				Config json.RawMessage `json:"config"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decode %s response: %w", resource, err))
			}
			config = envelope.Config
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	if string(config) == "null" {
		config = nil
	}
	return config, nil
}

func (s *HTTPStore) Put(ctx context.Context, resource string, doc any) error {
	endpoint, err := s.endpoint(resource)
	if err != nil {
		return err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode resource %s: %w", resource, err)
	}

	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Content-Type", "application/json")
			resp, err := s.client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			_, _ = io.Copy(io.Discard, resp.Body)

			if resp.StatusCode >= 500 {
				return fmt.Errorf("put %s: status %d", resource, resp.StatusCode)
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return retry.Unrecoverable(fmt.Errorf("put %s: status %d", resource, resp.StatusCode))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.LastErrorOnly(true),
	)
}

func (s *HTTPStore) endpoint(resource string) (string, error) {
	resource = strings.TrimSpace(resource)
	if resource == "" || strings.ContainsAny(resource, "/\\") {
		return "", fmt.Errorf("%w: %q", ErrBadResourceName, resource)
	}
	return s.baseURL + "/config/" + url.PathEscape(resource), nil
}
