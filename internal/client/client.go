// Package client provides the HTTP collaborator used by rest blocks
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kode4food/bizunit/pkg/log"
)

type (
	// Client performs outbound HTTP requests on behalf of a plan
	Client interface {
		Do(context.Context, *Request) (*Response, error)
	}

	// Request describes an outbound HTTP call
	Request struct {
		Headers map[string]string
		Method  string
		URL     string
		Body    []byte
	}

	// Response is the result of an outbound HTTP call. Non-2xx statuses are
	// returned as responses, not errors
	Response struct {
		Headers map[string]string
		Body    []byte
		Status  int
	}

	HTTPClient struct {
		httpClient *http.Client
		logger     *slog.Logger
	}
)

// UserAgent identifies outbound requests
const UserAgent = "Bizunit-Engine/1.0"

var (
	ErrInvalidRequest = errors.New("invalid HTTP request")
	ErrRequestFailed  = errors.New("HTTP request failed")
)

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(timeout time.Duration, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *HTTPClient) Do(ctx context.Context, req *Request) (*Response, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	httpReq.Header.Set("User-Agent", UserAgent)
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	dur := time.Since(start)

	if err != nil {
		c.logger.Error("HTTP request failed",
			slog.String("url", req.URL),
			slog.Duration("duration", dur),
			log.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("Failed to read response body",
			slog.String("url", req.URL),
			log.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	c.logger.Debug("HTTP request completed",
		slog.String("method", method),
		slog.String("url", req.URL),
		slog.Int("status_code", resp.StatusCode),
		slog.Duration("duration", dur))

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}
	return &Response{
		Status:  resp.StatusCode,
		Headers: headers,
		Body:    respBody,
	}, nil
}
