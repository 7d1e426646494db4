package builder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kode4food/bizunit/pkg/api"
)

// Client talks to the plan and run endpoints of a bizunit server
type Client struct {
	httpClient *http.Client
	baseURL    string
}

var (
	ErrPutPlan    = errors.New("failed to store plan")
	ErrGetPlan    = errors.New("failed to get plan")
	ErrDeletePlan = errors.New("failed to delete plan")
	ErrListPlans  = errors.New("failed to list plans")
	ErrNormalize  = errors.New("failed to normalize plan")
	ErrRunPlan    = errors.New("failed to run plan")
)

const (
	routePlan      = "/plan"
	routeNormalize = "/plan/normalize"
	routeRun       = "/run"
)

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// PutPlan stores doc under name, returning the normalized document
func (c *Client) PutPlan(
	ctx context.Context, name string, doc *api.Document,
) (*api.Document, error) {
	var res api.NormalizeResponse
	err := c.send(ctx, "PUT", c.planURL(name), doc, &res, ErrPutPlan)
	if err != nil {
		return nil, err
	}
	return res.Document, nil
}

func (c *Client) GetPlan(
	ctx context.Context, name string,
) (*api.Document, error) {
	var res api.Document
	err := c.send(ctx, "GET", c.planURL(name), nil, &res, ErrGetPlan)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) DeletePlan(ctx context.Context, name string) error {
	return c.send(ctx, "DELETE", c.planURL(name), nil, nil, ErrDeletePlan)
}

func (c *Client) ListPlans(ctx context.Context) ([]string, error) {
	var res api.PlanListResponse
	err := c.send(ctx, "GET", c.url(routePlan), nil, &res, ErrListPlans)
	if err != nil {
		return nil, err
	}
	return res.Plans, nil
}

// Normalize round trips doc through the server without storing it
func (c *Client) Normalize(
	ctx context.Context, doc *api.Document,
) (*api.Document, error) {
	var res api.NormalizeResponse
	err := c.send(
		ctx, "POST", c.url(routeNormalize), doc, &res, ErrNormalize,
	)
	if err != nil {
		return nil, err
	}
	return res.Document, nil
}

func (c *Client) send(
	ctx context.Context, method, target string, body, result any,
	baseErr error,
) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: %w", baseErr, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("%w: %w", baseErr, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", baseErr, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(baseErr, resp)
	}
	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: %w", baseErr, err)
	}
	return nil
}

func (c *Client) planURL(name string) string {
	return c.url("%s/%s", routePlan, url.PathEscape(name))
}

func (c *Client) url(format string, args ...any) string {
	path := fmt.Sprintf(format, args...)
	return c.baseURL + path
}

// ServerError carries the error payload returned by the server
type ServerError struct {
	api.ErrorResponse
	base error
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: status %d: %s",
		e.base, e.Status, e.ErrorResponse.Error)
}

func (e *ServerError) Unwrap() error {
	return e.base
}

func statusError(baseErr error, resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	res := &ServerError{base: baseErr}
	if err := json.Unmarshal(body, &res.ErrorResponse); err != nil ||
		res.ErrorResponse.Error == "" {
		res.ErrorResponse.Error = string(body)
	}
	res.Status = resp.StatusCode
	return res
}
