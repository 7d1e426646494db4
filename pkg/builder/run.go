package builder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/kode4food/bizunit/pkg/api"
)

type (
	// Run is an immutable builder for one request to a stored plan
	Run struct {
		client  *Client
		plan    string
		method  string
		path    string
		query   url.Values
		headers http.Header
		body    []byte
	}

	// Result is the response a plan produced
	Result struct {
		Headers http.Header
		Body    []byte
		Status  int
	}
)

// Run creates a request builder for the named plan. It defaults to a GET
// of the plan's root path
func (c *Client) Run(plan string) *Run {
	return &Run{
		client:  c,
		plan:    plan,
		method:  http.MethodGet,
		path:    "/",
		query:   url.Values{},
		headers: http.Header{},
	}
}

func (r *Run) WithMethod(method string) *Run {
	res := *r
	res.method = method
	return &res
}

// WithPath sets the path below the plan's route
func (r *Run) WithPath(path string) *Run {
	res := *r
	res.path = "/" + strings.TrimPrefix(path, "/")
	return &res
}

func (r *Run) WithQuery(name, value string) *Run {
	res := *r
	res.query = cloneValues(r.query)
	res.query.Set(name, value)
	return &res
}

func (r *Run) WithHeader(name, value string) *Run {
	res := *r
	res.headers = r.headers.Clone()
	res.headers.Set(name, value)
	return &res
}

func (r *Run) WithBody(body []byte) *Run {
	res := *r
	res.body = bytes.Clone(body)
	return &res
}

// WithJSON encodes v as the request body
func (r *Run) WithJSON(v any) (*Run, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return r.WithBody(data).WithHeader("Content-Type", "application/json"),
		nil
}

// WithAccount runs the plan on behalf of an account
func (r *Run) WithAccount(id, name string) *Run {
	return r.WithHeader(api.HeaderAccountID, id).
		WithHeader(api.HeaderAccountName, name)
}

func (r *Run) WithTransaction(id string) *Run {
	return r.WithHeader(api.HeaderTransactionID, id)
}

// WithRoles grants access roles to the execution
func (r *Run) WithRoles(roles ...string) *Run {
	return r.WithHeader(api.HeaderAccessRoles, strings.Join(roles, ","))
}

// Execute sends the request. Every HTTP response, including a reported plan
// failure, is a Result; only transport failures are returned as errors
func (r *Run) Execute(ctx context.Context) (*Result, error) {
	target := r.client.url("%s/%s%s",
		routeRun, url.PathEscape(r.plan), r.path)
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(
		ctx, r.method, target, bytes.NewReader(r.body),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRunPlan, err)
	}
	req.Header = r.headers.Clone()

	resp, err := r.client.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRunPlan, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRunPlan, err)
	}
	return &Result{
		Status:  resp.StatusCode,
		Headers: resp.Header,
		Body:    body,
	}, nil
}

// Decode unmarshals a JSON body into v
func (r *Result) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

func cloneValues(v url.Values) url.Values {
	res := make(url.Values, len(v))
	for k, vals := range v {
		res[k] = append([]string(nil), vals...)
	}
	return res
}
