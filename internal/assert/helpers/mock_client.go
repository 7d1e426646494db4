package helpers

import (
	"context"
	"sync"

	"github.com/kode4food/bizunit/internal/client"
)

// MockClient is a client.Client that returns configured responses by URL
// and records every request
type MockClient struct {
	responses map[string]*client.Response
	errors    map[string]error
	requests  []*client.Request
	mu        sync.Mutex
}

var _ client.Client = (*MockClient)(nil)

// NewMockClient creates a mock HTTP client. Unconfigured URLs answer with
// an empty 200 response
func NewMockClient() *MockClient {
	return &MockClient{
		responses: map[string]*client.Response{},
		errors:    map[string]error{},
	}
}

// Do records the request and returns the configured response or error
func (c *MockClient) Do(
	_ context.Context, req *client.Request,
) (*client.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requests = append(c.requests, req)
	if err, ok := c.errors[req.URL]; ok {
		return nil, err
	}
	if resp, ok := c.responses[req.URL]; ok {
		return resp, nil
	}
	return &client.Response{
		Status:  200,
		Headers: map[string]string{},
	}, nil
}

// SetResponse configures the response returned for url
func (c *MockClient) SetResponse(url string, resp *client.Response) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses[url] = resp
}

// SetError configures the error returned for url
func (c *MockClient) SetError(url string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors[url] = err
}

// Requests returns the requests received so far
func (c *MockClient) Requests() []*client.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := make([]*client.Request, len(c.requests))
	copy(res, c.requests)
	return res
}
