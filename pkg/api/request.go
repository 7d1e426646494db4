package api

import "strings"

type (
	// Request is the snapshot of the inbound request that triggered a plan
	// execution. It is taken once and never changes during the execution
	Request struct {
		Method     string            `json:"method"`
		Path       string            `json:"path"`
		Params     map[string]string `json:"params,omitempty"`
		Query      map[string]string `json:"query,omitempty"`
		Headers    map[string]string `json:"headers,omitempty"`
		Body       string            `json:"body,omitempty"`
		RemoteAddr string            `json:"remote_addr,omitempty"`
	}

	// Response is the HTTP-shaped result of a plan execution
	Response struct {
		Headers map[string]string `json:"headers"`
		Body    any               `json:"body"`
		Status  int               `json:"status"`
	}
)

// RequestStorageKey is the operator storage key reserved for the inbound
// request snapshot
const RequestStorageKey = "request"

// DefaultStatus is the status returned by a plan that never responds
const DefaultStatus = 200

// NewResponse creates a response with the default status and no headers
func NewResponse() *Response {
	return &Response{
		Status:  DefaultStatus,
		Headers: map[string]string{},
	}
}

// Header performs a case-insensitive lookup of a request header
func (r *Request) Header(name string) (string, bool) {
	if v, ok := r.Headers[name]; ok {
		return v, true
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}
