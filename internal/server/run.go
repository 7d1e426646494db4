package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/bizunit/internal/plan/execopt"
	"github.com/kode4food/bizunit/pkg/api"
)

const (
	HeaderAccountID     = api.HeaderAccountID
	HeaderAccountName   = api.HeaderAccountName
	HeaderTransactionID = api.HeaderTransactionID
	HeaderAccessRoles   = api.HeaderAccessRoles
)

const (
	headerContentType = "Content-Type"
	maxBodySize       = 10 << 20
)

func (s *Server) runPlan(c *gin.Context) {
	ctx := c.Request.Context()
	ex, err := s.Catalog.Executor(ctx, c.Param("plan"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	req, err := snapshotRequest(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	res, err := ex.Execute(ctx, req, callOptions(c.Request)...)
	if err != nil {
		s.writeError(c, err)
		return
	}
	writeResponse(c, res)
}

// snapshotRequest captures the inbound request. Repeated query parameters
// and headers keep their first value
func snapshotRequest(c *gin.Context) (*api.Request, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodySize))
	if err != nil {
		return nil, ErrInvalidBody
	}

	path := c.Param("path")
	if path == "" {
		path = "/"
	}

	req := &api.Request{
		Method:     c.Request.Method,
		Path:       path,
		Params:     map[string]string{},
		Query:      map[string]string{},
		Headers:    map[string]string{},
		Body:       string(body),
		RemoteAddr: c.ClientIP(),
	}
	for _, p := range c.Params {
		if p.Key != "path" {
			req.Params[p.Key] = p.Value
		}
	}
	for k, v := range c.Request.URL.Query() {
		req.Query[k] = v[0]
	}
	for k, v := range c.Request.Header {
		req.Headers[k] = v[0]
	}
	return req, nil
}

func callOptions(r *http.Request) []execopt.Applier {
	var res []execopt.Applier
	if id := r.Header.Get(HeaderAccountID); id != "" {
		name := r.Header.Get(HeaderAccountName)
		res = append(res, execopt.WithAccount(id, name))
	}
	if id := r.Header.Get(HeaderTransactionID); id != "" {
		res = append(res, execopt.WithTransaction(id))
	}
	if roles := r.Header.Get(HeaderAccessRoles); roles != "" {
		var granted []string
		for _, role := range strings.Split(roles, ",") {
			if role = strings.TrimSpace(role); role != "" {
				granted = append(granted, role)
			}
		}
		res = append(res, execopt.WithAccess(granted...))
	}
	return res
}

// writeResponse sends a plan response. A string body is written verbatim
// when the plan chose a content type; anything else is encoded as JSON
func writeResponse(c *gin.Context, res *api.Response) {
	for k, v := range res.Headers {
		c.Header(k, v)
	}
	if res.Body == nil {
		c.Status(res.Status)
		return
	}
	if s, ok := res.Body.(string); ok {
		if ct := res.Headers[headerContentType]; ct != "" {
			c.Data(res.Status, ct, []byte(s))
			return
		}
	}
	c.JSON(res.Status, res.Body)
}
