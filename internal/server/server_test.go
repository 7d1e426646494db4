package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"

	h "github.com/kode4food/bizunit/internal/assert/helpers"
	"github.com/kode4food/bizunit/internal/blocks/meta"
	"github.com/kode4food/bizunit/internal/blocks/request"
	"github.com/kode4food/bizunit/internal/blocks/response"
	"github.com/kode4food/bizunit/internal/catalog"
	"github.com/kode4food/bizunit/internal/server"
	"github.com/kode4food/bizunit/pkg/api"
	"github.com/kode4food/bizunit/pkg/log"
)

type testServerEnv struct {
	*h.TestEnv
	Server  *server.Server
	Catalog *catalog.Catalog
	Router  *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
}

func testServer(t *testing.T) *testServerEnv {
	t.Helper()
	env := h.NewTestEnv(t)
	cat := catalog.New(
		memblob.OpenBucket(nil), env.Config, env.Manager, env.Deps,
	)
	t.Cleanup(func() { _ = cat.Close() })

	srv := server.NewServer(server.Dependencies{
		Catalog:  cat,
		Manager:  env.Manager,
		Registry: env.Registry,
		Hub:      env.Hub,
		Logger:   log.Discard(),
	})
	return &testServerEnv{
		TestEnv: env,
		Server:  srv,
		Catalog: cat,
		Router:  srv.SetupRoutes(),
	}
}

func (e *testServerEnv) do(
	method, path string, body []byte, headers ...string,
) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

func (e *testServerEnv) put(
	t *testing.T, name string, doc *api.Document,
) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(doc)
	require.NoError(t, err)
	return e.do("PUT", "/plan/"+name, body)
}

func respond(status int64, body *api.Template) *api.Template {
	res := api.NewTemplate(response.Type, response.ActionRespond).
		WithBlock(response.SlotStatus, h.Int(status))
	if body != nil {
		res.WithBlock(response.SlotBody, body)
	}
	return res
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var res T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func TestHealthEndpoint(t *testing.T) {
	env := testServer(t)
	w := env.do("GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	res := decode[api.HealthResponse](t, w)
	assert.Equal(t, "bizunit", res.Service)
	assert.Equal(t, "healthy", res.Status)
}

func TestBlocksEndpoint(t *testing.T) {
	env := testServer(t)
	w := env.do("GET", "/blocks", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	res := decode[api.BlocksResponse](t, w)
	assert.Contains(t, res.Blocks["control"], "for")
	assert.Equal(t, []string{"ale", "lua"}, res.Blocks["script"])
}

func TestCORSPreflight(t *testing.T) {
	env := testServer(t)
	w := env.do("OPTIONS", "/plan", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestPlanLifecycle(t *testing.T) {
	env := testServer(t)
	doc := api.NewDocument(respond(201, h.Str("made")))
	doc.Plan.Version = "2"

	w := env.put(t, "orders", doc)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", decode[api.NormalizeResponse](t, w).Version)

	w = env.do("GET", "/plan", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	list := decode[api.PlanListResponse](t, w)
	assert.Equal(t, []string{"orders"}, list.Plans)
	assert.Equal(t, 1, list.Count)

	w = env.do("GET", "/plan/orders", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	got := decode[api.Document](t, w)
	assert.Len(t, got.Plan.Flow.Sequence, 1)

	w = env.do("POST", "/run/orders", nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `"made"`, w.Body.String())

	w = env.do("DELETE", "/plan/orders", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do("DELETE", "/plan/orders", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do("GET", "/run/orders", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPutPlanErrors(t *testing.T) {
	env := testServer(t)

	w := env.do("PUT", "/plan/bad", []byte(`{"plan":`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("PUT", "/plan/bad", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.put(t, "bad", api.NewDocument(api.NewTemplate("nope", "x")))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.put(t, "bad.name", api.NewDocument())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNormalizeEndpoint(t *testing.T) {
	env := testServer(t)
	doc := api.NewDocument(h.Let("x", h.Int(1))...)
	body, err := json.Marshal(doc)
	require.NoError(t, err)

	w := env.do("POST", "/plan/normalize", body)
	assert.Equal(t, http.StatusOK, w.Code)
	res := decode[api.NormalizeResponse](t, w)
	assert.Len(t, res.Document.Plan.Flow.Sequence, 2)

	w = env.do("GET", "/plan", nil)
	assert.Empty(t, decode[api.PlanListResponse](t, w).Plans)
}

func TestRunRequestSnapshot(t *testing.T) {
	env := testServer(t)
	echo := api.NewTemplate("hashmap", "create").
		WithMap("entries", map[string]*api.Template{
			"method": api.NewTemplate(request.Type, request.ActionMethod),
			"path":   api.NewTemplate(request.Type, request.ActionPath),
			"body":   api.NewTemplate(request.Type, request.ActionBody),
			"q": h.Block(request.Type, request.ActionQuery, h.Args{
				request.SlotName: h.Str("q"),
			}),
			"plan": h.Block(request.Type, request.ActionParam, h.Args{
				request.SlotName: h.Str("plan"),
			}),
		})
	require.Equal(t, http.StatusOK,
		env.put(t, "echo", api.NewDocument(respond(200, echo))).Code,
	)

	w := env.do("POST", "/run/echo/items/7?q=find", []byte("payload"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"method": "POST",
		"path": "/items/7",
		"body": "payload",
		"q": "find",
		"plan": "echo"
	}`, w.Body.String())

	w = env.do("GET", "/run/echo", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"path":"/"`)
}

func TestRunTextBody(t *testing.T) {
	env := testServer(t)
	tmpl := respond(200, h.Str("plain words")).
		WithBlock(response.SlotHeaders, h.Map(map[string]*api.Template{
			"Content-Type": h.Str("text/plain"),
		}))
	require.Equal(t, http.StatusOK,
		env.put(t, "text", api.NewDocument(tmpl)).Code,
	)

	w := env.do("GET", "/run/text", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "plain words", w.Body.String())
	assert.Equal(t, "text/plain", w.Header().Get("Content-Type"))
}

func TestRunFailure(t *testing.T) {
	env := testServer(t)
	doc := api.NewDocument(
		h.Get("missing").WithExtra(api.Extra{"id": "b1"}),
	)
	require.Equal(t, http.StatusOK, env.put(t, "fails", doc).Code)

	w := env.do("GET", "/run/fails", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	res := decode[api.ErrorResponse](t, w)
	assert.Equal(t, "variable", res.Type)
	assert.Equal(t, "get", res.Action)
	assert.Equal(t, api.Extra{"id": "b1"}, res.Extra)
	assert.Contains(t, res.Error, "not found")
}

func TestRunAccessHeaders(t *testing.T) {
	env := testServer(t)
	doc := api.NewDocument(
		h.Block(meta.Type, meta.ActionRequireRole, h.Args{
			meta.SlotRole: h.Str("admin"),
		}),
		respond(200, api.NewTemplate(meta.Type, meta.ActionAccount)),
	)
	require.Equal(t, http.StatusOK, env.put(t, "secure", doc).Code)

	w := env.do("GET", "/run/secure", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do("GET", "/run/secure", nil,
		server.HeaderAccessRoles, "reader, admin",
		server.HeaderAccountID, "acct-1",
		server.HeaderAccountName, "Acme",
	)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"acct-1","name":"Acme"}`, w.Body.String())
}

func TestRunInvalidName(t *testing.T) {
	env := testServer(t)
	w := env.do("GET", "/run/bad.name", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
