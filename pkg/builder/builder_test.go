package builder_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

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
	"github.com/kode4food/bizunit/pkg/builder"
	"github.com/kode4food/bizunit/pkg/log"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testClient(t *testing.T) *builder.Client {
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
	ts := httptest.NewServer(srv.SetupRoutes())
	t.Cleanup(ts.Close)
	return builder.NewClient(ts.URL, 5*time.Second)
}

func respond(status int64, body *api.Template) *api.Template {
	return api.NewTemplate(response.Type, response.ActionRespond).
		WithBlock(response.SlotStatus, h.Int(status)).
		WithBlock(response.SlotBody, body)
}

func TestPlanBuilderImmutable(t *testing.T) {
	c := builder.NewClient("http://localhost", time.Second)
	base := c.NewPlan("orders").Then(respond(200, h.Str("a")))
	versioned := base.WithVersion("2").WithInfo("owner", "billing")
	longer := base.Then(respond(201, h.Str("b")))

	assert.Equal(t, "orders", base.Name())
	assert.Empty(t, base.Document().Plan.Version)
	assert.Nil(t, base.Document().Plan.Info)
	assert.Len(t, base.Document().Plan.Flow.Sequence, 1)

	doc := versioned.Document()
	assert.Equal(t, "2", doc.Plan.Version)
	assert.Equal(t, "billing", doc.Plan.Info["owner"])
	assert.Len(t, longer.Document().Plan.Flow.Sequence, 2)

	other := versioned.WithInfo("team", "core")
	assert.NotContains(t, versioned.Document().Plan.Info, "team")
	assert.Contains(t, other.Document().Plan.Info, "team")
}

func TestPlanManagement(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()

	doc, err := c.NewPlan("orders").
		WithVersion("7").
		Then(h.Let("x", h.Int(1))...).
		Put(ctx)
	require.NoError(t, err)
	assert.Equal(t, "7", doc.Plan.Version)
	assert.Len(t, doc.Plan.Flow.Sequence, 2)

	names, err := c.ListPlans(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"orders"}, names)

	got, err := c.GetPlan(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, "7", got.Plan.Version)

	require.NoError(t, c.DeletePlan(ctx, "orders"))

	_, err = c.GetPlan(ctx, "orders")
	assert.ErrorIs(t, err, builder.ErrGetPlan)
	var se *builder.ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Status)

	err = c.DeletePlan(ctx, "orders")
	assert.ErrorIs(t, err, builder.ErrDeletePlan)
}

func TestPutInvalidPlan(t *testing.T) {
	c := testClient(t)
	_, err := c.NewPlan("bad").
		Then(api.NewTemplate("nope", "x")).
		Put(context.Background())
	assert.ErrorIs(t, err, builder.ErrPutPlan)

	var se *builder.ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnprocessableEntity, se.Status)
	assert.NotEmpty(t, se.ErrorResponse.Error)
}

func TestNormalize(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()
	doc := c.NewPlan("scratch").Then(h.Let("x", h.Int(1))...).Document()

	res, err := c.Normalize(ctx, doc)
	require.NoError(t, err)
	assert.Len(t, res.Plan.Flow.Sequence, 2)

	names, err := c.ListPlans(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestRunPlan(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()

	echo := api.NewTemplate("hashmap", "create").
		WithMap("entries", map[string]*api.Template{
			"method": api.NewTemplate(request.Type, request.ActionMethod),
			"path":   api.NewTemplate(request.Type, request.ActionPath),
			"q": h.Block(request.Type, request.ActionQuery, h.Args{
				request.SlotName: h.Str("q"),
			}),
		})
	p := c.NewPlan("echo").Then(respond(200, echo))
	_, err := p.Put(ctx)
	require.NoError(t, err)

	res, err := p.Run().
		WithMethod(http.MethodPost).
		WithPath("items/7").
		WithQuery("q", "find").
		Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.Status)

	var body map[string]string
	require.NoError(t, res.Decode(&body))
	assert.Equal(t, map[string]string{
		"method": "POST",
		"path":   "/items/7",
		"q":      "find",
	}, body)
}

func TestRunAccess(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()

	p := c.NewPlan("secure").Then(
		h.Block(meta.Type, meta.ActionRequireRole, h.Args{
			meta.SlotRole: h.Str("admin"),
		}),
		respond(200, api.NewTemplate(meta.Type, meta.ActionAccount)),
	)
	_, err := p.Put(ctx)
	require.NoError(t, err)

	res, err := p.Run().Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, res.Status)

	var failure api.ErrorResponse
	require.NoError(t, res.Decode(&failure))
	assert.NotEmpty(t, failure.Error)

	res, err = p.Run().
		WithRoles("reader", "admin").
		WithAccount("acct-1", "Acme").
		Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.JSONEq(t, `{"id":"acct-1","name":"Acme"}`, string(res.Body))
}

func TestRunJSONBody(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()

	p := c.NewPlan("body").Then(
		respond(200, api.NewTemplate(request.Type, request.ActionBody)),
	)
	_, err := p.Put(ctx)
	require.NoError(t, err)

	run, err := p.Run().
		WithMethod(http.MethodPost).
		WithJSON(map[string]int{"n": 1})
	require.NoError(t, err)

	res, err := run.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.JSONEq(t, `"{\"n\":1}"`, string(res.Body))
}

func TestRunMissingPlan(t *testing.T) {
	c := testClient(t)
	res, err := c.Run("ghost").Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.Status)
}

func TestRunTransportFailure(t *testing.T) {
	c := builder.NewClient("http://127.0.0.1:0", time.Second)
	_, err := c.Run("any").Execute(context.Background())
	assert.ErrorIs(t, err, builder.ErrRunPlan)
}
