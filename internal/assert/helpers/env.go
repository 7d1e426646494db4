package helpers

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"

	"github.com/kode4food/bizunit/internal/block"
	"github.com/kode4food/bizunit/internal/blocks"
	"github.com/kode4food/bizunit/internal/config"
	"github.com/kode4food/bizunit/internal/events"
	"github.com/kode4food/bizunit/internal/plan"
	"github.com/kode4food/bizunit/internal/plan/execopt"
	"github.com/kode4food/bizunit/internal/script"
	"github.com/kode4food/bizunit/internal/session"
	"github.com/kode4food/bizunit/internal/store/keyvalue"
	"github.com/kode4food/bizunit/internal/store/object"
	"github.com/kode4food/bizunit/internal/store/relational"
	"github.com/kode4food/bizunit/pkg/api"
	"github.com/kode4food/bizunit/pkg/log"
)

// TestEnv holds every collaborator a plan execution may need, backed by
// in-memory implementations
type TestEnv struct {
	Registry *block.Registry
	Manager  *plan.Manager
	Deps     *session.Dependencies
	Redis    *miniredis.Miniredis
	SQL      *relational.SQLStore
	Objects  *object.BlobStore
	HTTP     *MockClient
	Hub      *events.Hub
	Config   *config.Config
}

const testScriptCache = 64

// NewTestConfig creates a default configuration with debug logging enabled
func NewTestConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.LogLevel = "debug"
	cfg.PlanBucketURL = "mem://"
	cfg.HTTPTimeout = 2 * time.Second
	return cfg
}

// NewTestEnv creates a test environment with miniredis, in-memory sqlite,
// an in-memory bucket and a mock HTTP client. Everything is released when
// the test ends
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	server := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = rc.Close() })

	db, err := sql.Open(relational.DefaultDriver, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	sqlStore := relational.NewSQL(db)

	objects := object.NewBlob(memblob.OpenBucket(nil), "")
	t.Cleanup(func() { _ = objects.Close() })

	hub := events.NewHub()
	t.Cleanup(hub.Close)

	mock := NewMockClient()
	reg := blocks.NewRegistry()

	return &TestEnv{
		Registry: reg,
		Manager:  plan.NewManager(reg),
		Deps: &session.Dependencies{
			Logger:  log.Discard(),
			Events:  hub,
			KV:      keyvalue.NewRedis(rc, "test"),
			SQL:     sqlStore,
			Objects: objects,
			HTTP:    mock,
			Scripts: script.NewRegistry(testScriptCache),
		},
		Redis:   server,
		SQL:     sqlStore,
		Objects: objects,
		HTTP:    mock,
		Hub:     hub,
		Config:  NewTestConfig(),
	}
}

// Session creates a session for one execution of a test request
func (e *TestEnv) Session(
	t *testing.T, apps ...execopt.Applier,
) *session.Storage {
	t.Helper()
	return e.RequestSession(t, &api.Request{Method: "GET", Path: "/"}, apps...)
}

// RequestSession creates a session for one execution of req
func (e *TestEnv) RequestSession(
	t *testing.T, req *api.Request, apps ...execopt.Applier,
) *session.Storage {
	t.Helper()
	st, err := session.New(e.Deps, req, execopt.DefaultOptions(apps...))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close(false) })
	return st
}

// Load resolves a template through the test registry
func (e *TestEnv) Load(t *testing.T, tmpl *api.Template) block.Block {
	t.Helper()
	b, err := e.Registry.Load(tmpl)
	require.NoError(t, err)
	return b
}

// Exec loads and evaluates each template in order within a fresh session,
// returning the result of the last
func (e *TestEnv) Exec(t *testing.T, tmpls ...*api.Template) (any, error) {
	t.Helper()
	return e.ExecIn(t, e.Session(t), tmpls...)
}

// ExecIn loads and evaluates each template in order within st
func (e *TestEnv) ExecIn(
	t *testing.T, st *session.Storage, tmpls ...*api.Template,
) (any, error) {
	t.Helper()
	var res any
	for _, tmpl := range tmpls {
		var err error
		res, err = block.Eval(context.Background(), st, e.Load(t, tmpl))
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Executor loads doc and creates an executor for it
func (e *TestEnv) Executor(
	t *testing.T, doc *api.Document, apps ...execopt.Applier,
) *plan.Executor {
	t.Helper()
	p, err := e.Manager.Load(doc)
	require.NoError(t, err)
	ex, err := plan.NewExecutor(p, e.Deps, apps...)
	require.NoError(t, err)
	return ex
}
