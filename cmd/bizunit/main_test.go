package main

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/bizunit/internal/config"
	"github.com/kode4food/bizunit/pkg/log"
)

func testApp(cfg *config.Config) *bizunit {
	return &bizunit{
		cfg:    cfg,
		logger: log.Discard(),
		quit:   make(chan os.Signal, 1),
	}
}

func TestInitializeWithoutCollaborators(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.PlanBucketURL = "mem://"
	s := testApp(cfg)
	defer s.closeStores()

	ctx := context.Background()
	require.NoError(t, s.initializeStores(ctx))
	require.NoError(t, s.initializeEngine(ctx))

	deps := s.dependencies()
	assert.Nil(t, deps.KV)
	assert.Nil(t, deps.SQL)
	assert.Nil(t, deps.Objects)
	assert.NotNil(t, deps.HTTP)
	assert.NotNil(t, deps.Scripts)
	assert.NotNil(t, s.apiServer)
}

func TestInitializeWithCollaborators(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.PlanBucketURL = "mem://"
	cfg.SQLDSN = ":memory:"
	cfg.ObjectBucketURL = "mem://"
	s := testApp(cfg)
	defer s.closeStores()

	ctx := context.Background()
	require.NoError(t, s.initializeStores(ctx))
	require.NoError(t, s.initializeEngine(ctx))

	deps := s.dependencies()
	assert.NotNil(t, deps.SQL)
	assert.NotNil(t, deps.Objects)
	assert.Nil(t, deps.KV)
}

func TestInitializeStoreError(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.KV.Addr = "127.0.0.1:0"
	s := testApp(cfg)
	defer s.closeStores()

	err := s.initializeStores(context.Background())
	assert.ErrorIs(t, err, ErrCreateKVStore)
}

func TestInitializeCatalogError(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.PlanBucketURL = "nosuchscheme://bucket"
	s := testApp(cfg)
	defer s.closeStores()

	err := s.initializeEngine(context.Background())
	assert.ErrorIs(t, err, ErrCreateCatalog)
}
