// Package catalog resolves plan names to executors. Plan documents live in
// a gocloud.dev bucket, one JSON object per plan, and loaded executors are
// kept in an LRU cache keyed by the revision of the stored document
package catalog

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kode4food/lru"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/kode4food/bizunit/internal/config"
	"github.com/kode4food/bizunit/internal/plan"
	"github.com/kode4food/bizunit/internal/plan/execopt"
	"github.com/kode4food/bizunit/internal/session"
	"github.com/kode4food/bizunit/pkg/api"

	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

// Catalog stores plan documents and hands out executors for them. It is
// safe for concurrent use
type Catalog struct {
	bucket  *blob.Bucket
	manager *plan.Manager
	deps    *session.Dependencies
	cache   *lru.Cache[*plan.Executor]
	cfg     *config.Config
}

var (
	ErrPlanNotFound = errors.New("plan not found")
	ErrInvalidName  = errors.New("invalid plan name")
	ErrOpenBucket   = errors.New("failed to open plan bucket")
	ErrReadPlan     = errors.New("failed to read plan")
	ErrWritePlan    = errors.New("failed to write plan")
)

// Open opens the plan bucket named by the configuration
func Open(
	ctx context.Context, cfg *config.Config, m *plan.Manager,
	deps *session.Dependencies,
) (*Catalog, error) {
	bucket, err := blob.OpenBucket(ctx, cfg.PlanBucketURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenBucket, err)
	}
	return New(bucket, cfg, m, deps), nil
}

// New creates a catalog over an open bucket. The catalog takes ownership of
// the bucket
func New(
	bucket *blob.Bucket, cfg *config.Config, m *plan.Manager,
	deps *session.Dependencies,
) *Catalog {
	return &Catalog{
		bucket:  bucket,
		manager: m,
		deps:    deps,
		cache:   lru.NewCache[*plan.Executor](cfg.PlanCacheSize),
		cfg:     cfg,
	}
}

// Executor returns the executor for the named plan, loading it when the
// stored revision is not cached yet
func (c *Catalog) Executor(
	ctx context.Context, name string,
) (*plan.Executor, error) {
	key, err := c.keyFor(name)
	if err != nil {
		return nil, err
	}
	attrs, err := c.bucket.Attributes(ctx, key)
	if err != nil {
		return nil, c.readError(name, err)
	}
	return c.cache.Get(revision(name, attrs), func() (*plan.Executor, error) {
		doc, err := c.read(ctx, name, key)
		if err != nil {
			return nil, err
		}
		p, err := c.manager.Load(doc)
		if err != nil {
			return nil, err
		}
		return plan.NewExecutor(p, c.deps,
			execopt.WithPlanID(api.PlanID(name)),
			execopt.WithDebug(c.cfg.Debug),
		)
	})
}

// Document returns the stored document of the named plan
func (c *Catalog) Document(
	ctx context.Context, name string,
) (*api.Document, error) {
	key, err := c.keyFor(name)
	if err != nil {
		return nil, err
	}
	return c.read(ctx, name, key)
}

// Put normalizes doc and stores it under name. A document that fails to
// load is rejected without being written
func (c *Catalog) Put(
	ctx context.Context, name string, doc *api.Document,
) (*api.Document, error) {
	key, err := c.keyFor(name)
	if err != nil {
		return nil, err
	}
	norm, err := c.manager.Normalize(doc)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(norm)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWritePlan, err)
	}
	if err := c.bucket.WriteAll(ctx, key, data, &blob.WriterOptions{
		ContentType: "application/json",
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWritePlan, err)
	}
	return norm, nil
}

// Delete removes the named plan, reporting whether it existed
func (c *Catalog) Delete(ctx context.Context, name string) (bool, error) {
	key, err := c.keyFor(name)
	if err != nil {
		return false, err
	}
	err = c.bucket.Delete(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return false, nil
		}
		return false, fmt.Errorf("%w: %w", ErrWritePlan, err)
	}
	return true, nil
}

// List returns the names of every stored plan, in key order
func (c *Catalog) List(ctx context.Context) ([]string, error) {
	it := c.bucket.List(&blob.ListOptions{Prefix: c.cfg.PlanPrefix})
	res := []string{}
	for {
		obj, err := it.Next(ctx)
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReadPlan, err)
		}
		if obj.IsDir {
			continue
		}
		name := strings.TrimPrefix(obj.Key, c.cfg.PlanPrefix)
		name, ok := strings.CutSuffix(name, config.DefaultPlanExtension)
		if ok && api.PlanID(name).Valid() {
			res = append(res, name)
		}
	}
}

func (c *Catalog) Close() error {
	return c.bucket.Close()
}

func (c *Catalog) read(
	ctx context.Context, name, key string,
) (*api.Document, error) {
	data, err := c.bucket.ReadAll(ctx, key)
	if err != nil {
		return nil, c.readError(name, err)
	}
	return plan.Parse(data)
}

func (c *Catalog) readError(name string, err error) error {
	if gcerrors.Code(err) == gcerrors.NotFound {
		return fmt.Errorf("%w: %s", ErrPlanNotFound, name)
	}
	return fmt.Errorf("%w: %s: %w", ErrReadPlan, name, err)
}

func (c *Catalog) keyFor(name string) (string, error) {
	if !api.PlanID(name).Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return c.cfg.PlanKey(name), nil
}

// revision identifies one stored version of a plan document
func revision(name string, attrs *blob.Attributes) string {
	return name + "@" + hex.EncodeToString(attrs.MD5) + ":" +
		attrs.ETag + ":" + strconv.FormatInt(attrs.ModTime.UnixNano(), 10)
}
