package shopsense

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shopsense/shopsense/internal/domain"
	"github.com/shopsense/shopsense/internal/domain/product"
	"github.com/shopsense/shopsense/internal/domain/search/request"
	"github.com/shopsense/shopsense/internal/index"
	"github.com/shopsense/shopsense/internal/index/linear"
	"github.com/shopsense/shopsense/internal/index/redisearch"
	catalogrepo "github.com/shopsense/shopsense/internal/repository/catalog"
	cataloguc "github.com/shopsense/shopsense/internal/usecase/catalog"
	healthuc "github.com/shopsense/shopsense/internal/usecase/health"
	"github.com/shopsense/shopsense/internal/usecase/indexer"
	"github.com/shopsense/shopsense/internal/usecase/parser"
	searchuc "github.com/shopsense/shopsense/internal/usecase/search"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultTFIDFDimensions  = 256
)

// Internal interfaces so tests can substitute the use case services.
type catalogUseCase interface {
	List(skip, limit int) ([]product.Product, int, error)
	Get(id string) (product.Product, error)
	FilterOptions() (catalogrepo.Options, error)
}

type searchUseCase interface {
	Query(ctx context.Context, req request.Request) (searchuc.Response, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

type reloader interface {
	Rebuild(ctx context.Context) error
}

// Client is the shopsense embedded client entry point.
type Client struct {
	redis      *redisearch.Client
	catalogSvc catalogUseCase
	searchSvc  searchUseCase
	healthSvc  healthUseCase
	reloader   reloader
	obs        *observer
}

// New creates a shopsense Client, loads the catalog, and builds the initial
// snapshot. The provided context covers the readiness check and the build.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.catalogPath == "" {
		return nil, errors.New("shopsense: catalog path required (use WithCatalogFile)")
	}
	if cfg.vectorDimensions <= 0 {
		cfg.vectorDimensions = defaultTFIDFDimensions
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	var redisClient *redisearch.Client
	var builder index.Builder = linear.Builder{}
	if len(cfg.redisAddrs) > 0 {
		redisClient, err = redisearch.NewClient(redisearch.Config{
			Addrs:     cfg.redisAddrs,
			Password:  cfg.redisPassword,
			KeyPrefix: cfg.keyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("shopsense: create redis client: %w", err)
		}
		if err := redisClient.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			redisClient.Close()
			return nil, fmt.Errorf("shopsense: redis not ready: %w", err)
		}
		builder = redisearch.NewBuilder(redisClient)
	}

	client, err := wireClient(ctx, cfg, redisClient, builder, obs)
	if err != nil {
		if redisClient != nil {
			redisClient.Close()
		}
		return nil, err
	}
	return client, nil
}

func wireClient(
	ctx context.Context,
	cfg *clientConfig,
	redisClient *redisearch.Client,
	builder index.Builder,
	obs *observer,
) (*Client, error) {
	var factory indexer.EmbedderFactory
	if cfg.embedder != nil {
		factory = indexer.NewStaticFactory(adaptEmbedder(cfg.embedder), cfg.vectorDimensions)
	} else {
		factory = indexer.NewTFIDFFactory(cfg.vectorDimensions)
	}

	idx := indexer.NewService(
		indexer.NewFileSource(cfg.catalogPath),
		catalogrepo.NewLoader(zap.NewNop()),
		factory,
		builder,
		zap.NewNop(),
	)
	if err := idx.Rebuild(ctx); err != nil {
		return nil, fmt.Errorf("shopsense: build catalog snapshot: %w", err)
	}

	catalogSvc := cataloguc.NewService(idx)
	if cfg.defaultPageSize > 0 || cfg.maxPageSize > 0 {
		catalogSvc = catalogSvc.WithPagination(cfg.defaultPageSize, cfg.maxPageSize)
	}
	searchSvc := searchuc.NewService(idx, parser.NewService(zap.NewNop()), zap.NewNop())

	var storePinger healthuc.StorePinger
	if redisClient != nil {
		storePinger = redisClient
	}
	healthSvc := healthuc.New(idx, storePinger, nil)

	return &Client{
		redis:      redisClient,
		catalogSvc: catalogSvc,
		searchSvc:  searchSvc,
		healthSvc:  healthSvc,
		reloader:   idx,
		obs:        obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.redis != nil {
		c.redis.Close()
	}
}

// Products returns the catalog service.
func (c *Client) Products() *ProductService {
	return &ProductService{svc: c.catalogSvc, obs: c.obs}
}

// Search returns the query service.
func (c *Client) Search() *SearchService {
	return &SearchService{svc: c.searchSvc, obs: c.obs}
}

// Reload rebuilds the catalog snapshot from the configured source.
// Queries keep serving the previous snapshot until the rebuild completes.
func (c *Client) Reload(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("reload", start, err) }()

	if err = c.reloader.Rebuild(ctx); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	return nil
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status         string            // "ok", "degraded", "error"
	Checks         map[string]string // component -> "ok"/"error"
	ProductsLoaded int
}

// Health checks the health of all client components.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status:         string(report.Status),
		Checks:         checks,
		ProductsLoaded: report.ProductsLoaded,
	}
}

// adaptEmbedder wraps the public Embedder to satisfy internal domain.Embedder,
// preserving batch support when the inner embedder provides it.
func adaptEmbedder(e Embedder) domain.Embedder {
	base := &embedderAdapter{inner: e}
	if be, ok := e.(BatchEmbedder); ok {
		return &batchEmbedderAdapter{embedderAdapter: base, batch: be}
	}
	return base
}

type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

type batchEmbedderAdapter struct {
	*embedderAdapter
	batch BatchEmbedder
}

func (a *batchEmbedderAdapter) BatchEmbed(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	r, err := a.batch.BatchEmbed(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
	}
	return domain.BatchEmbeddingResult{
		Embeddings:   r.Embeddings,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}
