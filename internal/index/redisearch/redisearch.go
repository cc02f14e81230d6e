// Package redisearch is the external similarity index driver: vectors live
// in a Redis FT HNSW index and KNN queries run server-side via FT.SEARCH.
// Each build writes a fresh epoch-scoped index and drops the previous one
// only after the new index is complete, so a snapshot swap never exposes a
// partially built index.
package redisearch

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/redis/rueidis"

	"github.com/shopsense/shopsense/internal/domain"
	"github.com/shopsense/shopsense/internal/domain/search/result"
	"github.com/shopsense/shopsense/internal/index"
)

// hsetBatchSize caps the number of HSET commands pipelined per round trip.
const hsetBatchSize = 200

// allowedOversample widens the KNN window when an allowed-id post-filter is
// applied, so enough survivors remain after filtering.
const allowedOversample = 4

// Config holds connection parameters for the redisearch driver.
type Config struct {
	Addrs     []string
	Password  string
	KeyPrefix string
}

// Client wraps a rueidis connection with the configured key prefix.
type Client struct {
	client rueidis.Client
	prefix string
}

// NewClient connects to Redis via rueidis.
func NewClient(cfg Config) (*Client, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Password:     cfg.Password,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH result parsing expects RESP2 array format
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "shopsense:"
	}

	return &Client{client: client, prefix: prefix}, nil
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	cmd := c.client.B().Ping().Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (c *Client) Close() {
	c.client.Close()
}

// WaitForReady polls Ping until Redis responds or the timeout expires.
func (c *Client) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for redis: %w", ctx.Err())
		case <-ticker.C:
			if err := c.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// Get reads a cached value. The second return is false on a miss.
func (c *Client) Get(ctx context.Context, key string) ([]byte, bool, error) {
	cmd := c.client.B().Get().Key(key).Build()
	data, err := c.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("GET %s: %w", key, err)
	}
	return data, true, nil
}

// Set writes a cached value.
func (c *Client) Set(ctx context.Context, key string, value []byte) error {
	cmd := c.client.B().Set().Key(key).Value(rueidis.BinaryString(value)).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("SET %s: %w", key, err)
	}
	return nil
}

// Builder builds epoch-scoped FT vector indexes.
type Builder struct {
	client    *Client
	prevEpoch string
}

var _ index.Builder = (*Builder)(nil)

// NewBuilder creates a redisearch index builder.
func NewBuilder(client *Client) *Builder {
	return &Builder{client: client}
}

// Build writes all vectors under a new epoch prefix, creates the FT index
// over it, and drops the previous epoch. Returns the searchable index bound
// to the new epoch.
func (b *Builder) Build(
	ctx context.Context, dim int, vectors map[string][]float32,
) (index.Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dim)
	}

	epoch := strconv.FormatInt(time.Now().UnixNano(), 36)
	idx := &Search{
		client:    b.client,
		indexName: b.client.prefix + "products:" + epoch,
		keyPrefix: b.client.prefix + "product:" + epoch + ":",
		dim:       dim,
	}

	if err := b.createIndex(ctx, idx); err != nil {
		return nil, err
	}
	if err := b.upsertVectors(ctx, idx, vectors); err != nil {
		return nil, err
	}

	// Drop the previous epoch only after the new one is fully built.
	if b.prevEpoch != "" {
		b.dropEpoch(ctx, b.prevEpoch)
	}
	b.prevEpoch = epoch

	return idx, nil
}

func (b *Builder) createIndex(ctx context.Context, idx *Search) error {
	cmd := b.client.client.B().Arbitrary("FT.CREATE").Args(
		idx.indexName,
		"ON", "HASH",
		"PREFIX", "1", idx.keyPrefix,
		"SCHEMA",
		"vector", "VECTOR", "HNSW", "6",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(idx.dim),
		"DISTANCE_METRIC", "COSINE",
	).Build()
	if err := b.client.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("FT.CREATE %s: %w", idx.indexName, err)
	}
	return nil
}

func (b *Builder) upsertVectors(
	ctx context.Context, idx *Search, vectors map[string][]float32,
) error {
	cmds := make([]rueidis.Completed, 0, hsetBatchSize)
	flush := func() error {
		if len(cmds) == 0 {
			return nil
		}
		for _, resp := range b.client.client.DoMulti(ctx, cmds...) {
			if err := resp.Error(); err != nil {
				return fmt.Errorf("HSET vector: %w", err)
			}
		}
		cmds = cmds[:0]
		return nil
	}

	for id, vec := range vectors {
		if len(vec) != idx.dim {
			return fmt.Errorf("vector for %q has dimension %d, want %d: %w",
				id, len(vec), idx.dim, domain.ErrVectorDimMismatch)
		}
		cmd := b.client.client.B().Hset().Key(idx.keyPrefix + id).
			FieldValue().
			FieldValue("id", id).
			FieldValue("vector", vectorToBlob(vec)).
			Build()
		cmds = append(cmds, cmd)
		if len(cmds) == hsetBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

// dropEpoch removes the old index together with its documents (DD).
// Best effort: a failed cleanup never fails the build.
func (b *Builder) dropEpoch(ctx context.Context, epoch string) {
	name := b.client.prefix + "products:" + epoch
	cmd := b.client.client.B().Arbitrary("FT.DROPINDEX").Args(name, "DD").Build()
	_ = b.client.client.Do(ctx, cmd).Error()
}

// Search is a KNN query handle bound to one index epoch.
type Search struct {
	client    *Client
	indexName string
	keyPrefix string
	dim       int
}

var _ index.Index = (*Search)(nil)

// Query runs FT.SEARCH KNN and post-filters by the allowed set. Cosine
// distance from Redis is converted back to similarity (1 - distance).
func (s *Search) Query(
	ctx context.Context, vector []float32, topK int, allowed map[string]struct{},
) ([]result.Result, error) {
	if topK <= 0 {
		return nil, nil
	}
	if len(vector) != s.dim {
		return nil, fmt.Errorf("query vector has dimension %d, want %d: %w",
			len(vector), s.dim, domain.ErrVectorDimMismatch)
	}

	k := topK
	if allowed != nil {
		// Post-filtering discards hits outside the allowed set; oversample
		// so enough survivors remain.
		k = topK * allowedOversample
	}

	queryStr := fmt.Sprintf("*=>[KNN %d @vector $BLOB]", k)
	cmd := s.client.client.B().Arbitrary("FT.SEARCH").Args(
		s.indexName, queryStr,
		"RETURN", "2", "id", "__vector_score",
		"SORTBY", "__vector_score",
		"LIMIT", "0", strconv.Itoa(k),
		"PARAMS", "2", "BLOB", vectorToBlob(vector),
		"DIALECT", "2",
	).Build()

	raw, err := s.client.client.Do(ctx, cmd).ToArray()
	if err != nil {
		return nil, fmt.Errorf("FT.SEARCH %s: %w", s.indexName, err)
	}

	hits := parseKNNResult(raw)

	if allowed != nil {
		kept := hits[:0]
		for _, h := range hits {
			if _, ok := allowed[h.ID()]; ok {
				kept = append(kept, h)
			}
		}
		hits = kept
	}

	// Deterministic order: descending score, ascending id on ties.
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score() != hits[j].Score() {
			return hits[i].Score() > hits[j].Score()
		}
		return hits[i].ID() < hits[j].ID()
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// parseKNNResult decodes the RESP2 2-stride reply: [total, key1, fields1, ...].
func parseKNNResult(raw []rueidis.RedisMessage) []result.Result {
	if len(raw) == 0 {
		return nil
	}

	hits := make([]result.Result, 0, (len(raw)-1)/2)
	for i := 1; i+1 < len(raw); i += 2 {
		fieldsArr, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}
		fields := parseFieldPairs(fieldsArr)

		id := fields["id"]
		if id == "" {
			continue
		}

		score := 0.0
		if distStr, ok := fields["__vector_score"]; ok {
			if dist, err := strconv.ParseFloat(distStr, 64); err == nil {
				score = 1 - dist // cosine distance -> similarity in [-1, 1]
			}
		}

		hits = append(hits, result.New(id, score))
	}
	return hits
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// vectorToBlob encodes float32s as little-endian bytes for FT vector fields.
func vectorToBlob(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return rueidis.BinaryString(buf)
}
