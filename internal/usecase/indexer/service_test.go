package indexer

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/shopsense/shopsense/internal/domain"
	"github.com/shopsense/shopsense/internal/index/linear"
	"github.com/shopsense/shopsense/internal/repository/catalog"
)

const testHeader = "uniq_id\tproduct_name\tproduct_category_tree\tretail_price\tdiscounted_price\timage\tdescription\tbrand\tproduct_specifications"

// memorySource serves in-memory TSV data, one snapshot of rows per Open.
type memorySource struct {
	mu   sync.Mutex
	rows []string
	err  error
}

func (m *memorySource) Open() (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	src := strings.Join(append([]string{testHeader}, m.rows...), "\n")
	return io.NopCloser(strings.NewReader(src)), nil
}

func (m *memorySource) setRows(rows []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = rows
}

func tsvRow(id, name, category, price, description, brand string) string {
	return id + "\t" + name + "\t" +
		`["` + category + `"]` + "\t" +
		price + "\t" + price + "\t[]\t" +
		description + "\t" + brand + "\t"
}

func newTestService(src Source) *Service {
	return NewService(
		src,
		catalog.NewLoader(zap.NewNop()),
		NewTFIDFFactory(64),
		linear.Builder{},
		zap.NewNop(),
	)
}

func TestCurrent_BeforeFirstRebuild(t *testing.T) {
	svc := newTestService(&memorySource{})

	_, err := svc.Current()
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable, got %v", err)
	}
}

func TestRebuild_PublishesSnapshot(t *testing.T) {
	src := &memorySource{rows: []string{
		tsvRow("s1", "White Shirt", "Clothing >> Shirts", "550", "a crisp white shirt", "Zara"),
		tsvRow("s2", "Red Shirt", "Clothing >> Shirts", "650", "a bold red shirt", "Zara"),
	}}
	svc := newTestService(src)

	if err := svc.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	snap, err := svc.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if snap.Catalog.Len() != 2 {
		t.Errorf("expected 2 products, got %d", snap.Catalog.Len())
	}
	if snap.Index == nil || snap.Embedder == nil {
		t.Error("snapshot must carry an index and an embedder")
	}
	if snap.BuiltAt.IsZero() {
		t.Error("snapshot must record its build time")
	}
}

func TestRebuild_EmptyCatalog(t *testing.T) {
	svc := newTestService(&memorySource{})

	if err := svc.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild on empty catalog: %v", err)
	}

	snap, err := svc.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if snap.Catalog.Len() != 0 {
		t.Errorf("expected empty catalog, got %d products", snap.Catalog.Len())
	}
}

func TestRebuild_FailureKeepsPreviousSnapshot(t *testing.T) {
	src := &memorySource{rows: []string{
		tsvRow("s1", "White Shirt", "Clothing", "550", "white shirt", "Zara"),
	}}
	svc := newTestService(src)

	if err := svc.Rebuild(context.Background()); err != nil {
		t.Fatalf("initial Rebuild: %v", err)
	}
	before, _ := svc.Current()

	src.mu.Lock()
	src.err = errors.New("source gone")
	src.mu.Unlock()

	if err := svc.Rebuild(context.Background()); err == nil {
		t.Fatal("expected rebuild failure")
	}

	after, err := svc.Current()
	if err != nil {
		t.Fatalf("Current after failed rebuild: %v", err)
	}
	if after != before {
		t.Error("failed rebuild must keep the previous snapshot")
	}
}

func TestRebuild_SwapsSnapshotAtomically(t *testing.T) {
	src := &memorySource{rows: []string{
		tsvRow("s1", "White Shirt", "Clothing", "550", "white shirt", "Zara"),
	}}
	svc := newTestService(src)

	if err := svc.Rebuild(context.Background()); err != nil {
		t.Fatalf("initial Rebuild: %v", err)
	}
	old, _ := svc.Current()

	// A query holding the old snapshot keeps a consistent view across reload.
	src.setRows([]string{
		tsvRow("s2", "Red Shirt", "Clothing", "650", "red shirt", "Zara"),
		tsvRow("s3", "Blue Shirt", "Clothing", "750", "blue shirt", "Zara"),
	})
	if err := svc.Rebuild(context.Background()); err != nil {
		t.Fatalf("second Rebuild: %v", err)
	}

	if old.Catalog.Len() != 1 {
		t.Errorf("old snapshot mutated: %d products", old.Catalog.Len())
	}
	if _, err := old.Catalog.Get("s1"); err != nil {
		t.Errorf("old snapshot lost its product: %v", err)
	}

	fresh, _ := svc.Current()
	if fresh.Catalog.Len() != 2 {
		t.Errorf("expected 2 products in new snapshot, got %d", fresh.Catalog.Len())
	}
	if _, err := fresh.Catalog.Get("s1"); err == nil {
		t.Error("new snapshot must not contain the removed product")
	}
}

func TestStaticFactory_IgnoresCorpus(t *testing.T) {
	inner := &fixedEmbedder{vec: []float32{1, 0}}
	f := NewStaticFactory(inner, 2)

	emb, dim, err := f.Fit(context.Background(), []string{"anything"})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if emb != domain.Embedder(inner) {
		t.Error("expected the wrapped embedder back")
	}
	if dim != 2 {
		t.Errorf("expected dim 2, got %d", dim)
	}
}

type fixedEmbedder struct {
	vec []float32
}

func (f *fixedEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: f.vec}, nil
}
