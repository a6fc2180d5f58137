package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/Queneri/catalogotefi/internal/model"
	"github.com/Queneri/catalogotefi/internal/store"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	plainBrand   = Brand{Slug: "anine-bing", Name: "Anine Bing"}
	depositBrand = Brand{Slug: "golden-goose", Name: "Golden Goose", Deposit: true}
)

// fakeStore wraps a MemoryStore with injectable failures and a gate that
// holds updates in flight.
type fakeStore struct {
	*store.MemoryStore

	mu         sync.Mutex
	failUpdate map[uint]error
	failDelete error
	failSelect error
	updates    []uint
	selects    int
	entered    chan uint
	release    chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		MemoryStore: store.NewMemoryStore(),
		failUpdate:  make(map[uint]error),
	}
}

func (s *fakeStore) Select(ctx context.Context, brand string) ([]model.Product, error) {
	s.mu.Lock()
	s.selects++
	err := s.failSelect
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.MemoryStore.Select(ctx, brand)
}

func (s *fakeStore) UpdateByID(ctx context.Context, brand string, id uint, patch model.ProductPatch) error {
	s.mu.Lock()
	s.updates = append(s.updates, id)
	err := s.failUpdate[id]
	entered, release := s.entered, s.release
	s.mu.Unlock()

	if entered != nil {
		entered <- id
	}
	if release != nil {
		<-release
	}
	if err != nil {
		return err
	}
	return s.MemoryStore.UpdateByID(ctx, brand, id, patch)
}

func (s *fakeStore) DeleteByID(ctx context.Context, brand string, id uint) error {
	s.mu.Lock()
	err := s.failDelete
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.MemoryStore.DeleteByID(ctx, brand, id)
}

// hold makes the next updates block until the returned release func is called
func (s *fakeStore) hold() (<-chan uint, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entered = make(chan uint, 16)
	s.release = make(chan struct{})
	return s.entered, func() { close(s.release) }
}

func (s *fakeStore) updateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.updates)
}

func (s *fakeStore) selectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selects
}

type noticeLog struct {
	mu      sync.Mutex
	notices []Notice
}

func (l *noticeLog) Notify(n Notice) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notices = append(l.notices, n)
}

func (l *noticeLog) last() Notice {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.notices) == 0 {
		return Notice{}
	}
	return l.notices[len(l.notices)-1]
}

func item(brand, name string, category model.Category, price string) model.Product {
	return model.Product{
		Brand:    brand,
		Name:     name,
		Category: category,
		Images:   pq.StringArray{"https://cdn.example.com/" + name + ".jpg"},
		Sizes:    pq.StringArray{"M"},
		Price:    decimal.RequireFromString(price),
	}
}

func seed(t *testing.T, s *fakeStore, items ...model.Product) []model.Product {
	t.Helper()
	out := make([]model.Product, 0, len(items))
	for _, p := range items {
		created, err := s.Insert(context.Background(), p)
		require.NoError(t, err)
		out = append(out, created)
	}
	return out
}

func loaded(t *testing.T, s store.RecordStore, brand Brand, opts ...Option) *Controller {
	t.Helper()
	c := NewController(s, brand, opts...)
	require.NoError(t, c.Load(context.Background(), brand))
	return c
}

func ids(list []model.Product) []uint {
	out := make([]uint, len(list))
	for i, p := range list {
		out[i] = p.ID
	}
	return out
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}
