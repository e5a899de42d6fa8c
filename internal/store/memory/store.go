// Package memory is an in-process implementation of the repository contracts. Writes made
// inside WithinTx are undone in reverse order when the unit of work fails.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Store struct {
	mu sync.Mutex

	products  map[string]model.Product
	prices    map[string]model.ProductPrice
	items     map[string]model.Item
	locations map[string]model.Location
	orders    map[string]model.Order
	lines     map[string][]model.OrderLine
	refunds   map[string]model.RefundRequest
	profiles  map[string]model.Profile
	ledger    []model.Transaction
	serialSeq int64

	// BeforeItemUpdate runs ahead of every conditional item write, outside the store lock.
	// A non-nil error fails the write.
	BeforeItemUpdate func(serial string) error
	// BeforeLedgerAppend runs ahead of every ledger append; a non-nil error fails it.
	BeforeLedgerAppend func(entry *model.Transaction) error
}

func New() *Store {
	return &Store{
		products:  map[string]model.Product{},
		prices:    map[string]model.ProductPrice{},
		items:     map[string]model.Item{},
		locations: map[string]model.Location{},
		orders:    map[string]model.Order{},
		lines:     map[string][]model.OrderLine{},
		refunds:   map[string]model.RefundRequest{},
		profiles:  map[string]model.Profile{},
	}
}

type txKey struct{}

type unitOfWork struct {
	undo []func()
}

// WithinTx implements txmanager.Manager. Nested calls join the outer unit of work.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*unitOfWork); ok {
		return fn(ctx)
	}

	uow := &unitOfWork{}
	if err := fn(context.WithValue(ctx, txKey{}, uow)); err != nil {
		s.mu.Lock()
		for i := len(uow.undo) - 1; i >= 0; i-- {
			uow.undo[i]()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// record registers an undo step for the unit of work in ctx. Callers hold s.mu.
func (s *Store) record(ctx context.Context, undo func()) {
	if uow, ok := ctx.Value(txKey{}).(*unitOfWork); ok {
		uow.undo = append(uow.undo, undo)
	}
}

func (s *Store) nextSerial() string {
	s.serialSeq++
	return fmt.Sprintf("SN%010d", s.serialSeq)
}

// SeedProduct stores p and, when price is non-nil, an active price for it.
func (s *Store) SeedProduct(p model.Product, price *decimal.Decimal) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt, p.UpdatedAt = now, now
	}
	s.products[p.ID] = p
	if price != nil {
		id := uuid.New().String()
		s.prices[id] = model.ProductPrice{ID: id, ProductID: p.ID, Price: *price, EffectiveFrom: now, IsActive: true}
	}
	return p
}

// SeedItems creates n units of productID in status without ledger rows.
func (s *Store) SeedItems(productID string, n int, status model.ItemStatus, locationID *string) []model.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	out := make([]model.Item, 0, n)
	for i := 0; i < n; i++ {
		it := model.Item{
			Serial:     s.nextSerial(),
			ProductID:  productID,
			Status:     status,
			LocationID: copyString(locationID),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		s.items[it.Serial] = it
		out = append(out, it)
	}
	return out
}

func (s *Store) SeedProfile(p model.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
}

// SeedOrder stores o and its lines as-is.
func (s *Store) SeedOrder(o model.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o
	s.lines[o.ID] = append([]model.OrderLine(nil), o.Lines...)
}

// Item returns a snapshot of one unit.
func (s *Store) Item(serial string) (model.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[serial]
	return it, ok
}

func (s *Store) AllItems() []model.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Serial < out[j].Serial })
	return out
}

// LedgerEntries returns every ledger row in append order.
func (s *Store) LedgerEntries() []model.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Transaction(nil), s.ledger...)
}

func (s *Store) Product(id string) (model.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	return p, ok
}

func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
