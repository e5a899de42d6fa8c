package memory

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/google/uuid"
)

// ProductRepository implements product.Repository.
type ProductRepository struct {
	s *Store
}

func (s *Store) Products() *ProductRepository {
	return &ProductRepository{s: s}
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *ProductRepository) ActivePrice(ctx context.Context, productID string) (*model.ProductPrice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.prices {
		if p.ProductID == productID && p.IsActive {
			price := p
			return &price, nil
		}
	}
	return nil, nil
}

func (r *ProductRepository) ReplacePrice(ctx context.Context, p *model.ProductPrice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, old := range r.s.prices {
		if old.ProductID != p.ProductID || !old.IsActive {
			continue
		}
		prev := old
		old.IsActive = false
		r.s.prices[id] = old
		r.s.record(ctx, func() { r.s.prices[prev.ID] = prev })
	}
	r.s.prices[p.ID] = *p
	id := p.ID
	r.s.record(ctx, func() { delete(r.s.prices, id) })
	return nil
}

// LockForUpdate is a no-op; the store serializes every write behind one mutex.
func (r *ProductRepository) LockForUpdate(ctx context.Context, productID string) error {
	return nil
}

func (r *ProductRepository) SetCachedQuantity(ctx context.Context, productID string, quantity int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[productID]
	if !ok {
		return nil
	}
	prev := p
	p.Quantity = quantity
	p.UpdatedAt = time.Now().UTC()
	r.s.products[productID] = p
	r.s.record(ctx, func() { r.s.products[productID] = prev })
	return nil
}

// LocationRepository implements location.Repository.
type LocationRepository struct {
	s *Store
}

func (s *Store) Locations() *LocationRepository {
	return &LocationRepository{s: s}
}

func (r *LocationRepository) FindByID(ctx context.Context, id string) (*model.Location, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	loc, ok := r.s.locations[id]
	if !ok {
		return nil, nil
	}
	return &loc, nil
}

func (r *LocationRepository) ResolveOrCreate(ctx context.Context, shelfID, slotID string, capacity int) (*model.Location, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, loc := range r.s.locations {
		if loc.ShelfID == shelfID && loc.SlotID == slotID {
			found := loc
			return &found, nil
		}
	}

	loc := model.Location{
		ID:       uuid.New().String(),
		ShelfID:  shelfID,
		SlotID:   slotID,
		Capacity: capacity,
		IsActive: true,
	}
	r.s.locations[loc.ID] = loc
	r.s.record(ctx, func() { delete(r.s.locations, loc.ID) })
	return &loc, nil
}
