package memory

import (
	"context"
	"sort"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/item/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

// ItemRepository implements item.Repository and product.AvailableCounter.
type ItemRepository struct {
	s *Store
}

func (s *Store) Items() *ItemRepository {
	return &ItemRepository{s: s}
}

func (r *ItemRepository) GetBySerial(ctx context.Context, serial string) (*model.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.items[serial]
	if !ok {
		return nil, nil
	}
	return &it, nil
}

func (r *ItemRepository) ListByProduct(ctx context.Context, productID string) ([]model.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.productItems(productID, ""), nil
}

func (r *ItemRepository) ListAvailableSerials(ctx context.Context, productID string, limit int) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	serials := []string{}
	for _, it := range r.s.productItems(productID, model.ItemAvailable) {
		if len(serials) == limit {
			break
		}
		serials = append(serials, it.Serial)
	}
	return serials, nil
}

func (r *ItemRepository) CountAvailable(ctx context.Context, productID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.productItems(productID, model.ItemAvailable)), nil
}

func (r *ItemRepository) CreateBatch(ctx context.Context, b *dto.NewBatch) ([]model.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now().UTC()
	out := make([]model.Item, 0, b.Quantity)
	for i := 0; i < b.Quantity; i++ {
		it := model.Item{
			Serial:     r.s.nextSerial(),
			ProductID:  b.ProductID,
			Status:     b.Status,
			LocationID: copyString(b.LocationID),
			PriceID:    copyString(b.PriceID),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		r.s.items[it.Serial] = it
		serial := it.Serial
		// Serials stay consumed after rollback, like a database sequence.
		r.s.record(ctx, func() { delete(r.s.items, serial) })
		out = append(out, it)
	}
	return out, nil
}

func (r *ItemRepository) UpdateStatus(ctx context.Context, serial string, from, to model.ItemStatus) (bool, error) {
	if hook := r.s.BeforeItemUpdate; hook != nil {
		if err := hook(serial); err != nil {
			return false, err
		}
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	it, ok := r.s.items[serial]
	if !ok || it.Status != from {
		return false, nil
	}
	prev := it
	it.Status = to
	it.UpdatedAt = time.Now().UTC()
	r.s.items[serial] = it
	r.s.record(ctx, func() { r.s.items[serial] = prev })
	return true, nil
}

func (r *ItemRepository) UpdateLocation(ctx context.Context, serial string, from *string, locationID string) (bool, error) {
	if hook := r.s.BeforeItemUpdate; hook != nil {
		if err := hook(serial); err != nil {
			return false, err
		}
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	it, ok := r.s.items[serial]
	if !ok || !sameString(it.LocationID, from) {
		return false, nil
	}
	prev := it
	loc := locationID
	it.LocationID = &loc
	it.UpdatedAt = time.Now().UTC()
	r.s.items[serial] = it
	r.s.record(ctx, func() { r.s.items[serial] = prev })
	return true, nil
}

// productItems returns the product's units, lowest serial first, optionally by status.
// Callers hold s.mu.
func (s *Store) productItems(productID string, status model.ItemStatus) []model.Item {
	out := []model.Item{}
	for _, it := range s.items {
		if it.ProductID != productID {
			continue
		}
		if status != "" && it.Status != status {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Serial < out[j].Serial })
	return out
}
