package memory

import (
	"context"
	"sort"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
)

// StockRepository implements stock.Repository by scanning item rows.
type StockRepository struct {
	s *Store
}

func (s *Store) Stock() *StockRepository {
	return &StockRepository{s: s}
}

func (r *StockRepository) ProductStock(ctx context.Context, productID string) (*dto.ProductStock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[productID]
	if !ok {
		return nil, nil
	}
	ps := r.s.count(p)
	return &ps, nil
}

func (r *StockRepository) ListProductStock(ctx context.Context) ([]dto.ProductStock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.countAll(func(dto.ProductStock) bool { return true }), nil
}

func (r *StockRepository) LowStock(ctx context.Context, threshold int) ([]dto.ProductStock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := r.s.countAll(func(ps dto.ProductStock) bool { return ps.Available <= threshold })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Available < out[j].Available })
	return out, nil
}

func (r *StockRepository) ShelfOccupancy(ctx context.Context, shelfID string) ([]dto.SlotOccupancy, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	type key struct{ location, product string }
	groups := map[key]*dto.SlotOccupancy{}
	for _, it := range r.s.items {
		if it.LocationID == nil {
			continue
		}
		loc, ok := r.s.locations[*it.LocationID]
		if !ok || (shelfID != "" && loc.ShelfID != shelfID) {
			continue
		}
		p, ok := r.s.products[it.ProductID]
		if !ok {
			continue
		}
		k := key{loc.ID, p.ID}
		g, ok := groups[k]
		if !ok {
			g = &dto.SlotOccupancy{
				LocationID:  loc.ID,
				ShelfID:     loc.ShelfID,
				SlotID:      loc.SlotID,
				Capacity:    loc.Capacity,
				ProductID:   p.ID,
				ProductName: p.Name,
			}
			groups[k] = g
		}
		g.Units++
	}

	out := make([]dto.SlotOccupancy, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ShelfID != b.ShelfID {
			return a.ShelfID < b.ShelfID
		}
		if a.SlotID != b.SlotID {
			return a.SlotID < b.SlotID
		}
		return a.ProductName < b.ProductName
	})
	return out, nil
}

// Callers hold s.mu.
func (s *Store) count(p model.Product) dto.ProductStock {
	ps := dto.ProductStock{ProductID: p.ID, ProductName: p.Name}
	for _, it := range s.items {
		if it.ProductID != p.ID {
			continue
		}
		ps.Total++
		switch it.Status {
		case model.ItemAvailable:
			ps.Available++
		case model.ItemSold:
			ps.Sold++
		case model.ItemDamaged:
			ps.Damaged++
		case model.ItemInRepair:
			ps.InRepair++
		case model.ItemUnavailable:
			ps.Unavailable++
		}
	}
	return ps
}

// Callers hold s.mu.
func (s *Store) countAll(keep func(dto.ProductStock) bool) []dto.ProductStock {
	out := []dto.ProductStock{}
	for _, p := range s.products {
		ps := s.count(p)
		if keep(ps) {
			out = append(out, ps)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductName != out[j].ProductName {
			return out[i].ProductName < out[j].ProductName
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out
}
