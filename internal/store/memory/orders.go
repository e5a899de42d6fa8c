package memory

import (
	"context"
	"sort"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/order/dto"
)

// OrderRepository implements order.Repository.
type OrderRepository struct {
	s *Store
}

func (s *Store) Orders() *OrderRepository {
	return &OrderRepository{s: s}
}

func (r *OrderRepository) Create(ctx context.Context, o *model.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if o.SourceEventID != nil {
		for _, existing := range r.s.orders {
			if existing.SourceEventID != nil && *existing.SourceEventID == *o.SourceEventID {
				return apperr.Conflict("order.Create", "order %s collides with an existing order", o.OrderNumber)
			}
		}
	}

	row := *o
	row.Lines = nil
	r.s.orders[o.ID] = row
	id := o.ID
	r.s.record(ctx, func() { delete(r.s.orders, id) })
	return nil
}

func (r *OrderRepository) AddLines(ctx context.Context, lines []model.OrderLine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, l := range lines {
		prev := r.s.lines[l.OrderID]
		orderID := l.OrderID
		r.s.lines[orderID] = append(append([]model.OrderLine(nil), prev...), l)
		r.s.record(ctx, func() { r.s.lines[orderID] = prev })
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok {
		return nil, nil
	}
	o.Lines = append([]model.OrderLine{}, r.s.lines[id]...)
	sort.Slice(o.Lines, func(i, j int) bool { return o.Lines[i].ItemSerial < o.Lines[j].ItemSerial })
	return &o, nil
}

func (r *OrderRepository) FindBySourceEvent(ctx context.Context, eventID string) (*model.Order, error) {
	r.s.mu.Lock()
	var id string
	for _, o := range r.s.orders {
		if o.SourceEventID != nil && *o.SourceEventID == eventID {
			id = o.ID
			break
		}
	}
	r.s.mu.Unlock()

	if id == "" {
		return nil, nil
	}
	return r.FindByID(ctx, id)
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to model.OrderStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	prev := o
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	r.s.orders[id] = o
	r.s.record(ctx, func() { r.s.orders[id] = prev })
	return true, nil
}

func (r *OrderRepository) CreateRefund(ctx context.Context, rr *model.RefundRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.refunds[rr.ID] = *rr
	id := rr.ID
	r.s.record(ctx, func() { delete(r.s.refunds, id) })
	return nil
}

func (r *OrderRepository) FindRefundByID(ctx context.Context, id string) (*model.RefundRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rr, ok := r.s.refunds[id]
	if !ok {
		return nil, nil
	}
	return &rr, nil
}

func (r *OrderRepository) HasPendingRefund(ctx context.Context, orderID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rr := range r.s.refunds {
		if rr.OrderID == orderID && rr.Status == model.RefundPending {
			return true, nil
		}
	}
	return false, nil
}

func (r *OrderRepository) ResolveRefund(ctx context.Context, res *dto.RefundResolution) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rr, ok := r.s.refunds[res.ID]
	if !ok || rr.Status != model.RefundPending {
		return false, nil
	}
	prev := rr
	reviewer := res.ReviewedBy
	at := res.ReviewedAt
	rr.Status = res.Status
	rr.ReviewedBy = &reviewer
	rr.ReviewNotes = copyString(res.ReviewNotes)
	rr.ReviewedAt = &at
	r.s.refunds[res.ID] = rr
	r.s.record(ctx, func() { r.s.refunds[prev.ID] = prev })
	return true, nil
}

func (r *OrderRepository) ListRefunds(ctx context.Context, f *dto.RefundFilters) ([]model.RefundRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []model.RefundRequest{}
	for _, rr := range r.s.refunds {
		if f.Status != nil && rr.Status != *f.Status {
			continue
		}
		if f.OrderID != "" && rr.OrderID != f.OrderID {
			continue
		}
		out = append(out, rr)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
