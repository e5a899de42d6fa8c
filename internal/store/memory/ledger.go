package memory

import (
	"context"
	"sort"

	"github.com/fekuna/omnipos-stock-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

// LedgerRepository implements ledger.Repository.
type LedgerRepository struct {
	s *Store
}

func (s *Store) Ledger() *LedgerRepository {
	return &LedgerRepository{s: s}
}

func (r *LedgerRepository) Append(ctx context.Context, entry *model.Transaction) error {
	if hook := r.s.BeforeLedgerAppend; hook != nil {
		if err := hook(entry); err != nil {
			return err
		}
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.ledger = append(r.s.ledger, *entry)
	id := entry.ID
	r.s.record(ctx, func() {
		for i := len(r.s.ledger) - 1; i >= 0; i-- {
			if r.s.ledger[i].ID == id {
				r.s.ledger = append(r.s.ledger[:i], r.s.ledger[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (r *LedgerRepository) List(ctx context.Context, f *dto.TransactionFilters) ([]model.TransactionView, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	type indexed struct {
		pos int
		t   model.Transaction
	}
	matched := []indexed{}
	for i, t := range r.s.ledger {
		if f.ItemSerial != "" && t.ItemSerial != f.ItemSerial {
			continue
		}
		if f.OrderID != "" && (t.OrderID == nil || *t.OrderID != f.OrderID) {
			continue
		}
		if f.UserID != "" && t.UserID != f.UserID {
			continue
		}
		if f.TransactionType != "" && t.TransactionType != f.TransactionType {
			continue
		}
		if f.StartDate != nil && t.CreatedAt.Before(*f.StartDate) {
			continue
		}
		if f.EndDate != nil && !t.CreatedAt.Before(*f.EndDate) {
			continue
		}
		matched = append(matched, indexed{pos: i, t: t})
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.t.CreatedAt.Equal(b.t.CreatedAt) {
			return a.t.CreatedAt.After(b.t.CreatedAt)
		}
		return a.pos > b.pos
	})

	total := len(matched)
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * f.PageSize
		if start > len(matched) {
			start = len(matched)
		}
		end := start + f.PageSize
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}

	views := make([]model.TransactionView, 0, len(matched))
	for _, m := range matched {
		views = append(views, r.s.enrich(m.t))
	}
	return views, total, nil
}

// enrich mirrors the profile and order joins of the postgres query. Callers hold s.mu.
func (s *Store) enrich(t model.Transaction) model.TransactionView {
	v := model.TransactionView{Transaction: t}
	if actor, ok := s.profiles[t.UserID]; ok {
		name, role := actor.FullName, actor.Role
		v.ActorName, v.ActorRole = &name, &role
	}
	if t.OrderID == nil {
		return v
	}
	o, ok := s.orders[*t.OrderID]
	if !ok {
		return v
	}
	customerID, number := o.UserID, o.OrderNumber
	v.CustomerID, v.OrderNumber = &customerID, &number
	if customer, ok := s.profiles[o.UserID]; ok {
		name := customer.FullName
		v.CustomerName = &name
	}
	return v
}
