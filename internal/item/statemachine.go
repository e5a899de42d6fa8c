package item

import (
	"context"
	"fmt"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

var transitions = map[model.ItemStatus][]model.ItemStatus{
	model.ItemAvailable:   {model.ItemSold},
	model.ItemSold:        {model.ItemUnavailable, model.ItemInRepair},
	model.ItemDamaged:     {model.ItemInRepair, model.ItemUnavailable},
	model.ItemInRepair:    {model.ItemAvailable, model.ItemUnavailable},
	model.ItemUnavailable: {model.ItemAvailable},
}

// CanTransition reports whether from -> to is a legal item status change.
func CanTransition(from, to model.ItemStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// pipelineEdges are driven by order allocation, rejection and refund approval only.
var pipelineEdges = map[[2]model.ItemStatus]bool{
	{model.ItemAvailable, model.ItemSold}:   true,
	{model.ItemSold, model.ItemUnavailable}: true,
	{model.ItemSold, model.ItemInRepair}:    true,
}

// IsOperatorTransition reports whether staff may apply from -> to by hand.
func IsOperatorTransition(from, to model.ItemStatus) bool {
	return CanTransition(from, to) && !pipelineEdges[[2]model.ItemStatus{from, to}]
}

// TransitionRequest is one status change of one unit.
type TransitionRequest struct {
	Serial  string
	Target  model.ItemStatus
	ActorID string
	Reason  string
	// Expected, when set, is the status the caller requires the unit to be in.
	Expected        model.ItemStatus
	TransactionType string
	OrderID         *string
}

// Machine applies status transitions and writes their ledger rows. Apply does not open a
// transaction; callers run it inside their unit of work.
type Machine struct {
	items  Repository
	ledger *ledger.Writer
}

func NewMachine(items Repository, writer *ledger.Writer) *Machine {
	return &Machine{items: items, ledger: writer}
}

func (m *Machine) Apply(ctx context.Context, req TransitionRequest) (*model.Item, *model.Transaction, error) {
	const op = "item.Transition"

	if !req.Target.Valid() {
		return nil, nil, apperr.Invalid(op, "unknown target status %q", req.Target)
	}

	it, err := m.items.GetBySerial(ctx, req.Serial)
	if err != nil {
		return nil, nil, fmt.Errorf("load item %s: %w", req.Serial, err)
	}
	if it == nil {
		return nil, nil, apperr.NotFound(op, "item %s not found", req.Serial)
	}

	// The caller decided on a stale view of the unit.
	if req.Expected != "" && it.Status != req.Expected {
		return nil, nil, apperr.Conflict(op, "item %s is %s, expected %s", req.Serial, it.Status, req.Expected)
	}
	if !CanTransition(it.Status, req.Target) {
		return nil, nil, apperr.InvalidTransition(op, "item %s cannot move from %s to %s", req.Serial, it.Status, req.Target)
	}

	ok, err := m.items.UpdateStatus(ctx, req.Serial, it.Status, req.Target)
	if err != nil {
		return nil, nil, fmt.Errorf("update item %s: %w", req.Serial, err)
	}
	if !ok {
		return nil, nil, apperr.Conflict(op, "item %s changed concurrently, re-read and retry", req.Serial)
	}

	txType := req.TransactionType
	if txType == "" {
		txType = model.TxStatusChange
	}
	notes := req.Reason
	if notes == "" {
		notes = fmt.Sprintf("%s -> %s", it.Status, req.Target)
	}

	entry, err := m.ledger.Append(ctx, model.Transaction{
		ItemSerial:      req.Serial,
		UserID:          req.ActorID,
		TransactionType: txType,
		Notes:           &notes,
		OrderID:         req.OrderID,
	})
	if err != nil {
		return nil, nil, err
	}

	it.Status = req.Target
	return it, entry, nil
}
