package notify

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"go.uber.org/zap"
)

// Message ids, also used as the outcome event name.
const (
	StockAdded        = "stock.added"
	ItemTransitioned  = "item.transitioned"
	OrderPlaced       = "order.placed"
	OrderCompleted    = "order.completed"
	OrderRejected     = "order.rejected"
	RefundRequested   = "refund.requested"
	RefundApproved    = "refund.approved"
	RefundRejected    = "refund.rejected"
	LocationRelocated = "location.relocated"
	OperationFailed   = "operation.failed"
)

// Outcome describes the result of one core operation for observers.
type Outcome struct {
	Event     string                 `json:"event"`
	Success   bool                   `json:"success"`
	ActorID   string                 `json:"actor_id"`
	SubjectID string                 `json:"subject_id"`
	Message   string                 `json:"message"`
	Error     string                 `json:"error,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Entries   []model.Transaction    `json:"entries,omitempty"`
	At        time.Time              `json:"at"`
}

// Succeeded builds a success outcome; event doubles as the message id.
func Succeeded(event, actorID, subjectID string, data map[string]interface{}, entries []model.Transaction) Outcome {
	return Outcome{
		Event:     event,
		Success:   true,
		ActorID:   actorID,
		SubjectID: subjectID,
		Data:      data,
		Entries:   entries,
	}
}

func Failed(event, actorID, subjectID string, err error) Outcome {
	return Outcome{
		Event:     event,
		Success:   false,
		ActorID:   actorID,
		SubjectID: subjectID,
		Error:     err.Error(),
		Data: map[string]interface{}{
			"Operation": event,
			"Reason":    err.Error(),
		},
	}
}

// Notifier is informed of outcomes. It never fails the operation it observes.
type Notifier interface {
	Notify(ctx context.Context, outcome Outcome)
}

// Sink delivers a rendered outcome somewhere.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, outcome Outcome) error
}

type Translator interface {
	T(lang, messageID string, data map[string]interface{}) string
}

type Dispatcher struct {
	translator Translator
	lang       string
	sinks      []Sink
	timeout    time.Duration
	logger     logger.ZapLogger
	now        func() time.Time
}

func NewDispatcher(translator Translator, lang string, timeout time.Duration, log logger.ZapLogger, sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		translator: translator,
		lang:       lang,
		sinks:      sinks,
		timeout:    timeout,
		logger:     log,
		now:        time.Now,
	}
}

func (d *Dispatcher) Notify(ctx context.Context, o Outcome) {
	if o.At.IsZero() {
		o.At = d.now().UTC()
	}
	messageID := o.Event
	if !o.Success {
		messageID = OperationFailed
	}
	o.Message = d.translator.T(d.lang, messageID, o.Data)

	base := context.WithoutCancel(ctx)
	for _, s := range d.sinks {
		sctx, cancel := context.WithTimeout(base, d.timeout)
		err := s.Deliver(sctx, o)
		cancel()
		if err != nil {
			d.logger.Warn("notification sink failed",
				zap.String("sink", s.Name()),
				zap.String("event", o.Event),
				zap.Error(err),
			)
		}
	}
}
