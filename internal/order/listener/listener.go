package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/order"
	"github.com/fekuna/omnipos-stock-service/internal/order/dto"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const EventOrderRequested = "OrderRequested"

// MessageReader is satisfied by broker.KafkaConsumer.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type OrderListener struct {
	consumer MessageReader
	uc       order.UseCase
	logger   logger.ZapLogger
	backoff  time.Duration
}

func NewOrderListener(consumer MessageReader, uc order.UseCase, logger logger.ZapLogger) *OrderListener {
	return &OrderListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
		backoff:  time.Second,
	}
}

func (l *OrderListener) Start(ctx context.Context) {
	l.logger.Info("Starting Order Intake Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Order Intake Kafka Listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(l.backoff):
				}
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type OrderRequestedEvent struct {
	EventID   string              `json:"event_id"`
	EventType string              `json:"event_type"`
	Payload   OrderRequestPayload `json:"payload"`
	Timestamp time.Time           `json:"timestamp"`
}

type OrderRequestPayload struct {
	UserID string               `json:"user_id"`
	Lines  []dto.OrderLineInput `json:"lines"`
}

func (l *OrderListener) processMessage(ctx context.Context, value []byte) {
	var event OrderRequestedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != EventOrderRequested {
		return
	}

	l.logger.Info("Processing OrderRequested event",
		zap.String("event_id", event.EventID),
		zap.String("user_id", event.Payload.UserID),
	)

	// Kafka delivers at least once; the event id keys the order so a redelivery is a no-op.
	o, err := l.uc.ProcessOrder(ctx, &dto.ProcessOrderInput{
		UserID:        event.Payload.UserID,
		Lines:         event.Payload.Lines,
		SourceEventID: event.EventID,
	})
	if err != nil {
		// Failures are notified by the use case and not redelivered.
		l.logger.Error("Failed to process requested order",
			zap.String("event_id", event.EventID),
			zap.String("kind", apperr.KindOf(err).String()),
			zap.Bool("retryable", apperr.IsRetryable(err)),
			zap.Error(err),
		)
		return
	}

	l.logger.Info("Requested order placed",
		zap.String("event_id", event.EventID),
		zap.String("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
	)
}
