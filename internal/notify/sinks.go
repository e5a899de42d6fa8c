package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"go.uber.org/zap"
)

type LogSink struct {
	logger logger.ZapLogger
}

func NewLogSink(log logger.ZapLogger) *LogSink {
	return &LogSink{logger: log}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(_ context.Context, o Outcome) error {
	fields := []zap.Field{
		zap.String("event", o.Event),
		zap.String("actor_id", o.ActorID),
		zap.String("subject_id", o.SubjectID),
		zap.Int("ledger_entries", len(o.Entries)),
	}
	if o.Success {
		s.logger.Info(o.Message, fields...)
	} else {
		s.logger.Warn(o.Message, append(fields, zap.String("error", o.Error))...)
	}
	return nil
}

type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// KafkaSink publishes outcomes for the UI toast layer.
type KafkaSink struct {
	publisher Publisher
}

func NewKafkaSink(publisher Publisher) *KafkaSink {
	return &KafkaSink{publisher: publisher}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Deliver(ctx context.Context, o Outcome) error {
	payload, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshal outcome: %w", err)
	}
	return s.publisher.Publish(ctx, o.SubjectID, payload)
}

type Indexer interface {
	CreateIndex(ctx context.Context, index, mapping string) error
	Index(ctx context.Context, index, id string, doc interface{}) error
}

const ledgerIndexMapping = `{
	"mappings": {
		"properties": {
			"item_serial": { "type": "keyword" },
			"user_id": { "type": "keyword" },
			"transaction_type": { "type": "keyword" },
			"order_id": { "type": "keyword" },
			"from_location_id": { "type": "keyword" },
			"to_location_id": { "type": "keyword" },
			"notes": { "type": "text" },
			"created_at": { "type": "date" }
		}
	}
}`

// LedgerIndexSink copies committed ledger rows into a search index for audit lookups.
// The relational ledger stays the source of truth.
type LedgerIndexSink struct {
	indexer Indexer
	index   string
	ready   atomic.Bool
}

func NewLedgerIndexSink(indexer Indexer, index string) *LedgerIndexSink {
	return &LedgerIndexSink{indexer: indexer, index: index}
}

func (s *LedgerIndexSink) Name() string { return "ledger-index" }

func (s *LedgerIndexSink) Deliver(ctx context.Context, o Outcome) error {
	if !o.Success || len(o.Entries) == 0 {
		return nil
	}
	if !s.ready.Load() {
		if err := s.indexer.CreateIndex(ctx, s.index, ledgerIndexMapping); err != nil {
			return fmt.Errorf("ensure index %s: %w", s.index, err)
		}
		s.ready.Store(true)
	}
	for _, e := range o.Entries {
		if err := s.indexer.Index(ctx, s.index, e.ID, e); err != nil {
			return fmt.Errorf("index ledger entry %s: %w", e.ID, err)
		}
	}
	return nil
}
