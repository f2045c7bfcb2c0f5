// Package analytics captures resolution events and reduces them into
// usage summaries.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cliplink/cliplink/internal/metrics"
	"github.com/cliplink/cliplink/internal/model"
	"github.com/cliplink/cliplink/internal/storage"
)

const (
	// DefaultQueueSize is the enqueue buffer between request handling
	// and the background writer.
	DefaultQueueSize = 1024

	// persistTimeout bounds a single object-store write.
	persistTimeout = 5 * time.Second

	// recordPrefix groups all resolution records under one namespace.
	recordPrefix = "deep-links/"
)

// Pipeline records every resolution as one JSON object in the store,
// partitioned by day. Enqueueing never blocks the caller: when the
// buffer is full the record is dropped and counted.
type Pipeline struct {
	store   storage.ObjectStore
	prefix  string
	logger  *slog.Logger
	metrics metrics.Recorder
	queue   chan *model.AnalyticsRecord
	now     func() time.Time
	newID   func() string

	mu      sync.Mutex
	started bool
	stop    chan struct{}
	done    chan struct{}
}

// NewPipeline creates a pipeline writing under the given key prefix.
func NewPipeline(store storage.ObjectStore, prefix string, queueSize int, logger *slog.Logger, recorder metrics.Recorder) *Pipeline {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Pipeline{
		store:   store,
		prefix:  prefix,
		logger:  logger.With("component", "analytics.pipeline"),
		metrics: recorder,
		queue:   make(chan *model.AnalyticsRecord, queueSize),
		now:     time.Now,
		newID:   func() string { return ulid.Make().String() },
	}
}

// Record builds a resolution record and enqueues it for persistence.
// Exactly one of result and dispatchErr describes the outcome. The
// returned record is what will be persisted.
func (p *Pipeline) Record(dl *model.DeepLink, sessionID string, meta model.RecordMetadata, start time.Time, result *model.Result, dispatchErr error) *model.AnalyticsRecord {
	rec := &model.AnalyticsRecord{
		ID:           p.newID(),
		DeepLink:     dl,
		SessionID:    sessionID,
		Timestamp:    p.now().UTC(),
		ProcessingMS: float64(p.now().Sub(start).Microseconds()) / 1000,
		Metadata:     meta,
	}
	if dispatchErr != nil {
		rec.Error = dispatchErr.Error()
	} else {
		rec.Result = result
	}

	select {
	case p.queue <- rec:
		p.metrics.IncAnalyticsQueued("queued")
	default:
		p.metrics.IncAnalyticsQueued("dropped")
		p.logger.Warn("analytics queue full, dropping record",
			"record_id", rec.ID,
			"action", actionOf(dl),
		)
	}
	return rec
}

// Start launches the background writer.
func (p *Pipeline) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.writeLoop()
	p.logger.Info("analytics pipeline started", "queue_size", cap(p.queue))
}

// Shutdown stops the writer after draining buffered records. It
// implements server.ShutdownFunc.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return nil
	}
	p.started = false
	stop, done := p.stop, p.done
	p.mu.Unlock()

	close(stop)
	select {
	case <-done:
		p.logger.Info("analytics pipeline shutdown complete")
		return nil
	case <-ctx.Done():
		p.logger.Warn("analytics pipeline shutdown timed out")
		return ctx.Err()
	}
}

func (p *Pipeline) writeLoop() {
	defer close(p.done)
	for {
		select {
		case rec := <-p.queue:
			p.persist(rec)
		case <-p.stop:
			// Drain what is already buffered, then exit.
			for {
				select {
				case rec := <-p.queue:
					p.persist(rec)
				default:
					return
				}
			}
		}
	}
}

func (p *Pipeline) persist(rec *model.AnalyticsRecord) {
	body, err := json.Marshal(rec)
	if err != nil {
		p.metrics.IncAnalyticsPersisted("failed")
		p.logger.Error("failed to marshal record", "record_id", rec.ID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	key := p.keyFor(rec)
	if err := p.store.Put(ctx, key, body); err != nil {
		p.metrics.IncAnalyticsPersisted("failed")
		p.logger.Error("failed to persist record",
			"record_id", rec.ID,
			"key", key,
			"error", err,
		)
		return
	}

	p.metrics.IncAnalyticsPersisted("success")
	p.logger.Debug("record persisted", "key", key)
}

// keyFor partitions records by UTC day under the configured prefix.
func (p *Pipeline) keyFor(rec *model.AnalyticsRecord) string {
	return fmt.Sprintf("%s%s%s/%s.json", p.prefix, recordPrefix, rec.Timestamp.UTC().Format("2006-01-02"), rec.ID)
}

func actionOf(dl *model.DeepLink) string {
	if dl == nil {
		return ""
	}
	return string(dl.Action)
}
