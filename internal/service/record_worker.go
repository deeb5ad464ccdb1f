package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"dashboard-metrics-service/internal/model"
	"dashboard-metrics-service/internal/repository"
)

// RecordWorker buffers records and writes them to storage in batches.
type RecordWorker interface {
	Enqueue(record model.StoredRecord)
	Shutdown()
}

type batchRecordWorker struct {
	repo          repository.RecordRepository
	queue         chan model.StoredRecord
	batchSize     int
	flushInterval time.Duration
	onFlush       func(datasets ...string)
	wg            sync.WaitGroup
}

// NewBatchRecordWorker starts a worker that flushes when batchSize records are
// buffered or every interval, whichever comes first. onFlush, if set, receives
// the datasets of every successfully written batch.
func NewBatchRecordWorker(repo repository.RecordRepository, bufferSize, batchSize int, interval time.Duration, onFlush func(datasets ...string)) *batchRecordWorker {
	worker := &batchRecordWorker{
		repo:          repo,
		queue:         make(chan model.StoredRecord, bufferSize),
		batchSize:     batchSize,
		flushInterval: interval,
		onFlush:       onFlush,
	}
	worker.wg.Add(1)
	go worker.startLoop()
	return worker
}

// Enqueue blocks while the buffer is full.
func (w *batchRecordWorker) Enqueue(record model.StoredRecord) {
	w.queue <- record
}

// Shutdown stops accepting records and waits for the queue to drain.
func (w *batchRecordWorker) Shutdown() {
	log.Info().Int("pending", len(w.queue)).Msg("record worker shutting down")
	close(w.queue)
	w.wg.Wait()
	log.Info().Msg("record worker stopped")
}

func (w *batchRecordWorker) startLoop() {
	defer w.wg.Done()

	var batch []model.StoredRecord
	ticker := time.NewTicker(w.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case record, ok := <-w.queue:
			if !ok {
				if len(batch) > 0 {
					w.flush(batch)
				}
				return
			}

			batch = append(batch, record)
			if len(batch) >= w.batchSize {
				log.Debug().Int("batch_size", len(batch)).Int("queue_size", len(w.queue)).Msg("batch size reached")
				w.flush(batch)
				batch = nil
			}

		case <-ticker.C:
			if len(batch) > 0 {
				log.Debug().Int("batch_size", len(batch)).Int("queue_size", len(w.queue)).Msg("flush interval reached")
				w.flush(batch)
				batch = nil
			}
		}
	}
}

func (w *batchRecordWorker) flush(records []model.StoredRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := w.repo.CreateBatch(ctx, records); err != nil {
		log.Error().Err(err).Int("records", len(records)).Msg("bulk insert failed")
		return
	}
	log.Info().Int("records", len(records)).Msg("records flushed")

	if w.onFlush != nil {
		w.onFlush(datasetsOf(records)...)
	}
}

func datasetsOf(records []model.StoredRecord) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range records {
		if _, ok := seen[r.Dataset]; ok {
			continue
		}
		seen[r.Dataset] = struct{}{}
		out = append(out, r.Dataset)
	}
	return out
}
