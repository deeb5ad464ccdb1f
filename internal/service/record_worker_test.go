package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"dashboard-metrics-service/internal/model"
	"dashboard-metrics-service/internal/testdata/mockrepository"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type RecordWorkerTestSuite struct {
	suite.Suite
	mockRepo *mockrepository.Repository
	worker   *batchRecordWorker
}

func TestRecordWorkerSuite(t *testing.T) {
	suite.Run(t, new(RecordWorkerTestSuite))
}

func (s *RecordWorkerTestSuite) SetupTest() {
	s.mockRepo = new(mockrepository.Repository)
}

func (s *RecordWorkerTestSuite) TearDownTest() {
	s.mockRepo.AssertExpectations(s.T())
}

func record(dataset string) model.StoredRecord {
	return model.StoredRecord{Dataset: dataset}
}

func (s *RecordWorkerTestSuite) TestBatchSizeTrigger() {
	batchSize := 5
	flushInterval := 1 * time.Hour

	var wg sync.WaitGroup
	wg.Add(1)

	s.mockRepo.On("CreateBatch", mock.Anything, mock.MatchedBy(func(records []model.StoredRecord) bool {
		return len(records) == batchSize
	})).Run(func(args mock.Arguments) {
		wg.Done()
	}).Return(nil)

	s.worker = NewBatchRecordWorker(s.mockRepo, 10, batchSize, flushInterval, nil)
	defer s.worker.Shutdown()

	for i := 0; i < batchSize; i++ {
		s.worker.Enqueue(record("traffic"))
	}

	s.waitForAsyncOp(&wg, "Batch Size Trigger")
}

func (s *RecordWorkerTestSuite) TestTimeIntervalTrigger() {
	batchSize := 10
	flushInterval := 50 * time.Millisecond

	var wg sync.WaitGroup
	wg.Add(1)

	recordsToSend := 3
	s.mockRepo.On("CreateBatch", mock.Anything, mock.MatchedBy(func(records []model.StoredRecord) bool {
		return len(records) == recordsToSend
	})).Run(func(args mock.Arguments) {
		wg.Done()
	}).Return(nil)

	s.worker = NewBatchRecordWorker(s.mockRepo, 10, batchSize, flushInterval, nil)
	defer s.worker.Shutdown()

	for i := 0; i < recordsToSend; i++ {
		s.worker.Enqueue(record("traffic"))
	}

	s.waitForAsyncOp(&wg, "Time Interval Trigger")
}

func (s *RecordWorkerTestSuite) TestShutdownFlush() {
	recordsToSend := 4
	s.mockRepo.On("CreateBatch", mock.Anything, mock.MatchedBy(func(records []model.StoredRecord) bool {
		return len(records) == recordsToSend
	})).Return(nil)

	s.worker = NewBatchRecordWorker(s.mockRepo, 10, 10, time.Hour, nil)

	for i := 0; i < recordsToSend; i++ {
		s.worker.Enqueue(record("traffic"))
	}

	// Shutdown blocks until the queue is drained.
	s.worker.Shutdown()
}

func (s *RecordWorkerTestSuite) TestOnFlushReceivesDistinctDatasets() {
	s.mockRepo.On("CreateBatch", mock.Anything, mock.Anything).Return(nil).Once()

	var flushed []string
	s.worker = NewBatchRecordWorker(s.mockRepo, 10, 10, time.Hour, func(datasets ...string) {
		flushed = append(flushed, datasets...)
	})

	s.worker.Enqueue(record("traffic"))
	s.worker.Enqueue(record("vitals"))
	s.worker.Enqueue(record("traffic"))
	s.worker.Shutdown()

	s.Equal([]string{"traffic", "vitals"}, flushed)
}

func (s *RecordWorkerTestSuite) TestGracefulErrorHandling() {
	var wg sync.WaitGroup
	wg.Add(1)

	s.mockRepo.On("CreateBatch", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { wg.Done() }).
		Return(context.DeadlineExceeded)

	called := false
	s.worker = NewBatchRecordWorker(s.mockRepo, 10, 1, time.Hour, func(...string) { called = true })

	s.worker.Enqueue(record("traffic"))
	s.waitForAsyncOp(&wg, "Error Handling")
	s.worker.Shutdown()

	s.False(called, "failed batches must not invalidate caches")
}

func (s *RecordWorkerTestSuite) waitForAsyncOp(wg *sync.WaitGroup, testName string) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		s.T().Fatalf("Test '%s' timed out waiting for worker response", testName)
	}
}
