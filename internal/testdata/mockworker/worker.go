package mockworker

import (
	"dashboard-metrics-service/internal/model"

	"github.com/stretchr/testify/mock"
)

type Worker struct {
	mock.Mock
}

func (m *Worker) Enqueue(record model.StoredRecord) {
	m.Called(record)
}

func (m *Worker) Shutdown() {
	m.Called()
}
