package mockrepository

import (
	"context"

	"dashboard-metrics-service/internal/model"
	"dashboard-metrics-service/internal/repository"
	"dashboard-metrics-service/internal/timeseries"

	"github.com/stretchr/testify/mock"
)

type Repository struct {
	mock.Mock
}

// Interface compliance check
var _ repository.RecordRepository = &Repository{}

func (m *Repository) Create(ctx context.Context, record model.StoredRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *Repository) CreateBatch(ctx context.Context, records []model.StoredRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *Repository) FetchRecords(ctx context.Context, filter model.RecordFilter) ([]timeseries.Record, error) {
	args := m.Called(ctx, filter)
	records, _ := args.Get(0).([]timeseries.Record)
	return records, args.Error(1)
}

func (m *Repository) ListDatasets(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	datasets, _ := args.Get(0).([]string)
	return datasets, args.Error(1)
}
