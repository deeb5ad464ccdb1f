package mockservice

import (
	"context"

	"dashboard-metrics-service/internal/model"
	"dashboard-metrics-service/internal/service"

	"github.com/stretchr/testify/mock"
)

type Service struct {
	mock.Mock
}

var _ service.DashboardService = &Service{}

func (m *Service) BuildRecords(req model.IngestRequest) (model.IngestResult, []model.StoredRecord, error) {
	args := m.Called(req)
	records, _ := args.Get(1).([]model.StoredRecord)
	return args.Get(0).(model.IngestResult), records, args.Error(2)
}

func (m *Service) ProcessRecords(ctx context.Context, records []model.StoredRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *Service) ListDatasets(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	datasets, _ := args.Get(0).([]string)
	return datasets, args.Error(1)
}

func (m *Service) ResolveRange(query model.RangeQuery, timezone string) (model.RangeResponse, error) {
	args := m.Called(query, timezone)
	return args.Get(0).(model.RangeResponse), args.Error(1)
}

func (m *Service) Aggregate(ctx context.Context, req model.AggregateRequest) (model.AggregateResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.AggregateResponse), args.Error(1)
}

func (m *Service) Compare(ctx context.Context, req model.CompareRequest) (model.CompareResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.CompareResponse), args.Error(1)
}

func (m *Service) Trend(ctx context.Context, req model.TrendRequest) (model.TrendResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.TrendResponse), args.Error(1)
}
