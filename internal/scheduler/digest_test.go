package scheduler

import (
	"context"
	"errors"
	"testing"

	"dashboard-metrics-service/internal/model"
	"dashboard-metrics-service/internal/testdata/mockservice"
	"dashboard-metrics-service/internal/timeseries"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewDigestScheduler_Validation(t *testing.T) {
	svc := &mockservice.Service{}

	_, err := NewDigestScheduler(svc, "0 0 8 * * MON", []string{"traffic"}, "fortnight")
	assert.Error(t, err)

	_, err = NewDigestScheduler(svc, "0 0 8 * * MON", []string{"traffic"}, "all-time")
	assert.Error(t, err)

	_, err = NewDigestScheduler(svc, "every monday", []string{"traffic"}, "week")
	assert.Error(t, err)

	d, err := NewDigestScheduler(svc, "0 0 8 * * MON", []string{"traffic"}, "Week")
	require.NoError(t, err)
	assert.Equal(t, timeseries.ModeWeek, d.mode)
}

func TestDigestScheduler_RunOnce(t *testing.T) {
	svc := &mockservice.Service{}
	group := "news"
	resp := model.CompareResponse{Results: []timeseries.ComparisonResult{{
		Baseline: timeseries.AggregatedBucket{GroupKey: &group},
		Comparisons: []timeseries.Comparison{{
			Delta:        map[string]*float64{"visits": timeseries.Float(5)},
			PercentDelta: map[string]*float64{"visits": nil},
		}},
	}}}

	svc.On("Compare", mock.Anything, model.CompareRequest{
		Dataset: "traffic", Baseline: model.RangeQuery{Mode: "month"}, Reducer: "sum",
	}).Return(resp, nil).Once()
	svc.On("Compare", mock.Anything, mock.MatchedBy(func(r model.CompareRequest) bool {
		return r.Dataset == "vitals"
	})).Return(model.CompareResponse{}, errors.New("boom")).Once()

	d, err := NewDigestScheduler(svc, "@every 1h", []string{"traffic", "vitals"}, "month")
	require.NoError(t, err)

	assert.Equal(t, 1, d.RunOnce(context.Background()))
	svc.AssertExpectations(t)
}

func TestDigestScheduler_StartStop(t *testing.T) {
	d, err := NewDigestScheduler(&mockservice.Service{}, "@every 1h", nil, "day")
	require.NoError(t, err)

	assert.True(t, d.Next().IsZero())
	d.Start()
	assert.False(t, d.Next().IsZero())
	d.Stop()
}
