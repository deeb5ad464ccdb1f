package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"dashboard-metrics-service/internal/model"
	"dashboard-metrics-service/internal/service"
	"dashboard-metrics-service/internal/timeseries"
)

// DigestScheduler periodically compares the current period of each dataset
// with the previous one and logs the per-field deltas.
type DigestScheduler struct {
	cron     *cron.Cron
	svc      service.DashboardService
	datasets []string
	mode     timeseries.Mode
	timeout  time.Duration
	entryID  cron.EntryID
}

// NewDigestScheduler validates mode and registers the digest job under
// schedule, a six field cron expression with seconds.
func NewDigestScheduler(svc service.DashboardService, schedule string, datasets []string, mode string) (*DigestScheduler, error) {
	m, err := timeseries.ParseMode(mode)
	if err != nil {
		return nil, err
	}
	if m == timeseries.ModeCustom || m == timeseries.ModeAllTime {
		return nil, fmt.Errorf("digest mode %q has no previous period", mode)
	}

	d := &DigestScheduler{
		cron:     cron.New(cron.WithSeconds()),
		svc:      svc,
		datasets: datasets,
		mode:     m,
		timeout:  30 * time.Second,
	}

	id, err := d.cron.AddFunc(schedule, d.run)
	if err != nil {
		return nil, fmt.Errorf("add digest job: %w", err)
	}
	d.entryID = id
	return d, nil
}

func (d *DigestScheduler) Start() {
	log.Info().Strs("datasets", d.datasets).Str("mode", string(d.mode)).Msg("digest scheduler started")
	d.cron.Start()
}

// Stop waits for a running digest to finish.
func (d *DigestScheduler) Stop() {
	<-d.cron.Stop().Done()
	log.Info().Msg("digest scheduler stopped")
}

// Next reports when the digest runs next. Zero until Start is called.
func (d *DigestScheduler) Next() time.Time {
	return d.cron.Entry(d.entryID).Next
}

func (d *DigestScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	d.RunOnce(ctx)
}

// RunOnce builds the digest for every dataset. Failures are logged per
// dataset and do not stop the others. It returns the number of datasets
// digested successfully.
func (d *DigestScheduler) RunOnce(ctx context.Context) int {
	ok := 0
	for _, dataset := range d.datasets {
		resp, err := d.svc.Compare(ctx, model.CompareRequest{
			Dataset:  dataset,
			Baseline: model.RangeQuery{Mode: string(d.mode)},
			Reducer:  string(timeseries.ReducerSum),
		})
		if err != nil {
			log.Error().Err(err).Str("dataset", dataset).Msg("digest failed")
			continue
		}
		ok++
		logDigest(dataset, resp)
	}
	return ok
}

func logDigest(dataset string, resp model.CompareResponse) {
	for _, result := range resp.Results {
		for _, cmp := range result.Comparisons {
			fields := make([]string, 0, len(cmp.Delta))
			for f := range cmp.Delta {
				fields = append(fields, f)
			}
			sort.Strings(fields)

			for _, f := range fields {
				event := log.Info().
					Str("dataset", dataset).
					Str("baseline", result.Baseline.Range.Label).
					Str("period", cmp.Bucket.Range.Label).
					Str("field", f)
				if result.Baseline.GroupKey != nil {
					event = event.Str("group", *result.Baseline.GroupKey)
				}
				if v := cmp.Delta[f]; v != nil {
					event = event.Float64("delta", *v)
				}
				if v := cmp.PercentDelta[f]; v != nil {
					event = event.Float64("percent_delta", *v)
				}
				event.Msg("digest")
			}
		}
	}
}
