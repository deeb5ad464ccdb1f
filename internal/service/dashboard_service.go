package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"dashboard-metrics-service/internal/model"
	"dashboard-metrics-service/internal/repository"
	"dashboard-metrics-service/internal/timeseries"
)

// ValidationError represents user input issues.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Options tunes query behaviour.
type Options struct {
	// DeltaPrecision is the default rounding for comparison deltas.
	DeltaPrecision int32
	// MaxRanges caps how many periods a trend query may split into.
	MaxRanges int
}

type DashboardService interface {
	BuildRecords(req model.IngestRequest) (model.IngestResult, []model.StoredRecord, error)
	ProcessRecords(ctx context.Context, records []model.StoredRecord) error
	ListDatasets(ctx context.Context) ([]string, error)
	ResolveRange(query model.RangeQuery, timezone string) (model.RangeResponse, error)
	Aggregate(ctx context.Context, req model.AggregateRequest) (model.AggregateResponse, error)
	Compare(ctx context.Context, req model.CompareRequest) (model.CompareResponse, error)
	Trend(ctx context.Context, req model.TrendRequest) (model.TrendResponse, error)
}

// dashboardService wires the aggregation engine to storage and ingestion.
type dashboardService struct {
	repo   repository.RecordRepository
	worker RecordWorker
	cache  *AggregateCache
	opts   Options
	now    func() time.Time
	newID  func() uuid.UUID
}

// NewDashboardService constructs a dashboardService. cache may be nil.
func NewDashboardService(repo repository.RecordRepository, worker RecordWorker, cache *AggregateCache, opts Options) DashboardService {
	if cache == nil {
		cache = NewAggregateCache(0)
	}
	if opts.MaxRanges <= 0 {
		opts.MaxRanges = 400
	}
	if opts.DeltaPrecision > timeseries.MaxPrecision {
		opts.DeltaPrecision = timeseries.MaxPrecision
	}
	return &dashboardService{
		repo:   repo,
		worker: worker,
		cache:  cache,
		opts:   opts,
		now:    time.Now,
		newID:  uuid.New,
	}
}

// source is the record set a query runs against. Stored records are fetched
// on first use, so fully cached queries never reach the repository.
type source struct {
	dataset   string
	records   []timeseries.Record
	loaded    bool
	count     int
	window    model.RecordFilter
	version   uint64
	cacheable bool
	diag      *timeseries.Diagnostics
}

// BuildRecords validates an ingest request and converts its rows to storable records.
func (s *dashboardService) BuildRecords(req model.IngestRequest) (model.IngestResult, []model.StoredRecord, error) {
	dataset := strings.TrimSpace(req.Dataset)
	if dataset == "" {
		return model.IngestResult{}, nil, &ValidationError{Message: "dataset is required"}
	}
	if len(req.Rows) == 0 {
		return model.IngestResult{}, nil, &ValidationError{Message: "rows are required"}
	}

	loc, err := location(req.Timezone)
	if err != nil {
		return model.IngestResult{}, nil, err
	}

	records, diag := timeseries.NormalizeRows(req.Rows, timeseries.NormalizeOptions{
		DateField:  req.DateField,
		GroupField: req.GroupField,
		Metrics:    req.Metrics,
		Location:   loc,
	})

	stored := make([]model.StoredRecord, 0, len(records))
	for _, r := range records {
		stored = append(stored, model.StoredRecord{ID: s.newID(), Dataset: dataset, Record: r})
	}

	return model.IngestResult{
		Status:      "accepted",
		Accepted:    len(stored),
		Diagnostics: diag,
	}, stored, nil
}

// ProcessRecords hands records to the batch worker.
func (s *dashboardService) ProcessRecords(ctx context.Context, records []model.StoredRecord) error {
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.worker.Enqueue(r)
	}
	return nil
}

func (s *dashboardService) ListDatasets(ctx context.Context) ([]string, error) {
	return s.repo.ListDatasets(ctx)
}

// ResolveRange resolves a range query together with the period before it.
func (s *dashboardService) ResolveRange(query model.RangeQuery, timezone string) (model.RangeResponse, error) {
	loc, err := location(timezone)
	if err != nil {
		return model.RangeResponse{}, err
	}
	rs, err := s.resolveRange(query, loc)
	if err != nil {
		return model.RangeResponse{}, err
	}

	resp := model.RangeResponse{Range: rs}
	if prev, err := timeseries.PreviousRange(rs); err == nil {
		resp.Previous = &prev
	}
	return resp, nil
}

// Aggregate reduces the records of one range, optionally per group.
func (s *dashboardService) Aggregate(ctx context.Context, req model.AggregateRequest) (model.AggregateResponse, error) {
	reducer, err := parseReducer(req.Reducer)
	if err != nil {
		return model.AggregateResponse{}, err
	}
	loc, err := location(req.Timezone)
	if err != nil {
		return model.AggregateResponse{}, err
	}
	rs, err := s.resolveRange(req.Range, loc)
	if err != nil {
		return model.AggregateResponse{}, err
	}

	src, err := s.loadSource(req.Dataset, req.Inline, loc, []timeseries.RangeSpec{rs})
	if err != nil {
		return model.AggregateResponse{}, err
	}

	buckets, err := s.aggregate(ctx, src, rs, reducer, req.GroupBy)
	if err != nil {
		return model.AggregateResponse{}, err
	}

	return model.AggregateResponse{
		Meta:    s.meta(src, reducer, req.GroupBy),
		Buckets: buckets,
	}, nil
}

// Compare computes deltas of each comparison range against the baseline range.
// Without comparison ranges, the baseline range is compared against the
// period before it, which then becomes the baseline.
func (s *dashboardService) Compare(ctx context.Context, req model.CompareRequest) (model.CompareResponse, error) {
	reducer, err := parseReducer(req.Reducer)
	if err != nil {
		return model.CompareResponse{}, err
	}
	loc, err := location(req.Timezone)
	if err != nil {
		return model.CompareResponse{}, err
	}

	baseline, err := s.resolveRange(req.Baseline, loc)
	if err != nil {
		return model.CompareResponse{}, err
	}

	var others []timeseries.RangeSpec
	if len(req.Comparisons) == 0 {
		prev, err := timeseries.PreviousRange(baseline)
		if err != nil {
			return model.CompareResponse{}, asValidation(err)
		}
		baseline, others = prev, []timeseries.RangeSpec{baseline}
	} else {
		for i, q := range req.Comparisons {
			rs, err := s.resolveRange(q, loc)
			if err != nil {
				return model.CompareResponse{}, err
			}
			rs.Label = fmt.Sprintf("Compare #%d: %s", i+1, rangeLabel(rs))
			others = append(others, rs)
		}
	}

	precision := s.opts.DeltaPrecision
	if req.Precision != nil {
		if *req.Precision > timeseries.MaxPrecision {
			return model.CompareResponse{}, &ValidationError{
				Message: fmt.Sprintf("precision must be at most %d", timeseries.MaxPrecision),
			}
		}
		precision = *req.Precision
	}

	src, err := s.loadSource(req.Dataset, req.Inline, loc, append([]timeseries.RangeSpec{baseline}, others...))
	if err != nil {
		return model.CompareResponse{}, err
	}

	base, err := s.aggregate(ctx, src, baseline, reducer, req.GroupBy)
	if err != nil {
		return model.CompareResponse{}, err
	}
	perRange := make([][]timeseries.AggregatedBucket, len(others))
	for i, rs := range others {
		if perRange[i], err = s.aggregate(ctx, src, rs, reducer, req.GroupBy); err != nil {
			return model.CompareResponse{}, err
		}
	}

	// Every bucket list shares the group order, so index j is the same group.
	results := make([]timeseries.ComparisonResult, 0, len(base))
	for j, b := range base {
		cmp := make([]timeseries.AggregatedBucket, 0, len(others))
		for i := range others {
			cmp = append(cmp, perRange[i][j])
		}
		results = append(results, timeseries.Compare(b, cmp, precision))
	}

	return model.CompareResponse{
		Meta:    s.meta(src, reducer, req.GroupBy),
		Results: results,
	}, nil
}

// Trend splits a window into consecutive periods and returns one series per
// group for the requested field, each annotated with its trend.
func (s *dashboardService) Trend(ctx context.Context, req model.TrendRequest) (model.TrendResponse, error) {
	reducer, err := parseReducer(req.Reducer)
	if err != nil {
		return model.TrendResponse{}, err
	}
	if strings.TrimSpace(req.Field) == "" {
		return model.TrendResponse{}, &ValidationError{Message: "field is required"}
	}
	polarity, ok := timeseries.ParsePolarity(req.Polarity)
	if !ok {
		return model.TrendResponse{}, &ValidationError{Message: fmt.Sprintf("unsupported polarity %q", req.Polarity)}
	}
	mode, err := timeseries.ParseMode(req.Granularity)
	if err != nil {
		return model.TrendResponse{}, asValidation(err)
	}
	loc, err := location(req.Timezone)
	if err != nil {
		return model.TrendResponse{}, err
	}

	if req.Start == "" {
		return model.TrendResponse{}, &ValidationError{Message: "start is required"}
	}
	start, err := parseDate("start", req.Start, loc)
	if err != nil {
		return model.TrendResponse{}, err
	}
	end := s.now().In(loc)
	if req.End != "" {
		if end, err = parseDate("end", req.End, loc); err != nil {
			return model.TrendResponse{}, err
		}
	}

	ranges, err := timeseries.SplitRange(start, end, mode, s.opts.MaxRanges)
	if err != nil {
		return model.TrendResponse{}, asValidation(err)
	}

	src, err := s.loadSource(req.Dataset, req.Inline, loc, ranges)
	if err != nil {
		return model.TrendResponse{}, err
	}

	perRange := make([][]timeseries.AggregatedBucket, len(ranges))
	for i, rs := range ranges {
		if perRange[i], err = s.aggregate(ctx, src, rs, reducer, req.GroupBy); err != nil {
			return model.TrendResponse{}, err
		}
	}

	return model.TrendResponse{
		Meta:   s.meta(src, reducer, req.GroupBy),
		Ranges: ranges,
		Series: timeseries.BuildSeries(perRange, req.Field, polarity),
	}, nil
}

func (s *dashboardService) resolveRange(q model.RangeQuery, loc *time.Location) (timeseries.RangeSpec, error) {
	modeRaw := q.Mode
	if modeRaw == "" {
		if q.Start == "" || q.End == "" {
			return timeseries.RangeSpec{}, &ValidationError{Message: "range mode is required"}
		}
		modeRaw = string(timeseries.ModeCustom)
	}

	mode, err := timeseries.ParseMode(modeRaw)
	if err != nil {
		return timeseries.RangeSpec{}, asValidation(err)
	}

	if mode == timeseries.ModeCustom {
		if q.Start == "" || q.End == "" {
			return timeseries.RangeSpec{}, &ValidationError{Message: "custom range requires start and end"}
		}
		start, err := parseDate("start", q.Start, loc)
		if err != nil {
			return timeseries.RangeSpec{}, err
		}
		end, err := parseDate("end", q.End, loc)
		if err != nil {
			return timeseries.RangeSpec{}, err
		}
		rs, err := timeseries.ResolveCustomRange(start, end)
		return rs, asValidation(err)
	}

	ref := s.now().In(loc)
	if q.Reference != "" {
		if ref, err = parseDate("reference_date", q.Reference, loc); err != nil {
			return timeseries.RangeSpec{}, err
		}
	}
	rs, err := timeseries.ResolveNamedRange(ref, mode)
	return rs, asValidation(err)
}

// loadSource returns inline rows when given, otherwise a lazy view of the
// stored records of dataset covering every range.
func (s *dashboardService) loadSource(dataset string, inline *model.InlineData, loc *time.Location, ranges []timeseries.RangeSpec) (*source, error) {
	if inline != nil {
		records, diag := timeseries.NormalizeRows(inline.Rows, timeseries.NormalizeOptions{
			DateField:  inline.DateField,
			GroupField: inline.GroupField,
			Metrics:    inline.Metrics,
			Location:   loc,
		})
		return &source{dataset: dataset, records: records, loaded: true, count: len(records), diag: &diag}, nil
	}

	dataset = strings.TrimSpace(dataset)
	if dataset == "" {
		return nil, &ValidationError{Message: "dataset is required"}
	}

	return &source{
		dataset:   dataset,
		window:    envelope(dataset, ranges),
		version:   s.cache.Version(dataset),
		cacheable: true,
	}, nil
}

func (s *dashboardService) aggregate(ctx context.Context, src *source, rs timeseries.RangeSpec, reducer timeseries.Reducer, groupBy *timeseries.GroupBy) ([]timeseries.AggregatedBucket, error) {
	var key cacheKey
	if src.cacheable {
		key = newCacheKey(src.dataset, src.version, src.window, rs, reducer, groupBy)
		if entry, ok := s.cache.get(key); ok {
			if !src.loaded {
				src.count = entry.records
			}
			return entry.buckets, nil
		}
	}

	if !src.loaded {
		records, err := s.repo.FetchRecords(ctx, src.window)
		if err != nil {
			return nil, err
		}
		src.records, src.loaded, src.count = records, true, len(records)
	}

	buckets, err := timeseries.Aggregate(src.records, rs, reducer, groupBy)
	if err != nil {
		return nil, asValidation(err)
	}

	if src.cacheable {
		s.cache.put(key, cacheEntry{buckets: buckets, records: len(src.records)})
	}
	return buckets, nil
}

func (s *dashboardService) meta(src *source, reducer timeseries.Reducer, groupBy *timeseries.GroupBy) model.QueryMeta {
	meta := model.QueryMeta{
		Dataset: src.dataset,
		Reducer: string(reducer),
		Grouped: groupBy != nil,
		Records: src.count,
		Cached:  !src.loaded,
	}
	if src.diag != nil && !src.diag.Empty() {
		meta.Diagnostics = src.diag
	}
	return meta
}

// envelope is the smallest filter covering every range; any all-time range
// removes the bounds.
func envelope(dataset string, ranges []timeseries.RangeSpec) model.RecordFilter {
	filter := model.RecordFilter{Dataset: dataset}
	for i, rs := range ranges {
		if rs.Unbounded() {
			return model.RecordFilter{Dataset: dataset}
		}
		if i == 0 || rs.Start.Before(filter.From) {
			filter.From = rs.Start
		}
		if i == 0 || rs.End.After(filter.To) {
			filter.To = rs.End
		}
	}
	return filter
}

func rangeLabel(rs timeseries.RangeSpec) string {
	if rs.Unbounded() {
		return rs.Label
	}
	return fmt.Sprintf("%s → %s", rs.Start.Format("2006-01-02"), rs.End.Format("2006-01-02"))
}

func parseReducer(raw string) (timeseries.Reducer, error) {
	if strings.TrimSpace(raw) == "" {
		return timeseries.ReducerSum, nil
	}
	r, err := timeseries.ParseReducer(raw)
	return r, asValidation(err)
}

func parseDate(field, raw string, loc *time.Location) (time.Time, error) {
	t, err := timeseries.ParseDate(raw, loc)
	if err != nil {
		return time.Time{}, &ValidationError{Message: fmt.Sprintf("invalid %s date %q", field, raw)}
	}
	return t, nil
}

func location(tz string) (*time.Location, error) {
	if tz == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, &ValidationError{Message: fmt.Sprintf("unknown timezone %q", tz)}
	}
	return loc, nil
}

// asValidation maps engine input errors to ValidationError and passes
// everything else through.
func asValidation(err error) error {
	if err == nil {
		return nil
	}
	var (
		modeErr    *timeseries.InvalidModeError
		rangeErr   *timeseries.InvalidRangeError
		reducerErr *timeseries.UnsupportedReducerError
		limitErr   *timeseries.TooManyRangesError
	)
	switch {
	case errors.As(err, &modeErr), errors.As(err, &rangeErr), errors.As(err, &reducerErr),
		errors.As(err, &limitErr),
		errors.Is(err, timeseries.ErrNoPreviousRange):
		return &ValidationError{Message: err.Error()}
	default:
		return err
	}
}
