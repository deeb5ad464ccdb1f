package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"dashboard-metrics-service/internal/model"
	"dashboard-metrics-service/internal/timeseries"
)

// ErrDatasetRequired is returned when a fetch does not name a dataset.
var ErrDatasetRequired = errors.New("dataset is required")

// RecordRepository defines database operations for dashboard records.
type RecordRepository interface {
	// Create inserts a single record.
	Create(ctx context.Context, record model.StoredRecord) error

	// CreateBatch inserts multiple records in one native batch.
	CreateBatch(ctx context.Context, records []model.StoredRecord) error

	// FetchRecords loads the records of a dataset inside the filter window.
	FetchRecords(ctx context.Context, filter model.RecordFilter) ([]timeseries.Record, error)

	// ListDatasets returns the names of all datasets with stored records.
	ListDatasets(ctx context.Context) ([]string, error)
}

type recordRepository struct {
	conn clickhouse.Conn
}

// NewRecordRepository creates a RecordRepository backed by ClickHouse.
func NewRecordRepository(conn clickhouse.Conn) RecordRepository {
	return &recordRepository{conn: conn}
}

const insertRecordQuery = `INSERT INTO metric_records (record_id, dataset, ts, group_key, fields)`

const insertRecordValuesQuery = insertRecordQuery + ` VALUES (?, ?, ?, ?, ?)`

const selectRecordsQuery = `SELECT ts, group_key, fields FROM metric_records WHERE dataset = ?`

const listDatasetsQuery = `SELECT DISTINCT dataset FROM metric_records ORDER BY dataset`

func (r *recordRepository) Create(ctx context.Context, record model.StoredRecord) error {
	return r.conn.Exec(ctx, insertRecordValuesQuery,
		record.ID,
		record.Dataset,
		record.Record.Date.UTC(),
		record.Record.GroupKey,
		cleanFields(record.Record.Fields),
	)
}

func (r *recordRepository) CreateBatch(ctx context.Context, records []model.StoredRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch, err := r.conn.PrepareBatch(ctx, insertRecordQuery)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, record := range records {
		if err := batch.Append(
			record.ID,
			record.Dataset,
			record.Record.Date.UTC(),
			record.Record.GroupKey,
			cleanFields(record.Record.Fields),
		); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

func (r *recordRepository) FetchRecords(ctx context.Context, filter model.RecordFilter) ([]timeseries.Record, error) {
	query, args, err := buildSelectQuery(filter)
	if err != nil {
		return nil, err
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []timeseries.Record
	for rows.Next() {
		var (
			ts     time.Time
			group  string
			fields map[string]float64
		)
		if err := rows.Scan(&ts, &group, &fields); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, timeseries.Record{Date: ts, GroupKey: group, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

func (r *recordRepository) ListDatasets(ctx context.Context) ([]string, error) {
	rows, err := r.conn.Query(ctx, listDatasetsQuery)
	if err != nil {
		return nil, fmt.Errorf("query datasets: %w", err)
	}
	defer rows.Close()

	datasets := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan dataset: %w", err)
		}
		datasets = append(datasets, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate datasets: %w", err)
	}
	return datasets, nil
}

func buildSelectQuery(filter model.RecordFilter) (string, []any, error) {
	if strings.TrimSpace(filter.Dataset) == "" {
		return "", nil, ErrDatasetRequired
	}

	var sb strings.Builder
	sb.WriteString(selectRecordsQuery)
	args := []any{filter.Dataset}

	if !filter.From.IsZero() {
		sb.WriteString(" AND ts >= ?")
		args = append(args, filter.From.UTC())
	}
	if !filter.To.IsZero() {
		sb.WriteString(" AND ts <= ?")
		args = append(args, filter.To.UTC())
	}
	sb.WriteString(" ORDER BY ts")

	return sb.String(), args, nil
}

// cleanFields drops NaN and infinite values; ClickHouse maps cannot hold nulls.
func cleanFields(fields map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(fields))
	for k, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[k] = v
	}
	return out
}
