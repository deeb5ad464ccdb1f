package db

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
)

const createRecordsTable = `
CREATE TABLE IF NOT EXISTS metric_records
(
	record_id   UUID,
	dataset     LowCardinality(String),
	ts          DateTime64(3, 'UTC'),
	group_key   String,
	fields      Map(String, Float64),
	ingested_at DateTime DEFAULT now()
)
ENGINE = MergeTree
PARTITION BY toYYYYMM(ts)
ORDER BY (dataset, ts, group_key, record_id)
SETTINGS index_granularity = 8192;
`

// RunMigrations ensures required tables exist. This keeps the service
// self-contained without an external migration step.
func RunMigrations(ctx context.Context, conn clickhouse.Conn) error {
	if err := conn.Exec(ctx, createRecordsTable); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
