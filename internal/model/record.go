package model

import (
	"time"

	"github.com/google/uuid"

	"dashboard-metrics-service/internal/timeseries"
)

// IngestRequest represents an incoming batch of raw dashboard rows.
type IngestRequest struct {
	Dataset    string           `json:"-"`
	DateField  string           `json:"date_field"`
	GroupField string           `json:"group_field"`
	Metrics    []string         `json:"metrics"`
	Timezone   string           `json:"timezone"`
	Rows       []map[string]any `json:"rows"`
}

// IngestResult is returned once rows are accepted for storage.
type IngestResult struct {
	Status      string                 `json:"status"`
	Accepted    int                    `json:"accepted"`
	Diagnostics timeseries.Diagnostics `json:"diagnostics"`
}

// StoredRecord is the domain model persisted in the database.
type StoredRecord struct {
	ID      uuid.UUID
	Dataset string
	Record  timeseries.Record
}

// RecordFilter selects stored records. A zero From/To leaves that side open.
type RecordFilter struct {
	Dataset string
	From    time.Time
	To      time.Time
}
