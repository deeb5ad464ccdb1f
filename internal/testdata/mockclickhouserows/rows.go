package mockclickhouserows

import (
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/stretchr/testify/mock"
)

// Rows is a testify mock of driver.Rows. Tests fill scan destinations with
// Run callbacks on the "Scan" expectation.
type Rows struct {
	mock.Mock
}

var _ driver.Rows = &Rows{}

func (m *Rows) Next() bool {
	return m.Called().Bool(0)
}

func (m *Rows) Scan(dest ...any) error {
	return m.Called(dest...).Error(0)
}

func (m *Rows) ScanStruct(dest any) error {
	return m.Called(dest).Error(0)
}

func (m *Rows) ColumnTypes() []driver.ColumnType {
	mockArgs := m.Called()
	if v, ok := mockArgs.Get(0).([]driver.ColumnType); ok {
		return v
	}
	return nil
}

func (m *Rows) Totals(dest ...any) error {
	return m.Called(dest...).Error(0)
}

func (m *Rows) Columns() []string {
	mockArgs := m.Called()
	if v, ok := mockArgs.Get(0).([]string); ok {
		return v
	}
	return nil
}

func (m *Rows) Close() error {
	return m.Called().Error(0)
}

func (m *Rows) Err() error {
	return m.Called().Error(0)
}
