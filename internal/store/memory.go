package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-memory RecordStore used by tests. It mirrors the SQL
// implementation's contract: generated ids and timestamps on insert,
// ErrNotFound on missing rows, single-batch id lookups. FailTable injects
// read/write failures to exercise degradation paths.
type Memory struct {
	mu       sync.Mutex
	tables   map[string][]map[string]any
	failures map[string]error
	clock    time.Time
}

func NewMemory() *Memory {
	return &Memory{
		tables:   make(map[string][]map[string]any),
		failures: make(map[string]error),
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Seed inserts rows directly, assigning ids and timestamps when missing.
func (m *Memory) Seed(table string, rows ...map[string]any) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		stored := m.stamp(copyRow(row))
		m.tables[table] = append(m.tables[table], stored)
		ids = append(ids, stored["id"].(string))
	}
	return ids
}

// FailTable makes every subsequent operation against the table return err.
// Pass nil to clear.
func (m *Memory) FailTable(table string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, table)
		return
	}
	m.failures[table] = err
}

func (m *Memory) GetByID(_ context.Context, table, id string) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failures[table]; err != nil {
		return nil, err
	}
	for _, row := range m.tables[table] {
		if str(row["id"]) == id {
			return copyRow(row), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) List(_ context.Context, table string, filter map[string]any, orderBy ...string) ([]map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failures[table]; err != nil {
		return nil, err
	}

	var out []map[string]any
	for _, row := range m.tables[table] {
		if matches(row, filter) {
			out = append(out, copyRow(row))
		}
	}
	sortRows(out, orderBy)
	return out, nil
}

func (m *Memory) ListByIDs(_ context.Context, table string, ids []string) ([]map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failures[table]; err != nil {
		return nil, err
	}

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []map[string]any
	for _, row := range m.tables[table] {
		if want[str(row["id"])] {
			out = append(out, copyRow(row))
		}
	}
	return out, nil
}

func (m *Memory) Search(_ context.Context, table string, fields []string, query string) ([]map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failures[table]; err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	var out []map[string]any
	for _, row := range m.tables[table] {
		for _, f := range fields {
			if row[f] == nil {
				continue
			}
			if strings.Contains(strings.ToLower(str(row[f])), needle) {
				out = append(out, copyRow(row))
				break
			}
		}
	}
	if len(fields) > 0 {
		sortRows(out, []string{fields[0]})
	}
	return out, nil
}

func (m *Memory) Insert(_ context.Context, table string, values map[string]any) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failures[table]; err != nil {
		return nil, err
	}

	row := m.stamp(copyRow(values))
	m.tables[table] = append(m.tables[table], row)
	return copyRow(row), nil
}

func (m *Memory) UpdateByID(_ context.Context, table, id string, values map[string]any) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failures[table]; err != nil {
		return nil, err
	}

	for _, row := range m.tables[table] {
		if str(row["id"]) == id {
			for k, v := range values {
				row[k] = v
			}
			row["updated_at"] = m.tick()
			return copyRow(row), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) DeleteByID(_ context.Context, table, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failures[table]; err != nil {
		return err
	}

	rows := m.tables[table]
	for i, row := range rows {
		if str(row["id"]) == id {
			m.tables[table] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// tick advances the fake clock so insertion order is reflected in
// created_at and sorting is deterministic.
func (m *Memory) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *Memory) stamp(row map[string]any) map[string]any {
	if _, ok := row["id"]; !ok {
		row["id"] = uuid.New().String()
	}
	now := m.tick()
	if _, ok := row["created_at"]; !ok {
		row["created_at"] = now
	}
	if _, ok := row["updated_at"]; !ok {
		row["updated_at"] = now
	}
	return row
}

func copyRow(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

func matches(row, filter map[string]any) bool {
	for k, v := range filter {
		if str(row[k]) != str(v) {
			return false
		}
	}
	return true
}

func sortRows(rows []map[string]any, orderBy []string) {
	if len(orderBy) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, col := range orderBy {
			if c := compareValues(rows[i][col], rows[j][col]); c != 0 {
				return c < 0
			}
		}
		return false
	})
}

func compareValues(a, b any) int {
	at, aok := a.(time.Time)
	bt, bok := b.(time.Time)
	if aok && bok {
		switch {
		case at.Before(bt):
			return -1
		case at.After(bt):
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(strings.ToLower(str(a)), strings.ToLower(str(b)))
}

func str(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
