package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"tg-unibans/internal/models"
)

// Memory is an in-process Table used for development and tests.
// Filters compare the JSON encoding of each field, the same way the
// remote store matches query parameters.
type Memory[T any] struct {
	name   string
	rows   []map[string]interface{}
	nextID int
	mu     sync.RWMutex
}

func NewMemory[T any](name string) *Memory[T] {
	return &Memory[T]{name: name}
}

// NewMemoryRecords returns a Records set backed entirely by memory
func NewMemoryRecords() *Records {
	return &Records{
		Bans:   NewMemory[models.BanRecord]("bans"),
		Guilds: NewMemory[models.GuildRecord]("guilds"),
		Users:  NewMemory[models.UserRecord]("users"),
	}
}

func (m *Memory[T]) List(ctx context.Context, filter map[string]string) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := make([]T, 0)
	for _, fields := range m.rows {
		if !matches(fields, filter) {
			continue
		}
		row, err := fromFields[T](fields)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (m *Memory[T]) Put(ctx context.Context, row T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	fields, err := toFields(row)
	if err != nil {
		return zero, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	fields["id"] = json.Number(strconv.Itoa(m.nextID))
	m.rows = append(m.rows, fields)
	return fromFields[T](fields)
}

func (m *Memory[T]) Update(ctx context.Context, id models.RowID, fields map[string]interface{}) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return zero, m.notFound(http.MethodPatch, id)
	}
	updated := make(map[string]interface{}, len(m.rows[i]))
	for k, v := range m.rows[i] {
		updated[k] = v
	}
	for k, v := range fields {
		if k == "id" {
			continue
		}
		updated[k] = v
	}
	row, err := fromFields[T](updated)
	if err != nil {
		return zero, err
	}
	// re-encode so later filters see normalized values
	normalized, err := toFields(row)
	if err != nil {
		return zero, err
	}
	normalized["id"] = m.rows[i]["id"]
	m.rows[i] = normalized
	return row, nil
}

func (m *Memory[T]) Remove(ctx context.Context, id models.RowID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return m.notFound(http.MethodDelete, id)
	}
	m.rows = append(m.rows[:i], m.rows[i+1:]...)
	return nil
}

// Len returns the number of stored rows
func (m *Memory[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

func (m *Memory[T]) indexOf(id models.RowID) int {
	for i, fields := range m.rows {
		if fmt.Sprint(fields["id"]) == id.String() {
			return i
		}
	}
	return -1
}

func (m *Memory[T]) notFound(method string, id models.RowID) error {
	return &StatusError{
		Method: method,
		URL:    MemoryURL + m.name + "/" + id.String(),
		Status: http.StatusNotFound,
		Body:   "no such row",
	}
}

func matches(fields map[string]interface{}, filter map[string]string) bool {
	for key, want := range filter {
		got, ok := fields[key]
		if !ok || fmt.Sprint(got) != want {
			return false
		}
	}
	return true
}

func toFields(row interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	fields := make(map[string]interface{})
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decode row: %w", err)
	}
	return fields, nil
}

func fromFields[T any](fields map[string]interface{}) (T, error) {
	var row T
	data, err := json.Marshal(fields)
	if err != nil {
		return row, fmt.Errorf("encode row: %w", err)
	}
	if err := json.Unmarshal(data, &row); err != nil {
		return row, fmt.Errorf("decode row: %w", err)
	}
	return row, nil
}
