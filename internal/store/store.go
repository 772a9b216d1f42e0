package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"

	"tg-unibans/internal/config"
	"tg-unibans/internal/metrics"
	"tg-unibans/internal/models"
)

// MemoryURL selects the in-process store instead of the HTTP client
const MemoryURL = "memory://"

// ErrNotFound is matched by errors.Is for 404 responses
var ErrNotFound = errors.New("not found")

// StatusError is returned for non-2xx responses
type StatusError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Status, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Table is one collection of the record store
type Table[T any] interface {
	List(ctx context.Context, filter map[string]string) ([]T, error)
	Put(ctx context.Context, row T) (T, error)
	Update(ctx context.Context, id models.RowID, fields map[string]interface{}) (T, error)
	Remove(ctx context.Context, id models.RowID) error
}

// Records groups the three collections the bot works with
type Records struct {
	Bans   Table[models.BanRecord]
	Guilds Table[models.GuildRecord]
	Users  Table[models.UserRecord]
}

// Open returns the record store described by cfg
func Open(cfg config.StoreConfig) *Records {
	if cfg.URL == MemoryURL {
		return NewMemoryRecords()
	}
	return NewHTTPRecords(NewClient(cfg))
}

// NewClient builds the resty client shared by the HTTP collections
func NewClient(cfg config.StoreConfig) *resty.Client {
	c := resty.New().
		SetBaseURL(cfg.URL).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout)
	if cfg.Username != "" || cfg.Password != "" {
		c.SetBasicAuth(cfg.Username, cfg.Password)
	}
	return c
}

// NewHTTPRecords wires the three collections onto one client
func NewHTTPRecords(client *resty.Client) *Records {
	return &Records{
		Bans:   NewCollection[models.BanRecord](client, "bans"),
		Guilds: NewCollection[models.GuildRecord](client, "guilds"),
		Users:  NewCollection[models.UserRecord](client, "users"),
	}
}

// Collection talks to one REST collection of the record store
type Collection[T any] struct {
	client *resty.Client
	name   string
}

func NewCollection[T any](client *resty.Client, name string) *Collection[T] {
	return &Collection[T]{client: client, name: name}
}

// List returns the rows matching every key/value pair of filter
func (c *Collection[T]) List(ctx context.Context, filter map[string]string) ([]T, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(filter).
		Get("/" + c.name)
	if err := checkResponse(c.name, resty.MethodGet, resp, err); err != nil {
		return nil, err
	}

	var rows []T
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		return nil, fmt.Errorf("decode %s list: %w", c.name, err)
	}
	return rows, nil
}

// Put creates a row and returns it with its assigned id
func (c *Collection[T]) Put(ctx context.Context, row T) (T, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(row).
		Post("/" + c.name)
	return decodeRow[T](c.name, resty.MethodPost, resp, err)
}

// Update applies a partial update to one row
func (c *Collection[T]) Update(ctx context.Context, id models.RowID, fields map[string]interface{}) (T, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", id.String()).
		SetBody(fields).
		Patch("/" + c.name + "/{id}")
	return decodeRow[T](c.name, resty.MethodPatch, resp, err)
}

// Remove deletes one row
func (c *Collection[T]) Remove(ctx context.Context, id models.RowID) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", id.String()).
		Delete("/" + c.name + "/{id}")
	return checkResponse(c.name, resty.MethodDelete, resp, err)
}

func decodeRow[T any](name, method string, resp *resty.Response, err error) (T, error) {
	var row T
	if err := checkResponse(name, method, resp, err); err != nil {
		return row, err
	}
	if err := json.Unmarshal(resp.Body(), &row); err != nil {
		return row, fmt.Errorf("decode %s row: %w", name, err)
	}
	return row, nil
}

func checkResponse(name, method string, resp *resty.Response, err error) error {
	if err != nil {
		metrics.StoreRequestsTotal.WithLabelValues(name, method, "error").Inc()
		return fmt.Errorf("record store request: %w", err)
	}
	metrics.StoreRequestsTotal.WithLabelValues(name, method, strconv.Itoa(resp.StatusCode())).Inc()
	if resp.IsError() {
		return &StatusError{
			Method: resp.Request.Method,
			URL:    resp.Request.URL,
			Status: resp.StatusCode(),
			Body:   resp.String(),
		}
	}
	return nil
}

// First returns the first row matching filter, or ok=false when none do
func First[T any](ctx context.Context, table Table[T], filter map[string]string) (T, bool, error) {
	rows, err := table.List(ctx, filter)
	if err != nil || len(rows) == 0 {
		var zero T
		return zero, false, err
	}
	return rows[0], true, nil
}

// PermissionLevel returns the stored permission level of a user, 0 when
// the user has no row
func PermissionLevel(ctx context.Context, users Table[models.UserRecord], userID string) (int, error) {
	row, ok, err := First(ctx, users, map[string]string{"user": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to look up permissions of %s: %w", userID, err)
	}
	if !ok {
		return models.PermNone, nil
	}
	return row.Perms, nil
}

// HasPermissionLevel reports whether the user's level is at least level
func HasPermissionLevel(ctx context.Context, users Table[models.UserRecord], userID string, level int) (bool, error) {
	perms, err := PermissionLevel(ctx, users, userID)
	if err != nil {
		return false, err
	}
	return perms >= level, nil
}
