package store

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tg-unibans/internal/config"
	"tg-unibans/internal/models"
)

func newTestRecords(t *testing.T, handler http.HandlerFunc) *Records {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return Open(config.StoreConfig{
		URL:      srv.URL,
		Username: "bot",
		Password: "secret",
		Timeout:  5 * time.Second,
	})
}

func TestCollectionList(t *testing.T) {
	records := newTestRecords(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/bans", r.URL.Path)
		assert.Equal(t, "123", r.URL.Query().Get("user"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "bot", user)
		assert.Equal(t, "secret", pass)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id":7,"user":"123","reason":"spam","source":"-100","timestamp":1700000000000,"verified":true,"evidence":"None provided"}]`)
	})

	rows, err := records.Bans.List(context.Background(), map[string]string{"user": "123"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.RowID("7"), rows[0].ID)
	assert.Equal(t, "spam", rows[0].Reason)
	assert.True(t, rows[0].Verified)
}

func TestCollectionPutAndUpdate(t *testing.T) {
	records := newTestRecords(t, func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		fields := map[string]interface{}{}
		assert.NoError(t, json.Unmarshal(body, &fields))

		switch r.Method {
		case http.MethodPost:
			assert.Equal(t, "/guilds", r.URL.Path)
			fields["id"] = "g1"
		case http.MethodPatch:
			assert.Equal(t, "/guilds/g1", r.URL.Path)
			fields["id"] = "g1"
			fields["guild"] = "-100"
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
		_ = json.NewEncoder(w).Encode(fields)
	})

	ctx := context.Background()
	row, err := records.Guilds.Put(ctx, models.GuildRecord{Guild: "-100", BanRules: "verified=true"})
	require.NoError(t, err)
	assert.Equal(t, models.RowID("g1"), row.ID)

	row, err = records.Guilds.Update(ctx, row.ID, map[string]interface{}{"blacklisted": true})
	require.NoError(t, err)
	assert.True(t, row.Blacklisted)
	assert.Equal(t, "-100", row.Guild)
}

func TestCollectionStatusError(t *testing.T) {
	records := newTestRecords(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})

	err := records.Users.Remove(context.Background(), "42")
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Status)
	assert.Equal(t, http.MethodDelete, statusErr.Method)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCollectionDoesNotRetry(t *testing.T) {
	calls := 0
	records := newTestRecords(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := records.Bans.Put(context.Background(), models.BanRecord{User: "1"})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestMemoryTable(t *testing.T) {
	ctx := context.Background()
	records := Open(config.StoreConfig{URL: MemoryURL})

	first, err := records.Bans.Put(ctx, models.BanRecord{User: "1", Reason: "spam", Timestamp: 1700000000000, Verified: true})
	require.NoError(t, err)
	second, err := records.Bans.Put(ctx, models.BanRecord{User: "2", Reason: "raid", Timestamp: 1700000000001})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	rows, err := records.Bans.List(ctx, map[string]string{"verified": "true"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0].User)

	rows, err = records.Bans.List(ctx, map[string]string{"timestamp": "1700000000001"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2", rows[0].User)

	updated, err := records.Bans.Update(ctx, second.ID, map[string]interface{}{"verified": true})
	require.NoError(t, err)
	assert.True(t, updated.Verified)
	assert.Equal(t, second.ID, updated.ID)

	rows, err = records.Bans.List(ctx, map[string]string{"verified": "true"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	require.NoError(t, records.Bans.Remove(ctx, first.ID))
	err = records.Bans.Remove(ctx, first.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	rows, err = records.Bans.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestPermissionLevel(t *testing.T) {
	ctx := context.Background()
	users := NewMemory[models.UserRecord]("users")
	_, err := users.Put(ctx, models.UserRecord{User: "10", Perms: models.PermAdmin})
	require.NoError(t, err)

	level, err := PermissionLevel(ctx, users, "10")
	require.NoError(t, err)
	assert.Equal(t, models.PermAdmin, level)

	level, err = PermissionLevel(ctx, users, "11")
	require.NoError(t, err)
	assert.Equal(t, models.PermNone, level)

	ok, err := HasPermissionLevel(ctx, users, "10", models.PermModerator)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = HasPermissionLevel(ctx, users, "10", models.PermOwner)
	require.NoError(t, err)
	assert.False(t, ok)
}
