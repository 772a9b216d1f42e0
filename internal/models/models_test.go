package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowID_DecodesNumbersAndStrings(t *testing.T) {
	var rows []struct {
		ID RowID `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(`[{"id":42},{"id":"abc"},{"id":null}]`), &rows))

	assert.Equal(t, RowID("42"), rows[0].ID)
	assert.Equal(t, RowID("abc"), rows[1].ID)
	assert.Equal(t, RowID(""), rows[2].ID)
}

func TestRowID_RejectsObjects(t *testing.T) {
	var id RowID
	assert.Error(t, json.Unmarshal([]byte(`{"x":1}`), &id))
}

func TestDisplayName(t *testing.T) {
	cases := []struct {
		user User
		want string
	}{
		{User{ID: "1", FirstName: "Ada", LastName: "Lovelace", Username: "ada"}, "Ada Lovelace (@ada)"},
		{User{ID: "1", FirstName: "Ada"}, "Ada"},
		{User{ID: "1", Username: "ada"}, "@ada"},
		{User{ID: "1"}, "1"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.user.DisplayName())
	}
}

func TestEffectiveBanRules(t *testing.T) {
	g := GuildRecord{Guild: "-1"}
	assert.Equal(t, DefaultBanRules, g.EffectiveBanRules())

	g.BanRules = "   "
	assert.Equal(t, DefaultBanRules, g.EffectiveBanRules())

	g.BanRules = "all=false"
	assert.Equal(t, "all=false", g.EffectiveBanRules())
}

func TestFormatBan(t *testing.T) {
	rec := BanRecord{
		User:      "5",
		Reason:    "spam",
		Source:    "-100",
		Timestamp: time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC).UnixMilli(),
		Verified:  true,
		Evidence:  "<script>",
	}

	out := FormatBan(rec)
	assert.Contains(t, out, "Timestamp | 2024-03-01T12:30:00.000Z")
	assert.Contains(t, out, "Verified  | Yes")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.NotContains(t, out, "<script>")
}

func TestReasonsAndLevels(t *testing.T) {
	assert.True(t, IsValidReason("banevasion"))
	assert.False(t, IsValidReason("Spam"))
	assert.Len(t, BanReasons, 11)

	assert.True(t, ValidPermLevel(0))
	assert.True(t, ValidPermLevel(PermOwner))
	assert.False(t, ValidPermLevel(5))
	assert.False(t, ValidPermLevel(-1))
}

func TestUserCache(t *testing.T) {
	c := NewUserCache(60)
	c.Add(User{ID: "5", FirstName: "Ada"})

	u, ok := c.Get("5")
	require.True(t, ok)
	assert.Equal(t, "Ada", u.FirstName)

	_, ok = c.Get("6")
	assert.False(t, ok)

	c.Remove("5")
	_, ok = c.Get("5")
	assert.False(t, ok)
}

func TestUserCache_Expiry(t *testing.T) {
	c := NewUserCache(0)
	c.Add(User{ID: "5"})
	c.Add(User{ID: "6"})

	time.Sleep(time.Millisecond)
	c.Purge()
	assert.Empty(t, c.users)

	c.Add(User{ID: "7"})
	time.Sleep(time.Millisecond)
	_, ok := c.Get("7")
	assert.False(t, ok)
}
