package args

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tg-unibans/internal/models"
)

type fakeResolver struct {
	users    map[string]models.User
	channels map[string]models.Channel
	lookups  []string
}

func (f *fakeResolver) FetchUser(_ context.Context, id string) (models.User, error) {
	f.lookups = append(f.lookups, id)
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return models.User{}, errors.New("Unknown User")
}

func (f *fakeResolver) ResolveChannel(_ context.Context, ref string) (models.Channel, error) {
	if ch, ok := f.channels[ref]; ok {
		return ch, nil
	}
	return models.Channel{}, errors.New("chat not found")
}

func newResolver() *fakeResolver {
	return &fakeResolver{
		users: map[string]models.User{
			"42": {ID: "42", FirstName: "Alice"},
		},
		channels: map[string]models.Channel{
			"@news":  {ID: "-1001", Username: "news"},
			"-1002": {ID: "-1002", Title: "Ops"},
		},
	}
}

func parse(t *testing.T, spec string, tokens ...string) (Values, error) {
	t.Helper()
	return Parse(context.Background(), tokens, MustParseSpec(spec), newResolver())
}

func TestParse_RequiredIntThenString(t *testing.T) {
	values, err := parse(t, "int, str", "7", "x")
	require.NoError(t, err)
	assert.Equal(t, 7, values.Int(0))
	assert.Equal(t, "x", values.String(1))
}

func TestParse_OptionalLeavesTokenForNextSlot(t *testing.T) {
	values, err := parse(t, "int?, str", "x")
	require.NoError(t, err)
	assert.False(t, values.IsSet(0))
	assert.Nil(t, values[0])
	assert.Equal(t, "x", values.String(1))
}

func TestParse_OptionalAlone(t *testing.T) {
	values, err := parse(t, "int?")
	require.NoError(t, err)
	assert.Len(t, values, 1)
	assert.Nil(t, values[0])

	_, err = parse(t, "int?", "x")
	assert.ErrorIs(t, err, ErrTooManyArguments)
}

func TestParse_VariadicConsumesAll(t *testing.T) {
	values, err := parse(t, "str*", "a", "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, values.Strings(0))
}

func TestParse_VariadicEmpty(t *testing.T) {
	values, err := parse(t, "str*")
	require.NoError(t, err)
	assert.Empty(t, values.Strings(0))
	assert.NotNil(t, values.List(0))
}

func TestParse_VariadicStopsAtFirstFailure(t *testing.T) {
	values, err := parse(t, "int*, str", "1", "2", "three")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{1, 2}, values.List(0))
	assert.Equal(t, "three", values.String(1))
}

func TestParse_TooManyArguments(t *testing.T) {
	_, err := parse(t, "int", "1", "2")
	assert.ErrorIs(t, err, ErrTooManyArguments)

	_, err = parse(t, "", "extra")
	assert.ErrorIs(t, err, ErrTooManyArguments)
}

func TestParse_RequiredFailureReportsPosition(t *testing.T) {
	_, err := parse(t, "str, int", "a", "b")
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "integer", se.Expected)
	assert.Equal(t, 2, se.Position)

	_, err = parse(t, "user, str, str*")
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "user", se.Expected)
	assert.Equal(t, 1, se.Position)
}

func TestParse_PositionCountsVariadicAsOneValue(t *testing.T) {
	_, err := parse(t, "str*, int", "a")
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 2, se.Position)
}

func TestParse_Bool(t *testing.T) {
	for _, tok := range []string{"true", "YES", "On", "enable", "Enabled"} {
		values, err := parse(t, "bool", tok)
		require.NoError(t, err, tok)
		assert.True(t, values.Bool(0), tok)
	}
	for _, tok := range []string{"false", "no", "OFF", "disable", "disabled"} {
		values, err := parse(t, "bool", tok)
		require.NoError(t, err, tok)
		assert.False(t, values.Bool(0), tok)
	}
	_, err := parse(t, "bool", "maybe")
	assert.Error(t, err)
}

func TestParse_Float(t *testing.T) {
	values, err := parse(t, "float", "2.5")
	require.NoError(t, err)
	assert.Equal(t, 2.5, values.Float(0))
}

func TestParse_Snowflake(t *testing.T) {
	values, err := parse(t, "id, id", "guild:123456abc", "-100987")
	require.NoError(t, err)
	assert.Equal(t, "123456", values.String(0))
	assert.Equal(t, "-100987", values.String(1))

	_, err = parse(t, "id", "nodigits")
	assert.Error(t, err)
}

func TestParse_User(t *testing.T) {
	for _, tok := range []string{"42", "<@42>", "<@!42>", "tg://user?id=42"} {
		values, err := parse(t, "user", tok)
		require.NoError(t, err, tok)
		assert.Equal(t, "Alice", values.User(0).FirstName, tok)
	}
}

func TestParse_UserLookupFailureBacktracks(t *testing.T) {
	r := newResolver()
	values, err := Parse(context.Background(), []string{"99", "spam"}, MustParseSpec("user?, str, str"), r)
	require.NoError(t, err)
	assert.Nil(t, values[0])
	assert.Equal(t, "99", values.String(1))
	assert.Equal(t, "spam", values.String(2))
	assert.Equal(t, []string{"99"}, r.lookups)
}

func TestParse_UserSkipsLookupForNonIDs(t *testing.T) {
	r := newResolver()
	_, err := Parse(context.Background(), []string{"@alice"}, MustParseSpec("user"), r)
	assert.Error(t, err)
	assert.Empty(t, r.lookups)
}

func TestParse_Channel(t *testing.T) {
	values, err := parse(t, "channel, channel", "@news", "<#-1002>")
	require.NoError(t, err)
	assert.Equal(t, "-1001", values.Channel(0).ID)
	assert.Equal(t, "Ops", values.Channel(1).Title)

	_, err = parse(t, "channel", "@missing")
	assert.Error(t, err)
}

func TestParse_ValuesAreIndependentAcrossCalls(t *testing.T) {
	slots := MustParseSpec("int, int?")
	first, err := Parse(context.Background(), []string{"1"}, slots, nil)
	require.NoError(t, err)
	second, err := Parse(context.Background(), []string{"2", "3"}, slots, nil)
	require.NoError(t, err)

	assert.Equal(t, Values{1, nil}, first)
	assert.Equal(t, Values{2, 3}, second)
}

func TestParseSpec(t *testing.T) {
	slots, err := ParseSpec("user, str?, str*")
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, Required, slots[0].Mode)
	assert.Same(t, UserType, slots[0].Type)
	assert.Equal(t, Optional, slots[1].Mode)
	assert.Equal(t, Variadic, slots[2].Mode)

	slots, err = ParseSpec("")
	require.NoError(t, err)
	assert.Empty(t, slots)

	_, err = ParseSpec("str, widget")
	assert.ErrorContains(t, err, "unknown token type")

	assert.Panics(t, func() { MustParseSpec("nope") })
}

func TestCursor(t *testing.T) {
	c := NewCursor([]string{"a", "b"})
	tok, ok := c.Next()
	assert.True(t, ok)
	assert.Equal(t, "a", tok)
	c.Back()
	assert.Equal(t, 0, c.Pos())
	c.Back()
	assert.Equal(t, 0, c.Pos())
	c.Next()
	c.Next()
	_, ok = c.Next()
	assert.False(t, ok)
	assert.Equal(t, 2, c.Pos())
	assert.Empty(t, c.Remaining())
}
