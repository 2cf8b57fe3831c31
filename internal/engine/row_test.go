package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"db-sync/internal/engine"
)

func TestFromDriver_Kinds(t *testing.T) {
	assert.Equal(t, engine.KindNull, engine.FromDriver(nil).Kind)
	assert.Equal(t, engine.KindBool, engine.FromDriver(true).Kind)
	assert.Equal(t, engine.KindInt, engine.FromDriver(int64(42)).Kind)
	assert.Equal(t, engine.KindFloat, engine.FromDriver(3.14).Kind)
	assert.Equal(t, engine.KindString, engine.FromDriver("hello").Kind)
	assert.Equal(t, engine.KindBytes, engine.FromDriver([]byte("hello")).Kind)
	assert.Equal(t, engine.KindTime, engine.FromDriver(time.Now()).Kind)
}

func TestFromDriver_CopiesBytes(t *testing.T) {
	buf := []byte("original")
	v := engine.FromDriver(buf)
	copy(buf, "mutated!")

	assert.Equal(t, []byte("original"), v.Bytes)
}

func TestValueEqual_NullVsEmptyString(t *testing.T) {
	null := engine.FromDriver(nil)
	empty := engine.FromDriver("")

	assert.True(t, null.Equal(engine.FromDriver(nil)))
	assert.False(t, null.Equal(empty), "NULL and empty string are distinct")
	assert.False(t, empty.Equal(null))
}

func TestValueEqual_StringBytesInterchange(t *testing.T) {
	s := engine.FromDriver("hello")
	b := engine.FromDriver([]byte("hello"))

	assert.True(t, s.Equal(b))
	assert.True(t, b.Equal(s))
	assert.False(t, s.Equal(engine.FromDriver([]byte("world"))))
}

func TestValueEqual_TimeByInstant(t *testing.T) {
	utc := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	seoul := utc.In(time.FixedZone("KST", 9*3600))

	assert.True(t, engine.FromDriver(utc).Equal(engine.FromDriver(seoul)))
}

func TestValueEqual_CrossKind(t *testing.T) {
	// int 1 and string "1" never compare equal.
	assert.False(t, engine.FromDriver(int64(1)).Equal(engine.FromDriver("1")))
	assert.False(t, engine.FromDriver(true).Equal(engine.FromDriver(int64(1))))
}

func TestRowSet_SingleKey(t *testing.T) {
	set, err := engine.NewRowSet("users", []string{"id", "name"}, []string{"id"})
	require.NoError(t, err)

	set.Add(engine.Row{engine.FromDriver(int64(1)), engine.FromDriver("alice")})
	set.Add(engine.Row{engine.FromDriver(int64(2)), engine.FromDriver("bob")})

	assert.Equal(t, 2, set.Len())

	// Re-adding a key overwrites, not duplicates.
	set.Add(engine.Row{engine.FromDriver(int64(2)), engine.FromDriver("robert")})
	assert.Equal(t, 2, set.Len())
}

func TestRowSet_CompositeKeyDistinctness(t *testing.T) {
	set, err := engine.NewRowSet("m", []string{"a", "b"}, []string{"a", "b"})
	require.NoError(t, err)

	// ("ab", "c") and ("a", "bc") must produce different keys.
	k1 := set.KeyOf(engine.Row{engine.FromDriver("ab"), engine.FromDriver("c")})
	k2 := set.KeyOf(engine.Row{engine.FromDriver("a"), engine.FromDriver("bc")})

	assert.NotEqual(t, k1, k2)
}

func TestRowSet_KeyTextInterchange(t *testing.T) {
	// A string key and a bytes key for the same text address the same row;
	// drivers differ on which representation they return.
	set, err := engine.NewRowSet("users", []string{"id"}, []string{"id"})
	require.NoError(t, err)

	k1 := set.KeyOf(engine.Row{engine.FromDriver("u-1")})
	k2 := set.KeyOf(engine.Row{engine.FromDriver([]byte("u-1"))})

	assert.Equal(t, k1, k2)
}

func TestNewRowSet_MissingKeyColumn(t *testing.T) {
	_, err := engine.NewRowSet("users", []string{"name"}, []string{"id"})
	assert.Error(t, err)
}
