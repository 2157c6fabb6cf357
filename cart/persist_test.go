package cart

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalEnvelope(t *testing.T) {
	s := New()
	s.AddItem(oximeter(10), 2)

	blob, err := Marshal(s)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(blob, &raw))
	assert.JSONEq(t, `1`, string(raw["version"]))

	var state map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw["state"], &state))
	assert.Len(t, state, 2)
	assert.Contains(t, state, "items")
	assert.Contains(t, state, "shippingCents")
}

func TestUnmarshalRestoresState(t *testing.T) {
	s := New()
	s.AddItem(oximeter(10), 2)
	s.SetShippingCents(700)

	blob, err := Marshal(s)
	require.NoError(t, err)
	got, err := Unmarshal(blob)
	require.NoError(t, err)

	assert.Equal(t, s.State(), got.State())
	assert.Equal(t, int64(36700), got.TotalCents())
}

func TestUnmarshalMigratesV0(t *testing.T) {
	blob := []byte(`{"version":0,"state":{"items":[{"productId":"p1","name":"Tensiómetro","unitCents":18000,"quantity":2},{"productId":"p2","unitCents":500,"currency":"USD","quantity":1}],"shippingCents":0}}`)

	s, err := Unmarshal(blob)
	require.NoError(t, err)

	line, ok := s.Item("p1")
	require.True(t, ok)
	assert.Equal(t, int64(18000), line.UnitCents)
	assert.Equal(t, 2, line.Quantity)
	assert.Equal(t, "PEN", line.Currency)

	other, ok := s.Item("p2")
	require.True(t, ok)
	assert.Equal(t, "USD", other.Currency)
	assert.Equal(t, int64(36500), s.SubtotalCents())
}

func TestUnmarshalMigratesEmptyV0(t *testing.T) {
	s, err := Unmarshal([]byte(`{"version":0}`))
	require.NoError(t, err)
	assert.Empty(t, s.Items())
}

func TestUnmarshalDropsLinesWithoutProduct(t *testing.T) {
	s, err := Unmarshal([]byte(`{"version":1,"state":{"items":[{"productId":"","unitCents":0,"quantity":2},{"productId":"b","unitCents":100,"quantity":1}]}}`))
	require.NoError(t, err)
	require.Len(t, s.Items(), 1)
	assert.Equal(t, "b", s.Items()[0].ProductID)
	assert.Equal(t, int64(100), s.SubtotalCents())
}

func TestUnmarshalRejectsNewerVersion(t *testing.T) {
	_, err := Unmarshal([]byte(`{"version":2,"state":{"items":[]}}`))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestUnmarshalDropsNonPositiveLines(t *testing.T) {
	s, err := Unmarshal([]byte(`{"version":1,"state":{"items":[{"productId":"a","unitCents":1,"quantity":0},{"productId":"b","unitCents":1,"quantity":1}],"shippingCents":-5}}`))
	require.NoError(t, err)
	assert.False(t, s.HasItem("a"))
	assert.True(t, s.HasItem("b"))
	assert.Equal(t, int64(0), s.ShippingCents())
}

func TestLoadMissingReturnsEmpty(t *testing.T) {
	s, err := Load(context.Background(), NewMemoryStorage(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, s.Items())
}

func TestMemoryStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStorage()
	s := New()
	s.AddItem(oximeter(10), 1)

	require.NoError(t, Save(ctx, st, "c1", s))
	got, err := Load(ctx, st, "c1")
	require.NoError(t, err)
	assert.Equal(t, s.State(), got.State())

	require.NoError(t, st.Delete(ctx, Key("c1")))
	_, err = st.Get(ctx, Key("c1"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStorageRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	st := NewRedisStorage(client, time.Hour)
	s := New()
	s.AddItem(oximeter(10), 3)

	require.NoError(t, Save(ctx, st, "c1", s))
	assert.True(t, mr.Exists("dafamedic-cart:c1"))
	assert.Equal(t, time.Hour, mr.TTL("dafamedic-cart:c1"))

	got, err := Load(ctx, st, "c1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.TotalItems())

	require.NoError(t, st.Delete(ctx, Key("c1")))
	_, err = st.Get(ctx, Key("c1"))
	assert.ErrorIs(t, err, ErrNotFound)
}
