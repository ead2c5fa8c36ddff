package core_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leandroluk/golemspec/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	day := time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		a, b any
		want int
	}{
		{1, 2, -1},
		{int64(2), 2.0, 0},
		{uint8(3), int32(-1), 1},
		{"ana", "bia", -1},
		{day, day.Add(time.Hour), -1},
		{decimal.RequireFromString("10.50"), decimal.NewFromInt(10), 1},
		{ptrTo(5), 5, 0},
	}
	for _, tt := range tests {
		got, err := core.Compare(tt.a, tt.b)
		require.NoError(t, err, "%v vs %v", tt.a, tt.b)
		assert.Equal(t, tt.want, got, "%v vs %v", tt.a, tt.b)
	}

	for _, pair := range [][2]any{{"1", 1}, {nil, 1}, {[]int{1}, []int{1}}, {day, "2020-06-15"}} {
		_, err := core.Compare(pair[0], pair[1])
		assert.True(t, errors.Is(err, core.ErrIncomparable), "%v", pair)
	}
}

func TestEqual(t *testing.T) {
	id := uuid.New()
	assert.True(t, core.Equal(int64(2), 2))
	assert.True(t, core.Equal(id, id))
	assert.False(t, core.Equal(id, uuid.New()))
	assert.True(t, core.Equal(decimal.RequireFromString("1.0"), decimal.NewFromInt(1)))
	assert.True(t, core.Equal(nil, nil))
	assert.False(t, core.Equal(nil, 0))
	assert.False(t, core.Equal("2", 2))
}

func TestOrdered(t *testing.T) {
	for _, v := range []any{1, 2.5, "x", time.Now(), decimal.Zero, ptrTo(3)} {
		assert.True(t, core.Ordered(v), "%T", v)
	}
	for _, v := range []any{nil, true, []int{1}, struct{}{}, uuid.New(), (*int)(nil)} {
		assert.False(t, core.Ordered(v), "%T", v)
	}
}

func ptrTo[T any](v T) *T { return &v }
