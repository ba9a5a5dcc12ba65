package columnar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelop/augustus/pkg/coerce"
)

func TestNew(t *testing.T) {
	tests := []struct {
		target coerce.Target
	}{
		{coerce.TargetString},
		{coerce.TargetCategory},
		{coerce.TargetInteger},
		{coerce.TargetDouble},
	}

	for _, tt := range tests {
		t.Run(tt.target.String(), func(t *testing.T) {
			col := New(tt.target, 8)
			assert.Equal(t, tt.target, col.Target())
			assert.Equal(t, 0, col.Len())
			assert.Equal(t, 8, col.Cap())
		})
	}
}

func TestStringColumn(t *testing.T) {
	col := NewStringColumn(4)
	require.NoError(t, col.Append("a"))
	require.NoError(t, col.Append("b"))

	assert.Equal(t, 2, col.Len())
	assert.Equal(t, "a", col.Get(0))
	assert.Equal(t, []string{"a", "b"}, col.Strings())

	assert.Error(t, col.Append(int64(1)))
}

func TestCategoryColumn(t *testing.T) {
	col := NewCategoryColumn(4)
	require.NoError(t, col.Append(int64(1)))
	require.NoError(t, col.Append(int64(0)))

	assert.Equal(t, []int64{1, 0}, col.Codes())
	assert.Equal(t, int64(1), col.Get(0))

	assert.Error(t, col.Append("blue"))
}

func TestIntegerColumn(t *testing.T) {
	col := NewIntegerColumn(4)
	require.NoError(t, col.Append(int64(7)))

	assert.Equal(t, []int64{7}, col.Ints())
	assert.Error(t, col.Append(int32(7)))
}

func TestDoubleColumn(t *testing.T) {
	col := NewDoubleColumn(4)
	require.NoError(t, col.Append(2.5))

	assert.Equal(t, []float64{2.5}, col.Doubles())
	assert.Error(t, col.Append(float32(2.5)))
}

func TestTruncate(t *testing.T) {
	col := NewIntegerColumn(4)
	for i := 0; i < 4; i++ {
		require.NoError(t, col.Append(int64(i)))
	}

	col.Truncate(2)
	assert.Equal(t, 2, col.Len())
	assert.Equal(t, []int64{0, 1}, col.Ints())

	// Truncating to a larger length is a no-op
	col.Truncate(10)
	assert.Equal(t, 2, col.Len())
}
