package fixedpoint

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaleDegrees(t *testing.T) {
	t.Parallel()
	got := FromInt64Degrees(90)
	want := new(big.Int).Mul(big.NewInt(90), DecimalsFactor)
	assert.Equal(t, 0, got.Cmp(want))
}

func TestValidLatLon(t *testing.T) {
	t.Parallel()
	assert.True(t, ValidLat(MaxLat))
	assert.True(t, ValidLat(MinLat))
	assert.False(t, ValidLat(Add(MaxLat, big.NewInt(1))))
	assert.True(t, ValidLon(MaxLon))
	assert.False(t, ValidLon(Sub(MinLon, big.NewInt(1))))
}

func TestRoundedDiv(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name     string
		num, den int64
		want     int64
	}{
		{"exact", 10, 2, 5},
		{"round up", 5, 2, 3},
		{"round down ties away from zero negative", -5, 2, -3},
		{"negative exact", -10, 2, -5},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := RoundedDiv(big.NewInt(tc.num), big.NewInt(tc.den))
			require.Equal(t, tc.want, got.Int64())
		})
	}
}

func TestFromFraction(t *testing.T) {
	t.Parallel()
	// 22.5 degrees == 45/2
	got := FromFraction(45, 2)
	want := RoundedDiv(new(big.Int).Mul(big.NewInt(45), DecimalsFactor), big.NewInt(2))
	assert.Equal(t, 0, got.Cmp(want))
}

func TestSquaredDistance2D(t *testing.T) {
	t.Parallel()
	got := SquaredDistance2D(big.NewInt(3), big.NewInt(4))
	assert.Equal(t, int64(25), got.Int64())
}

func TestCrossProduct2D(t *testing.T) {
	t.Parallel()
	got := CrossProduct2D(big.NewInt(2), big.NewInt(3), big.NewInt(1), big.NewInt(1))
	assert.Equal(t, int64(5), got.Int64())
}
