package chaosmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zanicar/zksteg/errs"
	"github.com/zanicar/zksteg/keyderive"
)

func derive(t *testing.T, key string, ax, ay uint16) keyderive.ChaosParameters {
	t.Helper()
	p, err := keyderive.DeriveParameters([]byte(key), ax, ay)
	require.NoError(t, err)
	return p
}

func TestGenerate_Deterministic(t *testing.T) {
	p := derive(t, "a key", 5, 5)
	a, err := Generate(p, 5, 5, 64, 64, 500)
	require.NoError(t, err)
	b, err := Generate(p, 5, 5, 64, 64, 500)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerate_PositionsAreUniqueAndInBounds(t *testing.T) {
	p := derive(t, "uniqueness key", 3, 3)
	positions, err := Generate(p, 3, 3, 64, 64, 2000)
	require.NoError(t, err)
	require.Len(t, positions, 2000)

	seen := make(map[uint64]struct{}, len(positions))
	for _, pos := range positions {
		assert.Less(t, int(pos.X), 64)
		assert.Less(t, int(pos.Y), 64)
		assert.Less(t, int(pos.Channel), 3)
		k := packPosition(pos)
		_, dup := seen[k]
		assert.False(t, dup, "position %+v emitted twice", pos)
		seen[k] = struct{}{}
	}
}

func TestGenerate_CapacityExceeded(t *testing.T) {
	p := derive(t, "small", 0, 0)
	_, err := Generate(p, 0, 0, 32, 32, 32*32*3)
	require.ErrorIs(t, err, errs.ErrCapacityExceeded)
}

func TestGenerate_KeySensitivity(t *testing.T) {
	p1 := derive(t, "key one", 8, 8)
	p2 := derive(t, "key two", 8, 8)
	a, err := Generate(p1, 8, 8, 64, 64, 256)
	require.NoError(t, err)
	b, err := Generate(p2, 8, 8, 64, 64, 256)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
