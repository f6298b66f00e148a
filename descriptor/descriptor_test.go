package descriptor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	d, err := New([]float64{1, 2, 3}, 3, 5)
	require.NoError(t, err)
	require.Equal(t, 3, d.Dim())
	require.Equal(t, 5, d.ImageID())
	require.Equal(t, 2.0, d.Coord(1))
}

func TestNewInvalid(t *testing.T) {
	_, err := New([]float64{1, 2}, 0, 0)
	require.Error(t, err)

	_, err = New([]float64{1, 2}, 2, -1)
	require.Error(t, err)

	_, err = New(nil, 2, 0)
	require.Error(t, err)

	_, err = New([]float64{1, 2, 3}, 2, 0)
	require.Error(t, err)
}

func TestNewCopiesCoords(t *testing.T) {
	coords := []float64{1, 2, 3}
	d, err := New(coords, 3, 0)
	require.NoError(t, err)
	coords[0] = 999
	require.Equal(t, 1.0, d.Coord(0), "Descriptor must own a private copy of coords")
}

func TestSquaredL2(t *testing.T) {
	a, _ := New([]float64{0, 0}, 2, 0)
	b, _ := New([]float64{3, 4}, 2, 1)
	require.Equal(t, 25.0, a.SquaredL2(b))
	require.Equal(t, 0.0, a.SquaredL2(a))
}

func TestCoordPanicsOutOfRange(t *testing.T) {
	d, _ := New([]float64{1, 2}, 2, 0)
	require.Panics(t, func() { d.Coord(-1) })
	require.Panics(t, func() { d.Coord(2) })
}

func TestSquaredL2PanicsOnDimMismatch(t *testing.T) {
	a, _ := New([]float64{1, 2}, 2, 0)
	b, _ := New([]float64{1, 2, 3}, 3, 0)
	require.Panics(t, func() { a.SquaredL2(b) })
}
