package battleship

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveShotHitThenSink(t *testing.T) {
	grid, fleet := newBoard(t, shipLayout{c(3, 3), 2, OrientationHorizontal})

	first := ResolveShot(grid, fleet, c(3, 3))
	require.True(t, first.Hit)
	assert.Nil(t, first.Sunk)
	assert.Equal(t, CellStateHit, first.Grid.At(c(3, 3)).State)
	assert.Equal(t, 1, first.Fleet[0].Hits)

	// inputs are untouched
	assert.Equal(t, CellStateOccupied, grid.At(c(3, 3)).State)
	assert.Equal(t, 0, fleet[0].Hits)

	second := ResolveShot(first.Grid, first.Fleet, c(3, 4))
	require.True(t, second.Hit)
	require.NotNil(t, second.Sunk)
	assert.Equal(t, 0, second.Sunk.Id)
	assert.Equal(t, 2, second.Sunk.Size)
	assert.True(t, second.Fleet[0].Sunk)
	assert.False(t, first.Fleet[0].Sunk)
	assert.True(t, CheckGameOver(second.Fleet))
}

func TestResolveShotMiss(t *testing.T) {
	grid, fleet := newBoard(t, shipLayout{c(3, 3), 2, OrientationHorizontal})

	result := ResolveShot(grid, fleet, c(7, 7))

	assert.False(t, result.Hit)
	assert.Nil(t, result.Sunk)
	assert.Equal(t, CellStateMiss, result.Grid.At(c(7, 7)).State)
	assert.Equal(t, CellStateEmpty, grid.At(c(7, 7)).State)
}

func TestResolveShotRepeatNeverDoubleCounts(t *testing.T) {
	grid, fleet := newBoard(t, shipLayout{c(3, 3), 3, OrientationVertical})

	result := ResolveShot(grid, fleet, c(3, 3))
	result = ResolveShot(result.Grid, result.Fleet, c(9, 9))

	for i := 0; i < 3; i++ {
		result = ResolveShot(result.Grid, result.Fleet, c(3, 3))
		assert.False(t, result.Hit)
		assert.Equal(t, 1, result.Fleet[0].Hits)

		result = ResolveShot(result.Grid, result.Fleet, c(9, 9))
		assert.False(t, result.Hit)
		assert.Equal(t, CellStateMiss, result.Grid.At(c(9, 9)).State)
	}

	offGrid := ResolveShot(result.Grid, result.Fleet, c(10, 3))
	assert.False(t, offGrid.Hit)
	assert.Equal(t, result.Grid, offGrid.Grid)
}

func TestSunkOnlyWhenEveryPositionHit(t *testing.T) {
	grid, fleet := newBoard(t,
		shipLayout{c(0, 0), 5, OrientationHorizontal},
		shipLayout{c(2, 0), 4, OrientationVertical},
		shipLayout{c(9, 7), 3, OrientationHorizontal},
	)

	for id, ship := range fleet {
		result := ShotResult{Grid: grid, Fleet: fleet}
		for i, pos := range ship.Positions {
			result = ResolveShot(result.Grid, result.Fleet, pos)
			last := i == len(ship.Positions)-1

			assert.Equal(t, last, result.Fleet[id].Sunk, "ship %d after %d hits", id, i+1)
			assert.Equal(t, last, result.Sunk != nil)
			assert.LessOrEqual(t, result.Fleet[id].Hits, result.Fleet[id].Size)
		}
	}
}

func TestCheckGameOver(t *testing.T) {
	assert.True(t, CheckGameOver(Fleet{}), "empty fleet is vacuously defeated")
	assert.True(t, CheckGameOver(nil))

	fleet := Fleet{
		{Id: 0, Size: 2, Hits: 2, Sunk: true},
		{Id: 1, Size: 3, Hits: 1},
	}
	assert.False(t, CheckGameOver(fleet))

	fleet[1].Hits, fleet[1].Sunk = 3, true
	assert.True(t, CheckGameOver(fleet))
	assert.Equal(t, 2, fleet.SunkenShips())
}

func TestShipClassName(t *testing.T) {
	assert.Equal(t, "Aircraft Carrier", ShipClassName(5, 0))
	assert.Equal(t, "Battleship", ShipClassName(4, 1))
	assert.Equal(t, "Cruiser", ShipClassName(3, 2))
	assert.Equal(t, "Submarine", ShipClassName(3, 3))
	assert.Equal(t, "Destroyer", ShipClassName(2, 4))
	assert.Equal(t, "Ship", ShipClassName(7, 0))
}
