package battleship

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerr "github.com/saeidalz13/battleship-solo/internal/error"
)

// One row apart, every ship horizontal from column 0.
var rowOrigins = []Coordinates{c(0, 0), c(2, 0), c(4, 0), c(6, 0), c(8, 0)}

func newPlacedGame(t *testing.T, seed uint64) *Game {
	t.Helper()

	g := NewGame("test", NewRandomizer(seed, seed+1))
	for _, origin := range rowOrigins {
		_, err := g.PlaceShip(origin)
		require.NoError(t, err)
	}
	require.True(t, g.AllShipsPlaced())
	return g
}

func TestGameSetup(t *testing.T) {
	g := NewGame("test", NewRandomizer(1, 2))

	assert.Equal(t, GamePhaseSetup, g.Phase())
	assert.Equal(t, 5, g.NextShipSize())
	assert.Equal(t, OrientationHorizontal, g.Orientation())
	assert.Contains(t, opponentNames, g.OpponentName())

	ship, err := g.PlaceShip(c(0, 0))
	require.NoError(t, err)
	assert.Equal(t, 0, ship.Id)
	assert.Equal(t, 5, ship.Size)
	assert.Equal(t, 4, g.NextShipSize())

	// adjacent to the carrier: refused, nothing advances
	_, err = g.PlaceShip(c(1, 3))
	require.Error(t, err)
	assert.True(t, errors.Is(err, cerr.ErrInvalidPlacement))
	assert.Equal(t, msgPlacementRejected, g.Message())
	assert.Equal(t, 4, g.NextShipSize())
	assert.Len(t, g.PlayerFleet(), 1)

	_, valid := g.PreviewPlacement(c(1, 3))
	assert.False(t, valid)

	require.Equal(t, OrientationVertical, g.ToggleOrientation())
	positions, valid := g.PreviewPlacement(c(9, 9))
	require.True(t, valid)
	assert.Equal(t, []Coordinates{c(6, 9), c(7, 9), c(8, 9), c(9, 9)}, positions)

	// clamped the same way as the preview
	ship, err = g.PlaceShip(c(9, 9))
	require.NoError(t, err)
	assert.Equal(t, positions, ship.Positions)

	err = g.Start()
	assert.True(t, errors.Is(err, cerr.ErrFleetIncomplete))
}

func TestGameStart(t *testing.T) {
	g := newPlacedGame(t, 3)
	assert.Equal(t, msgAllShipsPlaced, g.Message())

	_, err := g.PlaceShip(c(9, 9))
	assert.True(t, errors.Is(err, cerr.ErrAllShipsPlaced))

	require.NoError(t, g.Start())
	assert.Equal(t, GamePhasePlaying, g.Phase())
	assert.Equal(t, SidePlayer, g.Turn())
	assert.Len(t, g.OpponentFleet(), len(DefaultShipSizes))
	assert.Error(t, g.Start())
}

func TestGameTurnValidation(t *testing.T) {
	g := newPlacedGame(t, 4)

	_, err := g.FireAtOpponent(c(0, 0))
	require.Error(t, err, "cannot fire during setup")

	require.NoError(t, g.Start())

	_, err = g.PlayOpponentTurn()
	assert.True(t, errors.Is(err, cerr.ErrNotOpponentTurn))

	_, err = g.FireAtOpponent(c(10, 0))
	assert.True(t, errors.Is(err, cerr.ErrOutOfGridBound))

	outcome, err := g.FireAtOpponent(c(0, 0))
	require.NoError(t, err)
	assert.Equal(t, SidePlayer, outcome.Shooter)
	assert.Equal(t, SideOpponent, g.Turn())

	_, err = g.FireAtOpponent(c(1, 1))
	assert.True(t, errors.Is(err, cerr.ErrNotPlayerTurn))

	outcome, err = g.PlayOpponentTurn()
	require.NoError(t, err)
	assert.Equal(t, SideOpponent, outcome.Shooter)
	assert.Equal(t, SidePlayer, g.Turn())
	assert.Contains(t, outcome.Message, "Your turn!")

	before := g.OpponentGrid()
	_, err = g.FireAtOpponent(c(0, 0))
	assert.True(t, errors.Is(err, cerr.ErrCellAlreadyShot))
	assert.Equal(t, msgAlreadyShot, g.Message())
	assert.Equal(t, SidePlayer, g.Turn())
	assert.Equal(t, before, g.OpponentGrid())
}

func TestGamePlayerWins(t *testing.T) {
	g := newPlacedGame(t, 5)
	require.NoError(t, g.Start())

	var targets []Coordinates
	for _, ship := range g.OpponentFleet() {
		targets = append(targets, ship.Positions...)
	}

	var last TurnOutcome
	for i, at := range targets {
		outcome, err := g.FireAtOpponent(at)
		require.NoError(t, err)
		require.True(t, outcome.Hit)
		last = outcome

		if i < len(targets)-1 {
			_, err = g.PlayOpponentTurn()
			require.NoError(t, err)
		}
	}

	assert.Equal(t, SidePlayer, last.Winner)
	assert.Equal(t, msgPlayerWon, last.Message)
	assert.Equal(t, SidePlayer, g.Winner())
	assert.True(t, g.IsFinished())
	assert.True(t, CheckGameOver(g.OpponentFleet()))

	_, err := g.PlayOpponentTurn()
	assert.Error(t, err)
}

func TestGameOpponentWins(t *testing.T) {
	g := newPlacedGame(t, 6)
	require.NoError(t, g.Start())

	// The player passes every turn; only the opponent shoots.
	var last TurnOutcome
	for turn := 0; turn < GridSize*GridSize && !g.IsFinished(); turn++ {
		g.turn = SideOpponent

		var err error
		last, err = g.PlayOpponentTurn()
		require.NoError(t, err)
	}

	require.True(t, g.IsFinished())
	assert.Equal(t, SideOpponent, g.Winner())
	assert.Equal(t, SideOpponent, last.Winner)
	assert.Equal(t, msgOpponentWon, last.Message)
	assert.Equal(t, SideNone, g.Turn())
	assert.True(t, CheckGameOver(g.PlayerFleet()))
	assert.False(t, CheckGameOver(g.OpponentFleet()))
}

func TestGameReset(t *testing.T) {
	g := newPlacedGame(t, 7)
	require.NoError(t, g.Start())
	_, err := g.FireAtOpponent(c(5, 5))
	require.NoError(t, err)

	g.Reset()

	assert.Equal(t, GamePhaseSetup, g.Phase())
	assert.Equal(t, SideNone, g.Winner())
	assert.Empty(t, g.PlayerFleet())
	assert.Empty(t, g.OpponentFleet())
	assert.Equal(t, NewGrid(), g.PlayerGrid())
	assert.Equal(t, AIState{Mode: AIModeHunt}, g.OpponentState())
	assert.Equal(t, DefaultShipSizes, g.ShipsToPlace())
}
