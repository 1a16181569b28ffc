package battleship

import (
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	cerr "github.com/saeidalz13/battleship-solo/internal/error"
)

type GamePhase uint8

const (
	GamePhaseSetup GamePhase = iota
	GamePhasePlaying
	GamePhaseGameOver
)

func (gp GamePhase) String() string {
	switch gp {
	case GamePhaseSetup:
		return "setup"
	case GamePhasePlaying:
		return "playing"
	case GamePhaseGameOver:
		return "gameover"
	default:
		return "unknown"
	}
}

type Side uint8

const (
	SideNone Side = iota
	SidePlayer
	SideOpponent
)

func (s Side) String() string {
	switch s {
	case SidePlayer:
		return "player"
	case SideOpponent:
		return "opponent"
	default:
		return "none"
	}
}

var opponentNames = []string{"Cursor", "CodeX", "Copilot", "Augment", "Tabnine"}

const (
	msgPlacementRejected = "Cannot place ship here. Ships need a 1-cell gap between them."
	msgAllShipsPlaced    = "All ships placed! Start the game to begin."
	msgYourTurn          = "Your turn! Fire at the enemy grid."
	msgAlreadyShot       = "You already shot here. Choose another cell."
	msgPlayerWon         = "Congratulations! You won!"
	msgOpponentWon       = "Game Over! Enemy won."
)

// TurnOutcome is what presentation needs to render one resolved shot.
type TurnOutcome struct {
	Shooter Side
	At      Coordinates
	Hit     bool
	Sunk    *Ship
	Winner  Side
	Message string
}

type Game struct {
	uuid         string
	phase        GamePhase
	turn         Side
	winner       Side
	message      string
	opponentName string
	createdAt    time.Time

	// unix nanos; read by the manager's cleanup goroutine
	lastActivity atomic.Int64

	playerGrid    Grid
	opponentGrid  Grid
	playerFleet   Fleet
	opponentFleet Fleet

	shipsToPlace     []int
	currentShipIndex int
	orientation      Orientation

	opponent *Opponent
	rng      Randomizer
}

func NewGame(uuid string, rng Randomizer) *Game {
	g := &Game{uuid: uuid, rng: rng, createdAt: time.Now()}
	g.Reset()
	return g
}

// Reset throws away both boards, both fleets and the opponent's
// belief state and puts the game back into setup.
func (g *Game) Reset() {
	g.touch()
	g.phase = GamePhaseSetup
	g.turn = SidePlayer
	g.winner = SideNone
	g.opponentName = opponentNames[g.rng.IntN(len(opponentNames))]

	g.playerGrid = NewGrid()
	g.opponentGrid = NewGrid()
	g.playerFleet = make(Fleet, 0, len(DefaultShipSizes))
	g.opponentFleet = nil

	g.shipsToPlace = slices.Clone(DefaultShipSizes)
	g.currentShipIndex = 0
	g.orientation = OrientationHorizontal
	g.message = placeShipMessage(g.shipsToPlace[0])

	g.opponent = NewOpponent(g.rng)
}

func (g *Game) Uuid() string { return g.uuid }
func (g *Game) Phase() GamePhase { return g.phase }
func (g *Game) Turn() Side { return g.turn }
func (g *Game) Winner() Side { return g.winner }
func (g *Game) Message() string { return g.message }
func (g *Game) OpponentName() string { return g.opponentName }
func (g *Game) CreatedAt() time.Time { return g.createdAt }

// LastActivity is when the game last changed state or was looked at
// through a setup or turn operation.
func (g *Game) LastActivity() time.Time { return time.Unix(0, g.lastActivity.Load()) }

func (g *Game) touch() { g.lastActivity.Store(time.Now().UnixNano()) }
func (g *Game) Orientation() Orientation { return g.orientation }
func (g *Game) PlayerGrid() Grid { return g.playerGrid }
func (g *Game) OpponentGrid() Grid { return g.opponentGrid }
func (g *Game) PlayerFleet() Fleet { return g.playerFleet.Clone() }
func (g *Game) OpponentFleet() Fleet { return g.opponentFleet.Clone() }
func (g *Game) OpponentState() AIState { return g.opponent.State() }
func (g *Game) ShipsToPlace() []int { return slices.Clone(g.shipsToPlace) }
func (g *Game) IsFinished() bool { return g.phase == GamePhaseGameOver }
func (g *Game) AllShipsPlaced() bool { return g.currentShipIndex >= len(g.shipsToPlace) }

// NextShipSize returns the size of the ship waiting to be placed, or 0
// once the fleet is complete.
func (g *Game) NextShipSize() int {
	if g.AllShipsPlaced() {
		return 0
	}
	return g.shipsToPlace[g.currentShipIndex]
}

func (g *Game) ToggleOrientation() Orientation {
	g.touch()
	if g.phase != GamePhaseSetup {
		return g.orientation
	}
	if g.orientation == OrientationHorizontal {
		g.orientation = OrientationVertical
	} else {
		g.orientation = OrientationHorizontal
	}
	return g.orientation
}

// PreviewPlacement returns the clamped run the next ship would take from
// origin and whether it could be placed there.
func (g *Game) PreviewPlacement(origin Coordinates) ([]Coordinates, bool) {
	g.touch()
	if g.phase != GamePhaseSetup || g.AllShipsPlaced() {
		return nil, false
	}

	size := g.NextShipSize()
	origin = ClampOrigin(origin, size, g.orientation)
	if !CanPlace(g.playerGrid, origin, size, g.orientation) {
		return nil, false
	}
	return Run(origin, size, g.orientation), true
}

// PlaceShip commits the next ship of the fleet at the clamped origin
// using the current orientation.
func (g *Game) PlaceShip(origin Coordinates) (Ship, error) {
	g.touch()
	if g.phase != GamePhaseSetup {
		return Ship{}, cerr.ErrGameNotInPhase(GamePhaseSetup.String(), g.phase.String())
	}
	if g.AllShipsPlaced() {
		return Ship{}, cerr.ErrAllShipsPlaced
	}
	if !origin.InBounds() {
		return Ship{}, cerr.ErrXorYOutOfGridBound(origin.Row, origin.Col)
	}

	size := g.NextShipSize()
	origin = ClampOrigin(origin, size, g.orientation)
	if !CanPlace(g.playerGrid, origin, size, g.orientation) {
		g.message = msgPlacementRejected
		return Ship{}, cerr.ErrShipPlacement(size, origin.Row, origin.Col)
	}

	grid, positions := Place(g.playerGrid, origin, size, g.orientation, g.currentShipIndex)
	ship := NewShip(g.currentShipIndex, positions)

	g.playerGrid = grid
	g.playerFleet = append(g.playerFleet, ship)
	g.currentShipIndex++

	if g.AllShipsPlaced() {
		g.message = msgAllShipsPlaced
	} else {
		g.message = placeShipMessage(g.NextShipSize())
	}
	return ship, nil
}

// Start lays out the opponent's fleet and hands the first turn to
// the player.
func (g *Game) Start() error {
	g.touch()
	if g.phase != GamePhaseSetup {
		return cerr.ErrGameNotInPhase(GamePhaseSetup.String(), g.phase.String())
	}
	if !g.AllShipsPlaced() {
		return cerr.ErrFleetIncomplete
	}

	grid, fleet, err := PlaceFleetRandomly(g.rng, g.shipsToPlace)
	if err != nil {
		return err
	}

	g.opponentGrid = grid
	g.opponentFleet = fleet
	g.phase = GamePhasePlaying
	g.turn = SidePlayer
	g.message = msgYourTurn
	return nil
}

// FireAtOpponent resolves the player's shot at the opponent's grid.
// Repeat shots are refused without touching any state.
func (g *Game) FireAtOpponent(at Coordinates) (TurnOutcome, error) {
	g.touch()
	if g.phase != GamePhasePlaying {
		return TurnOutcome{}, cerr.ErrGameNotInPhase(GamePhasePlaying.String(), g.phase.String())
	}
	if g.turn != SidePlayer {
		return TurnOutcome{}, cerr.ErrNotPlayerTurn
	}
	if !at.InBounds() {
		return TurnOutcome{}, cerr.ErrXorYOutOfGridBound(at.Row, at.Col)
	}
	if !g.opponentGrid.IsShootable(at) {
		g.message = msgAlreadyShot
		return TurnOutcome{}, cerr.ErrAttackPositionAlreadyShot(at.Row, at.Col)
	}

	result := ResolveShot(g.opponentGrid, g.opponentFleet, at)
	g.opponentGrid = result.Grid
	g.opponentFleet = result.Fleet

	outcome := TurnOutcome{Shooter: SidePlayer, At: at, Hit: result.Hit, Sunk: result.Sunk}
	switch {
	case result.Sunk != nil:
		outcome.Message = fmt.Sprintf("You sunk a ship of size %d at %s!", result.Sunk.Size, at.Label())
	case result.Hit:
		outcome.Message = fmt.Sprintf("Hit at %s!", at.Label())
	default:
		outcome.Message = fmt.Sprintf("Miss at %s.", at.Label())
	}

	if CheckGameOver(g.opponentFleet) {
		g.finish(SidePlayer)
		outcome.Winner = SidePlayer
		outcome.Message = msgPlayerWon
	} else {
		g.turn = SideOpponent
	}

	g.message = outcome.Message
	return outcome, nil
}

// PlayOpponentTurn asks the engine for exactly one move, resolves it
// against the player's grid and feeds the outcome back.
func (g *Game) PlayOpponentTurn() (TurnOutcome, error) {
	g.touch()
	if g.phase != GamePhasePlaying {
		return TurnOutcome{}, cerr.ErrGameNotInPhase(GamePhasePlaying.String(), g.phase.String())
	}
	if g.turn != SideOpponent {
		return TurnOutcome{}, cerr.ErrNotOpponentTurn
	}

	at := g.opponent.NextMove(g.playerGrid)
	result := ResolveShot(g.playerGrid, g.playerFleet, at)
	g.playerGrid = result.Grid
	g.playerFleet = result.Fleet
	g.opponent.Observe(result)

	outcome := TurnOutcome{Shooter: SideOpponent, At: at, Hit: result.Hit, Sunk: result.Sunk}
	switch {
	case result.Sunk != nil:
		outcome.Message = fmt.Sprintf("Enemy sunk your ship of size %d at %s!", result.Sunk.Size, at.Label())
	case result.Hit:
		outcome.Message = fmt.Sprintf("Enemy hit your ship at %s!", at.Label())
	default:
		outcome.Message = fmt.Sprintf("Enemy missed at %s.", at.Label())
	}

	if CheckGameOver(g.playerFleet) {
		g.finish(SideOpponent)
		outcome.Winner = SideOpponent
		outcome.Message = msgOpponentWon
	} else {
		g.turn = SidePlayer
		outcome.Message += " Your turn!"
	}

	g.message = outcome.Message
	return outcome, nil
}

func (g *Game) finish(winner Side) {
	g.phase = GamePhaseGameOver
	g.winner = winner
	g.turn = SideNone
}

func placeShipMessage(size int) string {
	return fmt.Sprintf("Place your %d-cell ship. Toggle orientation to rotate it.", size)
}
