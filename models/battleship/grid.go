package battleship

import "fmt"

const GridSize = 10

type CellState uint8

const (
	CellStateEmpty CellState = iota
	CellStateOccupied
	CellStateHit
	CellStateMiss
)

func (cs CellState) String() string {
	switch cs {
	case CellStateEmpty:
		return "empty"
	case CellStateOccupied:
		return "ship"
	case CellStateHit:
		return "hit"
	case CellStateMiss:
		return "miss"
	default:
		return "unknown"
	}
}

// Orientation of a placed ship or of a line of hits the
// opponent is following. OrientationNone is never valid
// for placement.
type Orientation uint8

const (
	OrientationNone Orientation = iota
	OrientationHorizontal
	OrientationVertical
)

func (o Orientation) String() string {
	switch o {
	case OrientationHorizontal:
		return "horizontal"
	case OrientationVertical:
		return "vertical"
	default:
		return "none"
	}
}

// step returns the unit row/col delta along the orientation.
func (o Orientation) step() (int, int) {
	if o == OrientationVertical {
		return 1, 0
	}
	return 0, 1
}

type Coordinates struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func NewCoordinates(row, col int) Coordinates {
	return Coordinates{Row: row, Col: col}
}

func (c Coordinates) InBounds() bool {
	return c.Row >= 0 && c.Row < GridSize && c.Col >= 0 && c.Col < GridSize
}

func (c Coordinates) IsEvenParity() bool {
	return (c.Row+c.Col)%2 == 0
}

func (c Coordinates) offset(dRow, dCol int) Coordinates {
	return Coordinates{Row: c.Row + dRow, Col: c.Col + dCol}
}

// Label formats the coordinates the way players read them
// off the board, e.g. A1 for (0,0) and J10 for (9,9).
func (c Coordinates) Label() string {
	return fmt.Sprintf("%c%d", rune('A'+c.Row), c.Col+1)
}

// up, down, left, right
var orthogonalDirs = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

type Cell struct {
	State  CellState `json:"state"`
	ShipId int       `json:"ship_id"`
}

// Grid is a value type; assigning or passing it copies every cell
// so snapshots taken before and after a turn never alias.
type Grid [GridSize][GridSize]Cell

func NewGrid() Grid {
	return Grid{}
}

func (g *Grid) At(c Coordinates) Cell {
	return g[c.Row][c.Col]
}

// IsShootable reports whether c is on the grid and has not been
// shot yet (Empty or Occupied).
func (g *Grid) IsShootable(c Coordinates) bool {
	if !c.InBounds() {
		return false
	}
	state := g[c.Row][c.Col].State
	return state == CellStateEmpty || state == CellStateOccupied
}

func (g *Grid) isOccupied(c Coordinates) bool {
	return c.InBounds() && g[c.Row][c.Col].State == CellStateOccupied
}

func (g *Grid) hasAdjacentShip(c Coordinates) bool {
	for dRow := -1; dRow <= 1; dRow++ {
		for dCol := -1; dCol <= 1; dCol++ {
			if dRow == 0 && dCol == 0 {
				continue
			}
			if g.isOccupied(c.offset(dRow, dCol)) {
				return true
			}
		}
	}
	return false
}

// shootableNeighbors returns the orthogonal neighbours of c that
// have not been shot yet, in up, down, left, right order.
func (g *Grid) shootableNeighbors(c Coordinates) []Coordinates {
	neighbors := make([]Coordinates, 0, len(orthogonalDirs))
	for _, dir := range orthogonalDirs {
		n := c.offset(dir[0], dir[1])
		if g.IsShootable(n) {
			neighbors = append(neighbors, n)
		}
	}
	return neighbors
}

// Run returns the ordered cells a ship of the given size would
// occupy. Cells may fall outside the grid.
func Run(origin Coordinates, size int, orientation Orientation) []Coordinates {
	dRow, dCol := orientation.step()
	positions := make([]Coordinates, 0, size)
	for i := 0; i < size; i++ {
		positions = append(positions, origin.offset(dRow*i, dCol*i))
	}
	return positions
}

// CanPlace checks bounds, overlap and the one-cell buffer around
// every ship already on the grid, diagonals included.
func CanPlace(grid Grid, origin Coordinates, size int, orientation Orientation) bool {
	if size <= 0 {
		return false
	}
	if orientation != OrientationHorizontal && orientation != OrientationVertical {
		return false
	}

	for _, c := range Run(origin, size, orientation) {
		if !c.InBounds() {
			return false
		}
		if grid.isOccupied(c) {
			return false
		}
		if grid.hasAdjacentShip(c) {
			return false
		}
	}
	return true
}

// Place marks the run as occupied by shipId and returns the new grid
// with the run. It does not validate; call CanPlace first.
func Place(grid Grid, origin Coordinates, size int, orientation Orientation, shipId int) (Grid, []Coordinates) {
	positions := Run(origin, size, orientation)
	for _, c := range positions {
		grid[c.Row][c.Col] = Cell{State: CellStateOccupied, ShipId: shipId}
	}
	return grid, positions
}

// ClampOrigin shifts origin so a run overflowing the right or bottom
// edge ends exactly at that edge.
func ClampOrigin(origin Coordinates, size int, orientation Orientation) Coordinates {
	switch orientation {
	case OrientationHorizontal:
		if origin.Col+size > GridSize {
			origin.Col = GridSize - size
		}
	case OrientationVertical:
		if origin.Row+size > GridSize {
			origin.Row = GridSize - size
		}
	}
	return origin
}
