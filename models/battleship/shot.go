package battleship

type ShotResult struct {
	Grid  Grid
	Fleet Fleet
	At    Coordinates
	Hit   bool
	// Sunk is a copy of the ship this shot sank, nil otherwise.
	Sunk *Ship
}

// ResolveShot applies a shot at `at` and returns the new grid and
// fleet. The caller's grid and fleet are left untouched. Shots on
// already resolved or off-grid cells change nothing.
func ResolveShot(grid Grid, fleet Fleet, at Coordinates) ShotResult {
	newFleet := fleet.Clone()
	result := ShotResult{Grid: grid, Fleet: newFleet, At: at}

	if !at.InBounds() {
		return result
	}

	cell := result.Grid[at.Row][at.Col]
	switch cell.State {
	case CellStateOccupied:
		idx := newFleet.find(cell.ShipId)
		result.Grid[at.Row][at.Col].State = CellStateHit
		result.Hit = true
		if idx < 0 {
			return result
		}

		ship := &newFleet[idx]
		ship.gotHit()
		if ship.Sunk {
			sunk := *ship
			sunk.Positions = append([]Coordinates(nil), ship.Positions...)
			result.Sunk = &sunk
		}

	case CellStateEmpty:
		result.Grid[at.Row][at.Col].State = CellStateMiss
	}

	return result
}
