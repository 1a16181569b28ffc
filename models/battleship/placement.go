package battleship

import (
	"math/rand/v2"

	cerr "github.com/saeidalz13/battleship-solo/internal/error"
)

const maxPlacementAttempts = 1000

// Randomizer is the only source of randomness in the engine.
// *rand.Rand from math/rand/v2 satisfies it; tests pass scripted ones.
type Randomizer interface {
	IntN(n int) int
}

func NewRandomizer(seed1, seed2 uint64) Randomizer {
	return rand.New(rand.NewPCG(seed1, seed2))
}

// PlaceFleetRandomly places one ship per size, sampling a uniform
// origin and orientation until CanPlace accepts it. Each ship gets
// maxPlacementAttempts tries.
func PlaceFleetRandomly(rng Randomizer, sizes []int) (Grid, Fleet, error) {
	grid := NewGrid()
	fleet := make(Fleet, 0, len(sizes))

	for shipId, size := range sizes {
		placed := false

		for attempt := 0; attempt < maxPlacementAttempts; attempt++ {
			origin := NewCoordinates(rng.IntN(GridSize), rng.IntN(GridSize))
			orientation := OrientationHorizontal
			if rng.IntN(2) == 1 {
				orientation = OrientationVertical
			}

			if !CanPlace(grid, origin, size, orientation) {
				continue
			}

			var positions []Coordinates
			grid, positions = Place(grid, origin, size, orientation, shipId)
			fleet = append(fleet, NewShip(shipId, positions))
			placed = true
			break
		}

		if !placed {
			return Grid{}, nil, cerr.ErrRandomPlacement(shipId, size, maxPlacementAttempts)
		}
	}

	return grid, fleet, nil
}
