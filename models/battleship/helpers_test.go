package battleship

import "testing"

// scriptedRand replays values in order and then keeps returning 0.
type scriptedRand struct {
	values []int
	next   int
}

func (s *scriptedRand) IntN(n int) int {
	if s.next >= len(s.values) {
		return 0
	}
	v := s.values[s.next] % n
	s.next++
	return v
}

type shipLayout struct {
	origin      Coordinates
	size        int
	orientation Orientation
}

// newBoard lays ships out in order, ids by index, failing the test
// on an illegal layout.
func newBoard(t *testing.T, layouts ...shipLayout) (Grid, Fleet) {
	t.Helper()

	grid := NewGrid()
	fleet := make(Fleet, 0, len(layouts))
	for id, layout := range layouts {
		if !CanPlace(grid, layout.origin, layout.size, layout.orientation) {
			t.Fatalf("illegal test layout for ship %d: %+v", id, layout)
		}
		var positions []Coordinates
		grid, positions = Place(grid, layout.origin, layout.size, layout.orientation, id)
		fleet = append(fleet, NewShip(id, positions))
	}
	return grid, fleet
}

func c(row, col int) Coordinates {
	return NewCoordinates(row, col)
}
