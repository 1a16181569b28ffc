package battleship

// Sizes of the fleet in placement order. Ship ids are indices
// into this list.
var DefaultShipSizes = []int{5, 4, 3, 3, 2}

type Ship struct {
	Id        int           `json:"id"`
	Size      int           `json:"size"`
	Positions []Coordinates `json:"positions"`
	Hits      int           `json:"hits"`
	Sunk      bool          `json:"sunk"`
}

func NewShip(id int, positions []Coordinates) Ship {
	return Ship{
		Id:        id,
		Size:      len(positions),
		Positions: positions,
		Hits:      0,
		Sunk:      false,
	}
}

// ClassName names the vessel for display. The two size-3 ships are
// told apart by id.
func (sh Ship) ClassName() string {
	return ShipClassName(sh.Size, sh.Id)
}

func (sh *Ship) gotHit() {
	if sh.Hits >= sh.Size {
		return
	}
	sh.Hits++
	if sh.Hits == sh.Size {
		sh.Sunk = true
	}
}

func ShipClassName(size, id int) string {
	switch size {
	case 5:
		return "Aircraft Carrier"
	case 4:
		return "Battleship"
	case 3:
		if id == 2 {
			return "Cruiser"
		}
		return "Submarine"
	case 2:
		return "Destroyer"
	default:
		return "Ship"
	}
}

type Fleet []Ship

// Clone deep copies the fleet, positions included.
func (f Fleet) Clone() Fleet {
	if f == nil {
		return nil
	}
	clone := make(Fleet, len(f))
	for i, ship := range f {
		clone[i] = ship
		clone[i].Positions = append([]Coordinates(nil), ship.Positions...)
	}
	return clone
}

// find returns the index of the ship with the given id, or -1.
func (f Fleet) find(shipId int) int {
	for i := range f {
		if f[i].Id == shipId {
			return i
		}
	}
	return -1
}

func (f Fleet) SunkenShips() int {
	sunken := 0
	for _, ship := range f {
		if ship.Sunk {
			sunken++
		}
	}
	return sunken
}

// CheckGameOver is true when every ship is sunk. An empty fleet is
// vacuously defeated.
func CheckGameOver(fleet Fleet) bool {
	for _, ship := range fleet {
		if !ship.Sunk {
			return false
		}
	}
	return true
}
