package battleship

import "slices"

type AIMode uint8

const (
	AIModeHunt AIMode = iota
	AIModeTarget
)

func (m AIMode) String() string {
	if m == AIModeTarget {
		return "target"
	}
	return "hunt"
}

// Returned by NextMove when no legal cell is left on the grid.
var NoMoveSentinel = Coordinates{Row: 0, Col: 0}

// targetState only exists while the opponent is finishing off a
// wounded ship. A nil *targetState is hunt mode.
type targetState struct {
	queue       []Coordinates
	lastHit     Coordinates
	streak      []Coordinates
	orientation Orientation
}

// AIState is a read-only snapshot of the opponent's belief state.
type AIState struct {
	Mode        AIMode
	Queue       []Coordinates
	LastHit     *Coordinates
	Streak      []Coordinates
	Orientation Orientation
}

// Opponent is the automated player's hunt/target engine. It is not
// safe for concurrent use; a game drives it one turn at a time.
type Opponent struct {
	rng    Randomizer
	target *targetState
}

func NewOpponent(rng Randomizer) *Opponent {
	return &Opponent{rng: rng}
}

func (o *Opponent) Mode() AIMode {
	if o.target == nil {
		return AIModeHunt
	}
	return AIModeTarget
}

func (o *Opponent) State() AIState {
	if o.target == nil {
		return AIState{Mode: AIModeHunt}
	}

	lastHit := o.target.lastHit
	return AIState{
		Mode:        AIModeTarget,
		Queue:       slices.Clone(o.target.queue),
		LastHit:     &lastHit,
		Streak:      slices.Clone(o.target.streak),
		Orientation: o.target.orientation,
	}
}

func (o *Opponent) reset() {
	o.target = nil
}

// NextMove picks the next cell to shoot on grid. In target mode the
// queue is consumed front first, skipping cells shot since they were
// queued. An exhausted queue drops the engine back to hunt mode for
// this same turn.
func (o *Opponent) NextMove(grid Grid) Coordinates {
	if o.target != nil {
		for len(o.target.queue) > 0 {
			next := o.target.queue[0]
			o.target.queue = o.target.queue[1:]
			if grid.IsShootable(next) {
				return next
			}
		}
		o.reset()
	}

	return o.hunt(&grid)
}

// hunt samples uniformly among unshot even-parity cells. Every ship is
// at least two cells long so it always covers one of them; odd cells
// are only considered once the even ones are gone.
func (o *Opponent) hunt(grid *Grid) Coordinates {
	var parity, legal []Coordinates

	for row := 0; row < GridSize; row++ {
		for col := 0; col < GridSize; col++ {
			c := NewCoordinates(row, col)
			if !grid.IsShootable(c) {
				continue
			}
			legal = append(legal, c)
			if c.IsEvenParity() {
				parity = append(parity, c)
			}
		}
	}

	candidates := parity
	if len(candidates) == 0 {
		candidates = legal
	}
	if len(candidates) == 0 {
		return NoMoveSentinel
	}
	return candidates[o.rng.IntN(len(candidates))]
}

// Observe feeds the outcome of the opponent's own shot back into the
// belief state. result.Grid and result.Fleet must be the post-shot
// values.
func (o *Opponent) Observe(result ShotResult) {
	grid := &result.Grid

	if result.Hit {
		o.observeHit(grid, result.At)
	} else {
		o.observeMiss(grid)
	}

	if result.Sunk != nil {
		o.mergeLiveHits(grid, result.Fleet)
	}
}

func (o *Opponent) observeHit(grid *Grid, at Coordinates) {
	if o.target == nil {
		o.target = &targetState{
			queue:   grid.shootableNeighbors(at),
			lastHit: at,
			streak:  []Coordinates{at},
		}
		return
	}

	t := o.target
	t.lastHit = at
	if t.orientation == OrientationNone {
		t.orientation = orientationFromStreak(t.streak, at)
	}

	if t.orientation == OrientationNone {
		// A fresh wound away from the current streak; chase it first but
		// keep what was queued for the others.
		t.streak = append(t.streak, at)
		t.queue = appendUnique(grid.shootableNeighbors(at), grid.filterShootable(t.queue)...)
		return
	}

	t.streak = grid.hitRun(at, t.orientation)
	t.queue = grid.lineEnds(t.streak, t.orientation, at)
}

// observeMiss only matters once a line is known: the missed end is
// no longer shootable, so rebuilding from the run leaves the opposite
// extremity at the front of the queue.
func (o *Opponent) observeMiss(grid *Grid) {
	t := o.target
	if t == nil || t.orientation == OrientationNone {
		return
	}

	t.streak = grid.hitRun(t.lastHit, t.orientation)
	t.queue = grid.lineEnds(t.streak, t.orientation, t.lastHit)
}

// mergeLiveHits runs after any sink. Hits on ships that are still
// afloat become the new streak; with none left the engine goes back
// to hunting.
func (o *Opponent) mergeLiveHits(grid *Grid, fleet Fleet) {
	live := grid.liveHits(fleet)

	switch {
	case len(live) == 0:
		o.reset()

	case len(live) == 1:
		o.target = &targetState{
			queue:   grid.shootableNeighbors(live[0]),
			lastHit: live[0],
			streak:  live,
		}

	default:
		t := &targetState{
			lastHit:     live[0],
			streak:      live,
			orientation: sharedLine(live),
		}

		if t.orientation != OrientationNone {
			t.queue = grid.lineEnds(live, t.orientation, live[0])
		} else {
			for _, hit := range live {
				t.queue = appendUnique(t.queue, grid.shootableNeighbors(hit)...)
			}
		}
		o.target = t
	}
}

// orientationFromStreak infers the line from a streak hit orthogonally
// adjacent to at. Ships keep a one-cell buffer, so adjacent hits always
// belong to the same ship.
func orientationFromStreak(streak []Coordinates, at Coordinates) Orientation {
	for _, hit := range streak {
		dRow, dCol := hit.Row-at.Row, hit.Col-at.Col
		switch {
		case dRow == 0 && (dCol == 1 || dCol == -1):
			return OrientationHorizontal
		case dCol == 0 && (dRow == 1 || dRow == -1):
			return OrientationVertical
		}
	}
	return OrientationNone
}

// sharedLine reports the orientation when every hit sits in one row
// or one column. Gaps between hits are allowed; only the two outer
// ends are ever queued.
func sharedLine(hits []Coordinates) Orientation {
	if len(hits) < 2 {
		return OrientationNone
	}

	sameRow, sameCol := true, true
	for _, hit := range hits[1:] {
		if hit.Row != hits[0].Row {
			sameRow = false
		}
		if hit.Col != hits[0].Col {
			sameCol = false
		}
	}

	switch {
	case sameRow:
		return OrientationHorizontal
	case sameCol:
		return OrientationVertical
	default:
		return OrientationNone
	}
}

// hitRun returns the contiguous Hit cells through at along the
// orientation, ordered from the top/left end.
func (g *Grid) hitRun(at Coordinates, orientation Orientation) []Coordinates {
	dRow, dCol := orientation.step()

	start := at
	for {
		prev := start.offset(-dRow, -dCol)
		if !prev.InBounds() || g.At(prev).State != CellStateHit {
			break
		}
		start = prev
	}

	run := []Coordinates{start}
	for {
		next := run[len(run)-1].offset(dRow, dCol)
		if !next.InBounds() || g.At(next).State != CellStateHit {
			break
		}
		run = append(run, next)
	}
	return run
}

// lineEnds returns the shootable cells just past both ends of run.
// The end latest extended comes first so the engine keeps its heading
// and only reverses once that end is closed.
func (g *Grid) lineEnds(run []Coordinates, orientation Orientation, latest Coordinates) []Coordinates {
	dRow, dCol := orientation.step()
	first, last := run[0], run[len(run)-1]
	before := first.offset(-dRow, -dCol)
	after := last.offset(dRow, dCol)

	ends := []Coordinates{after, before}
	if latest == first && len(run) > 1 {
		ends = []Coordinates{before, after}
	}
	return g.filterShootable(ends)
}

func (g *Grid) filterShootable(cs []Coordinates) []Coordinates {
	shootable := make([]Coordinates, 0, len(cs))
	for _, c := range cs {
		if g.IsShootable(c) {
			shootable = append(shootable, c)
		}
	}
	return shootable
}

// liveHits scans row-major for Hit cells whose ship is still afloat.
func (g *Grid) liveHits(fleet Fleet) []Coordinates {
	var live []Coordinates
	for row := 0; row < GridSize; row++ {
		for col := 0; col < GridSize; col++ {
			cell := g[row][col]
			if cell.State != CellStateHit {
				continue
			}
			idx := fleet.find(cell.ShipId)
			if idx >= 0 && !fleet[idx].Sunk {
				live = append(live, NewCoordinates(row, col))
			}
		}
	}
	return live
}

func appendUnique(dst []Coordinates, cs ...Coordinates) []Coordinates {
	for _, c := range cs {
		if !slices.Contains(dst, c) {
			dst = append(dst, c)
		}
	}
	return dst
}
