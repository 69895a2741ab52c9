package maze

import (
	"math/rand"
)

// Point is a grid coordinate
type Point struct {
	X, Y int
}

// Config controls layout generation
type Config struct {
	Width, Height int

	// Braiding: 0 keeps a perfect maze (tree), 1 removes every dead end it safely can
	// Higher values add cycles, giving searches alternative routes of different cost
	Braiding float64

	// Seed makes layouts reproducible; tests and scenarios always set it
	Seed int64
}

// Layout is a wall grid used to build scenario graphs
type Layout struct {
	Width, Height int
	Start, End    Point

	walls []bool
}

// Blocked reports whether (x,y) is a wall; out of bounds counts as wall
// Matches graph.WallChecker so a layout can feed BuildGrid directly
func (l *Layout) Blocked(x, y int) bool {
	if x < 0 || y < 0 || x >= l.Width || y >= l.Height {
		return true
	}
	return l.walls[y*l.Width+x]
}

// Open counts walkable cells
func (l *Layout) Open() int {
	n := 0
	for _, w := range l.walls {
		if !w {
			n++
		}
	}
	return n
}

// Generate carves a maze with a recursive backtracker, then braids dead ends into loops
// Dimensions are rounded down to odd numbers, minimum 3
func Generate(cfg Config) *Layout {
	w, h := odd(cfg.Width), odd(cfg.Height)
	l := &Layout{
		Width:  w,
		Height: h,
		Start:  Point{1, 1},
		End:    Point{w - 2, h - 2},
		walls:  make([]bool, w*h),
	}
	for i := range l.walls {
		l.walls[i] = true
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	l.carve(rng)
	if cfg.Braiding > 0 {
		l.braid(cfg.Braiding, rng)
	}
	return l
}

// jumps are the room-to-room steps; the wall between sits at half the step
var jumps = [4]Point{{0, -2}, {0, 2}, {-2, 0}, {2, 0}}

func (l *Layout) set(x, y int, wall bool) {
	l.walls[y*l.Width+x] = wall
}

func (l *Layout) inner(x, y int) bool {
	return x > 0 && y > 0 && x < l.Width-1 && y < l.Height-1
}

// carve builds a uniform spanning tree over odd rooms
func (l *Layout) carve(rng *rand.Rand) {
	stack := []Point{l.Start}
	l.set(l.Start.X, l.Start.Y, false)

	var candidates [4]Point
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		n := 0
		for _, d := range jumps {
			nx, ny := cur.X+d.X, cur.Y+d.Y
			if l.inner(nx, ny) && l.Blocked(nx, ny) {
				candidates[n] = d
				n++
			}
		}
		if n == 0 {
			stack = stack[:len(stack)-1]
			continue
		}
		d := candidates[rng.Intn(n)]
		l.set(cur.X+d.X/2, cur.Y+d.Y/2, false)
		next := Point{cur.X + d.X, cur.Y + d.Y}
		l.set(next.X, next.Y, false)
		stack = append(stack, next)
	}
}

// braid opens one wall of a dead end with the given probability
// Walls whose removal would create a 2x2 open plaza are kept
func (l *Layout) braid(probability float64, rng *rand.Rand) {
	for y := 1; y < l.Height-1; y += 2 {
		for x := 1; x < l.Width-1; x += 2 {
			if l.Blocked(x, y) || l.exits(x, y) != 1 || rng.Float64() >= probability {
				continue
			}
			var candidates [4]Point
			n := 0
			for _, d := range jumps {
				nx, ny := x+d.X, y+d.Y
				wx, wy := x+d.X/2, y+d.Y/2
				if l.inner(nx, ny) && !l.Blocked(nx, ny) && l.Blocked(wx, wy) && !l.makesPlaza(wx, wy) {
					candidates[n] = Point{wx, wy}
					n++
				}
			}
			if n > 0 {
				c := candidates[rng.Intn(n)]
				l.set(c.X, c.Y, false)
			}
		}
	}
}

func (l *Layout) exits(x, y int) int {
	n := 0
	for _, d := range jumps {
		if !l.Blocked(x+d.X/2, y+d.Y/2) {
			n++
		}
	}
	return n
}

// makesPlaza reports whether opening (x,y) completes a 2x2 open square
func (l *Layout) makesPlaza(x, y int) bool {
	open := func(tx, ty int) bool { return !l.Blocked(tx, ty) }
	for _, q := range [4]Point{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}} {
		if open(x+q.X, y) && open(x, y+q.Y) && open(x+q.X, y+q.Y) {
			return true
		}
	}
	return false
}

// ShortestSteps returns the BFS step count between two open cells, -1 if unreachable
func (l *Layout) ShortestSteps(from, to Point) int {
	if l.Blocked(from.X, from.Y) || l.Blocked(to.X, to.Y) {
		return -1
	}
	dist := make([]int, len(l.walls))
	for i := range dist {
		dist[i] = -1
	}
	dist[from.Y*l.Width+from.X] = 0
	queue := []Point{from}
	steps := [4]Point{{0, -1}, {0, 1}, {-1, 0}, {1, 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == to {
			return dist[cur.Y*l.Width+cur.X]
		}
		for _, d := range steps {
			nx, ny := cur.X+d.X, cur.Y+d.Y
			if l.Blocked(nx, ny) || dist[ny*l.Width+nx] >= 0 {
				continue
			}
			dist[ny*l.Width+nx] = dist[cur.Y*l.Width+cur.X] + 1
			queue = append(queue, Point{nx, ny})
		}
	}
	return -1
}

func odd(n int) int {
	if n < 3 {
		return 3
	}
	if n%2 == 0 {
		return n - 1
	}
	return n
}
