package config

import (
	"fmt"
	"time"

	"github.com/lixenwraith/navcore/vmath"
)

// ScenarioConfig describes a headless run: the walkable grid, obstacles and bots
type ScenarioConfig struct {
	Name string     `toml:"name"`
	Seed int64      `toml:"seed"`
	Grid GridConfig `toml:"grid"`
	// Maze replaces Walls with a generated layout when set
	Maze *MazeConfig `toml:"maze"`
	// Walls are blocked grid coordinates as [x, y] pairs
	Walls [][2]int `toml:"walls"`
	// NavMesh exposes the grid as a NavMesh and collision bridge to the modifiers
	NavMesh bool `toml:"navmesh"`
	// MaxFrames bounds a run; zero runs until every bot arrived or failed
	MaxFrames int            `toml:"max_frames"`
	Obstacles []ObstacleSpec `toml:"obstacles"`
	Bots      []BotSpec      `toml:"bots"`
}

// GridConfig sizes the grid graph
type GridConfig struct {
	Width   int     `toml:"width"`
	Height  int     `toml:"height"`
	Spacing float64 `toml:"spacing"`
	// CellSize is the side of a streamed cell in vertices; zero keeps one cell
	CellSize int `toml:"cell_size"`
}

// MazeConfig generates walls with the maze generator
type MazeConfig struct {
	Braiding float64 `toml:"braiding"`
}

// ObstacleSpec is an LPF obstacle, optionally appearing and disappearing during the run
// Either Rect ([min x, min y, max x, max y]) or Outline ([[x, y], ...]) is set
type ObstacleSpec struct {
	ID      uint32       `toml:"id"`
	Floor   uint32       `toml:"floor"`
	Rect    []float64    `toml:"rect"`
	Outline [][2]float64 `toml:"outline"`
	// Appear and Vanish are offsets from the start of the run; zero Vanish keeps the obstacle
	Appear time.Duration `toml:"appear"`
	Vanish time.Duration `toml:"vanish"`
}

// BotSpec places a bot and gives it a destination
type BotSpec struct {
	ID          string     `toml:"id"`
	Start       [3]float64 `toml:"start"`
	Destination [3]float64 `toml:"destination"`
	MaxSpeed    float64    `toml:"max_speed"`
	Radius      float64    `toml:"radius"`
}

// Polygon returns the obstacle outline
func (o ObstacleSpec) Polygon() vmath.Polygon {
	if len(o.Rect) == 4 {
		return vmath.RectPolygon(vmath.Vec2F{X: o.Rect[0], Y: o.Rect[1]}, vmath.Vec2F{X: o.Rect[2], Y: o.Rect[3]})
	}
	poly := make(vmath.Polygon, len(o.Outline))
	for i, p := range o.Outline {
		poly[i] = vmath.Vec2F{X: p[0], Y: p[1]}
	}
	return poly
}

// StartPos returns the start position
func (b BotSpec) StartPos() vmath.Vec3F {
	return vmath.Vec3F{X: b.Start[0], Y: b.Start[1], Z: b.Start[2]}
}

// DestinationPos returns the destination
func (b BotSpec) DestinationPos() vmath.Vec3F {
	return vmath.Vec3F{X: b.Destination[0], Y: b.Destination[1], Z: b.Destination[2]}
}

// Validate checks sizes, ids and shapes
func (s ScenarioConfig) Validate() error {
	if s.Grid.Width < 2 || s.Grid.Height < 2 {
		return fmt.Errorf("%w: scenario.grid needs at least 2x2 vertices", ErrInvalid)
	}
	if s.Grid.Spacing <= 0 {
		return fmt.Errorf("%w: scenario.grid.spacing must be positive", ErrInvalid)
	}
	if s.Maze != nil && (s.Maze.Braiding < 0 || s.Maze.Braiding > 1) {
		return fmt.Errorf("%w: scenario.maze.braiding must be in [0, 1]", ErrInvalid)
	}

	obstacles := make(map[uint32]bool, len(s.Obstacles))
	for i, o := range s.Obstacles {
		if obstacles[o.ID] {
			return fmt.Errorf("%w: scenario.obstacles[%d] duplicate id %d", ErrInvalid, i, o.ID)
		}
		obstacles[o.ID] = true
		switch {
		case len(o.Rect) == 4 && len(o.Outline) == 0:
		case len(o.Rect) == 0 && len(o.Outline) >= 3:
		default:
			return fmt.Errorf("%w: scenario.obstacles[%d] needs a 4 value rect or an outline of 3+ points", ErrInvalid, i)
		}
		if o.Vanish != 0 && o.Vanish <= o.Appear {
			return fmt.Errorf("%w: scenario.obstacles[%d] vanishes before it appears", ErrInvalid, i)
		}
	}

	bots := make(map[string]bool, len(s.Bots))
	for i, b := range s.Bots {
		if b.ID == "" {
			return fmt.Errorf("%w: scenario.bots[%d] has no id", ErrInvalid, i)
		}
		if bots[b.ID] {
			return fmt.Errorf("%w: scenario.bots[%d] duplicate id %s", ErrInvalid, i, b.ID)
		}
		bots[b.ID] = true
		if b.MaxSpeed <= 0 {
			return fmt.Errorf("%w: scenario.bots[%d] max_speed must be positive", ErrInvalid, i)
		}
	}
	return nil
}
