package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/lixenwraith/navcore/asset"
	"github.com/lixenwraith/navcore/parameter"
)

var (
	// ErrUnknownStrategy is wrapped when a modifier slot names a strategy that does not exist
	ErrUnknownStrategy = errors.New("unknown strategy")
	// ErrInvalid is wrapped by validation failures
	ErrInvalid = errors.New("invalid configuration")
)

// File is the root of a navcore TOML document
type File struct {
	PathFinder PathFinderConfig `toml:"pathfinder"`
	LPF        LpfConfig        `toml:"lpf"`
	Async      AsyncConfig      `toml:"async"`
	Engine     EngineConfig     `toml:"engine"`
	Scenario   ScenarioConfig   `toml:"scenario"`
}

// LpfConfig enables obstacle aggregation
type LpfConfig struct {
	Enabled bool `toml:"enabled"`
}

// AsyncConfig enables the async manager and sizes its modules
type AsyncConfig struct {
	Enabled bool `toml:"enabled"`
	// Capacity is the per-buffer request capacity of every module; Modules overrides it per name
	Capacity int            `toml:"capacity"`
	Modules  map[string]int `toml:"modules"`
}

// EngineConfig configures the frame loop and aperiodic task budgets
type EngineConfig struct {
	FrameInterval time.Duration `toml:"frame_interval"`
	// Mode is "measured" (wall clock) or "estimated" (deterministic)
	Mode        string                `toml:"mode"`
	Parallelism int                   `toml:"parallelism"`
	Tasks       map[string]TaskConfig `toml:"tasks"`
	// CostTable is an optional msgpack recording applied in estimated mode
	CostTable string `toml:"cost_table"`
}

// TaskConfig is the allowance and per-unit estimate of one aperiodic task
type TaskConfig struct {
	Allowance time.Duration `toml:"allowance"`
	Estimate  time.Duration `toml:"estimate"`
}

// Default returns the embedded default document
func Default() *File {
	f, err := Parse([]byte(asset.DefaultNavcoreConfig))
	if err != nil {
		panic(fmt.Errorf("embedded config: %w", err))
	}
	return f
}

// Load reads and validates a TOML file
// Keys missing from the file keep their default values
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a TOML document over the built-in defaults and validates it
func Parse(data []byte) (*File, error) {
	f := defaults()
	md, err := toml.Decode(string(data), f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: unknown key %s", ErrInvalid, undecoded[0])
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Encode writes f as TOML
func (f *File) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(f)
}

// Validate checks values the decoder cannot
func (f *File) Validate() error {
	if err := f.PathFinder.Validate(); err != nil {
		return err
	}
	switch f.Engine.Mode {
	case "measured", "estimated":
	default:
		return fmt.Errorf("%w: engine.mode %q", ErrInvalid, f.Engine.Mode)
	}
	if f.Engine.FrameInterval <= 0 {
		return fmt.Errorf("%w: engine.frame_interval must be positive", ErrInvalid)
	}
	for name, t := range f.Engine.Tasks {
		if t.Allowance <= 0 || t.Estimate <= 0 {
			return fmt.Errorf("%w: engine.tasks.%s needs positive allowance and estimate", ErrInvalid, name)
		}
	}
	if f.Async.Capacity <= 0 {
		return fmt.Errorf("%w: async.capacity must be positive", ErrInvalid)
	}
	for name, c := range f.Async.Modules {
		if c <= 0 {
			return fmt.Errorf("%w: async.modules.%s must be positive", ErrInvalid, name)
		}
	}
	return f.Scenario.Validate()
}

// ModuleCapacity returns the configured capacity of an async module
func (a AsyncConfig) ModuleCapacity(name string) int {
	if c, ok := a.Modules[name]; ok {
		return c
	}
	return a.Capacity
}

// defaults mirrors the parameter package so a sparse file is complete
func defaults() *File {
	return &File{
		PathFinder: defaultPathFinder(),
		Async: AsyncConfig{
			Capacity: parameter.AsyncModuleCapacity,
		},
		Engine: EngineConfig{
			FrameInterval: parameter.FrameInterval,
			Mode:          "measured",
			Tasks: map[string]TaskConfig{
				"astar": {Allowance: parameter.AstarTaskAllowance, Estimate: parameter.AstarVertexEstimate},
				"lpf":   {Allowance: parameter.LpfTaskAllowance, Estimate: parameter.LpfFloorEstimate},
				"async": {Allowance: parameter.AsyncTaskAllowance, Estimate: parameter.AsyncRequestEstimate},
			},
		},
		Scenario: ScenarioConfig{
			Grid: GridConfig{Width: 10, Height: 10, Spacing: 1},
		},
	}
}
