package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"github.com/lixenwraith/navcore/config"
	"github.com/lixenwraith/navcore/core"
	"github.com/lixenwraith/navcore/lpf"
	"github.com/lixenwraith/navcore/pathfinder"
	"github.com/lixenwraith/navcore/scenario"
	"github.com/lixenwraith/navcore/vmath"
)

const (
	// colsPerVertex keeps grid cells roughly square on a terminal
	colsPerVertex = 4
	rowsPerVertex = 2
	sampleRate    = beep.SampleRate(44100)
	cueDuration   = 60 * time.Millisecond
	arriveTone    = 880
	failTone      = 220
)

var (
	styleBg      = tcell.StyleDefault.Background(tcell.NewRGBColor(12, 12, 18))
	styleVertex  = styleBg.Foreground(tcell.NewRGBColor(70, 70, 90))
	styleWall    = styleBg.Foreground(tcell.NewRGBColor(120, 120, 130))
	styleArea    = tcell.StyleDefault.Background(tcell.NewRGBColor(110, 30, 30))
	stylePath    = styleBg.Foreground(tcell.ColorDarkCyan)
	styleGoal    = styleBg.Foreground(tcell.ColorYellow)
	styleStatus  = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.NewRGBColor(30, 30, 60))
	botColors    = []tcell.Color{tcell.ColorGreen, tcell.ColorFuchsia, tcell.ColorAqua, tcell.ColorOrange}
	styleFailed  = styleBg.Foreground(tcell.ColorRed).Bold(true)
	styleArrived = styleBg.Foreground(tcell.ColorWhite).Bold(true)
)

// Sandbox renders a running scenario: vertices, walls, merged LPF areas, paths and bots
type Sandbox struct {
	screen tcell.Screen
	scn    *scenario.Scenario
	logger *slog.Logger

	paused    bool
	showPaths bool
	states    []pathfinder.State

	audioInit bool
}

func NewSandbox(scn *scenario.Scenario, logger *slog.Logger, mute bool) (*Sandbox, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.SetStyle(styleBg)

	s := &Sandbox{
		screen:    screen,
		scn:       scn,
		logger:    logger,
		showPaths: true,
		states:    make([]pathfinder.State, len(scn.Drivers)),
	}
	if !mute {
		if err := s.initAudio(); err != nil {
			// Non-fatal, the sandbox runs silent
			logger.Warn("audio initialization failed", slog.Any("error", err))
		}
	}
	return s, nil
}

func (s *Sandbox) initAudio() error {
	err := speaker.Init(sampleRate, sampleRate.N(time.Second/10))
	if err == nil {
		s.audioInit = true
	}
	return err
}

func (s *Sandbox) playCue(freq int) {
	if !s.audioInit {
		return
	}
	sine, err := generators.SineTone(sampleRate, float64(freq))
	if err != nil {
		return
	}
	speaker.Play(beep.Take(sampleRate.N(cueDuration), sine))
}

// step advances the scenario one frame and cues state transitions
func (s *Sandbox) step() {
	s.scn.Step()
	for i, d := range s.scn.Drivers {
		st := d.PathFinder().State()
		if st == s.states[i] {
			continue
		}
		switch st {
		case pathfinder.StateArrived:
			s.playCue(arriveTone)
		case pathfinder.StateFailed:
			s.playCue(failTone)
			s.logger.Info("bot failed", slog.String("bot", d.ID()), slog.Any("error", d.PathFinder().Err()))
		}
		s.states[i] = st
	}
}

// --- Drawing ---

func (s *Sandbox) toScreen(p vmath.Vec3F) (int, int) {
	sp := s.scn.File.Scenario.Grid.Spacing
	return int(p.X/sp*colsPerVertex+0.5) + 1, int(p.Y/sp*rowsPerVertex+0.5) + 1
}

func (s *Sandbox) toWorld(col, row int) vmath.Vec2F {
	sp := s.scn.File.Scenario.Grid.Spacing
	return vmath.Vec2F{
		X: float64(col-1) / colsPerVertex * sp,
		Y: float64(row-1) / rowsPerVertex * sp,
	}
}

func (s *Sandbox) put(col, row int, r rune, style tcell.Style) {
	w, h := s.screen.Size()
	if col >= 0 && col < w && row >= 0 && row < h-1 {
		s.screen.SetContent(col, row, r, nil, style)
	}
}

func (s *Sandbox) draw() {
	s.screen.Clear()
	grid := s.scn.File.Scenario.Grid
	maxCol, maxRow := (grid.Width-1)*colsPerVertex+2, (grid.Height-1)*rowsPerVertex+2

	var areas *lpf.AreaSet
	if s.scn.Lpf != nil {
		areas = s.scn.Lpf.Areas()
	}
	for row := 0; row <= maxRow; row++ {
		for col := 0; col <= maxCol; col++ {
			if areas.IsPointInside(s.toWorld(col, row)) {
				s.put(col, row, ' ', styleArea)
			}
		}
	}

	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			col, row := s.toScreen(s.scn.Grid.Position(x, y))
			if s.scn.Walls(x, y) {
				s.put(col, row, '█', styleWall)
			} else {
				s.put(col, row, '·', styleVertex)
			}
		}
	}

	for i, d := range s.scn.Drivers {
		pf := d.PathFinder()
		color := botColors[i%len(botColors)]
		if s.showPaths {
			if p := pf.Path(); p != nil {
				for _, pos := range p.Positions() {
					col, row := s.toScreen(pos)
					s.put(col, row, '∘', stylePath.Foreground(color))
				}
			}
		}
		col, row := s.toScreen(s.scn.File.Scenario.Bots[i].DestinationPos())
		s.put(col, row, '×', styleGoal)
	}

	for i, d := range s.scn.Drivers {
		pf := d.PathFinder()
		style := styleBg.Foreground(botColors[i%len(botColors)]).Bold(true)
		switch pf.State() {
		case pathfinder.StateFailed:
			style = styleFailed
		case pathfinder.StateArrived:
			style = styleArrived
		}
		col, row := s.toScreen(pf.Bot().Position)
		label := []rune(d.ID())
		s.put(col, row, label[0], style)
	}

	s.drawStatus(areas.Len())
	s.screen.Show()
}

func (s *Sandbox) drawStatus(areas int) {
	w, h := s.screen.Size()
	report := s.scn.Report()
	text := fmt.Sprintf(" %s  frame %d  arrived %d/%d  obstacles %d  areas %d  [space] pause  [p] paths  [n] step  [q] quit",
		s.scn.File.Scenario.Name, report.Frames, report.Arrived, len(report.Bots), len(s.scn.Obstacles()), areas)
	if s.paused {
		text += "  PAUSED"
	}
	col := 0
	for _, r := range text {
		if col >= w {
			break
		}
		s.screen.SetContent(col, h-1, r, nil, styleStatus)
		col++
	}
	for ; col < w; col++ {
		s.screen.SetContent(col, h-1, ' ', nil, styleStatus)
	}
}

// --- Input ---

func (s *Sandbox) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() == tcell.KeyRune {
			switch ev.Rune() {
			case 'q':
				return false
			case ' ':
				s.paused = !s.paused
			case 'p':
				s.showPaths = !s.showPaths
			case 'n':
				if s.paused {
					s.step()
				}
			}
		}
	case *tcell.EventResize:
		s.screen.Sync()
	}
	return true
}

func (s *Sandbox) run() {
	ticker := time.NewTicker(s.scn.File.Engine.FrameInterval)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			eventChan <- s.screen.PollEvent()
		}
	}()

	s.draw()
	for {
		select {
		case ev := <-eventChan:
			if !s.handleInput(ev) {
				return
			}
			s.draw()

		case <-ticker.C:
			if !s.paused && !s.scn.Done() {
				s.step()
			}
			s.draw()
		}
	}
}

func (s *Sandbox) cleanup() {
	if s.audioInit {
		speaker.Close()
	}
	s.screen.Fini()
}

func main() {
	var (
		configPath string
		logFile    string
		mute       bool
	)
	flag.StringVar(&configPath, "c", "", "TOML configuration file (default: embedded crossing scenario)")
	flag.StringVar(&logFile, "log", "lpf-sandbox.log", "log file; the terminal is owned by the renderer")
	flag.BoolVar(&mute, "mute", false, "disable arrival and failure cues")
	flag.Parse()

	logger, closer, err := core.SetupLogging(core.LogOptions{Level: "info", File: logFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	f := config.Default()
	if configPath != "" {
		if f, err = config.Load(configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
	}

	// Simulated clock: obstacle timing stays in step with pauses
	scn, err := scenario.New(f, scenario.Options{Logger: logger})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build scenario: %v\n", err)
		os.Exit(1)
	}
	defer scn.Close()

	sandbox, err := NewSandbox(scn, logger, mute)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer sandbox.cleanup()

	sandbox.run()
}
