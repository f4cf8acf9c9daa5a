// Command protocell-viewer is a terminal front end for the simulation: a
// top-down projection of the cell population with live stepping, pause,
// speed control and timeline scrubbing. Division events blip through the
// speaker when audio is available.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/lixenwraith/protocell/engine"
	"github.com/lixenwraith/protocell/events"
	"github.com/lixenwraith/protocell/genome"
	"github.com/lixenwraith/protocell/sim"
	"github.com/lixenwraith/protocell/status"
)

const (
	frameMs    = 16 // ~60 FPS
	scrubStep  = 1  // seconds per scrub keypress
	maxSpeed   = 8.0
	minSpeed   = 0.25
	statusRows = 2
)

var modeStyles = []tcell.Style{
	tcell.StyleDefault.Foreground(tcell.ColorGreen),
	tcell.StyleDefault.Foreground(tcell.ColorBlue),
	tcell.StyleDefault.Foreground(tcell.ColorYellow),
	tcell.StyleDefault.Foreground(tcell.ColorPurple),
	tcell.StyleDefault.Foreground(tcell.ColorRed),
	tcell.StyleDefault.Foreground(tcell.ColorAqua),
}

type Viewer struct {
	screen        tcell.Screen
	width, height int

	driver *engine.Driver
	queue  *events.Queue
	reg    *status.Registry
	wall   *engine.PausableClock

	worldRadius float32

	audioInit bool
}

func NewViewer(driver *engine.Driver, queue *events.Queue, reg *status.Registry, worldRadius float32) (*Viewer, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}

	v := &Viewer{
		screen:      screen,
		driver:      driver,
		queue:       queue,
		reg:         reg,
		wall:        engine.NewPausableClock(),
		worldRadius: worldRadius,
	}
	v.width, v.height = screen.Size()

	if err := v.initAudio(); err != nil {
		// Non-fatal, the viewer can run without sound
		log.Printf("Audio initialization failed: %v", err)
	}
	return v, nil
}

func (v *Viewer) initAudio() error {
	sampleRate := beep.SampleRate(44100)
	err := speaker.Init(sampleRate, sampleRate.N(time.Second/10))
	if err == nil {
		v.audioInit = true
	}
	return err
}

func (v *Viewer) playDivisionBlip() {
	if !v.audioInit {
		return
	}
	sampleRate := beep.SampleRate(44100)
	duration := sampleRate.N(40 * time.Millisecond)
	sine, _ := generators.SineTone(sampleRate, 660)
	speaker.Play(beep.Take(duration, sine))
}

// project maps a world position onto terminal coordinates, top-down on
// the XZ plane. Terminal cells are roughly twice as tall as wide, so X
// gets double scale.
func (v *Viewer) project(p mgl32.Vec3) (int, int) {
	usableH := v.height - statusRows
	scale := float32(usableH) / (2 * v.worldRadius)

	x := v.width/2 + int(p.X()*scale*2)
	y := statusRows + usableH/2 + int(p.Z()*scale)
	return x, y
}

func (v *Viewer) draw() {
	v.screen.Clear()

	snap := v.driver.Latest()
	if snap != nil {
		v.drawStatus(snap)
		v.drawCells(snap)
	}
	v.screen.Show()
}

func (v *Viewer) drawStatus(snap *sim.Snapshot) {
	state := "running"
	if v.driver.Clock.Paused {
		state = "paused"
	}
	divisions := v.reg.Ints.Get("sim.divisions").Load()
	line := fmt.Sprintf("t=%7.2fs  tick=%-8d cells=%-5d adhesions=%-5d divisions=%-5d speed=%.2gx  [%s]",
		snap.Time, snap.Tick, snap.Count, len(snap.Adhesions), divisions, v.driver.Clock.Speed, state)
	v.drawText(0, 0, line, tcell.StyleDefault.Bold(true))

	help := "space pause  +/- speed  </> scrub  r reset  q quit"
	v.drawText(0, 1, help, tcell.StyleDefault.Foreground(tcell.ColorGray))
}

func (v *Viewer) drawText(x, y int, s string, style tcell.Style) {
	for i, r := range s {
		if x+i >= v.width {
			break
		}
		v.screen.SetContent(x+i, y, r, nil, style)
	}
}

func (v *Viewer) drawCells(snap *sim.Snapshot) {
	// Adhesion midpoints first so cells draw over them
	linkStyle := tcell.StyleDefault.Foreground(tcell.ColorGray)
	for _, ad := range snap.Adhesions {
		mid := snap.Pos[ad.CellA].Add(snap.Pos[ad.CellB]).Mul(0.5)
		x, y := v.project(mid)
		if v.inView(x, y) {
			v.screen.SetContent(x, y, '·', nil, linkStyle)
		}
	}

	for i := 0; i < snap.Count; i++ {
		x, y := v.project(snap.Pos[i])
		if !v.inView(x, y) {
			continue
		}
		style := modeStyles[int(snap.ModeIndex[i])%len(modeStyles)]
		glyph := 'o'
		if snap.Radius[i] >= 1.5 {
			glyph = 'O'
		}
		v.screen.SetContent(x, y, glyph, nil, style)
	}
}

func (v *Viewer) inView(x, y int) bool {
	return x >= 0 && x < v.width && y >= statusRows && y < v.height
}

func (v *Viewer) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC:
			return false
		case ev.Key() == tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case ' ':
				v.togglePause()
			case '+', '=':
				if v.driver.Clock.Speed < maxSpeed {
					v.driver.Clock.Speed *= 2
				}
			case '-', '_':
				if v.driver.Clock.Speed > minSpeed {
					v.driver.Clock.Speed /= 2
				}
			case '<', ',':
				v.scrubBy(-scrubStep)
			case '>', '.':
				v.scrubBy(scrubStep)
			case 'r':
				v.driver.Reset()
			}
		}
	case *tcell.EventResize:
		v.width, v.height = v.screen.Size()
		v.screen.Sync()
	}
	return true
}

func (v *Viewer) togglePause() {
	if v.driver.Clock.Paused {
		v.driver.Clock.Paused = false
		v.wall.Resume()
	} else {
		v.driver.Clock.Paused = true
		v.wall.Pause()
	}
}

func (v *Viewer) scrubBy(deltaSeconds float32) {
	target := v.driver.Clock.CurrentTime + deltaSeconds
	if target < 0 {
		target = 0
	}
	v.driver.ScrubTo(target)
	v.queue.Consume() // stale events do not outlive a scrub
}

func (v *Viewer) run() {
	ticker := time.NewTicker(frameMs * time.Millisecond)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			eventChan <- v.screen.PollEvent()
		}
	}()

	for {
		select {
		case ev := <-eventChan:
			if !v.handleInput(ev) {
				return
			}

		case <-ticker.C:
			dt := v.wall.FrameDelta()
			v.driver.Advance(dt.Seconds())

			for _, ev := range v.queue.Consume() {
				if ev.Type == events.TypeDivision {
					v.playDivisionBlip()
				}
			}
			v.draw()
		}
	}
}

func (v *Viewer) cleanup() {
	if v.audioInit {
		speaker.Close()
	}
	v.screen.Fini()
}

func main() {
	var (
		genomePath = flag.String("genome", "", "genome JSON file (default: built-in demo genome)")
		maxCells   = flag.Int("cells", 1024, "cell capacity")
		seed       = flag.Uint64("seed", 1, "deterministic RNG seed")
		seedCount  = flag.Int("population", 4, "initial cell count")
	)
	flag.Parse()

	g, err := loadGenome(*genomePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load genome: %v\n", err)
		os.Exit(1)
	}

	cfg := sim.DefaultConfig()
	initial := sim.NewInitialState(cfg, *maxCells, *seed, time.Now().Unix())
	for i := 0; i < *seedCount; i++ {
		initial.AddSeed(sim.CellSeed{
			Pos:  mgl32.Vec3{float32(i-*seedCount/2) * 6, 0, 0},
			Mass: 1,
		})
	}

	queue := events.NewQueue()
	reg := status.NewRegistry()
	driver := engine.NewDriver(initial, g, queue, reg)

	viewer, err := NewViewer(driver, queue, reg, cfg.SphereRadius)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer viewer.cleanup()

	viewer.run()
}

func loadGenome(path string) (*genome.Genome, error) {
	if path == "" {
		return demoGenome(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return genome.Decode(data)
}

func demoGenome() *genome.Genome {
	body := genome.DefaultMode()
	body.Name = "body"
	body.SplitInterval = 3
	body.SplitMass = 1.2
	body.NutrientGainRate = 0.2
	body.MaxSplits = 4
	body.ModeAAfterSplits = 1
	body.ModeBAfterSplits = 1
	body.ParentMakeAdhesion = true

	terminal := genome.DefaultMode()
	terminal.Name = "terminal"
	terminal.ChildA.ModeNumber = 1
	terminal.ChildB.ModeNumber = 1
	terminal.MaxSplits = 0

	return &genome.Genome{
		Name:               "demo",
		InitialOrientation: genome.QuatIdent(),
		Modes:              []genome.Mode{body, terminal},
	}
}
