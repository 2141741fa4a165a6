// Command ecsdemo drives a World through repeated tick cycles and paints
// every entity carrying a Position as a cell on a terminal screen, so the
// movement system's output is visible rather than just asserted in tests.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/lixenwraith/ecsworld/component"
	"github.com/lixenwraith/ecsworld/engine"
	"github.com/lixenwraith/ecsworld/entity"
	"github.com/lixenwraith/ecsworld/system"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	log, _ := zap.NewDevelopment()
	defer log.Sync()

	w := engine.NewWorld(engine.WithLogger(log))
	if err := w.RegisterSystem(system.NewMovement(w)); err != nil {
		return err
	}

	seedEntities(w)

	if err := w.Startup(); err != nil {
		return err
	}

	quit := make(chan struct{})
	go pollQuit(screen, quit)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			return nil
		case <-ticker.C:
			if err := w.BeginTick(); err != nil {
				return err
			}
			if err := w.Tick(0.1); err != nil {
				return err
			}
			if err := w.EndTick(); err != nil {
				return err
			}
			render(screen, w)
		}
	}
}

func seedEntities(w *engine.World) {
	seeds := []struct {
		pos component.Position
		vel component.Velocity
	}{
		{component.Position{X: 2, Y: 2}, component.Velocity{DX: 1, DY: 0}},
		{component.Position{X: 10, Y: 4}, component.Velocity{DX: -1, DY: 1}},
		{component.Position{X: 20, Y: 8}, component.Velocity{DX: 0, DY: -1}},
	}
	for _, s := range seeds {
		e, err := w.CreateEntity(entity.All)
		if err != nil {
			continue
		}
		if _, err := engine.CreateComponent[component.Position](w, e, s.pos); err != nil {
			continue
		}
		if _, err := engine.CreateComponent[component.Velocity](w, e, s.vel); err != nil {
			continue
		}
	}
}

func render(screen tcell.Screen, w *engine.World) {
	screen.Clear()
	style := tcell.StyleDefault.Foreground(tcell.ColorGreen)

	m := engine.NewMatcher()
	engine.OfAll[component.Position](m)
	matcher := m.Build()

	for id, g := range w.Entities.AllGraphs() {
		if !matcher.Matches(g) {
			continue
		}
		e, ok := w.GetEntity(id)
		if !ok {
			continue
		}
		pos, ok, err := engine.GetComponent[component.Position](w, e)
		if err != nil || !ok {
			continue
		}
		screen.SetContent(int(pos.X), int(pos.Y), 'o', nil, style)
	}

	status := fmt.Sprintf("tick %d — press q to quit", w.TickCount())
	for i, r := range status {
		screen.SetContent(i, 0, r, nil, tcell.StyleDefault)
	}
	screen.Show()
}

func pollQuit(screen tcell.Screen, quit chan<- struct{}) {
	for {
		switch ev := screen.PollEvent().(type) {
		case *tcell.EventKey:
			if ev.Rune() == 'q' || ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
				close(quit)
				return
			}
		case *tcell.EventResize:
			screen.Sync()
		}
	}
}
