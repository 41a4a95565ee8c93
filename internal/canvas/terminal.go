// SPDX-License-Identifier: MIT

// Package canvas is the character-grid display the visualizer draws on,
// backed by a tcell screen. Drawing calls clip out-of-range coordinates.
package canvas

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"
)

// Color is a terminal color.
type Color = tcell.Color

const (
	ColorDefault = tcell.ColorDefault
	ColorWhite   = tcell.ColorWhite
	ColorRed     = tcell.ColorRed
	ColorBlue    = tcell.ColorBlue
	ColorNavy    = tcell.ColorNavy
	ColorMaroon  = tcell.ColorMaroon
)

// Cell is the content of one grid position.
type Cell struct {
	Foreground Color
	Background Color
	Symbol     rune
}

func (c Cell) style() tcell.Style {
	return tcell.StyleDefault.Foreground(c.Foreground).Background(c.Background)
}

// ErrDetached is returned by Present when the terminal is not attached.
var ErrDetached = errors.New("terminal is not attached")

// Terminal draws onto a tcell screen.
type Terminal struct {
	screen tcell.Screen

	attached atomic.Bool
	resized  atomic.Bool

	quit     chan struct{}
	quitOnce sync.Once
	done     chan struct{}
}

// NewTerminal creates a terminal on the process's tty.
func NewTerminal() (*Terminal, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return NewTerminalWithScreen(s), nil
}

// NewTerminalWithScreen wraps an uninitialised screen, such as a
// tcell.SimulationScreen.
func NewTerminalWithScreen(s tcell.Screen) *Terminal {
	return &Terminal{
		screen: s,
		quit:   make(chan struct{}),
	}
}

// Attach initialises the screen and starts watching for quit keys and
// resizes.
func (t *Terminal) Attach() error {
	if t.attached.Load() {
		return nil
	}
	if err := t.screen.Init(); err != nil {
		return err
	}
	t.screen.HideCursor()
	t.screen.Clear()
	t.done = make(chan struct{})
	t.attached.Store(true)
	go t.pollEvents(t.done)
	return nil
}

// Detach restores the terminal. It is safe to call more than once.
func (t *Terminal) Detach() error {
	if !t.attached.Swap(false) {
		return nil
	}
	t.screen.Fini()
	<-t.done
	return nil
}

// Quit is closed when the user presses q, Esc or Ctrl-C.
func (t *Terminal) Quit() <-chan struct{} {
	return t.quit
}

func (t *Terminal) pollEvents(done chan struct{}) {
	defer close(done)
	for {
		// PollEvent returns nil once the screen is finalised.
		switch ev := t.screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventResize:
			t.resized.Store(true)
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
				(ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q')) {
				t.quitOnce.Do(func() { close(t.quit) })
			}
		}
	}
}

func (t *Terminal) Clear() {
	t.screen.Clear()
}

// Width is read from the screen on every call so resizes are picked up.
func (t *Terminal) Width() int {
	w, _ := t.screen.Size()
	return w
}

func (t *Terminal) Height() int {
	_, h := t.screen.Size()
	return h
}

// DrawPoint sets one cell. Points outside the grid are ignored.
func (t *Terminal) DrawPoint(x, y int, cell Cell) {
	w, h := t.screen.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return
	}
	t.screen.SetContent(x, y, cell.Symbol, nil, cell.style())
}

// DrawLine draws a straight line with Bresenham's algorithm, clipping each
// point individually.
func (t *Terminal) DrawLine(x0, y0, x1, y1 int, cell Cell) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		t.DrawPoint(x0, y0, cell)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// DrawText writes one rune per cell starting at (x, y).
func (t *Terminal) DrawText(x, y int, fg, bg Color, text string) {
	cell := Cell{Foreground: fg, Background: bg}
	i := 0
	for _, r := range text {
		cell.Symbol = r
		t.DrawPoint(x+i, y, cell)
		i++
	}
}

// Present flushes the frame to the terminal, fully redrawing after a resize.
func (t *Terminal) Present() error {
	if !t.attached.Load() {
		return ErrDetached
	}
	if t.resized.Swap(false) {
		t.screen.Sync()
	} else {
		t.screen.Show()
	}
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
