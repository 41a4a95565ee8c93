// SPDX-License-Identifier: MIT
package canvas

import (
	"errors"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
)

func newSimTerminal(t *testing.T, w, h int) (*Terminal, tcell.SimulationScreen) {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	term := NewTerminalWithScreen(sim)
	if err := term.Attach(); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	t.Cleanup(func() { term.Detach() })
	sim.SetSize(w, h)
	return term, sim
}

func cellAt(t *testing.T, sim tcell.SimulationScreen, x, y int) Cell {
	t.Helper()
	r, _, style, _ := sim.GetContent(x, y)
	fg, bg, _ := style.Decompose()
	return Cell{Foreground: fg, Background: bg, Symbol: r}
}

func TestTerminalSize(t *testing.T) {
	term, sim := newSimTerminal(t, 20, 10)
	if term.Width() != 20 || term.Height() != 10 {
		t.Fatalf("size = %dx%d, want 20x10", term.Width(), term.Height())
	}

	sim.SetSize(40, 12)
	if term.Width() != 40 || term.Height() != 12 {
		t.Errorf("size after resize = %dx%d, want 40x12", term.Width(), term.Height())
	}
}

func TestDrawPointClips(t *testing.T) {
	term, sim := newSimTerminal(t, 10, 5)
	cell := Cell{Foreground: ColorWhite, Background: ColorBlue, Symbol: 'x'}

	term.DrawPoint(3, 2, cell)
	// None of these may panic or wrap around.
	term.DrawPoint(-1, 2, cell)
	term.DrawPoint(10, 2, cell)
	term.DrawPoint(3, -1, cell)
	term.DrawPoint(3, 5, cell)

	if got := cellAt(t, sim, 3, 2); got != cell {
		t.Errorf("cell = %+v, want %+v", got, cell)
	}
	if got := cellAt(t, sim, 0, 2); got.Symbol == 'x' {
		t.Error("out-of-range point wrapped onto the grid")
	}
}

func TestDrawLine(t *testing.T) {
	tests := []struct {
		name           string
		x0, y0, x1, y1 int
		want           [][2]int
	}{
		{"Vertical down", 2, 1, 2, 4, [][2]int{{2, 1}, {2, 2}, {2, 3}, {2, 4}}},
		{"Vertical up", 2, 4, 2, 1, [][2]int{{2, 1}, {2, 2}, {2, 3}, {2, 4}}},
		{"Single point", 5, 3, 5, 3, [][2]int{{5, 3}}},
		{"Horizontal", 0, 0, 3, 0, [][2]int{{0, 0}, {1, 0}, {2, 0}, {3, 0}}},
		{"Diagonal", 0, 0, 3, 3, [][2]int{{0, 0}, {1, 1}, {2, 2}, {3, 3}}},
		{"Clipped", 1, -3, 1, 1, [][2]int{{1, 0}, {1, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			term, sim := newSimTerminal(t, 10, 6)
			term.DrawLine(tt.x0, tt.y0, tt.x1, tt.y1, Cell{Foreground: ColorWhite, Background: ColorRed, Symbol: '#'})

			drawn := 0
			for y := range 6 {
				for x := range 10 {
					if cellAt(t, sim, x, y).Symbol == '#' {
						drawn++
					}
				}
			}
			if drawn != len(tt.want) {
				t.Errorf("drew %d cells, want %d", drawn, len(tt.want))
			}
			for _, p := range tt.want {
				if cellAt(t, sim, p[0], p[1]).Symbol != '#' {
					t.Errorf("cell %v not drawn", p)
				}
			}
		})
	}
}

func TestDrawText(t *testing.T) {
	term, sim := newSimTerminal(t, 8, 3)
	term.DrawText(5, 1, ColorRed, ColorDefault, "abcdef")

	for i, want := range "abc" {
		got := cellAt(t, sim, 5+i, 1)
		if got.Symbol != want || got.Foreground != ColorRed {
			t.Errorf("cell %d = %+v, want %q in red", 5+i, got, want)
		}
	}
}

func TestClearAndPresent(t *testing.T) {
	term, sim := newSimTerminal(t, 4, 2)
	term.DrawPoint(1, 1, Cell{Foreground: ColorWhite, Background: ColorBlue, Symbol: 'x'})
	term.Clear()
	if err := term.Present(); err != nil {
		t.Fatalf("Present() error = %v", err)
	}
	if got := cellAt(t, sim, 1, 1); got.Symbol == 'x' {
		t.Error("Clear() left the cell drawn")
	}
}

func TestPresentAfterResizeSyncs(t *testing.T) {
	term, sim := newSimTerminal(t, 4, 2)
	if err := sim.PostEvent(tcell.NewEventResize(8, 4)); err != nil {
		t.Fatalf("PostEvent() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !term.resized.Load() {
		if time.Now().After(deadline) {
			t.Fatal("resize event not observed")
		}
		time.Sleep(time.Millisecond)
	}
	if err := term.Present(); err != nil {
		t.Fatalf("Present() error = %v", err)
	}
	if term.resized.Load() {
		t.Error("Present() did not consume the resize flag")
	}
}

func TestPresentDetached(t *testing.T) {
	term := NewTerminalWithScreen(tcell.NewSimulationScreen("UTF-8"))
	if err := term.Present(); !errors.Is(err, ErrDetached) {
		t.Errorf("Present() error = %v, want ErrDetached", err)
	}
	if err := term.Detach(); err != nil {
		t.Errorf("Detach() on detached terminal error = %v", err)
	}
}

func TestQuitKeys(t *testing.T) {
	tests := []struct {
		name string
		key  tcell.Key
		r    rune
		mod  tcell.ModMask
	}{
		{"q", tcell.KeyRune, 'q', tcell.ModNone},
		{"Escape", tcell.KeyEscape, 0, tcell.ModNone},
		{"Ctrl-C", tcell.KeyCtrlC, 0, tcell.ModCtrl},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			term, sim := newSimTerminal(t, 4, 2)
			sim.InjectKey(tcell.KeyRune, 'x', tcell.ModNone) // Ignored.
			sim.InjectKey(tt.key, tt.r, tt.mod)

			select {
			case <-term.Quit():
			case <-time.After(2 * time.Second):
				t.Fatal("quit not signalled")
			}
		})
	}
}

func TestDetachStopsEventLoop(t *testing.T) {
	term, _ := newSimTerminal(t, 4, 2)
	done := term.done
	if err := term.Detach(); err != nil {
		t.Fatalf("Detach() error = %v", err)
	}
	select {
	case <-done:
	default:
		t.Error("event loop still running after Detach()")
	}
	if err := term.Present(); !errors.Is(err, ErrDetached) {
		t.Errorf("Present() after Detach() error = %v", err)
	}
}
