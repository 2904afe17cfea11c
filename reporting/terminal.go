package reporting

import (
	"fmt"
	"io"
	"strings"
	"time"

	. "gemgrid/grid_world"
	"gemgrid/reinforcement"

	"github.com/logrusorgru/aurora"
)

const (
	CLEAR_SCREEN = "\033[H\033[2J"
	HIDE_CURSOR  = "\033[?25l"
	SHOW_CURSOR  = "\033[?25h"

	DEFAULT_FRAME_DELAY = 200 * time.Millisecond
)

// TerminalRenderer draws frames to a terminal, pausing a fixed delay after each one.
// It implements reinforcement.FrameRenderer.
type TerminalRenderer struct {
	out        io.Writer
	au         aurora.Aurora
	frameDelay time.Duration
	clear      bool
	sleep      func(time.Duration)
}

// NewTerminalRenderer returns a renderer writing to out. When colors is false the glyphs
// are written without escape codes and the screen is not cleared between frames, which
// suits log files and tests.
func NewTerminalRenderer(out io.Writer, frameDelay time.Duration, colors bool) *TerminalRenderer {
	return &TerminalRenderer{
		out:        out,
		au:         aurora.NewAurora(colors),
		frameDelay: frameDelay,
		clear:      colors,
		sleep:      time.Sleep,
	}
}

// HideCursor hides the terminal cursor for the duration of a replay.
func (tr *TerminalRenderer) HideCursor() {
	if tr.clear {
		fmt.Fprint(tr.out, HIDE_CURSOR)
	}
}

// ShowCursor restores the cursor hidden by HideCursor.
func (tr *TerminalRenderer) ShowCursor() {
	if tr.clear {
		fmt.Fprint(tr.out, SHOW_CURSOR)
	}
}

// Render draws one frame: the agent, then cells visited this episode, then tiles.
func (tr *TerminalRenderer) Render(frame Frame) error {
	var sb strings.Builder
	if tr.clear {
		sb.WriteString(CLEAR_SCREEN)
	}
	for y := 0; y < frame.Size(); y++ {
		for x := 0; x < frame.Size(); x++ {
			pos := Position{X: x, Y: y}
			sb.WriteString(tr.glyph(pos, frame.Tiles[y][x], frame))
		}
		sb.WriteString("\n")
	}

	if _, err := io.WriteString(tr.out, sb.String()); err != nil {
		return fmt.Errorf("render frame: %w", err)
	}
	if tr.frameDelay > 0 {
		tr.sleep(tr.frameDelay)
	}
	return nil
}

func (tr *TerminalRenderer) glyph(pos Position, tile Tile, frame Frame) string {
	switch {
	case pos == frame.Agent:
		return tr.au.BgMagenta("♖").String()
	case frame.Visited(pos):
		return tr.au.BgBrightCyan("❄").String()
	}

	switch tile {
	case Curse:
		return tr.au.White("☠").BgRed().String()
	case Gem:
		return tr.au.BrightGreen("∆").String()
	case Goal:
		return tr.au.BrightYellow("★").String()
	}
	return "."
}

// PrintRollout writes the replayed path as "a -> b -> c" followed by the step count.
func (tr *TerminalRenderer) PrintRollout(rollout *reinforcement.Rollout) {
	steps := make([]string, 0, len(rollout.Path))
	for _, pos := range rollout.Path {
		steps = append(steps, pos.String())
	}

	fmt.Fprintln(tr.out, tr.au.Yellow(strings.Join(steps, " -> ")))
	fmt.Fprintf(tr.out, "Steps: %d\n", len(rollout.Path))
	if rollout.ReachedGoal {
		fmt.Fprintln(tr.out, tr.au.Green(fmt.Sprintf("Goal reached, return %.2f", rollout.Return)))
	} else {
		fmt.Fprintln(tr.out, tr.au.Red(fmt.Sprintf("Goal not reached, return %.2f", rollout.Return)))
	}
}
