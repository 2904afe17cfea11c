package reporting

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "gemgrid/grid_world"
	"gemgrid/reinforcement"

	. "github.com/smartystreets/goconvey/convey"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("closed")
}

func TestTerminalRenderer(t *testing.T) {
	Convey("When frames are rendered without colors", t, func() {
		var buf bytes.Buffer
		renderer := NewTerminalRenderer(&buf, 50*time.Millisecond, false)
		var slept []time.Duration
		renderer.sleep = func(d time.Duration) { slept = append(slept, d) }

		env, err := NewEnv(map[Position]Tile{
			{X: 2, Y: 2}: Goal,
			{X: 1, Y: 0}: Gem,
			{X: 0, Y: 2}: Curse,
		}, 3, Position{}, nil)
		So(err, ShouldBeNil)
		env.Reset()

		Convey("When the agent has not moved", func() {
			So(renderer.Render(env.Snapshot()), ShouldBeNil)
			So(buf.String(), ShouldEqual, "♖∆.\n...\n☠.★\n")
			So(slept, ShouldResemble, []time.Duration{50 * time.Millisecond})
		})

		Convey("When the agent has moved its trail is drawn", func() {
			env.AvailableActions()
			env.Step(Position{X: 1, Y: 0})
			env.AvailableActions()
			env.Step(Position{X: 1, Y: 1})
			So(renderer.Render(env.Snapshot()), ShouldBeNil)
			So(buf.String(), ShouldEqual, ".❄.\n.♖.\n☠.★\n")
		})

		Convey("When the cursor is toggled nothing is written", func() {
			renderer.HideCursor()
			renderer.ShowCursor()
			So(buf.Len(), ShouldEqual, 0)
		})

		Convey("When the writer fails the error is returned", func() {
			broken := NewTerminalRenderer(failingWriter{}, 0, false)
			So(broken.Render(env.Snapshot()), ShouldNotBeNil)
		})
	})

	Convey("When frames are rendered with colors", t, func() {
		var buf bytes.Buffer
		renderer := NewTerminalRenderer(&buf, 0, true)
		renderer.HideCursor()
		env, _ := NewEnv(map[Position]Tile{{X: 1, Y: 1}: Goal}, 2, Position{}, nil)
		So(renderer.Render(env.Snapshot()), ShouldBeNil)
		renderer.ShowCursor()

		out := buf.String()
		So(out, ShouldStartWith, HIDE_CURSOR+CLEAR_SCREEN)
		So(out, ShouldEndWith, SHOW_CURSOR)
		So(out, ShouldContainSubstring, "\033[")
	})

	Convey("When a rollout is printed", t, func() {
		var buf bytes.Buffer
		renderer := NewTerminalRenderer(&buf, 0, false)
		renderer.PrintRollout(&reinforcement.Rollout{
			Path:        []Position{{X: 1, Y: 0}, {X: 1, Y: 1}},
			ReachedGoal: true,
			Return:      20,
		})
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		So(lines, ShouldHaveLength, 3)
		So(lines[0], ShouldEqual, "(1,0) -> (1,1)")
		So(lines[1], ShouldEqual, "Steps: 2")
		So(lines[2], ShouldEqual, "Goal reached, return 20.00")
	})
}

func TestMovingAverage(t *testing.T) {
	Convey("When returns are smoothed", t, func() {
		avgs := MovingAverage([]float64{2, 4, 6, 8}, 2)
		So(avgs, ShouldResemble, []float64{2, 3, 5, 7})

		Convey("When the window is wider than the series", func() {
			So(MovingAverage([]float64{1, 3}, 10), ShouldResemble, []float64{1, 2})
		})

		Convey("When the window is not positive it is treated as one", func() {
			So(MovingAverage([]float64{1, 3}, 0), ShouldResemble, []float64{1, 3})
		})

		Convey("When there are no returns", func() {
			So(MovingAverage(nil, 5), ShouldBeEmpty)
		})
	})
}

func TestChartReporter(t *testing.T) {
	Convey("When rewards are rendered to a page", t, func() {
		var buf bytes.Buffer
		So(RenderRewards(&buf, []float64{-10, 5, 20}, 2), ShouldBeNil)
		So(buf.String(), ShouldContainSubstring, "Rewards by episode")
		So(buf.String(), ShouldContainSubstring, "moving average")
	})

	Convey("When the reporter receives returns it writes the chart file", t, func() {
		path := filepath.Join(t.TempDir(), "out", "rewards.html")
		NewChartReporter(path, DEFAULT_WINDOW).ReportRewards([]float64{1, 2, 3})
		contents, err := os.ReadFile(path)
		So(err, ShouldBeNil)
		So(string(contents), ShouldContainSubstring, "echarts")
	})

	Convey("When the chart file cannot be created the reporter does not panic", t, func() {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "file")
		So(os.WriteFile(blocker, []byte("x"), 0o600), ShouldBeNil)
		So(func() {
			NewChartReporter(filepath.Join(blocker, "rewards.html"), 5).ReportRewards([]float64{1})
		}, ShouldNotPanic)
	})
}

func TestReturnsLog(t *testing.T) {
	Convey("When returns are observed concurrently with reads", t, func() {
		rl := NewReturnsLog()
		done := make(chan struct{})
		go func() {
			defer close(done)
			for i := 1; i <= 100; i++ {
				rl.Observe(reinforcement.EpisodeStats{Episode: i, Return: float64(i)})
			}
		}()
		for i := 0; i < 50; i++ {
			So(len(rl.Returns()), ShouldBeBetweenOrEqual, 0, 100)
		}
		<-done

		returns := rl.Returns()
		So(returns, ShouldHaveLength, 100)
		So(returns[99], ShouldEqual, 100.0)

		Convey("When the copy is modified the log is not", func() {
			returns[0] = -1
			So(rl.Returns()[0], ShouldEqual, 1.0)
		})
	})
}
