package reinforcement

import (
	"errors"
	"testing"

	. "gemgrid/grid_world"

	. "github.com/smartystreets/goconvey/convey"
)

type recordingRenderer struct {
	frames []Frame
	failAt int
}

var errRenderFailed = errors.New("render failed")

func (rr *recordingRenderer) Render(frame Frame) error {
	rr.frames = append(rr.frames, frame)
	if rr.failAt > 0 && len(rr.frames) == rr.failAt {
		return errRenderFailed
	}
	return nil
}

func TestGreedyRollout(t *testing.T) {
	Convey("When a table is replayed greedily", t, func() {
		envParams := smallEnvParams()
		table := NewValueTable(4, NUM_ACTIONS)
		// (0,0) -> Right -> (1,0) -> Down -> goal at (1,1).
		table.Set(0, Right, 1)
		table.Set(1, Down, 1)
		before := table.Clone()

		Convey("When the policy leads to the goal", func() {
			renderer := &recordingRenderer{}
			rollout, err := GreedyRollout(table, envParams, 10, renderer)
			So(err, ShouldBeNil)
			So(rollout.ReachedGoal, ShouldBeTrue)
			So(rollout.Path, ShouldResemble, []Position{{X: 1, Y: 0}, {X: 1, Y: 1}})
			So(rollout.Return, ShouldEqual, GOAL_REWARD)

			So(renderer.frames, ShouldHaveLength, 3)
			So(renderer.frames[0].Agent, ShouldResemble, Position{})
			So(renderer.frames[0].Path, ShouldBeEmpty)
			So(renderer.frames[2].ReachedGoal, ShouldBeTrue)

			for s := 0; s < 4; s++ {
				So(table.Row(State(s)), ShouldResemble, before.Row(State(s)))
			}
		})

		Convey("When the policy never reaches the goal the step cap ends the replay", func() {
			// Bounce between (0,0) and (1,0).
			table.Set(1, Down, 0)
			table.Set(1, Left, 1)
			rollout, err := GreedyRollout(table, envParams, 5, nil)
			So(err, ShouldBeNil)
			So(rollout.ReachedGoal, ShouldBeFalse)
			So(rollout.Path, ShouldHaveLength, 5)
		})

		Convey("When the renderer fails the replay is aborted", func() {
			renderer := &recordingRenderer{failAt: 2}
			_, err := GreedyRollout(table, envParams, 10, renderer)
			So(errors.Is(err, errRenderFailed), ShouldBeTrue)
			So(renderer.frames, ShouldHaveLength, 2)
		})

		Convey("When the table does not match the board", func() {
			_, err := GreedyRollout(NewValueTable(9, NUM_ACTIONS), envParams, 10, nil)
			So(errors.Is(err, ErrInvalidParameter), ShouldBeTrue)
		})

		Convey("When the environment is invalid", func() {
			bad := smallEnvParams()
			bad.InitialAgentPosition = Position{X: 7, Y: 7}
			_, err := GreedyRollout(table, bad, 10, nil)
			So(errors.Is(err, ErrStartOutOfBounds), ShouldBeTrue)
		})
	})
}
