package reinforcement

import (
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestProgress(t *testing.T) {
	Convey("When no episode has been observed", t, func() {
		So(NewProgress().Read(), ShouldResemble, ProgressReport{})
	})

	Convey("When episodes are observed while readers poll", t, func() {
		progress := NewProgress()
		wg := sync.WaitGroup{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 1; i <= 200; i++ {
				progress.Observe(EpisodeStats{
					Episode:     i,
					Epsilon:     1.0 / float64(i),
					Return:      float64(i),
					ReachedGoal: i%2 == 0,
				})
			}
		}()
		for i := 0; i < 100; i++ {
			So(progress.Read().Episode, ShouldBeBetweenOrEqual, 0, 200)
		}
		wg.Wait()

		So(progress.Read(), ShouldResemble, ProgressReport{
			Episode:    200,
			Epsilon:    1.0 / 200,
			LastReturn: 200,
			Goals:      100,
		})
	})
}
