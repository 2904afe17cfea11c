package atomic_float

import (
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestAtomicAdd(t *testing.T) {
	Convey("When AtomicAdd is called", t, func() {
		Convey("When multiple writers add to the float value concurrently", func() {
			af := NewAtomicFloat64(0.0)
			num_ops := 3000
			num_writers := 200

			start := make(chan struct{})
			wg := sync.WaitGroup{}
			wg.Add(num_writers)
			adder := func() {
				<-start
				for i := 0; i < num_ops; i++ {
					for succeeded := false; !succeeded; _, succeeded = af.AtomicAdd(1.0) {
					}
				}
				wg.Done()
			}

			for i := 0; i < num_writers; i++ {
				go adder()
			}

			// Wait for goroutines to begin
			time.Sleep(time.Millisecond * 10)
			close(start)
			wg.Wait()
			So(af.AtomicRead(), ShouldEqual, float64(num_ops*num_writers))
		})

		Convey("When multiple writers increment and decrement the float value concurrently", func() {
			af := NewAtomicFloat64(0.0)
			num_ops := 3000
			num_writers := 200

			start := make(chan struct{})
			wg := sync.WaitGroup{}
			wg.Add(num_writers * 2)
			apply := func(addend float64) {
				<-start
				for i := 0; i < num_ops; i++ {
					for succeeded := false; !succeeded; _, succeeded = af.AtomicAdd(addend) {
					}
				}
				wg.Done()
			}

			for i := 0; i < num_writers; i++ {
				go apply(1.0)
				go apply(-1.0)
			}

			time.Sleep(time.Millisecond * 10)
			close(start)
			wg.Wait()
			So(af.AtomicRead(), ShouldEqual, float64(0.0))
		})
	})

	Convey("When AtomicSet is called while readers are active", t, func() {
		af := NewAtomicFloat64(-1)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for i := 0; i < 1000; i++ {
				val := af.AtomicRead()
				if val != -1 && val != 0.25 {
					panic("torn read")
				}
			}
		}()
		af.AtomicSet(0.25)
		<-done
		So(af.AtomicRead(), ShouldEqual, 0.25)
	})
}
