package atomic_float

import (
	"math"
	"sync/atomic"
)

// AtomicFloat64 is a float64 gauge that may be written by one routine (e.g. a training
// loop) and read by others (e.g. http handlers) without locking. The bits are stored in
// an atomic.Uint64, so no unsafe pointer casts are needed.
type AtomicFloat64 struct {
	bits atomic.Uint64
}

// NewAtomicFloat64 encapsulates a float64 for atomic operations.
func NewAtomicFloat64(val float64) *AtomicFloat64 {
	af := &AtomicFloat64{}
	af.bits.Store(math.Float64bits(val))
	return af
}

// AtomicRead atomically reads the float64.
func (af *AtomicFloat64) AtomicRead() float64 {
	return math.Float64frombits(af.bits.Load())
}

// AtomicAdd attempts to add @addend once. If the value changed between the read and the
// swap, nothing is written and succeeded is false; the caller decides whether to retry.
func (af *AtomicFloat64) AtomicAdd(addend float64) (newVal float64, succeeded bool) {
	old := af.bits.Load()
	newVal = math.Float64frombits(old) + addend
	succeeded = af.bits.CompareAndSwap(old, math.Float64bits(newVal))
	return
}

// AtomicSet unconditionally stores the float64.
func (af *AtomicFloat64) AtomicSet(val float64) {
	af.bits.Store(math.Float64bits(val))
}
