package light

import (
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"
)

// Default cycle bounds, in whole units.
const (
	DefaultMinCycle = 4
	DefaultMaxCycle = 6
)

// CycleFunc picks the dwell length, in whole units, for one run of the timer
// loop. It is called once per run and the result is reused for every
// half-cycle of that run.
type CycleFunc func() int

var cycleSeq atomic.Uint64

// RandomCycle returns a CycleFunc drawing uniformly from [min, max]. Each call
// seeds its own source, so no generator state is shared between runs.
func RandomCycle(min, max int) CycleFunc {
	if min < 1 || max < min {
		panic(fmt.Sprintf("light: invalid cycle range [%d, %d]", min, max))
	}
	return func() int {
		src := rand.NewPCG(uint64(time.Now().UnixNano()), cycleSeq.Add(1))
		return min + rand.New(src).IntN(max-min+1)
	}
}

// FixedCycle returns a CycleFunc that always picks n.
func FixedCycle(n int) CycleFunc {
	if n < 1 {
		panic(fmt.Sprintf("light: invalid fixed cycle %d", n))
	}
	return func() int { return n }
}
