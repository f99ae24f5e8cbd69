package sacn

import "time"

//Clock is the monotonic millisecond time source of the bridge. The value is allowed to wrap,
//all comparisons use unsigned subtraction.
type Clock interface {
	NowMillis() uint32
}

//MonotonicClock counts milliseconds since it was created
type MonotonicClock struct {
	start time.Time
}

//NewMonotonicClock returns a Clock that starts at 0
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{start: time.Now()}
}

//NowMillis returns the milliseconds since the clock was created, truncated to 32 bits
func (c *MonotonicClock) NowMillis() uint32 {
	return uint32(time.Since(c.start).Milliseconds())
}

func millis(d time.Duration) uint32 {
	return uint32(d / time.Millisecond)
}
