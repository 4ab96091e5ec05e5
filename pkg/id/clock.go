package id

import "time"

// Clock reports wall-clock time in milliseconds since the Unix epoch.
type Clock interface {
	NowMillis() int64
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() int64

// NowMillis calls f.
func (f ClockFunc) NowMillis() int64 { return f() }

// SystemClock reads time.Now.
var SystemClock Clock = ClockFunc(func() int64 { return time.Now().UnixMilli() })
